package adapter

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/reelctl/internal/domain"
)

// Color palette
var (
	Accent    = lipgloss.Color("#E5A00D")
	DimGray   = lipgloss.Color("#6B7280")
	LightGray = lipgloss.Color("#9CA3AF")
	White     = lipgloss.Color("#F9FAFB")
	Green     = lipgloss.Color("#10B981")
	Red       = lipgloss.Color("#EF4444")

	platformColors = map[domain.Platform]lipgloss.Color{
		domain.PlatformTikTok:    lipgloss.Color("#25F4EE"),
		domain.PlatformInstagram: lipgloss.Color("#E1306C"),
		domain.PlatformYouTube:   lipgloss.Color("#FF3B30"),
	}
)

// Text styles
var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(White).
			Bold(true)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(LightGray)

	DimStyle = lipgloss.NewStyle().
			Foreground(DimGray)

	AccentStyle = lipgloss.NewStyle().
			Foreground(Accent)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(Red)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(Green)
)

// Status markers
const (
	SuccessChar = "✓"
	ErrorChar   = "✗"
	DirtyChar   = "●"
)

// PlatformBadge renders a platform name in its brand color
func PlatformBadge(p domain.Platform) string {
	style := lipgloss.NewStyle().Bold(true)
	if c, ok := platformColors[p]; ok {
		style = style.Foreground(c)
	}
	return style.Render(p.DisplayName())
}

// Terminal prints notifier messages as styled lines. It implements
// domain.Notifier and domain.Navigator.
type Terminal struct {
	mu     sync.Mutex
	out    io.Writer
	errOut io.Writer
	errors int
	status bool // a transient status line is on errOut
}

// NewTerminal writes successes to out and errors to errOut
func NewTerminal(out, errOut io.Writer) *Terminal {
	return &Terminal{out: out, errOut: errOut}
}

func (t *Terminal) Success(message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.clearStatusLocked()
	fmt.Fprintf(t.out, "%s %s\n", SuccessStyle.Render(SuccessChar), message)
}

func (t *Terminal) Error(message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.clearStatusLocked()
	t.errors++
	fmt.Fprintf(t.errOut, "%s %s\n", ErrorStyle.Render(ErrorChar), message)
}

// ToLogin points the user at the sign-in command
func (t *Terminal) ToLogin() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.clearStatusLocked()
	fmt.Fprintln(t.errOut, DimStyle.Render("Run 'reelctl login' to sign in."))
}

// SetStatus replaces the transient status line
func (t *Terminal) SetStatus(line string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.errOut, "\r\033[K%s", line)
	t.status = true
}

// ClearStatus erases the status line, if any
func (t *Terminal) ClearStatus() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.clearStatusLocked()
}

func (t *Terminal) clearStatusLocked() {
	if t.status {
		fmt.Fprint(t.errOut, "\r\033[K")
		t.status = false
	}
}

// Errors reports how many error messages have been shown
func (t *Terminal) Errors() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.errors
}

var (
	_ domain.Notifier  = (*Terminal)(nil)
	_ domain.Navigator = (*Terminal)(nil)
)
