package cli

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/mmcdole/reelctl/internal/adapter"
)

var spinnerStyle = spinner.MiniDot

// spin runs fn on the calling goroutine while a spinner animates on the
// terminal status line
func (a *App) spin(label string, fn func() error) error {
	if !a.Interactive {
		return fn()
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(spinnerStyle.FPS)
		defer ticker.Stop()

		frame := 0
		for {
			glyph := spinnerStyle.Frames[frame%len(spinnerStyle.Frames)]
			a.Terminal.SetStatus(adapter.AccentStyle.Render(glyph) + " " + label + "...")
			select {
			case <-stop:
				a.Terminal.ClearStatus()
				return
			case <-ticker.C:
				frame++
			}
		}
	}()

	err := fn()
	close(stop)
	<-done
	return err
}
