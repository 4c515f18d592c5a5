// Package cli maps reelctl subcommands onto the account and video
// operations. Operation failures are shown by the services through the
// notifier; the CLI only turns them into an exit status.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/mmcdole/reelctl/internal/adapter"
	"github.com/mmcdole/reelctl/internal/auth"
	"github.com/mmcdole/reelctl/internal/domain"
	"github.com/mmcdole/reelctl/internal/drafts"
	"github.com/mmcdole/reelctl/internal/session"
	"github.com/mmcdole/reelctl/internal/video"
)

var (
	// ErrReported means the failure has already been shown to the user
	ErrReported = errors.New("error already reported")

	// ErrUsage means the command line could not be understood
	ErrUsage = errors.New("usage error")
)

// Options wires an App to its services and terminal
type Options struct {
	Auth     *auth.Service
	Videos   *video.Service
	Session  *session.Store
	Drafts   *drafts.Store
	Terminal *adapter.Terminal
	Prompt   *Prompter

	Out    io.Writer
	ErrOut io.Writer

	// Interactive enables the spinner
	Interactive bool

	// Timeout bounds each network operation
	Timeout     time.Duration
	RefreshSkew time.Duration

	Version   string
	ServerURL string

	// SaveServerURL persists a new API base URL. nil disables "reelctl server <url>".
	SaveServerURL func(url string) error

	Logger *slog.Logger
}

// App runs one reelctl command
type App struct {
	Options
	commands map[string]command
}

type command struct {
	args    string
	summary string
	// authed commands refresh a near-expiry token first and refuse to run
	// without a session
	authed bool
	run    func(ctx context.Context, args []string) error
}

// New creates an App
func New(opts Options) *App {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 2 * time.Minute
	}
	a := &App{Options: opts}
	a.commands = map[string]command{
		"login":        {"[-email addr]", "sign in", false, a.login},
		"register":     {"[-email addr] [-name name] [-login]", "create an account", false, a.register},
		"logout":       {"", "sign out of this device", false, a.logout},
		"logout-all":   {"", "sign out of every device", true, a.logoutAll},
		"passwd":       {"", "change your password", true, a.passwd},
		"whoami":       {"", "show the signed-in account", true, a.whoami},
		"refresh":      {"", "renew the session token", false, a.refresh},
		"use":          {"<platform>", "set the default platform", false, a.use},
		"list":         {"[platform|all]", "list video entries", true, a.list},
		"show":         {"<id>", "show one video entry", true, a.show},
		"create":       {"[platform] [-number n] [-description text]", "create a video entry", true, a.create},
		"edit":         {"<id> [-description text] [-youtube text] [-schedule time]", "stage local changes", false, a.edit},
		"save":         {"<id>", "upload staged changes", true, a.save},
		"discard":      {"<id>", "drop staged changes", false, a.discard},
		"drafts":       {"[-filter text]", "list staged changes", false, a.listDrafts},
		"clear-drafts": {"", "drop all staged changes", false, a.clearDrafts},
		"delete":       {"<id> [-yes]", "delete a video entry", true, a.delete},
		"copy":         {"<id> <platform>", "copy an entry to another platform", true, a.copy},
		"search":       {"[platform] <query>", "search cached entries", false, a.search},
		"server":       {"[url]", "show or set the API server", false, a.server},
		"version":      {"", "print the version", false, a.version},
	}
	return a
}

// Run executes the command named by args[0]
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		a.Usage()
		if len(args) == 0 {
			return ErrUsage
		}
		return nil
	}

	name := args[0]
	cmd, ok := a.commands[name]
	if !ok {
		fmt.Fprintf(a.ErrOut, "unknown command %q\n\n", name)
		a.Usage()
		return ErrUsage
	}

	a.Logger.Debug("running command", "command", name)
	if !cmd.authed {
		return cmd.run(ctx, args[1:])
	}
	if err := a.ensureSession(ctx); err != nil {
		return err
	}
	err := cmd.run(ctx, args[1:])
	if err != nil && !a.Session.IsAuthenticated() {
		// The server rejected the session and it could not be renewed
		a.Terminal.ToLogin()
	}
	return err
}

// Usage prints the command list
func (a *App) Usage() {
	names := make([]string, 0, len(a.commands))
	for name := range a.commands {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(a.ErrOut, "usage: reelctl [-config path] <command> [args]")
	fmt.Fprintln(a.ErrOut)
	for _, name := range names {
		cmd := a.commands[name]
		fmt.Fprintf(a.ErrOut, "  %-13s %-48s %s\n", name, cmd.args, adapter.DimStyle.Render(cmd.summary))
	}
}

func (a *App) ensureSession(ctx context.Context) error {
	err := a.do(ctx, "Checking session", func(ctx context.Context) error {
		return a.Auth.EnsureFresh(ctx, a.RefreshSkew)
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrNotAuthenticated):
		a.Terminal.Error("Please sign in first")
	default:
		a.Terminal.Error("Your session has expired")
	}
	a.Terminal.ToLogin()
	return ErrReported
}

// do runs one network operation under the spinner with the operation timeout
func (a *App) do(ctx context.Context, label string, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, a.Timeout)
	defer cancel()
	return a.spin(label, func() error { return fn(ctx) })
}

// reported maps a service error (already shown) to ErrReported
func reported(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrReported, err)
}

// fail shows a message the services did not
func (a *App) fail(format string, args ...any) error {
	a.Terminal.Error(fmt.Sprintf(format, args...))
	return ErrReported
}

// parseFlags parses fs over args, allowing flags before, between and after
// positional arguments
func parseFlags(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, ErrUsage
		}
		if fs.NArg() == 0 {
			return positional, nil
		}
		positional = append(positional, fs.Arg(0))
		args = fs.Args()[1:]
	}
}

func (a *App) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.ErrOut)
	fs.Usage = func() {
		cmd := a.commands[name]
		fmt.Fprintf(a.ErrOut, "usage: reelctl %s %s\n", name, cmd.args)
		fs.PrintDefaults()
	}
	return fs
}

func (a *App) usageOf(name string) error {
	fmt.Fprintf(a.ErrOut, "usage: reelctl %s %s\n", name, a.commands[name].args)
	return ErrUsage
}

// platformArg parses a platform argument; "" means the active platform
func (a *App) platformArg(arg string) (domain.Platform, error) {
	if arg == "" {
		return a.Drafts.ActivePlatform(), nil
	}
	p, err := domain.ParsePlatform(arg)
	if err != nil {
		return "", a.fail("%s", err)
	}
	return p, nil
}

func (a *App) version(_ context.Context, _ []string) error {
	fmt.Fprintf(a.Out, "reelctl %s\n", a.Version)
	return nil
}

func (a *App) server(_ context.Context, args []string) error {
	switch len(args) {
	case 0:
		fmt.Fprintln(a.Out, a.ServerURL)
		return nil
	case 1:
	default:
		return a.usageOf("server")
	}
	if a.SaveServerURL == nil {
		return a.fail("Changing the server is not supported here")
	}
	url := strings.TrimRight(strings.TrimSpace(args[0]), "/")
	if err := a.SaveServerURL(url); err != nil {
		return a.fail("Failed to save server: %v", err)
	}
	a.Terminal.Success(fmt.Sprintf("Server set to %s", url))
	return nil
}
