package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/mmcdole/reelctl/internal/adapter"
	"github.com/mmcdole/reelctl/internal/domain"
)

func (a *App) login(ctx context.Context, args []string) error {
	fs := a.flagSet("login")
	email := fs.String("email", "", "account email")
	if rest, err := parseFlags(fs, args); err != nil || len(rest) > 0 {
		return a.usageOf("login")
	}

	if *email == "" {
		var err error
		if *email, err = a.Prompt.Line("Email: "); err != nil {
			return err
		}
	}
	password, err := a.Prompt.Password("Password: ")
	if err != nil {
		return err
	}

	return reported(a.do(ctx, "Signing in", func(ctx context.Context) error {
		_, err := a.Auth.Login(ctx, *email, password)
		return err
	}))
}

func (a *App) register(ctx context.Context, args []string) error {
	fs := a.flagSet("register")
	email := fs.String("email", "", "account email")
	name := fs.String("name", "", "full name")
	andLogin := fs.Bool("login", false, "sign in after creating the account")
	if rest, err := parseFlags(fs, args); err != nil || len(rest) > 0 {
		return a.usageOf("register")
	}

	if *email == "" {
		var err error
		if *email, err = a.Prompt.Line("Email: "); err != nil {
			return err
		}
	}
	password, err := a.newPassword("Password: ")
	if err != nil {
		return err
	}

	req := domain.RegisterRequest{Email: *email, Password: password}
	if *name != "" {
		req.FullName = name
	}

	return reported(a.do(ctx, "Creating account", func(ctx context.Context) error {
		if *andLogin {
			_, err := a.Auth.RegisterAndLogin(ctx, req)
			return err
		}
		_, err := a.Auth.Register(ctx, req)
		return err
	}))
}

// newPassword prompts for a password twice
func (a *App) newPassword(label string) (string, error) {
	password, err := a.Prompt.Password(label)
	if err != nil {
		return "", err
	}
	confirm, err := a.Prompt.Password("Confirm password: ")
	if err != nil {
		return "", err
	}
	if password != confirm {
		return "", a.fail("Passwords do not match")
	}
	return password, nil
}

func (a *App) logout(ctx context.Context, args []string) error {
	if len(args) > 0 {
		return a.usageOf("logout")
	}
	return a.do(ctx, "Signing out", a.Auth.Logout)
}

func (a *App) logoutAll(ctx context.Context, args []string) error {
	if len(args) > 0 {
		return a.usageOf("logout-all")
	}
	return reported(a.do(ctx, "Signing out everywhere", func(ctx context.Context) error {
		_, err := a.Auth.LogoutAll(ctx)
		return err
	}))
}

func (a *App) passwd(ctx context.Context, args []string) error {
	if len(args) > 0 {
		return a.usageOf("passwd")
	}
	current, err := a.Prompt.Password("Current password: ")
	if err != nil {
		return err
	}
	next, err := a.newPassword("New password: ")
	if err != nil {
		return err
	}
	return reported(a.do(ctx, "Changing password", func(ctx context.Context) error {
		return a.Auth.ChangePassword(ctx, current, next)
	}))
}

func (a *App) whoami(ctx context.Context, args []string) error {
	if len(args) > 0 {
		return a.usageOf("whoami")
	}

	var user domain.User
	err := a.do(ctx, "Loading profile", func(ctx context.Context) error {
		var err error
		user, err = a.Auth.CurrentUser(ctx)
		return err
	})
	if err != nil {
		// Offline: fall back to the profile saved with the session
		cached, ok := a.Session.User()
		if !ok || !errors.Is(err, domain.ErrServerOffline) {
			a.Terminal.Error(domain.Describe(err, "Failed to load profile"))
			return reported(err)
		}
		a.Logger.Warn("showing saved profile", "error", err)
		user = cached
		fmt.Fprintln(a.ErrOut, adapter.DimStyle.Render("Server unavailable; showing saved profile"))
	}

	fmt.Fprintln(a.Out, adapter.TitleStyle.Render(user.DisplayName()))
	fmt.Fprintf(a.Out, "  email  %s\n", user.Email)
	if user.Role != "" {
		fmt.Fprintf(a.Out, "  role   %s\n", user.Role)
	}
	fmt.Fprintf(a.Out, "  server %s\n", adapter.SubtitleStyle.Render(a.ServerURL))
	return nil
}

func (a *App) refresh(ctx context.Context, args []string) error {
	if len(args) > 0 {
		return a.usageOf("refresh")
	}
	if !a.Session.IsAuthenticated() {
		a.Terminal.Error("Please sign in first")
		a.Terminal.ToLogin()
		return ErrReported
	}
	if err := a.do(ctx, "Refreshing session", a.Auth.RefreshSession); err != nil {
		a.Terminal.Error("Your session has expired")
		a.Terminal.ToLogin()
		return reported(err)
	}
	a.Terminal.Success("Session refreshed")
	return nil
}
