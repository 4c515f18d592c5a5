package auth

import (
	"fmt"

	"github.com/mmcdole/reelctl/internal/domain"
)

const (
	msgRegistered      = "Account created. You can now sign in."
	msgLoggedOut       = "Logged out successfully"
	msgPasswordChanged = "Password changed successfully"

	msgLoginFailed          = "Login failed"
	msgRegisterFailed       = "Registration failed"
	msgLogoutAllFailed      = "Failed to logout all sessions"
	msgChangePasswordFailed = "Failed to change password"
)

func msgWelcomeBack(u domain.User) string {
	if u.FullName == nil || *u.FullName == "" {
		return "Welcome back!"
	}
	return fmt.Sprintf("Welcome back, %s!", *u.FullName)
}

func msgLoggedOutAll(n int) string {
	return fmt.Sprintf("Logged out from %d session(s)", n)
}
