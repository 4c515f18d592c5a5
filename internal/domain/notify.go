package domain

// Notifier surfaces short user-facing messages
type Notifier interface {
	Success(message string)
	Error(message string)
}

// Navigator sends the user to a screen. The only destination the core needs
// is the sign-in flow after a logout.
type Navigator interface {
	ToLogin()
}

// NoOpNotifier discards messages (for silent operations and tests).
type NoOpNotifier struct{}

func (NoOpNotifier) Success(string) {}
func (NoOpNotifier) Error(string)   {}

// NoOpNavigator ignores navigation requests.
type NoOpNavigator struct{}

func (NoOpNavigator) ToLogin() {}
