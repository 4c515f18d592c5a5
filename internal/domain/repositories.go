package domain

import "context"

// AuthRepository: account network operations (implemented by the API client).
// Every response has already passed shape validation when a method returns nil error.
type AuthRepository interface {
	Login(ctx context.Context, req LoginRequest) (*TokenWithUser, error)
	Refresh(ctx context.Context) (*Token, error)
	Logout(ctx context.Context) error
	LogoutAll(ctx context.Context) (*LogoutAllResult, error)
	CurrentUser(ctx context.Context) (*User, error)
	ChangePassword(ctx context.Context, req PasswordChangeRequest) error
	Register(ctx context.Context, req RegisterRequest) (*User, error)
	// ClearCookies drops the locally held refresh credential
	ClearCookies() error
}

// VideoRepository: video entry network operations (implemented by the API client)
type VideoRepository interface {
	ListVideos(ctx context.Context, query VideoListQuery) (*VideoPage, error)
	GetVideo(ctx context.Context, id string) (*VideoEntry, error)
	CreateVideo(ctx context.Context, req VideoCreateRequest) (*VideoEntry, error)
	UpdateVideo(ctx context.Context, id string, req VideoUpdateRequest) (*VideoEntry, error)
	DeleteVideo(ctx context.Context, id string) error
	CopyVideo(ctx context.Context, id string, req VideoCopyRequest) (*VideoEntry, error)
}
