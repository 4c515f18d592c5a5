package domain

// Request payloads sent to the API. The validate tags are checked before any
// network call is made.

// LoginRequest carries form-encoded credentials
type LoginRequest struct {
	Username string `validate:"required"`
	Password string `validate:"required"`
}

// RegisterRequest creates a new account
type RegisterRequest struct {
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required,min=8,max=128"`
	FullName *string `json:"full_name,omitempty" validate:"omitempty,max=255"`
}

// PasswordChangeRequest changes the current user's password
type PasswordChangeRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=128"`
}

// VideoCreateRequest creates a video entry
type VideoCreateRequest struct {
	Platform           Platform `json:"platform" validate:"required,oneof=tiktok instagram youtube"`
	VideoNumber        int      `json:"video_number" validate:"gte=1"`
	Description        string   `json:"description"`
	YouTubeDescription *string  `json:"youtube_description,omitempty"`
	ScheduledTime      *string  `json:"scheduled_time,omitempty" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
}

// VideoUpdateRequest patches a video entry. Nil fields are not sent.
type VideoUpdateRequest struct {
	Description        *string `json:"description,omitempty"`
	YouTubeDescription *string `json:"youtube_description,omitempty"`
	ScheduledTime      *string `json:"scheduled_time,omitempty" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
}

// Empty reports whether the update would change nothing
func (r VideoUpdateRequest) Empty() bool {
	return r.Description == nil && r.YouTubeDescription == nil && r.ScheduledTime == nil
}

// VideoCopyRequest copies an entry to another platform.
// ShortenForYouTube is passed to the server unchanged.
type VideoCopyRequest struct {
	TargetPlatform    Platform `json:"target_platform" validate:"required,oneof=tiktok instagram youtube"`
	ShortenForYouTube bool     `json:"shorten_for_youtube"`
}

// VideoListQuery filters a video listing. An empty Platform lists all platforms.
type VideoListQuery struct {
	Platform Platform
	Page     int
	Size     int
}
