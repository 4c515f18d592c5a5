package domain

import (
	"fmt"
	"strings"
)

// Platform identifies the social platform a video entry belongs to
type Platform string

const (
	PlatformTikTok    Platform = "tiktok"
	PlatformInstagram Platform = "instagram"
	PlatformYouTube   Platform = "youtube"
)

// Platforms lists every supported platform in display order
var Platforms = []Platform{PlatformTikTok, PlatformInstagram, PlatformYouTube}

// ParsePlatform converts user input to a Platform
func ParsePlatform(s string) (Platform, error) {
	p := Platform(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("unknown platform %q (want tiktok, instagram or youtube)", s)
	}
	return p, nil
}

// Valid reports whether p is one of the supported platforms
func (p Platform) Valid() bool {
	switch p {
	case PlatformTikTok, PlatformInstagram, PlatformYouTube:
		return true
	}
	return false
}

// DisplayName returns the platform name as shown to users
func (p Platform) DisplayName() string {
	switch p {
	case PlatformTikTok:
		return "TikTok"
	case PlatformInstagram:
		return "Instagram"
	case PlatformYouTube:
		return "YouTube"
	default:
		return string(p)
	}
}

// User is the authenticated account profile returned by the API
type User struct {
	ID         string  `json:"id"`
	Email      string  `json:"email"`
	FullName   *string `json:"full_name,omitempty"`
	IsActive   *bool   `json:"is_active,omitempty"`
	IsVerified *bool   `json:"is_verified,omitempty"`
	Role       string  `json:"role,omitempty"`
	CreatedAt  string  `json:"created_at,omitempty"`
	UpdatedAt  *string `json:"updated_at,omitempty"`
}

// DisplayName returns the full name, falling back to the email address
func (u User) DisplayName() string {
	if u.FullName != nil && strings.TrimSpace(*u.FullName) != "" {
		return *u.FullName
	}
	return u.Email
}

// Token is a bearer credential issued by the API
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// TokenWithUser is the login response: a credential plus the profile it belongs to
type TokenWithUser struct {
	Token
	User User `json:"user"`
}

// LogoutAllResult reports how many sessions the server revoked
type LogoutAllResult struct {
	RevokedSessions int `json:"revoked_sessions"`
}

// VideoEntry is the metadata for one posted or planned video on one platform.
// The server owns it; the client only holds copies.
type VideoEntry struct {
	ID                 string   `json:"id"`
	CreatedAt          string   `json:"created_at"`
	UpdatedAt          *string  `json:"updated_at,omitempty"`
	Platform           Platform `json:"platform"`
	VideoNumber        int      `json:"video_number"`
	Description        string   `json:"description"`
	YouTubeDescription *string  `json:"youtube_description,omitempty"`
	ScheduledTime      *string  `json:"scheduled_time,omitempty"`
}

// VideoPage is one page of a video listing
type VideoPage struct {
	Items []VideoEntry `json:"items"`
	Total int          `json:"total"`
	Page  int          `json:"page"`
	Size  int          `json:"size"`
}

// Session is the locally held proof of authentication.
// IsAuthenticated is derived from User and AccessToken on every write.
type Session struct {
	User            *User  `json:"user"`
	AccessToken     string `json:"accessToken"`
	IsAuthenticated bool   `json:"isAuthenticated"`
}

// Authenticated recomputes the derived flag from the other two fields
func (s Session) Authenticated() bool {
	return s.User != nil && s.AccessToken != ""
}

// Draft holds unsaved local edits to a video entry.
// Its presence means the edits have not yet been saved to the server.
type Draft struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	// DescriptionSet is true once an edit has touched Description; a new
	// draft's empty default is never sent to the server
	DescriptionSet     bool    `json:"descriptionSet,omitempty"`
	YouTubeDescription *string `json:"youtube_description,omitempty"`
	ScheduledTime      *string `json:"scheduled_time,omitempty"`
	IsDirty            bool    `json:"isDirty"`
}

// UpdateRequest builds the server update carrying only the fields the
// draft has set
func (d Draft) UpdateRequest() VideoUpdateRequest {
	req := VideoUpdateRequest{
		YouTubeDescription: d.YouTubeDescription,
		ScheduledTime:      d.ScheduledTime,
	}
	if d.DescriptionSet {
		desc := d.Description
		req.Description = &desc
	}
	return req
}

// DraftPatch is a partial draft update. Nil fields are left untouched.
type DraftPatch struct {
	Description        *string
	YouTubeDescription *string
	ScheduledTime      *string
}

// DraftState is the persisted draft mapping
type DraftState struct {
	Drafts         map[string]Draft `json:"drafts"`
	ActivePlatform Platform         `json:"activePlatform"`
}
