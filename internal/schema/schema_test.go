package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const entryID = "6f1c1e9e-6a55-4c43-9d4a-2d7f4c1b8a10"

func decode(t *testing.T, body string) any {
	t.Helper()
	v, err := Decode([]byte(body))
	require.NoError(t, err)
	return v
}

func violations(t *testing.T, err error) []string {
	t.Helper()
	var schemaErr *Error
	require.True(t, errors.As(err, &schemaErr), "expected *schema.Error, got %v", err)
	out := make([]string, len(schemaErr.Violations))
	for i, v := range schemaErr.Violations {
		out[i] = v.Field
	}
	return out
}

func TestRejectsNull(t *testing.T) {
	checks := map[string]func(any) error{
		"user":        func(v any) error { _, err := User(v); return err },
		"token":       func(v any) error { _, err := Token(v); return err },
		"login":       func(v any) error { _, err := TokenWithUser(v); return err },
		"logout-all":  func(v any) error { _, err := LogoutAll(v); return err },
		"video entry": func(v any) error { _, err := VideoEntry(v); return err },
		"video list":  func(v any) error { _, err := VideoList(v); return err },
	}
	for name, check := range checks {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, check(nil))
			assert.Error(t, check(decode(t, `null`)))
			assert.Error(t, check(decode(t, `"text"`)))
			assert.Error(t, check(decode(t, `[1,2]`)))
		})
	}
}

func TestUser(t *testing.T) {
	u, err := User(decode(t, `{"id":"u1","email":"a@b.co","full_name":null,"is_active":true}`))
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
	assert.Equal(t, "a@b.co", u.Email)
	assert.Nil(t, u.FullName)
	require.NotNil(t, u.IsActive)
	assert.True(t, *u.IsActive)
	assert.Equal(t, "a@b.co", u.DisplayName())

	u, err = User(decode(t, `{"id":"u1","email":"a@b.co","full_name":"Ada"}`))
	require.NoError(t, err)
	assert.Equal(t, "Ada", u.DisplayName())
}

func TestUserMissingEmail(t *testing.T) {
	_, err := User(decode(t, `{"id":"u1","full_name":"Ada"}`))
	require.Error(t, err)
	assert.Equal(t, []string{"email"}, violations(t, err))
}

func TestUserWrongTypes(t *testing.T) {
	_, err := User(decode(t, `{"id":7,"email":"a@b.co","is_verified":"yes"}`))
	require.Error(t, err)
	assert.ElementsMatch(t, []string{"id", "is_verified"}, violations(t, err))
}

func TestToken(t *testing.T) {
	tok, err := Token(decode(t, `{"access_token":"abc"}`))
	require.NoError(t, err)
	assert.Equal(t, "abc", tok.AccessToken)
	assert.Equal(t, "bearer", tok.TokenType)

	_, err = Token(decode(t, `{"access_token":""}`))
	assert.Error(t, err)

	_, err = Token(decode(t, `{"token_type":"bearer"}`))
	assert.Equal(t, []string{"access_token"}, violations(t, err))
}

func TestTokenWithUser(t *testing.T) {
	res, err := TokenWithUser(decode(t, `{"access_token":"abc","token_type":"bearer","user":{"id":"u1","email":"a@b.co"}}`))
	require.NoError(t, err)
	assert.Equal(t, "abc", res.AccessToken)
	assert.Equal(t, "u1", res.User.ID)

	_, err = TokenWithUser(decode(t, `{"access_token":"abc"}`))
	assert.Equal(t, []string{"user"}, violations(t, err))

	_, err = TokenWithUser(decode(t, `{"access_token":"abc","user":{"id":"u1"}}`))
	assert.Equal(t, []string{"user.email"}, violations(t, err))
}

func TestLogoutAll(t *testing.T) {
	res, err := LogoutAll(decode(t, `{"revoked_sessions":3}`))
	require.NoError(t, err)
	assert.Equal(t, 3, res.RevokedSessions)

	_, err = LogoutAll(decode(t, `{"revoked_sessions":1.5}`))
	assert.Error(t, err)

	_, err = LogoutAll(decode(t, `{}`))
	assert.Error(t, err)
}

func TestVideoEntry(t *testing.T) {
	e, err := VideoEntry(decode(t, `{
		"id":"`+entryID+`","created_at":"2025-01-01T00:00:00Z","updated_at":null,
		"platform":"youtube","video_number":4,"description":"hello",
		"youtube_description":null,"scheduled_time":"2025-02-01T10:00:00Z"}`))
	require.NoError(t, err)
	assert.Equal(t, entryID, e.ID)
	assert.Equal(t, 4, e.VideoNumber)
	assert.Nil(t, e.YouTubeDescription)
	require.NotNil(t, e.ScheduledTime)
	assert.Equal(t, "2025-02-01T10:00:00Z", *e.ScheduledTime)
}

func TestVideoEntryOptionalFieldsMayBeAbsent(t *testing.T) {
	_, err := VideoEntry(decode(t, `{
		"id":"`+entryID+`","created_at":"2025-01-01T00:00:00Z",
		"platform":"tiktok","video_number":1,"description":""}`))
	assert.NoError(t, err)
}

func TestVideoEntryRejections(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"non-uuid id", `{"id":"abc","created_at":"x","platform":"tiktok","video_number":1,"description":""}`, "id"},
		{"unknown platform", `{"id":"` + entryID + `","created_at":"x","platform":"vine","video_number":1,"description":""}`, "platform"},
		{"fractional number", `{"id":"` + entryID + `","created_at":"x","platform":"tiktok","video_number":1.5,"description":""}`, "video_number"},
		{"null description", `{"id":"` + entryID + `","created_at":"x","platform":"tiktok","video_number":1,"description":null}`, "description"},
		{"numeric schedule", `{"id":"` + entryID + `","created_at":"x","platform":"tiktok","video_number":1,"description":"","scheduled_time":5}`, "scheduled_time"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := VideoEntry(decode(t, tt.body))
			require.Error(t, err)
			assert.Equal(t, []string{tt.field}, violations(t, err))
		})
	}
}

func TestVideoListEmpty(t *testing.T) {
	page, err := VideoList(decode(t, `{"items":[],"total":0,"page":1,"size":20}`))
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, 1, page.Page)
}

func TestVideoListItemMissingID(t *testing.T) {
	_, err := VideoList(decode(t, `{"items":[
		{"id":"`+entryID+`","created_at":"x","platform":"tiktok","video_number":1,"description":""},
		{"created_at":"x","platform":"tiktok","video_number":2,"description":""}
	],"total":2,"page":1,"size":20}`))
	require.Error(t, err)
	assert.Equal(t, []string{"items[1].id"}, violations(t, err))
}

func TestVideoListMissingPagination(t *testing.T) {
	_, err := VideoList(decode(t, `{"items":[]}`))
	require.Error(t, err)
	assert.ElementsMatch(t, []string{"total", "page", "size"}, violations(t, err))
}

func TestErrorMessage(t *testing.T) {
	_, err := User(decode(t, `{"id":"u1"}`))
	require.Error(t, err)
	assert.Equal(t, "invalid user response: email: is required", err.Error())
}
