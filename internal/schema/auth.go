package schema

import "github.com/mmcdole/reelctl/internal/domain"

// User validates a user profile response
func User(v any) (*domain.User, error) {
	c := &checker{}
	u := c.user(v)
	if err := c.err("user response"); err != nil {
		return nil, err
	}
	return u, nil
}

// Token validates a token response
func Token(v any) (*domain.Token, error) {
	c := &checker{}
	t := c.token(v)
	if err := c.err("token response"); err != nil {
		return nil, err
	}
	return t, nil
}

// TokenWithUser validates a login response
func TokenWithUser(v any) (*domain.TokenWithUser, error) {
	c := &checker{}
	t := c.token(v)
	var u *domain.User
	if obj, ok := v.(map[string]any); ok {
		if raw, present := obj["user"]; !present {
			c.fail("user", "is required")
		} else {
			c.nested("user", func(sub *checker) { u = sub.user(raw) })
		}
	}
	if err := c.err("login response"); err != nil {
		return nil, err
	}
	return &domain.TokenWithUser{Token: *t, User: *u}, nil
}

// LogoutAll validates a logout-all response
func LogoutAll(v any) (*domain.LogoutAllResult, error) {
	c := &checker{}
	obj, ok := c.object(v)
	if !ok {
		return nil, c.err("logout-all response")
	}
	n := c.requireInt(obj, "revoked_sessions")
	if n < 0 {
		c.fail("revoked_sessions", "must not be negative")
	}
	if err := c.err("logout-all response"); err != nil {
		return nil, err
	}
	return &domain.LogoutAllResult{RevokedSessions: n}, nil
}

func (c *checker) user(v any) *domain.User {
	obj, ok := c.object(v)
	if !ok {
		return nil
	}
	u := &domain.User{
		ID:         c.requireString(obj, "id"),
		Email:      c.requireString(obj, "email"),
		FullName:   c.optionalString(obj, "full_name"),
		IsActive:   c.optionalBool(obj, "is_active"),
		IsVerified: c.optionalBool(obj, "is_verified"),
		UpdatedAt:  c.optionalString(obj, "updated_at"),
	}
	if role := c.optionalString(obj, "role"); role != nil {
		u.Role = *role
	}
	if created := c.optionalString(obj, "created_at"); created != nil {
		u.CreatedAt = *created
	}
	if s, isString := obj["id"].(string); isString && s == "" {
		c.fail("id", "must not be empty")
	}
	return u
}

func (c *checker) token(v any) *domain.Token {
	obj, ok := c.object(v)
	if !ok {
		return nil
	}
	t := &domain.Token{
		AccessToken: c.requireString(obj, "access_token"),
		TokenType:   "bearer",
	}
	if tt := c.optionalString(obj, "token_type"); tt != nil {
		t.TokenType = *tt
	}
	if s, isString := obj["access_token"].(string); isString && s == "" {
		c.fail("access_token", "must not be empty")
	}
	return t
}
