// Package apitest runs an in-memory implementation of the video metadata API
// for tests.
package apitest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/mmcdole/reelctl/internal/domain"
)

const (
	refreshCookie = "refresh_token"
	signingKey    = "apitest-signing-key"
)

type account struct {
	user     domain.User
	password string
}

type stub struct {
	status int
	body   string
	times  int // 0 = until cleared
}

// Server is a fake API. Exported helpers seed data and inject failures.
type Server struct {
	*httptest.Server

	// TokenTTL is the lifetime of issued access tokens
	TokenTTL time.Duration

	mu       sync.Mutex
	accounts map[string]*account // by email
	access   map[string]string   // access token -> user id
	refresh  map[string]string   // refresh cookie -> user id
	videos   map[string]domain.VideoEntry
	owners   map[string]string // video id -> user id
	order    []string
	stubs    map[string]*stub
	hits     map[string]int
	copies   []domain.VideoCopyRequest
}

type ctxKey struct{}

// NewServer starts a fake API. Close it when done.
func NewServer() *Server {
	s := &Server{
		TokenTTL: 15 * time.Minute,
		accounts: make(map[string]*account),
		access:   make(map[string]string),
		refresh:  make(map[string]string),
		videos:   make(map[string]domain.VideoEntry),
		owners:   make(map[string]string),
		stubs:    make(map[string]*stub),
		hits:     make(map[string]int),
	}
	s.Server = httptest.NewServer(s.routes())
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.countAndStub)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/auth/login", s.handleLogin)
		r.Post("/auth/refresh", s.handleRefresh)
		r.Post("/users", s.handleRegister)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Post("/auth/logout", s.handleLogout)
			r.Post("/auth/logout-all", s.handleLogoutAll)
			r.Get("/auth/me", s.handleMe)
			r.Post("/auth/change-password", s.handleChangePassword)

			r.Get("/videos", s.handleListVideos)
			r.Post("/videos", s.handleCreateVideo)
			r.Get("/videos/{id}", s.handleGetVideo)
			r.Patch("/videos/{id}", s.handleUpdateVideo)
			r.Delete("/videos/{id}", s.handleDeleteVideo)
			r.Post("/videos/{id}/copy", s.handleCopyVideo)
		})
	})
	return r
}

func routeKey(method, path string) string {
	return method + " " + path
}

// === Test helpers ===

// AddUser registers an account directly
func (s *Server) AddUser(email, password, fullName string) domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addUserLocked(email, password, fullName)
}

func (s *Server) addUserLocked(email, password, fullName string) domain.User {
	active, verified := true, false
	u := domain.User{
		ID:         uuid.NewString(),
		Email:      email,
		IsActive:   &active,
		IsVerified: &verified,
		Role:       "user",
		CreatedAt:  time.Now().UTC().Format(time.RFC3339),
	}
	if fullName != "" {
		name := fullName
		u.FullName = &name
	}
	s.accounts[email] = &account{user: u, password: password}
	return u
}

// AddVideo stores an entry owned by the account with email
func (s *Server) AddVideo(email string, p domain.Platform, number int, description string) domain.VideoEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[email]
	if !ok {
		panic("apitest: unknown account " + email)
	}
	return s.addVideoLocked(acct.user.ID, domain.VideoCreateRequest{
		Platform:    p,
		VideoNumber: number,
		Description: description,
	})
}

// Video returns the stored entry with id
func (s *Server) Video(id string) (domain.VideoEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.videos[id]
	return v, ok
}

// CopyRequests returns every copy request body received
func (s *Server) CopyRequests() []domain.VideoCopyRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.VideoCopyRequest(nil), s.copies...)
}

// Stub makes method+path (without the /v1 prefix) answer status and body
// for the next n requests. n == 0 stubs it until ClearStubs.
func (s *Server) Stub(method, path string, status int, body string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stubs[routeKey(method, path)] = &stub{status: status, body: body, times: n}
}

func (s *Server) ClearStubs() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stubs = make(map[string]*stub)
}

// Hits reports how many requests reached method+path
func (s *Server) Hits(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[routeKey(method, path)]
}

// RevokeAccessTokens invalidates every issued access token
func (s *Server) RevokeAccessTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access = make(map[string]string)
}

// RevokeRefreshTokens invalidates every refresh cookie
func (s *Server) RevokeRefreshTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh = make(map[string]string)
}

// === Middleware ===

func (s *Server) countAndStub(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := routeKey(r.Method, strings.TrimPrefix(r.URL.Path, "/v1"))

		s.mu.Lock()
		s.hits[key]++
		st, ok := s.stubs[key]
		if ok && st.times > 0 {
			st.times--
			if st.times == 0 {
				delete(s.stubs, key)
			}
		}
		s.mu.Unlock()

		if ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(st.status)
			_, _ = w.Write([]byte(st.body))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		s.mu.Lock()
		userID, known := s.access[token]
		s.mu.Unlock()
		if !ok || !known {
			writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, userID)))
	})
}

func userIDFrom(r *http.Request) string {
	id, _ := r.Context().Value(ctxKey{}).(string)
	return id
}

// === Auth handlers ===

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid form")
		return
	}
	email, password := r.PostForm.Get("username"), r.PostForm.Get("password")

	s.mu.Lock()
	acct, ok := s.accounts[email]
	if !ok || acct.password != password {
		s.mu.Unlock()
		writeDetail(w, http.StatusUnauthorized, "Incorrect email or password")
		return
	}
	access := s.issueLocked(acct.user.ID)
	refresh := uuid.NewString()
	s.refresh[refresh] = acct.user.ID
	user := acct.user
	s.mu.Unlock()

	http.SetCookie(w, &http.Cookie{Name: refreshCookie, Value: refresh, Path: "/", HttpOnly: true})
	writeJSON(w, http.StatusOK, map[string]any{
		"access_token": access,
		"token_type":   "bearer",
		"user":         userJSON(user),
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	ck, err := r.Cookie(refreshCookie)
	if err != nil {
		writeDetail(w, http.StatusUnauthorized, "Refresh token missing")
		return
	}
	s.mu.Lock()
	userID, ok := s.refresh[ck.Value]
	var access string
	if ok {
		access = s.issueLocked(userID)
	}
	s.mu.Unlock()
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "Invalid refresh token")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"access_token": access, "token_type": "bearer"})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}
	s.mu.Lock()
	if _, exists := s.accounts[req.Email]; exists {
		s.mu.Unlock()
		writeDetail(w, http.StatusConflict, "Email already registered")
		return
	}
	var name string
	if req.FullName != nil {
		name = *req.FullName
	}
	u := s.addUserLocked(req.Email, req.Password, name)
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, userJSON(u))
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	delete(s.access, token)
	if ck, err := r.Cookie(refreshCookie); err == nil {
		delete(s.refresh, ck.Value)
	}
	s.mu.Unlock()
	http.SetCookie(w, &http.Cookie{Name: refreshCookie, Path: "/", MaxAge: -1})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLogoutAll(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r)
	s.mu.Lock()
	revoked := 0
	for k, id := range s.refresh {
		if id == userID {
			delete(s.refresh, k)
			revoked++
		}
	}
	for k, id := range s.access {
		if id == userID {
			delete(s.access, k)
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"revoked_sessions": revoked})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	u, ok := s.userByID(userIDFrom(r))
	if !ok {
		writeDetail(w, http.StatusNotFound, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, userJSON(u))
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req domain.PasswordChangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}
	userID := userIDFrom(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, acct := range s.accounts {
		if acct.user.ID != userID {
			continue
		}
		if acct.password != req.CurrentPassword {
			writeDetail(w, http.StatusBadRequest, "Current password is incorrect")
			return
		}
		acct.password = req.NewPassword
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeDetail(w, http.StatusNotFound, "User not found")
}

func (s *Server) userByID(id string) (domain.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, acct := range s.accounts {
		if acct.user.ID == id {
			return acct.user, true
		}
	}
	return domain.User{}, false
}

func (s *Server) issueLocked(userID string) string {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.TokenTTL)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(signingKey))
	if err != nil {
		panic(fmt.Sprintf("apitest: sign token: %v", err))
	}
	s.access[signed] = userID
	return signed
}

// === Video handlers ===

func (s *Server) handleListVideos(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	platform := domain.Platform(q.Get("platform"))
	if platform != "" && !platform.Valid() {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid platform")
		return
	}
	page, size := intParam(q.Get("page"), 1), intParam(q.Get("size"), 20)
	if page < 1 || size < 1 || size > 100 {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid pagination")
		return
	}

	userID := userIDFrom(r)
	s.mu.Lock()
	var matched []domain.VideoEntry
	for _, id := range s.order {
		v := s.videos[id]
		if s.owners[id] == userID && (platform == "" || v.Platform == platform) {
			matched = append(matched, v)
		}
	}
	s.mu.Unlock()

	start := min((page-1)*size, len(matched))
	end := min(start+size, len(matched))
	items := make([]map[string]any, 0, end-start)
	for _, v := range matched[start:end] {
		items = append(items, videoJSON(v))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": items,
		"total": len(matched),
		"page":  page,
		"size":  size,
	})
}

func (s *Server) handleCreateVideo(w http.ResponseWriter, r *http.Request) {
	var req domain.VideoCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !req.Platform.Valid() || req.VideoNumber < 1 {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid video entry")
		return
	}
	s.mu.Lock()
	v := s.addVideoLocked(userIDFrom(r), req)
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, videoJSON(v))
}

func (s *Server) handleGetVideo(w http.ResponseWriter, r *http.Request) {
	v, ok := s.ownedVideo(r)
	if !ok {
		writeDetail(w, http.StatusNotFound, "Video entry not found")
		return
	}
	writeJSON(w, http.StatusOK, videoJSON(v))
}

func (s *Server) handleUpdateVideo(w http.ResponseWriter, r *http.Request) {
	v, ok := s.ownedVideo(r)
	if !ok {
		writeDetail(w, http.StatusNotFound, "Video entry not found")
		return
	}
	var req domain.VideoUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}
	if req.Description != nil {
		v.Description = *req.Description
	}
	if req.YouTubeDescription != nil {
		v.YouTubeDescription = req.YouTubeDescription
	}
	if req.ScheduledTime != nil {
		v.ScheduledTime = req.ScheduledTime
	}
	updated := time.Now().UTC().Format(time.RFC3339)
	v.UpdatedAt = &updated

	s.mu.Lock()
	s.videos[v.ID] = v
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, videoJSON(v))
}

func (s *Server) handleDeleteVideo(w http.ResponseWriter, r *http.Request) {
	v, ok := s.ownedVideo(r)
	if !ok {
		writeDetail(w, http.StatusNotFound, "Video entry not found")
		return
	}
	s.mu.Lock()
	delete(s.videos, v.ID)
	delete(s.owners, v.ID)
	for i, id := range s.order {
		if id == v.ID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCopyVideo(w http.ResponseWriter, r *http.Request) {
	src, ok := s.ownedVideo(r)
	if !ok {
		writeDetail(w, http.StatusNotFound, "Video entry not found")
		return
	}
	var req domain.VideoCopyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !req.TargetPlatform.Valid() {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid target platform")
		return
	}

	userID := userIDFrom(r)
	s.mu.Lock()
	s.copies = append(s.copies, req)
	next := 1
	for id, v := range s.videos {
		if s.owners[id] == userID && v.Platform == req.TargetPlatform && v.VideoNumber >= next {
			next = v.VideoNumber + 1
		}
	}
	v := s.addVideoLocked(userID, domain.VideoCreateRequest{
		Platform:      req.TargetPlatform,
		VideoNumber:   next,
		Description:   src.Description,
		ScheduledTime: src.ScheduledTime,
	})
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, videoJSON(v))
}

func (s *Server) ownedVideo(r *http.Request) (domain.VideoEntry, bool) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.videos[id]
	if !ok || s.owners[id] != userIDFrom(r) {
		return domain.VideoEntry{}, false
	}
	return v, true
}

func (s *Server) addVideoLocked(userID string, req domain.VideoCreateRequest) domain.VideoEntry {
	v := domain.VideoEntry{
		ID:                 uuid.NewString(),
		CreatedAt:          time.Now().UTC().Format(time.RFC3339),
		Platform:           req.Platform,
		VideoNumber:        req.VideoNumber,
		Description:        req.Description,
		YouTubeDescription: req.YouTubeDescription,
		ScheduledTime:      req.ScheduledTime,
	}
	s.videos[v.ID] = v
	s.owners[v.ID] = userID
	s.order = append(s.order, v.ID)
	return v
}

// === Encoding ===

// userJSON and videoJSON write optional fields as null, the way the real
// server does, rather than omitting them
func userJSON(u domain.User) map[string]any {
	return map[string]any{
		"id":          u.ID,
		"email":       u.Email,
		"full_name":   u.FullName,
		"is_active":   u.IsActive,
		"is_verified": u.IsVerified,
		"role":        u.Role,
		"created_at":  u.CreatedAt,
		"updated_at":  u.UpdatedAt,
	}
}

func videoJSON(v domain.VideoEntry) map[string]any {
	return map[string]any{
		"id":                  v.ID,
		"created_at":          v.CreatedAt,
		"updated_at":          v.UpdatedAt,
		"platform":            v.Platform,
		"video_number":        v.VideoNumber,
		"description":         v.Description,
		"youtube_description": v.YouTubeDescription,
		"scheduled_time":      v.ScheduledTime,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func intParam(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return -1
	}
	return n
}
