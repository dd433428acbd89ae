// Package apitest provides an in-memory fake of the bookmark admin API for tests.
package apitest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"BookmarkAdmin/internal/cli/model"
)

// User is a fake account with its bookmarks and sync history.
type User struct {
	ID           int64
	Email        string
	PasswordHash []byte
	Status       string
	IsAdmin      bool
	CreatedAt    time.Time
	LastSyncAt   *time.Time
	Bookmarks    []model.Bookmark
	Syncs        []model.SyncLog
}

// Request is what the fake recorded about one incoming call.
type Request struct {
	Method        string
	Path          string
	Authorization string
	RequestID     string
}

// Server — httptest-сервер, имитирующий /api/admin/*.
type Server struct {
	*httptest.Server

	secret []byte

	mu       sync.Mutex
	users    map[int64]*User
	nextID   int64
	requests []Request
	// LoginExtra is merged into successful login responses.
	LoginExtra map[string]any
}

type claims struct {
	Email   string `json:"email"`
	IsAdmin bool   `json:"is_admin"`
	jwt.RegisteredClaims
}

type ctxUserKey struct{}

// NewServer starts the fake. Each server signs with its own random secret, so
// tokens from one fake are rejected by another. The API root is APIURL().
func NewServer() *Server {
	s := &Server{
		secret: []byte(uuid.NewString()),
		users:  map[int64]*User{},
		nextID: 1,
	}
	r := chi.NewRouter()
	r.Use(s.record)
	r.Route("/api/admin", func(r chi.Router) {
		r.Post("/login", s.login)
		r.Group(func(r chi.Router) {
			r.Use(s.requireAdmin)
			r.Get("/stats", s.stats)
			r.Get("/users", s.listUsers)
			r.Get("/user/{id}", s.getUser)
			r.Put("/user/{id}", s.updateUser)
			r.Delete("/user/{id}", s.deleteUser)
		})
	})
	s.Server = httptest.NewServer(r)
	return s
}

// APIURL returns the base URL an api.Client should be built with.
func (s *Server) APIURL() string { return s.URL + "/api" }

// AddUser creates an active account and returns its id.
func (s *Server) AddUser(email, password string, admin bool) int64 {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.users[id] = &User{
		ID:           id,
		Email:        email,
		PasswordHash: hash,
		Status:       model.StatusActive,
		IsAdmin:      admin,
		CreatedAt:    time.Now().UTC().Add(time.Duration(id) * time.Second),
	}
	return id
}

// AddBookmark attaches a bookmark to the user.
func (s *Server) AddBookmark(userID int64, url, title string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return
	}
	u.Bookmarks = append(u.Bookmarks, model.Bookmark{
		ID:        int64(len(u.Bookmarks) + 1),
		URL:       url,
		Title:     title,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	})
}

// User returns a copy of the stored account.
func (s *Server) User(id int64) (User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return User{}, false
	}
	return *u, true
}

// Token mints a valid token for the user, expiring after ttl.
func (s *Server) Token(id int64, ttl time.Duration) string {
	s.mu.Lock()
	u := s.users[id]
	s.mu.Unlock()
	email, admin := "", false
	if u != nil {
		email, admin = u.Email, u.IsAdmin
	}
	return s.sign(id, email, admin, ttl)
}

// Requests returns calls recorded so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

func (s *Server) sign(id int64, email string, admin bool, ttl time.Duration) string {
	now := time.Now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Email:   email,
		IsAdmin: admin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(id, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	signed, err := tok.SignedString(s.secret)
	if err != nil {
		panic(err)
	}
	return signed
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method:        r.Method,
			Path:          r.URL.Path,
			Authorization: r.Header.Get("Authorization"),
			RequestID:     r.Header.Get("X-Request-ID"),
		})
		s.mu.Unlock()
		if id := r.Header.Get("X-Request-ID"); id != "" {
			w.Header().Set("X-Request-ID", id)
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}
	s.mu.Lock()
	var u *User
	for _, cand := range s.users {
		if cand.Email == req.Email {
			u = cand
			break
		}
	}
	extra := s.LoginExtra
	s.mu.Unlock()

	if u == nil || bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(req.Password)) != nil {
		writeDetail(w, http.StatusUnauthorized, "invalid email or password")
		return
	}
	if !u.IsAdmin {
		writeDetail(w, http.StatusForbidden, "admin rights required")
		return
	}
	resp := map[string]any{}
	for k, v := range extra {
		resp[k] = v
	}
	resp["token"] = s.sign(u.ID, u.Email, u.IsAdmin, time.Hour)
	resp["email"] = u.Email
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || raw == "" {
			writeDetail(w, http.StatusUnauthorized, "not authenticated")
			return
		}
		var c claims
		_, err := jwt.ParseWithClaims(raw, &c, func(*jwt.Token) (any, error) { return s.secret, nil },
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil {
			writeDetail(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		id, _ := strconv.ParseInt(c.Subject, 10, 64)
		s.mu.Lock()
		u, ok := s.users[id]
		var status string
		var admin bool
		if ok {
			status, admin = u.Status, u.IsAdmin
		}
		s.mu.Unlock()
		switch {
		case !ok:
			writeDetail(w, http.StatusUnauthorized, "user not found")
		case status != model.StatusActive:
			writeDetail(w, http.StatusForbidden, "account disabled")
		case !admin:
			writeDetail(w, http.StatusForbidden, "admin rights required")
		default:
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxUserKey{}, id)))
		}
	})
}

func (s *Server) stats(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var st model.Stats
	today := time.Now().UTC().Format("2006-01-02")
	for _, u := range s.users {
		st.TotalUsers++
		if u.Status == model.StatusActive {
			st.ActiveUsers++
		} else {
			st.DisabledUsers++
		}
		st.TotalBookmarks += len(u.Bookmarks)
		st.TotalSyncs += len(u.Syncs)
		for _, sl := range u.Syncs {
			if strings.HasPrefix(sl.CreatedAt, today) {
				st.TodaySyncs++
			}
		}
	}
	writeJSON(w, http.StatusOK, st)
}

func formatOptTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	users := make([]*User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u)
	}
	// newest first
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.After(users[j].CreatedAt) })
	out := make([]model.UserListItem, 0, len(users))
	for _, u := range users {
		out = append(out, model.UserListItem{
			ID:            u.ID,
			Email:         u.Email,
			Status:        u.Status,
			IsAdmin:       u.IsAdmin,
			BookmarkCount: len(u.Bookmarks),
			LastSyncAt:    formatOptTime(u.LastSyncAt),
			CreatedAt:     u.CreatedAt.Format(time.RFC3339),
		})
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*User, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid id")
		return nil, false
	}
	u, ok := s.users[id]
	if !ok {
		writeDetail(w, http.StatusNotFound, "user not found")
		return nil, false
	}
	return u, true
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, model.UserDetail{
		ID:            u.ID,
		Email:         u.Email,
		Status:        u.Status,
		IsAdmin:       u.IsAdmin,
		BookmarkCount: len(u.Bookmarks),
		SyncCount:     len(u.Syncs),
		LastSyncAt:    formatOptTime(u.LastSyncAt),
		CreatedAt:     u.CreatedAt.Format(time.RFC3339),
		Bookmarks:     append([]model.Bookmark{}, u.Bookmarks...),
		RecentSyncs:   append([]model.SyncLog{}, u.Syncs...),
	})
}

func (s *Server) updateUser(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.lookup(w, r)
	if !ok {
		return
	}
	if req.Status != nil {
		if !model.ValidStatus(*req.Status) {
			writeDetail(w, http.StatusUnprocessableEntity, "invalid status")
			return
		}
		u.Status = *req.Status
	}
	if req.IsAdmin != nil {
		u.IsAdmin = *req.IsAdmin
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) {
	self, _ := r.Context().Value(ctxUserKey{}).(int64)
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.lookup(w, r)
	if !ok {
		return
	}
	if u.ID == self {
		writeDetail(w, http.StatusBadRequest, "cannot delete yourself")
		return
	}
	delete(s.users, u.ID)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
