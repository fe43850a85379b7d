// authtest - поддельный бекенд аутентификации для тестов.
//
// Обслуживает POST /auth/login: для известной пары email/пароль отвечает 200
// с подписанным HS256 access-токеном, иначе 401. Любой другой путь или метод
// даёт 404 / 405. Все входящие запросы записываются.
package authtest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	Issuer   = "volley-auth"
	LoginURI = "/auth/login"
)

// Request - снимок входящего запроса.
type Request struct {
	Method      string
	Path        string
	ContentType string
	Body        []byte
}

type Server struct {
	*httptest.Server

	secret []byte
	ttl    time.Duration

	mu       sync.Mutex
	users    map[string]string
	fixed    *fixedResponse
	requests []Request
}

type fixedResponse struct {
	status int
	body   string
}

type Option func(*Server)

// WithUser регистрирует пару email/пароль.
func WithUser(email, password string) Option {
	return func(s *Server) { s.users[email] = password }
}

// WithResponse заставляет сервер отвечать на логин фиксированным статусом и телом.
func WithResponse(status int, body string) Option {
	return func(s *Server) { s.fixed = &fixedResponse{status: status, body: body} }
}

// NewServer запускает сервер и регистрирует его остановку в t.Cleanup.
func NewServer(t testing.TB, opts ...Option) *Server {
	t.Helper()

	s := &Server{
		secret: []byte("authtest-secret"),
		ttl:    15 * time.Minute,
		users:  make(map[string]string),
	}
	for _, o := range opts {
		o(s)
	}

	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)

	return s
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	s.mu.Lock()
	s.requests = append(s.requests, Request{
		Method:      r.Method,
		Path:        r.URL.Path,
		ContentType: r.Header.Get("Content-Type"),
		Body:        body,
	})
	fixed := s.fixed
	s.mu.Unlock()

	if r.URL.Path != LoginURI {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if fixed != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(fixed.status)
		_, _ = io.WriteString(w, fixed.body)
		return
	}

	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.Unmarshal(body, &in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad json"})
		return
	}

	s.mu.Lock()
	want, ok := s.users[in.Email]
	s.mu.Unlock()
	if !ok || want != in.Password {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
		return
	}

	tok, err := s.MintToken(in.Email)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"access_token": tok,
		"token_type":   "Bearer",
		"expires_in":   int(s.ttl.Seconds()),
	})
}

// MintToken подписывает access-токен для email.
func (s *Server) MintToken(email string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    Issuer,
		Subject:   email,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Subject проверяет подпись токена и возвращает его subject (email).
func (s *Server) Subject(token string) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims,
		func(*jwt.Token) (interface{}, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
	)
	if err != nil {
		return "", err
	}

	return claims.Subject, nil
}

// Requests возвращает копию записанных запросов.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
