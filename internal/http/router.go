package http

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/volley-platform/web/internal/http/handlers"
	"github.com/volley-platform/web/internal/http/middleware"
)

// Options - параметры сборки HTTP-роутера.
type Options struct {
	Logger   *slog.Logger
	Timeout  time.Duration
	BasePath string // например, "/app"; тот же префикс передаётся в handlers.New.
	Session  middleware.SessionOptions
}

// NewRouter собирает http.Handler с chi и подключёнными middleware/роутами.
func NewRouter(h *handlers.Handlers, opts Options) http.Handler {
	root := chi.NewRouter()

	// Middleware (внешний -> внутренний).
	root.Use(
		middleware.Recover(),             // ловим паники
		middleware.RequestID(),           // X-Request-Id до логирования
		middleware.Logging(opts.Logger),  // request-scoped логгер в контексте
		middleware.Session(opts.Session), // id сессии = область хранения токена
		middleware.Timeout(opts.Timeout), // общий дедлайн, в том числе на вызов бекенда
	)

	if base := strings.TrimRight(opts.BasePath, "/"); base != "" {
		sub := chi.NewRouter()
		registerRoutes(sub, h)
		root.Mount(base, sub)
		return root
	}

	registerRoutes(root, h)
	return root
}

// registerRoutes - единая точка регистрации страниц и API.
func registerRoutes(r chi.Router, h *handlers.Handlers) {
	// pages
	r.Get("/", h.Home)
	r.Get("/login", h.LoginPage)
	r.Post("/login", h.LoginSubmit)

	// api
	r.Post("/api/auth/login", h.LoginAPI)
}
