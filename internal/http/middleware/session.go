package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	logctx "github.com/volley-platform/web/internal/pkg/log"
)

type sessionKey struct{}

// SessionOptions - параметры cookie браузерной сессии.
type SessionOptions struct {
	CookieName string
	TTL        time.Duration
	Secure     bool
}

// Session гарантирует браузеру cookie с идентификатором сессии (UUID).
// Идентификатор служит областью хранения токена для этого браузера.
// Невалидное значение cookie заменяется новым.
func Session(opts SessionOptions) Middleware {
	if opts.CookieName == "" {
		opts.CookieName = "volley_session"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var id string
			if c, err := r.Cookie(opts.CookieName); err == nil {
				if u, err := uuid.Parse(c.Value); err == nil {
					id = u.String()
				}
			}

			if id == "" {
				id = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     opts.CookieName,
					Value:    id,
					Path:     "/",
					MaxAge:   int(opts.TTL.Seconds()),
					HttpOnly: true,
					Secure:   opts.Secure,
					SameSite: http.SameSiteLaxMode,
				})
				logctx.From(r.Context()).Debug("session_issued")
			}

			ctx := context.WithValue(r.Context(), sessionKey{}, id)
			ctx, _ = logctx.With(ctx, sessionAttr(id))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionID возвращает идентификатор сессии или "".
func SessionID(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey{}).(string)
	return id
}

// sessionAttr - атрибут для логов (сокращённый id).
func sessionAttr(id string) slog.Attr {
	if len(id) > 8 {
		id = id[:8]
	}
	return slog.String("session", id)
}
