package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/volley-platform/web/internal/authclient"
	apierrors "github.com/volley-platform/web/internal/errors"
	"github.com/volley-platform/web/internal/http/middleware"
	"github.com/volley-platform/web/internal/models"
	logctx "github.com/volley-platform/web/internal/pkg/log"
)

// maxFormSize ограничивает тело формы логина.
const maxFormSize = 16 << 10

// LoginSubmit обрабатывает форму логина и отдаёт страницу с одним уведомлением.
// Учётные данные уходят в бекенд как есть, без проверки формата.
func (h *Handlers) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	data := pageData{Title: "Вход", Active: "login"}

	r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)
	if err := r.ParseForm(); err != nil {
		data.Flash = &flash{Kind: "error", Text: MsgLoginRejected}
		h.views.render(w, r, http.StatusBadRequest, pageLogin, data)
		return
	}

	email := r.PostForm.Get("email")
	data.Email = email

	_, err := h.client(r).Login(r.Context(), email, r.PostForm.Get("password"))
	status, fl := loginFlash(err)
	if status >= http.StatusInternalServerError {
		logctx.From(r.Context()).Warn("login_failed", slog.String("err", err.Error()))
	}

	data.Flash = &fl
	h.views.render(w, r, status, pageLogin, data)
}

// LoginAPI - JSON-вариант логина: сквозной ответ бекенда или конверт ошибки.
func (h *Handlers) LoginAPI(w http.ResponseWriter, r *http.Request) {
	var in models.Credentials
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, fmt.Errorf("decode: %w", apierrors.ErrInvalidArgument))
		return
	}

	res, err := h.client(r).Login(r.Context(), in.Email, in.Password)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

// client - клиент, пишущий токен в область текущей браузерной сессии.
func (h *Handlers) client(r *http.Request) *authclient.Client {
	return h.Auth.ForScope(middleware.SessionID(r.Context()))
}

// loginFlash - статус ответа и уведомление для исхода логина.
func loginFlash(err error) (int, flash) {
	switch {
	case err == nil:
		return http.StatusOK, flash{Kind: "success", Text: MsgLoginOK}
	case authclient.IsHTTPStatus(err):
		return http.StatusUnauthorized, flash{Kind: "error", Text: MsgLoginRejected}
	case authclient.IsTransport(err),
		errors.Is(err, authclient.ErrMalformedResponse),
		errors.Is(err, authclient.ErrResponseTooLarge):
		return http.StatusBadGateway, flash{Kind: "error", Text: MsgLoginUnavailable}
	default:
		return http.StatusInternalServerError, flash{Kind: "error", Text: MsgInternal}
	}
}
