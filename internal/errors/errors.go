// errors стандартизирует ответы об ошибках HTTP-слоя front-end.
// На вход принимает ошибку authclient (или ошибку разбора запроса),
// на выход даёт:
//   - корректный HTTP-статус;
//   - краткое безопасное message без утечки деталей апстрима.
package errors

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/volley-platform/web/internal/authclient"
)

// Нестандартный код часто используемый для "клиент закрыл соединение".
const StatusClientClosedRequest = 499

// ErrInvalidArgument - тело запроса не прошло строгий разбор.
var ErrInvalidArgument = stderrors.New("invalid argument")

// APIError - единый формат для фронта.
// Code - короткий стабильный код для машиночитаемой обработки.
// Message - безопасное человекочитаемое описание.
// RequestID - прокидывается из X-Request-Id, если есть (для трассировки).
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorResponse - корневой объект в ответе.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// ToHTTP конвертирует ошибку логина в HTTP-статус и унифицированный ответ.
//
// Поведение:
//   - err == nil - программная ошибка вызова: 500/internal;
//   - *HTTPStatusError - по коду апстрима (401/403 -> 401, 4xx -> 400, 5xx -> 502);
//   - *TransportError - 502/unavailable, 504 при дедлайне, 499 при отмене;
//   - ErrMalformedResponse, ErrResponseTooLarge - 502/bad_gateway;
//   - ErrInvalidArgument - 400;
//   - прочее (включая ErrTokenPersist) - 500/internal.
func ToHTTP(err error) (int, ErrorResponse) {
	status, code, msg := classify(err)
	return status, ErrorResponse{
		Error: APIError{
			Code:    code,
			Message: msg,
		},
	}
}

// WriteError - хелпер для HTTP-хендлеров.
// Пишет корректный статус/тело, добавляет request_id из заголовка, если он есть.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := ToHTTP(err)

	if rid := r.Header.Get("X-Request-Id"); rid != "" {
		resp.Error.RequestID = rid
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

func classify(err error) (int, string, string) {
	if err == nil {
		return internal()
	}

	var se *authclient.HTTPStatusError
	if stderrors.As(err, &se) {
		return fromUpstreamStatus(se.StatusCode)
	}

	var te *authclient.TransportError
	if stderrors.As(err, &te) {
		switch {
		case stderrors.Is(err, context.DeadlineExceeded):
			return http.StatusGatewayTimeout, "deadline_exceeded", "deadline exceeded"
		case stderrors.Is(err, context.Canceled):
			return StatusClientClosedRequest, "canceled", "canceled"
		default:
			return http.StatusBadGateway, "unavailable", "auth service unavailable"
		}
	}

	switch {
	case stderrors.Is(err, authclient.ErrMalformedResponse),
		stderrors.Is(err, authclient.ErrResponseTooLarge):
		return http.StatusBadGateway, "bad_gateway", "bad gateway"
	case stderrors.Is(err, ErrInvalidArgument):
		return http.StatusBadRequest, "invalid_argument", "invalid argument"
	default:
		return internal()
	}
}

// fromUpstreamStatus - маппинг кода апстрима:
//   - 401, 403 -> 401 (неверные учётные данные)
//   - прочие 4xx -> 400
//   - 5xx и всё остальное -> 502
func fromUpstreamStatus(code int) (int, string, string) {
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return http.StatusUnauthorized, "unauthenticated", "invalid credentials"
	case code >= 400 && code < 500:
		return http.StatusBadRequest, "invalid_argument", "invalid argument"
	default:
		return http.StatusBadGateway, "bad_gateway", "bad gateway"
	}
}

func internal() (int, string, string) {
	return http.StatusInternalServerError, "internal", "internal error"
}
