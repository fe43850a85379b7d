package authclient

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrMalformedResponse - бекенд ответил 2xx, но тело не является JSON-объектом
	// ожидаемой формы. Токен в хранилище не пишется.
	ErrMalformedResponse = errors.New("malformed login response")

	// ErrResponseTooLarge - тело успешного ответа больше допустимого (1 MiB).
	// Токен в хранилище не пишется.
	ErrResponseTooLarge = errors.New("login response too large")

	// ErrTokenPersist - бекенд принял учётные данные, но записать токен
	// в хранилище не удалось.
	ErrTokenPersist = errors.New("persist access token")
)

// HTTPStatusError - бекенд ответил не-2xx. Тело ответа не разбирается:
// неверные учётные данные и ошибка сервера различаются только кодом.
type HTTPStatusError struct {
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("login rejected: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// TransportError - запрос не завершился: DNS, отказ в соединении, обрыв,
// отмена контекста. Причина доступна через errors.Unwrap / errors.Is.
type TransportError struct {
	Op  string // "do" - отправка запроса; "read" - чтение тела ответа.
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("login transport (%s): %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsHTTPStatus - ошибка уровня HTTP-статуса.
func IsHTTPStatus(err error) bool {
	var se *HTTPStatusError
	return errors.As(err, &se)
}

// IsTransport - ошибка транспортного уровня.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// StatusCode возвращает код ответа из HTTPStatusError (0, если это другая ошибка).
func StatusCode(err error) int {
	var se *HTTPStatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}

	return 0
}
