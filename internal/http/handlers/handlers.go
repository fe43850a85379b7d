package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/volley-platform/web/internal/authclient"
)

// Handlers агрегирует зависимости: клиент аутентификации и шаблоны страниц.
type Handlers struct {
	Auth  *authclient.Client
	views views
}

// New собирает хендлеры. basePath - префикс, под которым роутер смонтирован
// (см. http.Options.BasePath); "" для корня.
func New(auth *authclient.Client, basePath string) (*Handlers, error) {
	v, err := parseViews(strings.TrimRight(basePath, "/"))
	if err != nil {
		return nil, err
	}

	return &Handlers{Auth: auth, views: v}, nil
}

// writeJSON - единый ответ JSON с нужным Content-Type.
// Ошибки выводим через apierrors.WriteError.
func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// decodeStrict - строгий JSON-декодер: запрещаем неизвестные поля.
func decodeStrict(r *http.Request, value any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(value)
}
