package handlers

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	apierrors "github.com/volley-platform/web/internal/errors"
	logctx "github.com/volley-platform/web/internal/pkg/log"
)

//go:embed templates/*.html
var templatesFS embed.FS

const (
	pageHome  = "home"
	pageLogin = "login"
)

// Сообщения пользователю.
const (
	MsgLoginOK          = "Успешен вход!"
	MsgLoginRejected    = "Грешни данни"
	MsgLoginUnavailable = "Сървърът не е достъпен"
	MsgInternal         = "Вътрешна грешка"
)

type flash struct {
	Kind string // success | error
	Text string
}

type pageData struct {
	Base   string // префикс монтирования для ссылок и action формы
	Title  string
	Active string
	Flash  *flash
	Email  string
}

// views - по одному шаблону на страницу: layout + navbar + content.
type views struct {
	pages map[string]*template.Template
	base  string
}

func parseViews(base string) (views, error) {
	const op = "handlers.parseViews"

	v := views{pages: make(map[string]*template.Template), base: base}
	for _, page := range []string{pageHome, pageLogin} {
		t, err := template.ParseFS(templatesFS,
			"templates/layout.html",
			"templates/navbar.html",
			"templates/"+page+".html",
		)
		if err != nil {
			return views{}, fmt.Errorf("%s: %s: %w", op, page, err)
		}
		v.pages[page] = t
	}

	return v, nil
}

// render исполняет шаблон в буфер, чтобы ошибка шаблона не оставила
// наполовину записанный ответ.
func (v views) render(w http.ResponseWriter, r *http.Request, status int, page string, data pageData) {
	t, ok := v.pages[page]
	if !ok {
		apierrors.WriteError(w, r, fmt.Errorf("unknown page %q", page))
		return
	}

	data.Base = v.base

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		logctx.From(r.Context()).Error("template_render_failed",
			slog.String("page", page),
			slog.String("err", err.Error()),
		)
		apierrors.WriteError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
