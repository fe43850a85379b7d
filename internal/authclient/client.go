// authclient выполняет логин на бекенде платформы и сохраняет access-токен.
//
// Контракт Login:
//   - ровно один POST {BaseURL}/auth/login с JSON {"email","password"};
//   - собственного таймаута нет, отмена только через ctx;
//   - не-2xx -> *HTTPStatusError, хранилище не трогается;
//   - сбой транспорта -> *TransportError, хранилище не трогается;
//   - 2xx -> тело разбирается в models.AuthResult, access_token пишется
//     в хранилище под storage.TokenKey, результат возвращается;
//   - сбой записи в хранилище -> результат И ошибка с ErrTokenPersist.
//
// Повторов, дедупликации параллельных вызовов и обновления токена нет.
package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/volley-platform/web/internal/models"
	logctx "github.com/volley-platform/web/internal/pkg/log"
	"github.com/volley-platform/web/internal/pkg/redact"
	"github.com/volley-platform/web/internal/storage"
)

// LoginPath дописывается к BaseURL без нормализации слэшей.
const LoginPath = "/auth/login"

// maxBodySize - верхняя граница тела успешного ответа.
const maxBodySize = 1 << 20

// Outcome - исход одного вызова Login (для метрик).
type Outcome string

const (
	OutcomeOK         Outcome = "ok"
	OutcomeHTTPStatus Outcome = "http_status"
	OutcomeTransport  Outcome = "transport"
	OutcomeMalformed  Outcome = "malformed"
	OutcomeStore      Outcome = "store"
)

// Observer получает исход каждого Login. Реализация - internal/metrics.
type Observer interface {
	ObserveLogin(outcome Outcome, dur time.Duration)
}

// Config - явная конфигурация клиента (вместо глобальной переменной окружения).
type Config struct {
	BaseURL string
	// HTTPClient - nil означает http.Client без Timeout.
	HTTPClient *http.Client
}

type Option func(*Client)

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.log = l }
}

func WithObserver(o Observer) Option {
	return func(c *Client) { c.obs = o }
}

// Client безопасен для конкурентного использования.
type Client struct {
	baseURL string
	http    *http.Client
	store   storage.TokenStore
	log     *slog.Logger
	obs     Observer
}

func New(cfg Config, store storage.TokenStore, opts ...Option) *Client {
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}

	c := &Client{
		baseURL: cfg.BaseURL,
		http:    hc,
		store:   store,
	}

	for _, o := range opts {
		o(c)
	}

	return c
}

// ForScope возвращает копию клиента, пишущую токен в storage.Scoped(store, scope).
func (c *Client) ForScope(scope string) *Client {
	cp := *c
	cp.store = storage.Scoped(c.store, scope)
	return &cp
}

// LoginURL - полный адрес эндпойнта логина.
func (c *Client) LoginURL() string { return c.baseURL + LoginPath }

// Login выполняет обмен учётных данных на access-токен.
func (c *Client) Login(ctx context.Context, email, password string) (*models.AuthResult, error) {
	const op = "authclient.Login"

	start := time.Now()
	log := logctx.From(ctx, c.log).With(slog.String("email", redact.Email(email)))

	res, outcome, err := c.login(ctx, log, email, password)
	dur := time.Since(start)

	if c.obs != nil {
		c.obs.ObserveLogin(outcome, dur)
	}

	if err != nil {
		// res != nil только при ErrTokenPersist: сервер учётные данные принял.
		return res, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("login_ok", slog.Duration("dur", dur))
	return res, nil
}

func (c *Client) login(ctx context.Context, log *slog.Logger, email, password string) (*models.AuthResult, Outcome, error) {
	body, err := json.Marshal(models.Credentials{Email: email, Password: password})
	if err != nil {
		return nil, OutcomeTransport, &TransportError{Op: "encode", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.LoginURL(), bytes.NewReader(body))
	if err != nil {
		return nil, OutcomeTransport, &TransportError{Op: "request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	log.Debug("login_request", slog.String("url", redact.URL(c.LoginURL())))

	resp, err := c.http.Do(req)
	if err != nil {
		log.Error("login_transport_failed", slog.String("err", err.Error()))
		return nil, OutcomeTransport, &TransportError{Op: "do", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Тело не разбираем; вычитываем для переиспользования соединения.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		log.Warn("login_rejected", slog.Int("status", resp.StatusCode))
		return nil, OutcomeHTTPStatus, &HTTPStatusError{StatusCode: resp.StatusCode}
	}

	// Читаем на байт больше лимита, чтобы отличить превышение от обрезанного JSON.
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		log.Error("login_transport_failed", slog.String("stage", "read"), slog.String("err", err.Error()))
		return nil, OutcomeTransport, &TransportError{Op: "read", Err: err}
	}
	if len(raw) > maxBodySize {
		log.Error("login_response_too_large", slog.Int("limit", maxBodySize))
		return nil, OutcomeMalformed, fmt.Errorf("%w: more than %d bytes", ErrResponseTooLarge, maxBodySize)
	}

	var res models.AuthResult
	if err := json.Unmarshal(raw, &res); err != nil {
		log.Error("login_malformed_response", slog.String("err", err.Error()))
		return nil, OutcomeMalformed, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	if !res.HasAccessToken {
		// Успешный ответ без access_token: пишем пустое значение, как есть.
		log.Warn("login_token_missing")
	}

	if err := c.store.Set(ctx, storage.TokenKey, res.AccessToken); err != nil {
		log.Error("login_token_persist_failed", slog.String("err", err.Error()))
		return &res, OutcomeStore, fmt.Errorf("%w: %w", ErrTokenPersist, err)
	}

	return &res, OutcomeOK, nil
}
