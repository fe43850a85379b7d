package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	"github.com/volley-platform/web/internal/authclient/authtest"
	"github.com/volley-platform/web/internal/storage"
	"github.com/volley-platform/web/internal/storage/memory"
	"github.com/volley-platform/web/mocks"
)

const (
	testEmail    = "coach@volley.bg"
	testPassword = "Spike-2024!"
)

func newClient(t *testing.T, baseURL string, store storage.TokenStore, opts ...Option) *Client {
	t.Helper()
	return New(Config{BaseURL: baseURL}, store, opts...)
}

// strictStore - мок без ожиданий: любое обращение валит тест.
func strictStore(t *testing.T) *mocks.MockTokenStore {
	t.Helper()
	ctrl := gomock.NewController(t)
	return mocks.NewMockTokenStore(ctrl)
}

type recObserver struct {
	mu       sync.Mutex
	outcomes []Outcome
}

func (o *recObserver) ObserveLogin(outcome Outcome, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes = append(o.outcomes, outcome)
}

func TestLogin_RequestShape(t *testing.T) {
	t.Parallel()

	srv := authtest.NewServer(t, authtest.WithUser(testEmail, testPassword))
	c := newClient(t, srv.URL, memory.New())

	_, err := c.Login(context.Background(), testEmail, testPassword)
	require.NoError(t, err)

	reqs := srv.Requests()
	require.Len(t, reqs, 1)
	require.Equal(t, http.MethodPost, reqs[0].Method)
	require.Equal(t, "/auth/login", reqs[0].Path)
	require.Equal(t, "application/json", reqs[0].ContentType)

	var body map[string]string
	require.NoError(t, json.Unmarshal(reqs[0].Body, &body))
	require.Equal(t, map[string]string{"email": testEmail, "password": testPassword}, body)
}

func TestLogin_NoClientSideValidation(t *testing.T) {
	t.Parallel()

	srv := authtest.NewServer(t)
	c := newClient(t, srv.URL, strictStore(t))

	_, err := c.Login(context.Background(), "", "")
	require.True(t, IsHTTPStatus(err))

	reqs := srv.Requests()
	require.Len(t, reqs, 1)
	require.JSONEq(t, `{"email":"","password":""}`, string(reqs[0].Body))
}

func TestLogin_OK_StoresIssuedToken(t *testing.T) {
	t.Parallel()

	srv := authtest.NewServer(t, authtest.WithUser(testEmail, testPassword))
	store := memory.New()
	c := newClient(t, srv.URL, store)

	res, err := c.Login(context.Background(), testEmail, testPassword)
	require.NoError(t, err)
	require.True(t, res.HasAccessToken)
	require.Equal(t, "Bearer", res.TokenType)
	require.Contains(t, res.Extra, "expires_in")

	sub, err := srv.Subject(res.AccessToken)
	require.NoError(t, err)
	require.Equal(t, testEmail, sub)

	got, err := store.Get(context.Background(), storage.TokenKey)
	require.NoError(t, err)
	require.Equal(t, res.AccessToken, got)
}

func TestLogin_OK_FixedToken(t *testing.T) {
	t.Parallel()

	srv := authtest.NewServer(t, authtest.WithResponse(http.StatusOK, `{"access_token":"abc123"}`))
	store := memory.New()
	c := newClient(t, srv.URL, store)

	res, err := c.Login(context.Background(), testEmail, testPassword)
	require.NoError(t, err)
	require.Equal(t, "abc123", res.AccessToken)

	got, err := store.Get(context.Background(), storage.TokenKey)
	require.NoError(t, err)
	require.Equal(t, "abc123", got)
}

func TestLogin_NonSuccessStatus_StoreUntouched(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		status int
		body   string
	}{
		{"unauthorized", http.StatusUnauthorized, `{"error":"invalid credentials"}`},
		{"forbidden", http.StatusForbidden, ``},
		{"bad_request_not_json", http.StatusBadRequest, `<html>nope</html>`},
		{"server_error", http.StatusInternalServerError, `{"access_token":"must-not-be-stored"}`},
		{"unavailable", http.StatusServiceUnavailable, ``},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			srv := authtest.NewServer(t, authtest.WithResponse(tc.status, tc.body))
			c := newClient(t, srv.URL, strictStore(t))

			res, err := c.Login(context.Background(), testEmail, testPassword)
			require.Nil(t, res)
			require.True(t, IsHTTPStatus(err))
			require.False(t, IsTransport(err))

			var se *HTTPStatusError
			require.True(t, errors.As(err, &se))
			require.Equal(t, tc.status, se.StatusCode)
			require.Equal(t, tc.status, StatusCode(err))
		})
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	t.Parallel()

	srv := authtest.NewServer(t, authtest.WithUser(testEmail, testPassword))
	store := memory.New()
	c := newClient(t, srv.URL, store)

	_, err := c.Login(context.Background(), testEmail, "wrong")
	require.Equal(t, http.StatusUnauthorized, StatusCode(err))

	_, err = store.Get(context.Background(), storage.TokenKey)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestLogin_MissingAccessToken_StoresEmpty(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		body string
	}{
		{"absent", `{"token_type":"Bearer"}`},
		{"null", `{"access_token":null}`},
		{"empty_object", `{}`},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			srv := authtest.NewServer(t, authtest.WithResponse(http.StatusOK, tc.body))
			ctrl := gomock.NewController(t)
			st := mocks.NewMockTokenStore(ctrl)
			st.EXPECT().Set(gomock.Any(), storage.TokenKey, "").Return(nil)

			h := &capHandler{}
			c := newClient(t, srv.URL, st, WithLogger(slog.New(h)))

			res, err := c.Login(context.Background(), testEmail, testPassword)
			require.NoError(t, err)
			require.False(t, res.HasAccessToken)
			require.Empty(t, res.AccessToken)
			require.True(t, h.seen("login_token_missing"))
		})
	}
}

func TestLogin_MalformedBody(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		body string
	}{
		{"html", `<html>ok</html>`},
		{"array", `[1,2,3]`},
		{"wrong_type", `{"access_token":42}`},
		{"truncated", `{"access_token":"ab`},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			srv := authtest.NewServer(t, authtest.WithResponse(http.StatusOK, tc.body))
			c := newClient(t, srv.URL, strictStore(t))

			res, err := c.Login(context.Background(), testEmail, testPassword)
			require.Nil(t, res)
			require.ErrorIs(t, err, ErrMalformedResponse)
			require.False(t, IsHTTPStatus(err))
			require.False(t, IsTransport(err))
		})
	}
}

func TestLogin_OversizedBody(t *testing.T) {
	t.Parallel()

	huge := `{"access_token":"` + strings.Repeat("a", maxBodySize) + `"}`
	srv := authtest.NewServer(t, authtest.WithResponse(http.StatusOK, huge))
	c := newClient(t, srv.URL, strictStore(t))

	res, err := c.Login(context.Background(), testEmail, testPassword)
	require.Nil(t, res)
	require.ErrorIs(t, err, ErrResponseTooLarge)
	require.NotErrorIs(t, err, ErrMalformedResponse)
	require.False(t, IsTransport(err))
}

func TestLogin_BodyAtLimitAccepted(t *testing.T) {
	t.Parallel()

	prefix, suffix := `{"access_token":"`, `"}`
	tok := strings.Repeat("a", maxBodySize-len(prefix)-len(suffix))
	srv := authtest.NewServer(t, authtest.WithResponse(http.StatusOK, prefix+tok+suffix))
	store := memory.New()
	c := newClient(t, srv.URL, store)

	res, err := c.Login(context.Background(), testEmail, testPassword)
	require.NoError(t, err)
	require.Equal(t, tok, res.AccessToken)
}

func TestLogin_ConnectionRefused(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := newClient(t, url, strictStore(t))

	res, err := c.Login(context.Background(), testEmail, testPassword)
	require.Nil(t, res)
	require.Error(t, err)
	require.True(t, IsTransport(err))
	require.False(t, IsHTTPStatus(err))

	var te *TransportError
	require.True(t, errors.As(err, &te))
	require.Equal(t, "do", te.Op)
	require.NotNil(t, errors.Unwrap(te))
}

func TestLogin_InvalidBaseURL(t *testing.T) {
	t.Parallel()

	c := newClient(t, "://bad", strictStore(t))

	_, err := c.Login(context.Background(), testEmail, testPassword)
	require.True(t, IsTransport(err))
}

func TestLogin_BaseURLConcatenatedVerbatim(t *testing.T) {
	t.Parallel()

	srv := authtest.NewServer(t, authtest.WithUser(testEmail, testPassword))
	c := newClient(t, srv.URL+"/", strictStore(t))
	require.Equal(t, srv.URL+"//auth/login", c.LoginURL())

	_, err := c.Login(context.Background(), testEmail, testPassword)
	require.Equal(t, http.StatusNotFound, StatusCode(err))

	reqs := srv.Requests()
	require.Len(t, reqs, 1)
	require.Equal(t, "//auth/login", reqs[0].Path)
}

func TestLogin_ContextCanceled(t *testing.T) {
	t.Parallel()

	started := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-r.Context().Done()
	}))
	t.Cleanup(srv.Close)

	c := newClient(t, srv.URL, strictStore(t))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	_, err := c.Login(ctx, testEmail, testPassword)
	require.True(t, IsTransport(err))
	require.ErrorIs(t, err, context.Canceled)
}

func TestLogin_NoOwnTimeout_DeadlineFromContext(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	t.Cleanup(srv.Close)

	c := newClient(t, srv.URL, strictStore(t))
	require.Zero(t, c.http.Timeout)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.Login(ctx, testEmail, testPassword)
	require.True(t, IsTransport(err))
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLogin_StoreFailure_ReturnsResult(t *testing.T) {
	t.Parallel()

	srv := authtest.NewServer(t, authtest.WithResponse(http.StatusOK, `{"access_token":"abc123"}`))
	ctrl := gomock.NewController(t)
	st := mocks.NewMockTokenStore(ctrl)

	diskFull := errors.New("disk full")
	st.EXPECT().Set(gomock.Any(), storage.TokenKey, "abc123").Return(diskFull)

	c := newClient(t, srv.URL, st)

	res, err := c.Login(context.Background(), testEmail, testPassword)
	require.ErrorIs(t, err, ErrTokenPersist)
	require.ErrorIs(t, err, diskFull)
	require.NotNil(t, res)
	require.Equal(t, "abc123", res.AccessToken)
}

func TestLogin_ConcurrentCallsNotDeduplicated(t *testing.T) {
	t.Parallel()

	srv := authtest.NewServer(t, authtest.WithUser(testEmail, testPassword))
	c := newClient(t, srv.URL, memory.New())

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = c.Login(context.Background(), testEmail, testPassword)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	require.Len(t, srv.Requests(), 2)
}

func TestForScope_PrefixesKey(t *testing.T) {
	t.Parallel()

	srv := authtest.NewServer(t, authtest.WithResponse(http.StatusOK, `{"access_token":"abc123"}`))
	store := memory.New()
	c := newClient(t, srv.URL, store)

	_, err := c.ForScope("sess-1").Login(context.Background(), testEmail, testPassword)
	require.NoError(t, err)

	got, err := store.Get(context.Background(), "sess-1:token")
	require.NoError(t, err)
	require.Equal(t, "abc123", got)

	_, err = store.Get(context.Background(), storage.TokenKey)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestLogin_ObserverOutcomes(t *testing.T) {
	t.Parallel()

	obs := &recObserver{}

	ok := authtest.NewServer(t, authtest.WithResponse(http.StatusOK, `{"access_token":"x"}`))
	_, err := newClient(t, ok.URL, memory.New(), WithObserver(obs)).Login(context.Background(), testEmail, testPassword)
	require.NoError(t, err)

	denied := authtest.NewServer(t, authtest.WithResponse(http.StatusUnauthorized, ``))
	_, _ = newClient(t, denied.URL, memory.New(), WithObserver(obs)).Login(context.Background(), testEmail, testPassword)

	bad := authtest.NewServer(t, authtest.WithResponse(http.StatusOK, `nope`))
	_, _ = newClient(t, bad.URL, memory.New(), WithObserver(obs)).Login(context.Background(), testEmail, testPassword)

	gone := httptest.NewServer(http.NotFoundHandler())
	gone.Close()
	_, _ = newClient(t, gone.URL, memory.New(), WithObserver(obs)).Login(context.Background(), testEmail, testPassword)

	require.Equal(t, []Outcome{OutcomeOK, OutcomeHTTPStatus, OutcomeMalformed, OutcomeTransport}, obs.outcomes)
}

func TestLogin_SecretsNotLogged(t *testing.T) {
	t.Parallel()

	srv := authtest.NewServer(t, authtest.WithResponse(http.StatusOK, `{"access_token":"super-secret-token"}`))

	var buf bytes.Buffer
	lg := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	c := newClient(t, srv.URL, memory.New(), WithLogger(lg))

	_, err := c.Login(context.Background(), testEmail, testPassword)
	require.NoError(t, err)

	out := buf.String()
	require.Contains(t, out, "login_ok")
	require.NotContains(t, out, testPassword)
	require.NotContains(t, out, "super-secret-token")
	require.NotContains(t, out, testEmail)
}

// capHandler - тестовый slog.Handler, запоминающий сообщения записей.
type capHandler struct {
	mu   sync.Mutex
	msgs []string
}

func (h *capHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *capHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.msgs = append(h.msgs, r.Message)
	return nil
}

func (h *capHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *capHandler) WithGroup(string) slog.Handler      { return h }

func (h *capHandler) seen(msg string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, m := range h.msgs {
		if m == msg {
			return true
		}
	}
	return false
}
