// volley - консольный клиент платформы: логин и управление сохранённым токеном.
//
//	volley [-config path] [-v] login -email E -password P
//	volley [-config path] token
//	volley [-config path] logout
//
// Токен хранится в области origin API (scheme://host), поэтому токены
// разных бекендов не пересекаются.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/volley-platform/web/internal/authclient"
	"github.com/volley-platform/web/internal/config"
	"github.com/volley-platform/web/internal/storage"
	"github.com/volley-platform/web/internal/storage/open"
)

// Коды выхода.
const (
	exitOK          = 0
	exitFailure     = 1 // бекенд отклонил логин или локальная ошибка
	exitUnavailable = 2 // бекенд недоступен
)

const (
	msgLoginOK       = "Успешен вход!"
	msgLoginRejected = "Грешни данни"
	msgUnavailable   = "Сървърът не е достъпен"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "volley: .env: %v\n", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	cancel()

	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fset := flag.NewFlagSet("volley", flag.ContinueOnError)
	fset.SetOutput(stderr)

	configPath := fset.String("config", "", "path to config file")
	verbose := fset.Bool("v", false, "debug logging to stderr")
	fset.Usage = func() {
		fmt.Fprintln(stderr, "usage: volley [-config path] [-v] <login|token|logout> [flags]")
		fset.PrintDefaults()
	}

	if err := fset.Parse(args); err != nil {
		return exitFailure
	}
	if fset.NArg() == 0 {
		fset.Usage()
		return exitFailure
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "volley: %v\n", err)
		return exitFailure
	}

	log := setupLogger(stderr, *verbose)

	store, err := open.Open(ctx, cfg.Storage, log)
	if err != nil {
		fmt.Fprintf(stderr, "volley: %v\n", err)
		return exitFailure
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			log.Warn("storage_close_failed", slog.String("err", cerr.Error()))
		}
	}()

	scope := cfg.API.Origin()
	cmd, rest := fset.Arg(0), fset.Args()[1:]

	switch cmd {
	case "login":
		client := authclient.New(authclient.Config{BaseURL: cfg.API.BaseURL}, store, authclient.WithLogger(log)).
			ForScope(scope)
		return cmdLogin(ctx, client, rest, stdout, stderr)
	case "token":
		return cmdToken(ctx, storage.Scoped(store, scope), stdout, stderr)
	case "logout":
		return cmdLogout(ctx, storage.Scoped(store, scope), stdout, stderr)
	default:
		fmt.Fprintf(stderr, "volley: unknown command %q\n", cmd)
		fset.Usage()
		return exitFailure
	}
}

func cmdLogin(ctx context.Context, client *authclient.Client, args []string, stdout, stderr io.Writer) int {
	fset := flag.NewFlagSet("login", flag.ContinueOnError)
	fset.SetOutput(stderr)

	email := fset.String("email", "", "account email")
	password := fset.String("password", "", "account password")
	if err := fset.Parse(args); err != nil {
		return exitFailure
	}

	_, err := client.Login(ctx, *email, *password)
	switch {
	case err == nil:
		fmt.Fprintln(stdout, msgLoginOK)
		return exitOK
	case authclient.IsHTTPStatus(err):
		fmt.Fprintln(stderr, msgLoginRejected)
		return exitFailure
	case authclient.IsTransport(err),
		errors.Is(err, authclient.ErrMalformedResponse),
		errors.Is(err, authclient.ErrResponseTooLarge):
		fmt.Fprintf(stderr, "%s: %v\n", msgUnavailable, err)
		return exitUnavailable
	default:
		fmt.Fprintf(stderr, "volley: %v\n", err)
		return exitFailure
	}
}

func cmdToken(ctx context.Context, store storage.TokenStore, stdout, stderr io.Writer) int {
	tok, err := store.Get(ctx, storage.TokenKey)
	if errors.Is(err, storage.ErrNotFound) {
		fmt.Fprintln(stderr, "volley: not logged in")
		return exitFailure
	}
	if err != nil {
		fmt.Fprintf(stderr, "volley: %v\n", err)
		return exitFailure
	}

	fmt.Fprintln(stdout, tok)
	return exitOK
}

func cmdLogout(ctx context.Context, store storage.TokenStore, stdout, stderr io.Writer) int {
	if err := store.Clear(ctx, storage.TokenKey); err != nil {
		fmt.Fprintf(stderr, "volley: %v\n", err)
		return exitFailure
	}

	fmt.Fprintln(stdout, "logged out")
	return exitOK
}

// setupLogger - CLI пишет логи в stderr; по умолчанию только предупреждения.
func setupLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
