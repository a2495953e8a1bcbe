package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/erazemk/zaloga/internal/api"
	"github.com/erazemk/zaloga/internal/auth"
	"github.com/erazemk/zaloga/internal/config"
	"github.com/erazemk/zaloga/internal/db"
	"github.com/erazemk/zaloga/internal/inventory"
	"github.com/erazemk/zaloga/internal/logger"
	"github.com/erazemk/zaloga/internal/store"
	"github.com/erazemk/zaloga/internal/web"
)

const usage = `Usage: zaloga [command] [flags]

Commands:
  serve        run the HTTP server (default)
  migrate      create or update the database schema and exit
  createuser   create a console user, or reset a password with -reset

Flags:
  -config <path>      env file to read (default: .env and config.env if present)
  -db <path>          SQLite database path (overrides DB_PATH)
  -addr <host:port>   listen address (overrides HTTP_HOST and HTTP_PORT)
  -username <name>    createuser: account name
  -password <value>   createuser: password (default: generated)
  -reset              createuser: set a new password for an existing user
`

// generatedPasswordLength is the length of passwords printed on first run.
const generatedPasswordLength = 16

type options struct {
	configPath string
	dbPath     string
	addr       string
	username   string
	password   string
	reset      bool
}

func main() {
	args := os.Args[1:]
	cmd := "serve"
	if len(args) > 0 && len(args[0]) > 0 && args[0][0] != '-' {
		cmd, args = args[0], args[1:]
	}

	fs := flag.NewFlagSet("zaloga", flag.ContinueOnError)
	var opts options
	fs.StringVar(&opts.configPath, "config", "", "")
	fs.StringVar(&opts.dbPath, "db", "", "")
	fs.StringVar(&opts.addr, "addr", "", "")
	fs.StringVar(&opts.username, "username", "", "")
	fs.StringVar(&opts.password, "password", "", "")
	fs.BoolVar(&opts.reset, "reset", false, "")
	fs.Usage = func() { fmt.Fprint(os.Stdout, usage) }

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(2)
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "unexpected argument: %s\n", fs.Arg(0))
		fs.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if opts.dbPath != "" {
		cfg.DB.Path = opts.dbPath
	}

	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level})
	ctx := log.WithContext(context.Background())

	switch cmd {
	case "serve":
		err = serve(ctx, cfg, opts)
	case "migrate":
		err = migrate(ctx, cfg)
	case "createuser":
		err = createUser(ctx, cfg, opts)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", cmd)
		fs.Usage()
		os.Exit(2)
	}
	if err != nil {
		log.Error().Err(err).Str("command", cmd).Msg("command failed")
		os.Exit(1)
	}
}

// openDatabase opens the configured database and brings its schema up to
// date.
func openDatabase(ctx context.Context, cfg *config.Config) (*db.DB, error) {
	database, err := db.Open(db.Config{Driver: cfg.DB.Driver, Path: cfg.DB.Path, DSN: cfg.DB.DSN})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Migrate(ctx, database); err != nil {
		database.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}
	zerolog.Ctx(ctx).Info().Str("driver", database.Dialect().String()).Msg("database ready")
	return database, nil
}

func migrate(ctx context.Context, cfg *config.Config) error {
	database, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	return database.Close()
}

func createUser(ctx context.Context, cfg *config.Config, opts options) error {
	if opts.username == "" {
		return errors.New("-username is required")
	}

	database, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	password := opts.password
	if password == "" {
		if password, err = auth.GeneratePassword(generatedPasswordLength); err != nil {
			return fmt.Errorf("generating password: %w", err)
		}
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	if opts.reset {
		user, err := store.GetUserByUsername(ctx, database, opts.username)
		if err != nil {
			return fmt.Errorf("finding user %q: %w", opts.username, err)
		}
		if err := store.UpdateUserPassword(ctx, database, user.ID, hash); err != nil {
			return err
		}
	} else if _, err := store.CreateUser(ctx, database, opts.username, hash); err != nil {
		return err
	}

	printCredentials(opts.username, password, opts.password == "")
	return nil
}

// ensureAdmin creates an "admin" account with a generated password when the
// database has no users yet.
func ensureAdmin(ctx context.Context, database *db.DB) error {
	n, err := store.CountUsers(ctx, database)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	password, err := auth.GeneratePassword(generatedPasswordLength)
	if err != nil {
		return fmt.Errorf("generating password: %w", err)
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	if _, err := store.CreateUser(ctx, database, "admin", hash); err != nil {
		return fmt.Errorf("creating admin user: %w", err)
	}

	fmt.Println("Admin account created.")
	printCredentials("admin", password, true)
	return nil
}

func printCredentials(username, password string, show bool) {
	fmt.Printf("  Username: %s\n", username)
	if show {
		fmt.Printf("  Password: %s\n", password)
		fmt.Println()
		fmt.Println("Save this password, it cannot be recovered.")
		fmt.Println("It can be changed in the console settings after logging in.")
	}
}

func serve(ctx context.Context, cfg *config.Config, opts options) error {
	log := zerolog.Ctx(ctx)

	loc, err := cfg.App.Location()
	if err != nil {
		return err
	}

	database, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := ensureAdmin(ctx, database); err != nil {
		return err
	}

	secret := cfg.JWT.Secret
	if secret == "" {
		// Persisted so that sessions survive restarts.
		if secret, err = store.GetJWTSecret(ctx, database); err != nil {
			return fmt.Errorf("loading JWT secret: %w", err)
		}
	}
	tokens := auth.NewTokens(secret, cfg.App.Name, cfg.JWT.TTL())
	svc := inventory.New(database, loc)

	apiRouter := api.NewRouter(api.Config{
		DB:          database,
		Inventory:   svc,
		Tokens:      tokens,
		Service:     cfg.App.Name,
		RequireAuth: cfg.API.RequireAuth,
		Pager:       api.Pager{DefaultSize: cfg.API.PageSize, MaxSize: cfg.API.MaxPageSize},
	})
	webRouter, err := web.NewRouter(web.Config{
		DB:                database,
		Inventory:         svc,
		Tokens:            tokens,
		LowStockThreshold: cfg.Stock.LowThreshold,
	})
	if err != nil {
		return fmt.Errorf("setting up web router: %w", err)
	}

	// API routes take priority, web routes handle the rest.
	mux := http.NewServeMux()
	mux.Handle("/api/", apiRouter)
	mux.Handle("/health", apiRouter)
	mux.Handle("/", webRouter)

	addr := cfg.HTTP.Addr()
	if opts.addr != "" {
		addr = opts.addr
	}

	server := &http.Server{
		Addr:              addr,
		Handler:           api.LoggingMiddleware(*log)(mux),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", addr).
			Str("env", cfg.App.Env).
			Str("timezone", loc.String()).
			Bool("api_auth", cfg.API.RequireAuth).
			Msg("server started")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info().Msg("server stopped, closing database")
	return nil
}
