package main

import (
	"context"
	"database/sql"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-persistence-bun"
	"github.com/goliatone/go-router"
	"github.com/goliatone/go-tracker"
	"github.com/goliatone/go-tracker/social/google"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	level := glog.Info
	if cfg.Debug {
		level = glog.Trace
	}

	lgr := glog.NewLogger(
		glog.WithLoggerTypePretty(),
		glog.WithLevel(level),
		glog.WithName("tracker"),
		glog.WithAddSource(false),
		glog.WithRichErrorHandler(errors.ToSlogAttributes),
	)

	ctx := context.Background()

	repo, err := setupPersistence(ctx, cfg, lgr)
	if err != nil {
		log.Fatalf("persistence: %v", err)
	}

	srv := setupServer(cfg, lgr, repo)

	srv.Serve(cfg.ServerAddress)

	WaitExitSignal()
}

func setupPersistence(ctx context.Context, cfg *Config, lgr *glog.BaseLogger) (tracker.RepositoryManager, error) {
	db, err := sql.Open(sqliteshim.ShimName, cfg.Persistence.GetDSN())
	if err != nil {
		return nil, err
	}

	persistence.RegisterModel((*tracker.User)(nil))
	persistence.RegisterModel((*tracker.LedgerEntry)(nil))
	persistence.RegisterModel((*tracker.Activity)(nil))

	client, err := persistence.New(cfg.Persistence, db, sqlitedialect.New())
	if err != nil {
		return nil, err
	}

	client.SetLogger(lgr.GetLogger("persistence"))

	migrationsFS, err := fs.Sub(tracker.GetMigrationsFS(), "data/sql/migrations")
	if err != nil {
		return nil, err
	}

	client.RegisterDialectMigrations(
		migrationsFS,
		persistence.WithDialectSourceLabel("data/sql/migrations"),
		persistence.WithValidationTargets("postgres", "sqlite"),
	)

	if err := client.ValidateDialects(ctx); err != nil {
		return nil, err
	}

	if err := client.Migrate(ctx); err != nil {
		return nil, err
	}

	repo := tracker.NewRepositoryManager(client.DB())
	repo.MustValidate()

	return repo, nil
}

func setupServer(cfg *Config, lgr *glog.BaseLogger, repo tracker.RepositoryManager) router.Server[*fiber.App] {
	srv := router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
		app := fiber.New(fiber.Config{
			AppName:       "go-tracker",
			StrictRouting: false,
		})
		app.Use(cors.New(cors.Config{
			AllowCredentials: true,
			AllowOriginsFunc: func(origin string) bool { return true },
		}))
		return router.DefaultFiberOptions(app)
	})

	srv.Router().WithLogger(lgr.GetLogger("router"))

	tokens := tracker.NewTokenService(
		[]byte(cfg.Session.GetSigningKey()),
		cfg.Session.GetAccessTokenTTL(),
		cfg.Session.GetRefreshTokenTTL(),
		cfg.Session.GetIssuer(),
		cfg.Session.GetAudience(),
		lgr.GetLogger("tokens"),
	)

	sessions := tracker.NewSessionManager(tokens, repo.Tokens(), lgr.GetLogger("session"))
	auther := tracker.NewAuthenticator(repo.Users()).WithLogger(lgr.GetLogger("auth"))
	cookies := tracker.NewSessionCookies(cfg.Session)

	protected := tracker.ProtectedRoute(sessions, cfg.Session, apiAuthErrorHandler)

	authOpts := []tracker.AuthControllerOption{
		tracker.WithControllerLogger(lgr.GetLogger("auth:ctrl")),
		tracker.WithControllerDebug(cfg.Debug),
		tracker.WithControllerRepo(repo),
		tracker.WithControllerAuther(auther),
		tracker.WithControllerSessions(sessions),
		tracker.WithControllerCookies(cookies),
	}

	if cfg.Google.Enabled() {
		verifier := google.New(google.Config{
			Audience: cfg.Google.ClientID,
			CertsURL: cfg.Google.CertsURL,
		})
		authOpts = append(authOpts, tracker.WithControllerSocial(tracker.NewGoogleVerifier(verifier)))
	}

	api := srv.Router().Group("/api/v1")

	tracker.RegisterAuthRoutes(api, tracker.NewAuthController(authOpts...), protected)

	tracker.RegisterActivityRoutes(api, tracker.NewActivityController(
		tracker.WithActivityLogger(lgr.GetLogger("activity:ctrl")),
		tracker.WithActivityRepo(repo),
	), protected)

	return srv
}

func apiAuthErrorHandler(c router.Context, err error) error {
	return c.JSON(tracker.HTTPStatus(err), map[string]string{"error": err.Error()})
}

func WaitExitSignal() os.Signal {
	ch := make(chan os.Signal, 3)
	signal.Notify(ch,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	return <-ch
}
