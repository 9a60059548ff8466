// Package server assembles the chatvault server: storage, services and the
// HTTP API, and runs it until a termination signal.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/chatvault/internal/cryptox"
	"github.com/dmitrijs2005/chatvault/internal/fieldcrypt"
	"github.com/dmitrijs2005/chatvault/internal/keytransport"
	"github.com/dmitrijs2005/chatvault/internal/logging"
	"github.com/dmitrijs2005/chatvault/internal/server/config"
	"github.com/dmitrijs2005/chatvault/internal/server/httpapi"
	"github.com/dmitrijs2005/chatvault/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/chatvault/internal/server/services"
	_ "github.com/jackc/pgx/v5/stdlib"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	handler *httpapi.Handler
}

// NewApp opens the database, applies migrations and builds every service.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.NewJSONLogger()

	if err := fieldcrypt.Validate(); err != nil {
		return nil, fmt.Errorf("field manifest: %w", err)
	}

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	codec := cryptox.NewCodec(logger)

	h := &httpapi.Handler{
		Auth:            services.NewAuthService(db, rm, cfg),
		Characters:      services.NewCharacterService(db, rm, codec, logger),
		Chats:           services.NewChatService(db, rm, codec, logger),
		Personas:        services.NewPersonaService(db, rm, codec, logger),
		Profiles:        services.NewProfileService(db, rm, codec, logger),
		Uploads:         services.NewUploadService(cfg),
		Logger:          logger.With("module", "http"),
		Cookies:         keytransport.CookieOptions{Path: "/", Domain: cfg.CookieDomain, Secure: cfg.CookieSecure},
		SessionValidity: cfg.SessionValidityDuration,
	}

	return &App{config: cfg, logger: logger, db: db, handler: h}, nil
}

// Run serves until SIGINT, SIGTERM or SIGQUIT.
func (app *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()
	defer app.db.Close()

	app.logger.Info(ctx, "Starting app...")

	lis, err := net.Listen("tcp", app.config.HTTPAddr)
	if err != nil {
		return err
	}
	return httpapi.Serve(ctx, lis, httpapi.NewRouter(app.handler), app.logger)
}
