// Package main is the entry point of the application
package main

import (
	"flag"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/JoshuaCandia/custom-chess/internal/auth"
	"github.com/JoshuaCandia/custom-chess/pkg/config"
	"github.com/JoshuaCandia/custom-chess/pkg/events"
	"github.com/JoshuaCandia/custom-chess/pkg/game"
	"github.com/JoshuaCandia/custom-chess/pkg/repository"
	"github.com/JoshuaCandia/custom-chess/pkg/rules"
	"github.com/JoshuaCandia/custom-chess/pkg/server"
	"github.com/JoshuaCandia/custom-chess/pkg/store"
)

// newUpgrader builds the websocket upgrader. With an allowed origin
// configured only that origin may upgrade; otherwise any origin is accepted.
func newUpgrader(allowedOrigin string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,

		CheckOrigin: func(r *http.Request) bool {
			return allowedOrigin == "" || allowedOrigin == r.Header.Get("Origin")
		},
	}
}

// application encapsulates global dependencies
type application struct {
	Auth      *auth.APIKeyAuth
	Logger    *zap.Logger
	Config    *config.Config
	Publisher *events.Publisher
	Hub       *server.Hub
	Server    *http.Server
	Upgrader  websocket.Upgrader

	StartTime time.Time
}

func main() {
	debug := flag.Bool("debug", false, "enable debug logging")
	port := flag.String("port", "", "server port (overrides PORT)")
	flag.Parse()

	// A missing .env is fine; the environment may be set directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}
	if *debug {
		cfg.Debug = true
	}
	if *port != "" {
		cfg.Port = *port
	}

	// Initialize logger
	logger := initLogger(cfg.Debug)
	defer logger.Sync()

	// Initialize event publisher
	publisher := events.NewPublisher()

	// Initialize room repository and the rules engine
	rooms := repository.NewInMemoryRepository(logger)
	engine := rules.NewChessEngine()

	// Initialize session manager
	manager := game.NewManager(rooms, engine, publisher, logger)
	manager.SetReconnectGrace(time.Duration(cfg.ReconnectGraceSec) * time.Second)

	// Wire persistence collaborators when configured. The manager works
	// without them; terminal states are then in-memory only.
	var recorder game.MatchRecorder
	if cfg.DatabaseURL != "" {
		matches, err := store.NewMatchStore(cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("connecting match store", zap.Error(err))
		}
		defer matches.Close()
		recorder = matches
	}

	var ratings game.RatingService
	if cfg.RedisURL != "" {
		rs, err := store.NewRatingStore(cfg.RedisURL)
		if err != nil {
			logger.Fatal("connecting rating store", zap.Error(err))
		}
		defer rs.Close()
		ratings = rs
	}

	manager.AttachStores(recorder, ratings)

	hub := server.NewHub(manager, publisher, logger)

	app := &application{
		Auth:      auth.NewAPIKeyAuth(cfg.APIKeys),
		Logger:    logger,
		Config:    cfg,
		Hub:       hub,
		Publisher: publisher,
		Upgrader:  newUpgrader(cfg.FrontendPath),
		StartTime: time.Now(),
	}

	go app.Hub.Run()

	if err := app.serve(); err != nil {
		logger.Fatal("error serving", zap.Error(err))
	}
}

func initLogger(debug bool) *zap.Logger {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	} else {
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}

	logger, err := cfg.Build()
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	return logger
}

// Shutdown cleans up resources
func (app *application) Shutdown() {
	// Shut down hub (also stops the session manager's timers)
	if app.Hub != nil {
		app.Hub.Shutdown()
	}

	app.Logger.Info("All components shut down successfully")
}
