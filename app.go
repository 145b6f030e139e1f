package main

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
	"vault/broker"
	"vault/config"
	"vault/database"
	"vault/handlers"
	"vault/identity"
	"vault/location"
	"vault/media"
	"vault/memstore"
	"vault/messaging"
	"vault/middleware"
	"vault/presence"
	"vault/relationship"
	"vault/store"
	"vault/utils"
	"vault/websocket"
)

type app struct {
	store  store.Store
	broker broker.Broker
	hub    *websocket.Hub
	router *gin.Engine
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	if cfg.Store.Driver == "memory" {
		jww.WARN.Println("Using the in-memory store; data is lost on exit")
		return memstore.New(), nil
	}
	db, err := database.Connect(cfg.MySQL.DSN)
	if err != nil {
		return nil, err
	}
	if err := db.CreateTables(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func openBroker(cfg *config.Config) (broker.Broker, error) {
	if cfg.NATS.URL == "" {
		return broker.NewMemory(), nil
	}
	return broker.NewNATS(cfg.NATS.URL)
}

func buildApp(ctx context.Context, cfg *config.Config) (*app, error) {
	st, err := openStore(ctx, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "open store")
	}
	b, err := openBroker(cfg)
	if err != nil {
		st.Close()
		return nil, errors.Wrap(err, "open broker")
	}
	objects, err := media.NewStore(cfg.Upload.Dir, cfg.Upload.MaxSize)
	if err != nil {
		st.Close()
		b.Close()
		return nil, err
	}

	subjects := broker.Subjects{Prefix: cfg.NATS.SubjectPrefix}
	tracker := presence.NewTracker(st, b, subjects, cfg.Presence.Tick)
	reporter := location.NewReporter(st, tracker, cfg.Location.Interval, cfg.Location.MinDistance)
	chats := messaging.NewService(st, b, subjects)
	friends := relationship.NewManager(st, tracker, chats)
	provider := identity.NewLocalProvider(st, cfg.Auth.MaxFailures, cfg.Auth.FailureWindow)
	tokens := utils.NewTokenIssuer(cfg.JWT.Secret, cfg.JWT.TTL)
	auth := identity.NewService(provider, st, tracker, reporter, b, subjects, tokens)
	hub := websocket.NewHub(auth, tracker, chats, reporter)

	r := gin.New()
	r.Use(gin.Recovery(), requestLog(), middleware.CORS(cfg.CORS.AllowedOrigins))
	handlers.New(handlers.Deps{
		Identity:  auth,
		Users:     st,
		Presence:  tracker,
		Friends:   friends,
		Messages:  chats,
		Locations: reporter,
		Media:     objects,
		Hub:       hub,
	}).Routes(r)

	return &app{store: st, broker: b, hub: hub, router: r}, nil
}

func requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		jww.DEBUG.Printf("%s %s -> %d", c.Request.Method, c.Request.URL.Path, c.Writer.Status())
	}
}

func (a *app) Close() {
	a.hub.Close()
	if err := a.broker.Close(); err != nil {
		jww.WARN.Printf("close broker: %v", err)
	}
	if err := a.store.Close(); err != nil {
		jww.WARN.Printf("close store: %v", err)
	}
}

var thresholds = map[string]jww.Threshold{
	"trace":    jww.LevelTrace,
	"debug":    jww.LevelDebug,
	"info":     jww.LevelInfo,
	"warn":     jww.LevelWarn,
	"error":    jww.LevelError,
	"critical": jww.LevelCritical,
	"fatal":    jww.LevelFatal,
}

func initLog(level string) error {
	threshold, ok := thresholds[strings.ToLower(level)]
	if !ok {
		return errors.Errorf("unknown log level %q", level)
	}
	jww.SetStdoutThreshold(threshold)
	jww.SetLogThreshold(threshold)
	if threshold > jww.LevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}
	return nil
}
