package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Mandykamble/indian-combat-backend/internal/api"
	"github.com/Mandykamble/indian-combat-backend/internal/config"
	"github.com/Mandykamble/indian-combat-backend/internal/game"
	"github.com/Mandykamble/indian-combat-backend/internal/logging"
)

func main() {
	// .env is optional; real environments set variables directly.
	_ = godotenv.Load()

	cfg := config.Load()

	log := logging.New(logging.Config{
		Path:       cfg.Log.Path,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	defer func() { _ = log.Sync() }()

	log.Infow("combat sync server starting",
		"tickRate", cfg.Combat.TickRate,
		"attackCooldownTicks", cfg.Combat.AttackCooldownTicks,
		"port", cfg.Server.Port,
	)

	engine := game.NewEngine(game.EngineConfig{
		TickRate:            cfg.Combat.TickRate,
		AttackCooldownTicks: cfg.Combat.AttackCooldownTicks,
		AttackAnimationStep: cfg.Combat.AttackAnimationStep,
		BlockAnimationStep:  cfg.Combat.BlockAnimationStep,
		SpawnOffsetX:        cfg.Combat.SpawnOffsetX,
		SpawnHeight:         cfg.Combat.SpawnHeight,
		MaxHealth:           cfg.Combat.MaxHealth,
	}, log)
	engine.OnTick = api.RecordTick
	engine.OnKnockout = func(roomID, winner, loser string) {
		api.RecordKnockout()
	}
	api.RegisterEngineMetrics(engine)

	engine.Start()
	defer engine.Stop()

	api.StartDebugServer(api.ObservabilityConfig{
		Enabled:    cfg.Debug.Enabled,
		ListenAddr: cfg.Debug.ListenAddr,
	}, log)

	gateway := api.NewGateway(engine, cfg.Server.AllowedOrigins, log)
	rateLimiter := api.NewIPRateLimiter(api.DefaultRateLimitConfig)
	defer rateLimiter.Stop()

	router := api.NewRouter(api.RouterConfig{
		Engine:      engine,
		Gateway:     gateway,
		RateLimiter: rateLimiter,
		CORSOrigins: cfg.Server.AllowedOrigins,
	})

	srv := &http.Server{
		Addr:    ":" + strconv.Itoa(cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Infow("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("listen failed", "err", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warnw("shutdown incomplete", "err", err)
	}
}
