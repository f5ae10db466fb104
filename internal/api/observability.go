package api

import (
	"net/http"
	"net/http/pprof"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Mandykamble/indian-combat-backend/internal/game"
)

// Metrics keep bounded cardinality: no per-room or per-connection labels.
var (
	tickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "engine_tick_duration_seconds",
		Help:    "Time spent advancing one engine tick",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.0166},
	})

	knockoutsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "game_knockouts_total",
		Help: "Matches ended by knockout",
	})

	connectionRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "connection_rejected_total",
		Help: "Connections rejected by rate limiter or origin check",
	}, []string{"reason"}) // bounded: "rate_limit", "origin", "ws_ip_limit", "ws_total_limit"

	wsConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "websocket_connections_active",
		Help: "Currently active WebSocket connections",
	})

	wsMessagesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "websocket_messages_sent_total",
		Help: "Outbound WebSocket messages",
	})

	wsMessagesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "websocket_messages_dropped_total",
		Help: "Outbound WebSocket messages dropped on a full send queue",
	})
)

// RecordTick records one tick's duration.
func RecordTick(d time.Duration) {
	tickDuration.Observe(d.Seconds())
}

// RecordKnockout counts a match ended by knockout.
func RecordKnockout() {
	knockoutsTotal.Inc()
}

// RecordConnectionRejected counts a rejected connection by reason.
func RecordConnectionRejected(reason string) {
	connectionRejected.WithLabelValues(reason).Inc()
}

// RegisterEngineMetrics exposes live room and participant counts as gauges.
// Call once at startup.
func RegisterEngineMetrics(e *game.Engine) {
	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "game_room_count",
		Help: "Current number of live rooms",
	}, func() float64 { return float64(e.RoomCount()) })

	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "game_participant_count",
		Help: "Current number of connected participants",
	}, func() float64 { return float64(e.ParticipantCount()) })
}

// ObservabilityConfig configures the localhost debug server.
type ObservabilityConfig struct {
	Enabled    bool
	ListenAddr string
}

// StartDebugServer serves pprof and Prometheus metrics. The listener is
// forced to localhost unless ALLOW_DEBUG_EXTERNAL=true.
func StartDebugServer(cfg ObservabilityConfig, log *zap.SugaredLogger) {
	if !cfg.Enabled {
		log.Info("debug server disabled")
		return
	}

	if cfg.ListenAddr != "127.0.0.1:6060" && cfg.ListenAddr != "localhost:6060" {
		if os.Getenv("ALLOW_DEBUG_EXTERNAL") != "true" {
			log.Warnw("debug server forced to localhost", "requested", cfg.ListenAddr)
			cfg.ListenAddr = "127.0.0.1:6060"
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	go func() {
		log.Infow("debug server listening", "addr", cfg.ListenAddr)
		if err := http.ListenAndServe(cfg.ListenAddr, mux); err != nil {
			log.Warnw("debug server stopped", "err", err)
		}
	}()
}
