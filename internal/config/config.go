// Package config centralizes all server and combat tuning.
// Every value has a default here and an environment override, so either
// observed cooldown variant is reproducible by configuration alone.
package config

import (
	"os"
	"strconv"
	"strings"
)

// CombatConfig holds the authoritative combat timing. All tick-denominated
// values assume the configured tick rate.
type CombatConfig struct {
	TickRate            int     // engine ticks per second
	AttackCooldownTicks int     // minimum ticks between attacks
	AttackAnimationStep float64 // attack animation progress per tick
	BlockAnimationStep  float64 // block animation progress per tick
	SpawnOffsetX        float64 // spawn distance from center along x
	SpawnHeight         float64 // spawn y
	MaxHealth           int
}

// DefaultCombat returns the production combat tuning: 60 TPS, 20-tick
// cooldown, 10-tick attack animation.
func DefaultCombat() CombatConfig {
	return CombatConfig{
		TickRate:            60,
		AttackCooldownTicks: 20,
		AttackAnimationStep: 0.1,
		BlockAnimationStep:  0.05,
		SpawnOffsetX:        10,
		SpawnHeight:         2,
		MaxHealth:           100,
	}
}

// CombatFromEnv returns combat configuration with environment overrides.
func CombatFromEnv() CombatConfig {
	cfg := DefaultCombat()

	if v := getEnvInt("TICK_RATE", 0); v > 0 {
		cfg.TickRate = v
	}
	if v := getEnvInt("ATTACK_COOLDOWN_TICKS", 0); v > 0 {
		cfg.AttackCooldownTicks = v
	}
	if v := getEnvFloat("ATTACK_ANIMATION_STEP", 0); v > 0 {
		cfg.AttackAnimationStep = v
	}
	if v := getEnvFloat("BLOCK_ANIMATION_STEP", 0); v > 0 {
		cfg.BlockAnimationStep = v
	}
	if v := getEnvFloat("SPAWN_OFFSET_X", 0); v > 0 {
		cfg.SpawnOffsetX = v
	}

	return cfg
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port           int
	AllowedOrigins []string
}

// DefaultServer returns the default server configuration.
func DefaultServer() ServerConfig {
	return ServerConfig{
		Port: 3001,
		AllowedOrigins: []string{
			"http://localhost:*",
			"http://127.0.0.1:*",
			"https://indu-combat.vercel.app",
		},
	}
}

// ServerFromEnv returns server configuration with environment overrides.
// ALLOWED_ORIGINS is a comma-separated list.
func ServerFromEnv() ServerConfig {
	cfg := DefaultServer()

	if p := getEnvInt("PORT", 0); p > 0 {
		cfg.Port = p
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		origins := make([]string, 0)
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		if len(origins) > 0 {
			cfg.AllowedOrigins = origins
		}
	}

	return cfg
}

// LogConfig holds file logging settings.
type LogConfig struct {
	Path       string // empty disables the rotating file sink
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// DefaultLog returns the default logging configuration.
func DefaultLog() LogConfig {
	return LogConfig{
		Path:       "server.log",
		MaxSizeMB:  10,
		MaxBackups: 3,
		MaxAgeDays: 7,
	}
}

// LogFromEnv returns logging configuration with environment overrides.
func LogFromEnv() LogConfig {
	cfg := DefaultLog()

	if v := os.Getenv("LOG_PATH"); v != "" {
		cfg.Path = v
	}
	if os.Getenv("LOG_FILE_DISABLED") == "true" {
		cfg.Path = ""
	}

	return cfg
}

// DebugConfig holds the localhost observability server settings.
type DebugConfig struct {
	Enabled    bool
	ListenAddr string
}

// DefaultDebug returns the default debug server configuration.
func DefaultDebug() DebugConfig {
	return DebugConfig{
		Enabled:    true,
		ListenAddr: "127.0.0.1:6060",
	}
}

// DebugFromEnv returns debug configuration with environment overrides.
func DebugFromEnv() DebugConfig {
	cfg := DefaultDebug()

	if os.Getenv("DISABLE_DEBUG_SERVER") == "true" {
		cfg.Enabled = false
	}
	if v := os.Getenv("DEBUG_ADDR"); v != "" {
		cfg.ListenAddr = v
	}

	return cfg
}

// AppConfig is the complete application configuration.
type AppConfig struct {
	Combat CombatConfig
	Server ServerConfig
	Log    LogConfig
	Debug  DebugConfig
}

// Load returns the complete configuration with environment overrides.
func Load() AppConfig {
	return AppConfig{
		Combat: CombatFromEnv(),
		Server: ServerFromEnv(),
		Log:    LogFromEnv(),
		Debug:  DebugFromEnv(),
	}
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
