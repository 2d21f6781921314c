package server

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config captures every tunable the server reads at startup. Intervals are
// plain millisecond integers so the file stays trivially yaml-parseable.
type Config struct {
	Addr      string `yaml:"addr"`
	ClientDir string `yaml:"client_dir"`

	// Seed 0 picks a time-based seed at startup.
	Seed int64 `yaml:"seed"`

	// Half-size of the world cube per axis; objects stay inside it.
	WorldExtent float64 `yaml:"world_extent"`

	// Per-type object counts used by world generation. Missing types fall
	// back to the built-in defaults.
	ObjectCounts map[string]int `yaml:"object_counts"`

	StealRadius float64 `yaml:"steal_radius"`

	RadiationTickMs      int       `yaml:"radiation_tick_ms"`
	RadiationPerTick     float64   `yaml:"radiation_per_tick"`
	PeerRadiationEnabled bool      `yaml:"peer_radiation_enabled"`
	PeerRadiationRange   float64   `yaml:"peer_radiation_range"`
	PeerRadiationPerTick float64   `yaml:"peer_radiation_per_tick"`
	WarningThresholds    []float64 `yaml:"warning_thresholds"`

	ProximityBattlesEnabled bool    `yaml:"proximity_battles_enabled"`
	ProximityKillDistance   float64 `yaml:"proximity_kill_distance"`
	ProximityKillTimeMs     int     `yaml:"proximity_kill_time_ms"`
	KillScoreBonus          int     `yaml:"kill_score_bonus"`

	DeathPenalty   int     `yaml:"death_penalty"`
	RespawnDelayMs int     `yaml:"respawn_delay_ms"`
	SpawnBandMin   float64 `yaml:"spawn_band_min"`
	SpawnBandMax   float64 `yaml:"spawn_band_max"`

	BaseSpeed       float64 `yaml:"base_speed"`
	ScoreBonusRate  float64 `yaml:"score_bonus_rate"`
	MaxScoreBonus   float64 `yaml:"max_score_bonus"`
	BoostMultiplier float64 `yaml:"boost_multiplier"`
	BoostDurationMs int     `yaml:"boost_duration_ms"`

	PortalReductionMin float64 `yaml:"portal_reduction_min"`
	PortalReductionMax float64 `yaml:"portal_reduction_max"`

	MaintenanceTickMs   int `yaml:"maintenance_tick_ms"`
	LeaderboardTickMs   int `yaml:"leaderboard_tick_ms"`
	LeaderboardSize     int `yaml:"leaderboard_size"`
	InactivityTimeoutMs int `yaml:"inactivity_timeout_ms"`

	GameStateRadius float64 `yaml:"game_state_radius"`

	// Inbound websocket message rate limit per connection.
	MessagesPerSecond float64 `yaml:"messages_per_second"`
	MessageBurst      int     `yaml:"message_burst"`
}

// DefaultConfig returns the tuning used when no file overrides it.
func DefaultConfig() Config {
	return Config{
		Addr:        ":8080",
		ClientDir:   "../client",
		WorldExtent: 1000,

		StealRadius: 60,

		RadiationTickMs:      500,
		RadiationPerTick:     0.25,
		PeerRadiationEnabled: true,
		PeerRadiationRange:   120,
		PeerRadiationPerTick: 1.5,
		WarningThresholds:    []float64{70, 90},

		ProximityBattlesEnabled: true,
		ProximityKillDistance:   50,
		ProximityKillTimeMs:     10_000,
		KillScoreBonus:          25,

		DeathPenalty:   50,
		RespawnDelayMs: 5_000,
		SpawnBandMin:   150,
		SpawnBandMax:   300,

		BaseSpeed:       1.0,
		ScoreBonusRate:  0.001,
		MaxScoreBonus:   0.5,
		BoostMultiplier: 2.0,
		BoostDurationMs: 8_000,

		PortalReductionMin: 25,
		PortalReductionMax: 40,

		MaintenanceTickMs:   2_000,
		LeaderboardTickMs:   5_000,
		LeaderboardSize:     10,
		InactivityTimeoutMs: 60_000,

		GameStateRadius: 400,

		MessagesPerSecond: 30,
		MessageBurst:      60,
	}
}

// LoadConfig reads a yaml file over the defaults. An empty path returns the
// defaults untouched.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg.normalized(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg.normalized(), nil
}

// normalized clamps out-of-range values back to usable defaults.
func (c Config) normalized() Config {
	def := DefaultConfig()
	if c.Addr == "" {
		c.Addr = def.Addr
	}
	if c.WorldExtent <= 0 {
		c.WorldExtent = def.WorldExtent
	}
	if c.StealRadius <= 0 {
		c.StealRadius = def.StealRadius
	}
	if c.RadiationTickMs <= 0 {
		c.RadiationTickMs = def.RadiationTickMs
	}
	if c.RadiationPerTick < 0 {
		c.RadiationPerTick = def.RadiationPerTick
	}
	if c.PeerRadiationRange <= 0 {
		c.PeerRadiationRange = def.PeerRadiationRange
	}
	if c.ProximityKillDistance <= 0 {
		c.ProximityKillDistance = def.ProximityKillDistance
	}
	if c.ProximityKillTimeMs <= 0 {
		c.ProximityKillTimeMs = def.ProximityKillTimeMs
	}
	if c.RespawnDelayMs <= 0 {
		c.RespawnDelayMs = def.RespawnDelayMs
	}
	if c.SpawnBandMax < c.SpawnBandMin {
		c.SpawnBandMin, c.SpawnBandMax = def.SpawnBandMin, def.SpawnBandMax
	}
	if c.BaseSpeed <= 0 {
		c.BaseSpeed = def.BaseSpeed
	}
	if c.BoostMultiplier <= 0 {
		c.BoostMultiplier = def.BoostMultiplier
	}
	if c.BoostDurationMs <= 0 {
		c.BoostDurationMs = def.BoostDurationMs
	}
	if c.PortalReductionMax < c.PortalReductionMin {
		c.PortalReductionMin, c.PortalReductionMax = def.PortalReductionMin, def.PortalReductionMax
	}
	if c.MaintenanceTickMs <= 0 {
		c.MaintenanceTickMs = def.MaintenanceTickMs
	}
	if c.LeaderboardTickMs <= 0 {
		c.LeaderboardTickMs = def.LeaderboardTickMs
	}
	if c.LeaderboardSize <= 0 {
		c.LeaderboardSize = def.LeaderboardSize
	}
	if c.InactivityTimeoutMs <= 0 {
		c.InactivityTimeoutMs = def.InactivityTimeoutMs
	}
	if c.GameStateRadius <= 0 {
		c.GameStateRadius = def.GameStateRadius
	}
	if c.MessagesPerSecond <= 0 {
		c.MessagesPerSecond = def.MessagesPerSecond
	}
	if c.MessageBurst <= 0 {
		c.MessageBurst = def.MessageBurst
	}
	if len(c.WarningThresholds) == 0 {
		c.WarningThresholds = append([]float64(nil), def.WarningThresholds...)
	}
	return c
}

func (c Config) radiationTick() time.Duration {
	return time.Duration(c.RadiationTickMs) * time.Millisecond
}

func (c Config) maintenanceTick() time.Duration {
	return time.Duration(c.MaintenanceTickMs) * time.Millisecond
}

func (c Config) leaderboardTick() time.Duration {
	return time.Duration(c.LeaderboardTickMs) * time.Millisecond
}

func (c Config) proximityKillTime() time.Duration {
	return time.Duration(c.ProximityKillTimeMs) * time.Millisecond
}

func (c Config) respawnDelay() time.Duration {
	return time.Duration(c.RespawnDelayMs) * time.Millisecond
}

func (c Config) boostDuration() time.Duration {
	return time.Duration(c.BoostDurationMs) * time.Millisecond
}

func (c Config) inactivityTimeout() time.Duration {
	return time.Duration(c.InactivityTimeoutMs) * time.Millisecond
}
