package config

import "github.com/spf13/viper"

// Version is the board software version shown in the dashboard footer and
// the terminal surface's welcome banner.
const Version = "1.0.0"

// Config holds all runtime configuration for Board Ops.
type Config struct {
	TelnetPort         int
	HTTPPort           int
	DatabasePath       string
	AIModel            string
	AIFallbackModel    string
	AIBudgetMS         int
	DoorIdleTimeoutSec int
	SubscriptionCap    int
	HeartbeatSec       int
	DryRun             bool
	Verbose            bool
}

// Load reads configuration from viper, which merges flag values, env vars,
// and defaults (set up by the cobra command in cmd/boardops).
func Load() Config {
	return Config{
		TelnetPort:         viper.GetInt("telnet_port"),
		HTTPPort:           viper.GetInt("http_port"),
		DatabasePath:       viper.GetString("database_path"),
		AIModel:            viper.GetString("ai_model"),
		AIFallbackModel:    viper.GetString("ai_fallback_model"),
		AIBudgetMS:         viper.GetInt("ai_budget_ms"),
		DoorIdleTimeoutSec: viper.GetInt("door_idle_timeout_sec"),
		SubscriptionCap:    viper.GetInt("subscription_cap"),
		HeartbeatSec:       viper.GetInt("heartbeat_sec"),
		DryRun:             viper.GetBool("dry_run"),
		Verbose:            viper.GetBool("verbose"),
	}
}
