package config

import "time"

// Config is the root application configuration.
type Config struct {
	Game   GameConfig   `yaml:"game"`
	Scores ScoresConfig `yaml:"scores"`
	Reward RewardConfig `yaml:"reward"`
	Trial  TrialConfig  `yaml:"trial"`
	Redis  RedisConfig  `yaml:"redis"`
	Log    LogConfig    `yaml:"log"`
}

// GameConfig holds round settings.
type GameConfig struct {
	Player       string        `yaml:"player"        env:"MATCH_PLAYER"        env-default:"player"`
	Pairs        int           `yaml:"pairs"         env:"MATCH_PAIRS"         env-default:"8"`
	Cooldown     time.Duration `yaml:"cooldown"      env:"MATCH_COOLDOWN"      env-default:"800ms"`
	TickInterval time.Duration `yaml:"tick_interval" env:"MATCH_TICK_INTERVAL" env-default:"1s"`
	// PoolPath is a file or directory of symbols; empty uses the built-in pool.
	PoolPath string `yaml:"pool_path" env:"MATCH_POOL_PATH"`
}

// Score storage backends.
const (
	ScoresFile     = "file"
	ScoresPostgres = "postgres"
	ScoresNone     = "none"
)

// ScoresConfig selects where score history lives.
type ScoresConfig struct {
	Backend string `yaml:"backend" env:"SCORES_BACKEND" env-default:"file"`
	Path    string `yaml:"path"    env:"SCORES_PATH"`
	DSN     string `yaml:"dsn"     env:"SCORES_DSN"`
}

// RewardConfig holds the points sinks. Both are optional.
type RewardConfig struct {
	Endpoint   string        `yaml:"endpoint"    env:"REWARD_ENDPOINT"`
	Token      string        `yaml:"token"       env:"REWARD_TOKEN"`
	Timeout    time.Duration `yaml:"timeout"     env:"REWARD_TIMEOUT"     env-default:"5s"`
	RedisQueue string        `yaml:"redis_queue" env:"REWARD_REDIS_QUEUE"`
}

// Trial store backends.
const (
	TrialMemory = "memory"
	TrialRedis  = "redis"
)

// TrialConfig controls free-trial gating.
type TrialConfig struct {
	Enabled   bool   `yaml:"enabled"   env:"TRIAL_ENABLED"   env-default:"false"`
	Unlimited bool   `yaml:"unlimited" env:"TRIAL_UNLIMITED" env-default:"false"`
	Backend   string `yaml:"backend"   env:"TRIAL_BACKEND"   env-default:"memory"`
	Prefix    string `yaml:"prefix"    env:"TRIAL_PREFIX"    env-default:"trial"`
}

// RedisConfig holds the shared Redis connection.
type RedisConfig struct {
	Addr     string `yaml:"addr"     env:"REDIS_ADDR"     env-default:"localhost:6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db"       env:"REDIS_DB"       env-default:"0"`
}

// LogConfig holds logging settings. Logs go to File since the terminal
// is taken by the UI; an empty File discards them.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"text"`
	File   string `yaml:"file"   env:"LOG_FILE"`
}

// NeedsRedis reports whether any configured component talks to Redis.
func (c *Config) NeedsRedis() bool {
	return c.Reward.RedisQueue != "" || (c.Trial.Enabled && c.Trial.Backend == TrialRedis)
}
