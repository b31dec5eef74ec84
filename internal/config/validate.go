package config

import (
	"fmt"
	"strings"
)

// Validate performs business-rule validation on the loaded configuration.
// Load calls it automatically; call it again after applying flag overrides.
func (c *Config) Validate() error {
	if c.Game.Pairs < 1 {
		return fmt.Errorf("game.pairs must be >= 1 (got %d)", c.Game.Pairs)
	}
	if c.Game.Cooldown <= 0 {
		return fmt.Errorf("game.cooldown must be > 0 (got %v)", c.Game.Cooldown)
	}
	if c.Game.TickInterval <= 0 {
		return fmt.Errorf("game.tick_interval must be > 0 (got %v)", c.Game.TickInterval)
	}
	if strings.TrimSpace(c.Game.Player) == "" {
		return fmt.Errorf("game.player must not be empty")
	}

	switch c.Scores.Backend {
	case ScoresFile, ScoresNone:
	case ScoresPostgres:
		if c.Scores.DSN == "" {
			return fmt.Errorf("scores.dsn is required for the postgres backend")
		}
	default:
		return fmt.Errorf("scores.backend must be one of file, postgres, none (got %q)", c.Scores.Backend)
	}

	if c.Reward.Endpoint != "" && !strings.HasPrefix(c.Reward.Endpoint, "http://") && !strings.HasPrefix(c.Reward.Endpoint, "https://") {
		return fmt.Errorf("reward.endpoint must be an http(s) URL (got %q)", c.Reward.Endpoint)
	}
	if c.Reward.Timeout <= 0 {
		return fmt.Errorf("reward.timeout must be > 0 (got %v)", c.Reward.Timeout)
	}

	switch c.Trial.Backend {
	case TrialMemory, TrialRedis:
	default:
		return fmt.Errorf("trial.backend must be memory or redis (got %q)", c.Trial.Backend)
	}

	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("log.format must be json or text (got %q)", c.Log.Format)
	}

	return nil
}
