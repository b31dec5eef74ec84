package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"time"

	"go-match/internal/config"
	"go-match/internal/deck"
	"go-match/internal/game"
	"go-match/internal/logging"
	"go-match/internal/reward"
	"go-match/internal/scoring"
	"go-match/internal/trial"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

type strictIntFlag int

func (i *strictIntFlag) String() string {
	return fmt.Sprint(int(*i))
}

func (i *strictIntFlag) Set(s string) error {
	if s == "true" {
		return fmt.Errorf("value required (format: -flag=value)")
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	*i = strictIntFlag(v)
	return nil
}

func (i *strictIntFlag) IsBoolFlag() bool { return true }

type flags struct {
	configPath string
	pairs      strictIntFlag
	player     string
	cooldown   time.Duration
	seed       int64
	pools      []string
}

func parseFlags() flags {
	var f flags

	flag.StringVar(&f.configPath, "config", "", "Path to a YAML config file")
	flag.StringVar(&f.configPath, "c", "", "Path to a YAML config file (shorthand)")

	flag.Var(&f.pairs, "pairs", "Number of pairs on the board")
	flag.Var(&f.pairs, "p", "Number of pairs on the board (shorthand)")

	flag.StringVar(&f.player, "player", "", "Player name for score history")
	flag.StringVar(&f.player, "u", "", "Player name for score history (shorthand)")

	flag.DurationVar(&f.cooldown, "cooldown", 0, "How long mismatched cards stay face up")

	flag.Int64Var(&f.seed, "seed", 0, "Seed the shuffle for a reproducible board")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] [symbol-file-or-dir ...]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		fmt.Fprintf(os.Stderr, "   -c, --config=PATH       YAML config file (default ./go-match.yaml)\n")
		fmt.Fprintf(os.Stderr, "   -p, --pairs=N           Number of pairs on the board (default 8)\n")
		fmt.Fprintf(os.Stderr, "   -u, --player=NAME       Player name for score history\n")
		fmt.Fprintf(os.Stderr, "       --cooldown=DUR      Mismatch cooldown, e.g. 800ms\n")
		fmt.Fprintf(os.Stderr, "       --seed=N            Seed the shuffle\n")
		fmt.Fprintf(os.Stderr, "   -h, --help              Show this help message\n")
		fmt.Fprintf(os.Stderr, "\nSymbol files hold whitespace-separated symbols; # starts a comment line.\n")
	}

	flag.Parse()
	f.pools = flag.Args()
	return f
}

func loadConfig(f flags) (*config.Config, error) {
	if f.configPath != "" {
		os.Setenv("CONFIG_PATH", f.configPath)
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	if f.pairs != 0 {
		cfg.Game.Pairs = int(f.pairs)
	}
	if f.player != "" {
		cfg.Game.Player = f.player
	}
	if f.cooldown != 0 {
		cfg.Game.Cooldown = f.cooldown
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return cfg, nil
}

func loadPool(cfg *config.Config, paths []string) ([]string, error) {
	if len(paths) == 0 && cfg.Game.PoolPath != "" {
		paths = []string{cfg.Game.PoolPath}
	}
	if len(paths) == 0 {
		return deck.DefaultPool(), nil
	}
	pool, err := deck.LoadPool(paths)
	if err != nil {
		return nil, err
	}
	if len(pool) == 0 {
		return nil, fmt.Errorf("no symbols found in provided paths")
	}
	return pool, nil
}

func openStorage(ctx context.Context, cfg config.ScoresConfig) (scoring.ScoreStorage, func(), error) {
	switch cfg.Backend {
	case config.ScoresPostgres:
		pool, err := pgxpool.New(ctx, cfg.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("connect scores db: %w", err)
		}
		storage := scoring.NewPostgresStorage(pool)
		if err := storage.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return storage, pool.Close, nil
	case config.ScoresNone:
		return scoring.NopStorage{}, func() {}, nil
	default:
		storage, err := scoring.NewJSONFileStorage(cfg.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create score storage: %w", err)
		}
		return storage, func() {}, nil
	}
}

func buildSinks(cfg *config.Config, rdb *redis.Client, log logrus.FieldLogger) *reward.Async {
	var sinks reward.Multi
	if cfg.Reward.Endpoint != "" {
		client := &http.Client{Timeout: cfg.Reward.Timeout}
		sinks = append(sinks, reward.NewHTTPSink(cfg.Reward.Endpoint, cfg.Reward.Token, client))
	}
	if cfg.Reward.RedisQueue != "" {
		sinks = append(sinks, reward.NewRedisQueue(rdb, cfg.Reward.RedisQueue))
	}
	if len(sinks) == 0 {
		return nil
	}
	return reward.NewAsync(sinks, cfg.Reward.Timeout, log)
}

func buildGate(cfg config.TrialConfig, rdb *redis.Client) *trial.Gate {
	if !cfg.Enabled {
		return nil
	}
	var store trial.Store = trial.NewMemoryStore()
	if cfg.Backend == config.TrialRedis {
		store = trial.NewRedisStore(rdb)
	}
	opts := []trial.Option{trial.WithPrefix(cfg.Prefix)}
	if cfg.Unlimited {
		opts = append(opts, trial.Unlimited())
	}
	return trial.NewGate(store, opts...)
}

func run(f flags) error {
	cfg, err := loadConfig(f)
	if err != nil {
		return err
	}

	logger, logFile, err := logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, File: cfg.Log.File})
	if err != nil {
		return err
	}
	defer logFile.Close()
	log := logger.WithField("player", cfg.Game.Player)

	pool, err := loadPool(cfg, f.pools)
	if err != nil {
		return err
	}

	ctx := context.Background()
	storage, closeStorage, err := openStorage(ctx, cfg.Scores)
	if err != nil {
		return err
	}
	defer closeStorage()

	var rdb *redis.Client
	if cfg.NeedsRedis() {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer rdb.Close()
	}

	var prog *tea.Program
	opts := game.SessionOptions{
		Game: game.Options{
			Pairs:        cfg.Game.Pairs,
			Pool:         pool,
			Cooldown:     cfg.Game.Cooldown,
			TickInterval: cfg.Game.TickInterval,
			Player:       cfg.Game.Player,
			Logger:       logger,
			OnChange: func() {
				if prog != nil {
					prog.Send(refreshMsg{})
				}
			},
		},
		Storage: storage,
		Gate:    buildGate(cfg.Trial, rdb),
	}
	if f.seed != 0 {
		opts.Game.Rand = rand.New(rand.NewSource(f.seed))
	}
	sinks := buildSinks(cfg, rdb, log)
	if sinks != nil {
		opts.Sinks = sinks
		defer sinks.Wait()
	}

	sess, err := game.NewSession(ctx, opts)
	if err != nil {
		return err
	}
	defer sess.Close()
	log.WithField("pairs", cfg.Game.Pairs).Info("session started")

	prog = tea.NewProgram(newLocalState(sess))
	if _, err := prog.Run(); err != nil {
		return fmt.Errorf("error starting the program: %w", err)
	}

	log.WithFields(logrus.Fields{
		"rounds": sess.RoundsPlayed(),
		"total":  sess.TotalScore(),
	}).Info("session finished")
	return nil
}

func main() {
	if err := run(parseFlags()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
