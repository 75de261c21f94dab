package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/stake-plus/countdown/src/api"
	"github.com/stake-plus/countdown/src/bootstrap"
	"github.com/stake-plus/countdown/src/config"
	"github.com/stake-plus/countdown/src/countdown"
	"github.com/stake-plus/countdown/src/data"
	"github.com/stake-plus/countdown/src/discord"
	"github.com/stake-plus/countdown/src/logging"
	"github.com/stake-plus/countdown/src/metrics"
	"github.com/stake-plus/countdown/src/modules"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// streamMaxLen bounds the Redis event stream.
const streamMaxLen = 100000

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the bot and the statistics API (default)",
	RunE:  runBot,
}

// setup loads configuration, the logger and the database shared by every command.
func setup() (*zap.Logger, *gorm.DB, error) {
	if err := config.LoadEnv(envFile); err != nil {
		return nil, nil, err
	}
	level := logLevel
	if level == "" {
		level = config.LogLevel()
	}
	log, err := logging.New(level)
	if err != nil {
		return nil, nil, err
	}
	dsn, err := config.MySQLDSN()
	if err != nil {
		return log, nil, err
	}
	db, err := data.ConnectMySQL(dsn, log)
	if err != nil {
		return log, nil, err
	}
	return log, db, nil
}

func runBot(cmd *cobra.Command, _ []string) error {
	log, db, err := setup()
	if log != nil {
		defer func() { _ = log.Sync() }()
	}
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	repo := data.NewRepository(db)
	if err := repo.Migrate(ctx); err != nil {
		return err
	}
	botCfg := config.LoadBot(db)
	apiCfg := config.LoadAPI(db)

	var publisher data.Publisher = data.NopPublisher{}
	if url := config.RedisURL(); url != "" {
		rdb, err := data.ConnectRedis(ctx, url)
		if err != nil {
			return err
		}
		defer rdb.Close()
		publisher = data.NewRedisPublisher(rdb, streamMaxLen)
		log.Info("publishing events", zap.String("stream", data.StreamEvents))
	}

	store := countdown.NewStore()
	summary, err := bootstrap.Hydrate(ctx, log, repo, store, 0)
	if err != nil {
		return err
	}
	log.Info("countdowns restored",
		zap.Int("countdowns", summary.Countdowns),
		zap.Int("messages", summary.Accepted),
		zap.Int("dropped", summary.Rejected))

	m := metrics.New(func() int { return len(store.IDs()) })
	manager := modules.NewManager(log)

	if botCfg.Enabled {
		handler := discord.NewHandler(discord.Config{
			Bot:       botCfg,
			Store:     store,
			Repo:      repo,
			Publisher: publisher,
			Metrics:   m,
			Log:       log,
		})
		if err := manager.Add(discord.NewModule(botCfg.Token, handler, log)); err != nil {
			return err
		}
	}
	if apiCfg.Enabled {
		router, err := api.New(api.Deps{
			Config:  apiCfg,
			Store:   store,
			Scorer:  countdown.NewScorer(botCfg.PrimeRule),
			Metrics: m,
			Log:     log,
		})
		if err != nil {
			return err
		}
		if err := manager.Add(api.NewServer(apiCfg.Addr, router, log)); err != nil {
			return err
		}
	}

	if err := manager.Start(ctx); err != nil {
		return fmt.Errorf("start: %w", err)
	}
	log.Info("countdown bot running")

	<-ctx.Done()
	log.Info("shutting down")
	manager.Stop(context.WithoutCancel(ctx))
	return nil
}
