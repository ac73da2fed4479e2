package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/talent-match/internal/logger"
)

// setup builds the logger and the engine. Any failure here is fatal: the
// engine must not start without an endpoint and an api key.
func setup() (context.Context, context.CancelFunc, *zap.Logger, *engine) {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	eng, err := newEngine(ctx, config, logger)
	if err != nil {
		logger.Fatal("initializing the engine", zap.Error(err))
	}

	return ctx, cancel, logger, eng
}
