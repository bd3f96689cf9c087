package cmd

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/careerpilot/jobradar/internal/logger"
	"github.com/careerpilot/jobradar/internal/server"
	"github.com/careerpilot/jobradar/internal/tracker"
)

const defaultListenAddr = ":8080"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the similar-jobs pipeline over HTTP",
	Run: func(cmd *cobra.Command, _ []string) {
		serve(cmd)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("listen", "l", "", "listen address (default "+defaultListenAddr+")")
}

func serve(cmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting jobradar", zap.String("version", version))

	orchestrator, scrapers, _, err := buildPipeline(config, logger)
	if err != nil {
		logger.Fatal("building the pipeline", zap.Error(err))
	}

	// The job-record store is external; without it, requests must carry the
	// reference job inline.
	var store server.ReferenceStore
	if config.Tracker != nil && config.Tracker.BaseURL != "" {
		store = tracker.New(config.Tracker.BaseURL, logger)
		logger.Info("using tracker api for job lookups", zap.String("base_url", config.Tracker.BaseURL))
	} else {
		logger.Info("no tracker api configured; jobId lookups are disabled")
	}

	addr := defaultListenAddr
	if config.Server != nil && config.Server.Listen != "" {
		addr = config.Server.Listen
	}
	if flagAddr, _ := cmd.Flags().GetString("listen"); flagAddr != "" {
		addr = flagAddr
	}

	srv := server.New(orchestrator, store, scrapers, logger)
	if err := srv.ListenAndServe(ctx, addr); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}

	logger.Info("exiting", zap.String("reason", "shutdown complete"))
}
