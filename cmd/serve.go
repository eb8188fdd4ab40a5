package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/internship-matcher/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve résumé upload and matching over HTTP",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("address", "a", "", "listen address (default :8000)")
	serveCmd.Flags().Bool("metrics", true, "expose prometheus metrics on /metrics")

	viper.BindPFlag("server.address", serveCmd.Flags().Lookup("address"))
	viper.BindPFlag("server.metrics", serveCmd.Flags().Lookup("metrics"))
}

func serve() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, config := setup()
	defer logger.Sync()

	logger.Info("starting the internship-matcher server", zap.String("version", version))

	c, err := buildComponents(ctx, config, logger)
	if err != nil {
		logger.Fatal("preparing the matcher", zap.Error(err))
	}

	srv := server.New(server.Config{
		Address:      config.Server.Address,
		MaxUploadMB:  config.Server.MaxUploadMB,
		Metrics:      config.Server.Metrics,
		DefaultLimit: config.Matching.Limit,
	}, c.ranker, c.postings, logger.Named("http"))

	if err := srv.Run(ctx); err != nil {
		logger.Fatal("http server failed", zap.Error(err))
	}
}
