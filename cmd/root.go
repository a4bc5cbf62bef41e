package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Alturino/storefront/internal/common"
	"github.com/Alturino/storefront/internal/log"
)

func Start() {
	logger := log.InitLogger("/var/log/storefront.log").
		With().
		Str(log.KeyAppName, common.AppStorefrontService).
		Str(log.KeyTag, "main Start").
		Logger()

	logger.Info().Msg("adding listener for SIGINT and SIGTERM")
	c, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	logger.Info().Msg("added listener for SIGINT and SIGTERM")

	c = logger.WithContext(c)

	rootCmd := &cobra.Command{Use: "storefront"}
	rootCmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run storefront service",
		Run: func(cmd *cobra.Command, args []string) {
			RunStorefrontService(cmd.Context())
		},
	})
	if err := rootCmd.ExecuteContext(c); err != nil {
		logger.Fatal().Err(err).Msgf("error when executing command=%s", err.Error())
	}
}
