package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewServeCommand arranca el servicio HTTP con dispatcher, relayer y,
// si está activo, el consumidor de Kafka.
func NewServeCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Arranca el servicio de sincronización",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, log, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer log.Sync() //nolint:errcheck
			defer func() {
				if err := a.Close(); err != nil {
					log.Warn("⚠️ Error cerrando conexiones", zap.Error(err))
				}
			}()

			return a.Serve(ctx)
		},
	}
}
