package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/davicafu/catalogsync/internal/app"
	"github.com/davicafu/catalogsync/internal/config"
	"github.com/davicafu/catalogsync/pkg/logger"
)

// RootOptions guarda los flags globales.
type RootOptions struct {
	Format string // "json" | "text"
}

// ValidFormats son los formatos de salida admitidos.
var ValidFormats = []string{"text", "json"}

// NewRootCommand crea el comando raíz de catalogsync.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "catalogsync",
		Short:         "Sincroniza el catálogo de la tienda con el inventario remoto",
		Long:          "Despacha altas, cambios, borrados y stock de productos y categorías a la API de inventario y reconcilia el estado pendiente.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewPendingCommand(opts))
	cmd.AddCommand(NewSendCommand(opts))

	return cmd
}

// openApp carga configuración y logger y construye la app.
func openApp(ctx context.Context) (*app.App, *zap.Logger, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}
	return a, log, nil
}

// printResult escribe v como JSON o con el formato de texto dado.
func printResult(w io.Writer, format string, v interface{}, text string, args ...interface{}) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	_, err := fmt.Fprintf(w, text+"\n", args...)
	return err
}
