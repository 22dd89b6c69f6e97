package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/davicafu/catalogsync/internal/inventory/domain"
)

// NewPendingCommand muestra las operaciones pendientes de un producto o
// categoría.
func NewPendingCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "pending <product|category> <id>",
		Short: "Muestra las operaciones pendientes de una entidad",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := domain.ParseItemType(args[0])
			if err != nil {
				return err
			}
			id, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid id %q", args[1])
			}

			a, _, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close() //nolint:errcheck

			status, err := a.Pending.Pending(cmd.Context(), t, id)
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), opts.Format, status,
				"%s %d: pending=%d create=%t update=%t stock=%t dinkassa_id=%q",
				status.Type, status.ID, status.Mask, status.Create, status.Update, status.Stock, status.RemoteID)
		},
	}
}
