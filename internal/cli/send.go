package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/davicafu/catalogsync/internal/inventory/application"
	"github.com/davicafu/catalogsync/internal/inventory/domain"
)

// SendOptions son los flags de send.
type SendOptions struct {
	*RootOptions
	Event      string
	PostID     int64
	RemoteID   string
	Data       string
	Method     string
	Controller string
	Secure     bool
}

// NewSendCommand ejecuta un descriptor de forma síncrona, sin pasar por la
// cola: llamada remota y reconciliación en el mismo proceso.
func NewSendCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SendOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Envía un evento de sincronización y reconcilia el resultado",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := domain.EventKind(opts.Event)
			if !kind.Known() {
				return fmt.Errorf("unknown event %q", opts.Event)
			}
			resource := opts.Controller
			if resource == "" {
				resource = defaultResource(kind)
			}
			method := opts.Method
			if method == "" {
				method = defaultMethod(kind)
			}

			d := application.BuildDescriptor(kind, opts.PostID, opts.RemoteID, strings.ToUpper(method), resource, application.Options{
				Payload: []byte(opts.Data),
				Secure:  opts.Secure,
			})

			a, _, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close() //nolint:errcheck

			if err := a.Send(cmd.Context(), d); err != nil {
				return err
			}
			result := map[string]interface{}{"id": d.ID, "event": d.Kind, "post_id": d.LocalID}
			return printResult(cmd.OutOrStdout(), opts.Format, result, "✅ %s %s enviado", d.Kind, d.ID)
		},
	}

	cmd.Flags().StringVarP(&opts.Event, "event", "e", "", "event type (e.g. product-updated)")
	cmd.Flags().Int64Var(&opts.PostID, "id", 0, "local product or category id")
	cmd.Flags().StringVar(&opts.RemoteID, "remote-id", "", "remote (dinkassa) id")
	cmd.Flags().StringVarP(&opts.Data, "data", "d", "", "JSON body sent to the remote API")
	cmd.Flags().StringVar(&opts.Method, "method", "", "HTTP method (defaults by event)")
	cmd.Flags().StringVar(&opts.Controller, "controller", "", "remote resource (defaults by event)")
	cmd.Flags().BoolVar(&opts.Secure, "secure", true, "verify TLS certificates")
	_ = cmd.MarkFlagRequired("event")

	return cmd
}

func defaultResource(kind domain.EventKind) string {
	if kind.EntityType() == domain.ItemCategory {
		return application.ResourceCategory
	}
	return application.ResourceInventoryItem
}

func defaultMethod(kind domain.EventKind) string {
	switch kind {
	case domain.ProductCreated, domain.CategoryCreated:
		return "POST"
	case domain.ProductDeleted, domain.CategoryDeleted:
		return "DELETE"
	default:
		return "PUT"
	}
}
