package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/herobudget/notification-service/internal/config"
	"github.com/herobudget/notification-service/internal/domain"
	"github.com/herobudget/notification-service/internal/mailer"
	"github.com/herobudget/notification-service/internal/render"
	"github.com/herobudget/notification-service/internal/validation"
)

// loadConfig is swapped in tests.
var loadConfig = config.Load

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "notifyctl",
		Short:         "Operate the Hero Budget notification pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRenderCmd(), newSendTestCmd())
	return root
}

func newRenderCmd() *cobra.Command {
	var kind, file, format string
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Validate a form body and print the documents it would produce",
		Long: `Reads a JSON form body from --file (or stdin), runs it through validation,
normalization and rendering, and prints every document. Nothing is sent.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var in io.Reader = cmd.InOrStdin()
			if file != "" && file != "-" {
				f, err := os.Open(file)
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			body, err := io.ReadAll(in)
			if err != nil {
				return fmt.Errorf("read body: %w", err)
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return renderBody(cmd.OutOrStdout(), cfg.Notification, domain.Kind(kind), body, format, time.Now())
		},
	}
	cmd.Flags().StringVar(&kind, "kind", string(domain.KindContact), "submission kind: contact, ticket or privacy")
	cmd.Flags().StringVar(&file, "file", "-", "path of the JSON body, - for stdin")
	cmd.Flags().StringVar(&format, "format", "text", "output: text, html or subject")
	return cmd
}

func renderBody(out io.Writer, cfg config.NotificationConfig, kind domain.Kind, body []byte, format string, now time.Time) error {
	format = strings.ToLower(format)
	switch format {
	case "subject", "html", "text":
	default:
		return fmt.Errorf("unknown format %q", format)
	}

	sub, err := validation.Validate(kind, body)
	if err != nil {
		return err
	}
	sub = domain.Sanitize(sub)

	renderer, err := render.NewRenderer(render.Options{
		DisplayName: cfg.DisplayName,
		PublicURL:   cfg.PublicURL,
		SupportURL:  cfg.SupportURL(),
		Location:    cfg.Location(),
	})
	if err != nil {
		return err
	}
	meta := render.Meta{Now: now}
	if kind == domain.KindTicket {
		meta.Reference = domain.NewTicketReference(now)
	}
	docs, err := renderer.RenderAll(sub, meta)
	if err != nil {
		return err
	}

	for _, doc := range docs {
		fmt.Fprintf(out, "=== %s: %s\n", doc.Audience, doc.Subject)
		switch format {
		case "html":
			fmt.Fprintln(out, doc.HTML)
		case "text":
			fmt.Fprintln(out, doc.Text)
		}
	}
	return nil
}

func newSendTestCmd() *cobra.Command {
	var to string
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "send-test",
		Short: "Send one test message through the configured relay",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if to == "" {
				to = cfg.Notification.AdminEmail
			}
			if to == "" {
				return fmt.Errorf("no recipient: pass --to or set ADMIN_EMAIL")
			}
			logger, err := zap.NewDevelopment()
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			d, err := mailer.NewDispatcher(cfg.Mail, cfg.Notification.DisplayName, logger)
			if err != nil {
				return fmt.Errorf("mail relay: %w (missing: %s)", err, strings.Join(cfg.MailIssues(), ", "))
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			outcome := d.Send(ctx, mailer.Envelope{
				To:      to,
				Subject: fmt.Sprintf("[%s] Prueba de envío", cfg.Notification.DisplayName),
				Text:    "Mensaje de prueba del servicio de notificaciones.",
			})
			if !outcome.Delivered {
				return fmt.Errorf("delivery failed after %d attempt(s): %w", outcome.Attempts, outcome.Err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "delivered %s to %s\n", outcome.MessageID, to)
			return nil
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "recipient, defaults to ADMIN_EMAIL")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "overall timeout")
	return cmd
}
