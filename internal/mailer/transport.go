package mailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"time"

	"go.uber.org/zap"

	"github.com/herobudget/notification-service/internal/config"
)

const implicitTLSPort = 465

// Transport hands one encoded message to the relay.
type Transport interface {
	Deliver(ctx context.Context, msg Message) error
}

// SMTPTransport opens a fresh authenticated connection per message.
type SMTPTransport struct {
	addr      string
	host      string
	port      int
	username  string
	password  string
	tlsConfig *tls.Config
	dialer    *net.Dialer
}

// NewSMTPTransport builds a transport for the configured relay.
func NewSMTPTransport(cfg config.MailConfig) *SMTPTransport {
	return &SMTPTransport{
		addr:     cfg.Addr(),
		host:     cfg.Host,
		port:     cfg.Port,
		username: cfg.Username,
		password: cfg.Password,
		tlsConfig: &tls.Config{
			ServerName:         cfg.Host,
			InsecureSkipVerify: cfg.TLSSkipVerify, //nolint:gosec // opt-in for relays with self-signed certs
			MinVersion:         tls.VersionTLS12,
		},
		dialer: &net.Dialer{Timeout: cfg.DialTimeout()},
	}
}

// Deliver implements Transport.
func (t *SMTPTransport) Deliver(ctx context.Context, msg Message) error {
	raw, err := msg.Bytes()
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	conn, err := t.dialer.DialContext(ctx, "tcp", t.addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", t.addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	if t.port == implicitTLSPort {
		conn = tls.Client(conn, t.tlsConfig)
	}

	client, err := smtp.NewClient(conn, t.host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer client.Close()

	if t.port != implicitTLSPort {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(t.tlsConfig); err != nil {
				return fmt.Errorf("starttls: %w", err)
			}
		}
	}
	if t.username != "" {
		if err := client.Auth(smtp.PlainAuth("", t.username, t.password, t.host)); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}
	if err := client.Mail(msg.From.Address); err != nil {
		return fmt.Errorf("smtp MAIL FROM: %w", err)
	}
	if err := client.Rcpt(msg.To); err != nil {
		return fmt.Errorf("smtp RCPT TO: %w", err)
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp DATA: %w", err)
	}
	if _, err := w.Write(raw); err != nil {
		_ = w.Close()
		return fmt.Errorf("write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finish message: %w", err)
	}
	return client.Quit()
}

// LogTransport writes messages to the logger instead of a relay. Development only.
type LogTransport struct {
	logger *zap.Logger
}

func NewLogTransport(logger *zap.Logger) *LogTransport {
	return &LogTransport{logger: logger}
}

// Deliver implements Transport.
func (t *LogTransport) Deliver(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.logger.Info("mail captured",
		zap.String("message_id", msg.MessageID),
		zap.String("to", msg.To),
		zap.String("reply_to", msg.ReplyTo),
		zap.String("subject", msg.Subject),
		zap.Time("date", msg.Date),
		zap.Int("html_bytes", len(msg.HTML)))
	t.logger.Debug("mail body", zap.String("message_id", msg.MessageID), zap.String("text", msg.Text))
	return nil
}

var _ Transport = (*SMTPTransport)(nil)
var _ Transport = (*LogTransport)(nil)

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
