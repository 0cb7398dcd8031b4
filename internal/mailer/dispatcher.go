// Package mailer delivers rendered documents through the outbound mail relay.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/herobudget/notification-service/internal/config"
)

// maxBackoff bounds the wait between two attempts.
const maxBackoff = time.Minute

// ErrNotConfigured is returned at construction when relay credentials are missing.
var ErrNotConfigured = errors.New("mail relay credentials not configured")

// Outcome reports one Send. Ordinary delivery failures set Delivered=false and Err;
// they are never returned as errors or panics.
type Outcome struct {
	Delivered bool
	MessageID string
	Attempts  int
	Err       error
}

// Options tunes a Dispatcher.
type Options struct {
	From        mail.Address
	MaxAttempts int
	Backoff     time.Duration
	SendTimeout time.Duration
}

// Dispatcher stamps envelopes and hands them to a Transport, retrying when configured.
type Dispatcher struct {
	transport Transport
	opts      Options
	logger    *zap.Logger
	now       func() time.Time
	sleep     func(context.Context, time.Duration) error
}

// NewDispatcher wires the transport selected by cfg.
func NewDispatcher(cfg config.MailConfig, displayName string, logger *zap.Logger) (*Dispatcher, error) {
	from := mail.Address{Name: displayName, Address: strings.TrimSpace(cfg.Username)}

	var transport Transport
	switch cfg.Transport {
	case config.MailTransportLog:
		if from.Address == "" {
			from.Address = "noreply@localhost"
		}
		transport = NewLogTransport(logger)
	case config.MailTransportSMTP, "":
		if from.Address == "" || strings.TrimSpace(cfg.Password) == "" {
			return nil, ErrNotConfigured
		}
		transport = NewSMTPTransport(cfg)
	default:
		return nil, fmt.Errorf("unknown mail transport %q", cfg.Transport)
	}

	return New(transport, Options{
		From:        from,
		MaxAttempts: cfg.MaxAttempts,
		Backoff:     cfg.RetryBackoff(),
		SendTimeout: cfg.SendTimeout(),
	}, logger), nil
}

// New builds a Dispatcher around an arbitrary transport.
func New(transport Transport, opts Options, logger *zap.Logger) *Dispatcher {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		transport: transport,
		opts:      opts,
		logger:    logger,
		now:       time.Now,
		sleep:     sleepContext,
	}
}

// Send delivers env to its single recipient. The backoff doubles after every failed attempt.
func (d *Dispatcher) Send(ctx context.Context, env Envelope) Outcome {
	msg := Message{
		From:      d.opts.From,
		To:        env.To,
		ReplyTo:   env.ReplyTo,
		Subject:   env.Subject,
		HTML:      env.HTML,
		Text:      env.Text,
		MessageID: d.messageID(),
		Date:      d.now(),
	}
	log := d.logger.With(zap.String("message_id", msg.MessageID), zap.String("to", msg.To))

	var err error
	attempts := 0
	for attempts < d.opts.MaxAttempts {
		if attempts > 0 {
			if serr := d.sleep(ctx, d.backoff(attempts)); serr != nil {
				err = errors.Join(err, serr)
				break
			}
		}
		attempts++
		err = d.deliverOnce(ctx, msg)
		if err == nil {
			log.Info("mail delivered", zap.Int("attempts", attempts))
			return Outcome{Delivered: true, MessageID: msg.MessageID, Attempts: attempts}
		}
		log.Warn("mail delivery attempt failed", zap.Int("attempt", attempts), zap.Error(err))
	}

	log.Error("mail delivery failed", zap.Int("attempts", attempts), zap.Error(err))
	return Outcome{MessageID: msg.MessageID, Attempts: attempts, Err: err}
}

// backoff is the wait after the given number of failed attempts.
func (d *Dispatcher) backoff(failed int) time.Duration {
	wait := d.opts.Backoff
	for i := 1; i < failed && wait < maxBackoff; i++ {
		wait *= 2
	}
	return min(wait, maxBackoff)
}

func (d *Dispatcher) deliverOnce(ctx context.Context, msg Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("transport panic: %v", r)
		}
	}()
	if d.opts.SendTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.opts.SendTimeout)
		defer cancel()
	}
	return d.transport.Deliver(ctx, msg)
}

func (d *Dispatcher) messageID() string {
	host := "localhost"
	if at := strings.LastIndex(d.opts.From.Address, "@"); at >= 0 && at < len(d.opts.From.Address)-1 {
		host = d.opts.From.Address[at+1:]
	}
	return fmt.Sprintf("<%s@%s>", uuid.NewString(), host)
}
