// Package email delivers report emails over SMTP.
package email

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/erp/reportdispatch/internal/application/report"
	"github.com/erp/reportdispatch/internal/infrastructure/logger"
	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

const breakerName = "smtp"

var (
	// ErrNoRecipient is returned for a message without a To address
	ErrNoRecipient = errors.New("email has no recipient")
	// ErrMailerUnavailable is returned while the circuit breaker rejects sends
	ErrMailerUnavailable = errors.New("smtp temporarily unavailable")
)

// Config holds SMTP delivery settings
type Config struct {
	Host          string
	Port          int
	Username      string
	Password      string
	FromAddress   string
	FromName      string
	SendTimeout   time.Duration
	BreakerTrips  uint32
	BreakerWindow time.Duration
}

// sender is satisfied by *gomail.Dialer
type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPMailer sends report emails with gomail behind a circuit breaker
type SMTPMailer struct {
	cfg     Config
	sender  sender
	breaker *gobreaker.CircuitBreaker[struct{}]
	logger  *zap.Logger
}

// NewSMTPMailer creates a mailer dialing cfg.Host for every message
func NewSMTPMailer(cfg Config, log *zap.Logger) *SMTPMailer {
	return newSMTPMailer(cfg, gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password), log)
}

func newSMTPMailer(cfg Config, s sender, log *zap.Logger) *SMTPMailer {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 30 * time.Second
	}
	if cfg.BreakerTrips == 0 {
		cfg.BreakerTrips = 5
	}
	if cfg.BreakerWindow <= 0 {
		cfg.BreakerWindow = time.Minute
	}

	m := &SMTPMailer{cfg: cfg, sender: s, logger: log}
	m.breaker = gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Timeout:     cfg.BreakerWindow,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerTrips
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	return m
}

// Send delivers msg, giving up when ctx or the send timeout expires.
// A send abandoned on timeout may still complete in the background.
func (m *SMTPMailer) Send(ctx context.Context, msg *report.OutboundEmail) error {
	if msg == nil || strings.TrimSpace(msg.To) == "" {
		return ErrNoRecipient
	}
	gm := m.buildMessage(msg)

	ctx, cancel := context.WithTimeout(ctx, m.cfg.SendTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		_, err := m.breaker.Execute(func() (struct{}, error) {
			return struct{}{}, m.sender.DialAndSend(gm)
		})
		done <- err
	}()

	select {
	case err := <-done:
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("%w: %w", ErrMailerUnavailable, err)
		}
		if err != nil {
			return fmt.Errorf("smtp send to %s: %w", msg.To, err)
		}
		logger.L(ctx).Debug("email sent",
			zap.String("to", msg.To),
			zap.String("subject", msg.Subject),
			zap.Int("attachments", len(msg.Attachments)))
		return nil
	case <-ctx.Done():
		return fmt.Errorf("smtp send to %s: %w", msg.To, ctx.Err())
	}
}

func (m *SMTPMailer) buildMessage(msg *report.OutboundEmail) *gomail.Message {
	gm := gomail.NewMessage()
	gm.SetAddressHeader("From", m.cfg.FromAddress, m.cfg.FromName)
	if msg.ToName != "" {
		gm.SetAddressHeader("To", msg.To, msg.ToName)
	} else {
		gm.SetHeader("To", msg.To)
	}
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/html", msg.HTML)

	for _, a := range msg.Attachments {
		content := a.Content
		contentType := a.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		gm.Attach(a.Filename,
			gomail.SetHeader(map[string][]string{"Content-Type": {contentType}}),
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(content)
				return err
			}),
		)
	}
	return gm
}

// State reports the circuit breaker state
func (m *SMTPMailer) State() gobreaker.State {
	return m.breaker.State()
}

// LogMailer logs emails instead of sending them; used when no SMTP host is configured
type LogMailer struct {
	logger *zap.Logger
}

// NewLogMailer creates a new LogMailer
func NewLogMailer(log *zap.Logger) *LogMailer {
	return &LogMailer{logger: log}
}

// Send logs the message envelope
func (m *LogMailer) Send(ctx context.Context, msg *report.OutboundEmail) error {
	if msg == nil || strings.TrimSpace(msg.To) == "" {
		return ErrNoRecipient
	}
	names := make([]string, 0, len(msg.Attachments))
	for _, a := range msg.Attachments {
		names = append(names, a.Filename)
	}
	m.logger.Info("email not sent: smtp disabled",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.Strings("attachments", names))
	return nil
}
