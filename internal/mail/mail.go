package mail

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/sandeepkv93/shortlink-backend/internal/config"
)

const (
	KindVerification  = "verification"
	KindPasswordReset = "password_reset"
)

type Message struct {
	Kind    string
	To      string
	Subject string
	Body    string
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Composer builds the outbound messages; links point at the frontend.
type Composer struct {
	frontendURL string
}

func NewComposer(frontendURL string) *Composer {
	return &Composer{frontendURL: strings.TrimRight(frontendURL, "/")}
}

func (c *Composer) Verification(to, token string) Message {
	link := fmt.Sprintf("%s/verify-email?token=%s", c.frontendURL, url.QueryEscape(token))
	return Message{
		Kind:    KindVerification,
		To:      to,
		Subject: "Verify Your Email - URL Shortener",
		Body:    "Confirm your email address to activate your account:\n\n" + link + "\n\nThe link expires in 24 hours.\n",
	}
}

func (c *Composer) PasswordReset(to, token string) Message {
	link := fmt.Sprintf("%s/reset-password?token=%s", c.frontendURL, url.QueryEscape(token))
	return Message{
		Kind:    KindPasswordReset,
		To:      to,
		Subject: "Reset Your Password - URL Shortener",
		Body:    "A password reset was requested for your account:\n\n" + link + "\n\nIgnore this email if you did not ask for it.\n",
	}
}

func NewSender(cfg *config.Config, logger *slog.Logger) Sender {
	if cfg.MailDriver == "smtp" {
		return NewSMTPSender(SMTPOptions{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.MailFrom,
		})
	}
	return NewLogSender(logger)
}

// LogSender writes messages to the log instead of delivering them.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "mail not delivered (log driver)", "kind", msg.Kind, "to", msg.To, "subject", msg.Subject, "body", msg.Body)
	return nil
}
