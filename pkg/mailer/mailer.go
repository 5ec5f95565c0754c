package mailer

import (
	"context"
	"fmt"
	"mime"
	"net"
	"net/mail"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/jiu-academy-api/pkg/config"
)

// Message is a single HTML email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Mailer delivers messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// New returns an SMTP mailer, or a logging mailer when no host is configured.
func New(cfg config.SMTPConfig, logger *zap.Logger) Mailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if strings.TrimSpace(cfg.Host) == "" {
		return &LogMailer{logger: logger}
	}
	return &SMTPMailer{cfg: cfg, logger: logger, send: smtp.SendMail}
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPMailer sends through a relay with PLAIN auth when credentials are set.
type SMTPMailer struct {
	cfg    config.SMTPConfig
	logger *zap.Logger
	send   sendFunc
}

// Send builds the MIME message and hands it to the relay.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	from, err := mail.ParseAddress(m.cfg.From)
	if err != nil {
		return fmt.Errorf("parse from address: %w", err)
	}
	to, err := mail.ParseAddress(msg.To)
	if err != nil {
		return fmt.Errorf("parse recipient: %w", err)
	}

	var auth smtp.Auth
	if m.cfg.User != "" {
		auth = smtp.PlainAuth("", m.cfg.User, m.cfg.Password, m.cfg.Host)
	}
	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))
	if err := m.send(addr, auth, from.Address, []string{to.Address}, buildMessage(from, to, msg)); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	m.logger.Debug("email sent", zap.String("to", to.Address), zap.String("subject", msg.Subject))
	return nil
}

func buildMessage(from, to *mail.Address, msg Message) []byte {
	var b strings.Builder
	b.WriteString("From: " + from.String() + "\r\n")
	b.WriteString("To: " + to.String() + "\r\n")
	b.WriteString("Subject: " + mimeSubject(msg.Subject) + "\r\n")
	b.WriteString("Date: " + time.Now().Format(time.RFC1123Z) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.HTML)
	return []byte(b.String())
}

func mimeSubject(subject string) string {
	subject = strings.NewReplacer("\r", "", "\n", "").Replace(subject)
	return mime.QEncoding.Encode("utf-8", subject)
}

// LogMailer records messages instead of sending them.
type LogMailer struct {
	logger *zap.Logger
}

// Send logs the message envelope.
func (m *LogMailer) Send(_ context.Context, msg Message) error {
	m.logger.Info("smtp disabled, email not sent", zap.String("to", msg.To), zap.String("subject", msg.Subject))
	return nil
}
