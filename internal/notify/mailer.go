package notify

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"text/template"

	"github.com/rs/zerolog"
)

// Message is a plain text email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Mailer delivers email messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPConfig holds the settings of an SMTP relay.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPMailer sends mail through an SMTP relay with PLAIN auth.
type SMTPMailer struct {
	cfg  SMTPConfig
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPMailer creates a mailer for the relay described by cfg.
func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, send: smtp.SendMail}
}

// Send delivers msg. smtp.SendMail has no context, so ctx is only checked before dialing.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.ContainsAny(msg.To, "\r\n") || strings.ContainsAny(msg.Subject, "\r\n") {
		return fmt.Errorf("invalid header value")
	}

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))
	if err := m.send(addr, auth, m.cfg.From, []string{msg.To}, m.render(msg)); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

func (m *SMTPMailer) render(msg Message) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", m.cfg.From)
	fmt.Fprintf(&buf, "To: %s\r\n", msg.To)
	fmt.Fprintf(&buf, "Subject: %s\r\n", msg.Subject)
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	buf.WriteString(strings.ReplaceAll(msg.Body, "\n", "\r\n"))
	return buf.Bytes()
}

// LogMailer only logs messages. It is used when no SMTP relay is configured.
type LogMailer struct {
	log zerolog.Logger
}

// NewLogMailer creates a mailer that writes messages to log.
func NewLogMailer(log zerolog.Logger) *LogMailer {
	return &LogMailer{log: log}
}

// Send logs msg and never fails.
func (m *LogMailer) Send(_ context.Context, msg Message) error {
	m.log.Info().
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Msg("mail delivery disabled, message dropped")
	return nil
}

var welcomeTemplate = template.Must(template.New("welcome").Parse(`Hello {{.Nickname}},

your account on {{.Site}} is ready. Sign in with the nickname "{{.Nickname}}"
to start streaming or to join the chat of a live stream.
`))

// Welcome renders the message sent after registration.
func Welcome(site, nickname, email string) (Message, error) {
	var body bytes.Buffer
	data := struct{ Site, Nickname string }{Site: site, Nickname: nickname}
	if err := welcomeTemplate.Execute(&body, data); err != nil {
		return Message{}, fmt.Errorf("render welcome: %w", err)
	}
	return Message{
		To:      email,
		Subject: "Welcome to " + site,
		Body:    body.String(),
	}, nil
}
