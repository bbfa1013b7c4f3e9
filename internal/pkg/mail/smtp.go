package mail

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
)

var (
	ErrSMTPHostPortRequired = errors.New("mail: smtp host and port are required")
	ErrSMTPNoRecipients     = errors.New("mail: no recipients provided")
	ErrSMTPNoSender         = errors.New("mail: no sender provided")
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	// From is used when Message.From is empty.
	From string
}

type SMTP struct {
	addr        string
	defaultFrom string
	auth        smtp.Auth
	send        func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTP(cfg SMTPConfig) (*SMTP, error) {
	if cfg.Host == "" || cfg.Port == 0 {
		return nil, ErrSMTPHostPortRequired
	}

	s := &SMTP{
		addr:        net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		defaultFrom: cfg.From,
		send:        smtp.SendMail,
	}
	if cfg.Username != "" && cfg.Password != "" {
		s.auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}

	return s, nil
}

func (s *SMTP) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	to := msg.recipients()
	if len(to) == 0 {
		return ErrSMTPNoRecipients
	}

	from := msg.From
	if from == "" {
		from = s.defaultFrom
	}
	if from == "" {
		return ErrSMTPNoSender
	}

	return s.send(s.addr, s.auth, from, to, compose(from, msg))
}

func (s *SMTP) Close() error {
	return nil
}

func compose(from string, msg Message) []byte {
	body, contentType := buildBody(msg)

	var sb strings.Builder
	fmt.Fprintf(&sb, "From: %s\r\n", from)
	fmt.Fprintf(&sb, "To: %s\r\n", strings.Join(msg.To, ", "))
	if len(msg.Cc) > 0 {
		fmt.Fprintf(&sb, "Cc: %s\r\n", strings.Join(msg.Cc, ", "))
	}
	fmt.Fprintf(&sb, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	sb.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&sb, "Content-Type: %s\r\n\r\n", contentType)
	sb.WriteString(body)

	return []byte(sb.String())
}

func buildBody(msg Message) (body, contentType string) {
	switch {
	case msg.HTMLBody != "" && msg.TextBody != "":
		boundary := multipartBoundary()
		var sb strings.Builder
		for _, part := range []struct{ ct, body string }{
			{"text/plain", msg.TextBody},
			{"text/html", msg.HTMLBody},
		} {
			fmt.Fprintf(&sb, "--%s\r\nContent-Type: %s; charset=UTF-8\r\n\r\n%s\r\n", boundary, part.ct, part.body)
		}
		fmt.Fprintf(&sb, "--%s--", boundary)
		return sb.String(), "multipart/alternative; boundary=" + boundary
	case msg.HTMLBody != "":
		return msg.HTMLBody, "text/html; charset=UTF-8"
	default:
		return msg.TextBody, "text/plain; charset=UTF-8"
	}
}

func multipartBoundary() string {
	var b [12]byte
	_, _ = rand.Read(b[:])
	return "gostore-" + hex.EncodeToString(b[:])
}
