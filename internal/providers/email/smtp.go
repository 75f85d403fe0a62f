package email

import (
	"bytes"
	"context"
	"crypto/tls"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

var ErrNoRecipients = errors.New("no_recipients")

const defaultSendTimeout = 10 * time.Second

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	// Timeout bounds a whole SMTP session when the caller's context carries
	// no earlier deadline.
	Timeout time.Duration
}

type SMTPProvider struct {
	cfg  Config
	send func(ctx context.Context, addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTP(cfg Config) *SMTPProvider {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultSendTimeout
	}
	p := &SMTPProvider{cfg: cfg}
	p.send = p.deliver
	return p
}

func (p *SMTPProvider) Send(ctx context.Context, to []string, subject string, htmlBody string) error {
	if len(to) == 0 {
		return ErrNoRecipients
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var auth smtp.Auth
	if p.cfg.Username != "" {
		auth = smtp.PlainAuth("", p.cfg.Username, p.cfg.Password, p.cfg.Host)
	}
	addr := net.JoinHostPort(p.cfg.Host, strconv.Itoa(p.cfg.Port))

	recipients := make([]string, 0, len(to))
	for _, rcpt := range to {
		recipients = append(recipients, headerValue(rcpt))
	}

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", headerValue(p.cfg.From))
	fmt.Fprintf(&msg, "To: %s\r\n", strings.Join(recipients, ", "))
	fmt.Fprintf(&msg, "Subject: %s\r\n", encodeSubject(subject))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n\r\n")
	msg.WriteString(htmlBody)

	return p.send(ctx, addr, auth, headerValue(p.cfg.From), recipients, msg.Bytes())
}

// SendTemplate renders templates/<templateName>.html with data. The subject is
// read from data["subject"].
func (p *SMTPProvider) SendTemplate(ctx context.Context, to []string, templateName string, data map[string]any) error {
	body, err := Render(templateName, data)
	if err != nil {
		return err
	}

	subject, _ := data["subject"].(string)
	if subject == "" {
		subject = "Notification"
	}
	return p.Send(ctx, to, subject, body)
}

// deliver runs one SMTP session. Every read and write shares one deadline,
// the earlier of ctx's deadline and the configured timeout, and cancelling
// ctx closes the connection.
func (p *SMTPProvider) deliver(ctx context.Context, addr string, auth smtp.Auth, from string, to []string, msg []byte) error {
	deadline := time.Now().Add(p.cfg.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	dialer := net.Dialer{Deadline: deadline}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("smtp dial: %w", err)
	}
	if err := conn.SetDeadline(deadline); err != nil {
		_ = conn.Close()
		return fmt.Errorf("smtp deadline: %w", err)
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	client, err := smtp.NewClient(conn, p.cfg.Host)
	if err != nil {
		_ = conn.Close()
		return sessionError(ctx, "greeting", err)
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: p.cfg.Host}); err != nil {
			return sessionError(ctx, "starttls", err)
		}
	}
	if auth != nil {
		if ok, _ := client.Extension("AUTH"); !ok {
			return errors.New("smtp auth: server does not advertise AUTH")
		}
		if err := client.Auth(auth); err != nil {
			return sessionError(ctx, "auth", err)
		}
	}

	if err := client.Mail(from); err != nil {
		return sessionError(ctx, "mail", err)
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return sessionError(ctx, "rcpt", err)
		}
	}
	w, err := client.Data()
	if err != nil {
		return sessionError(ctx, "data", err)
	}
	if _, err := w.Write(msg); err != nil {
		return sessionError(ctx, "data", err)
	}
	if err := w.Close(); err != nil {
		return sessionError(ctx, "data", err)
	}
	return client.Quit()
}

func sessionError(ctx context.Context, step string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("smtp %s: %w", step, ctxErr)
	}
	return fmt.Errorf("smtp %s: %w", step, err)
}

// headerValue drops CR and LF so a value cannot start a new header line.
func headerValue(v string) string {
	return strings.NewReplacer("\r", "", "\n", "").Replace(strings.TrimSpace(v))
}

func encodeSubject(subject string) string {
	return mime.QEncoding.Encode("utf-8", headerValue(subject))
}

// Render executes one of the embedded templates.
func Render(templateName string, data map[string]any) (string, error) {
	var body bytes.Buffer
	if err := templates.ExecuteTemplate(&body, templateName+".html", data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return body.String(), nil
}
