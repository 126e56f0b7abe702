package notify

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net"
	"net/smtp"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/JodusNodus/apartment-eagle/internal/config"
	"github.com/JodusNodus/apartment-eagle/internal/model"
)

// SendFunc delivers a raw RFC 5322 message. smtp.SendMail satisfies it.
type SendFunc func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error

// EmailNotifier sends the report over SMTP with STARTTLS when the server
// offers it.
type EmailNotifier struct {
	cfg  config.EmailConfig
	send SendFunc
	now  func() time.Time
}

// NewEmail creates an EmailNotifier using smtp.SendMail.
func NewEmail(cfg config.EmailConfig) *EmailNotifier {
	return NewEmailWithSender(cfg, smtp.SendMail)
}

// NewEmailWithSender creates an EmailNotifier with a custom delivery func.
func NewEmailWithSender(cfg config.EmailConfig, send SendFunc) *EmailNotifier {
	return &EmailNotifier{cfg: cfg, send: send, now: time.Now}
}

// Name implements Notifier.
func (e *EmailNotifier) Name() string { return "email" }

// Notify implements Notifier.
func (e *EmailNotifier) Notify(ctx context.Context, matches []model.Match) error {
	if len(matches) == 0 {
		return nil
	}
	if len(e.cfg.To) == 0 {
		return eris.New("notify: email: no recipients configured")
	}
	if err := ctx.Err(); err != nil {
		return eris.Wrap(err, "notify: email")
	}

	from := e.sender()
	raw, err := buildMIME(from, e.cfg.To, Compose(matches, e.now()), e.now())
	if err != nil {
		return eris.Wrap(err, "notify: email: build message")
	}

	var auth smtp.Auth
	if e.cfg.User != "" {
		auth = smtp.PlainAuth("", e.cfg.User, e.cfg.Pass, e.cfg.Host)
	}
	addr := net.JoinHostPort(e.cfg.Host, strconv.Itoa(e.cfg.Port))
	if err := e.send(addr, auth, from, e.cfg.To, raw); err != nil {
		return eris.Wrapf(err, "notify: email: send via %s as %s", addr, e.cfg.User)
	}
	return nil
}

func (e *EmailNotifier) sender() string {
	if e.cfg.From != "" {
		return e.cfg.From
	}
	return e.cfg.User
}

// buildMIME renders msg as a multipart/alternative message with a
// plain-text and an HTML part.
func buildMIME(from string, to []string, msg Message, date time.Time) ([]byte, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	fmt.Fprintf(&buf, "Date: %s\r\n", date.Format(time.RFC1123Z))
	buf.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", mw.Boundary())

	for _, part := range []struct{ contentType, body string }{
		{"text/plain; charset=utf-8", msg.Text},
		{"text/html; charset=utf-8", msg.HTML},
	} {
		w, err := mw.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {part.contentType},
			"Content-Transfer-Encoding": {"quoted-printable"},
		})
		if err != nil {
			return nil, err
		}
		qp := quotedprintable.NewWriter(w)
		if _, err := qp.Write([]byte(part.body)); err != nil {
			return nil, err
		}
		if err := qp.Close(); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
