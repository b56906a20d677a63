// Package mail provides outbound email for the portal. All notification
// traffic goes through Notifier, which is strictly best-effort: failures
// are logged and never surface to the triggering operation.
package mail

import (
	"context"

	gomail "gopkg.in/gomail.v2"

	"github.com/iseage/signup/internal/config"
	"github.com/iseage/signup/internal/logging"
)

// Message is one outbound email. BCC is used by broadcast sends so
// recipients cannot see each other.
type Message struct {
	Subject string
	Body    string
	To      []string
	BCC     []string
}

// Sender dispatches a single message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPSender sends through the configured SMTP relay using gomail.
type SMTPSender struct {
	cfg config.SMTP
}

// NewSMTPSender constructs a sender for the configured relay.
func NewSMTPSender(cfg config.SMTP) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

// Send dispatches the message synchronously.
func (s *SMTPSender) Send(_ context.Context, msg Message) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.FromAddr)
	m.SetHeader("To", msg.To...)
	if len(msg.BCC) > 0 {
		m.SetHeader("Bcc", msg.BCC...)
	}
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Body)

	d := gomail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.Username, s.cfg.Password)
	return d.DialAndSend(m)
}

// Notifier wraps a Sender with fire-and-forget semantics relative to
// the triggering transaction: a failure is caught and logged, never
// propagated or rolled back.
type Notifier struct {
	sender Sender
	log    *logging.Logger
}

// NewNotifier constructs a best-effort notifier.
func NewNotifier(sender Sender, log *logging.Logger) *Notifier {
	if log == nil {
		log = logging.NewDefault("mail")
	}
	return &Notifier{sender: sender, log: log}
}

// Notify sends the message, swallowing any error.
func (n *Notifier) Notify(ctx context.Context, msg Message) {
	if n.sender == nil || (len(msg.To) == 0 && len(msg.BCC) == 0) {
		return
	}
	if err := n.sender.Send(ctx, msg); err != nil {
		n.log.Warnf("failed to send %q to %v: %v", msg.Subject, msg.To, err)
	}
}
