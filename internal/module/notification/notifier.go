package notification

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/stylekart/server/internal/shared/config"
	"github.com/stylekart/server/internal/shared/metrics"
)

// Sender delivers a rendered email to a recipient.
type Sender interface {
	Send(to, subject, htmlBody string) error
}

// SMTPSender sends email over SMTP with plain auth.
type SMTPSender struct {
	host     string
	port     int
	username string
	password string
	fromAddr string
	fromName string
}

// NewSMTPSender creates an SMTP-backed sender from configuration.
func NewSMTPSender(cfg *config.SMTPConfig) *SMTPSender {
	return &SMTPSender{
		host:     cfg.Host,
		port:     cfg.Port,
		username: cfg.User,
		password: cfg.Password,
		fromAddr: cfg.FromAddress,
		fromName: cfg.FromName,
	}
}

// Send delivers a single HTML email.
func (s *SMTPSender) Send(to, subject, htmlBody string) error {
	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	auth := smtp.PlainAuth("", s.username, s.password, s.host)

	msg := bytes.Buffer{}
	msg.WriteString(fmt.Sprintf("From: %s <%s>\r\n", s.fromName, s.fromAddr))
	msg.WriteString("To: " + to + "\r\n")
	msg.WriteString("Subject: " + subject + "\r\n")
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(htmlBody)

	if err := smtp.SendMail(addr, auth, s.fromAddr, []string{to}, msg.Bytes()); err != nil {
		return fmt.Errorf("sending mail to %s: %w", to, err)
	}
	return nil
}

// Notifier renders and sends order emails. Deliveries go through a circuit
// breaker so a degraded mail provider cannot pile up slow calls; failures
// are logged and swallowed, never propagated to the caller.
type Notifier struct {
	sender    Sender
	breaker   *gobreaker.CircuitBreaker[any]
	metrics   *metrics.Metrics
	logger    *zap.Logger
	templates *template.Template
}

// NewNotifier creates a notifier around the given sender.
func NewNotifier(sender Sender, m *metrics.Metrics, logger *zap.Logger) (*Notifier, error) {
	tmpl, err := template.New("notifications").Parse(emailTemplates)
	if err != nil {
		return nil, fmt.Errorf("parsing email templates: %w", err)
	}

	breaker := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        "email",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("email circuit breaker state change",
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &Notifier{
		sender:    sender,
		breaker:   breaker,
		metrics:   m,
		logger:    logger,
		templates: tmpl,
	}, nil
}

// notify renders the named template and sends it, recording the outcome.
func (n *Notifier) notify(kind, templateName, to, subject string, data any) {
	var body bytes.Buffer
	if err := n.templates.ExecuteTemplate(&body, templateName, data); err != nil {
		n.metrics.RecordNotification(kind, false)
		n.logger.Error("failed to render notification",
			zap.String("template", templateName),
			zap.Error(err),
		)
		return
	}

	_, err := n.breaker.Execute(func() (any, error) {
		return nil, n.sender.Send(to, subject, body.String())
	})
	if err != nil {
		n.metrics.RecordNotification(kind, false)
		n.logger.Error("failed to send notification",
			zap.String("kind", kind),
			zap.String("to", to),
			zap.Error(err),
		)
		return
	}

	n.metrics.RecordNotification(kind, true)
	n.logger.Info("notification sent",
		zap.String("kind", kind),
		zap.String("to", to),
	)
}

// OrderConfirmed sends the payment confirmation email.
func (n *Notifier) OrderConfirmed(to, name, orderID string, total float64, txnID string) {
	n.notify("order_confirmed", "order_confirmed", to, "Your order is confirmed", map[string]any{
		"Name":          name,
		"OrderID":       orderID,
		"Total":         fmt.Sprintf("%.2f", total),
		"TransactionID": txnID,
	})
}

// PaymentFailed sends the payment failure email.
func (n *Notifier) PaymentFailed(to, name, orderID, reason string) {
	n.notify("payment_failed", "payment_failed", to, "There was a problem with your payment", map[string]any{
		"Name":    name,
		"OrderID": orderID,
		"Reason":  reason,
	})
}

// OrderCancelled sends the cancellation email.
func (n *Notifier) OrderCancelled(to, orderID string, refunded bool) {
	n.notify("order_cancelled", "order_cancelled", to, "Your order has been cancelled", map[string]any{
		"OrderID":  orderID,
		"Refunded": refunded,
	})
}
