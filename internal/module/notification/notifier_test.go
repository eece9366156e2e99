package notification

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/stylekart/server/internal/shared/metrics"
)

type fakeSender struct {
	sent []sentMail
	err  error
}

type sentMail struct {
	to      string
	subject string
	body    string
}

func (f *fakeSender) Send(to, subject, htmlBody string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{to: to, subject: subject, body: htmlBody})
	return nil
}

var notifierTestMetrics = metrics.New("notification_test")

func TestNotifier_OrderConfirmed(t *testing.T) {
	sender := &fakeSender{}
	n, err := NewNotifier(sender, notifierTestMetrics, zap.NewNop())
	assert.NoError(t, err)

	n.OrderConfirmed("asha@example.com", "Asha", "order-123", 32400, "TXN_abc")

	assert.Len(t, sender.sent, 1)
	mail := sender.sent[0]
	assert.Equal(t, "asha@example.com", mail.to)
	assert.Contains(t, mail.body, "Asha")
	assert.Contains(t, mail.body, "order-123")
	assert.Contains(t, mail.body, "32400.00")
	assert.Contains(t, mail.body, "TXN_abc")
}

func TestNotifier_PaymentFailed(t *testing.T) {
	sender := &fakeSender{}
	n, err := NewNotifier(sender, notifierTestMetrics, zap.NewNop())
	assert.NoError(t, err)

	n.PaymentFailed("asha@example.com", "Asha", "order-123", "card declined")

	assert.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0].body, "card declined")
}

func TestNotifier_OrderCancelled_RefundNotice(t *testing.T) {
	sender := &fakeSender{}
	n, err := NewNotifier(sender, notifierTestMetrics, zap.NewNop())
	assert.NoError(t, err)

	n.OrderCancelled("asha@example.com", "order-123", true)
	n.OrderCancelled("asha@example.com", "order-456", false)

	assert.Len(t, sender.sent, 2)
	assert.Contains(t, sender.sent[0].body, "refunded")
	assert.False(t, strings.Contains(sender.sent[1].body, "refunded"))
}

func TestNotifier_SendFailureIsSwallowed(t *testing.T) {
	sender := &fakeSender{err: errors.New("smtp down")}
	n, err := NewNotifier(sender, notifierTestMetrics, zap.NewNop())
	assert.NoError(t, err)

	// must not panic or propagate
	n.OrderConfirmed("asha@example.com", "Asha", "order-123", 100, "TXN")
	assert.Empty(t, sender.sent)
}
