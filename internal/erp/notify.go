package erp

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/mikelcalvo/wms/internal/logger"
)

// Notification is one Notification Log record.
type Notification struct {
	Name         string `json:"name,omitempty"`
	Subject      string `json:"subject"`
	ForUser      string `json:"for_user"`
	FromUser     string `json:"from_user,omitempty"`
	Type         string `json:"type"`
	DocumentType string `json:"document_type"`
	DocumentName string `json:"document_name"`
}

// Sender delivers one notification.
type Sender interface {
	Send(ctx context.Context, n Notification) error
}

// RemoteSender posts Notification Log records.
type RemoteSender struct {
	client *Client
}

func NewRemoteSender(c *Client) *RemoteSender {
	return &RemoteSender{client: c}
}

func (s *RemoteSender) Send(ctx context.Context, n Notification) error {
	return s.client.do(ctx, http.MethodPost, resourcePath("Notification Log"), nil, n, nil)
}

// LogSender only logs; it serves demo mode.
type LogSender struct {
	log logger.Logger
}

func NewLogSender(log logger.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Send(_ context.Context, n Notification) error {
	s.log.Info("notification", "for", n.ForUser, "subject", n.Subject)
	return nil
}

// Notifications tells back-office users about orders placed by customers.
// Delivery is fire-and-forget: failures are logged and never reach the user.
type Notifications struct {
	sender     Sender
	recipients []string
	timeout    time.Duration
	log        logger.Logger
	// done is called after every delivery attempt; tests use it to wait.
	done func()
}

func NewNotifications(sender Sender, recipients []string, log logger.Logger) *Notifications {
	if log == nil {
		log = logger.Discard()
	}
	return &Notifications{sender: sender, recipients: recipients, timeout: 10 * time.Second, log: log}
}

// SalesOrderPlaced notifies every recipient about o in the background.
func (n *Notifications) SalesOrderPlaced(o SalesOrder) {
	if len(n.recipients) == 0 {
		n.log.Debug("no notification recipients configured", "order", o.Name)
		return
	}
	for _, to := range n.recipients {
		msg := Notification{
			Name:         "NL-" + uuid.NewString(),
			Subject:      fmt.Sprintf("New sales order %s from %s", o.Name, o.Customer),
			ForUser:      to,
			FromUser:     o.Owner,
			Type:         "Alert",
			DocumentType: "Sales Order",
			DocumentName: o.Name,
		}
		go n.deliver(msg)
	}
}

func (n *Notifications) deliver(msg Notification) {
	ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
	defer cancel()
	if err := n.sender.Send(ctx, msg); err != nil {
		n.log.Warn("notification failed", "for", msg.ForUser, "doc", msg.DocumentName, "err", err)
	}
	if n.done != nil {
		n.done()
	}
}
