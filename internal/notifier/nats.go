package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/nats-io/nats.go"
)

// NATSNotifier publishes every trigger as JSON on <prefix>.<kind>.
type NATSNotifier struct {
	nc     *nats.Conn
	prefix string
}

// NewNATSNotifier connects to the NATS server at url.
func NewNATSNotifier(url, prefix string) (*NATSNotifier, error) {
	nc, err := nats.Connect(url, nats.Name("stakehouse"), nats.MaxReconnects(-1))
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	log.Printf("[INFO] nats connected: %s", url)
	return &NATSNotifier{nc: nc, prefix: prefix}, nil
}

// Subject returns the subject a trigger kind is published on.
func (n *NATSNotifier) Subject(kind Kind) string {
	return n.prefix + "." + string(kind)
}

// Notify publishes tr. Core NATS publishing is buffered and does not wait for
// subscribers.
func (n *NATSNotifier) Notify(tr Trigger) {
	data, err := json.Marshal(tr)
	if err != nil {
		log.Printf("[ERROR] marshal trigger %s: %v", tr.Kind, err)
		return
	}
	if err := n.nc.Publish(n.Subject(tr.Kind), data); err != nil {
		log.Printf("[ERROR] nats publish %s: %v", tr.Kind, err)
	}
}

// Broadcast publishes a report as plain text on <prefix>.report.
func (n *NATSNotifier) Broadcast(_ context.Context, text string) error {
	if err := n.nc.Publish(n.prefix+".report", []byte(text)); err != nil {
		return fmt.Errorf("nats publish report: %w", err)
	}
	return nil
}

// Close flushes pending publishes and closes the connection.
func (n *NATSNotifier) Close() error {
	return n.nc.Drain()
}
