package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/aquamarinepk/aqm"
	aqmevents "github.com/aquamarinepk/aqm/events"
	"github.com/nats-io/nats.go"
)

// NATSForwarder republishes resource changes from the local bus to NATS so
// that other services (kitchen displays, order monitors) can react.
type NATSForwarder struct {
	url    string
	mu     sync.Mutex
	conn   *nats.Conn
	source aqmevents.Subscriber
	logger aqm.Logger
}

// NewNATSForwarder prepares a forwarder; the connection is opened on Start.
func NewNATSForwarder(url string, source aqmevents.Subscriber, logger aqm.Logger) *NATSForwarder {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	return &NATSForwarder{
		url:    url,
		source: source,
		logger: logger,
	}
}

// Start connects to NATS and subscribes to the local resources topic.
func (f *NATSForwarder) Start(ctx context.Context) error {
	if f.url == "" || f.source == nil {
		f.logger.Info("NATS forwarding not configured, resource events stay local")
		return nil
	}

	conn, err := nats.Connect(f.url, nats.Name("backoffice"))
	if err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}
	f.setConn(conn)

	if err := f.source.Subscribe(ctx, ResourcesTopic, f.forward); err != nil {
		f.setConn(nil)
		conn.Close()
		return fmt.Errorf("failed to subscribe to %s: %w", ResourcesTopic, err)
	}

	f.logger.Info("forwarding resource events to NATS", "url", f.url, "topic", ResourcesTopic)
	return nil
}

// Stop drains and closes the connection. Changes published afterwards stay
// local.
func (f *NATSForwarder) Stop(ctx context.Context) error {
	conn := f.setConn(nil)
	if conn == nil {
		return nil
	}
	if err := conn.Drain(); err != nil {
		conn.Close()
		return err
	}
	return nil
}

// Publish sends msg to NATS on topic.
func (f *NATSForwarder) Publish(ctx context.Context, topic string, msg []byte) error {
	conn := f.connection()
	if conn == nil {
		return fmt.Errorf("NATS connection not started")
	}
	return conn.Publish(topic, msg)
}

func (f *NATSForwarder) forward(ctx context.Context, msg []byte) error {
	conn := f.connection()
	if conn == nil {
		f.logger.Debug("NATS forwarder stopped, event kept local")
		return nil
	}
	if err := conn.Publish(ResourcesTopic, msg); err != nil {
		f.logger.Error("cannot forward resource event", "error", err)
		return err
	}
	return nil
}

func (f *NATSForwarder) connection() *nats.Conn {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.conn
}

// setConn replaces the connection and returns the previous one.
func (f *NATSForwarder) setConn(conn *nats.Conn) *nats.Conn {
	f.mu.Lock()
	defer f.mu.Unlock()
	prev := f.conn
	f.conn = conn
	return prev
}
