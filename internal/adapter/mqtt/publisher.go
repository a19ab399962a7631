// Package mqtt publishes notifications to an MQTT broker, one topic per
// notification kind.
package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/couchcryptid/storm-port-monitor/internal/domain"
)

const qosAtLeastOnce byte = 1

// Options configures the broker connection.
type Options struct {
	Broker      string
	ClientID    string
	Username    string
	Password    string
	TopicPrefix string
	Timeout     time.Duration
}

// client is the subset of paho.Client the publisher needs.
type client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Disconnect(quiesce uint)
}

// Publisher sends each notification as JSON to <prefix>/<kind> with QoS 1.
// It implements monitor.Publisher.
type Publisher struct {
	client  client
	prefix  string
	timeout time.Duration
	logger  *slog.Logger
}

// Connect dials the broker and returns a publisher. The connection reconnects
// automatically after drops.
func Connect(opts Options, logger *slog.Logger) (*Publisher, error) {
	co := paho.NewClientOptions()
	co.AddBroker(opts.Broker)
	co.SetClientID(opts.ClientID)
	if opts.Username != "" {
		co.SetUsername(opts.Username)
		co.SetPassword(opts.Password)
	}
	co.SetAutoReconnect(true)
	co.SetConnectRetry(true)
	co.SetConnectRetryInterval(2 * time.Second)
	co.OnConnect = func(paho.Client) {
		logger.Info("mqtt connected", "broker", opts.Broker)
	}
	co.OnConnectionLost = func(_ paho.Client, err error) {
		logger.Warn("mqtt connection lost", "error", err)
	}

	c := paho.NewClient(co)
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	token := c.Connect()
	if !token.WaitTimeout(timeout) {
		c.Disconnect(0)
		return nil, fmt.Errorf("mqtt connect %s: timed out after %s", opts.Broker, timeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", opts.Broker, err)
	}
	return newPublisher(c, opts.TopicPrefix, timeout, logger), nil
}

func newPublisher(c client, prefix string, timeout time.Duration, logger *slog.Logger) *Publisher {
	return &Publisher{client: c, prefix: prefix, timeout: timeout, logger: logger}
}

// Topic returns the topic a notification kind is published to.
func (p *Publisher) Topic(kind domain.NotificationKind) string {
	return p.prefix + "/" + string(kind)
}

// Publish sends notifications in order and stops at the first failure.
func (p *Publisher) Publish(ctx context.Context, notifications ...domain.Notification) error {
	for _, n := range notifications {
		if err := ctx.Err(); err != nil {
			return err
		}
		payload, err := json.Marshal(n)
		if err != nil {
			return fmt.Errorf("serialize notification: %w", err)
		}

		topic := p.Topic(n.Kind)
		token := p.client.Publish(topic, qosAtLeastOnce, false, payload)
		if !token.WaitTimeout(p.timeout) {
			return fmt.Errorf("mqtt publish %s: timed out after %s", topic, p.timeout)
		}
		if err := token.Error(); err != nil {
			return fmt.Errorf("mqtt publish %s: %w", topic, err)
		}
		p.logger.Debug("notification published", "topic", topic, "id", n.ID)
	}
	return nil
}

func (p *Publisher) Close() error {
	p.client.Disconnect(250)
	return nil
}
