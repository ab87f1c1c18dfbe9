package notify

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/eclipse/paho.golang/autopaho"
	"github.com/eclipse/paho.golang/paho"

	"github.com/nugget/accountable/internal/config"
)

// Publisher manages the MQTT connection and publishes events under
// <topic_prefix>/users/<user_id>/<type>.
type Publisher struct {
	cfg        config.MQTTConfig
	instanceID string
	logger     *slog.Logger
	cm         atomic.Pointer[autopaho.ConnectionManager]
}

// New creates a Publisher but does not connect. Call [Publisher.Start]
// to connect.
func New(cfg config.MQTTConfig, instanceID string, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{cfg: cfg, instanceID: instanceID, logger: logger}
}

// Start connects to the broker and blocks until ctx is cancelled. On
// every (re-)connect it publishes a retained "online" availability
// message; the broker publishes "offline" as the will.
func (p *Publisher) Start(ctx context.Context) error {
	brokerURL, err := url.Parse(p.cfg.Broker)
	if err != nil {
		return fmt.Errorf("parse mqtt broker URL: %w", err)
	}

	pahoCfg := autopaho.ClientConfig{
		ServerUrls:      []*url.URL{brokerURL},
		KeepAlive:       30,
		ConnectUsername: p.cfg.Username,
		ConnectPassword: []byte(p.cfg.Password),
		WillMessage: &paho.WillMessage{
			Topic:   p.AvailabilityTopic(),
			Payload: []byte("offline"),
			QoS:     1,
			Retain:  true,
		},
		OnConnectionUp: func(cm *autopaho.ConnectionManager, _ *paho.Connack) {
			p.logger.Info("mqtt connected to broker", "broker", p.cfg.Broker)
			p.publishAvailability(ctx, cm, "online")
		},
		OnConnectError: func(err error) {
			p.logger.Warn("mqtt connection error", "error", err)
		},
		ClientConfig: paho.ClientConfig{
			ClientID: p.clientID(),
		},
	}

	if brokerURL.Scheme == "mqtts" || brokerURL.Scheme == "ssl" {
		pahoCfg.TlsCfg = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	cm, err := autopaho.NewConnection(ctx, pahoCfg)
	if err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}
	p.cm.Store(cm)

	connCtx, connCancel := context.WithTimeout(ctx, 30*time.Second)
	defer connCancel()
	if err := cm.AwaitConnection(connCtx); err != nil {
		// autopaho keeps retrying in the background.
		p.logger.Warn("mqtt initial connection timed out, will retry in background", "error", err)
	}

	<-ctx.Done()
	return nil
}

// Stop publishes "offline" and disconnects.
func (p *Publisher) Stop(ctx context.Context) error {
	cm := p.cm.Load()
	if cm == nil {
		return nil
	}
	p.publishAvailability(ctx, cm, "offline")
	return cm.Disconnect(ctx)
}

// Notify publishes ev as JSON to the recipient's topic.
func (p *Publisher) Notify(ctx context.Context, ev Event) error {
	cm := p.cm.Load()
	if cm == nil {
		return ErrNotConnected
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	topic := p.EventTopic(ev)
	if _, err := cm.Publish(ctx, &paho.Publish{
		Topic:   topic,
		Payload: payload,
		QoS:     1,
	}); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	p.logger.Debug("mqtt event published", "topic", topic, "type", ev.Type)
	return nil
}

// AvailabilityTopic is where online/offline status is retained.
func (p *Publisher) AvailabilityTopic() string {
	return p.cfg.TopicPrefix + "/availability"
}

// EventTopic returns the topic an event is published to.
func (p *Publisher) EventTopic(ev Event) string {
	return p.cfg.TopicPrefix + "/users/" + ev.ToUserID + "/" + ev.Type
}

func (p *Publisher) clientID() string {
	if p.instanceID == "" {
		return p.cfg.ClientID
	}
	return p.cfg.ClientID + "-" + p.instanceID
}

func (p *Publisher) publishAvailability(ctx context.Context, cm *autopaho.ConnectionManager, status string) {
	if _, err := cm.Publish(ctx, &paho.Publish{
		Topic:   p.AvailabilityTopic(),
		Payload: []byte(status),
		QoS:     1,
		Retain:  true,
	}); err != nil {
		p.logger.Warn("mqtt availability publish failed", "status", status, "error", err)
	} else {
		p.logger.Info("mqtt availability published", "status", status)
	}
}
