package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

// MQTTConfig holds broker settings.
type MQTTConfig struct {
	Broker   string
	ClientID string
	Username string
	Password string
	// Topic may contain {label}, replaced per event.
	Topic string
}

// MQTTPublisher publishes diagnosis events with QoS 1.
type MQTTPublisher struct {
	client mqtt.Client
	topic  string
	logger *zap.Logger
}

// ConnectMQTT dials the broker and returns a publisher on top of it.
func ConnectMQTT(ctx context.Context, cfg MQTTConfig, logger *zap.Logger) (*MQTTPublisher, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectTimeout(10 * time.Second)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.Warn("mqtt connection lost", zap.Error(err))
	})

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if err := waitToken(ctx, token); err != nil {
		return nil, fmt.Errorf("connect to mqtt broker %s: %w", cfg.Broker, err)
	}
	logger.Info("connected to mqtt broker", zap.String("broker", cfg.Broker))

	return NewMQTTPublisher(client, cfg.Topic, logger), nil
}

// NewMQTTPublisher publishes through an already connected client.
func NewMQTTPublisher(client mqtt.Client, topic string, logger *zap.Logger) *MQTTPublisher {
	return &MQTTPublisher{
		client: client,
		topic:  topic,
		logger: logger.Named("mqtt_publisher"),
	}
}

// Publish sends event and waits for the broker acknowledgement or ctx.
func (p *MQTTPublisher) Publish(ctx context.Context, event Diagnosis) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal diagnosis event: %w", err)
	}

	topic := formatTopic(p.topic, event.Label)
	if err := waitToken(ctx, p.client.Publish(topic, 1, false, payload)); err != nil {
		return fmt.Errorf("publish diagnosis event: %w", err)
	}

	p.logger.Debug("diagnosis event published", zap.String("topic", topic), zap.String("upload_id", event.UploadID))
	return nil
}

// Close disconnects from the broker, allowing in-flight messages 250ms.
func (p *MQTTPublisher) Close() {
	p.client.Disconnect(250)
}

// formatTopic substitutes {label}. MQTT wildcards and separators in the
// label are replaced so one label always maps to one topic level.
func formatTopic(pattern, label string) string {
	safe := strings.NewReplacer("/", "_", "+", "_", "#", "_").Replace(label)
	return strings.ReplaceAll(pattern, "{label}", safe)
}

func waitToken(ctx context.Context, token mqtt.Token) error {
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}
