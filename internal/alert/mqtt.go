package alert

import (
	"context"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// DefaultTopic is the MQTT topic alerts are published to.
const DefaultTopic = "facemesh/alerts"

// MQTTConfig configures the broker connection.
type MQTTConfig struct {
	Broker         string
	Topic          string
	ClientID       string
	ConnectTimeout time.Duration
}

// MQTTSink publishes events as JSON with QoS 0.
type MQTTSink struct {
	client mqtt.Client
	topic  string
}

// NewMQTTSink connects to the broker and returns a sink publishing to
// cfg.Topic.
func NewMQTTSink(cfg MQTTConfig, log logrus.FieldLogger) (*MQTTSink, error) {
	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "facemesh-" + uuid.New().String()
	}
	connectTimeout := cfg.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 10 * time.Second
	}

	log = log.WithFields(logrus.Fields{"broker": cfg.Broker, "client_id": clientID})
	log.Info("connecting to MQTT")

	opts := mqtt.NewClientOptions().AddBroker(cfg.Broker).SetClientID(clientID)
	opts.SetKeepAlive(30 * time.Second)
	opts.SetPingTimeout(5 * time.Second)
	opts.SetConnectTimeout(connectTimeout)
	opts.SetAutoReconnect(true)
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		log.WithError(err).Warn("MQTT connection lost")
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("connect to %s: timeout after %s", cfg.Broker, connectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to %s: %w", cfg.Broker, err)
	}

	return newMQTTSink(client, cfg.Topic), nil
}

func newMQTTSink(client mqtt.Client, topic string) *MQTTSink {
	if topic == "" {
		topic = DefaultTopic
	}
	return &MQTTSink{client: client, topic: topic}
}

// Name implements Sink.
func (s *MQTTSink) Name() string {
	return "mqtt"
}

// Topic returns the publish topic.
func (s *MQTTSink) Topic() string {
	return s.topic
}

// Send publishes ev and waits for the token or ctx.
func (s *MQTTSink) Send(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	token := s.client.Publish(s.topic, 0, false, payload)
	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			return fmt.Errorf("publish %s: %w", s.topic, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("publish %s: %w", s.topic, ctx.Err())
	}
}

// Close disconnects from the broker.
func (s *MQTTSink) Close() {
	s.client.Disconnect(250)
}
