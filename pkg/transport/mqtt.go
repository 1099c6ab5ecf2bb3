package transport

import (
	"context"
	"fmt"
	"strconv"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/gomathyk/sinkmux/pkg/options"
)

const (
	// KindMQTT publishes to MQTT topics over one Paho client. Each
	// destination is a topic on the same broker.
	KindMQTT = "mqtt"

	mqttOptionBrokerURL = "broker.url"
	mqttOptionClientID  = "client.id"
	mqttOptionQoS       = "qos"
	mqttOptionTopic     = "topic"

	mqttDisconnectQuiesceMillis = 250
)

type mqttTransport struct {
	brokerURL string
	clientID  string
	qos       byte
	client    mqtt.Client
	counter   deliveryCounter
	log       Logger
}

func newMQTTTransport(log Logger) Transport {
	return &mqttTransport{log: ensureLogger(log)}
}

func (m *mqttTransport) Initialize(_ context.Context, schema StreamSchema, resolved *options.OptionHolder) error {
	broker, err := requiredStatic(resolved, mqttOptionBrokerURL)
	if err != nil {
		return err
	}
	m.brokerURL = broker

	m.clientID, _ = resolved.Static(mqttOptionClientID)
	if m.clientID == "" {
		m.clientID = "sinkmux-" + schema.ID
	}

	if raw, ok := resolved.Static(mqttOptionQoS); ok && raw != "" {
		qos, err := strconv.Atoi(raw)
		if err != nil || qos < 0 || qos > 2 {
			return &options.ConfigError{Reason: fmt.Sprintf("option %q must be 0, 1 or 2, got %q", mqttOptionQoS, raw)}
		}
		m.qos = byte(qos)
	}
	return nil
}

func (m *mqttTransport) Connect(_ context.Context) error {
	clientOpts := mqtt.NewClientOptions().
		AddBroker(m.brokerURL).
		SetClientID(m.clientID).
		SetAutoReconnect(false)

	client := mqtt.NewClient(clientOpts)
	token := client.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return connectionUnavailable(fmt.Sprintf("connect to mqtt broker %s", m.brokerURL), err)
	}

	m.client = client
	m.log.DebugObj("mqtt transport connected", "broker", m.brokerURL)
	return nil
}

func (m *mqttTransport) Publish(_ context.Context, payload []byte, opts *options.PublishContext) error {
	if m.client == nil || !m.client.IsConnected() {
		return fmt.Errorf("mqtt publish: %w", ErrConnectionUnavailable)
	}

	topic, err := dynamicValue(opts, mqttOptionTopic)
	if err != nil {
		return err
	}

	token := m.client.Publish(topic, m.qos, false, payload)
	token.Wait()
	if err := token.Error(); err != nil {
		return connectionUnavailable(fmt.Sprintf("publish to mqtt topic %s", topic), err)
	}
	m.counter.record(opts.SelectedDestination())
	return nil
}

func (m *mqttTransport) Disconnect() error {
	if m.client != nil {
		m.client.Disconnect(mqttDisconnectQuiesceMillis)
		m.client = nil
	}
	return nil
}

func (m *mqttTransport) Destroy() error {
	return m.Disconnect()
}

func (m *mqttTransport) SupportedDynamicOptions() []string {
	return []string{mqttOptionTopic}
}

func (m *mqttTransport) SnapshotState() map[string]any {
	return m.counter.snapshot()
}

func (m *mqttTransport) RestoreState(state map[string]any) error {
	return m.counter.restore(state)
}
