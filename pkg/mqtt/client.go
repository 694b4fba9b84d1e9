package mqtt

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/saaga0h/presence-platform/pkg/config"
)

// client wraps the paho client behind the Client interface. Subscriptions
// are remembered and replayed after every (re)connect: the broker forgets
// them on clean-session reconnects, and the evidence feed must survive
// broker restarts without operator intervention.
type client struct {
	paho   pahomqtt.Client
	broker string
	logger *slog.Logger

	mu   sync.Mutex
	subs map[string]subscription
}

type subscription struct {
	qos     byte
	handler MessageHandler
}

// NewClient builds an MQTT client from the service configuration
func NewClient(cfg *config.Config, logger *slog.Logger) Client {
	c := &client{
		broker: cfg.MQTTAddress(),
		logger: logger,
		subs:   make(map[string]subscription),
	}

	clientID := cfg.MQTTClientID
	if clientID == "" {
		clientID = fmt.Sprintf("%s-%d", cfg.ServiceName, time.Now().Unix())
	}

	opts := pahomqtt.NewClientOptions().
		AddBroker(c.broker).
		SetClientID(clientID).
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetMaxReconnectInterval(30 * time.Second)

	if cfg.MQTTUser != "" {
		opts.SetUsername(cfg.MQTTUser)
		opts.SetPassword(cfg.MQTTPassword)
	}

	opts.SetOnConnectHandler(func(pahomqtt.Client) {
		logger.Info("MQTT broker connected", "broker", c.broker)
		c.resubscribe()
	})
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		logger.Warn("MQTT broker connection lost", "broker", c.broker, "error", err)
	})

	c.paho = pahomqtt.NewClient(opts)
	return c
}

func (c *client) Connect(ctx context.Context) error {
	token := c.paho.Connect()
	select {
	case <-token.Done():
		if token.Error() != nil {
			return fmt.Errorf("failed to connect to MQTT broker %s: %w", c.broker, token.Error())
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("failed to connect to MQTT broker %s: %w", c.broker, ctx.Err())
	}
}

func (c *client) Disconnect() {
	c.paho.Disconnect(250)
}

// Subscribe registers the handler and subscribes. The registration outlives
// the connection; resubscribe replays it after a reconnect.
func (c *client) Subscribe(topic string, qos byte, handler MessageHandler) error {
	c.mu.Lock()
	c.subs[topic] = subscription{qos: qos, handler: handler}
	c.mu.Unlock()

	if err := c.subscribe(topic, qos, handler); err != nil {
		return err
	}
	c.logger.Info("Subscribed to MQTT topic", "topic", topic, "qos", qos)
	return nil
}

func (c *client) subscribe(topic string, qos byte, handler MessageHandler) error {
	token := c.paho.Subscribe(topic, qos, func(_ pahomqtt.Client, msg pahomqtt.Message) {
		handler(pahoMessage{msg})
	})
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("failed to subscribe to topic %s: %w", topic, token.Error())
	}
	return nil
}

func (c *client) resubscribe() {
	c.mu.Lock()
	subs := make(map[string]subscription, len(c.subs))
	for topic, sub := range c.subs {
		subs[topic] = sub
	}
	c.mu.Unlock()

	for topic, sub := range subs {
		if err := c.subscribe(topic, sub.qos, sub.handler); err != nil {
			c.logger.Error("Failed to restore MQTT subscription", "topic", topic, "error", err)
		}
	}
}

func (c *client) Publish(topic string, qos byte, retained bool, payload []byte) error {
	token := c.paho.Publish(topic, qos, retained, payload)
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("failed to publish to topic %s: %w", topic, token.Error())
	}
	return nil
}

func (c *client) IsConnected() bool {
	return c.paho.IsConnected()
}

// pahoMessage adapts a paho message to the Message interface
type pahoMessage struct {
	msg pahomqtt.Message
}

func (m pahoMessage) Topic() string   { return m.msg.Topic() }
func (m pahoMessage) Payload() []byte { return m.msg.Payload() }
func (m pahoMessage) Ack()            { m.msg.Ack() }
