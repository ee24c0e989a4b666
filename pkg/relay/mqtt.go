package relay

import (
	"dancavallaro.com/serialmon/pkg/serialmon"
	"encoding/json"
	"fmt"
	"github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"time"
)

type Logger interface {
	Println(v ...interface{})
	Printf(format string, v ...interface{})
}

type MQTTConfig struct {
	Username      string
	Password      string
	BrokerAddress string
	TopicPrefix   string
	Logger        Logger
	DebugLogger   Logger
}

func connect(cfg MQTTConfig) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.BrokerAddress)
	opts.SetClientID(generateClientId())
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)
	opts.SetKeepAlive(2 * time.Second)
	opts.SetPingTimeout(1 * time.Second)
	opts.SetOrderMatters(false)

	if cfg.Logger != nil {
		mqtt.ERROR = cfg.Logger
		mqtt.CRITICAL = cfg.Logger
		mqtt.WARN = cfg.Logger
	}
	if cfg.DebugLogger != nil {
		mqtt.DEBUG = cfg.DebugLogger
	}

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connect to %s: %w", cfg.BrokerAddress, token.Error())
	}
	return client, nil
}

func topicPrefix(cfg MQTTConfig) string {
	if cfg.TopicPrefix == "" {
		return DefaultTopicPrefix
	}
	return cfg.TopicPrefix
}

type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTTPublisher forwards monitored lines to a broker. Publishing never waits on
// the broker so the read loop is not held up by the network.
type MQTTPublisher struct {
	client publisher
	topic  string
	logger Logger
	close  func()
}

func NewMQTTPublisher(cfg MQTTConfig, device string) (*MQTTPublisher, error) {
	client, err := connect(cfg)
	if err != nil {
		return nil, err
	}
	pub := newMQTTPublisher(client, LineTopic(topicPrefix(cfg), device), cfg.Logger)
	pub.close = func() { client.Disconnect(1000) }
	return pub, nil
}

func newMQTTPublisher(client publisher, topic string, logger Logger) *MQTTPublisher {
	return &MQTTPublisher{client: client, topic: topic, logger: logger, close: func() {}}
}

func (pub *MQTTPublisher) Handle(rec serialmon.Record) {
	payload, err := json.Marshal(NewLineMessage(rec))
	if err != nil {
		pub.logf("Dropping line for %s: %v", pub.topic, err)
		return
	}
	token := pub.client.Publish(pub.topic, 0, false, payload)
	go func() {
		<-token.Done()
		if err := token.Error(); err != nil {
			pub.logf("Publish to %s failed: %v", pub.topic, err)
		}
	}()
}

func (pub *MQTTPublisher) Topic() string {
	return pub.topic
}

func (pub *MQTTPublisher) Close() {
	pub.close()
}

func (pub *MQTTPublisher) logf(format string, v ...interface{}) {
	if pub.logger != nil {
		pub.logger.Printf(format, v...)
	}
}

type MQTTListener struct {
	client mqtt.Client
	prefix string
}

func NewMQTTListener(cfg MQTTConfig) (*MQTTListener, error) {
	client, err := connect(cfg)
	if err != nil {
		return nil, err
	}
	return &MQTTListener{client: client, prefix: topicPrefix(cfg)}, nil
}

type LineHandler interface {
	Line(device string, msg LineMessage)
	Invalid(topic string, message string)
}

// RegisterHandler subscribes handler to the line topics of every device.
func (lis MQTTListener) RegisterHandler(handler LineHandler) error {
	token := lis.client.Subscribe(LineSubscription(lis.prefix), 0, func(_ mqtt.Client, msg mqtt.Message) {
		dispatch(handler, msg.Topic(), msg.Payload())
	})
	token.Wait()
	return token.Error()
}

func (lis MQTTListener) Close() {
	lis.client.Disconnect(1000)
}

func dispatch(handler LineHandler, topic string, payload []byte) {
	device, ok := DeviceFromTopic(topic)
	if !ok {
		handler.Invalid(topic, string(payload))
		return
	}
	msg, err := DecodeLineMessage(payload)
	if err != nil {
		handler.Invalid(topic, string(payload))
		return
	}
	handler.Line(device, msg)
}

func generateClientId() string {
	return fmt.Sprintf("serialmon-%s", uuid.NewString())
}
