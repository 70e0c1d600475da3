package publish

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/dbehnke/lmrdecode/internal/protocol"
)

var ErrPublishTimeout = errors.New("mqtt publish timed out")

// Config configures the broker connection and what gets published.
type Config struct {
	Broker      string
	Username    string
	Password    string
	TopicPrefix string
	QoS         byte
	ValidOnly   bool
	Timeout     time.Duration
}

// Aliaser names identifiers, for example from the radio user database. An
// empty result means no alias is known.
type Aliaser interface {
	Alias(id protocol.Identifier) string
}

// Observer is told the outcome of each publish.
type Observer interface {
	ObservePublish(err error)
}

// Identifier is the JSON form of a protocol.Identifier.
type Identifier struct {
	Role  string `json:"role"`
	Form  string `json:"form"`
	Value string `json:"value"`
	Alias string `json:"alias,omitempty"`
}

// Payload is the JSON document published for each message.
type Payload struct {
	ID          string       `json:"id"`
	Protocol    string       `json:"protocol"`
	Opcode      string       `json:"opcode"`
	Vendor      string       `json:"vendor"`
	Valid       bool         `json:"valid"`
	Residual    int          `json:"residual"`
	Timestamp   int64        `json:"timestamp"`
	Identifiers []Identifier `json:"identifiers"`
	Summary     string       `json:"summary"`
}

// publisher is the part of mqtt.Client the Publisher uses.
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// Publisher sends decoded messages to an MQTT broker as JSON.
type Publisher struct {
	client   publisher
	config   Config
	logger   *log.Logger
	aliases  Aliaser
	observer Observer
	close    func()
}

// Option configures a Publisher.
type Option func(*Publisher)

func WithAliaser(a Aliaser) Option   { return func(p *Publisher) { p.aliases = a } }
func WithObserver(o Observer) Option { return func(p *Publisher) { p.observer = o } }

// Connect dials the broker. The client reconnects on its own after the
// first connection succeeds.
func Connect(config Config, logger *log.Logger, opts ...Option) (*Publisher, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	clientOpts := mqtt.NewClientOptions()
	clientOpts.AddBroker(config.Broker)
	clientOpts.SetClientID("lmrdecode_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
	if config.Username != "" {
		clientOpts.SetUsername(config.Username)
	}
	if config.Password != "" {
		clientOpts.SetPassword(config.Password)
	}
	clientOpts.SetAutoReconnect(true)
	clientOpts.SetConnectRetry(true)
	clientOpts.SetConnectRetryInterval(10 * time.Second)
	clientOpts.SetKeepAlive(60 * time.Second)
	clientOpts.SetPingTimeout(10 * time.Second)

	clientOpts.SetOnConnectHandler(func(mqtt.Client) {
		logger.Info("MQTT connected", "broker", config.Broker)
	})
	clientOpts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.Warn("MQTT connection lost", "err", err)
	})
	clientOpts.SetReconnectingHandler(func(mqtt.Client, *mqtt.ClientOptions) {
		logger.Info("MQTT reconnecting")
	})

	client := mqtt.NewClient(clientOpts)
	token := client.Connect()
	if !token.WaitTimeout(timeout(config)) {
		return nil, fmt.Errorf("connect to MQTT broker %s: %w", config.Broker, ErrPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to MQTT broker %s: %w", config.Broker, err)
	}

	p := newPublisher(client, config, logger, opts...)
	p.close = func() { client.Disconnect(250) }
	return p, nil
}

func newPublisher(client publisher, config Config, logger *log.Logger, opts ...Option) *Publisher {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	p := &Publisher{client: client, config: config, logger: logger, close: func() {}}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func timeout(config Config) time.Duration {
	if config.Timeout <= 0 {
		return 5 * time.Second
	}
	return config.Timeout
}

// Topic is the topic a message of protocol p is published on.
func (p *Publisher) Topic(proto protocol.Protocol) string {
	return p.config.TopicPrefix + "/" + strings.ToLower(proto.String())
}

// NewPayload builds the JSON document for msg.
func (p *Publisher) NewPayload(msg protocol.Message) Payload {
	ids := msg.Identifiers()
	payload := Payload{
		ID:          uuid.NewString(),
		Protocol:    msg.Protocol().String(),
		Opcode:      msg.Opcode(),
		Vendor:      msg.Vendor(),
		Valid:       msg.Valid(),
		Residual:    msg.Residual(),
		Timestamp:   msg.Timestamp().UnixMilli(),
		Identifiers: make([]Identifier, 0, len(ids)),
		Summary:     msg.String(),
	}
	for _, id := range ids {
		out := Identifier{Role: id.Role().String(), Form: id.Form().String(), Value: id.String()}
		if p.aliases != nil {
			out.Alias = p.aliases.Alias(id)
		}
		payload.Identifiers = append(payload.Identifiers, out)
	}
	return payload
}

// Publish sends msg and waits for the broker to accept it. Messages that
// failed their checks are skipped when the publisher is valid only.
func (p *Publisher) Publish(msg protocol.Message) error {
	if p.config.ValidOnly && !msg.Valid() {
		return nil
	}
	data, err := json.Marshal(p.NewPayload(msg))
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", msg.Opcode(), err)
	}

	token := p.client.Publish(p.Topic(msg.Protocol()), p.config.QoS, false, data)
	switch {
	case !token.WaitTimeout(timeout(p.config)):
		err = ErrPublishTimeout
	case token.Error() != nil:
		err = fmt.Errorf("publish %s: %w", msg.Opcode(), token.Error())
	}
	if p.observer != nil {
		p.observer.ObservePublish(err)
	}
	if err != nil {
		p.logger.Debug("MQTT publish failed", "opcode", msg.Opcode(), "err", err)
	}
	return err
}

// Close disconnects from the broker.
func (p *Publisher) Close() {
	p.close()
}
