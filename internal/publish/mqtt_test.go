package publish

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbehnke/lmrdecode/internal/bits"
	"github.com/dbehnke/lmrdecode/internal/protocol"
)

type fakeToken struct {
	err     error
	timeout bool
}

var closedDone = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

func (t *fakeToken) Wait() bool                     { return !t.timeout }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return !t.timeout }
func (t *fakeToken) Done() <-chan struct{}          { return closedDone }
func (t *fakeToken) Error() error                   { return t.err }

type published struct {
	topic   string
	qos     byte
	payload []byte
}

type fakeClient struct {
	mu    sync.Mutex
	sent  []published
	token *fakeToken
}

func (c *fakeClient) Publish(topic string, qos byte, _ bool, payload interface{}) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, published{topic, qos, payload.([]byte)})
	if c.token != nil {
		return c.token
	}
	return &fakeToken{}
}

type testMessage struct {
	protocol.Base
}

func (m *testMessage) Opcode() string { return "GROUP VOICE CHANNEL USER" }
func (m *testMessage) Vendor() string { return "STANDARD" }
func (m *testMessage) String() string { return "TG:3120 FROM:3125001" }
func (m *testMessage) Identifiers() []protocol.Identifier {
	return []protocol.Identifier{
		protocol.NewRadioID(protocol.ProtocolDMR, protocol.RoleFrom, 3125001),
		protocol.NewTalkgroupID(protocol.ProtocolDMR, protocol.RoleTo, 3120),
	}
}

func newTestMessage(valid bool) *testMessage {
	m := &testMessage{Base: protocol.NewBase(protocol.ProtocolDMR, bits.New(8), time.UnixMilli(1700000000123))}
	m.SetValid(valid)
	return m
}

type aliases map[int]string

func (a aliases) Alias(id protocol.Identifier) string {
	if r, ok := id.(protocol.RadioID); ok {
		return a[r.ID]
	}
	return ""
}

type countingObserver struct{ ok, failed int }

func (o *countingObserver) ObservePublish(err error) {
	if err != nil {
		o.failed++
		return
	}
	o.ok++
}

func TestPublish(t *testing.T) {
	client := &fakeClient{}
	observer := &countingObserver{}
	p := newPublisher(client, Config{TopicPrefix: "lmr", QoS: 1}, nil,
		WithAliaser(aliases{3125001: "N0CALL"}), WithObserver(observer))

	require.NoError(t, p.Publish(newTestMessage(true)))
	require.Len(t, client.sent, 1)
	assert.Equal(t, "lmr/dmr", client.sent[0].topic)
	assert.Equal(t, byte(1), client.sent[0].qos)
	assert.Equal(t, 1, observer.ok)

	var payload Payload
	require.NoError(t, json.Unmarshal(client.sent[0].payload, &payload))
	_, err := uuid.Parse(payload.ID)
	assert.NoError(t, err)
	assert.Equal(t, "DMR", payload.Protocol)
	assert.Equal(t, "GROUP VOICE CHANNEL USER", payload.Opcode)
	assert.True(t, payload.Valid)
	assert.Equal(t, int64(1700000000123), payload.Timestamp)
	assert.Equal(t, "TG:3120 FROM:3125001", payload.Summary)
	require.Len(t, payload.Identifiers, 2)
	assert.Equal(t, "FROM", payload.Identifiers[0].Role)
	assert.Equal(t, "RADIO", payload.Identifiers[0].Form)
	assert.Equal(t, "N0CALL", payload.Identifiers[0].Alias)
	assert.Equal(t, "", payload.Identifiers[1].Alias)
}

func TestPublishJSONKeys(t *testing.T) {
	client := &fakeClient{}
	require.NoError(t, newPublisher(client, Config{TopicPrefix: "x"}, nil).Publish(newTestMessage(false)))

	var raw map[string]any
	require.NoError(t, json.Unmarshal(client.sent[0].payload, &raw))
	for _, key := range []string{"id", "protocol", "opcode", "vendor", "valid", "residual", "timestamp", "identifiers", "summary"} {
		assert.Contains(t, raw, key)
	}
}

func TestPublishValidOnly(t *testing.T) {
	client := &fakeClient{}
	p := newPublisher(client, Config{TopicPrefix: "lmr", ValidOnly: true}, nil)
	require.NoError(t, p.Publish(newTestMessage(false)))
	assert.Empty(t, client.sent)
}

func TestPublishErrors(t *testing.T) {
	tests := []struct {
		name  string
		token *fakeToken
		want  error
	}{
		{"timeout", &fakeToken{timeout: true}, ErrPublishTimeout},
		{"broker error", &fakeToken{err: errors.New("not authorized")}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			observer := &countingObserver{}
			p := newPublisher(&fakeClient{token: tt.token}, Config{TopicPrefix: "lmr"}, nil, WithObserver(observer))
			err := p.Publish(newTestMessage(true))
			require.Error(t, err)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
			}
			assert.Equal(t, 1, observer.failed)
		})
	}
}

func TestTopic(t *testing.T) {
	p := newPublisher(&fakeClient{}, Config{TopicPrefix: "sites/north"}, nil)
	assert.Equal(t, "sites/north/dmr", p.Topic(protocol.ProtocolDMR))
	assert.Equal(t, "sites/north/p25", p.Topic(protocol.ProtocolP25))
	assert.Equal(t, "sites/north/nxdn", p.Topic(protocol.ProtocolNXDN))
}
