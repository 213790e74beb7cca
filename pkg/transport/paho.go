package transport

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// disconnectQuiesce is how long Disconnect lets in-flight work drain.
const disconnectQuiesce = 100 // milliseconds

// PahoProvider implements Provider on top of Eclipse Paho.
//
// Automatic reconnection is disabled: the device state machine decides
// when and with which credentials to reconnect.
type PahoProvider struct {
	logger *slog.Logger
}

var _ Provider = (*PahoProvider)(nil)

// NewPahoProvider returns a provider. logger may be nil to disable debug
// logging.
func NewPahoProvider(logger *slog.Logger) *PahoProvider {
	return &PahoProvider{logger: logger}
}

// Connect implements Provider.
func (p *PahoProvider) Connect(opts ConnectOptions, sink EventSink) (Conn, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	tlsConfig, err := NewClientTLSConfig(opts)
	if err != nil {
		return nil, err
	}

	keepAlive := opts.KeepAlive
	if keepAlive == 0 {
		keepAlive = DefaultKeepAlive
	}

	conn := &pahoConn{logger: p.logger, sink: sink}

	clientOpts := mqtt.NewClientOptions().
		AddBroker(fmt.Sprintf("tls://%s:%d", opts.Host, opts.Port)).
		SetClientID(opts.ClientID).
		SetUsername(opts.Username).
		SetPassword(opts.Password).
		SetTLSConfig(tlsConfig).
		SetKeepAlive(keepAlive).
		SetCleanSession(true).
		SetAutoReconnect(false).
		SetConnectRetry(false).
		SetOnConnectHandler(func(mqtt.Client) {
			conn.deliver(func() { sink.OnMQTTConnected() })
		}).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			conn.deliver(func() { sink.OnMQTTDisconnected(err) })
		}).
		SetDefaultPublishHandler(func(_ mqtt.Client, msg mqtt.Message) {
			conn.deliver(func() {
				sink.OnMQTTMessageReceived(Message{Topic: msg.Topic(), Payload: msg.Payload()})
			})
		})

	conn.client = mqtt.NewClient(clientOpts)

	p.debugLog("mqtt connecting", "host", opts.Host, "clientID", opts.ClientID)
	token := conn.client.Connect()
	go func() {
		token.Wait()
		if err := token.Error(); err != nil {
			conn.deliver(func() {
				sink.OnMQTTDisconnected(fmt.Errorf("%w: connect: %w", ErrTransport, err))
			})
		}
	}()

	return conn, nil
}

func (p *PahoProvider) debugLog(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Debug(msg, args...)
	}
}

// pahoConn is one Paho session. Packet ids are synthesized locally so
// completion events can be correlated without relying on Paho internals.
type pahoConn struct {
	logger *slog.Logger
	sink   EventSink
	client mqtt.Client

	nextPacketID atomic.Uint32

	// closed gates event delivery after Disconnect. Suppression is best
	// effort: an event already past the check may still reach the sink
	// while Disconnect runs.
	closed atomic.Bool
}

var _ Conn = (*pahoConn)(nil)

// deliver runs fn unless the connection was closed. The sink may call
// back into the connection, so no lock is held across fn.
func (c *pahoConn) deliver(fn func()) {
	if c.closed.Load() {
		return
	}
	fn()
}

func (c *pahoConn) Disconnect() error {
	c.closed.Store(true)
	c.client.Disconnect(disconnectQuiesce)
	return nil
}

func (c *pahoConn) Subscribe(filter string, qos byte) (uint16, error) {
	packetID := c.allocPacketID()
	token := c.client.Subscribe(filter, qos, nil)
	go func() {
		token.Wait()
		if err := token.Error(); err != nil {
			c.deliver(func() {
				c.sink.OnMQTTDisconnected(fmt.Errorf("%w: subscribe %s: %w", ErrTransport, filter, err))
			})
			return
		}
		c.deliver(func() { c.sink.OnMQTTSubscribed(packetID) })
	}()
	return packetID, nil
}

func (c *pahoConn) Publish(topic string, payload []byte, qos byte) (uint16, error) {
	packetID := c.allocPacketID()
	token := c.client.Publish(topic, qos, false, payload)
	go func() {
		token.Wait()
		if err := token.Error(); err != nil {
			c.deliver(func() {
				c.sink.OnMQTTDisconnected(fmt.Errorf("%w: publish %s: %w", ErrTransport, topic, err))
			})
			return
		}
		c.deliver(func() { c.sink.OnMQTTPublished(packetID) })
	}()
	return packetID, nil
}

// allocPacketID returns a non-zero 16-bit id.
func (c *pahoConn) allocPacketID() uint16 {
	for {
		id := uint16(c.nextPacketID.Add(1))
		if id != 0 {
			return id
		}
	}
}
