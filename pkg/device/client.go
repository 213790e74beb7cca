package device

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aziot-protocol/aziot-go/pkg/arena"
	"github.com/aziot-protocol/aziot-go/pkg/log"
	"github.com/aziot-protocol/aziot-go/pkg/provisioning"
	"github.com/aziot-protocol/aziot-go/pkg/sas"
	"github.com/aziot-protocol/aziot-go/pkg/transport"
	"github.com/aziot-protocol/aziot-go/pkg/wire"
)

// ErrProvisioningFailed is the fatal error recorded when DPS reports a
// terminal registration status.
var ErrProvisioningFailed = errors.New("device: provisioning failed")

// twinGetRequestID is the request id used for the initial twin snapshot.
const twinGetRequestID = 1

// subKind identifies one of the three hub subscriptions.
type subKind uint8

const (
	subCommands subKind = iota
	subProperties
	subWritableProperties
)

// Client is the device-side connection state machine. It is driven by
// DoWork calls from the host and by transport events, which may arrive on
// a different goroutine; a single mutex serializes both.
type Client struct {
	config Config
	crypto sas.Crypto
	clock  Clock
	plog   log.Logger

	mu       sync.Mutex
	state    state
	fatalErr error

	conn     transport.Conn
	connID   string
	endpoint log.Endpoint

	// buf holds every derived credential string. identityMark is the
	// position right after the assigned identity, so hub reconnects can
	// reclaim stale credentials without losing the assignment.
	buf          *arena.Arena
	identityMark int

	// Assignment learned from DPS, arena-backed.
	hubFQDN     []byte
	deviceID    []byte
	provisioned bool

	sasExpiry uint32

	dpsOperationID string
	dpsRetryAfter  uint32
	dpsLastQuery   uint32

	// subPackets maps in-flight SUBSCRIBE packet ids to their kind so
	// SUBACKs can be matched regardless of arrival order.
	subPackets map[uint16]subKind
}

var _ transport.EventSink = (*Client)(nil)

// NewClient creates a client from cfg. The configuration is validated but
// nothing touches the network until Start and DoWork.
func NewClient(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		config:     cfg,
		crypto:     cfg.Crypto,
		clock:      cfg.Clock,
		plog:       cfg.ProtocolLogger,
		buf:        arena.New(cfg.DataBuffer),
		state:      stateInitialized,
		subPackets: make(map[uint16]subKind),
	}
	if c.crypto == nil {
		c.crypto = sas.StdCrypto{}
	}
	if c.clock == nil {
		c.clock = func() uint32 { return uint32(time.Now().Unix()) }
	}
	if c.plog == nil {
		c.plog = log.NoopLogger{}
	}
	return c, nil
}

// Start moves the client into its working state. The next DoWork call
// begins provisioning or hub connection. A client in the error state must
// be stopped before it can be started again.
func (c *Client) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != stateInitialized {
		return fmt.Errorf("%w: state %s", ErrAlreadyStarted, c.state)
	}
	c.setState(stateStarted, "")
	return nil
}

// Stop disconnects and returns the client to the initialized state. A
// provisioning assignment already obtained is kept, so a later Start skips
// DPS. Stop clears a fatal error.
func (c *Client) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == stateNotInitialized || c.state == stateInitialized {
		return ErrNotStarted
	}
	c.teardownConn()
	c.fatalErr = nil
	c.dpsOperationID = ""
	c.setState(stateInitialized, "stopped")
	return nil
}

// Status reports the coarse connection status.
func (c *Client) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.status()
}

// DoWork advances the state machine by at most one step and never blocks
// on the network. Hosts call it on a short interval, 100ms or less. In the
// error state DoWork keeps returning the fatal error.
func (c *Client) DoWork() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case stateStarted:
		if c.config.UseProvisioning && !c.provisioned {
			return c.connectToDPS()
		}
		return c.connectToHub()
	case stateConnectedToDPS:
		return c.subscribeDPS()
	case stateSubscribedToDPS:
		return c.publishRegistration()
	case stateProvisioningQuerying:
		return c.publishOperationQuery()
	case stateProvisioned:
		return c.connectToHub()
	case stateConnectedToHub:
		return c.subscribeHub(subCommands, wire.CommandsFilter, stateSubscribingToCommands)
	case stateSubscribedToCommands:
		return c.subscribeHub(subProperties, wire.TwinResponsesFilter, stateSubscribingToProperties)
	case stateSubscribedToProperties:
		return c.subscribeHub(subWritableProperties, wire.WritablePropertiesFilter, stateSubscribingToWritableProperties)
	case stateReady:
		return c.refreshTokenIfStale()
	case stateRefreshingSAS:
		c.setState(stateProvisioned, "sas token refresh")
		return nil
	case stateError:
		return c.fatalErr
	default:
		// Waiting on a transport event or host action.
		return nil
	}
}

// connectToDPS derives the provisioning credentials and starts the DPS
// session.
func (c *Client) connectToDPS() error {
	c.buf.Reset()
	c.identityMark = 0

	username := wire.DPSUsername(c.config.DPSIDScope, c.config.DPSRegistrationID)
	password, err := c.generateToken(wire.DPSResourceURI(c.config.DPSIDScope, c.config.DPSRegistrationID))
	if err != nil {
		return c.fail(err, "generating dps sas token")
	}
	if username, password, err = c.chargeCredentials(username, password); err != nil {
		return c.fail(err, "allocating dps credentials")
	}

	return c.connect(transport.ConnectOptions{
		Host:     wire.DPSEndpoint,
		Port:     wire.MQTTPort,
		ClientID: c.config.DPSRegistrationID,
		Username: username,
		Password: password,
	}, log.EndpointDPS, stateConnectingToDPS)
}

// connectToHub derives the hub credentials and starts the hub session.
// Credentials from a previous session are reclaimed; the assigned identity
// stays.
func (c *Client) connectToHub() error {
	c.buf.ResetTo(c.identityMark)

	fqdn, deviceID := c.identity()
	username := wire.HubUsername(fqdn, deviceID, c.config.UserAgent, c.config.ModelID)
	password, err := c.generateToken(wire.HubResourceURI(fqdn, deviceID))
	if err != nil {
		return c.fail(err, "generating hub sas token")
	}
	if username, password, err = c.chargeCredentials(username, password); err != nil {
		return c.fail(err, "allocating hub credentials")
	}

	return c.connect(transport.ConnectOptions{
		Host:     fqdn,
		Port:     wire.MQTTPort,
		ClientID: deviceID,
		Username: username,
		Password: password,
	}, log.EndpointHub, stateConnectingToHub)
}

func (c *Client) connect(opts transport.ConnectOptions, endpoint log.Endpoint, next state) error {
	opts.Certificate = c.config.DeviceCertificate
	opts.CertificateKey = c.config.DeviceCertificateKey

	c.connID = uuid.NewString()
	c.endpoint = endpoint
	clear(c.subPackets)

	conn, err := c.config.Transport.Connect(opts, c)
	if err != nil {
		return c.fail(err, "starting mqtt connection")
	}
	c.conn = conn
	c.logPacket(log.DirectionOut, log.PacketEvent{Kind: log.PacketConnect})
	c.setState(next, "")
	return nil
}

func (c *Client) subscribeDPS() error {
	packetID, err := c.conn.Subscribe(wire.DPSResponsesFilter, wire.QoSAtMostOnce)
	if err != nil {
		return c.fail(err, "subscribing to dps responses")
	}
	c.logPacket(log.DirectionOut, log.PacketEvent{
		Kind: log.PacketSubscribe, Topic: wire.DPSResponsesFilter, PacketID: packetID,
	})
	c.setState(stateSubscribingToDPS, "")
	return nil
}

func (c *Client) publishRegistration() error {
	payload, err := provisioning.RegisterPayload(c.config.DPSRegistrationID, c.config.ModelID)
	if err != nil {
		return c.fail(err, "building registration request")
	}
	if err := c.publish(wire.DPSRegisterTopic(), payload, wire.QoSAtMostOnce); err != nil {
		return c.fail(err, "publishing registration request")
	}
	c.setState(stateProvisioningWaiting, "")
	return nil
}

// publishOperationQuery polls the pending registration operation, but only
// once the service-suggested delay has elapsed.
func (c *Client) publishOperationQuery() error {
	now := c.clock()
	if now-c.dpsLastQuery < c.dpsRetryAfter {
		return nil
	}
	topic := wire.DPSQueryTopic(c.dpsOperationID)
	if err := c.publish(topic, nil, wire.QoSAtMostOnce); err != nil {
		return c.fail(err, "publishing operation status query")
	}
	c.dpsLastQuery = now
	c.setState(stateProvisioningWaiting, "")
	return nil
}

func (c *Client) subscribeHub(kind subKind, filter string, next state) error {
	packetID, err := c.conn.Subscribe(filter, wire.QoSAtLeastOnce)
	if err != nil {
		return c.fail(err, "subscribing to "+filter)
	}
	c.subPackets[packetID] = kind
	c.logPacket(log.DirectionOut, log.PacketEvent{
		Kind: log.PacketSubscribe, Topic: filter, QoS: wire.QoSAtLeastOnce, PacketID: packetID,
	})
	c.setState(next, "")
	return nil
}

// refreshTokenIfStale drops the hub session when the SAS token nears
// expiry; the reconnect generates a fresh one. Certificate authentication
// never refreshes.
func (c *Client) refreshTokenIfStale() error {
	if c.config.usesCertificate() {
		return nil
	}
	if !sas.NeedsRefresh(c.clock(), c.sasExpiry) {
		return nil
	}
	c.debugLog("sas token near expiry, reconnecting")
	c.teardownConn()
	c.setState(stateRefreshingSAS, "sas token near expiry")
	return nil
}

// SendTelemetry publishes a device-to-cloud message. The client must be in
// the ready state.
func (c *Client) SendTelemetry(payload []byte) error {
	return c.SendTelemetryWithProperties(payload, nil)
}

// SendTelemetryWithProperties publishes a device-to-cloud message with
// application properties encoded into the topic.
func (c *Client) SendTelemetryWithProperties(payload []byte, properties map[string]string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != stateReady {
		return ErrNotConnected
	}
	_, deviceID := c.identity()
	topic := wire.TelemetryTopic(deviceID)
	if len(properties) > 0 {
		bag := make(url.Values, len(properties))
		for k, v := range properties {
			bag.Set(k, v)
		}
		topic += bag.Encode()
	}
	return c.publish(topic, payload, wire.QoSAtMostOnce)
}

// SendPropertiesUpdate publishes a reported-properties patch. The hub
// acknowledgement arrives through OnPropertiesUpdateCompleted carrying the
// same requestID.
func (c *Client) SendPropertiesUpdate(requestID uint32, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != stateReady {
		return ErrNotConnected
	}
	return c.publish(wire.ReportedPropertiesTopic(requestID), payload, wire.QoSAtMostOnce)
}

// SendCommandResponse answers a command received through
// OnCommandReceived. status follows HTTP conventions.
func (c *Client) SendCommandResponse(requestID string, status int, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != stateReady {
		return ErrNotConnected
	}
	return c.publish(wire.CommandResponseTopic(status, requestID), payload, wire.QoSAtMostOnce)
}

// OnMQTTConnected implements transport.EventSink.
func (c *Client) OnMQTTConnected() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.logPacket(log.DirectionIn, log.PacketEvent{Kind: log.PacketConnAck})
	switch c.state {
	case stateConnectingToDPS:
		c.setState(stateConnectedToDPS, "")
	case stateConnectingToHub:
		c.setState(stateConnectedToHub, "")
	}
}

// OnMQTTDisconnected implements transport.EventSink. A loss during
// provisioning is fatal, as is a transport-reported operation failure
// (err wrapping transport.ErrTransport) on the hub session; an ordinary
// loss of the hub session returns the client to initialized for the host
// to restart.
func (c *Client) OnMQTTDisconnected(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	reason := "connection lost"
	if err != nil {
		reason = err.Error()
	}
	c.logPacket(log.DirectionIn, log.PacketEvent{Kind: log.PacketDisconnect})

	switch {
	case c.state == stateError || c.state <= stateStarted:
		// Already down.
	case c.state == stateRefreshingSAS:
		c.setState(stateProvisioned, reason)
	case c.state.provisioningPhase():
		if err == nil {
			err = errors.New(reason)
		}
		_ = c.fail(err, "provisioning connection lost")
	case errors.Is(err, transport.ErrTransport):
		_ = c.fail(err, "hub transport failure")
	default:
		c.teardownConn()
		c.setState(stateInitialized, reason)
	}
}

// OnMQTTSubscribed implements transport.EventSink.
func (c *Client) OnMQTTSubscribed(packetID uint16) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.logPacket(log.DirectionIn, log.PacketEvent{Kind: log.PacketSubAck, PacketID: packetID})

	if c.state == stateSubscribingToDPS {
		c.setState(stateSubscribedToDPS, "")
		return
	}

	kind, ok := c.subPackets[packetID]
	if !ok {
		return
	}
	delete(c.subPackets, packetID)

	switch kind {
	case subCommands:
		c.setState(stateSubscribedToCommands, "")
	case subProperties:
		c.setState(stateSubscribedToProperties, "")
	case subWritableProperties:
		// All hub subscriptions granted. Request the twin snapshot so
		// the application starts from the current desired state.
		if err := c.publish(wire.TwinGetTopic(twinGetRequestID), nil, wire.QoSAtMostOnce); err != nil {
			_ = c.fail(err, "requesting twin snapshot")
			return
		}
		c.setState(stateReady, "")
	}
}

// OnMQTTPublished implements transport.EventSink.
func (c *Client) OnMQTTPublished(packetID uint16) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logPacket(log.DirectionIn, log.PacketEvent{Kind: log.PacketPubAck, PacketID: packetID})
}

// OnMQTTMessageReceived implements transport.EventSink.
func (c *Client) OnMQTTMessageReceived(msg transport.Message) {
	c.mu.Lock()

	c.logPacket(log.DirectionIn, log.PacketEvent{
		Kind: log.PacketMessage, Topic: msg.Topic, Size: len(msg.Payload),
	})

	var callback func()
	switch {
	case c.state == stateProvisioningWaiting:
		c.handleDPSResponse(msg)
	case c.state >= stateConnectedToHub && c.state <= stateReady:
		callback = c.handleHubMessage(msg)
	}

	c.mu.Unlock()
	if callback != nil {
		callback()
	}
}

// handleDPSResponse processes a registration or operation-status response.
// Called with the lock held.
func (c *Client) handleDPSResponse(msg transport.Message) {
	topicInfo, ok := wire.ParseDPSResponseTopic(msg.Topic)
	if !ok {
		return
	}
	resp, err := provisioning.ParseResponse(msg.Payload)
	if err != nil {
		_ = c.fail(err, "parsing provisioning response")
		return
	}

	c.plog.Log(c.event(log.DirectionIn, log.Event{
		Category: log.CategoryProvisioning,
		Provisioning: &log.ProvisioningEvent{
			OperationID:      resp.OperationID,
			Status:           resp.Status,
			RetryAfter:       topicInfo.RetryAfter,
			AssignedHub:      resp.RegistrationState.AssignedHub,
			AssignedDeviceID: resp.RegistrationState.DeviceID,
		},
	}))

	switch {
	case resp.Pending():
		c.dpsOperationID = resp.OperationID
		c.dpsRetryAfter = topicInfo.RetryAfter
		if c.dpsRetryAfter == 0 {
			c.dpsRetryAfter = provisioning.DefaultRetryAfterSeconds
		}
		c.dpsLastQuery = c.clock()
		c.setState(stateProvisioningQuerying, "")

	case resp.Assigned():
		// Provisioning credentials are no longer needed; reuse the
		// buffer for the assignment and the hub credentials.
		c.buf.Reset()
		fqdn, err := c.buf.CopyString(resp.RegistrationState.AssignedHub)
		if err != nil {
			_ = c.fail(err, "storing assigned hub")
			return
		}
		deviceID, err := c.buf.CopyString(resp.RegistrationState.DeviceID)
		if err != nil {
			_ = c.fail(err, "storing assigned device id")
			return
		}
		c.hubFQDN = fqdn
		c.deviceID = deviceID
		c.identityMark = c.buf.Mark()
		c.provisioned = true
		c.teardownConn()
		c.setState(stateProvisioned, "assigned to "+string(fqdn))

	default:
		_ = c.fail(fmt.Errorf("%w: status %q, operation %s",
			ErrProvisioningFailed, resp.Status, resp.OperationID), "provisioning")
	}
}

// handleHubMessage demultiplexes a hub message and returns the application
// callback to invoke, if any. Called with the lock held; the callback must
// be invoked after releasing it.
func (c *Client) handleHubMessage(msg transport.Message) func() {
	if cmd, ok := wire.ParseCommandTopic(msg.Topic); ok {
		hook := c.config.Callbacks.OnCommandReceived
		command := Command{
			Component: cmd.Component,
			Name:      cmd.Name,
			RequestID: cmd.RequestID,
			Payload:   msg.Payload,
		}
		return func() { hook(command) }
	}

	if wire.IsWritablePropertyTopic(msg.Topic) {
		hook := c.config.Callbacks.OnPropertiesReceived
		payload := msg.Payload
		return func() { hook(payload) }
	}

	if resp, ok := wire.ParseTwinResponseTopic(msg.Topic); ok {
		if resp.IsError() {
			c.logError(fmt.Errorf("twin request %s failed with status %d", resp.RequestID, resp.Status), "twin response")
			return nil
		}
		if len(msg.Payload) > 0 {
			hook := c.config.Callbacks.OnPropertiesReceived
			payload := msg.Payload
			return func() { hook(payload) }
		}
		requestID, err := strconv.ParseUint(resp.RequestID, 10, 32)
		if err != nil {
			return nil
		}
		hook := c.config.Callbacks.OnPropertiesUpdateCompleted
		status := resp.Status
		return func() { hook(uint32(requestID), status) }
	}

	return nil
}

// identity returns the hub FQDN and device id in effect: the DPS
// assignment when provisioned, the static configuration otherwise.
func (c *Client) identity() (string, string) {
	if c.provisioned {
		return string(c.hubFQDN), string(c.deviceID)
	}
	return c.config.HubFQDN, c.config.DeviceID
}

// generateToken returns a SAS token for resourceURI, or "" when the client
// authenticates with a certificate.
func (c *Client) generateToken(resourceURI string) (string, error) {
	if c.config.usesCertificate() {
		return "", nil
	}
	lifetime := c.config.SASTokenLifetimeMinutes
	if lifetime == 0 {
		lifetime = sas.DefaultLifetimeMinutes
	}
	expiry := c.clock() + lifetime*60
	token, err := sas.Generate(c.crypto, c.config.DeviceKey, resourceURI, expiry)
	if err != nil {
		return "", err
	}
	c.sasExpiry = expiry
	return token, nil
}

// chargeCredentials copies the derived credential strings into the data
// buffer so an undersized buffer fails deterministically before any
// network traffic.
func (c *Client) chargeCredentials(username, password string) (string, string, error) {
	u, err := c.buf.CopyString(username)
	if err != nil {
		return "", "", err
	}
	if password == "" {
		return string(u), "", nil
	}
	p, err := c.buf.CopyString(password)
	if err != nil {
		return "", "", err
	}
	return string(u), string(p), nil
}

// publish sends and logs one message. Called with the lock held.
func (c *Client) publish(topic string, payload []byte, qos byte) error {
	packetID, err := c.conn.Publish(topic, payload, qos)
	if err != nil {
		return fmt.Errorf("publishing to %s: %w", topic, err)
	}
	c.logPacket(log.DirectionOut, log.PacketEvent{
		Kind: log.PacketPublish, Topic: topic, Size: len(payload), QoS: qos, PacketID: packetID,
	})
	return nil
}

// fail records a fatal error, tears the connection down and enters the
// error state. It returns the recorded error. Called with the lock held.
func (c *Client) fail(err error, context string) error {
	c.fatalErr = fmt.Errorf("%s: %w", context, err)
	c.logError(err, context)
	c.teardownConn()
	c.setState(stateError, context)
	return c.fatalErr
}

// teardownConn disconnects and drops the current session, if any. Called
// with the lock held.
func (c *Client) teardownConn() {
	if c.conn == nil {
		return
	}
	_ = c.conn.Disconnect()
	c.conn = nil
	clear(c.subPackets)
}

// setState performs a logged state transition. Called with the lock held.
func (c *Client) setState(next state, reason string) {
	if next == c.state {
		return
	}
	prev := c.state
	c.state = next
	c.debugLog("state change", "from", prev.String(), "to", next.String(), "reason", reason)
	c.plog.Log(c.event(log.DirectionOut, log.Event{
		Category: log.CategoryState,
		StateChange: &log.StateChangeEvent{
			OldState: prev.String(),
			NewState: next.String(),
			Reason:   reason,
		},
	}))
}

func (c *Client) logPacket(direction log.Direction, packet log.PacketEvent) {
	c.plog.Log(c.event(direction, log.Event{
		Category: log.CategoryPacket,
		Packet:   &packet,
	}))
}

func (c *Client) logError(err error, context string) {
	c.debugLog("error", "context", context, "error", err)
	c.plog.Log(c.event(log.DirectionIn, log.Event{
		Category: log.CategoryError,
		Error:    &log.ErrorEventData{Message: err.Error(), Context: context},
	}))
}

// event fills the envelope fields shared by all protocol log events.
func (c *Client) event(direction log.Direction, e log.Event) log.Event {
	e.Timestamp = time.Now()
	e.ConnectionID = c.connID
	e.Direction = direction
	e.Endpoint = c.endpoint
	_, e.DeviceID = c.identity()
	return e
}

func (c *Client) debugLog(msg string, args ...any) {
	if c.config.Logger != nil {
		c.config.Logger.Debug(msg, args...)
	}
}
