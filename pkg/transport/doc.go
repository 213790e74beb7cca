// Package transport defines the MQTT transport contract the device client
// drives, and an implementation of it backed by Eclipse Paho.
//
// The device state machine never blocks on the network. Every operation on
// a Conn starts asynchronously and completes through the EventSink: a
// successful Connect surfaces as OnMQTTConnected, a granted subscription as
// OnMQTTSubscribed, and so on.
//
// # Protocol Stack
//
//	┌────────────────────────────────┐
//	│     MQTT 3.1.1 (client)        │
//	├────────────────────────────────┤
//	│     TLS 1.2+ (server auth,     │
//	│     optional client cert)      │
//	├────────────────────────────────┤
//	│           TCP :8883            │
//	└────────────────────────────────┘
//
// Hosts with their own MQTT stack implement Provider and Conn themselves;
// everyone else uses NewPahoProvider.
package transport
