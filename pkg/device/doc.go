// Package device implements the client side of Azure IoT device
// connectivity: zero-touch provisioning through the Device Provisioning
// Service, SAS token authentication with periodic refresh, and the MQTT
// conventions of IoT Hub telemetry, commands and twin properties.
//
// The client is a cooperative state machine. Hosts call DoWork on a short
// interval (100ms or less); every call performs at most one step and never
// blocks on the network. Transport completions arrive through the
// transport.EventSink methods the client implements. Application payloads
// are opaque bytes; only provisioning bodies are interpreted.
//
// A typical host:
//
//	client, err := device.NewClient(cfg)
//	...
//	if err := client.Start(); err != nil { ... }
//	for client.Status() != device.StatusError {
//		if err := client.DoWork(); err != nil { ... }
//		time.Sleep(100 * time.Millisecond)
//	}
//	client.Stop()
//
// A client that reaches StatusError stays there until the host calls Stop
// and Start again; pkg/connection provides a Supervisor that wraps this
// restart loop with exponential backoff.
package device
