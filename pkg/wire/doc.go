// Package wire defines the MQTT topic templates, credential formats and
// topic parsers of the Azure IoT Hub and Device Provisioning Service
// protocols.
//
// Everything in this package is a pure function over strings. It performs
// no I/O and keeps no state, so the device client can derive every topic
// and credential it needs without touching the network.
package wire
