// Package version exposes build identification for the module.
package version

// Version is the module version. Release builds override it with
// -ldflags "-X github.com/aziot-protocol/aziot-go/pkg/version.Version=...".
var Version = "1.0.0"

// UserAgent returns the DeviceClientType value announced to the hub.
func UserAgent() string {
	return "aziot-go/" + Version
}
