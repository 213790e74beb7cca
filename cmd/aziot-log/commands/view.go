// Package commands implements the aziot-log CLI commands.
package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/aziot-protocol/aziot-go/pkg/log"
)

// ViewFilter specifies criteria for filtering events in the view command.
type ViewFilter struct {
	Direction *log.Direction
	Endpoint  *log.Endpoint
	Category  *log.Category
}

// RunView reads the log file and writes a human-readable rendering of each
// matching event to w.
func RunView(path string, filter ViewFilter, w io.Writer) error {
	logFilter := log.Filter{
		Direction: filter.Direction,
		Endpoint:  filter.Endpoint,
		Category:  filter.Category,
	}
	reader, err := log.NewFilteredReader(path, logFilter)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	count := 0
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		formatEvent(w, event)
		count++
	}

	fmt.Fprintf(w, "%d events\n", count)
	return nil
}

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event log.Event) {
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	connID := shortenConnID(event.ConnectionID)

	fmt.Fprintf(w, "%s [conn:%s] %-3s %-3s %s\n",
		ts, connID, event.Direction.String(), event.Endpoint.String(), typeLabel(event))

	switch {
	case event.Packet != nil:
		formatPacketDetails(w, event.Packet)
	case event.StateChange != nil:
		formatStateChangeDetails(w, event.StateChange)
	case event.Provisioning != nil:
		formatProvisioningDetails(w, event.Provisioning)
	case event.Error != nil:
		formatErrorDetails(w, event.Error)
	}

	fmt.Fprintln(w)
}

func typeLabel(event log.Event) string {
	switch {
	case event.Packet != nil:
		return event.Packet.Kind.String()
	case event.StateChange != nil:
		return "State"
	case event.Provisioning != nil:
		return "Provisioning"
	case event.Error != nil:
		return "Error"
	default:
		return "Unknown"
	}
}

// shortenConnID returns the first 8 characters of the connection ID.
func shortenConnID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

func formatPacketDetails(w io.Writer, packet *log.PacketEvent) {
	if packet.Topic != "" {
		fmt.Fprintf(w, "  Topic: %s\n", packet.Topic)
	}
	if packet.Size > 0 {
		fmt.Fprintf(w, "  Size: %d bytes\n", packet.Size)
	}
	if packet.PacketID != 0 {
		fmt.Fprintf(w, "  PacketID: %d (QoS %d)\n", packet.PacketID, packet.QoS)
	}
}

func formatStateChangeDetails(w io.Writer, sc *log.StateChangeEvent) {
	fmt.Fprintf(w, "  %s -> %s\n", sc.OldState, sc.NewState)
	if sc.Reason != "" {
		fmt.Fprintf(w, "  Reason: %s\n", sc.Reason)
	}
}

func formatProvisioningDetails(w io.Writer, p *log.ProvisioningEvent) {
	fmt.Fprintf(w, "  Status: %s\n", p.Status)
	if p.OperationID != "" {
		fmt.Fprintf(w, "  Operation: %s\n", p.OperationID)
	}
	if p.RetryAfter > 0 {
		fmt.Fprintf(w, "  RetryAfter: %ds\n", p.RetryAfter)
	}
	if p.AssignedHub != "" {
		fmt.Fprintf(w, "  Assigned: %s as %s\n", p.AssignedHub, p.AssignedDeviceID)
	}
}

func formatErrorDetails(w io.Writer, e *log.ErrorEventData) {
	fmt.Fprintf(w, "  Error: %s\n", e.Message)
	if e.Context != "" {
		fmt.Fprintf(w, "  Context: %s\n", e.Context)
	}
}

// ParseDirectionFlag converts a -direction flag value.
func ParseDirectionFlag(s string) (log.Direction, error) {
	switch strings.ToLower(s) {
	case "in":
		return log.DirectionIn, nil
	case "out":
		return log.DirectionOut, nil
	default:
		return 0, fmt.Errorf("unknown direction: %s (supported: in, out)", s)
	}
}

// ParseEndpointFlag converts an -endpoint flag value.
func ParseEndpointFlag(s string) (log.Endpoint, error) {
	switch strings.ToLower(s) {
	case "dps":
		return log.EndpointDPS, nil
	case "hub":
		return log.EndpointHub, nil
	default:
		return 0, fmt.Errorf("unknown endpoint: %s (supported: dps, hub)", s)
	}
}

// ParseCategoryFlag converts a -category flag value.
func ParseCategoryFlag(s string) (log.Category, error) {
	switch strings.ToLower(s) {
	case "packet":
		return log.CategoryPacket, nil
	case "state":
		return log.CategoryState, nil
	case "provisioning":
		return log.CategoryProvisioning, nil
	case "error":
		return log.CategoryError, nil
	default:
		return 0, fmt.Errorf("unknown category: %s (supported: packet, state, provisioning, error)", s)
	}
}
