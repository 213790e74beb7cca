// Package interactive provides the interactive command-line interface
// for the aziot-device command.
package interactive

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/chzyer/readline"

	"github.com/aziot-protocol/aziot-go/pkg/device"
)

// Console handles interactive mode for aziot-device.
type Console struct {
	rl     *readline.Instance
	logger *slog.Logger
	client *device.Client

	// nextRID numbers reported-property updates so acknowledgements can
	// be correlated in the output. Allocation starts at 2; rid 1 is
	// reserved for the client's twin snapshot request.
	nextRID atomic.Uint32
}

// New creates a new interactive console. The client is attached with
// SetClient once constructed.
func New(logger *slog.Logger) (*Console, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "device> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return &Console{rl: rl, logger: logger}, nil
}

// SetClient attaches the device client the console operates on.
func (c *Console) SetClient(client *device.Client) {
	c.client = client
}

// Callbacks returns the application hooks that render incoming traffic on
// the console.
func (c *Console) Callbacks() device.Callbacks {
	return device.Callbacks{
		OnCommandReceived: func(cmd device.Command) {
			name := cmd.Name
			if cmd.Component != "" {
				name = cmd.Component + "/" + cmd.Name
			}
			fmt.Fprintf(c.Stdout(), "<< command %s rid=%s payload=%s\n", name, cmd.RequestID, cmd.Payload)
			fmt.Fprintf(c.Stdout(), "   reply with: respond %s <status> [json]\n", cmd.RequestID)
		},
		OnPropertiesReceived: func(payload []byte) {
			fmt.Fprintf(c.Stdout(), "<< properties %s\n", payload)
		},
		OnPropertiesUpdateCompleted: func(requestID uint32, status int) {
			fmt.Fprintf(c.Stdout(), "<< properties update %d acknowledged with status %d\n", requestID, status)
		},
	}
}

// Stdout returns a writer that properly coordinates with the readline input.
// Use this for log output to avoid interfering with the command prompt.
func (c *Console) Stdout() io.Writer {
	return c.rl.Stdout()
}

// Run starts the interactive command loop.
func (c *Console) Run(ctx context.Context, cancel context.CancelFunc) {
	defer c.rl.Close()

	c.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := c.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(c.Stdout(), "Exiting...")
			cancel()
			return
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		parts := strings.Fields(input)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "help", "?":
			c.printHelp()

		case "status", "s":
			c.cmdStatus()

		case "telemetry", "t":
			c.cmdTelemetry(args)

		case "props", "p":
			c.cmdProps(args)

		case "respond":
			c.cmdRespond(args)

		case "quit", "exit", "q":
			fmt.Fprintln(c.Stdout(), "Exiting...")
			cancel()
			return

		default:
			fmt.Fprintf(c.Stdout(), "Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}
}

func (c *Console) printHelp() {
	fmt.Fprintln(c.Stdout(), `
Device Commands:
  status                      - Show connection status
  telemetry <json> [k=v ...]  - Send a telemetry message, optionally with properties
  props <json>                - Send a reported-properties update
  respond <rid> <status> [json] - Answer a received command
  help                        - Show this help
  quit                        - Exit`)
}

func (c *Console) cmdStatus() {
	fmt.Fprintf(c.Stdout(), "Status: %s\n", c.client.Status())
}

func (c *Console) cmdTelemetry(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(c.Stdout(), "Usage: telemetry <json> [key=value ...]")
		return
	}

	payload := []byte(args[0])
	var err error
	if len(args) > 1 {
		properties := make(map[string]string, len(args)-1)
		for _, arg := range args[1:] {
			key, value, ok := strings.Cut(arg, "=")
			if !ok {
				fmt.Fprintf(c.Stdout(), "Invalid property: %s (want key=value)\n", arg)
				return
			}
			properties[key] = value
		}
		err = c.client.SendTelemetryWithProperties(payload, properties)
	} else {
		err = c.client.SendTelemetry(payload)
	}

	if err != nil {
		fmt.Fprintf(c.Stdout(), "Send failed: %v\n", err)
		return
	}
	fmt.Fprintln(c.Stdout(), "Sent.")
}

func (c *Console) cmdProps(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(c.Stdout(), "Usage: props <json>")
		return
	}

	rid := c.allocRID()
	if err := c.client.SendPropertiesUpdate(rid, []byte(args[0])); err != nil {
		fmt.Fprintf(c.Stdout(), "Send failed: %v\n", err)
		return
	}
	fmt.Fprintf(c.Stdout(), "Sent update %d.\n", rid)
}

// allocRID returns the next reported-properties request id, starting at 2.
func (c *Console) allocRID() uint32 {
	return c.nextRID.Add(1) + 1
}

func (c *Console) cmdRespond(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(c.Stdout(), "Usage: respond <rid> <status> [json]")
		return
	}

	status, err := strconv.Atoi(args[1])
	if err != nil {
		fmt.Fprintf(c.Stdout(), "Invalid status: %s\n", args[1])
		return
	}
	var payload []byte
	if len(args) > 2 {
		payload = []byte(strings.Join(args[2:], " "))
	}

	if err := c.client.SendCommandResponse(args[0], status, payload); err != nil {
		fmt.Fprintf(c.Stdout(), "Send failed: %v\n", err)
		return
	}
	fmt.Fprintln(c.Stdout(), "Sent.")
}
