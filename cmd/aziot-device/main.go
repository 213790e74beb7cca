// Command aziot-device is a reference Azure IoT device implementation.
//
// It connects a device to an IoT hub, either directly or through the
// Device Provisioning Service, and exposes an interactive console for
// sending telemetry and inspecting the connection.
//
// Usage:
//
//	aziot-device [flags]
//
// Flags:
//
//	-config string        Configuration file path (YAML)
//	-hub string           IoT hub FQDN for direct connections
//	-device-id string     Device identity for direct connections
//	-provision            Provision through DPS instead of connecting directly
//	-id-scope string      DPS ID scope
//	-registration-id string  DPS registration id
//	-key string           Base64 symmetric device key
//	-cert string          Device certificate file (PEM), enables X509 auth
//	-cert-key string      Device certificate key file (PEM)
//	-model-id string      IoT Plug and Play model id
//	-protocol-log string  Write the protocol event trace to this file (.alog)
//	-log-level string     Log level: debug, info, warn, error (default "info")
//	-buffer-size int      Credential buffer size in bytes (default 2048)
//	-simulate             Send synthetic telemetry while connected
//
// Examples:
//
//	# Connect directly to a hub with a symmetric key
//	aziot-device -hub contoso.azure-devices.net -device-id dev01 -key <base64 key>
//
//	# Provision through DPS with a protocol trace
//	aziot-device -provision -id-scope 0ne000FFA42 -registration-id dev01 \
//	    -key <base64 key> -protocol-log device.alog
//
//	# Connect with a device certificate
//	aziot-device -hub contoso.azure-devices.net -device-id dev01 \
//	    -cert device.pem -cert-key device.key
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aziot-protocol/aziot-go/cmd/aziot-device/interactive"
	"github.com/aziot-protocol/aziot-go/pkg/connection"
	"github.com/aziot-protocol/aziot-go/pkg/device"
	"github.com/aziot-protocol/aziot-go/pkg/log"
	"github.com/aziot-protocol/aziot-go/pkg/transport"
	"github.com/aziot-protocol/aziot-go/pkg/version"
)

// doWorkInterval is the state machine tick period.
const doWorkInterval = 100 * time.Millisecond

// Config holds the device configuration, merged from flags and an
// optional YAML file. Flags win over file values.
type Config struct {
	HubFQDN        string `yaml:"hub"`
	DeviceID       string `yaml:"deviceId"`
	Provision      bool   `yaml:"provision"`
	IDScope        string `yaml:"idScope"`
	RegistrationID string `yaml:"registrationId"`
	Key            string `yaml:"key"`
	CertFile       string `yaml:"certFile"`
	CertKeyFile    string `yaml:"certKeyFile"`
	ModelID        string `yaml:"modelId"`
	ProtocolLog    string `yaml:"protocolLog"`
	LogLevel       string `yaml:"logLevel"`
	BufferSize     int    `yaml:"bufferSize"`
	Simulate       bool   `yaml:"simulate"`
}

func main() {
	var configFile string
	var flagCfg Config

	flag.StringVar(&configFile, "config", "", "Configuration file path (YAML)")
	flag.StringVar(&flagCfg.HubFQDN, "hub", "", "IoT hub FQDN for direct connections")
	flag.StringVar(&flagCfg.DeviceID, "device-id", "", "Device identity for direct connections")
	flag.BoolVar(&flagCfg.Provision, "provision", false, "Provision through DPS instead of connecting directly")
	flag.StringVar(&flagCfg.IDScope, "id-scope", "", "DPS ID scope")
	flag.StringVar(&flagCfg.RegistrationID, "registration-id", "", "DPS registration id")
	flag.StringVar(&flagCfg.Key, "key", "", "Base64 symmetric device key")
	flag.StringVar(&flagCfg.CertFile, "cert", "", "Device certificate file (PEM)")
	flag.StringVar(&flagCfg.CertKeyFile, "cert-key", "", "Device certificate key file (PEM)")
	flag.StringVar(&flagCfg.ModelID, "model-id", "", "IoT Plug and Play model id")
	flag.StringVar(&flagCfg.ProtocolLog, "protocol-log", "", "Write the protocol event trace to this file")
	flag.StringVar(&flagCfg.LogLevel, "log-level", "info", "Log level: debug, info, warn, error")
	flag.IntVar(&flagCfg.BufferSize, "buffer-size", 2048, "Credential buffer size in bytes")
	flag.BoolVar(&flagCfg.Simulate, "simulate", false, "Send synthetic telemetry while connected")
	flag.Parse()

	cfg, err := loadConfig(configFile, flagCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.LogLevel)

	var protocolLogger log.Logger = log.NoopLogger{}
	if cfg.ProtocolLog != "" {
		fileLogger, err := log.NewFileLogger(cfg.ProtocolLog)
		if err != nil {
			logger.Error("failed to open protocol log", "path", cfg.ProtocolLog, "error", err)
			os.Exit(1)
		}
		defer fileLogger.Close()
		protocolLogger = fileLogger
	}

	console, err := interactive.New(logger)
	if err != nil {
		logger.Error("failed to start console", "error", err)
		os.Exit(1)
	}

	deviceCfg, err := buildDeviceConfig(cfg, logger, protocolLogger)
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	deviceCfg.Callbacks = console.Callbacks()

	client, err := device.NewClient(deviceCfg)
	if err != nil {
		logger.Error("failed to create client", "error", err)
		os.Exit(1)
	}
	console.SetClient(client)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	supervisor := connection.NewSupervisorWithConfig(
		runSession(client, logger),
		connection.SupervisorConfig{Logger: logger},
	)

	done := make(chan error, 1)
	go func() { done <- supervisor.Run(ctx) }()

	go console.Run(ctx, cancel)

	if cfg.Simulate {
		go runSimulation(ctx, client, logger)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("received signal, shutting down", "signal", sig.String())
		cancel()
		<-done
	case err := <-done:
		if err != nil && !errors.Is(err, connection.ErrSupervisorStopped) {
			logger.Error("connection supervisor stopped", "error", err)
			os.Exit(1)
		}
	}
}

// runSession returns the supervised session body: one Start-to-disconnect
// lifetime of the client. Returning an error makes the supervisor retry
// with backoff; returning nil stops it.
func runSession(client *device.Client, logger *slog.Logger) connection.SessionFunc {
	return func(ctx context.Context) error {
		if err := client.Start(); err != nil {
			return err
		}
		logger.Info("session started")

		ticker := time.NewTicker(doWorkInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				_ = client.Stop()
				return nil
			case <-ticker.C:
				if err := client.DoWork(); err != nil {
					logger.Error("client failed", "error", err)
					_ = client.Stop()
					return err
				}
				if client.Status() == device.StatusDisconnected {
					return errors.New("connection lost")
				}
			}
		}
	}
}

// runSimulation publishes a synthetic temperature reading every 10 seconds
// while the client is connected.
func runSimulation(ctx context.Context, client *device.Client, logger *slog.Logger) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	temperature := 21.0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if client.Status() != device.StatusConnected {
				continue
			}
			temperature += 0.1
			if temperature > 25 {
				temperature = 21.0
			}
			payload := fmt.Sprintf(`{"temperature":%.1f}`, temperature)
			if err := client.SendTelemetry([]byte(payload)); err != nil {
				logger.Warn("simulated telemetry failed", "error", err)
			}
		}
	}
}

func loadConfig(path string, flags Config) (Config, error) {
	cfg := flags
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	var fileCfg Config
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return cfg, fmt.Errorf("parsing %s: %w", path, err)
	}

	// File values fill in whatever the flags left unset.
	if cfg.HubFQDN == "" {
		cfg.HubFQDN = fileCfg.HubFQDN
	}
	if cfg.DeviceID == "" {
		cfg.DeviceID = fileCfg.DeviceID
	}
	if !cfg.Provision {
		cfg.Provision = fileCfg.Provision
	}
	if !cfg.Simulate {
		cfg.Simulate = fileCfg.Simulate
	}
	if cfg.IDScope == "" {
		cfg.IDScope = fileCfg.IDScope
	}
	if cfg.RegistrationID == "" {
		cfg.RegistrationID = fileCfg.RegistrationID
	}
	if cfg.Key == "" {
		cfg.Key = fileCfg.Key
	}
	if cfg.CertFile == "" {
		cfg.CertFile = fileCfg.CertFile
	}
	if cfg.CertKeyFile == "" {
		cfg.CertKeyFile = fileCfg.CertKeyFile
	}
	if cfg.ModelID == "" {
		cfg.ModelID = fileCfg.ModelID
	}
	if cfg.ProtocolLog == "" {
		cfg.ProtocolLog = fileCfg.ProtocolLog
	}
	if cfg.LogLevel == "info" && fileCfg.LogLevel != "" {
		cfg.LogLevel = fileCfg.LogLevel
	}
	if cfg.BufferSize == 2048 && fileCfg.BufferSize != 0 {
		cfg.BufferSize = fileCfg.BufferSize
	}
	return cfg, nil
}

func buildDeviceConfig(cfg Config, logger *slog.Logger, protocolLogger log.Logger) (device.Config, error) {
	deviceCfg := device.Config{
		UserAgent:         version.UserAgent(),
		UseProvisioning:   cfg.Provision,
		HubFQDN:           cfg.HubFQDN,
		DeviceID:          cfg.DeviceID,
		DPSIDScope:        cfg.IDScope,
		DPSRegistrationID: cfg.RegistrationID,
		DeviceKey:         cfg.Key,
		ModelID:           cfg.ModelID,
		DataBuffer:        make([]byte, cfg.BufferSize),
		Transport:         transport.NewPahoProvider(logger),
		Logger:            logger,
		ProtocolLogger:    protocolLogger,
	}

	if cfg.CertFile != "" {
		cert, err := os.ReadFile(cfg.CertFile)
		if err != nil {
			return deviceCfg, fmt.Errorf("reading certificate: %w", err)
		}
		key, err := os.ReadFile(cfg.CertKeyFile)
		if err != nil {
			return deviceCfg, fmt.Errorf("reading certificate key: %w", err)
		}
		deviceCfg.DeviceCertificate = cert
		deviceCfg.DeviceCertificateKey = key
	}

	return deviceCfg, nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
