package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		Mode:      ModeClient,
		Host:      "example.com",
		Port:      5001,
		Protocol:  ProtocolTCP,
		Parallel:  1,
		Duration:  10 * time.Second,
		BufferLen: 128 * 1024,
		TOS:       TOSUnset,
		Interval:  time.Second,
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestValidateServerWithoutHost(t *testing.T) {
	cfg := validConfig()
	cfg.Mode = ModeServer
	cfg.Host = ""
	if err := cfg.Validate(); err != nil {
		t.Fatalf("server mode must not require a host, got %v", err)
	}
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"missing host", func(c *Config) { c.Host = "" }, "host is required"},
		{"bad mode", func(c *Config) { c.Mode = "relay" }, "mode must be"},
		{"bad port", func(c *Config) { c.Port = 0 }, "port must be"},
		{"bad protocol", func(c *Config) { c.Protocol = "sctp" }, "protocol must be"},
		{"zero parallel", func(c *Config) { c.Parallel = 0 }, "parallel must be"},
		{"negative rate", func(c *Config) { c.Rate = -1 }, "rate must be"},
		{"negative duration", func(c *Config) { c.Duration = -time.Second }, "duration must be"},
		{"negative total", func(c *Config) { c.TotalBytes = -1 }, "total bytes"},
		{"zero buffer", func(c *Config) { c.BufferLen = 0 }, "buffer length"},
		{"tos out of range", func(c *Config) { c.TOS = 300 }, "tos must be"},
		{"negative tx delay", func(c *Config) { c.TxDelay = -time.Millisecond }, "tx-delay"},
		{"dashboard with json", func(c *Config) { c.Dashboard = true; c.JSONOutput = true }, "mutually exclusive"},
		{"markov on server", func(c *Config) { c.Mode = ModeServer; c.Markov = "<64|1.0" }, "client mode only"},
		{"bad arrival model", func(c *Config) { c.Arrival.Model = "bursty" }, "arrival model"},
		{"bad sample rate", func(c *Config) { c.Tracing.SampleRate = 1.5 }, "sample_rate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}
}

func TestValidationErrorIssues(t *testing.T) {
	cfg := validConfig()
	cfg.Parallel = 0
	cfg.Port = 0

	err := cfg.Validate()
	verr, ok := err.(ValidationError)
	if !ok {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if len(verr.Issues()) != 2 {
		t.Fatalf("expected 2 issues, got %v", verr.Issues())
	}
}

func TestAddrAndNetwork(t *testing.T) {
	cfg := validConfig()
	if got := cfg.Addr(); got != "example.com:5001" {
		t.Errorf("Addr() = %q", got)
	}
	if got := cfg.Network(); got != "tcp" {
		t.Errorf("Network() = %q", got)
	}
	cfg.Protocol = ProtocolUDP
	if got := cfg.Network(); got != "udp" {
		t.Errorf("Network() = %q for udp config", got)
	}
}
