package config

import (
	"fmt"
	"strings"
	"time"
)

type Protocol string

const (
	ProtocolTCP Protocol = "tcp"
	ProtocolUDP Protocol = "udp"
)

type Mode string

const (
	ModeClient Mode = "client"
	ModeServer Mode = "server"
)

type Config struct {
	Mode       Mode          `mapstructure:"mode"`
	Host       string        `mapstructure:"host"`
	Port       int           `mapstructure:"port"`
	Protocol   Protocol      `mapstructure:"protocol"`
	Parallel   int           `mapstructure:"parallel"`
	Duration   time.Duration `mapstructure:"duration"`
	TotalBytes int64         `mapstructure:"total_bytes"`
	BufferLen  int           `mapstructure:"buffer_len"`
	Markov     string        `mapstructure:"markov"`
	MarkovSeed int64         `mapstructure:"markov_seed"`
	TOS        int           `mapstructure:"tos"`
	TxDelay    time.Duration `mapstructure:"tx_delay"`
	Rate       int           `mapstructure:"rate"`
	Interval   time.Duration `mapstructure:"interval"`
	Timeout    time.Duration `mapstructure:"timeout"`
	JSONOutput bool          `mapstructure:"json_output"`
	Dashboard  bool          `mapstructure:"dashboard"`
	LogErrors  bool          `mapstructure:"log_errors"`
	ConfigFile string        `mapstructure:"-"`
	Arrival    ArrivalConfig `mapstructure:"arrival"`
	Tracing    TracingConfig `mapstructure:"tracing"`
}

type ArrivalModel string

const (
	ArrivalModelUniform ArrivalModel = "uniform"
	ArrivalModelPoisson ArrivalModel = "poisson"
)

type ArrivalConfig struct {
	Model ArrivalModel `mapstructure:"model"`
}

type TracingConfig struct {
	ServiceName string  `mapstructure:"service_name"`
	Endpoint    string  `mapstructure:"endpoint"`
	Protocol    string  `mapstructure:"protocol"`
	Insecure    bool    `mapstructure:"insecure"`
	SampleRate  float64 `mapstructure:"sample_rate"`
	Enable      bool    `mapstructure:"enabled"`
}

// Enabled reports whether tracing should be initialized at all. Setting an
// endpoint implies enablement.
func (t TracingConfig) Enabled() bool {
	return t.Enable || t.Endpoint != ""
}

// TOSUnset leaves the type-of-service control entry out of sends.
const TOSUnset = -1

type ValidationError struct {
	issues []string
}

func (e ValidationError) Error() string {
	if len(e.issues) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(e.issues, "; "))
}

func (e ValidationError) Issues() []string {
	return append([]string(nil), e.issues...)
}

func (c Config) Validate() error {
	var issues []string

	switch c.Mode {
	case ModeClient:
		if strings.TrimSpace(c.Host) == "" {
			issues = append(issues, "host is required in client mode (use --help for usage information)")
		}
	case ModeServer:
		// Listens on all interfaces when host is empty.
	default:
		issues = append(issues, fmt.Sprintf("mode must be %q or %q, got %q", ModeClient, ModeServer, c.Mode))
	}

	if c.Port < 1 || c.Port > 65535 {
		issues = append(issues, "port must be in 1..65535")
	}

	switch c.Protocol {
	case ProtocolTCP, ProtocolUDP, "":
	default:
		issues = append(issues, fmt.Sprintf("protocol must be 'tcp' or 'udp', got %q", c.Protocol))
	}

	if c.Parallel < 1 {
		issues = append(issues, "parallel must be >= 1")
	}
	if c.Rate < 0 {
		issues = append(issues, "rate must be >= 0")
	}
	if c.Duration < 0 {
		issues = append(issues, "duration must be >= 0")
	}
	if c.TotalBytes < 0 {
		issues = append(issues, "total bytes must be >= 0")
	}
	if c.BufferLen < 1 {
		issues = append(issues, "buffer length must be >= 1")
	}
	if c.TOS != TOSUnset && (c.TOS < 0 || c.TOS > 255) {
		issues = append(issues, "tos must be in 0..255")
	}
	if c.TxDelay < 0 {
		issues = append(issues, "tx-delay must be >= 0")
	}
	if c.Interval < 0 {
		issues = append(issues, "interval must be >= 0")
	}
	if c.Timeout < 0 {
		issues = append(issues, "timeout must be >= 0")
	}
	if c.Dashboard && c.JSONOutput {
		issues = append(issues, "dashboard and json-output are mutually exclusive")
	}
	if c.Mode == ModeServer && strings.TrimSpace(c.Markov) != "" {
		issues = append(issues, "markov traffic models apply to client mode only")
	}

	arrivalIssues := validateArrivalConfig(c.Arrival)
	if len(arrivalIssues) > 0 {
		issues = append(issues, arrivalIssues...)
	}

	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1.0 {
		issues = append(issues, "tracing sample_rate must be between 0.0 and 1.0")
	}

	if len(issues) > 0 {
		return ValidationError{issues: issues}
	}

	return nil
}

func validateArrivalConfig(arr ArrivalConfig) []string {
	model := arr.Model
	if model == "" {
		model = ArrivalModelUniform
	}
	switch model {
	case ArrivalModelUniform, ArrivalModelPoisson:
		return nil
	default:
		return []string{fmt.Sprintf("arrival model %q is not supported", model)}
	}
}

// Addr renders the host:port pair to dial or listen on.
func (c Config) Addr() string {
	host := strings.TrimSpace(c.Host)
	return fmt.Sprintf("%s:%d", host, c.Port)
}

// Network returns the net package network name for the configured protocol.
func (c Config) Network() string {
	if c.Protocol == ProtocolUDP {
		return "udp"
	}
	return "tcp"
}
