package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// RegisterFlags registers all CLI flags to a cobra command.
func RegisterFlags(cmd *cobra.Command) {
	configureFlags(cmd.Flags())
}

// newFlagCommand creates a cobra command with all flags configured.
func newFlagCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "iperfmir",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cmd.SetOut(os.Stdout)
	configureFlags(cmd.Flags())
	return cmd
}

// configureFlags sets up all CLI flags on the provided flag set.
func configureFlags(flags *pflag.FlagSet) {
	// Role flags
	flags.BoolP("server", "s", false, "Run in server mode (receive)")
	flags.StringP("client", "c", "", "Run in client mode, connecting to the given host")
	flags.IntP("port", "p", 5001, "Server port to listen on or connect to")
	flags.BoolP("udp", "u", false, "Use UDP instead of TCP")

	// Traffic control flags
	flags.IntP("parallel", "P", 1, "Number of parallel streams")
	flags.DurationP("time", "t", 10*time.Second, "How long to transmit (e.g. 30s, 1m)")
	flags.StringP("num", "n", "", "Total bytes to transmit per stream, with optional K/M/G suffix (overrides --time)")
	flags.StringP("len", "l", "128K", "Read/write buffer length, with optional K/M/G suffix")
	flags.IntP("rate", "r", 0, "Write operations per second limit (0 means unpaced)")
	flags.String("arrival-model", string(ArrivalModelUniform), "Pacing model for writes (uniform or poisson)")

	// Scheduling and marking flags
	flags.String("markov", "", "Markov traffic model, e.g. '<1470|1.0<64000|0.5,0.5'")
	flags.Int64("markov-seed", 0, "Seed for the traffic model sampler (0 seeds from the clock)")
	flags.Int("tos", TOSUnset, "IP type-of-service byte to attach to sends (0-255)")
	flags.Duration("tx-delay", 0, "Per-packet transmit offset applied via socket scheduling")

	// Output flags
	flags.DurationP("interval", "i", time.Second, "Interval between periodic throughput reports (0 disables)")
	flags.Duration("timeout", 30*time.Second, "Socket send/receive timeout")
	flags.Bool("json-output", false, "Emit JSON formatted output")
	flags.Bool("dashboard", false, "Show live terminal dashboard with metrics")
	flags.Bool("log-errors", false, "Log each failed operation to stderr")
	flags.String("config", "", "Path to configuration file (JSON or YAML)")
}

// displayHelp prints the help message for a command.
func displayHelp(cmd *cobra.Command) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Usage: %s\n\nFlags:\n", cmd.UseLine())
	fs := cmd.Flags()
	fs.SetOutput(out)
	fs.PrintDefaults()
}

// applyFlagOverrides applies command-line flag values to the config, overriding
// values from the config file.
func applyFlagOverrides(cfg *Config, fs *pflag.FlagSet) error {
	if fs.Changed("server") {
		val, err := fs.GetBool("server")
		if err != nil {
			return err
		}
		if val {
			cfg.Mode = ModeServer
		}
	}
	if fs.Changed("client") {
		val, err := fs.GetString("client")
		if err != nil {
			return err
		}
		cfg.Mode = ModeClient
		cfg.Host = strings.TrimSpace(val)
	}
	if fs.Changed("port") {
		val, err := fs.GetInt("port")
		if err != nil {
			return err
		}
		cfg.Port = val
	}
	if fs.Changed("udp") {
		val, err := fs.GetBool("udp")
		if err != nil {
			return err
		}
		if val {
			cfg.Protocol = ProtocolUDP
		}
	}
	if fs.Changed("parallel") {
		val, err := fs.GetInt("parallel")
		if err != nil {
			return err
		}
		cfg.Parallel = val
	}
	if fs.Changed("time") {
		val, err := fs.GetDuration("time")
		if err != nil {
			return err
		}
		cfg.Duration = val
	}
	if fs.Changed("num") {
		val, err := fs.GetString("num")
		if err != nil {
			return err
		}
		n, err := parseSize(val)
		if err != nil {
			return fmt.Errorf("num: %w", err)
		}
		cfg.TotalBytes = n
	}
	if fs.Changed("len") {
		val, err := fs.GetString("len")
		if err != nil {
			return err
		}
		n, err := parseSize(val)
		if err != nil {
			return fmt.Errorf("len: %w", err)
		}
		cfg.BufferLen = int(n)
	}
	if fs.Changed("rate") {
		val, err := fs.GetInt("rate")
		if err != nil {
			return err
		}
		cfg.Rate = val
	}
	if fs.Changed("arrival-model") {
		val, err := fs.GetString("arrival-model")
		if err != nil {
			return err
		}
		cfg.Arrival.Model = ArrivalModel(strings.ToLower(strings.TrimSpace(val)))
	}
	if fs.Changed("markov") {
		val, err := fs.GetString("markov")
		if err != nil {
			return err
		}
		cfg.Markov = strings.TrimSpace(val)
	}
	if fs.Changed("markov-seed") {
		val, err := fs.GetInt64("markov-seed")
		if err != nil {
			return err
		}
		cfg.MarkovSeed = val
	}
	if fs.Changed("tos") {
		val, err := fs.GetInt("tos")
		if err != nil {
			return err
		}
		cfg.TOS = val
	}
	if fs.Changed("tx-delay") {
		val, err := fs.GetDuration("tx-delay")
		if err != nil {
			return err
		}
		cfg.TxDelay = val
	}
	if fs.Changed("interval") {
		val, err := fs.GetDuration("interval")
		if err != nil {
			return err
		}
		cfg.Interval = val
	}
	if fs.Changed("timeout") {
		val, err := fs.GetDuration("timeout")
		if err != nil {
			return err
		}
		cfg.Timeout = val
	}
	if fs.Changed("json-output") {
		val, err := fs.GetBool("json-output")
		if err != nil {
			return err
		}
		cfg.JSONOutput = val
	}
	if fs.Changed("dashboard") {
		val, err := fs.GetBool("dashboard")
		if err != nil {
			return err
		}
		cfg.Dashboard = val
	}
	if fs.Changed("log-errors") {
		val, err := fs.GetBool("log-errors")
		if err != nil {
			return err
		}
		cfg.LogErrors = val
	}

	return nil
}
