package main

import (
	"io"
	"net"
	"strconv"
	"strings"
	"testing"

	"github.com/harrycheng1/iperf2-mirror/internal/config"
	"github.com/harrycheng1/iperf2-mirror/internal/runner"
)

func TestRunHelpRequested(t *testing.T) {
	if err := run([]string{"--help"}); err != nil {
		t.Errorf("run(--help) error = %v, want nil", err)
	}
	if err := run(nil); err != nil {
		t.Errorf("run() with no args error = %v, want nil", err)
	}
}

func TestRunUnknownFlag(t *testing.T) {
	if err := run([]string{"--definitely-not-a-flag"}); err == nil {
		t.Error("expected error for unknown flag")
	}
}

func TestRunValidationError(t *testing.T) {
	err := run([]string{"-t", "5s"})
	if err == nil {
		t.Fatal("expected validation error for client mode without host")
	}
	if !strings.Contains(err.Error(), "host") {
		t.Errorf("expected host validation message, got %v", err)
	}
}

func TestRunRejectsBadMarkovSpec(t *testing.T) {
	err := run([]string{"-c", "127.0.0.1", "--markov", "<1470|0.5"})
	if err == nil {
		t.Fatal("expected error for traffic model with probabilities below one")
	}
}

func TestToRunnerArrivalModel(t *testing.T) {
	if got := toRunnerArrivalModel(config.ArrivalModelPoisson); got != runner.ArrivalModelPoisson {
		t.Errorf("poisson mapped to %q", got)
	}
	if got := toRunnerArrivalModel(""); got != runner.ArrivalModelUniform {
		t.Errorf("empty model mapped to %q, want uniform", got)
	}
}

func TestRunClientAgainstLocalSink(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func() {
				defer conn.Close()
				_, _ = io.Copy(io.Discard, conn)
			}()
		}
	}()

	port := ln.Addr().(*net.TCPAddr).Port
	err = run([]string{
		"-c", "127.0.0.1",
		"-p", strconv.Itoa(port),
		"-n", "64K",
		"-l", "8K",
		"-t", "10s",
		"--json-output",
	})
	if err != nil {
		t.Fatalf("run() error = %v", err)
	}
}
