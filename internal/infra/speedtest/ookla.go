package speedtest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"github.com/ahmadswalih/ip-finder-backend/internal/domain"
)

const probeName = "throughput"

// CommandRunner executes name with args and returns its stdout.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// OoklaProber runs the Ookla speedtest CLI with the license and GDPR
// prompts accepted.
type OoklaProber struct {
	binary string
	run    CommandRunner
}

func NewOoklaProber(binary string, run CommandRunner) *OoklaProber {
	if binary == "" {
		binary = "speedtest"
	}
	if run == nil {
		run = runCommand
	}
	return &OoklaProber{binary: binary, run: run}
}

type ooklaResult struct {
	Download struct {
		Bandwidth float64 `json:"bandwidth"`
	} `json:"download"`
	Upload struct {
		Bandwidth float64 `json:"bandwidth"`
	} `json:"upload"`
}

func (p *OoklaProber) Probe(ctx context.Context) (domain.ThroughputSample, error) {
	out, err := p.run(ctx, p.binary, "--accept-license", "--accept-gdpr", "--format=json")
	if err != nil {
		return domain.ThroughputSample{}, domain.ProbeError{Probe: probeName, Err: err}
	}

	sample, err := parseOoklaResult(out)
	if err != nil {
		return domain.ThroughputSample{}, domain.ProbeError{Probe: probeName, Err: err}
	}
	return sample, nil
}

func parseOoklaResult(out []byte) (domain.ThroughputSample, error) {
	var res ooklaResult
	if err := json.Unmarshal(bytes.TrimSpace(out), &res); err != nil {
		return domain.ThroughputSample{}, fmt.Errorf("decode speedtest output: %w", err)
	}
	if res.Download.Bandwidth < 0 || res.Upload.Bandwidth < 0 {
		return domain.ThroughputSample{}, fmt.Errorf("negative bandwidth in speedtest output")
	}
	return domain.ThroughputSample{
		DownloadBandwidth: res.Download.Bandwidth,
		UploadBandwidth:   res.Upload.Bandwidth,
	}, nil
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return nil, fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return stdout.Bytes(), nil
}
