// Package system is the engine-wide subcommand wrapper (spec §4.H
// "System"): info, events, disk usage, and prune.
package system

import (
	"bufio"
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/banksean/enginectl"
	"github.com/banksean/enginectl/argv"
	"github.com/banksean/enginectl/dwerr"
	"github.com/banksean/enginectl/runner"
	"github.com/banksean/enginectl/stream"
	"github.com/banksean/enginectl/types"
)

type Client struct {
	cfg *enginectl.ClientConfig
}

func New(cfg *enginectl.ClientConfig) *Client { return &Client{cfg: cfg} }

func (c *Client) run(ctx context.Context, cmd *argv.Command) (*runner.Result, error) {
	opts := c.cfg.RunnerOptions()
	opts.CaptureStdout = true
	opts.CaptureStderr = true
	opts.Classify = dwerr.Classify
	slog.InfoContext(ctx, "system.run", "argv", dwerr.Redact(cmd.Args()))
	res, err := runner.Run(ctx, cmd.Args(), opts)
	if err != nil {
		slog.ErrorContext(ctx, "system.run failed", "argv", dwerr.Redact(cmd.Args()), "error", err)
		return nil, err
	}
	return res, nil
}

// Info runs `system info --format '{{json .}}'` and normalizes the
// flattened swarm state field.
func (c *Client) Info(ctx context.Context) (*types.SystemInfo, error) {
	cmd, err := c.cfg.Prefix(ctx)
	if err != nil {
		return nil, err
	}
	cmd.AppendRaw("system").AppendRaw("info")
	cmd.AddSimpleArg("--format", "{{json .}}")
	res, err := c.run(ctx, cmd)
	if err != nil {
		return nil, err
	}
	var info types.SystemInfo
	if err := json.Unmarshal([]byte(res.Stdout), &info); err != nil {
		return nil, &dwerr.ParseError{Context: "system info", Cause: err}
	}
	types.NormalizeSystemInfo(&info)
	return &info, nil
}

// EventsOptions configures `system events`.
type EventsOptions struct {
	Since, Until string
	Filters      map[string]string
}

func (o EventsOptions) apply(cmd *argv.Command) {
	cmd.AddSimpleArg("--since", o.Since)
	cmd.AddSimpleArg("--until", o.Until)
	cmd.AddArgsMapping("--filter", o.Filters)
	cmd.AddSimpleArg("--format", "{{json .}}")
}

// Events runs a bounded query: Until defaults to "0s" so the engine
// returns a finite list instead of streaming indefinitely (spec §4.H:
// "System events supports a --until 0s bounded form returning a list").
func (c *Client) Events(ctx context.Context, opts EventsOptions) ([]types.Event, error) {
	if opts.Until == "" {
		opts.Until = "0s"
	}
	cmd, err := c.cfg.Prefix(ctx)
	if err != nil {
		return nil, err
	}
	cmd.AppendRaw("system").AppendRaw("events")
	opts.apply(cmd)
	res, err := c.run(ctx, cmd)
	if err != nil {
		return nil, err
	}
	return parseEventLines(res.Stdout)
}

func parseEventLines(output string) ([]types.Event, error) {
	var events []types.Event
	for _, line := range strings.Split(strings.TrimRight(output, "\n"), "\n") {
		if line == "" {
			continue
		}
		var e types.Event
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			return nil, &dwerr.ParseError{Context: "system events", Cause: err}
		}
		events = append(events, e)
	}
	return events, nil
}

// EventStream is an unbounded iterator of events (spec §4.H: "an unbounded
// streaming form returning an iterator of DockerEvent").
type EventStream struct {
	reader *stream.Reader
}

// Next decodes the next event frame. When the stream has ended it returns
// false together with the reader's Err() (nil after a zero exit, the
// classified engine error otherwise); with true, a non-nil error reports a
// decode failure for that frame.
func (s *EventStream) Next() (types.Event, bool, error) {
	frame, ok := <-s.reader.Frames()
	if !ok {
		return types.Event{}, false, s.reader.Err()
	}
	var e types.Event
	if err := json.Unmarshal(frame.Line, &e); err != nil {
		return types.Event{}, true, &dwerr.ParseError{Context: "system events", Cause: err}
	}
	return e, true, nil
}

func (s *EventStream) Close() error { return s.reader.Close() }

// StreamEvents follows events indefinitely until ctx is canceled.
func (c *Client) StreamEvents(ctx context.Context, opts EventsOptions) (*EventStream, error) {
	opts.Until = ""
	cmd, err := c.cfg.Prefix(ctx)
	if err != nil {
		return nil, err
	}
	cmd.AppendRaw("system").AppendRaw("events")
	opts.apply(cmd)
	r, err := stream.Start(ctx, cmd.Args(), stream.Options{Engine: string(c.cfg.EngineKind), Debug: c.cfg.Debug})
	if err != nil {
		return nil, err
	}
	return &EventStream{reader: r}, nil
}

// DiskFree parses `system df --format '{{json .}}'`'s one-JSON-object-per-
// line output into four categorical summaries (spec §4.H).
func (c *Client) DiskFree(ctx context.Context) ([]types.DiskUsage, error) {
	cmd, err := c.cfg.Prefix(ctx)
	if err != nil {
		return nil, err
	}
	cmd.AppendRaw("system").AppendRaw("df")
	cmd.AddSimpleArg("--format", "{{json .}}")
	res, err := c.run(ctx, cmd)
	if err != nil {
		return nil, err
	}
	return parseDiskUsageLines(res.Stdout)
}

func parseDiskUsageLines(output string) ([]types.DiskUsage, error) {
	var out []types.DiskUsage
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		var l types.DiskUsageLine
		if err := json.Unmarshal([]byte(line), &l); err != nil {
			return nil, &dwerr.ParseError{Context: "system df", Cause: err}
		}
		out = append(out, types.DecodeDiskUsage(l))
	}
	return out, nil
}

// Prune composes `system prune`: the natural counterpart to DiskFree, not
// named in §4.H's enumeration.
func (c *Client) Prune(ctx context.Context, all bool, volumes bool, filters map[string]string) (string, error) {
	cmd, err := c.cfg.Prefix(ctx)
	if err != nil {
		return "", err
	}
	cmd.AppendRaw("system").AppendRaw("prune")
	cmd.AddFlag("--all", all)
	cmd.AddFlag("--volumes", volumes)
	cmd.AddFlag("--force", true)
	cmd.AddArgsMapping("--filter", filters)
	res, err := c.run(ctx, cmd)
	if err != nil {
		return "", err
	}
	return res.Stdout, nil
}
