// Package task is the swarm task subcommand wrapper (spec §4.H "Task").
// Tasks are read-only engine objects: there is no create/remove, only
// inspection.
package task

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/banksean/enginectl"
	"github.com/banksean/enginectl/argv"
	"github.com/banksean/enginectl/dwerr"
	"github.com/banksean/enginectl/entity"
	"github.com/banksean/enginectl/runner"
	"github.com/banksean/enginectl/types"
)

type Client struct {
	cfg *enginectl.ClientConfig
}

func New(cfg *enginectl.ClientConfig) *Client { return &Client{cfg: cfg} }

type Task struct {
	*entity.Handle[types.Task]
	client *Client
}

func (c *Client) run(ctx context.Context, cmd *argv.Command) (*runner.Result, error) {
	opts := c.cfg.RunnerOptions()
	opts.CaptureStdout = true
	opts.CaptureStderr = true
	opts.Classify = dwerr.Classify
	slog.InfoContext(ctx, "task.run", "argv", dwerr.Redact(cmd.Args()))
	res, err := runner.Run(ctx, cmd.Args(), opts)
	if err != nil {
		slog.ErrorContext(ctx, "task.run failed", "argv", dwerr.Redact(cmd.Args()), "error", err)
		return nil, err
	}
	return res, nil
}

func (c *Client) inspectOne(ctx context.Context, ref string) (string, *types.Task, error) {
	cmd, err := c.cfg.Prefix(ctx)
	if err != nil {
		return "", nil, err
	}
	cmd.AppendRaw("inspect").Append(ref)
	res, err := c.run(ctx, cmd)
	if err != nil {
		return "", nil, err
	}
	var items []types.Task
	if err := json.Unmarshal([]byte(res.Stdout), &items); err != nil {
		return "", nil, &dwerr.ParseError{Context: "task inspect", Cause: err}
	}
	if len(items) == 0 {
		return "", nil, &dwerr.EngineError{Argv: cmd.Args()}
	}
	return items[0].ID, &items[0], nil
}

func (c *Client) FromTrustedID(id string) *Task {
	h := entity.NewTrusted[types.Task](c.cfg.Key(), "ID", id, c.cfg.CacheValidity, c.inspectOne)
	return &Task{Handle: h, client: c}
}

func (c *Client) FromReference(ctx context.Context, ref string) (*Task, error) {
	h, err := entity.NewFromReference[types.Task](ctx, c.cfg.Key(), "ID", ref, c.cfg.CacheValidity, c.inspectOne)
	if err != nil {
		return nil, err
	}
	return &Task{Handle: h, client: c}, nil
}
