// Package stack is the swarm stack subcommand wrapper (spec §4.H "Stack").
package stack

import (
	"context"
	"log/slog"
	"strings"

	"github.com/banksean/enginectl"
	"github.com/banksean/enginectl/argv"
	"github.com/banksean/enginectl/dwerr"
	"github.com/banksean/enginectl/runner"
	"github.com/banksean/enginectl/service"
	"github.com/banksean/enginectl/task"
)

type Client struct {
	cfg *enginectl.ClientConfig
}

func New(cfg *enginectl.ClientConfig) *Client { return &Client{cfg: cfg} }

func (c *Client) prefix(ctx context.Context) (*argv.Command, error) {
	cmd, err := c.cfg.Prefix(ctx)
	if err != nil {
		return nil, err
	}
	cmd.AppendRaw("stack")
	return cmd, nil
}

func (c *Client) run(ctx context.Context, cmd *argv.Command) (*runner.Result, error) {
	opts := c.cfg.RunnerOptions()
	opts.CaptureStdout = true
	opts.CaptureStderr = true
	opts.Classify = dwerr.Classify
	slog.InfoContext(ctx, "stack.run", "argv", dwerr.Redact(cmd.Args()))
	res, err := runner.Run(ctx, cmd.Args(), opts)
	if err != nil {
		slog.ErrorContext(ctx, "stack.run failed", "argv", dwerr.Redact(cmd.Args()), "error", err)
		return nil, err
	}
	return res, nil
}

func splitIDLines(output string) []string {
	var ids []string
	for _, line := range strings.Split(strings.TrimRight(output, "\n"), "\n") {
		if line != "" {
			ids = append(ids, line)
		}
	}
	return ids
}

// Deploy deploys (or updates) a stack from a compose file.
func (c *Client) Deploy(ctx context.Context, name string, composeFile string) error {
	cmd, err := c.prefix(ctx)
	if err != nil {
		return err
	}
	cmd.AppendRaw("deploy")
	cmd.AddSimpleArg("--compose-file", composeFile)
	cmd.Append(name)
	_, err = c.run(ctx, cmd)
	return err
}

func (c *Client) Remove(ctx context.Context, name string) error {
	cmd, err := c.prefix(ctx)
	if err != nil {
		return err
	}
	cmd.AppendRaw("rm").Append(name)
	_, err = c.run(ctx, cmd)
	return err
}

func (c *Client) List(ctx context.Context) (string, error) {
	cmd, err := c.prefix(ctx)
	if err != nil {
		return "", err
	}
	cmd.AppendRaw("ls")
	res, err := c.run(ctx, cmd)
	if err != nil {
		return "", err
	}
	return res.Stdout, nil
}

// Ps lists the stack's tasks as trusted handles, built from
// `--quiet --no-trunc` ids (spec §4.H: "Stack ps and services use
// --quiet --no-trunc ids then construct trusted entity handles").
func (c *Client) Ps(ctx context.Context, name string) ([]*task.Task, error) {
	cmd, err := c.prefix(ctx)
	if err != nil {
		return nil, err
	}
	cmd.AppendRaw("ps")
	cmd.AddFlag("--quiet", true)
	cmd.AddFlag("--no-trunc", true)
	cmd.Append(name)
	res, err := c.run(ctx, cmd)
	if err != nil {
		return nil, err
	}
	taskClient := task.New(c.cfg)
	var out []*task.Task
	for _, id := range splitIDLines(res.Stdout) {
		out = append(out, taskClient.FromTrustedID(id))
	}
	return out, nil
}

// Services lists the stack's services as trusted handles, the same
// ids-then-handles construction Ps uses.
func (c *Client) Services(ctx context.Context, name string) ([]*service.Service, error) {
	cmd, err := c.prefix(ctx)
	if err != nil {
		return nil, err
	}
	cmd.AppendRaw("services")
	cmd.AddFlag("--quiet", true)
	cmd.Append(name)
	res, err := c.run(ctx, cmd)
	if err != nil {
		return nil, err
	}
	svcClient := service.New(c.cfg)
	var out []*service.Service
	for _, id := range splitIDLines(res.Stdout) {
		out = append(out, svcClient.FromTrustedID(id))
	}
	return out, nil
}
