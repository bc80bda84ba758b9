// Package plugin is the engine plugin subcommand wrapper (spec §4.H
// "Plugin").
package plugin

import (
	"context"
	"strings"

	"github.com/banksean/enginectl"
	"github.com/banksean/enginectl/argv"
	"github.com/banksean/enginectl/dwerr"
	"github.com/banksean/enginectl/runner"
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
	return runner.Run(ctx, cmd.Args(), opts)
}

// List returns installed plugin names. Per §9's decision on plugin list's
// argv, the client prefix is built without re-appending an extra leading
// engine token: the prefix already carries it, so plugin ls's argv is just
// prefix + "plugin" + "ls", not prefix + "docker" + "plugin" + "ls".
func (c *Client) List(ctx context.Context) ([]string, error) {
	cmd, err := c.cfg.Prefix(ctx)
	if err != nil {
		return nil, err
	}
	cmd.AppendRaw("plugin").AppendRaw("ls")
	cmd.AddSimpleArg("--format", "{{.Name}}")
	res, err := c.run(ctx, cmd)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, line := range strings.Split(strings.TrimRight(res.Stdout, "\n"), "\n") {
		if line != "" {
			names = append(names, line)
		}
	}
	return names, nil
}

func (c *Client) Enable(ctx context.Context, name string) error {
	cmd, err := c.cfg.Prefix(ctx)
	if err != nil {
		return err
	}
	cmd.AppendRaw("plugin").AppendRaw("enable").Append(name)
	_, err = c.run(ctx, cmd)
	return err
}

func (c *Client) Disable(ctx context.Context, name string) error {
	cmd, err := c.cfg.Prefix(ctx)
	if err != nil {
		return err
	}
	cmd.AppendRaw("plugin").AppendRaw("disable").Append(name)
	_, err = c.run(ctx, cmd)
	return err
}

func (c *Client) Remove(ctx context.Context, name string, force bool) error {
	cmd, err := c.cfg.Prefix(ctx)
	if err != nil {
		return err
	}
	cmd.AppendRaw("plugin").AppendRaw("rm")
	cmd.AddFlag("--force", force)
	cmd.Append(name)
	_, err = c.run(ctx, cmd)
	return err
}
