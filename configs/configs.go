// Package configs is the swarm config-object subcommand wrapper (spec §4.H
// "Config"). Named configs, not config, to avoid colliding with
// enginectl.ClientConfig.
package configs

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"

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

type Config struct {
	*entity.Handle[types.ConfigObject]
	client *Client
}

func (c *Client) prefix(ctx context.Context) (*argv.Command, error) {
	cmd, err := c.cfg.Prefix(ctx)
	if err != nil {
		return nil, err
	}
	cmd.AppendRaw("config")
	return cmd, nil
}

func (c *Client) run(ctx context.Context, cmd *argv.Command) (*runner.Result, error) {
	opts := c.cfg.RunnerOptions()
	opts.CaptureStdout = true
	opts.CaptureStderr = true
	opts.Classify = dwerr.Classify
	slog.InfoContext(ctx, "configs.run", "argv", dwerr.Redact(cmd.Args()))
	res, err := runner.Run(ctx, cmd.Args(), opts)
	if err != nil {
		slog.ErrorContext(ctx, "configs.run failed", "argv", dwerr.Redact(cmd.Args()), "error", err)
		return nil, err
	}
	return res, nil
}

func (c *Client) inspectOne(ctx context.Context, ref string) (string, *types.ConfigObject, error) {
	cmd, err := c.prefix(ctx)
	if err != nil {
		return "", nil, err
	}
	cmd.AppendRaw("inspect").Append(ref)
	res, err := c.run(ctx, cmd)
	if err != nil {
		return "", nil, err
	}
	var items []types.ConfigObject
	if err := json.Unmarshal([]byte(res.Stdout), &items); err != nil {
		return "", nil, &dwerr.ParseError{Context: "config inspect", Cause: err}
	}
	if len(items) == 0 {
		return "", nil, &dwerr.EngineError{Argv: cmd.Args()}
	}
	return items[0].ID, &items[0], nil
}

func (c *Client) FromTrustedID(id string) *Config {
	h := entity.NewTrusted[types.ConfigObject](c.cfg.Key(), "ID", id, c.cfg.CacheValidity, c.inspectOne)
	return &Config{Handle: h, client: c}
}

func (c *Client) FromReference(ctx context.Context, ref string) (*Config, error) {
	h, err := entity.NewFromReference[types.ConfigObject](ctx, c.cfg.Key(), "ID", ref, c.cfg.CacheValidity, c.inspectOne)
	if err != nil {
		return nil, err
	}
	return &Config{Handle: h, client: c}, nil
}

// Create creates a config object from data read off r, under name, with the
// given labels.
func (c *Client) Create(ctx context.Context, name string, r io.Reader, labels map[string]string) (*Config, error) {
	cmd, err := c.prefix(ctx)
	if err != nil {
		return nil, err
	}
	cmd.AppendRaw("create")
	cmd.AddArgsMapping("--label", labels)
	cmd.Append(name).Append("-")
	opts := c.cfg.RunnerOptions()
	opts.CaptureStdout = true
	opts.CaptureStderr = true
	opts.Classify = dwerr.Classify
	opts.Stdin = r
	res, err := runner.Run(ctx, cmd.Args(), opts)
	if err != nil {
		return nil, err
	}
	return c.FromTrustedID(strings.TrimSpace(res.Stdout)), nil
}

func (cfg *Config) Remove(ctx context.Context) error {
	cmd, err := cfg.client.prefix(ctx)
	if err != nil {
		return err
	}
	cmd.AppendRaw("rm")
	id, err := cfg.ID(ctx)
	if err != nil {
		return err
	}
	cmd.Append(id)
	_, err = cfg.client.run(ctx, cmd)
	return err
}

func (c *Client) List(ctx context.Context) ([]*Config, error) {
	cmd, err := c.prefix(ctx)
	if err != nil {
		return nil, err
	}
	cmd.AppendRaw("ls")
	cmd.AddFlag("--quiet", true)
	res, err := c.run(ctx, cmd)
	if err != nil {
		return nil, err
	}
	var out []*Config
	for _, line := range strings.Split(strings.TrimRight(res.Stdout, "\n"), "\n") {
		if line != "" {
			out = append(out, c.FromTrustedID(line))
		}
	}
	return out, nil
}

// Scope removes the config object on scope exit (spec §4.G).
func (cfg *Config) Scope() *entity.Scope {
	return entity.NewScope(func(ctx context.Context) error { return cfg.Remove(ctx) })
}
