// Package secret is the swarm secret subcommand wrapper (spec §4.H
// "Secret"). `secret inspect` never returns the secret payload itself.
package secret

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

type Secret struct {
	*entity.Handle[types.Secret]
	client *Client
}

func (c *Client) prefix(ctx context.Context) (*argv.Command, error) {
	cmd, err := c.cfg.Prefix(ctx)
	if err != nil {
		return nil, err
	}
	cmd.AppendRaw("secret")
	return cmd, nil
}

func (c *Client) run(ctx context.Context, cmd *argv.Command) (*runner.Result, error) {
	opts := c.cfg.RunnerOptions()
	opts.CaptureStdout = true
	opts.CaptureStderr = true
	opts.Classify = dwerr.Classify
	slog.InfoContext(ctx, "secret.run", "argv", dwerr.Redact(cmd.Args()))
	res, err := runner.Run(ctx, cmd.Args(), opts)
	if err != nil {
		slog.ErrorContext(ctx, "secret.run failed", "argv", dwerr.Redact(cmd.Args()), "error", err)
		return nil, err
	}
	return res, nil
}

func (c *Client) inspectOne(ctx context.Context, ref string) (string, *types.Secret, error) {
	cmd, err := c.prefix(ctx)
	if err != nil {
		return "", nil, err
	}
	cmd.AppendRaw("inspect").Append(ref)
	res, err := c.run(ctx, cmd)
	if err != nil {
		return "", nil, err
	}
	var items []types.Secret
	if err := json.Unmarshal([]byte(res.Stdout), &items); err != nil {
		return "", nil, &dwerr.ParseError{Context: "secret inspect", Cause: err}
	}
	if len(items) == 0 {
		return "", nil, &dwerr.EngineError{Argv: cmd.Args()}
	}
	return items[0].ID, &items[0], nil
}

func (c *Client) FromTrustedID(id string) *Secret {
	h := entity.NewTrusted[types.Secret](c.cfg.Key(), "ID", id, c.cfg.CacheValidity, c.inspectOne)
	return &Secret{Handle: h, client: c}
}

func (c *Client) FromReference(ctx context.Context, ref string) (*Secret, error) {
	h, err := entity.NewFromReference[types.Secret](ctx, c.cfg.Key(), "ID", ref, c.cfg.CacheValidity, c.inspectOne)
	if err != nil {
		return nil, err
	}
	return &Secret{Handle: h, client: c}, nil
}

// Create creates a secret from data read off r, never logging or caching
// the payload locally.
func (c *Client) Create(ctx context.Context, name string, r io.Reader, labels map[string]string) (*Secret, error) {
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

func (s *Secret) Remove(ctx context.Context) error {
	cmd, err := s.client.prefix(ctx)
	if err != nil {
		return err
	}
	cmd.AppendRaw("rm")
	id, err := s.ID(ctx)
	if err != nil {
		return err
	}
	cmd.Append(id)
	_, err = s.client.run(ctx, cmd)
	return err
}

func (c *Client) List(ctx context.Context) ([]*Secret, error) {
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
	var out []*Secret
	for _, line := range strings.Split(strings.TrimRight(res.Stdout, "\n"), "\n") {
		if line != "" {
			out = append(out, c.FromTrustedID(line))
		}
	}
	return out, nil
}

// Scope removes the secret on scope exit (spec §4.G).
func (s *Secret) Scope() *entity.Scope {
	return entity.NewScope(func(ctx context.Context) error { return s.Remove(ctx) })
}
