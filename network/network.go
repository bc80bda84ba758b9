// Package network is the network subcommand wrapper (spec §4.H "Network").
package network

import (
	"context"
	"encoding/json"
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

type Network struct {
	*entity.Handle[types.Network]
	client *Client
}

func (c *Client) prefix(ctx context.Context) (*argv.Command, error) {
	cmd, err := c.cfg.Prefix(ctx)
	if err != nil {
		return nil, err
	}
	cmd.AppendRaw("network")
	return cmd, nil
}

func (c *Client) run(ctx context.Context, cmd *argv.Command) (*runner.Result, error) {
	opts := c.cfg.RunnerOptions()
	opts.CaptureStdout = true
	opts.CaptureStderr = true
	opts.Classify = dwerr.Classify
	slog.InfoContext(ctx, "network.run", "argv", dwerr.Redact(cmd.Args()))
	res, err := runner.Run(ctx, cmd.Args(), opts)
	if err != nil {
		slog.ErrorContext(ctx, "network.run failed", "argv", dwerr.Redact(cmd.Args()), "error", err)
		return nil, err
	}
	return res, nil
}

func (c *Client) inspectOne(ctx context.Context, ref string) (string, *types.Network, error) {
	cmd, err := c.prefix(ctx)
	if err != nil {
		return "", nil, err
	}
	cmd.AppendRaw("inspect").Append(ref)
	res, err := c.run(ctx, cmd)
	if err != nil {
		return "", nil, err
	}
	var items []types.Network
	if err := json.Unmarshal([]byte(res.Stdout), &items); err != nil {
		return "", nil, &dwerr.ParseError{Context: "network inspect", Cause: err}
	}
	if len(items) == 0 {
		return "", nil, &dwerr.EngineError{Argv: cmd.Args()}
	}
	return items[0].ID, &items[0], nil
}

func (c *Client) BulkInspect(ctx context.Context, ids []string) ([]*types.Network, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cmd, err := c.prefix(ctx)
	if err != nil {
		return nil, err
	}
	cmd.AppendRaw("inspect")
	for _, id := range ids {
		cmd.Append(id)
	}
	res, err := c.run(ctx, cmd)
	if err != nil {
		return nil, err
	}
	var items []types.Network
	if err := json.Unmarshal([]byte(res.Stdout), &items); err != nil {
		return nil, &dwerr.ParseError{Context: "network inspect (bulk)", Cause: err}
	}
	out := make([]*types.Network, len(items))
	for i := range items {
		out[i] = &items[i]
	}
	return out, nil
}

func (c *Client) FromTrustedID(id string) *Network {
	h := entity.NewTrusted[types.Network](c.cfg.Key(), "Id", id, c.cfg.CacheValidity, c.inspectOne)
	return &Network{Handle: h, client: c}
}

func (c *Client) FromReference(ctx context.Context, ref string) (*Network, error) {
	h, err := entity.NewFromReference[types.Network](ctx, c.cfg.Key(), "Id", ref, c.cfg.CacheValidity, c.inspectOne)
	if err != nil {
		return nil, err
	}
	return &Network{Handle: h, client: c}, nil
}

// CreateOptions configures `network create`.
type CreateOptions struct {
	Name     string
	Driver   string
	Subnet   string
	Gateway  string
	Labels   map[string]string
	Internal bool
}

func (c *Client) Create(ctx context.Context, opts CreateOptions) (*Network, error) {
	cmd, err := c.prefix(ctx)
	if err != nil {
		return nil, err
	}
	cmd.AppendRaw("create")
	cmd.AddSimpleArg("--driver", opts.Driver)
	cmd.AddSimpleArg("--subnet", opts.Subnet)
	cmd.AddSimpleArg("--gateway", opts.Gateway)
	cmd.AddArgsMapping("--label", opts.Labels)
	cmd.AddFlag("--internal", opts.Internal)
	cmd.Append(opts.Name)
	res, err := c.run(ctx, cmd)
	if err != nil {
		return nil, err
	}
	return c.FromTrustedID(strings.TrimSpace(res.Stdout)), nil
}

func (n *Network) Remove(ctx context.Context) error {
	cmd, err := n.client.prefix(ctx)
	if err != nil {
		return err
	}
	cmd.AppendRaw("rm")
	id, err := n.ID(ctx)
	if err != nil {
		return err
	}
	cmd.Append(id)
	_, err = n.client.run(ctx, cmd)
	return err
}

func (n *Network) Connect(ctx context.Context, containerID string) error {
	cmd, err := n.client.prefix(ctx)
	if err != nil {
		return err
	}
	cmd.AppendRaw("connect")
	id, err := n.ID(ctx)
	if err != nil {
		return err
	}
	cmd.Append(id).Append(containerID)
	_, err = n.client.run(ctx, cmd)
	return err
}

func (n *Network) Disconnect(ctx context.Context, containerID string, force bool) error {
	cmd, err := n.client.prefix(ctx)
	if err != nil {
		return err
	}
	cmd.AppendRaw("disconnect")
	cmd.AddFlag("--force", force)
	id, err := n.ID(ctx)
	if err != nil {
		return err
	}
	cmd.Append(id).Append(containerID)
	_, err = n.client.run(ctx, cmd)
	return err
}

type ListOptions struct {
	Filters map[string]string
}

func (c *Client) List(ctx context.Context, opts ListOptions) ([]*Network, error) {
	cmd, err := c.prefix(ctx)
	if err != nil {
		return nil, err
	}
	cmd.AppendRaw("ls")
	cmd.AddFlag("--quiet", true)
	cmd.AddFlag("--no-trunc", true)
	cmd.AddArgsMapping("--filter", opts.Filters)
	res, err := c.run(ctx, cmd)
	if err != nil {
		return nil, err
	}
	var out []*Network
	for _, line := range strings.Split(strings.TrimRight(res.Stdout, "\n"), "\n") {
		if line != "" {
			out = append(out, c.FromTrustedID(line))
		}
	}
	return out, nil
}

func (c *Client) Prune(ctx context.Context, filters map[string]string) (string, error) {
	cmd, err := c.prefix(ctx)
	if err != nil {
		return "", err
	}
	cmd.AppendRaw("prune")
	cmd.AddFlag("--force", true)
	cmd.AddArgsMapping("--filter", filters)
	res, err := c.run(ctx, cmd)
	if err != nil {
		return "", err
	}
	return res.Stdout, nil
}

// Scope removes the network on scope exit (spec §4.G).
func (n *Network) Scope() *entity.Scope {
	return entity.NewScope(func(ctx context.Context) error { return n.Remove(ctx) })
}
