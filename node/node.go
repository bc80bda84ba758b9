// Package node is the swarm node subcommand wrapper (spec §4.H "Node").
package node

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

type Node struct {
	*entity.Handle[types.Node]
	client *Client
}

func (c *Client) prefix(ctx context.Context) (*argv.Command, error) {
	cmd, err := c.cfg.Prefix(ctx)
	if err != nil {
		return nil, err
	}
	cmd.AppendRaw("node")
	return cmd, nil
}

func (c *Client) run(ctx context.Context, cmd *argv.Command) (*runner.Result, error) {
	opts := c.cfg.RunnerOptions()
	opts.CaptureStdout = true
	opts.CaptureStderr = true
	opts.Classify = dwerr.Classify
	slog.InfoContext(ctx, "node.run", "argv", dwerr.Redact(cmd.Args()))
	res, err := runner.Run(ctx, cmd.Args(), opts)
	if err != nil {
		slog.ErrorContext(ctx, "node.run failed", "argv", dwerr.Redact(cmd.Args()), "error", err)
		return nil, err
	}
	return res, nil
}

func (c *Client) inspectOne(ctx context.Context, ref string) (string, *types.Node, error) {
	cmd, err := c.prefix(ctx)
	if err != nil {
		return "", nil, err
	}
	cmd.AppendRaw("inspect").Append(ref)
	res, err := c.run(ctx, cmd)
	if err != nil {
		return "", nil, err
	}
	var items []types.Node
	if err := json.Unmarshal([]byte(res.Stdout), &items); err != nil {
		return "", nil, &dwerr.ParseError{Context: "node inspect", Cause: err}
	}
	if len(items) == 0 {
		return "", nil, &dwerr.EngineError{Argv: cmd.Args()}
	}
	return items[0].ID, &items[0], nil
}

func (c *Client) FromTrustedID(id string) *Node {
	h := entity.NewTrusted[types.Node](c.cfg.Key(), "ID", id, c.cfg.CacheValidity, c.inspectOne)
	return &Node{Handle: h, client: c}
}

func (c *Client) FromReference(ctx context.Context, ref string) (*Node, error) {
	h, err := entity.NewFromReference[types.Node](ctx, c.cfg.Key(), "ID", ref, c.cfg.CacheValidity, c.inspectOne)
	if err != nil {
		return nil, err
	}
	return &Node{Handle: h, client: c}, nil
}

// Availability transitions the node between active, pause, and drain (spec
// §4.H "Swarm node" state machine).
func (n *Node) Availability(ctx context.Context, availability string) error {
	cmd, err := n.client.prefix(ctx)
	if err != nil {
		return err
	}
	cmd.AppendRaw("update")
	cmd.AddSimpleArg("--availability", availability)
	id, err := n.ID(ctx)
	if err != nil {
		return err
	}
	cmd.Append(id)
	_, err = n.client.run(ctx, cmd)
	if err == nil {
		n.Invalidate()
	}
	return err
}

// Promote and Demote toggle the node's worker/manager role.
func (n *Node) Promote(ctx context.Context) error { return n.roleChange(ctx, "promote") }
func (n *Node) Demote(ctx context.Context) error  { return n.roleChange(ctx, "demote") }

func (n *Node) roleChange(ctx context.Context, verb string) error {
	cmd, err := n.client.prefix(ctx)
	if err != nil {
		return err
	}
	cmd.AppendRaw(verb)
	id, err := n.ID(ctx)
	if err != nil {
		return err
	}
	cmd.Append(id)
	_, err = n.client.run(ctx, cmd)
	if err == nil {
		n.Invalidate()
	}
	return err
}

func (n *Node) Remove(ctx context.Context, force bool) error {
	cmd, err := n.client.prefix(ctx)
	if err != nil {
		return err
	}
	cmd.AppendRaw("rm")
	cmd.AddFlag("--force", force)
	id, err := n.ID(ctx)
	if err != nil {
		return err
	}
	cmd.Append(id)
	_, err = n.client.run(ctx, cmd)
	return err
}

func (c *Client) List(ctx context.Context) ([]*Node, error) {
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
	var out []*Node
	for _, line := range strings.Split(strings.TrimRight(res.Stdout, "\n"), "\n") {
		if line != "" {
			out = append(out, c.FromTrustedID(line))
		}
	}
	return out, nil
}
