// Package pod is the pod subcommand wrapper (spec §4.H "Pod"), a
// podman-only concept.
package pod

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

type Pod struct {
	*entity.Handle[types.Pod]
	client *Client
}

func (c *Client) prefix(ctx context.Context) (*argv.Command, error) {
	cmd, err := c.cfg.Prefix(ctx)
	if err != nil {
		return nil, err
	}
	cmd.AppendRaw("pod")
	return cmd, nil
}

func (c *Client) run(ctx context.Context, cmd *argv.Command) (*runner.Result, error) {
	opts := c.cfg.RunnerOptions()
	opts.CaptureStdout = true
	opts.CaptureStderr = true
	opts.Classify = dwerr.Classify
	slog.InfoContext(ctx, "pod.run", "argv", dwerr.Redact(cmd.Args()))
	res, err := runner.Run(ctx, cmd.Args(), opts)
	if err != nil {
		slog.ErrorContext(ctx, "pod.run failed", "argv", dwerr.Redact(cmd.Args()), "error", err)
		return nil, err
	}
	return res, nil
}

func (c *Client) inspectOne(ctx context.Context, ref string) (string, *types.Pod, error) {
	cmd, err := c.prefix(ctx)
	if err != nil {
		return "", nil, err
	}
	cmd.AppendRaw("inspect").Append(ref)
	res, err := c.run(ctx, cmd)
	if err != nil {
		return "", nil, err
	}
	var items []types.Pod
	if err := json.Unmarshal([]byte(res.Stdout), &items); err != nil {
		return "", nil, &dwerr.ParseError{Context: "pod inspect", Cause: err}
	}
	if len(items) == 0 {
		return "", nil, &dwerr.NoSuchPod{EngineError: &dwerr.EngineError{Argv: cmd.Args()}}
	}
	return items[0].ID, &items[0], nil
}

func (c *Client) FromTrustedID(id string) *Pod {
	h := entity.NewTrusted[types.Pod](c.cfg.Key(), "Id", id, c.cfg.CacheValidity, c.inspectOne)
	return &Pod{Handle: h, client: c}
}

func (c *Client) FromReference(ctx context.Context, ref string) (*Pod, error) {
	h, err := entity.NewFromReference[types.Pod](ctx, c.cfg.Key(), "Id", ref, c.cfg.CacheValidity, c.inspectOne)
	if err != nil {
		return nil, err
	}
	return &Pod{Handle: h, client: c}, nil
}

type CreateOptions struct {
	Name   string
	Labels map[string]string
}

func (c *Client) Create(ctx context.Context, opts CreateOptions) (*Pod, error) {
	cmd, err := c.prefix(ctx)
	if err != nil {
		return nil, err
	}
	cmd.AppendRaw("create")
	cmd.AddSimpleArg("--name", opts.Name)
	cmd.AddArgsMapping("--label", opts.Labels)
	res, err := c.run(ctx, cmd)
	if err != nil {
		return nil, err
	}
	return c.FromTrustedID(strings.TrimSpace(res.Stdout)), nil
}

func (p *Pod) mutate(ctx context.Context, verb string) error {
	cmd, err := p.client.prefix(ctx)
	if err != nil {
		return err
	}
	cmd.AppendRaw(verb)
	id, err := p.ID(ctx)
	if err != nil {
		return err
	}
	cmd.Append(id)
	_, err = p.client.run(ctx, cmd)
	if err == nil {
		p.Invalidate()
	}
	return err
}

func (p *Pod) Start(ctx context.Context) error { return p.mutate(ctx, "start") }
func (p *Pod) Stop(ctx context.Context) error  { return p.mutate(ctx, "stop") }
func (p *Pod) Kill(ctx context.Context) error  { return p.mutate(ctx, "kill") }

func (p *Pod) Remove(ctx context.Context, force bool) error {
	cmd, err := p.client.prefix(ctx)
	if err != nil {
		return err
	}
	cmd.AppendRaw("rm")
	cmd.AddFlag("--force", force)
	id, err := p.ID(ctx)
	if err != nil {
		return err
	}
	cmd.Append(id)
	_, err = p.client.run(ctx, cmd)
	return err
}

type ListOptions struct {
	Filters map[string]string
}

func (c *Client) List(ctx context.Context, opts ListOptions) ([]*Pod, error) {
	cmd, err := c.prefix(ctx)
	if err != nil {
		return nil, err
	}
	cmd.AppendRaw("ls")
	cmd.AddFlag("--quiet", true)
	cmd.AddArgsMapping("--filter", opts.Filters)
	res, err := c.run(ctx, cmd)
	if err != nil {
		return nil, err
	}
	var out []*Pod
	for _, line := range strings.Split(strings.TrimRight(res.Stdout, "\n"), "\n") {
		if line != "" {
			out = append(out, c.FromTrustedID(line))
		}
	}
	return out, nil
}

// Scope force-removes the pod on scope exit (spec §4.G).
func (p *Pod) Scope() *entity.Scope {
	return entity.NewScope(func(ctx context.Context) error { return p.Remove(ctx, true) })
}
