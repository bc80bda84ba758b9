// Package service is the swarm service subcommand wrapper (spec §4.H
// "Swarm / Service").
package service

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

type Service struct {
	*entity.Handle[types.Service]
	client *Client
}

func (c *Client) prefix(ctx context.Context) (*argv.Command, error) {
	cmd, err := c.cfg.Prefix(ctx)
	if err != nil {
		return nil, err
	}
	cmd.AppendRaw("service")
	return cmd, nil
}

func (c *Client) run(ctx context.Context, cmd *argv.Command) (*runner.Result, error) {
	opts := c.cfg.RunnerOptions()
	opts.CaptureStdout = true
	opts.CaptureStderr = true
	opts.Classify = dwerr.Classify
	slog.InfoContext(ctx, "service.run", "argv", dwerr.Redact(cmd.Args()))
	res, err := runner.Run(ctx, cmd.Args(), opts)
	if err != nil {
		slog.ErrorContext(ctx, "service.run failed", "argv", dwerr.Redact(cmd.Args()), "error", err)
		return nil, err
	}
	return res, nil
}

func (c *Client) inspectOne(ctx context.Context, ref string) (string, *types.Service, error) {
	cmd, err := c.prefix(ctx)
	if err != nil {
		return "", nil, err
	}
	cmd.AppendRaw("inspect").Append(ref)
	res, err := c.run(ctx, cmd)
	if err != nil {
		return "", nil, err
	}
	var items []types.Service
	if err := json.Unmarshal([]byte(res.Stdout), &items); err != nil {
		return "", nil, &dwerr.ParseError{Context: "service inspect", Cause: err}
	}
	if len(items) == 0 {
		return "", nil, &dwerr.NoSuchService{EngineError: &dwerr.EngineError{Argv: cmd.Args()}}
	}
	types.NormalizeService(&items[0])
	return items[0].ID, &items[0], nil
}

func (c *Client) FromTrustedID(id string) *Service {
	h := entity.NewTrusted[types.Service](c.cfg.Key(), "ID", id, c.cfg.CacheValidity, c.inspectOne)
	return &Service{Handle: h, client: c}
}

func (c *Client) FromReference(ctx context.Context, ref string) (*Service, error) {
	h, err := entity.NewFromReference[types.Service](ctx, c.cfg.Key(), "ID", ref, c.cfg.CacheValidity, c.inspectOne)
	if err != nil {
		return nil, err
	}
	return &Service{Handle: h, client: c}, nil
}

type CreateOptions struct {
	Name     string
	Replicas uint64
	Env      map[string]string
	Publish  []argv.PortMapping
	Labels   map[string]string
}

func (c *Client) Create(ctx context.Context, image string, command []string, opts CreateOptions) (*Service, error) {
	cmd, err := c.prefix(ctx)
	if err != nil {
		return nil, err
	}
	cmd.AppendRaw("create")
	cmd.AddSimpleArg("--name", opts.Name)
	if opts.Replicas > 0 {
		cmd.AddSimpleArg("--replicas", int64(opts.Replicas))
	}
	cmd.AddArgsMapping("--env", opts.Env)
	cmd.AddArgsMapping("--label", opts.Labels)
	for _, p := range opts.Publish {
		cmd.AddSimpleArg("--publish", p.String())
	}
	cmd.Append(image)
	for _, tok := range command {
		cmd.Append(tok)
	}
	res, err := c.run(ctx, cmd)
	if err != nil {
		return nil, err
	}
	return c.FromTrustedID(strings.TrimSpace(res.Stdout)), nil
}

func (s *Service) Scale(ctx context.Context, replicas uint64) error {
	cmd, err := s.client.prefix(ctx)
	if err != nil {
		return err
	}
	cmd.AppendRaw("scale")
	id, err := s.ID(ctx)
	if err != nil {
		return err
	}
	cmd.Append(id + "=" + argv.Format(int64(replicas)))
	_, err = s.client.run(ctx, cmd)
	if err == nil {
		s.Invalidate()
	}
	return err
}

func (s *Service) Remove(ctx context.Context) error {
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

// Ps lists the tasks belonging to the service as `--quiet --no-trunc` ids.
// It returns the id strings; it does not construct task handles.
func (s *Service) Ps(ctx context.Context) ([]string, error) {
	cmd, err := s.client.prefix(ctx)
	if err != nil {
		return nil, err
	}
	cmd.AppendRaw("ps")
	cmd.AddFlag("--quiet", true)
	cmd.AddFlag("--no-trunc", true)
	id, err := s.ID(ctx)
	if err != nil {
		return nil, err
	}
	cmd.Append(id)
	res, err := s.client.run(ctx, cmd)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, line := range strings.Split(strings.TrimRight(res.Stdout, "\n"), "\n") {
		if line != "" {
			ids = append(ids, line)
		}
	}
	return ids, nil
}

type ListOptions struct {
	Filters map[string]string
}

func (c *Client) List(ctx context.Context, opts ListOptions) ([]*Service, error) {
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
	var out []*Service
	for _, line := range strings.Split(strings.TrimRight(res.Stdout, "\n"), "\n") {
		if line != "" {
			out = append(out, c.FromTrustedID(line))
		}
	}
	return out, nil
}

// Scope removes the service on scope exit (spec §4.G).
func (s *Service) Scope() *entity.Scope {
	return entity.NewScope(func(ctx context.Context) error { return s.Remove(ctx) })
}
