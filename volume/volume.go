// Package volume is the volume subcommand wrapper (spec §4.H "Volume").
package volume

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/banksean/enginectl"
	"github.com/banksean/enginectl/argv"
	"github.com/banksean/enginectl/container"
	"github.com/banksean/enginectl/dwerr"
	"github.com/banksean/enginectl/entity"
	"github.com/banksean/enginectl/runner"
	"github.com/banksean/enginectl/types"
)

type Client struct {
	cfg *enginectl.ClientConfig
}

func New(cfg *enginectl.ClientConfig) *Client { return &Client{cfg: cfg} }

type Volume struct {
	*entity.Handle[types.Volume]
	client *Client
}

func (c *Client) prefix(ctx context.Context) (*argv.Command, error) {
	cmd, err := c.cfg.Prefix(ctx)
	if err != nil {
		return nil, err
	}
	cmd.AppendRaw("volume")
	return cmd, nil
}

func (c *Client) run(ctx context.Context, cmd *argv.Command) (*runner.Result, error) {
	opts := c.cfg.RunnerOptions()
	opts.CaptureStdout = true
	opts.CaptureStderr = true
	opts.Classify = dwerr.Classify
	slog.InfoContext(ctx, "volume.run", "argv", dwerr.Redact(cmd.Args()))
	res, err := runner.Run(ctx, cmd.Args(), opts)
	if err != nil {
		slog.ErrorContext(ctx, "volume.run failed", "argv", dwerr.Redact(cmd.Args()), "error", err)
		return nil, err
	}
	return res, nil
}

func (c *Client) inspectOne(ctx context.Context, ref string) (string, *types.Volume, error) {
	cmd, err := c.prefix(ctx)
	if err != nil {
		return "", nil, err
	}
	cmd.AppendRaw("inspect").Append(ref)
	res, err := c.run(ctx, cmd)
	if err != nil {
		return "", nil, err
	}
	var items []types.Volume
	if err := json.Unmarshal([]byte(res.Stdout), &items); err != nil {
		return "", nil, &dwerr.ParseError{Context: "volume inspect", Cause: err}
	}
	if len(items) == 0 {
		return "", nil, &dwerr.NoSuchVolume{EngineError: &dwerr.EngineError{Argv: cmd.Args()}}
	}
	return items[0].Name, &items[0], nil
}

func (c *Client) BulkInspect(ctx context.Context, names []string) ([]*types.Volume, error) {
	if len(names) == 0 {
		return nil, nil
	}
	cmd, err := c.prefix(ctx)
	if err != nil {
		return nil, err
	}
	cmd.AppendRaw("inspect")
	for _, n := range names {
		cmd.Append(n)
	}
	res, err := c.run(ctx, cmd)
	if err != nil {
		return nil, err
	}
	var items []types.Volume
	if err := json.Unmarshal([]byte(res.Stdout), &items); err != nil {
		return nil, &dwerr.ParseError{Context: "volume inspect (bulk)", Cause: err}
	}
	out := make([]*types.Volume, len(items))
	for i := range items {
		out[i] = &items[i]
	}
	return out, nil
}

func (c *Client) FromTrustedName(name string) *Volume {
	h := entity.NewTrusted[types.Volume](c.cfg.Key(), "Name", name, c.cfg.CacheValidity, c.inspectOne)
	return &Volume{Handle: h, client: c}
}

func (c *Client) FromReference(ctx context.Context, ref string) (*Volume, error) {
	h, err := entity.NewFromReference[types.Volume](ctx, c.cfg.Key(), "Name", ref, c.cfg.CacheValidity, c.inspectOne)
	if err != nil {
		return nil, err
	}
	return &Volume{Handle: h, client: c}, nil
}

// CreateOptions configures `volume create`.
type CreateOptions struct {
	Name    string
	Driver  string
	Labels  map[string]string
	Options map[string]string
}

func (c *Client) Create(ctx context.Context, opts CreateOptions) (*Volume, error) {
	cmd, err := c.prefix(ctx)
	if err != nil {
		return nil, err
	}
	cmd.AppendRaw("create")
	cmd.AddSimpleArg("--driver", opts.Driver)
	cmd.AddArgsMapping("--label", opts.Labels)
	cmd.AddArgsMapping("--opt", opts.Options)
	if opts.Name != "" {
		cmd.Append(opts.Name)
	}
	res, err := c.run(ctx, cmd)
	if err != nil {
		return nil, err
	}
	return c.FromTrustedName(strings.TrimSpace(res.Stdout)), nil
}

// Remove removes the volume (no-op on an empty selection per the caller).
func (v *Volume) Remove(ctx context.Context, force bool) error {
	cmd, err := v.client.prefix(ctx)
	if err != nil {
		return err
	}
	cmd.AppendRaw("rm")
	cmd.AddFlag("--force", force)
	name, err := v.ID(ctx)
	if err != nil {
		return err
	}
	cmd.Append(name)
	_, err = v.client.run(ctx, cmd)
	return err
}

// ListOptions configures `volume list`.
type ListOptions struct {
	Filters map[string]string
}

func (c *Client) List(ctx context.Context, opts ListOptions) ([]*Volume, error) {
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
	var out []*Volume
	for _, line := range strings.Split(strings.TrimRight(res.Stdout, "\n"), "\n") {
		if line != "" {
			out = append(out, c.FromTrustedName(line))
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

// Scope removes the volume on scope exit (spec §4.G).
func (v *Volume) Scope() *entity.Scope {
	return entity.NewScope(func(ctx context.Context) error {
		return v.Remove(ctx, true)
	})
}

// CopyToVolume copies localSrc into the volume at pathInVolume by mounting
// it into a one-shot helper container and using container `copy` against it
// (spec §4.H "Volume copy"); the helper image is never built by this system
// so callers must supply one capable of an idle foreground command.
func (c *Client) CopyToVolume(ctx context.Context, vol *Volume, helperImage, localSrc, pathInVolume string) error {
	return c.copyVia(ctx, vol, helperImage, func(cc *container.Client, helper *container.Container) error {
		return helper.Copy(ctx,
			container.CopyEndpoint{Path: localSrc},
			container.CopyEndpoint{Container: helper, Path: pathInVolume},
		)
	})
}

// CopyFromVolume is the inverse of CopyToVolume.
func (c *Client) CopyFromVolume(ctx context.Context, vol *Volume, helperImage, pathInVolume, localDest string) error {
	return c.copyVia(ctx, vol, helperImage, func(cc *container.Client, helper *container.Container) error {
		return helper.Copy(ctx,
			container.CopyEndpoint{Container: helper, Path: pathInVolume},
			container.CopyEndpoint{Path: localDest},
		)
	})
}

func (c *Client) copyVia(ctx context.Context, vol *Volume, helperImage string, body func(*container.Client, *container.Container) error) error {
	name, err := vol.ID(ctx)
	if err != nil {
		return err
	}
	cc := container.New(c.cfg)
	helper, err := cc.Create(ctx, helperImage, container.CreateOptions{
		Volumes: []argv.MountTriple{{Source: name, Destination: "/mnt/" + name}},
	})
	if err != nil {
		return err
	}
	defer helper.Remove(ctx, true, false)
	return body(cc, helper)
}
