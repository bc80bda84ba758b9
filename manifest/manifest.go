// Package manifest is the manifest-list subcommand wrapper (spec §4.H
// "Manifest"): create, annotate, push, and inspect multi-arch image
// manifest lists.
package manifest

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

// Manifest is a named manifest list under construction or already pushed.
type Manifest struct {
	*entity.Handle[types.ManifestList]
	client *Client
	name   string
}

func (c *Client) prefix(ctx context.Context) (*argv.Command, error) {
	cmd, err := c.cfg.Prefix(ctx)
	if err != nil {
		return nil, err
	}
	cmd.AppendRaw("manifest")
	return cmd, nil
}

func (c *Client) run(ctx context.Context, cmd *argv.Command) (*runner.Result, error) {
	opts := c.cfg.RunnerOptions()
	opts.CaptureStdout = true
	opts.CaptureStderr = true
	opts.Classify = dwerr.Classify
	slog.InfoContext(ctx, "manifest.run", "argv", dwerr.Redact(cmd.Args()))
	res, err := runner.Run(ctx, cmd.Args(), opts)
	if err != nil {
		slog.ErrorContext(ctx, "manifest.run failed", "argv", dwerr.Redact(cmd.Args()), "error", err)
		return nil, err
	}
	return res, nil
}

func (c *Client) inspectOne(ctx context.Context, ref string) (string, *types.ManifestList, error) {
	cmd, err := c.prefix(ctx)
	if err != nil {
		return "", nil, err
	}
	cmd.AppendRaw("inspect").Append(ref)
	res, err := c.run(ctx, cmd)
	if err != nil {
		return "", nil, err
	}
	var list types.ManifestList
	if err := json.Unmarshal([]byte(res.Stdout), &list); err != nil {
		return "", nil, &dwerr.ParseError{Context: "manifest inspect", Cause: err}
	}
	return ref, &list, nil
}

// FromTrustedName builds a zero-cost handle from a manifest list's
// already-known name, e.g. immediately after Create.
func (c *Client) FromTrustedName(name string) *Manifest {
	h := entity.NewTrusted[types.ManifestList](c.cfg.Key(), "Name", name, c.cfg.CacheValidity, c.inspectOne)
	return &Manifest{Handle: h, client: c, name: name}
}

func (c *Client) FromReference(ctx context.Context, ref string) (*Manifest, error) {
	h, err := entity.NewFromReference[types.ManifestList](ctx, c.cfg.Key(), "Name", ref, c.cfg.CacheValidity, c.inspectOne)
	if err != nil {
		return nil, err
	}
	return &Manifest{Handle: h, client: c, name: ref}, nil
}

// Create builds a new manifest list under name from the given image
// references (each must already exist locally or in a registry).
func (c *Client) Create(ctx context.Context, name string, refs []string) (*Manifest, error) {
	cmd, err := c.prefix(ctx)
	if err != nil {
		return nil, err
	}
	cmd.AppendRaw("create").Append(name)
	for _, r := range refs {
		cmd.Append(r)
	}
	if _, err := c.run(ctx, cmd); err != nil {
		return nil, err
	}
	return c.FromTrustedName(name), nil
}

// AnnotateOptions configures `manifest annotate`.
type AnnotateOptions struct {
	Arch     string
	OS       string
	Variant  string
	OSFeatures []string
}

func (m *Manifest) Annotate(ctx context.Context, ref string, opts AnnotateOptions) error {
	cmd, err := m.client.prefix(ctx)
	if err != nil {
		return err
	}
	cmd.AppendRaw("annotate")
	cmd.AddSimpleArg("--arch", opts.Arch)
	cmd.AddSimpleArg("--os", opts.OS)
	cmd.AddSimpleArg("--variant", opts.Variant)
	for _, f := range opts.OSFeatures {
		cmd.Append("--os-features").Append(f)
	}
	cmd.Append(m.name).Append(ref)
	_, err = m.client.run(ctx, cmd)
	if err == nil {
		m.Invalidate()
	}
	return err
}

func (m *Manifest) Push(ctx context.Context, purge bool) (string, error) {
	cmd, err := m.client.prefix(ctx)
	if err != nil {
		return "", err
	}
	cmd.AppendRaw("push")
	cmd.AddFlag("--purge", purge)
	cmd.Append(m.name)
	res, err := m.client.run(ctx, cmd)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(res.Stdout), nil
}

// Remove runs `manifest rm` on the manifest list; Scope calls it on scope
// exit (spec §4.G).
func (m *Manifest) Remove(ctx context.Context) error {
	cmd, err := m.client.prefix(ctx)
	if err != nil {
		return err
	}
	cmd.AppendRaw("rm").Append(m.name)
	_, err = m.client.run(ctx, cmd)
	return err
}

func (m *Manifest) Scope() *entity.Scope {
	return entity.NewScope(func(ctx context.Context) error { return m.Remove(ctx) })
}
