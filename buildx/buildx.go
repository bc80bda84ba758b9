// Package buildx is the buildx subcommand wrapper (spec §4.H "Buildx").
package buildx

import (
	"context"
	"encoding/json"
	"log/slog"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/banksean/enginectl"
	"github.com/banksean/enginectl/argv"
	"github.com/banksean/enginectl/dwerr"
	"github.com/banksean/enginectl/image"
	"github.com/banksean/enginectl/runner"
	"github.com/banksean/enginectl/stream"
	"github.com/banksean/enginectl/types"
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
	cmd.AppendRaw("buildx")
	return cmd, nil
}

func (c *Client) run(ctx context.Context, cmd *argv.Command) (*runner.Result, error) {
	opts := c.cfg.RunnerOptions()
	opts.CaptureStdout = true
	opts.CaptureStderr = true
	opts.Classify = dwerr.Classify
	slog.InfoContext(ctx, "buildx.run", "argv", dwerr.Redact(cmd.Args()))
	res, err := runner.Run(ctx, cmd.Args(), opts)
	if err != nil {
		slog.ErrorContext(ctx, "buildx.run failed", "argv", dwerr.Redact(cmd.Args()), "error", err)
		return nil, err
	}
	return res, nil
}

// kvJoin serializes a dict arg as comma-joined k=v with no spaces (spec §6:
// "Build's --output and --cache-* dict forms serialize as comma-joined k=v
// with no spaces").
func kvJoin(m map[string]string) string {
	parts := make([]string, 0, len(m))
	for _, k := range slices.Sorted(maps.Keys(m)) {
		parts = append(parts, k+"="+m[k])
	}
	return strings.Join(parts, ",")
}

// BuildOptions configures `buildx build`.
type BuildOptions struct {
	Dockerfile string
	BuildArgs  map[string]string
	Load       bool
	Push       bool
	Output     map[string]string
	CacheFrom  []map[string]string
	CacheTo    []map[string]string
	Secrets    []string
	Tags       []string
	Target     string
	Platforms  []string
	Progress   string
	StreamLogs bool
}

func (o BuildOptions) apply(cmd *argv.Command) {
	cmd.AddSimpleArg("--file", o.Dockerfile)
	cmd.AddArgsMapping("--build-arg", o.BuildArgs)
	cmd.AddFlag("--load", o.Load)
	cmd.AddFlag("--push", o.Push)
	if len(o.Output) > 0 {
		cmd.AddSimpleArg("--output", kvJoin(o.Output))
	}
	for _, m := range o.CacheFrom {
		cmd.AddSimpleArg("--cache-from", kvJoin(m))
	}
	for _, m := range o.CacheTo {
		cmd.AddSimpleArg("--cache-to", kvJoin(m))
	}
	cmd.AddArgsIterable("--secret", o.Secrets)
	cmd.AddArgsIterable("--tag", o.Tags)
	cmd.AddSimpleArg("--target", o.Target)
	if len(o.Platforms) > 0 {
		cmd.AddSimpleArg("--platform", strings.Join(o.Platforms, ","))
	}
	cmd.AddSimpleArg("--progress", o.Progress)
}

// IsLoadable determines whether a build's result will be loadable into the
// local engine, given the builder driver backing the current builder (spec
// §4.H "build determines whether an image will be loadable locally").
func (o BuildOptions) IsLoadable(builderDriver string) bool {
	if o.Load {
		return true
	}
	if o.Push {
		return false
	}
	if len(o.Output) > 0 {
		return o.Output["type"] == "docker" && o.Output["dest"] == ""
	}
	return builderDriver == "docker"
}

// BuildResult carries the built image handle when loadable, or nil when
// not (e.g. a registry push or a non-docker exporter without a local tag).
type BuildResult struct {
	Image *image.Image
	Logs  *stream.Reader
}

// Build runs `buildx build` against buildContext and, when the result is
// loadable, acquires the resulting image handle: the "docker" driver uses
// an iidfile; any other driver inspects the first tag (spec §4.H).
func (c *Client) Build(ctx context.Context, buildContext string, opts BuildOptions, builderDriver string) (*BuildResult, error) {
	cmd, err := c.prefix(ctx)
	if err != nil {
		return nil, err
	}
	cmd.AppendRaw("build")
	opts.apply(cmd)

	loadable := opts.IsLoadable(builderDriver)
	var iidfile string
	if loadable && builderDriver == "docker" {
		f, err := os.CreateTemp("", "enginectl-iid-*")
		if err != nil {
			return nil, err
		}
		iidfile = f.Name()
		f.Close()
		cmd.AddSimpleArg("--iidfile", iidfile)
	}
	cmd.Append(buildContext)

	if opts.StreamLogs {
		r, err := stream.Start(ctx, cmd.Args(), stream.Options{Engine: string(c.cfg.EngineKind), Debug: c.cfg.Debug})
		if err != nil {
			return nil, err
		}
		return &BuildResult{Logs: r}, nil
	}

	if _, err := c.run(ctx, cmd); err != nil {
		return nil, err
	}
	if !loadable {
		return &BuildResult{}, nil
	}

	imgClient := image.New(c.cfg)
	if builderDriver == "docker" {
		idBytes, err := os.ReadFile(iidfile)
		if err != nil {
			return nil, err
		}
		os.Remove(iidfile)
		img, err := imgClient.FromReference(ctx, strings.TrimSpace(string(idBytes)))
		if err != nil {
			return nil, err
		}
		return &BuildResult{Image: img}, nil
	}
	if len(opts.Tags) == 0 {
		return &BuildResult{}, nil
	}
	img, err := imgClient.FromReference(ctx, opts.Tags[0])
	if err != nil {
		return nil, err
	}
	return &BuildResult{Image: img}, nil
}

// BakeOptions configures `buildx bake`.
type BakeOptions struct {
	Files      []string
	Set        map[string]string
	Variables  map[string]string
	Print      bool
	Load       bool
	Push       bool
	Progress   string
	StreamLogs bool
}

// BakeResult is the outcome of `bake`: either the parsed print-resolved
// config, or a streaming log iterator.
type BakeResult struct {
	Config json.RawMessage
	Logs   *stream.Reader
}

func (c *Client) bakeCmd(ctx context.Context, targets []string, opts BakeOptions, print bool) (*argv.Command, error) {
	cmd, err := c.prefix(ctx)
	if err != nil {
		return nil, err
	}
	cmd.AppendRaw("bake")
	cmd.AddArgsIterable("--file", opts.Files)
	cmd.AddArgsMapping("--set", opts.Set)
	cmd.AddFlag("--load", opts.Load)
	cmd.AddFlag("--push", opts.Push)
	cmd.AddSimpleArg("--progress", opts.Progress)
	cmd.AddFlag("--print", print)
	for _, t := range targets {
		cmd.Append(t)
	}
	return cmd, nil
}

// Bake runs `buildx bake`. With Print, it returns the resolved config
// without building anything. With StreamLogs, it builds and returns a log
// iterator. Otherwise it builds and then makes a second --print call to
// return the resolved config (spec §4.H "Buildx").
func (c *Client) Bake(ctx context.Context, targets []string, opts BakeOptions) (*BakeResult, error) {
	if opts.Print {
		cmd, err := c.bakeCmd(ctx, targets, opts, true)
		if err != nil {
			return nil, err
		}
		res, err := c.run(ctx, cmd)
		if err != nil {
			return nil, err
		}
		return &BakeResult{Config: json.RawMessage(res.Stdout)}, nil
	}

	if opts.StreamLogs {
		cmd, err := c.bakeCmd(ctx, targets, opts, false)
		if err != nil {
			return nil, err
		}
		r, err := stream.Start(ctx, cmd.Args(), stream.Options{Engine: string(c.cfg.EngineKind), Env: opts.Variables, Debug: c.cfg.Debug})
		if err != nil {
			return nil, err
		}
		return &BakeResult{Logs: r}, nil
	}

	execCmd, err := c.bakeCmd(ctx, targets, opts, false)
	if err != nil {
		return nil, err
	}
	if _, err := c.run(ctx, execCmd); err != nil {
		return nil, err
	}

	printCmd, err := c.bakeCmd(ctx, targets, opts, true)
	if err != nil {
		return nil, err
	}
	res, err := c.run(ctx, printCmd)
	if err != nil {
		return nil, err
	}
	return &BakeResult{Config: json.RawMessage(res.Stdout)}, nil
}

// BuilderClient manages buildx builder instances.
type BuilderClient struct {
	cfg *enginectl.ClientConfig
}

func NewBuilderClient(cfg *enginectl.ClientConfig) *BuilderClient { return &BuilderClient{cfg: cfg} }

func (b *BuilderClient) prefix(ctx context.Context) (*argv.Command, error) {
	cmd, err := b.cfg.Prefix(ctx)
	if err != nil {
		return nil, err
	}
	cmd.AppendRaw("buildx")
	return cmd, nil
}

func (b *BuilderClient) run(ctx context.Context, cmd *argv.Command) (*runner.Result, error) {
	opts := b.cfg.RunnerOptions()
	opts.CaptureStdout = true
	opts.CaptureStderr = true
	opts.Classify = dwerr.Classify
	slog.InfoContext(ctx, "buildx.builder.run", "argv", dwerr.Redact(cmd.Args()))
	res, err := runner.Run(ctx, cmd.Args(), opts)
	if err != nil {
		slog.ErrorContext(ctx, "buildx.builder.run failed", "argv", dwerr.Redact(cmd.Args()), "error", err)
		return nil, err
	}
	return res, nil
}

// CreateOptions configures `buildx create`.
type CreateOptions struct {
	Name   string
	Driver string
	Use    bool
}

func (b *BuilderClient) Create(ctx context.Context, opts CreateOptions) (string, error) {
	cmd, err := b.prefix(ctx)
	if err != nil {
		return "", err
	}
	cmd.AppendRaw("create")
	cmd.AddSimpleArg("--name", opts.Name)
	cmd.AddSimpleArg("--driver", opts.Driver)
	cmd.AddFlag("--use", opts.Use)
	res, err := b.run(ctx, cmd)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(res.Stdout), nil
}

func (b *BuilderClient) Use(ctx context.Context, name string) error {
	cmd, err := b.prefix(ctx)
	if err != nil {
		return err
	}
	cmd.AppendRaw("use").Append(name)
	_, err = b.run(ctx, cmd)
	return err
}

func (b *BuilderClient) Remove(ctx context.Context, name string) error {
	cmd, err := b.prefix(ctx)
	if err != nil {
		return err
	}
	cmd.AppendRaw("rm").Append(name)
	_, err = b.run(ctx, cmd)
	return err
}

func (b *BuilderClient) List(ctx context.Context) (string, error) {
	cmd, err := b.prefix(ctx)
	if err != nil {
		return "", err
	}
	cmd.AppendRaw("ls")
	res, err := b.run(ctx, cmd)
	if err != nil {
		return "", err
	}
	return res.Stdout, nil
}

// Inspect parses `buildx inspect`'s textual output (spec §4.F) for the
// named builder, or the current builder if name is empty.
func (b *BuilderClient) Inspect(ctx context.Context, name string) (types.Builder, error) {
	cmd, err := b.prefix(ctx)
	if err != nil {
		return types.Builder{}, err
	}
	cmd.AppendRaw("inspect")
	if name != "" {
		cmd.Append(name)
	}
	res, err := b.run(ctx, cmd)
	if err != nil {
		return types.Builder{}, err
	}
	return types.ParseBuilder(res.Stdout), nil
}

// Driver returns just the driver of the named (or current) builder; a thin
// convenience over Inspect used by Build to decide loadability.
func (b *BuilderClient) Driver(ctx context.Context, name string) (string, error) {
	builder, err := b.Inspect(ctx, name)
	if err != nil {
		return "", err
	}
	return builder.Driver, nil
}

func (b *BuilderClient) Prune(ctx context.Context, all bool, filters map[string]string, streamLogs bool) (*stream.Reader, string, error) {
	cmd, err := b.prefix(ctx)
	if err != nil {
		return nil, "", err
	}
	cmd.AppendRaw("prune")
	cmd.AddFlag("--all", all)
	cmd.AddFlag("--force", true)
	cmd.AddArgsMapping("--filter", filters)
	if streamLogs {
		r, err := stream.Start(ctx, cmd.Args(), stream.Options{Engine: string(b.cfg.EngineKind), Debug: b.cfg.Debug})
		return r, "", err
	}
	res, err := b.run(ctx, cmd)
	if err != nil {
		return nil, "", err
	}
	return nil, res.Stdout, nil
}

func (b *BuilderClient) Version(ctx context.Context) (string, error) {
	cmd, err := b.prefix(ctx)
	if err != nil {
		return "", err
	}
	cmd.AppendRaw("version")
	res, err := b.run(ctx, cmd)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(res.Stdout), nil
}

func (b *BuilderClient) IsInstalled(ctx context.Context) bool {
	_, err := b.Version(ctx)
	return err == nil
}
