// Package enginectl is a programmable client that drives a host container
// engine (Docker or Podman compatible) by invoking its CLI binary as a
// subprocess and translating its output into typed domain objects.
//
// ClientConfig (spec §3, component I) holds everything needed to compose
// the leading portion of every invocation's argv: which engine binary to
// run, how to reach it (host/context/TLS), and the compose-specific
// settings consumed by the compose subpackage.
package enginectl

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"sync"
	"time"

	"github.com/banksean/enginectl/argv"
	"github.com/banksean/enginectl/dwerr"
	"github.com/banksean/enginectl/entity"
	"github.com/banksean/enginectl/runner"
)

// Engine identifies which CLI family a ClientConfig drives.
type Engine string

const (
	Docker Engine = "docker"
	Podman Engine = "podman"
)

// TLSConfig carries the paths to client TLS material, passed straight
// through to the engine CLI's own --tls* flags (spec §6).
type TLSConfig struct {
	Enabled  bool
	CACert   string
	Cert     string
	Key      string
	Verify   bool
}

// BinaryResolver locates or fetches the engine binary and returns its
// absolute path. Downloading a binary is explicitly out of scope (spec §1);
// this is the seam that capability plugs into.
type BinaryResolver interface {
	Resolve(ctx context.Context) (string, error)
}

// ClientConfig is immutable once constructed (spec §3).
type ClientConfig struct {
	EngineKind Engine

	binaryResolver BinaryResolver
	resolveOnce    sync.Once
	resolvedPath   string
	resolveErr     error

	Host       string
	Context    string
	ConfigPath string
	TLS        TLSConfig

	LogLevel string
	Debug    bool

	ComposeFiles    []string
	ComposeEnvFiles []string
	ComposeProject  string

	ExtraGlobalFlags []string

	CacheValidity time.Duration

	Logger *slog.Logger
	Tracer runner.Tracer
}

// Option configures a ClientConfig at construction time.
type Option func(*ClientConfig)

func WithHost(host string) Option            { return func(c *ClientConfig) { c.Host = host } }
func WithContext(name string) Option         { return func(c *ClientConfig) { c.Context = name } }
func WithConfigPath(path string) Option      { return func(c *ClientConfig) { c.ConfigPath = path } }
func WithDebug(on bool) Option                { return func(c *ClientConfig) { c.Debug = on } }
func WithLogLevel(level string) Option       { return func(c *ClientConfig) { c.LogLevel = level } }
func WithTLS(tls TLSConfig) Option           { return func(c *ClientConfig) { c.TLS = tls } }
func WithComposeFiles(files ...string) Option {
	return func(c *ClientConfig) { c.ComposeFiles = append([]string{}, files...) }
}
func WithComposeEnvFiles(files ...string) Option {
	return func(c *ClientConfig) { c.ComposeEnvFiles = append([]string{}, files...) }
}
func WithComposeProject(name string) Option { return func(c *ClientConfig) { c.ComposeProject = name } }
func WithBinaryResolver(r BinaryResolver) Option {
	return func(c *ClientConfig) { c.binaryResolver = r }
}
func WithLogger(l *slog.Logger) Option { return func(c *ClientConfig) { c.Logger = l } }
func WithTracer(t runner.Tracer) Option { return func(c *ClientConfig) { c.Tracer = t } }

// NewClientConfig constructs a ClientConfig for the given engine, applying
// options in order.
func NewClientConfig(engine Engine, opts ...Option) *ClientConfig {
	c := &ClientConfig{
		EngineKind:    engine,
		CacheValidity: entity.DefaultValidity,
		Logger:        slog.Default(),
	}
	if c.binaryResolver == nil {
		c.binaryResolver = &PathResolver{Engine: engine}
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// BinaryPath returns the resolved absolute engine binary path, memoized
// under a single-flight discipline (spec §5 "Shared-resource policy"):
// concurrent callers race into the same sync.Once and all observe the same
// idempotent result.
func (c *ClientConfig) BinaryPath(ctx context.Context) (string, error) {
	c.resolveOnce.Do(func() {
		c.resolvedPath, c.resolveErr = c.binaryResolver.Resolve(ctx)
	})
	return c.resolvedPath, c.resolveErr
}

// Prefix builds the argv fragment prepended to every invocation: the
// resolved binary path followed by the client's global flags (spec §3
// "command prefix", spec §6 "Argv surface").
func (c *ClientConfig) Prefix(ctx context.Context) (*argv.Command, error) {
	bin, err := c.BinaryPath(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolving engine binary: %w", err)
	}
	cmd := argv.New(bin)
	cmd.AddSimpleArg("--config", c.ConfigPath)
	cmd.AddSimpleArg("--context", c.Context)
	cmd.AddFlag("--debug", c.Debug)
	cmd.AddSimpleArg("--host", c.Host)
	cmd.AddSimpleArg("--log-level", c.LogLevel)
	cmd.AddFlag("--tls", c.TLS.Enabled)
	cmd.AddSimpleArg("--tlscacert", c.TLS.CACert)
	cmd.AddSimpleArg("--tlscert", c.TLS.Cert)
	cmd.AddSimpleArg("--tlskey", c.TLS.Key)
	cmd.AddFlag("--tlsverify", c.TLS.Verify)
	for _, f := range c.ExtraGlobalFlags {
		cmd.AppendRaw(f)
	}
	return cmd, nil
}

// RunnerOptions returns the base runner.Options this client applies to
// every invocation (engine kind, debug flag, and tracer).
func (c *ClientConfig) RunnerOptions() runner.Options {
	return runner.Options{
		Engine: string(c.EngineKind),
		Debug:  c.Debug,
		Tracer: c.Tracer,
	}
}

// Key is the client's logical identity for entity equality (spec §3): two
// handles are equal only if they share the same client_config.
func (c *ClientConfig) Key() string {
	return fmt.Sprintf("%s|%s|%s", c.EngineKind, c.Host, c.Context)
}

// PathResolver locates the engine binary on PATH. Resolve is safe to call
// concurrently; BinaryPath's sync.Once is what actually memoizes it, but
// PathResolver itself performs no caching of its own so it can be reused
// directly by tests.
type PathResolver struct {
	Engine Engine
}

func (p *PathResolver) Resolve(ctx context.Context) (string, error) {
	name := string(p.Engine)
	if name == "" {
		name = "docker"
	}
	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("could not locate %q binary on PATH: %w", name, err)
	}
	return path, nil
}

// CachedDownloadResolver models the external "locate or fetch" collaborator
// described in spec §6. Resolve first looks the engine binary up on PATH;
// if it is not found, it delegates to Downloader (passing Engine, Version
// and CacheDir) when one is configured, and otherwise returns a
// UserInputError. No downloader is built into this package.
type CachedDownloadResolver struct {
	Engine     Engine
	Version    string
	CacheDir   string
	Downloader func(ctx context.Context, engine Engine, version, destDir string) (string, error)
}

func (r *CachedDownloadResolver) Resolve(ctx context.Context) (string, error) {
	if path, err := (&PathResolver{Engine: r.Engine}).Resolve(ctx); err == nil {
		return path, nil
	}
	if r.Downloader == nil {
		return "", &dwerr.UserInputError{Msg: fmt.Sprintf("%s CLI not found and no downloader configured", r.Engine)}
	}
	return r.Downloader(ctx, r.Engine, r.Version, r.CacheDir)
}
