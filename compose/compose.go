// Package compose is the higher-level compose-project subcommand wrapper
// (spec §4.H "Compose", §3 component J): bring-up, tear-down, and related
// operations layered over a ClientConfig's configured compose/env files.
package compose

import (
	"context"
	"log/slog"
	"strings"

	"github.com/banksean/enginectl"
	"github.com/banksean/enginectl/argv"
	"github.com/banksean/enginectl/dwerr"
	"github.com/banksean/enginectl/runner"
	"github.com/banksean/enginectl/stream"
	"gopkg.in/yaml.v3"
)

type Client struct {
	cfg *enginectl.ClientConfig
}

func New(cfg *enginectl.ClientConfig) *Client { return &Client{cfg: cfg} }

// prefix builds the compose argv fragment: the client command prefix plus
// "compose", plus --file/--env-file per configured file, plus
// --project-name if one was configured (spec §4.H).
func (c *Client) prefix(ctx context.Context) (*argv.Command, error) {
	cmd, err := c.cfg.Prefix(ctx)
	if err != nil {
		return nil, err
	}
	cmd.AppendRaw("compose")
	for _, f := range c.cfg.ComposeFiles {
		cmd.AddSimpleArg("--file", f)
	}
	for _, f := range c.cfg.ComposeEnvFiles {
		cmd.AddSimpleArg("--env-file", f)
	}
	cmd.AddSimpleArg("--project-name", c.cfg.ComposeProject)
	return cmd, nil
}

func (c *Client) run(ctx context.Context, cmd *argv.Command) (*runner.Result, error) {
	opts := c.cfg.RunnerOptions()
	opts.CaptureStdout = true
	opts.CaptureStderr = true
	opts.Classify = dwerr.Classify
	slog.InfoContext(ctx, "compose.run", "argv", dwerr.Redact(cmd.Args()))
	res, err := runner.Run(ctx, cmd.Args(), opts)
	if err != nil {
		slog.ErrorContext(ctx, "compose.run failed", "argv", dwerr.Redact(cmd.Args()), "error", err)
		return nil, err
	}
	return res, nil
}

// UpOptions configures `compose up`.
type UpOptions struct {
	Detach  bool
	Build   bool
	Remove  bool // --remove-orphans
	Services []string
}

func (c *Client) Up(ctx context.Context, opts UpOptions) error {
	cmd, err := c.prefix(ctx)
	if err != nil {
		return err
	}
	cmd.AppendRaw("up")
	cmd.AddFlag("--detach", opts.Detach)
	cmd.AddFlag("--build", opts.Build)
	cmd.AddFlag("--remove-orphans", opts.Remove)
	for _, s := range opts.Services {
		cmd.Append(s)
	}
	_, err = c.run(ctx, cmd)
	return err
}

// DownOptions configures `compose down`.
type DownOptions struct {
	Volumes bool
	RemoveImages string // "all" | "local" | ""
}

func (c *Client) Down(ctx context.Context, opts DownOptions) error {
	cmd, err := c.prefix(ctx)
	if err != nil {
		return err
	}
	cmd.AppendRaw("down")
	cmd.AddFlag("--volumes", opts.Volumes)
	cmd.AddSimpleArg("--rmi", opts.RemoveImages)
	_, err = c.run(ctx, cmd)
	return err
}

func (c *Client) Build(ctx context.Context, services []string) error {
	cmd, err := c.prefix(ctx)
	if err != nil {
		return err
	}
	cmd.AppendRaw("build")
	for _, s := range services {
		cmd.Append(s)
	}
	_, err = c.run(ctx, cmd)
	return err
}

func (c *Client) Create(ctx context.Context, services []string) error {
	cmd, err := c.prefix(ctx)
	if err != nil {
		return err
	}
	cmd.AppendRaw("create")
	for _, s := range services {
		cmd.Append(s)
	}
	_, err = c.run(ctx, cmd)
	return err
}

// Ps returns the IDs of the project's containers.
func (c *Client) Ps(ctx context.Context, all bool) ([]string, error) {
	cmd, err := c.prefix(ctx)
	if err != nil {
		return nil, err
	}
	cmd.AppendRaw("ps")
	cmd.AddFlag("--all", all)
	cmd.AddFlag("--quiet", true)
	res, err := c.run(ctx, cmd)
	if err != nil {
		return nil, err
	}
	return splitIDLines(res.Stdout), nil
}

func splitIDLines(output string) []string {
	var ids []string
	for _, line := range strings.Split(strings.TrimRight(output, "\n"), "\n") {
		if line != "" {
			ids = append(ids, line)
		}
	}
	return ids
}

func (c *Client) Pull(ctx context.Context, services []string) error {
	cmd, err := c.prefix(ctx)
	if err != nil {
		return err
	}
	cmd.AppendRaw("pull")
	for _, s := range services {
		cmd.Append(s)
	}
	_, err = c.run(ctx, cmd)
	return err
}

func (c *Client) Push(ctx context.Context, services []string) error {
	cmd, err := c.prefix(ctx)
	if err != nil {
		return err
	}
	cmd.AppendRaw("push")
	for _, s := range services {
		cmd.Append(s)
	}
	_, err = c.run(ctx, cmd)
	return err
}

func (c *Client) Pause(ctx context.Context, services []string) error {
	cmd, err := c.prefix(ctx)
	if err != nil {
		return err
	}
	cmd.AppendRaw("pause")
	for _, s := range services {
		cmd.Append(s)
	}
	_, err = c.run(ctx, cmd)
	return err
}

func (c *Client) Unpause(ctx context.Context, services []string) error {
	cmd, err := c.prefix(ctx)
	if err != nil {
		return err
	}
	cmd.AppendRaw("unpause")
	for _, s := range services {
		cmd.Append(s)
	}
	_, err = c.run(ctx, cmd)
	return err
}

func (c *Client) Kill(ctx context.Context, signal string, services []string) error {
	cmd, err := c.prefix(ctx)
	if err != nil {
		return err
	}
	cmd.AppendRaw("kill")
	cmd.AddSimpleArg("--signal", argv.Signal(signal))
	for _, s := range services {
		cmd.Append(s)
	}
	_, err = c.run(ctx, cmd)
	return err
}

// LogsOptions configures `compose logs`.
type LogsOptions struct {
	Follow     bool
	Tail       string
	Timestamps bool
	Services   []string
}

func (c *Client) Logs(ctx context.Context, opts LogsOptions) (*stream.Reader, string, error) {
	cmd, err := c.prefix(ctx)
	if err != nil {
		return nil, "", err
	}
	cmd.AppendRaw("logs")
	cmd.AddFlag("--timestamps", opts.Timestamps)
	cmd.AddSimpleArg("--tail", opts.Tail)
	for _, s := range opts.Services {
		cmd.Append(s)
	}
	if opts.Follow {
		cmd.AddFlag("--follow", true)
		r, err := stream.Start(ctx, cmd.Args(), stream.Options{Engine: string(c.cfg.EngineKind), Debug: c.cfg.Debug})
		return r, "", err
	}
	res, err := c.run(ctx, cmd)
	if err != nil {
		return nil, "", err
	}
	return nil, res.Stdout, nil
}

// Project is the parsed compose configuration (spec §4.H "config parses
// into a typed record").
type Project struct {
	Name     string                 `yaml:"name"`
	Services map[string]ServiceSpec `yaml:"services"`
	Volumes  map[string]any         `yaml:"volumes"`
	Networks map[string]any         `yaml:"networks"`
}

type ServiceSpec struct {
	Image       string            `yaml:"image"`
	Build       any               `yaml:"build"`
	Command     []string          `yaml:"command"`
	Environment map[string]string `yaml:"environment"`
	Ports       []string          `yaml:"ports"`
	Volumes     []string          `yaml:"volumes"`
	DependsOn   []string          `yaml:"depends_on"`
}

// Config resolves the project configuration. With returnJSON it returns
// the raw `--format json` output unparsed; otherwise it parses compose's
// default YAML rendering into Project (spec §4.H).
func (c *Client) Config(ctx context.Context, returnJSON bool) (*Project, string, error) {
	cmd, err := c.prefix(ctx)
	if err != nil {
		return nil, "", err
	}
	cmd.AppendRaw("config")
	if returnJSON {
		cmd.AddSimpleArg("--format", "json")
	}
	res, err := c.run(ctx, cmd)
	if err != nil {
		return nil, "", err
	}
	if returnJSON {
		return nil, res.Stdout, nil
	}
	var p Project
	if err := yaml.Unmarshal([]byte(res.Stdout), &p); err != nil {
		return nil, "", &dwerr.ParseError{Context: "compose config", Cause: err}
	}
	return &p, "", nil
}

func (c *Client) Version(ctx context.Context) (string, error) {
	cmd, err := c.prefix(ctx)
	if err != nil {
		return "", err
	}
	cmd.AppendRaw("version")
	res, err := c.run(ctx, cmd)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(res.Stdout), nil
}

func (c *Client) IsInstalled(ctx context.Context) bool {
	_, err := c.Version(ctx)
	return err == nil
}

// Run executes a one-off command against service, analogous to `docker
// compose run`.
func (c *Client) Run(ctx context.Context, service string, command []string, removeAfter bool) (string, error) {
	cmd, err := c.prefix(ctx)
	if err != nil {
		return "", err
	}
	cmd.AppendRaw("run")
	cmd.AddFlag("--rm", removeAfter)
	cmd.Append(service)
	for _, tok := range command {
		cmd.Append(tok)
	}
	res, err := c.run(ctx, cmd)
	if err != nil {
		return "", err
	}
	return res.Stdout, nil
}
