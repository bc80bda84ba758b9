// Package container is the container subcommand wrapper (spec §4.H
// "Container"): a thin composition over the arg builder, process runner,
// stream reader, error taxonomy, and entity façade for one container
// object.
package container

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/goombaio/namegenerator"

	"github.com/banksean/enginectl"
	"github.com/banksean/enginectl/argv"
	"github.com/banksean/enginectl/dwerr"
	"github.com/banksean/enginectl/entity"
	"github.com/banksean/enginectl/runner"
	"github.com/banksean/enginectl/stream"
	"github.com/banksean/enginectl/types"
)

// generateName mints a Docker-style random name ("goofy_turing") for
// create/run calls that didn't supply one, the same way cmd/sand's NewCmd
// seeds namegenerator off the current time.
func generateName() string {
	seed := time.Now().UTC().UnixNano()
	return namegenerator.NewNameGenerator(seed).Generate()
}

// Client composes container operations against one engine.
type Client struct {
	cfg *enginectl.ClientConfig
}

// New returns a container Client bound to cfg.
func New(cfg *enginectl.ClientConfig) *Client {
	return &Client{cfg: cfg}
}

// Container is a reloadable handle over one engine container (spec §3
// Entity, §4.G).
type Container struct {
	*entity.Handle[types.Container]
	client *Client
}

func (c *Client) prefix(ctx context.Context) (*argv.Command, error) {
	cmd, err := c.cfg.Prefix(ctx)
	if err != nil {
		return nil, err
	}
	cmd.AppendRaw("container")
	return cmd, nil
}

func (c *Client) run(ctx context.Context, cmd *argv.Command, classify runner.ClassifyFunc) (*runner.Result, error) {
	opts := c.cfg.RunnerOptions()
	opts.CaptureStdout = true
	opts.CaptureStderr = true
	opts.Classify = classify
	slog.InfoContext(ctx, "container.run", "argv", dwerr.Redact(cmd.Args()))
	res, err := runner.Run(ctx, cmd.Args(), opts)
	if err != nil {
		slog.ErrorContext(ctx, "container.run failed", "argv", dwerr.Redact(cmd.Args()), "error", err)
		return nil, err
	}
	return res, nil
}

func (c *Client) inspectOne(ctx context.Context, ref string) (string, *types.Container, error) {
	cmd, err := c.prefix(ctx)
	if err != nil {
		return "", nil, err
	}
	cmd.AppendRaw("inspect").Append(ref)
	res, err := c.run(ctx, cmd, dwerr.Classify)
	if err != nil {
		return "", nil, err
	}
	var items []types.Container
	if err := json.Unmarshal([]byte(res.Stdout), &items); err != nil {
		return "", nil, &dwerr.ParseError{Context: "container inspect", Cause: err}
	}
	if len(items) == 0 {
		return "", nil, &dwerr.NoSuchContainer{EngineError: &dwerr.EngineError{Argv: cmd.Args()}}
	}
	return items[0].ID, &items[0], nil
}

// BulkInspect resolves many ids in a single inspect call (spec §4.E
// bulk_reload).
func (c *Client) BulkInspect(ctx context.Context, ids []string) ([]*types.Container, error) {
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
	res, err := c.run(ctx, cmd, dwerr.Classify)
	if err != nil {
		return nil, err
	}
	var items []types.Container
	if err := json.Unmarshal([]byte(res.Stdout), &items); err != nil {
		return nil, &dwerr.ParseError{Context: "container inspect (bulk)", Cause: err}
	}
	out := make([]*types.Container, len(items))
	for i := range items {
		out[i] = &items[i]
	}
	return out, nil
}

// FromTrustedID wraps an id the caller vouches for (e.g. just returned by
// `run`/`create`) without an immediate inspect call (spec §3
// "is_immutable_id").
func (c *Client) FromTrustedID(id string) *Container {
	h := entity.NewTrusted[types.Container](c.cfg.Key(), "Id", id, c.cfg.CacheValidity, c.inspectOne)
	return &Container{Handle: h, client: c}
}

// FromReference resolves ref (name or id) via an inspect call to obtain the
// canonical id (spec §3 untrusted construction).
func (c *Client) FromReference(ctx context.Context, ref string) (*Container, error) {
	h, err := entity.NewFromReference[types.Container](ctx, c.cfg.Key(), "Id", ref, c.cfg.CacheValidity, c.inspectOne)
	if err != nil {
		return nil, err
	}
	return &Container{Handle: h, client: c}, nil
}

// Exists reports whether the container is still resolvable, treating
// NoSuchContainer as false and re-raising any other error (spec §4.D
// propagation rule, §7.2).
func (cnt *Container) Exists(ctx context.Context) (bool, error) {
	_, err := cnt.Inspect(ctx)
	if err == nil {
		return true, nil
	}
	var nsc *dwerr.NoSuchContainer
	if errors.As(err, &nsc) {
		return false, nil
	}
	return false, err
}

// CreateOptions configures `container create`/`run`.
type CreateOptions struct {
	Name       string
	Command    []string
	Env        map[string]string
	EnvFiles   []string
	Labels     map[string]string
	Volumes    []argv.MountTriple
	Publish    []argv.PortMapping
	AddHosts   []argv.AddHost
	WorkDir    string
	User       string
	Privileged bool
	TTY        bool
	Interactive bool
	Detach     bool
	Remove     bool
	Networks   []string
	Entrypoint []string
}

func (o CreateOptions) apply(cmd *argv.Command, image string) *argv.Command {
	cmd.AddSimpleArg("--name", o.Name)
	cmd.AddArgsMapping("--env", o.Env)
	cmd.AddArgsIterable("--env-file", o.EnvFiles)
	cmd.AddArgsMapping("--label", o.Labels)
	for _, v := range o.Volumes {
		cmd.AddSimpleArg("--volume", v.String())
	}
	for _, p := range o.Publish {
		cmd.AddSimpleArg("--publish", p.String())
	}
	for _, h := range o.AddHosts {
		cmd.AddSimpleArg("--add-host", h.String())
	}
	cmd.AddSimpleArg("--workdir", o.WorkDir)
	cmd.AddSimpleArg("--user", o.User)
	cmd.AddFlag("--privileged", o.Privileged)
	cmd.AddFlag("--tty", o.TTY)
	cmd.AddFlag("--interactive", o.Interactive)
	cmd.AddFlag("--rm", o.Remove)
	cmd.AddArgsIterable("--network", o.Networks)
	if len(o.Entrypoint) > 0 {
		cmd.AddSimpleArg("--entrypoint", o.Entrypoint[0])
	}
	cmd.Append(image)
	for _, tok := range o.Command {
		cmd.Append(tok)
	}
	return cmd
}

// Create builds but does not start a container (spec §4.H Container
// create).
func (c *Client) Create(ctx context.Context, image string, opts CreateOptions) (*Container, error) {
	if opts.Name == "" {
		opts.Name = generateName()
	}
	cmd, err := c.prefix(ctx)
	if err != nil {
		return nil, err
	}
	cmd.AppendRaw("create")
	opts.apply(cmd, image)
	res, err := c.run(ctx, cmd, dwerr.Classify)
	if err != nil {
		return nil, err
	}
	return c.FromTrustedID(strings.TrimSpace(res.Stdout)), nil
}

// RunResult is the outcome of `container run` in one of its three
// incompatible modes (spec §4.H: detach, foreground capture, streaming).
type RunResult struct {
	Handle *Container // set iff Detach
	Output string      // set iff !Detach && !Stream
	Frames *stream.Reader // set iff Stream
}

// Run composes `container run` (spec §4.H): detach=true returns a handle
// built from the trusted id printed to stdout; detach=false returns the
// captured stdout, or a frame iterator when streamOutput is true.
// Stream is incompatible with Detach and TTY (spec §4.H).
func (c *Client) Run(ctx context.Context, image string, opts CreateOptions, streamOutput bool) (*RunResult, error) {
	if streamOutput && (opts.Detach || opts.TTY) {
		return nil, &dwerr.UserInputError{Msg: "stream=true is incompatible with detach=true or tty=true"}
	}
	if opts.Name == "" {
		opts.Name = generateName()
	}
	cmd, err := c.prefix(ctx)
	if err != nil {
		return nil, err
	}
	cmd.AppendRaw("run")
	cmd.AddFlag("--detach", opts.Detach)
	opts.apply(cmd, image)

	if streamOutput {
		r, err := stream.Start(ctx, cmd.Args(), stream.Options{Engine: string(c.cfg.EngineKind), Debug: c.cfg.Debug})
		if err != nil {
			return nil, err
		}
		return &RunResult{Frames: r}, nil
	}

	res, err := c.run(ctx, cmd, dwerr.Classify)
	if err != nil {
		return nil, err
	}
	if opts.Detach {
		return &RunResult{Handle: c.FromTrustedID(strings.TrimSpace(res.Stdout))}, nil
	}
	return &RunResult{Output: res.Stdout}, nil
}

func (cnt *Container) mutate(ctx context.Context, verb string, extra func(*argv.Command)) error {
	cmd, err := cnt.client.prefix(ctx)
	if err != nil {
		return err
	}
	cmd.AppendRaw(verb)
	if extra != nil {
		extra(cmd)
	}
	id, err := cnt.ID(ctx)
	if err != nil {
		return err
	}
	cmd.Append(id)
	_, err = cnt.client.run(ctx, cmd, dwerr.Classify)
	if err == nil {
		cnt.Invalidate()
	}
	return err
}

func (cnt *Container) Start(ctx context.Context) error { return cnt.mutate(ctx, "start", nil) }
func (cnt *Container) Stop(ctx context.Context) error  { return cnt.mutate(ctx, "stop", nil) }
func (cnt *Container) Kill(ctx context.Context, signal string) error {
	return cnt.mutate(ctx, "kill", func(cmd *argv.Command) {
		cmd.AddSimpleArg("--signal", argv.Signal(signal))
	})
}
func (cnt *Container) Pause(ctx context.Context) error   { return cnt.mutate(ctx, "pause", nil) }
func (cnt *Container) Unpause(ctx context.Context) error { return cnt.mutate(ctx, "unpause", nil) }
func (cnt *Container) Restart(ctx context.Context, timeout time.Duration) error {
	return cnt.mutate(ctx, "restart", func(cmd *argv.Command) {
		if timeout > 0 {
			cmd.AddSimpleArg("--time", argv.Seconds(timeout))
		}
	})
}
func (cnt *Container) Init(ctx context.Context) error { return cnt.mutate(ctx, "init", nil) }

// Remove removes the container (spec §4.H `remove(force, volumes)`).
func (cnt *Container) Remove(ctx context.Context, force, volumes bool) error {
	return cnt.mutate(ctx, "rm", func(cmd *argv.Command) {
		cmd.AddFlag("--force", force)
		cmd.AddFlag("--volumes", volumes)
	})
}

// Rename changes the container's name.
func (cnt *Container) Rename(ctx context.Context, newName string) error {
	return cnt.mutate(ctx, "rename", func(cmd *argv.Command) { cmd.Append(newName) })
}

// CommitOptions configures `container commit`.
type CommitOptions struct {
	Tag     string
	Author  string
	Message string
	Pause   bool
}

// Commit snapshots the container into a new image, returning its id.
func (cnt *Container) Commit(ctx context.Context, opts CommitOptions) (string, error) {
	cmd, err := cnt.client.prefix(ctx)
	if err != nil {
		return "", err
	}
	cmd.AppendRaw("commit")
	cmd.AddSimpleArg("--author", opts.Author)
	cmd.AddSimpleArg("--message", opts.Message)
	cmd.AddFlag("--pause", opts.Pause)
	id, err := cnt.ID(ctx)
	if err != nil {
		return "", err
	}
	cmd.Append(id)
	if opts.Tag != "" {
		cmd.Append(opts.Tag)
	}
	res, err := cnt.client.run(ctx, cmd, dwerr.Classify)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(res.Stdout), nil
}

// Diff reports filesystem changes since creation (spec §8 scenario 4):
// path -> "A" (added), "C" (changed), or "D" (deleted).
func (cnt *Container) Diff(ctx context.Context) (map[string]string, error) {
	cmd, err := cnt.client.prefix(ctx)
	if err != nil {
		return nil, err
	}
	cmd.AppendRaw("diff")
	id, err := cnt.ID(ctx)
	if err != nil {
		return nil, err
	}
	cmd.Append(id)
	res, err := cnt.client.run(ctx, cmd, dwerr.Classify)
	if err != nil {
		return nil, err
	}
	return parseDiffOutput(res.Stdout), nil
}

// parseDiffOutput parses `container diff`'s "<kind> <path>" lines into a
// path -> kind map (spec §8 scenario 4).
func parseDiffOutput(output string) map[string]string {
	out := map[string]string{}
	for _, line := range strings.Split(strings.TrimRight(output, "\n"), "\n") {
		if line == "" {
			continue
		}
		kind, path, ok := strings.Cut(line, " ")
		if !ok {
			continue
		}
		out[path] = kind
	}
	return out
}

// CopyEndpoint normalizes one side of a `container cp` invocation (spec
// §4.H: "-" for bytes, "ctr:path" for container/path pairs, a local path
// otherwise).
type CopyEndpoint struct {
	Container *Container
	Path      string
	Bytes     bool
}

func (e CopyEndpoint) String(ctx context.Context) (string, error) {
	if e.Bytes {
		return "-", nil
	}
	if e.Container != nil {
		id, err := e.Container.ID(ctx)
		if err != nil {
			return "", err
		}
		return id + ":" + e.Path, nil
	}
	return e.Path, nil
}

// Copy copies files between a container and the local filesystem or
// stdin/stdout (spec §4.H `copy(src, dst)`).
func (cnt *Container) Copy(ctx context.Context, src, dst CopyEndpoint) error {
	cmd, err := cnt.client.prefix(ctx)
	if err != nil {
		return err
	}
	cmd.AppendRaw("cp")
	srcStr, err := src.String(ctx)
	if err != nil {
		return err
	}
	dstStr, err := dst.String(ctx)
	if err != nil {
		return err
	}
	cmd.Append(srcStr).Append(dstStr)
	_, err = cnt.client.run(ctx, cmd, dwerr.Classify)
	return err
}

// LogsOptions configures `container logs`.
type LogsOptions struct {
	Details    bool
	Since      string
	Tail       string
	Timestamps bool
	Until      string
	Follow     bool
	Stream     bool
}

// Logs returns a frame iterator when opts.Stream is set; otherwise it
// concatenates captured stdout frames into a single string (spec §4.H
// `logs`).
func (cnt *Container) Logs(ctx context.Context, opts LogsOptions) (*stream.Reader, string, error) {
	cmd, err := cnt.client.prefix(ctx)
	if err != nil {
		return nil, "", err
	}
	cmd.AppendRaw("logs")
	cmd.AddFlag("--details", opts.Details)
	cmd.AddSimpleArg("--since", opts.Since)
	cmd.AddSimpleArg("--tail", opts.Tail)
	cmd.AddFlag("--timestamps", opts.Timestamps)
	cmd.AddSimpleArg("--until", opts.Until)
	cmd.AddFlag("--follow", opts.Follow)
	id, err := cnt.ID(ctx)
	if err != nil {
		return nil, "", err
	}
	cmd.Append(id)

	if opts.Stream {
		r, err := stream.Start(ctx, cmd.Args(), stream.Options{Engine: string(cnt.client.cfg.EngineKind), Debug: cnt.client.cfg.Debug})
		return r, "", err
	}

	res, err := cnt.client.run(ctx, cmd, dwerr.Classify)
	if err != nil {
		return nil, "", err
	}
	return nil, res.Stdout, nil
}

// ListOptions configures `container list`/`ps`.
type ListOptions struct {
	All     bool
	Filters map[string]string
}

// List returns trusted handles for the matching containers (spec §4.H
// `list(filters, all)`).
func (c *Client) List(ctx context.Context, opts ListOptions) ([]*Container, error) {
	cmd, err := c.prefix(ctx)
	if err != nil {
		return nil, err
	}
	cmd.AppendRaw("ls")
	cmd.AddFlag("--all", opts.All)
	cmd.AddFlag("--quiet", true)
	cmd.AddFlag("--no-trunc", true)
	cmd.AddArgsMapping("--filter", opts.Filters)
	res, err := c.run(ctx, cmd, dwerr.Classify)
	if err != nil {
		return nil, err
	}
	var out []*Container
	for _, id := range parseIDLines(res.Stdout) {
		out = append(out, c.FromTrustedID(id))
	}
	return out, nil
}

// parseIDLines splits the newline-delimited id output of a `--quiet
// --no-trunc` listing command into individual ids, dropping blank lines.
func parseIDLines(output string) []string {
	var ids []string
	for _, line := range strings.Split(strings.TrimRight(output, "\n"), "\n") {
		if line != "" {
			ids = append(ids, line)
		}
	}
	return ids
}

// Prune removes stopped containers matching filters; an empty selection
// (no filters and the caller declining) is still a valid no-filter prune,
// matching the engine's own semantics.
func (c *Client) Prune(ctx context.Context, filters map[string]string) (string, error) {
	cmd, err := c.prefix(ctx)
	if err != nil {
		return "", err
	}
	cmd.AppendRaw("prune")
	cmd.AddFlag("--force", true)
	cmd.AddArgsMapping("--filter", filters)
	res, err := c.run(ctx, cmd, dwerr.Classify)
	if err != nil {
		return "", err
	}
	return res.Stdout, nil
}

// ExecOptions configures `container exec`.
type ExecOptions struct {
	Detach      bool
	Env         map[string]string
	EnvFiles    []string
	Interactive bool
	Privileged  bool
	TTY         bool
	User        string
	WorkDir     string
	DetachKeys  string
}

// Exec runs command inside the container (spec §4.H `execute`). Exec always
// captures and returns stdout; there is no streaming variant of exec.
func (cnt *Container) Exec(ctx context.Context, command []string, opts ExecOptions) (string, error) {
	cmd, err := cnt.client.prefix(ctx)
	if err != nil {
		return "", err
	}
	cmd.AppendRaw("exec")
	cmd.AddFlag("--detach", opts.Detach)
	cmd.AddArgsMapping("--env", opts.Env)
	cmd.AddArgsIterable("--env-file", opts.EnvFiles)
	cmd.AddFlag("--interactive", opts.Interactive)
	cmd.AddFlag("--privileged", opts.Privileged)
	cmd.AddFlag("--tty", opts.TTY)
	cmd.AddSimpleArg("--user", opts.User)
	cmd.AddSimpleArg("--workdir", opts.WorkDir)
	cmd.AddSimpleArg("--detach-keys", opts.DetachKeys)
	id, err := cnt.ID(ctx)
	if err != nil {
		return "", err
	}
	cmd.Append(id)
	for _, tok := range command {
		cmd.Append(tok)
	}
	res, err := cnt.client.run(ctx, cmd, dwerr.Classify)
	if err != nil {
		return "", err
	}
	return res.Stdout, nil
}

// Stats returns one parsed stats snapshot per requested container
// (spec §4.F "Container stats").
func (c *Client) Stats(ctx context.Context, all bool, selection []string) ([]types.ContainerStats, error) {
	cmd, err := c.prefix(ctx)
	if err != nil {
		return nil, err
	}
	cmd.AppendRaw("stats")
	cmd.AddFlag("--all", all)
	cmd.AddFlag("--no-stream", true)
	cmd.AddSimpleArg("--format", "{{json .}}")
	for _, ref := range selection {
		cmd.Append(ref)
	}
	res, err := c.run(ctx, cmd, dwerr.Classify)
	if err != nil {
		return nil, err
	}
	var out []types.ContainerStats
	for _, line := range strings.Split(strings.TrimRight(res.Stdout, "\n"), "\n") {
		if line == "" {
			continue
		}
		var raw types.ContainerStatsLine
		if err := json.Unmarshal([]byte(line), &raw); err != nil {
			return nil, &dwerr.ParseError{Context: "container stats", Cause: err}
		}
		out = append(out, types.DecodeContainerStats(raw))
	}
	return out, nil
}

// UpdateOptions configures `container update` resource limits.
type UpdateOptions struct {
	CPUShares int64
	Memory    string
	MemorySwap string
	Restart   string
}

func (cnt *Container) Update(ctx context.Context, opts UpdateOptions) error {
	return cnt.mutate(ctx, "update", func(cmd *argv.Command) {
		if opts.CPUShares != 0 {
			cmd.AddSimpleArg("--cpu-shares", strconv.FormatInt(opts.CPUShares, 10))
		}
		cmd.AddSimpleArg("--memory", opts.Memory)
		cmd.AddSimpleArg("--memory-swap", opts.MemorySwap)
		cmd.AddSimpleArg("--restart", opts.Restart)
	})
}

// Wait blocks until the container exits and returns its exit code (spec
// §4.H `wait`).
func (cnt *Container) Wait(ctx context.Context) (int, error) {
	cmd, err := cnt.client.prefix(ctx)
	if err != nil {
		return 0, err
	}
	cmd.AppendRaw("wait")
	id, err := cnt.ID(ctx)
	if err != nil {
		return 0, err
	}
	cmd.Append(id)
	res, err := cnt.client.run(ctx, cmd, dwerr.Classify)
	if err != nil {
		return 0, err
	}
	code, convErr := strconv.Atoi(strings.TrimSpace(res.Stdout))
	if convErr != nil {
		return 0, &dwerr.ParseError{Context: "container wait", Cause: convErr}
	}
	return code, nil
}

// WaitAll waits on a collection, returning one exit code per input handle
// in input order (spec §4.H "a list of integers when called with a
// collection").
func WaitAll(ctx context.Context, containers []*Container) ([]int, error) {
	codes := make([]int, len(containers))
	for i, cnt := range containers {
		code, err := cnt.Wait(ctx)
		if err != nil {
			return nil, err
		}
		codes[i] = code
	}
	return codes, nil
}

// Attach streams the container's combined output as frames.
func (cnt *Container) Attach(ctx context.Context) (*stream.Reader, error) {
	cmd, err := cnt.client.prefix(ctx)
	if err != nil {
		return nil, err
	}
	cmd.AppendRaw("attach")
	id, err := cnt.ID(ctx)
	if err != nil {
		return nil, err
	}
	cmd.Append(id)
	return stream.Start(ctx, cmd.Args(), stream.Options{Engine: string(cnt.client.cfg.EngineKind), Debug: cnt.client.cfg.Debug})
}

// Export streams the container's filesystem as a tar archive directly to w,
// via the process runner's uncaptured-stdout mode rather than buffering the
// whole archive in memory.
func (cnt *Container) Export(ctx context.Context, w io.Writer) error {
	cmd, err := cnt.client.prefix(ctx)
	if err != nil {
		return err
	}
	cmd.AppendRaw("export")
	id, err := cnt.ID(ctx)
	if err != nil {
		return err
	}
	cmd.Append(id)

	opts := cnt.client.cfg.RunnerOptions()
	opts.CaptureStdout = false
	opts.Stdout = w
	opts.CaptureStderr = true
	opts.Classify = dwerr.Classify
	_, err = runner.Run(ctx, cmd.Args(), opts)
	return err
}

// Top lists the processes running inside the container, parsed from
// `container top`'s column-aligned text output.
func (cnt *Container) Top(ctx context.Context) (types.ProcessTable, error) {
	cmd, err := cnt.client.prefix(ctx)
	if err != nil {
		return types.ProcessTable{}, err
	}
	cmd.AppendRaw("top")
	id, err := cnt.ID(ctx)
	if err != nil {
		return types.ProcessTable{}, err
	}
	cmd.Append(id)
	res, err := cnt.client.run(ctx, cmd, dwerr.Classify)
	if err != nil {
		return types.ProcessTable{}, err
	}
	return types.ParseProcessTable(res.Stdout), nil
}

// Scope returns a scoped-resource wrapper implementing spec §4.G's
// container teardown: if running, stop then (unless auto-remove) remove
// including volumes.
func (cnt *Container) Scope(autoRemove bool) *entity.Scope {
	return entity.NewScope(func(ctx context.Context) error {
		payload, err := cnt.Inspect(ctx)
		if err == nil && payload.State.Running {
			if err := cnt.Stop(ctx); err != nil {
				return err
			}
		}
		if autoRemove {
			return nil
		}
		return cnt.Remove(ctx, true, true)
	})
}
