// Package image is the image subcommand wrapper (spec §4.H "Image").
package image

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/google/go-containerregistry/pkg/name"
	"golang.org/x/sync/errgroup"

	"github.com/banksean/enginectl"
	"github.com/banksean/enginectl/argv"
	"github.com/banksean/enginectl/container"
	"github.com/banksean/enginectl/dwerr"
	"github.com/banksean/enginectl/entity"
	"github.com/banksean/enginectl/runner"
	"github.com/banksean/enginectl/stream"
	"github.com/banksean/enginectl/types"
)

// pullPushWorkers is the worker-pool width for bulk pull/push (spec §4.H:
// "a bounded worker pool (≥4)").
const pullPushWorkers = 4

// Client composes image operations against one engine.
type Client struct {
	cfg *enginectl.ClientConfig
}

func New(cfg *enginectl.ClientConfig) *Client { return &Client{cfg: cfg} }

// Image is a reloadable handle over one engine image.
type Image struct {
	*entity.Handle[types.Image]
	client *Client
}

func (c *Client) prefix(ctx context.Context) (*argv.Command, error) {
	cmd, err := c.cfg.Prefix(ctx)
	if err != nil {
		return nil, err
	}
	cmd.AppendRaw("image")
	return cmd, nil
}

func (c *Client) run(ctx context.Context, cmd *argv.Command, classify runner.ClassifyFunc) (*runner.Result, error) {
	opts := c.cfg.RunnerOptions()
	opts.CaptureStdout = true
	opts.CaptureStderr = true
	opts.Classify = classify
	slog.InfoContext(ctx, "image.run", "argv", dwerr.Redact(cmd.Args()))
	res, err := runner.Run(ctx, cmd.Args(), opts)
	if err != nil {
		slog.ErrorContext(ctx, "image.run failed", "argv", dwerr.Redact(cmd.Args()), "error", err)
		return nil, err
	}
	return res, nil
}

func (c *Client) inspectOne(ctx context.Context, ref string) (string, *types.Image, error) {
	cmd, err := c.prefix(ctx)
	if err != nil {
		return "", nil, err
	}
	cmd.AppendRaw("inspect").Append(ref)
	res, err := c.run(ctx, cmd, dwerr.Classify)
	if err != nil {
		return "", nil, err
	}
	var items []types.Image
	if err := json.Unmarshal([]byte(res.Stdout), &items); err != nil {
		return "", nil, &dwerr.ParseError{Context: "image inspect", Cause: err}
	}
	if len(items) == 0 {
		return "", nil, &dwerr.NoSuchImage{EngineError: &dwerr.EngineError{Argv: cmd.Args()}}
	}
	types.NormalizeImage(&items[0])
	return items[0].ID, &items[0], nil
}

// BulkInspect resolves many ids/refs in a single engine call.
func (c *Client) BulkInspect(ctx context.Context, refs []string) ([]*types.Image, error) {
	if len(refs) == 0 {
		return nil, nil
	}
	cmd, err := c.prefix(ctx)
	if err != nil {
		return nil, err
	}
	cmd.AppendRaw("inspect")
	for _, r := range refs {
		cmd.Append(r)
	}
	res, err := c.run(ctx, cmd, dwerr.Classify)
	if err != nil {
		return nil, err
	}
	var items []types.Image
	if err := json.Unmarshal([]byte(res.Stdout), &items); err != nil {
		return nil, &dwerr.ParseError{Context: "image inspect (bulk)", Cause: err}
	}
	out := make([]*types.Image, len(items))
	for i := range items {
		types.NormalizeImage(&items[i])
		out[i] = &items[i]
	}
	return out, nil
}

func (c *Client) FromTrustedID(id string) *Image {
	h := entity.NewTrusted[types.Image](c.cfg.Key(), "Id", id, c.cfg.CacheValidity, c.inspectOne)
	return &Image{Handle: h, client: c}
}

func (c *Client) FromReference(ctx context.Context, ref string) (*Image, error) {
	h, err := entity.NewFromReference[types.Image](ctx, c.cfg.Key(), "Id", ref, c.cfg.CacheValidity, c.inspectOne)
	if err != nil {
		return nil, err
	}
	return &Image{Handle: h, client: c}, nil
}

func (img *Image) Exists(ctx context.Context) (bool, error) {
	_, err := img.Inspect(ctx)
	if err == nil {
		return true, nil
	}
	var nsi *dwerr.NoSuchImage
	if errors.As(err, &nsi) {
		return false, nil
	}
	return false, err
}

// PullOptions configures `image pull`.
type PullOptions struct {
	Quiet    bool
	Platform string
}

// validateRef rejects a malformed image reference before any argv is
// composed, the way the DOMAIN STACK wires go-containerregistry's name
// parser into this package: a typo in a repo:tag should fail fast as a
// UserInputError, not surface as an opaque nonzero exit from the engine.
func validateRef(ref string) error {
	if _, err := name.ParseReference(ref, name.WeakValidation); err != nil {
		return &dwerr.UserInputError{Msg: fmt.Sprintf("invalid image reference %q: %v", ref, err)}
	}
	return nil
}

// pullOne pulls a single reference and returns the resulting handle.
func (c *Client) pullOne(ctx context.Context, ref string, opts PullOptions) (*Image, error) {
	if err := validateRef(ref); err != nil {
		return nil, err
	}
	cmd, err := c.prefix(ctx)
	if err != nil {
		return nil, err
	}
	cmd.AppendRaw("pull")
	cmd.AddFlag("--quiet", opts.Quiet)
	cmd.AddSimpleArg("--platform", opts.Platform)
	cmd.Append(ref)
	if _, err := c.run(ctx, cmd, dwerr.Classify); err != nil {
		return nil, fmt.Errorf("image pull %s: %w", ref, err)
	}
	return c.FromReference(ctx, ref)
}

// Pull pulls one or many references. When given more than one reference, it
// uses a bounded worker pool (spec §4.H "pull with a list uses a bounded
// worker pool (≥4) for parallelism"); the returned slice matches input
// order by index (spec §5 ordering guarantees).
func (c *Client) Pull(ctx context.Context, refs []string, opts PullOptions) ([]*Image, error) {
	if len(refs) == 0 {
		return nil, nil
	}
	if len(refs) == 1 {
		img, err := c.pullOne(ctx, refs[0], opts)
		if err != nil {
			return nil, err
		}
		return []*Image{img}, nil
	}

	out := make([]*Image, len(refs))
	errs := make([]error, len(refs))
	var g errgroup.Group
	g.SetLimit(pullPushWorkers)
	for i, ref := range refs {
		i, ref := i, ref
		g.Go(func() error {
			img, err := c.pullOne(ctx, ref, opts)
			if err != nil {
				errs[i] = err
				return nil
			}
			out[i] = img
			return nil
		})
	}
	g.Wait()
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return out, nil
}

// PushOptions configures `image push`.
type PushOptions struct {
	Quiet bool
}

func (c *Client) pushOne(ctx context.Context, ref string, opts PushOptions) error {
	if err := validateRef(ref); err != nil {
		return err
	}
	cmd, err := c.prefix(ctx)
	if err != nil {
		return err
	}
	cmd.AppendRaw("push")
	cmd.AddFlag("--quiet", opts.Quiet)
	cmd.Append(ref)
	if _, err := c.run(ctx, cmd, dwerr.Classify); err != nil {
		return fmt.Errorf("image push %s: %w", ref, err)
	}
	return nil
}

// Push pushes one or many references via the same bounded worker pool as
// Pull.
func (c *Client) Push(ctx context.Context, refs []string, opts PushOptions) error {
	if len(refs) == 0 {
		return nil
	}
	errs := make([]error, len(refs))
	var g errgroup.Group
	g.SetLimit(pullPushWorkers)
	for i, ref := range refs {
		i, ref := i, ref
		g.Go(func() error {
			errs[i] = c.pushOne(ctx, ref, opts)
			return nil
		})
	}
	g.Wait()
	return errors.Join(errs...)
}

// Save writes one or many images to outputPath, or, when outputPath is
// empty, returns a frame iterator of the tar stream (spec §4.H `save`).
func (c *Client) Save(ctx context.Context, refs []string, outputPath string) (*stream.Reader, error) {
	cmd, err := c.prefix(ctx)
	if err != nil {
		return nil, err
	}
	cmd.AppendRaw("save")
	cmd.AddSimpleArg("--output", outputPath)
	for _, ref := range refs {
		cmd.Append(ref)
	}
	if outputPath != "" {
		_, err := c.run(ctx, cmd, dwerr.Classify)
		return nil, err
	}
	return stream.Start(ctx, cmd.Args(), stream.Options{Engine: string(c.cfg.EngineKind), Debug: c.cfg.Debug})
}

// Load reads a tar stream (from a path, raw bytes, or a reader) and returns
// the tags observed on stdout lines starting with "Loaded image" (spec
// §4.H `load`).
func (c *Client) Load(ctx context.Context, input io.Reader) ([]string, error) {
	cmd, err := c.prefix(ctx)
	if err != nil {
		return nil, err
	}
	cmd.AppendRaw("load")
	opts := c.cfg.RunnerOptions()
	opts.CaptureStdout = true
	opts.CaptureStderr = true
	opts.Classify = dwerr.Classify
	opts.Stdin = input
	res, err := runner.Run(ctx, cmd.Args(), opts)
	if err != nil {
		return nil, err
	}
	return parseLoadedTags(res.Stdout), nil
}

// LoadPath is a convenience over Load for a tar file already on disk.
func (c *Client) LoadPath(ctx context.Context, path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return c.Load(ctx, f)
}

func parseLoadedTags(stdout string) []string {
	var tags []string
	for _, line := range strings.Split(stdout, "\n") {
		if !strings.HasPrefix(line, "Loaded image") {
			continue
		}
		_, rest, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		tags = append(tags, strings.TrimSpace(rest))
	}
	return tags
}

// Tag tags an image reference under a new repository:tag.
func (img *Image) Tag(ctx context.Context, newTag string) error {
	if err := validateRef(newTag); err != nil {
		return err
	}
	cmd, err := img.client.prefix(ctx)
	if err != nil {
		return err
	}
	cmd.AppendRaw("tag")
	id, err := img.ID(ctx)
	if err != nil {
		return err
	}
	cmd.Append(id).Append(newTag)
	_, err = img.client.run(ctx, cmd, dwerr.Classify)
	return err
}

// Remove removes one image (spec §4.H `remove(one-or-many, force, prune)`).
func (img *Image) Remove(ctx context.Context, force, prune bool) error {
	cmd, err := img.client.prefix(ctx)
	if err != nil {
		return err
	}
	cmd.AppendRaw("rm")
	cmd.AddFlag("--force", force)
	cmd.AddFlag("--no-prune", !prune)
	id, err := img.ID(ctx)
	if err != nil {
		return err
	}
	cmd.Append(id)
	_, err = img.client.run(ctx, cmd, dwerr.Classify)
	if err == nil {
		img.Invalidate()
	}
	return err
}

// ListOptions configures `image list`.
type ListOptions struct {
	RepositoryOrTag string
	Filters         map[string]string
	All             bool
}

// List returns de-duplicated handles (by id) for the matching images (spec
// §4.H "de-duplicating by id").
func (c *Client) List(ctx context.Context, opts ListOptions) ([]*Image, error) {
	cmd, err := c.prefix(ctx)
	if err != nil {
		return nil, err
	}
	cmd.AppendRaw("ls")
	cmd.AddFlag("--all", opts.All)
	cmd.AddFlag("--quiet", true)
	cmd.AddFlag("--no-trunc", true)
	cmd.AddArgsMapping("--filter", opts.Filters)
	if opts.RepositoryOrTag != "" {
		cmd.Append(opts.RepositoryOrTag)
	}
	res, err := c.run(ctx, cmd, dwerr.Classify)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	var out []*Image
	for _, id := range dedupeLines(res.Stdout, seen) {
		out = append(out, c.FromTrustedID(id))
	}
	return out, nil
}

func dedupeLines(output string, seen map[string]bool) []string {
	var ids []string
	for _, line := range strings.Split(strings.TrimRight(output, "\n"), "\n") {
		if line == "" || seen[line] {
			continue
		}
		seen[line] = true
		ids = append(ids, line)
	}
	return ids
}

// Prune removes unused images.
func (c *Client) Prune(ctx context.Context, all bool, filters map[string]string) (string, error) {
	cmd, err := c.prefix(ctx)
	if err != nil {
		return "", err
	}
	cmd.AppendRaw("prune")
	cmd.AddFlag("--all", all)
	cmd.AddFlag("--force", true)
	cmd.AddArgsMapping("--filter", filters)
	res, err := c.run(ctx, cmd, dwerr.Classify)
	if err != nil {
		return "", err
	}
	return res.Stdout, nil
}

// Import creates an image from a tarball read from input, with an optional
// commit message and repository:tag.
func (c *Client) Import(ctx context.Context, input io.Reader, repoTag, message string) (*Image, error) {
	cmd, err := c.prefix(ctx)
	if err != nil {
		return nil, err
	}
	cmd.AppendRaw("import")
	cmd.AddSimpleArg("--message", message)
	cmd.Append("-")
	if repoTag != "" {
		cmd.Append(repoTag)
	}
	opts := c.cfg.RunnerOptions()
	opts.CaptureStdout = true
	opts.CaptureStderr = true
	opts.Classify = dwerr.Classify
	opts.Stdin = input
	res, err := runner.Run(ctx, cmd.Args(), opts)
	if err != nil {
		return nil, err
	}
	return c.FromTrustedID(strings.TrimSpace(res.Stdout)), nil
}

// PullPolicy controls whether CopyFrom/CopyTo pull the image before use.
type PullPolicy string

const (
	PullMissing PullPolicy = "missing"
	PullAlways  PullPolicy = "always"
	PullNever   PullPolicy = "never"
)

func (c *Client) ensurePulled(ctx context.Context, ref string, policy PullPolicy) error {
	switch policy {
	case PullAlways:
		_, err := c.pullOne(ctx, ref, PullOptions{})
		return err
	case PullMissing:
		if _, err := c.FromReference(ctx, ref); err == nil {
			return nil
		}
		_, err := c.pullOne(ctx, ref, PullOptions{})
		return err
	default:
		return nil
	}
}

// CopyFrom extracts pathInImage from ref into localDest via a throwaway,
// never-started container (spec §4.H `copy_from`).
func (c *Client) CopyFrom(ctx context.Context, ref, pathInImage, localDest string, policy PullPolicy) error {
	if err := c.ensurePulled(ctx, ref, policy); err != nil {
		return err
	}
	cc := container.New(c.cfg)
	helper, err := cc.Create(ctx, ref, container.CreateOptions{})
	if err != nil {
		return err
	}
	defer helper.Remove(ctx, true, true)

	return helper.Copy(ctx,
		container.CopyEndpoint{Container: helper, Path: pathInImage},
		container.CopyEndpoint{Path: localDest},
	)
}

// CopyTo inserts localSrc at pathInImage by copying into a throwaway
// container and committing it under newTag (spec §4.H `copy_to`).
func (c *Client) CopyTo(ctx context.Context, ref, localSrc, pathInImage, newTag string, policy PullPolicy) (*Image, error) {
	if err := c.ensurePulled(ctx, ref, policy); err != nil {
		return nil, err
	}
	cc := container.New(c.cfg)
	helper, err := cc.Create(ctx, ref, container.CreateOptions{})
	if err != nil {
		return nil, err
	}
	defer helper.Remove(ctx, true, true)

	if err := helper.Copy(ctx,
		container.CopyEndpoint{Path: localSrc},
		container.CopyEndpoint{Container: helper, Path: pathInImage},
	); err != nil {
		return nil, err
	}

	id, err := helper.Commit(ctx, container.CommitOptions{Tag: newTag})
	if err != nil {
		return nil, err
	}
	return c.FromTrustedID(id), nil
}

