// Package contextcmd is the engine context subcommand wrapper (spec §4.H
// "Context"): create, remove, list, and inspect named endpoint
// configurations, including SSH-reached Docker hosts.
package contextcmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/banksean/enginectl"
	"github.com/banksean/enginectl/argv"
	"github.com/banksean/enginectl/dwerr"
	"github.com/banksean/enginectl/entity"
	"github.com/banksean/enginectl/runner"
	"github.com/banksean/enginectl/types"
	"github.com/kevinburke/ssh_config"
	"golang.org/x/crypto/ssh"
)

type Client struct {
	cfg *enginectl.ClientConfig
}

func New(cfg *enginectl.ClientConfig) *Client { return &Client{cfg: cfg} }

type Context struct {
	*entity.Handle[types.ContextInfo]
	client *Client
}

func (c *Client) prefix(ctx context.Context) (*argv.Command, error) {
	cmd, err := c.cfg.Prefix(ctx)
	if err != nil {
		return nil, err
	}
	cmd.AppendRaw("context")
	return cmd, nil
}

func (c *Client) run(ctx context.Context, cmd *argv.Command) (*runner.Result, error) {
	opts := c.cfg.RunnerOptions()
	opts.CaptureStdout = true
	opts.CaptureStderr = true
	opts.Classify = dwerr.Classify
	slog.InfoContext(ctx, "contextcmd.run", "argv", dwerr.Redact(cmd.Args()))
	res, err := runner.Run(ctx, cmd.Args(), opts)
	if err != nil {
		slog.ErrorContext(ctx, "contextcmd.run failed", "argv", dwerr.Redact(cmd.Args()), "error", err)
		return nil, err
	}
	return res, nil
}

func (c *Client) inspectOne(ctx context.Context, ref string) (string, *types.ContextInfo, error) {
	cmd, err := c.prefix(ctx)
	if err != nil {
		return "", nil, err
	}
	cmd.AppendRaw("inspect").Append(ref)
	res, err := c.run(ctx, cmd)
	if err != nil {
		return "", nil, err
	}
	var items []types.ContextInfo
	if err := json.Unmarshal([]byte(res.Stdout), &items); err != nil {
		return "", nil, &dwerr.ParseError{Context: "context inspect", Cause: err}
	}
	if len(items) == 0 {
		return "", nil, &dwerr.EngineError{Argv: cmd.Args()}
	}
	return items[0].Name, &items[0], nil
}

func (c *Client) FromTrustedName(name string) *Context {
	h := entity.NewTrusted[types.ContextInfo](c.cfg.Key(), "Name", name, c.cfg.CacheValidity, c.inspectOne)
	return &Context{Handle: h, client: c}
}

func (c *Client) FromReference(ctx context.Context, ref string) (*Context, error) {
	h, err := entity.NewFromReference[types.ContextInfo](ctx, c.cfg.Key(), "Name", ref, c.cfg.CacheValidity, c.inspectOne)
	if err != nil {
		return nil, err
	}
	return &Context{Handle: h, client: c}, nil
}

// kvJoin serializes a dict sub-configuration as comma-joined k=v, the form
// `context create --docker` / `--kubernetes` both expect (spec §4.H:
// "Context create supports Docker and Kubernetes sub-configurations
// serialized as a comma-separated key=value string").
func kvJoin(m map[string]string) string {
	parts := make([]string, 0, len(m))
	for _, k := range slices.Sorted(maps.Keys(m)) {
		parts = append(parts, k+"="+m[k])
	}
	return strings.Join(parts, ",")
}

// CreateOptions configures `context create`.
type CreateOptions struct {
	Docker     map[string]string
	Kubernetes map[string]string
	Description string
}

// Create defines a new context. When Docker["host"] is an ssh:// endpoint,
// the host portion is resolved against the user's ~/.ssh/config aliases
// before the context is handed to the engine CLI. Create does not validate
// host keys; ValidateHostKey is a separate helper.
func (c *Client) Create(ctx context.Context, name string, opts CreateOptions) (*Context, error) {
	if host, ok := opts.Docker["host"]; ok {
		resolved, err := resolveSSHHost(host)
		if err != nil {
			return nil, fmt.Errorf("resolving ssh context host %q: %w", host, err)
		}
		opts.Docker["host"] = resolved
	}

	cmd, err := c.prefix(ctx)
	if err != nil {
		return nil, err
	}
	cmd.AppendRaw("create")
	if len(opts.Docker) > 0 {
		cmd.AddSimpleArg("--docker", kvJoin(opts.Docker))
	}
	if len(opts.Kubernetes) > 0 {
		cmd.AddSimpleArg("--kubernetes", kvJoin(opts.Kubernetes))
	}
	cmd.AddSimpleArg("--description", opts.Description)
	cmd.Append(name)
	if _, err := c.run(ctx, cmd); err != nil {
		return nil, err
	}
	return c.FromTrustedName(name), nil
}

// resolveSSHHost rewrites "ssh://alias/path" using the resolved HostName,
// Port, and User from ~/.ssh/config, leaving non-ssh and already-resolved
// hosts untouched.
func resolveSSHHost(raw string) (string, error) {
	if !strings.HasPrefix(raw, "ssh://") {
		return raw, nil
	}
	rest := strings.TrimPrefix(raw, "ssh://")
	alias := rest
	if idx := strings.IndexByte(rest, '/'); idx >= 0 {
		alias = rest[:idx]
	}
	user := ""
	if idx := strings.IndexByte(alias, '@'); idx >= 0 {
		user = alias[:idx]
		alias = alias[idx+1:]
	}

	cfgPath := filepath.Join(os.Getenv("HOME"), ".ssh", "config")
	f, err := os.Open(cfgPath)
	if err != nil {
		return raw, nil // no config file: nothing to resolve against
	}
	defer f.Close()
	cfg, err := ssh_config.Decode(f)
	if err != nil {
		return "", err
	}

	hostName, _ := cfg.Get(alias, "HostName")
	if hostName == "" {
		hostName = alias
	}
	port, _ := cfg.Get(alias, "Port")
	if user == "" {
		user, _ = cfg.Get(alias, "User")
	}

	var b strings.Builder
	b.WriteString("ssh://")
	if user != "" {
		b.WriteString(user)
		b.WriteByte('@')
	}
	b.WriteString(hostName)
	if port != "" && port != "22" {
		b.WriteByte(':')
		b.WriteString(port)
	}
	return b.String(), nil
}

// ValidateHostKey parses a host public key in authorized_keys format,
// rejecting malformed key material before it's threaded into a context's
// SSH endpoint configuration.
func ValidateHostKey(raw []byte) (ssh.PublicKey, error) {
	key, _, _, _, err := ssh.ParseAuthorizedKey(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing ssh host key: %w", err)
	}
	return key, nil
}

func (ctxEntity *Context) Remove(ctx context.Context, force bool) error {
	cmd, err := ctxEntity.client.prefix(ctx)
	if err != nil {
		return err
	}
	cmd.AppendRaw("rm")
	cmd.AddFlag("--force", force)
	id, err := ctxEntity.ID(ctx)
	if err != nil {
		return err
	}
	cmd.Append(id)
	_, err = ctxEntity.client.run(ctx, cmd)
	return err
}

func (c *Client) List(ctx context.Context) ([]*Context, error) {
	cmd, err := c.prefix(ctx)
	if err != nil {
		return nil, err
	}
	cmd.AppendRaw("ls")
	cmd.AddSimpleArg("--format", "{{.Name}}")
	res, err := c.run(ctx, cmd)
	if err != nil {
		return nil, err
	}
	var out []*Context
	for _, line := range strings.Split(strings.TrimRight(res.Stdout, "\n"), "\n") {
		if line != "" {
			out = append(out, c.FromTrustedName(line))
		}
	}
	return out, nil
}

func (c *Client) Use(ctx context.Context, name string) error {
	cmd, err := c.prefix(ctx)
	if err != nil {
		return err
	}
	cmd.AppendRaw("use").Append(name)
	_, err = c.run(ctx, cmd)
	return err
}

// Scope force-removes the context on scope exit (spec §4.G).
func (ctxEntity *Context) Scope() *entity.Scope {
	return entity.NewScope(func(ctx context.Context) error { return ctxEntity.Remove(ctx, true) })
}
