// Package swarm wraps the `swarm` subcommand family (spec §4.H "Swarm"):
// cluster bootstrap and teardown, distinct from per-node state managed by
// the node package.
package swarm

import (
	"context"
	"log/slog"
	"strings"

	"github.com/banksean/enginectl"
	"github.com/banksean/enginectl/argv"
	"github.com/banksean/enginectl/dwerr"
	"github.com/banksean/enginectl/runner"
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
	cmd.AppendRaw("swarm")
	return cmd, nil
}

func (c *Client) run(ctx context.Context, cmd *argv.Command) (*runner.Result, error) {
	opts := c.cfg.RunnerOptions()
	opts.CaptureStdout = true
	opts.CaptureStderr = true
	opts.Classify = dwerr.Classify
	slog.InfoContext(ctx, "swarm.run", "argv", dwerr.Redact(cmd.Args()))
	res, err := runner.Run(ctx, cmd.Args(), opts)
	if err != nil {
		slog.ErrorContext(ctx, "swarm.run failed", "argv", dwerr.Redact(cmd.Args()), "error", err)
		return nil, err
	}
	return res, nil
}

// InitOptions configures Init. Empty fields are omitted from the argv.
type InitOptions struct {
	AdvertiseAddress string
	Autolock         bool
	Availability     string
	DataPathAddress  string
	DataPathPort     int
	ListenAddress    string
}

// Init bootstraps a new swarm with the current node as its first manager.
// Use JoinToken afterward to obtain the token other nodes need to join it.
func (c *Client) Init(ctx context.Context, opts InitOptions) error {
	cmd, err := c.prefix(ctx)
	if err != nil {
		return err
	}
	cmd.AppendRaw("init")
	cmd.AddSimpleArg("--advertise-addr", opts.AdvertiseAddress)
	cmd.AddFlag("--autolock", opts.Autolock)
	cmd.AddSimpleArg("--availability", opts.Availability)
	cmd.AddSimpleArg("--data-path-addr", opts.DataPathAddress)
	cmd.AddSimpleArg("--data-path-port", opts.DataPathPort)
	cmd.AddSimpleArg("--listen-addr", opts.ListenAddress)
	_, err = c.run(ctx, cmd)
	return err
}

// JoinOptions configures Join. Empty fields are omitted from the argv.
type JoinOptions struct {
	AdvertiseAddress string
	Availability     string
	DataPathAddress  string
	ListenAddress    string
	Token            string
}

// Join enrolls the current node into the swarm managed at managerAddress
// ("host:port"), as a manager or worker depending on which join token was
// supplied.
func (c *Client) Join(ctx context.Context, managerAddress string, opts JoinOptions) error {
	cmd, err := c.prefix(ctx)
	if err != nil {
		return err
	}
	cmd.AppendRaw("join")
	cmd.AddSimpleArg("--advertise-addr", opts.AdvertiseAddress)
	cmd.AddSimpleArg("--availability", opts.Availability)
	cmd.AddSimpleArg("--data-path-addr", opts.DataPathAddress)
	cmd.AddSimpleArg("--listen-addr", opts.ListenAddress)
	cmd.AddSimpleArg("--token", opts.Token)
	cmd.Append(managerAddress)
	_, err = c.run(ctx, cmd)
	return err
}

// JoinToken returns the join token for nodeType ("manager" or "worker"),
// optionally rotating it first.
func (c *Client) JoinToken(ctx context.Context, nodeType string, rotate bool) (string, error) {
	cmd, err := c.prefix(ctx)
	if err != nil {
		return "", err
	}
	cmd.AppendRaw("join-token").AddFlag("--quiet", true)
	cmd.AddFlag("--rotate", rotate)
	cmd.Append(nodeType)
	res, err := c.run(ctx, cmd)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(res.Stdout), nil
}

// Leave removes the current node from its swarm. force ignores the warning
// raised when leaving would lose manager quorum.
func (c *Client) Leave(ctx context.Context, force bool) error {
	cmd, err := c.prefix(ctx)
	if err != nil {
		return err
	}
	cmd.AppendRaw("leave")
	cmd.AddFlag("--force", force)
	_, err = c.run(ctx, cmd)
	return err
}

// CA, Unlock, UnlockKey, and Update are not yet implemented, matching the
// upstream client this package is modeled on, which raises NotImplementedError
// for all four.

func (c *Client) CA(ctx context.Context) error {
	return &dwerr.UserInputError{Msg: "swarm ca: not yet supported"}
}

func (c *Client) Unlock(ctx context.Context, unlockKey string) error {
	return &dwerr.UserInputError{Msg: "swarm unlock: not yet supported"}
}

func (c *Client) UnlockKey(ctx context.Context, rotate bool) (string, error) {
	return "", &dwerr.UserInputError{Msg: "swarm unlock-key: not yet supported"}
}

func (c *Client) Update(ctx context.Context) error {
	return &dwerr.UserInputError{Msg: "swarm update: not yet supported"}
}
