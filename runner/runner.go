// Package runner spawns the engine binary with a composed argv and turns its
// exit into either captured output or a classified error (spec §4.B).
package runner

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"syscall"

	"github.com/creack/pty"
	"golang.org/x/term"

	"github.com/banksean/enginectl/dwerr"
)

// ClassifyFunc maps a nonzero exit's stderr text to a specific error kind.
// Passing nil falls back to dwerr.Classify.
type ClassifyFunc func(argv []string, exitCode int, stdout, stderr string) error

// Options configures one subprocess invocation.
type Options struct {
	// Engine is "docker" or "podman"; used only to decide whether to inject
	// DOCKER_CLI_EXPERIMENTAL for a buildx invocation (spec §4.B.2).
	Engine string

	Stdin io.Reader

	// CaptureStdout/CaptureStderr: when false the stream is inherited so the
	// caller's terminal shows engine output live (spec §4.B.3).
	CaptureStdout bool
	CaptureStderr bool

	// Stdout, when CaptureStdout is false, receives the child's stdout
	// directly instead of the caller's os.Stdout (e.g. a tar stream the
	// caller wants written somewhere other than the terminal). Ignored when
	// CaptureStdout is true.
	Stdout io.Writer

	// TTY requests a pseudo-terminal for the child (used by interactive
	// exec/run/attach).
	TTY bool

	// ExtraFiles are inherited beyond fd 0-2.
	ExtraFiles []*os.File

	// Env overlays the ambient environment; overlay wins on key collision.
	Env map[string]string

	// Debug enables argv/output logging (redacted).
	Debug bool

	// Classify overrides the default error classifier.
	Classify ClassifyFunc

	// Tracer, if non-nil, wraps the invocation in a span.
	Tracer Tracer
}

// Tracer is the minimal subset of an OpenTelemetry tracer the runner needs;
// see tracing.go for the concrete adapter over go.opentelemetry.io/otel.
type Tracer interface {
	StartSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, func(exitCode int, err error))
}

// Result is the outcome of a successful (exit code 0) invocation.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Run executes argvTokens[0] with argvTokens[1:] as arguments. argvTokens[0]
// must already be the resolved absolute engine binary path (the client's
// responsibility, spec §4.B.1).
func Run(ctx context.Context, argvTokens []string, opts Options) (*Result, error) {
	if len(argvTokens) == 0 {
		return nil, &dwerr.UserInputError{Msg: "runner: empty argv"}
	}

	env := buildEnv(argvTokens, opts)

	var endSpan func(exitCode int, err error)
	if opts.Tracer != nil {
		ctx, endSpan = opts.Tracer.StartSpan(ctx, "enginectl.runner.exec", map[string]string{
			"argv": strings.Join(dwerr.Redact(argvTokens), " "),
		})
	}

	if opts.Debug {
		slog.DebugContext(ctx, "runner.Run", "argv", dwerr.Redact(argvTokens))
	}

	cmd := exec.CommandContext(ctx, argvTokens[0], argvTokens[1:]...)
	cmd.Env = env
	cmd.ExtraFiles = opts.ExtraFiles
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	var stdoutBuf, stderrBuf bytes.Buffer

	switch {
	case opts.TTY:
		result, err := runWithPTY(cmd, opts, &stdoutBuf, &stderrBuf)
		if endSpan != nil {
			endSpan(exitCodeOf(result, err), err)
		}
		if err != nil {
			return nil, classifyErr(opts, argvTokens, err, stdoutBuf.String(), stderrBuf.String())
		}
		return result, nil
	default:
		switch {
		case opts.CaptureStdout:
			cmd.Stdout = &stdoutBuf
		case opts.Stdout != nil:
			cmd.Stdout = opts.Stdout
		default:
			cmd.Stdout = os.Stdout
		}
		if opts.CaptureStderr {
			cmd.Stderr = &stderrBuf
		} else {
			cmd.Stderr = os.Stderr
		}
		if opts.Stdin != nil {
			cmd.Stdin = opts.Stdin
		}

		err := cmd.Run()
		exitCode := exitCodeFromErr(err)
		if endSpan != nil {
			endSpan(exitCode, err)
		}
		if err != nil {
			return nil, classifyErr(opts, argvTokens, err, stdoutBuf.String(), stderrBuf.String())
		}
		return &Result{
			Stdout:   trimOneTrailingNewline(stdoutBuf.String()),
			Stderr:   stderrBuf.String(),
			ExitCode: 0,
		}, nil
	}
}

func runWithPTY(cmd *exec.Cmd, opts Options, stdoutBuf, stderrBuf *bytes.Buffer) (*Result, error) {
	if stdinFile, ok := opts.Stdin.(*os.File); ok && term.IsTerminal(int(stdinFile.Fd())) {
		cmd.Stdin = opts.Stdin
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		err := cmd.Run()
		return &Result{ExitCode: exitCodeFromErr(err)}, err
	}

	ptmx, err := pty.Start(cmd)
	if err != nil {
		return nil, err
	}
	defer ptmx.Close()

	if opts.Stdin != nil {
		go io.Copy(ptmx, opts.Stdin)
	}
	var dst io.Writer = os.Stdout
	if opts.CaptureStdout {
		dst = stdoutBuf
	}
	go io.Copy(dst, ptmx)

	err = cmd.Wait()
	return &Result{
		Stdout:   trimOneTrailingNewline(stdoutBuf.String()),
		ExitCode: exitCodeFromErr(err),
	}, err
}

func buildEnv(argvTokens []string, opts Options) []string {
	env := os.Environ()
	overlay := map[string]string{}
	for k, v := range opts.Env {
		overlay[k] = v
	}
	if opts.Engine == "docker" && len(argvTokens) > 1 && argvTokens[1] == "buildx" {
		overlay["DOCKER_CLI_EXPERIMENTAL"] = "enabled"
	}
	if len(overlay) == 0 {
		return env
	}
	merged := make([]string, 0, len(env)+len(overlay))
	seen := map[string]bool{}
	for k, v := range overlay {
		merged = append(merged, k+"="+v)
		seen[k] = true
	}
	for _, kv := range env {
		if idx := strings.IndexByte(kv, '='); idx >= 0 && seen[kv[:idx]] {
			continue
		}
		merged = append(merged, kv)
	}
	return merged
}

func classifyErr(opts Options, argvTokens []string, runErr error, stdout, stderr string) error {
	exitCode := exitCodeFromErr(runErr)
	classify := opts.Classify
	if classify == nil {
		classify = dwerr.Classify
	}
	return classify(argvTokens, exitCode, stdout, stderr)
}

func exitCodeFromErr(err error) int {
	if err == nil {
		return 0
	}
	if ee, ok := err.(*exec.ExitError); ok {
		return ee.ExitCode()
	}
	return -1
}

func exitCodeOf(r *Result, err error) int {
	if r != nil {
		return r.ExitCode
	}
	return exitCodeFromErr(err)
}

func trimOneTrailingNewline(s string) string {
	return strings.TrimSuffix(s, "\n")
}

// DebugString renders a redacted argv for logging, matching the "never log
// argv or outputs unless an ambient debug flag is set" contract (spec §4.B.6).
func DebugString(argvTokens []string) string {
	return fmt.Sprintf("%v", dwerr.Redact(argvTokens))
}
