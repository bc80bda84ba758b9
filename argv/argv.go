// Package argv builds the argument vector handed to the engine binary.
//
// Every subcommand wrapper composes a Command the same way: start from a
// client's command prefix, append the subcommand tokens, then let each
// option decide for itself (via the Add* helpers) whether it contributes
// anything to the final argv. No wrapper ever concatenates strings by hand.
package argv

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Command is a mutable, ordered argument vector under construction.
type Command struct {
	tokens []string
}

// New starts a Command from a set of leading tokens (e.g. the engine binary
// path plus the client's global flags).
func New(lead ...string) *Command {
	return &Command{tokens: append([]string{}, lead...)}
}

// Args returns the argv built so far.
func (c *Command) Args() []string {
	return c.tokens
}

// Append adds a single literal token, formatted via the package's value
// formatters.
func (c *Command) Append(token any) *Command {
	s := Format(token)
	if s == "" {
		return c
	}
	c.tokens = append(c.tokens, s)
	return c
}

// AppendRaw adds a single already-stringified token, even if empty.
func (c *Command) AppendRaw(token string) *Command {
	c.tokens = append(c.tokens, token)
	return c
}

// AddFlag appends name iff on is true.
func (c *Command) AddFlag(name string, on bool) *Command {
	if on {
		c.tokens = append(c.tokens, name)
	}
	return c
}

// AddFlagEquals appends "name=true" or "name=false" iff set is true. Used for
// the handful of engine flags (--sbom, --provenance, --infra,
// --sig-proxy=false, --disable-content-trust=false) that require an explicit
// boolean value rather than bare presence.
func (c *Command) AddFlagEquals(name string, value bool, set bool) *Command {
	if !set {
		return c
	}
	c.tokens = append(c.tokens, fmt.Sprintf("%s=%t", name, value))
	return c
}

// AddSimpleArg appends name followed by the formatted value, iff value is
// non-absent (non-zero for scalars, non-empty for strings/pointers).
func (c *Command) AddSimpleArg(name string, value any) *Command {
	if isAbsent(value) {
		return c
	}
	s := Format(value)
	if s == "" {
		return c
	}
	c.tokens = append(c.tokens, name, s)
	return c
}

// AddArgsIterable appends name followed by the formatted value, once per
// element of values, preserving input order.
func (c *Command) AddArgsIterable(name string, values []string) *Command {
	for _, v := range values {
		c.tokens = append(c.tokens, name, v)
	}
	return c
}

// AddArgsIterableOrSingle normalizes a one-or-many argument (accepted by
// callers as either a single string or a slice) into the many-case and
// returns it: many when non-empty, else one as a single element, else nil.
// It appends nothing itself; callers pass the result to AddArgsIterable.
func AddArgsIterableOrSingle(one string, many []string) []string {
	if len(many) > 0 {
		return many
	}
	if one == "" {
		return nil
	}
	return []string{one}
}

// AddArgsMapping appends name followed by "k=v", once per pair, in sorted
// key order (map iteration is non-deterministic in Go, so sorting keeps the
// output reproducible for tests and logs).
func (c *Command) AddArgsMapping(name string, pairs map[string]string) *Command {
	for _, k := range slices.Sorted(maps.Keys(pairs)) {
		c.tokens = append(c.tokens, name, fmt.Sprintf("%s=%s", k, pairs[k]))
	}
	return c
}

// AddTerminator appends the "--" positional terminator.
func (c *Command) AddTerminator() *Command {
	c.tokens = append(c.tokens, "--")
	return c
}

func isAbsent(value any) bool {
	switch v := value.(type) {
	case string:
		return v == ""
	case int:
		return v == 0
	case int64:
		return v == 0
	case bool:
		return !v
	case nil:
		return true
	case *string:
		return v == nil || *v == ""
	case time.Duration:
		return v == 0
	default:
		return false
	}
}

// Format is the single legal stringification path for argument values; see
// spec §4.A. It dispatches on dynamic type instead of requiring every
// wrapper to know the formatting rules for durations, signals, mounts, etc.
func Format(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	case time.Duration:
		return strconv.Itoa(int(t.Seconds()))
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprintf("%v", t)
	}
}

// Seconds formats a duration as a bare integer number of seconds, with no
// unit suffix, per spec §4.A's duration formatter.
func Seconds(d time.Duration) string {
	return strconv.Itoa(int(d.Seconds()))
}

// SecondsFlag formats a duration as "<n>s", for the subset of engine flags
// that require the literal unit suffix (spec §6).
func SecondsFlag(d time.Duration) string {
	return strconv.Itoa(int(d.Seconds())) + "s"
}

// Signal passes numeric and string signal identifiers through verbatim, per
// spec §4.A: no inference of "SIGRTMIN+N" semantics is performed.
func Signal(s string) string {
	return s
}

// PortMapping formats a port publish tuple as "[ip:][host:]container[/proto]",
// covering the five accepted shapes in spec §4.A; IP, HostPort and Proto are
// each optional, and Container is always required.
type PortMapping struct {
	IP        string
	HostPort  string
	Container string
	Proto     string
}

func (p PortMapping) String() string {
	var b strings.Builder
	if p.IP != "" {
		b.WriteString(p.IP)
		b.WriteByte(':')
	}
	if p.HostPort != "" {
		b.WriteString(p.HostPort)
		b.WriteByte(':')
	}
	b.WriteString(p.Container)
	if p.Proto != "" {
		b.WriteByte('/')
		b.WriteString(p.Proto)
	}
	return b.String()
}

// MountTriple formats a bind-mount/volume triple: "src:dst" or "src:dst:mode".
type MountTriple struct {
	Source      string
	Destination string
	Mode        string
}

func (m MountTriple) String() string {
	if m.Mode == "" {
		return m.Source + ":" + m.Destination
	}
	return m.Source + ":" + m.Destination + ":" + m.Mode
}

// AddHost formats a "host:ip" add-host entry.
type AddHost struct {
	Host string
	IP   string
}

func (a AddHost) String() string {
	return a.Host + ":" + a.IP
}

// LabelMap formats a label/env map entry as "k=v".
func LabelMap(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for _, k := range slices.Sorted(maps.Keys(m)) {
		out = append(out, fmt.Sprintf("%s=%s", k, m[k]))
	}
	return out
}
