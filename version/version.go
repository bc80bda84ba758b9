// Package version reports enginectl's own build provenance. This is
// deliberately distinct from the host engine's `docker version`/`podman
// version` output: the upstream client this library is modeled on leaves its
// own top-level `version()` as `raise NotImplementedError` precisely because
// "the version of this library" and "the version of the engine it drives"
// are different questions, and conflating them misleads callers who want to
// know which of the two is stale.
package version

import (
	"context"
	"runtime/debug"

	"github.com/google/go-cmp/cmp"

	"github.com/banksean/enginectl"
)

var (
	// These will be set via -ldflags during build
	GitRepo   string
	GitBranch string
	GitCommit string
	BuildTime string
)

// Info is enginectl's own build metadata, optionally paired with the engine
// binary it would drive (EngineKind/EnginePath), resolved separately via
// Resolve.
type Info struct {
	GitRepo   string           `json:"gitRepo,omitempty"`
	GitBranch string           `json:"gitBranch,omitempty"`
	GitCommit string           `json:"gitCommit,omitempty"`
	BuildTime string           `json:"buildTime,omitempty"`
	BuildInfo *debug.BuildInfo `json:"buildInfo,omitempty"`

	EngineKind string `json:"engineKind,omitempty"`
	EnginePath string `json:"enginePath,omitempty"`
}

// Get returns enginectl's own build version information.
func Get() Info {
	buildInfo, ok := debug.ReadBuildInfo()
	ret := Info{
		GitRepo:   GitRepo,
		GitBranch: GitBranch,
		GitCommit: GitCommit,
		BuildTime: BuildTime,
	}
	if ok {
		ret.BuildInfo = buildInfo
	}
	return ret
}

// Resolve fills in EngineKind and EnginePath from cfg's BinaryResolver
// (spec §3), so a caller reporting enginectl's own version can show which
// host engine binary it would actually invoke. It does not shell out to the
// engine's own `version` subcommand; that's the caller's (e.g. a `system` or
// `compose`/`buildx` client's) job.
func (v Info) Resolve(ctx context.Context, cfg *enginectl.ClientConfig) (Info, error) {
	path, err := cfg.BinaryPath(ctx)
	if err != nil {
		return v, err
	}
	v.EngineKind = string(cfg.EngineKind)
	v.EnginePath = path
	return v, nil
}

// Equal checks if two version infos represent the same enginectl build.
// Two versions are considered equal if they have the same git commit;
// EngineKind/EnginePath aren't part of the build identity.
func (v Info) Equal(other Info) bool {
	if v.BuildInfo != nil {
		if other.BuildInfo == nil {
			return false
		}
		if v.BuildInfo.Main.Path != other.BuildInfo.Main.Path ||
			!cmp.Equal(v.BuildInfo.Deps, other.BuildInfo.Deps) ||
			v.BuildInfo.GoVersion != other.BuildInfo.GoVersion {
			return false
		}
	}
	if v.BuildTime != other.BuildTime ||
		v.GitBranch != other.GitBranch ||
		v.GitCommit != other.GitCommit ||
		v.GitRepo != other.GitRepo {
		return false
	}
	return true
}
