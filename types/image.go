package types

import "time"

// Image is the `image inspect` payload.
type Image struct {
	ID           string            `json:"Id"`
	RepoTags     []string          `json:"RepoTags"`
	RepoDigests  []string          `json:"RepoDigests"`
	Created      time.Time         `json:"Created"`
	Size         int64             `json:"Size"`
	VirtualSize  int64             `json:"VirtualSize"`
	Architecture string            `json:"Architecture"`
	Os           string            `json:"Os"`
	Config       ImageConfig       `json:"Config"`
	RootFS       RootFS            `json:"RootFS"`
	Labels       map[string]string `json:"-"` // promoted from Config.Labels by NormalizeImage
}

type ImageConfig struct {
	Env        []string          `json:"Env"`
	Cmd        []string          `json:"Cmd"`
	Entrypoint []string          `json:"Entrypoint"`
	WorkingDir string            `json:"WorkingDir"`
	User       string            `json:"User"`
	Labels     map[string]string `json:"Labels"`
	ExposedPorts map[string]struct{} `json:"ExposedPorts"`
}

type RootFS struct {
	Type   string   `json:"Type"`
	Layers []string `json:"Layers"`
}

// NormalizeImage promotes Config.Labels to the top-level Labels field so
// callers don't need to know which nesting level the engine put them at
// (podman and docker disagree here in older releases).
func NormalizeImage(img *Image) {
	if img.Labels == nil {
		img.Labels = img.Config.Labels
	}
}

// ManifestEntry is one platform-specific entry in a `manifest inspect`
// (or buildx "manifest" subcommand) multi-arch index.
type ManifestEntry struct {
	Digest    string   `json:"digest"`
	MediaType string   `json:"mediaType"`
	Size      int64    `json:"size"`
	Platform  Platform `json:"platform"`
}

type Platform struct {
	Architecture string `json:"architecture"`
	OS           string `json:"os"`
	Variant      string `json:"variant,omitempty"`
}

// ManifestList is the payload for `manifest inspect` / `buildx imagetools
// inspect --raw` once decoded.
type ManifestList struct {
	SchemaVersion int             `json:"schemaVersion"`
	MediaType     string          `json:"mediaType"`
	Manifests     []ManifestEntry `json:"manifests"`
}
