// Package types defines the tolerant payload records parsed from the
// engine's inspect family (spec §3 "InspectPayload", §4.F). Every field is
// optional by default: unknown wire fields are ignored by encoding/json,
// and every struct tolerates an entirely absent key by leaving the Go zero
// value, which callers read as "unknown" at the API surface.
package types

import "time"

// Container is docker/podman's `container inspect` payload, with wire
// field names (PascalCase, with domain acronyms like "Cmd", "Pid") mapped
// onto a single canonical camelCase form.
type Container struct {
	ID              string            `json:"Id"`
	Name            string            `json:"Name"`
	Created         time.Time         `json:"Created"`
	Path            string            `json:"Path"`
	Args            []string          `json:"Args"`
	State           ContainerState    `json:"State"`
	Image           string            `json:"Image"`
	ResolvConfPath  string            `json:"ResolvConfPath"`
	HostnamePath    string            `json:"HostnamePath"`
	HostsPath       string            `json:"HostsPath"`
	LogPath         string            `json:"LogPath"`
	RestartCount    int               `json:"RestartCount"`
	Driver          string            `json:"Driver"`
	Platform        string            `json:"Platform"`
	MountLabel      string            `json:"MountLabel"`
	ProcessLabel    string            `json:"ProcessLabel"`
	AppArmorProfile string            `json:"AppArmorProfile"`
	ExecIDs         []string          `json:"ExecIDs"`
	HostConfig      HostConfig        `json:"HostConfig"`
	Mounts          []MountPoint      `json:"Mounts"`
	Config          ContainerConfig   `json:"Config"`
	NetworkSettings NetworkSettings   `json:"NetworkSettings"`
}

type ContainerState struct {
	Status     string    `json:"Status"`
	Running    bool      `json:"Running"`
	Paused     bool      `json:"Paused"`
	Restarting bool      `json:"Restarting"`
	OOMKilled  bool      `json:"OOMKilled"`
	Dead       bool      `json:"Dead"`
	Pid        int       `json:"Pid"`
	ExitCode   int       `json:"ExitCode"`
	Error      string    `json:"Error"`
	StartedAt  time.Time `json:"StartedAt"`
	FinishedAt time.Time `json:"FinishedAt"`
	Health     *Health   `json:"Health,omitempty"`
}

type Health struct {
	Status        string         `json:"Status"`
	FailingStreak int            `json:"FailingStreak"`
	Log           []HealthResult `json:"Log"`
}

type HealthResult struct {
	Start    time.Time `json:"Start"`
	End      time.Time `json:"End"`
	ExitCode int       `json:"ExitCode"`
	Output   string    `json:"Output"`
}

type HostConfig struct {
	NetworkMode   string             `json:"NetworkMode"`
	RestartPolicy RestartPolicy      `json:"RestartPolicy"`
	AutoRemove    bool               `json:"AutoRemove"`
	Privileged    bool               `json:"Privileged"`
	Binds         []string           `json:"Binds"`
	PortBindings  map[string][]PortBinding `json:"PortBindings"`
	CPUShares     int64              `json:"CpuShares"`
	Memory        int64              `json:"Memory"`
}

type RestartPolicy struct {
	Name              string `json:"Name"`
	MaximumRetryCount int    `json:"MaximumRetryCount"`
}

type PortBinding struct {
	HostIP   string `json:"HostIp"`
	HostPort string `json:"HostPort"`
}

type MountPoint struct {
	Type        string `json:"Type"`
	Name        string `json:"Name,omitempty"`
	Source      string `json:"Source"`
	Destination string `json:"Destination"`
	Driver      string `json:"Driver,omitempty"`
	Mode        string `json:"Mode"`
	RW          bool   `json:"RW"`
}

type ContainerConfig struct {
	Hostname     string            `json:"Hostname"`
	Env          []string          `json:"Env"`
	Cmd          []string          `json:"Cmd"`
	Entrypoint   []string          `json:"Entrypoint"`
	Image        string            `json:"Image"`
	WorkingDir   string            `json:"WorkingDir"`
	Labels       map[string]string `json:"Labels"`
	User         string            `json:"User"`
	Tty          bool              `json:"Tty"`
	OpenStdin    bool              `json:"OpenStdin"`
	ExposedPorts map[string]struct{} `json:"ExposedPorts"`
}

type NetworkSettings struct {
	IPAddress   string                        `json:"IPAddress"`
	Gateway     string                        `json:"Gateway"`
	Ports       map[string][]PortBinding      `json:"Ports"`
	Networks    map[string]EndpointSettings   `json:"Networks"`
}

type EndpointSettings struct {
	NetworkID  string `json:"NetworkID"`
	EndpointID string `json:"EndpointID"`
	Gateway    string `json:"Gateway"`
	IPAddress  string `json:"IPAddress"`
	MacAddress string `json:"MacAddress"`
}
