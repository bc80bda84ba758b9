package types

import "time"

// Service is the `service inspect` payload (swarm mode).
type Service struct {
	ID        string        `json:"ID"`
	Version   ObjectVersion `json:"Version"`
	CreatedAt time.Time     `json:"CreatedAt"`
	UpdatedAt time.Time     `json:"UpdatedAt"`
	Spec      ServiceSpec   `json:"Spec"`
}

type ObjectVersion struct {
	Index uint64 `json:"Index"`
}

type ServiceSpec struct {
	Name         string            `json:"Name"`
	Labels       map[string]string `json:"Labels"`
	TaskTemplate TaskSpec          `json:"TaskTemplate"`
	Mode         ServiceMode       `json:"Mode"`
	Replicas     *uint64           `json:"-"` // flattened from Mode.Replicated.Replicas by NormalizeService
}

type ServiceMode struct {
	Replicated *struct {
		Replicas uint64 `json:"Replicas"`
	} `json:"Replicated,omitempty"`
	Global *struct{} `json:"Global,omitempty"`
}

func NormalizeService(s *Service) {
	if s.Spec.Mode.Replicated != nil && s.Spec.Replicas == nil {
		r := s.Spec.Mode.Replicated.Replicas
		s.Spec.Replicas = &r
	}
}

type TaskSpec struct {
	ContainerSpec ContainerSpec `json:"ContainerSpec"`
}

type ContainerSpec struct {
	Image string   `json:"Image"`
	Args  []string `json:"Args"`
	Env   []string `json:"Env"`
}

// Task is the `docker inspect <task-id>` payload produced when iterating
// `service ps`/`node ps` output, or swarm task inspection generally.
type Task struct {
	ID           string        `json:"ID"`
	Version      ObjectVersion `json:"Version"`
	CreatedAt    time.Time     `json:"CreatedAt"`
	UpdatedAt    time.Time     `json:"UpdatedAt"`
	ServiceID    string        `json:"ServiceID"`
	NodeID       string        `json:"NodeID"`
	Slot         int           `json:"Slot"`
	Status       TaskStatus    `json:"Status"`
	DesiredState string        `json:"DesiredState"`
}

type TaskStatus struct {
	Timestamp time.Time `json:"Timestamp"`
	State     string    `json:"State"`
	Message   string    `json:"Message"`
	Err       string    `json:"Err,omitempty"`
}

// Node is the `node inspect` payload.
type Node struct {
	ID            string        `json:"ID"`
	Version       ObjectVersion `json:"Version"`
	CreatedAt     time.Time     `json:"CreatedAt"`
	UpdatedAt     time.Time     `json:"UpdatedAt"`
	Spec          NodeSpec      `json:"Spec"`
	Description   NodeDescription `json:"Description"`
	Status        NodeStatus    `json:"Status"`
	ManagerStatus *ManagerStatus `json:"ManagerStatus,omitempty"`
}

type NodeSpec struct {
	Name           string            `json:"Name,omitempty"`
	Labels         map[string]string `json:"Labels"`
	Role           string            `json:"Role"`
	Availability   string            `json:"Availability"`
}

type NodeDescription struct {
	Hostname string `json:"Hostname"`
	Platform struct {
		Architecture string `json:"Architecture"`
		OS           string `json:"OS"`
	} `json:"Platform"`
}

type NodeStatus struct {
	State   string `json:"State"`
	Message string `json:"Message,omitempty"`
	Addr    string `json:"Addr"`
}

type ManagerStatus struct {
	Leader       bool   `json:"Leader"`
	Reachability string `json:"Reachability"`
	Addr         string `json:"Addr"`
}

// ConfigObject is the `config inspect` payload. Named ConfigObject (not
// Config) to avoid colliding with ClientConfig or ContainerConfig.
type ConfigObject struct {
	ID        string        `json:"ID"`
	Version   ObjectVersion `json:"Version"`
	CreatedAt time.Time     `json:"CreatedAt"`
	Spec      NamedSpec     `json:"Spec"`
}

// Secret is the `secret inspect` payload. Its Data is intentionally never
// populated: `secret inspect` never returns the secret payload itself.
type Secret struct {
	ID        string        `json:"ID"`
	Version   ObjectVersion `json:"Version"`
	CreatedAt time.Time     `json:"CreatedAt"`
	Spec      NamedSpec     `json:"Spec"`
}

type NamedSpec struct {
	Name   string            `json:"Name"`
	Labels map[string]string `json:"Labels"`
}

// Pod is the `pod inspect` payload (podman-only concept).
type Pod struct {
	ID         string            `json:"Id"`
	Name       string            `json:"Name"`
	Created    time.Time         `json:"Created"`
	State      string            `json:"State"`
	Labels     map[string]string `json:"Labels"`
	Containers []PodContainer    `json:"Containers"`
}

type PodContainer struct {
	ID    string `json:"Id"`
	Name  string `json:"Name"`
	State string `json:"State"`
}
