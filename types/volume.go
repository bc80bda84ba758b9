package types

import "time"

// Volume is the `volume inspect` payload.
type Volume struct {
	Name       string            `json:"Name"`
	Driver     string            `json:"Driver"`
	Mountpoint string            `json:"Mountpoint"`
	CreatedAt  time.Time         `json:"CreatedAt"`
	Labels     map[string]string `json:"Labels"`
	Scope      string            `json:"Scope"`
	Options    map[string]string `json:"Options"`
}

// Network is the `network inspect` payload.
type Network struct {
	Name       string                   `json:"Name"`
	ID         string                   `json:"Id"`
	Created    time.Time                `json:"Created"`
	Scope      string                   `json:"Scope"`
	Driver     string                   `json:"Driver"`
	Internal   bool                     `json:"Internal"`
	Attachable bool                     `json:"Attachable"`
	IPAM       IPAM                     `json:"IPAM"`
	Containers map[string]NetContainer  `json:"Containers"`
	Labels     map[string]string        `json:"Labels"`
}

type IPAM struct {
	Driver string       `json:"Driver"`
	Config []IPAMConfig `json:"Config"`
}

type IPAMConfig struct {
	Subnet  string `json:"Subnet"`
	Gateway string `json:"Gateway"`
}

type NetContainer struct {
	Name        string `json:"Name"`
	IPv4Address string `json:"IPv4Address"`
	IPv6Address string `json:"IPv6Address"`
	MacAddress  string `json:"MacAddress"`
}
