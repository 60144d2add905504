// Package config defines the deployment request collected from the
// interactive form and the cluster-wide constants it is combined with.
package config

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormInput holds the raw strings entered in the parameter form.
// Field order matches the order the form presents them.
type FormInput struct {
	VMID      string
	Name      string
	Cores     string
	MemoryGiB string
	DiskGiB   string
	User      string
	Password  string
	SSHKey    string // Literal public key or a path to one (~ is expanded)
	IPv4      string // CIDR, e.g. "10.0.0.50/24"
	GatewayV4 string
	IPv6      string // Optional, applied only together with GatewayV6
	GatewayV6 string
	DNS       string
}

// DeploymentRequest is the validated, typed form of a FormInput plus the
// template and VNet chosen from the cluster. It is consumed by exactly one
// deployment run and never persisted.
type DeploymentRequest struct {
	TemplateID   int    `yaml:"template_id" json:"template_id"`
	VMID         int    `yaml:"vmid" json:"vmid"`
	Name         string `yaml:"name" json:"name"`
	Cores        int    `yaml:"cores" json:"cores"`
	MemoryGiB    int    `yaml:"memory_gib" json:"memory_gib"`
	DiskGiB      int    `yaml:"disk_grow_gib" json:"disk_grow_gib"`
	User         string `yaml:"user" json:"user"`
	Password     string `yaml:"-" json:"-"`
	SSHKey       string `yaml:"-" json:"-"`
	IPv4         string `yaml:"ipv4" json:"ipv4"`
	GatewayV4    string `yaml:"gateway_v4" json:"gateway_v4"`
	IPv6         string `yaml:"ipv6,omitempty" json:"ipv6,omitempty"`
	GatewayV6    string `yaml:"gateway_v6,omitempty" json:"gateway_v6,omitempty"`
	DNS          string `yaml:"dns" json:"dns"`
	Bridge       string `yaml:"bridge" json:"bridge"`
	SearchDomain string `yaml:"search_domain" json:"search_domain"`
	StoragePool  string `yaml:"storage_pool" json:"storage_pool"`
}

// Validate checks that every required field is present.
// Only presence is checked; IP addresses and names are passed to the
// hypervisor as entered.
func (f *FormInput) Validate() error {
	required := []struct {
		label string
		value string
	}{
		{"VM ID", f.VMID},
		{"VM name", f.Name},
		{"username", f.User},
		{"password", f.Password},
		{"IPv4 address", f.IPv4},
		{"IPv4 gateway", f.GatewayV4},
	}

	var missing []string
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			missing = append(missing, r.label)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingField, strings.Join(missing, ", "))
	}
	return nil
}

// NewDeploymentRequest validates the form input and converts it into a
// DeploymentRequest targeting the given template and VNet.
func NewDeploymentRequest(templateID int, vnet string, in FormInput) (*DeploymentRequest, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	vmid, err := parsePositive("VM ID", in.VMID, math.MaxInt)
	if err != nil {
		return nil, err
	}
	cores, err := parsePositive("CPU cores", in.Cores, math.MaxInt)
	if err != nil {
		return nil, err
	}
	memory, err := parsePositive("memory", in.MemoryGiB, maxMemoryGiB)
	if err != nil {
		return nil, err
	}
	disk, err := parsePositive("disk size", in.DiskGiB, math.MaxInt)
	if err != nil {
		return nil, err
	}

	req := &DeploymentRequest{
		TemplateID:   templateID,
		VMID:         vmid,
		Name:         strings.TrimSpace(in.Name),
		Cores:        cores,
		MemoryGiB:    memory,
		DiskGiB:      disk,
		User:         strings.TrimSpace(in.User),
		Password:     in.Password,
		SSHKey:       strings.TrimSpace(in.SSHKey),
		IPv4:         strings.TrimSpace(in.IPv4),
		GatewayV4:    strings.TrimSpace(in.GatewayV4),
		DNS:          strings.TrimSpace(in.DNS),
		Bridge:       vnet,
		SearchDomain: SearchDomain,
		StoragePool:  StoragePool,
	}

	// A one-sided IPv6 entry is dropped rather than partially applied.
	ipv6 := strings.TrimSpace(in.IPv6)
	gw6 := strings.TrimSpace(in.GatewayV6)
	if ipv6 != "" && gw6 != "" {
		req.IPv6 = ipv6
		req.GatewayV6 = gw6
	}

	return req, nil
}

// MemoryMiB returns the memory size in MiB, the unit qm expects.
func (r *DeploymentRequest) MemoryMiB() int {
	return r.MemoryGiB * 1024
}

// DiskGrow returns the relative resize argument, e.g. "+20G".
func (r *DeploymentRequest) DiskGrow() string {
	return fmt.Sprintf("+%dG", r.DiskGiB)
}

// HasIPv6 reports whether both IPv6 address and gateway are set.
func (r *DeploymentRequest) HasIPv6() bool {
	return r.IPv6 != "" && r.GatewayV6 != ""
}

// IPConfig returns the Cloud-Init ipconfig0 value.
// Format: ip=<v4>,gw=<gw4>[,ip6=<v6>,gw6=<gw6>]
func (r *DeploymentRequest) IPConfig() string {
	cfg := fmt.Sprintf("ip=%s,gw=%s", r.IPv4, r.GatewayV4)
	if r.HasIPv6() {
		cfg += fmt.Sprintf(",ip6=%s,gw6=%s", r.IPv6, r.GatewayV6)
	}
	return cfg
}

// Nameserver returns the DNS server, falling back to FallbackDNS.
func (r *DeploymentRequest) Nameserver() string {
	if r.DNS == "" {
		return FallbackDNS
	}
	return r.DNS
}

// HasSSHKey reports whether an SSH key was supplied.
func (r *DeploymentRequest) HasSSHKey() bool {
	return r.SSHKey != ""
}

// maxMemoryGiB keeps MemoryMiB from overflowing.
const maxMemoryGiB = math.MaxInt / 1024

// parsePositive parses a whole number in the range [1, limit].
func parsePositive(label, value string, limit int) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n <= 0 || n > limit {
		return 0, fmt.Errorf("%s %q: %w", label, value, ErrInvalidNumber)
	}
	return n, nil
}
