package config

import (
	"fmt"
	"time"
)

// Cluster-wide settings applied to every deployment.
const (
	// StoragePool is the target storage for full clones.
	StoragePool = "local-lvm"

	// SearchDomain is the DNS search domain pushed through Cloud-Init.
	SearchDomain = "local"

	// DiskID is the disk grown after cloning. Templates built with a
	// different boot disk (virtio0, sata0) will fail the resize step.
	DiskID = "scsi0"

	// FallbackDNS is used when the DNS field is left empty.
	FallbackDNS = "8.8.8.8"
)

// Clone lock wait. A full clone of a large template can take minutes.
const (
	LockPollInterval = 2 * time.Second
	LockWaitTimeout  = 5 * time.Minute
)

// ValidateLockTimeout rejects a lock wait that could never succeed.
func ValidateLockTimeout(d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("invalid lock timeout: %s (must be greater than zero)", d)
	}
	return nil
}

// Form defaults.
const (
	DefaultCores     = "2"
	DefaultMemoryGiB = "4"
	DefaultDiskGiB   = "20"
	DefaultUser      = "admin"
	DefaultIPv4      = "192.168.1.100/24"
	DefaultGatewayV4 = "192.168.1.1"
	DefaultDNS       = FallbackDNS
)

// NewFormInput returns a FormInput pre-filled with the form defaults.
func NewFormInput() FormInput {
	return FormInput{
		Cores:     DefaultCores,
		MemoryGiB: DefaultMemoryGiB,
		DiskGiB:   DefaultDiskGiB,
		User:      DefaultUser,
		IPv4:      DefaultIPv4,
		GatewayV4: DefaultGatewayV4,
		DNS:       DefaultDNS,
	}
}
