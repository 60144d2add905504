package cloudinit

import (
	"testing"

	"github.com/jbweber/kiln/internal/config"
	"github.com/jbweber/kiln/internal/proxmox"
)

func testRequest() *config.DeploymentRequest {
	return &config.DeploymentRequest{
		VMID:         150,
		Name:         "web1",
		User:         "admin",
		Password:     "secret",
		IPv4:         "10.0.0.50/24",
		GatewayV4:    "10.0.0.1",
		DNS:          "1.1.1.1",
		Bridge:       "vnet10",
		SearchDomain: "local",
	}
}

func TestNetworkOptions(t *testing.T) {
	got := NetworkOptions(testRequest())
	want := []proxmox.Option{
		{Key: "net0", Value: "virtio,bridge=vnet10"},
		{Key: "ipconfig0", Value: "ip=10.0.0.50/24,gw=10.0.0.1"},
		{Key: "nameserver", Value: "1.1.1.1"},
		{Key: "searchdomain", Value: "local"},
	}

	if len(got) != len(want) {
		t.Fatalf("NetworkOptions() returned %d options, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("option %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestNetworkOptions_DNSFallback(t *testing.T) {
	req := testRequest()
	req.DNS = ""

	opts := NetworkOptions(req)
	if opts[2].Value != config.FallbackDNS {
		t.Errorf("nameserver = %q, want fallback %q", opts[2].Value, config.FallbackDNS)
	}
}

func TestUserOptions(t *testing.T) {
	got := UserOptions(testRequest())
	if len(got) != 2 {
		t.Fatalf("expected 2 options, got %d", len(got))
	}
	if got[0] != proxmox.Opt("ciuser", "admin") || got[1] != proxmox.Opt("cipassword", "secret") {
		t.Errorf("unexpected user options: %+v", got)
	}
}

func TestSSHKeyOption(t *testing.T) {
	if got := SSHKeyOption("/tmp/key.pub"); got != proxmox.Opt("sshkeys", "/tmp/key.pub") {
		t.Errorf("SSHKeyOption() = %+v", got)
	}
}
