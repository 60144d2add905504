// Package ui provides the interactive prompts and the live deployment view.
package ui

import (
	"context"
	"errors"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/huh"

	"github.com/jbweber/kiln/internal/config"
	"github.com/jbweber/kiln/internal/proxmox"
)

// ErrCancelled is returned when the user backs out of a prompt.
var ErrCancelled = errors.New("cancelled by user")

// Forms renders the interactive prompts with huh.
type Forms struct {
	accessible bool
}

// NewForms creates a Forms. Accessible mode replaces the full-screen
// widgets with plain line prompts for screen readers.
func NewForms(accessible bool) *Forms {
	return &Forms{accessible: accessible}
}

// SelectTemplate prompts for the template to clone and returns its VMID.
func (f *Forms) SelectTemplate(ctx context.Context, templates []proxmox.Template) (int, error) {
	options := make([]huh.Option[int], len(templates))
	for i, t := range templates {
		options[i] = huh.NewOption(t.Label(), t.VMID)
	}

	var vmid int
	if len(templates) > 0 {
		vmid = templates[0].VMID
	}

	err := f.run(ctx, templateForm(options, &vmid))
	return vmid, err
}

func templateForm(options []huh.Option[int], vmid *int) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[int]().
				Title("Template").
				Description("VM template to clone").
				Options(options...).
				Value(vmid),
		).Title("Select Template"),
	)
}

// SelectNetwork prompts for the VNet to attach and returns its name.
func (f *Forms) SelectNetwork(ctx context.Context, vnets []proxmox.VNet) (string, error) {
	options := make([]huh.Option[string], len(vnets))
	for i, v := range vnets {
		options[i] = huh.NewOption(v.Label(), v.Name)
	}

	var name string
	if len(vnets) > 0 {
		name = vnets[0].Name
	}

	err := f.run(ctx, networkForm(options, &name))
	return name, err
}

func networkForm(options []huh.Option[string], name *string) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Network").
				Description("SDN VNet for the first network interface").
				Options(options...).
				Value(name),
		).Title("Select Network"),
	)
}

// Collect prompts for the VM parameters. in supplies the initial values and
// receives the answers. Required fields are checked by the caller once the
// form is submitted.
func (f *Forms) Collect(ctx context.Context, in *config.FormInput) error {
	return f.run(ctx, parametersForm(in))
}

func parametersForm(in *config.FormInput) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("VM ID").
				Description("Unused numeric ID for the new VM").
				Placeholder("150").
				Value(&in.VMID),
			huh.NewInput().
				Title("VM Name").
				Placeholder("web1").
				Value(&in.Name),
		).Title("Identity"),
		huh.NewGroup(
			huh.NewInput().
				Title("CPU Cores").
				Value(&in.Cores),
			huh.NewInput().
				Title("Memory (GiB)").
				Value(&in.MemoryGiB),
			huh.NewInput().
				Title("Disk Grow (GiB)").
				Description("Added to the template disk "+config.DiskID).
				Value(&in.DiskGiB),
		).Title("Resources"),
		huh.NewGroup(
			huh.NewInput().
				Title("Username").
				Value(&in.User),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&in.Password),
			huh.NewText().
				Title("SSH Public Key (Optional)").
				Description("Paste a key or enter a path such as ~/.ssh/id_ed25519.pub").
				Lines(3).
				Value(&in.SSHKey),
		).Title("Access"),
		huh.NewGroup(
			huh.NewInput().
				Title("IPv4 Address").
				Description("CIDR notation").
				Value(&in.IPv4),
			huh.NewInput().
				Title("IPv4 Gateway").
				Value(&in.GatewayV4),
			huh.NewInput().
				Title("IPv6 Address (Optional)").
				Description("Applied only together with an IPv6 gateway").
				Placeholder("fd00::50/64").
				Value(&in.IPv6),
			huh.NewInput().
				Title("IPv6 Gateway (Optional)").
				Placeholder("fd00::1").
				Value(&in.GatewayV6),
			huh.NewInput().
				Title("DNS Server").
				Description("Defaults to "+config.FallbackDNS+" when empty").
				Value(&in.DNS),
		).Title("Network"),
	)
}

// Confirm shows the deployment summary and asks whether to proceed.
func (f *Forms) Confirm(ctx context.Context, summary string) (bool, error) {
	proceed := false

	err := f.run(ctx, confirmForm(summary, &proceed))
	return proceed, err
}

func confirmForm(summary string, proceed *bool) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Deployment Summary").
				Description(summary),
			huh.NewConfirm().
				Title("Deploy this VM?").
				Affirmative("Deploy").
				Negative("Cancel").
				Value(proceed),
		),
	)
}

// Alert shows a blocking message until the user acknowledges it.
func (f *Forms) Alert(ctx context.Context, title, text string) error {
	return f.run(ctx, huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title(title).
				Description(text).
				Next(true).
				NextLabel("OK"),
		),
	))
}

func (f *Forms) run(ctx context.Context, form *huh.Form) error {
	err := f.prepare(form).RunWithContext(ctx)
	return translate(ctx, err)
}

// prepare applies the shared key bindings and display mode to form.
func (f *Forms) prepare(form *huh.Form) *huh.Form {
	return form.WithKeyMap(keyMap()).WithAccessible(f.accessible)
}

// keyMap returns the huh defaults with Esc added to the abort binding.
func keyMap() *huh.KeyMap {
	km := huh.NewDefaultKeyMap()
	km.Quit = key.NewBinding(key.WithKeys("ctrl+c", "esc"))
	return km
}

// translate maps a user abort or an interrupted context to ErrCancelled.
func translate(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, huh.ErrUserAborted) || ctx.Err() != nil {
		return ErrCancelled
	}
	return err
}
