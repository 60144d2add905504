package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/jbweber/kiln/internal/app"
	"github.com/jbweber/kiln/internal/config"
	"github.com/jbweber/kiln/internal/output"
	"github.com/jbweber/kiln/internal/prerequisites"
	"github.com/jbweber/kiln/internal/proxmox"
	"github.com/jbweber/kiln/internal/ui"
	"github.com/jbweber/kiln/internal/vm"
)

var (
	version = "dev"
	commit  = "unknown"
)

var (
	debug        bool
	plain        bool
	accessible   bool
	reportFormat string
	lockTimeout  time.Duration
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if errors.Is(err, ui.ErrCancelled) {
		fmt.Println("Deployment cancelled.")
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "kiln",
	Short: "Kiln - Proxmox VE Cloud-Init VM deployer",
	Long: `Kiln deploys a virtual machine on a Proxmox VE node by cloning a
Cloud-Init template.

It lists the cluster's templates and SDN VNets, collects the VM parameters in
an interactive form, and after confirmation clones, configures and starts the
VM while showing a live log of every qm command.

Kiln must run on a Proxmox VE node with the pvesh and qm tools available.`,
	Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if err := output.ValidateFormat(reportFormat); err != nil {
			return err
		}
		return config.ValidateLockTimeout(lockTimeout)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		level := zapcore.InfoLevel
		if debug {
			level = zapcore.DebugLevel
		}

		client := proxmox.NewClient(proxmox.NewExec(nil))

		deps := app.Deps{
			CheckTools: prerequisites.CheckDefault,
			Prompter:   ui.NewForms(accessible || !isTerminal(os.Stdin)),
			Cluster:    client,
			Viewer:     newViewer(cmd.OutOrStdout()),
			NewHypervisor: func(out io.Writer, logger *zap.Logger) vm.Hypervisor {
				return client.With(
					proxmox.WithOutput(out),
					proxmox.WithLogger(logger.Named("proxmox")),
				)
			},
			Out:              cmd.OutOrStdout(),
			LogLevel:         level,
			ReportFormat:     output.Format(reportFormat),
			LockPollInterval: config.LockPollInterval,
			LockTimeout:      lockTimeout,
		}

		return app.Run(cmd.Context(), deps)
	},
}

func init() {
	rootCmd.Flags().BoolVar(&debug, "debug", false, "Include debug entries in the deployment log")
	rootCmd.Flags().BoolVar(&plain, "plain", false, "Print the deployment log instead of the live view")
	rootCmd.Flags().BoolVar(&accessible, "accessible", false, "Use line-based prompts suitable for screen readers")
	rootCmd.Flags().StringVarP(&reportFormat, "report-format", "o", string(output.FormatTable), "Completion report format (table, yaml, json)")
	rootCmd.Flags().DurationVar(&lockTimeout, "lock-timeout", config.LockWaitTimeout, "Maximum time to wait for the clone lock to be released")
}

// newViewer picks the live view on a terminal and plain output otherwise.
func newViewer(out io.Writer) app.Viewer {
	if plain || !isTerminal(os.Stdout) {
		return ui.NewPlainViewer(out)
	}
	return ui.NewTUIViewer(fmt.Sprintf("kiln %s", version))
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
