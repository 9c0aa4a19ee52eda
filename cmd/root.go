package cmd

import (
	"fmt"

	"github.com/docker/go-units"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/pruneplan/pruneplan/internal/flags"
	"github.com/pruneplan/pruneplan/internal/meta"
	"github.com/pruneplan/pruneplan/internal/render"
	"github.com/pruneplan/pruneplan/pkg/inventory"
	"github.com/pruneplan/pruneplan/pkg/planner"
	"github.com/pruneplan/pruneplan/pkg/scope"
)

// rootCmd is the top-level command. Subcommands attach to it during package
// initialization; it performs no planning itself.
var rootCmd = NewRootCommand()

// NewRootCommand creates the root cobra command for prune-plan.
func NewRootCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "prune-plan",
		Short: "Preview what docker prune commands would remove",
		Long: "\nprune-plan shows which containers, images, volumes, networks and build-cache\n" +
			"entries a docker prune invocation would remove, and how much disk space it\n" +
			"would reclaim, without deleting anything.",
		Version:       meta.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return flags.SetupLogging(cmd.Root().PersistentFlags())
		},
	}
}

// init registers command-line flags and the scope subcommands during package
// initialization.
func init() {
	flags.SetDefaults()
	flags.RegisterDockerFlags(rootCmd)
	flags.RegisterLogFlags(rootCmd)
	flags.RegisterOutputFlags(rootCmd)

	rootCmd.AddCommand(
		newContainerCommand(),
		newImageCommand(),
		newVolumeCommand(),
		newNetworkCommand(),
		newSystemCommand(),
	)
}

// Execute runs the root command and manages any errors encountered during
// its execution. It is the primary entry point for the CLI, called from
// main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logrus.WithError(err).Fatal("Failed to execute root command")
	}
}

// runPlan is the shared subcommand body: resolve the scope, snapshot the
// inventory, build the plan and render it. Scope resolution runs before the
// Docker client is even constructed, so invalid flag combinations never
// touch the daemon.
func runPlan(cmd *cobra.Command, opts scope.Options) error {
	rules, err := scope.Resolve(cmd.Name(), opts)
	if err != nil {
		return err
	}

	renderOpts, err := renderOptions(cmd)
	if err != nil {
		return err
	}

	clientOpts, err := clientOptions(cmd)
	if err != nil {
		return err
	}

	client, err := inventory.NewClient(clientOpts)
	if err != nil {
		return err
	}

	defer func() {
		if err := client.Close(); err != nil {
			logrus.WithError(err).Debug("Failed to close inventory client")
		}
	}()

	snap := client.Snapshot(cmd.Context())
	plan := planner.Plan(snap, rules)

	renderer := render.Renderer{
		Out:  cmd.OutOrStdout(),
		Fs:   afero.NewOsFs(),
		Opts: renderOpts,
	}

	return renderer.Render(plan)
}

// clientOptions reads the Docker connection flags from the root command.
func clientOptions(cmd *cobra.Command) (inventory.ClientOptions, error) {
	rootFlags := cmd.Root().PersistentFlags()

	host, err := rootFlags.GetString("host")
	if err != nil {
		return inventory.ClientOptions{}, fmt.Errorf("failed to get host flag: %w", err)
	}

	tlsVerify, err := rootFlags.GetBool("tlsverify")
	if err != nil {
		return inventory.ClientOptions{}, fmt.Errorf("failed to get tlsverify flag: %w", err)
	}

	apiVersion, err := rootFlags.GetString("api-version")
	if err != nil {
		return inventory.ClientOptions{}, fmt.Errorf("failed to get api-version flag: %w", err)
	}

	return inventory.ClientOptions{
		Host:       host,
		TLSVerify:  tlsVerify,
		APIVersion: apiVersion,
	}, nil
}

// renderOptions reads the output flags shared by every subcommand. The
// system-only --show-name flag is read when present.
func renderOptions(cmd *cobra.Command) (render.Options, error) {
	rootFlags := cmd.Root().PersistentFlags()

	jsonOut, err := rootFlags.GetBool("json")
	if err != nil {
		return render.Options{}, fmt.Errorf("failed to get json flag: %w", err)
	}

	outputPath, err := rootFlags.GetString("output")
	if err != nil {
		return render.Options{}, fmt.Errorf("failed to get output flag: %w", err)
	}

	minSizeRaw, err := rootFlags.GetString("min-size")
	if err != nil {
		return render.Options{}, fmt.Errorf("failed to get min-size flag: %w", err)
	}

	opts := render.Options{
		JSON:       jsonOut,
		OutputPath: outputPath,
	}

	if minSizeRaw != "" {
		minSize, err := units.FromHumanSize(minSizeRaw)
		if err != nil {
			return render.Options{}, fmt.Errorf("invalid --min-size value %q: %w", minSizeRaw, err)
		}

		opts.MinSize = minSize
	}

	if flag := cmd.Flags().Lookup("show-name"); flag != nil {
		showName, err := cmd.Flags().GetBool("show-name")
		if err != nil {
			return render.Options{}, fmt.Errorf("failed to get show-name flag: %w", err)
		}

		opts.ShowName = showName
	}

	return opts, nil
}
