package cmd

import (
	"github.com/spf13/cobra"

	"github.com/pruneplan/pruneplan/pkg/scope"
)

// newContainerCommand previews docker container prune: stopped containers
// and their writable-layer sizes.
func newContainerCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "container",
		Short: "List stopped containers that would be pruned",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPlan(cmd, scope.Options{})
		},
	}
}

// newImageCommand previews docker image prune. Without --all only dangling
// images are listed; with it, every image no container references.
func newImageCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "image",
		Short: "List images that would be pruned",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			all, err := cmd.Flags().GetBool("all")
			if err != nil {
				return err
			}

			return runPlan(cmd, scope.Options{All: all})
		},
	}

	cmd.Flags().BoolP(
		"all",
		"a",
		false,
		"Include unused images referenced by no containers, not just dangling images")

	return cmd
}

// newVolumeCommand previews docker volume prune. Without --all only unused
// anonymous volumes are listed, matching the engine's default.
func newVolumeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "volume",
		Short: "List volumes that would be pruned",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			all, err := cmd.Flags().GetBool("all")
			if err != nil {
				return err
			}

			return runPlan(cmd, scope.Options{All: all})
		},
	}

	cmd.Flags().BoolP(
		"all",
		"a",
		false,
		"Include named volumes; by default only anonymous volumes are included")

	return cmd
}

// newNetworkCommand previews docker network prune: user-defined networks
// with no attached containers.
func newNetworkCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "network",
		Short: "List unused networks that would be pruned",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPlan(cmd, scope.Options{})
		},
	}
}

// newSystemCommand previews docker system prune across containers, networks,
// images and build cache, with volumes added on request.
func newSystemCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "system",
		Short: "List everything that would be pruned",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			all, err := cmd.Flags().GetBool("all")
			if err != nil {
				return err
			}

			volumes, err := cmd.Flags().GetBool("volumes")
			if err != nil {
				return err
			}

			objectType, err := cmd.Flags().GetString("type")
			if err != nil {
				return err
			}

			return runPlan(cmd, scope.Options{
				All:     all,
				Volumes: volumes,
				Type:    objectType,
			})
		},
	}

	cmd.Flags().BoolP(
		"all",
		"a",
		false,
		"Include unused images referenced by no containers, not just dangling images")
	cmd.Flags().Bool(
		"volumes",
		false,
		"Include unused anonymous volumes in the plan, matching docker system prune --volumes")
	cmd.Flags().Bool(
		"show-name",
		false,
		"Show the NAME column in the system plan table")
	cmd.Flags().String(
		"type",
		"",
		"Narrow the plan to a single object type: container, image, volume, network or build-cache")

	return cmd
}
