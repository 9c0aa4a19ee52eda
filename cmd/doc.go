// Package cmd contains the command-line interface (CLI) definitions and
// execution logic for prune-plan. It provides the root command and the five
// scope subcommands that preview what the corresponding docker prune
// invocation would remove.
//
// Key components:
//   - rootCmd: Root command carrying connection, logging and output flags.
//   - container, image, volume, network, system: Per-scope preview subcommands.
//
// Usage examples:
//   - Run the CLI from main.go:
//     cmd.Execute()
//   - Preview a full system prune including volumes:
//     prune-plan system --all --volumes
//
// The package wires the inventory, scope, planner and render packages
// together, using Cobra for CLI parsing and logrus for logging.
package cmd
