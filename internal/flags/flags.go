// Package flags manages command-line flags and environment variables for
// prune-plan configuration.
package flags

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// errInvalidLogFormat indicates an invalid log format was specified.
// It is used in SetupLogging to report configuration errors.
var errInvalidLogFormat = errors.New("invalid log format specified")

// errInvalidLogLevel indicates an invalid log level was specified.
// It is used in SetupLogging to report configuration errors.
var errInvalidLogLevel = errors.New("invalid log level specified")

// errGetFlagFailed indicates a failure to read a flag's value.
var errGetFlagFailed = errors.New("failed to get flag value")

// RegisterDockerFlags adds flags used directly by the Docker API client to
// the root command. These flags configure the Docker connection settings.
func RegisterDockerFlags(rootCmd *cobra.Command) {
	flags := rootCmd.PersistentFlags()
	flags.StringP("host", "H", envString("DOCKER_HOST"), "daemon socket to connect to")
	flags.BoolP("tlsverify", "v", envBool("DOCKER_TLS_VERIFY"), "use TLS and verify the remote")
	// No shorthand: -a belongs to the subcommands' --all flag, as in the
	// docker CLI.
	flags.String(
		"api-version",
		envString("DOCKER_API_VERSION"),
		"api version to use by docker client",
	)
}

// RegisterOutputFlags adds flags controlling how plans are rendered.
func RegisterOutputFlags(rootCmd *cobra.Command) {
	flags := rootCmd.PersistentFlags()

	flags.Bool(
		"json",
		envBool("PRUNE_PLAN_JSON"),
		"Output the plan as JSON instead of a table")

	flags.StringP(
		"output",
		"o",
		envString("PRUNE_PLAN_OUTPUT"),
		"Write the rendered plan to a file instead of stdout")

	flags.String(
		"min-size",
		envString("PRUNE_PLAN_MIN_SIZE"),
		"Hide plan entries smaller than this size (e.g. 10MB); totals are unaffected")
}

// RegisterLogFlags adds logging configuration flags to the root command.
func RegisterLogFlags(rootCmd *cobra.Command) {
	flags := rootCmd.PersistentFlags()

	flags.String(
		"log-level",
		envString("PRUNE_PLAN_LOG_LEVEL"),
		"The maximum log level that will be written to STDERR. Possible values: panic, fatal, error, warn, info, debug or trace")

	flags.String(
		"log-format",
		envString("PRUNE_PLAN_LOG_FORMAT"),
		"Sets what logging format to use for console output. Possible values: Auto, LogFmt, Pretty or JSON")

	flags.Bool(
		"no-color",
		envBool("NO_COLOR"),
		"Disable ANSI color escape codes in log output")

	flags.BoolP(
		"debug",
		"d",
		envBool("PRUNE_PLAN_DEBUG"),
		"Enable debug mode with verbose logging")

	flags.Bool(
		"trace",
		envBool("PRUNE_PLAN_TRACE"),
		"Enable trace mode with very verbose logging - caution, exposes sensitive log data")
}

// SetDefaults configures default values for environment variables.
// It ensures consistent fallback behavior when flags or environment
// variables are unset.
func SetDefaults() {
	viper.AutomaticEnv()
	viper.SetDefault("PRUNE_PLAN_LOG_LEVEL", "info")
	viper.SetDefault("PRUNE_PLAN_LOG_FORMAT", "auto")
}

// SetupLogging configures logrus from the logging flags. The --debug and
// --trace shortcuts take precedence over --log-level.
func SetupLogging(flags *pflag.FlagSet) error {
	logFormat, err := flags.GetString("log-format")
	if err != nil {
		return fmt.Errorf("%w: %w", errGetFlagFailed, err)
	}

	noColor, err := flags.GetBool("no-color")
	if err != nil {
		return fmt.Errorf("%w: %w", errGetFlagFailed, err)
	}

	if err := configureLogFormat(logFormat, noColor); err != nil {
		return err
	}

	rawLogLevel, err := flags.GetString("log-level")
	if err != nil {
		return fmt.Errorf("%w: %w", errGetFlagFailed, err)
	}

	if flagIsEnabled(flags, "debug") {
		rawLogLevel = "debug"
	}

	if flagIsEnabled(flags, "trace") {
		rawLogLevel = "trace"
	}

	logLevel, err := logrus.ParseLevel(rawLogLevel)
	if err != nil {
		return fmt.Errorf("%w: %w", errInvalidLogLevel, err)
	}

	logrus.SetLevel(logLevel)

	return nil
}

// configureLogFormat sets the logrus formatter based on the specified format
// and color preference. It returns an error if the format is invalid.
func configureLogFormat(logFormat string, noColor bool) error {
	switch strings.ToLower(logFormat) {
	case "auto":
		logrus.SetFormatter(&logrus.TextFormatter{
			DisableColors:             noColor,
			EnvironmentOverrideColors: true,
		})
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	case "logfmt":
		logrus.SetFormatter(&logrus.TextFormatter{
			DisableColors: true,
			FullTimestamp: true,
		})
	case "pretty":
		logrus.SetFormatter(&logrus.TextFormatter{
			ForceColors:   !noColor,
			FullTimestamp: false,
		})
	default:
		return fmt.Errorf("%w: %s", errInvalidLogFormat, logFormat)
	}

	return nil
}

// flagIsEnabled checks if a boolean flag is set to true.
// It exits with a fatal error if the flag is not defined.
func flagIsEnabled(flags *pflag.FlagSet, name string) bool {
	value, err := flags.GetBool(name)
	if err != nil {
		logrus.Fatalf("The flag %q is not defined", name)
	}

	return value
}

// envString retrieves a string value from an environment variable via Viper.
// It binds the key to the environment and returns its value.
func envString(key string) string {
	viper.MustBindEnv(key)

	return viper.GetString(key)
}

// envBool retrieves a boolean value from an environment variable via Viper.
// It binds the key to the environment and returns its value.
func envBool(key string) bool {
	viper.MustBindEnv(key)

	return viper.GetBool(key)
}
