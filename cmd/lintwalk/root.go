package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"geokit.dev/tools/geokit/internal/adapter"
	"geokit.dev/tools/geokit/internal/controller"
	"geokit.dev/tools/geokit/internal/domain"
)

// runnerFactory builds the lint runner for one invocation. Output goes to
// out; each linter subprocess gets timeout.
type runnerFactory func(out io.Writer, timeout time.Duration) domain.LintRunner

var newLintRunner runnerFactory = defaultLintRunner

var (
	shardFlag       string
	writeConfigFlag bool
	logFileFlag     string
	verboseFlag     bool
)

const rootLongDescription = `Lintwalk walks a directory tree and runs every file through an external
JavaScript linter.

For each file a scratch script is written that declares the file's path,
followed by the driver script:

  var filename = "<path>";
  <contents of the driver>

The linter command is then invoked with the scratch path. A file passes
when the linter exits 0. Lintwalk exits non-zero if any file fails or the
linter cannot be run.`

func defaultLintRunner(out io.Writer, timeout time.Duration) domain.LintRunner {
	return domain.NewLintRunner(
		adapter.NewLocalSourceFSAdapter(),
		adapter.NewLocalLinterAdapter(timeout),
		adapter.NewReportStore(),
		controller.NewSimpleUI(out, out == os.Stdout && controller.IsTTY(os.Stdout)),
	)
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "lintwalk <root>",
		Short:         "Lint every file under a directory with an external linter",
		Long:          rootLongDescription,
		Version:       buildVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(cmd *cobra.Command, args []string) error {
			if writeConfigFlag {
				return cobra.MaximumNArgs(1)(cmd, args)
			}

			return cobra.ExactArgs(1)(cmd, args)
		},
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			configureLogger()

			if configErr != nil {
				slog.Error("Invalid config file", "file", configFileName, "error", configErr)
				return configErr
			}

			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if writeConfigFlag {
				return writeConfig()
			}

			shardIndex, shardCount := parseShardFlag(shardFlag)
			cfg := lintConfigFromViper(args[0], shardIndex, shardCount)

			runner := newLintRunner(cmd.OutOrStdout(), lintTimeout())

			_, err := runner.Run(contextOf(cmd), cfg)

			return err
		},
	}

	configureRootFlags(cmd)

	return cmd
}

func configureRootFlags(cmd *cobra.Command) {
	flags := cmd.Flags()

	flags.String(driverFlagName, viper.GetString(driverKey), "driver script appended to every scratch file")
	bindFlagToConfig(flags.Lookup(driverFlagName), driverKey)

	flags.String(shellFlagName, viper.GetString(shellKey), "linter executable, resolved on PATH")
	bindFlagToConfig(flags.Lookup(shellFlagName), shellKey)

	flags.StringArray(shellArgFlagName, viper.GetStringSlice(shellArgsKey), "argument passed to the linter before the scratch path (can be repeated)")
	bindFlagToConfig(flags.Lookup(shellArgFlagName), shellArgsKey)

	flags.String(variableFlagName, viper.GetString(variableKey), "name of the variable declared with the file path")
	bindFlagToConfig(flags.Lookup(variableFlagName), variableKey)

	flags.String(scratchDirFlagName, viper.GetString(scratchDirKey), "directory for scratch files")
	bindFlagToConfig(flags.Lookup(scratchDirFlagName), scratchDirKey)

	flags.String(scratchSuffixFlagName, viper.GetString(scratchSuffixKey), "file suffix of scratch files")
	bindFlagToConfig(flags.Lookup(scratchSuffixFlagName), scratchSuffixKey)

	flags.Int64(timeoutFlagName, viper.GetInt64(timeoutKey), "per-file linter timeout in seconds (0 disables)")
	bindFlagToConfig(flags.Lookup(timeoutFlagName), timeoutKey)

	flags.IntP(parallelFlagName, "p", viper.GetInt(parallelKey), "number of files linted concurrently")
	bindFlagToConfig(flags.Lookup(parallelFlagName), parallelKey)

	flags.Bool(failFastFlagName, viper.GetBool(failFastKey), "stop after the first file that does not pass")
	bindFlagToConfig(flags.Lookup(failFastFlagName), failFastKey)

	flags.StringArrayP(excludeFlagName, "x", viper.GetStringSlice(excludeKey), "exclude files whose relative path matches regex (can be repeated)")
	bindFlagToConfig(flags.Lookup(excludeFlagName), excludeKey)

	flags.StringArray(extensionFlagName, viper.GetStringSlice(extensionsKey), "only lint files with this extension (can be repeated)")
	bindFlagToConfig(flags.Lookup(extensionFlagName), extensionsKey)

	flags.StringP(reportFlagName, "o", viper.GetString(reportKey), "write a YAML run report to this path")
	bindFlagToConfig(flags.Lookup(reportFlagName), reportKey)

	flags.StringVarP(&shardFlag, shardFlagName, "s", "", "shard index and total shard count in the format INDEX/TOTAL (e.g., 0/3)")

	flags.BoolVar(&writeConfigFlag, writeConfigFlagName, false, "write "+configFileName+" with the current settings and exit")

	cmd.PersistentFlags().BoolVarP(&verboseFlag, verboseFlagName, "v", viper.GetBool(logVerboseKey), "log at debug level")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(verboseFlagName), logVerboseKey)

	cmd.PersistentFlags().StringVar(&logFileFlag, logFileFlagName, viper.GetString(logFilenameKey), "log file path")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(logFileFlagName), logFilenameKey)
}

// bindFlagToConfig wires a Cobra flag to a Viper key so config/env values feed the flag.
func bindFlagToConfig(flag *pflag.Flag, key string) {
	if flag == nil {
		cobra.CheckErr(fmt.Errorf("flag for config key %q not found", key))
		return
	}

	cobra.CheckErr(viper.BindPFlag(key, flag))
}

func writeConfig() error {
	targetPath := filepath.Join(configFolderPath, configFileName)

	if err := viper.SafeWriteConfigAs(targetPath); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func parseShardFlag(shard string) (int, int) {
	if shard == "" {
		return 0, 1
	}

	var index, total int

	_, err := fmt.Sscanf(shard, "%d/%d", &index, &total)
	if err != nil || total <= 0 || index < 0 || index >= total {
		return 0, 1
	}

	return index, total
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}

	return context.Background()
}
