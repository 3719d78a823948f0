package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"geokit.dev/tools/geokit/internal/domain"
	"geokit.dev/tools/geokit/internal/logging"
	m "geokit.dev/tools/geokit/internal/model"
)

const (
	configVersionKey     = "version"
	currentConfigVersion = 1

	configBaseName   = "lintwalk"
	configFileName   = configBaseName + ".yaml"
	configFolderPath = "."

	driverFlagName        = "driver"
	shellFlagName         = "shell"
	shellArgFlagName      = "shell-arg"
	variableFlagName      = "variable"
	scratchDirFlagName    = "scratch-dir"
	scratchSuffixFlagName = "scratch-suffix"
	timeoutFlagName       = "timeout"
	parallelFlagName      = "parallel"
	failFastFlagName      = "fail-fast"
	shardFlagName         = "shard"
	excludeFlagName       = "exclude"
	extensionFlagName     = "ext"
	reportFlagName        = "report"
	verboseFlagName       = "verbose"
	logFileFlagName       = "log-file"
	writeConfigFlagName   = "write-config"

	driverKey        = "lint.driver"
	shellKey         = "lint.shell"
	shellArgsKey     = "lint.shell_args"
	variableKey      = "lint.variable"
	scratchDirKey    = "lint.scratch_dir"
	scratchSuffixKey = "lint.scratch_suffix"
	timeoutKey       = "lint.timeout"
	parallelKey      = "run.parallel"
	failFastKey      = "run.fail_fast"
	excludeKey       = "paths.exclude"
	extensionsKey    = "paths.extensions"
	reportKey        = "report.output"

	defaultDriver        = "jslintrun.js"
	defaultShell         = "shell"
	defaultVariable      = "filename"
	defaultScratchSuffix = ".js"
	defaultTimeout       = 2 * time.Minute
	defaultParallel      = 1
	defaultFailFast      = false

	envPrefix = "LINTWALK"

	logFilenameKey   = "log.filename"
	logLevelKey      = "log.level"
	logVerboseKey    = "log.verbose"
	logMaxSizeKey    = "log.max_size"
	logMaxBackupsKey = "log.max_backups"
	logMaxAgeKey     = "log.max_age"
	logCompressKey   = "log.compress"

	defaultLogFilename   = ".lintwalk.log"
	defaultLogLevel      = "info"
	defaultLogMaxSize    = 10
	defaultLogMaxBackups = 3
	defaultLogMaxAge     = 28
	defaultLogCompress   = true
)

func init() {
	viper.SetConfigName(configBaseName)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configFolderPath)
	viper.SetConfigFile(filepath.Join(configFolderPath, configFileName))
	viper.AutomaticEnv()
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	viper.SetDefault(configVersionKey, currentConfigVersion)
	viper.SetDefault(driverKey, defaultDriver)
	viper.SetDefault(shellKey, defaultShell)
	viper.SetDefault(shellArgsKey, []string{})
	viper.SetDefault(variableKey, defaultVariable)
	viper.SetDefault(scratchDirKey, os.TempDir())
	viper.SetDefault(scratchSuffixKey, defaultScratchSuffix)
	viper.SetDefault(timeoutKey, int64(defaultTimeout.Seconds()))
	viper.SetDefault(parallelKey, defaultParallel)
	viper.SetDefault(failFastKey, defaultFailFast)
	viper.SetDefault(excludeKey, []string{})
	viper.SetDefault(extensionsKey, []string{})
	viper.SetDefault(reportKey, "")

	// Logging defaults (used by config/env and as fallbacks for flags).
	viper.SetDefault(logFilenameKey, defaultLogFilename)
	viper.SetDefault(logLevelKey, defaultLogLevel)
	viper.SetDefault(logVerboseKey, false)
	viper.SetDefault(logMaxSizeKey, defaultLogMaxSize)
	viper.SetDefault(logMaxBackupsKey, defaultLogMaxBackups)
	viper.SetDefault(logMaxAgeKey, defaultLogMaxAge)
	viper.SetDefault(logCompressKey, defaultLogCompress)

	configErr = readConfigFile()
}

// configErr holds a config file that exists but could not be read; it is
// reported once the command runs.
var configErr error

func readConfigFile() error {
	err := viper.ReadInConfig()
	if err == nil {
		return nil
	}

	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	return fmt.Errorf("failed to read config file %s: %w", configFileName, err)
}

// lintTimeout returns the per-file linter deadline; zero disables it.
func lintTimeout() time.Duration {
	return time.Duration(viper.GetInt64(timeoutKey)) * time.Second
}

// lintConfigFromViper assembles the runner configuration for root.
func lintConfigFromViper(root string, shardIndex, shardCount int) domain.LintConfig {
	return domain.LintConfig{
		Root:          m.Path(root),
		Driver:        m.Path(viper.GetString(driverKey)),
		Shell:         viper.GetString(shellKey),
		ShellArgs:     viper.GetStringSlice(shellArgsKey),
		Variable:      viper.GetString(variableKey),
		ScratchDir:    viper.GetString(scratchDirKey),
		ScratchSuffix: viper.GetString(scratchSuffixKey),
		Threads:       viper.GetInt(parallelKey),
		FailFast:      viper.GetBool(failFastKey),
		Exclude:       viper.GetStringSlice(excludeKey),
		Extensions:    viper.GetStringSlice(extensionsKey),
		ShardIndex:    shardIndex,
		ShardCount:    shardCount,
		Report:        m.Path(viper.GetString(reportKey)),
	}
}

func configureLogger() {
	logging.Configure(logging.Options{
		Filename:   viper.GetString(logFilenameKey),
		Level:      viper.GetString(logLevelKey),
		Verbose:    viper.GetBool(logVerboseKey),
		MaxSize:    viper.GetInt(logMaxSizeKey),
		MaxBackups: viper.GetInt(logMaxBackupsKey),
		MaxAge:     viper.GetInt(logMaxAgeKey),
		Compress:   viper.GetBool(logCompressKey),
	}, defaultLogFilename)
}
