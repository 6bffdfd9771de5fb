package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	defaultConfigFile = "autoauth.ini"
)

var (
	sha1ver   string
	buildTime string
	repoName  string
)

var (
	configFile string
	devLogging bool
)

var rootCmd = &cobra.Command{
	Use:           "autoauth",
	Short:         "Keep this host logged in to the campus captive portal",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", defaultConfigFile, "path to the INI configuration file")
	rootCmd.PersistentFlags().BoolVar(&devLogging, "dev", false, "human-readable development logging")

	rootCmd.AddCommand(runCmd, urlCmd, probeCmd, logsCmd)
}

// setupLogging installs the global zap logger at the given level
func setupLogging(level string) (func(), error) {
	cfg := zap.NewProductionConfig()
	if devLogging {
		cfg = zap.NewDevelopmentConfig()
	}

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	undo := zap.ReplaceGlobals(logger)
	return func() {
		logger.Sync()
		undo()
	}, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "autoauth: %v\n", err)
		os.Exit(1)
	}
}
