package cmd

import (
	"context"
	"strings"

	"github.com/Iron-Ham/procthread/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "procthread",
	Short: "Threads, locks and mailboxes for in-process message passing",
	Long: `procthread exercises a small concurrency layer: OS-pinned threads that
each own a bounded mailbox, synchronous request/reply between them, and a
reader/writer lock with native and emulated backends.

The subcommands run workloads against that layer and report throughput and
correctness, optionally exposing Prometheus metrics while they run.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with ctx available to subcommands.
// Workloads stop between rounds when ctx is cancelled.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/procthread/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-dir", "", "write procthread.log to this directory instead of stderr")
	rootCmd.PersistentFlags().String("metrics-addr", "", "serve Prometheus metrics on this address while running (e.g. :9464)")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logging.dir", rootCmd.PersistentFlags().Lookup("log-dir"))
	_ = viper.BindPFlag("metrics.addr", rootCmd.PersistentFlags().Lookup("metrics-addr"))
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath("$HOME/.config/procthread")
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix(config.EnvPrefix)
	// Replace dots with underscores for nested keys in env vars
	// e.g., PROCTHREAD_MAILBOX_CAPACITY for mailbox.capacity
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()

	// An explicit --metrics-addr turns the endpoint on.
	if rootCmd.PersistentFlags().Changed("metrics-addr") {
		viper.Set("metrics.enabled", true)
	}
	// Levels are validated lowercase; accept --log-level DEBUG too.
	viper.Set("logging.level", strings.ToLower(viper.GetString("logging.level")))
}
