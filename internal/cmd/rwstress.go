package cmd

import (
	"fmt"
	"time"

	"github.com/Iron-Ham/procthread/internal/pingpong"
	"github.com/Iron-Ham/procthread/internal/rwlock"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rwstressCmd = &cobra.Command{
	Use:   "rwstress",
	Short: "Hammer a reader/writer lock and check exclusion",
	Long: `Run reader and writer threads against one reader/writer lock and count
any moment where a reader overlapped a writer or two writers overlapped.

--backend selects the native lock or the emulated one built from a mutex,
a manual-reset event and a reader count.`,
	Args: cobra.NoArgs,
	RunE: runRWStress,
}

func init() {
	rwstressCmd.Flags().String("backend", "", "lock backend: native or emulated")
	rwstressCmd.Flags().Int("readers", 0, "number of reader threads")
	rwstressCmd.Flags().Int("writers", 0, "number of writer threads")
	rwstressCmd.Flags().Int("iterations", 0, "lock acquisitions per thread")
	_ = viper.BindPFlag("rwlock.backend", rwstressCmd.Flags().Lookup("backend"))
	_ = viper.BindPFlag("rwstress.readers", rwstressCmd.Flags().Lookup("readers"))
	_ = viper.BindPFlag("rwstress.writers", rwstressCmd.Flags().Lookup("writers"))
	_ = viper.BindPFlag("rwstress.iterations", rwstressCmd.Flags().Lookup("iterations"))
	rootCmd.AddCommand(rwstressCmd)
}

func runRWStress(cmd *cobra.Command, args []string) error {
	env, err := newWorkloadEnv()
	if err != nil {
		return err
	}
	defer func() { _ = env.Close() }()

	kind, err := rwlock.ParseKind(env.cfg.RWLock.Backend)
	if err != nil {
		return err
	}

	report, runErr := pingpong.RWStress(cmd.Context(), pingpong.StressConfig{
		Backend:    kind,
		Readers:    env.cfg.RWStress.Readers,
		Writers:    env.cfg.RWStress.Writers,
		Iterations: env.cfg.RWStress.Iterations,
		Logger:     env.logger,
		Metrics:    env.metrics,
	})

	fmt.Fprintln(cmd.OutOrStdout(), renderReport("rwstress", []field{
		{"run", report.RunID},
		{"backend", string(kind)},
		{"reads", report.Reads},
		{"writes", report.Writes},
		{"max readers", report.MaxReaders},
		{"violations", report.Violations},
		{"elapsed", report.Elapsed.Round(time.Microsecond)},
	}, runErr == nil))
	return runErr
}
