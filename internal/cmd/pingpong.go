package cmd

import (
	"fmt"
	"time"

	"github.com/Iron-Ham/procthread/internal/pingpong"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var pingpongCmd = &cobra.Command{
	Use:   "pingpong",
	Short: "Run synchronous request/reply between thread pairs",
	Long: `Spawn client/server thread pairs. Each client calls its server
--rounds times; the server replies to the request's origin mailbox with the
payload plus one, and the client checks every reply.

Flags override the pingpong.* and mailbox.capacity config keys.`,
	Args: cobra.NoArgs,
	RunE: runPingPong,
}

func init() {
	pingpongCmd.Flags().Int("pairs", 0, "number of client/server thread pairs")
	pingpongCmd.Flags().Int("rounds", 0, "calls per client")
	pingpongCmd.Flags().Int("capacity", 0, "mailbox slots per thread")
	_ = viper.BindPFlag("pingpong.pairs", pingpongCmd.Flags().Lookup("pairs"))
	_ = viper.BindPFlag("pingpong.rounds", pingpongCmd.Flags().Lookup("rounds"))
	_ = viper.BindPFlag("mailbox.capacity", pingpongCmd.Flags().Lookup("capacity"))
	rootCmd.AddCommand(pingpongCmd)
}

func runPingPong(cmd *cobra.Command, args []string) error {
	env, err := newWorkloadEnv()
	if err != nil {
		return err
	}
	defer func() { _ = env.Close() }()

	report, runErr := pingpong.Run(cmd.Context(), pingpong.Config{
		Pairs:           env.cfg.PingPong.Pairs,
		Rounds:          env.cfg.PingPong.Rounds,
		MailboxCapacity: env.cfg.Mailbox.Capacity,
		Logger:          env.logger,
		Metrics:         env.metrics,
	})

	fmt.Fprintln(cmd.OutOrStdout(), renderReport("ping-pong", []field{
		{"run", report.RunID},
		{"pairs", report.Pairs},
		{"rounds", report.Rounds},
		{"capacity", env.cfg.Mailbox.Capacity},
		{"messages", report.Messages},
		{"elapsed", report.Elapsed.Round(time.Microsecond)},
		{"msgs/sec", fmt.Sprintf("%.0f", report.Throughput())},
	}, runErr == nil))
	return runErr
}
