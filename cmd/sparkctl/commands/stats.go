package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewStatsCmd creates the stats command
func NewStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show dashboard statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(cmd)
			if err != nil {
				return err
			}
			stats, err := c.Stats(cmd.Context())
			if err != nil {
				return describeError(err)
			}
			if wantJSON(cmd) {
				return printJSON(cmd.OutOrStdout(), stats)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Total generations: %d\n", stats.TotalGenerations)
			fmt.Fprintf(w, "This week:         %d (%+.0f%%)\n", stats.GenerationsThisWeek, stats.WeeklyGrowth)
			fmt.Fprintf(w, "Saved items:       %d\n", stats.SavedItems)
			fmt.Fprintf(w, "Streak:            %d days\n", stats.StreakDays)
			return nil
		},
	}
}

// NewWhoAmICmd creates the whoami command
func NewWhoAmICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the identity behind the token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(cmd)
			if err != nil {
				return err
			}
			me, err := c.Me(cmd.Context())
			if err != nil {
				return describeError(err)
			}
			if wantJSON(cmd) {
				return printJSON(cmd.OutOrStdout(), me)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Subject: %s\nUser ID: %s\n", me.Subject, me.UserID)
			if me.Email != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Email:   %s\n", me.Email)
			}
			return nil
		},
	}
}
