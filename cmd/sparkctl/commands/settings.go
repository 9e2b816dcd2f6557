package commands

import (
	"fmt"
	"strings"

	"github.com/benvon/sparkreply/pkg/client"
	"github.com/spf13/cobra"
)

// NewSettingsCmd creates the settings command
func NewSettingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change your generation defaults",
	}
	cmd.AddCommand(newSettingsGetCmd(), newSettingsSetCmd())
	return cmd
}

func newSettingsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get",
		Short: "Show current settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(cmd)
			if err != nil {
				return err
			}
			settings, err := c.GetSettings(cmd.Context())
			if err != nil {
				return describeError(err)
			}
			if wantJSON(cmd) {
				return printJSON(cmd.OutOrStdout(), settings)
			}
			printSettings(cmd, settings)
			return nil
		},
	}
}

func newSettingsSetCmd() *cobra.Command {
	var update client.SettingsUpdate

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Replace settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(cmd)
			if err != nil {
				return err
			}
			settings, err := c.UpdateSettings(cmd.Context(), update)
			if err != nil {
				return describeError(err)
			}
			if wantJSON(cmd) {
				return printJSON(cmd.OutOrStdout(), settings)
			}
			printSettings(cmd, settings)
			return nil
		},
	}

	cmd.Flags().StringVar(&update.DefaultTone, "tone", "", "default tone")
	cmd.Flags().StringSliceVar(&update.WritingStyleHandles, "style", nil, "up to two style handles")
	cmd.Flags().BoolVar(&update.AutoSave, "auto-save", false, "save every generation automatically")
	cmd.Flags().IntVar(&update.TweetLengthLimit, "length-limit", 0, "maximum characters per tweet (1-280)")
	cmd.Flags().StringVar(&update.XHandle, "x-handle", "", "your own handle")
	return cmd
}

func printSettings(cmd *cobra.Command, s *client.UserSettings) {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Default tone:   %s\n", s.DefaultTone)
	fmt.Fprintf(w, "Style handles:  %s\n", strings.Join(s.WritingStyleHandles, ", "))
	fmt.Fprintf(w, "Auto save:      %t\n", s.AutoSave)
	fmt.Fprintf(w, "Length limit:   %d\n", s.TweetLengthLimit)
	fmt.Fprintf(w, "X handle:       %s\n", s.XHandle)
}
