package commands

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/benvon/sparkreply/pkg/client"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// NewHistoryCmd creates the history command
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List or delete past generations",
	}
	cmd.AddCommand(newHistoryListCmd(), newHistoryDeleteCmd())
	return cmd
}

func newHistoryListCmd() *cobra.Command {
	var (
		contentType string
		limit       int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent generations, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ct, err := parseOptionalType(contentType)
			if err != nil {
				return err
			}
			c, err := newClient(cmd)
			if err != nil {
				return err
			}

			items, err := c.ListHistory(cmd.Context(), ct, limit)
			if err != nil {
				return describeError(err)
			}
			if wantJSON(cmd) {
				return printJSON(cmd.OutOrStdout(), items)
			}
			if len(items) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No generations yet")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTYPE\tCREATED\tVARIANTS")
			for _, g := range items {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", g.ID, g.ContentType, g.CreatedAt.Format(time.DateTime), len(g.Variants))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&contentType, "type", "", "only this content type")
	cmd.Flags().IntVar(&limit, "limit", client.DefaultHistoryLimit, "number of rows (max 50)")
	return cmd
}

func newHistoryDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <type> <id>",
		Short: "Delete one generation",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ct, err := client.ParseContentType(args[0])
			if err != nil {
				return err
			}
			id, err := uuid.Parse(args[1])
			if err != nil {
				return fmt.Errorf("invalid generation ID: %w", err)
			}
			c, err := newClient(cmd)
			if err != nil {
				return err
			}
			if err := c.DeleteHistory(cmd.Context(), ct, id); err != nil {
				return describeError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", id)
			return nil
		},
	}
}

func parseOptionalType(s string) (client.ContentType, error) {
	if s == "" {
		return "", nil
	}
	return client.ParseContentType(s)
}
