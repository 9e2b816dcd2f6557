package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/benvon/sparkreply/pkg/client"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// NewSavedCmd creates the saved command
func NewSavedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "saved",
		Short: "Manage saved content",
	}
	cmd.AddCommand(newSavedListCmd(), newSavedAddCmd(), newSavedEditCmd(), newSavedDeleteCmd())
	return cmd
}

func newSavedListCmd() *cobra.Command {
	var (
		contentType string
		limit       int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved items",
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
			items, err := c.ListSaved(cmd.Context(), ct, limit)
			if err != nil {
				return describeError(err)
			}
			if wantJSON(cmd) {
				return printJSON(cmd.OutOrStdout(), items)
			}
			if len(items) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing saved yet")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTYPE\tTITLE")
			for _, item := range items {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", item.ID, item.Type, item.Title)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&contentType, "type", "", "only this content type")
	cmd.Flags().IntVar(&limit, "limit", client.DefaultHistoryLimit, "number of rows (max 50)")
	return cmd
}

func newSavedAddCmd() *cobra.Command {
	var contentType, title, content string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Save a piece of content",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ct, err := client.ParseContentType(contentType)
			if err != nil {
				return err
			}
			c, err := newClient(cmd)
			if err != nil {
				return err
			}
			item, err := c.SaveContent(cmd.Context(), client.SaveContentRequest{Type: ct, Title: title, Content: content})
			if err != nil {
				return describeError(err)
			}
			if wantJSON(cmd) {
				return printJSON(cmd.OutOrStdout(), item)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", item.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&contentType, "type", "", "content type")
	cmd.Flags().StringVar(&title, "title", "", "title")
	cmd.Flags().StringVar(&content, "content", "", "content")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("content")
	return cmd
}

func newSavedEditCmd() *cobra.Command {
	var title, content string

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change the title or content of a saved item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid saved content ID: %w", err)
			}

			var patch client.SavedContentPatch
			if cmd.Flags().Changed("title") {
				patch.Title = &title
			}
			if cmd.Flags().Changed("content") {
				patch.Content = &content
			}
			if patch.Title == nil && patch.Content == nil {
				return fmt.Errorf("nothing to change: pass --title or --content")
			}

			c, err := newClient(cmd)
			if err != nil {
				return err
			}
			item, err := c.UpdateSaved(cmd.Context(), id, patch)
			if err != nil {
				return describeError(err)
			}
			if wantJSON(cmd) {
				return printJSON(cmd.OutOrStdout(), item)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s\n", item.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&content, "content", "", "new content")
	return cmd
}

func newSavedDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a saved item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid saved content ID: %w", err)
			}
			c, err := newClient(cmd)
			if err != nil {
				return err
			}
			if err := c.DeleteSaved(cmd.Context(), id); err != nil {
				return describeError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", id)
			return nil
		},
	}
}
