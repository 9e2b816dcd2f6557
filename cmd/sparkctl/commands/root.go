package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/benvon/sparkreply/pkg/client"
	"github.com/spf13/cobra"
)

const (
	envServer = "SPARKREPLY_SERVER"
	envToken  = "SPARKREPLY_TOKEN"
)

// NewRootCmd builds the sparkctl command tree
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "sparkctl",
		Short:         "Command line client for the SparkReply API",
		Long:          "Generate DMs, replies, threads and posts, and manage history, saved content and settings",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("server", envOr(envServer, "http://localhost:8080"), "API base URL ($"+envServer+")")
	rootCmd.PersistentFlags().String("token", os.Getenv(envToken), "bearer token ($"+envToken+")")
	rootCmd.PersistentFlags().Bool("json", false, "print raw JSON")

	rootCmd.AddCommand(NewGenerateCmd())
	rootCmd.AddCommand(NewHistoryCmd())
	rootCmd.AddCommand(NewSavedCmd())
	rootCmd.AddCommand(NewSettingsCmd())
	rootCmd.AddCommand(NewStatsCmd())
	rootCmd.AddCommand(NewWhoAmICmd())
	rootCmd.AddCommand(NewMigrateCmd())

	return rootCmd
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func flagString(cmd *cobra.Command, name string) string {
	if f := cmd.Flag(name); f != nil {
		return f.Value.String()
	}
	return ""
}

func newClient(cmd *cobra.Command) (*client.Client, error) {
	token := flagString(cmd, "token")
	if token == "" {
		return nil, fmt.Errorf("--token or %s is required", envToken)
	}
	c, err := client.New(flagString(cmd, "server"), client.WithToken(token))
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return c, nil
}

// wantJSON reports whether --json was given
func wantJSON(cmd *cobra.Command) bool {
	return flagString(cmd, "json") == "true"
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// describeError turns API errors into the short message meant for people
func describeError(err error) error {
	var apiErr *client.Error
	if errors.As(err, &apiErr) {
		if apiErr.Kind == client.KindInvalidRequest && apiErr.Message != "" {
			return errors.New(apiErr.Message)
		}
		return errors.New(apiErr.UserMessage())
	}
	return err
}
