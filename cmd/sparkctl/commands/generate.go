package commands

import (
	"fmt"
	"io"
	"sort"

	"github.com/benvon/sparkreply/pkg/client"
	"github.com/spf13/cobra"
)

// NewGenerateCmd creates the generate command with one subcommand per content type
func NewGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate content",
	}

	cmd.AddCommand(newGenerateSubCmd("dm", "Write DM openers for a profile", client.ContentTypeDM,
		func(c *cobra.Command, req *client.GenerationRequest) {
			c.Flags().StringVar(&req.TargetHandle, "handle", "", "recipient handle")
			c.Flags().StringVar(&req.Goal, "goal", "", "what the DM should achieve")
			c.Flags().StringVar(&req.Context, "context", "", "extra context")
		}))
	cmd.AddCommand(newGenerateSubCmd("reply", "Write replies to a post", client.ContentTypeReply,
		func(c *cobra.Command, req *client.GenerationRequest) {
			c.Flags().StringVar(&req.TweetURL, "url", "", "post URL")
			c.Flags().StringVar(&req.PostContent, "content", "", "post text, when no URL is given")
			c.Flags().StringVar(&req.Context, "context", "", "extra context")
		}))
	cmd.AddCommand(newGenerateSubCmd("thread", "Write a thread", client.ContentTypeThread,
		func(c *cobra.Command, req *client.GenerationRequest) {
			c.Flags().StringVar(&req.Topic, "topic", "", "thread topic")
			c.Flags().StringVar(&req.Tone, "tone", "", "tone")
			c.Flags().StringVar(&req.TargetAudience, "audience", "", "target audience")
			c.Flags().StringVar(&req.WritingStyleHandle, "style", "", "handle whose style to follow")
		}))
	cmd.AddCommand(newGenerateSubCmd("post", "Write post variations", client.ContentTypePost,
		func(c *cobra.Command, req *client.GenerationRequest) {
			c.Flags().StringVar(&req.Topic, "topic", "", "post topic")
			c.Flags().StringVar(&req.Tone, "tone", "", "tone")
			c.Flags().StringVar(&req.Goal, "goal", "", "post goal")
			c.Flags().StringSliceVar(&req.WritingStyleHandles, "style", nil, "up to two style handles")
		}))
	cmd.AddCommand(newGenerateSubCmd("post-ideas", "Suggest post ideas in a handle's voice", client.ContentTypePostIdeas,
		func(c *cobra.Command, req *client.GenerationRequest) {
			c.Flags().StringVar(&req.WritingStyleHandle, "style", "", "style handle")
			c.Flags().StringVar(&req.Topic, "topic", "", "optional topic")
		}))
	cmd.AddCommand(newGenerateSubCmd("thread-rewrite", "Rewrite an existing thread", client.ContentTypeThreadRewrite,
		func(c *cobra.Command, req *client.GenerationRequest) {
			c.Flags().StringVar(&req.ThreadContent, "content", "", "thread text, one tweet per paragraph")
			c.Flags().StringVar(&req.ThreadURL, "url", "", "thread URL")
			c.Flags().StringVar(&req.RewriteType, "style", "", "viral, simplify, storytelling, punchy or style-mimic")
			c.Flags().StringVar(&req.HandleToMimic, "mimic", "", "handle to mimic for style-mimic")
		}))

	return cmd
}

func newGenerateSubCmd(use, short string, ct client.ContentType, bind func(*cobra.Command, *client.GenerationRequest)) *cobra.Command {
	var req client.GenerationRequest

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Validate(ct, req); err != nil {
				return describeError(err)
			}

			c, err := newClient(cmd)
			if err != nil {
				return err
			}

			var result *client.Result
			switch ct {
			case client.ContentTypeDM:
				result, err = c.GenerateDM(cmd.Context(), req)
			case client.ContentTypeReply:
				result, err = c.GenerateReply(cmd.Context(), req)
			case client.ContentTypeThread:
				result, err = c.GenerateThread(cmd.Context(), req)
			case client.ContentTypePost:
				result, err = c.GeneratePost(cmd.Context(), req)
			case client.ContentTypePostIdeas:
				result, err = c.GeneratePostIdeas(cmd.Context(), req)
			default:
				result, err = c.RewriteThread(cmd.Context(), req)
			}
			if err != nil {
				return describeError(err)
			}

			if wantJSON(cmd) {
				return printJSON(cmd.OutOrStdout(), result)
			}
			printResult(cmd.OutOrStdout(), result)
			return nil
		},
	}
	bind(cmd, &req)
	return cmd
}

func printResult(w io.Writer, result *client.Result) {
	if result.Target != nil {
		fmt.Fprintf(w, "Target: %s (@%s), %d followers\n\n", result.Target.Name, result.Target.Username, result.Target.Followers)
	}

	if len(result.Variants) > 0 {
		keys := make([]string, 0, len(result.Variants))
		for k := range result.Variants {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(w, "[%s]\n%s\n\n", k, result.Variants[k])
		}
		return
	}

	for i, text := range result.Texts {
		fmt.Fprintf(w, "%d. %s\n\n", i+1, text)
	}
}
