// Package cli implements posh-chat, a terminal client for a running
// assistant server.
package cli

import (
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

type options struct {
	server string
	client *http.Client
}

// NewRootCmd builds the command tree. Output goes to cmd.OutOrStdout so tests
// can capture it.
func NewRootCmd() *cobra.Command {
	opts := &options{client: &http.Client{}}

	root := &cobra.Command{
		Use:     "posh-chat",
		Short:   "Talk to the POSH assistant from a terminal",
		Version: version,
		Long: `A command-line client for the POSH assistant server. Streams chat answers,
classifies text sentiment and issues committee access tokens.`,
		Example: `  # Ask a question and stream the answer
  $ posh-chat ask "How long do I have to file a complaint?"

  # Classify a message
  $ posh-chat sentiment "I am scared to go back to the office"

  # Issue a committee token (reads JWT_SECRET)
  $ posh-chat token ic-chair --ttl 12h`,
		SilenceUsage: true,
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.PersistentFlags().StringVarP(&opts.server, "server", "s", envDefault("POSH_SERVER", "http://localhost:8080"), "assistant server base URL")

	root.AddCommand(newAskCmd(opts))
	root.AddCommand(newSentimentCmd(opts))
	root.AddCommand(newTokenCmd())
	return root
}

// Execute runs the CLI with os.Args.
func Execute() error {
	return NewRootCmd().Execute()
}

func envDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func (o *options) url(path string) string {
	return strings.TrimRight(o.server, "/") + path
}
