package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"posh-assistant-backend/internal/auth"
	"posh-assistant-backend/internal/llm"
	"posh-assistant-backend/internal/sse"
	"posh-assistant-backend/internal/types"
)

func newAskCmd(opts *options) *cobra.Command {
	var contextChunks []string
	cmd := &cobra.Command{
		Use:   "ask <message>",
		Short: "stream an answer to a question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := types.ChatRequest{
				Messages: []llm.Message{{Role: llm.RoleUser, Content: strings.Join(args, " ")}},
				Context:  contextChunks,
			}
			resp, err := opts.post(cmd, "/api/chat/stream", req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			out := cmd.OutOrStdout()
			dec := sse.NewDecoder(resp.Body)
			for {
				ev, err := dec.Next()
				if errors.Is(err, io.EOF) {
					fmt.Fprintln(out)
					return nil
				}
				if errors.Is(err, sse.ErrIncomplete) {
					fmt.Fprintln(out)
					return fmt.Errorf("answer was cut off, please try again")
				}
				if err != nil {
					return fmt.Errorf("read answer: %w", err)
				}
				fmt.Fprint(out, ev.Token)
			}
		},
	}
	cmd.Flags().StringArrayVarP(&contextChunks, "context", "c", nil, "context passage to ground the answer (repeatable); skips server retrieval")
	return cmd
}

func newSentimentCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "sentiment <text>",
		Short: "classify text as distressed, negative or neutral",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := opts.post(cmd, "/api/sentiment", types.SentimentRequest{Text: strings.Join(args, " ")})
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			var out types.SentimentResponse
			if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
				return fmt.Errorf("decode response: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), out.Sentiment)
			return nil
		},
	}
}

func newTokenCmd() *cobra.Command {
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token <member-id>",
		Short: "issue a committee bearer token signed with JWT_SECRET",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tok, err := auth.NewCommitteeToken(args[0], os.Getenv("JWT_SECRET"), ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", 8*time.Hour, "token lifetime")
	return cmd
}

// post sends body as JSON and returns the response when it is 200.
func (o *options) post(cmd *cobra.Command, path string, body any) (*http.Response, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(cmd.Context(), http.MethodPost, o.url(path), bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("reach server: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		var e types.ErrorResponse
		if json.NewDecoder(resp.Body).Decode(&e) == nil && e.Error != "" {
			return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, e.Error)
		}
		return nil, fmt.Errorf("server returned %d", resp.StatusCode)
	}
	return resp, nil
}
