package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/fixpoint/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	Session  string // optional - verify a single session only
}

// ReplaySessionResult holds the verification result for one session.
type ReplaySessionResult struct {
	SessionToken string   `json:"session_token"`
	Records      int      `json:"records"`
	Verified     bool     `json:"verified"`
	IDMismatches []string `json:"id_mismatches,omitempty"`
	SeqGaps      []int64  `json:"seq_gaps,omitempty"`
}

// ReplayResult holds the overall replay verification result.
type ReplayResult struct {
	Sessions    []ReplaySessionResult `json:"sessions"`
	AllVerified bool                  `json:"all_verified"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Verify stored traces are replay-consistent",
		Long: `Re-derive every record ID in the store from its content and
compare against the stored IDs.

Records are content-addressed, so a session whose trace was produced by
a conforming evaluator verifies byte-for-byte. Mismatches indicate
tampering or an incompatible producer. Sequence gaps are reported for
inspection but do not fail verification.

Exit codes:
  0 - All sessions verified
  1 - Verification failed (ID mismatches detected)
  2 - Command error (database not found, etc.)

Examples:
  fixpoint replay --db ./traces.db
  fixpoint replay --db ./traces.db --session test-session-default
  fixpoint replay --db ./traces.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Session, "session", "", "verify a specific session only")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	ctx := context.Background()

	st, err := store.Open(opts.Database)
	if err != nil {
		_ = formatter.Error(ErrCodeNotFound, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	tokens, err := sessionTokens(ctx, st, opts.Session)
	if err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			msg := fmt.Sprintf("session not found: %s", opts.Session)
			_ = formatter.Error(ErrCodeNoSession, msg, nil)
			return NewExitError(ExitCommandError, msg)
		}
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to list sessions", err)
	}

	result := ReplayResult{AllVerified: true}
	for _, token := range tokens {
		formatter.VerboseLog("Verifying session %s", token)

		report, err := st.VerifySession(ctx, token)
		if err != nil {
			_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to verify session %s", token), err)
		}

		sessionResult := ReplaySessionResult{
			SessionToken: report.SessionToken,
			Records:      report.RecordCount,
			Verified:     report.OK(),
			IDMismatches: report.IDMismatches,
			SeqGaps:      report.SeqGaps,
		}
		if !sessionResult.Verified {
			result.AllVerified = false
		}
		result.Sessions = append(result.Sessions, sessionResult)
	}

	return outputReplayResult(formatter, result)
}

// sessionTokens resolves the set of sessions to verify.
func sessionTokens(ctx context.Context, st *store.Store, only string) ([]string, error) {
	if only != "" {
		if _, err := st.GetSession(ctx, only); err != nil {
			return nil, err
		}
		return []string{only}, nil
	}

	sessions, err := st.ListSessions(ctx)
	if err != nil {
		return nil, err
	}
	tokens := make([]string, len(sessions))
	for i, sess := range sessions {
		tokens[i] = sess.Token
	}
	return tokens, nil
}

func outputReplayResult(formatter *OutputFormatter, result ReplayResult) error {
	if formatter.Format == "json" {
		if result.AllVerified {
			if err := formatter.Success(result); err != nil {
				return err
			}
		} else {
			response := CLIResponse{
				Status: "error",
				Data:   result,
				Error:  &CLIError{Code: ErrCodeGeneric, Message: "replay verification failed"},
			}
			if err := json.NewEncoder(formatter.Writer).Encode(response); err != nil {
				return err
			}
		}
	} else {
		for _, sess := range result.Sessions {
			mark := "✓"
			if !sess.Verified {
				mark = "✗"
			}
			fmt.Fprintf(formatter.Writer, "%s %s: %d record(s)", mark, sess.SessionToken, sess.Records)
			if len(sess.IDMismatches) > 0 {
				fmt.Fprintf(formatter.Writer, ", %d mismatched ID(s)", len(sess.IDMismatches))
			}
			if len(sess.SeqGaps) > 0 {
				fmt.Fprintf(formatter.Writer, ", seq gaps at %v", sess.SeqGaps)
			}
			fmt.Fprintln(formatter.Writer)
		}
	}

	if !result.AllVerified {
		return NewExitError(ExitFailure, "replay verification failed")
	}
	return nil
}
