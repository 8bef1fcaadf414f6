package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/fixpoint/internal/ir"
	"github.com/roach88/fixpoint/internal/queryir"
	"github.com/roach88/fixpoint/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database  string
	Session   string
	Intrinsic string // optional - filter to one intrinsic
	Outcome   string // optional - filter to one outcome
	ErrorRule string // optional - filter to one error rule
	SeqMin    int64
	SeqMax    int64
}

// TraceStats holds summary statistics for a session's trace.
type TraceStats struct {
	TotalRecords int `json:"total_records"`
	Handled      int `json:"handled"`
	Unhandled    int `json:"unhandled"`
	Errors       int `json:"errors"`
	Aborts       int `json:"aborts"`
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	SessionToken string          `json:"session_token"`
	Records      []ir.EvalRecord `json:"records"`
	Stats        TraceStats      `json:"stats"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Query a session's evaluation trace",
		Long: `Query the evaluation records of a session in replay order.

Records can be narrowed by intrinsic name, outcome, undefined-behavior
rule, and sequence range. All filters combine conjunctively.

Examples:
  fixpoint trace --db ./traces.db --session test-session-default
  fixpoint trace --db ./traces.db --session s1 --intrinsic ptr_offset_from
  fixpoint trace --db ./traces.db --session s1 --outcome error --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Session, "session", "", "session token to trace (required)")
	_ = cmd.MarkFlagRequired("session")
	cmd.Flags().StringVar(&opts.Intrinsic, "intrinsic", "", "filter to one intrinsic name")
	cmd.Flags().StringVar(&opts.Outcome, "outcome", "", "filter to one outcome (handled|unhandled|error|abort)")
	cmd.Flags().StringVar(&opts.ErrorRule, "error-rule", "", "filter to one undefined-behavior rule")
	cmd.Flags().Int64Var(&opts.SeqMin, "seq-min", 0, "minimum sequence position")
	cmd.Flags().Int64Var(&opts.SeqMax, "seq-max", 0, "maximum sequence position (0 = unbounded)")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
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

	if _, err := st.GetSession(ctx, opts.Session); err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			msg := fmt.Sprintf("session not found: %s", opts.Session)
			_ = formatter.Error(ErrCodeNoSession, msg, nil)
			return NewExitError(ExitCommandError, msg)
		}
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to read session", err)
	}

	filter := buildTraceFilter(opts)
	if filter != nil {
		if vr := queryir.Validate(filter); !vr.Valid {
			msg := fmt.Sprintf("invalid filter: %v", vr.Problems)
			_ = formatter.Error(ErrCodeBadFilter, msg, vr.Problems)
			return NewExitError(ExitCommandError, msg)
		}
	}

	records, err := st.ReadFiltered(ctx, opts.Session, filter)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to query trace", err)
	}

	result := TraceResult{
		SessionToken: opts.Session,
		Records:      records,
		Stats:        computeTraceStats(records),
	}

	return outputTraceResult(formatter, result)
}

// buildTraceFilter assembles the conjunction of the requested filters.
// Returns nil when no filter flags were given.
func buildTraceFilter(opts *TraceOptions) queryir.Filter {
	var filters []queryir.Filter
	if opts.Intrinsic != "" {
		filters = append(filters, queryir.IntrinsicIs{Name: opts.Intrinsic})
	}
	if opts.Outcome != "" {
		filters = append(filters, queryir.OutcomeIs{Outcome: opts.Outcome})
	}
	if opts.ErrorRule != "" {
		filters = append(filters, queryir.ErrorRuleIs{Rule: opts.ErrorRule})
	}
	if opts.SeqMin > 0 || opts.SeqMax > 0 {
		filters = append(filters, queryir.SeqRange{Min: opts.SeqMin, Max: opts.SeqMax})
	}

	switch len(filters) {
	case 0:
		return nil
	case 1:
		return filters[0]
	default:
		return queryir.And{Filters: filters}
	}
}

func computeTraceStats(records []ir.EvalRecord) TraceStats {
	stats := TraceStats{TotalRecords: len(records)}
	for _, rec := range records {
		switch rec.Outcome {
		case ir.OutcomeHandled:
			stats.Handled++
		case ir.OutcomeUnhandled:
			stats.Unhandled++
		case ir.OutcomeError:
			stats.Errors++
		case ir.OutcomeAbort:
			stats.Aborts++
		}
	}
	return stats
}

func outputTraceResult(formatter *OutputFormatter, result TraceResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "Session: %s\n", result.SessionToken)
	fmt.Fprintf(formatter.Writer, "Records: %d (handled %d, unhandled %d, errors %d, aborts %d)\n\n",
		result.Stats.TotalRecords, result.Stats.Handled, result.Stats.Unhandled,
		result.Stats.Errors, result.Stats.Aborts)

	for _, rec := range result.Records {
		fmt.Fprintf(formatter.Writer, "[%d] %s -> %s", rec.Seq, rec.Intrinsic, rec.Outcome)
		if rec.ErrorRule != "" {
			fmt.Fprintf(formatter.Writer, " (%s)", rec.ErrorRule)
		}
		fmt.Fprintln(formatter.Writer)
		if rec.Message != "" {
			fmt.Fprintf(formatter.Writer, "    %s\n", rec.Message)
		}
	}

	return nil
}
