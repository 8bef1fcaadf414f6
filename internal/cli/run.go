package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/fixpoint/internal/eval"
	"github.com/roach88/fixpoint/internal/harness"
	"github.com/roach88/fixpoint/internal/store"
	"github.com/roach88/fixpoint/internal/testutil"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database string // optional - persist the trace after the run
}

// RunResult holds the run command output.
type RunResult struct {
	Scenario string   `json:"scenario"`
	Pass     bool     `json:"pass"`
	Records  int      `json:"records"`
	Errors   []string `json:"errors,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Execute a scenario file",
		Long: `Execute a YAML scenario: set up allocations, dispatch the
intrinsic calls, and validate expect clauses and trace assertions.

The scenario runs against a fresh in-memory arena and trace store, so
runs are deterministic and isolated. With --db, the produced trace is
also persisted for later inspection with the trace and replay commands.

Exit codes:
  0 - Scenario passed
  1 - Scenario failed (expect clause or assertion mismatch)
  2 - Command error (file not found, malformed scenario, etc.)

Examples:
  fixpoint run testdata/scenarios/pointer_round_trip.yaml
  fixpoint run scenario.yaml --db ./traces.db
  fixpoint run scenario.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenario(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "persist the trace to this SQLite database")

	return cmd
}

func runScenario(opts *RunOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	scenario, err := harness.LoadScenario(path)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}

	formatter.VerboseLog("Running scenario %s (%d call(s))", scenario.Name, len(scenario.Calls))

	result, err := harness.Run(scenario)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "scenario execution failed", err)
	}

	if opts.Database != "" {
		if err := persistTrace(opts.Database, scenario, result); err != nil {
			_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to persist trace", err)
		}
		formatter.VerboseLog("Persisted %d record(s) to %s", len(result.Trace), opts.Database)
	}

	return outputRunResult(formatter, scenario.Name, result)
}

// persistTrace writes the scenario's session and records to a durable
// store. Appends are content-addressed, so re-running the same scenario
// into the same database is a no-op.
func persistTrace(path string, scenario *harness.Scenario, result *harness.Result) error {
	st, err := store.Open(path)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := context.Background()
	sess := eval.NewSession(testutil.NewFixedTokenGenerator(scenario.SessionToken))
	if err := st.WriteSession(ctx, sess); err != nil {
		return err
	}
	for _, rec := range result.Trace {
		if err := st.Append(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

func outputRunResult(formatter *OutputFormatter, name string, result *harness.Result) error {
	runResult := RunResult{
		Scenario: name,
		Pass:     result.Pass,
		Records:  len(result.Trace),
		Errors:   result.Errors,
	}

	if formatter.Format == "json" {
		response := CLIResponse{Status: "ok", Data: runResult}
		if !result.Pass {
			response.Status = "error"
			response.Error = &CLIError{Code: ErrCodeGeneric, Message: result.Errors[0]}
		}
		if err := json.NewEncoder(formatter.Writer).Encode(response); err != nil {
			return err
		}
	} else if result.Pass {
		fmt.Fprintf(formatter.Writer, "✓ %s passed (%d record(s))\n", name, len(result.Trace))
	} else {
		fmt.Fprintf(formatter.Writer, "✗ %s failed\n\n", name)
		for _, msg := range result.Errors {
			fmt.Fprintf(formatter.Writer, "  %s\n", msg)
		}
	}

	if !result.Pass {
		return NewExitError(ExitFailure, fmt.Sprintf("scenario %s failed with %d error(s)", name, len(result.Errors)))
	}
	return nil
}
