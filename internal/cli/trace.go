package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roiken/tempoval/internal/engine"
	"github.com/roiken/tempoval/internal/loader"
	"github.com/roiken/tempoval/internal/tracelog"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Domain   string
	Plan     string
	Database string
	Run      string
}

// TraceChange is one state change in the trace command's JSON payload.
type TraceChange struct {
	Seq    int64  `json:"seq"`
	Time   int64  `json:"time"`
	Fluent string `json:"fluent"`
	Value  string `json:"value"`
	Source string `json:"source"`
}

// TraceReport is the trace command's success payload.
type TraceReport struct {
	RunID   string        `json:"run_id,omitempty"`
	Changes []TraceChange `json:"changes"`
}

// RunSummary is one row in the run listing payload.
type RunSummary struct {
	ID        string `json:"id"`
	CreatedAt string `json:"created_at"`
	Domain    string `json:"domain"`
	Verdict   string `json:"verdict"`
	Code      string `json:"code,omitempty"`
	End       int64  `json:"end"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show the state-change trace of a plan or a recorded run",
		Long: `Show the ordered state-change trace of a plan.

With --domain and --plan the trace is computed by running the simulation.
With --db and --run a previously recorded trace is read back from the run
log. With --db alone, recorded runs are listed.

Examples:
  tempoval trace --domain logistics.cue --plan deliver.yaml
  tempoval trace --db runs.db
  tempoval trace --db runs.db --run 6e1f...`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Domain, "domain", "", "path to CUE domain document")
	cmd.Flags().StringVar(&opts.Plan, "plan", "", "path to YAML plan document")
	cmd.Flags().StringVar(&opts.Database, "db", "", "SQLite run log")
	cmd.Flags().StringVar(&opts.Run, "run", "", "recorded run ID")
	cmd.MarkFlagsRequiredTogether("domain", "plan")
	cmd.MarkFlagsMutuallyExclusive("plan", "run")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	switch {
	case opts.Domain != "":
		return traceLive(opts, cmd, formatter)
	case opts.Database != "" && opts.Run != "":
		return traceRecorded(opts, cmd, formatter)
	case opts.Database != "":
		return listRecorded(opts, cmd, formatter)
	default:
		return NewExitError(ExitCommandError, "either --domain/--plan or --db is required")
	}
}

// traceLive runs the simulation and prints its trace. A failing plan still
// prints the changes leading up to the failure, then reports the verdict.
func traceLive(opts *TraceOptions, cmd *cobra.Command, formatter *OutputFormatter) error {
	d, err := loader.LoadDomain(opts.Domain)
	if err != nil {
		_ = formatter.Error("LOAD_DOMAIN", err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load domain", err)
	}
	p, err := loader.LoadPlan(opts.Plan)
	if err != nil {
		_ = formatter.Error("LOAD_PLAN", err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load plan", err)
	}

	changes, _, verr := engine.CollectTrace(d, p)

	report := TraceReport{Changes: make([]TraceChange, 0, len(changes))}
	for _, ch := range changes {
		report.Changes = append(report.Changes, TraceChange{
			Seq:    ch.Seq,
			Time:   ch.Time,
			Fluent: ch.Key.String(),
			Value:  ch.Value.String(),
			Source: ch.Source,
		})
	}

	if opts.Format == "json" {
		if err := formatter.Success(report); err != nil {
			return err
		}
	} else {
		printChanges(cmd, report.Changes)
	}

	if verr != nil {
		code := string(engine.ErrorCode(verr))
		if code == "" {
			_ = formatter.Error("MALFORMED", verr.Error(), nil)
			return WrapExitError(ExitCommandError, "plan is not well-formed", verr)
		}
		_ = formatter.Error(code, verr.Error(), nil)
		return WrapExitError(ExitFailure, fmt.Sprintf("%s: %s", code, verr.Error()), nil)
	}
	return nil
}

// traceRecorded reads a recorded run's trace back from the run log.
func traceRecorded(opts *TraceOptions, cmd *cobra.Command, formatter *OutputFormatter) error {
	st, err := tracelog.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open run log", err)
	}
	defer st.Close()

	ctx := context.Background()
	run, err := st.ReadRun(ctx, opts.Run)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read run", err)
	}
	recorded, err := st.ReadChanges(ctx, opts.Run)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read trace", err)
	}

	report := TraceReport{RunID: run.ID, Changes: make([]TraceChange, 0, len(recorded))}
	for _, ch := range recorded {
		report.Changes = append(report.Changes, TraceChange{
			Seq:    ch.Seq,
			Time:   ch.Time,
			Fluent: ch.Fluent,
			Value:  ch.Value.String(),
			Source: ch.Source,
		})
	}

	if opts.Format == "json" {
		return formatter.Success(report)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Run %s (%s, %s)\n", run.ID, run.Domain, run.Verdict)
	if run.Code != "" {
		fmt.Fprintf(w, "  Failure [%s]: %s\n", run.Code, run.Failure)
	}
	printChanges(cmd, report.Changes)
	return nil
}

// listRecorded lists all runs in the run log, newest first.
func listRecorded(opts *TraceOptions, cmd *cobra.Command, formatter *OutputFormatter) error {
	st, err := tracelog.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open run log", err)
	}
	defer st.Close()

	runs, err := st.ListRuns(context.Background())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}

	summaries := make([]RunSummary, 0, len(runs))
	for _, run := range runs {
		summaries = append(summaries, RunSummary{
			ID:        run.ID,
			CreatedAt: run.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
			Domain:    run.Domain,
			Verdict:   run.Verdict,
			Code:      run.Code,
			End:       run.End,
		})
	}

	if opts.Format == "json" {
		return formatter.Success(summaries)
	}

	w := cmd.OutOrStdout()
	if len(summaries) == 0 {
		fmt.Fprintln(w, "No recorded runs")
		return nil
	}
	for _, s := range summaries {
		line := fmt.Sprintf("%s  %s  %-8s  end=%d", s.ID, s.CreatedAt, s.Verdict, s.End)
		if s.Code != "" {
			line += "  " + s.Code
		}
		fmt.Fprintln(w, line)
	}
	return nil
}

func printChanges(cmd *cobra.Command, changes []TraceChange) {
	w := cmd.OutOrStdout()
	for _, ch := range changes {
		fmt.Fprintf(w, "%4d  t=%-6d %s = %s  [%s]\n", ch.Seq, ch.Time, ch.Fluent, ch.Value, ch.Source)
	}
}
