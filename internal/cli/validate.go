package cli

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/roiken/tempoval/internal/engine"
	"github.com/roiken/tempoval/internal/loader"
	"github.com/roiken/tempoval/internal/model"
	"github.com/roiken/tempoval/internal/tracelog"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Domain   string
	Plan     string
	Database string // optional run log
}

// ValidationReport is the validate command's success payload.
type ValidationReport struct {
	Valid    bool              `json:"valid"`
	RunID    string            `json:"run_id,omitempty"`
	End      int64             `json:"end"`
	Changes  int               `json:"changes"`
	Terminal map[string]string `json:"terminal"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a candidate plan against a domain",
		Long: `Validate a candidate plan against a temporal planning domain.

Loads the domain (CUE) and plan (YAML), runs the deterministic
discrete-event simulation, and reports either the terminal state or the
exact event where the plan fails.

Exit codes: 0 plan valid, 1 plan invalid, 2 command error.

Examples:
  tempoval validate --domain logistics.cue --plan deliver.yaml
  tempoval validate --domain logistics.cue --plan deliver.yaml --db runs.db
  tempoval validate --domain logistics.cue --plan deliver.yaml --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Domain, "domain", "", "path to CUE domain document (required)")
	_ = cmd.MarkFlagRequired("domain")
	cmd.Flags().StringVar(&opts.Plan, "plan", "", "path to YAML plan document (required)")
	_ = cmd.MarkFlagRequired("plan")
	cmd.Flags().StringVar(&opts.Database, "db", "", "optional SQLite run log to record the result")

	return cmd
}

func runValidate(opts *ValidateOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	d, err := loader.LoadDomain(opts.Domain)
	if err != nil {
		_ = formatter.Error("LOAD_DOMAIN", err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load domain", err)
	}
	formatter.VerboseLog("Loaded domain %s", d.Name())

	p, err := loader.LoadPlan(opts.Plan)
	if err != nil {
		_ = formatter.Error("LOAD_PLAN", err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load plan", err)
	}
	formatter.VerboseLog("Loaded plan: %d instance(s), %d init, %d goal clause(s)",
		len(p.Instances), len(p.Init), len(p.Goal))

	result, verr := engine.Validate(d, p)

	runID := ""
	if opts.Database != "" {
		runID, err = recordRun(d, p, opts.Database, result, verr)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to record run", err)
		}
		formatter.VerboseLog("Recorded run %s", runID)
	}

	if verr != nil {
		code := string(engine.ErrorCode(verr))
		if code == "" {
			// Load-time failure: the domain or plan is not well-formed.
			_ = formatter.Error("MALFORMED", verr.Error(), nil)
			return WrapExitError(ExitCommandError, "plan is not well-formed", verr)
		}
		_ = formatter.Error(code, verr.Error(), map[string]string{"run_id": runID})
		return WrapExitError(ExitFailure, fmt.Sprintf("%s: %s", code, verr.Error()), nil)
	}

	report := ValidationReport{
		Valid:    true,
		RunID:    runID,
		End:      result.End,
		Changes:  len(result.Changes),
		Terminal: renderTerminal(result),
	}
	if opts.Format == "json" {
		return formatter.Success(report)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintln(w, "✓ Plan valid")
	fmt.Fprintf(w, "  End time: %d\n", report.End)
	fmt.Fprintf(w, "  Changes:  %d\n", report.Changes)
	if runID != "" {
		fmt.Fprintf(w, "  Run:      %s\n", runID)
	}
	if opts.Verbose {
		fmt.Fprintln(w, "  Terminal state:")
		keys := make([]string, 0, len(report.Terminal))
		for k := range report.Terminal {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(w, "    %s = %s\n", k, report.Terminal[k])
		}
	}
	return nil
}

// recordRun persists the run and its trace to the run log. For failed
// runs the trace is re-collected so the changes leading up to the failure
// and the plan end time are still recorded.
func recordRun(d *model.Domain, p *model.Plan, dbPath string, result *engine.Result, verr error) (string, error) {
	st, err := tracelog.Open(dbPath)
	if err != nil {
		return "", err
	}
	defer st.Close()

	var changes []engine.StateChange
	var end int64
	if verr == nil {
		changes = result.Changes
		end = result.End
	} else {
		// Partial trace up to the failure; the collect error is the same
		// verdict we already hold.
		changes, end, _ = engine.CollectTrace(d, p)
	}

	id := uuid.NewString()
	run := tracelog.RunFromError(id, d.Name(), end, verr)
	if err := st.RecordRun(context.Background(), run, changes); err != nil {
		return "", err
	}
	return id, nil
}

// renderTerminal converts the terminal state to printable text values,
// sorted by canonical key in the JSON encoder.
func renderTerminal(result *engine.Result) map[string]string {
	out := make(map[string]string, len(result.Terminal))
	for k, v := range result.Terminal {
		out[k] = v.String()
	}
	return out
}
