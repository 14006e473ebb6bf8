package cli

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/warp/roster-engine/planner"
	"github.com/warp/roster-engine/roster"
)

var errViolations = errors.New("roster has violations")

// MutationOutput is the result of generate and reset.
type MutationOutput struct {
	Period     string             `json:"period"`
	Revision   planner.Revision   `json:"revision"`
	Violations []roster.Violation `json:"violations"`
	Unmet      []roster.Unmet     `json:"unmet,omitempty"`
}

// CheckOutput is the result of check.
type CheckOutput struct {
	Period     string             `json:"period"`
	Generated  bool               `json:"generated"`
	Quota      int                `json:"quota"`
	Violations []roster.Violation `json:"violations"`
	Summaries  []roster.Summary   `json:"summaries"`
	Unmet      []roster.Unmet     `json:"unmet"`
}

// NewGenerateCommand creates the generate command.
func NewGenerateCommand(rootOpts *RootOptions) *cobra.Command {
	var preserveManual bool

	cmd := &cobra.Command{
		Use:   "generate <period>",
		Short: "Run the assignment engine for a month (YYYY-MM)",
		Long: `Generate the roster of a month from the calendar and the stored preferences.

With --preserve-manual, cells edited by hand since the last generation keep
their status.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(rootOpts, cmd, func(s *session, out *OutputFormatter) error {
				res, err := s.Planner.Generate(cmd.Context(), args[0], preserveManual)
				if err != nil {
					return err
				}
				v, err := s.Planner.View(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				out.VerboseLog("generated %d entries", res.Roster.Len())
				return outputMutation(out, args[0], res, v.Unmet)
			})
		},
	}

	cmd.Flags().BoolVar(&preserveManual, "preserve-manual", false, "keep hand-edited cells")
	return cmd
}

// NewResetCommand creates the reset command.
func NewResetCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "reset <period>",
		Short:         "Replace a month's roster with the calendar skeleton",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(rootOpts, cmd, func(s *session, out *OutputFormatter) error {
				res, err := s.Planner.Reset(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return outputMutation(out, args[0], res, nil)
			})
		},
	}
}

func outputMutation(out *OutputFormatter, period string, res *planner.Result, unmet []roster.Unmet) error {
	data := MutationOutput{
		Period:     period,
		Revision:   res.Revision,
		Violations: res.Violations,
		Unmet:      unmet,
	}
	return out.Success(data, func(w io.Writer) {
		fmt.Fprintf(w, "%s: %s saved as revision %s (%d entries)\n",
			period, res.Revision.Action, res.Revision.ID, res.Revision.Entries)
		writeViolations(w, res.Violations)
		writeUnmet(w, unmet)
	})
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check <period>",
		Short: "Report violations, per-member tallies and unmet requests",
		Long: `Check a month's roster without changing it.

Exits with status 1 when the roster has violations. A month that was never
generated is checked as its calendar default.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(rootOpts, cmd, func(s *session, out *OutputFormatter) error {
				v, err := s.Planner.View(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				data := CheckOutput{
					Period:     v.Period,
					Generated:  v.Generated,
					Quota:      v.Quota,
					Violations: v.Violations,
					Summaries:  v.Summaries,
					Unmet:      v.Unmet,
				}
				err = out.Success(data, func(w io.Writer) {
					state := "generated"
					if !v.Generated {
						state = "not generated"
					}
					fmt.Fprintf(w, "%s (%s, quota %d)\n", v.Period, state, v.Quota)
					writeSummaries(w, v.Summaries)
					writeViolations(w, v.Violations)
					writeUnmet(w, v.Unmet)
				})
				if err != nil {
					return err
				}
				if len(v.Violations) > 0 {
					return WrapExitError(ExitFailure, v.Period, fmt.Errorf("%w: %d", errViolations, len(v.Violations)))
				}
				return nil
			})
		},
	}
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "history <period>",
		Short:         "List the saved revisions of a month",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(rootOpts, cmd, func(s *session, out *OutputFormatter) error {
				revs, err := s.Planner.History(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if revs == nil {
					revs = []planner.Revision{}
				}
				return out.Success(revs, func(w io.Writer) {
					if len(revs) == 0 {
						fmt.Fprintf(w, "%s: no revisions\n", args[0])
						return
					}
					tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
					fmt.Fprintln(tw, "REVISION\tACTION\tENTRIES\tCREATED")
					for _, r := range revs {
						fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", r.ID, r.Action, r.Entries, r.CreatedAt.Format("2006-01-02 15:04:05"))
					}
					tw.Flush()
				})
			})
		},
	}
}

// =============================================================================
// TEXT HELPERS
// =============================================================================

func writeViolations(w io.Writer, vs []roster.Violation) {
	if len(vs) == 0 {
		fmt.Fprintln(w, "✓ No violations")
		return
	}
	fmt.Fprintf(w, "✗ %d violation(s)\n", len(vs))
	for _, msg := range roster.Messages(vs) {
		fmt.Fprintf(w, "  - %s\n", msg)
	}
}

func writeUnmet(w io.Writer, unmet []roster.Unmet) {
	if len(unmet) == 0 {
		return
	}
	fmt.Fprintf(w, "%d unmet request(s)\n", len(unmet))
	for _, u := range unmet {
		fmt.Fprintf(w, "  - %s %s: %s (%s)\n", u.Request.Date, u.Request.MemberID, u.Status, u.Reason)
	}
}

func writeSummaries(w io.Writer, sums []roster.Summary) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "MEMBER\tNAME\tWORKING\tOFF\tSATURDAY\tPAID\tUSAGE")
	for _, s := range sums {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
			s.MemberID, s.Name, s.WorkingDays, s.OrdinaryOffs, s.SaturdayDuty, s.PaidLeaveDays,
			s.QuotaUsage.StringFixed(2))
	}
	tw.Flush()
}
