package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/warp/roster-engine/roster"
)

// NewPrefsCommand creates the prefs command group.
func NewPrefsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Show, import and clear a month's preferences",
	}
	cmd.AddCommand(newPrefsShowCommand(rootOpts))
	cmd.AddCommand(newPrefsImportCommand(rootOpts))
	cmd.AddCommand(newPrefsClearCommand(rootOpts))
	cmd.AddCommand(newPrefsReflectCommand(rootOpts))
	return cmd
}

func newPrefsShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "show <period>",
		Short:         "Print the stored Saturday availability and leave requests",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(rootOpts, cmd, func(s *session, out *OutputFormatter) error {
				prefs, err := s.Planner.Preferences(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return outputPreferences(out, args[0], prefs)
			})
		},
	}
}

func newPrefsImportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <period> <file.json>",
		Short: "Replace a month's preferences with a JSON file",
		Long: `Replace a month's preferences with the content of a JSON file:

  {
    "saturday_availability": [{"member_id": "1", "date": "2026-04-04", "available": true}],
    "leave_requests": [{"member_id": "2", "date": "2026-04-07", "kind": "paid"}]
  }

Use - to read from stdin.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(rootOpts, cmd, func(s *session, out *OutputFormatter) error {
				prefs, err := readPreferences(cmd.InOrStdin(), args[1])
				if err != nil {
					return err
				}
				saved, err := s.Planner.UpdatePreferences(cmd.Context(), args[0], prefs)
				if err != nil {
					return err
				}
				return outputPreferences(out, args[0], saved)
			})
		},
	}
}

func newPrefsClearCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "clear <period>",
		Short:         "Remove every leave request of a month",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(rootOpts, cmd, func(s *session, out *OutputFormatter) error {
				prefs, err := s.Planner.ClearLeaveRequests(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return outputPreferences(out, args[0], prefs)
			})
		},
	}
}

func newPrefsReflectCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "reflect <period>",
		Short:         "Copy the roster's Saturday duties back into the preferences",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(rootOpts, cmd, func(s *session, out *OutputFormatter) error {
				prefs, err := s.Planner.ReflectSaturdays(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return outputPreferences(out, args[0], prefs)
			})
		},
	}
}

func readPreferences(stdin io.Reader, path string) (roster.Preferences, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return roster.Preferences{}, WrapExitError(ExitCommandError, "read preferences", err)
	}

	var prefs roster.Preferences
	if err := json.Unmarshal(data, &prefs); err != nil {
		return roster.Preferences{}, WrapExitError(ExitCommandError, fmt.Sprintf("parse %s", path), err)
	}
	return prefs, nil
}

func outputPreferences(out *OutputFormatter, period string, prefs roster.Preferences) error {
	prefs = prefs.Clone()
	return out.Success(prefs, func(w io.Writer) {
		fmt.Fprintf(w, "%s: %d Saturday answer(s), %d leave request(s)\n",
			period, len(prefs.SaturdayAvailability), len(prefs.LeaveRequests))
		for _, a := range prefs.SaturdayAvailability {
			mark := "✗"
			if a.Available {
				mark = "✓"
			}
			fmt.Fprintf(w, "  saturday %s %s %s\n", a.Date, a.MemberID, mark)
		}
		for _, r := range prefs.LeaveRequests {
			fmt.Fprintf(w, "  request  %s %s %s\n", r.Date, r.MemberID, r.EffectiveKind())
		}
	})
}
