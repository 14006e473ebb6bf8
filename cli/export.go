package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/warp/roster-engine/calendar"
	"github.com/warp/roster-engine/export"
)

// ExportOptions holds the flags of the export command.
type ExportOptions struct {
	Kind     string // "csv" | "print"
	Output   string // file path, "-" for stdout
	Printer  string
	Encoding string
}

// ExportOutput describes a written export in JSON mode.
type ExportOutput struct {
	Period string `json:"period"`
	Kind   string `json:"kind"`
	Path   string `json:"path"`
	Bytes  int    `json:"bytes"`
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{}

	cmd := &cobra.Command{
		Use:   "export <period>",
		Short: "Write a month's roster as CSV or as a print job",
		Long: `Export a month's roster.

  --kind csv    UTF-8 CSV with byte order mark (default file shift_<period>.csv)
  --kind print  Plain-text print job for the office printer spooler

Use -o - to write to stdout.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(rootOpts, cmd, func(s *session, out *OutputFormatter) error {
				return runExport(s, out, cmd, args[0], opts)
			})
		},
	}

	cmd.Flags().StringVar(&opts.Kind, "kind", "csv", "export kind (csv|print)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file (default shift_<period>.csv or shift_<period>.txt)")
	cmd.Flags().StringVar(&opts.Printer, "printer", "", "printer id from the configuration, or a printer name")
	cmd.Flags().StringVar(&opts.Encoding, "encoding", "utf-8", "print job encoding (utf-8|cp932)")
	return cmd
}

func runExport(s *session, out *OutputFormatter, cmd *cobra.Command, periodKey string, opts *ExportOptions) error {
	v, err := s.Planner.View(cmd.Context(), periodKey)
	if err != nil {
		return err
	}
	period, err := calendar.ParsePeriod(v.Period)
	if err != nil {
		return err
	}
	sheet := export.Sheet{Period: period, Days: v.Days, Members: v.Members, Roster: v.Roster}

	var buf bytes.Buffer
	ext := "csv"
	switch opts.Kind {
	case "csv":
		err = export.WriteCSV(&buf, sheet)
	case "print":
		ext = "txt"
		enc, encErr := export.ParseEncoding(opts.Encoding)
		if encErr != nil {
			return WrapExitError(ExitCommandError, "invalid encoding", encErr)
		}
		printer := opts.Printer
		if printer != "" {
			printer = s.Setup.PrinterName(printer)
		}
		err = export.WritePrintJob(&buf, sheet, export.PrintOptions{
			PrinterName: printer,
			Encoding:    enc,
			CreatedAt:   time.Now(),
		})
	default:
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid export kind %q: must be csv or print", opts.Kind))
	}
	if err != nil {
		return err
	}

	path := opts.Output
	if path == "" {
		path = fmt.Sprintf("shift_%s.%s", period.Key(), ext)
	}

	// Raw export on stdout; the JSON envelope would corrupt it
	if path == "-" {
		_, err := io.Copy(cmd.OutOrStdout(), &buf)
		return err
	}

	n := buf.Len()
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return WrapExitError(ExitCommandError, "write export", err)
	}
	out.VerboseLog("wrote %d bytes to %s", n, path)

	data := ExportOutput{Period: period.Key(), Kind: opts.Kind, Path: path, Bytes: n}
	return out.Success(data, func(w io.Writer) {
		fmt.Fprintf(w, "✓ Wrote %s (%d bytes)\n", path, n)
	})
}
