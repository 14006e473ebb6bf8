/*
export.go - CSV and print-job rendering of a roster

PURPOSE:
  Turns one period's roster into the two artefacts the office uses: a CSV
  sheet for spreadsheets and a plain-text print job picked up by the print
  spooler script.

MARKS:
  working        -> 出勤
  off            -> 休
  saturday_duty  -> 荷受
  paid_leave     -> 有休

  Cells missing from the roster are read through roster.ImpliedStatus, so an
  ungenerated period exports as the implied default.

PRINT JOB LAYOUT:
  ::PRINTER::<printer name>
  【シフト表】 2026年 04月
  --------------------------------------------------------
  日付<TAB>曜日<TAB><member names...>
  --------------------------------------------------------
   1<TAB>Wed<TAB>出勤<TAB>休 ...
  --------------------------------------------------------
  作成日: 2026/03/25 09:30

  The first line is consumed by the spooler to pick the printer. The job is
  UTF-8 unless CP932 is requested; characters CP932 cannot carry are
  replaced rather than failing the job.
*/
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"

	"github.com/warp/roster-engine/calendar"
	"github.com/warp/roster-engine/roster"
)

// DefaultPrinterName is printed when no printer is chosen.
const DefaultPrinterName = "既定のプリンタ"

const separator = "--------------------------------------------------------"

// utf8BOM lets spreadsheet software detect the encoding of the CSV.
const utf8BOM = "\ufeff"

// Sheet is the input of every export.
type Sheet struct {
	Period  calendar.Period
	Days    []calendar.Day
	Members []roster.Member
	Roster  *roster.Roster // nil exports the implied default
}

// Mark returns the printed mark of a status.
func Mark(s roster.Status) string {
	switch s {
	case roster.StatusOff:
		return "休"
	case roster.StatusSaturdayDuty:
		return "荷受"
	case roster.StatusPaidLeave:
		return "有休"
	default:
		return "出勤"
	}
}

func (s Sheet) marks(day calendar.Day) []string {
	out := make([]string, len(s.Members))
	for i, m := range s.Members {
		out[i] = Mark(s.Roster.StatusOn(day, m.ID))
	}
	return out
}

func (s Sheet) names() []string {
	out := make([]string, len(s.Members))
	for i, m := range s.Members {
		out[i] = m.Name
	}
	return out
}

// =============================================================================
// CSV
// =============================================================================

// WriteCSV writes the sheet as UTF-8 CSV with a byte order mark. One row per
// day: ISO date, weekday, then one mark per member in roster order.
func WriteCSV(w io.Writer, s Sheet) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(append([]string{"日付", "曜日"}, s.names()...)); err != nil {
		return err
	}
	for _, d := range s.Days {
		if err := cw.Write(append([]string{d.ISODate, d.Weekday()}, s.marks(d)...)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// =============================================================================
// PRINT JOB
// =============================================================================

// Encoding selects the byte encoding of a print job.
type Encoding string

const (
	EncodingUTF8  Encoding = "utf-8"
	EncodingCP932 Encoding = "cp932"
)

// ParseEncoding accepts "", "utf-8", "utf8", "cp932", "sjis" and
// "shift_jis" (case-insensitive).
func ParseEncoding(s string) (Encoding, error) {
	switch strings.ToLower(s) {
	case "", "utf-8", "utf8":
		return EncodingUTF8, nil
	case "cp932", "sjis", "shift_jis", "windows-31j":
		return EncodingCP932, nil
	}
	return "", fmt.Errorf("unsupported encoding %q", s)
}

// PrintOptions configures WritePrintJob.
type PrintOptions struct {
	PrinterName string // empty prints DefaultPrinterName
	Encoding    Encoding
	CreatedAt   time.Time
}

// WritePrintJob renders the tab-separated print job.
func WritePrintJob(w io.Writer, s Sheet, opts PrintOptions) error {
	if opts.Encoding == EncodingCP932 {
		enc := encoding.ReplaceUnsupported(japanese.ShiftJIS.NewEncoder())
		tw := transform.NewWriter(w, enc)
		if err := writePrintJob(tw, s, opts); err != nil {
			return err
		}
		return tw.Close()
	}
	return writePrintJob(w, s, opts)
}

func writePrintJob(w io.Writer, s Sheet, opts PrintOptions) error {
	printer := opts.PrinterName
	if printer == "" {
		printer = DefaultPrinterName
	}

	var b strings.Builder
	fmt.Fprintf(&b, "::PRINTER::%s\n", printer)
	fmt.Fprintf(&b, "【シフト表】 %d年 %02d月\n", s.Period.Year, int(s.Period.Month))
	b.WriteString(separator + "\n")
	b.WriteString(strings.Join(append([]string{"日付", "曜日"}, s.names()...), "\t") + "\n")
	b.WriteString(separator + "\n")
	for _, d := range s.Days {
		row := append([]string{fmt.Sprintf("%2s", d.Label), d.Weekday()}, s.marks(d)...)
		b.WriteString(strings.Join(row, "\t") + "\n")
	}
	b.WriteString(separator + "\n")
	fmt.Fprintf(&b, "作成日: %s\n", opts.CreatedAt.Format("2006/01/02 15:04"))

	_, err := io.WriteString(w, b.String())
	return err
}
