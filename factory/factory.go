/*
Package factory builds a roster setup from YAML or JSON configuration.

PURPOSE:
  Turns a configuration file into the values the engine consumes: the
  classifying Calendar, the ordered member list, the quota table and the
  printer list. Deployments change holidays, staff or quotas by editing a
  file instead of code.

FILE SCHEMA (YAML; JSON is accepted too):
  members:
    - {id: "1", name: "..."}
  calendar:
    company_holidays: ["2026-08-13"]
    public_holidays: ["2026-04-29"]
    full_attendance_saturdays: ["2026-05-02"]
  quota:
    default: 4
    by_period: {"2026-06": 5}
  printers:
    - {id: default, name: "..."}

  Unknown fields are rejected so that typos fail loudly.

USAGE:
  f := factory.NewRosterFactory()
  setup, err := f.Load("roster.yaml")   // or f.Default()
  days, err := setup.Calendar.DaysOfMonth(2026, time.April)

SEE ALSO:
  - default.yaml: embedded configuration of the 2026 fiscal year
  - calendar/calendar.go: Calendar construction and validation
*/
package factory

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/warp/roster-engine/calendar"
	"github.com/warp/roster-engine/roster"
)

//go:embed default.yaml
var defaultConfig []byte

// =============================================================================
// FILE SCHEMA TYPES
// =============================================================================

// ConfigFile is the on-disk representation of a roster setup.
type ConfigFile struct {
	Members  []roster.Member   `json:"members" yaml:"members"`
	Calendar calendar.Config   `json:"calendar" yaml:"calendar"`
	Quota    roster.QuotaTable `json:"quota" yaml:"quota"`
	Printers []Printer         `json:"printers,omitempty" yaml:"printers,omitempty"`
}

// Printer is a named print destination offered for print jobs.
type Printer struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// Setup is a validated, ready-to-use configuration.
type Setup struct {
	Calendar *calendar.Calendar
	Members  []roster.Member
	Quota    roster.QuotaTable
	Printers []Printer
}

// PrinterName resolves a printer id to its display name. Unknown ids are
// returned unchanged.
func (s *Setup) PrinterName(id string) string {
	for _, p := range s.Printers {
		if p.ID == id {
			return p.Name
		}
	}
	return id
}

// =============================================================================
// ROSTER FACTORY
// =============================================================================

// RosterFactory converts configuration files to Setup values.
type RosterFactory struct{}

// NewRosterFactory creates a new factory.
func NewRosterFactory() *RosterFactory {
	return &RosterFactory{}
}

// Default returns the embedded configuration.
func (f *RosterFactory) Default() (*Setup, error) {
	return f.Parse(defaultConfig)
}

// Load reads and parses a configuration file.
func (f *RosterFactory) Load(path string) (*Setup, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read roster config: %w", err)
	}
	return f.Parse(data)
}

// Parse decodes YAML (or JSON) configuration and validates it.
func (f *RosterFactory) Parse(data []byte) (*Setup, error) {
	var cfg ConfigFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse roster config: %w", err)
	}
	return f.FromConfig(cfg)
}

// FromConfig validates a ConfigFile and builds the Setup.
func (f *RosterFactory) FromConfig(cfg ConfigFile) (*Setup, error) {
	if len(cfg.Members) == 0 {
		return nil, fmt.Errorf("invalid roster config: members list is required and must be non-empty")
	}
	seen := make(map[string]bool, len(cfg.Members))
	for i, m := range cfg.Members {
		if m.ID == "" {
			return nil, fmt.Errorf("invalid roster config: members[%d]: id is required", i)
		}
		if seen[m.ID] {
			return nil, fmt.Errorf("invalid roster config: duplicate member id %q", m.ID)
		}
		seen[m.ID] = true
	}

	cal, err := calendar.New(cfg.Calendar)
	if err != nil {
		return nil, fmt.Errorf("invalid roster config: %w", err)
	}

	if d := cfg.Quota.Default; d != nil && *d < 0 {
		return nil, fmt.Errorf("invalid roster config: negative default quota %d", *d)
	}
	for key, n := range cfg.Quota.ByPeriod {
		if _, err := calendar.ParsePeriod(key); err != nil {
			return nil, fmt.Errorf("invalid roster config: quota key: %w", err)
		}
		if n < 0 {
			return nil, fmt.Errorf("invalid roster config: negative quota %d for %s", n, key)
		}
	}

	members := make([]roster.Member, len(cfg.Members))
	copy(members, cfg.Members)
	printers := make([]Printer, len(cfg.Printers))
	copy(printers, cfg.Printers)

	return &Setup{
		Calendar: cal,
		Members:  members,
		Quota:    cfg.Quota,
		Printers: printers,
	}, nil
}

// ToConfig converts a Setup back to its file form.
func (f *RosterFactory) ToConfig(s *Setup) ConfigFile {
	return ConfigFile{
		Members:  s.Members,
		Calendar: s.Calendar.Config(),
		Quota:    s.Quota,
		Printers: s.Printers,
	}
}

// Marshal renders a Setup as YAML.
func (f *RosterFactory) Marshal(s *Setup) ([]byte, error) {
	return yaml.Marshal(f.ToConfig(s))
}
