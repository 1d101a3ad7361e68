package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/georeplay/internal/replay"
)

// Scenario defines a replay scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Dataset is the path to a YAML or CUE dataset file.
	Dataset string `yaml:"dataset"`

	// Window overrides the dataset's start/end bounds.
	Window *Window `yaml:"window,omitempty"`

	// Snapshots lists frame times captured for golden comparison.
	Snapshots []string `yaml:"snapshots,omitempty"`

	// Checks are evaluated in order against frames.
	Checks []Check `yaml:"checks"`
}

// Window is an RFC 3339 replay window.
type Window struct {
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

// Check is one expectation about the frame at At.
type Check struct {
	Type   string `yaml:"type"`
	At     string `yaml:"at"`
	Zone   string `yaml:"zone,omitempty"`
	Entity string `yaml:"entity,omitempty"`
	Cell   string `yaml:"cell,omitempty"`
	Risk   string `yaml:"risk,omitempty"`
	Count  *int   `yaml:"count,omitempty"`
}

// Check type constants.
const (
	CheckZonePresent  = "zone_present"
	CheckZoneAbsent   = "zone_absent"
	CheckEntityAt     = "entity_at"
	CheckEntityAbsent = "entity_absent"
	CheckCellRisk     = "cell_risk"
	CheckEventCount   = "event_count"
)

// LoadScenario reads and parses a scenario YAML file. A relative dataset
// path is resolved against the scenario file's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Dataset != "" && !filepath.IsAbs(scenario.Dataset) {
		scenario.Dataset = filepath.Join(filepath.Dir(path), scenario.Dataset)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Dataset == "" {
		return fmt.Errorf("dataset is required")
	}
	if len(s.Checks) == 0 {
		return fmt.Errorf("checks list is required and must be non-empty")
	}

	if s.Window != nil {
		if _, err := parseTime(s.Window.Start); err != nil {
			return fmt.Errorf("window.start: %w", err)
		}
		if _, err := parseTime(s.Window.End); err != nil {
			return fmt.Errorf("window.end: %w", err)
		}
	}
	for i, at := range s.Snapshots {
		if _, err := parseTime(at); err != nil {
			return fmt.Errorf("snapshots[%d]: %w", i, err)
		}
	}
	for i, c := range s.Checks {
		if err := validateCheck(c); err != nil {
			return fmt.Errorf("checks[%d]: %w", i, err)
		}
	}
	return nil
}

func validateCheck(c Check) error {
	if _, err := parseTime(c.At); err != nil {
		return fmt.Errorf("at: %w", err)
	}

	switch c.Type {
	case CheckZonePresent, CheckZoneAbsent:
		if c.Zone == "" {
			return fmt.Errorf("%s requires zone", c.Type)
		}
	case CheckEntityAt:
		if c.Entity == "" || c.Cell == "" {
			return fmt.Errorf("%s requires entity and cell", c.Type)
		}
	case CheckEntityAbsent:
		if c.Entity == "" {
			return fmt.Errorf("%s requires entity", c.Type)
		}
	case CheckCellRisk:
		if c.Cell == "" || c.Risk == "" {
			return fmt.Errorf("%s requires cell and risk", c.Type)
		}
		switch replay.RiskLevel(c.Risk) {
		case replay.RiskNone, replay.RiskLow, replay.RiskMedium, replay.RiskHigh:
		default:
			return fmt.Errorf("unknown risk level %q", c.Risk)
		}
	case CheckEventCount:
		if c.Count == nil {
			return fmt.Errorf("%s requires count", c.Type)
		}
	case "":
		return fmt.Errorf("type is required")
	default:
		return fmt.Errorf("unknown check type %q", c.Type)
	}
	return nil
}

func parseTime(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, fmt.Errorf("timestamp is required")
	}
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
