package service

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"adlens/internal/closure"
	"adlens/internal/domain"
)

// ScheduleFile is the on-disk definition of recurring audits.
type ScheduleFile struct {
	Audits []ScheduledAudit `yaml:"audits"`
}

// ScheduledAudit is one recurring audit definition.
type ScheduledAudit struct {
	Name            string `yaml:"name"`
	Cron            string `yaml:"cron"`
	Direction       string `yaml:"direction"` // "ancestor" or "descendant"
	Root            string `yaml:"root"`
	ExpandNested    bool   `yaml:"expand_nested"`
	IncludeInactive bool   `yaml:"include_inactive"`
	InactiveDays    int    `yaml:"inactive_days"`
	MaxDepth        int    `yaml:"max_depth"`
	MaxNodes        int    `yaml:"max_nodes"`
}

// Options converts the definition into resolver options.
func (a ScheduledAudit) Options() closure.Options {
	return closure.Options{
		InactivityThreshold: time.Duration(a.InactiveDays) * 24 * time.Hour,
		IncludeInactive:     a.IncludeInactive,
		ExpandNested:        a.ExpandNested,
		MaxDepth:            a.MaxDepth,
		MaxNodes:            a.MaxNodes,
	}
}

// Validate checks one definition for completeness.
func (a ScheduledAudit) Validate() error {
	if a.Name == "" {
		return domain.ErrValidation("scheduled audit needs a name")
	}
	if a.Cron == "" {
		return domain.ErrValidation("audit %q: cron expression is required", a.Name)
	}
	if a.Root == "" {
		return domain.ErrValidation("audit %q: root identity is required", a.Name)
	}
	switch a.Direction {
	case domain.DirectionAncestor, domain.DirectionDescendant:
		return nil
	default:
		return domain.ErrValidation("audit %q: direction must be %q or %q, got %q",
			a.Name, domain.DirectionAncestor, domain.DirectionDescendant, a.Direction)
	}
}

// LoadScheduleFile reads and validates a YAML schedule definition.
func LoadScheduleFile(path string) (*ScheduleFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schedule file: %w", err)
	}

	var sf ScheduleFile
	if err := yaml.Unmarshal(raw, &sf); err != nil {
		return nil, fmt.Errorf("parse schedule file %s: %w", path, err)
	}

	seen := make(map[string]struct{}, len(sf.Audits))
	for _, a := range sf.Audits {
		if err := a.Validate(); err != nil {
			return nil, err
		}
		if _, dup := seen[a.Name]; dup {
			return nil, domain.ErrValidation("duplicate audit name %q", a.Name)
		}
		seen[a.Name] = struct{}{}
	}
	return &sf, nil
}
