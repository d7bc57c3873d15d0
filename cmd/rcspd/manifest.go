package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cuemby/rcspd/pkg/resource"
	"github.com/cuemby/rcspd/pkg/schedconfig"
	"github.com/cuemby/rcspd/pkg/task"
	"github.com/cuemby/rcspd/pkg/validate"
)

// manifest is the YAML document a caller hands to every rcspd subcommand:
// the entity set plus enough resource/config overrides to reproduce a
// solve without a running service.
type manifest struct {
	APIVersion      string               `yaml:"apiVersion"`
	Kind            string               `yaml:"kind"`
	CurrentDate     string               `yaml:"currentDate"`
	FiscalYearStart int                  `yaml:"fiscalYearStart"`
	Algorithm       string               `yaml:"algorithm"`
	DefaultResource string               `yaml:"defaultResource"`
	Resources       []resourceManifest   `yaml:"resources"`
	Groups          map[string][]string  `yaml:"groups"`
	Entities        []entityManifest     `yaml:"entities"`
}

type resourceManifest struct {
	Name       string           `yaml:"name"`
	DNSPeriods []periodManifest `yaml:"dnsPeriods"`
}

type periodManifest struct {
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

type entityManifest struct {
	ID           string               `yaml:"id"`
	Effort       string               `yaml:"effort"`
	Resources    []string             `yaml:"resources"`
	StartDate    string               `yaml:"startDate"`
	EndDate      string               `yaml:"endDate"`
	StartAfter   string               `yaml:"startAfter"`
	EndBefore    string               `yaml:"endBefore"`
	Timeframe    string               `yaml:"timeframe"`
	Status       string               `yaml:"status"`
	Priority     *int                 `yaml:"priority"`
	Dependencies []dependencyManifest `yaml:"dependencies"`
}

type dependencyManifest struct {
	TaskID  string  `yaml:"taskId"`
	LagDays float64 `yaml:"lagDays"`
}

// loadManifest reads and parses path; it does not yet validate entities —
// that happens inside pkg/scheduling.Service.Schedule.
func loadManifest(path string) (*manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	return &m, nil
}

func (m *manifest) currentDate() (time.Time, error) {
	if m.CurrentDate == "" {
		return time.Time{}, fmt.Errorf("manifest currentDate is required")
	}
	return time.Parse("2006-01-02", m.CurrentDate)
}

func (m *manifest) toRawEntities() []validate.RawEntity {
	entities := make([]validate.RawEntity, len(m.Entities))
	for i, e := range m.Entities {
		entities[i] = validate.RawEntity{
			ID:         e.ID,
			Effort:     e.Effort,
			Resources:  e.Resources,
			StartDate:  nonEmptyPtr(e.StartDate),
			EndDate:    nonEmptyPtr(e.EndDate),
			StartAfter: nonEmptyPtr(e.StartAfter),
			EndBefore:  nonEmptyPtr(e.EndBefore),
			Timeframe:  e.Timeframe,
			Status:     e.Status,
			Priority:   e.Priority,
		}
		if len(e.Dependencies) > 0 {
			deps := make([]task.Dependency, len(e.Dependencies))
			for j, d := range e.Dependencies {
				deps[j] = task.Dependency{TaskID: d.TaskID, LagDays: d.LagDays}
			}
			entities[i].Dependencies = deps
		}
	}
	return entities
}

func (m *manifest) toResourceConfig() *resource.Config {
	if len(m.Resources) == 0 && len(m.Groups) == 0 && m.DefaultResource == "" {
		return nil
	}

	cfg := &resource.Config{
		Groups:          m.Groups,
		DefaultResource: m.DefaultResource,
	}
	cfg.Resources = make([]resource.Definition, len(m.Resources))
	for i, r := range m.Resources {
		def := resource.Definition{Name: r.Name}
		for _, p := range r.DNSPeriods {
			start, err := time.Parse("2006-01-02", p.Start)
			if err != nil {
				continue
			}
			end, err := time.Parse("2006-01-02", p.End)
			if err != nil {
				continue
			}
			def.DNSPeriods = append(def.DNSPeriods, resource.Period{Start: start, End: end})
		}
		cfg.Resources[i] = def
	}
	return cfg
}

func (m *manifest) toConfig() *schedconfig.Config {
	cfg := schedconfig.Default()
	if m.Algorithm != "" {
		cfg.Algorithm = schedconfig.AlgorithmType(m.Algorithm)
	}
	return cfg
}

func nonEmptyPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
