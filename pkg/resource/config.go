package resource

import (
	"fmt"
	"strings"

	"github.com/cuemby/rcspd/internal/rcerr"
)

// UnassignedResource is the sentinel resource name used when a task has no
// assigned resource and no config is supplied.
const UnassignedResource = "unassigned"

// Definition describes a single resource: its name and the DNS periods
// during which it is unavailable.
type Definition struct {
	Name       string
	DNSPeriods []Period
}

// Group is a named alias for an ordered list of resource member names.
type Group struct {
	Name    string
	Members []string
}

// Config is the complete resource configuration: the ordered resource list
// (order defines wildcard/group expansion preference), named groups, and an
// optional default spec for tasks without an explicit assignment.
type Config struct {
	Resources      []Definition
	Groups         map[string][]string
	DefaultResource string
}

// GetResourceOrder returns the configured resource names in declaration
// order — this order is what "*" expands to and what breaks auto-assignment
// ties.
func (c *Config) GetResourceOrder() []string {
	names := make([]string, len(c.Resources))
	for i, r := range c.Resources {
		names[i] = r.Name
	}
	return names
}

// GetDNSPeriods returns the combined DNS periods for resourceName: the
// resource's own declared periods plus every period in globalDNSPeriods,
// which the scheduler applies on top of every resource (spec §3.2).
func (c *Config) GetDNSPeriods(resourceName string, globalDNSPeriods []Period) []Period {
	periods := append([]Period(nil), globalDNSPeriods...)
	for _, r := range c.Resources {
		if r.Name == resourceName {
			periods = append(periods, r.DNSPeriods...)
			break
		}
	}
	return periods
}

// Validate rejects a Config whose groups reference resources that were
// never declared, catching a typo'd member name at config-construction time
// instead of as a silent no-op expansion later.
func (c *Config) Validate() error {
	resourceNames := make(map[string]bool, len(c.Resources))
	for _, r := range c.Resources {
		resourceNames[r.Name] = true
	}
	for groupName, members := range c.Groups {
		for _, member := range members {
			if !resourceNames[member] {
				return rcerr.New(rcerr.InvalidModel,
					fmt.Sprintf("group %q references undefined resource %q", groupName, member))
			}
		}
	}
	return nil
}

// ExpandGroup expands a group alias to its member list, preserving order.
func (c *Config) ExpandGroup(groupName string) []string {
	return c.Groups[groupName]
}

// ExpandResourceSpec expands a resource-spec string to an ordered list of
// concrete resource names. Handles the wildcard "*", group aliases,
// pipe-separated explicit lists ("alice|bob"), and single resource names.
func (c *Config) ExpandResourceSpec(spec string) []string {
	if spec == "" {
		return nil
	}
	if spec == "*" {
		return c.GetResourceOrder()
	}
	if members, ok := c.Groups[spec]; ok {
		return members
	}
	if strings.Contains(spec, "|") {
		parts := strings.Split(spec, "|")
		out := make([]string, len(parts))
		for i, p := range parts {
			out[i] = strings.TrimSpace(p)
		}
		return out
	}
	return []string{spec}
}

// DefaultConfig returns a minimal configuration with a single "unassigned"
// resource and no groups, used when no resource configuration is supplied.
func DefaultConfig() *Config {
	return &Config{
		Resources: []Definition{{Name: UnassignedResource}},
		Groups:    map[string][]string{},
	}
}
