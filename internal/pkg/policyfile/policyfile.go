// Package policyfile serves leave allocations from a static TOML document.
//
//	[defaults]
//	casual = 12
//	sick = 10
//
//	[organizations."org-id"]
//	casual = 20
//	sick = 14
//	unpaid = 5
//
// Organizations without a table get the [defaults] table, or no allocations at
// all when [defaults] is absent.
package policyfile

import (
	"context"
	"fmt"
	"sort"

	"github.com/BurntSushi/toml"
	"github.com/cmlabs-hris/leave-engine/internal/domain/leave"
)

type document struct {
	Defaults      map[string]int            `toml:"defaults"`
	Organizations map[string]map[string]int `toml:"organizations"`
}

// Provider implements leave.PolicyProvider over a parsed document.
type Provider struct {
	defaults      []leave.Allocation
	organizations map[string][]leave.Allocation
}

var _ leave.PolicyProvider = (*Provider)(nil)

// Load parses the policy file at path.
func Load(path string) (*Provider, error) {
	var doc document
	if _, err := toml.DecodeFile(path, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode policy file %s: %w", path, err)
	}
	return newProvider(doc)
}

// Parse parses a policy document held in memory.
func Parse(data string) (*Provider, error) {
	var doc document
	if _, err := toml.Decode(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode policy document: %w", err)
	}
	return newProvider(doc)
}

func newProvider(doc document) (*Provider, error) {
	defaults, err := toAllocations(doc.Defaults)
	if err != nil {
		return nil, fmt.Errorf("defaults: %w", err)
	}

	p := &Provider{
		defaults:      defaults,
		organizations: make(map[string][]leave.Allocation, len(doc.Organizations)),
	}
	for orgID, table := range doc.Organizations {
		allocations, err := toAllocations(table)
		if err != nil {
			return nil, fmt.Errorf("organization %s: %w", orgID, err)
		}
		p.organizations[orgID] = allocations
	}
	return p, nil
}

// toAllocations keeps the built-in types in their canonical order and appends
// custom types alphabetically.
func toAllocations(table map[string]int) ([]leave.Allocation, error) {
	if len(table) == 0 {
		return nil, nil
	}

	allocations := make([]leave.Allocation, 0, len(table))
	seen := make(map[string]bool, len(table))
	for _, def := range leave.DefaultAllocations() {
		days, ok := table[string(def.LeaveType)]
		if !ok {
			continue
		}
		if days < 0 {
			return nil, fmt.Errorf("%s: total days must not be negative", def.LeaveType)
		}
		allocations = append(allocations, leave.Allocation{LeaveType: def.LeaveType, TotalDays: days})
		seen[string(def.LeaveType)] = true
	}

	var custom []string
	for code := range table {
		if !seen[code] {
			custom = append(custom, code)
		}
	}
	sort.Strings(custom)
	for _, code := range custom {
		if table[code] < 0 {
			return nil, fmt.Errorf("%s: total days must not be negative", code)
		}
		allocations = append(allocations, leave.Allocation{LeaveType: leave.Type(code), TotalDays: table[code]})
	}
	return allocations, nil
}

// GetAllocations returns the organization's table, falling back to [defaults].
func (p *Provider) GetAllocations(ctx context.Context, organizationID string) ([]leave.Allocation, error) {
	if allocations, ok := p.organizations[organizationID]; ok {
		return append([]leave.Allocation(nil), allocations...), nil
	}
	return append([]leave.Allocation(nil), p.defaults...), nil
}
