package models

import (
	"sort"
	"strings"
)

// StatusPolice is the dashboard pseudo-status selecting police-registered students.
const StatusPolice = "УП"

// StudentFilter holds the dashboard filters. Empty fields match everything.
type StudentFilter struct {
	Search   string `form:"search" json:"search,omitempty"`
	Group    string `form:"group" json:"group,omitempty"`
	District string `form:"district" json:"district,omitempty"`
	Status   string `form:"status" json:"status,omitempty"`
}

// Active reports whether any filter is set.
func (f StudentFilter) Active() bool {
	return f.Search != "" || f.Group != "" || f.District != "" || f.Status != ""
}

// Match applies every filter to a single student.
func (f StudentFilter) Match(s *Student) bool {
	if f.Search != "" && !strings.Contains(strings.ToLower(s.FullName), strings.ToLower(f.Search)) {
		return false
	}
	if f.Group != "" && s.Group != f.Group {
		return false
	}
	if f.District != "" && s.PoliceRegistry.District != f.District {
		return false
	}
	switch f.Status {
	case StatusRegistered, StatusRemoved:
		if s.InternalRegistry.Status != f.Status {
			return false
		}
	case StatusPolice:
		if !s.PoliceRegistry.IsRegistered {
			return false
		}
	}
	return true
}

// Apply returns the students matching the filter, preserving order.
func (f StudentFilter) Apply(students []Student) []Student {
	out := make([]Student, 0, len(students))
	for i := range students {
		if f.Match(&students[i]) {
			out = append(out, students[i])
		}
	}
	return out
}

// RosterStats are the dashboard counters and filter options.
type RosterStats struct {
	Total        int      `json:"total"`
	TotalActive  int      `json:"totalActive"`
	TotalPolice  int      `json:"totalPolice"`
	TotalRemoved int      `json:"totalRemoved"`
	Groups       []string `json:"groups"`
	Districts    []string `json:"districts"`
}

// ComputeStats counts registry states and collects the sorted, distinct
// groups and police districts present in the list.
func ComputeStats(students []Student) RosterStats {
	stats := RosterStats{Total: len(students)}
	groups := map[string]struct{}{}
	districts := map[string]struct{}{}

	for i := range students {
		s := &students[i]
		switch s.InternalRegistry.Status {
		case StatusRegistered:
			stats.TotalActive++
		case StatusRemoved:
			stats.TotalRemoved++
		}
		if s.PoliceRegistry.IsRegistered {
			stats.TotalPolice++
			if s.PoliceRegistry.District != "" {
				districts[s.PoliceRegistry.District] = struct{}{}
			}
		}
		if s.Group != "" {
			groups[s.Group] = struct{}{}
		}
	}

	stats.Groups = sortedKeys(groups)
	stats.Districts = sortedKeys(districts)
	return stats
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
