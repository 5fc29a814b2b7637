package models

import (
	"fmt"
	"strings"
)

// maxReportedGaps bounds how many missing paths a CoverageError lists
const maxReportedGaps = 10

// CoverageError reports a plan whose combinations are not the full
// Cartesian product of its dimensions' key spaces
type CoverageError struct {
	Missing    []string // Uncovered paths, "RESPONSE_A=A, RESPONSE_B=CORRECT"
	MissingAll int      // Total number of uncovered paths (Missing may be truncated)
	Duplicates []string // Ids of combinations whose path repeats an earlier one
}

// Error implements the error interface for CoverageError
func (e *CoverageError) Error() string {
	var parts []string
	if e.MissingAll > 0 {
		msg := fmt.Sprintf("%d outcome path(s) have no combination: %s", e.MissingAll, strings.Join(e.Missing, "; "))
		if e.MissingAll > len(e.Missing) {
			msg += fmt.Sprintf("; ... and %d more", e.MissingAll-len(e.Missing))
		}
		parts = append(parts, msg)
	}
	if len(e.Duplicates) > 0 {
		parts = append(parts, fmt.Sprintf("duplicate paths in combinations %s", strings.Join(e.Duplicates, ", ")))
	}
	return "incomplete feedback plan: " + strings.Join(parts, "; ")
}

// ValidatePlanCoverage checks that the plan's combinations cover every
// outcome path exactly once. Paths are compared by key only; structural
// problems (wrong length, wrong identifiers) are left to ValidatePlan.
func ValidatePlanCoverage(plan *FeedbackPlan) error {
	seen := make(map[string]bool, len(plan.Combinations))
	var duplicates []string
	for _, combo := range plan.Combinations {
		key := pathKey(combo.Path)
		if seen[key] {
			duplicates = append(duplicates, combo.ID)
			continue
		}
		seen[key] = true
	}

	var missing []string
	missingAll := 0
	for _, path := range cartesianPaths(plan.Dimensions) {
		if seen[pathKey(path)] {
			continue
		}
		missingAll++
		if len(missing) < maxReportedGaps {
			missing = append(missing, FormatPath(path))
		}
	}

	if missingAll == 0 && len(duplicates) == 0 {
		return nil
	}
	return &CoverageError{Missing: missing, MissingAll: missingAll, Duplicates: duplicates}
}

// FormatPath renders a path as "ID=KEY, ID=KEY"
func FormatPath(path []PathStep) string {
	parts := make([]string, 0, len(path))
	for _, step := range path {
		parts = append(parts, step.ResponseIdentifier+"="+step.Key)
	}
	return strings.Join(parts, ", ")
}

func pathKey(path []PathStep) string {
	var sb strings.Builder
	for _, step := range path {
		sb.WriteString(step.ResponseIdentifier)
		sb.WriteByte(0)
		sb.WriteString(step.Key)
		sb.WriteByte(0)
	}
	return sb.String()
}

// cartesianPaths enumerates every path over the dimensions, varying the last
// dimension fastest
func cartesianPaths(dims []Dimension) [][]PathStep {
	paths := [][]PathStep{{}}
	for _, dim := range dims {
		if dim.Kind == nil {
			continue
		}
		keys := dim.Kind.Keys()
		next := make([][]PathStep, 0, len(paths)*len(keys))
		for _, prefix := range paths {
			for _, key := range keys {
				path := make([]PathStep, len(prefix), len(prefix)+1)
				copy(path, prefix)
				next = append(next, append(path, PathStep{ResponseIdentifier: dim.ResponseIdentifier, Key: key}))
			}
		}
		paths = next
	}
	return paths
}
