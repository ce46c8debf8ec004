package character

import (
	"fmt"
	"strings"

	"github.com/roach88/relive/internal/ir"
)

// SelectionError reports why a talent selection or stat allocation was
// refused. Problems lists every violation found.
type SelectionError struct {
	Problems []string
}

// Error implements the error interface.
func (e *SelectionError) Error() string {
	return strings.Join(e.Problems, "; ")
}

// CheckSelection verifies a talent selection: exactly limit talents, no
// talent twice, no incompatible pair.
func CheckSelection(talents []*ir.Talent, limit int) error {
	var problems []string
	for i, a := range talents {
		for _, b := range talents[i+1:] {
			switch {
			case a.ID == b.ID:
				problems = append(problems, fmt.Sprintf("talent %q selected twice", a.Name))
			case a.IncompatibleWith(b):
				problems = append(problems, fmt.Sprintf("%q and %q cannot be combined", a.Name, b.Name))
			}
		}
	}
	if len(talents) != limit {
		problems = append(problems, fmt.Sprintf("select exactly %d talents, got %d", limit, len(talents)))
	}
	if len(problems) > 0 {
		return &SelectionError{Problems: problems}
	}
	return nil
}

// CheckAllocation verifies a manual stat allocation: every stat within
// [lo, hi] and all points spent.
func CheckAllocation(stats [4]int, points, lo, hi int) error {
	var problems []string
	sum := 0
	for _, v := range stats {
		if v < lo || v > hi {
			problems = append(problems, fmt.Sprintf("stats must be between %d and %d", lo, hi))
			break
		}
	}
	for _, v := range stats {
		sum += v
	}
	if sum != points {
		problems = append(problems, fmt.Sprintf("allocate exactly %d points, got %d", points, sum))
	}
	if len(problems) > 0 {
		return &SelectionError{Problems: problems}
	}
	return nil
}
