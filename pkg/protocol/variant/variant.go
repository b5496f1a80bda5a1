// Package variant dispatches over one-of groups: a set of alternatives of
// which exactly one is expected to be present.
//
// Each alternative is described by a Case that can test for presence,
// extract the typed value and hand it to a handler. Dispatch scans every
// case, so a group with zero or several present alternatives is reported
// instead of silently picking one.
package variant

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoActiveVariant indicates that no alternative of the group is present.
	ErrNoActiveVariant = errors.New("variant: no active variant")

	// ErrMultipleActiveVariants indicates that more than one alternative is present.
	ErrMultipleActiveVariants = errors.New("variant: multiple active variants")
)

// DispatchError describes a failed dispatch.
type DispatchError struct {
	Group  string
	Active []string
	Err    error
}

func (e *DispatchError) Error() string {
	if len(e.Active) == 0 {
		return fmt.Sprintf("%s: %v", e.Group, e.Err)
	}
	return fmt.Sprintf("%s: %v (%s)", e.Group, e.Err, strings.Join(e.Active, ", "))
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}

// Case is one alternative of a group over container type C producing R.
type Case[C, R any] struct {
	name   string
	active func(C) bool
	visit  func(C) R
}

// On builds a Case. get reports presence and extracts the typed value;
// handle is invoked with that value when the case is selected.
func On[C, V, R any](name string, get func(C) (V, bool), handle func(V) R) Case[C, R] {
	return Case[C, R]{
		name: name,
		active: func(c C) bool {
			_, ok := get(c)
			return ok
		},
		visit: func(c C) R {
			v, _ := get(c)
			return handle(v)
		},
	}
}

// Set is an immutable group of cases. It is safe for concurrent use.
type Set[C, R any] struct {
	group string
	cases []Case[C, R]
}

// NewSet creates a group named group from cases.
func NewSet[C, R any](group string, cases ...Case[C, R]) Set[C, R] {
	cs := make([]Case[C, R], len(cases))
	copy(cs, cases)
	return Set[C, R]{group: group, cases: cs}
}

// Dispatch selects the single present alternative of c and returns its
// handler's result.
func (s Set[C, R]) Dispatch(c C) (R, error) {
	var (
		zero     R
		selected = -1
		active   []string
	)

	for i, cs := range s.cases {
		if !cs.active(c) {
			continue
		}
		active = append(active, cs.name)
		if selected < 0 {
			selected = i
		}
	}

	switch {
	case len(active) == 0:
		return zero, &DispatchError{Group: s.group, Err: ErrNoActiveVariant}
	case len(active) > 1:
		return zero, &DispatchError{Group: s.group, Active: active, Err: ErrMultipleActiveVariants}
	}

	return s.cases[selected].visit(c), nil
}
