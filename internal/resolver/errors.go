package resolver

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrResolution matches every error that means "the search text did not name exactly one station"
var ErrResolution = errors.New("station resolution failed")

// AmbiguousStationError lists every candidate so the caller can retry with a narrower search
type AmbiguousStationError struct {
	Search     string
	Candidates map[string]int64 // name -> evaNumber
}

func (e *AmbiguousStationError) Error() string {
	names := make([]string, 0, len(e.Candidates))
	for name := range e.Candidates {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s (%d)", name, e.Candidates[name]))
	}
	return fmt.Sprintf("multiple stations found for %q: %s", e.Search, strings.Join(parts, ", "))
}

func (e *AmbiguousStationError) Is(target error) bool { return target == ErrResolution }

type NotFoundError struct {
	Search string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no station found for %q", e.Search)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrResolution }

// MalformedResponseError is returned when the directory answer is not a list of
// {evaNumber, name} records
type MalformedResponseError struct {
	Search string
	Reason string
	Err    error
}

func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("unexpected station search response for %q: %s: %v", e.Search, e.Reason, e.Err)
	}
	return fmt.Sprintf("unexpected station search response for %q: %s", e.Search, e.Reason)
}

func (e *MalformedResponseError) Is(target error) bool { return target == ErrResolution }

func (e *MalformedResponseError) Unwrap() error { return e.Err }
