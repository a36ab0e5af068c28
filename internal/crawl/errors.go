package crawl

import "fmt"

// CrawlError reports a failure in a phase the crawl cannot do without.
type CrawlError struct {
	Phase string
	Err   error
}

func (e *CrawlError) Error() string {
	return fmt.Sprintf("crawl failed in %s: %v", e.Phase, e.Err)
}

func (e *CrawlError) Unwrap() error {
	return e.Err
}

// WarningKind classifies a problem the crawl recovered from.
type WarningKind int

const (
	// DegradedRetrieval means an optional phase failed and was skipped.
	DegradedRetrieval WarningKind = iota
	// UnresolvedReference means a row named a table or column that is not
	// in the graph, and the row was dropped.
	UnresolvedReference
)

func (k WarningKind) String() string {
	switch k {
	case DegradedRetrieval:
		return "degraded retrieval"
	case UnresolvedReference:
		return "unresolved reference"
	default:
		return fmt.Sprintf("WarningKind(%d)", int(k))
	}
}

// Warning describes a problem the crawl recovered from.
type Warning struct {
	Kind  WarningKind
	Phase string
	// Object is the full name of the object being retrieved, if any.
	Object string
	Err    error
}

func (w Warning) String() string {
	if w.Object == "" {
		return fmt.Sprintf("%s in %s: %v", w.Kind, w.Phase, w.Err)
	}
	return fmt.Sprintf("%s in %s for %s: %v", w.Kind, w.Phase, w.Object, w.Err)
}
