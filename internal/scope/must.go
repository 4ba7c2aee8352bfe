package scope

import (
	"context"
	"fmt"

	"github.com/lores-mesh/site-admin/internal/domain"
)

// MisuseError is the panic value of the Must accessors. It signals a
// programming error, not a condition callers should handle.
type MisuseError struct {
	Accessor string
}

func (e *MisuseError) Error() string {
	return fmt.Sprintf("scope.%s %s", e.Accessor, domain.ErrOutsideScope)
}

func (e *MisuseError) Unwrap() error { return domain.ErrOutsideScope }

func MustRegion(ctx context.Context) domain.Region {
	r, ok := Region(ctx)
	if !ok {
		panic(&MisuseError{Accessor: "MustRegion"})
	}
	return r
}

func MustNode(ctx context.Context) domain.Node {
	n, ok := Node(ctx)
	if !ok {
		panic(&MisuseError{Accessor: "MustNode"})
	}
	return n
}

func MustSite(ctx context.Context) domain.Site {
	s, ok := Site(ctx)
	if !ok {
		panic(&MisuseError{Accessor: "MustSite"})
	}
	return s
}

// Must returns the whole scope or panics like the other Must accessors.
func Must(ctx context.Context) Scope {
	s, ok := From(ctx)
	if !ok {
		panic(&MisuseError{Accessor: "Must"})
	}
	return s
}
