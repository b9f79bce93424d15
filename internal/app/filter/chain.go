package filter

import (
	"context"

	"github.com/cockroachdb/errors"
)

// Chain executes filters in sequence.
type Chain struct {
	filters []Filter
}

// NewChain creates a new filter chain.
func NewChain() *Chain {
	return &Chain{
		filters: make([]Filter, 0),
	}
}

// Spec names a filter to enable and its raw settings.
type Spec struct {
	Name     string
	Settings map[string]any
}

// Build creates a chain that always starts with the extension filter and
// continues with the named filters in order.
func Build(specs []Spec) (*Chain, error) {
	chain := NewChain()
	chain.Add(NewExtensionFilter())

	for _, spec := range specs {
		if spec.Name == ExtensionFilterName {
			continue
		}
		factory, ok := registry[spec.Name]
		if !ok {
			return nil, errors.Newf("unknown filter: %s", spec.Name)
		}
		f := factory()
		if err := f.ValidateConfig(spec.Settings); err != nil {
			return nil, errors.Wrapf(err, "invalid config for filter %s", spec.Name)
		}
		chain.Add(f)
	}
	return chain, nil
}

// Add adds a filter to the chain.
func (c *Chain) Add(f Filter) {
	c.filters = append(c.filters, f)
}

// Execute runs all filters in sequence.
// Returns immediately if any filter rejects the candidate.
// Filters are only applied if they declare they apply to the candidate.
func (c *Chain) Execute(ctx context.Context, cand Candidate) Result {
	for _, f := range c.filters {
		if !f.AppliesTo(cand) {
			continue
		}

		result := f.Check(ctx, cand)
		if !result.Accepted {
			return result
		}
	}
	return Accept()
}

// Filters returns all filters in the chain.
func (c *Chain) Filters() []Filter {
	return c.filters
}
