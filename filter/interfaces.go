package filter

import (
	"context"
)

// Record is one decoded JSON object from an API response: a product, an
// order, a vendor.
type Record = map[string]any

// Filter defines the basic interface for record filters
type Filter interface {
	// Evaluate checks if a record matches the filter criteria
	Evaluate(record Record) bool
}

// CompiledFilter represents a pre-compiled filter ready for evaluation
type CompiledFilter interface {
	Filter

	// Expression returns the original filter expression
	Expression() string
}

// Compiler compiles filter expressions into executable filters
type Compiler interface {
	// Compile parses and compiles a filter expression
	Compile(expression string) (CompiledFilter, error)
}

// CachingCompiler provides caching for compiled filters
type CachingCompiler interface {
	Compiler

	// Clear removes all cached filters
	Clear()

	// Size returns the number of cached filters
	Size() int
}

// Evaluator evaluates filters against records
type Evaluator interface {
	// Evaluate returns the records matching filter, in their original order
	Evaluate(ctx context.Context, filter CompiledFilter, records []Record) ([]Record, error)
}

// Records extracts the objects from a decoded response body. A JSON array
// yields its object elements, a single object yields itself, and anything
// else yields nil.
func Records(body any) []Record {
	switch v := body.(type) {
	case []any:
		records := make([]Record, 0, len(v))
		for _, item := range v {
			if rec, ok := item.(map[string]any); ok {
				records = append(records, rec)
			}
		}
		return records
	case map[string]any:
		return []Record{v}
	default:
		return nil
	}
}
