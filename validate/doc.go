// Package validate implements the streaming derivative validator.
//
// A Validator compiles the model graph into an interned pattern store
// and rewrites a current pattern by document event. Interning gives
// every structurally distinct pattern one identifier; derivative
// results are memoized against those identifiers, which keeps
// interleave and recursive patterns from blowing up exponentially.
//
// A Validator is single-use and not safe for concurrent use; the
// compiled model.Schema it was built from may be shared freely, so
// run one Validator per goroutine against the same schema.
package validate
