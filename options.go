package gldirect

import (
	"github.com/gogpu/gldirect/internal/batch"
	"github.com/gogpu/gldirect/internal/displaylist"
)

// ContextOption configures a Context during creation.
// Use functional options to customize Context behavior.
//
// Example:
//
//	// Default buffer sizes
//	ctx, err := gldirect.NewContext(shared)
//
//	// Larger vertex buffer for geometry-heavy callers
//	ctx, err := gldirect.NewContext(shared, gldirect.WithVertexBufferCapacity(1<<16))
type ContextOption func(*contextOptions)

// contextOptions holds optional configuration for Context creation.
type contextOptions struct {
	vertexCapacity     int
	primitiveIncrement int
	maxListNesting     int
}

// defaultOptions returns the default context options.
func defaultOptions() contextOptions {
	return contextOptions{
		vertexCapacity:     batch.DefaultVertexCapacity,
		primitiveIncrement: batch.DefaultPrimitiveIncrement,
		maxListNesting:     displaylist.DefaultMaxNesting,
	}
}

// WithVertexBufferCapacity sets the size of the immediate-mode vertex
// buffer, in expanded vertices. A primitive whose expansion is larger than
// the buffer is dropped, so the capacity bounds the largest drawable
// Begin/End run. Non-positive values keep the default.
//
// Example:
//
//	ctx, err := gldirect.NewContext(shared, gldirect.WithVertexBufferCapacity(1<<16))
func WithVertexBufferCapacity(n int) ContextOption {
	return func(o *contextOptions) {
		if n > 0 {
			o.vertexCapacity = n
		}
	}
}

// WithPrimitiveBufferIncrement sets the growth step, in vertices, of the
// buffer collecting the vertices of the open primitive.
// Non-positive values keep the default.
func WithPrimitiveBufferIncrement(n int) ContextOption {
	return func(o *contextOptions) {
		if n > 0 {
			o.primitiveIncrement = n
		}
	}
}

// WithMaxListNesting sets how deep CallList may nest during replay.
// Calls beyond the limit are ignored. Non-positive values keep the default.
func WithMaxListNesting(n int) ContextOption {
	return func(o *contextOptions) {
		if n > 0 {
			o.maxListNesting = n
		}
	}
}
