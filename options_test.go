package gldirect

import (
	"testing"

	"github.com/gogpu/gldirect/internal/batch"
	"github.com/gogpu/gldirect/internal/displaylist"
)

func TestDefaultOptions(t *testing.T) {
	o := defaultOptions()
	if o.vertexCapacity != batch.DefaultVertexCapacity {
		t.Errorf("vertexCapacity = %d, want %d", o.vertexCapacity, batch.DefaultVertexCapacity)
	}
	if o.primitiveIncrement != batch.DefaultPrimitiveIncrement {
		t.Errorf("primitiveIncrement = %d, want %d", o.primitiveIncrement, batch.DefaultPrimitiveIncrement)
	}
	if o.maxListNesting != displaylist.DefaultMaxNesting {
		t.Errorf("maxListNesting = %d, want %d", o.maxListNesting, displaylist.DefaultMaxNesting)
	}
}

func TestOptionsApply(t *testing.T) {
	tests := []struct {
		name string
		opt  ContextOption
		want contextOptions
	}{
		{
			name: "vertex capacity",
			opt:  WithVertexBufferCapacity(128),
			want: contextOptions{128, batch.DefaultPrimitiveIncrement, displaylist.DefaultMaxNesting},
		},
		{
			name: "primitive increment",
			opt:  WithPrimitiveBufferIncrement(8),
			want: contextOptions{batch.DefaultVertexCapacity, 8, displaylist.DefaultMaxNesting},
		},
		{
			name: "list nesting",
			opt:  WithMaxListNesting(3),
			want: contextOptions{batch.DefaultVertexCapacity, batch.DefaultPrimitiveIncrement, 3},
		},
		{
			name: "non-positive ignored",
			opt:  WithVertexBufferCapacity(0),
			want: defaultOptions(),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := defaultOptions()
			tt.opt(&o)
			if o != tt.want {
				t.Errorf("options = %+v, want %+v", o, tt.want)
			}
		})
	}
}

func TestNewContextUsesVertexCapacity(t *testing.T) {
	c, _ := newTestContext(t, WithVertexBufferCapacity(32))
	if got := c.immediate.VertexBuffer().Capacity(); got != 32 {
		t.Errorf("vertex buffer capacity = %d, want 32", got)
	}
}
