package primitive

import "fmt"

// classInfo is one row of the classification table.
type classInfo struct {
	reduced Reduced
	// min is the number of input vertices needed for one primitive.
	min int
}

// classTable maps every primitive type to its reduced topology.
var classTable = [NumTypes]classInfo{
	Points:        {ReducedPoints, 1},
	Lines:         {ReducedLines, 2},
	LineLoop:      {ReducedLines, 2},
	LineStrip:     {ReducedLines, 2},
	Triangles:     {ReducedTriangles, 3},
	TriangleStrip: {ReducedTriangles, 3},
	TriangleFan:   {ReducedTriangles, 3},
	Quads:         {ReducedTriangles, 4},
	QuadStrip:     {ReducedTriangles, 4},
	Polygon:       {ReducedTriangles, 3},
}

// Classify returns the reduced topology for t.
// It panics if t is not a defined type; callers validate enums first.
func Classify(t Type) Reduced {
	return info(t).reduced
}

// MinVertices returns the number of input vertices one primitive of t needs.
func MinVertices(t Type) int {
	return info(t).min
}

func info(t Type) classInfo {
	if !t.Valid() {
		panic(fmt.Sprintf("primitive: unknown primitive type %d", uint8(t)))
	}
	return classTable[t]
}

// Counts is the GPU-side size of one expanded primitive run.
type Counts struct {
	// Reduced is the output topology.
	Reduced Reduced
	// Primitives is the number of output points, lines or triangles.
	Primitives int
	// Vertices is Primitives times the vertices per reduced primitive.
	Vertices int
}

// Count computes the output primitive and vertex counts for n input
// vertices of type t. Fewer vertices than one primitive needs yields zero
// primitives; trailing vertices that do not complete a primitive are
// ignored.
func Count(t Type, n int) Counts {
	ci := info(t)
	c := Counts{Reduced: ci.reduced}
	if n < ci.min {
		return c
	}

	switch t {
	case Points:
		c.Primitives = n
	case Lines:
		c.Primitives = n / 2
	case LineStrip:
		c.Primitives = n - 1
	case LineLoop:
		c.Primitives = n
	case Triangles:
		c.Primitives = n / 3
	case TriangleStrip, TriangleFan, Polygon:
		c.Primitives = n - 2
	case Quads:
		c.Primitives = 2 * (n / 4)
	case QuadStrip:
		c.Primitives = 2 * ((n - 2) / 2)
	}

	c.Vertices = c.Primitives * ci.reduced.VerticesPer()
	return c
}
