package primitive

import "fmt"

// The target API takes the flat-shaded attribute from the first vertex of
// each output primitive. The functions below order every output primitive
// so that the vertex GL names as provoking lands in slot 0. Each type is
// spelled out on its own; the index and winding rules are the contract.

// Expand writes the expanded form of src, interpreted as one primitive run
// of type t, into dst and returns the number of vertices written.
// dst must have room for Count(t, len(src)).Vertices vertices.
func Expand(dst, src []Vertex, t Type) int {
	switch t {
	case Points:
		return ExpandPoints(dst, src)
	case Lines:
		return ExpandLines(dst, src)
	case LineLoop:
		return ExpandLineLoop(dst, src)
	case LineStrip:
		return ExpandLineStrip(dst, src)
	case Triangles:
		return ExpandTriangles(dst, src)
	case TriangleStrip:
		return ExpandTriangleStrip(dst, src)
	case TriangleFan:
		return ExpandTriangleFan(dst, src)
	case Quads:
		return ExpandQuads(dst, src)
	case QuadStrip:
		return ExpandQuadStrip(dst, src)
	case Polygon:
		return ExpandPolygon(dst, src)
	default:
		panic(fmt.Sprintf("primitive: unknown primitive type %d", uint8(t)))
	}
}

// ExpandPoints copies every vertex.
func ExpandPoints(dst, src []Vertex) int {
	return copy(dst, src)
}

// ExpandLines emits each pair (a, b) as (b, a).
func ExpandLines(dst, src []Vertex) int {
	o := 0
	for i := 0; i+1 < len(src); i += 2 {
		dst[o] = src[i+1]
		dst[o+1] = src[i]
		o += 2
	}
	return o
}

// ExpandLineStrip emits segment i as (v[i+1], v[i]).
func ExpandLineStrip(dst, src []Vertex) int {
	o := 0
	for i := 0; i+1 < len(src); i++ {
		dst[o] = src[i+1]
		dst[o+1] = src[i]
		o += 2
	}
	return o
}

// ExpandLineLoop emits the strip segments followed by the closing segment
// (v[0], v[n-1]). GL uses v[0] as the closing segment's provoking vertex.
func ExpandLineLoop(dst, src []Vertex) int {
	n := len(src)
	if n < 2 {
		return 0
	}
	o := ExpandLineStrip(dst, src)
	dst[o] = src[0]
	dst[o+1] = src[n-1]
	return o + 2
}

// ExpandTriangles emits each triangle (a, b, c) as (c, a, b). The rotation
// keeps the winding and moves the provoking vertex c to slot 0.
func ExpandTriangles(dst, src []Vertex) int {
	o := 0
	for i := 0; i+2 < len(src); i += 3 {
		dst[o] = src[i+2]
		dst[o+1] = src[i]
		dst[o+2] = src[i+1]
		o += 3
	}
	return o
}

// ExpandTriangleStrip emits triangle i with v[i+2] first. Even triangles
// are (v[i+2], v[i], v[i+1]); odd triangles swap the trailing pair to keep
// the strip's alternating winding consistent.
func ExpandTriangleStrip(dst, src []Vertex) int {
	o := 0
	for i := 0; i+2 < len(src); i++ {
		dst[o] = src[i+2]
		if i%2 == 0 {
			dst[o+1] = src[i]
			dst[o+2] = src[i+1]
		} else {
			dst[o+1] = src[i+1]
			dst[o+2] = src[i]
		}
		o += 3
	}
	return o
}

// ExpandTriangleFan emits triangle j as (v[0], v[j-1], v[j]).
// The hub vertex supplies the flat color.
func ExpandTriangleFan(dst, src []Vertex) int {
	o := 0
	for j := 2; j < len(src); j++ {
		dst[o] = src[0]
		dst[o+1] = src[j-1]
		dst[o+2] = src[j]
		o += 3
	}
	return o
}

// ExpandPolygon fans the polygon from v[0], which is also GL's provoking
// vertex for polygons.
func ExpandPolygon(dst, src []Vertex) int {
	o := 0
	for j := 2; j < len(src); j++ {
		dst[o] = src[0]
		dst[o+1] = src[j-1]
		dst[o+2] = src[j]
		o += 3
	}
	return o
}

// ExpandQuads splits each quad (a, b, c, d) into (d, a, b) and (d, b, c).
// Both triangles take the quad's last vertex as provoking.
func ExpandQuads(dst, src []Vertex) int {
	o := 0
	for i := 0; i+3 < len(src); i += 4 {
		a, b, c, d := &src[i], &src[i+1], &src[i+2], &src[i+3]
		dst[o] = *d
		dst[o+1] = *a
		dst[o+2] = *b
		dst[o+3] = *d
		dst[o+4] = *b
		dst[o+5] = *c
		o += 6
	}
	return o
}

// ExpandQuadStrip splits quad i, formed by v[2i]..v[2i+3], into
// (v[2i+3], v[2i], v[2i+1]) and (v[2i+3], v[2i+2], v[2i]).
// Quad strip input is zig-zag, so the quad's boundary runs
// v[2i], v[2i+1], v[2i+3], v[2i+2] and the split is along v[2i]-v[2i+3].
func ExpandQuadStrip(dst, src []Vertex) int {
	o := 0
	for i := 0; i+3 < len(src); i += 2 {
		a, b, c, d := &src[i], &src[i+1], &src[i+2], &src[i+3]
		dst[o] = *d
		dst[o+1] = *a
		dst[o+2] = *b
		dst[o+3] = *d
		dst[o+4] = *c
		dst[o+5] = *a
		o += 6
	}
	return o
}
