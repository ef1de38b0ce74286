// Package primitive classifies fixed-function primitive types and expands
// them into the point, line and triangle lists a shader-based API accepts.
//
// Both halves are pure: classification is table driven and expansion is a
// set of explicit per-type functions.
package primitive

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Type is a fixed-function primitive type. The numeric values match the
// GL_POINTS .. GL_POLYGON enumerants.
type Type uint8

const (
	Points        Type = 0x0
	Lines         Type = 0x1
	LineLoop      Type = 0x2
	LineStrip     Type = 0x3
	Triangles     Type = 0x4
	TriangleStrip Type = 0x5
	TriangleFan   Type = 0x6
	Quads         Type = 0x7
	QuadStrip     Type = 0x8
	Polygon       Type = 0x9

	// NumTypes is the number of defined primitive types.
	NumTypes = 10
)

var typeNames = [...]string{
	Points:        "Points",
	Lines:         "Lines",
	LineLoop:      "LineLoop",
	LineStrip:     "LineStrip",
	Triangles:     "Triangles",
	TriangleStrip: "TriangleStrip",
	TriangleFan:   "TriangleFan",
	Quads:         "Quads",
	QuadStrip:     "QuadStrip",
	Polygon:       "Polygon",
}

// String returns the string representation of the type.
func (t Type) String() string {
	if t.Valid() {
		return typeNames[t]
	}
	return fmt.Sprintf("Type(%d)", uint8(t))
}

// Valid reports whether t is one of the ten defined primitive types.
func (t Type) Valid() bool {
	return t < NumTypes
}

// Reduced is one of the topologies the target API draws natively.
type Reduced uint8

const (
	// Unknown means no topology is resident yet.
	Unknown Reduced = iota
	ReducedPoints
	ReducedLines
	ReducedTriangles
)

// String returns the string representation of the reduced topology.
func (r Reduced) String() string {
	switch r {
	case Unknown:
		return "Unknown"
	case ReducedPoints:
		return "Points"
	case ReducedLines:
		return "Lines"
	case ReducedTriangles:
		return "Triangles"
	default:
		return fmt.Sprintf("Reduced(%d)", uint8(r))
	}
}

// VerticesPer returns the number of vertices in one primitive of the
// reduced topology, or 0 for Unknown.
func (r Reduced) VerticesPer() int {
	switch r {
	case ReducedPoints:
		return 1
	case ReducedLines:
		return 2
	case ReducedTriangles:
		return 3
	default:
		return 0
	}
}

// Vertex is a fully specified fixed-function vertex. It is a plain value;
// whichever buffer holds a copy owns it.
type Vertex struct {
	Position [4]float32
	Normal   [3]float32
	Color    [4]float32
	TexCoord [MaxTexCoords][4]float32
}

// MaxTexCoords is the number of texture coordinate sets carried per vertex.
const MaxTexCoords = 2

// VertexFloats is the number of float32 values in one packed vertex.
const VertexFloats = 4 + 3 + 4 + 4*MaxTexCoords

// VertexStride is the size in bytes of one packed vertex.
const VertexStride = VertexFloats * 4

// Attribute byte offsets inside a packed vertex.
const (
	OffsetPosition  = 0
	OffsetNormal    = 16
	OffsetColor     = 28
	OffsetTexCoord0 = 44
	OffsetTexCoord1 = 60
)

// Pack appends the little-endian GPU representation of vs to dst.
func Pack(dst []byte, vs []Vertex) []byte {
	for i := range vs {
		v := &vs[i]
		dst = appendFloats(dst, v.Position[:])
		dst = appendFloats(dst, v.Normal[:])
		dst = appendFloats(dst, v.Color[:])
		for j := range v.TexCoord {
			dst = appendFloats(dst, v.TexCoord[j][:])
		}
	}
	return dst
}

func appendFloats(dst []byte, fs []float32) []byte {
	for _, f := range fs {
		dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(f))
	}
	return dst
}
