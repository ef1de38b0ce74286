package gldirect

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/gogpu/gldirect/device"
	"github.com/gogpu/gldirect/internal/batch"
	"github.com/gogpu/gldirect/internal/fakedevice"
	"github.com/gogpu/gldirect/internal/primitive"
	"github.com/gogpu/gldirect/internal/shadergen"
	"github.com/gogpu/gputypes"
	"golang.org/x/image/math/f32"
)

// harness hands out fake devices through a device.Shared and remembers
// every device it created.
type harness struct {
	devs   []*fakedevice.Device
	shared *device.Shared

	// failCompile is copied into every new device.
	failCompile string
}

func newHarness() *harness {
	h := &harness{}
	h.shared = device.NewShared(func() (device.Device, error) {
		d := fakedevice.New(fakedevice.DefaultCaps())
		d.FailCompile = h.failCompile
		h.devs = append(h.devs, d)
		return d, nil
	})
	return h
}

func (h *harness) dev() *fakedevice.Device { return h.devs[len(h.devs)-1] }

func newTestContext(t *testing.T, opts ...ContextOption) (*Context, *harness) {
	t.Helper()
	h := newHarness()
	c, err := NewContext(h.shared, opts...)
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c, h
}

func triangle(c *Context) {
	c.Begin(Triangles)
	c.Vertex2(0, 0)
	c.Vertex2(1, 0)
	c.Vertex2(0, 1)
	c.End()
}

func checkNoError(t *testing.T, c *Context) {
	t.Helper()
	if e := c.Error(); e != NoError {
		t.Errorf("Error() = %v, want NoError", e)
	}
}

// paramHandle finds a parameter of a fake program by name.
func paramHandle(t *testing.T, prog *fakedevice.Program, name string) device.ParamHandle {
	t.Helper()
	for i, pd := range prog.Desc.Params {
		if pd.Name == name {
			return device.ParamHandle(i)
		}
	}
	t.Fatalf("program %q does not declare %q", prog.Desc.Label, name)
	return device.InvalidParam
}

// lastProgram returns the program used by the most recent draw.
func lastProgram(t *testing.T, d *fakedevice.Device) *fakedevice.Program {
	t.Helper()
	if len(d.Draws) == 0 {
		t.Fatal("no draws recorded")
	}
	prog := d.Program(d.Draws[len(d.Draws)-1].Call.Program)
	if prog == nil {
		t.Fatal("last draw used an unknown program")
	}
	return prog
}

func vertexColor(data []byte, i int) [4]float32 {
	var c [4]float32
	base := i*primitive.VertexStride + primitive.OffsetColor
	for k := range c {
		c[k] = math.Float32frombits(binary.LittleEndian.Uint32(data[base+4*k:]))
	}
	return c
}

func TestImmediateBatchesPrimitivesOfOneTopology(t *testing.T) {
	c, h := newTestContext(t)

	triangle(c)
	triangle(c)
	c.Begin(Quads)
	for range 4 {
		c.Vertex2(0, 0)
	}
	c.End()
	if len(h.dev().Draws) != 0 {
		t.Fatalf("drew %d batches before Flush", len(h.dev().Draws))
	}

	c.Flush()
	checkNoError(t, c)
	draws := h.dev().Draws
	if len(draws) != 1 {
		t.Fatalf("got %d draws, want 1", len(draws))
	}
	if got := draws[0].Call.Count; got != 12 {
		t.Errorf("draw count = %d, want 12", got)
	}
	if got := draws[0].Call.Topology; got != gputypes.PrimitiveTopologyTriangleList {
		t.Errorf("topology = %v, want triangle list", got)
	}
}

func TestTopologyChangeSplitsDraws(t *testing.T) {
	c, h := newTestContext(t)

	triangle(c)
	c.Begin(LineStrip)
	c.Vertex2(0, 0)
	c.Vertex2(1, 1)
	c.Vertex2(2, 0)
	c.End()
	c.Flush()

	draws := h.dev().Draws
	if len(draws) != 2 {
		t.Fatalf("got %d draws, want 2", len(draws))
	}
	if draws[0].Call.Topology != gputypes.PrimitiveTopologyTriangleList || draws[0].Call.Count != 3 {
		t.Errorf("first draw = %v x%d, want triangle list x3", draws[0].Call.Topology, draws[0].Call.Count)
	}
	if draws[1].Call.Topology != gputypes.PrimitiveTopologyLineList || draws[1].Call.Count != 4 {
		t.Errorf("second draw = %v x%d, want line list x4", draws[1].Call.Topology, draws[1].Call.Count)
	}
	if got := c.Stats().Immediate.Flushes[batch.ReasonTopology]; got != 1 {
		t.Errorf("topology flushes = %d, want 1", got)
	}
}

func TestStateChangeFlushesAndSwitchesProgram(t *testing.T) {
	c, h := newTestContext(t)

	triangle(c)
	c.Enable(CapLighting)
	if len(h.dev().Draws) != 1 {
		t.Fatalf("state change left %d draws, want 1", len(h.dev().Draws))
	}
	c.Normal3(0, 0, 1)
	triangle(c)
	c.Flush()

	draws := h.dev().Draws
	if len(draws) != 2 {
		t.Fatalf("got %d draws, want 2", len(draws))
	}
	if draws[0].Call.Program == draws[1].Call.Program {
		t.Error("lighting did not select a different program")
	}
	if s := c.Stats().Effects; s.Misses != 2 {
		t.Errorf("effect misses = %d, want 2", s.Misses)
	}
}

func TestUnchangedStateReusesProgram(t *testing.T) {
	c, h := newTestContext(t)

	for range 3 {
		triangle(c)
		c.Flush()
	}
	if h.dev().Compiles != 1 {
		t.Errorf("compiled %d programs, want 1", h.dev().Compiles)
	}

	// Toggling back to a known state hits the cache.
	c.Enable(CapFog)
	triangle(c)
	c.Disable(CapFog)
	triangle(c)
	c.Flush()
	if h.dev().Compiles != 2 {
		t.Errorf("compiled %d programs, want 2", h.dev().Compiles)
	}
}

func TestSequenceErrors(t *testing.T) {
	tests := []struct {
		name string
		run  func(c *Context)
		want ErrorCode
	}{
		{"end without begin", func(c *Context) { c.End() }, InvalidOperation},
		{"vertex outside begin", func(c *Context) { c.Vertex2(0, 0) }, InvalidOperation},
		{"nested begin", func(c *Context) { c.Begin(Points); c.Begin(Points) }, InvalidOperation},
		{"state inside begin", func(c *Context) { c.Begin(Points); c.Enable(CapFog) }, InvalidOperation},
		{"matrix inside begin", func(c *Context) { c.Begin(Points); c.LoadIdentity() }, InvalidOperation},
		{"bad mode", func(c *Context) { c.Begin(Mode(42)) }, InvalidEnum},
		{"bad cap", func(c *Context) { c.Enable(Cap(0x1234)) }, InvalidEnum},
		{"bad light", func(c *Context) { c.Enable(CapLight0 + 8) }, InvalidEnum},
		{"bad shade model", func(c *Context) { c.ShadeModel(Shading(1)) }, InvalidEnum},
		{"negative density", func(c *Context) { c.FogDensity(-1) }, InvalidValue},
		{"spot cutoff", func(c *Context) { c.Lightf(CapLight0, SpotCutoff, 120) }, InvalidValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestContext(t)
			tt.run(c)
			if got := c.Error(); got != tt.want {
				t.Errorf("Error() = %v, want %v", got, tt.want)
			}
			if got := c.Error(); got != NoError {
				t.Errorf("Error() did not clear: %v", got)
			}
		})
	}
}

func TestErrorKeepsFirst(t *testing.T) {
	c, _ := newTestContext(t)
	c.End()
	c.Begin(Mode(99))
	if got := c.Error(); got != InvalidOperation {
		t.Errorf("Error() = %v, want first error InvalidOperation", got)
	}
}

func TestStateInsideBeginIsIgnored(t *testing.T) {
	c, _ := newTestContext(t)
	c.Begin(Triangles)
	c.Enable(CapLighting)
	c.End()
	if c.state.Lighting.Enabled {
		t.Error("Enable inside Begin/End changed state")
	}
}

func TestQuadTakesFlatColorFromLastVertex(t *testing.T) {
	c, h := newTestContext(t)
	c.ShadeModel(Flat)

	colors := [][3]float32{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}, {1, 1, 0}}
	c.Begin(Quads)
	for i, col := range colors {
		c.Color3(col[0], col[1], col[2])
		c.Vertex2(float32(i), 0)
	}
	c.End()
	c.Flush()

	d := h.dev().Draws[0]
	want := [4]float32{1, 1, 0, 1}
	for _, i := range []int{0, 3} {
		if got := vertexColor(d.Data, i); got != want {
			t.Errorf("triangle leading vertex %d color = %v, want %v", i, got, want)
		}
	}
}

func TestMatrixParameters(t *testing.T) {
	c, h := newTestContext(t)

	c.MatrixMode(Projection)
	c.Scale(2, 2, 1)
	c.MatrixMode(ModelView)
	c.Translate(1, 2, 3)
	triangle(c)
	c.Flush()

	prog := lastProgram(t, h.dev())
	got := prog.Matrices[paramHandle(t, prog, shadergen.ParamMVP.Name())]
	want := f32.Mat4{
		2, 0, 0, 2,
		0, 2, 0, 4,
		0, 0, 1, 3,
		0, 0, 0, 1,
	}
	if got != want {
		t.Errorf("mvp = %v, want %v", got, want)
	}
}

func TestLoadMatrixIsColumnMajor(t *testing.T) {
	c, _ := newTestContext(t)
	c.LoadMatrix([16]float32{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		5, 6, 7, 1,
	})
	if got := c.state.ModelView; got[3] != 5 || got[7] != 6 || got[11] != 7 {
		t.Errorf("translation column = (%v, %v, %v), want (5, 6, 7)", got[3], got[7], got[11])
	}
}

func TestMatrixStackErrors(t *testing.T) {
	c, _ := newTestContext(t)

	c.PopMatrix()
	if got := c.Error(); got != StackUnderflow {
		t.Errorf("Pop on empty stack: %v, want StackUnderflow", got)
	}

	c.MatrixMode(Projection)
	c.PushMatrix()
	checkNoError(t, c)
	c.PushMatrix()
	if got := c.Error(); got != StackOverflow {
		t.Errorf("Push past depth %d: %v, want StackOverflow", ProjectionStackDepth, got)
	}
}

func TestLightPositionUsesModelViewWhenSet(t *testing.T) {
	c, h := newTestContext(t)

	c.Translate(1, 0, 0)
	c.Light(CapLight0, Position, f32.Vec4{0, 0, 0, 1})
	c.LoadIdentity()
	c.Enable(CapLighting)
	c.Enable(CapLight0)
	triangle(c)
	c.Flush()

	prog := lastProgram(t, h.dev())
	got := prog.Vectors[paramHandle(t, prog, shadergen.LightParam(0, shadergen.LightPosition).Name())]
	if want := (f32.Vec4{1, 0, 0, 1}); got != want {
		t.Errorf("light0 position = %v, want %v", got, want)
	}
}

func TestFogParameters(t *testing.T) {
	c, h := newTestContext(t)

	c.Enable(CapFog)
	c.FogMode(FogLinear)
	c.FogStart(1)
	c.FogEnd(5)
	c.FogColor(f32.Vec4{0.5, 0.5, 2, 1})
	triangle(c)
	c.Flush()
	checkNoError(t, c)

	prog := lastProgram(t, h.dev())
	if got, want := prog.Vectors[paramHandle(t, prog, "fog_params")], (f32.Vec4{1, 5, 1, 0.25}); got != want {
		t.Errorf("fog_params = %v, want %v", got, want)
	}
	if got, want := prog.Vectors[paramHandle(t, prog, "fog_color")], (f32.Vec4{0.5, 0.5, 1, 1}); got != want {
		t.Errorf("fog_color = %v, want clamped %v", got, want)
	}
}

func TestBoundTextureReachesProgram(t *testing.T) {
	c, h := newTestContext(t)

	c.BindTexture(1, 7, TextureParams{MinFilter: Nearest, MagFilter: Nearest, WrapS: ClampToEdge, WrapT: Repeat})
	c.ActiveTexture(1)
	c.Enable(CapTexture2D)
	triangle(c)
	c.Flush()
	checkNoError(t, c)

	prog := lastProgram(t, h.dev())
	if got := prog.Textures[paramHandle(t, prog, "tex1")]; got != 7 {
		t.Errorf("tex1 = %d, want 7", got)
	}
	if len(prog.Desc.Samplers) != 1 || prog.Desc.Samplers[0].AddressModeU != gputypes.AddressModeClampToEdge {
		t.Errorf("samplers = %+v, want one clamping sampler", prog.Desc.Samplers)
	}
}

func TestInvalidTextureParams(t *testing.T) {
	c, _ := newTestContext(t)
	p := DefaultTextureParams()
	p.MagFilter = LinearMipmapLinear
	c.BindTexture(0, 1, p)
	if got := c.Error(); got != InvalidEnum {
		t.Errorf("mipmap mag filter: %v, want InvalidEnum", got)
	}
}

func TestCompileFailureDrawsWithDefaultProgram(t *testing.T) {
	h := newHarness()
	h.failCompile = "light_directional"
	c, err := NewContext(h.shared)
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}
	defer c.Close()

	c.Enable(CapLighting)
	c.Enable(CapLight0)
	triangle(c)
	c.Flush()
	checkNoError(t, c)

	prog := lastProgram(t, h.dev())
	if prog.Desc.Label != shadergen.DefaultLabel {
		t.Errorf("fallback program label = %q, want %q", prog.Desc.Label, shadergen.DefaultLabel)
	}
	if s := c.Stats().Effects; s.Failures != 1 {
		t.Errorf("failures = %d, want 1", s.Failures)
	}
}

func TestOversizedPrimitiveIsDropped(t *testing.T) {
	c, h := newTestContext(t, WithVertexBufferCapacity(6))

	c.Begin(Triangles)
	for range 9 {
		c.Vertex2(0, 0)
	}
	c.End()
	triangle(c)
	c.Flush()
	checkNoError(t, c)

	if got := c.Stats().Immediate.Dropped; got != 1 {
		t.Errorf("dropped = %d, want 1", got)
	}
	if len(h.dev().Draws) != 1 || h.dev().Draws[0].Call.Count != 3 {
		t.Errorf("draws = %d, want the one small triangle", len(h.dev().Draws))
	}
}

func TestDeviceLossAndRestore(t *testing.T) {
	c, h := newTestContext(t)

	list := c.GenLists(1)
	c.NewList(list, Compile)
	triangle(c)
	c.EndList()

	first := h.dev()
	first.Lose()
	triangle(c)
	c.Flush()
	checkNoError(t, c)
	if !first.Destroyed() {
		t.Error("lost device was not destroyed")
	}

	// Until restored, nothing is drawn and nothing fails.
	triangle(c)
	c.CallList(list)
	c.Flush()
	checkNoError(t, c)

	if err := c.DeviceRestored(); err != nil {
		t.Fatalf("DeviceRestored: %v", err)
	}
	second := h.dev()
	if second == first {
		t.Fatal("DeviceRestored did not create a new device")
	}

	triangle(c)
	c.Flush()
	c.CallList(list)
	checkNoError(t, c)
	if len(second.Draws) != 2 {
		t.Errorf("restored device drew %d batches, want 2", len(second.Draws))
	}
	if second.Compiles != 1 {
		t.Errorf("restored device compiled %d programs, want 1", second.Compiles)
	}
}

func TestContextsShareOneDevice(t *testing.T) {
	h := newHarness()
	a, err := NewContext(h.shared)
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}
	b, err := NewContext(h.shared)
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}
	if len(h.devs) != 1 {
		t.Fatalf("created %d devices, want 1", len(h.devs))
	}

	triangle(a)
	triangle(b)
	a.Flush()
	b.Flush()
	if len(h.dev().Draws) != 2 {
		t.Errorf("shared device drew %d batches, want 2", len(h.dev().Draws))
	}

	if err := a.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if h.dev().Destroyed() {
		t.Error("device destroyed while a context still uses it")
	}
	if err := b.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !h.dev().Destroyed() {
		t.Error("device not destroyed with the last context")
	}
	if err := b.Close(); err != ErrClosed {
		t.Errorf("second Close = %v, want ErrClosed", err)
	}
}

func TestCloseDrawsPendingVertices(t *testing.T) {
	h := newHarness()
	c, err := NewContext(h.shared)
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}
	triangle(c)
	c.Begin(Triangles)
	c.Vertex2(0, 0)
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if len(h.dev().Draws) != 1 || h.dev().Draws[0].Call.Count != 3 {
		t.Errorf("Close drew %d batches, want the closed triangle only", len(h.dev().Draws))
	}
}

func TestErrorCodeString(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want string
	}{
		{NoError, "NoError"},
		{InvalidEnum, "InvalidEnum"},
		{StackOverflow, "StackOverflow"},
		{ErrorCode(0x0600), "ErrorCode(0x0600)"},
	}
	for _, tt := range tests {
		if got := tt.code.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", uint32(tt.code), got, tt.want)
		}
	}
	if got := QuadStrip.String(); got != "QuadStrip" {
		t.Errorf("QuadStrip.String() = %q", got)
	}
	if got := Mode(0x20).String(); got != "Enum(0x0020)" {
		t.Errorf("Mode(0x20).String() = %q", got)
	}
}
