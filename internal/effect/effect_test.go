package effect

import (
	"errors"
	"strings"
	"testing"

	"github.com/gogpu/gldirect/device"
	"github.com/gogpu/gldirect/internal/fakedevice"
	"github.com/gogpu/gldirect/internal/ffstate"
	"github.com/gogpu/gldirect/internal/shadergen"
)

func objectLinearKey() ffstate.Key {
	var k ffstate.Key
	k.Units[0].Enabled = true
	k.Units[0].TexGen[ffstate.CoordS] = ffstate.TexGenObjectLinear
	return k
}

func TestFindOrCreateIdempotent(t *testing.T) {
	dev := fakedevice.New(fakedevice.DefaultCaps())
	c := New(dev)

	k := objectLinearKey()
	i1, err := c.FindOrCreate(k)
	if err != nil {
		t.Fatalf("FindOrCreate: %v", err)
	}
	i2, err := c.FindOrCreate(k)
	if err != nil {
		t.Fatalf("FindOrCreate: %v", err)
	}

	if i1 != i2 {
		t.Errorf("indices differ: %d, %d", i1, i2)
	}
	if dev.Compiles != 1 {
		t.Errorf("compiled %d times, want 1", dev.Compiles)
	}
	if s := c.Stats(); s.Hits != 1 || s.Misses != 1 {
		t.Errorf("stats = %+v, want 1 hit 1 miss", s)
	}
	if c.Current() != i1 {
		t.Errorf("Current() = %d, want %d", c.Current(), i1)
	}
}

func TestFindOrCreateResolvesParameters(t *testing.T) {
	dev := fakedevice.New(fakedevice.DefaultCaps())
	c := New(dev)

	idx, err := c.FindOrCreate(objectLinearKey())
	if err != nil {
		t.Fatalf("FindOrCreate: %v", err)
	}
	e := c.Effect(idx)
	if !e.Compiled() || e.Default {
		t.Fatalf("effect = %+v", e)
	}

	for _, p := range []shadergen.Param{
		shadergen.ParamMVP,
		shadergen.UnitParam(0, shadergen.UnitTexture),
		shadergen.UnitParam(0, shadergen.UnitMatrix),
		shadergen.PlaneParam(0, ffstate.TexGenObjectLinear, ffstate.CoordS),
	} {
		if !e.Param(p).Valid() {
			t.Errorf("%s not resolved", p)
		}
	}
	for _, p := range []shadergen.Param{shadergen.ParamFogColor, shadergen.ParamNormalMatrix} {
		if e.Param(p).Valid() {
			t.Errorf("%s resolved but not declared", p)
		}
	}
}

func TestCompileFailureInstallsDefault(t *testing.T) {
	dev := fakedevice.New(fakedevice.DefaultCaps())
	dev.FailCompile = "texgen_object_linear"
	c := New(dev)

	bad, err := c.FindOrCreate(objectLinearKey())
	if err != nil {
		t.Fatalf("FindOrCreate on failing key: %v", err)
	}
	if bad != c.DefaultIndex() || !c.Effect(bad).Default {
		t.Fatalf("failing key resolved to %d, want default %d", bad, c.DefaultIndex())
	}
	if c.Current() != bad {
		t.Errorf("Current() = %d, want default", c.Current())
	}
	if !strings.Contains(c.Effect(bad).Source, "fn vs_main(") {
		t.Error("default entry has no source")
	}

	good, err := c.FindOrCreate(ffstate.Key{FogEnabled: true})
	if err != nil {
		t.Fatalf("FindOrCreate on good key: %v", err)
	}
	if good == bad || c.Effect(good).Default || !c.Effect(good).Compiled() {
		t.Errorf("good key resolved to %d (default %d)", good, bad)
	}
	if c.Current() != good {
		t.Errorf("Current() = %d, want %d", c.Current(), good)
	}

	// The failing key stays mapped to the default without recompiling.
	again, _ := c.FindOrCreate(objectLinearKey())
	if again != bad {
		t.Errorf("failing key remapped to %d", again)
	}
	if dev.FailedCompiles != 1 {
		t.Errorf("FailedCompiles = %d, want 1", dev.FailedCompiles)
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2 (default + good)", c.Len())
	}
}

func TestFailedKeyRetriedOnNewDevice(t *testing.T) {
	dev := fakedevice.New(fakedevice.DefaultCaps())
	dev.FailCompile = "texgen_object_linear"
	c := New(dev)
	k := objectLinearKey()

	bad, err := c.FindOrCreate(k)
	if err != nil {
		t.Fatalf("FindOrCreate on failing key: %v", err)
	}
	if bad != c.DefaultIndex() {
		t.Fatalf("failing key resolved to %d, want default %d", bad, c.DefaultIndex())
	}

	dev.Lose()
	c.Invalidate()
	dev2 := fakedevice.New(fakedevice.DefaultCaps())
	c.SetDevice(dev2)

	idx, err := c.FindOrCreate(k)
	if err != nil {
		t.Fatalf("FindOrCreate on the new device: %v", err)
	}
	if idx == bad || c.Effect(idx).Default || !c.Effect(idx).Compiled() {
		t.Fatalf("key still on the fallback after a device that compiles it: %d", idx)
	}
	if c.Effect(idx).Key != k {
		t.Errorf("effect %d has the wrong key", idx)
	}
	if !c.Effect(bad).Default {
		t.Error("fallback index no longer names the default program")
	}

	// A device that rejects the program again puts the key back on the
	// fallback, and the next device that accepts it reuses the same index.
	dev2.Lose()
	c.Invalidate()
	dev3 := fakedevice.New(fakedevice.DefaultCaps())
	dev3.FailCompile = "texgen_object_linear"
	c.SetDevice(dev3)
	if got, _ := c.FindOrCreate(k); got != c.DefaultIndex() {
		t.Errorf("rejected key resolved to %d, want default", got)
	}
	if got, _ := c.FindOrCreate(k); got != c.DefaultIndex() || dev3.FailedCompiles != 1 {
		t.Errorf("same device retried: index %d, failed compiles %d", got, dev3.FailedCompiles)
	}

	n := c.Len()
	dev3.Lose()
	c.Invalidate()
	c.SetDevice(fakedevice.New(fakedevice.DefaultCaps()))
	if got, _ := c.FindOrCreate(k); got != idx {
		t.Errorf("recovered key resolved to %d, want %d", got, idx)
	}
	if c.Len() != n {
		t.Errorf("Len() = %d, want %d", c.Len(), n)
	}
}

func TestDefaultFailureIsAnError(t *testing.T) {
	dev := fakedevice.New(fakedevice.DefaultCaps())
	dev.FailCompile = "fn vs_main"
	c := New(dev)

	if _, err := c.FindOrCreate(ffstate.Key{}); !errors.Is(err, ErrNoProgram) {
		t.Errorf("err = %v, want ErrNoProgram", err)
	}
}

func TestInvalidateRecompilesLazily(t *testing.T) {
	dev := fakedevice.New(fakedevice.DefaultCaps())
	c := New(dev)

	k := objectLinearKey()
	idx, _ := c.FindOrCreate(k)
	src := c.Effect(idx).Source

	dev.Lose()
	c.Invalidate()
	if c.Effect(idx).Compiled() {
		t.Fatal("program survived invalidation")
	}
	if _, err := c.FindOrCreate(k); !errors.Is(err, device.ErrDeviceLost) {
		t.Errorf("lookup without device: err = %v", err)
	}

	dev2 := fakedevice.New(fakedevice.DefaultCaps())
	c.SetDevice(dev2)
	if dev2.Compiles != 0 {
		t.Fatal("SetDevice compiled eagerly")
	}

	again, err := c.FindOrCreate(k)
	if err != nil {
		t.Fatalf("FindOrCreate after restore: %v", err)
	}
	if again != idx {
		t.Errorf("index changed across device loss: %d -> %d", idx, again)
	}
	if dev2.Compiles != 1 || c.Effect(idx).Source != src {
		t.Errorf("recompile: compiles %d, source changed %v", dev2.Compiles, c.Effect(idx).Source != src)
	}
}

func TestReleaseDestroysPrograms(t *testing.T) {
	dev := fakedevice.New(fakedevice.DefaultCaps())
	c := New(dev)
	_, _ = c.FindOrCreate(ffstate.Key{})
	_, _ = c.FindOrCreate(objectLinearKey())
	if dev.LivePrograms() != 2 {
		t.Fatalf("LivePrograms = %d, want 2", dev.LivePrograms())
	}
	c.Release()
	if dev.LivePrograms() != 0 {
		t.Errorf("LivePrograms after Release = %d", dev.LivePrograms())
	}
	if c.Current() != None || c.LastBound() != None {
		t.Error("Release kept current/lastBound")
	}
}
