// Package effect caches compiled fixed-function programs by state key.
//
// The cache is append-only: an index handed out by FindOrCreate stays valid
// for the cache's lifetime, across device loss. Keys whose program fails to
// compile share a single fallback entry running the default program until a
// later device compiles them.
package effect

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gogpu/gldirect/device"
	"github.com/gogpu/gldirect/internal/ffstate"
	"github.com/gogpu/gldirect/internal/glog"
	"github.com/gogpu/gldirect/internal/shadergen"
)

// ErrNoProgram is returned when neither the generated program nor the
// default program could be compiled.
var ErrNoProgram = errors.New("effect: no usable program")

// None is the index meaning no effect.
const None = -1

// Effect is a program compiled for one key together with its parameter
// handles.
type Effect struct {
	// Key is the state key the program was generated for. Zero for the
	// default program.
	Key ffstate.Key

	// Source is the generated WGSL.
	Source string

	// Desc is the reflected program description.
	Desc *device.ProgramDesc

	// Program is the compiled program, device.InvalidID until compiled or
	// after device loss.
	Program device.ProgramID

	// Technique is the resolved technique handle.
	Technique device.TechniqueHandle

	// Default marks the fallback entry.
	Default bool

	params [shadergen.NumParams]device.ParamHandle
}

// Param returns the handle of p, or device.InvalidParam if the program does
// not declare it.
func (e *Effect) Param(p shadergen.Param) device.ParamHandle {
	return e.params[p]
}

// Compiled reports whether the effect has a live program.
func (e *Effect) Compiled() bool { return e.Program != device.InvalidID }

// Stats counts cache activity.
type Stats struct {
	Hits     uint64
	Misses   uint64
	Compiles uint64
	Failures uint64
}

type entry struct {
	key ffstate.Key
	idx int

	// failed is the effect that did not compile while idx names the
	// fallback. It is retried once per device. failedIdx is its index, or
	// None if it was never added.
	failed    *Effect
	failedIdx int
	failedGen uint64
}

// Cache maps state keys to effects. It is not safe for concurrent use.
type Cache struct {
	dev  device.Device
	caps device.Caps

	effects []*Effect
	entries []entry

	current    int
	lastBound  int
	defaultIdx int

	// gen counts the devices the cache has been given.
	gen uint64

	stats Stats
}

// New creates an empty cache compiling on dev. dev may be nil until
// SetDevice is called.
func New(dev device.Device) *Cache {
	c := &Cache{
		current:    None,
		lastBound:  None,
		defaultIdx: None,
	}
	c.SetDevice(dev)
	return c
}

// SetDevice switches the cache to dev. Programs are recompiled lazily on
// their next lookup.
func (c *Cache) SetDevice(dev device.Device) {
	c.dev = dev
	if dev != nil {
		c.caps = dev.Caps()
		c.gen++
	}
}

// Caps returns the capabilities of the current device.
func (c *Cache) Caps() device.Caps { return c.caps }

// Len returns the number of effects.
func (c *Cache) Len() int { return len(c.effects) }

// Effect returns the effect at index i.
func (c *Cache) Effect(i int) *Effect { return c.effects[i] }

// Current returns the index selected by the last FindOrCreate, or None.
func (c *Cache) Current() int { return c.current }

// LastBound returns the index whose parameters were last pushed to the
// device, or None.
func (c *Cache) LastBound() int { return c.lastBound }

// SetLastBound records that effect i was bound.
func (c *Cache) SetLastBound(i int) { c.lastBound = i }

// DefaultIndex returns the index of the fallback entry, or None if no key
// has needed it yet.
func (c *Cache) DefaultIndex() int { return c.defaultIdx }

// Stats returns the activity counters.
func (c *Cache) Stats() Stats { return c.stats }

// FindOrCreate returns the index of the effect for k, generating and
// compiling it on first use. A key whose program fails to compile resolves
// to the default program; the failure is logged, not returned.
func (c *Cache) FindOrCreate(k ffstate.Key) (int, error) {
	if c.dev == nil {
		return None, device.ErrDeviceLost
	}

	for i := range c.entries {
		en := &c.entries[i]
		if en.key != k {
			continue
		}
		c.stats.Hits++
		idx, err := c.ensureCompiled(en)
		if err != nil {
			return None, err
		}
		c.current = idx
		return idx, nil
	}

	c.stats.Misses++
	prog := shadergen.Generate(k)
	src := shadergen.Render(prog)
	e := &Effect{
		Key:    k,
		Source: src,
		Desc:   prog.Desc(k.Label(), src, c.caps.MaxShaderModel),
	}

	en := entry{key: k}
	if err := c.compile(e); err != nil {
		c.logFailure(k, err)
		idx, derr := c.defaultEffect()
		if derr != nil {
			return None, derr
		}
		en.idx = idx
		en.failed, en.failedIdx, en.failedGen = e, None, c.gen
	} else {
		c.effects = append(c.effects, e)
		en.idx = len(c.effects) - 1
	}
	c.entries = append(c.entries, en)
	c.current = en.idx
	return en.idx, nil
}

// ensureCompiled recompiles an entry's effect after device loss. A key
// that fell back to the default program is retried on a new device.
func (c *Cache) ensureCompiled(en *entry) (int, error) {
	if en.failed != nil && en.failedGen != c.gen {
		if idx, ok := c.retry(en); ok {
			return idx, nil
		}
	}
	e := c.effects[en.idx]
	if e.Compiled() {
		return en.idx, nil
	}
	if e.Default {
		return c.defaultEffect()
	}
	e.Desc.ShaderModel = c.caps.MaxShaderModel
	if err := c.compile(e); err != nil {
		c.logFailure(en.key, err)
		idx, derr := c.defaultEffect()
		if derr != nil {
			return None, derr
		}
		en.failed, en.failedIdx, en.failedGen = e, en.idx, c.gen
		en.idx = idx
	}
	return en.idx, nil
}

// retry compiles the effect that failed for en. On success en moves off
// the fallback, to a new index unless the effect already had one.
func (c *Cache) retry(en *entry) (int, bool) {
	e := en.failed
	en.failedGen = c.gen
	e.Desc.ShaderModel = c.caps.MaxShaderModel
	if err := c.compile(e); err != nil {
		c.logFailure(en.key, err)
		return None, false
	}
	if en.failedIdx == None {
		c.effects = append(c.effects, e)
		en.failedIdx = len(c.effects) - 1
	}
	en.idx = en.failedIdx
	en.failed = nil
	glog.L().Info("effect: program compiled on retry", slog.String("label", e.Desc.Label))
	return en.idx, true
}

// defaultEffect returns the fallback entry, registering and compiling it
// when needed.
func (c *Cache) defaultEffect() (int, error) {
	if c.defaultIdx == None {
		prog := shadergen.Default()
		src := shadergen.Render(prog)
		c.effects = append(c.effects, &Effect{
			Source:  src,
			Desc:    prog.Desc(shadergen.DefaultLabel, src, c.caps.MaxShaderModel),
			Default: true,
		})
		c.defaultIdx = len(c.effects) - 1
	}

	e := c.effects[c.defaultIdx]
	if !e.Compiled() {
		e.Desc.ShaderModel = c.caps.MaxShaderModel
		if err := c.compile(e); err != nil {
			return None, fmt.Errorf("%w: default program: %w", ErrNoProgram, err)
		}
	}
	return c.defaultIdx, nil
}

// compile compiles e and resolves its technique and every declared
// parameter. On failure e is left uncompiled.
func (c *Cache) compile(e *Effect) error {
	c.stats.Compiles++
	id, err := c.dev.CompileProgram(e.Desc)
	if err != nil {
		c.stats.Failures++
		return err
	}

	tech, err := c.dev.ResolveTechnique(id, e.Desc.Technique)
	if err != nil {
		c.dev.DestroyProgram(id)
		c.stats.Failures++
		return fmt.Errorf("effect: resolve technique: %w", err)
	}

	for i := range e.params {
		e.params[i] = device.InvalidParam
	}
	for _, pd := range e.Desc.Params {
		p, ok := shadergen.Lookup(pd.Name)
		if !ok {
			continue
		}
		h, err := c.dev.ResolveParameter(id, pd.Name)
		if err != nil {
			c.dev.DestroyProgram(id)
			c.stats.Failures++
			return fmt.Errorf("effect: resolve %s: %w", pd.Name, err)
		}
		e.params[p] = h
	}

	e.Program = id
	e.Technique = tech
	glog.L().Debug("effect: compiled",
		slog.String("label", e.Desc.Label),
		slog.Int("params", len(e.Desc.Params)))
	return nil
}

func (c *Cache) logFailure(k ffstate.Key, err error) {
	attrs := []any{
		slog.String("key", fmt.Sprintf("%016x", k.Hash())),
		slog.String("error", err.Error()),
	}
	var ce *device.CompileError
	if errors.As(err, &ce) {
		attrs = append(attrs, slog.String("log", ce.Log))
	}
	glog.L().Warn("effect: program failed to compile, using default", attrs...)
}

// Invalidate forgets every compiled program after device loss. Keys,
// sources and indices are kept.
func (c *Cache) Invalidate() {
	for _, e := range c.effects {
		e.Program = device.InvalidID
		e.Technique = device.InvalidTechnique
	}
	c.dev = nil
	c.current = None
	c.lastBound = None
}

// Release destroys every compiled program. The cache keeps its entries
// and recompiles on the next lookup if a device is set again.
func (c *Cache) Release() {
	for _, e := range c.effects {
		if e.Compiled() && c.dev != nil {
			c.dev.DestroyProgram(e.Program)
		}
		e.Program = device.InvalidID
		e.Technique = device.InvalidTechnique
	}
	c.current = None
	c.lastBound = None
}
