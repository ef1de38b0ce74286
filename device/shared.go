package device

import (
	"errors"
	"fmt"
	"sync"
)

// ErrNoDevice is returned when the shared device has been lost and not yet
// recreated.
var ErrNoDevice = errors.New("device: no device")

// Factory creates a device.
type Factory func() (Device, error)

// Shared is a device shared by every rendering context of a process.
//
// The first Acquire creates the device and the last Release destroys it.
// Each (re)creation bumps the generation, so a context can tell whether the
// device it compiled programs on is still the current one.
type Shared struct {
	mu      sync.Mutex
	factory Factory
	dev     Device
	refs    int
	gen     uint64
}

// NewShared returns a Shared that creates devices with factory.
func NewShared(factory Factory) *Shared {
	return &Shared{factory: factory}
}

// Acquire registers a context and returns the current device and its
// generation, creating the device if this is the first reference.
func (s *Shared) Acquire() (Device, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dev == nil {
		if err := s.createLocked(); err != nil {
			return nil, 0, err
		}
	}
	s.refs++
	return s.dev, s.gen, nil
}

// Release drops a context reference. The device is destroyed when the last
// reference goes away.
func (s *Shared) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.refs == 0 {
		return
	}
	s.refs--
	if s.refs == 0 && s.dev != nil {
		s.dev.Destroy()
		s.dev = nil
	}
}

// Current returns the current device and generation, or ErrNoDevice while
// the device is lost.
func (s *Shared) Current() (Device, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dev == nil {
		return nil, s.gen, ErrNoDevice
	}
	return s.dev, s.gen, nil
}

// Lost destroys the device of generation gen. Calls naming an older
// generation are ignored, so only the first context to observe a loss
// tears the device down.
func (s *Shared) Lost(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen || s.dev == nil {
		return
	}
	s.dev.Destroy()
	s.dev = nil
}

// Restore recreates the device if it was lost and returns the current
// device and generation.
func (s *Shared) Restore() (Device, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dev == nil {
		if err := s.createLocked(); err != nil {
			return nil, s.gen, err
		}
	}
	return s.dev, s.gen, nil
}

// Refs returns the number of registered contexts.
func (s *Shared) Refs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refs
}

func (s *Shared) createLocked() error {
	if s.factory == nil {
		return fmt.Errorf("device: create: %w", ErrNoDevice)
	}
	dev, err := s.factory()
	if err != nil {
		return fmt.Errorf("device: create: %w", err)
	}
	s.dev = dev
	s.gen++
	return nil
}
