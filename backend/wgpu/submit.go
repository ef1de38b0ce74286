package wgpu

import (
	"fmt"
	"sync"
	"time"

	"github.com/gogpu/gldirect/device"
	"github.com/gogpu/wgpu/hal"
)

// submissions tracks command buffers the GPU may still be executing and the
// objects released while they were in flight.
type submissions struct {
	mu       sync.Mutex
	inflight []inflight
	retired  []retired
	last     uint64
}

type inflight struct {
	index uint64
	cmd   hal.CommandBuffer
	at    time.Time
}

type retired struct {
	after   uint64
	release func()
}

// submit encodes with record and hands the commands to the queue without
// waiting for them. Completed submissions are reclaimed first, and one that
// has been outstanding longer than Config.SubmitTimeout loses the device.
func (d *Device) submit(label string, record func(hal.CommandEncoder)) error {
	d.sub.mu.Lock()
	defer d.sub.mu.Unlock()
	if err := d.reclaimLocked(); err != nil {
		return err
	}

	encoder, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: label})
	if err != nil {
		return fmt.Errorf("wgpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding(label); err != nil {
		return fmt.Errorf("wgpu: begin encoding: %w", err)
	}
	record(encoder)
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("wgpu: end encoding: %w", err)
	}

	index, err := d.queue.Submit([]hal.CommandBuffer{cmdBuf})
	if err != nil {
		d.device.FreeCommandBuffer(cmdBuf)
		return fmt.Errorf("wgpu: submit: %w", err)
	}
	d.sub.inflight = append(d.sub.inflight, inflight{index: index, cmd: cmdBuf, at: d.now()})
	d.sub.last = index
	return nil
}

// reclaimLocked frees command buffers and releases retired objects whose
// submissions have completed.
func (d *Device) reclaimLocked() error {
	done := d.queue.PollCompleted()

	n := 0
	for _, f := range d.sub.inflight {
		if f.index <= done {
			d.device.FreeCommandBuffer(f.cmd)
			continue
		}
		d.sub.inflight[n] = f
		n++
	}
	clear(d.sub.inflight[n:])
	d.sub.inflight = d.sub.inflight[:n]

	n = 0
	for _, r := range d.sub.retired {
		if r.after <= done {
			r.release()
			continue
		}
		d.sub.retired[n] = r
		n++
	}
	clear(d.sub.retired[n:])
	d.sub.retired = d.sub.retired[:n]

	if len(d.sub.inflight) > 0 {
		oldest := d.sub.inflight[0]
		if age := d.now().Sub(oldest.at); age > d.cfg.SubmitTimeout {
			d.lose("submission timeout")
			return fmt.Errorf("%w: submission %d incomplete after %v", device.ErrDeviceLost, oldest.index, age)
		}
	}
	return nil
}

// retire calls release once everything submitted so far has completed.
func (d *Device) retire(release func()) {
	d.sub.mu.Lock()
	defer d.sub.mu.Unlock()
	if len(d.sub.inflight) == 0 {
		release()
		return
	}
	d.sub.retired = append(d.sub.retired, retired{after: d.sub.last, release: release})
}

// pending reports the submissions not yet known to be complete.
func (d *Device) pending() int {
	d.sub.mu.Lock()
	defer d.sub.mu.Unlock()
	return len(d.sub.inflight)
}

// drain frees every tracked command buffer and releases every retired
// object. The caller has waited for the GPU or given up on it.
func (d *Device) drain() {
	d.sub.mu.Lock()
	defer d.sub.mu.Unlock()
	for _, f := range d.sub.inflight {
		d.device.FreeCommandBuffer(f.cmd)
	}
	for _, r := range d.sub.retired {
		r.release()
	}
	d.sub.inflight, d.sub.retired = nil, nil
}
