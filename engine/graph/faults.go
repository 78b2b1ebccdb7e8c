package graph

import (
	"context"
	"fmt"
	"time"
)

// Stages a Fault can come from.
const (
	StageProcess = "process"
	StageTempo   = "tempo"
	StageTiming  = "timing"
)

// Fault records a panic raised by module code on the audio thread.
type Fault struct {
	Module     LogicalID
	Type       string
	Stage      string
	Value      any
	Block      uint64
	Generation uint64
}

// Error implements error.
func (f Fault) Error() string {
	return fmt.Sprintf("graph: module %s (%s) panicked in %s, block %d: %v", f.Module, f.Type, f.Stage, f.Block, f.Value)
}

// recordFault runs on the audio thread; a full ring drops the fault but it
// is still counted.
func (p *Processor) recordFault(f Fault) {
	p.faultTotal.Add(1)
	p.faults.Push(f)
}

// FaultCount returns how many module faults occurred, including ones
// dropped because nobody drained them in time.
func (p *Processor) FaultCount() uint64 { return p.faultTotal.Load() }

// DrainFaults removes and returns the buffered faults.
func (p *Processor) DrainFaults() []Fault {
	p.drainMu.Lock()
	defer p.drainMu.Unlock()

	var out []Fault

	for {
		f, ok := p.faults.Pop()
		if !ok {
			return out
		}

		out = append(out, f)
	}
}

// RunMaintenance drains faults every interval and logs them, at most once
// per second per module, until ctx is done.
func (p *Processor) RunMaintenance(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.reportFaults(time.Now())
			return ctx.Err()
		case now := <-ticker.C:
			p.reportFaults(now)
		}
	}
}

func (p *Processor) reportFaults(now time.Time) {
	for _, f := range p.DrainFaults() {
		ok, suppressed := p.limiter.Allow(f.Module.String(), now)
		if !ok {
			continue
		}

		p.logger.Error("module fault, output silenced for block",
			"module", f.Module, "type", f.Type, "stage", f.Stage, "block", f.Block,
			"panic", fmt.Sprint(f.Value), "suppressed", suppressed)
	}

	if dropped := p.faults.Dropped(); dropped > p.reportedDrops {
		if ok, _ := p.limiter.Allow("fault-ring", now); ok {
			p.logger.Warn("fault ring overflowed", "dropped", dropped-p.reportedDrops)
			p.reportedDrops = dropped
		}
	}
}
