package app

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"
)

// Profiler collects CPU timings of named frame stages and per-frame counters.
// Stages are reported in the order they were first seen.
type Profiler struct {
	Scopes map[string]time.Duration
	Counts map[string]int
	Order  []string
	Frames int

	started map[string]time.Time
}

func NewProfiler() *Profiler {
	return &Profiler{
		Scopes:  make(map[string]time.Duration),
		Counts:  make(map[string]int),
		started: make(map[string]time.Time),
	}
}

func (p *Profiler) BeginScope(name string) {
	p.started[name] = time.Now()
	if !slices.Contains(p.Order, name) {
		p.Order = append(p.Order, name)
	}
}

func (p *Profiler) EndScope(name string) {
	if start, ok := p.started[name]; ok {
		p.Scopes[name] = time.Since(start)
		delete(p.started, name)
	}
}

// Scope starts a timer and returns the func that stops it.
func (p *Profiler) Scope(name string) func() {
	p.BeginScope(name)
	return func() { p.EndScope(name) }
}

func (p *Profiler) SetCount(name string, count int) {
	p.Counts[name] = count
}

// Reset zeroes the timings of the previous frame. Order and counters stay.
func (p *Profiler) Reset() {
	for k := range p.Scopes {
		p.Scopes[k] = 0
	}
	clear(p.started)
}

// String renders the last frame's timings followed by the counters sorted
// by name.
func (p *Profiler) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Timings (CPU, frame %d):\n", p.Frames)
	for _, name := range p.Order {
		ms := float64(p.Scopes[name].Microseconds()) / 1000.0
		fmt.Fprintf(&sb, "  %-15s: %.2f ms\n", name, ms)
	}
	sb.WriteString("\nStats:\n")
	for _, k := range slices.Sorted(maps.Keys(p.Counts)) {
		fmt.Fprintf(&sb, "  %-15s: %d\n", k, p.Counts[k])
	}
	return sb.String()
}
