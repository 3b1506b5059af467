package scenario

import (
	"context"
	"fmt"
	"sync"

	"github.com/san-kum/mosim/internal/engine"
)

// Sweep varies a single parameter across a linear range and simulates
// each value with its own copy of the base job.
type Sweep struct {
	Base      *engine.Job
	Parameter string
	Min       float64
	Max       float64
	Points    int

	// Workers bounds the number of concurrent simulations. Zero or
	// negative means one at a time.
	Workers int
}

// Values returns the parameter values the sweep will simulate.
func (s *Sweep) Values() []float64 {
	if s.Points <= 1 {
		return []float64{s.Min}
	}
	vals := make([]float64, s.Points)
	step := (s.Max - s.Min) / float64(s.Points-1)
	for i := range vals {
		vals[i] = s.Min + float64(i)*step
	}
	return vals
}

// Point is the outcome of one sweep point. Err carries the point's
// failure even when the engine returned a run whose scraped log was
// clean (timeout, missing log, copy-back failure).
type Point struct {
	Index int
	Value float64
	Run   *engine.Run
	Err   error
}

// Run simulates every sweep point and returns one Point per value, in
// sweep order. Each point gets a distinct result file suffix so output
// files do not collide. The returned error is the first point failure;
// the points themselves are always complete.
func (s *Sweep) Run(ctx context.Context, eng engine.Engine) ([]Point, error) {
	if s.Parameter == "" {
		return nil, fmt.Errorf("sweep: %w: empty parameter name", engine.ErrBadParameter)
	}

	vals := s.Values()
	points := make([]Point, len(vals))

	workers := s.Workers
	if workers < 1 {
		workers = 1
	}
	sem := make(chan struct{}, workers)

	var wg sync.WaitGroup
	for i, val := range vals {
		wg.Add(1)
		go func(idx int, value float64) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			job := s.Base.Clone()
			job.AddParameter(s.Parameter, value)
			job.Settings.ResultFile = fmt.Sprintf("%s_%03d", s.Base.Settings.ResultFile, idx)

			run, err := eng.Simulate(ctx, job)
			points[idx] = Point{Index: idx, Value: value, Run: run, Err: err}
		}(i, val)
	}

	wg.Wait()

	for _, p := range points {
		if p.Err != nil {
			return points, fmt.Errorf("sweep point %d (%s=%g): %w", p.Index, s.Parameter, p.Value, p.Err)
		}
	}

	return points, nil
}
