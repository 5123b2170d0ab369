package sweep

import (
	"fmt"
	"log"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sarchlab/cachesim/timing/cache"
	"github.com/sarchlab/cachesim/trace"
)

// Outcome pairs a point with the result of running it.
type Outcome struct {
	Point  Point
	Result cache.Result
}

// Sink receives outcomes in plan order once the whole sweep has finished.
type Sink interface {
	Record(outcome Outcome) error
}

// MismatchError reports a set-associative point whose hit count differs from
// the directory reference engine.
type MismatchError struct {
	Point     Point
	Result    cache.Result
	Reference cache.Result
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("%s: %d hits, reference directory has %d",
		e.Point.Label(), e.Result.Hits, e.Reference.Hits)
}

// DriverConfig configures a Driver.
type DriverConfig struct {
	// Workers bounds the number of points simulated at once. Zero means
	// runtime.NumCPU().
	Workers int

	// Verify re-runs every set-associative point on the Akita directory
	// engine and fails the sweep if the hit counts differ.
	Verify bool

	// Logger receives one line per finished point. Nil disables logging.
	Logger *log.Logger

	// Sink, if set, is fed every outcome in plan order.
	Sink Sink
}

// Driver runs sweep points as independent tasks over one shared trace.
type Driver struct {
	config DriverConfig

	// newReference builds the engine a set-associative point is checked
	// against when verifying.
	newReference func(p Point) (cache.Engine, error)
}

// NewDriver creates a new driver.
func NewDriver(config DriverConfig) *Driver {
	if config.Workers <= 0 {
		config.Workers = runtime.NumCPU()
	}
	return &Driver{config: config, newReference: newDirectoryReference}
}

func newDirectoryReference(p Point) (cache.Engine, error) {
	return cache.NewDirectory(p.Geometry, p.Policy)
}

// Workers returns the task limit in effect.
func (d *Driver) Workers() int {
	return d.config.Workers
}

type task struct {
	engine    cache.Engine
	reference cache.Engine
}

// Run simulates every point of the plan over the trace and returns the
// outcomes in plan order. The trace must not be modified while Run is in
// progress. Engines are built before any task starts, so a bad geometry fails
// the sweep without simulating anything.
func (d *Driver) Run(t *trace.Trace, plan []Point) ([]Outcome, error) {
	tasks, err := d.prepare(plan)
	if err != nil {
		return nil, err
	}

	outcomes := make([]Outcome, len(plan))

	var g errgroup.Group
	g.SetLimit(d.config.Workers)

	for i := range plan {
		g.Go(func() error {
			start := time.Now()

			result := cache.Run(tasks[i].engine, t)

			if tasks[i].reference != nil {
				ref := cache.Run(tasks[i].reference, t)
				if ref != result {
					return &MismatchError{Point: plan[i], Result: result, Reference: ref}
				}
			}

			outcomes[i] = Outcome{Point: plan[i], Result: result}
			d.logf("%s: %d/%d hits (%.2f%%) in %v",
				plan[i].Label(), result.Hits, result.Accesses,
				100*result.HitRate(), time.Since(start).Round(time.Millisecond))

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if d.config.Sink != nil {
		for _, o := range outcomes {
			if err := d.config.Sink.Record(o); err != nil {
				return nil, fmt.Errorf("failed to record %s: %w", o.Point.Label(), err)
			}
		}
	}

	return outcomes, nil
}

func (d *Driver) prepare(plan []Point) ([]task, error) {
	tasks := make([]task, len(plan))

	for i, p := range plan {
		engine, err := p.NewEngine()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p.Label(), err)
		}
		tasks[i].engine = engine

		if d.config.Verify && p.Engine == EngineSetAssociative {
			ref, err := d.newReference(p)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", p.Label(), err)
			}
			tasks[i].reference = ref
		}
	}

	return tasks, nil
}

func (d *Driver) logf(format string, args ...any) {
	if d.config.Logger != nil {
		d.config.Logger.Printf(format, args...)
	}
}
