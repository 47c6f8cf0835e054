package searcher

import (
	"sync/atomic"
	"time"
)

// SearchMetric summarizes one completed search.
type SearchMetric struct {
	Goroutines   int
	Cutoff       int
	Duration     time.Duration
	Iterations   int
	FullPlayouts int // rollouts that reached a terminal state before the cutoff
	TreeReused   bool
}

type Collector interface {
	Start(goroutines, cutoff int)
	SetTreeReuse(reused bool)
	AddIteration()
	AddFullPlayout()
	Complete() SearchMetric
}

type collector struct {
	goroutines   int
	cutoff       int
	startTime    time.Time
	iterations   atomic.Int64
	fullPlayouts atomic.Int64
	treeReused   atomic.Bool
}

func NewCollector() Collector {
	return &collector{}
}

func (c *collector) Start(goroutines, cutoff int) {
	c.startTime = time.Now()
	c.goroutines = goroutines
	c.cutoff = cutoff
	c.iterations.Store(0)
	c.fullPlayouts.Store(0)
}

func (c *collector) SetTreeReuse(reused bool) {
	c.treeReused.Store(reused)
}

func (c *collector) AddIteration() {
	c.iterations.Add(1)
}

func (c *collector) AddFullPlayout() {
	c.fullPlayouts.Add(1)
}

func (c *collector) Complete() SearchMetric {
	return SearchMetric{
		Goroutines:   c.goroutines,
		Cutoff:       c.cutoff,
		Duration:     time.Since(c.startTime),
		Iterations:   int(c.iterations.Load()),
		FullPlayouts: int(c.fullPlayouts.Load()),
		TreeReused:   c.treeReused.Load(),
	}
}

type nopCollector struct{}

func NewNopCollector() Collector {
	return nopCollector{}
}

func (nopCollector) Start(goroutines, cutoff int) {}
func (nopCollector) SetTreeReuse(reused bool)     {}
func (nopCollector) AddIteration()                {}
func (nopCollector) AddFullPlayout()              {}
func (nopCollector) Complete() SearchMetric       { return SearchMetric{} }
