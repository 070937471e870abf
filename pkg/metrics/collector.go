package metrics

import "time"

// sizer is satisfied by *worldstate.WorldState; declared locally to avoid a
// direct dependency from pkg/metrics onto pkg/worldstate.
type sizer interface {
	RelationSizes() map[string]int
}

// Collector periodically samples relation sizes into the RelationSize
// gauge via a ticker-driven Start/Stop loop.
type Collector struct {
	ws     sizer
	stopCh chan struct{}
}

// NewCollector creates a new metrics collector over ws.
func NewCollector(ws sizer) *Collector {
	return &Collector{
		ws:     ws,
		stopCh: make(chan struct{}),
	}
}

// Start begins collecting metrics every 15 seconds.
func (c *Collector) Start() {
	ticker := time.NewTicker(15 * time.Second)
	go func() {
		c.collect()
		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop stops the collector.
func (c *Collector) Stop() {
	close(c.stopCh)
}

func (c *Collector) collect() {
	for name, size := range c.ws.RelationSizes() {
		RelationSize.WithLabelValues(name).Set(float64(size))
	}
}
