/*
scheduler.go - Periodic distress rescoring

PURPOSE:
  Lien data changes as counties publish new liens and release paid ones.
  The scheduler reruns the distress batch on an interval so stored scores
  track the lien table without an operator triggering it.

DESIGN:
  - Runs a background goroutine with configurable interval
  - Runs once immediately on start
  - Each run is recorded in distress_runs like a manual run
  - RunNow triggers an out-of-band run and waits for it

CONFIGURATION:
  - Interval: How often to rescore (default: 24 hours)
  - County: Restrict to one county (default: all)
  - Enabled: Whether scheduler is active (default: true)

USAGE:
  scheduler := NewDistressScheduler(handler)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: TriggerDistressRun endpoint (manual run)
  - distress/runner.go: Batch scoring
*/
package api

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/dealforge/deal-engine/distress"
)

// DistressScheduler reruns the distress batch periodically.
type DistressScheduler struct {
	Handler  *Handler
	Interval time.Duration
	County   string
	Enabled  bool

	ticker  *time.Ticker
	stop    chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	running sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewDistressScheduler creates a new scheduler.
func NewDistressScheduler(handler *Handler) *DistressScheduler {
	return &DistressScheduler{
		Handler:  handler,
		Interval: 24 * time.Hour,
		Enabled:  true,
	}
}

// Start begins the scheduler.
func (ds *DistressScheduler) Start() {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	if !ds.Enabled || ds.Interval <= 0 {
		log.Println("[Scheduler] Disabled, not starting")
		return
	}
	if ds.ticker != nil {
		return
	}

	ds.ctx, ds.cancel = context.WithCancel(context.Background())
	ds.stop = make(chan struct{})
	ds.ticker = time.NewTicker(ds.Interval)
	ds.wg.Add(1)

	go ds.run()

	log.Printf("[Scheduler] Started with rescore interval: %v", ds.Interval)
}

// Stop stops the scheduler and waits for an in-flight run to finish or
// observe cancellation.
func (ds *DistressScheduler) Stop() {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	if ds.ticker == nil {
		return
	}
	ds.ticker.Stop()
	ds.cancel()
	close(ds.stop)
	ds.wg.Wait()
	ds.ticker = nil
	log.Println("[Scheduler] Stopped")
}

// RunNow runs the batch immediately. Runs never overlap; a caller arriving
// during a scheduled run waits for it and then runs again.
func (ds *DistressScheduler) RunNow(ctx context.Context) (distress.RunSummary, error) {
	ds.running.Lock()
	defer ds.running.Unlock()

	return ds.Handler.RunDistressBatch(ctx, ds.County, false)
}

func (ds *DistressScheduler) run() {
	defer ds.wg.Done()

	ds.tick()

	for {
		select {
		case <-ds.ticker.C:
			ds.tick()
		case <-ds.stop:
			return
		}
	}
}

func (ds *DistressScheduler) tick() {
	log.Printf("[Scheduler] Rescoring parks at %v", time.Now().Format(time.RFC3339))

	summary, err := ds.RunNow(ds.ctx)
	if err != nil {
		log.Printf("[Scheduler] Error rescoring: %v", err)
		return
	}
	if len(summary.Top) > 0 {
		top := summary.Top[0]
		log.Printf("[Scheduler] Most distressed: %s (%s) %.2f", top.Name, top.County, top.Score)
	}
}
