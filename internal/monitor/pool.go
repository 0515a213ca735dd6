package monitor

import (
	"context"
	"sync"

	"github.com/mr1hm/go-risk-alerts/internal/models"
)

type checkFunc func(ctx context.Context, profile models.AlertProfile)

// checkPool fans monitored-profile checks out across a fixed set of
// workers so one slow upstream call does not stall the whole sweep.
type checkPool struct {
	numWorkers int
	jobs       chan models.AlertProfile
	process    checkFunc
	wg         sync.WaitGroup
}

func newCheckPool(numWorkers, bufferSize int, process checkFunc) *checkPool {
	return &checkPool{
		numWorkers: numWorkers,
		jobs:       make(chan models.AlertProfile, bufferSize),
		process:    process,
	}
}

func (p *checkPool) Start(ctx context.Context) {
	for i := 1; i <= p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(ctx)
	}
}

func (p *checkPool) worker(ctx context.Context) {
	defer p.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case profile, ok := <-p.jobs:
			if !ok {
				return
			}
			p.process(ctx, profile)
		}
	}
}

func (p *checkPool) Submit(profile models.AlertProfile) {
	p.jobs <- profile
}

func (p *checkPool) Stop() {
	close(p.jobs)
	p.wg.Wait()
}
