package querycache

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-hclog"
	"github.com/robfig/cron/v3"
)

// Janitor periodically drops expired entries from a Store.
type Janitor struct {
	cron   *cron.Cron
	store  Store
	logger hclog.Logger
}

// NewJanitor schedules sweeps with a standard cron spec or a descriptor such
// as "@every 1m".
func NewJanitor(store Store, schedule string, logger hclog.Logger) (*Janitor, error) {
	j := &Janitor{
		cron:   cron.New(),
		store:  store,
		logger: logger.Named("janitor"),
	}
	if _, err := j.cron.AddFunc(schedule, j.sweep); err != nil {
		return nil, fmt.Errorf("schedule cache sweep %q: %w", schedule, err)
	}
	return j, nil
}

func (j *Janitor) Start() {
	j.cron.Start()
	j.logger.Info("cache janitor started")
}

// Stop waits for a running sweep to finish.
func (j *Janitor) Stop() {
	<-j.cron.Stop().Done()
	j.logger.Info("cache janitor stopped")
}

func (j *Janitor) sweep() {
	n, err := j.store.Sweep(context.Background())
	if err != nil {
		j.logger.Error("cache sweep failed", "error", err)
		return
	}
	if n > 0 {
		j.logger.Debug("swept expired entries", "count", n)
	}
}
