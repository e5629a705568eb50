package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/skalola/3kathletez/internal"
)

// DecayTicker drives the engine's passive decay on a fixed period.
type DecayTicker struct {
	engine   *Engine
	cron     *cron.Cron
	interval time.Duration
	logger   internal.Logger
}

func NewDecayTicker(engine *Engine, interval time.Duration, logger internal.Logger) *DecayTicker {
	return &DecayTicker{
		engine:   engine,
		cron:     cron.New(),
		interval: interval,
		logger:   logger,
	}
}

func (t *DecayTicker) Start() error {
	expr := fmt.Sprintf("@every %s", t.interval.String())
	_, err := t.cron.AddFunc(expr, func() {
		t.engine.Tick(context.Background())
	})
	if err != nil {
		return fmt.Errorf("failed to add decay job: %w", err)
	}
	t.cron.Start()
	t.logger.Infof("decay ticker started with interval %s", t.interval)
	return nil
}

func (t *DecayTicker) Stop() {
	ctx := t.cron.Stop()
	<-ctx.Done()
	t.logger.Info("decay ticker stopped")
}
