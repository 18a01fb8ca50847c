// Package runner drives the engine on two schedules: an advice cycle that
// turns fresh news into directives, and a sweep that liquidates expired
// positions. Both run on one goroutine so the engine never sees overlapping
// calls from the scheduler.
package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"news-trader/internal/article"
	"news-trader/internal/engine"
	"news-trader/internal/events"
	"news-trader/internal/monitor"
	"news-trader/internal/order"
	"news-trader/pkg/db"
)

var log = logrus.WithField("component", "runner")

const (
	DefaultAdviceInterval = 5 * time.Minute
	DefaultSweepInterval  = time.Minute
)

type ArticleSource interface {
	Articles(ctx context.Context) []article.Article
}

type Advisor interface {
	Advise(ctx context.Context, articles []article.Article) (order.Directive, bool, error)
}

// DirectiveJournal records every accepted directive.
type DirectiveJournal interface {
	CreateDirective(ctx context.Context, d db.Directive) error
}

type Config struct {
	Engine   engine.Service
	Articles ArticleSource
	Advisor  Advisor
	Journal  DirectiveJournal      // optional
	Bus      *events.Bus           // optional
	Metrics  *monitor.SystemMetrics // optional

	AdviceInterval time.Duration
	SweepInterval  time.Duration
}

type Runner struct {
	cfg Config
	now func() time.Time
}

func New(cfg Config) *Runner {
	if cfg.AdviceInterval <= 0 {
		cfg.AdviceInterval = DefaultAdviceInterval
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = DefaultSweepInterval
	}
	if cfg.Metrics == nil {
		cfg.Metrics = monitor.NewSystemMetrics()
	}
	return &Runner{cfg: cfg, now: time.Now}
}

// Run bootstraps the engine, runs one advice cycle straight away and then
// blocks until ctx is done. A bootstrap failure is returned before any cycle runs.
func (r *Runner) Run(ctx context.Context) error {
	if err := r.cfg.Engine.Bootstrap(ctx); err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	log.WithFields(logrus.Fields{
		"advice_interval": r.cfg.AdviceInterval.String(),
		"sweep_interval":  r.cfg.SweepInterval.String(),
	}).Info("runner started")

	r.AdviceCycle(ctx)

	advice := time.NewTicker(r.cfg.AdviceInterval)
	defer advice.Stop()
	sweep := time.NewTicker(r.cfg.SweepInterval)
	defer sweep.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("runner stopped")
			return nil
		case <-advice.C:
			r.AdviceCycle(ctx)
		case <-sweep.C:
			r.SweepCycle(ctx)
		}
	}
}

// AdviceCycle pulls unseen articles, asks for a directive and executes it.
// It does nothing when no advisor is configured.
func (r *Runner) AdviceCycle(ctx context.Context) {
	if r.cfg.Advisor == nil || r.cfg.Articles == nil {
		return
	}
	m := r.cfg.Metrics
	defer monitor.NewTimer(m.AdviceLatency).Stop()
	m.IncrementAdvice()

	articles := r.cfg.Articles.Articles(ctx)
	m.AddArticles(len(articles))
	if len(articles) == 0 {
		log.Debug("no new articles")
		return
	}

	d, ok, err := r.cfg.Advisor.Advise(ctx, articles)
	if err != nil {
		m.IncrementErrors()
		log.WithError(err).Error("advisor failed")
		return
	}
	if !ok {
		m.IncrementInvalid()
		return
	}
	m.IncrementDirectives()
	r.record(ctx, d, len(articles))
	r.cfg.Bus.Publish(events.EventDirective, d)

	for _, res := range r.cfg.Engine.ExecuteDirective(ctx, d) {
		if res.Failed() {
			m.IncrementErrors()
		}
	}
}

// SweepCycle liquidates expired positions.
func (r *Runner) SweepCycle(ctx context.Context) {
	m := r.cfg.Metrics
	defer monitor.NewTimer(m.SweepLatency).Stop()
	m.IncrementSweeps()

	if err := r.cfg.Engine.SweepExpired(ctx); err != nil {
		m.IncrementErrors()
		log.WithError(err).Error("expiry sweep failed")
	}
}

func (r *Runner) record(ctx context.Context, d order.Directive, articles int) {
	if r.cfg.Journal == nil {
		return
	}
	row := db.Directive{
		ID:           uuid.NewString(),
		Direction:    string(d.Direction),
		Asset:        d.Asset,
		Hold:         d.Duration,
		ArticleCount: articles,
		CreatedAt:    r.now(),
	}
	if err := r.cfg.Journal.CreateDirective(ctx, row); err != nil {
		log.WithError(err).Warn("journal directive failed")
	}
}
