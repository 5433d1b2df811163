package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/vantagesec/reportkit/internal/database"
)

// purger deletes expired refresh tokens on a cron schedule so abandoned
// sessions cannot pile up in storage.
type purger struct {
	db       database.DB
	schedule string
	cron     *cron.Cron
}

func newPurger(db database.DB, schedule string) *purger {
	if schedule == "" {
		schedule = "@hourly"
	}
	return &purger{db: db, schedule: schedule, cron: cron.New()}
}

// Start registers the purge job and starts the cron runner. The purge also
// runs once immediately so a long-stopped server catches up on startup.
func (p *purger) Start(ctx context.Context) error {
	if _, err := p.cron.AddFunc(p.schedule, func() {
		p.run(context.Background())
	}); err != nil {
		return err
	}
	p.run(ctx)
	p.cron.Start()
	slog.Info("session purger started", "schedule", p.schedule)
	return nil
}

// Stop halts the cron runner gracefully.
func (p *purger) Stop() { p.cron.Stop() }

func (p *purger) run(ctx context.Context) {
	err := p.db.Exec(ctx, `DELETE FROM refresh_tokens WHERE expires_at < ?`, time.Now().UTC())
	if err != nil {
		slog.Warn("session purge failed", "error", err)
	}
}
