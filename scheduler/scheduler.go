// Package scheduler drives recurring-poll reconciliation on a periodic
// trigger, off the request path.
package scheduler

import (
	"context"
	"time"

	log15 "github.com/inconshreveable/log15/v3"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
)

const runTimeout = 2 * time.Minute

// Reconciler converges one team's recurring polls.
type Reconciler interface {
	Reconcile(ctx context.Context, team string) error
}

// TeamLister enumerates the teams that own recurring poll definitions.
type TeamLister interface {
	TeamsWithRecurringPolls(ctx context.Context) ([]string, error)
}

// Scheduler runs reconciliation for every team with recurring polls.
// Concurrent runs for the same team can both decide to schedule the same
// occurrence, so each team is guarded by a redis lock for the duration of
// its run.
type Scheduler struct {
	teams   TeamLister
	polls   Reconciler
	redis   *redis.Client
	lockTTL time.Duration
	log     log15.Logger
}

func New(teams TeamLister, polls Reconciler, redisClient *redis.Client, lockTTL time.Duration) *Scheduler {
	return &Scheduler{
		teams:   teams,
		polls:   polls,
		redis:   redisClient,
		lockTTL: lockTTL,
		log:     log15.New("module", "scheduler"),
	}
}

// Start registers the reconcile run on a cron schedule and starts the
// cron. The returned cron is stopped by the caller on shutdown.
func (s *Scheduler) Start(schedule string) (*cron.Cron, error) {
	c := cron.New()
	if _, err := c.AddFunc(schedule, s.Run); err != nil {
		return nil, err
	}
	c.Start()
	s.log.Info("scheduler started", "schedule", schedule)
	return c, nil
}

// Run reconciles every team with recurring polls once.
func (s *Scheduler) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	teams, err := s.teams.TeamsWithRecurringPolls(ctx)
	if err != nil {
		s.log.Error("failed to discover teams with recurring polls", "error", err)
		return
	}

	for _, team := range teams {
		s.runTeam(ctx, team)
	}
}

func (s *Scheduler) runTeam(ctx context.Context, team string) {
	unlock, ok := s.lock(ctx, team)
	if !ok {
		s.log.Info("reconcile already running elsewhere, skipping", "team", team)
		return
	}
	defer unlock()

	if err := s.polls.Reconcile(ctx, team); err != nil {
		s.log.Error("reconcile failed", "team", team, "error", err)
		return
	}
	s.log.Info("reconcile complete", "team", team)
}

// lock takes the per-team reconcile lock. With no redis configured the
// cron itself is the only serialization, which is enough for a single
// instance.
func (s *Scheduler) lock(ctx context.Context, team string) (func(), bool) {
	if s.redis == nil {
		return func() {}, true
	}

	key := "reconcile:" + team
	ok, err := s.redis.SetNX(ctx, key, "1", s.lockTTL).Result()
	if err != nil {
		s.log.Error("failed to take reconcile lock", "team", team, "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	return func() {
		if err := s.redis.Del(context.Background(), key).Err(); err != nil {
			s.log.Warn("failed to release reconcile lock", "team", team, "error", err)
		}
	}, true
}
