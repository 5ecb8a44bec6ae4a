package main

import (
	"net/http"
	"os"

	log15 "github.com/inconshreveable/log15/v3"
	"github.com/redis/go-redis/v9"

	"easypoll/config"
	"easypoll/db"
	"easypoll/poll"
	"easypoll/quote"
	"easypoll/scheduler"
	"easypoll/slack"
)

func main() {
	log := log15.New("module", "main")

	cfg, err := config.Load()
	if err != nil {
		log.Crit("failed to load configuration", "error", err)
		os.Exit(1)
	}

	gdb, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Crit("failed to open database", "error", err)
		os.Exit(1)
	}
	store := db.NewStore(gdb)

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Crit("failed to parse redis url", "error", err)
			os.Exit(1)
		}
		redisClient = redis.NewClient(opt)
	} else {
		log.Warn("no redis configured, reconcile runs are only serialized in-process")
	}

	slackClient := slack.NewClient(cfg.SlackBearerToken)
	polls := poll.NewService(store, slackClient)
	quotes := quote.NewService(store)

	sched := scheduler.New(store, polls, redisClient, cfg.ReconcileLockTTL)
	cronRunner, err := sched.Start(cfg.ReconcileSchedule)
	if err != nil {
		log.Crit("failed to start scheduler", "error", err)
		os.Exit(1)
	}
	defer cronRunner.Stop()

	router := SetupRouter(BuildRoutes(polls, quotes), cfg.SlackSigningSecret)

	log.Info("server running", "port", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, router); err != nil {
		log.Crit("server failed", "error", err)
		os.Exit(1)
	}
}
