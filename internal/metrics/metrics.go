package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	XPGrants = promauto.NewCounter(prometheus.CounterOpts{
		Name: "leveling_xp_grants_total",
		Help: "The total number of XP grants awarded for messages",
	})

	LevelUps = promauto.NewCounter(prometheus.CounterOpts{
		Name: "leveling_level_ups_total",
		Help: "The total number of level ups",
	})

	RoleOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "leveling_role_operations_total",
		Help: "Total number of reward role grant/revoke calls",
	}, []string{"operation", "status"})

	StoreFlushes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "leveling_store_flushes_total",
		Help: "Total number of store flushes per concern",
	}, []string{"concern", "status"})

	FlushDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "leveling_flush_duration_seconds",
		Help:    "Duration of full state flushes",
		Buckets: prometheus.DefBuckets,
	})

	DiagnoseFixes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "leveling_diagnose_fixes_total",
		Help: "Total number of issues repaired by diagnose runs",
	}, []string{"issue"})

	DiscordMessagesSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "discord_messages_sent_total",
		Help: "Total number of Discord messages sent",
	}, []string{"kind", "status"})

	CardsRendered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "leveling_cards_rendered_total",
		Help: "Total number of level cards rendered",
	}, []string{"status"})
)
