package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Business metrics
	TurnsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voicebank_turns_recorded_total",
		Help: "Turns recorded per intent and completion status",
	}, []string{"intent", "status"})

	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "voicebank_active_sessions",
		Help: "Sessions currently held in memory",
	})

	SessionExpiries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voicebank_session_expiries_total",
		Help: "Sessions dropped by the lazy expiry check",
	})

	SecurityAlerts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voicebank_security_alerts_total",
		Help: "Turns flagged by the NLU as suspicious",
	})

	BankingExecutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voicebank_banking_executions_total",
		Help: "Banking backend calls per endpoint and result",
	}, []string{"endpoint", "result"})

	// Collaborator latencies
	TranscriptionLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "voicebank_transcription_latency_seconds",
		Help:    "Speech-to-text collaborator latency",
		Buckets: prometheus.DefBuckets,
	})

	NLULatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "voicebank_nlu_latency_seconds",
		Help:    "NLU collaborator latency",
		Buckets: prometheus.DefBuckets,
	})

	BankingLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "voicebank_banking_latency_seconds",
		Help:    "Bafoka API call latency",
		Buckets: prometheus.DefBuckets,
	})
)
