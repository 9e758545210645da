package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Interview metrics
	activeInterviews = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "interview_agent_active_interviews",
		Help: "Number of interviews currently in progress",
	})

	interviewsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "interview_agent_interviews_total",
		Help: "Total number of interviews started",
	})

	interviewDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "interview_agent_interview_duration_seconds",
		Help:    "Duration of completed interviews in seconds",
		Buckets: []float64{30, 60, 120, 300, 600, 1200, 1800},
	})

	roundsPersisted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "interview_agent_rounds_total",
		Help: "Total number of interview rounds persisted",
	})

	transcriptionRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "interview_agent_transcription_retries_total",
		Help: "Total number of re-asked questions after a failed transcription",
	})

	// Generation backend metrics, labeled by operation
	// (initial_question, next_question, evaluate, report)
	generationRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "interview_agent_generation_requests_total",
		Help: "Total number of generation backend requests",
	}, []string{"operation", "status"})

	generationLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "interview_agent_generation_latency_seconds",
		Help:    "Generation backend latency in seconds",
		Buckets: []float64{0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0},
	}, []string{"operation"})

	// Speech metrics
	sttRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "interview_agent_stt_requests_total",
		Help: "Total number of speech-to-text requests",
	}, []string{"status"})

	sttLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "interview_agent_stt_latency_seconds",
		Help:    "Speech-to-text latency in seconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0},
	})

	ttsRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "interview_agent_tts_requests_total",
		Help: "Total number of text-to-speech requests",
	}, []string{"status"})

	ttsLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "interview_agent_tts_latency_seconds",
		Help:    "Text-to-speech latency in seconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0},
	})

	// Storage metrics
	storageErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "interview_agent_storage_errors_total",
		Help: "Total number of transcript store failures",
	}, []string{"operation"})

	// Circuit breaker metrics
	circuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "interview_agent_circuit_breaker_state",
		Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
	}, []string{"service"})
)

// RecordInterviewStart records the start of an interview
func RecordInterviewStart() {
	activeInterviews.Inc()
	interviewsTotal.Inc()
}

// RecordInterviewEnd records the end of an interview along with its duration
func RecordInterviewEnd(startedAt time.Time) {
	activeInterviews.Dec()
	interviewDuration.Observe(time.Since(startedAt).Seconds())
}

// RecordRoundPersisted records one persisted question/answer/evaluation round
func RecordRoundPersisted() {
	roundsPersisted.Inc()
}

// RecordTranscriptionRetry records a re-ask after a failed transcription
func RecordTranscriptionRetry() {
	transcriptionRetries.Inc()
}

// RecordGeneration records a generation backend call
func RecordGeneration(operation string, startedAt time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	generationRequests.WithLabelValues(operation, status).Inc()
	generationLatency.WithLabelValues(operation).Observe(time.Since(startedAt).Seconds())
}

// RecordSTT records a speech-to-text call
func RecordSTT(startedAt time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	sttRequests.WithLabelValues(status).Inc()
	sttLatency.Observe(time.Since(startedAt).Seconds())
}

// RecordTTS records a text-to-speech call
func RecordTTS(startedAt time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	ttsRequests.WithLabelValues(status).Inc()
	ttsLatency.Observe(time.Since(startedAt).Seconds())
}

// RecordStorageError records a transcript store failure
func RecordStorageError(operation string) {
	storageErrors.WithLabelValues(operation).Inc()
}

// UpdateCircuitBreakerState updates the circuit breaker state metric
func UpdateCircuitBreakerState(service string, state int) {
	circuitBreakerState.WithLabelValues(service).Set(float64(state))
}
