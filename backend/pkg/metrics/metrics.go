package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequests counts requests by route and status.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "literacy_hub",
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})

	// HTTPDuration request latency by route.
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "literacy_hub",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	// FlashcardAttempts scored attempts by language and remark.
	FlashcardAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "literacy_hub",
		Name:      "flashcard_attempts_total",
		Help:      "Scored flashcard attempts.",
	}, []string{"language", "remark"})

	// PronunciationScore distribution of composite scores.
	PronunciationScore = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "literacy_hub",
		Name:      "pronunciation_score",
		Help:      "Composite pronunciation score of flashcard attempts.",
		Buckets:   prometheus.LinearBuckets(0, 10, 11),
	})

	// StudentsAutoAssigned students placed by auto-assignment.
	StudentsAutoAssigned = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "literacy_hub",
		Name:      "students_auto_assigned_total",
		Help:      "Students placed by auto-assignment.",
	})

	// QuizSubmissions accepted public quiz submissions.
	QuizSubmissions = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "literacy_hub",
		Name:      "quiz_submissions_total",
		Help:      "Accepted quiz submissions.",
	})
)
