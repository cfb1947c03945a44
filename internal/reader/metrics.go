package reader

import (
	"log"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	readerMetricsOnce  sync.Once
	generationAttempts *prometheus.CounterVec
	titleSources       *prometheus.CounterVec
	questionsAnswered  *prometheus.CounterVec
)

func initReaderMetrics() {
	generationAttempts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "readmode",
		Name:      "generation_attempts_total",
		Help:      "Generation calls made while retrieving articles, by model and outcome",
	}, []string{"model", "outcome"})
	titleSources = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "readmode",
		Name:      "title_source_total",
		Help:      "Which title strategy produced the article title",
	}, []string{"strategy"})
	questionsAnswered = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "readmode",
		Name:      "questions_total",
		Help:      "Article questions handled, by outcome",
	}, []string{"outcome"})
	for _, c := range []prometheus.Collector{generationAttempts, titleSources, questionsAnswered} {
		if err := prometheus.Register(c); err != nil {
			log.Printf("reader metrics init: %v", err)
		}
	}
}

func recordAttempt(model, outcome string) {
	readerMetricsOnce.Do(initReaderMetrics)
	generationAttempts.WithLabelValues(model, outcome).Inc()
}

func recordTitleSource(strategy string) {
	readerMetricsOnce.Do(initReaderMetrics)
	titleSources.WithLabelValues(strategy).Inc()
}

func recordQuestion(outcome string) {
	readerMetricsOnce.Do(initReaderMetrics)
	questionsAnswered.WithLabelValues(outcome).Inc()
}
