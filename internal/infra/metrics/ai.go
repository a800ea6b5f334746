package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		genTokensIn,
		genTokensOut,
		genCallLatencyMs,
		genParseFailures,
	)
}

var (
	genTokensIn = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "generation_tokens_in",
			Help: "Sum of prompt (input) tokens per model.",
		},
		[]string{"model"},
	)

	genTokensOut = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "generation_tokens_out",
			Help: "Sum of completion (output) tokens per model.",
		},
		[]string{"model"},
	)

	genCallLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "generation_call_latency_ms",
			Help:    "Text-generation call latency distribution in milliseconds.",
			Buckets: []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 20000, 40000},
		},
		[]string{"model", "success"},
	)

	genParseFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "generation_parse_failures",
			Help: "Count of model responses rejected at the parse boundary, per stage.",
		},
		[]string{"stage"},
	)
)

// ObserveGenerationCall records token usage and latency for one call to the
// text-generation provider.
func ObserveGenerationCall(model string, promptTokens, completionTokens, latencyMs int, success bool) {
	genTokensIn.WithLabelValues(model).Add(float64(promptTokens))
	genTokensOut.WithLabelValues(model).Add(float64(completionTokens))
	genCallLatencyMs.WithLabelValues(model, strconv.FormatBool(success)).Observe(float64(latencyMs))
}

func IncGenerationParseFailure(stage string) {
	genParseFailures.WithLabelValues(stage).Inc()
}
