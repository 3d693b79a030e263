package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

//Metrics exposes run counters over a private registry so independent runs
//never collide on registration
type Metrics struct {
	registry *prometheus.Registry

	ReadsKept       prometheus.Counter
	ReadsDiscarded  prometheus.Counter
	KmerQCPassed    prometheus.Counter
	OverlapQCPassed prometheus.Counter
	QCFailed        prometheus.Counter
	BasesCorrected  prometheus.Counter
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)
	return &Metrics{
		registry: registry,
		ReadsKept: factory.NewCounter(prometheus.CounterOpts{
			Name: "seqcorrect_reads_kept_total",
			Help: "Reads written to the kept output.",
		}),
		ReadsDiscarded: factory.NewCounter(prometheus.CounterOpts{
			Name: "seqcorrect_reads_discarded_total",
			Help: "Reads written to the discard output.",
		}),
		KmerQCPassed: factory.NewCounter(prometheus.CounterOpts{
			Name: "seqcorrect_kmer_qc_passed_total",
			Help: "Reads passing kmer quality control.",
		}),
		OverlapQCPassed: factory.NewCounter(prometheus.CounterOpts{
			Name: "seqcorrect_overlap_qc_passed_total",
			Help: "Reads passing overlap quality control only.",
		}),
		QCFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "seqcorrect_qc_failed_total",
			Help: "Reads failing all quality control.",
		}),
		BasesCorrected: factory.NewCounter(prometheus.CounterOpts{
			Name: "seqcorrect_bases_corrected_total",
			Help: "Individual bases rewritten in kept reads.",
		}),
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

//Serve blocks, exposing /metrics on addr
func (m *Metrics) Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	return http.ListenAndServe(addr, mux)
}
