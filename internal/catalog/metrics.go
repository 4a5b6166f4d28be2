package catalog

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	queries      prometheus.Counter
	queryResults prometheus.Histogram
	cacheLookups *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		queries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rigforge_catalog_queries_total",
			Help: "Catalog queries evaluated.",
		}),
		queryResults: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "rigforge_catalog_query_results",
			Help:    "Number of items returned per catalog query.",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250},
		}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rigforge_cache_lookups_total",
			Help: "Product snapshot cache lookups by result (hit, miss, error).",
		}, []string{"result"}),
	}
	if reg != nil {
		m.queries = register(reg, m.queries)
		m.queryResults = register(reg, m.queryResults)
		m.cacheLookups = register(reg, m.cacheLookups)
	}
	return m
}

// register registers c, returning the already registered collector when an
// identical one exists.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}
