// Package metrics holds Prometheus instruments that are used across the
// service.  All collectors are registered with the global registry, so
// importing this package in main.go is enough to expose them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	AuthDeniedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "auth_denied_total",
			Help: "Cumulative number of requests rejected by the credential gate.",
		})

	PushTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cms_push_total",
			Help: "Cumulative number of CMS delivery attempts.",
		})

	PushFailureTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cms_push_failures_total",
			Help: "Cumulative number of CMS delivery attempts that did not succeed.",
		})

	SKUResolvedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "catalog_sku_resolved_total",
			Help: "Cumulative number of SKUs resolved to catalog identifiers.",
		})

	SKUMissingTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "catalog_sku_missing_total",
			Help: "Cumulative number of SKU lookups classified as missing.",
		})
)

func init() {
	prometheus.MustRegister(
		AuthDeniedTotal,
		PushTotal,
		PushFailureTotal,
		SKUResolvedTotal,
		SKUMissingTotal,
	)
}
