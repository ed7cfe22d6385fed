package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics глобальный контейнер метрик
type Metrics struct {
	// Бизнес-метрики генерации колонок
	CGIterationsTotal    *prometheus.HistogramVec
	CGMasterObjective    *prometheus.GaugeVec
	CGPricingObjective   *prometheus.GaugeVec
	SolveDuration        *prometheus.HistogramVec
	SolveOutcomesTotal   *prometheus.CounterVec
	RouteCount           *prometheus.HistogramVec

	// Информация о сервисе
	ServiceInfo *prometheus.GaugeVec
}

var defaultMetrics *Metrics

// InitMetrics инициализирует метрики
func InitMetrics(namespace, subsystem string) *Metrics {
	m := &Metrics{
		// Бизнес-метрики генерации колонок
		CGIterationsTotal: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cg_iterations",
				Help:      "Number of column generation iterations per solve",
				Buckets:   []float64{1, 2, 5, 10, 20, 50, 100, 200, 500},
			},
			[]string{"outcome"},
		),

		CGMasterObjective: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cg_master_objective",
				Help:      "Last restricted master problem objective value",
			},
			[]string{"instance"},
		),

		CGPricingObjective: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cg_pricing_objective",
				Help:      "Most negative reduced cost returned by the pricing subproblem",
			},
			[]string{"instance"},
		),

		SolveDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "solve_duration_seconds",
				Help:      "Wall-clock duration of a full solve run",
				Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"outcome"},
		),

		SolveOutcomesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "solve_outcome_total",
				Help:      "Total number of solve runs by outcome",
			},
			[]string{"outcome"},
		),

		RouteCount: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "route_count",
				Help:      "Number of routes in the solution returned by a solve run",
				Buckets:   []float64{1, 2, 5, 10, 20, 50, 100},
			},
			[]string{"outcome"},
		),

		// Информация о сервисе; runtime-level goroutine/memory gauges are
		// covered by RuntimeCollector instead of duplicating them here.
		ServiceInfo: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "service_info",
				Help:      "Service information",
			},
			[]string{"version", "environment"},
		),
	}

	defaultMetrics = m
	return m
}

// Get возвращает глобальные метрики
func Get() *Metrics {
	if defaultMetrics == nil {
		return InitMetrics("cvrptw", "")
	}
	return defaultMetrics
}

// RecordSolve записывает итог одного полного прогона решателя: число
// итераций генерации колонок, длительность и финальные значения
// мастер- и прайсинг-задач.
func (m *Metrics) RecordSolve(outcome string, iterations int, duration time.Duration, masterObjective, pricingObjective float64, instance string, routes int) {
	m.CGIterationsTotal.WithLabelValues(outcome).Observe(float64(iterations))
	m.SolveDuration.WithLabelValues(outcome).Observe(duration.Seconds())
	m.SolveOutcomesTotal.WithLabelValues(outcome).Inc()
	m.RouteCount.WithLabelValues(outcome).Observe(float64(routes))
	m.CGMasterObjective.WithLabelValues(instance).Set(masterObjective)
	m.CGPricingObjective.WithLabelValues(instance).Set(pricingObjective)
}

// RecordIteration записывает состояние мастер- и прайсинг-задач после
// одной итерации генерации колонок, до завершения решения в целом.
func (m *Metrics) RecordIteration(instance string, masterObjective, pricingObjective float64) {
	m.CGMasterObjective.WithLabelValues(instance).Set(masterObjective)
	m.CGPricingObjective.WithLabelValues(instance).Set(pricingObjective)
}

// SetServiceInfo устанавливает информацию о сервисе
func (m *Metrics) SetServiceInfo(version, environment string) {
	m.ServiceInfo.WithLabelValues(version, environment).Set(1)
}

// Handler возвращает HTTP handler для /metrics
func Handler() http.Handler {
	return promhttp.Handler()
}

// StartMetricsServer запускает HTTP сервер для метрик
func StartMetricsServer(port int) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		// Игнорируем ошибку записи - response уже отправлен
		_, _ = w.Write([]byte("OK")) //nolint:errcheck // health endpoint, ошибка записи не критична
	})

	server := &http.Server{
		Addr:         ":" + strconv.Itoa(port),
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	return server.ListenAndServe()
}
