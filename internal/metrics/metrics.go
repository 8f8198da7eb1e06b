// Package metrics registra las métricas Prometheus del servicio.
// Los Record* son no-op si Register no fue llamado (tests).
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once   sync.Once
	regErr error

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpInflight        prometheus.Gauge

	graphCallsTotal   *prometheus.CounterVec
	graphCallDuration *prometheus.HistogramVec

	oauthOutcomesTotal *prometheus.CounterVec
	insightsStatus     *prometheus.CounterVec

	harvestAccountsTotal *prometheus.CounterVec
	harvestDuration      prometheus.Histogram
	harvestLastSuccess   prometheus.Gauge
)

// Config agrupa dependencias para exponer /metrics.
type Config struct {
	Registry prometheus.Registerer
	Gatherer prometheus.Gatherer
	// Pool es opcional; con storage.driver=memory no hay pool.
	Pool func() *pgxpool.Pool
}

// Register inicializa las métricas y devuelve el handler de /metrics.
func Register(cfg Config) (http.Handler, error) {
	reg := cfg.Registry
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gat := cfg.Gatherer
	if gat == nil {
		gat = prometheus.DefaultGatherer
	}

	once.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Número total de requests procesadas",
		}, []string{"method", "route", "status"})
		httpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Latencia de los requests HTTP",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"})
		httpInflight = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_inflight_requests",
			Help: "Requests en vuelo",
		})

		graphCallsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "meta_graph_calls_total",
			Help: "Llamadas a la Graph API por operación y resultado",
		}, []string{"op", "result"}) // result: ok|http_error|transport_error
		graphCallDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "meta_graph_call_duration_seconds",
			Help:    "Latencia de llamadas a la Graph API",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
		}, []string{"op"})

		oauthOutcomesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "oauth_flow_outcomes_total",
			Help: "Resultados terminales del flujo OAuth de Instagram",
		}, []string{"flow", "reason"}) // reason "success" en el caso feliz
		insightsStatus = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "insights_accounts_total",
			Help: "Cuentas procesadas en lectura de insights por estado",
		}, []string{"status"})

		harvestAccountsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "harvest_accounts_total",
			Help: "Cuentas procesadas por el harvest programado",
		}, []string{"result"}) // saved | <failure reason>
		harvestDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "harvest_duration_seconds",
			Help:    "Duración de una corrida de harvest",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300},
		})
		harvestLastSuccess = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "harvest_last_run_timestamp_seconds",
			Help: "Unix time de la última corrida de harvest completada",
		})

		for _, c := range []prometheus.Collector{
			httpRequestsTotal, httpRequestDuration, httpInflight,
			graphCallsTotal, graphCallDuration,
			oauthOutcomesTotal, insightsStatus,
			harvestAccountsTotal, harvestDuration, harvestLastSuccess,
		} {
			if err := registerCollector(reg, c); err != nil {
				regErr = err
				return
			}
		}
	})
	if regErr != nil {
		return nil, regErr
	}

	if cfg.Pool != nil {
		if err := registerCollector(reg, newDBPoolCollector(cfg.Pool)); err != nil {
			return nil, err
		}
	}
	return promhttp.HandlerFor(gat, promhttp.HandlerOpts{}), nil
}

// registerCollector registra el collector, ignorando duplicados.
func registerCollector(reg prometheus.Registerer, c prometheus.Collector) error {
	if err := reg.Register(c); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return nil
		}
		return err
	}
	return nil
}

// ObserveHTTP registra un request terminado.
func ObserveHTTP(method, route string, status int, d time.Duration) {
	if httpRequestsTotal == nil {
		return
	}
	httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// InflightInc / InflightDec ajustan el gauge de requests en vuelo.
func InflightInc() {
	if httpInflight != nil {
		httpInflight.Inc()
	}
}

func InflightDec() {
	if httpInflight != nil {
		httpInflight.Dec()
	}
}

// ObserveGraphCall registra una llamada saliente a Meta.
func ObserveGraphCall(op, result string, d time.Duration) {
	if graphCallsTotal == nil {
		return
	}
	graphCallsTotal.WithLabelValues(op, result).Inc()
	graphCallDuration.WithLabelValues(op).Observe(d.Seconds())
}

// RecordOAuthOutcome registra un estado terminal del flujo OAuth.
func RecordOAuthOutcome(flow, reason string) {
	if oauthOutcomesTotal != nil {
		oauthOutcomesTotal.WithLabelValues(flow, reason).Inc()
	}
}

// RecordInsightsStatus registra el estado de insights de una cuenta.
func RecordInsightsStatus(status string) {
	if insightsStatus != nil {
		insightsStatus.WithLabelValues(status).Inc()
	}
}

// RecordHarvestAccount registra el resultado de una cuenta en el harvest.
func RecordHarvestAccount(result string) {
	if harvestAccountsTotal != nil {
		harvestAccountsTotal.WithLabelValues(result).Inc()
	}
}

// RecordHarvestRun registra la duración de una corrida completa.
func RecordHarvestRun(d time.Duration, finishedAt time.Time) {
	if harvestDuration == nil {
		return
	}
	harvestDuration.Observe(d.Seconds())
	harvestLastSuccess.Set(float64(finishedAt.Unix()))
}

// dbPoolCollector expone gauges del pool de PostgreSQL.
type dbPoolCollector struct {
	pool         func() *pgxpool.Pool
	acquiredDesc *prometheus.Desc
	idleDesc     *prometheus.Desc
	totalDesc    *prometheus.Desc
}

func newDBPoolCollector(pool func() *pgxpool.Pool) *dbPoolCollector {
	return &dbPoolCollector{
		pool:         pool,
		acquiredDesc: prometheus.NewDesc("pg_pool_acquired", "Conexiones adquiridas", nil, nil),
		idleDesc:     prometheus.NewDesc("pg_pool_idle", "Conexiones inactivas", nil, nil),
		totalDesc:    prometheus.NewDesc("pg_pool_total", "Conexiones totales", nil, nil),
	}
}

func (c *dbPoolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.acquiredDesc
	ch <- c.idleDesc
	ch <- c.totalDesc
}

func (c *dbPoolCollector) Collect(ch chan<- prometheus.Metric) {
	pool := c.pool()
	if pool == nil {
		return
	}
	stat := pool.Stat()
	ch <- prometheus.MustNewConstMetric(c.acquiredDesc, prometheus.GaugeValue, float64(stat.AcquiredConns()))
	ch <- prometheus.MustNewConstMetric(c.idleDesc, prometheus.GaugeValue, float64(stat.IdleConns()))
	ch <- prometheus.MustNewConstMetric(c.totalDesc, prometheus.GaugeValue, float64(stat.TotalConns()))
}
