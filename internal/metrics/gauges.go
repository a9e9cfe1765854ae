package metrics

import (
	"net/http"

	"codeberg.org/mutker/fanctl/internal/condition"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "fanctl"

// NewRegistry returns a registry with the Go and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler serves the registry in the Prometheus exposition format.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// Gauges export the latest snapshot per source. Unavailable readings are
// exported as NaN.
type Gauges struct {
	Temperature *prometheus.GaugeVec // labels: source, location
	Humidity    *prometheus.GaugeVec // labels: source, location
	Voltage     *prometheus.GaugeVec // labels: source
	FanRPM      *prometheus.GaugeVec // labels: source
	FanPower    *prometheus.GaugeVec // labels: source
	Condition   *prometheus.GaugeVec // labels: source, condition
	LinkStatus  prometheus.Gauge
	Frames      *prometheus.CounterVec // labels: source, result
}

func NewGauges(reg prometheus.Registerer) *Gauges {
	g := &Gauges{
		Temperature: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "temperature_celsius",
			Help:      "Last temperature reading.",
		}, []string{"source", "location"}),
		Humidity: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "humidity_percent",
			Help:      "Last relative humidity reading.",
		}, []string{"source", "location"}),
		Voltage: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "supply_volts",
			Help:      "Fan supply voltage.",
		}, []string{"source"}),
		FanRPM: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "fan_rpm",
			Help:      "Fan rotation rate.",
		}, []string{"source"}),
		FanPower: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "fan_power",
			Help:      "1 when the fan relay is on.",
		}, []string{"source"}),
		Condition: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "condition",
			Help:      "1 for the current condition, 0 for the others.",
		}, []string{"source", "condition"}),
		LinkStatus: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "link_status",
			Help:      "Status code of the last upload, 0 on success.",
		}),
		Frames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_total",
			Help:      "Frames recorded by verification result.",
		}, []string{"source", "result"}),
	}
	reg.MustRegister(g.Temperature, g.Humidity, g.Voltage, g.FanRPM, g.FanPower, g.Condition, g.LinkStatus, g.Frames)
	return g
}

// Observe updates the gauges of the snapshot's source.
func (g *Gauges) Observe(s *Snapshot) {
	src := string(s.Source)
	f := &s.Frame

	result := "ok"
	if !s.Valid {
		result = "corrupt"
	}
	g.Frames.WithLabelValues(src, result).Inc()

	g.Temperature.WithLabelValues(src, "indoor").Set(f.TempIn.Float())
	g.Temperature.WithLabelValues(src, "outdoor").Set(f.TempOut.Float())
	g.Humidity.WithLabelValues(src, "indoor").Set(f.RHIn.Float())
	g.Humidity.WithLabelValues(src, "outdoor").Set(f.RHOut.Float())
	g.Voltage.WithLabelValues(src).Set(f.Voltage.Float())
	g.FanRPM.WithLabelValues(src).Set(f.FanRPM.Float())
	g.FanPower.WithLabelValues(src).Set(float64(boolToInt(f.FanPower.On())))

	for _, c := range condition.All() {
		v := 0.0
		if c == f.Cond {
			v = 1
		}
		g.Condition.WithLabelValues(src, c.String()).Set(v)
	}

	if s.Source == SourceLocal {
		g.LinkStatus.Set(float64(s.Status))
	}
}
