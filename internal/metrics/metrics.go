// Package metrics exposes the daemon's counters and gauges to prometheus
// and keeps a plain snapshot of the same values for the metrics query.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors. The zero value is not usable; use New.
type Metrics struct {
	reg *prometheus.Registry

	WindowsManaged prometheus.Gauge
	Workspaces     prometheus.Gauge
	Applications   prometheus.Gauge
	Screens        prometheus.Gauge
	Events         *prometheus.CounterVec
	EventPanics    prometheus.Counter
	FrameWrites    prometheus.Counter
	RaiseRequests  prometheus.Counter
	IPCRequests    *prometheus.CounterVec

	mu       sync.RWMutex
	snapshot Snapshot
}

// Snapshot mirrors the collector values for JSON consumers.
type Snapshot struct {
	WindowsManaged int   `json:"windowsManaged"`
	Workspaces     int   `json:"workspaces"`
	Applications   int   `json:"applications"`
	Screens        int   `json:"screens"`
	EventsHandled  int64 `json:"eventsHandled"`
	EventPanics    int64 `json:"eventPanics"`
	FrameWrites    int64 `json:"frameWrites"`
	RaiseRequests  int64 `json:"raiseRequests"`
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		reg: reg,
		WindowsManaged: f.NewGauge(prometheus.GaugeOpts{
			Name: "tiler_windows_managed",
			Help: "Number of windows the reactor tracks",
		}),
		Workspaces: f.NewGauge(prometheus.GaugeOpts{
			Name: "tiler_workspaces",
			Help: "Number of virtual workspaces across all spaces",
		}),
		Applications: f.NewGauge(prometheus.GaugeOpts{
			Name: "tiler_applications",
			Help: "Number of running applications",
		}),
		Screens: f.NewGauge(prometheus.GaugeOpts{
			Name: "tiler_screens",
			Help: "Number of screens",
		}),
		Events: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tiler_events_total",
			Help: "Events handled by the reactor",
		}, []string{"event"}),
		EventPanics: f.NewCounter(prometheus.CounterOpts{
			Name: "tiler_event_panics_total",
			Help: "Event handlers that panicked and were recovered",
		}),
		FrameWrites: f.NewCounter(prometheus.CounterOpts{
			Name: "tiler_frame_writes_total",
			Help: "Frame write requests sent to applications",
		}),
		RaiseRequests: f.NewCounter(prometheus.CounterOpts{
			Name: "tiler_raise_requests_total",
			Help: "Raise sequences submitted",
		}),
		IPCRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tiler_ipc_requests_total",
			Help: "IPC requests by method and outcome",
		}, []string{"method", "status"}),
	}
}

// Registry is the registry the collectors live on
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// SetModel updates the model-size gauges.
func (m *Metrics) SetModel(windows, workspaces, apps, screens int) {
	m.WindowsManaged.Set(float64(windows))
	m.Workspaces.Set(float64(workspaces))
	m.Applications.Set(float64(apps))
	m.Screens.Set(float64(screens))

	m.mu.Lock()
	m.snapshot.WindowsManaged = windows
	m.snapshot.Workspaces = workspaces
	m.snapshot.Applications = apps
	m.snapshot.Screens = screens
	m.mu.Unlock()
}

func (m *Metrics) ObserveEvent(name string) {
	m.Events.WithLabelValues(name).Inc()
	m.mu.Lock()
	m.snapshot.EventsHandled++
	m.mu.Unlock()
}

func (m *Metrics) ObservePanic() {
	m.EventPanics.Inc()
	m.mu.Lock()
	m.snapshot.EventPanics++
	m.mu.Unlock()
}

// ObserveFrameWrites counts n frame requests
func (m *Metrics) ObserveFrameWrites(n int) {
	m.FrameWrites.Add(float64(n))
	m.mu.Lock()
	m.snapshot.FrameWrites += int64(n)
	m.mu.Unlock()
}

func (m *Metrics) ObserveRaise() {
	m.RaiseRequests.Inc()
	m.mu.Lock()
	m.snapshot.RaiseRequests++
	m.mu.Unlock()
}

// ObserveIPC counts one server request.
func (m *Metrics) ObserveIPC(method string, ok bool) {
	status := "ok"
	if !ok {
		status = "error"
	}
	m.IPCRequests.WithLabelValues(method, status).Inc()
}

// Snapshot returns the current values
func (m *Metrics) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}
