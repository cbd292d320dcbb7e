// Package monitor exposes an iommu.Orchestrator's statistics and pending
// events over a small HTTP API, grounded on monitoring/monitor.go. Every
// endpoint only reads, except /events, which drains the event queue.
// It consumes only the Orchestrator's public operations.
package monitor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net"
	"net/http"

	// Enable profiling under /debug/pprof.
	_ "net/http/pprof"
	"os"
	"runtime/pprof"
	"strconv"
	"time"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/shirou/gopsutil/process"

	"github.com/sarchlab/smmu-sim/iommu"
)

// Monitor serves JSON status endpoints over one Orchestrator.
type Monitor struct {
	orchestrator *iommu.Orchestrator
	portNumber   int
}

// New creates a Monitor for o.
func New(o *iommu.Orchestrator) *Monitor {
	return &Monitor{orchestrator: o}
}

// WithPortNumber sets the port the server listens on. A value below 1000
// falls back to a random port, matching monitoring/monitor.go's guard
// against colliding with well-known ports.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"monitor: port %d is not allowed, using a random port instead\n",
			portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// StartServer starts serving in the background and returns the address it
// bound to.
func (m *Monitor) StartServer() (string, error) {
	r := mux.NewRouter()
	r.HandleFunc("/stats", m.stats)
	r.HandleFunc("/events", m.drainEvents)
	r.HandleFunc("/streams/{id}", m.stream)
	r.HandleFunc("/health", m.health)
	r.HandleFunc("/profile", m.collectProfile)

	actualPort := ":0"
	if m.portNumber >= 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	if err != nil {
		return "", fmt.Errorf("monitor: listen: %w", err)
	}

	addr := listener.Addr().String()

	go func() {
		_ = http.Serve(listener, r)
	}()

	return addr, nil
}

func (m *Monitor) stats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, m.orchestrator.Statistics())
}

// drainEvents pops every pending fault off the orchestrator's event queue
// and returns them as a JSON array. Popping is destructive: a fault
// reported here will not be reported again.
func (m *Monitor) drainEvents(w http.ResponseWriter, _ *http.Request) {
	faults := []iommu.Fault{}
	for {
		f, ok := m.orchestrator.PopEvent()
		if !ok {
			break
		}
		faults = append(faults, f)
	}

	writeJSON(w, faults)
}

func (m *Monitor) stream(w http.ResponseWriter, r *http.Request) {
	idStr := mux.Vars(r)["id"]
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "invalid stream id: %s", idStr)
		return
	}

	writeJSON(w, m.orchestrator.GetStream(iommu.StreamID(id)))
}

type healthRsp struct {
	Enabled    bool    `json:"enabled"`
	CPUPercent float64 `json:"cpu_percent"`
	MemoryRSS  uint64  `json:"memory_rss"`
}

// health reports whether the unit is enabled plus a process resource
// sample, grounded on monitoring/monitor.go's listResources handler.
func (m *Monitor) health(w http.ResponseWriter, _ *http.Request) {
	rsp := healthRsp{Enabled: m.orchestrator.IsEnabled()}

	proc, err := process.NewProcess(int32(os.Getpid()))
	if err == nil {
		if pct, err := proc.CPUPercent(); err == nil {
			rsp.CPUPercent = pct
		}
		if mem, err := proc.MemoryInfo(); err == nil && mem != nil {
			rsp.MemoryRSS = mem.RSS
		}
	}

	writeJSON(w, rsp)
}

// collectProfile captures a short CPU profile and returns it decoded as
// JSON, grounded on monitoring/monitor.go's collectProfile handler.
func (m *Monitor) collectProfile(w http.ResponseWriter, r *http.Request) {
	seconds := 1
	if s := r.URL.Query().Get("seconds"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			seconds = v
		}
	}

	buf := bytes.NewBuffer(nil)
	if err := pprof.StartCPUProfile(buf); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	time.Sleep(time.Duration(seconds) * time.Second)
	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, prof)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")

	enc := json.NewEncoder(w)
	if err := enc.Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
