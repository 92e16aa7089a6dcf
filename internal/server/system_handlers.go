package server

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/tradedeck/tradedeck/internal/database"
	"github.com/tradedeck/tradedeck/internal/scheduler"
)

// StreamStatus reports whether the live price feed is connected
type StreamStatus interface {
	IsConnected() bool
}

// SystemHandlers exposes gateway health and operations endpoints
type SystemHandlers struct {
	log       zerolog.Logger
	dataDir   string
	db        *database.DB
	stream    StreamStatus
	startTime time.Time

	mu   sync.RWMutex
	jobs map[string]scheduler.Job
}

// NewSystemHandlers creates system handlers
func NewSystemHandlers(dataDir string, db *database.DB, stream StreamStatus, log zerolog.Logger) *SystemHandlers {
	return &SystemHandlers{
		log:       log.With().Str("handler", "system").Logger(),
		dataDir:   dataDir,
		db:        db,
		stream:    stream,
		startTime: time.Now(),
		jobs:      make(map[string]scheduler.Job),
	}
}

// RegisterJob makes a background job triggerable via the API
func (h *SystemHandlers) RegisterJob(job scheduler.Job) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.jobs[job.Name()] = job
}

// SystemStatusResponse is the system status payload
type SystemStatusResponse struct {
	Status         string  `json:"status"`
	UptimeSeconds  int64   `json:"uptime_seconds"`
	CPUPercent     float64 `json:"cpu_percent"`
	MemoryPercent  float64 `json:"memory_percent"`
	Goroutines     int     `json:"goroutines"`
	SnapshotDBOK   bool    `json:"snapshot_db_ok"`
	PriceStreaming bool    `json:"price_streaming"`
}

// HandleSystemStatus handles GET /api/system/status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	cpuPct, memPct := h.systemStats()

	dbOK := false
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		dbOK = h.db.HealthCheck(ctx) == nil
		cancel()
	}

	status := "ok"
	if !dbOK {
		status = "degraded"
	}

	resp := SystemStatusResponse{
		Status:         status,
		UptimeSeconds:  int64(time.Since(h.startTime).Seconds()),
		CPUPercent:     cpuPct,
		MemoryPercent:  memPct,
		Goroutines:     runtime.NumGoroutine(),
		SnapshotDBOK:   dbOK,
		PriceStreaming: h.stream != nil && h.stream.IsConnected(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode system status")
	}
}

// DiskUsageResponse is the disk usage payload
type DiskUsageResponse struct {
	DataDirMB float64 `json:"data_dir_mb"`
	TotalMB   float64 `json:"total_mb"`
}

// HandleDiskUsage handles GET /api/system/disk
func (h *SystemHandlers) HandleDiskUsage(w http.ResponseWriter, r *http.Request) {
	size := h.dirSize(h.dataDir)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(DiskUsageResponse{DataDirMB: size, TotalMB: size}); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode disk usage")
	}
}

// HandleJobs handles GET /api/system/jobs
func (h *SystemHandlers) HandleJobs(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	names := make([]string, 0, len(h.jobs))
	for name := range h.jobs {
		names = append(names, name)
	}
	h.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"jobs": names}); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode jobs list")
	}
}

// HandleTriggerJob handles POST /api/system/jobs/{name}
func (h *SystemHandlers) HandleTriggerJob(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	h.mu.RLock()
	job, ok := h.jobs[name]
	h.mu.RUnlock()
	if !ok {
		http.Error(w, "Unknown job", http.StatusNotFound)
		return
	}

	h.log.Info().Str("job", name).Msg("Manually triggering job")
	if err := job.Run(r.Context()); err != nil {
		h.log.Error().Err(err).Str("job", name).Msg("Manual job run failed")
		http.Error(w, "Job failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]string{"status": "completed", "job": name}); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode job response")
	}
}

// systemStats returns CPU and RAM usage percentages. The 100ms sample
// keeps the status endpoint fast enough for dashboard polling.
func (h *SystemHandlers) systemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}

// dirSize calculates total size of a directory in MB
func (h *SystemHandlers) dirSize(dirPath string) float64 {
	var totalSize int64

	err := filepath.Walk(dirPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // skip unreadable entries
		}
		if !info.IsDir() {
			totalSize += info.Size()
		}
		return nil
	})
	if err != nil {
		h.log.Warn().Err(err).Str("dir", dirPath).Msg("Failed to calculate directory size")
		return 0
	}

	return float64(totalSize) / 1024 / 1024
}
