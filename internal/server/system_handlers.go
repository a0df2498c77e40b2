package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/dferran/hoard/internal/database"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// SystemHandlers handles system monitoring endpoints
type SystemHandlers struct {
	db          *database.DB
	startupTime time.Time
	log         zerolog.Logger
}

// NewSystemHandlers creates system handlers
func NewSystemHandlers(db *database.DB, log zerolog.Logger) *SystemHandlers {
	return &SystemHandlers{
		db:          db,
		startupTime: time.Now(),
		log:         log.With().Str("handler", "system").Logger(),
	}
}

// HandleHealth handles GET /health
func (h *SystemHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	if err := h.db.Conn().Ping(); err != nil {
		h.log.Error().Err(err).Msg("Health check database ping failed")
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	h.writeJSON(w, code, map[string]interface{}{
		"status": status,
		"uptime": time.Since(h.startupTime).String(),
	})
}

// HandleStatus handles GET /api/system/status
func (h *SystemHandlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	var cpuPercent float64
	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		cpuPercent = percents[0]
	}

	var memUsedPercent float64
	if vm, err := mem.VirtualMemory(); err == nil {
		memUsedPercent = vm.UsedPercent
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"uptime":           time.Since(h.startupTime).String(),
			"cpu_percent":      cpuPercent,
			"mem_used_percent": memUsedPercent,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

func (h *SystemHandlers) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}
