package httpapi

import (
	"net/http"
	"time"

	alog "github.com/anacrolix/log"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/dannyzb/filerelay/version"
)

type healthResponse struct {
	Status      string       `json:"status"`
	Version     string       `json:"version"`
	Environment string       `json:"environment"`
	UptimeSec   float64      `json:"uptimeSeconds"`
	Memory      *memSummary  `json:"memory,omitempty"`
	Disk        *diskSummary `json:"disk,omitempty"`
	CPUPercent  []float64    `json:"cpuPercent,omitempty"`
}

type memSummary struct {
	TotalBytes     uint64  `json:"totalBytes"`
	UsedBytes      uint64  `json:"usedBytes"`
	UsedPercent    float64 `json:"usedPercent"`
}

type diskSummary struct {
	TotalBytes  uint64  `json:"totalBytes"`
	UsedBytes   uint64  `json:"usedBytes"`
	UsedPercent float64 `json:"usedPercent"`
}

// handleHealth implements GET /health. Host resource sampling is
// best-effort: a gopsutil failure degrades the field to absent rather than
// failing the whole health check, since an unreachable /proc mustn't make a
// healthy relay report unhealthy.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:      "ok",
		Version:     version.String(),
		Environment: s.Env,
		UptimeSec:   time.Since(s.Started).Seconds(),
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		resp.Memory = &memSummary{TotalBytes: vm.Total, UsedBytes: vm.Used, UsedPercent: vm.UsedPercent}
	} else {
		s.Logger.WithDefaultLevel(alog.Debug).Printf("health: memory sample failed: %v", err)
	}

	if du, err := disk.Usage("/"); err == nil {
		resp.Disk = &diskSummary{TotalBytes: du.Total, UsedBytes: du.Used, UsedPercent: du.UsedPercent}
	} else {
		s.Logger.WithDefaultLevel(alog.Debug).Printf("health: disk sample failed: %v", err)
	}

	if pct, err := cpu.Percent(0, false); err == nil {
		resp.CPUPercent = pct
	} else {
		s.Logger.WithDefaultLevel(alog.Debug).Printf("health: cpu sample failed: %v", err)
	}

	writeJSON(w, http.StatusOK, resp)
}
