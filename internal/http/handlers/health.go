package handlers

import (
	"context"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/jmylchreest/themesd/internal/database"
	"github.com/jmylchreest/themesd/internal/service"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// slowDatabaseThreshold marks a ping as degraded.
const slowDatabaseThreshold = 100 * time.Millisecond

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	version   string
	startTime time.Time
	db        *database.DB
	themes    *service.ThemeService
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(version string) *HealthHandler {
	return &HealthHandler{
		version:   version,
		startTime: time.Now(),
	}
}

// WithDB sets the account store checked by the probes.
func (h *HealthHandler) WithDB(db *database.DB) *HealthHandler {
	h.db = db
	return h
}

// WithThemes sets the theme service checked by the probes.
func (h *HealthHandler) WithThemes(themes *service.ThemeService) *HealthHandler {
	h.themes = themes
	return h
}

// HealthInput is the input for the health check endpoint.
type HealthInput struct{}

// HealthOutput is the output for the health check endpoint.
type HealthOutput struct {
	Body HealthResponse
}

// LivezInput is the input for the liveness probe.
type LivezInput struct{}

// LivezOutput is the output for the liveness probe.
type LivezOutput struct {
	Body LivezResponse
}

// ReadyzInput is the input for the readiness probe.
type ReadyzInput struct{}

// ReadyzOutput is the output for the readiness probe.
type ReadyzOutput struct {
	Status int
	Body   ReadyzResponse
}

// Register registers the health routes with the API.
func (h *HealthHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "getLivez",
		Method:      http.MethodGet,
		Path:        "/livez",
		Summary:     "Liveness probe",
		Tags:        []string{"System"},
	}, h.GetLivez)

	huma.Register(api, huma.Operation{
		OperationID: "getReadyz",
		Method:      http.MethodGet,
		Path:        "/readyz",
		Summary:     "Readiness probe",
		Description: "Reports whether the account store and theme registry are reachable",
		Tags:        []string{"System"},
	}, h.GetReadyz)

	huma.Register(api, huma.Operation{
		OperationID: "getHealth",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Description: "Returns the health status of the service including system metrics",
		Tags:        []string{"System"},
	}, h.GetHealth)
}

// GetLivez always reports ok while the process is serving.
func (h *HealthHandler) GetLivez(_ context.Context, _ *LivezInput) (*LivezOutput, error) {
	return &LivezOutput{Body: LivezResponse{Status: "ok"}}, nil
}

// GetReadyz reports ready only when every component is ok.
func (h *HealthHandler) GetReadyz(ctx context.Context, _ *ReadyzInput) (*ReadyzOutput, error) {
	components := map[string]string{
		"database": "not_configured",
		"themes":   "not_configured",
	}

	if h.db != nil {
		components["database"] = "ok"
		if err := h.db.Ping(ctx); err != nil {
			components["database"] = "error"
		}
	}

	if h.themes != nil {
		components["themes"] = "ok"
		if _, err := h.themes.ListThemes(ctx); err != nil {
			components["themes"] = "error"
		}
	}

	out := &ReadyzOutput{
		Status: http.StatusOK,
		Body:   ReadyzResponse{Status: "ready", Components: components},
	}
	for _, state := range components {
		if state != "ok" {
			out.Status = http.StatusServiceUnavailable
			out.Body.Status = "not_ready"
			break
		}
	}
	return out, nil
}

// GetHealth returns the health status of the service.
func (h *HealthHandler) GetHealth(ctx context.Context, _ *HealthInput) (*HealthOutput, error) {
	now := time.Now()
	uptime := now.Sub(h.startTime)

	dbHealth := h.getDatabaseHealth(ctx)
	themesHealth := h.getThemesHealth(ctx)

	status := "healthy"
	if dbHealth.Status == "error" || themesHealth.Status == "error" {
		status = "degraded"
	}

	return &HealthOutput{
		Body: HealthResponse{
			Status:        status,
			Timestamp:     now.UTC().Format(time.RFC3339),
			Version:       h.version,
			Uptime:        uptime.Round(time.Second).String(),
			UptimeSeconds: uptime.Seconds(),
			CPUInfo:       getCPUInfo(),
			Memory:        getMemoryInfo(),
			Database:      dbHealth,
			Themes:        themesHealth,
		},
	}, nil
}

func getCPUInfo() CPUInfo {
	cores := runtime.NumCPU()
	info := CPUInfo{Cores: cores}

	loadAvg, err := load.Avg()
	if err == nil && loadAvg != nil {
		info.Load1Min = loadAvg.Load1
		info.Load5Min = loadAvg.Load5
		info.Load15Min = loadAvg.Load15
		if cores > 0 {
			info.LoadPercentage1Min = (loadAvg.Load1 / float64(cores)) * 100
		}
	}

	return info
}

func getMemoryInfo() MemoryInfo {
	info := MemoryInfo{}

	vmStat, err := mem.VirtualMemory()
	if err == nil && vmStat != nil {
		info.TotalMemoryMB = float64(vmStat.Total) / 1024 / 1024
		info.UsedMemoryMB = float64(vmStat.Used) / 1024 / 1024
		info.AvailableMemoryMB = float64(vmStat.Available) / 1024 / 1024
	}

	proc, err := process.NewProcess(int32(os.Getpid()))
	if err == nil {
		if memInfo, err := proc.MemoryInfo(); err == nil && memInfo != nil {
			info.ProcessMemoryMB = float64(memInfo.RSS) / 1024 / 1024
		}
	}

	return info
}

func (h *HealthHandler) getDatabaseHealth(ctx context.Context) DatabaseHealth {
	health := DatabaseHealth{Status: "ok"}

	if h.db == nil {
		health.Status = "unknown"
		return health
	}
	health.Driver = h.db.Driver()

	sqlDB, err := h.db.DB.DB()
	if err != nil {
		health.Status = "error"
		return health
	}

	stats := sqlDB.Stats()
	health.MaxConnections = stats.MaxOpenConnections
	health.ActiveConnections = stats.InUse
	health.IdleConnections = stats.Idle

	start := time.Now()
	err = sqlDB.PingContext(ctx)
	elapsed := time.Since(start)
	health.ResponseTimeMS = float64(elapsed.Microseconds()) / 1000

	switch {
	case err != nil:
		health.Status = "error"
	case elapsed > slowDatabaseThreshold:
		health.Status = "slow"
	}

	return health
}

func (h *HealthHandler) getThemesHealth(ctx context.Context) ThemesHealth {
	if h.themes == nil {
		return ThemesHealth{Status: "unknown"}
	}

	health := ThemesHealth{Status: "ok", Active: h.themes.ActiveTheme()}
	entries, err := h.themes.ListThemes(ctx)
	if err != nil {
		health.Status = "error"
		return health
	}
	health.Installed = len(entries)
	return health
}
