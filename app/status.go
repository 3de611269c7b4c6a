package app

import (
	"fmt"
	"net/http"
	"runtime"
	"sync"
	"time"
)

var startTime = time.Now()

// StatusCheck represents a single status check result
type StatusCheck struct {
	Name    string `json:"name"`
	Status  bool   `json:"status"`
	Details string `json:"details,omitempty"`
}

// StatusResponse represents the full status response
type StatusResponse struct {
	Healthy    bool           `json:"healthy"`
	Uptime     string         `json:"uptime"`
	GoVersion  string         `json:"go_version"`
	Goroutines int            `json:"goroutines"`
	Checks     []StatusCheck  `json:"checks"`
	APICalls   []*APILogEntry `json:"api_calls"`
	SysLog     []*SysLogEntry `json:"syslog"`
}

var (
	checksMu sync.RWMutex
	checks   = map[string]func() StatusCheck{}
	order    []string
)

// RegisterCheck adds a named check reported by /status.
func RegisterCheck(name string, fn func() StatusCheck) {
	checksMu.Lock()
	defer checksMu.Unlock()
	if _, ok := checks[name]; !ok {
		order = append(order, name)
	}
	checks[name] = fn
}

// StatusHandler handles the /status endpoint
func StatusHandler(w http.ResponseWriter, r *http.Request) {
	RespondJSON(w, buildStatus())
}

func buildStatus() StatusResponse {
	checksMu.RLock()
	list := make([]StatusCheck, 0, len(order))
	for _, name := range order {
		list = append(list, checks[name]())
	}
	checksMu.RUnlock()

	// checks report optional capabilities; a missing one does not make the server unhealthy
	return StatusResponse{
		Healthy:    true,
		Uptime:     formatUptime(time.Since(startTime)),
		GoVersion:  runtime.Version(),
		Goroutines: runtime.NumGoroutine(),
		Checks:     list,
		APICalls:   tail(GetAPILog(), 20),
		SysLog:     tail(GetSysLog(), 20),
	}
}

func tail[T any](entries []T, n int) []T {
	if len(entries) > n {
		return entries[:n]
	}
	return entries
}

func formatUptime(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}
