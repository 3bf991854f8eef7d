package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"supplyline/internal/config"
	"supplyline/internal/llm"
)

var (
	appCfg *config.Config
	caller llm.Caller
)

// Init wires the handlers' collaborators: the app config supplying
// the provider credential and skill document, and the model caller.
func Init(cfg *config.Config, c llm.Caller) {
	appCfg = cfg
	caller = c
}

// runRegistry tracks cancel functions of in-flight runs so the cancel
// endpoint can stop further steps from starting.
type runRegistry struct {
	mu      sync.Mutex
	cancels map[string]context.CancelFunc
}

var activeRuns = runRegistry{cancels: make(map[string]context.CancelFunc)}

func (r *runRegistry) add(runID string, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancels[runID] = cancel
}

func (r *runRegistry) remove(runID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.cancels, runID)
}

func (r *runRegistry) cancel(runID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	cancel, ok := r.cancels[runID]
	if ok {
		cancel()
	}
	return ok
}

// pathSegment returns the i-th slash-separated segment of the request
// path, "" when the path is shorter.
func pathSegment(path string, i int) string {
	segs := strings.Split(strings.Trim(path, "/"), "/")
	if i < 0 || i >= len(segs) {
		return ""
	}
	return segs[i]
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{"error": message})
}
