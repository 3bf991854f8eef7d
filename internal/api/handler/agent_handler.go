package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"supplyline/internal/agent"
	"supplyline/internal/aggregate"
	"supplyline/internal/ingest"
	"supplyline/internal/model"
	"supplyline/internal/store"
	"supplyline/pkg/utils"
)

// AgentsConfigUpload is the request body for configuration replacement
type AgentsConfigUpload struct {
	Content string `json:"content"`
}

// RunRequest selects the dataset (and optional filter) whose
// aggregate snapshot feeds the agent prompts.
type RunRequest struct {
	DatasetID string         `json:"datasetId"`
	Criteria  model.Criteria `json:"criteria"`
	RunID     string         `json:"runId,omitempty"` // single-step runs may continue an existing run
}

// PutAgentsConfig replaces the agents configuration
// @Summary Replace the agents configuration
// @Description Parse and store new configuration text. The parsed pipeline fully replaces the previous one; any partially-run execution progress is discarded by contract. On InvalidConfig the previous configuration is kept.
// @Tags agents
// @Accept json
// @Produce json
// @Param config body AgentsConfigUpload true "Configuration text"
// @Success 200 {object} model.Pipeline "Parsed pipeline, all steps idle"
// @Failure 400 {object} map[string]interface{} "Missing agents section"
// @Router /agents [put]
func PutAgentsConfig(w http.ResponseWriter, r *http.Request) {
	var upload AgentsConfigUpload
	if err := json.NewDecoder(r.Body).Decode(&upload); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	pipeline, err := agent.ParseConfig(upload.Content)
	if err != nil {
		if errors.Is(err, agent.ErrInvalidConfig) {
			writeError(w, http.StatusBadRequest, "Configuration has no agents section")
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid configuration")
		return
	}

	if err := store.SaveAgentsConfig(upload.Content); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save configuration")
		return
	}
	writeJSON(w, http.StatusOK, pipeline)
}

// GetAgentsConfig returns the stored configuration and its pipeline
// @Summary Get the agents configuration
// @Tags agents
// @Produce json
// @Success 200 {object} map[string]interface{} "Configuration text and parsed pipeline"
// @Router /agents [get]
func GetAgentsConfig(w http.ResponseWriter, r *http.Request) {
	content, err := store.GetAgentsConfig()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to fetch configuration")
		return
	}

	body := map[string]interface{}{"content": content}
	if content != "" {
		if pipeline, err := agent.ParseConfig(content); err == nil {
			body["pipeline"] = pipeline
		}
	}
	writeJSON(w, http.StatusOK, body)
}

// RunAgents starts a full sequential pipeline run
// @Summary Run all agent steps
// @Description Start a sequential run of every configured step against the selected dataset's aggregate snapshot. Steps run strictly in order; a provider failure marks the step failed and halts the run. Returns the run ID immediately; progress is persisted per step.
// @Tags agents
// @Accept json
// @Produce json
// @Param run body RunRequest true "Dataset and filter selection"
// @Success 200 {object} map[string]interface{} "Run accepted"
// @Failure 400 {object} map[string]interface{} "No configuration or dataset"
// @Router /agents/run [post]
func RunAgents(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	pipeline, env, ok := prepareRun(w, req)
	if !ok {
		return
	}
	if len(pipeline.Steps) == 0 {
		writeError(w, http.StatusBadRequest, "Configuration defines no steps")
		return
	}

	runID := uuid.New().String()
	if err := store.CreateRun(runID, pipeline); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create run")
		return
	}
	env.OnTransition = persistTransition(runID)

	ctx, cancel := context.WithTimeout(context.Background(), utils.ParseDuration(appCfg.RunTimeout))
	activeRuns.add(runID, cancel)

	go func() {
		defer cancel()
		defer activeRuns.remove(runID)

		store.UpdateRunStatus(runID, "running")
		_, err := agent.RunAll(ctx, pipeline, env)
		switch {
		case err == nil:
			store.UpdateRunStatus(runID, "completed")
		case ctx.Err() != nil:
			store.UpdateRunStatus(runID, "cancelled")
		default:
			store.SaveRunError(runID, err)
			store.UpdateRunStatus(runID, "failed")
		}
	}()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"runId":  runID,
		"status": "pending",
		"steps":  len(pipeline.Steps),
	})
}

// RunAgentStep runs a single step synchronously
// @Summary Run one agent step
// @Description Run the step named in the path against the selected dataset. When a run ID is supplied, previously persisted step outputs are restored first so the step sees its predecessor's output; otherwise a fresh run is created.
// @Tags agents
// @Accept json
// @Produce json
// @Param id path string true "Step ID"
// @Param run body RunRequest true "Dataset, filter and optional run selection"
// @Success 200 {object} map[string]interface{} "Run state after the step"
// @Failure 400 {object} map[string]interface{} "Unknown step or missing inputs"
// @Router /agents/steps/{id}/run [post]
func RunAgentStep(w http.ResponseWriter, r *http.Request) {
	stepID := pathSegment(r.URL.Path, 4)
	if stepID == "" {
		writeError(w, http.StatusBadRequest, "Step ID is required")
		return
	}

	var req RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	pipeline, env, ok := prepareRun(w, req)
	if !ok {
		return
	}

	index := -1
	for i, step := range pipeline.Steps {
		if step.ID == stepID {
			index = i
			break
		}
	}
	if index < 0 {
		writeError(w, http.StatusBadRequest, "Unknown step: "+stepID)
		return
	}

	runID := req.RunID
	if runID == "" {
		runID = uuid.New().String()
		if err := store.CreateRun(runID, pipeline); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to create run")
			return
		}
	} else {
		// Restore persisted step state so this step's prompt can see
		// its predecessor's output.
		stored, err := store.GetRunSteps(runID)
		if err != nil {
			writeError(w, http.StatusNotFound, "Run not found")
			return
		}
		for i := range pipeline.Steps {
			if i < len(stored) && stored[i].ID == pipeline.Steps[i].ID {
				pipeline.Steps[i].Status = stored[i].Status
				pipeline.Steps[i].Output = stored[i].Output
			}
		}
	}
	env.OnTransition = persistTransition(runID)

	updated, runErr := agent.RunStep(r.Context(), pipeline, index, env)

	run, err := store.GetRun(runID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to fetch run")
		return
	}
	if runErr != nil {
		run["error"] = runErr.Error()
	}
	run["step"] = updated.Steps[index]
	writeJSON(w, http.StatusOK, run)
}

// GetRun returns a run's status and per-step state
// @Summary Get run
// @Tags runs
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} map[string]interface{} "Run detail"
// @Failure 404 {object} map[string]interface{} "Run not found"
// @Router /runs/{id} [get]
func GetRun(w http.ResponseWriter, r *http.Request) {
	runID := pathSegment(r.URL.Path, 3)
	run, err := store.GetRun(runID)
	if err != nil {
		writeError(w, http.StatusNotFound, "Run not found")
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// GetRunLogs returns a run's log entries
// @Summary Get run logs
// @Tags runs
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {array} map[string]interface{} "Log entries, oldest first"
// @Router /runs/{id}/logs [get]
func GetRunLogs(w http.ResponseWriter, r *http.Request) {
	runID := pathSegment(r.URL.Path, 3)
	logs, err := store.GetRunLogs(runID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to fetch logs")
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

// CancelRun requests cooperative cancellation of a run
// @Summary Cancel run
// @Description No further steps start after cancellation; a step already waiting on the provider is allowed to finish.
// @Tags runs
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} map[string]interface{} "Cancellation requested"
// @Failure 404 {object} map[string]interface{} "No such in-flight run"
// @Router /runs/{id}/cancel [post]
func CancelRun(w http.ResponseWriter, r *http.Request) {
	runID := pathSegment(r.URL.Path, 3)
	if !activeRuns.cancel(runID) {
		writeError(w, http.StatusNotFound, "No in-flight run with that ID")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"runId":  runID,
		"status": "cancelling",
	})
}

// prepareRun loads the stored configuration and dataset, and builds
// the execution environment with the filtered aggregate snapshot.
func prepareRun(w http.ResponseWriter, req RunRequest) (model.Pipeline, agent.Env, bool) {
	content, err := store.GetAgentsConfig()
	if err != nil || content == "" {
		writeError(w, http.StatusBadRequest, "No agents configuration stored")
		return model.Pipeline{}, agent.Env{}, false
	}
	pipeline, err := agent.ParseConfig(content)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Stored configuration is invalid")
		return model.Pipeline{}, agent.Env{}, false
	}

	if req.DatasetID == "" {
		writeError(w, http.StatusBadRequest, "datasetId is required")
		return model.Pipeline{}, agent.Env{}, false
	}
	datasetContent, _, err := store.GetDataset(req.DatasetID)
	if err != nil {
		writeError(w, http.StatusNotFound, "Dataset not found")
		return model.Pipeline{}, agent.Env{}, false
	}
	records, metrics, err := ingest.Parse(datasetContent)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to parse stored dataset")
		return model.Pipeline{}, agent.Env{}, false
	}

	skillDoc, err := appCfg.SkillDoc()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to read skill document")
		return model.Pipeline{}, agent.Env{}, false
	}

	filtered := aggregate.Filter(records, req.Criteria)
	env := agent.Env{
		Snapshot:   aggregate.BuildSnapshot(metrics, filtered, topN(req.Criteria)),
		SkillDoc:   skillDoc,
		Credential: appCfg.OpenAIKey,
		Caller:     caller,
	}
	return pipeline, env, true
}

// persistTransition records every step state change for a run.
func persistTransition(runID string) func(int, model.Step) {
	return func(i int, step model.Step) {
		store.SaveStepState(runID, i, step)
		store.SaveRunLog(runID, "info", "step "+string(step.Status), map[string]interface{}{
			"position": i,
			"stepId":   step.ID,
		})
	}
}
