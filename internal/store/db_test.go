package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supplyline/internal/model"
)

func initTestDB(t *testing.T) {
	t.Helper()
	require.NoError(t, InitDB(":memory:"))
}

func TestDatasetRoundTrip(t *testing.T) {
	initTestDB(t)

	metrics := model.Metrics{TotalRows: 3, ParsedRows: 2, ParseFailures: 1, TotalUnits: 15, UniqueSuppliers: 1, DateStart: "20240101", DateEnd: "20240102"}
	require.NoError(t, SaveDataset("ds1", "january", "date,qty\n20240101,1\n", metrics))

	content, got, err := GetDataset("ds1")
	require.NoError(t, err)
	assert.Equal(t, "date,qty\n20240101,1\n", content)
	assert.Equal(t, metrics, got)

	list, err := ListDatasets()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "january", list[0]["name"])
}

func TestAgentsConfigUpsert(t *testing.T) {
	initTestDB(t)

	content, err := GetAgentsConfig()
	require.NoError(t, err)
	assert.Empty(t, content)

	require.NoError(t, SaveAgentsConfig("agents:\n  - id: a\n"))
	require.NoError(t, SaveAgentsConfig("agents:\n  - id: b\n"))

	content, err = GetAgentsConfig()
	require.NoError(t, err)
	assert.Equal(t, "agents:\n  - id: b\n", content)
}

func TestRunLifecycle(t *testing.T) {
	initTestDB(t)

	pipeline := model.Pipeline{Steps: []model.Step{
		{ID: "classify", Status: model.StepIdle},
		{ID: "summarize", Status: model.StepIdle},
	}}
	require.NoError(t, CreateRun("run1", pipeline))

	steps, err := GetRunSteps("run1")
	require.NoError(t, err)
	require.Len(t, steps, 2)
	assert.Equal(t, model.StepIdle, steps[0].Status)

	done := pipeline.Steps[0]
	done.Status = model.StepCompleted
	done.Output = "the finding"
	require.NoError(t, SaveStepState("run1", 0, done))
	require.NoError(t, UpdateRunStatus("run1", "completed"))

	run, err := GetRun("run1")
	require.NoError(t, err)
	assert.Equal(t, "completed", run["status"])

	runSteps := run["steps"].([]map[string]interface{})
	require.Len(t, runSteps, 2)
	assert.Equal(t, "completed", runSteps[0]["status"])
	assert.Equal(t, "the finding", runSteps[0]["output"])
	assert.Equal(t, "idle", runSteps[1]["status"])
}

func TestRunLogs(t *testing.T) {
	initTestDB(t)

	require.NoError(t, CreateRun("run2", model.Pipeline{Steps: []model.Step{{ID: "a"}}}))
	require.NoError(t, SaveRunLog("run2", "info", "step running", map[string]interface{}{"position": 0}))
	require.NoError(t, SaveRunLog("run2", "info", "step completed", map[string]interface{}{"position": 0}))

	logs, err := GetRunLogs("run2")
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "step running", logs[0]["message"])
}

func TestGetRunStepsMissingRun(t *testing.T) {
	initTestDB(t)
	_, err := GetRunSteps("nope")
	assert.Error(t, err)
}
