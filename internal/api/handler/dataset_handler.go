package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"supplyline/internal/aggregate"
	"supplyline/internal/ingest"
	"supplyline/internal/model"
	"supplyline/internal/store"
	"supplyline/pkg/utils"
)

// DatasetUpload is the request body for dataset creation
type DatasetUpload struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// CreateDataset ingests a raw delimited dataset
// @Summary Upload a dataset
// @Description Parse raw delimited text, persist it with computed metrics. Malformed lines are counted, not rejected; input without a discernible header is refused wholesale and prior state is left unchanged.
// @Tags datasets
// @Accept json
// @Produce json
// @Param dataset body DatasetUpload true "Dataset name and raw content"
// @Success 200 {object} map[string]interface{} "Dataset stored with metrics"
// @Failure 400 {object} map[string]interface{} "Invalid payload or format"
// @Router /datasets [post]
func CreateDataset(w http.ResponseWriter, r *http.Request) {
	var upload DatasetUpload
	if err := json.NewDecoder(r.Body).Decode(&upload); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	if upload.Content == "" {
		writeError(w, http.StatusBadRequest, "Dataset content is required")
		return
	}

	_, metrics, err := ingest.Parse(upload.Content)
	if err != nil {
		if errors.Is(err, ingest.ErrInvalidFormat) {
			writeError(w, http.StatusBadRequest, "Dataset has no discernible header")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to parse dataset")
		return
	}

	id := uuid.New().String()
	if upload.Name == "" {
		upload.Name = "dataset-" + id[:8]
	}
	if err := store.SaveDataset(id, upload.Name, upload.Content, metrics); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save dataset")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":      id,
		"name":    upload.Name,
		"metrics": metrics,
	})
}

// ListDatasets lists stored datasets
// @Summary List datasets
// @Tags datasets
// @Produce json
// @Success 200 {array} map[string]interface{} "Datasets with metrics"
// @Router /datasets [get]
func ListDatasets(w http.ResponseWriter, r *http.Request) {
	datasets, err := store.ListDatasets()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to fetch datasets")
		return
	}
	writeJSON(w, http.StatusOK, datasets)
}

// GetDataset returns one dataset's metrics and parsed records
// @Summary Get dataset
// @Tags datasets
// @Produce json
// @Param id path string true "Dataset ID"
// @Success 200 {object} map[string]interface{} "Dataset detail"
// @Failure 404 {object} map[string]interface{} "Dataset not found"
// @Router /datasets/{id} [get]
func GetDataset(w http.ResponseWriter, r *http.Request) {
	records, metrics, ok := loadDataset(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":      pathSegment(r.URL.Path, 3),
		"metrics": metrics,
		"records": records,
	})
}

// QueryDataset applies filter criteria and returns aggregates
// @Summary Query a dataset
// @Description Filter records by the given criteria and return the filtered records with trend and top-category aggregates.
// @Tags datasets
// @Accept json
// @Produce json
// @Param id path string true "Dataset ID"
// @Param criteria body model.Criteria true "Filter criteria"
// @Success 200 {object} aggregate.View "Filtered view"
// @Failure 404 {object} map[string]interface{} "Dataset not found"
// @Router /datasets/{id}/query [post]
func QueryDataset(w http.ResponseWriter, r *http.Request) {
	var criteria model.Criteria
	if r.Body != nil {
		// An empty body means empty criteria.
		_ = json.NewDecoder(r.Body).Decode(&criteria)
	}

	records, _, ok := loadDataset(w, r)
	if !ok {
		return
	}

	filtered := aggregate.Filter(records, criteria)
	writeJSON(w, http.StatusOK, aggregate.View{
		Records:       filtered,
		Trend:         aggregate.Trend(filtered),
		TopCategories: aggregate.TopCategories(filtered, topN(criteria)),
	})
}

// ExportDataset renders a filtered view as CSV or JSON
// @Summary Export a dataset view
// @Tags datasets
// @Produce json
// @Param id path string true "Dataset ID"
// @Param format query string false "csv or json (default json)"
// @Success 200 {string} string "Rendered export"
// @Failure 404 {object} map[string]interface{} "Dataset not found"
// @Router /datasets/{id}/export [get]
func ExportDataset(w http.ResponseWriter, r *http.Request) {
	records, _, ok := loadDataset(w, r)
	if !ok {
		return
	}

	criteria := criteriaFromQuery(r)
	filtered := aggregate.Filter(records, criteria)
	view := aggregate.View{
		Records:       filtered,
		Trend:         aggregate.Trend(filtered),
		TopCategories: aggregate.TopCategories(filtered, topN(criteria)),
	}

	payload, contentType, err := aggregate.Export(view, r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Write(payload)
}

// loadDataset fetches and re-parses the dataset named in the path.
// Parsing is idempotent, so records are rebuilt from the stored text
// on every read instead of being persisted twice.
func loadDataset(w http.ResponseWriter, r *http.Request) ([]model.Record, model.Metrics, bool) {
	id := pathSegment(r.URL.Path, 3)
	if id == "" {
		writeError(w, http.StatusBadRequest, "Dataset ID is required")
		return nil, model.Metrics{}, false
	}

	content, _, err := store.GetDataset(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "Dataset not found")
		return nil, model.Metrics{}, false
	}

	records, metrics, err := ingest.Parse(content)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to parse stored dataset")
		return nil, model.Metrics{}, false
	}
	return records, metrics, true
}

func criteriaFromQuery(r *http.Request) model.Criteria {
	q := r.URL.Query()
	c := model.Criteria{
		Supplier: q.Get("supplier"),
		Category: q.Get("category"),
		License:  q.Get("license"),
		Model:    q.Get("model"),
		Lot:      q.Get("lot"),
		Serial:   q.Get("serial"),
		Customer: q.Get("customer"),
		DateFrom: q.Get("dateFrom"),
		DateTo:   q.Get("dateTo"),
	}
	if n := int(utils.Numeric(q.Get("topN"))); n > 0 {
		c.TopN = n
	}
	return c
}

func topN(c model.Criteria) int {
	if c.TopN <= 0 {
		return 5
	}
	return c.TopN
}
