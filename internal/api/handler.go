package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"rftrank/internal"
	"rftrank/internal/config"
	"rftrank/internal/ingest"
	"rftrank/internal/ranking"
	"rftrank/internal/store"
	"rftrank/internal/upstream"
)

const maxUploadBytes = 32 << 20

// Handler serves all /api/v1/* endpoints: table uploads, merge/append,
// single and batch ranking, and the upstream sync.
type Handler struct {
	cfg    config.Config
	merger *ingest.Merger
	store  *store.Store
	db     *store.DB
	engine *ranking.Engine
	sync   *upstream.SyncService
	mux    *http.ServeMux
}

// New wires a Handler and registers all routes. db may be nil, in which case
// snapshots are not persisted.
func New(cfg config.Config, merger *ingest.Merger, st *store.Store, db *store.DB, engine *ranking.Engine, sync *upstream.SyncService) http.Handler {
	h := &Handler{cfg: cfg, merger: merger, store: st, db: db, engine: engine, sync: sync, mux: http.NewServeMux()}

	h.mux.HandleFunc("/api/v1/health", h.health)
	h.mux.HandleFunc("/api/v1/tables/", h.tables) // subtree, extracts {type}
	h.mux.HandleFunc("/api/v1/merge", h.merge)
	h.mux.HandleFunc("/api/v1/append", h.append)
	h.mux.HandleFunc("/api/v1/rank", h.rank)
	h.mux.HandleFunc("/api/v1/rank/batch", h.rankBatch)
	h.mux.HandleFunc("/api/v1/sync", h.syncUpstream)
	h.mux.HandleFunc("/api/v1/records", h.records)

	return withCORS(h.mux)
}

// withCORS mirrors the legacy service's allow-all policy; the browser UI is
// served from a different origin.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// --- route handlers ---------------------------------------------------------

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	resp := HealthResponse{
		Records:      h.store.Count(),
		StagedTables: map[string]bool{},
	}
	for source, staged := range h.merger.StagedSources() {
		resp.StagedTables[string(source)] = staged
	}
	if h.db != nil {
		if last, err := h.db.GetMetadata("store.last_merge"); err == nil && last != nil {
			resp.LastMergeTime = *last
		}
	}
	jsonResp(w, http.StatusOK, resp)
}

// tables handles POST /api/v1/tables/{type} (upload) and
// GET /api/v1/tables/{type}.csv (download of the staged normalized table).
func (h *Handler) tables(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/tables/")

	if r.Method == http.MethodGet && strings.HasSuffix(rest, ".csv") {
		h.tableCSV(w, strings.TrimSuffix(rest, ".csv"))
		return
	}
	if r.Method != http.MethodPost {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	source, ok := sourceType(rest)
	if !ok {
		jsonErr(w, http.StatusNotFound, "unknown table type: "+rest)
		return
	}

	blob, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxUploadBytes))
	if err != nil {
		jsonErr(w, http.StatusBadRequest, "read upload: "+err.Error())
		return
	}

	raw, err := ingest.ReadTable(uploadFormat(r), blob)
	if err != nil {
		jsonErr(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := ingest.Normalize(source, raw, h.cfg.ThroughputCeilingKg)
	if err != nil {
		var schemaErr internal.SchemaError
		if errors.As(err, &schemaErr) {
			jsonErr(w, http.StatusBadRequest, schemaErr.Error())
			return
		}
		jsonErr(w, http.StatusBadRequest, err.Error())
		return
	}

	h.merger.Stage(res.Table)
	slog.Info("table staged", "source", source, "kept", res.Kept, "dropped", res.Dropped)
	jsonResp(w, http.StatusOK, UploadResponse{Source: string(source), Kept: res.Kept, Dropped: res.Dropped})
}

func (h *Handler) tableCSV(w http.ResponseWriter, name string) {
	source, ok := sourceType(name)
	if !ok {
		jsonErr(w, http.StatusNotFound, "unknown table type: "+name)
		return
	}
	table, staged := h.merger.StagedTable(source)
	if !staged {
		jsonErr(w, http.StatusNotFound, "no staged table: "+name)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`.csv"`)
	if err := ingest.WriteCSV(table, w); err != nil {
		slog.Error("csv export failed", "source", source, "err", err)
	}
}

func (h *Handler) merge(w http.ResponseWriter, r *http.Request) {
	h.runMerge(w, r, false)
}

func (h *Handler) append(w http.ResponseWriter, r *http.Request) {
	h.runMerge(w, r, true)
}

func (h *Handler) runMerge(w http.ResponseWriter, r *http.Request, appendMode bool) {
	if r.Method != http.MethodPost {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	records, err := h.merger.Merge()
	if err != nil {
		var mergeErr internal.MergeError
		if errors.As(err, &mergeErr) {
			jsonErr(w, http.StatusBadRequest, mergeErr.Error())
			return
		}
		jsonErr(w, http.StatusInternalServerError, err.Error())
		return
	}

	if appendMode {
		h.store.Append(records)
	} else {
		h.store.Load(records)
	}

	if err := h.persist(); err != nil {
		jsonErr(w, http.StatusInternalServerError, "persist snapshot: "+err.Error())
		return
	}

	slog.Info("store updated", "append", appendMode, "merged", len(records), "total", h.store.Count())
	jsonResp(w, http.StatusOK, MergeResponse{Records: h.store.Count()})
}

func (h *Handler) persist() error {
	if h.db == nil {
		return nil
	}
	if err := h.db.SaveSnapshot(h.store.All()); err != nil {
		return err
	}
	return h.db.SetMetadata("store.last_merge", time.Now().UTC().Format(time.RFC3339))
}

func (h *Handler) rank(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req RankRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonErr(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.ProductName) == "" {
		jsonErr(w, http.StatusBadRequest, "product_name is required")
		return
	}

	res, err := h.engine.Rank(req.ProductName)
	if err != nil {
		var (
			notFound  internal.NotFoundError
			noPassing internal.NoPassingDataError
			noData    internal.NoThroughputDataError
		)
		switch {
		case errors.As(err, &noData):
			// Soft outcome: the product exists, nothing is rankable.
			jsonResp(w, http.StatusOK, WarningResponse{Warning: noData.Error()})
		case errors.As(err, &notFound), errors.As(err, &noPassing):
			jsonErr(w, http.StatusNotFound, err.Error())
		default:
			jsonErr(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	jsonResp(w, http.StatusOK, res)
}

func (h *Handler) rankBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var list internal.ProductList
	if err := json.NewDecoder(r.Body).Decode(&list); err != nil {
		jsonErr(w, http.StatusBadRequest, "invalid request body")
		return
	}

	jsonResp(w, http.StatusOK, h.engine.RankList(list))
}

func (h *Handler) syncUpstream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	resolved, err := h.sync.FetchAndRank(r.Context())
	if err != nil {
		var upErr internal.UpstreamError
		if errors.As(err, &upErr) && upErr.Status != 0 {
			jsonErr(w, http.StatusBadGateway, upErr.Error())
			return
		}
		jsonErr(w, http.StatusBadGateway, err.Error())
		return
	}

	jsonResp(w, http.StatusOK, resolved)
}

func (h *Handler) records(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	product := strings.TrimSpace(r.URL.Query().Get("product"))
	var records []internal.ProcessRecord
	if product == "" {
		records = h.store.All()
	} else {
		records = h.store.FindByProduct(product)
	}

	w.Header().Set("Content-Type", "text/csv")
	if err := ingest.WriteCSV(ingest.RecordsTable(records), w); err != nil {
		slog.Error("records export failed", "err", err)
	}
}

// --- helpers ----------------------------------------------------------------

func sourceType(name string) (internal.SourceType, bool) {
	switch internal.SourceType(name) {
	case internal.SourceParameter, internal.SourceExtrusion, internal.SourceMilling, internal.SourceQuality:
		return internal.SourceType(name), true
	default:
		return "", false
	}
}

// uploadFormat picks the table format from ?format= or Content-Type.
func uploadFormat(r *http.Request) string {
	if f := strings.TrimSpace(r.URL.Query().Get("format")); f != "" {
		return f
	}
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch ct {
	case "text/csv":
		return "csv"
	case "text/html":
		return "html"
	case "application/vnd.ms-excel":
		return "html" // classic MES trick: .xls that is an HTML table
	default:
		return "xlsx"
	}
}

func jsonResp(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Detail: msg})
}
