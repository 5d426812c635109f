package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/airbusgeo/s2-exporter/catalog"
	"github.com/airbusgeo/s2-exporter/catalog/entities"
	db "github.com/airbusgeo/s2-exporter/interface/database"
	"github.com/airbusgeo/s2-exporter/location"
	"github.com/airbusgeo/s2-exporter/service/log"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// NewHandler returns the routes of the serve mode
func (p *Pipeline) NewHandler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/locations", p.ListLocationsHandler).Methods("GET")
	r.HandleFunc("/exports", p.CreateExportsHandler).Methods("POST")
	r.HandleFunc("/exports/{run}", p.ListJobsHandler).Methods("GET")
	p.Catalog.AddHandler(r, p.DecodeQuery)
	return r
}

// DecodeQuery creates the query of the catalog from a JSON config (see Config)
func (p *Pipeline) DecodeQuery(ctx context.Context, data []byte) (entities.SceneQuery, error) {
	cfg, err := DecodeConfig(data)
	if err != nil {
		return entities.SceneQuery{}, err
	}
	q, _, err := cfg.Query(p.Locations)
	return q, err
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Logger(ctx).Error("writeJSON.Encode", zap.Error(err))
	}
}

// ListLocationsHandler lists the known locations, sorted by key
func (p *Pipeline) ListLocationsHandler(w http.ResponseWriter, req *http.Request) {
	locations := make([]location.Location, 0, len(p.Locations))
	for _, key := range p.Locations.Keys() {
		locations = append(locations, p.Locations[key])
	}
	writeJSON(req.Context(), w, 200, locations)
}

// CreateExportsHandler runs the export of the config sent as body
func (p *Pipeline) CreateExportsHandler(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	data, err := io.ReadAll(req.Body)
	if err != nil {
		w.WriteHeader(400)
		fmt.Fprintf(w, "%v", err)
		return
	}
	cfg := DefaultConfig()
	if len(data) > 0 {
		if cfg, err = DecodeConfig(data); err != nil {
			w.WriteHeader(400)
			fmt.Fprintf(w, "%v", err)
			return
		}
	}
	if err := cfg.Validate(p.Locations); err != nil {
		w.WriteHeader(400)
		fmt.Fprintf(w, "%v", err)
		return
	}

	report, err := p.Run(ctx, cfg)
	switch {
	case err == nil:
		writeJSON(ctx, w, 201, report)
	case report != nil:
		// Some jobs have been rejected by the backend
		log.Logger(ctx).Warn("CreateExportsHandler", zap.Error(err))
		writeJSON(ctx, w, 502, report)
	case errors.As(err, &catalog.ErrNoScenesFound{}):
		w.WriteHeader(404)
		fmt.Fprintf(w, "%v", err)
	default:
		log.Logger(ctx).Error("CreateExportsHandler", zap.Error(err))
		w.WriteHeader(500)
		fmt.Fprintf(w, "%v", err)
	}
}

// ListJobsHandler lists the jobs recorded for a run
func (p *Pipeline) ListJobsHandler(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	if p.Ledger == nil {
		w.WriteHeader(501)
		fmt.Fprint(w, "no ledger is configured")
		return
	}
	jobs, err := p.Jobs(ctx, mux.Vars(req)["run"])
	if errors.As(err, &db.ErrNotFound{}) {
		w.WriteHeader(404)
		return
	}
	if err != nil {
		log.Logger(ctx).Sugar().Warnf("ListJobs: %v", err)
		w.WriteHeader(500)
		fmt.Fprintf(w, "%v", err)
		return
	}
	writeJSON(ctx, w, 200, jobs)
}
