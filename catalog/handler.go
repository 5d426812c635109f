package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/airbusgeo/s2-exporter/catalog/entities"
	"github.com/airbusgeo/s2-exporter/service/log"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const queryJSONField = "query"

// QueryDecoder creates the query from the JSON sent by the client
type QueryDecoder func(ctx context.Context, data []byte) (entities.SceneQuery, error)

func (c *Catalog) AddHandler(r *mux.Router, decode QueryDecoder) {
	r.HandleFunc("/catalog/scenes", c.ScenesHandler(decode)).Methods("POST")
}

// readField reads the field from the form or, if the request is not a form, the whole body
func readField(req *http.Request, field string) ([]byte, error) {
	if req.FormValue(field) != "" {
		return []byte(req.FormValue(field)), nil
	}
	if file, _, err := req.FormFile(field); err == nil {
		defer file.Close()
		var buf bytes.Buffer
		_, err := io.Copy(&buf, file)
		return buf.Bytes(), err
	}
	return io.ReadAll(req.Body)
}

type scenesResponse struct {
	Selection
	Scenes entities.Scenes `json:"scenes"`
}

// ScenesHandler lists the scenes matching the query, sorted by cloud cover
func (c *Catalog) ScenesHandler(decode QueryDecoder) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		ctx := req.Context()
		data, err := readField(req, queryJSONField)
		if err != nil || len(data) == 0 {
			w.WriteHeader(400)
			fmt.Fprintf(w, "missing required field: '%s' (application/json)", queryJSONField)
			return
		}
		q, err := decode(ctx, data)
		if err != nil {
			w.WriteHeader(400)
			fmt.Fprintf(w, "%v", err)
			return
		}

		scenes, err := c.Inventory(ctx, q)
		if err != nil {
			log.Logger(ctx).Error("ScenesHandler", zap.Error(err))
			w.WriteHeader(500)
			fmt.Fprintf(w, "%v", err)
			return
		}
		selection, err := Select(q, scenes)
		if err != nil {
			if errors.As(err, &ErrNoScenesFound{}) {
				w.WriteHeader(404)
			} else {
				w.WriteHeader(500)
			}
			fmt.Fprintf(w, "%v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(scenesResponse{Selection: selection, Scenes: selection.Ranked}); err != nil {
			log.Logger(ctx).Error("ScenesHandler.Encode", zap.Error(err))
		}
	}
}
