package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"gopkg.in/yaml.v3"
)

// OpenAPIHandler serves the embedded API description as YAML and JSON
type OpenAPIHandler struct {
	yamlDoc []byte
	jsonDoc []byte
	err     error
}

// NewOpenAPIHandler converts the YAML document to JSON once. A document that fails to
// parse is still served as YAML; the JSON route then reports the parse failure.
func NewOpenAPIHandler(doc []byte) *OpenAPIHandler {
	h := &OpenAPIHandler{yamlDoc: doc}
	if len(doc) == 0 {
		return h
	}
	var parsed map[string]any
	if h.err = yaml.Unmarshal(doc, &parsed); h.err == nil {
		h.jsonDoc, h.err = json.Marshal(parsed)
	}
	return h
}

// RegisterRoutes mounts the document under /api/v1 without authentication
func (h *OpenAPIHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/v1/openapi.yaml", h.serve("application/yaml", false)).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/openapi.json", h.serve("application/json", true)).Methods(http.MethodGet)
}

func (h *OpenAPIHandler) serve(contentType string, asJSON bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if len(h.yamlDoc) == 0 {
			respondJSONError(w, http.StatusNotFound, "not_found", "API description not available")
			return
		}
		body := h.yamlDoc
		if asJSON {
			if h.err != nil {
				respondJSONError(w, http.StatusInternalServerError, "internal_error", "API description is malformed")
				return
			}
			body = h.jsonDoc
		}
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Cache-Control", "public, max-age=300")
		_, _ = w.Write(body)
	}
}
