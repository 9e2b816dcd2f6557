package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
)

const sampleDoc = `openapi: 3.0.3
info:
  title: sample
  version: "1"
paths:
  /healthz:
    get:
      responses:
        "200":
          description: ok
`

func TestOpenAPIHandler(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		doc         string
		path        string
		wantStatus  int
		wantType    string
		wantVersion string
	}{
		{name: "yaml", doc: sampleDoc, path: "/api/v1/openapi.yaml", wantStatus: http.StatusOK, wantType: "application/yaml"},
		{name: "json", doc: sampleDoc, path: "/api/v1/openapi.json", wantStatus: http.StatusOK, wantType: "application/json", wantVersion: "3.0.3"},
		{name: "missing document", doc: "", path: "/api/v1/openapi.json", wantStatus: http.StatusNotFound, wantType: "application/json"},
		{name: "malformed document as json", doc: "openapi: [", path: "/api/v1/openapi.json", wantStatus: http.StatusInternalServerError, wantType: "application/json"},
		{name: "malformed document as yaml", doc: "openapi: [", path: "/api/v1/openapi.yaml", wantStatus: http.StatusOK, wantType: "application/yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			router := mux.NewRouter()
			NewOpenAPIHandler([]byte(tt.doc)).RegisterRoutes(router)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if rec.Code != tt.wantStatus {
				t.Fatalf("Expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			if got := rec.Header().Get("Content-Type"); got != tt.wantType {
				t.Errorf("Expected Content-Type %q, got %q", tt.wantType, got)
			}
			if tt.wantVersion == "" {
				return
			}
			var doc struct {
				OpenAPI string `json:"openapi"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
				t.Fatalf("Failed to decode JSON document: %v", err)
			}
			if doc.OpenAPI != tt.wantVersion {
				t.Errorf("Expected openapi %q, got %q", tt.wantVersion, doc.OpenAPI)
			}
		})
	}
}
