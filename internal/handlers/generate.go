package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/benvon/sparkreply/internal/generation"
	"github.com/benvon/sparkreply/internal/models"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Generator is the generation pipeline
type Generator interface {
	Generate(ctx context.Context, identity *models.Identity, ct models.ContentType, input models.GenerationRequest) (*generation.Result, error)
}

// GenerateHandler serves the six generation endpoints
type GenerateHandler struct {
	generator Generator
	logger    *zap.Logger
}

// NewGenerateHandler creates a new generate handler
func NewGenerateHandler(generator Generator, logger *zap.Logger) *GenerateHandler {
	return &GenerateHandler{generator: generator, logger: logger}
}

// RegisterRoutes registers one POST route per content type, named by its slug
// The router should already have the /api/v1/generate prefix
func (h *GenerateHandler) RegisterRoutes(r *mux.Router) {
	for _, ct := range models.AllContentTypes {
		r.HandleFunc("/"+ct.Slug(), h.handle(ct)).Methods(http.MethodPost)
	}
}

func (h *GenerateHandler) handle(ct models.ContentType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := requireIdentity(w, r)
		if identity == nil {
			return
		}

		var input models.GenerationRequest
		if err := decodeBody(r, &input); err != nil {
			respondJSONError(w, http.StatusBadRequest, "invalid_request", "Request body must be valid JSON")
			return
		}

		result, err := h.generator.Generate(r.Context(), identity, ct, input)
		if err != nil {
			respondServiceError(w, h.logger, err, "generate "+ct.Slug())
			return
		}

		respondJSON(w, http.StatusOK, renderResult(result))
	}
}

// renderResult lays variants out under the type's response key: an object for keyed
// types and an array for list types.
func renderResult(result *generation.Result) map[string]any {
	data := map[string]any{
		"id":              result.ID,
		"content_type":    result.ContentType,
		"input":           result.Input,
		"extraction_tier": result.Tier,
		"created_at":      result.CreatedAt.Format(time.RFC3339),
	}
	if result.Spec.Shape == generation.ShapeKeyed {
		data[result.Spec.ResponseKey] = result.Variants.Map()
	} else {
		data[result.Spec.ResponseKey] = result.Variants.Texts()
	}
	if result.Target != nil {
		data["target"] = result.Target
	}
	if result.ContentType == models.ContentTypeThreadRewrite {
		original := result.Original
		if original == nil {
			original = []string{}
		}
		data["original"] = original
	}
	return data
}
