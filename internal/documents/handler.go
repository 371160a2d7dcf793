package documents

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"cvreview-backend/internal/server/respond"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches document routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/documents", h.create)
	rg.GET("/documents", h.list)
	rg.GET("/documents/:id", h.get)
	rg.POST("/documents/:id/suggestions/apply", h.applySuggestion)
}

type createRequest struct {
	Title  string         `json:"title"`
	CVData map[string]any `json:"cvData"`
}

func (h *Handler) create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if req.CVData == nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "cvData is required", nil)
		return
	}

	doc, err := h.Svc.Create(c.Request.Context(), req.Title, req.CVData)
	if err != nil {
		h.fail(c, err, "failed to create document")
		return
	}
	respond.JSON(c, http.StatusCreated, toResponse(doc))
}

func (h *Handler) get(c *gin.Context) {
	doc, err := h.Svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err, "failed to fetch document")
		return
	}
	respond.OK(c, toResponse(doc))
}

func (h *Handler) list(c *gin.Context) {
	limit := 20
	offset := 0
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}

	docs, err := h.Svc.List(c.Request.Context(), limit, offset)
	if err != nil {
		h.fail(c, err, "failed to list documents")
		return
	}
	resp := make([]DocumentResponse, 0, len(docs))
	for _, doc := range docs {
		resp = append(resp, toResponse(doc))
	}
	respond.OK(c, resp)
}

type applyRequest struct {
	FieldPath     string `json:"fieldPath"`
	SuggestedText string `json:"suggestedText"`
}

func (h *Handler) applySuggestion(c *gin.Context) {
	var req applyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	applied, err := h.Svc.ApplySuggestion(c.Request.Context(), c.Param("id"), req.FieldPath, req.SuggestedText)
	if err != nil {
		h.fail(c, err, "failed to apply suggestion")
		return
	}
	respond.OK(c, ApplyResponse{
		Document: toResponse(applied.Document),
		Diff:     applied.Segments,
	})
}

func (h *Handler) fail(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", fallback, nil)
	}
}
