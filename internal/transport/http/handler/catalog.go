package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"unidoc-hub/internal/app"
	"unidoc-hub/internal/transport/http/response"
)

type CatalogHandler struct {
	catalogService *app.CatalogService
}

func NewCatalogHandler(catalogService *app.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

func (h *CatalogHandler) ListFaculties(c *gin.Context) {
	faculties, err := h.catalogService.ListFaculties(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list faculties failed")
		return
	}
	response.OK(c, faculties)
}

// ListSubjects accepts an optional faculty_id query filter.
func (h *CatalogHandler) ListSubjects(c *gin.Context) {
	subjects, err := h.catalogService.ListSubjects(c.Request.Context(), queryUint(c, "faculty_id"))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list subjects failed")
		return
	}
	response.OK(c, subjects)
}

func (h *CatalogHandler) ListDocumentTypes(c *gin.Context) {
	types, err := h.catalogService.ListDocumentTypes(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list document types failed")
		return
	}
	response.OK(c, types)
}
