package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"unidoc-hub/internal/app"
	"unidoc-hub/internal/repository"
	"unidoc-hub/internal/transport/http/response"
)

type DocumentHandler struct {
	documentService *app.DocumentService
}

type RejectDocumentRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

func NewDocumentHandler(documentService *app.DocumentService) *DocumentHandler {
	return &DocumentHandler{documentService: documentService}
}

func (h *DocumentHandler) List(c *gin.Context) {
	page, err := h.documentService.ListActive(c.Request.Context(), repository.DocumentFilter{
		SubjectID: queryUint(c, "subject_id"),
		FacultyID: queryUint(c, "faculty_id"),
		Page:      queryInt(c, "page", 1),
		PageSize:  queryInt(c, "page_size", 20),
	})
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list documents failed")
		return
	}
	response.OK(c, page)
}

func (h *DocumentHandler) Search(c *gin.Context) {
	docs, err := h.documentService.Search(c.Request.Context(), c.Query("q"), queryInt(c, "limit", 0))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "search documents failed")
		return
	}
	response.OK(c, docs)
}

func (h *DocumentHandler) Recommended(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}
	docs, err := h.documentService.Recommended(c.Request.Context(), userID, queryInt(c, "limit", 0))
	if err != nil {
		writeDocumentError(c, err, "recommend documents failed")
		return
	}
	response.OK(c, docs)
}

func (h *DocumentHandler) Get(c *gin.Context) {
	id, ok := parseDocumentID(c)
	if !ok {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid document id")
		return
	}
	doc, err := h.documentService.Get(c.Request.Context(), id)
	if err != nil {
		writeDocumentError(c, err, "get document failed")
		return
	}
	response.OK(c, doc)
}

func (h *DocumentHandler) Upload(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "missing file")
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "open uploaded file failed")
		return
	}
	defer file.Close()

	doc, err := h.documentService.Upload(c.Request.Context(), userID, app.UploadInput{
		Title:          c.PostForm("title"),
		Description:    c.PostForm("description"),
		SubjectID:      parseUintForm(c, "subject_id"),
		FacultyID:      parseUintForm(c, "faculty_id"),
		DocumentTypeID: parseUintForm(c, "document_type_id"),
		FileName:       fileHeader.Filename,
		ContentType:    fileHeader.Header.Get("Content-Type"),
		Size:           fileHeader.Size,
		File:           file,
	})
	if err != nil {
		writeDocumentError(c, err, "upload document failed")
		return
	}
	response.OK(c, doc)
}

func (h *DocumentHandler) Download(c *gin.Context) {
	id, ok := parseDocumentID(c)
	if !ok {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid document id")
		return
	}
	link, err := h.documentService.Download(c.Request.Context(), id)
	if err != nil {
		writeDocumentError(c, err, "create download link failed")
		return
	}
	response.OK(c, link)
}

func (h *DocumentHandler) ListPending(c *gin.Context) {
	docs, err := h.documentService.ListPending(c.Request.Context(), queryInt(c, "limit", 100))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list pending documents failed")
		return
	}
	response.OK(c, docs)
}

func (h *DocumentHandler) Approve(c *gin.Context) {
	id, ok := parseDocumentID(c)
	if !ok {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid document id")
		return
	}
	doc, err := h.documentService.Approve(c.Request.Context(), id)
	if err != nil {
		writeDocumentError(c, err, "approve document failed")
		return
	}
	response.OK(c, doc)
}

func (h *DocumentHandler) Reject(c *gin.Context) {
	id, ok := parseDocumentID(c)
	if !ok {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid document id")
		return
	}
	var req RejectDocumentRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
			return
		}
	}
	doc, err := h.documentService.Reject(c.Request.Context(), id, req.Reason)
	if err != nil {
		writeDocumentError(c, err, "reject document failed")
		return
	}
	response.OK(c, doc)
}

func writeDocumentError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, app.ErrInvalidInput):
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
	case errors.Is(err, app.ErrUnsupportedFileType):
		response.Error(c, http.StatusBadRequest, response.CodeUnsupportedFileType, err.Error())
	case errors.Is(err, app.ErrInvalidPDF):
		response.Error(c, http.StatusBadRequest, response.CodeInvalidFile, app.ErrInvalidPDF.Error())
	case errors.Is(err, app.ErrFileTooLarge):
		response.Error(c, http.StatusRequestEntityTooLarge, response.CodeFileTooLarge, err.Error())
	case errors.Is(err, app.ErrSubjectNotFound),
		errors.Is(err, app.ErrFacultyNotFound),
		errors.Is(err, app.ErrDocumentTypeNotFound):
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
	case errors.Is(err, app.ErrInvalidTransition):
		response.Error(c, http.StatusConflict, response.CodeInvalidTransition, err.Error())
	case errors.Is(err, app.ErrDocumentNotFound):
		response.Error(c, http.StatusNotFound, response.CodeDocumentNotFound, err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, fallback)
	}
}
