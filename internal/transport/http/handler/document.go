package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"docuchat/internal/app"
	"docuchat/internal/transport/http/response"
)

type DocumentHandler struct {
	documentService *app.DocumentService
}

func NewDocumentHandler(documentService *app.DocumentService) *DocumentHandler {
	return &DocumentHandler{documentService: documentService}
}

type UploadResponse struct {
	Message string `json:"message"`
	FileID  uint   `json:"file_id"`
}

type DeleteRequest struct {
	FileID uint `json:"file_id" binding:"required"`
}

// Upload handles POST /upload-doc (multipart field "file").
func (h *DocumentHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Detail(c, http.StatusBadRequest, "missing file")
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		response.Detail(c, http.StatusInternalServerError, "failed to read uploaded file")
		return
	}
	defer f.Close()

	result, err := h.documentService.Upload(c.Request.Context(), app.UploadInput{
		Filename: fileHeader.Filename,
		Content:  f,
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrUnsupportedFileType):
			response.Detail(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, app.ErrIndexingFailed):
			response.Detail(c, http.StatusInternalServerError,
				fmt.Sprintf("failed to index %s", fileHeader.Filename))
		default:
			response.Detail(c, http.StatusInternalServerError,
				"an error occurred while processing the upload: "+err.Error())
		}
		return
	}

	response.OK(c, UploadResponse{
		Message: fmt.Sprintf("File %s has been uploaded and indexed successfully.", result.Filename),
		FileID:  result.FileID,
	})
}

// List handles GET /list-docs.
func (h *DocumentHandler) List(c *gin.Context) {
	docs, err := h.documentService.List()
	if err != nil {
		response.Detail(c, http.StatusInternalServerError,
			"an error occurred while listing documents: "+err.Error())
		return
	}
	response.OK(c, docs)
}

// Delete handles POST /delete-doc. The detail string distinguishes the
// two failure phases so operators can tell an aborted delete from a
// half-completed one.
func (h *DocumentHandler) Delete(c *gin.Context) {
	var req DeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Detail(c, http.StatusBadRequest, "file_id is required")
		return
	}

	if err := h.documentService.Delete(c.Request.Context(), req.FileID); err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Detail(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, app.ErrVectorDeleteFailed):
			response.Detail(c, http.StatusInternalServerError,
				fmt.Sprintf("failed to delete document with file_id %d from the vector index", req.FileID))
		case errors.Is(err, app.ErrRecordDeleteFailed):
			response.Detail(c, http.StatusInternalServerError,
				fmt.Sprintf("deleted from the vector index, but failed to delete document record with file_id %d", req.FileID))
		default:
			response.Detail(c, http.StatusInternalServerError,
				"an error occurred while deleting the document: "+err.Error())
		}
		return
	}

	response.OK(c, gin.H{
		"message": fmt.Sprintf("Document with file_id %d deleted successfully from the system.", req.FileID),
	})
}
