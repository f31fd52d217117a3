package handler

import (
	"errors"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/examtrack/examtrack-backend/internal/response"
	"github.com/examtrack/examtrack-backend/internal/service"
	"github.com/examtrack/examtrack-backend/internal/spreadsheet"
	"github.com/gin-gonic/gin"
)

// openWorkbookUpload pulls the "file" part out of a multipart form and
// checks size and extension before anything reads it. On failure the
// response has already been written and the caller just returns.
func openWorkbookUpload(c *gin.Context, maxBytes int64) (multipart.File, bool) {
	header, err := c.FormFile("file")
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrFileRequired)
		return nil, false
	}
	if header.Size > maxBytes {
		response.Fail(c, http.StatusRequestEntityTooLarge, response.ErrFileTooLarge)
		return nil, false
	}
	if !strings.EqualFold(filepath.Ext(header.Filename), ".xlsx") {
		response.Fail(c, http.StatusBadRequest, response.ErrUnsupportedFile)
		return nil, false
	}

	file, err := header.Open()
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return nil, false
	}
	return file, true
}

// failBatch writes the response for a rejected import batch. Returns false
// when err is not a batch rejection so the caller can fall through to its
// own mapping.
func failBatch(c *gin.Context, err error) bool {
	var batchErr *service.BatchError
	if !errors.As(err, &batchErr) {
		return false
	}
	response.FailWithFields(c, http.StatusBadRequest, response.ErrBatchRejected, batchErr.Fields())
	return true
}

// writeWorkbook streams an xlsx workbook as a file download.
func writeWorkbook(c *gin.Context, filename string, wb *spreadsheet.Workbook) {
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err := wb.WriteTo(c.Writer); err != nil {
		// Headers may already be out; nothing useful left to send.
		_ = c.Error(err)
	}
}
