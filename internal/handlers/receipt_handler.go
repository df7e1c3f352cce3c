package handlers

import (
	"strings"

	apierrors "github.com/Omyelshetty/RentApp/internal/errors"
	"github.com/Omyelshetty/RentApp/internal/receipts"
	"github.com/gin-gonic/gin"
)

// ReceiptHandler serves rendered receipt documents. Receipt ids are unguessable, so
// the route is public like a static file server.
type ReceiptHandler struct {
	files *receipts.FileStore
}

// NewReceiptHandler creates a new ReceiptHandler instance.
func NewReceiptHandler(files *receipts.FileStore) *ReceiptHandler {
	return &ReceiptHandler{files: files}
}

// Serve handles GET /receipts/:file.
func (h *ReceiptHandler) Serve(c *gin.Context) {
	name := c.Param("file")
	id, ok := strings.CutSuffix(name, ".pdf")
	if !ok || !h.files.Exists(id) {
		apierrors.NotFound(c, "Receipt not found")
		return
	}
	path, err := h.files.Path(id)
	if err != nil {
		apierrors.NotFound(c, "Receipt not found")
		return
	}

	c.Header("Cache-Control", "private, max-age=3600")
	c.Header("Content-Disposition", `inline; filename="`+name+`"`)
	c.Header("Content-Type", "application/pdf")
	c.File(path)
}
