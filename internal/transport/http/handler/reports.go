package handler

import (
	"github.com/gin-gonic/gin"

	"career-constellation/internal/app"
	"career-constellation/internal/transport/http/response"
)

type ReportsHandler struct {
	ragService *app.RAGService
}

func NewReportsHandler(ragService *app.RAGService) *ReportsHandler {
	return &ReportsHandler{ragService: ragService}
}

func (h *ReportsHandler) ListReports(c *gin.Context) {
	reports, err := h.ragService.Reports(c.Request.Context())
	if err != nil {
		writeError(c, err, "list reports failed")
		return
	}

	response.OK(c, gin.H{"reports": reports})
}

// GetReport reads one report. Names that escape the report directory are
// answered as not found.
func (h *ReportsHandler) GetReport(c *gin.Context) {
	report, err := h.ragService.Report(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err, "get report failed")
		return
	}

	response.OK(c, report)
}
