package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"career-constellation/internal/app"
	"career-constellation/internal/ingest"
	"career-constellation/internal/transport/http/response"
)

const maxDuplicatePairs = 100

type StandardizationHandler struct {
	ragService *app.RAGService
}

func NewStandardizationHandler(ragService *app.RAGService) *StandardizationHandler {
	return &StandardizationHandler{ragService: ragService}
}

func (h *StandardizationHandler) Duplicates(c *gin.Context) {
	threshold := ingest.DefaultDuplicateThreshold
	if raw := c.Query("threshold"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed < 0 || parsed > 1 {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid threshold")
			return
		}
		threshold = parsed
	}

	pairs, err := h.ragService.NearDuplicatePairs(threshold, maxDuplicatePairs)
	if err != nil {
		writeError(c, err, "list duplicates failed")
		return
	}

	response.OK(c, gin.H{"threshold": threshold, "total": len(pairs), "pairs": pairs})
}

func (h *StandardizationHandler) Messiness(c *gin.Context) {
	clusters, err := h.ragService.ClusterMessiness()
	if err != nil {
		writeError(c, err, "cluster messiness failed")
		return
	}

	response.OK(c, gin.H{"clusters": clusters})
}
