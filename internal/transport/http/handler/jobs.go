package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"career-constellation/internal/app"
	"career-constellation/internal/transport/http/response"
)

type JobsHandler struct {
	ragService *app.RAGService
}

func NewJobsHandler(ragService *app.RAGService) *JobsHandler {
	return &JobsHandler{ragService: ragService}
}

// ListJobs returns every job, or the ones matching ?q=.
func (h *JobsHandler) ListJobs(c *gin.Context) {
	jobs, err := h.ragService.SearchJobs(c.Query("q"))
	if err != nil {
		writeError(c, err, "list jobs failed")
		return
	}

	response.OK(c, gin.H{"total": len(jobs), "jobs": jobs})
}

func (h *JobsHandler) GetJob(c *gin.Context) {
	job, err := h.ragService.JobByID(c.Param("id"))
	if err != nil {
		writeError(c, err, "get job failed")
		return
	}

	response.OK(c, job)
}

func (h *JobsHandler) ListClusters(c *gin.Context) {
	clusters, err := h.ragService.Clusters()
	if err != nil {
		writeError(c, err, "list clusters failed")
		return
	}

	response.OK(c, gin.H{"total": len(clusters), "clusters": clusters})
}

func (h *JobsHandler) ClusterDetails(c *gin.Context) {
	clusterID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid cluster id")
		return
	}

	details, err := h.ragService.ClusterDetails(clusterID)
	if err != nil {
		writeError(c, err, "get cluster details failed")
		return
	}

	response.OK(c, details)
}
