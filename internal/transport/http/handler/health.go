package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"career-constellation/internal/bootstrap"
	mysqlClient "career-constellation/internal/platform/mysql"
	rabbitmqClient "career-constellation/internal/platform/rabbitmq"
	redisClient "career-constellation/internal/platform/redis"
	"career-constellation/internal/transport/http/response"
)

type HealthHandler struct {
	app *bootstrap.App
}

type dependencyStatus struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}

func NewHealthHandler(app *bootstrap.App) *HealthHandler {
	return &HealthHandler{app: app}
}

// Index is the service banner.
func (h *HealthHandler) Index(c *gin.Context) {
	response.OK(c, gin.H{
		"app":    h.app.Config.App.Name,
		"status": h.app.RAG.Status(),
	})
}

// Check reports the enabled backing services. The RAG service only
// counts once initialization has been attempted at start.
func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	deps := gin.H{}
	allOK := true
	record := func(name string, status dependencyStatus) {
		deps[name] = status
		allOK = allOK && status.OK
	}

	if h.app.MySQL != nil {
		record("mysql", toStatus(mysqlClient.Ping(ctx, h.app.MySQL)))
	}
	if h.app.Redis != nil {
		record("redis", toStatus(redisClient.Ping(ctx, h.app.Redis)))
	}
	if h.app.MQConn != nil {
		record("rabbitmq", toStatus(rabbitmqClient.Ping(h.app.MQConn)))
	}
	ragStatus := dependencyStatus{OK: h.app.RAG.Initialized()}
	if !ragStatus.OK {
		ragStatus.Message = "not initialized"
	}
	if h.app.Config.App.InitOnStart {
		record("rag", ragStatus)
	} else {
		deps["rag"] = ragStatus
	}

	statusCode := http.StatusOK
	if !allOK {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, gin.H{
		"app":          h.app.Config.App.Name,
		"env":          h.app.Config.App.Env,
		"uptime_sec":   int(time.Since(h.app.StartedAt).Seconds()),
		"dependencies": deps,
	})
}

func toStatus(err error) dependencyStatus {
	if err != nil {
		return dependencyStatus{OK: false, Message: err.Error()}
	}
	return dependencyStatus{OK: true}
}
