package server

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/assist-by/tastyhook/internal/audit"
)

const maxWebhookBody = 64 << 10

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestID(), accessLog())

	r.POST("/webhook", s.handleWebhook)
	r.GET("/version", s.handleVersion)
	r.GET("/health", s.handleHealth)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.GET("/logs", s.handleLogs)
	api.GET("/tastytrade-logs", s.handleTastyTradeLogs)
	api.GET("/test", s.handleTest)

	return r
}

// handleWebhook은 시그널을 처리합니다. 결과와 관계없이 항상 200으로 응답합니다.
func (s *Server) handleWebhook(c *gin.Context) {
	const endpoint = "/webhook"

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		log.Printf("웹훅 본문 읽기 실패: %v", err)
	}

	// 본문의 다른 필드는 기록만 하고 사용하지 않습니다
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		s.audit.LogRequest(audit.SourceWebhook, endpoint, http.MethodPost, map[string]any{"raw": string(body)})
	} else {
		s.audit.LogRequest(audit.SourceWebhook, endpoint, http.MethodPost, payload)
	}

	raw, _ := payload["signal"].(string)

	// 호출자가 연결을 끊어도 진행 중인 시그널은 끝까지 처리합니다
	ctx := context.WithoutCancel(c.Request.Context())
	result := s.processor.Process(ctx, raw)

	s.audit.LogResponse(audit.SourceWebhook, endpoint, http.MethodPost, result)
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleVersion(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"version": s.version})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, s.health.Report(c.Request.Context()))
}

func (s *Server) handleLogs(c *gin.Context) {
	c.JSON(http.StatusOK, s.audit.Entries())
}

func (s *Server) handleTastyTradeLogs(c *gin.Context) {
	c.JSON(http.StatusOK, s.audit.EntriesBySource(audit.SourceTastyTrade))
}

func (s *Server) handleTest(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "API is working"})
}
