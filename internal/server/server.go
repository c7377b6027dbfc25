// Package server는 웹훅 수신과 조회용 HTTP 엔드포인트를 제공합니다.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/assist-by/tastyhook/internal/audit"
	"github.com/assist-by/tastyhook/internal/domain"
	"github.com/assist-by/tastyhook/internal/health"
)

// SignalProcessor는 시그널 처리기 인터페이스입니다
type SignalProcessor interface {
	Process(ctx context.Context, raw string) domain.TradeResult
}

// AuditLog는 감사 로그 기록/조회 인터페이스입니다
type AuditLog interface {
	LogRequest(source audit.Source, endpoint, method string, payload any)
	LogResponse(source audit.Source, endpoint, method string, payload any)
	Entries() []audit.Entry
	EntriesBySource(source audit.Source) []audit.Entry
}

// HealthReporter는 헬스 보고서 제공 인터페이스입니다
type HealthReporter interface {
	Report(ctx context.Context) health.Report
}

// Server는 gin 기반 HTTP 서버입니다
type Server struct {
	processor SignalProcessor
	audit     AuditLog
	health    HealthReporter
	version   string

	engine *gin.Engine
	server *http.Server
}

// NewServer는 라우트가 등록된 서버를 생성합니다
func NewServer(port int, version string, processor SignalProcessor, auditLog AuditLog, reporter HealthReporter) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		processor: processor,
		audit:     auditLog,
		health:    reporter,
		version:   version,
	}
	s.engine = s.routes()
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler는 HTTP 핸들러를 반환합니다
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start는 서버를 실행합니다. ctx가 취소되면 진행 중인 요청을 기다린 뒤 종료합니다.
func (s *Server) Start(ctx context.Context) error {
	log.Printf("HTTP 서버 시작: %s", s.server.Addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Println("HTTP 서버 종료 중...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return fmt.Errorf("HTTP 서버 실행 실패: %w", err)
	}
}
