// Package health는 브로커 연결 상태를 점검하고 결과를 보관합니다.
package health

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/assist-by/tastyhook/internal/exchange"
)

// ServiceStatus는 개별 서비스 점검 결과입니다
type ServiceStatus string

const (
	ServiceOK      ServiceStatus = "ok"
	ServiceWarning ServiceStatus = "warning"
	ServiceError   ServiceStatus = "error"
)

// Status는 전체 상태입니다
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// ServiceCheck는 서비스 하나의 점검 결과입니다
type ServiceCheck struct {
	Status  ServiceStatus `json:"status"`
	Message string        `json:"message"`
}

// Environment는 자격 증명 환경 변수 설정 여부입니다
type Environment struct {
	UsernameSet  bool `json:"tastytrade_username_set"`
	PasswordSet  bool `json:"tastytrade_password_set"`
	AccountIDSet bool `json:"tastytrade_account_id_set"`
}

// Report는 헬스 체크 응답입니다
type Report struct {
	Status                   Status                  `json:"status"`
	Timestamp                string                  `json:"timestamp"`
	Services                 map[string]ServiceCheck `json:"services"`
	Environment              Environment             `json:"environment"`
	LastTradeAt              string                  `json:"last_trade_at,omitempty"`
	CooldownRemainingSeconds int64                   `json:"cooldown_remaining_seconds"`
}

// CooldownReader는 쿨다운 상태 조회 인터페이스입니다
type CooldownReader interface {
	LastTrade() (time.Time, bool)
	Remaining() time.Duration
}

// Checker는 브로커에 실제로 로그인해 연결 상태를 확인합니다
type Checker struct {
	broker    exchange.Broker
	accountID string
	env       Environment
	cooldown  CooldownReader
	loc       *time.Location
	timeout   time.Duration
	now       func() time.Time
}

// CheckerOption은 Checker 설정 옵션입니다
type CheckerOption func(*Checker)

// WithLocation은 타임스탬프 표시 시간대를 설정합니다
func WithLocation(loc *time.Location) CheckerOption {
	return func(c *Checker) {
		if loc != nil {
			c.loc = loc
		}
	}
}

// WithCooldown은 쿨다운 상태를 보고서에 포함합니다
func WithCooldown(cd CooldownReader) CheckerOption {
	return func(c *Checker) {
		c.cooldown = cd
	}
}

// WithTimeout은 점검 한 번의 제한 시간을 설정합니다
func WithTimeout(d time.Duration) CheckerOption {
	return func(c *Checker) {
		c.timeout = d
	}
}

// WithClock은 시간 함수를 교체합니다
func WithClock(now func() time.Time) CheckerOption {
	return func(c *Checker) {
		c.now = now
	}
}

// NewChecker는 새 Checker를 생성합니다
func NewChecker(broker exchange.Broker, accountID string, env Environment, opts ...CheckerOption) *Checker {
	c := &Checker{
		broker:    broker,
		accountID: accountID,
		env:       env,
		loc:       time.UTC,
		timeout:   15 * time.Second,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CheckBroker는 브로커 연결 상태를 확인합니다
func (c *Checker) CheckBroker(ctx context.Context) ServiceCheck {
	if !c.env.UsernameSet || !c.env.PasswordSet {
		return ServiceCheck{Status: ServiceError, Message: "TastyTrade credentials not set."}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.broker.Authenticate(ctx); err != nil {
		return ServiceCheck{
			Status:  ServiceError,
			Message: fmt.Sprintf("Error connecting to TastyTrade API [%s]: %v", exchange.Kind(err), err),
		}
	}

	snap, err := c.broker.GetAccountSnapshot(ctx, c.accountID)
	if err != nil {
		return ServiceCheck{
			Status:  ServiceWarning,
			Message: fmt.Sprintf("Authenticated, but account lookup failed [%s]: %v", exchange.Kind(err), err),
		}
	}

	return ServiceCheck{
		Status:  ServiceOK,
		Message: fmt.Sprintf("Successfully connected to TastyTrade API. Account %s.", snap.AccountID),
	}
}

// Check는 전체 헬스 보고서를 만듭니다
func (c *Checker) Check(ctx context.Context) Report {
	broker := c.CheckBroker(ctx)

	report := Report{
		Status:      overall(broker.Status),
		Timestamp:   c.now().In(c.loc).Format("2006-01-02 15:04:05 MST"),
		Services:    map[string]ServiceCheck{"tastytrade_api": broker},
		Environment: c.env,
	}
	if c.cooldown != nil {
		if last, ok := c.cooldown.LastTrade(); ok {
			report.LastTradeAt = last.In(c.loc).Format("2006-01-02 15:04:05 MST")
		}
		report.CooldownRemainingSeconds = int64(c.cooldown.Remaining().Seconds())
	}
	return report
}

func overall(s ServiceStatus) Status {
	switch s {
	case ServiceOK:
		return StatusHealthy
	case ServiceWarning:
		return StatusDegraded
	default:
		return StatusUnhealthy
	}
}

// Monitor는 마지막 점검 결과를 보관하며 scheduler.Task로 주기 실행됩니다
type Monitor struct {
	checker *Checker

	mu      sync.RWMutex
	latest  Report
	checked bool
}

// NewMonitor는 새 Monitor를 생성합니다
func NewMonitor(checker *Checker) *Monitor {
	return &Monitor{checker: checker}
}

// Execute는 점검을 실행하고 결과를 저장합니다
func (m *Monitor) Execute(ctx context.Context) error {
	report := m.checker.Check(ctx)

	m.mu.Lock()
	m.latest = report
	m.checked = true
	m.mu.Unlock()

	svc := report.Services["tastytrade_api"]
	log.Printf("헬스 체크: %s (%s)", report.Status, svc.Message)
	if report.Status == StatusUnhealthy {
		return fmt.Errorf("브로커 상태 이상: %s", svc.Message)
	}
	return nil
}

// Latest는 마지막 점검 결과를 반환합니다
func (m *Monitor) Latest() (Report, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.latest, m.checked
}

// Report는 저장된 결과가 있으면 반환하고, 없으면 즉시 점검합니다
func (m *Monitor) Report(ctx context.Context) Report {
	if r, ok := m.Latest(); ok {
		return r
	}
	_ = m.Execute(ctx)
	r, _ := m.Latest()
	return r
}
