package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	// TastyTrade API 설정
	TastyTrade struct {
		Username  string        `envconfig:"TASTYTRADE_USERNAME"`
		Password  string        `envconfig:"TASTYTRADE_PASSWORD"`
		AccountID string        `envconfig:"TASTYTRADE_ACCOUNT_ID"` // 비어 있으면 첫 번째 계좌
		BaseURL   string        `envconfig:"TASTYTRADE_BASE_URL"`   // 비어 있으면 운영 또는 샌드박스 기본 주소
		Sandbox   bool          `envconfig:"TASTYTRADE_SANDBOX" default:"false"`
		Timeout   time.Duration `envconfig:"TASTYTRADE_TIMEOUT" default:"10s"`
		RateLimit float64       `envconfig:"TASTYTRADE_RATE_LIMIT" default:"5"`
	}

	// 거래 설정
	Trading struct {
		LongSymbol        string        `envconfig:"LONG_SYMBOL" default:"MSTU"`
		ShortSymbol       string        `envconfig:"SHORT_SYMBOL" default:"MSTZ"`
		Cooldown          time.Duration `envconfig:"TRADE_COOLDOWN" default:"12h"`
		RetryPolicy       string        `envconfig:"RETRY_POLICY" default:"reduce-quantity"`
		Policy            string        `envconfig:"TRADING_POLICY" default:"demo-fallback"`
		SettleDelay       time.Duration `envconfig:"SETTLE_DELAY" default:"1s"`
		PriceProbeEnabled bool          `envconfig:"PRICE_PROBE_ENABLED" default:"false"`
		Enabled           bool          `envconfig:"TRADING_ENABLED" default:"true"`
	}

	// 데모 모드 설정
	Demo struct {
		CashBalance      decimal.Decimal `envconfig:"DEMO_CASH_BALANCE" default:"10000"`
		PlaceholderPrice decimal.Decimal `envconfig:"DEMO_PLACEHOLDER_PRICE" default:"100"`
	}

	// 감사 로그 설정
	Audit struct {
		MaxEntries int    `envconfig:"AUDIT_MAX_ENTRIES" default:"1000"`
		Timezone   string `envconfig:"AUDIT_TIMEZONE" default:"Asia/Kolkata"`
	}

	// 디스코드 웹훅 설정 (비어 있으면 해당 채널 알림 생략)
	Discord struct {
		TradeWebhook string `envconfig:"DISCORD_TRADE_WEBHOOK"`
		ErrorWebhook string `envconfig:"DISCORD_ERROR_WEBHOOK"`
		InfoWebhook  string `envconfig:"DISCORD_INFO_WEBHOOK"`
	}

	// 애플리케이션 설정
	App struct {
		Port           int           `envconfig:"PORT" default:"8000"`
		HealthInterval time.Duration `envconfig:"HEALTH_INTERVAL" default:"5m"`
		Version        string        `envconfig:"APP_VERSION" default:"1.1.0"`
	}

	location *time.Location
}

// ValidateConfig는 설정이 유효한지 확인합니다.
func ValidateConfig(cfg *Config) error {
	switch cfg.Trading.RetryPolicy {
	case "reduce-quantity", "limit-escalate":
	default:
		return fmt.Errorf("RETRY_POLICY는 reduce-quantity 또는 limit-escalate이어야 합니다: %q", cfg.Trading.RetryPolicy)
	}

	switch cfg.Trading.Policy {
	case "strict", "demo-fallback":
	default:
		return fmt.Errorf("TRADING_POLICY는 strict 또는 demo-fallback이어야 합니다: %q", cfg.Trading.Policy)
	}

	if cfg.Trading.Cooldown <= 0 {
		return fmt.Errorf("TRADE_COOLDOWN은 0보다 커야 합니다")
	}

	if cfg.Trading.SettleDelay < 0 {
		return fmt.Errorf("SETTLE_DELAY는 0 이상이어야 합니다")
	}

	if cfg.Trading.LongSymbol == "" || cfg.Trading.ShortSymbol == "" {
		return fmt.Errorf("LONG_SYMBOL과 SHORT_SYMBOL은 비어 있을 수 없습니다")
	}

	if cfg.Trading.LongSymbol == cfg.Trading.ShortSymbol {
		return fmt.Errorf("LONG_SYMBOL과 SHORT_SYMBOL은 달라야 합니다")
	}

	if cfg.Audit.MaxEntries < 1 {
		return fmt.Errorf("AUDIT_MAX_ENTRIES는 1 이상이어야 합니다")
	}

	loc, err := time.LoadLocation(cfg.Audit.Timezone)
	if err != nil {
		return fmt.Errorf("AUDIT_TIMEZONE이 올바르지 않습니다: %w", err)
	}
	cfg.location = loc

	if cfg.Demo.CashBalance.IsNegative() {
		return fmt.Errorf("DEMO_CASH_BALANCE는 0 이상이어야 합니다")
	}

	if !cfg.Demo.PlaceholderPrice.IsPositive() {
		return fmt.Errorf("DEMO_PLACEHOLDER_PRICE는 0보다 커야 합니다")
	}

	if cfg.TastyTrade.Timeout < time.Second {
		return fmt.Errorf("TASTYTRADE_TIMEOUT은 1초 이상이어야 합니다")
	}

	if cfg.TastyTrade.RateLimit < 0 {
		return fmt.Errorf("TASTYTRADE_RATE_LIMIT은 0 이상이어야 합니다")
	}

	if cfg.App.Port < 1 || cfg.App.Port > 65535 {
		return fmt.Errorf("PORT는 1 이상 65535 이하이어야 합니다")
	}

	if cfg.App.HealthInterval < 1*time.Minute {
		return fmt.Errorf("HEALTH_INTERVAL은 1분 이상이어야 합니다")
	}

	return nil
}

// LoadConfig는 환경변수에서 설정을 로드합니다.
// envFiles가 없으면 현재 디렉터리의 .env를 읽으며, 파일이 없어도 에러가 아닙니다.
func LoadConfig(envFiles ...string) (*Config, error) {
	// .env 파일 로드
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf(".env 파일 로드 실패: %w", err)
	}

	var cfg Config
	// 환경변수를 구조체로 파싱
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("환경변수 처리 실패: %w", err)
	}

	// 설정값 검증
	if err := ValidateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("설정값 검증 실패: %w", err)
	}

	return &cfg, nil
}

// Location은 감사 로그 시간대를 반환합니다. 검증 전이면 UTC입니다.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

// HasCredentials는 TastyTrade 로그인 정보가 모두 설정되었는지 확인합니다
func (c *Config) HasCredentials() bool {
	return c.TastyTrade.Username != "" && c.TastyTrade.Password != ""
}

// Warnings는 시작 시 알려야 할 설정 경고를 반환합니다
func (c *Config) Warnings() []string {
	var warnings []string
	if c.TastyTrade.Username == "" {
		warnings = append(warnings, "TASTYTRADE_USERNAME이 설정되지 않았습니다")
	}
	if c.TastyTrade.Password == "" {
		warnings = append(warnings, "TASTYTRADE_PASSWORD가 설정되지 않았습니다")
	}
	if c.TastyTrade.AccountID == "" {
		warnings = append(warnings, "TASTYTRADE_ACCOUNT_ID가 설정되지 않아 첫 번째 계좌를 사용합니다")
	}
	if !c.HasCredentials() {
		if c.Trading.Policy == "strict" {
			warnings = append(warnings, "자격 증명 없이 strict 정책으로 실행 중이라 모든 시그널이 실패합니다")
		} else {
			warnings = append(warnings, "자격 증명이 없어 모든 시그널이 데모 모드로 처리됩니다")
		}
	}
	if !c.Trading.Enabled {
		warnings = append(warnings, "TRADING_ENABLED=false: 주문을 내지 않습니다")
	}
	return warnings
}
