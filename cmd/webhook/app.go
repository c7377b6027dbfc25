package main

import (
	"log"
	"math"
	"time"

	"github.com/assist-by/tastyhook/internal/audit"
	"github.com/assist-by/tastyhook/internal/config"
	"github.com/assist-by/tastyhook/internal/exchange"
	"github.com/assist-by/tastyhook/internal/exchange/demo"
	"github.com/assist-by/tastyhook/internal/exchange/tastytrade"
	"github.com/assist-by/tastyhook/internal/health"
	"github.com/assist-by/tastyhook/internal/notification/discord"
	"github.com/assist-by/tastyhook/internal/position"
	"github.com/assist-by/tastyhook/internal/price"
	"github.com/assist-by/tastyhook/internal/trading"
)

// app은 설정으로 조립된 서비스 구성 요소입니다
type app struct {
	discord   *discord.Client
	auditLog  *audit.Logger
	processor *trading.Processor
	cooldown  *trading.Cooldown
	monitor   *health.Monitor

	tradingPolicy trading.TradingPolicy
	retryPolicy   trading.RetryPolicy
}

// newApp은 설정에 따라 브로커, 시그널 처리기, 헬스 모니터를 조립합니다
func newApp(cfg *config.Config) (*app, error) {
	// 정책 (ValidateConfig에서 이미 검증됨)
	retryPolicy, err := trading.ParseRetryPolicy(cfg.Trading.RetryPolicy)
	if err != nil {
		return nil, err
	}
	tradingPolicy, err := trading.ParseTradingPolicy(cfg.Trading.Policy)
	if err != nil {
		return nil, err
	}

	// Discord 클라이언트 생성
	discordClient := discord.NewClient(
		cfg.Discord.TradeWebhook,
		cfg.Discord.ErrorWebhook,
		cfg.Discord.InfoWebhook,
		discord.WithTimeout(10*time.Second),
	)

	// 감사 로그
	auditLog := audit.NewLogger(cfg.Audit.MaxEntries, audit.WithLocation(cfg.Location()))

	// TastyTrade 클라이언트 생성
	ttOpts := []tastytrade.ClientOption{
		tastytrade.WithTimeout(cfg.TastyTrade.Timeout),
		tastytrade.WithSandbox(cfg.TastyTrade.Sandbox),
		tastytrade.WithRateLimit(cfg.TastyTrade.RateLimit, int(math.Ceil(cfg.TastyTrade.RateLimit))),
	}
	if cfg.TastyTrade.BaseURL != "" {
		ttOpts = append(ttOpts, tastytrade.WithBaseURL(cfg.TastyTrade.BaseURL))
	}
	ttClient := tastytrade.NewClient(cfg.TastyTrade.Username, cfg.TastyTrade.Password, ttOpts...)
	liveBroker := exchange.NewAuditedBroker(ttClient, auditLog, audit.SourceTastyTrade)

	if cfg.TastyTrade.Sandbox {
		log.Println("⚠️ 샌드박스(cert) 환경으로 실행 중입니다. 실제 자산은 사용되지 않습니다.")
	}

	// 데모 브로커
	cache := demo.NewCache(demo.DefaultPrices(), cfg.Demo.PlaceholderPrice)
	demoBroker := exchange.NewAuditedBroker(demo.NewBroker(cfg.Demo.CashBalance, cache), auditLog, audit.SourceDemo)

	// 시그널 처리기 구성
	resolver := price.NewResolver(
		price.WithProbe(cfg.Trading.PriceProbeEnabled),
		price.WithSettleDelay(cfg.Trading.SettleDelay),
		price.WithFallback(cache),
	)
	executor := trading.NewOrderExecutor(retryPolicy, trading.WithSettleDelay(cfg.Trading.SettleDelay))
	cooldown := trading.NewCooldown(cfg.Trading.Cooldown, nil)

	processor := trading.NewProcessor(
		trading.ProcessorConfig{
			AccountID:      cfg.TastyTrade.AccountID,
			LongSymbol:     cfg.Trading.LongSymbol,
			ShortSymbol:    cfg.Trading.ShortSymbol,
			Policy:         tradingPolicy,
			TradingEnabled: cfg.Trading.Enabled,
		},
		liveBroker,
		resolver,
		position.NewManager(discordClient),
		executor,
		cooldown,
		trading.WithDemoBroker(demoBroker),
		trading.WithNotifier(discordClient),
	)

	// 헬스 모니터 (주기 점검은 감사 로그에 남기지 않음)
	checker := health.NewChecker(
		ttClient,
		cfg.TastyTrade.AccountID,
		health.Environment{
			UsernameSet:  cfg.TastyTrade.Username != "",
			PasswordSet:  cfg.TastyTrade.Password != "",
			AccountIDSet: cfg.TastyTrade.AccountID != "",
		},
		health.WithLocation(cfg.Location()),
		health.WithCooldown(cooldown),
		health.WithTimeout(2*cfg.TastyTrade.Timeout),
	)

	return &app{
		discord:       discordClient,
		auditLog:      auditLog,
		processor:     processor,
		cooldown:      cooldown,
		monitor:       health.NewMonitor(checker),
		tradingPolicy: tradingPolicy,
		retryPolicy:   retryPolicy,
	}, nil
}
