package trading

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/assist-by/tastyhook/internal/domain"
	"github.com/assist-by/tastyhook/internal/exchange"
	"github.com/assist-by/tastyhook/internal/metrics"
	"github.com/assist-by/tastyhook/internal/notification"
	"github.com/assist-by/tastyhook/internal/position"
	"github.com/assist-by/tastyhook/internal/price"
)

// ProcessorConfig는 시그널 처리 설정입니다
type ProcessorConfig struct {
	AccountID      string // 비어 있으면 첫 번째 계좌 사용
	LongSymbol     string
	ShortSymbol    string
	Policy         TradingPolicy
	TradingEnabled bool
}

// Processor는 시그널 하나를 검증, 쿨다운 확인, 수량 계산, 청산, 주문 순서로 처리합니다.
// 시그널 처리는 직렬화되어 두 시그널이 동시에 쿨다운을 통과할 수 없습니다.
type Processor struct {
	mu sync.Mutex

	cfg       ProcessorConfig
	live      exchange.Broker
	demo      exchange.Broker
	resolver  *price.Resolver
	positions *position.Manager
	executor  *OrderExecutor
	cooldown  *Cooldown
	notifier  notification.Notifier
}

// ProcessorOption은 Processor 설정 옵션입니다
type ProcessorOption func(*Processor)

// WithDemoBroker는 데모 전환에 쓸 브로커를 설정합니다
func WithDemoBroker(b exchange.Broker) ProcessorOption {
	return func(p *Processor) {
		p.demo = b
	}
}

// WithNotifier는 거래 알림을 설정합니다
func WithNotifier(n notification.Notifier) ProcessorOption {
	return func(p *Processor) {
		if n != nil {
			p.notifier = n
		}
	}
}

// NewProcessor는 새 시그널 처리기를 생성합니다
func NewProcessor(cfg ProcessorConfig, live exchange.Broker, resolver *price.Resolver, positions *position.Manager,
	executor *OrderExecutor, cooldown *Cooldown, opts ...ProcessorOption) *Processor {
	p := &Processor{
		cfg:       cfg,
		live:      live,
		resolver:  resolver,
		positions: positions,
		executor:  executor,
		cooldown:  cooldown,
		notifier:  notification.Nop{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Cooldown은 쿨다운 상태를 반환합니다 (읽기 전용으로 사용)
func (p *Processor) Cooldown() *Cooldown {
	return p.cooldown
}

// Process는 시그널을 처리하고 결과를 반환합니다. 에러는 결과의 status로 표현됩니다.
func (p *Processor) Process(ctx context.Context, raw string) domain.TradeResult {
	signal, err := domain.ParseSignal(raw)
	if err != nil {
		verr := &ValidationError{Field: "signal", Err: err}
		log.Printf("잘못된 시그널: %v", verr)
		metrics.IncSignal(string(domain.StatusError))
		return domain.TradeResult{Status: domain.StatusError, Message: "Invalid signal"}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if remaining := p.cooldown.Remaining(); remaining > 0 {
		log.Printf("쿨다운 중 시그널 무시: %s (남은 시간 %v)", signal, remaining.Round(time.Second))
		metrics.IncSignal(string(domain.StatusCooldown))
		return domain.TradeResult{
			Status:            domain.StatusCooldown,
			Message:           "Trading is in cooldown period",
			Signal:            signal,
			RetryAfterSeconds: int64(remaining.Seconds()),
		}
	}

	result := p.run(ctx, signal)
	metrics.IncSignal(string(result.Status))
	return result
}

func (p *Processor) run(ctx context.Context, signal domain.SignalType) domain.TradeResult {
	broker, mode := p.live, domain.ModeLive

	snap, err := p.snapshot(ctx, broker)
	if err != nil {
		if !p.canDegrade(err) {
			log.Printf("계정 조회 실패 [%s]: %v", exchange.Kind(err), err)
			p.notifyError(err)
			return p.errorResult(signal, fmt.Sprintf("Brokerage unavailable: %v", err))
		}
		broker, mode, snap, err = p.degrade(ctx, exchange.Kind(err), err)
		if err != nil {
			return p.errorResult(signal, err.Error())
		}
	}

	symbol := position.GetSymbolFromSignal(signal, p.cfg.LongSymbol, p.cfg.ShortSymbol)

	res, err := p.resolver.Resolve(ctx, broker, snap.AccountID, symbol, p.demoAllowed())
	if err != nil {
		log.Printf("가격 확인 실패: %v", err)
		p.notifyError(err)
		return p.errorResult(signal, fmt.Sprintf("Could not resolve price for %s", symbol))
	}
	if res.Source == price.SourceFallback && mode == domain.ModeLive {
		// 대체 가격으로는 실제 주문을 내지 않습니다
		broker, mode, snap, err = p.degrade(ctx, "price", price.ErrPriceUnavailable)
		if err != nil {
			return p.errorResult(signal, err.Error())
		}
	}

	size, err := position.CalculatePositionSize(snap, res.Price)
	if err != nil {
		if errors.Is(err, position.ErrInsufficientFunds) {
			log.Printf("잔고 부족: %v", err)
			return p.errorResult(signal, "Insufficient funds")
		}
		return p.errorResult(signal, err.Error())
	}

	if !p.cfg.TradingEnabled {
		log.Printf("거래 비활성화 상태, 주문 생략: %s %d주 @ %s", symbol, size.Quantity, res.Price)
		px := res.Price
		return domain.TradeResult{
			Status:   domain.StatusInfo,
			Message:  fmt.Sprintf("Trading disabled: would buy %d shares of %s", size.Quantity, symbol),
			Signal:   signal,
			Symbol:   symbol,
			Quantity: size.Quantity,
			Price:    &px,
			Mode:     mode,
		}
	}

	closed := p.positions.CloseConflicting(ctx, broker, snap, symbol)

	report, err := p.executor.Execute(ctx, broker, ExecuteRequest{
		AccountID: snap.AccountID,
		Symbol:    symbol,
		Side:      position.GetOrderSideForEntry(signal),
		Quantity:  size.Quantity,
		RefPrice:  res.Price,
	})
	if err != nil || !report.Filled {
		log.Printf("%s 매수 실패: %v", symbol, err)
		p.notifyError(fmt.Errorf("%s 매수 실패: %w", symbol, err))
		return p.errorResult(signal, fmt.Sprintf("Failed to buy %s", symbol))
	}

	tradedAt := p.cooldown.MarkTrade()
	metrics.SetLastTrade(tradedAt)

	px := res.Price
	info := notification.TradeInfo{
		Signal:        signal,
		Symbol:        symbol,
		Quantity:      report.Quantity,
		Price:         px,
		OrderID:       report.OrderID,
		OrderType:     report.Type,
		Attempts:      report.Attempts,
		Mode:          mode,
		CashBalance:   snap.CashBalance,
		ClosedSymbols: closed.Closed,
	}
	if err := p.notifier.SendTradeInfo(info); err != nil {
		log.Printf("거래 알림 전송 실패: %v", err)
	}

	log.Printf("%s 매수 완료: %d주 @ %s (%s, 주문 ID: %s)", symbol, report.Quantity, px, mode, report.OrderID)
	return domain.TradeResult{
		Status:   domain.StatusSuccess,
		Message:  fmt.Sprintf("Successfully bought %d shares of %s", report.Quantity, symbol),
		Signal:   signal,
		Symbol:   symbol,
		Quantity: report.Quantity,
		Price:    &px,
		Mode:     mode,
		Position: &domain.PositionInfo{
			AccountID:     snap.AccountID,
			OrderID:       report.OrderID,
			OrderType:     report.Type,
			Attempts:      report.Attempts,
			ClosedSymbols: closed.Closed,
		},
	}
}

// snapshot은 인증 후 계정 스냅샷을 조회합니다
func (p *Processor) snapshot(ctx context.Context, broker exchange.Broker) (*domain.AccountSnapshot, error) {
	if err := broker.Authenticate(ctx); err != nil {
		return nil, err
	}
	return broker.GetAccountSnapshot(ctx, p.cfg.AccountID)
}

func (p *Processor) demoAllowed() bool {
	return p.cfg.Policy == PolicyDemoFallback && p.demo != nil
}

// canDegrade는 에러가 데모 전환 대상인지 확인합니다
func (p *Processor) canDegrade(err error) bool {
	return p.demoAllowed() && exchange.IsDegradable(err)
}

// degrade는 남은 처리를 데모 브로커로 전환합니다
func (p *Processor) degrade(ctx context.Context, reason string, cause error) (exchange.Broker, domain.Mode, *domain.AccountSnapshot, error) {
	log.Printf("데모 모드로 전환 [%s]: %v", reason, cause)
	metrics.IncFallback(reason)
	if err := p.notifier.SendInfo(fmt.Sprintf("⚠️ 데모 모드로 전환: %s", reason)); err != nil {
		log.Printf("알림 전송 실패: %v", err)
	}

	snap, err := p.snapshot(ctx, p.demo)
	if err != nil {
		return nil, "", nil, fmt.Errorf("데모 계정 조회 실패: %w", err)
	}
	return p.demo, domain.ModeDemo, snap, nil
}

func (p *Processor) errorResult(signal domain.SignalType, message string) domain.TradeResult {
	return domain.TradeResult{Status: domain.StatusError, Message: message, Signal: signal}
}

func (p *Processor) notifyError(err error) {
	if nerr := p.notifier.SendError(err); nerr != nil {
		log.Printf("에러 알림 전송 실패: %v", nerr)
	}
}
