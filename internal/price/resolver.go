// Package price는 주문 수량 계산에 쓸 종목 가격을 결정합니다.
//
// 순서는 시세 조회, 프로브 주문, 데모 대체 가격이며 처음 성공한 값을 사용합니다.
// 프로브는 실제 1주 매수 주문을 내므로 시세 엔드포인트를 쓸 수 없을 때만,
// 그리고 명시적으로 켠 경우에만 실행됩니다.
package price

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"github.com/assist-by/tastyhook/internal/domain"
	"github.com/assist-by/tastyhook/internal/exchange"
)

// Source는 가격을 어디서 얻었는지 나타냅니다
type Source string

const (
	SourceQuote    Source = "quote"
	SourceProbe    Source = "probe"
	SourceFallback Source = "fallback"
)

// Resolution은 가격 결정 결과입니다
type Resolution struct {
	Price  decimal.Decimal
	Source Source
}

// Fallback은 데모 모드 가격표입니다
type Fallback interface {
	Price(symbol string) (decimal.Decimal, bool)
}

// Resolver는 가격 결정기입니다
type Resolver struct {
	probeEnabled bool
	settleDelay  time.Duration
	fallback     Fallback
	sleep        func(ctx context.Context, d time.Duration) error
}

// Option은 Resolver 설정 옵션입니다
type Option func(*Resolver)

// WithProbe는 프로브 주문 사용 여부를 설정합니다
func WithProbe(enabled bool) Option {
	return func(r *Resolver) {
		r.probeEnabled = enabled
	}
}

// WithSettleDelay는 프로브 주문 후 대기 시간을 설정합니다
func WithSettleDelay(d time.Duration) Option {
	return func(r *Resolver) {
		r.settleDelay = d
	}
}

// WithFallback은 데모 모드 가격표를 설정합니다
func WithFallback(f Fallback) Option {
	return func(r *Resolver) {
		r.fallback = f
	}
}

// WithSleep은 대기 함수를 교체합니다
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(r *Resolver) {
		r.sleep = sleep
	}
}

// NewResolver는 새 가격 결정기를 생성합니다
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		settleDelay: time.Second,
		sleep:       Sleep,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve는 symbol의 가격을 결정합니다.
// allowFallback이 true면 시세와 프로브가 모두 실패했을 때 데모 가격표를 사용합니다.
func (r *Resolver) Resolve(ctx context.Context, broker exchange.Broker, accountID, symbol string, allowFallback bool) (Resolution, error) {
	quote, err := broker.GetQuote(ctx, symbol)
	if err == nil {
		p, perr := quote.TradablePrice()
		if perr == nil {
			return Resolution{Price: p, Source: SourceQuote}, nil
		}
		err = fmt.Errorf("%w: %s: %v", exchange.ErrQuoteUnavailable, symbol, perr)
	}
	lastErr := err

	// 시세 엔드포인트 자체를 쓸 수 없을 때만 프로브를 고려합니다
	if errors.Is(err, exchange.ErrQuoteUnavailable) {
		if r.probeEnabled {
			p, perr := r.probe(ctx, broker, accountID, symbol)
			if perr == nil {
				log.Printf("프로브 주문으로 가격 확인: %s = %s", symbol, p)
				return Resolution{Price: p, Source: SourceProbe}, nil
			}
			log.Printf("프로브 가격 확인 실패 (%s): %v", symbol, perr)
			lastErr = perr
		} else {
			log.Printf("%s 시세 없음, 프로브 비활성화", symbol)
		}
	}

	if allowFallback && r.fallback != nil {
		p, cached := r.fallback.Price(symbol)
		if !cached {
			log.Printf("%s 데모 가격 없음, 기본 가격 사용: %s", symbol, p)
		}
		return Resolution{Price: p, Source: SourceFallback}, nil
	}

	return Resolution{}, fmt.Errorf("%w: %s: %w", ErrPriceUnavailable, symbol, lastErr)
}

// probe는 1주 시장가 매수 전후의 현금 잔고 차이로 가격을 추정합니다
func (r *Resolver) probe(ctx context.Context, broker exchange.Broker, accountID, symbol string) (decimal.Decimal, error) {
	before, err := broker.GetAccountSnapshot(ctx, accountID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("프로브 전 잔고 조회 실패: %w", err)
	}

	order, err := broker.PlaceOrder(ctx, domain.OrderRequest{
		AccountID: before.AccountID,
		Symbol:    symbol,
		Side:      domain.Buy,
		Effect:    domain.Open,
		Type:      domain.Market,
		Quantity:  1,
	})
	if err != nil {
		return decimal.Zero, fmt.Errorf("프로브 주문 실패: %w", err)
	}
	log.Printf("프로브 주문 제출: %s 1주 (ID: %s)", symbol, order.ID)

	if err := r.sleep(ctx, r.settleDelay); err != nil {
		return decimal.Zero, err
	}

	status, err := broker.GetOrderStatus(ctx, before.AccountID, order.ID)
	if err != nil {
		log.Printf("프로브 주문 상태 조회 실패: %v", err)
	} else if status == domain.OrderPending {
		if cerr := broker.CancelOrder(ctx, before.AccountID, order.ID); cerr != nil {
			log.Printf("프로브 주문 취소 실패 (ID: %s): %v", order.ID, cerr)
		}
	}

	after, err := broker.GetAccountSnapshot(ctx, before.AccountID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("프로브 후 잔고 조회 실패: %w", err)
	}

	delta := before.CashBalance.Sub(after.CashBalance)
	if !delta.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: 잔고 변화 %s", ErrProbeInconclusive, delta)
	}
	return delta, nil
}

// Sleep은 컨텍스트가 취소되면 일찍 깨어나는 대기 함수입니다
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
