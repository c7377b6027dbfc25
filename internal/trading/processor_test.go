package trading

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assist-by/tastyhook/internal/audit"
	"github.com/assist-by/tastyhook/internal/domain"
	"github.com/assist-by/tastyhook/internal/exchange"
	"github.com/assist-by/tastyhook/internal/exchange/demo"
	"github.com/assist-by/tastyhook/internal/exchange/exchangetest"
	"github.com/assist-by/tastyhook/internal/notification"
	"github.com/assist-by/tastyhook/internal/position"
	"github.com/assist-by/tastyhook/internal/price"
)

// recordingNotifier는 전송된 알림을 기록합니다
type recordingNotifier struct {
	mu     sync.Mutex
	trades []notification.TradeInfo
	errs   []error
	infos  []string
}

func (n *recordingNotifier) SendError(err error) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errs = append(n.errs, err)
	return nil
}

func (n *recordingNotifier) SendInfo(message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.infos = append(n.infos, message)
	return nil
}

func (n *recordingNotifier) SendTradeInfo(info notification.TradeInfo) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.trades = append(n.trades, info)
	return nil
}

type fixture struct {
	live      *exchangetest.Broker
	demo      *demo.Broker
	clock     *fakeClock
	notifier  *recordingNotifier
	processor *Processor
}

type fixtureOption func(*ProcessorConfig, *[]price.Option)

func withPolicy(p TradingPolicy) fixtureOption {
	return func(c *ProcessorConfig, _ *[]price.Option) { c.Policy = p }
}

func withTradingDisabled() fixtureOption {
	return func(c *ProcessorConfig, _ *[]price.Option) { c.TradingEnabled = false }
}

func withLongSymbol(s string) fixtureOption {
	return func(c *ProcessorConfig, _ *[]price.Option) { c.LongSymbol = s }
}

func newFixture(t *testing.T, live *exchangetest.Broker, opts ...fixtureOption) *fixture {
	t.Helper()
	cfg := ProcessorConfig{
		LongSymbol:     "MSTU",
		ShortSymbol:    "MSTZ",
		Policy:         PolicyDemoFallback,
		TradingEnabled: true,
	}
	cache := demo.NewCache(demo.DefaultPrices(), decimal.Zero)
	priceOpts := []price.Option{price.WithSleep(noSleep), price.WithFallback(cache)}
	for _, opt := range opts {
		opt(&cfg, &priceOpts)
	}

	f := &fixture{
		live:     live,
		demo:     demo.NewBroker(decimal.NewFromInt(10000), cache),
		clock:    newFakeClock(),
		notifier: &recordingNotifier{},
	}
	f.processor = NewProcessor(cfg, live,
		price.NewResolver(priceOpts...),
		position.NewManager(f.notifier),
		NewOrderExecutor(RetryReduceQuantity, WithSleep(noSleep)),
		NewCooldown(12*time.Hour, f.clock.Now),
		WithDemoBroker(f.demo),
		WithNotifier(f.notifier),
	)
	return f
}

func liveBroker(cash string, positions ...domain.Position) *exchangetest.Broker {
	return &exchangetest.Broker{
		Snapshots: []*domain.AccountSnapshot{{
			AccountID:   "5WT00001",
			CashBalance: decimal.RequireFromString(cash),
			Positions:   positions,
		}},
		Quotes: map[string]*domain.Quote{
			"MSTU": {Symbol: "MSTU", Last: decimal.RequireFromString("150.50")},
			"MSTZ": {Symbol: "MSTZ", Last: decimal.RequireFromString("48.25")},
		},
	}
}

func TestProcessInvalidSignal(t *testing.T) {
	for _, raw := range []string{"", "LONG", "buy", " long", "short\n"} {
		t.Run(raw, func(t *testing.T) {
			f := newFixture(t, liveBroker("10000"))

			result := f.processor.Process(context.Background(), raw)
			assert.Equal(t, domain.StatusError, result.Status)
			assert.Equal(t, "Invalid signal", result.Message)
			assert.Empty(t, f.live.Calls(), "잘못된 시그널은 브로커를 호출하지 않습니다")
		})
	}
}

func TestProcessLongNoPositions(t *testing.T) {
	f := newFixture(t, liveBroker("10000"))

	result := f.processor.Process(context.Background(), "long")
	require.Equal(t, domain.StatusSuccess, result.Status, result.Message)
	assert.Equal(t, int64(33), result.Quantity)
	assert.Equal(t, "MSTU", result.Symbol)
	assert.Equal(t, domain.ModeLive, result.Mode)
	require.NotNil(t, result.Price)
	assert.Equal(t, "150.5", result.Price.String())
	require.NotNil(t, result.Position)
	assert.Equal(t, "5WT00001", result.Position.AccountID)
	assert.Equal(t, 1, result.Position.Attempts)

	orders := f.live.Orders()
	require.Len(t, orders, 1)
	assert.Equal(t, domain.OrderRequest{AccountID: "5WT00001", Symbol: "MSTU", Side: domain.Buy, Effect: domain.Open, Type: domain.Market, Quantity: 33}, orders[0])

	last, ok := f.processor.Cooldown().LastTrade()
	assert.True(t, ok)
	assert.Equal(t, f.clock.Now(), last)
	require.Len(t, f.notifier.trades, 1)
	assert.Equal(t, int64(33), f.notifier.trades[0].Quantity)
}

func TestProcessCooldown(t *testing.T) {
	f := newFixture(t, liveBroker("10000"))

	require.Equal(t, domain.StatusSuccess, f.processor.Process(context.Background(), "long").Status)
	callsAfterTrade := len(f.live.Calls())

	f.clock.Advance(2 * time.Hour)
	result := f.processor.Process(context.Background(), "short")
	assert.Equal(t, domain.StatusCooldown, result.Status)
	assert.Equal(t, int64((10 * time.Hour).Seconds()), result.RetryAfterSeconds)
	assert.Len(t, f.live.Calls(), callsAfterTrade, "쿨다운 중에는 브로커를 호출하지 않습니다")

	f.clock.Advance(10 * time.Hour)
	result = f.processor.Process(context.Background(), "short")
	assert.Equal(t, domain.StatusSuccess, result.Status)
	assert.Equal(t, "MSTZ", result.Symbol)
}

func TestProcessClosesConflictingPosition(t *testing.T) {
	f := newFixture(t, liveBroker("10000", domain.Position{Symbol: "MSTZ", Quantity: 10}))

	result := f.processor.Process(context.Background(), "long")
	require.Equal(t, domain.StatusSuccess, result.Status, result.Message)

	orders := f.live.Orders()
	require.Len(t, orders, 2)
	assert.Equal(t, "MSTZ", orders[0].Symbol)
	assert.Equal(t, domain.Sell, orders[0].Side)
	assert.Equal(t, domain.Close, orders[0].Effect)
	assert.Equal(t, int64(10), orders[0].Quantity)

	assert.Equal(t, "MSTU", orders[1].Symbol)
	assert.Equal(t, int64(66), orders[1].Quantity, "포지션 보유 시 현금 전액 사용")
	assert.Equal(t, []string{"MSTZ"}, result.Position.ClosedSymbols)
}

func TestProcessInsufficientFunds(t *testing.T) {
	f := newFixture(t, liveBroker("100"))

	result := f.processor.Process(context.Background(), "long")
	assert.Equal(t, domain.StatusError, result.Status)
	assert.Equal(t, "Insufficient funds", result.Message)
	assert.Zero(t, f.live.CallCount("place_order"))
	assert.False(t, f.processor.Cooldown().Active())
}

func TestProcessExecutionFailureKeepsCooldown(t *testing.T) {
	live := liveBroker("10000")
	live.Statuses = []domain.OrderStatus{domain.OrderRejected}
	f := newFixture(t, live)

	result := f.processor.Process(context.Background(), "long")
	assert.Equal(t, domain.StatusError, result.Status)
	assert.Equal(t, "Failed to buy MSTU", result.Message)
	assert.Equal(t, 1, live.CallCount("place_order"))
	assert.False(t, f.processor.Cooldown().Active(), "실패한 거래는 쿨다운을 갱신하지 않습니다")
	assert.NotEmpty(t, f.notifier.errs)
}

func TestProcessDegradesToDemo(t *testing.T) {
	tests := []struct {
		name string
		live *exchangetest.Broker
	}{
		{"자격 증명 없음", &exchangetest.Broker{AuthErr: &exchange.AuthError{Err: exchange.ErrCredentialsMissing}}},
		{"인증 거부", &exchangetest.Broker{AuthErr: &exchange.AuthError{Err: exchange.ErrAuthRejected}}},
		{"계정 조회 장애", &exchangetest.Broker{SnapshotErr: &exchange.GatewayError{Op: "get_account_snapshot", Err: exchange.ErrUnavailable}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.live)

			result := f.processor.Process(context.Background(), "long")
			require.Equal(t, domain.StatusSuccess, result.Status, result.Message)
			assert.Equal(t, domain.ModeDemo, result.Mode)
			assert.Equal(t, int64(33), result.Quantity)
			assert.Equal(t, demo.AccountID, result.Position.AccountID)
			assert.Zero(t, tt.live.CallCount("place_order"))
			assert.NotEmpty(t, f.notifier.infos)
		})
	}
}

func TestProcessDemoCallsAreAudited(t *testing.T) {
	auditLog := audit.NewLogger(100)
	cache := demo.NewCache(demo.DefaultPrices(), decimal.Zero)
	live := exchange.NewAuditedBroker(
		&exchangetest.Broker{AuthErr: &exchange.AuthError{Err: exchange.ErrCredentialsMissing}},
		auditLog, audit.SourceTastyTrade)
	demoBroker := exchange.NewAuditedBroker(demo.NewBroker(decimal.NewFromInt(10000), cache), auditLog, audit.SourceDemo)

	p := NewProcessor(
		ProcessorConfig{LongSymbol: "MSTU", ShortSymbol: "MSTZ", Policy: PolicyDemoFallback, TradingEnabled: true},
		live,
		price.NewResolver(price.WithSleep(noSleep), price.WithFallback(cache)),
		position.NewManager(nil),
		NewOrderExecutor(RetryReduceQuantity, WithSleep(noSleep)),
		NewCooldown(12*time.Hour, newFakeClock().Now),
		WithDemoBroker(demoBroker),
	)

	result := p.Process(context.Background(), "long")
	require.Equal(t, domain.StatusSuccess, result.Status, result.Message)
	assert.Equal(t, domain.ModeDemo, result.Mode)

	var ops []string
	for _, e := range auditLog.EntriesBySource(audit.SourceDemo) {
		if e.Type == audit.TypeRequest {
			ops = append(ops, e.Endpoint)
		}
	}
	assert.Equal(t, []string{"authenticate", "get_account_snapshot", "get_quote", "place_order", "get_order_status"}, ops)

	var placed bool
	for _, e := range auditLog.EntriesBySource(audit.SourceDemo) {
		if e.Type == audit.TypeResponse && e.Endpoint == "place_order" {
			placed = true
		}
	}
	assert.True(t, placed, "데모 주문 응답이 감사 로그에 남아야 합니다")

	tt := auditLog.EntriesBySource(audit.SourceTastyTrade)
	require.Len(t, tt, 2)
	assert.Equal(t, audit.TypeError, tt[1].Type)
}

func TestProcessStrictPolicyFails(t *testing.T) {
	live := &exchangetest.Broker{AuthErr: &exchange.AuthError{Err: exchange.ErrCredentialsMissing}}
	f := newFixture(t, live, withPolicy(PolicyStrict))

	result := f.processor.Process(context.Background(), "long")
	assert.Equal(t, domain.StatusError, result.Status)
	assert.Contains(t, result.Message, "Brokerage unavailable")
	assert.Empty(t, result.Mode)
	assert.False(t, f.processor.Cooldown().Active())
}

func TestProcessStrictPriceUnavailable(t *testing.T) {
	live := liveBroker("10000")
	live.QuoteErr = &exchange.GatewayError{Op: "get_quote", StatusCode: 403, Err: exchange.ErrQuoteUnavailable}
	f := newFixture(t, live, withPolicy(PolicyStrict))

	result := f.processor.Process(context.Background(), "long")
	assert.Equal(t, domain.StatusError, result.Status)
	assert.Equal(t, "Could not resolve price for MSTU", result.Message)
	assert.Zero(t, live.CallCount("place_order"), "프로브가 꺼져 있으면 주문하지 않습니다")
}

func TestProcessUnknownSymbolUsesPlaceholder(t *testing.T) {
	live := liveBroker("10000")
	live.QuoteErr = &exchange.GatewayError{Op: "get_quote", StatusCode: 403, Err: exchange.ErrQuoteUnavailable}
	f := newFixture(t, live, withLongSymbol("UNKNOWN"))

	result := f.processor.Process(context.Background(), "long")
	require.Equal(t, domain.StatusSuccess, result.Status, result.Message)
	assert.Equal(t, domain.ModeDemo, result.Mode)
	require.NotNil(t, result.Price)
	assert.True(t, demo.DefaultPlaceholderPrice.Equal(*result.Price))
	assert.Equal(t, int64(50), result.Quantity)
	assert.Zero(t, live.CallCount("place_order"), "대체 가격으로는 실제 주문을 내지 않습니다")
}

func TestProcessTradingDisabled(t *testing.T) {
	f := newFixture(t, liveBroker("10000"), withTradingDisabled())

	result := f.processor.Process(context.Background(), "long")
	assert.Equal(t, domain.StatusInfo, result.Status)
	assert.Equal(t, int64(33), result.Quantity)
	assert.Zero(t, f.live.CallCount("place_order"))
	assert.False(t, f.processor.Cooldown().Active())
}

func TestProcessConcurrentSignalsTradeOnce(t *testing.T) {
	f := newFixture(t, liveBroker("10000"))

	const n = 8
	results := make([]domain.TradeResult, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			signal := "long"
			if i%2 == 1 {
				signal = "short"
			}
			results[i] = f.processor.Process(context.Background(), signal)
		}(i)
	}
	wg.Wait()

	success, cooldown := 0, 0
	for _, r := range results {
		switch r.Status {
		case domain.StatusSuccess:
			success++
		case domain.StatusCooldown:
			cooldown++
		}
	}
	assert.Equal(t, 1, success, "동시 시그널 중 하나만 거래합니다")
	assert.Equal(t, n-1, cooldown)
	assert.Equal(t, 1, f.live.CallCount("place_order"))
}
