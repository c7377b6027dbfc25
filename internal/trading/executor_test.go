package trading

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assist-by/tastyhook/internal/domain"
	"github.com/assist-by/tastyhook/internal/exchange"
	"github.com/assist-by/tastyhook/internal/exchange/exchangetest"
)

func noSleep(ctx context.Context, d time.Duration) error { return nil }

func buyRequest(qty int64) ExecuteRequest {
	return ExecuteRequest{
		AccountID: "A1",
		Symbol:    "MSTU",
		Side:      domain.Buy,
		Quantity:  qty,
		RefPrice:  decimal.RequireFromString("150.50"),
	}
}

func TestExecutor(t *testing.T) {
	tests := []struct {
		name          string
		policy        RetryPolicy
		quantity      int64
		statuses      []domain.OrderStatus
		cancelErr     error
		wantErr       error
		wantPhase     string
		wantFilled    bool
		wantPlaced    int
		wantCancelled []string
		wantLastQty   int64
		wantLastType  domain.OrderType
	}{
		{
			name:         "첫 주문 체결",
			policy:       RetryReduceQuantity,
			quantity:     33,
			statuses:     []domain.OrderStatus{domain.OrderFilled},
			wantFilled:   true,
			wantPlaced:   1,
			wantLastQty:  33,
			wantLastType: domain.Market,
		},
		{
			name:         "거부된 주문은 재시도하지 않음",
			policy:       RetryReduceQuantity,
			quantity:     33,
			statuses:     []domain.OrderStatus{domain.OrderRejected},
			wantErr:      ErrOrderRejected,
			wantPhase:    "place",
			wantPlaced:   1,
			wantLastQty:  33,
			wantLastType: domain.Market,
		},
		{
			name:          "미체결 - 취소 후 95% 수량으로 재시도",
			policy:        RetryReduceQuantity,
			quantity:      33,
			statuses:      []domain.OrderStatus{domain.OrderPending, domain.OrderFilled},
			wantFilled:    true,
			wantPlaced:    2,
			wantCancelled: []string{"1"},
			wantLastQty:   31,
			wantLastType:  domain.Market,
		},
		{
			name:         "이미 취소된 주문은 취소 없이 재시도",
			policy:       RetryReduceQuantity,
			quantity:     100,
			statuses:     []domain.OrderStatus{domain.OrderCancelled, domain.OrderFilled},
			wantFilled:   true,
			wantPlaced:   2,
			wantLastQty:  95,
			wantLastType: domain.Market,
		},
		{
			name:          "지정가 재시도",
			policy:        RetryLimitEscalate,
			quantity:      33,
			statuses:      []domain.OrderStatus{domain.OrderPending, domain.OrderFilled},
			wantFilled:    true,
			wantPlaced:    2,
			wantCancelled: []string{"1"},
			wantLastQty:   33,
			wantLastType:  domain.Limit,
		},
		{
			name:          "재시도 수량 0이면 시도하지 않음",
			policy:        RetryReduceQuantity,
			quantity:      1,
			statuses:      []domain.OrderStatus{domain.OrderPending},
			wantErr:       ErrRetryQuantityZero,
			wantPhase:     "retry",
			wantPlaced:    1,
			wantCancelled: []string{"1"},
			wantLastQty:   1,
			wantLastType:  domain.Market,
		},
		{
			name:          "재시도도 미체결",
			policy:        RetryReduceQuantity,
			quantity:      20,
			statuses:      []domain.OrderStatus{domain.OrderPending, domain.OrderPending},
			wantErr:       ErrNotFilled,
			wantPhase:     "retry",
			wantPlaced:    2,
			wantCancelled: []string{"1", "2"},
			wantLastQty:   19,
			wantLastType:  domain.Market,
		},
		{
			name:         "재시도 주문 거부",
			policy:       RetryLimitEscalate,
			quantity:     20,
			statuses:     []domain.OrderStatus{domain.OrderCancelled, domain.OrderRejected},
			wantErr:      ErrOrderRejected,
			wantPhase:    "retry",
			wantPlaced:   2,
			wantLastQty:  20,
			wantLastType: domain.Limit,
		},
		{
			name:         "취소 실패 시 재시도 중단",
			policy:       RetryReduceQuantity,
			quantity:     33,
			statuses:     []domain.OrderStatus{domain.OrderPending},
			cancelErr:    &exchange.GatewayError{Op: "cancel_order", Err: exchange.ErrUnavailable},
			wantErr:      exchange.ErrUnavailable,
			wantPhase:    "cancel",
			wantPlaced:   1,
			wantLastQty:  33,
			wantLastType: domain.Market,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			broker := &exchangetest.Broker{Statuses: tt.statuses, CancelErr: tt.cancelErr}
			exec := NewOrderExecutor(tt.policy, WithSleep(noSleep))

			report, err := exec.Execute(context.Background(), broker, buyRequest(tt.quantity))
			require.NotNil(t, report)

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				var execErr *ExecutionError
				require.ErrorAs(t, err, &execErr)
				assert.Equal(t, tt.wantPhase, execErr.Phase)
			} else {
				require.NoError(t, err)
			}

			assert.Equal(t, tt.wantFilled, report.Filled)
			assert.Equal(t, tt.wantPlaced, broker.CallCount("place_order"))
			assert.Equal(t, tt.wantPlaced, report.Attempts)
			assert.Equal(t, tt.wantCancelled, broker.Cancelled())

			orders := broker.Orders()
			require.Len(t, orders, tt.wantPlaced)
			last := orders[len(orders)-1]
			assert.Equal(t, tt.wantLastQty, last.Quantity)
			assert.Equal(t, tt.wantLastType, last.Type)
			assert.Equal(t, domain.Open, last.Effect)
		})
	}
}

func TestExecutorLimitPrice(t *testing.T) {
	broker := &exchangetest.Broker{Statuses: []domain.OrderStatus{domain.OrderPending, domain.OrderFilled}}
	exec := NewOrderExecutor(RetryLimitEscalate, WithSleep(noSleep))

	report, err := exec.Execute(context.Background(), broker, buyRequest(33))
	require.NoError(t, err)
	assert.Equal(t, "152.01", report.LimitPrice.String())
	assert.Equal(t, "152.01", broker.Orders()[1].LimitPrice.String())
}

func TestExecutorLimitWithoutReferencePrice(t *testing.T) {
	broker := &exchangetest.Broker{Statuses: []domain.OrderStatus{domain.OrderCancelled}}
	exec := NewOrderExecutor(RetryLimitEscalate, WithSleep(noSleep))

	req := buyRequest(10)
	req.RefPrice = decimal.Zero
	_, err := exec.Execute(context.Background(), broker, req)
	assert.ErrorIs(t, err, ErrNoReferencePrice)
	assert.Equal(t, 1, broker.CallCount("place_order"))
}

func TestExecutorPlaceError(t *testing.T) {
	broker := &exchangetest.Broker{PlaceErr: &exchange.GatewayError{Op: "place_order", Err: exchange.ErrRejected}}
	exec := NewOrderExecutor(RetryReduceQuantity, WithSleep(noSleep))

	report, err := exec.Execute(context.Background(), broker, buyRequest(10))
	assert.ErrorIs(t, err, exchange.ErrRejected)
	assert.False(t, report.Filled)
	assert.Zero(t, broker.CallCount("get_order_status"))
}

func TestExecutorStatusErrorCancelsOrder(t *testing.T) {
	broker := &exchangetest.Broker{StatusErr: &exchange.GatewayError{Op: "get_order_status", Err: exchange.ErrUnavailable}}
	exec := NewOrderExecutor(RetryReduceQuantity, WithSleep(noSleep))

	_, err := exec.Execute(context.Background(), broker, buyRequest(10))
	assert.ErrorIs(t, err, exchange.ErrUnavailable)
	assert.Equal(t, []string{"1"}, broker.Cancelled())
	assert.Equal(t, 1, broker.CallCount("place_order"))
}

func TestExecutorWaitsSettleDelay(t *testing.T) {
	var waited []time.Duration
	sleep := func(ctx context.Context, d time.Duration) error {
		waited = append(waited, d)
		return nil
	}
	broker := &exchangetest.Broker{Statuses: []domain.OrderStatus{domain.OrderPending, domain.OrderFilled}}
	exec := NewOrderExecutor(RetryReduceQuantity, WithSleep(sleep), WithSettleDelay(time.Second))

	_, err := exec.Execute(context.Background(), broker, buyRequest(10))
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{time.Second, time.Second}, waited)
	assert.Equal(t, 2, broker.CallCount("get_order_status"), "상태는 주문마다 한 번만 확인합니다")
}

func TestParsePolicies(t *testing.T) {
	p, err := ParseRetryPolicy("limit-escalate")
	require.NoError(t, err)
	assert.Equal(t, RetryLimitEscalate, p)
	_, err = ParseRetryPolicy("double-down")
	assert.Error(t, err)

	tp, err := ParseTradingPolicy("strict")
	require.NoError(t, err)
	assert.Equal(t, PolicyStrict, tp)
	_, err = ParseTradingPolicy("yolo")
	assert.Error(t, err)
}
