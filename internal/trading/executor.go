package trading

import (
	"context"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"github.com/assist-by/tastyhook/internal/domain"
	"github.com/assist-by/tastyhook/internal/exchange"
	"github.com/assist-by/tastyhook/internal/metrics"
	"github.com/assist-by/tastyhook/internal/price"
)

var (
	retryQuantityRatio = decimal.RequireFromString("0.95")
	limitMarkup        = decimal.RequireFromString("1.01")
)

// ExecuteRequest는 주문 실행 요청입니다
type ExecuteRequest struct {
	AccountID string
	Symbol    string
	Side      domain.OrderSide
	Quantity  int64
	// RefPrice는 지정가 재시도에서 기준이 되는 가격입니다
	RefPrice decimal.Decimal
}

// Report는 주문 실행 결과입니다. 마지막으로 제출한 주문 기준입니다.
type Report struct {
	Filled     bool
	OrderID    string
	Quantity   int64
	Type       domain.OrderType
	LimitPrice decimal.Decimal
	Status     domain.OrderStatus
	Attempts   int
}

// OrderExecutor는 주문을 내고 한 번 확인한 뒤 필요하면 한 번 재시도합니다
type OrderExecutor struct {
	policy      RetryPolicy
	settleDelay time.Duration
	sleep       func(ctx context.Context, d time.Duration) error
}

// ExecutorOption은 OrderExecutor 설정 옵션입니다
type ExecutorOption func(*OrderExecutor)

// WithSettleDelay는 주문 후 상태 확인까지의 대기 시간을 설정합니다
func WithSettleDelay(d time.Duration) ExecutorOption {
	return func(e *OrderExecutor) {
		e.settleDelay = d
	}
}

// WithSleep은 대기 함수를 교체합니다
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) ExecutorOption {
	return func(e *OrderExecutor) {
		e.sleep = sleep
	}
}

// NewOrderExecutor는 새 주문 실행기를 생성합니다
func NewOrderExecutor(policy RetryPolicy, opts ...ExecutorOption) *OrderExecutor {
	e := &OrderExecutor{
		policy:      policy,
		settleDelay: time.Second,
		sleep:       price.Sleep,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute는 시장가 주문을 내고 대기 후 상태를 한 번 확인합니다.
// 거부된 주문은 재시도하지 않으며, 미체결이면 정책에 따라 최대 한 번 재시도합니다.
// 재시도 전에 미체결 주문을 취소하므로 같은 심볼의 주문은 항상 하나만 살아 있습니다.
func (e *OrderExecutor) Execute(ctx context.Context, broker exchange.Broker, req ExecuteRequest) (*Report, error) {
	report := &Report{}

	first := domain.OrderRequest{
		AccountID: req.AccountID,
		Symbol:    req.Symbol,
		Side:      req.Side,
		Effect:    domain.Open,
		Type:      domain.Market,
		Quantity:  req.Quantity,
	}
	status, err := e.submit(ctx, broker, first, report)
	if err != nil {
		return report, &ExecutionError{Phase: "place", Err: err}
	}

	switch status {
	case domain.OrderFilled:
		return report, nil
	case domain.OrderRejected:
		return report, &ExecutionError{Phase: "place", Err: ErrOrderRejected}
	case domain.OrderPending:
		if err := broker.CancelOrder(ctx, req.AccountID, report.OrderID); err != nil {
			return report, &ExecutionError{Phase: "cancel", Err: err}
		}
		log.Printf("미체결 주문 취소: %s (ID: %s)", req.Symbol, report.OrderID)
	}

	retry, err := e.retryRequest(first, req.RefPrice)
	if err != nil {
		return report, &ExecutionError{Phase: "retry", Err: err}
	}
	log.Printf("주문 재시도 (%s): %s %d주", e.policy, retry.Symbol, retry.Quantity)

	status, err = e.submit(ctx, broker, retry, report)
	if err != nil {
		return report, &ExecutionError{Phase: "retry", Err: err}
	}

	switch status {
	case domain.OrderFilled:
		return report, nil
	case domain.OrderRejected:
		return report, &ExecutionError{Phase: "retry", Err: ErrOrderRejected}
	case domain.OrderPending:
		if err := broker.CancelOrder(ctx, req.AccountID, report.OrderID); err != nil {
			log.Printf("재시도 주문 취소 실패 (ID: %s): %v", report.OrderID, err)
		}
	}
	return report, &ExecutionError{Phase: "retry", Err: ErrNotFilled}
}

// submit은 주문을 내고 대기 후 상태를 확인합니다
func (e *OrderExecutor) submit(ctx context.Context, broker exchange.Broker, req domain.OrderRequest, report *Report) (domain.OrderStatus, error) {
	report.Attempts++
	report.Quantity = req.Quantity
	report.Type = req.Type
	report.LimitPrice = req.LimitPrice
	report.OrderID = ""
	report.Status = ""
	report.Filled = false

	order, err := broker.PlaceOrder(ctx, req)
	if err != nil {
		metrics.IncOrder(string(req.Type), "error")
		return "", err
	}
	report.OrderID = order.ID

	if err := e.sleep(ctx, e.settleDelay); err != nil {
		return "", err
	}

	status, err := broker.GetOrderStatus(ctx, req.AccountID, order.ID)
	if err != nil {
		// 상태를 모르는 주문은 살려 두지 않습니다
		if cerr := broker.CancelOrder(ctx, req.AccountID, order.ID); cerr != nil {
			log.Printf("상태 미확인 주문 취소 실패 (ID: %s): %v", order.ID, cerr)
		}
		metrics.IncOrder(string(req.Type), "unknown")
		return "", err
	}

	report.Status = status
	report.Filled = status == domain.OrderFilled
	metrics.IncOrder(string(req.Type), string(status))
	return status, nil
}

// retryRequest는 정책에 맞는 재시도 주문을 만듭니다
func (e *OrderExecutor) retryRequest(first domain.OrderRequest, refPrice decimal.Decimal) (domain.OrderRequest, error) {
	retry := first

	switch e.policy {
	case RetryLimitEscalate:
		if !refPrice.IsPositive() {
			return retry, ErrNoReferencePrice
		}
		retry.Type = domain.Limit
		retry.LimitPrice = refPrice.Mul(limitMarkup).Round(2)
	default:
		qty := decimal.NewFromInt(first.Quantity).Mul(retryQuantityRatio).Floor().IntPart()
		if qty < 1 {
			return retry, ErrRetryQuantityZero
		}
		retry.Quantity = qty
	}
	return retry, nil
}
