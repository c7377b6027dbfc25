// Package exchangetest는 패키지 테스트에서 사용하는 스크립트형 가짜 브로커를 제공합니다.
package exchangetest

import (
	"context"
	"strconv"
	"sync"

	"github.com/assist-by/tastyhook/internal/domain"
)

// Broker는 미리 정해진 응답을 돌려주고 호출을 기록하는 exchange.Broker 구현입니다.
// 필드는 사용 전에 설정하고 호출 도중에는 바꾸지 않습니다.
type Broker struct {
	BrokerName string

	AuthErr error

	// Snapshots가 있으면 호출마다 앞에서부터 하나씩 사용하고 마지막 값은 계속 재사용합니다
	Snapshots   []*domain.AccountSnapshot
	SnapshotErr error

	Quotes   map[string]*domain.Quote
	QuoteErr error

	PlaceErr error
	// Statuses는 GetOrderStatus 호출 순서대로 반환할 상태입니다. 모두 소비하면 filled를 반환합니다.
	Statuses  []domain.OrderStatus
	StatusErr error
	CancelErr error

	mu        sync.Mutex
	calls     []string
	orders    []domain.OrderRequest
	cancelled []string
	nextID    int
}

// Name은 브로커 이름을 반환합니다
func (b *Broker) Name() string {
	if b.BrokerName == "" {
		return "fake"
	}
	return b.BrokerName
}

func (b *Broker) record(op string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, op)
}

// Authenticate는 AuthErr를 반환합니다
func (b *Broker) Authenticate(ctx context.Context) error {
	b.record("authenticate")
	return b.AuthErr
}

// GetAccountSnapshot은 스크립트된 스냅샷을 반환합니다
func (b *Broker) GetAccountSnapshot(ctx context.Context, accountIDHint string) (*domain.AccountSnapshot, error) {
	b.record("get_account_snapshot")
	if b.SnapshotErr != nil {
		return nil, b.SnapshotErr
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.Snapshots) == 0 {
		return &domain.AccountSnapshot{AccountID: "FAKE"}, nil
	}
	snap := b.Snapshots[0]
	if len(b.Snapshots) > 1 {
		b.Snapshots = b.Snapshots[1:]
	}
	return snap.Clone(), nil
}

// GetQuote는 Quotes에 등록된 시세를 반환합니다
func (b *Broker) GetQuote(ctx context.Context, symbol string) (*domain.Quote, error) {
	b.record("get_quote")
	if b.QuoteErr != nil {
		return nil, b.QuoteErr
	}
	q, ok := b.Quotes[symbol]
	if !ok {
		return &domain.Quote{Symbol: symbol}, nil
	}
	c := *q
	return &c, nil
}

// PlaceOrder는 주문을 기록하고 순번 ID를 부여합니다
func (b *Broker) PlaceOrder(ctx context.Context, req domain.OrderRequest) (*domain.Order, error) {
	b.record("place_order")
	if b.PlaceErr != nil {
		return nil, b.PlaceErr
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	b.orders = append(b.orders, req)
	return &domain.Order{
		ID:         strconv.Itoa(b.nextID),
		Symbol:     req.Symbol,
		Side:       req.Side,
		Quantity:   req.Quantity,
		Type:       req.Type,
		LimitPrice: req.LimitPrice,
		Status:     domain.OrderPending,
	}, nil
}

// GetOrderStatus는 Statuses를 순서대로 반환합니다
func (b *Broker) GetOrderStatus(ctx context.Context, accountID, orderID string) (domain.OrderStatus, error) {
	b.record("get_order_status")
	if b.StatusErr != nil {
		return "", b.StatusErr
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.Statuses) == 0 {
		return domain.OrderFilled, nil
	}
	s := b.Statuses[0]
	b.Statuses = b.Statuses[1:]
	return s, nil
}

// CancelOrder는 취소를 기록합니다
func (b *Broker) CancelOrder(ctx context.Context, accountID, orderID string) error {
	b.record("cancel_order")
	if b.CancelErr != nil {
		return b.CancelErr
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.cancelled = append(b.cancelled, orderID)
	return nil
}

// Calls는 호출된 작업 이름을 순서대로 반환합니다
func (b *Broker) Calls() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.calls...)
}

// CallCount는 특정 작업의 호출 횟수를 반환합니다
func (b *Broker) CallCount(op string) int {
	n := 0
	for _, c := range b.Calls() {
		if c == op {
			n++
		}
	}
	return n
}

// Orders는 제출된 주문 요청을 순서대로 반환합니다
func (b *Broker) Orders() []domain.OrderRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]domain.OrderRequest(nil), b.orders...)
}

// Cancelled는 취소된 주문 ID를 반환합니다
func (b *Broker) Cancelled() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.cancelled...)
}
