// Package demo는 브로커에 접근할 수 없을 때 쓰는 데모 브로커를 제공합니다.
// 주문은 즉시 체결된 것으로 처리하며 실제 거래는 일어나지 않습니다.
package demo

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/assist-by/tastyhook/internal/domain"
	"github.com/assist-by/tastyhook/internal/exchange"
)

// AccountID는 데모 계정 번호입니다
const AccountID = "DEMO"

// Broker는 exchange.Broker의 데모 구현입니다
type Broker struct {
	cache    *Cache
	snapshot *domain.AccountSnapshot

	mu     sync.Mutex
	orders map[string]*domain.Order
}

// NewBroker는 현금 잔고와 가격표로 데모 브로커를 생성합니다
func NewBroker(cash decimal.Decimal, cache *Cache) *Broker {
	if cache == nil {
		cache = NewCache(DefaultPrices(), DefaultPlaceholderPrice)
	}
	return &Broker{
		cache: cache,
		snapshot: &domain.AccountSnapshot{
			AccountID:   AccountID,
			CashBalance: cash,
			Positions:   []domain.Position{},
		},
		orders: make(map[string]*domain.Order),
	}
}

// Name은 브로커 이름을 반환합니다
func (b *Broker) Name() string {
	return "demo"
}

// Cache는 가격표를 반환합니다
func (b *Broker) Cache() *Cache {
	return b.cache
}

// Authenticate는 항상 성공합니다
func (b *Broker) Authenticate(ctx context.Context) error {
	return nil
}

// GetAccountSnapshot은 고정된 데모 스냅샷의 복사본을 반환합니다
func (b *Broker) GetAccountSnapshot(ctx context.Context, accountIDHint string) (*domain.AccountSnapshot, error) {
	return b.snapshot.Clone(), nil
}

// GetQuote는 가격표의 가격을 체결가로 반환합니다
func (b *Broker) GetQuote(ctx context.Context, symbol string) (*domain.Quote, error) {
	p, _ := b.cache.Price(symbol)
	return &domain.Quote{Symbol: symbol, Last: p}, nil
}

// PlaceOrder는 주문을 즉시 체결 처리합니다
func (b *Broker) PlaceOrder(ctx context.Context, req domain.OrderRequest) (*domain.Order, error) {
	if req.Quantity < 1 {
		return nil, &exchange.GatewayError{
			Op:       "place_order",
			Method:   http.MethodPost,
			Endpoint: "demo",
			Err:      fmt.Errorf("%w: 수량은 1 이상이어야 합니다", exchange.ErrRejected),
		}
	}

	order := &domain.Order{
		ID:         uuid.NewString(),
		Symbol:     req.Symbol,
		Side:       req.Side,
		Quantity:   req.Quantity,
		Type:       req.Type,
		LimitPrice: req.LimitPrice,
		Status:     domain.OrderFilled,
	}

	b.mu.Lock()
	b.orders[order.ID] = order
	b.mu.Unlock()

	log.Printf("데모 주문 체결: %s %s %d주 (ID: %s)", order.Side, order.Symbol, order.Quantity, order.ID)
	result := *order
	return &result, nil
}

// GetOrderStatus는 데모 주문의 상태를 반환합니다
func (b *Broker) GetOrderStatus(ctx context.Context, accountID, orderID string) (domain.OrderStatus, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	order, ok := b.orders[orderID]
	if !ok {
		return "", &exchange.GatewayError{
			Op:       "get_order_status",
			Method:   http.MethodGet,
			Endpoint: "demo",
			Err:      fmt.Errorf("%w: 주문 %s", exchange.ErrNotFound, orderID),
		}
	}
	return order.Status, nil
}

// CancelOrder는 체결되지 않은 데모 주문을 취소합니다. 데모 주문은 즉시 체결되므로 대부분 아무 일도 하지 않습니다.
func (b *Broker) CancelOrder(ctx context.Context, accountID, orderID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	order, ok := b.orders[orderID]
	if !ok {
		return &exchange.GatewayError{
			Op:       "cancel_order",
			Method:   http.MethodDelete,
			Endpoint: "demo",
			Err:      fmt.Errorf("%w: 주문 %s", exchange.ErrNotFound, orderID),
		}
	}
	if !order.Status.IsTerminal() {
		order.Status = domain.OrderCancelled
	}
	return nil
}

var _ exchange.Broker = (*Broker)(nil)
