// internal/exchange/exchange.go
package exchange

import (
	"context"

	"github.com/assist-by/tastyhook/internal/domain"
)

// Broker는 증권사와의 상호작용을 위한 인터페이스입니다.
// 모든 호출은 실패할 수 있는 원격 호출이며 호출 간 트랜잭션 보장은 없습니다.
type Broker interface {
	// Name은 브로커 이름을 반환합니다 (로그/감사용)
	Name() string

	// 인증
	Authenticate(ctx context.Context) error

	// 계정 데이터 조회
	// accountIDHint가 비어 있으면 조회된 첫 번째 계정을 사용합니다
	GetAccountSnapshot(ctx context.Context, accountIDHint string) (*domain.AccountSnapshot, error)

	// 시장 데이터 조회
	GetQuote(ctx context.Context, symbol string) (*domain.Quote, error)

	// 거래 기능
	PlaceOrder(ctx context.Context, req domain.OrderRequest) (*domain.Order, error)
	GetOrderStatus(ctx context.Context, accountID, orderID string) (domain.OrderStatus, error)
	CancelOrder(ctx context.Context, accountID, orderID string) error
}
