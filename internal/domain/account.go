package domain

import "github.com/shopspring/decimal"

// Position은 보유 포지션을 표현합니다
type Position struct {
	Symbol   string `json:"symbol"`   // 심볼 (예: MSTU)
	Quantity int64  `json:"quantity"` // 수량 (양수: 롱, 음수: 숏)
}

// IsLong은 롱 포지션인지 확인합니다
func (p Position) IsLong() bool {
	return p.Quantity > 0
}

// AbsQuantity는 수량의 절대값을 반환합니다
func (p Position) AbsQuantity() int64 {
	if p.Quantity < 0 {
		return -p.Quantity
	}
	return p.Quantity
}

// ExitSide는 포지션 청산에 필요한 주문 방향을 반환합니다
func (p Position) ExitSide() OrderSide {
	if p.IsLong() {
		return Sell
	}
	return Buy
}

// AccountSnapshot은 시그널 처리 시점의 계정 상태입니다.
// 시그널마다 새로 조회하며 시그널 간에 캐시하지 않습니다.
type AccountSnapshot struct {
	AccountID   string          `json:"account_id"`
	CashBalance decimal.Decimal `json:"cash_balance"`
	Positions   []Position      `json:"positions"`
}

// HasPositions는 어떤 심볼이든 보유 포지션이 있는지 확인합니다
func (a *AccountSnapshot) HasPositions() bool {
	for _, p := range a.Positions {
		if p.Quantity != 0 {
			return true
		}
	}
	return false
}

// Clone은 포지션 슬라이스까지 복사한 스냅샷을 반환합니다
func (a *AccountSnapshot) Clone() *AccountSnapshot {
	c := *a
	c.Positions = append([]Position(nil), a.Positions...)
	return &c
}
