package domain

import "github.com/shopspring/decimal"

// OrderRequest는 주문 요청 정보를 표현합니다
type OrderRequest struct {
	AccountID  string          // 계정 번호
	Symbol     string          // 심볼 (예: MSTU)
	Side       OrderSide       // 매수/매도
	Effect     PositionEffect  // 진입/청산
	Type       OrderType       // 시장가/지정가
	Quantity   int64           // 주식 수
	LimitPrice decimal.Decimal // 지정가 (Limit 주문 시)
}

// Order는 브로커에 제출된 주문입니다
type Order struct {
	ID         string          `json:"id"`
	Symbol     string          `json:"symbol"`
	Side       OrderSide       `json:"side"`
	Quantity   int64           `json:"quantity"`
	Type       OrderType       `json:"type"`
	LimitPrice decimal.Decimal `json:"limit_price,omitempty"`
	Status     OrderStatus     `json:"status"`
}
