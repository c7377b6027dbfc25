package domain

import "github.com/shopspring/decimal"

// ResultStatus는 시그널 처리 결과 상태입니다
type ResultStatus string

const (
	StatusSuccess  ResultStatus = "success"
	StatusError    ResultStatus = "error"
	StatusInfo     ResultStatus = "info"
	StatusCooldown ResultStatus = "cooldown"
)

// TradeResult는 시그널 처리의 최종 결과입니다. 생성 후 변경하지 않습니다.
type TradeResult struct {
	Status   ResultStatus     `json:"status"`
	Message  string           `json:"message"`
	Signal   SignalType       `json:"signal,omitempty"`
	Symbol   string           `json:"symbol,omitempty"`
	Quantity int64            `json:"quantity,omitempty"`
	Price    *decimal.Decimal `json:"price,omitempty"`
	Position *PositionInfo    `json:"position,omitempty"`
	Mode     Mode             `json:"mode,omitempty"`
	// RetryAfterSeconds는 쿨다운 결과에서 남은 시간입니다
	RetryAfterSeconds int64 `json:"retry_after_seconds,omitempty"`
}

// PositionInfo는 성공한 거래의 세부 정보입니다
type PositionInfo struct {
	AccountID     string    `json:"account_id"`
	OrderID       string    `json:"order_id"`
	OrderType     OrderType `json:"order_type"`
	Attempts      int       `json:"attempts"`
	ClosedSymbols []string  `json:"closed_symbols,omitempty"`
}
