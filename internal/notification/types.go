package notification

import (
	"github.com/shopspring/decimal"

	"github.com/assist-by/tastyhook/internal/domain"
)

// Notifier는 알림 전송 인터페이스를 정의합니다
type Notifier interface {
	// SendError는 에러 알림을 전송합니다
	SendError(err error) error

	// SendInfo는 일반 정보 알림을 전송합니다
	SendInfo(message string) error

	// SendTradeInfo는 거래 실행 정보를 전송합니다
	SendTradeInfo(info TradeInfo) error
}

// TradeInfo는 거래 실행 정보를 정의합니다
type TradeInfo struct {
	Signal        domain.SignalType // long / short
	Symbol        string            // 매수한 심볼 (예: MSTU)
	Quantity      int64             // 주식 수
	Price         decimal.Decimal   // 수량 계산에 쓴 가격
	OrderID       string            // 체결된 주문 ID
	OrderType     domain.OrderType  // 시장가/지정가
	Attempts      int               // 주문 시도 횟수
	Mode          domain.Mode       // live / demo
	CashBalance   decimal.Decimal   // 주문 전 현금 잔고
	ClosedSymbols []string          // 먼저 청산한 심볼
}

// GetColorForSignal은 시그널 타입에 따른 색상을 반환합니다
func GetColorForSignal(signal domain.SignalType, mode domain.Mode) int {
	if mode == domain.ModeDemo {
		return domain.ColorWarning
	}
	switch signal {
	case domain.Long:
		return domain.ColorSuccess
	case domain.Short:
		return domain.ColorError
	default:
		return domain.ColorInfo
	}
}

// Nop은 아무것도 보내지 않는 Notifier입니다
type Nop struct{}

func (Nop) SendError(error) error         { return nil }
func (Nop) SendInfo(string) error         { return nil }
func (Nop) SendTradeInfo(TradeInfo) error { return nil }
