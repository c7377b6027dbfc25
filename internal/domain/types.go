package domain

// OrderSide는 주문 방향을 정의합니다
type OrderSide string

const (
	Buy  OrderSide = "BUY"
	Sell OrderSide = "SELL"
)

// PositionEffect는 주문이 포지션을 여는지 닫는지를 정의합니다
type PositionEffect string

const (
	Open  PositionEffect = "OPEN"
	Close PositionEffect = "CLOSE"
)

// OrderType은 주문 유형을 정의합니다
type OrderType string

const (
	Market OrderType = "MARKET"
	Limit  OrderType = "LIMIT"
)

// OrderStatus는 브로커가 보고한 주문 상태입니다
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderFilled    OrderStatus = "filled"
	OrderRejected  OrderStatus = "rejected"
	OrderCancelled OrderStatus = "cancelled"
)

// IsTerminal은 더 이상 상태가 바뀌지 않는 주문인지 확인합니다
func (s OrderStatus) IsTerminal() bool {
	return s == OrderFilled || s == OrderRejected || s == OrderCancelled
}

// Mode는 시그널이 실제 브로커로 처리됐는지 데모로 처리됐는지 나타냅니다
type Mode string

const (
	ModeLive Mode = "live"
	ModeDemo Mode = "demo"
)

// NotificationColor는 알림 색상 코드를 정의합니다
const (
	ColorSuccess = 0x00FF00 // 녹색
	ColorError   = 0xFF0000 // 빨간색
	ColorInfo    = 0x0000FF // 파란색
	ColorWarning = 0xFFA500 // 주황색
)
