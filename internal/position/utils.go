package position

import (
	"github.com/assist-by/tastyhook/internal/domain"
)

// GetSymbolFromSignal은 시그널에 따라 매수할 심볼을 반환합니다.
// 숏 시그널도 인버스 종목을 매수하는 방식으로 처리합니다.
func GetSymbolFromSignal(signal domain.SignalType, longSymbol, shortSymbol string) string {
	if signal == domain.Short {
		return shortSymbol
	}
	return longSymbol
}

// GetOrderSideForEntry는 포지션 진입을 위한 주문 사이드를 반환합니다
func GetOrderSideForEntry(signal domain.SignalType) domain.OrderSide {
	return domain.Buy
}

// GetCloseRequest는 포지션 전량 청산 주문을 만듭니다
func GetCloseRequest(accountID string, pos domain.Position) domain.OrderRequest {
	return domain.OrderRequest{
		AccountID: accountID,
		Symbol:    pos.Symbol,
		Side:      pos.ExitSide(),
		Effect:    domain.Close,
		Type:      domain.Market,
		Quantity:  pos.AbsQuantity(),
	}
}
