package position

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/assist-by/tastyhook/internal/domain"
)

// 보유 포지션 여부에 따른 현금 사용 비율
var (
	FlatAllocation = decimal.RequireFromString("0.5")
	HeldAllocation = decimal.NewFromInt(1)
)

// PositionSizeResult는 포지션 계산 결과를 담는 구조체입니다
type PositionSizeResult struct {
	Quantity      int64           // 매수 주식 수
	Allocation    decimal.Decimal // 사용한 현금 비율
	PositionValue decimal.Decimal // 수량 × 가격
}

// CalculatePositionSize는 현금 잔고와 가격으로 매수 수량을 계산합니다.
// 어떤 심볼이든 포지션을 보유 중이면 현금 전액을, 아니면 절반을 사용하고 소수점 이하는 버립니다.
func CalculatePositionSize(snap *domain.AccountSnapshot, price decimal.Decimal) (PositionSizeResult, error) {
	if !price.IsPositive() {
		return PositionSizeResult{}, fmt.Errorf("%w: %s", ErrInvalidPrice, price)
	}

	allocation := FlatAllocation
	if snap.HasPositions() {
		allocation = HeldAllocation
	}

	budget := snap.CashBalance.Mul(allocation)
	quantity := budget.Div(price).Floor().IntPart()
	if quantity < 1 {
		return PositionSizeResult{}, fmt.Errorf("%w: 현금 %s, 가격 %s, 비율 %s",
			ErrInsufficientFunds, snap.CashBalance.StringFixed(2), price.StringFixed(2), allocation)
	}

	return PositionSizeResult{
		Quantity:      quantity,
		Allocation:    allocation,
		PositionValue: price.Mul(decimal.NewFromInt(quantity)),
	}, nil
}
