package price

import "errors"

var (
	// ErrPriceUnavailable은 시세, 프로브, 대체 가격 모두 사용할 수 없을 때 반환됩니다
	ErrPriceUnavailable = errors.New("가격을 확인할 수 없습니다")
	// ErrProbeInconclusive는 프로브 주문 전후 잔고 차이로 가격을 알 수 없을 때 반환됩니다
	ErrProbeInconclusive = errors.New("프로브 주문으로 가격을 추정하지 못했습니다")
)
