package trading

import (
	"errors"
	"fmt"
)

// RetryPolicy는 첫 주문이 체결되지 않았을 때의 재시도 방식입니다
type RetryPolicy string

const (
	// RetryReduceQuantity는 수량을 95%로 줄여 시장가로 다시 주문합니다
	RetryReduceQuantity RetryPolicy = "reduce-quantity"
	// RetryLimitEscalate는 같은 수량을 기준가 +1% 지정가로 다시 주문합니다
	RetryLimitEscalate RetryPolicy = "limit-escalate"
)

// ParseRetryPolicy는 설정 문자열을 RetryPolicy로 변환합니다
func ParseRetryPolicy(s string) (RetryPolicy, error) {
	switch p := RetryPolicy(s); p {
	case RetryReduceQuantity, RetryLimitEscalate:
		return p, nil
	default:
		return "", fmt.Errorf("알 수 없는 재시도 정책: %q", s)
	}
}

// TradingPolicy는 브로커 장애 시 처리 방식입니다
type TradingPolicy string

const (
	// PolicyStrict는 브로커 에러를 그대로 실패로 처리합니다
	PolicyStrict TradingPolicy = "strict"
	// PolicyDemoFallback은 인증/게이트웨이 에러 시 데모 브로커로 전환합니다
	PolicyDemoFallback TradingPolicy = "demo-fallback"
)

// ParseTradingPolicy는 설정 문자열을 TradingPolicy로 변환합니다
func ParseTradingPolicy(s string) (TradingPolicy, error) {
	switch p := TradingPolicy(s); p {
	case PolicyStrict, PolicyDemoFallback:
		return p, nil
	default:
		return "", fmt.Errorf("알 수 없는 거래 정책: %q", s)
	}
}

// 주문 실행 에러
var (
	ErrOrderRejected     = errors.New("주문이 거부되었습니다")
	ErrNotFilled         = errors.New("재시도 후에도 주문이 체결되지 않았습니다")
	ErrRetryQuantityZero = errors.New("재시도 수량이 1주 미만입니다")
	ErrNoReferencePrice  = errors.New("지정가 계산에 쓸 기준 가격이 없습니다")
)

// ValidationError는 거래 실행 중 발생한 유효성 검사 오류를 나타내는 구조체입니다.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ExecutionError는 거래 실행 중 발생한 오류를 나타내는 구조체입니다.
type ExecutionError struct {
	Phase string
	Err   error
}

func (e *ExecutionError) Error() string {
	return "매매 실행 실패 (" + e.Phase + "): " + e.Err.Error()
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}
