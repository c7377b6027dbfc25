package domain

import (
	"fmt"
	"strings"
)

// SignalType은 외부에서 들어오는 트레이딩 시그널 유형을 정의합니다
type SignalType string

const (
	Long  SignalType = "long"
	Short SignalType = "short"
)

// String은 SignalType의 문자열 표현을 반환합니다
func (s SignalType) String() string {
	return string(s)
}

// ParseSignal은 웹훅의 signal 값을 검증합니다.
// 정확히 "long" 또는 "short"만 허용하며 대소문자나 공백을 보정하지 않습니다.
func ParseSignal(raw string) (SignalType, error) {
	switch SignalType(raw) {
	case Long, Short:
		return SignalType(raw), nil
	default:
		return "", fmt.Errorf("알 수 없는 시그널: %q", strings.TrimSpace(raw))
	}
}
