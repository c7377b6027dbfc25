package exchange

import (
	"errors"
	"fmt"
)

// 인증 에러
var (
	ErrCredentialsMissing = errors.New("브로커 계정 정보가 설정되지 않았습니다")
	ErrAuthRejected       = errors.New("브로커 인증이 거부되었습니다")
	ErrSessionExpired     = errors.New("세션이 없거나 만료되었습니다")
)

// 게이트웨이 에러
var (
	ErrUnavailable      = errors.New("브로커에 연결할 수 없습니다")
	ErrRejected         = errors.New("브로커가 요청을 거부했습니다")
	ErrMalformed        = errors.New("브로커 응답 형식이 잘못되었습니다")
	ErrNotFound         = errors.New("요청한 리소스를 찾을 수 없습니다")
	ErrQuoteUnavailable = errors.New("시세를 제공받을 수 없습니다")
	ErrNoAccount        = errors.New("사용 가능한 계정이 없습니다")
)

// AuthError는 인증 실패를 나타냅니다
type AuthError struct {
	Err error
}

// Error는 error 인터페이스를 구현합니다
func (e *AuthError) Error() string {
	return fmt.Sprintf("인증 에러: %v", e.Err)
}

// Unwrap은 내부 에러를 반환합니다 (errors.Is/As 지원을 위함)
func (e *AuthError) Unwrap() error {
	return e.Err
}

// GatewayError는 브로커 호출 실패를 호출 정보와 함께 나타냅니다
type GatewayError struct {
	Op         string // 논리 작업 이름 (예: get_quote)
	Method     string
	Endpoint   string
	StatusCode int // HTTP 응답이 없으면 0
	Err        error
}

// Error는 error 인터페이스를 구현합니다
func (e *GatewayError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("게이트웨이 에러 [%s %s %s, 상태: %d]: %v", e.Op, e.Method, e.Endpoint, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("게이트웨이 에러 [%s %s %s]: %v", e.Op, e.Method, e.Endpoint, e.Err)
}

// Unwrap은 내부 에러를 반환합니다
func (e *GatewayError) Unwrap() error {
	return e.Err
}

// IsAuthError는 인증 실패인지 확인합니다
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// IsDegradable은 데모 모드 전환으로 대체할 수 있는 에러인지 확인합니다.
// 인증 실패와 게이트웨이 실패만 해당하며, 검증/잔고 부족 같은 에러는 제외됩니다.
func IsDegradable(err error) bool {
	if err == nil {
		return false
	}
	var gwErr *GatewayError
	return IsAuthError(err) || errors.As(err, &gwErr)
}

// Kind는 로그와 지표에 쓰는 에러 분류 이름을 반환합니다
func Kind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrCredentialsMissing):
		return "credentials_missing"
	case errors.Is(err, ErrQuoteUnavailable):
		return "quote_unavailable"
	case errors.Is(err, ErrUnavailable):
		return "unavailable"
	case IsAuthError(err):
		return "auth_rejected"
	case errors.Is(err, ErrRejected):
		return "rejected"
	case errors.Is(err, ErrMalformed):
		return "malformed"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}
