// internal/exchange/tastytrade/client.go
package tastytrade

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/assist-by/tastyhook/internal/exchange"
)

const (
	productionURL = "https://api.tastyworks.com"
	sandboxURL    = "https://api.cert.tastyworks.com"
	userAgent     = "tastyhook/1.1"
)

// Client는 TastyTrade REST API 클라이언트를 구현합니다
type Client struct {
	username   string
	password   string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
	session    *Session
	now        func() time.Time
}

// ClientOption은 클라이언트 생성 옵션을 정의합니다
type ClientOption func(*Client)

// WithTimeout은 HTTP 클라이언트의 타임아웃을 설정합니다
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithBaseURL은 기본 URL을 설정합니다
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = baseURL
		}
	}
}

// WithSandbox는 인증(cert) 환경 사용 여부를 설정합니다
func WithSandbox(useSandbox bool) ClientOption {
	return func(c *Client) {
		if useSandbox {
			c.baseURL = sandboxURL
		}
	}
}

// WithRateLimit은 초당 요청 수 제한을 설정합니다. 0 이하면 제한하지 않습니다.
func WithRateLimit(perSecond float64, burst int) ClientOption {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithClock은 세션 만료 판단에 쓰는 시간 함수를 교체합니다
func WithClock(now func() time.Time) ClientOption {
	return func(c *Client) {
		c.now = now
	}
}

// NewClient는 새로운 TastyTrade API 클라이언트를 생성합니다
func NewClient(username, password string, opts ...ClientOption) *Client {
	c := &Client{
		username:   username,
		password:   password,
		baseURL:    productionURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(5), 5),
		session:    &Session{},
		now:        time.Now,
	}

	// 옵션 적용
	for _, opt := range opts {
		opt(c)
	}

	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "tastytrade",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// 연결 실패만 차단기 실패로 집계합니다. 4xx 거부는 브로커가 살아 있다는 뜻입니다.
		IsSuccessful: func(err error) bool {
			return err == nil || !errors.Is(err, exchange.ErrUnavailable)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Printf("서킷 브레이커 상태 변경 [%s]: %s -> %s", name, from, to)
		},
	})

	return c
}

// Name은 브로커 이름을 반환합니다
func (c *Client) Name() string {
	return "tastytrade"
}

// HasCredentials는 로그인 정보가 설정되었는지 확인합니다
func (c *Client) HasCredentials() bool {
	return c.username != "" && c.password != ""
}

// doRequest는 HTTP 요청을 실행하고 data 필드가 담긴 응답 본문을 반환합니다
func (c *Client) doRequest(ctx context.Context, op, method, endpoint string, params url.Values, body any, needAuth bool) ([]byte, error) {
	gwErr := func(status int, err error) error {
		return &exchange.GatewayError{Op: op, Method: method, Endpoint: endpoint, StatusCode: status, Err: err}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, gwErr(0, fmt.Errorf("%w: 요청 대기 실패: %v", exchange.ErrUnavailable, err))
	}

	var token string
	if needAuth {
		t, ok := c.session.Token(c.now())
		if !ok {
			return nil, &exchange.AuthError{Err: exchange.ErrSessionExpired}
		}
		token = t
	}

	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.send(ctx, method, endpoint, params, body, token, gwErr)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, gwErr(0, fmt.Errorf("%w: %v", exchange.ErrUnavailable, err))
		}
		return nil, err
	}
	return out.([]byte), nil
}

func (c *Client) send(ctx context.Context, method, endpoint string, params url.Values, body any, token string, gwErr func(int, error) error) ([]byte, error) {
	// URL 생성
	reqURL, err := url.Parse(c.baseURL + endpoint)
	if err != nil {
		return nil, gwErr(0, fmt.Errorf("URL 파싱 실패: %w", err))
	}
	if len(params) > 0 {
		reqURL.RawQuery = params.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, gwErr(0, fmt.Errorf("요청 본문 생성 실패: %w", err))
		}
		reader = bytes.NewReader(payload)
	}

	// 요청 생성
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return nil, gwErr(0, fmt.Errorf("요청 생성 실패: %w", err))
	}

	// 헤더 설정
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", token)
	}

	// 요청 실행
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, gwErr(0, fmt.Errorf("%w: %v", exchange.ErrUnavailable, err))
	}
	defer resp.Body.Close()

	// 응답 읽기
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, gwErr(resp.StatusCode, fmt.Errorf("%w: 응답 읽기 실패: %v", exchange.ErrUnavailable, err))
	}

	// 상태 코드 확인
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return respBody, nil
	}

	msg := apiErrorMessage(respBody)
	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		// 다른 요청이 이미 새 세션을 받았다면 그 세션은 유지됩니다
		if token != "" {
			c.session.Invalidate(token)
		}
		return nil, &exchange.AuthError{Err: gwErr(resp.StatusCode, fmt.Errorf("%w: %s", exchange.ErrAuthRejected, msg))}
	case resp.StatusCode == http.StatusNotFound:
		return nil, gwErr(resp.StatusCode, fmt.Errorf("%w: %s", exchange.ErrNotFound, msg))
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, gwErr(resp.StatusCode, fmt.Errorf("%w: %s", exchange.ErrUnavailable, msg))
	default:
		return nil, gwErr(resp.StatusCode, fmt.Errorf("%w: %s", exchange.ErrRejected, msg))
	}
}

// apiErrorMessage는 에러 응답에서 메시지를 추출합니다
func apiErrorMessage(body []byte) string {
	var apiErr struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &apiErr); err != nil || apiErr.Error.Message == "" {
		if len(body) > 200 {
			return string(body[:200])
		}
		return string(body)
	}
	if apiErr.Error.Code != "" {
		return fmt.Sprintf("%s (%s)", apiErr.Error.Message, apiErr.Error.Code)
	}
	return apiErr.Error.Message
}

// decodeData는 {"data": ...} 응답 봉투를 풀어 out에 채웁니다
func decodeData(op, method, endpoint string, body []byte, out any) error {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return &exchange.GatewayError{Op: op, Method: method, Endpoint: endpoint, Err: fmt.Errorf("%w: %v", exchange.ErrMalformed, err)}
	}
	if len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		return &exchange.GatewayError{Op: op, Method: method, Endpoint: endpoint, Err: fmt.Errorf("%w: data 필드 없음", exchange.ErrMalformed)}
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return &exchange.GatewayError{Op: op, Method: method, Endpoint: endpoint, Err: fmt.Errorf("%w: %v", exchange.ErrMalformed, err)}
	}
	return nil
}
