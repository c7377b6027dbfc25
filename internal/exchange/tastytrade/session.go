package tastytrade

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/assist-by/tastyhook/internal/exchange"
)

// 만료 직전 토큰은 쓰지 않습니다
const sessionExpiryMargin = time.Minute

// Session은 프로세스 전체가 공유하는 인증 세션입니다.
// 여러 요청이 동시에 읽을 수 있고, 로그인은 singleflight로 한 번만 실행됩니다.
type Session struct {
	mu        sync.RWMutex
	token     string
	expiresAt time.Time
	group     singleflight.Group
}

// Token은 유효한 세션 토큰을 반환합니다
func (s *Session) Token(now time.Time) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" {
		return "", false
	}
	if !s.expiresAt.IsZero() && !now.Add(sessionExpiryMargin).Before(s.expiresAt) {
		return "", false
	}
	return s.token, true
}

func (s *Session) set(token string, expiresAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.expiresAt = expiresAt
}

// Invalidate는 stale 토큰이 현재 토큰일 때만 세션을 비웁니다.
// 동시에 재로그인한 요청이 받은 새 세션은 지우지 않습니다.
func (s *Session) Invalidate(stale string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == stale {
		s.token = ""
		s.expiresAt = time.Time{}
	}
}

// IsAuthenticated는 현재 유효한 세션이 있는지 확인합니다
func (c *Client) IsAuthenticated() bool {
	_, ok := c.session.Token(c.now())
	return ok
}

// Authenticate는 세션이 없을 때만 로그인합니다.
// 동시에 호출되어도 로그인 요청은 한 번만 나갑니다.
func (c *Client) Authenticate(ctx context.Context) error {
	if !c.HasCredentials() {
		return &exchange.AuthError{Err: exchange.ErrCredentialsMissing}
	}
	if c.IsAuthenticated() {
		return nil
	}

	_, err, _ := c.session.group.Do("login", func() (interface{}, error) {
		// 대기 중에 다른 호출이 로그인을 끝냈을 수 있습니다
		if c.IsAuthenticated() {
			return nil, nil
		}
		return nil, c.login(ctx)
	})
	return err
}

func (c *Client) login(ctx context.Context) error {
	const (
		op       = "login"
		endpoint = "/sessions"
	)
	body := map[string]any{
		"login":       c.username,
		"password":    c.password,
		"remember-me": true,
	}

	resp, err := c.doRequest(ctx, op, http.MethodPost, endpoint, nil, body, false)
	if err != nil {
		if exchange.IsAuthError(err) {
			return err
		}
		var gw *exchange.GatewayError
		if errors.As(err, &gw) && gw.StatusCode >= 400 && gw.StatusCode < 500 {
			return &exchange.AuthError{Err: fmt.Errorf("%w: %v", exchange.ErrAuthRejected, err)}
		}
		return &exchange.AuthError{Err: err}
	}

	var data struct {
		SessionToken      string `json:"session-token"`
		SessionExpiration string `json:"session-expiration"`
	}
	if err := decodeData(op, http.MethodPost, endpoint, resp, &data); err != nil {
		return &exchange.AuthError{Err: err}
	}
	if data.SessionToken == "" {
		return &exchange.AuthError{Err: fmt.Errorf("%w: 세션 토큰 없음", exchange.ErrMalformed)}
	}

	var expiresAt time.Time
	if data.SessionExpiration != "" {
		if t, err := time.Parse(time.RFC3339, data.SessionExpiration); err == nil {
			expiresAt = t
		}
	}
	c.session.set(data.SessionToken, expiresAt)

	log.Printf("TastyTrade 로그인 성공 (만료: %s)", expiresAt.Format(time.RFC3339))
	return nil
}
