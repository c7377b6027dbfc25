package audit

import (
	"sync"
	"time"
)

// DefaultMaxEntries는 보관할 최근 로그 개수의 기본값입니다
const DefaultMaxEntries = 1000

// EntryType은 로그 항목의 방향을 정의합니다
type EntryType string

const (
	TypeRequest  EntryType = "request"
	TypeResponse EntryType = "response"
	TypeError    EntryType = "error"
)

// Source는 로그를 남긴 경계를 구분합니다
type Source string

const (
	SourceWebhook    Source = "webhook"
	SourceTastyTrade Source = "tastytrade_api"
	SourceDemo       Source = "demo"
)

// Entry는 감사 로그 한 건입니다. 추가된 뒤에는 변경하지 않습니다.
type Entry struct {
	Seq       uint64    `json:"seq"`
	Timestamp time.Time `json:"-"`
	Time      string    `json:"timestamp"`
	Type      EntryType `json:"type"`
	Source    Source    `json:"source"`
	Endpoint  string    `json:"endpoint"`
	Method    string    `json:"method"`
	Payload   any       `json:"payload,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// Logger는 최근 N건만 유지하는 감사 로그 버퍼입니다.
// 가득 차면 가장 오래된 항목부터 버립니다 (FIFO, 조회는 순서에 영향 없음).
type Logger struct {
	mu       sync.RWMutex
	entries  []Entry
	head     int // 가장 오래된 항목 위치
	count    int
	seq      uint64
	location *time.Location
	now      func() time.Time
}

// Option은 Logger 생성 옵션을 정의합니다
type Option func(*Logger)

// WithLocation은 타임스탬프 표시 시간대를 설정합니다
func WithLocation(loc *time.Location) Option {
	return func(l *Logger) {
		if loc != nil {
			l.location = loc
		}
	}
}

// WithClock은 시간 함수를 교체합니다 (테스트용)
func WithClock(now func() time.Time) Option {
	return func(l *Logger) {
		l.now = now
	}
}

// NewLogger는 최대 maxEntries건을 보관하는 로거를 생성합니다
func NewLogger(maxEntries int, opts ...Option) *Logger {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	l := &Logger{
		entries:  make([]Entry, maxEntries),
		location: time.UTC,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LogRequest는 요청 로그를 추가합니다
func (l *Logger) LogRequest(source Source, endpoint, method string, payload any) {
	l.append(Entry{Type: TypeRequest, Source: source, Endpoint: endpoint, Method: method, Payload: payload})
}

// LogResponse는 응답 로그를 추가합니다
func (l *Logger) LogResponse(source Source, endpoint, method string, payload any) {
	l.append(Entry{Type: TypeResponse, Source: source, Endpoint: endpoint, Method: method, Payload: payload})
}

// LogError는 에러 로그를 추가합니다
func (l *Logger) LogError(source Source, endpoint, method string, payload any, err error) {
	e := Entry{Type: TypeError, Source: source, Endpoint: endpoint, Method: method, Payload: payload}
	if err != nil {
		e.Error = err.Error()
	}
	l.append(e)
}

// append와 trim은 한 번의 잠금 안에서 처리합니다
func (l *Logger) append(e Entry) {
	ts := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.seq++
	e.Seq = l.seq
	e.Timestamp = ts
	e.Time = ts.In(l.location).Format("2006-01-02 15:04:05 MST")

	capacity := len(l.entries)
	if l.count < capacity {
		l.entries[(l.head+l.count)%capacity] = e
		l.count++
		return
	}
	// 가득 찬 경우 가장 오래된 항목을 덮어씁니다
	l.entries[l.head] = e
	l.head = (l.head + 1) % capacity
}

// Entries는 오래된 것부터 최신 순으로 로그 복사본을 반환합니다
func (l *Logger) Entries() []Entry {
	return l.filter(func(Entry) bool { return true })
}

// EntriesBySource는 특정 경계에서 남긴 로그만 반환합니다
func (l *Logger) EntriesBySource(source Source) []Entry {
	return l.filter(func(e Entry) bool { return e.Source == source })
}

func (l *Logger) filter(keep func(Entry) bool) []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Entry, 0, l.count)
	capacity := len(l.entries)
	for i := 0; i < l.count; i++ {
		e := l.entries[(l.head+i)%capacity]
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

// Len은 현재 보관 중인 로그 수를 반환합니다
func (l *Logger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.count
}

// Cap은 최대 보관 개수를 반환합니다
func (l *Logger) Cap() int {
	return len(l.entries)
}
