package audit

import (
	"errors"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_BoundAndFIFO(t *testing.T) {
	tests := []struct {
		name    string
		max     int
		appends int
	}{
		{name: "한도 미만", max: 5, appends: 3},
		{name: "한도와 동일", max: 5, appends: 5},
		{name: "한도 초과", max: 5, appends: 12},
		{name: "한도 1", max: 1, appends: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLogger(tt.max)
			for i := 0; i < tt.appends; i++ {
				l.LogRequest(SourceWebhook, "webhook", "POST", i)
				assert.LessOrEqual(t, l.Len(), tt.max)
			}

			entries := l.Entries()
			want := min(tt.appends, tt.max)
			require.Len(t, entries, want)

			// 가장 오래된 항목부터 밀려나야 합니다
			first := tt.appends - want
			for i, e := range entries {
				assert.Equal(t, first+i, e.Payload)
				assert.Equal(t, uint64(first+i+1), e.Seq)
			}
		})
	}
}

func TestLogger_ReadsDoNotAffectEviction(t *testing.T) {
	l := NewLogger(3)
	l.LogRequest(SourceWebhook, "webhook", "POST", "a")
	l.LogRequest(SourceWebhook, "webhook", "POST", "b")
	l.LogRequest(SourceWebhook, "webhook", "POST", "c")

	// 오래된 항목을 여러 번 조회해도 LRU처럼 동작하지 않아야 합니다
	for i := 0; i < 5; i++ {
		_ = l.Entries()
	}
	l.LogRequest(SourceWebhook, "webhook", "POST", "d")

	entries := l.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, "b", entries[0].Payload)
	assert.Equal(t, "d", entries[2].Payload)
}

func TestLogger_TypesAndSources(t *testing.T) {
	fixed := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	ist, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	l := NewLogger(10, WithClock(func() time.Time { return fixed }), WithLocation(ist))
	l.LogRequest(SourceTastyTrade, "get_quote", "GET", map[string]string{"symbol": "MSTU"})
	l.LogError(SourceTastyTrade, "get_quote", "GET", nil, errors.New("timeout"))
	l.LogResponse(SourceWebhook, "webhook", "POST", map[string]string{"status": "success"})

	all := l.Entries()
	require.Len(t, all, 3)
	assert.Equal(t, TypeRequest, all[0].Type)
	assert.Equal(t, TypeError, all[1].Type)
	assert.Equal(t, "timeout", all[1].Error)
	assert.Equal(t, TypeResponse, all[2].Type)
	assert.Equal(t, "2025-03-01 15:30:00 IST", all[0].Time)

	broker := l.EntriesBySource(SourceTastyTrade)
	assert.Len(t, broker, 2)
}

func TestLogger_EntriesAreCopies(t *testing.T) {
	l := NewLogger(2)
	l.LogRequest(SourceWebhook, "webhook", "POST", "x")

	got := l.Entries()
	got[0].Endpoint = "changed"

	assert.Equal(t, "webhook", l.Entries()[0].Endpoint)
}

func TestLogger_ConcurrentAppend(t *testing.T) {
	const (
		capacity = 100
		workers  = 8
		perWork  = 250
	)
	l := NewLogger(capacity)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWork; i++ {
				l.LogResponse(SourceWebhook, "webhook", "POST", i)
			}
		}()
	}
	wg.Wait()

	entries := l.Entries()
	require.Len(t, entries, capacity)
	// 시퀀스는 연속이고 마지막 capacity건만 남아야 합니다
	for i := 1; i < len(entries); i++ {
		assert.Equal(t, entries[i-1].Seq+1, entries[i].Seq)
	}
	assert.Equal(t, uint64(workers*perWork), entries[len(entries)-1].Seq)
}
