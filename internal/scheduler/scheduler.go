package scheduler

import (
	"context"
	"log"
	"sync"
	"time"
)

// Task는 스케줄러가 실행할 작업을 정의하는 인터페이스입니다
type Task interface {
	Execute(ctx context.Context) error
}

// TaskFunc는 함수를 Task로 사용할 수 있게 합니다
type TaskFunc func(ctx context.Context) error

// Execute는 Task 인터페이스를 구현합니다
func (f TaskFunc) Execute(ctx context.Context) error {
	return f(ctx)
}

// Scheduler는 정해진 간격마다 작업을 실행하는 스케줄러입니다
type Scheduler struct {
	name      string
	interval  time.Duration
	task      Task
	immediate bool
	stopCh    chan struct{}
	stopOnce  sync.Once
}

// Option은 스케줄러 설정 옵션입니다
type Option func(*Scheduler)

// WithImmediateRun은 시작하자마자 한 번 실행하도록 설정합니다
func WithImmediateRun() Option {
	return func(s *Scheduler) {
		s.immediate = true
	}
}

// WithName은 로그에 표시할 작업 이름을 설정합니다
func WithName(name string) Option {
	return func(s *Scheduler) {
		s.name = name
	}
}

// NewScheduler는 새로운 스케줄러를 생성합니다
func NewScheduler(interval time.Duration, task Task, opts ...Option) *Scheduler {
	s := &Scheduler{
		name:     "task",
		interval: interval,
		task:     task,
		stopCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start는 스케줄러를 시작합니다. ctx가 취소되거나 Stop이 호출될 때까지 블록합니다.
// 실행 시각은 interval 경계에 맞춥니다.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.immediate {
		s.run(ctx)
	}

	timer := time.NewTimer(s.nextWait())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-s.stopCh:
			return nil

		case <-timer.C:
			s.run(ctx)
			timer.Reset(s.nextWait())
		}
	}
}

func (s *Scheduler) run(ctx context.Context) {
	if err := s.task.Execute(ctx); err != nil {
		// 에러가 발생해도 계속 실행
		log.Printf("[%s] 작업 실행 실패: %v", s.name, err)
	}
}

// nextWait는 다음 interval 경계까지 남은 시간을 계산합니다
func (s *Scheduler) nextWait() time.Duration {
	now := time.Now()
	nextRun := now.Truncate(s.interval).Add(s.interval)
	wait := nextRun.Sub(now)

	log.Printf("[%s] 다음 실행까지 %v 대기 (다음 실행: %s)",
		s.name,
		wait.Round(time.Second),
		nextRun.Format("15:04:05"))
	return wait
}

// Stop은 스케줄러를 중지합니다. 여러 번 호출해도 안전합니다.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
}
