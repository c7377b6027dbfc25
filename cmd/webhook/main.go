package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	osSignal "os/signal"
	"syscall"
	"time"

	"github.com/assist-by/tastyhook/internal/config"
	"github.com/assist-by/tastyhook/internal/domain"
	"github.com/assist-by/tastyhook/internal/scheduler"
	"github.com/assist-by/tastyhook/internal/server"
	"github.com/assist-by/tastyhook/internal/trading"
)

func main() {
	// 명령줄 플래그 정의
	testLongFlag := flag.Bool("testlong", false, "롱 시그널 한 번 처리 후 종료")
	testShortFlag := flag.Bool("testshort", false, "숏 시그널 한 번 처리 후 종료")

	// 플래그 파싱
	flag.Parse()

	// 컨텍스트 생성
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 로그 설정
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.Println("웹훅 트레이딩 서버 시작...")

	// 설정 로드
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("설정 로드 실패: %v", err)
	}
	for _, w := range cfg.Warnings() {
		log.Printf("⚠️ %s", w)
	}

	a, err := newApp(cfg)
	if err != nil {
		log.Fatalf("서비스 구성 실패: %v", err)
	}
	discordClient := a.discord

	// 테스트 모드 실행 (플래그 기반)
	if *testLongFlag || *testShortFlag {
		signal := domain.Long
		if *testShortFlag {
			signal = domain.Short
		}
		os.Exit(runOnce(ctx, a.processor, signal))
	}

	// 헬스 모니터 스케줄러
	healthScheduler := scheduler.NewScheduler(cfg.App.HealthInterval, a.monitor,
		scheduler.WithName("health"),
		scheduler.WithImmediateRun(),
	)

	// 시작 알림 전송
	if err := discordClient.SendInfo(fmt.Sprintf("🚀 웹훅 트레이딩 서버가 시작되었습니다. (v%s, 정책: %s/%s, 쿨다운: %v)",
		cfg.App.Version, a.tradingPolicy, a.retryPolicy, a.cooldown.Window())); err != nil {
		log.Printf("시작 알림 전송 실패: %v", err)
	}

	// 시그널 처리
	sigChan := make(chan os.Signal, 1)
	osSignal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// 스케줄러 시작
	go func() {
		if err := healthScheduler.Start(ctx); err != nil && ctx.Err() == nil {
			log.Printf("스케줄러 실행 중 에러 발생: %v", err)
		}
	}()

	// HTTP 서버 시작
	srv := server.NewServer(cfg.App.Port, cfg.App.Version, a.processor, a.auditLog, a.monitor)
	srvErr := make(chan error, 1)
	go func() {
		srvErr <- srv.Start(ctx)
	}()

	// 종료 신호 또는 서버 에러 대기
	select {
	case sig := <-sigChan:
		log.Printf("시스템 종료 신호 수신: %v", sig)
	case err := <-srvErr:
		log.Printf("HTTP 서버 에러: %v", err)
		if err := discordClient.SendError(err); err != nil {
			log.Printf("에러 알림 전송 실패: %v", err)
		}
	}

	// 스케줄러와 서버 중지
	healthScheduler.Stop()
	cancel()
	select {
	case err := <-srvErr:
		if err != nil {
			log.Printf("HTTP 서버 종료 에러: %v", err)
		}
	case <-time.After(35 * time.Second):
		log.Println("HTTP 서버 종료 대기 시간 초과")
	}

	// 종료 알림 전송
	if err := discordClient.SendInfo("👋 웹훅 트레이딩 서버가 정상적으로 종료되었습니다."); err != nil {
		log.Printf("종료 알림 전송 실패: %v", err)
	}

	log.Println("프로그램을 종료합니다.")
}

// runOnce는 시그널 하나를 처리하고 종료 코드를 반환합니다
func runOnce(ctx context.Context, processor *trading.Processor, signal domain.SignalType) int {
	log.Printf("테스트 %s 시그널 실행", signal)

	result := processor.Process(ctx, string(signal))
	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		log.Printf("결과 출력 실패: %v", err)
	} else {
		fmt.Println(string(out))
	}

	if result.Status == domain.StatusError {
		return 1
	}
	return 0
}
