package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shortscript/internal/auth"
	"shortscript/internal/config"
	"shortscript/internal/handler"
	"shortscript/internal/infrastructure/cache"
	"shortscript/internal/infrastructure/database"
	"shortscript/internal/infrastructure/mq"
	"shortscript/internal/job"
	"shortscript/internal/service"
	"shortscript/pkg/idgen"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "配置文件路径")
	workerID := flag.Int64("worker-id", 1, "雪花算法机器ID")
	flag.Parse()

	cfg := config.LoadConfig(*configPath)

	idgen.Init(*workerID)

	db := database.InitDatabase(&cfg.Database)

	// Redis 可选，用于开户分布式锁
	redisClient := cache.InitRedis(&cfg.Redis)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Kafka 可选，未配置时消息留在 outbox 表
	var outboxSender *job.OutboxSender
	if publisher := mq.InitKafka(&cfg.Kafka); publisher != nil {
		defer publisher.Close()
		outboxSender = job.NewOutboxSender(db, publisher, cfg)
		go outboxSender.Start(ctx)
	}

	ledgerService := service.NewLedgerService(db, redisClient, cfg)
	scriptTimeoutJob := job.NewScriptTimeoutJob(service.NewScriptService(db, ledgerService, cfg), cfg)
	go scriptTimeoutJob.Start(ctx)

	if cfg.Auth.FirebaseProjectID == "" {
		log.Println("FIREBASE_PROJECT_ID 未配置，所有需要登录的接口都会返回 401")
	}
	verifier := auth.NewFirebaseVerifier(cfg.Auth.FirebaseProjectID, auth.NewGoogleCertSource(cfg.Auth.CertsURL, nil))

	h := handler.NewHandler(db, redisClient, verifier, cfg)
	router := handler.SetupRouter(h, cfg)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("服务启动，监听端口: %d, env=%s", cfg.Server.Port, cfg.Server.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("服务启动失败: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("正在关闭服务...")

	// 停止后台任务
	scriptTimeoutJob.Stop()
	if outboxSender != nil {
		outboxSender.Stop()
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("服务关闭异常: %v", err)
	}

	if redisClient != nil {
		_ = redisClient.Close()
	}

	log.Println("服务已关闭")
}
