package job

import (
	"context"
	"log"
	"time"

	"shortscript/internal/config"
	"shortscript/internal/service"
)

// ScriptTimeoutJob 定期关闭长时间没有收到 n8n 回调的脚本并退还积分
type ScriptTimeoutJob struct {
	scriptService *service.ScriptService
	timeout       time.Duration
	stopCh        chan struct{}
	interval      time.Duration
	batchSize     int
}

func NewScriptTimeoutJob(scriptService *service.ScriptService, cfg *config.Config) *ScriptTimeoutJob {
	return &ScriptTimeoutJob{
		scriptService: scriptService,
		timeout:       time.Duration(cfg.Business.ScriptTimeoutMinutes) * time.Minute,
		stopCh:        make(chan struct{}),
		interval:      time.Minute,
		batchSize:     50,
	}
}

func (j *ScriptTimeoutJob) Start(ctx context.Context) {
	log.Println("[ScriptTimeoutJob] 脚本超时任务启动")

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[ScriptTimeoutJob] 收到停止信号，任务退出")
			return
		case <-j.stopCh:
			log.Println("[ScriptTimeoutJob] 任务停止")
			return
		case <-ticker.C:
			j.RunOnce(ctx)
		}
	}
}

func (j *ScriptTimeoutJob) Stop() {
	close(j.stopCh)
}

func (j *ScriptTimeoutJob) RunOnce(ctx context.Context) int {
	expired, err := j.scriptService.ExpireStale(ctx, j.timeout, j.batchSize)
	if err != nil {
		log.Printf("[ScriptTimeoutJob] 查询超时脚本失败: %v", err)
		return 0
	}
	if expired > 0 {
		log.Printf("[ScriptTimeoutJob] 本次关闭 %d 个超时脚本", expired)
	}
	return expired
}
