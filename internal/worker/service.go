package worker

import (
	"context"
	"errors"

	"github.com/toolshelf/internal/config"
	"github.com/toolshelf/internal/logger"
	"github.com/toolshelf/internal/queue"

	"github.com/hibiken/asynq"
)

// Service 通知投递服务，生命周期由 app.Runner 管理
type Service struct {
	server *asynq.Server
	mux    *asynq.ServeMux
}

// NewService 创建通知投递服务，队列未启用时返回错误
func NewService(cfg *config.QueueConfig, consumer *Consumer) (*Service, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, errors.New("queue disabled")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(cfg)
	serverCfg.ErrorHandler = asynq.ErrorHandlerFunc(logTaskFailure)
	mux := asynq.NewServeMux()
	consumer.Register(mux)
	return &Service{server: asynq.NewServer(opt, serverCfg), mux: mux}, nil
}

// logTaskFailure 记录每次投递失败，重试耗尽时升级为 error
func logTaskFailure(ctx context.Context, task *asynq.Task, err error) {
	retried, _ := asynq.GetRetryCount(ctx)
	maxRetry, _ := asynq.GetMaxRetry(ctx)
	log := logger.SW("task_type", task.Type(), "retried", retried, "max_retry", maxRetry, "error", err)
	if retried >= maxRetry {
		log.Errorw("worker_task_exhausted")
		return
	}
	log.Warnw("worker_task_failed")
}

// Name 服务名称
func (s *Service) Name() string {
	return "worker"
}

// Start 启动消费并阻塞到 ctx 结束，信号由上层统一处理
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil || s.mux == nil {
		return errors.New("worker not initialized")
	}
	if err := s.server.Start(s.mux); err != nil {
		return err
	}
	<-ctx.Done()
	return nil
}

// Stop 等待在途任务完成后关闭
func (s *Service) Stop(_ context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	s.server.Shutdown()
	return nil
}
