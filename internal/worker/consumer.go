package worker

import (
	"context"
	"errors"

	"github.com/toolshelf/internal/logger"
	"github.com/toolshelf/internal/queue"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	deliverer Deliverer
}

// NewConsumer 创建消费者，deliverer 为空时仅记录日志
func NewConsumer(deliverer Deliverer) *Consumer {
	if deliverer == nil {
		deliverer = LogDeliverer{}
	}
	return &Consumer{deliverer: deliverer}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskNotificationDispatch, c.handleNotification)
}

func (c *Consumer) handleNotification(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_notification_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	payload, err := queue.ParseNotificationPayload(task)
	if err != nil {
		logger.Warnw("worker_notification_unmarshal_failed", "error", err)
		// 载荷损坏重试无意义
		return errors.Join(err, asynq.SkipRetry)
	}
	if payload.EventType == "" {
		logger.Debugw("worker_notification_skip_invalid_payload", "event_id", payload.EventID)
		return nil
	}
	if err := c.deliverer.Deliver(ctx, payload); err != nil {
		logger.Warnw("worker_notification_deliver_failed",
			"event_id", payload.EventID,
			"event_type", payload.EventType,
			"error", err,
		)
		return err
	}
	logger.Debugw("worker_notification_delivered", "event_id", payload.EventID, "event_type", payload.EventType)
	return nil
}
