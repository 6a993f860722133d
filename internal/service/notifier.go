package service

import (
	"github.com/toolshelf/internal/logger"
)

// Notifier 事务提交后的事件通知，投递失败不影响业务结果
type Notifier interface {
	Notify(eventType string, payload map[string]interface{}) error
}

// NotifierFunc 函数式通知实现
type NotifierFunc func(eventType string, payload map[string]interface{}) error

// Notify 实现 Notifier
func (f NotifierFunc) Notify(eventType string, payload map[string]interface{}) error {
	return f(eventType, payload)
}

// LogNotifier 仅记录日志的通知实现（未启用队列时使用）
type LogNotifier struct{}

// Notify 实现 Notifier
func (LogNotifier) Notify(eventType string, payload map[string]interface{}) error {
	logger.Infow("settlement_event", "event_type", eventType, "payload", payload)
	return nil
}

// dispatchNotify 异步投递通知，不阻塞调用方，失败仅记录日志
func dispatchNotify(notifier Notifier, eventType string, payload map[string]interface{}) {
	if notifier == nil {
		return
	}
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Errorw("settlement_notify_panic", "event_type", eventType, "panic", r)
			}
		}()
		if err := notifier.Notify(eventType, payload); err != nil {
			logger.Warnw("settlement_notify_failed", "event_type", eventType, "error", err)
		}
	}()
}
