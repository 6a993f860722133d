package queue

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/toolshelf/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskNotificationDispatch 结算事件通知投递任务
	TaskNotificationDispatch = constants.TaskNotificationDispatch
)

// NotificationPayload 结算事件通知载荷
type NotificationPayload struct {
	EventID    string                 `json:"event_id"`
	EventType  string                 `json:"event_type"`
	Payload    map[string]interface{} `json:"payload"`
	OccurredAt time.Time              `json:"occurred_at"`
}

// NewNotificationTask 创建通知投递任务
func NewNotificationTask(payload NotificationPayload) (*asynq.Task, error) {
	if strings.TrimSpace(payload.EventType) == "" {
		return nil, fmt.Errorf("notification event type is empty")
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskNotificationDispatch, body), nil
}

// ParseNotificationPayload 解析通知任务载荷
func ParseNotificationPayload(task *asynq.Task) (NotificationPayload, error) {
	var payload NotificationPayload
	if task == nil {
		return payload, fmt.Errorf("task is nil")
	}
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return payload, err
	}
	return payload, nil
}
