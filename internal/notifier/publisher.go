package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/shenikar/crisis_command_system/internal/models"
)

//go:generate mockgen -source=publisher.go -destination=mocks/mock_publisher.go -package=mocks

const (
	dispatchQueueKey = "dispatch_notifications"
)

// DispatchNotification - данные уведомления об отправке ресурсов
type DispatchNotification struct {
	CrisisID     uuid.UUID     `json:"crisis_id"`
	Units        []models.Unit `json:"units"`
	DispatchedAt time.Time     `json:"dispatched_at"`
}

// Publisher - интерфейс для публикации уведомлений об отправке
type Publisher interface {
	PublishDispatch(ctx context.Context, notification DispatchNotification) error
}

// RedisPublisher - реализация Publisher, использующая очередь в Redis
type RedisPublisher struct {
	redisClient *redis.Client
}

// NewRedisPublisher создает новый RedisPublisher
func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{
		redisClient: client,
	}
}

// PublishDispatch публикует уведомление в очередь Redis
func (p *RedisPublisher) PublishDispatch(ctx context.Context, notification DispatchNotification) error {
	payload, err := json.Marshal(notification)
	if err != nil {
		return fmt.Errorf("failed to marshal dispatch notification: %w", err)
	}

	// LPUSH кладёт уведомление в левую часть списка (очереди)
	if err := p.redisClient.LPush(ctx, dispatchQueueKey, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish dispatch notification to Redis: %w", err)
	}
	return nil
}
