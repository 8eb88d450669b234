// Package balance кэширует материализованные балансы баллов в Redis.
// Кэш производный: при промахе или ошибке значение пересчитывается из реестра.
package balance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
)

const keyPrefix = "points:balance:"

var (
	// ErrCacheMiss значения нет в кэше
	ErrCacheMiss = errors.New("balance.cache: miss")

	// ErrCache ошибка обращения к Redis
	ErrCache = errors.New("balance.cache: redis error")
)

type entry struct {
	CustomerID       int64     `json:"customer_id"`
	TotalEarned      int64     `json:"total_earned"`
	TotalUsed        int64     `json:"total_used"`
	Available        int64     `json:"available"`
	Pending          int64     `json:"pending"`
	LastCalculatedAt time.Time `json:"last_calculated_at"`
}

// Cache кэш балансов поверх Redis
type Cache struct {
	client redis.Cmdable
	ttl    time.Duration
}

// New создает кэш. ttl ограничивает срок жизни записи на случай пропущенной инвалидации.
func New(client redis.Cmdable, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// Get получает баланс клиента из кэша
func (c *Cache) Get(ctx context.Context, customerID int64) (*domain.PointBalance, error) {
	raw, err := c.client.Get(ctx, key(customerID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("%w: Get - customer=%d: %v", ErrCache, customerID, err)
	}

	return decode(raw)
}

// Set сохраняет баланс клиента
func (c *Cache) Set(ctx context.Context, b *domain.PointBalance) error {
	raw, err := encode(b)
	if err != nil {
		return err
	}

	if err := c.client.Set(ctx, key(b.CustomerID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("%w: Set - customer=%d: %v", ErrCache, b.CustomerID, err)
	}
	return nil
}

// Invalidate удаляет баланс клиента из кэша
func (c *Cache) Invalidate(ctx context.Context, customerID int64) error {
	if err := c.client.Del(ctx, key(customerID)).Err(); err != nil {
		return fmt.Errorf("%w: Invalidate - customer=%d: %v", ErrCache, customerID, err)
	}
	return nil
}

func key(customerID int64) string {
	return fmt.Sprintf("%s%d", keyPrefix, customerID)
}

func encode(b *domain.PointBalance) ([]byte, error) {
	raw, err := json.Marshal(entry{
		CustomerID:       b.CustomerID,
		TotalEarned:      b.TotalEarned,
		TotalUsed:        b.TotalUsed,
		Available:        b.Available,
		Pending:          b.Pending,
		LastCalculatedAt: b.LastCalculatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: encode: %v", ErrCache, err)
	}
	return raw, nil
}

func decode(raw []byte) (*domain.PointBalance, error) {
	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrCache, err)
	}
	return &domain.PointBalance{
		CustomerID:       e.CustomerID,
		TotalEarned:      e.TotalEarned,
		TotalUsed:        e.TotalUsed,
		Available:        e.Available,
		Pending:          e.Pending,
		LastCalculatedAt: e.LastCalculatedAt,
	}, nil
}

// NewClient создает клиент Redis и проверяет соединение
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: ping %s: %v", ErrCache, addr, err)
	}
	return client, nil
}
