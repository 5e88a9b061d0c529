package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"medicart_back_end/internal/models"
	"medicart_back_end/internal/store"
)

const CartTTL = 30 * 24 * time.Hour // 30 jours

func cartKey(customerID string) string { return "cart:" + customerID }

func stagingKey(gatewayOrderID string) string { return "checkout:" + gatewayOrderID }

// --- Paniers ---

// CartStore garde chaque panier comme un tableau JSON sous cart:<client>.
type CartStore struct {
	client *redis.Client
}

func NewCartStore(client *redis.Client) *CartStore {
	return &CartStore{client: client}
}

func (s *CartStore) LoadCart(ctx context.Context, customerID string) ([]models.CartItem, error) {
	data, err := s.client.Get(ctx, cartKey(customerID)).Result()
	if errors.Is(err, redis.Nil) {
		return []models.CartItem{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load cart %s: %w", customerID, err)
	}

	var items []models.CartItem
	if err := json.Unmarshal([]byte(data), &items); err != nil {
		return nil, fmt.Errorf("decode cart %s: %w", customerID, err)
	}
	return items, nil
}

// SaveCart remplace le panier et repousse son expiration. Un panier vide est supprimé.
func (s *CartStore) SaveCart(ctx context.Context, customerID string, items []models.CartItem) error {
	if len(items) == 0 {
		return s.ClearCart(ctx, customerID)
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode cart %s: %w", customerID, err)
	}
	if err := s.client.Set(ctx, cartKey(customerID), data, CartTTL).Err(); err != nil {
		return fmt.Errorf("save cart %s: %w", customerID, err)
	}
	return nil
}

func (s *CartStore) ClearCart(ctx context.Context, customerID string) error {
	if err := s.client.Del(ctx, cartKey(customerID)).Err(); err != nil {
		return fmt.Errorf("clear cart %s: %w", customerID, err)
	}
	return nil
}

// --- Checkouts en attente de paiement ---

type StagingStore struct {
	client *redis.Client
}

func NewStagingStore(client *redis.Client) *StagingStore {
	return &StagingStore{client: client}
}

func (s *StagingStore) Stage(ctx context.Context, c models.StagedCheckout, ttl time.Duration) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode checkout %s: %w", c.GatewayOrderID, err)
	}
	if err := s.client.Set(ctx, stagingKey(c.GatewayOrderID), data, ttl).Err(); err != nil {
		return fmt.Errorf("stage checkout %s: %w", c.GatewayOrderID, err)
	}
	return nil
}

func (s *StagingStore) GetStaged(ctx context.Context, gatewayOrderID string) (*models.StagedCheckout, error) {
	data, err := s.client.Get(ctx, stagingKey(gatewayOrderID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get checkout %s: %w", gatewayOrderID, err)
	}

	var c models.StagedCheckout
	if err := json.Unmarshal([]byte(data), &c); err != nil {
		return nil, fmt.Errorf("decode checkout %s: %w", gatewayOrderID, err)
	}
	return &c, nil
}

func (s *StagingStore) Unstage(ctx context.Context, gatewayOrderID string) error {
	if err := s.client.Del(ctx, stagingKey(gatewayOrderID)).Err(); err != nil {
		return fmt.Errorf("unstage checkout %s: %w", gatewayOrderID, err)
	}
	return nil
}

// --- Rate Limiting ---

type RateLimiter struct {
	client *redis.Client
}

func NewRateLimiter(client *redis.Client) *RateLimiter {
	return &RateLimiter{client: client}
}

// Allow compte un appel dans la fenêtre fixe de key. La fenêtre démarre au
// premier appel et n'est pas prolongée par les suivants.
func (l *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, int64, error) {
	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return false, 0, err
	}
	if count == 1 {
		if err := l.client.Expire(ctx, key, window).Err(); err != nil {
			return false, count, err
		}
	}
	return count <= int64(limit), count, nil
}
