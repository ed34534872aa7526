package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/Inventario-kardex/internal/application/dto"
	"github.com/jhoicas/Inventario-kardex/internal/application/inventory"
	"github.com/jhoicas/Inventario-kardex/internal/domain/entity"
)

const keyPrefix = "kardex:avgcost"

var _ inventory.CostCache = (*CostCache)(nil)

// NewClient crea el cliente Redis y verifica la conexión con un ping.
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("cache: ping: %w", err)
	}
	return client, nil
}

// CostCache costos promedio por (bodega, ítem) serializados en JSON con TTL.
type CostCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCostCache construye la caché. ttl <= 0 deja las claves sin expiración.
func NewCostCache(client *redis.Client, ttl time.Duration) *CostCache {
	return &CostCache{client: client, ttl: ttl}
}

// Key clave de un par bodega/ítem.
func Key(warehouseID, itemID string) string {
	return strings.Join([]string{keyPrefix, warehouseID, itemID}, ":")
}

// GetMany devuelve solo los ítems presentes en caché; los ausentes los carga el llamador.
func (c *CostCache) GetMany(ctx context.Context, warehouseID string, itemIDs []string) (map[string]dto.AverageCost, error) {
	out := make(map[string]dto.AverageCost, len(itemIDs))
	if len(itemIDs) == 0 {
		return out, nil
	}
	keys := make([]string, len(itemIDs))
	for i, id := range itemIDs {
		keys[i] = Key(warehouseID, id)
	}
	vals, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("cache: mget: %w", err)
	}
	for i, v := range vals {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var ac dto.AverageCost
		if err := json.Unmarshal([]byte(raw), &ac); err != nil {
			// entrada corrupta: se trata como ausente
			continue
		}
		out[itemIDs[i]] = ac
	}
	return out, nil
}

// FillMany guarda los costos leídos de la BD con SET NX en un único pipeline; si la
// clave ya existe (p. ej. escrita por una publicación) se conserva.
func (c *CostCache) FillMany(ctx context.Context, warehouseID string, costs map[string]dto.AverageCost) error {
	if len(costs) == 0 {
		return nil
	}
	pipe := c.client.Pipeline()
	for itemID, ac := range costs {
		raw, err := json.Marshal(ac)
		if err != nil {
			return fmt.Errorf("cache: marshal %s: %w", itemID, err)
		}
		pipe.SetNX(ctx, Key(warehouseID, itemID), raw, c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache: setnx: %w", err)
	}
	return nil
}

// PutMany sobrescribe los costos de los saldos indicados en un único pipeline.
func (c *CostCache) PutMany(ctx context.Context, costs map[entity.BalanceKey]dto.AverageCost) error {
	if len(costs) == 0 {
		return nil
	}
	pipe := c.client.Pipeline()
	for k, ac := range costs {
		raw, err := json.Marshal(ac)
		if err != nil {
			return fmt.Errorf("cache: marshal %s: %w", k.ItemID, err)
		}
		pipe.Set(ctx, Key(k.WarehouseID, k.ItemID), raw, c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache: set: %w", err)
	}
	return nil
}
