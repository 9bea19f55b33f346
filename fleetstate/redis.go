package fleetstate

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func stateKey(botID int64) string {
	return fmt.Sprintf("gridcourier:bot:%d:state", botID)
}

const allBotsKey = "gridcourier:bots"

func (r *RedisStore) SetBotState(ctx context.Context, snap *BotSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	pipe := r.client.Pipeline()
	pipe.Set(ctx, stateKey(snap.BotID), data, 0)
	pipe.SAdd(ctx, allBotsKey, snap.BotID)
	_, err = pipe.Exec(ctx)
	return err
}

func (r *RedisStore) GetBotState(ctx context.Context, botID int64) (*BotSnapshot, error) {
	data, err := r.client.Get(ctx, stateKey(botID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var snap BotSnapshot
	return &snap, json.Unmarshal(data, &snap)
}

func (r *RedisStore) GetAllBotIDs(ctx context.Context) ([]int64, error) {
	members, err := r.client.SMembers(ctx, allBotsKey).Result()
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (r *RedisStore) RemoveBot(ctx context.Context, botID int64) error {
	pipe := r.client.Pipeline()
	pipe.Del(ctx, stateKey(botID))
	pipe.SRem(ctx, allBotsKey, botID)
	_, err := pipe.Exec(ctx)
	return err
}

func (r *RedisStore) FlushAll(ctx context.Context) error {
	ids, err := r.GetAllBotIDs(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		r.RemoveBot(ctx, id)
	}
	return r.client.Del(ctx, allBotsKey).Err()
}
