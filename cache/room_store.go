package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"HipsterFM/core/hipster"
	"HipsterFM/logger"
	"HipsterFM/model"

	"github.com/go-redis/redis/v8"
)

const (
	roomKey    = "hipster:room:%s" // String: 房间完整JSON快照
	roomTTL    = 24 * time.Hour
	maxRetries = 5 // 乐观并发重试上限
)

// RoomStore Redis 房间快照存储。
// 房间快照整体读写，Update 通过 WATCH/MULTI 提供乐观并发：
// 读取后快照被他人改写则本次事务失败，携带新快照重试。
// 多名玩家同时抢占拦截权时，恰好一次写入成功；
// 失败方重试时在新快照上看到拦截权已被占，得到明确拒绝而非静默覆盖。
type RoomStore struct {
	client *redis.Client
}

// NewRoomStore 创建房间存储
func NewRoomStore(client *redis.Client) *RoomStore {
	return &RoomStore{client: client}
}

// Get 读取房间快照，过期或不存在返回 ErrRoomNotFound
func (s *RoomStore) Get(ctx context.Context, code string) (*model.Room, error) {
	if s.client == nil {
		return nil, fmt.Errorf("Redis client not initialized")
	}

	data, err := s.client.Get(ctx, fmt.Sprintf(roomKey, code)).Result()
	if err == redis.Nil {
		return nil, hipster.ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("读取房间快照失败: %w", err)
	}

	room := &model.Room{}
	if err := json.Unmarshal([]byte(data), room); err != nil {
		return nil, fmt.Errorf("解析房间快照失败: %w", err)
	}
	return room, nil
}

// Create 写入新房间，房间号已被占用返回 ErrRoomExists
func (s *RoomStore) Create(ctx context.Context, room *model.Room) error {
	if s.client == nil {
		return fmt.Errorf("Redis client not initialized")
	}

	data, err := json.Marshal(room)
	if err != nil {
		return fmt.Errorf("序列化房间快照失败: %w", err)
	}

	ok, err := s.client.SetNX(ctx, fmt.Sprintf(roomKey, room.Code), data, roomTTL).Result()
	if err != nil {
		return fmt.Errorf("写入房间快照失败: %w", err)
	}
	if !ok {
		return hipster.ErrRoomExists
	}
	return nil
}

// Update 以乐观并发方式原子更新房间快照。
// fn 返回错误（校验失败等）时放弃写入，错误原样上抛；
// 事务冲突时重试，重试耗尽返回 ErrStoreConflict。
func (s *RoomStore) Update(ctx context.Context, code string, fn func(*model.Room) error) (*model.Room, error) {
	if s.client == nil {
		return nil, fmt.Errorf("Redis client not initialized")
	}

	key := fmt.Sprintf(roomKey, code)

	for i := 0; i < maxRetries; i++ {
		var updated *model.Room

		err := s.client.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Result()
			if err == redis.Nil {
				return hipster.ErrRoomNotFound
			}
			if err != nil {
				return fmt.Errorf("读取房间快照失败: %w", err)
			}

			room := &model.Room{}
			if err := json.Unmarshal([]byte(data), room); err != nil {
				return fmt.Errorf("解析房间快照失败: %w", err)
			}

			if err := fn(room); err != nil {
				return err
			}
			room.Version++

			payload, err := json.Marshal(room)
			if err != nil {
				return fmt.Errorf("序列化房间快照失败: %w", err)
			}

			// WATCH 生效期间快照被改写则 EXEC 失败，整体重试
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, payload, roomTTL)
				return nil
			})
			if err == nil {
				updated = room
			}
			return err
		}, key)

		if err == redis.TxFailedErr {
			logger.Warn("房间快照写入冲突，重试",
				logger.String("roomCode", code),
				logger.Int("attempt", i+1))
			continue
		}
		if err != nil {
			return nil, err
		}
		return updated, nil
	}

	return nil, hipster.ErrStoreConflict
}
