package hipster

import (
	"context"
	"math/rand"
	"strings"
	"time"

	"HipsterFM/core/catalog"
	"HipsterFM/logger"
	"HipsterFM/model"
)

// PoolManager 歌曲池管理器：为玩家抽歌，池见底时从曲库补充，
// 曲库耗尽后回退到回收已用歌曲，保证游戏永不阻塞（代价是允许重复）。
type PoolManager struct {
	source   catalog.CatalogSource
	resolver catalog.MetadataResolver
	lowWater int // 候选数低于该值触发注入
	batch    int // 单次注入目标数量
	rng      *rand.Rand
}

// NewPoolManager 创建歌曲池管理器
func NewPoolManager(source catalog.CatalogSource, resolver catalog.MetadataResolver, lowWater, batch int) *PoolManager {
	if lowWater <= 0 {
		lowWater = 3
	}
	if batch <= 0 {
		batch = 10
	}
	return &PoolManager{
		source:   source,
		resolver: resolver,
		lowWater: lowWater,
		batch:    batch,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// DrawSongForPlayer 为指定玩家抽取一首歌，返回 nil 表示池已耗尽。
// 候选集 = 歌曲池 − 已用歌曲 − 该玩家贡献的歌曲（玩家不会听到自己交的歌）。
func (pm *PoolManager) DrawSongForPlayer(ctx context.Context, room *model.Room, playerID string) *model.Song {
	candidates := pm.candidates(room, playerID, true)

	// 低水位时先补充再重算
	if len(candidates) < pm.lowWater {
		pm.inject(ctx, room)
		candidates = pm.candidates(room, playerID, true)
	}

	// 曲库也拿不出新歌：回收已用歌曲（仍排除自己贡献的）
	if len(candidates) == 0 {
		candidates = pm.candidates(room, playerID, false)
	}

	if len(candidates) == 0 {
		// 池里只剩该玩家自己的歌，视为耗尽
		return nil
	}

	song := candidates[pm.rng.Intn(len(candidates))]
	return &song
}

// candidates 计算玩家的可抽歌曲集合
func (pm *PoolManager) candidates(room *model.Room, playerID string, excludeUsed bool) []model.Song {
	out := make([]model.Song, 0, len(room.SongPool))
	for _, s := range room.SongPool {
		if s.AddedBy == playerID {
			continue
		}
		if excludeUsed && room.IsSongUsed(s.ID) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// inject 从曲库注入歌曲：多取一些线索，解析失败或与池内重复的跳过，
// 补够目标数量即止。查询失败时静默放弃，本次注入产出少于预期而已。
func (pm *PoolManager) inject(ctx context.Context, room *model.Room) {
	leads, err := pm.source.Leads(ctx, pm.batch+pm.batch/2, room.PoolTitles())
	if err != nil {
		logger.Warn("获取曲库线索失败",
			logger.String("roomCode", room.Code),
			logger.ErrorField(err))
		return
	}

	added := 0
	for _, lead := range leads {
		if added >= pm.batch {
			break
		}

		song, err := pm.resolver.Resolve(ctx, lead)
		if err != nil {
			// 解析失败的线索静默跳过
			continue
		}
		if pm.poolHasTitle(room, song.Title) {
			continue
		}

		song.AddedBy = model.SystemAddedBy
		room.SongPool = append(room.SongPool, *song)
		added++
	}

	logger.Info("歌曲池补充完成",
		logger.String("roomCode", room.Code),
		logger.Int("added", added),
		logger.Int("poolSize", len(room.SongPool)))
}

// poolHasTitle 判断池中是否已有同名歌曲（忽略大小写）
func (pm *PoolManager) poolHasTitle(room *model.Room, title string) bool {
	for _, s := range room.SongPool {
		if strings.EqualFold(s.Title, title) {
			return true
		}
	}
	return false
}

// ResolveLead 解析一条线索，供收集阶段玩家贡献歌曲使用
func (pm *PoolManager) ResolveLead(ctx context.Context, lead model.Lead) (*model.Song, error) {
	return pm.resolver.Resolve(ctx, lead)
}
