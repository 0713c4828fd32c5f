package hipster

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"HipsterFM/logger"
	"HipsterFM/model"

	"github.com/google/uuid"
)

// ErrRoomExists 存储层在房间号已被占用时返回
var ErrRoomExists = errors.New("房间号已被占用")

// RoomStore 房间快照存储。房间快照是单一一致性单元，整体读写。
// Update 必须提供乐观并发保证：读取快照、应用 fn、版本未变才写回，
// 冲突时携带新快照重试。抢占拦截权的"先到先得"正确性依赖这一点。
type RoomStore interface {
	// Get 返回房间快照，过期或不存在返回 ErrRoomNotFound
	Get(ctx context.Context, code string) (*model.Room, error)
	// Create 写入新房间，房间号已存在返回 ErrRoomExists
	Create(ctx context.Context, room *model.Room) error
	// Update 以乐观并发方式原子更新房间，fn 返回错误则放弃写入
	Update(ctx context.Context, code string, fn func(*model.Room) error) (*model.Room, error)
}

// Options 引擎参数
type Options struct {
	GuessWindow     time.Duration
	InterceptWindow time.Duration
	SongsPerPlayer  int
	CardsToWin      int
	MaxPlayers      int
}

// Engine 游戏引擎。自身无状态，所有状态都在房间快照中，
// 每条指令加载快照、应用一次状态转移、写回。
type Engine struct {
	store RoomStore
	pool  *PoolManager
	opts  Options
	now   func() time.Time
}

// NewEngine 创建游戏引擎
func NewEngine(store RoomStore, pool *PoolManager, opts Options) *Engine {
	if opts.GuessWindow <= 0 {
		opts.GuessWindow = 60 * time.Second
	}
	if opts.InterceptWindow <= 0 {
		opts.InterceptWindow = 10 * time.Second
	}
	if opts.SongsPerPlayer <= 0 {
		opts.SongsPerPlayer = 3
	}
	if opts.CardsToWin <= 0 {
		opts.CardsToWin = 10
	}
	if opts.MaxPlayers <= 0 {
		opts.MaxPlayers = 8
	}
	return &Engine{
		store: store,
		pool:  pool,
		opts:  opts,
		now:   time.Now,
	}
}

// ========== 房间生命周期 ==========

// CreateRoom 创建房间并让房主入座
func (e *Engine) CreateRoom(ctx context.Context, hostName, avatar string) (*model.Room, *model.Player, error) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	for i := 0; i < 100; i++ {
		// 生成6位数字房间号 (100000-999999)
		code := fmt.Sprintf("%06d", rng.Intn(900000)+100000)

		host := newPlayer(hostName, avatar, true)
		now := e.now()
		room := &model.Room{
			Code:           code,
			Phase:          model.GamePhaseLobby,
			Players:        []*model.Player{host},
			SongPool:       []model.Song{},
			UsedSongs:      []string{},
			SongsPerPlayer: e.opts.SongsPerPlayer,
			CardsToWin:     e.opts.CardsToWin,
			CreatedAt:      now.UnixMilli(),
			LastActivity:   now.UnixMilli(),
		}

		err := e.store.Create(ctx, room)
		if errors.Is(err, ErrRoomExists) {
			continue
		}
		if err != nil {
			return nil, nil, fmt.Errorf("创建房间失败: %w", err)
		}

		logger.Info("房间创建成功",
			logger.String("roomCode", code),
			logger.String("hostId", host.ID),
			logger.String("hostName", hostName))
		return room, host, nil
	}

	return nil, nil, fmt.Errorf("无法生成唯一房间号")
}

// JoinRoom 加入房间，仅限大厅阶段
func (e *Engine) JoinRoom(ctx context.Context, code, name, avatar string) (*model.Room, *model.Player, error) {
	player := newPlayer(name, avatar, false)

	room, err := e.store.Update(ctx, code, func(room *model.Room) error {
		if room.Phase != model.GamePhaseLobby {
			return ErrWrongPhase
		}
		if len(room.Players) >= e.opts.MaxPlayers {
			return ErrRoomFull
		}
		room.Players = append(room.Players, player)
		room.Touch(e.now())
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	logger.Info("玩家加入房间",
		logger.String("roomCode", code),
		logger.String("playerId", player.ID),
		logger.String("playerName", name))
	return room, player, nil
}

// Room 返回房间当前快照
func (e *Engine) Room(ctx context.Context, code string) (*model.Room, error) {
	return e.store.Get(ctx, code)
}

func newPlayer(name, avatar string, isHost bool) *model.Player {
	return &model.Player{
		ID:               uuid.NewString(),
		Name:             name,
		Avatar:           avatar,
		IsHost:           isHost,
		Timeline:         []model.TimelineCard{},
		ContributedSongs: []string{},
	}
}

// ========== 指令分发 ==========

// Apply 处理一条游戏指令：加载房间快照，应用一次状态转移，写回。
// 校验失败时不产生任何状态变更。
func (e *Engine) Apply(ctx context.Context, cmd model.Command) (*model.Room, error) {
	if cmd.RoomCode == "" || cmd.PlayerID == "" {
		return nil, ErrBadCommand
	}

	room, err := e.store.Update(ctx, cmd.RoomCode, func(room *model.Room) error {
		if room.FindPlayer(cmd.PlayerID) == nil {
			return ErrPlayerNotFound
		}

		if err := e.dispatch(ctx, room, cmd); err != nil {
			return err
		}
		room.Touch(e.now())
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Debug("指令处理完成",
		logger.String("roomCode", cmd.RoomCode),
		logger.String("action", string(cmd.Action)),
		logger.String("playerId", cmd.PlayerID))
	return room, nil
}

// dispatch 按指令类型分发，非法的 action/阶段组合在各处理器中集中拒绝
func (e *Engine) dispatch(ctx context.Context, room *model.Room, cmd model.Command) error {
	switch cmd.Action {
	case model.ActionLeaveRoom:
		return e.leaveRoom(room, cmd.PlayerID)
	case model.ActionSetReady:
		return e.setReady(room, cmd)
	case model.ActionAddSong:
		return e.addSong(ctx, room, cmd)
	case model.ActionStartGame:
		return e.startGame(ctx, room, cmd.PlayerID)
	case model.ActionStartListening:
		return e.startListening(room, cmd.PlayerID)
	case model.ActionSubmitGuess:
		return e.submitGuess(room, cmd)
	case model.ActionSkipTurn:
		return e.skipTurn(ctx, room, cmd.PlayerID)
	case model.ActionSubmitBonus:
		return e.resolveBonus(room, cmd, false)
	case model.ActionSkipBonus:
		return e.resolveBonus(room, cmd, true)
	case model.ActionNextTurn:
		return e.nextTurn(ctx, room, cmd.PlayerID)
	case model.ActionIntercept:
		return e.intercept(room, cmd)
	case model.ActionInterceptTimeout:
		return e.interceptTimeout(room)
	case model.ActionResolveIntercept:
		return e.resolveInterceptCommand(room, cmd.PlayerID)
	case model.ActionUseToken:
		return e.useToken(room, cmd)
	default:
		return ErrUnknownAction
	}
}
