package hipster

import (
	"sort"

	"HipsterFM/logger"
	"HipsterFM/model"
)

// 拦截协调器：两个严格有序的子阶段。
// deciding（≤10s）——除回合玩家外任何持有代币的玩家抢占拦截权，
// 至多一次抢占成功，代币立即且不可逆地扣除（入场费机制）。
// selecting（≤10s）——只有抢到权的玩家可以提交位置，
// 对照原回合玩家的时间线判定；猜对则卡片按年代插入拦截者自己的时间线。
// 把"谁来试"和"猜哪里"分开，保证每回合至多一名拦截者动手。

// intercept 处理拦截指令：deciding 阶段为抢占，selecting 阶段为提交位置。
// 抢占可以附带位置一步完成。
func (e *Engine) intercept(room *model.Room, cmd model.Command) error {
	turn, err := e.requireIntercepting(room)
	if err != nil {
		return err
	}
	if cmd.PlayerID == turn.PlayerID {
		return ErrCannotInterceptSelf
	}

	now := e.now().UnixMilli()

	switch turn.InterceptPhase {
	case model.InterceptPhaseDeciding:
		if turn.InterceptingPlayerID != "" {
			return ErrInterceptClaimed
		}
		if turn.InterceptDeadline > 0 && now > turn.InterceptDeadline {
			return ErrDeadlinePassed
		}

		player := room.FindPlayer(cmd.PlayerID)
		if player.Tokens < 1 {
			return ErrNoTokens
		}

		// 抢占成功：代币立即扣除，之后无论输赢都不返还
		player.Tokens--
		turn.InterceptingPlayerID = player.ID
		turn.InterceptPhase = model.InterceptPhaseSelecting
		turn.InterceptDeadline = 0
		turn.SelectingDeadline = e.now().Add(e.opts.InterceptWindow).UnixMilli()

		logger.Info("拦截权被抢占",
			logger.String("roomCode", room.Code),
			logger.String("playerId", player.ID),
			logger.Int("tokens", player.Tokens))

		if cmd.Position == nil {
			return nil
		}
		return e.submitInterceptPosition(room, turn, cmd)

	case model.InterceptPhaseSelecting:
		if cmd.PlayerID != turn.InterceptingPlayerID {
			// 拦截权已被别人拿走，后到者必须收到明确拒绝
			return ErrInterceptClaimed
		}
		if cmd.Position == nil {
			return ErrInvalidPosition
		}
		if turn.SelectingDeadline > 0 && now > turn.SelectingDeadline {
			return ErrDeadlinePassed
		}
		return e.submitInterceptPosition(room, turn, cmd)

	default:
		return ErrWrongPhase
	}
}

// submitInterceptPosition 记录拦截者的位置并走统一的结算算法
func (e *Engine) submitInterceptPosition(room *model.Room, turn *model.Turn, cmd model.Command) error {
	turnPlayer := room.FindPlayer(turn.PlayerID)
	if cmd.Position == nil || *cmd.Position < 0 || *cmd.Position > len(turnPlayer.Timeline) {
		return ErrInvalidPosition
	}

	turn.Intercepts = append(turn.Intercepts, model.InterceptAttempt{
		PlayerID:  cmd.PlayerID,
		Position:  *cmd.Position,
		Timestamp: e.now().UnixMilli(),
	})
	e.resolveIntercepts(room)
	return nil
}

// interceptTimeout 时限到期的兜底路径，由客户端观测触发、服务端重新校验：
// deciding 超时无人抢占 -> 按普通猜错结算（无人拦截）；
// selecting 超时未提交 -> 等同猜错，卡片作废。
func (e *Engine) interceptTimeout(room *model.Room) error {
	turn, err := e.requireIntercepting(room)
	if err != nil {
		return err
	}

	now := e.now().UnixMilli()

	switch turn.InterceptPhase {
	case model.InterceptPhaseDeciding:
		if turn.InterceptDeadline == 0 || now <= turn.InterceptDeadline {
			return ErrDeadlineNotPassed
		}
	case model.InterceptPhaseSelecting:
		if turn.SelectingDeadline == 0 || now <= turn.SelectingDeadline {
			return ErrDeadlineNotPassed
		}
	default:
		return ErrWrongPhase
	}

	e.resolveIntercepts(room)
	return nil
}

// resolveInterceptCommand 房主或回合玩家显式驱动结算，
// 按时间戳优先级处理已记录的拦截，与直接提交路径共用同一算法。
func (e *Engine) resolveInterceptCommand(room *model.Room, playerID string) error {
	turn, err := e.requireIntercepting(room)
	if err != nil {
		return err
	}

	player := room.FindPlayer(playerID)
	if playerID != turn.PlayerID && !player.IsHost {
		return ErrNotYourTurn
	}

	e.resolveIntercepts(room)
	return nil
}

// resolveIntercepts 唯一的拦截结算算法：
// 按时间戳排序已记录的拦截，第一个位置合法者获胜——
// 卡片按年代顺序插入获胜者自己的时间线（位置由插入点查找重新计算，
// 不沿用对照他人时间线猜的下标），不奖励代币（入场费已花）。
// 没有合法拦截则卡片作废，谁都不得。两条驱动路径都汇聚到这里，
// 保证"至多一名赢家"只有一种判定方式。
func (e *Engine) resolveIntercepts(room *model.Room) {
	turn := room.CurrentTurn
	turnPlayer := room.FindPlayer(turn.PlayerID)

	attempts := make([]model.InterceptAttempt, len(turn.Intercepts))
	copy(attempts, turn.Intercepts)
	sort.SliceStable(attempts, func(i, j int) bool {
		return attempts[i].Timestamp < attempts[j].Timestamp
	})

	var winner *model.Player
	for _, attempt := range attempts {
		if !IsValidInsertion(turnPlayer.Timeline, turn.Song, attempt.Position, model.SelectionSlot) {
			continue
		}
		winner = room.FindPlayer(attempt.PlayerID)
		break
	}

	room.MarkSongUsed(turn.Song.ID)
	turn.Phase = model.TurnPhaseResult
	turn.InterceptPhase = ""
	turn.InterceptDeadline = 0
	turn.SelectingDeadline = 0

	if winner == nil {
		turn.InterceptWinner = ""
		logger.Info("拦截失败，卡片作废",
			logger.String("roomCode", room.Code),
			logger.String("songId", turn.Song.ID))
		return
	}

	position := FindChronologicalPosition(winner.Timeline, turn.Song.ReleaseYear)
	winner.InsertCard(model.TimelineCard{
		Song:     turn.Song,
		PlacedAt: e.now().UnixMilli(),
	}, position)
	turn.InterceptWinner = winner.ID

	logger.Info("拦截成功",
		logger.String("roomCode", room.Code),
		logger.String("winnerId", winner.ID),
		logger.Int("position", position))

	e.checkWin(room, winner)
}

// requireIntercepting 校验当前处于拦截阶段
func (e *Engine) requireIntercepting(room *model.Room) (*model.Turn, error) {
	if room.Phase != model.GamePhasePlaying || room.CurrentTurn == nil {
		return nil, ErrWrongPhase
	}
	if room.CurrentTurn.Phase != model.TurnPhaseIntercepting {
		return nil, ErrWrongPhase
	}
	return room.CurrentTurn, nil
}
