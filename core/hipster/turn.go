package hipster

import (
	"context"

	"HipsterFM/logger"
	"HipsterFM/model"
)

// ========== 大厅与收集阶段 ==========

// leaveRoom 玩家离开房间，仅限大厅阶段（开局后离开由掉线处理，不改动局内状态）
func (e *Engine) leaveRoom(room *model.Room, playerID string) error {
	if room.Phase != model.GamePhaseLobby {
		return ErrWrongPhase
	}

	for i, p := range room.Players {
		if p.ID != playerID {
			continue
		}
		wasHost := p.IsHost
		room.Players = append(room.Players[:i], room.Players[i+1:]...)
		// 房主离开时移交给最早加入的玩家
		if wasHost && len(room.Players) > 0 {
			room.Players[0].IsHost = true
		}
		return nil
	}
	return ErrPlayerNotFound
}

// setReady 大厅阶段切换准备状态；全员准备且人数足够时进入收集阶段
func (e *Engine) setReady(room *model.Room, cmd model.Command) error {
	if room.Phase != model.GamePhaseLobby {
		return ErrWrongPhase
	}

	player := room.FindPlayer(cmd.PlayerID)
	if cmd.Ready != nil {
		player.IsReady = *cmd.Ready
	} else {
		player.IsReady = !player.IsReady
	}

	if len(room.Players) < 2 {
		return nil
	}
	for _, p := range room.Players {
		if !p.IsReady {
			return nil
		}
	}

	// 全员准备，进入收集阶段；IsReady 重置为"歌曲交齐"语义
	room.Phase = model.GamePhaseCollecting
	for _, p := range room.Players {
		p.IsReady = false
	}
	logger.Info("进入收集阶段", logger.String("roomCode", room.Code))
	return nil
}

// addSong 收集阶段玩家贡献歌曲：提交线索，经元数据查询解析后入池
func (e *Engine) addSong(ctx context.Context, room *model.Room, cmd model.Command) error {
	if room.Phase != model.GamePhaseCollecting {
		return ErrWrongPhase
	}

	player := room.FindPlayer(cmd.PlayerID)
	if player.SongsAdded >= room.SongsPerPlayer {
		return ErrQuotaReached
	}
	if cmd.Title == "" {
		return ErrBadCommand
	}

	song, err := e.pool.ResolveLead(ctx, model.Lead{Title: cmd.Title, Artist: cmd.Artist})
	if err != nil {
		return err
	}
	if e.pool.poolHasTitle(room, song.Title) {
		return ErrDuplicateSong
	}

	song.AddedBy = player.ID
	room.SongPool = append(room.SongPool, *song)
	player.ContributedSongs = append(player.ContributedSongs, song.ID)
	player.SongsAdded++
	if player.SongsAdded >= room.SongsPerPlayer {
		player.IsReady = true
	}

	logger.Info("玩家贡献歌曲",
		logger.String("roomCode", room.Code),
		logger.String("playerId", player.ID),
		logger.String("songTitle", song.Title),
		logger.Int("songsAdded", player.SongsAdded))
	return nil
}

// ========== 回合引擎 ==========

// startGame 房主开局：要求全员交齐歌曲，随后为第一位玩家开启回合
func (e *Engine) startGame(ctx context.Context, room *model.Room, playerID string) error {
	player := room.FindPlayer(playerID)
	if !player.IsHost {
		return ErrNotHost
	}
	if room.Phase != model.GamePhaseCollecting {
		return ErrWrongPhase
	}
	for _, p := range room.Players {
		if p.SongsAdded < room.SongsPerPlayer {
			return ErrSongsNotCollected
		}
	}

	room.TurnOrder = make([]string, 0, len(room.Players))
	for _, p := range room.Players {
		room.TurnOrder = append(room.TurnOrder, p.ID)
	}
	room.CurrentPlayerIndex = 0
	room.Phase = model.GamePhasePlaying

	logger.Info("游戏开始",
		logger.String("roomCode", room.Code),
		logger.Int("players", len(room.Players)),
		logger.Int("poolSize", len(room.SongPool)))

	e.beginTurn(ctx, room)
	return nil
}

// beginTurn 为当前玩家抽歌并创建回合；抽不到歌则整局结束
func (e *Engine) beginTurn(ctx context.Context, room *model.Room) {
	playerID := room.TurnOrder[room.CurrentPlayerIndex]
	song := e.pool.DrawSongForPlayer(ctx, room, playerID)
	if song == nil {
		e.endGameByPool(room)
		return
	}

	room.CurrentTurn = &model.Turn{
		PlayerID:  playerID,
		Song:      *song,
		Phase:     model.TurnPhaseListening,
		StartedAt: e.now().UnixMilli(),
	}

	logger.Info("回合开始",
		logger.String("roomCode", room.Code),
		logger.String("playerId", playerID),
		logger.String("songId", song.ID))
}

// startListening 回合玩家确认开始：listening -> guessing，启动60秒猜测时限。
// listening 阶段本身没有时限，它只用于客户端门控音频播放。
func (e *Engine) startListening(room *model.Room, playerID string) error {
	turn, err := e.requireTurn(room, playerID)
	if err != nil {
		return err
	}
	if turn.Phase != model.TurnPhaseListening {
		return ErrWrongPhase
	}

	turn.Phase = model.TurnPhaseGuessing
	turn.GuessDeadline = e.now().Add(e.opts.GuessWindow).UnixMilli()
	return nil
}

// submitGuess 回合玩家提交插入位置，对照其自己的时间线判定。
// 猜对进入加分环节（此时卡片尚未插入，避免提前泄露答案）；
// 猜错进入拦截阶段，开启10秒抢占窗口。
func (e *Engine) submitGuess(room *model.Room, cmd model.Command) error {
	turn, err := e.requireTurn(room, cmd.PlayerID)
	if err != nil {
		return err
	}
	if turn.Phase != model.TurnPhaseListening && turn.Phase != model.TurnPhaseGuessing {
		return ErrWrongPhase
	}

	player := room.FindPlayer(cmd.PlayerID)
	if cmd.Position == nil || *cmd.Position < 0 || *cmd.Position > len(player.Timeline) {
		return ErrInvalidPosition
	}

	now := e.now()
	if turn.GuessDeadline > 0 && now.UnixMilli() > turn.GuessDeadline {
		return ErrDeadlinePassed
	}

	mode := cmd.SelectionType
	if mode != model.SelectionYear {
		mode = model.SelectionSlot
	}

	correct := IsValidInsertion(player.Timeline, turn.Song, *cmd.Position, mode)
	turn.GuessedPosition = cmd.Position
	turn.IsCorrect = &correct

	// 清理可能残留的拦截状态
	turn.Intercepts = nil
	turn.InterceptPhase = ""
	turn.InterceptingPlayerID = ""
	turn.InterceptWinner = ""
	turn.InterceptDeadline = 0
	turn.SelectingDeadline = 0

	if correct {
		turn.Phase = model.TurnPhaseBonus
	} else {
		turn.Phase = model.TurnPhaseIntercepting
		turn.InterceptPhase = model.InterceptPhaseDeciding
		turn.InterceptDeadline = now.Add(e.opts.InterceptWindow).UnixMilli()
	}

	logger.Info("玩家提交猜测",
		logger.String("roomCode", room.Code),
		logger.String("playerId", cmd.PlayerID),
		logger.Int("position", *cmd.Position),
		logger.Bool("correct", correct))
	return nil
}

// resolveBonus 结算加分环节：歌手与歌名都命中才奖励一枚代币。
// 到这里卡片才真正插入时间线并标记歌曲已用。
func (e *Engine) resolveBonus(room *model.Room, cmd model.Command, skip bool) error {
	turn, err := e.requireTurn(room, cmd.PlayerID)
	if err != nil {
		return err
	}
	if turn.Phase != model.TurnPhaseBonus {
		return ErrWrongPhase
	}

	player := room.FindPlayer(cmd.PlayerID)
	if !skip {
		turn.BonusGuess = &model.BonusGuess{Artist: cmd.Artist, Title: cmd.Title}
		correct := FuzzyMatch(cmd.Artist, turn.Song.Artist) && FuzzyMatch(cmd.Title, turn.Song.Title)
		turn.BonusCorrect = &correct
		if correct {
			player.Tokens++
			logger.Info("加分环节命中，奖励代币",
				logger.String("roomCode", room.Code),
				logger.String("playerId", player.ID),
				logger.Int("tokens", player.Tokens))
		}
	}

	player.InsertCard(model.TimelineCard{
		Song:     turn.Song,
		PlacedAt: e.now().UnixMilli(),
	}, *turn.GuessedPosition)
	room.MarkSongUsed(turn.Song.ID)
	turn.Phase = model.TurnPhaseResult

	e.checkWin(room, player)
	return nil
}

// skipTurn 猜测超时路径：效果等同猜错且无人拦截无卡片入账。
// 时限由客户端观测触发，服务端必须重新校验确已超时。
func (e *Engine) skipTurn(ctx context.Context, room *model.Room, playerID string) error {
	turn, err := e.requireTurn(room, playerID)
	if err != nil {
		return err
	}
	if turn.Phase != model.TurnPhaseGuessing {
		return ErrWrongPhase
	}
	if turn.GuessDeadline == 0 || e.now().UnixMilli() <= turn.GuessDeadline {
		return ErrDeadlineNotPassed
	}

	room.MarkSongUsed(turn.Song.ID)
	logger.Info("猜测超时，跳过回合",
		logger.String("roomCode", room.Code),
		logger.String("playerId", playerID))
	e.advanceTurn(ctx, room)
	return nil
}

// nextTurn 回合玩家或房主推进到下一回合
func (e *Engine) nextTurn(ctx context.Context, room *model.Room, playerID string) error {
	if room.Phase != model.GamePhasePlaying || room.CurrentTurn == nil {
		return ErrWrongPhase
	}
	if room.CurrentTurn.Phase != model.TurnPhaseResult {
		return ErrWrongPhase
	}

	player := room.FindPlayer(playerID)
	if playerID != room.CurrentTurn.PlayerID && !player.IsHost {
		return ErrNotYourTurn
	}

	e.advanceTurn(ctx, room)
	return nil
}

// advanceTurn 轮转到下一位玩家并开启新回合
func (e *Engine) advanceTurn(ctx context.Context, room *model.Room) {
	room.CurrentPlayerIndex = (room.CurrentPlayerIndex + 1) % len(room.TurnOrder)
	e.beginTurn(ctx, room)
}

// useToken 花费一枚代币移除目标玩家时间线上的一张卡片。
// 与拦截入场费一样，代币一经扣除不再返还。
func (e *Engine) useToken(room *model.Room, cmd model.Command) error {
	if room.Phase != model.GamePhasePlaying {
		return ErrWrongPhase
	}

	player := room.FindPlayer(cmd.PlayerID)
	if player.Tokens < 1 {
		return ErrNoTokens
	}
	if cmd.TargetPlayerID == cmd.PlayerID {
		return ErrCannotTargetSelf
	}
	target := room.FindPlayer(cmd.TargetPlayerID)
	if target == nil {
		return ErrPlayerNotFound
	}
	if cmd.CardIndex == nil || *cmd.CardIndex < 0 || *cmd.CardIndex >= len(target.Timeline) {
		return ErrInvalidPosition
	}

	player.Tokens--
	target.RemoveCard(*cmd.CardIndex)

	logger.Info("玩家使用代币移除卡片",
		logger.String("roomCode", room.Code),
		logger.String("playerId", player.ID),
		logger.String("targetId", target.ID),
		logger.Int("cardIndex", *cmd.CardIndex))
	return nil
}

// ========== 结算辅助 ==========

// requireTurn 校验游戏进行中且指令来自当前回合玩家
func (e *Engine) requireTurn(room *model.Room, playerID string) (*model.Turn, error) {
	if room.Phase != model.GamePhasePlaying || room.CurrentTurn == nil {
		return nil, ErrWrongPhase
	}
	if room.CurrentTurn.PlayerID != playerID {
		return nil, ErrNotYourTurn
	}
	return room.CurrentTurn, nil
}

// checkWin 时间线达到目标长度即获胜
func (e *Engine) checkWin(room *model.Room, player *model.Player) {
	if len(player.Timeline) < room.CardsToWin {
		return
	}
	room.Phase = model.GamePhaseFinished
	room.Winner = player.ID
	logger.Info("玩家获胜",
		logger.String("roomCode", room.Code),
		logger.String("winnerId", player.ID),
		logger.Int("timelineLen", len(player.Timeline)))
}

// endGameByPool 歌曲池耗尽：时间线最长者获胜，并列时取玩家列表靠前者
func (e *Engine) endGameByPool(room *model.Room) {
	room.CurrentTurn = nil
	room.Phase = model.GamePhaseFinished

	var winner *model.Player
	for _, p := range room.Players {
		if winner == nil || len(p.Timeline) > len(winner.Timeline) {
			winner = p
		}
	}
	if winner != nil {
		room.Winner = winner.ID
	}

	logger.Info("歌曲池耗尽，游戏结束",
		logger.String("roomCode", room.Code),
		logger.String("winnerId", room.Winner))
}
