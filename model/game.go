package model

import (
	"sort"
	"time"
)

// GamePhase 房间所处的游戏阶段
type GamePhase string

const (
	GamePhaseLobby      GamePhase = "lobby"      // 等待玩家加入
	GamePhaseCollecting GamePhase = "collecting" // 玩家贡献歌曲
	GamePhasePlaying    GamePhase = "playing"    // 游戏进行中
	GamePhaseFinished   GamePhase = "finished"   // 游戏结束
)

// TurnPhase 单个回合内部的阶段
type TurnPhase string

const (
	TurnPhaseListening    TurnPhase = "listening"    // 听歌中，无时限
	TurnPhaseGuessing     TurnPhase = "guessing"     // 猜测中，60秒时限
	TurnPhaseIntercepting TurnPhase = "intercepting" // 猜错后其他玩家可抢断
	TurnPhaseBonus        TurnPhase = "bonus"        // 猜对后的歌名/歌手加分环节
	TurnPhaseResult       TurnPhase = "result"       // 回合结算
)

// InterceptPhase 拦截的两个子阶段
type InterceptPhase string

const (
	InterceptPhaseDeciding  InterceptPhase = "deciding"  // 抢占拦截权
	InterceptPhaseSelecting InterceptPhase = "selecting" // 拦截者提交位置
)

// SelectionType 插入位置的判定模式
type SelectionType string

const (
	SelectionSlot SelectionType = "slot" // 插入两个年份组之间，严格递增
	SelectionYear SelectionType = "year" // 插入已有年份组，允许同年
)

// SystemAddedBy 标记由曲库注入而非玩家贡献的歌曲
const SystemAddedBy = "system"

// Song 歌曲卡片，创建后不可变
type Song struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Artist      string `json:"artist"`
	AlbumArt    string `json:"albumArt,omitempty"`
	ReleaseYear int    `json:"releaseYear"`
	PreviewURL  string `json:"previewUrl,omitempty"`
	AddedBy     string `json:"addedBy"` // 玩家ID或 "system"
	AddedAt     int64  `json:"addedAt"` // Unix 毫秒时间戳
}

// TimelineCard 时间线上的一张卡片
type TimelineCard struct {
	Song     Song  `json:"song"`
	Position int   `json:"position"` // 每次插入/移除后重算，等于其下标
	PlacedAt int64 `json:"placedAt"`
}

// Player 房间内玩家
type Player struct {
	ID               string         `json:"id"`
	Name             string         `json:"name"`
	Avatar           string         `json:"avatar,omitempty"`
	IsHost           bool           `json:"isHost"`
	Timeline         []TimelineCard `json:"timeline"` // 始终按年份升序，同年按插入顺序
	Tokens           int            `json:"tokens"`
	ContributedSongs []string       `json:"contributedSongs"`
	IsReady          bool           `json:"isReady"`
	SongsAdded       int            `json:"songsAdded"`
}

// BonusGuess 加分环节的歌手/歌名猜测
type BonusGuess struct {
	Artist string `json:"artist"`
	Title  string `json:"title"`
}

// InterceptAttempt 一条拦截记录
type InterceptAttempt struct {
	PlayerID  string `json:"playerId"`
	Position  int    `json:"position"`
	Timestamp int64  `json:"timestamp"`
}

// Turn 当前回合状态，随回合推进被替换
type Turn struct {
	PlayerID             string             `json:"playerId"`
	Song                 Song               `json:"song"`
	Phase                TurnPhase          `json:"phase"`
	GuessedPosition      *int               `json:"guessedPosition,omitempty"`
	IsCorrect            *bool              `json:"isCorrect,omitempty"`
	BonusGuess           *BonusGuess        `json:"bonusGuess,omitempty"`
	BonusCorrect         *bool              `json:"bonusCorrect,omitempty"`
	StartedAt            int64              `json:"startedAt"`
	GuessDeadline        int64              `json:"guessDeadline,omitempty"` // 0 表示无时限
	Intercepts           []InterceptAttempt `json:"intercepts,omitempty"`
	InterceptDeadline    int64              `json:"interceptDeadline,omitempty"`
	InterceptPhase       InterceptPhase     `json:"interceptPhase,omitempty"`
	InterceptingPlayerID string             `json:"interceptingPlayerId,omitempty"`
	SelectingDeadline    int64              `json:"selectingDeadline,omitempty"`
	InterceptWinner      string             `json:"interceptWinner,omitempty"`
}

// Room 房间完整快照，作为单一一致性单元整体读写
type Room struct {
	Code               string    `json:"code"`
	Phase              GamePhase `json:"phase"`
	Players            []*Player `json:"players"`
	SongPool           []Song    `json:"songPool"`
	UsedSongs          []string  `json:"usedSongs"`
	TurnOrder          []string  `json:"turnOrder"`
	CurrentPlayerIndex int       `json:"currentPlayerIndex"`
	CurrentTurn        *Turn     `json:"currentTurn,omitempty"`
	SongsPerPlayer     int       `json:"songsPerPlayer"`
	CardsToWin         int       `json:"cardsToWin"`
	Winner             string    `json:"winner,omitempty"`
	CreatedAt          int64     `json:"createdAt"`
	LastActivity       int64     `json:"lastActivity"`
	Version            int64     `json:"version"` // 乐观并发版本号，每次写入递增
}

// ========== Room 辅助方法 ==========

// FindPlayer 按ID查找玩家，不存在返回 nil
func (r *Room) FindPlayer(id string) *Player {
	for _, p := range r.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// Host 返回房主
func (r *Room) Host() *Player {
	for _, p := range r.Players {
		if p.IsHost {
			return p
		}
	}
	return nil
}

// TurnPlayer 返回当前回合的玩家
func (r *Room) TurnPlayer() *Player {
	if r.CurrentTurn == nil {
		return nil
	}
	return r.FindPlayer(r.CurrentTurn.PlayerID)
}

// IsSongUsed 判断歌曲是否已被消耗
func (r *Room) IsSongUsed(songID string) bool {
	for _, id := range r.UsedSongs {
		if id == songID {
			return true
		}
	}
	return false
}

// MarkSongUsed 将歌曲标记为已消耗（逻辑消耗，不从池中删除）
func (r *Room) MarkSongUsed(songID string) {
	if !r.IsSongUsed(songID) {
		r.UsedSongs = append(r.UsedSongs, songID)
	}
}

// HasSongID 判断歌曲池中是否已有该ID
func (r *Room) HasSongID(songID string) bool {
	for _, s := range r.SongPool {
		if s.ID == songID {
			return true
		}
	}
	return false
}

// PoolTitles 返回歌曲池内全部标题，用于曲库去重
func (r *Room) PoolTitles() []string {
	titles := make([]string, 0, len(r.SongPool))
	for _, s := range r.SongPool {
		titles = append(titles, s.Title)
	}
	return titles
}

// Touch 更新最近活动时间
func (r *Room) Touch(now time.Time) {
	r.LastActivity = now.UnixMilli()
}

// Sanitized 返回对客户端安全的房间快照：
// 回合结算前隐藏当前歌曲的标题/歌手/年份（仅保留试听地址），
// 并隐藏歌曲池内容防止玩家预知后续卡片。
func (r *Room) Sanitized() *Room {
	clone := *r
	clone.SongPool = nil

	if r.CurrentTurn != nil {
		turn := *r.CurrentTurn
		if turn.Phase != TurnPhaseResult {
			turn.Song = Song{
				ID:         turn.Song.ID,
				PreviewURL: turn.Song.PreviewURL,
				AddedBy:    turn.Song.AddedBy,
				AddedAt:    turn.Song.AddedAt,
			}
		}
		clone.CurrentTurn = &turn
	}
	return &clone
}

// ========== Player 辅助方法 ==========

// InsertCard 在指定位置插入卡片并重排序号
func (p *Player) InsertCard(card TimelineCard, position int) {
	if position < 0 {
		position = 0
	}
	if position > len(p.Timeline) {
		position = len(p.Timeline)
	}
	p.Timeline = append(p.Timeline, TimelineCard{})
	copy(p.Timeline[position+1:], p.Timeline[position:])
	p.Timeline[position] = card
	p.RenumberTimeline()
}

// RemoveCard 移除指定下标的卡片并重排序号
func (p *Player) RemoveCard(index int) bool {
	if index < 0 || index >= len(p.Timeline) {
		return false
	}
	p.Timeline = append(p.Timeline[:index], p.Timeline[index+1:]...)
	p.RenumberTimeline()
	return true
}

// RenumberTimeline 重算所有卡片的 position 为 0..n-1
func (p *Player) RenumberTimeline() {
	for i := range p.Timeline {
		p.Timeline[i].Position = i
	}
}

// SortedTimeline 返回按年份升序的时间线拷贝（同年保持原有顺序）
func SortedTimeline(timeline []TimelineCard) []TimelineCard {
	sorted := make([]TimelineCard, len(timeline))
	copy(sorted, timeline)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Song.ReleaseYear < sorted[j].Song.ReleaseYear
	})
	return sorted
}
