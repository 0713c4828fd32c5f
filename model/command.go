package model

// Action 游戏指令类型
// 非法的 action/阶段组合由引擎集中拒绝，而不是散落在字符串 switch 中
type Action string

const (
	// 房间生命周期（创建/加入走独立接口，需签发身份令牌）
	ActionLeaveRoom Action = "leaveRoom"
	ActionSetReady  Action = "setReady"
	ActionAddSong   Action = "addSong" // 收集阶段贡献歌曲

	// 回合流程
	ActionStartGame      Action = "startGame"
	ActionStartListening Action = "startListening"
	ActionSubmitGuess    Action = "submitGuess"
	ActionSkipTurn       Action = "skipTurn"
	ActionSubmitBonus    Action = "submitBonus"
	ActionSkipBonus      Action = "skipBonus"
	ActionNextTurn       Action = "nextTurn"

	// 拦截流程
	ActionIntercept        Action = "intercept"
	ActionInterceptTimeout Action = "interceptTimeout"
	ActionResolveIntercept Action = "resolveIntercept"

	// 代币
	ActionUseToken Action = "useToken"
)

// Command 一条针对单个房间的玩家指令
// 每条指令只作用于一个房间，加载快照、应用一次状态转移、写回
type Command struct {
	Action   Action `json:"action"`
	RoomCode string `json:"roomCode"`
	PlayerID string `json:"playerId"`

	// submitGuess / intercept
	Position      *int          `json:"position,omitempty"`
	SelectionType SelectionType `json:"selectionType,omitempty"`

	// submitBonus / addSong
	Artist string `json:"artist,omitempty"`
	Title  string `json:"title,omitempty"`

	// setReady
	Ready *bool `json:"ready,omitempty"`

	// useToken
	TargetPlayerID string `json:"targetPlayerId,omitempty"`
	CardIndex      *int   `json:"cardIndex,omitempty"`
}

// CommandResponse 指令处理结果
type CommandResponse struct {
	Success bool        `json:"success"`
	Data    *RoomData   `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// RoomData 指令响应中携带的房间快照
type RoomData struct {
	Game *Room `json:"game"`
}
