package server

import (
	"encoding/json"
	"net/http"

	"HipsterFM/core/room"
	"HipsterFM/logger"
	"HipsterFM/model"

	"github.com/gorilla/mux"
)

// ========== 房间生命周期接口 ==========

// CreateRoomRequest 创建房间请求体
type CreateRoomRequest struct {
	PlayerName string `json:"playerName"`
	Avatar     string `json:"avatar,omitempty"`
}

// JoinRoomRequest 加入房间请求体
type JoinRoomRequest struct {
	PlayerName string `json:"playerName"`
	Avatar     string `json:"avatar,omitempty"`
}

// RoomAuthResponse 创建/加入房间的响应：令牌 + 玩家 + 房间快照
type RoomAuthResponse struct {
	Token    string        `json:"token"`
	PlayerID string        `json:"playerId"`
	RoomCode string        `json:"roomCode"`
	Game     *model.Room   `json:"game"`
	Player   *model.Player `json:"player"`
}

// CreateRoomHandler 创建房间，签发房主的身份令牌
func (h *GameHandler) CreateRoomHandler(w http.ResponseWriter, r *http.Request) {
	var req CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "请求体格式错误")
		return
	}
	if req.PlayerName == "" {
		respondError(w, http.StatusBadRequest, "玩家昵称不能为空")
		return
	}

	gameRoom, host, err := h.engine.CreateRoom(r.Context(), req.PlayerName, req.Avatar)
	if err != nil {
		logger.Error("创建房间失败", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "创建房间失败")
		return
	}

	token, err := h.issuer.Issue(gameRoom.Code, host.ID)
	if err != nil {
		logger.Error("签发令牌失败", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "签发令牌失败")
		return
	}

	respondJSON(w, http.StatusCreated, RoomAuthResponse{
		Token:    token,
		PlayerID: host.ID,
		RoomCode: gameRoom.Code,
		Game:     gameRoom.Sanitized(),
		Player:   host,
	})
}

// JoinRoomHandler 加入房间，签发玩家的身份令牌
func (h *GameHandler) JoinRoomHandler(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]

	var req JoinRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "请求体格式错误")
		return
	}
	if req.PlayerName == "" {
		respondError(w, http.StatusBadRequest, "玩家昵称不能为空")
		return
	}

	gameRoom, player, err := h.engine.JoinRoom(r.Context(), code, req.PlayerName, req.Avatar)
	if err != nil {
		respondGameError(w, err)
		return
	}

	token, err := h.issuer.Issue(gameRoom.Code, player.ID)
	if err != nil {
		logger.Error("签发令牌失败", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "签发令牌失败")
		return
	}

	h.hub.BroadcastRoomState(room.MsgTypeSync, gameRoom)

	respondJSON(w, http.StatusOK, RoomAuthResponse{
		Token:    token,
		PlayerID: player.ID,
		RoomCode: gameRoom.Code,
		Game:     gameRoom.Sanitized(),
		Player:   player,
	})
}

// GetRoomHandler 返回脱敏后的房间快照，客户端用它轮询与对时
func (h *GameHandler) GetRoomHandler(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]

	claims, err := ClaimsFromContext(r.Context())
	if err != nil || claims.RoomCode != code {
		respondError(w, http.StatusForbidden, "令牌与房间不匹配")
		return
	}

	gameRoom, err := h.engine.Room(r.Context(), code)
	if err != nil {
		respondGameError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, model.CommandResponse{
		Success: true,
		Data:    &model.RoomData{Game: gameRoom.Sanitized()},
	})
}

// ========== 游戏指令接口 ==========

// CommandHandler 处理一条游戏指令：令牌归属校验 + 引擎状态转移 + 广播
func (h *GameHandler) CommandHandler(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]

	claims, err := ClaimsFromContext(r.Context())
	if err != nil || claims.RoomCode != code {
		respondError(w, http.StatusForbidden, "令牌与房间不匹配")
		return
	}

	var cmd model.Command
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		respondError(w, http.StatusBadRequest, "请求体格式错误")
		return
	}

	// 房间号和玩家ID以令牌为准，不信任请求体
	cmd.RoomCode = code
	cmd.PlayerID = claims.PlayerID

	gameRoom, err := h.engine.Apply(r.Context(), cmd)
	if err != nil {
		respondGameError(w, err)
		return
	}

	h.hub.BroadcastRoomState(eventTypeFor(cmd.Action, gameRoom), gameRoom)

	respondJSON(w, http.StatusOK, model.CommandResponse{
		Success: true,
		Data:    &model.RoomData{Game: gameRoom.Sanitized()},
	})
}

// eventTypeFor 根据指令和结果状态选择广播事件类型
func eventTypeFor(action model.Action, gameRoom *model.Room) room.MessageType {
	if gameRoom.Phase == model.GamePhaseFinished {
		return room.MsgTypeGameOver
	}

	switch action {
	case model.ActionStartGame, model.ActionNextTurn:
		return room.MsgTypeTurnStart
	case model.ActionSubmitGuess, model.ActionSkipTurn:
		return room.MsgTypeGuess
	case model.ActionIntercept, model.ActionInterceptTimeout, model.ActionResolveIntercept:
		return room.MsgTypeIntercept
	case model.ActionSubmitBonus, model.ActionSkipBonus:
		return room.MsgTypeTurnResult
	default:
		return room.MsgTypeSync
	}
}

// ========== WebSocket 接口 ==========

// WSHandler 建立房间内的 WebSocket 连接，令牌通过 query 参数传递
func (h *GameHandler) WSHandler(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]

	token := r.URL.Query().Get("token")
	if token == "" {
		respondError(w, http.StatusUnauthorized, "缺少令牌")
		return
	}

	claims, err := h.issuer.Verify(token)
	if err != nil || claims.RoomCode != code {
		respondError(w, http.StatusForbidden, "令牌与房间不匹配")
		return
	}

	// 房间必须存在且玩家在座
	gameRoom, err := h.engine.Room(r.Context(), code)
	if err != nil {
		respondGameError(w, err)
		return
	}
	if gameRoom.FindPlayer(claims.PlayerID) == nil {
		respondError(w, http.StatusForbidden, "玩家不在房间内")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("WebSocket 升级失败", logger.ErrorField(err))
		return
	}

	client := &room.Client{
		Hub:      h.hub,
		Conn:     conn,
		Send:     make(chan []byte, 64),
		RoomCode: code,
		PlayerID: claims.PlayerID,
	}
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
