package room

import (
	"encoding/json"
	"sync"
	"time"

	"HipsterFM/logger"
	"HipsterFM/model"

	"github.com/gorilla/websocket"
)

// MessageType 消息类型
type MessageType string

const (
	// 系统消息
	MsgTypeError MessageType = "error" // 错误消息
	MsgTypePing  MessageType = "ping"  // 心跳
	MsgTypePong  MessageType = "pong"  // 心跳响应
	MsgTypeSync  MessageType = "sync"  // 房间快照同步

	// 游戏事件（快照随每条指令成功后推送，事件类型便于客户端做动画）
	MsgTypeTurnStart  MessageType = "turn_start"  // 新回合开始
	MsgTypeGuess      MessageType = "guess"       // 回合玩家提交猜测
	MsgTypeIntercept  MessageType = "intercept"   // 拦截权变动
	MsgTypeTurnResult MessageType = "turn_result" // 回合结算
	MsgTypeGameOver   MessageType = "game_over"   // 游戏结束
)

// WSMessage WebSocket 消息结构
type WSMessage struct {
	Type      MessageType     `json:"type"`
	RoomCode  string          `json:"roomCode,omitempty"`
	PlayerID  string          `json:"playerId,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// Client WebSocket 客户端
type Client struct {
	Hub      *GameHub
	Conn     *websocket.Conn
	Send     chan []byte
	RoomCode string
	PlayerID string
}

// GameHub 游戏房间 WebSocket 管理中心
type GameHub struct {
	// 房间 -> 客户端集合
	rooms map[string]map[*Client]bool

	// 玩家 -> 客户端（一个玩家在一个房间只保留一个连接）
	playerClients map[string]*Client // key: roomCode:playerId

	// 注册/注销通道
	register   chan *Client
	unregister chan *Client

	// 广播通道
	broadcast chan *BroadcastMessage

	mu sync.RWMutex

	done chan struct{}
}

// BroadcastMessage 广播消息
type BroadcastMessage struct {
	RoomCode string
	Message  []byte
}

// NewGameHub 创建游戏 Hub
func NewGameHub() *GameHub {
	return &GameHub{
		rooms:         make(map[string]map[*Client]bool),
		playerClients: make(map[string]*Client),
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		broadcast:     make(chan *BroadcastMessage, 256),
		done:          make(chan struct{}),
	}
}

// Run 启动 Hub 主循环
func (h *GameHub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case msg := <-h.broadcast:
			h.broadcastToRoom(msg)

		case <-h.done:
			h.cleanup()
			return
		}
	}
}

// Stop 停止 Hub
func (h *GameHub) Stop() {
	close(h.done)
}

// Register 注册客户端连接
func (h *GameHub) Register(client *Client) {
	h.register <- client
}

// Unregister 注销客户端连接
func (h *GameHub) Unregister(client *Client) {
	h.unregister <- client
}

// BroadcastRoomState 向房间全员推送脱敏后的快照
func (h *GameHub) BroadcastRoomState(msgType MessageType, room *model.Room) {
	data, err := json.Marshal(model.RoomData{Game: room.Sanitized()})
	if err != nil {
		logger.Error("序列化房间快照失败", logger.ErrorField(err))
		return
	}

	msg := WSMessage{
		Type:      msgType,
		RoomCode:  room.Code,
		Data:      data,
		Timestamp: time.Now().UnixMilli(),
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		logger.Error("序列化广播消息失败", logger.ErrorField(err))
		return
	}

	h.broadcast <- &BroadcastMessage{RoomCode: room.Code, Message: payload}
}

// registerClient 注册客户端
func (h *GameHub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	key := client.RoomCode + ":" + client.PlayerID

	// 同一玩家的旧连接被新连接顶掉
	if oldClient, exists := h.playerClients[key]; exists {
		h.removeClient(oldClient)
	}

	if h.rooms[client.RoomCode] == nil {
		h.rooms[client.RoomCode] = make(map[*Client]bool)
	}
	h.rooms[client.RoomCode][client] = true
	h.playerClients[key] = client

	logger.Info("客户端连接",
		logger.String("roomCode", client.RoomCode),
		logger.String("playerId", client.PlayerID))
}

// unregisterClient 注销客户端
func (h *GameHub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.removeClient(client)
}

// removeClient 移除客户端（内部方法，需要持有锁）
func (h *GameHub) removeClient(client *Client) {
	if clients, ok := h.rooms[client.RoomCode]; ok {
		if _, ok := clients[client]; ok {
			delete(clients, client)
			close(client.Send)

			if len(clients) == 0 {
				delete(h.rooms, client.RoomCode)
			}
		}
	}
	delete(h.playerClients, client.RoomCode+":"+client.PlayerID)
}

// broadcastToRoom 向房间内所有客户端发送消息
func (h *GameHub) broadcastToRoom(msg *BroadcastMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.rooms[msg.RoomCode] {
		select {
		case client.Send <- msg.Message:
		default:
			// 发送缓冲已满的慢客户端直接放弃本条消息
			logger.Warn("客户端发送缓冲已满",
				logger.String("roomCode", client.RoomCode),
				logger.String("playerId", client.PlayerID))
		}
	}
}

// cleanup 关闭所有连接
func (h *GameHub) cleanup() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, clients := range h.rooms {
		for client := range clients {
			close(client.Send)
			client.Conn.Close()
		}
	}
	h.rooms = make(map[string]map[*Client]bool)
	h.playerClients = make(map[string]*Client)
}

// ========== 客户端读写循环 ==========

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// ReadPump 读取循环：只处理心跳，游戏指令走 HTTP 接口
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("WebSocket 连接异常关闭",
					logger.String("playerId", c.PlayerID),
					logger.ErrorField(err))
			}
			return
		}

		var msg WSMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			continue
		}
		if msg.Type == MsgTypePing {
			pong, _ := json.Marshal(WSMessage{Type: MsgTypePong, Timestamp: time.Now().UnixMilli()})
			select {
			case c.Send <- pong:
			default:
			}
		}
	}
}

// WritePump 写入循环
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
