package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"HipsterFM/core/auth"
	"HipsterFM/core/hipster"
	"HipsterFM/core/room"
	"HipsterFM/logger"
	"HipsterFM/model"

	"github.com/gorilla/websocket"
)

// GameHandler 处理所有游戏API请求
type GameHandler struct {
	engine   *hipster.Engine
	issuer   *auth.TokenIssuer
	hub      *room.GameHub
	upgrader websocket.Upgrader
}

// NewGameHandler 创建游戏API处理器
func NewGameHandler(engine *hipster.Engine, issuer *auth.TokenIssuer, hub *room.GameHub) *GameHandler {
	return &GameHandler{
		engine: engine,
		issuer: issuer,
		hub:    hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type contextKey string

const claimsContextKey contextKey = "roomClaims"

// AuthMiddleware 校验房间身份令牌并把载荷放入请求上下文
func (h *GameHandler) AuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			respondError(w, http.StatusUnauthorized, "缺少 Authorization 头")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			respondError(w, http.StatusUnauthorized, "Authorization 头格式错误")
			return
		}

		claims, err := h.issuer.Verify(parts[1])
		if err != nil {
			logger.Warn("令牌校验失败", logger.ErrorField(err))
			respondError(w, http.StatusUnauthorized, "令牌无效")
			return
		}

		ctx := context.WithValue(r.Context(), claimsContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// ClaimsFromContext 从请求上下文取出令牌载荷
func ClaimsFromContext(ctx context.Context) (*auth.RoomClaims, error) {
	claims, ok := ctx.Value(claimsContextKey).(*auth.RoomClaims)
	if !ok {
		return nil, fmt.Errorf("上下文中没有令牌载荷")
	}
	return claims, nil
}

// ========== 响应辅助 ==========

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, model.CommandResponse{Success: false, Error: message})
}

// respondGameError 把引擎的哨兵错误映射为HTTP状态码
func respondGameError(w http.ResponseWriter, err error) {
	respondJSON(w, gameErrorStatus(err), model.CommandResponse{Success: false, Error: err.Error()})
}

func gameErrorStatus(err error) int {
	switch {
	case errors.Is(err, hipster.ErrRoomNotFound), errors.Is(err, hipster.ErrPlayerNotFound):
		return http.StatusNotFound
	case errors.Is(err, hipster.ErrRoomFull),
		errors.Is(err, hipster.ErrInterceptClaimed),
		errors.Is(err, hipster.ErrDuplicateSong),
		errors.Is(err, hipster.ErrStoreConflict):
		return http.StatusConflict
	case errors.Is(err, hipster.ErrNotHost),
		errors.Is(err, hipster.ErrNotYourTurn),
		errors.Is(err, hipster.ErrNotInterceptor):
		return http.StatusForbidden
	default:
		return http.StatusBadRequest
	}
}
