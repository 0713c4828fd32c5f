package hipster

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"HipsterFM/model"
)

// memStore 内存实现的房间存储，写入前做快照拷贝，
// 模拟真实存储里 fn 失败即放弃本次写入的语义。
type memStore struct {
	rooms map[string]*model.Room
}

func newMemStore() *memStore {
	return &memStore{rooms: make(map[string]*model.Room)}
}

func (s *memStore) Get(ctx context.Context, code string) (*model.Room, error) {
	room, ok := s.rooms[code]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return cloneRoom(room), nil
}

func (s *memStore) Create(ctx context.Context, room *model.Room) error {
	if _, ok := s.rooms[room.Code]; ok {
		return ErrRoomExists
	}
	s.rooms[room.Code] = cloneRoom(room)
	return nil
}

func (s *memStore) Update(ctx context.Context, code string, fn func(*model.Room) error) (*model.Room, error) {
	room, ok := s.rooms[code]
	if !ok {
		return nil, ErrRoomNotFound
	}

	clone := cloneRoom(room)
	if err := fn(clone); err != nil {
		return nil, err
	}
	clone.Version++
	s.rooms[code] = clone
	return cloneRoom(clone), nil
}

func cloneRoom(room *model.Room) *model.Room {
	data, err := json.Marshal(room)
	if err != nil {
		panic(err)
	}
	var clone model.Room
	if err := json.Unmarshal(data, &clone); err != nil {
		panic(err)
	}
	return &clone
}

// testClock 可推进的测试时钟
type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestEngine(store RoomStore) (*Engine, *testClock) {
	clock := &testClock{now: time.Unix(1700000000, 0)}
	resolver := &fakeResolver{years: map[string]int{
		"Song A": 1970,
		"Song B": 1980,
		"Song C": 1990,
		"Song D": 2000,
		"Song E": 1995,
		"Song F": 1985,
	}}
	pool := NewPoolManager(&fakeSource{}, resolver, 1, 5)
	eng := NewEngine(store, pool, Options{
		GuessWindow:     60 * time.Second,
		InterceptWindow: 10 * time.Second,
		SongsPerPlayer:  2,
		CardsToWin:      3,
		MaxPlayers:      4,
	})
	eng.now = clock.Now
	return eng, clock
}

func TestCreateAndJoinRoom(t *testing.T) {
	store := newMemStore()
	eng, _ := newTestEngine(store)
	ctx := context.Background()

	room, host, err := eng.CreateRoom(ctx, "alice", "")
	if err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}
	if len(room.Code) != 6 {
		t.Fatalf("房间号长度 = %d, want 6", len(room.Code))
	}
	if !host.IsHost {
		t.Fatal("创建者应为房主")
	}
	if room.Phase != model.GamePhaseLobby {
		t.Fatalf("新房间阶段 = %s, want lobby", room.Phase)
	}

	room, bob, err := eng.JoinRoom(ctx, room.Code, "bob", "")
	if err != nil {
		t.Fatalf("JoinRoom: %v", err)
	}
	if len(room.Players) != 2 {
		t.Fatalf("玩家数 = %d, want 2", len(room.Players))
	}
	if bob.IsHost {
		t.Fatal("加入者不应为房主")
	}

	if _, _, err := eng.JoinRoom(ctx, "000000", "eve", ""); err != ErrRoomNotFound {
		t.Fatalf("加入不存在的房间: err = %v, want ErrRoomNotFound", err)
	}
}

func TestJoinRoomRespectsCapacityAndPhase(t *testing.T) {
	store := newMemStore()
	eng, _ := newTestEngine(store)
	ctx := context.Background()

	room, _, err := eng.CreateRoom(ctx, "alice", "")
	if err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}

	for _, name := range []string{"b", "c", "d"} {
		if _, _, err := eng.JoinRoom(ctx, room.Code, name, ""); err != nil {
			t.Fatalf("JoinRoom(%s): %v", name, err)
		}
	}
	if _, _, err := eng.JoinRoom(ctx, room.Code, "e", ""); err != ErrRoomFull {
		t.Fatalf("满员加入: err = %v, want ErrRoomFull", err)
	}

	store.rooms[room.Code].Phase = model.GamePhasePlaying
	if _, _, err := eng.JoinRoom(ctx, room.Code, "f", ""); err != ErrWrongPhase {
		t.Fatalf("开局后加入: err = %v, want ErrWrongPhase", err)
	}
}

func TestApplyRejectsMalformedCommands(t *testing.T) {
	store := newMemStore()
	eng, _ := newTestEngine(store)
	ctx := context.Background()

	if _, err := eng.Apply(ctx, model.Command{Action: model.ActionSetReady}); err != ErrBadCommand {
		t.Fatalf("缺房间号/玩家ID: err = %v, want ErrBadCommand", err)
	}

	room, host, err := eng.CreateRoom(ctx, "alice", "")
	if err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}

	cmd := model.Command{Action: model.ActionSetReady, RoomCode: room.Code, PlayerID: "ghost"}
	if _, err := eng.Apply(ctx, cmd); err != ErrPlayerNotFound {
		t.Fatalf("未知玩家: err = %v, want ErrPlayerNotFound", err)
	}

	cmd = model.Command{Action: "teleport", RoomCode: room.Code, PlayerID: host.ID}
	if _, err := eng.Apply(ctx, cmd); err != ErrUnknownAction {
		t.Fatalf("未知指令: err = %v, want ErrUnknownAction", err)
	}
}

func TestFailedCommandLeavesRoomUntouched(t *testing.T) {
	store := newMemStore()
	eng, _ := newTestEngine(store)
	ctx := context.Background()

	room, host, err := eng.CreateRoom(ctx, "alice", "")
	if err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}
	before := store.rooms[room.Code].Version

	cmd := model.Command{Action: model.ActionStartGame, RoomCode: room.Code, PlayerID: host.ID}
	if _, err := eng.Apply(ctx, cmd); err == nil {
		t.Fatal("大厅阶段开局应失败")
	}
	if got := store.rooms[room.Code].Version; got != before {
		t.Fatalf("失败指令不应产生写入: version %d -> %d", before, got)
	}
}
