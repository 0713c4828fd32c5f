package hipster

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"HipsterFM/model"
)

// fakeSource 内存曲库线索来源
type fakeSource struct {
	leads []model.Lead
	err   error
	calls int
}

func (s *fakeSource) Leads(ctx context.Context, count int, excludeTitles []string) ([]model.Lead, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}

	excluded := make(map[string]bool, len(excludeTitles))
	for _, t := range excludeTitles {
		excluded[t] = true
	}

	out := make([]model.Lead, 0, count)
	for _, lead := range s.leads {
		if len(out) >= count {
			break
		}
		if excluded[lead.Title] {
			continue
		}
		out = append(out, lead)
	}
	return out, nil
}

// fakeResolver 按标题查表的元数据解析器
type fakeResolver struct {
	years map[string]int // 标题 -> 年份，缺失视为解析失败
}

func (r *fakeResolver) Resolve(ctx context.Context, lead model.Lead) (*model.Song, error) {
	year, ok := r.years[lead.Title]
	if !ok {
		return nil, errors.New("未找到歌曲元数据")
	}
	return &model.Song{
		ID:          "song-" + lead.Title,
		Title:       lead.Title,
		Artist:      lead.Artist,
		ReleaseYear: year,
		AddedBy:     model.SystemAddedBy,
	}, nil
}

func poolSong(id, addedBy string, year int) model.Song {
	return model.Song{ID: id, Title: id, AddedBy: addedBy, ReleaseYear: year}
}

func TestDrawSongExcludesOwnContributions(t *testing.T) {
	pm := NewPoolManager(&fakeSource{}, &fakeResolver{}, 1, 5)
	room := &model.Room{
		Code: "123456",
		SongPool: []model.Song{
			poolSong("a", "p1", 1970),
			poolSong("b", "p1", 1980),
			poolSong("c", "p2", 1990),
		},
	}

	for i := 0; i < 20; i++ {
		song := pm.DrawSongForPlayer(context.Background(), room, "p1")
		if song == nil {
			t.Fatal("期望抽到歌曲")
		}
		if song.AddedBy == "p1" {
			t.Fatalf("抽到了玩家自己贡献的歌曲: %s", song.ID)
		}
	}
}

func TestDrawSongExcludesUsedSongs(t *testing.T) {
	pm := NewPoolManager(&fakeSource{}, &fakeResolver{}, 1, 5)
	room := &model.Room{
		Code: "123456",
		SongPool: []model.Song{
			poolSong("a", "p2", 1970),
			poolSong("b", "p2", 1980),
		},
		UsedSongs: []string{"a"},
	}

	for i := 0; i < 10; i++ {
		song := pm.DrawSongForPlayer(context.Background(), room, "p1")
		if song == nil || song.ID != "b" {
			t.Fatalf("期望只能抽到 b, got %+v", song)
		}
	}
}

func TestDrawSongInjectsAtLowWater(t *testing.T) {
	source := &fakeSource{leads: []model.Lead{
		{Title: "x"}, {Title: "y"}, {Title: "z"},
	}}
	resolver := &fakeResolver{years: map[string]int{"x": 1991, "y": 1992, "z": 1993}}
	pm := NewPoolManager(source, resolver, 3, 3)

	room := &model.Room{
		Code:     "123456",
		SongPool: []model.Song{poolSong("a", "p2", 1970)},
	}

	song := pm.DrawSongForPlayer(context.Background(), room, "p1")
	if song == nil {
		t.Fatal("期望抽到歌曲")
	}
	if source.calls != 1 {
		t.Fatalf("期望触发一次曲库注入, got %d", source.calls)
	}
	if len(room.SongPool) != 4 {
		t.Fatalf("注入后池大小 = %d, want 4", len(room.SongPool))
	}
	for _, s := range room.SongPool[1:] {
		if s.AddedBy != model.SystemAddedBy {
			t.Fatalf("注入歌曲的 addedBy = %q, want %q", s.AddedBy, model.SystemAddedBy)
		}
	}
}

func TestInjectSkipsUnresolvableAndDuplicateLeads(t *testing.T) {
	source := &fakeSource{leads: []model.Lead{
		{Title: "broken"}, // 解析失败
		{Title: "a"},      // 与池内重名
		{Title: "x"},
	}}
	resolver := &fakeResolver{years: map[string]int{"a": 1970, "x": 1991}}
	pm := NewPoolManager(source, resolver, 3, 3)

	room := &model.Room{
		Code:     "123456",
		SongPool: []model.Song{poolSong("a", "p2", 1970)},
	}

	pm.inject(context.Background(), room)
	if len(room.SongPool) != 2 {
		t.Fatalf("池大小 = %d, want 2", len(room.SongPool))
	}
	if room.SongPool[1].Title != "x" {
		t.Fatalf("注入歌曲 = %q, want x", room.SongPool[1].Title)
	}
}

func TestDrawSongRecyclesUsedWhenCatalogExhausted(t *testing.T) {
	pm := NewPoolManager(&fakeSource{}, &fakeResolver{}, 1, 5)
	room := &model.Room{
		Code: "123456",
		SongPool: []model.Song{
			poolSong("a", "p2", 1970),
			poolSong("b", "p1", 1980),
		},
		UsedSongs: []string{"a", "b"},
	}

	song := pm.DrawSongForPlayer(context.Background(), room, "p1")
	if song == nil {
		t.Fatal("期望回收已用歌曲")
	}
	if song.ID != "a" {
		t.Fatalf("回收时仍需排除自己贡献的歌曲, got %s", song.ID)
	}
}

func TestDrawSongReturnsNilWhenOnlyOwnSongsRemain(t *testing.T) {
	pm := NewPoolManager(&fakeSource{}, &fakeResolver{}, 1, 5)
	room := &model.Room{
		Code:     "123456",
		SongPool: []model.Song{poolSong("a", "p1", 1970)},
	}

	if song := pm.DrawSongForPlayer(context.Background(), room, "p1"); song != nil {
		t.Fatalf("期望池耗尽返回 nil, got %+v", song)
	}
}

func TestDrawSongSurvivesSourceFailure(t *testing.T) {
	source := &fakeSource{err: fmt.Errorf("曲库不可用")}
	pm := NewPoolManager(source, &fakeResolver{}, 3, 5)
	room := &model.Room{
		Code:     "123456",
		SongPool: []model.Song{poolSong("a", "p2", 1970)},
	}

	// 注入失败不阻塞抽歌，剩余候选照常可用
	song := pm.DrawSongForPlayer(context.Background(), room, "p1")
	if song == nil || song.ID != "a" {
		t.Fatalf("曲库失败时应继续使用现有候选, got %+v", song)
	}
}
