package model

import "testing"

func card(year int) TimelineCard {
	return TimelineCard{Song: Song{ID: "s", ReleaseYear: year}}
}

func TestInsertCardRenumbers(t *testing.T) {
	p := &Player{}
	p.InsertCard(card(1980), 0)
	p.InsertCard(card(1960), 0)
	p.InsertCard(card(1970), 1)

	years := []int{1960, 1970, 1980}
	for i, c := range p.Timeline {
		if c.Song.ReleaseYear != years[i] {
			t.Fatalf("timeline[%d].year = %d, want %d", i, c.Song.ReleaseYear, years[i])
		}
		if c.Position != i {
			t.Fatalf("timeline[%d].position = %d, want %d", i, c.Position, i)
		}
	}

	// 越界位置收敛到两端
	p.InsertCard(card(1990), 99)
	if p.Timeline[3].Song.ReleaseYear != 1990 {
		t.Fatal("越界位置应追加到末尾")
	}
}

func TestRemoveCard(t *testing.T) {
	p := &Player{Timeline: []TimelineCard{card(1960), card(1970), card(1980)}}
	p.RenumberTimeline()

	if p.RemoveCard(5) {
		t.Fatal("越界移除应返回 false")
	}
	if !p.RemoveCard(1) {
		t.Fatal("移除失败")
	}
	if len(p.Timeline) != 2 {
		t.Fatalf("timeline len = %d, want 2", len(p.Timeline))
	}
	if p.Timeline[1].Song.ReleaseYear != 1980 || p.Timeline[1].Position != 1 {
		t.Fatal("移除后应重排序号")
	}
}

func TestSortedTimelineStable(t *testing.T) {
	timeline := []TimelineCard{
		{Song: Song{ID: "a", ReleaseYear: 1983}},
		{Song: Song{ID: "b", ReleaseYear: 1967}},
		{Song: Song{ID: "c", ReleaseYear: 1983}},
	}
	sorted := SortedTimeline(timeline)

	if sorted[0].Song.ID != "b" || sorted[1].Song.ID != "a" || sorted[2].Song.ID != "c" {
		t.Fatalf("排序结果 = %v, 同年应保持原有顺序", []string{sorted[0].Song.ID, sorted[1].Song.ID, sorted[2].Song.ID})
	}
	// 原切片不动
	if timeline[0].Song.ID != "a" {
		t.Fatal("SortedTimeline 不应修改原切片")
	}
}

func TestSanitizedHidesTurnSongUntilResult(t *testing.T) {
	room := &Room{
		Code:     "123456",
		SongPool: []Song{{ID: "pool-song", ReleaseYear: 1999}},
		CurrentTurn: &Turn{
			PlayerID: "p1",
			Phase:    TurnPhaseGuessing,
			Song: Song{
				ID:          "s1",
				Title:       "Secret Title",
				Artist:      "Secret Artist",
				ReleaseYear: 1975,
				PreviewURL:  "https://example.com/preview.m4a",
			},
		},
	}

	clean := room.Sanitized()
	if clean.SongPool != nil {
		t.Fatal("快照不应暴露歌曲池")
	}
	song := clean.CurrentTurn.Song
	if song.Title != "" || song.Artist != "" || song.ReleaseYear != 0 {
		t.Fatalf("结算前不应暴露歌曲元数据: %+v", song)
	}
	if song.PreviewURL == "" || song.ID == "" {
		t.Fatal("试听地址和ID应保留")
	}

	// 原房间不受影响
	if room.CurrentTurn.Song.Title == "" || room.SongPool == nil {
		t.Fatal("Sanitized 不应修改原房间")
	}

	room.CurrentTurn.Phase = TurnPhaseResult
	clean = room.Sanitized()
	if clean.CurrentTurn.Song.ReleaseYear != 1975 {
		t.Fatal("结算阶段应完整暴露歌曲")
	}
}
