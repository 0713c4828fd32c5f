package hipster

import (
	"HipsterFM/model"
)

// IsValidInsertion 判断把歌曲插入时间线指定位置后是否仍然保持年代顺序。
// 先按年份升序排好时间线拷贝，把候选年份插到 position，再逐对检查相邻年份：
//   - slot 模式：插入两个年份组之间，与新卡片相邻的两对必须严格递增（贴着同年卡片即失败）
//   - year 模式：插入已有年份组，允许与相邻卡片同年
//
// 时间线中原本存在的同年卡片组不受插入影响，始终合法。
// 空时间线总是接受第一张卡片。
func IsValidInsertion(timeline []model.TimelineCard, song model.Song, position int, mode model.SelectionType) bool {
	if len(timeline) == 0 {
		return true
	}
	if position < 0 || position > len(timeline) {
		return false
	}

	sorted := model.SortedTimeline(timeline)
	years := make([]int, 0, len(sorted)+1)
	for _, card := range sorted {
		years = append(years, card.Song.ReleaseYear)
	}
	years = append(years, 0)
	copy(years[position+1:], years[position:])
	years[position] = song.ReleaseYear

	for i := 0; i+1 < len(years); i++ {
		touchesNew := i == position-1 || i == position
		if mode == model.SelectionSlot && touchesNew {
			// 新卡片两侧要求严格递增
			if years[i] >= years[i+1] {
				return false
			}
		} else {
			if years[i] > years[i+1] {
				return false
			}
		}
	}
	return true
}

// FindChronologicalPosition 返回时间线中第一张年份 >= year 的卡片下标，
// 没有则返回时间线长度（稳定插入点）。
func FindChronologicalPosition(timeline []model.TimelineCard, year int) int {
	sorted := model.SortedTimeline(timeline)
	for i, card := range sorted {
		if card.Song.ReleaseYear >= year {
			return i
		}
	}
	return len(sorted)
}
