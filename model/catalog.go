package model

import "time"

// CuratedSong 曲库精选歌曲，作为补充歌曲池的线索来源
type CuratedSong struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Title     string    `json:"title" gorm:"size:255;not null;index"`
	Artist    string    `json:"artist" gorm:"size:255;not null"`
	Weight    int       `json:"weight" gorm:"default:1"` // 抽取权重，预留
	CreatedAt time.Time `json:"createdAt"`
}

// TableName 指定表名
func (CuratedSong) TableName() string {
	return "curated_songs"
}

// Lead 一条待解析的歌曲线索，需经元数据查询服务解析为 Song
type Lead struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
}
