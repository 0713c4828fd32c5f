package catalog

import (
	"context"
	"fmt"

	"HipsterFM/model"
	"HipsterFM/repository"
)

// CatalogSource 提供精选歌曲线索
// count 为期望数量，excludeTitles 为歌曲池中已有的标题
type CatalogSource interface {
	Leads(ctx context.Context, count int, excludeTitles []string) ([]model.Lead, error)
}

// MySQLSource 基于曲库表的线索来源
type MySQLSource struct {
	repo *repository.CatalogRepository
}

// NewMySQLSource 创建曲库线索来源
func NewMySQLSource(repo *repository.CatalogRepository) *MySQLSource {
	return &MySQLSource{repo: repo}
}

// Leads 随机抽取线索，排除已在池中的标题
func (s *MySQLSource) Leads(ctx context.Context, count int, excludeTitles []string) ([]model.Lead, error) {
	songs, err := s.repo.RandomLeads(ctx, count, excludeTitles)
	if err != nil {
		return nil, fmt.Errorf("获取曲库线索失败: %w", err)
	}

	leads := make([]model.Lead, 0, len(songs))
	for _, song := range songs {
		leads = append(leads, model.Lead{Title: song.Title, Artist: song.Artist})
	}
	return leads, nil
}

// DefaultCuratedSongs 内置精选曲目，曲库表为空时用于种子数据
func DefaultCuratedSongs() []model.CuratedSong {
	return []model.CuratedSong{
		{Title: "Bohemian Rhapsody", Artist: "Queen"},
		{Title: "Billie Jean", Artist: "Michael Jackson"},
		{Title: "Smells Like Teen Spirit", Artist: "Nirvana"},
		{Title: "Like a Rolling Stone", Artist: "Bob Dylan"},
		{Title: "Hey Jude", Artist: "The Beatles"},
		{Title: "Rolling in the Deep", Artist: "Adele"},
		{Title: "Hotel California", Artist: "Eagles"},
		{Title: "Wonderwall", Artist: "Oasis"},
		{Title: "Sweet Child O' Mine", Artist: "Guns N' Roses"},
		{Title: "Uptown Funk", Artist: "Mark Ronson"},
		{Title: "Take On Me", Artist: "a-ha"},
		{Title: "Blinding Lights", Artist: "The Weeknd"},
		{Title: "Superstition", Artist: "Stevie Wonder"},
		{Title: "Dancing Queen", Artist: "ABBA"},
		{Title: "Lose Yourself", Artist: "Eminem"},
		{Title: "Respect", Artist: "Aretha Franklin"},
		{Title: "Purple Rain", Artist: "Prince"},
		{Title: "Seven Nation Army", Artist: "The White Stripes"},
		{Title: "Bad Guy", Artist: "Billie Eilish"},
		{Title: "I Want It That Way", Artist: "Backstreet Boys"},
	}
}
