package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"HipsterFM/model"

	"github.com/google/uuid"
)

// ErrSongNotFound 元数据服务未找到歌曲，注入流程会静默跳过该线索
var ErrSongNotFound = errors.New("未找到歌曲元数据")

// MetadataResolver 将歌曲线索解析为可播放的歌曲卡片
type MetadataResolver interface {
	Resolve(ctx context.Context, lead model.Lead) (*model.Song, error)
}

// Client 歌曲元数据查询客户端
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient 创建元数据查询客户端
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// searchResponse 元数据搜索接口的响应结构
type searchResponse struct {
	ResultCount int `json:"resultCount"`
	Results     []struct {
		TrackName     string `json:"trackName"`
		ArtistName    string `json:"artistName"`
		ArtworkURL100 string `json:"artworkUrl100"`
		PreviewURL    string `json:"previewUrl"`
		ReleaseDate   string `json:"releaseDate"`
	} `json:"results"`
}

// Resolve 解析一条线索，返回歌曲卡片或 ErrSongNotFound
func (c *Client) Resolve(ctx context.Context, lead model.Lead) (*model.Song, error) {
	term := strings.TrimSpace(lead.Artist + " " + lead.Title)
	if term == "" {
		return nil, ErrSongNotFound
	}

	reqURL := fmt.Sprintf("%s/search?term=%s&media=music&entity=song&limit=1",
		c.baseURL, url.QueryEscape(term))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("创建请求失败: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("请求元数据服务失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("元数据服务返回错误状态码: %d", resp.StatusCode)
	}

	var result searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("解析响应失败: %w", err)
	}

	if result.ResultCount == 0 || len(result.Results) == 0 {
		return nil, ErrSongNotFound
	}

	hit := result.Results[0]
	year := parseReleaseYear(hit.ReleaseDate)
	if year == 0 {
		// 没有年份的歌曲无法放上时间线
		return nil, ErrSongNotFound
	}

	return &model.Song{
		ID:          uuid.NewString(),
		Title:       hit.TrackName,
		Artist:      hit.ArtistName,
		AlbumArt:    hit.ArtworkURL100,
		ReleaseYear: year,
		PreviewURL:  hit.PreviewURL,
		AddedBy:     model.SystemAddedBy, // 调用方贡献歌曲时会覆盖
		AddedAt:     time.Now().UnixMilli(),
	}, nil
}

// parseReleaseYear 从发行日期中提取年份，失败返回0
func parseReleaseYear(releaseDate string) int {
	if t, err := time.Parse(time.RFC3339, releaseDate); err == nil {
		return t.Year()
	}
	if len(releaseDate) >= 4 {
		if year, err := strconv.Atoi(releaseDate[:4]); err == nil {
			return year
		}
	}
	return 0
}
