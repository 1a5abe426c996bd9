package services

import (
	"context"
	"sort"

	"snipshare/internal/models"

	"gorm.io/gorm"
)

// LeaderboardSize 排行榜只取前 10
const LeaderboardSize = 10

type LeaderboardEntry struct {
	Rank       int    `json:"rank"`
	UserID     uint   `json:"user_id"`
	Username   string `json:"username"`
	PostCount  int64  `json:"post_count"`
	TotalLikes int64  `json:"total_likes"`
}

type LeaderboardService struct {
	db *gorm.DB
}

func NewLeaderboardService(db *gorm.DB) *LeaderboardService {
	return &LeaderboardService{db: db}
}

// Leaderboard 按作者所有帖子的获赞总数排名，每次调用全量重算
//
// 获赞数相同的用户按注册顺序（id 升序）排列。
func (s *LeaderboardService) Leaderboard(ctx context.Context) ([]LeaderboardEntry, error) {
	tx := s.db.WithContext(ctx)

	var users []models.User
	if err := tx.Select("id", "username").Order("id ASC").Find(&users).Error; err != nil {
		return nil, wrapStorage(err, "list users")
	}

	type authorStats struct {
		UserID     uint
		PostCount  int64
		TotalLikes int64
	}
	var stats []authorStats
	if err := tx.Model(&models.Post{}).
		Select("user_id, COUNT(*) AS post_count, COALESCE(SUM(likes), 0) AS total_likes").
		Group("user_id").
		Scan(&stats).Error; err != nil {
		return nil, wrapStorage(err, "aggregate likes")
	}
	byUser := make(map[uint]authorStats, len(stats))
	for _, st := range stats {
		byUser[st.UserID] = st
	}

	entries := make([]LeaderboardEntry, len(users))
	for i, u := range users {
		st := byUser[u.ID]
		entries[i] = LeaderboardEntry{
			UserID:     u.ID,
			Username:   u.Username,
			PostCount:  st.PostCount,
			TotalLikes: st.TotalLikes,
		}
	}

	return rank(entries), nil
}

// rank 稳定排序后截取前 LeaderboardSize 名并编号
func rank(entries []LeaderboardEntry) []LeaderboardEntry {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].TotalLikes > entries[j].TotalLikes
	})
	if len(entries) > LeaderboardSize {
		entries = entries[:LeaderboardSize]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}
