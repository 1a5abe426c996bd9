package utils

import (
	"math"
	"time"
)

type RankConfig struct {
	Gravity        float64 // 时间重力 (1.5)
	WeightFavorite float64 // 3.0
	WeightComment  float64 // 2.0
	WeightLike     float64 // 1.0
	WeightDislike  float64 // 1.5
	WeightView     float64 // 0.01，浏览量数量级太大，只给极小权重
	ScaleFactor    float64 // 放大系数 (100)
}

var DefaultConfig = RankConfig{
	Gravity:        1.5,
	WeightFavorite: 3.0,
	WeightComment:  2.0,
	WeightLike:     1.0,
	WeightDislike:  1.5,
	WeightView:     0.01,
	ScaleFactor:    100.0,
}

// Engagement 计算热度所需的帖子数据
type Engagement struct {
	CreatedAt time.Time
	Likes     int
	Dislikes  int
	Favorites int
	Comments  int
	Views     int
}

// CalculateScore 对数平滑的加权互动值，除以时间衰减
func CalculateScore(e Engagement) float64 {
	return calculateScoreAt(e, time.Now())
}

func calculateScoreAt(e Engagement, now time.Time) float64 {
	hours := now.Sub(e.CreatedAt).Hours()
	if hours < 0 {
		hours = 0
	}

	weightedSum := float64(e.Likes)*DefaultConfig.WeightLike +
		float64(e.Comments)*DefaultConfig.WeightComment +
		float64(e.Favorites)*DefaultConfig.WeightFavorite +
		float64(e.Views)*DefaultConfig.WeightView -
		float64(e.Dislikes)*DefaultConfig.WeightDislike

	// 防止负数无法取对数
	if weightedSum < 0 {
		weightedSum = 0
	}

	numerator := math.Log10(weightedSum+1) * DefaultConfig.ScaleFactor
	decay := math.Pow(hours+2, DefaultConfig.Gravity)

	return numerator / decay
}
