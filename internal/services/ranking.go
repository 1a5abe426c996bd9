package services

import (
	"sync"
	"time"

	"snipshare/internal/models"
	"snipshare/internal/monitoring"
	"snipshare/internal/utils"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	scoreQueueSize = 1000
	scoreBatchSize = 50
	scoreFlushTick = 500 * time.Millisecond
)

// RankingService 异步计算帖子热度 Score
// 点赞、收藏、评论之后把帖子 ID 放进队列，后台批量重算
type RankingService struct {
	db      *gorm.DB
	queue   chan uint
	pending map[uint]bool
	stopped bool
	mu      sync.Mutex
	stop    chan struct{}
	done    chan struct{}
	once    sync.Once
}

func NewRankingService(db *gorm.DB) *RankingService {
	return &RankingService{
		db:      db,
		queue:   make(chan uint, scoreQueueSize),
		pending: make(map[uint]bool),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Start 启动后台 worker
func (s *RankingService) Start() {
	go s.worker()
}

// Stop 处理完已入队的请求后退出，可重复调用
// 必须在 Start 之后调用
func (s *RankingService) Stop() {
	s.once.Do(func() {
		s.mu.Lock()
		s.stopped = true
		s.mu.Unlock()
		close(s.stop)
	})
	<-s.done
}

// ScheduleUpdate 将帖子加入更新队列（异步）
// 同一帖子在队列中只保留一份，Stop 之后直接忽略
func (s *RankingService) ScheduleUpdate(postID uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped || s.pending[postID] {
		return
	}

	select {
	case s.queue <- postID:
		s.pending[postID] = true
	default:
		monitoring.ScoreQueueDropped.Inc()
		log.Warnf("Score queue full, skipping post %d", postID)
	}
}

func (s *RankingService) worker() {
	defer close(s.done)

	batch := make([]uint, 0, scoreBatchSize)
	ticker := time.NewTicker(scoreFlushTick)
	defer ticker.Stop()

	for {
		select {
		case postID := <-s.queue:
			batch = append(batch, postID)
			if len(batch) >= scoreBatchSize {
				s.processBatch(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				s.processBatch(batch)
				batch = batch[:0]
			}
		case <-s.stop:
			for {
				select {
				case postID := <-s.queue:
					batch = append(batch, postID)
				default:
					s.processBatch(batch)
					return
				}
			}
		}
	}
}

func (s *RankingService) processBatch(postIDs []uint) {
	for _, postID := range postIDs {
		// 先出队再计算：计算期间提交的新互动要能重新入队
		s.mu.Lock()
		delete(s.pending, postID)
		s.mu.Unlock()

		s.updatePostScore(postID)
	}
}

// updatePostScore 计算并写回单个帖子的 Score
func (s *RankingService) updatePostScore(postID uint) {
	var post models.Post
	if err := s.db.Select("id", "likes", "dislikes", "views", "created_at").Take(&post, postID).Error; err != nil {
		// 帖子可能刚被删除
		log.Debugf("Skip score update, post %d: %v", postID, err)
		return
	}

	var favorites int64
	if err := s.db.Model(&models.Favorite{}).Where("post_id = ?", postID).Count(&favorites).Error; err != nil {
		log.WithError(err).Errorf("Failed to count favorites of post %d", postID)
		return
	}

	var comments int64
	if err := s.db.Model(&models.Comment{}).Where("post_id = ?", postID).Count(&comments).Error; err != nil {
		log.WithError(err).Errorf("Failed to count comments of post %d", postID)
		return
	}

	score := utils.CalculateScore(utils.Engagement{
		CreatedAt: post.CreatedAt,
		Likes:     post.Likes,
		Dislikes:  post.Dislikes,
		Favorites: int(favorites),
		Comments:  int(comments),
		Views:     post.Views,
	})

	if err := s.db.Model(&models.Post{}).Where("id = ?", postID).UpdateColumn("score", int(score)).Error; err != nil {
		log.WithError(err).Errorf("Failed to update score of post %d", postID)
	}
}

// UpdatePostScoreSync 同步更新帖子 Score
func (s *RankingService) UpdatePostScoreSync(postID uint) {
	s.updatePostScore(postID)
}

// RefreshRecent 重算最近 7 天的帖子，时间衰减需要定期刷新
func (s *RankingService) RefreshRecent() int {
	var recent []models.Post
	if err := s.db.Select("id").Where("created_at >= ?", time.Now().AddDate(0, 0, -7)).Find(&recent).Error; err != nil {
		log.WithError(err).Error("Failed to load recent posts for score refresh")
		return 0
	}
	for _, p := range recent {
		s.updatePostScore(p.ID)
	}
	log.Infof("Refreshed score of %d posts", len(recent))
	return len(recent)
}

// StartScheduledRefresh 每天凌晨 3 点执行 RefreshRecent
func (s *RankingService) StartScheduledRefresh() {
	go func() {
		for {
			now := time.Now()
			next := time.Date(now.Year(), now.Month(), now.Day(), 3, 0, 0, 0, now.Location())
			if now.After(next) {
				next = next.Add(24 * time.Hour)
			}
			select {
			case <-time.After(time.Until(next)):
				s.RefreshRecent()
			case <-s.stop:
				return
			}
		}
	}()
}
