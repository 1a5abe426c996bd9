package services

import (
	"context"

	"snipshare/internal/models"
	"snipshare/internal/monitoring"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Counters 帖子当前的赞/踩数
type Counters struct {
	Likes    int `json:"likes"`
	Dislikes int `json:"dislikes"`
}

// ReactionService 处理点赞、点踩、收藏
//
// 计数只通过相对增量 (likes + ?) 修改，状态只看 user_post_interactions 里存的值，
// 每次转换的行写入与计数更新在同一个事务里提交。
type ReactionService struct {
	db      *gorm.DB
	ranking *RankingService
}

func NewReactionService(db *gorm.DB, ranking *RankingService) *ReactionService {
	return &ReactionService{db: db, ranking: ranking}
}

// Like 点赞。已赞返回 ErrAlreadyReacted，已踩则改为赞。
func (s *ReactionService) Like(ctx context.Context, userID, postID uint) (Counters, error) {
	return s.react(ctx, userID, postID, models.ReactionLike)
}

// Dislike 点踩，与 Like 对称
func (s *ReactionService) Dislike(ctx context.Context, userID, postID uint) (Counters, error) {
	return s.react(ctx, userID, postID, models.ReactionDislike)
}

func (s *ReactionService) react(ctx context.Context, userID, postID uint, want models.Reaction) (Counters, error) {
	var counters Counters

	err := authorizeWriter(ctx, s.db, userID)
	if err == nil {
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			prev, err := transition(tx, userID, postID, want)
			if err != nil {
				return err
			}

			delta := map[string]interface{}{
				want.Column(): gorm.Expr(want.Column()+" + ?", 1),
			}
			// 只有之前确实存了相反态度才扣减，防止计数变成负数
			if prev != models.ReactionNone {
				delta[prev.Column()] = gorm.Expr(prev.Column()+" - ?", 1)
			}
			if err := tx.Model(&models.Post{}).Where("id = ?", postID).UpdateColumns(delta).Error; err != nil {
				return wrapStorage(err, "update post counters")
			}

			if err := tx.Model(&models.Post{}).Select("likes", "dislikes").Where("id = ?", postID).Take(&counters).Error; err != nil {
				return wrapStorage(err, "read post counters")
			}
			return nil
		})
	}

	monitoring.Reactions.WithLabelValues(string(want), outcome(err)).Inc()
	if err != nil {
		if IsRetryable(err) {
			log.WithFields(log.Fields{
				"user_id":  userID,
				"post_id":  postID,
				"reaction": want,
			}).WithError(err).Error("reaction failed")
		}
		return Counters{}, err
	}

	s.scheduleScore(postID)
	return counters, nil
}

// transition 在事务内把 (user, post) 的态度改成 want，返回修改前的态度
func transition(tx *gorm.DB, userID, postID uint, want models.Reaction) (models.Reaction, error) {
	if err := ensurePost(tx, postID); err != nil {
		return models.ReactionNone, err
	}

	var current models.UserPostInteraction
	err := tx.Where("user_id = ? AND post_id = ?", userID, postID).Take(&current).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// 没有记录即 NONE；唯一索引保证并发的重复创建只有一个成功
		current = models.UserPostInteraction{UserID: userID, PostID: postID, Reaction: want}
		if err := tx.Create(&current).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return models.ReactionNone, ErrAlreadyReacted
			}
			return models.ReactionNone, wrapStorage(err, "create interaction")
		}
		return models.ReactionNone, nil
	}
	if err != nil {
		return models.ReactionNone, wrapStorage(err, "load interaction")
	}

	if current.Reaction == want {
		return current.Reaction, ErrAlreadyReacted
	}

	// CAS：只有行仍是读到的旧值时才更新，否则说明有并发请求抢先完成了转换
	res := tx.Model(&models.UserPostInteraction{}).
		Where("id = ? AND reaction = ?", current.ID, current.Reaction).
		Update("reaction", want)
	if res.Error != nil {
		return current.Reaction, wrapStorage(res.Error, "update interaction")
	}
	if res.RowsAffected == 0 {
		return current.Reaction, ErrAlreadyReacted
	}
	return current.Reaction, nil
}

// Reaction 查询用户对帖子的当前态度，没有记录时为 ReactionNone
func (s *ReactionService) Reaction(ctx context.Context, userID, postID uint) (models.Reaction, error) {
	if userID == 0 {
		return models.ReactionNone, nil
	}
	var interaction models.UserPostInteraction
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Take(&interaction).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.ReactionNone, nil
	}
	if err != nil {
		return models.ReactionNone, wrapStorage(err, "load interaction")
	}
	return interaction.Reaction, nil
}

// Favorite 收藏，重复收藏返回 ErrAlreadyFavorited
func (s *ReactionService) Favorite(ctx context.Context, userID, postID uint) error {
	err := authorizeWriter(ctx, s.db, userID)
	if err == nil {
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := ensurePost(tx, postID); err != nil {
				return err
			}
			favorite := models.Favorite{UserID: userID, PostID: postID}
			if err := tx.Create(&favorite).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return ErrAlreadyFavorited
				}
				return wrapStorage(err, "create favorite")
			}
			return nil
		})
	}

	monitoring.Reactions.WithLabelValues("favorite", outcome(err)).Inc()
	if err != nil {
		return err
	}
	s.scheduleScore(postID)
	return nil
}

// Unfavorite 取消收藏，未收藏时返回 ErrNotFavorited
func (s *ReactionService) Unfavorite(ctx context.Context, userID, postID uint) error {
	err := authorizeWriter(ctx, s.db, userID)
	if err == nil {
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := ensurePost(tx, postID); err != nil {
				return err
			}
			res := tx.Where("user_id = ? AND post_id = ?", userID, postID).Delete(&models.Favorite{})
			if res.Error != nil {
				return wrapStorage(res.Error, "delete favorite")
			}
			if res.RowsAffected == 0 {
				return ErrNotFavorited
			}
			return nil
		})
	}

	monitoring.Reactions.WithLabelValues("unfavorite", outcome(err)).Inc()
	if err != nil {
		return err
	}
	s.scheduleScore(postID)
	return nil
}

// IsFavorited 检查用户是否已收藏某帖子
func (s *ReactionService) IsFavorited(ctx context.Context, userID, postID uint) (bool, error) {
	if userID == 0 {
		return false, nil
	}
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Favorite{}).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Count(&count).Error; err != nil {
		return false, wrapStorage(err, "check favorite")
	}
	return count > 0, nil
}

// FavoriteCount 收藏数不落库，读时统计
func (s *ReactionService) FavoriteCount(ctx context.Context, postID uint) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Favorite{}).
		Where("post_id = ?", postID).
		Count(&count).Error; err != nil {
		return 0, wrapStorage(err, "count favorites")
	}
	return count, nil
}

// ListFavorites 用户收藏的帖子，最近收藏的在前
func (s *ReactionService) ListFavorites(ctx context.Context, userID uint) ([]models.Post, error) {
	if userID == 0 {
		return nil, ErrInvalidUser
	}

	var favorites []models.Favorite
	if err := s.db.WithContext(ctx).
		Preload("Post").
		Preload("Post.User").
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&favorites).Error; err != nil {
		return nil, wrapStorage(err, "list favorites")
	}

	posts := make([]models.Post, 0, len(favorites))
	for _, f := range favorites {
		posts = append(posts, f.Post)
	}
	if err := fillCounts(s.db.WithContext(ctx), posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (s *ReactionService) scheduleScore(postID uint) {
	if s.ranking != nil {
		s.ranking.ScheduleUpdate(postID)
	}
}

// authorizeWriter 写操作前的身份检查：必须是存在且已验证的用户
func authorizeWriter(ctx context.Context, db *gorm.DB, userID uint) error {
	if userID == 0 {
		return ErrInvalidUser
	}
	var user models.User
	err := db.WithContext(ctx).Select("id", "verified").Take(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrInvalidUser
	}
	if err != nil {
		return wrapStorage(err, "load user")
	}
	if !user.Verified {
		return ErrForbidden
	}
	return nil
}

func ensurePost(tx *gorm.DB, postID uint) error {
	var count int64
	if err := tx.Model(&models.Post{}).Where("id = ?", postID).Count(&count).Error; err != nil {
		return wrapStorage(err, "load post")
	}
	if count == 0 {
		return ErrNotFound
	}
	return nil
}

// outcome 把错误归类为监控标签
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrAlreadyReacted), errors.Is(err, ErrAlreadyFavorited), errors.Is(err, ErrNotFavorited):
		return "noop"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrForbidden), errors.Is(err, ErrInvalidUser):
		return "rejected"
	}
	return "error"
}
