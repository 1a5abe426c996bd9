package services

import (
	"context"
	"strings"

	"snipshare/internal/models"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	SortNew = "new"
	SortHot = "hot"

	defaultListLimit = 30
	maxListLimit     = 100
)

type PostInput struct {
	Title       string `json:"title"`
	Language    string `json:"language"`
	Code        string `json:"code"`
	Description string `json:"description"`
}

type PostService struct {
	db      *gorm.DB
	ranking *RankingService
}

func NewPostService(db *gorm.DB, ranking *RankingService) *PostService {
	return &PostService{db: db, ranking: ranking}
}

// CreatePost 发布代码片段，仅限已验证用户
func (s *PostService) CreatePost(ctx context.Context, userID uint, in PostInput) (*models.Post, error) {
	if err := authorizeWriter(ctx, s.db, userID); err != nil {
		return nil, err
	}
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" || strings.TrimSpace(in.Code) == "" {
		return nil, ErrInvalidInput
	}

	post := models.Post{
		UserID:      userID,
		Title:       in.Title,
		Language:    strings.ToLower(strings.TrimSpace(in.Language)),
		Code:        in.Code,
		Description: in.Description,
	}
	if err := s.db.WithContext(ctx).Create(&post).Error; err != nil {
		return nil, wrapStorage(err, "create post")
	}
	return &post, nil
}

// GetPost 帖子详情，同时累加浏览量
func (s *PostService) GetPost(ctx context.Context, postID uint) (*models.Post, error) {
	tx := s.db.WithContext(ctx)

	var post models.Post
	err := tx.Preload("User").Take(&post, postID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, wrapStorage(err, "load post")
	}

	if err := tx.Model(&models.Post{}).Where("id = ?", post.ID).UpdateColumn("views", gorm.Expr("views + ?", 1)).Error; err != nil {
		log.WithError(err).WithField("post_id", post.ID).Warn("failed to count view")
	} else {
		post.Views++
	}

	posts := []models.Post{post}
	if err := fillCounts(tx, posts); err != nil {
		return nil, err
	}
	return &posts[0], nil
}

// ListPosts 帖子列表，sort 为 new（默认）或 hot
func (s *PostService) ListPosts(ctx context.Context, sort string, limit int) ([]models.Post, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	order := "created_at DESC, id DESC"
	if sort == SortHot {
		order = "score DESC, created_at DESC, id DESC"
	}

	var posts []models.Post
	if err := s.db.WithContext(ctx).Preload("User").Order(order).Limit(limit).Find(&posts).Error; err != nil {
		return nil, wrapStorage(err, "list posts")
	}
	if err := fillCounts(s.db.WithContext(ctx), posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// ListPostsByUser 用户发布的帖子，最新的在前
func (s *PostService) ListPostsByUser(ctx context.Context, userID uint, limit int) ([]models.Post, error) {
	if limit <= 0 || limit > maxListLimit {
		limit = defaultListLimit
	}

	var posts []models.Post
	if err := s.db.WithContext(ctx).Preload("User").
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&posts).Error; err != nil {
		return nil, wrapStorage(err, "list user posts")
	}
	if err := fillCounts(s.db.WithContext(ctx), posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// TotalLikes 用户所有帖子的获赞总数，与排行榜口径一致
func (s *PostService) TotalLikes(ctx context.Context, userID uint) (int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Post{}).
		Select("COALESCE(SUM(likes), 0)").
		Where("user_id = ?", userID).
		Scan(&total).Error; err != nil {
		return 0, wrapStorage(err, "sum likes")
	}
	return total, nil
}

// DeletePost 作者删除帖子，连带删除互动、评论、收藏
//
// 删除顺序 interactions -> comments -> favorites -> post 满足外键约束，
// 整个过程在一个事务里，中途失败不会留下半删的帖子。
func (s *PostService) DeletePost(ctx context.Context, userID, postID uint) error {
	if userID == 0 {
		return ErrInvalidUser
	}

	var post models.Post
	err := s.db.WithContext(ctx).Select("id", "user_id").Take(&post, postID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return wrapStorage(err, "load post")
	}
	if post.UserID != userID {
		return ErrForbidden
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", postID).Delete(&models.UserPostInteraction{}).Error; err != nil {
			return wrapStorage(err, "delete interactions")
		}
		if err := tx.Where("post_id = ?", postID).Delete(&models.Comment{}).Error; err != nil {
			return wrapStorage(err, "delete comments")
		}
		if err := tx.Where("post_id = ?", postID).Delete(&models.Favorite{}).Error; err != nil {
			return wrapStorage(err, "delete favorites")
		}
		res := tx.Delete(&models.Post{}, postID)
		if res.Error != nil {
			return wrapStorage(res.Error, "delete post")
		}
		if res.RowsAffected == 0 {
			// 被并发删除
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{"post_id": postID, "user_id": userID}).Info("post deleted")
	return nil
}

// CreateComment 发表评论，仅限已验证用户
func (s *PostService) CreateComment(ctx context.Context, userID, postID uint, content string) (*models.Comment, error) {
	if err := authorizeWriter(ctx, s.db, userID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(content) == "" {
		return nil, ErrInvalidInput
	}

	comment := models.Comment{
		PostID:  postID,
		UserID:  userID,
		Content: content,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensurePost(tx, postID); err != nil {
			return err
		}
		if err := tx.Create(&comment).Error; err != nil {
			return wrapStorage(err, "create comment")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.ranking != nil {
		s.ranking.ScheduleUpdate(postID)
	}
	return &comment, nil
}

// ListComments 帖子的评论，最新的在前
func (s *PostService) ListComments(ctx context.Context, postID uint) ([]models.Comment, error) {
	tx := s.db.WithContext(ctx)
	if err := ensurePost(tx, postID); err != nil {
		return nil, err
	}

	var comments []models.Comment
	if err := tx.Preload("User").
		Where("post_id = ?", postID).
		Order("created_at DESC, id DESC").
		Find(&comments).Error; err != nil {
		return nil, wrapStorage(err, "list comments")
	}
	return comments, nil
}

// fillCounts 批量填充帖子的收藏数和评论数
func fillCounts(db *gorm.DB, posts []models.Post) error {
	if len(posts) == 0 {
		return nil
	}

	postIDs := make([]uint, len(posts))
	for i, p := range posts {
		postIDs[i] = p.ID
	}

	favorites, err := countByPost(db, &models.Favorite{}, postIDs)
	if err != nil {
		return wrapStorage(err, "count favorites")
	}
	comments, err := countByPost(db, &models.Comment{}, postIDs)
	if err != nil {
		return wrapStorage(err, "count comments")
	}

	for i := range posts {
		posts[i].FavoriteCount = favorites[posts[i].ID]
		posts[i].CommentCount = comments[posts[i].ID]
	}
	return nil
}

func countByPost(db *gorm.DB, model interface{}, postIDs []uint) (map[uint]int, error) {
	type CountResult struct {
		PostID uint
		Count  int
	}
	var results []CountResult
	if err := db.Model(model).
		Select("post_id, COUNT(*) as count").
		Where("post_id IN ?", postIDs).
		Group("post_id").
		Scan(&results).Error; err != nil {
		return nil, err
	}

	countMap := make(map[uint]int, len(results))
	for _, r := range results {
		countMap[r.PostID] = r.Count
	}
	return countMap, nil
}
