package services

import (
	"testing"
	"time"

	"snipshare/internal/models"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestScheduleUpdateDedupes(t *testing.T) {
	s := NewRankingService(nil)

	s.ScheduleUpdate(1)
	s.ScheduleUpdate(1)
	s.ScheduleUpdate(2)

	assert.Len(t, s.queue, 2)
}

func TestScheduleUpdateDropsWhenFull(t *testing.T) {
	s := NewRankingService(nil)
	for i := 1; i <= scoreQueueSize; i++ {
		s.ScheduleUpdate(uint(i))
	}

	s.ScheduleUpdate(scoreQueueSize + 1)

	assert.Len(t, s.queue, scoreQueueSize)
	s.mu.Lock()
	defer s.mu.Unlock()
	assert.False(t, s.pending[scoreQueueSize+1])
}

func TestUpdatePostScoreSync(t *testing.T) {
	conn := newTestDB(t)
	author := createUser(t, conn, "author", true)
	fan := createUser(t, conn, "fan", true)
	post := createPost(t, conn, author, "p")

	reactions := NewReactionService(conn, nil)
	_, err := reactions.Like(ctx, fan.ID, post.ID)
	require.NoError(t, err)

	s := NewRankingService(conn)
	s.UpdatePostScoreSync(post.ID)
	liked := loadPost(t, conn, post.ID).Score
	assert.Greater(t, liked, 0)

	require.NoError(t, reactions.Favorite(ctx, fan.ID, post.ID))
	s.UpdatePostScoreSync(post.ID)
	assert.Greater(t, loadPost(t, conn, post.ID).Score, liked)

	// 已删除的帖子直接跳过
	s.UpdatePostScoreSync(9999)
}

func TestRefreshRecent(t *testing.T) {
	conn := newTestDB(t)
	author := createUser(t, conn, "author", true)
	recent := createPost(t, conn, author, "recent")
	old := createPost(t, conn, author, "old")
	require.NoError(t, conn.Model(&models.Post{}).Where("id = ?", old.ID).
		Update("created_at", time.Now().AddDate(0, 0, -30)).Error)
	require.NoError(t, conn.Model(&models.Post{}).Where("id = ?", recent.ID).Update("likes", 3).Error)

	n := NewRankingService(conn).RefreshRecent()

	assert.Equal(t, 1, n)
	assert.Greater(t, loadPost(t, conn, recent.ID).Score, 0)
	assert.Equal(t, 0, loadPost(t, conn, old.ID).Score)
}

func TestRescheduleDuringRecompute(t *testing.T) {
	conn := newTestDB(t)
	author := createUser(t, conn, "author", true)
	post := createPost(t, conn, author, "p")
	s := NewRankingService(conn)

	// 计算读取帖子时，又有一次互动提交
	fired := false
	require.NoError(t, conn.Callback().Query().Before("gorm:query").Register("test:reschedule", func(tx *gorm.DB) {
		if tx.Statement.Table == "posts" && !fired {
			fired = true
			s.ScheduleUpdate(post.ID)
		}
	}))

	s.ScheduleUpdate(post.ID)
	require.Equal(t, post.ID, <-s.queue)
	s.processBatch([]uint{post.ID})

	require.True(t, fired)
	assert.Len(t, s.queue, 1)
}

func TestScoreKeptWhenCountFails(t *testing.T) {
	conn := newTestDB(t)
	author := createUser(t, conn, "author", true)
	post := createPost(t, conn, author, "p")
	require.NoError(t, conn.Model(&models.Post{}).Where("id = ?", post.ID).Update("score", 77).Error)

	require.NoError(t, conn.Callback().Query().Before("gorm:query").Register("test:fail_count", func(tx *gorm.DB) {
		if tx.Statement.Table == "favorites" {
			tx.AddError(errors.New("connection reset"))
		}
	}))

	NewRankingService(conn).UpdatePostScoreSync(post.ID)
	assert.Equal(t, 77, loadPost(t, conn, post.ID).Score)
}

func TestRefreshRecentReportsNothingOnFailure(t *testing.T) {
	conn := newTestDB(t)
	author := createUser(t, conn, "author", true)
	createPost(t, conn, author, "p")

	require.NoError(t, conn.Callback().Query().Before("gorm:query").Register("test:fail_posts", func(tx *gorm.DB) {
		if tx.Statement.Table == "posts" {
			tx.AddError(errors.New("connection reset"))
		}
	}))

	assert.Equal(t, 0, NewRankingService(conn).RefreshRecent())
}

func TestStopIsIdempotent(t *testing.T) {
	s := NewRankingService(nil)
	s.Start()
	s.Stop()

	assert.NotPanics(t, s.Stop)

	s.ScheduleUpdate(1)
	assert.Len(t, s.queue, 0)
	assert.Empty(t, s.pending)
}
