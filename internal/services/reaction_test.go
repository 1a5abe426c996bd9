package services

import (
	"sync"
	"testing"

	"snipshare/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// assertExclusive 任意时刻同一 (user, post) 最多只有一种态度
func assertExclusive(t *testing.T, conn *gorm.DB, userID, postID uint) {
	t.Helper()
	var rows []models.UserPostInteraction
	require.NoError(t, conn.Where("user_id = ? AND post_id = ?", userID, postID).Find(&rows).Error)
	require.LessOrEqual(t, len(rows), 1)
	for _, r := range rows {
		assert.False(t, r.Liked() && r.Disliked())
	}
}

func TestLikeFromNone(t *testing.T) {
	conn := newTestDB(t)
	author := createUser(t, conn, "author", true)
	alice := createUser(t, conn, "alice", true)
	post := createPost(t, conn, author, "hello")
	s := NewReactionService(conn, nil)

	counters, err := s.Like(ctx, alice.ID, post.ID)
	require.NoError(t, err)
	assert.Equal(t, Counters{Likes: 1, Dislikes: 0}, counters)

	reaction, err := s.Reaction(ctx, alice.ID, post.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReactionLike, reaction)
	assertExclusive(t, conn, alice.ID, post.ID)
}

func TestDislikeFromNone(t *testing.T) {
	conn := newTestDB(t)
	author := createUser(t, conn, "author", true)
	alice := createUser(t, conn, "alice", true)
	post := createPost(t, conn, author, "hello")
	s := NewReactionService(conn, nil)

	counters, err := s.Dislike(ctx, alice.ID, post.ID)
	require.NoError(t, err)
	assert.Equal(t, Counters{Likes: 0, Dislikes: 1}, counters)
	assertExclusive(t, conn, alice.ID, post.ID)
}

func TestRepeatedReactionIsRejected(t *testing.T) {
	conn := newTestDB(t)
	author := createUser(t, conn, "author", true)
	alice := createUser(t, conn, "alice", true)
	post := createPost(t, conn, author, "hello")
	s := NewReactionService(conn, nil)

	_, err := s.Like(ctx, alice.ID, post.ID)
	require.NoError(t, err)

	_, err = s.Like(ctx, alice.ID, post.ID)
	assert.ErrorIs(t, err, ErrAlreadyReacted)
	assert.False(t, IsRetryable(err))

	p := loadPost(t, conn, post.ID)
	assert.Equal(t, 1, p.Likes)
	assert.Equal(t, 0, p.Dislikes)

	_, err = s.Dislike(ctx, alice.ID, post.ID)
	require.NoError(t, err)
	_, err = s.Dislike(ctx, alice.ID, post.ID)
	assert.ErrorIs(t, err, ErrAlreadyReacted)

	p = loadPost(t, conn, post.ID)
	assert.Equal(t, 0, p.Likes)
	assert.Equal(t, 1, p.Dislikes)
}

func TestFlipFlopDoesNotLeakCounts(t *testing.T) {
	conn := newTestDB(t)
	author := createUser(t, conn, "author", true)
	alice := createUser(t, conn, "alice", true)
	post := createPost(t, conn, author, "hello")
	s := NewReactionService(conn, nil)

	counters, err := s.Like(ctx, alice.ID, post.ID)
	require.NoError(t, err)
	assert.Equal(t, Counters{Likes: 1, Dislikes: 0}, counters)
	assertExclusive(t, conn, alice.ID, post.ID)

	counters, err = s.Dislike(ctx, alice.ID, post.ID)
	require.NoError(t, err)
	assert.Equal(t, Counters{Likes: 0, Dislikes: 1}, counters)
	assertExclusive(t, conn, alice.ID, post.ID)

	counters, err = s.Like(ctx, alice.ID, post.ID)
	require.NoError(t, err)
	assert.Equal(t, Counters{Likes: 1, Dislikes: 0}, counters)
	assertExclusive(t, conn, alice.ID, post.ID)

	reaction, err := s.Reaction(ctx, alice.ID, post.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReactionLike, reaction)
	assert.EqualValues(t, 1, countRows(t, conn, &models.UserPostInteraction{}, post.ID))
}

func TestReactionPreconditions(t *testing.T) {
	conn := newTestDB(t)
	author := createUser(t, conn, "author", true)
	unverified := createUser(t, conn, "lurker", false)
	post := createPost(t, conn, author, "hello")
	s := NewReactionService(conn, nil)

	cases := []struct {
		name   string
		userID uint
		postID uint
		want   error
	}{
		{"missing user", 0, post.ID, ErrInvalidUser},
		{"unknown user", 9999, post.ID, ErrInvalidUser},
		{"unverified user", unverified.ID, post.ID, ErrForbidden},
		{"missing post", author.ID, 9999, ErrNotFound},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := s.Like(ctx, c.userID, c.postID)
			assert.ErrorIs(t, err, c.want)
			_, err = s.Dislike(ctx, c.userID, c.postID)
			assert.ErrorIs(t, err, c.want)
			assert.ErrorIs(t, s.Favorite(ctx, c.userID, c.postID), c.want)
		})
	}

	p := loadPost(t, conn, post.ID)
	assert.Equal(t, 0, p.Likes)
	assert.Equal(t, 0, p.Dislikes)
	assert.EqualValues(t, 0, countRows(t, conn, &models.UserPostInteraction{}, post.ID))
}

func TestConcurrentLikesFromDistinctUsers(t *testing.T) {
	conn := newTestDB(t)
	author := createUser(t, conn, "author", true)
	post := createPost(t, conn, author, "hello")
	s := NewReactionService(conn, nil)

	const n = 20
	users := make([]models.User, n)
	for i := range users {
		users[i] = createUser(t, conn, "user"+string(rune('a'+i)), true)
	}

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for _, u := range users {
		wg.Add(1)
		go func(userID uint) {
			defer wg.Done()
			_, err := s.Like(ctx, userID, post.ID)
			errs <- err
		}(u.ID)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, n, loadPost(t, conn, post.ID).Likes)
}

func TestConcurrentDuplicateLikeAppliesOnce(t *testing.T) {
	conn := newTestDB(t)
	author := createUser(t, conn, "author", true)
	alice := createUser(t, conn, "alice", true)
	post := createPost(t, conn, author, "hello")
	s := NewReactionService(conn, nil)

	const n = 5
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Like(ctx, alice.ID, post.ID)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	ok := 0
	for err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, ErrAlreadyReacted)
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, loadPost(t, conn, post.ID).Likes)
	assertExclusive(t, conn, alice.ID, post.ID)
}

// otherWriter 在当前事务的连接上执行一条语句，模拟另一个请求抢先提交的写入
func otherWriter(tx *gorm.DB, query string, args ...interface{}) error {
	_, err := tx.Statement.ConnPool.ExecContext(tx.Statement.Context, query, args...)
	return err
}

func TestLikeLosesCreateRace(t *testing.T) {
	conn := newTestDB(t)
	author := createUser(t, conn, "author", true)
	alice := createUser(t, conn, "alice", true)
	post := createPost(t, conn, author, "hello")
	s := NewReactionService(conn, nil)

	// 读到"没有记录"之后、插入之前，另一个请求已经写入了同一 (user, post)
	fired := false
	require.NoError(t, conn.Callback().Create().Before("gorm:create").Register("test:create_race", func(tx *gorm.DB) {
		if tx.Statement.Table != "user_post_interactions" || fired {
			return
		}
		fired = true
		tx.AddError(otherWriter(tx,
			"INSERT INTO user_post_interactions (user_id, post_id, reaction, created_at, updated_at) VALUES (?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)",
			alice.ID, post.ID, string(models.ReactionLike)))
	}))

	_, err := s.Like(ctx, alice.ID, post.ID)
	require.True(t, fired)
	assert.ErrorIs(t, err, ErrAlreadyReacted)
	assert.False(t, IsRetryable(err))

	got := loadPost(t, conn, post.ID)
	assert.Equal(t, 0, got.Likes)
	assert.Equal(t, 0, got.Dislikes)
	assert.EqualValues(t, 0, countRows(t, conn, &models.UserPostInteraction{}, post.ID))
}

func TestDislikeLosesSwapRace(t *testing.T) {
	conn := newTestDB(t)
	author := createUser(t, conn, "author", true)
	alice := createUser(t, conn, "alice", true)
	post := createPost(t, conn, author, "hello")
	s := NewReactionService(conn, nil)

	_, err := s.Like(ctx, alice.ID, post.ID)
	require.NoError(t, err)

	// 读到 like 之后、CAS 之前，另一个请求已经把态度改掉了
	fired := false
	require.NoError(t, conn.Callback().Update().Before("gorm:update").Register("test:swap_race", func(tx *gorm.DB) {
		if tx.Statement.Table != "user_post_interactions" || fired {
			return
		}
		fired = true
		tx.AddError(otherWriter(tx,
			"UPDATE user_post_interactions SET reaction = ? WHERE user_id = ? AND post_id = ?",
			string(models.ReactionDislike), alice.ID, post.ID))
	}))

	_, err = s.Dislike(ctx, alice.ID, post.ID)
	require.True(t, fired)
	assert.ErrorIs(t, err, ErrAlreadyReacted)

	// 整个事务回滚，计数和记录保持点赞时的状态
	got := loadPost(t, conn, post.ID)
	assert.Equal(t, 1, got.Likes)
	assert.Equal(t, 0, got.Dislikes)
	reaction, err := s.Reaction(ctx, alice.ID, post.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReactionLike, reaction)
	assertExclusive(t, conn, alice.ID, post.ID)
}

func TestFavoriteCycle(t *testing.T) {
	conn := newTestDB(t)
	author := createUser(t, conn, "author", true)
	alice := createUser(t, conn, "alice", true)
	post := createPost(t, conn, author, "hello")
	s := NewReactionService(conn, nil)

	require.NoError(t, s.Favorite(ctx, alice.ID, post.ID))
	assert.ErrorIs(t, s.Favorite(ctx, alice.ID, post.ID), ErrAlreadyFavorited)

	count, err := s.FavoriteCount(ctx, post.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	require.NoError(t, s.Unfavorite(ctx, alice.ID, post.ID))
	assert.ErrorIs(t, s.Unfavorite(ctx, alice.ID, post.ID), ErrNotFavorited)

	favorited, err := s.IsFavorited(ctx, alice.ID, post.ID)
	require.NoError(t, err)
	assert.False(t, favorited)

	require.NoError(t, s.Favorite(ctx, alice.ID, post.ID))
	favorited, err = s.IsFavorited(ctx, alice.ID, post.ID)
	require.NoError(t, err)
	assert.True(t, favorited)

	// 收藏与赞踩互不影响
	p := loadPost(t, conn, post.ID)
	assert.Equal(t, 0, p.Likes)
	assert.Equal(t, 0, p.Dislikes)
}

func TestUnfavoriteMissingPost(t *testing.T) {
	conn := newTestDB(t)
	alice := createUser(t, conn, "alice", true)
	s := NewReactionService(conn, nil)

	assert.ErrorIs(t, s.Unfavorite(ctx, alice.ID, 42), ErrNotFound)
}

func TestListFavorites(t *testing.T) {
	conn := newTestDB(t)
	author := createUser(t, conn, "author", true)
	alice := createUser(t, conn, "alice", true)
	first := createPost(t, conn, author, "first")
	second := createPost(t, conn, author, "second")
	createPost(t, conn, author, "ignored")
	s := NewReactionService(conn, nil)

	require.NoError(t, s.Favorite(ctx, alice.ID, first.ID))
	require.NoError(t, s.Favorite(ctx, alice.ID, second.ID))

	posts, err := s.ListFavorites(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, second.ID, posts[0].ID)
	assert.Equal(t, first.ID, posts[1].ID)
	assert.Equal(t, "author", posts[0].User.Username)
	assert.Equal(t, 1, posts[0].FavoriteCount)

	_, err = s.ListFavorites(ctx, 0)
	assert.ErrorIs(t, err, ErrInvalidUser)
}

func TestReactionSchedulesScoreUpdate(t *testing.T) {
	conn := newTestDB(t)
	author := createUser(t, conn, "author", true)
	alice := createUser(t, conn, "alice", true)
	post := createPost(t, conn, author, "hello")

	ranking := NewRankingService(conn)
	s := NewReactionService(conn, ranking)

	_, err := s.Like(ctx, alice.ID, post.ID)
	require.NoError(t, err)
	require.NoError(t, s.Favorite(ctx, alice.ID, post.ID))

	// worker 未启动，队列里只应有一份
	assert.Len(t, ranking.queue, 1)

	ranking.Start()
	ranking.Stop()
	assert.Greater(t, loadPost(t, conn, post.ID).Score, 0)
}
