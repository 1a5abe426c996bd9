package services

import (
	"context"
	"testing"

	"snipshare/internal/db"
	"snipshare/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// newTestDB 每个测试一个独立的内存库
// 单连接：sqlite 的写锁是库级的，串行化后行为与 Postgres 的行锁结果一致
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared&_foreign_keys=1"
	conn, err := db.Open(sqlite.Open(dsn))
	require.NoError(t, err)

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.Migrate(conn))
	return conn
}

func createUser(t *testing.T, conn *gorm.DB, name string, verified bool) models.User {
	t.Helper()
	user := models.User{
		Username: name,
		Email:    name + "@example.com",
		Password: "x",
		Verified: verified,
	}
	require.NoError(t, conn.Create(&user).Error)
	return user
}

func createPost(t *testing.T, conn *gorm.DB, author models.User, title string) models.Post {
	t.Helper()
	post := models.Post{
		UserID:   author.ID,
		Title:    title,
		Language: "go",
		Code:     "package main",
	}
	require.NoError(t, conn.Create(&post).Error)
	return post
}

func loadPost(t *testing.T, conn *gorm.DB, id uint) models.Post {
	t.Helper()
	var post models.Post
	require.NoError(t, conn.Take(&post, id).Error)
	return post
}

func countRows(t *testing.T, conn *gorm.DB, model interface{}, postID uint) int64 {
	t.Helper()
	var n int64
	require.NoError(t, conn.Model(model).Where("post_id = ?", postID).Count(&n).Error)
	return n
}

var ctx = context.Background()
