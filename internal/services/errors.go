package services

import (
	"github.com/pkg/errors"
)

// 帖子互动相关的错误。除 ErrStorage 外都是由当前状态决定的确定结果，重试无意义。
var (
	ErrInvalidUser      = errors.New("invalid user")
	ErrForbidden        = errors.New("forbidden")
	ErrNotFound         = errors.New("not found")
	ErrAlreadyReacted   = errors.New("already reacted")
	ErrAlreadyFavorited = errors.New("already favorited")
	ErrNotFavorited     = errors.New("not favorited")
	ErrStorage          = errors.New("storage failure")

	// ErrInvalidInput 请求参数不合法（标题、代码或评论为空）
	ErrInvalidInput = errors.New("invalid input")
)

// storageError 包装数据库错误，保留原始原因，同时满足 errors.Is(err, ErrStorage)
type storageError struct {
	cause error
	op    string
}

func (e *storageError) Error() string {
	return e.op + ": " + ErrStorage.Error() + ": " + e.cause.Error()
}

func (e *storageError) Unwrap() []error { return []error{ErrStorage, e.cause} }

func (e *storageError) Cause() error { return e.cause }

func wrapStorage(err error, op string) error {
	if err == nil {
		return nil
	}
	return &storageError{cause: errors.WithStack(err), op: op}
}

// IsRetryable 只有存储层的临时故障值得调用方重试
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStorage)
}
