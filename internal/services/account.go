package services

import (
	"context"
	"net/mail"
	"strings"

	"snipshare/internal/models"
	"snipshare/internal/utils"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidCode        = errors.New("invalid activation code")
)

const minPasswordLen = 6

type AccountService struct {
	db   *gorm.DB
	mail *MailService
}

func NewAccountService(db *gorm.DB, mail *MailService) *AccountService {
	return &AccountService{db: db, mail: mail}
}

// Register 创建未验证用户并发送激活码
func (s *AccountService) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil || len(password) < minPasswordLen {
		return nil, ErrInvalidInput
	}
	username = strings.TrimSpace(username)
	if username == "" {
		username = strings.Split(email, "@")[0]
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Username:   username,
		Email:      email,
		Password:   hash,
		Avatar:     utils.GetRandomEmoji(),
		VerifyCode: utils.GenerateRandomCode(6),
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailTaken
		}
		return nil, wrapStorage(err, "create user")
	}

	if s.mail != nil {
		s.mail.SendActivationCode(user.Email, user.VerifyCode)
	}
	return &user, nil
}

// Activate 用激活码完成验证，已验证的用户直接返回
func (s *AccountService) Activate(ctx context.Context, email, code string) (*models.User, error) {
	user, err := s.findByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user.Verified {
		return user, nil
	}
	if code == "" || user.VerifyCode != code {
		return nil, ErrInvalidCode
	}

	if err := s.db.WithContext(ctx).Model(user).Updates(map[string]interface{}{
		"verified":    true,
		"verify_code": "",
	}).Error; err != nil {
		return nil, wrapStorage(err, "activate user")
	}
	user.Verified = true
	user.VerifyCode = ""
	return user, nil
}

// Authenticate 校验邮箱密码。未验证用户也能登录，只是不能写。
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.findByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !utils.CheckPasswordHash(password, user.Password) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (s *AccountService) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Take(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, wrapStorage(err, "load user")
	}
	return &user, nil
}

func (s *AccountService) findByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, wrapStorage(err, "load user")
	}
	return &user, nil
}
