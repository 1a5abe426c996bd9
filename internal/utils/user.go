package utils

import (
	"crypto/rand"
	"math/big"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword bcrypt 哈希
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPasswordHash 校验明文密码
func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// GenerateRandomCode 生成 n 位数字激活码
func GenerateRandomCode(n int) string {
	const digits = "0123456789"
	code := make([]byte, n)
	for i := range code {
		idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(digits))))
		if err != nil {
			panic(err)
		}
		code[i] = digits[idx.Int64()]
	}
	return string(code)
}

// GetRandomEmoji 返回一个随机 emoji 用于默认头像
func GetRandomEmoji() string {
	emojis := []string{"🧑‍💻", "👩‍💻", "👨‍💻", "🐹", "🦀", "🐍", "☕", "🐘", "🦊", "🐧", "🚀", "💡"}
	idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(emojis))))
	if err != nil {
		return emojis[0]
	}
	return emojis[idx.Int64()]
}
