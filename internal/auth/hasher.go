package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Hasher はパスワードの一方向ハッシュ化と検証を行います。
type Hasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
}

// BcryptHasher は固定コストの bcrypt で Hasher を実装します。
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher は BcryptHasher を作成します。
// cost が範囲外の場合は bcrypt.DefaultCost (10) を使います。
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

// Cost は使用するコストを返します。
func (h *BcryptHasher) Cost() int {
	return h.cost
}

// Hash はソルト付きのダイジェストを返します。
// 72バイトを超えるパスワードはエラーになります。
func (h *BcryptHasher) Hash(plaintext string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("bcrypt: %w", err)
	}
	return string(digest), nil
}

// Verify は平文がダイジェストと一致するかを返します。
func (h *BcryptHasher) Verify(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}
