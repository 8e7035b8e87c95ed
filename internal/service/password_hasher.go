package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"

	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher calcula y verifica hashes de password.
type PasswordHasher interface {
	Hash(password string) (string, error)
	// Verify es deterministico: mismas entradas, mismo resultado.
	Verify(password, hash string) bool
}

// BcryptHasher mezcla el salt secreto del proceso con el password (HMAC-SHA256)
// y guarda el resultado con bcrypt, que agrega su propio salt por hash.
type BcryptHasher struct {
	salt []byte
	cost int
}

func NewBcryptHasher(salt string, cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{
		salt: []byte(salt),
		cost: cost,
	}
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	hashBytes, err := bcrypt.GenerateFromPassword(h.peppered(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(hashBytes), nil
}

func (h *BcryptHasher) Verify(password, hash string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), h.peppered(password)) == nil
}

// peppered deja la entrada de bcrypt en 44 bytes, debajo de su limite de 72.
func (h *BcryptHasher) peppered(password string) []byte {
	mac := hmac.New(sha256.New, h.salt)
	mac.Write([]byte(password))
	return []byte(base64.StdEncoding.EncodeToString(mac.Sum(nil)))
}
