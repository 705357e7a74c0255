// Package secretary provides admin token issuance and validation.
package secretary

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/danilovkiri/dk-go-trainqueue/internal/config"
	"github.com/danilovkiri/dk-go-trainqueue/internal/models/modelclaims"
	"github.com/golang-jwt/jwt"
)

const tokenTTL = 8 * time.Hour

// Secretary defines object structure and its attributes.
type Secretary struct {
	key           []byte
	adminPassword string
}

// NewSecretaryService initializes a secretary service with admin token
// functionality.
func NewSecretaryService(c *config.SecretConfig) (*Secretary, error) {
	if c.AdminPassword == "" {
		return nil, errors.New("admin password must be configured")
	}
	return &Secretary{
		key:           []byte(c.SecretKey),
		adminPassword: c.AdminPassword,
	}, nil
}

// Login verifies the admin password and issues a signed access token.
func (s *Secretary) Login(password string) (string, error) {
	if subtle.ConstantTimeCompare([]byte(password), []byte(s.adminPassword)) != 1 {
		return "", errors.New("invalid admin password")
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &modelclaims.AdminClaims{
		Role: "admin",
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  time.Now().Unix(),
			ExpiresAt: time.Now().Add(tokenTTL).Unix(),
		},
	})
	return token.SignedString(s.key)
}

// ValidateToken checks the signature, expiry and role of an access token.
func (s *Secretary) ValidateToken(accessToken string) error {
	token, err := jwt.ParseWithClaims(accessToken, &modelclaims.AdminClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.key, nil
	})
	if err != nil {
		return err
	}
	if claims, ok := token.Claims.(*modelclaims.AdminClaims); ok && token.Valid && claims.Role == "admin" {
		return nil
	}
	return errors.New("invalid access token")
}
