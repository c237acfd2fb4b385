package util

import (
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/gitmesh/gitmesh/pkg/config"
)

var ErrTokenExpired = errors.New("token expired")

type (
	JWTClaims struct {
		UserID   uint   `json:"ui"`
		Username string `json:"un"`
		jwt.RegisteredClaims
	}
	JWTMessage struct {
		UserID   uint   `json:"userID"`   // User ID
		Username string `json:"username"` // Username
	}
)

type TokenManager struct {
	secretKey string
	ttl       time.Duration
	now       func() time.Time
}

func NewTokenManager(conf *config.TokenConf) *TokenManager {
	return &TokenManager{
		secretKey: conf.SessionSecret,
		ttl:       time.Hour * time.Duration(conf.SessionExpiryHour),
		now:       time.Now,
	}
}

func (tm *TokenManager) TTL() time.Duration {
	return tm.ttl
}

// CreateToken signs a session token for msg.
func (tm *TokenManager) CreateToken(msg *JWTMessage) (string, error) {
	now := tm.now()
	claims := &JWTClaims{
		UserID:   msg.UserID,
		Username: msg.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tm.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(tm.secretKey))
}

func (tm *TokenManager) CheckToken(requestToken string) (JWTMessage, error) {
	claims := JWTClaims{}
	_, err := jwt.ParseWithClaims(requestToken, &claims, func(_ *jwt.Token) (any, error) {
		return []byte(tm.secretKey), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(tm.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return JWTMessage{}, ErrTokenExpired
		}
		return JWTMessage{}, fmt.Errorf("parse token: %w", err)
	}
	return JWTMessage{
		UserID:   claims.UserID,
		Username: claims.Username,
	}, nil
}
