// Package token 提供了用于签发和验证流式连接票据的功能。
package token

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TicketManager 负责 WebSocket 流式票据的签发和验证。
// 票据只携带学科与会话信息，不承载用户身份（认证由外部网关负责）。
type TicketManager struct {
	secretKey []byte        // 用于签名和验证票据的密钥
	ticketDur time.Duration // 票据有效期，应远短于一次会话的生命周期
}

// TicketClaims 定义了流式票据中携带的数据。
type TicketClaims struct {
	SubjectID string `json:"subjectId"`
	SessionID string `json:"sessionId"`
	jwt.RegisteredClaims
}

// NewTicketManager 创建一个新的 TicketManager 实例。
func NewTicketManager(secret string, expireMinutes int) *TicketManager {
	return &TicketManager{
		secretKey: []byte(secret),
		ticketDur: time.Duration(expireMinutes) * time.Minute,
	}
}

// Issue 为指定学科签发一张带会话 ID 的流式票据。
func (m *TicketManager) Issue(subjectID string) (ticket string, sessionID string, err error) {
	sessionID = GenerateRandomString(16)
	claims := TicketClaims{
		SubjectID: subjectID,
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(m.ticketDur)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ticket, err = tok.SignedString(m.secretKey)
	return ticket, sessionID, err
}

// Verify 验证票据字符串，票据有效时返回其中的 claims。
func (m *TicketManager) Verify(ticket string) (*TicketClaims, error) {
	tok, err := jwt.ParseWithClaims(ticket, &TicketClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secretKey, nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := tok.Claims.(*TicketClaims); ok && tok.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid ticket")
}

// GenerateRandomString generates a random hex string of a given length.
func GenerateRandomString(length int) string {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to a less random string on error
		return fmt.Sprintf("fallback%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(bytes)
}
