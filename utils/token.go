package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"spotly/internal/status"
)

// TicketClaims is the payload embedded in a ticket QR code. The token binds
// the ticket to its event and buyer so a valid signature alone is not enough
// to pass verification against a different record.
type TicketClaims struct {
	TicketID string `json:"ticket_id"`
	EventID  string `json:"event_id"`
	UserID   string `json:"user_id"`
	jwt.RegisteredClaims
}

// GenerateTicketToken signs a verification token for a minted ticket.
func GenerateTicketToken(secret, ticketID, eventID, userID string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("ticket token secret is not configured")
	}

	now := time.Now()
	claims := TicketClaims{
		TicketID: ticketID,
		EventID:  eventID,
		UserID:   userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign ticket token: %w", err)
	}

	return signed, nil
}

// VerifyTicketToken parses and validates a scanned ticket token.
func VerifyTicketToken(secret, tokenString string) (*TicketClaims, error) {
	claims := &TicketClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, status.ErrExpiredToken
		}
		return nil, status.ErrInvalidToken
	}

	if !token.Valid || claims.TicketID == "" {
		return nil, status.ErrInvalidToken
	}

	return claims, nil
}
