package services

import (
	"errors"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// ResumeClaims is the payload of a signed resume token. A resume link
// carries the token instead of raw client/user identifiers so an
// interrupted survey can be reopened from email or a bookmark.
type ResumeClaims struct {
	ClientID string     `json:"cid"`
	UserID   string     `json:"uid"`
	Survey   SurveyType `json:"svy"`
	jwt.RegisteredClaims
}

// SignResumeToken issues an HS256 token for resuming one survey session.
func SignResumeToken(secret []byte, clientID, userID string, st SurveyType, ttl time.Duration) (string, error) {
	if len(secret) == 0 {
		return "", NewInvalidError("resume secret required")
	}
	if strings.TrimSpace(clientID) == "" {
		return "", NewInvalidError("client id required")
	}
	if !ValidSurveyType(st) {
		return "", NewInvalidError("unknown survey type " + string(st))
	}
	now := time.Now()
	claims := ResumeClaims{
		ClientID: clientID,
		UserID:   userID,
		Survey:   st,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ParseResumeToken verifies a resume token and returns its claims.
func ParseResumeToken(secret []byte, tok string) (*ResumeClaims, error) {
	t, err := jwt.ParseWithClaims(tok, &ResumeClaims{}, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	if c, ok := t.Claims.(*ResumeClaims); ok && t.Valid {
		return c, nil
	}
	return nil, errors.New("invalid resume token")
}
