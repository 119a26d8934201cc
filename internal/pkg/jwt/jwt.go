package jwt

import (
	"sync"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/redaxis-hris/hrms-backend-go/internal/domain/user"
)

const (
	ClaimEmployeeID      = "employee_id"
	ClaimEmail           = "email"
	ClaimManagementLevel = "management_level"
	ClaimType            = "type"

	TokenTypeAccess = "access"
)

type Service interface {
	GenerateAccessToken(employeeID string, email string, level user.Level) (token string, expiresAt int64, err error)
	JWTAuth() *jwtauth.JWTAuth
	RevokeToken(token string, expiresAt int64)
	IsTokenRevoked(token string) bool
}

type JWTService struct {
	accessTokenExpirationTime string
	tokenAuth                 *jwtauth.JWTAuth
	revokedTokens             map[string]int64
	mu                        sync.RWMutex
	now                       func() time.Time
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

func NewJWTService(secretKey string, accessTokenExpirationTime string) *JWTService {
	return &JWTService{
		accessTokenExpirationTime: accessTokenExpirationTime,
		tokenAuth:                 jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(30*time.Second)),
		revokedTokens:             make(map[string]int64),
		now:                       time.Now,
	}
}

func (j *JWTService) GenerateAccessToken(employeeID string, email string, level user.Level) (token string, expiresAt int64, err error) {
	expDuration, err := time.ParseDuration(j.accessTokenExpirationTime)
	if err != nil {
		return "", 0, err
	}
	issuedAt := j.now()
	expiresAt = issuedAt.Add(expDuration).Unix()

	claims := map[string]any{
		ClaimEmployeeID:      employeeID,
		ClaimEmail:           email,
		ClaimManagementLevel: int(level),
		ClaimType:            TokenTypeAccess,
		"iat":                issuedAt.Unix(),
		"exp":                expiresAt,
	}

	_, tokenString, err := j.tokenAuth.Encode(claims)
	return tokenString, expiresAt, err
}

// RevokeToken blocks token until it would have expired anyway.
func (j *JWTService) RevokeToken(token string, expiresAt int64) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.revokedTokens[token] = expiresAt
	j.pruneLocked()
}

func (j *JWTService) IsTokenRevoked(token string) bool {
	j.mu.RLock()
	defer j.mu.RUnlock()
	_, revoked := j.revokedTokens[token]
	return revoked
}

func (j *JWTService) pruneLocked() {
	now := j.now().Unix()
	for token, exp := range j.revokedTokens {
		if exp < now {
			delete(j.revokedTokens, token)
		}
	}
}
