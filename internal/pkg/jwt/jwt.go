package jwt

import (
	"time"

	"github.com/cmlabs-hris/leave-engine/internal/domain/user"
	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const TokenTypeAccess = "access"

// Claims is the identity carried by an access token.
type Claims struct {
	UserID         string
	OrganizationID string
	EmployeeID     *string
	Role           user.Role
}

type Service interface {
	GenerateAccessToken(claims Claims) (token string, expiresAt int64, err error)
	ParseClaims(token jwt.Token) (Claims, error)
	JWTAuth() *jwtauth.JWTAuth
}

type JWTService struct {
	accessTokenExpiration time.Duration
	tokenAuth             *jwtauth.JWTAuth
	now                   func() time.Time
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

// NewJWTService creates a service signing HS256 tokens with secretKey.
func NewJWTService(secretKey string, accessTokenExpirationTime string) (Service, error) {
	expiration, err := time.ParseDuration(accessTokenExpirationTime)
	if err != nil {
		return nil, err
	}
	return &JWTService{
		accessTokenExpiration: expiration,
		tokenAuth:             jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(30*time.Second)),
		now:                   time.Now,
	}, nil
}

func (j *JWTService) GenerateAccessToken(c Claims) (token string, expiresAt int64, err error) {
	expiresAt = j.now().Add(j.accessTokenExpiration).Unix()

	claims := map[string]interface{}{
		"user_id":         c.UserID,
		"organization_id": c.OrganizationID,
		"employee_id":     j.returnValueOrNil(c.EmployeeID),
		"role":            string(c.Role),
		"type":            TokenTypeAccess,
		"exp":             expiresAt,
	}

	_, tokenString, err := j.tokenAuth.Encode(claims)
	return tokenString, expiresAt, err
}

// ParseClaims extracts the identity of a verified access token.
func (j *JWTService) ParseClaims(token jwt.Token) (Claims, error) {
	tokenType, ok := token.Get("type")
	if !ok || tokenType != TokenTypeAccess {
		return Claims{}, jwt.ErrInvalidJWT()
	}

	userID, ok := stringClaim(token, "user_id")
	if !ok || userID == "" {
		return Claims{}, jwt.ErrInvalidJWT()
	}
	organizationID, ok := stringClaim(token, "organization_id")
	if !ok || organizationID == "" {
		return Claims{}, jwt.ErrInvalidJWT()
	}
	role, ok := stringClaim(token, "role")
	if !ok {
		return Claims{}, jwt.ErrInvalidJWT()
	}

	claims := Claims{
		UserID:         userID,
		OrganizationID: organizationID,
		Role:           user.Role(role),
	}
	if employeeID, ok := stringClaim(token, "employee_id"); ok && employeeID != "" {
		claims.EmployeeID = &employeeID
	}
	return claims, nil
}

func stringClaim(token jwt.Token, key string) (string, bool) {
	v, ok := token.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func (j *JWTService) returnValueOrNil(value *string) interface{} {
	if value == nil {
		return nil
	} else {
		return *value
	}
}
