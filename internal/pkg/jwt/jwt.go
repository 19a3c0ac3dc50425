package jwt

import (
	"context"
	"errors"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/user"
	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

var ErrMissingClaim = errors.New("required claim is missing or invalid")

// Caller is the identity carried by an access token.
type Caller struct {
	UserID     string
	EmployeeID *string
	CompanyID  *string
	Role       user.Role
}

type Service interface {
	GenerateAccessToken(caller Caller) (token string, expiresAt int64, err error)
	JWTAuth() *jwtauth.JWTAuth
}

type JWTService struct {
	accessTokenExpirationTime string
	tokenAuth                 *jwtauth.JWTAuth
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

func NewJWTService(secretKey string, accessTokenExpirationTime string) Service {
	return &JWTService{
		accessTokenExpirationTime: accessTokenExpirationTime,
		tokenAuth:                 jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(30*time.Second)),
	}
}

func (j *JWTService) GenerateAccessToken(caller Caller) (token string, expiresAt int64, err error) {
	expDuration, err := time.ParseDuration(j.accessTokenExpirationTime)
	if err != nil {
		return "", 0, err
	}
	expiresAt = time.Now().Add(expDuration).Unix()

	claims := map[string]interface{}{
		"user_id":     caller.UserID,
		"employee_id": returnValueOrNil(caller.EmployeeID),
		"company_id":  returnValueOrNil(caller.CompanyID),
		"role":        string(caller.Role),
		"type":        "access",
		"exp":         expiresAt,
	}

	_, tokenString, err := j.tokenAuth.Encode(claims)
	return tokenString, expiresAt, err
}

func returnValueOrNil(value *string) interface{} {
	if value == nil {
		return nil
	}
	return *value
}

// CallerFromContext reads the verified token claims placed in ctx by jwtauth.Verifier.
func CallerFromContext(ctx context.Context) (Caller, error) {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return Caller{}, err
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return Caller{}, ErrMissingClaim
	}

	caller := Caller{UserID: userID}
	if employeeID, ok := claims["employee_id"].(string); ok && employeeID != "" {
		caller.EmployeeID = &employeeID
	}
	if companyID, ok := claims["company_id"].(string); ok && companyID != "" {
		caller.CompanyID = &companyID
	}
	if role, ok := claims["role"].(string); ok {
		caller.Role = user.Role(role)
	}

	return caller, nil
}
