package auth

import (
	"errors"
	"time"

	"github.com/GlebRadaev/loyalty/internal/domain"
	"github.com/golang-jwt/jwt"
)

//go:generate mockgen -source=jwt.go -destination=mock_jwt.go -package=auth

type JWTServiceInterface interface {
	GenerateJWT(principal domain.Principal, expirationTime time.Time) (string, error)
	ValidateToken(tokenString string) (*Claims, error)
}

const issuer = "loyalty"

type Claims struct {
	UserID int    `json:"user_id"`
	Utorid string `json:"utorid"`
	Role   string `json:"role"`
	jwt.StandardClaims
}

func (c *Claims) Principal() (domain.Principal, error) {
	role, err := domain.ParseRole(c.Role)
	if err != nil {
		return domain.Principal{}, err
	}
	return domain.Principal{ID: c.UserID, Utorid: c.Utorid, Role: role}, nil
}

type JWTService struct {
	secretKey []byte
}

func NewJWTService(secret string) *JWTService {
	return &JWTService{secretKey: []byte(secret)}
}

func (s *JWTService) GenerateJWT(principal domain.Principal, expirationTime time.Time) (string, error) {
	claims := Claims{
		UserID: principal.ID,
		Utorid: principal.Utorid,
		Role:   principal.Role.String(),
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: expirationTime.Unix(),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secretKey)
}

func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secretKey, nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("invalid token")
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || claims.UserID == 0 || claims.Utorid == "" || claims.Issuer != issuer {
		return nil, errors.New("invalid token claims")
	}
	if _, err := domain.ParseRole(claims.Role); err != nil {
		return nil, errors.New("invalid token claims")
	}

	return claims, nil
}
