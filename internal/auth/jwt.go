package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

const (
	tokenAccess  = "access"
	tokenRefresh = "refresh"
)

// Claims carried by an access token.
type Claims struct {
	UserID   string `json:"user_id"`
	ClientID string `json:"client_id"`
	Role     string `json:"role"`
	// Debug marks tokens issued by the debug admin gate.
	Debug bool   `json:"debug,omitempty"`
	Type  string `json:"typ"`
	jwt.RegisteredClaims
}

// JWTService signs and checks the HS256 tokens used for sessions.
type JWTService struct {
	secretKey     []byte
	accessExpiry  time.Duration
	refreshExpiry time.Duration
	now           func() time.Time
}

func NewJWTService(secretKey string, accessExpiry, refreshExpiry time.Duration) *JWTService {
	return &JWTService{
		secretKey:     []byte(secretKey),
		accessExpiry:  accessExpiry,
		refreshExpiry: refreshExpiry,
		now:           time.Now,
	}
}

func (s *JWTService) GenerateAccessToken(userID, clientID, role string) (string, time.Time, error) {
	return s.sign(Claims{UserID: userID, ClientID: clientID, Role: role, Type: tokenAccess}, s.accessExpiry)
}

// GenerateDebugToken issues a short-lived admin token for the debug gate.
func (s *JWTService) GenerateDebugToken(ttl time.Duration) (string, time.Time, error) {
	return s.sign(Claims{UserID: "debug-admin", ClientID: "debug", Role: RoleAdmin, Debug: true, Type: tokenAccess}, ttl)
}

// GenerateRefreshToken issues a refresh token for userID. Each token has its
// own id so a rotated token never equals the one it replaces.
func (s *JWTService) GenerateRefreshToken(userID string) (string, time.Time, error) {
	return s.sign(Claims{UserID: userID, Type: tokenRefresh}, s.refreshExpiry)
}

func (s *JWTService) sign(claims Claims, ttl time.Duration) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(ttl)
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ID:        uuid.New().String(),
		Subject:   claims.UserID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secretKey)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ValidateAccessToken returns the claims of a valid access token. Refresh
// tokens are rejected.
func (s *JWTService) ValidateAccessToken(tokenString string) (*Claims, error) {
	claims, err := s.parse(tokenString, tokenAccess)
	if err != nil {
		return nil, err
	}
	if claims.Role == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ValidateRefreshToken returns the user id of a valid refresh token.
func (s *JWTService) ValidateRefreshToken(tokenString string) (string, error) {
	claims, err := s.parse(tokenString, tokenRefresh)
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}

func (s *JWTService) parse(tokenString, typ string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, s.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Type != typ || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *JWTService) keyFunc(*jwt.Token) (any, error) {
	return s.secretKey, nil
}

func (s *JWTService) AccessExpiry() time.Duration  { return s.accessExpiry }
func (s *JWTService) RefreshExpiry() time.Duration { return s.refreshExpiry }
