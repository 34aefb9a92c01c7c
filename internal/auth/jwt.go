package auth

import (
	"errors"
	"time"

	"github.com/SeakMengs/BasicPDF/internal/config"
	"github.com/SeakMengs/BasicPDF/internal/constant"
	"github.com/SeakMengs/BasicPDF/internal/util"
	"github.com/SeakMengs/BasicPDF/pkg/basicpdf"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

type JWT struct {
	logger    *zap.SugaredLogger
	jwtSecret string
	ttl       time.Duration
	now       func() time.Time
}

type JWTInterface interface {
	GenerateSessionToken(sessionID string, variant basicpdf.Variant) (*string, error)
	VerifyJwtToken(token string) (*JWTClaims, error)
}

func NewJwt(cfg config.AuthConfig, logger *zap.SugaredLogger) *JWT {
	// For unit test
	if logger == nil {
		logger = util.NewLogger("")
	}

	ttl := cfg.SessionTTL
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}

	return &JWT{
		jwtSecret: cfg.SESSION_SECRET,
		ttl:       ttl,
		logger:    logger,
		now:       time.Now,
	}
}

type JWTClaims struct {
	SessionID string           `json:"sub"`
	Type      string           `json:"type"`
	Variant   basicpdf.Variant `json:"variant"`
	IAT       int64            `json:"iat"`
	EXP       int64            `json:"exp"`
}

// GenerateSessionToken signs a token bound to one signing session.
func (j JWT) GenerateSessionToken(sessionID string, variant basicpdf.Variant) (*string, error) {
	j.logger.Debugf("Generate session token for session: %s", sessionID)

	now := j.now()
	claims := jwt.MapClaims{
		"sub":     sessionID,
		"type":    constant.JWT_TYPE_SESSION,
		"variant": string(variant),
		"iat":     now.Unix(),
		"exp":     now.Add(j.ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(j.jwtSecret))
	if err != nil {
		return nil, err
	}

	return &signed, nil
}

func (j JWT) VerifyJwtToken(token string) (*JWTClaims, error) {
	claims := jwt.MapClaims{}
	parsedToken, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(j.jwtSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(j.now))
	if err != nil {
		j.logger.Debugf("Failed to verify jwt token. Error: %v", err)
		return nil, err
	}

	if !parsedToken.Valid {
		j.logger.Debug("Jwt token is not valid")
		return nil, errors.New("jwt token is not valid")
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return nil, errors.New("invalid token: sub field is missing or malformed")
	}
	tokenType, _ := claims["type"].(string)
	variant, _ := claims["variant"].(string)
	iat, _ := claims["iat"].(float64)
	exp, _ := claims["exp"].(float64)

	return &JWTClaims{
		SessionID: sub,
		Type:      tokenType,
		Variant:   basicpdf.Variant(variant),
		IAT:       int64(iat),
		EXP:       int64(exp),
	}, nil
}
