package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/golang-jwt/jwt/v5"
	"github.com/smallbiznis/giftway/internal/auth/domain"
	"github.com/smallbiznis/giftway/internal/auth/password"
	"github.com/smallbiznis/giftway/internal/clock"
	companydomain "github.com/smallbiznis/giftway/internal/company/domain"
	"github.com/smallbiznis/giftway/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const keyPrefix = "gwk_"

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock

	secret []byte
	ttl    time.Duration
}

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	GenID  *snowflake.Node
	Clock  clock.Clock
	Config config.Config
}

func NewService(p Params) domain.Service {
	ttl := p.Config.JWTTTL
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Service{
		db:     p.DB,
		log:    p.Log.Named("auth.service"),
		genID:  p.GenID,
		clock:  p.Clock,
		secret: []byte(p.Config.JWTSecret),
		ttl:    ttl,
	}
}

func (s *Service) Login(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	var user domain.User
	err := s.db.WithContext(ctx).First(&user, "email = ?", email).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if !password.Verify(req.Password, user.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}
	if !user.Active {
		return nil, domain.ErrUserInactive
	}

	now := s.clock.Now()
	expires := now.Add(s.ttl)
	claims := jwt.MapClaims{
		"sub":  user.ID.String(),
		"role": user.Role,
		"iat":  now.Unix(),
		"exp":  expires.Unix(),
	}
	if user.CompanyID != nil {
		claims["company_id"] = user.CompanyID.String()
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, err
	}

	s.log.Info("staff login", zap.String("user_id", user.ID.String()))
	return &domain.LoginResponse{
		Token:     token,
		ExpiresAt: expires,
		User:      user,
	}, nil
}

func (s *Service) VerifyToken(raw string) (*domain.Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, domain.ErrInvalidToken
	}

	parsed, err := jwt.Parse(raw, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, domain.ErrInvalidToken
		}
		return s.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, domain.ErrInvalidToken
	}

	mapClaims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return nil, domain.ErrInvalidToken
	}

	claims := &domain.Claims{}
	if sub, ok := mapClaims["sub"].(string); ok {
		claims.UserID = sub
	}
	if role, ok := mapClaims["role"].(string); ok {
		claims.Role = role
	}
	if companyID, ok := mapClaims["company_id"].(string); ok {
		claims.CompanyID = companyID
	}
	if exp, err := mapClaims.GetExpirationTime(); err == nil && exp != nil {
		claims.ExpiresAt = exp.Time
	}
	if claims.UserID == "" {
		return nil, domain.ErrInvalidToken
	}
	return claims, nil
}

// CreateAPIKey mints a new key for a company. The plaintext is returned once
// and never stored.
func (s *Service) CreateAPIKey(ctx context.Context, req domain.CreateAPIKeyRequest) (*domain.CreateAPIKeyResponse, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, domain.ErrMissingName
	}
	companyID, err := companydomain.ParseID(strings.TrimSpace(req.CompanyID))
	if err != nil {
		return nil, domain.ErrCompanyNotFound
	}
	var count int64
	if err := s.db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM companies WHERE id = ? AND active = true`, companyID,
	).Scan(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, domain.ErrCompanyNotFound
	}

	raw := make([]byte, 24)
	if _, err := rand.Read(raw); err != nil {
		return nil, err
	}
	plaintext := keyPrefix + hex.EncodeToString(raw)

	now := s.clock.Now()
	record := domain.APIKey{
		ID:          s.genID.Generate(),
		CompanyID:   companyID,
		Name:        strings.TrimSpace(req.Name),
		KeyHash:     domain.HashAPIKey(plaintext),
		Permissions: strings.Join(req.Permissions, ","),
		IsActive:    true,
		CreatedAt:   now,
	}
	if req.TTL > 0 {
		expires := now.Add(req.TTL)
		record.ExpiresAt = &expires
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return nil, err
	}

	return &domain.CreateAPIKeyResponse{Key: plaintext, Record: record}, nil
}

func (s *Service) AuthenticateAPIKey(ctx context.Context, key string) (*domain.APIKey, error) {
	if strings.TrimSpace(key) == "" {
		return nil, domain.ErrAPIKeyNotFound
	}
	hash := domain.HashAPIKey(key)

	var record domain.APIKey
	err := s.db.WithContext(ctx).First(&record, "key_hash = ? AND is_active = true", hash).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAPIKeyNotFound
		}
		return nil, err
	}
	if record.ExpiresAt != nil && !record.ExpiresAt.After(s.clock.Now()) {
		return nil, domain.ErrAPIKeyExpired
	}
	return &record, nil
}
