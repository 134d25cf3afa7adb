package service

import (
	"context"
	"errors"
	"fmt"
	"smartqa_backend/internal/config"
	"smartqa_backend/internal/model"
	"smartqa_backend/internal/repository"
	"smartqa_backend/internal/util"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthService struct {
	UserRepo *repository.UserRepository
	Redis    *redis.Client
	Cfg      *config.Config
}

func NewAuthService(userRepo *repository.UserRepository, rdb *redis.Client, cfg *config.Config) *AuthService {
	return &AuthService{
		UserRepo: userRepo,
		Redis:    rdb,
		Cfg:      cfg,
	}
}

type RegisterInput struct {
	Username string `json:"username" binding:"required,min=3,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Role     string `json:"role"`
}

type LoginInput struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type TokenResponse struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	Role        string      `json:"role"`
	User        *model.User `json:"user"`
}

func revokedKey(jti string) string {
	return "jwt:revoked:" + jti
}

func (s *AuthService) issue(user *model.User) (*TokenResponse, error) {
	token, err := util.GenerateJWT(user, s.Cfg.JWT.Secret, s.Cfg.JWT.ExpireTime)
	if err != nil {
		return nil, err
	}
	return &TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		Role:        string(user.Role),
		User:        user,
	}, nil
}

func (s *AuthService) Register(in RegisterInput) (*TokenResponse, error) {
	role := model.UserRole(strings.ToLower(strings.TrimSpace(in.Role)))
	if role == "" {
		role = model.Student
	}
	if !role.Valid() {
		return nil, util.ErrInvalidRole
	}

	email := strings.ToLower(strings.TrimSpace(in.Email))
	username := strings.TrimSpace(in.Username)

	exists, err := s.UserRepo.ExistsByUsername(username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, util.ErrUsernameTaken
	}
	exists, err = s.UserRepo.ExistsByEmail(email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, util.ErrEmailRegistered
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hashedPassword),
		Role:         role,
		TestHistory:  []byte("[]"),
	}
	if err := s.create(user); err != nil {
		return nil, err
	}
	return s.issue(user)
}

// create 并发注册时唯一索引冲突同样映射为 409
func (s *AuthService) create(user *model.User) error {
	err := s.UserRepo.Create(user)
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("create user: %w", err)
	}
	if taken, lookupErr := s.UserRepo.ExistsByUsername(user.Username); lookupErr == nil && taken {
		return util.ErrUsernameTaken
	}
	return util.ErrEmailRegistered
}

// Login 邮箱不存在与密码错误返回同一个错误
func (s *AuthService) Login(in LoginInput) (*TokenResponse, error) {
	user, err := s.UserRepo.FindByEmail(strings.ToLower(strings.TrimSpace(in.Email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, util.ErrInvalidCredentials
	}
	return s.issue(user)
}

// Logout 将 token id 加入黑名单直到其过期
func (s *AuthService) Logout(ctx context.Context, claims *util.Claims) error {
	if claims == nil || claims.ID == "" {
		return nil
	}
	ttl := time.Minute
	if claims.ExpiresAt != nil {
		ttl = time.Until(claims.ExpiresAt.Time)
	}
	if ttl <= 0 {
		return nil
	}
	return s.Redis.Set(ctx, revokedKey(claims.ID), "1", ttl).Err()
}

func (s *AuthService) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}
	n, err := s.Redis.Exists(ctx, revokedKey(jti)).Result()
	return n > 0, err
}

// CurrentUser 令牌有效但用户已被删除时返回 ErrUserNotFound
func (s *AuthService) CurrentUser(claims *util.Claims) (*model.User, error) {
	if claims == nil {
		return nil, util.ErrUserNotFound
	}
	user, err := s.UserRepo.FindByID(claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}
