package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson"
	"golang.org/x/crypto/bcrypt"

	"github.com/tutorhub/tutorhub-api/internal/config"
	"github.com/tutorhub/tutorhub-api/internal/db"
	"github.com/tutorhub/tutorhub-api/internal/logger"
	"github.com/tutorhub/tutorhub-api/internal/models"
)

// ErrInvalidCredentials does not say whether the email or the password was wrong.
var ErrInvalidCredentials = errors.New("invalid credentials")

const (
	TokenEnv = "ok_env"
	TokenDB  = "ok_db"
)

type AuthService struct {
	store  db.Store
	admins []config.AdminCredential
	secret []byte
	ttl    time.Duration
	log    *logger.Logger
}

type LoginResult struct {
	User        bson.M
	Token       string
	AccessToken string
}

func NewAuthService(store db.Store, admins []config.AdminCredential, secret string, ttl time.Duration, log *logger.Logger) *AuthService {
	if ttl <= 0 {
		ttl = 4 * time.Hour
	}
	return &AuthService{store: store, admins: admins, secret: []byte(secret), ttl: ttl, log: log}
}

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(hash), err
}

// VerifyPassword compares a plain password with a hashed password
func VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// GenerateJWT signs an HS256 token carrying the user id, email and role.
func (s *AuthService) GenerateJWT(userID, email, role string) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"email":   email,
		"role":    role,
		"exp":     time.Now().Add(s.ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// AdminLogin checks the environment allowlist first and the admin_users
// collection second.
func (s *AuthService) AdminLogin(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.TrimSpace(email)
	lower := strings.ToLower(email)
	if lower == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	if s.allowlisted(lower, password) {
		user, err := s.bootstrapAdmin(ctx, lower)
		if err != nil {
			return nil, err
		}
		s.log.Info("admin login", "email", lower, "source", "env")
		return s.result(user, lower, TokenEnv)
	}

	var admin models.AdminUser
	err := s.store.FindOne(ctx, db.AdminUsers, bson.M{"email": bson.M{"$in": []string{lower, email}}}, &admin)
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("lookup admin user: %w", err)
	}
	if !VerifyPassword(password, admin.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	var user bson.M
	err = s.store.FindOne(ctx, db.Profiles, bson.M{"email": strings.ToLower(admin.Email)}, &user)
	switch {
	case errors.Is(err, db.ErrNotFound):
		user = bson.M{"_id": admin.ID, "email": strings.ToLower(admin.Email), "role": models.RoleAdmin}
	case err != nil:
		return nil, fmt.Errorf("lookup admin profile: %w", err)
	}
	s.log.Info("admin login", "email", lower, "source", "db")
	return s.result(user, lower, TokenDB)
}

func (s *AuthService) allowlisted(email, password string) bool {
	for _, a := range s.admins {
		if a.Email == email && subtle.ConstantTimeCompare([]byte(a.Password), []byte(password)) == 1 {
			return true
		}
	}
	return false
}

// bootstrapAdmin upserts the admin profile and reads it back.
func (s *AuthService) bootstrapAdmin(ctx context.Context, email string) (bson.M, error) {
	now := time.Now().UTC()
	err := s.store.Upsert(ctx, db.Profiles,
		bson.M{"email": email},
		bson.M{"role": models.RoleAdmin, "isActive": true, "updatedAt": now},
		bson.M{"name": strings.SplitN(email, "@", 2)[0], "createdAt": now},
	)
	if err != nil {
		return nil, fmt.Errorf("bootstrap admin profile: %w", err)
	}
	var user bson.M
	if err := s.store.FindOne(ctx, db.Profiles, bson.M{"email": email}, &user); err != nil {
		return nil, fmt.Errorf("refetch admin profile: %w", err)
	}
	return user, nil
}

func (s *AuthService) result(user bson.M, email, source string) (*LoginResult, error) {
	access, err := s.GenerateJWT(idString(user["_id"]), email, models.RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	return &LoginResult{User: user, Token: source, AccessToken: access}, nil
}
