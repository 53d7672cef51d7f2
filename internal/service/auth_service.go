package service

import (
	"context"
	"errors"
	"time"

	"inventory-api/internal/logger"
	"inventory-api/internal/model"
	"inventory-api/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrWeakCredentials    = errors.New("username must be at least 3 and password at least 6 characters")
)

type AuthService struct {
	users  repository.UserRepository
	secret []byte
	ttl    time.Duration
}

var AuthServiceTracer = otel.Tracer("AuthService")

func NewAuthService(users repository.UserRepository, secret string, ttl time.Duration) *AuthService {
	return &AuthService{
		users:  users,
		secret: []byte(secret),
		ttl:    ttl,
	}
}

func (s *AuthService) Register(ctx context.Context, username, password string) (*model.User, string, error) {
	ctx, span := AuthServiceTracer.Start(ctx, "AuthService.Register")
	defer span.End()
	logger.Info(ctx, "Service")

	if len(username) < 3 || len(password) < 6 {
		return nil, "", ErrWeakCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}

	user := &model.User{
		Username:     username,
		PasswordHash: string(hash),
	}
	if err := s.users.Insert(ctx, user); err != nil {
		return nil, "", err
	}

	token, err := s.generateToken(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *AuthService) Login(ctx context.Context, username, password string) (*model.User, string, error) {
	ctx, span := AuthServiceTracer.Start(ctx, "AuthService.Login")
	defer span.End()
	logger.Info(ctx, "Service")

	user, err := s.users.FindByUsername(ctx, username)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, "", ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.generateToken(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *AuthService) generateToken(user *model.User) (string, error) {
	claims := jwt.MapClaims{
		"sub":      user.ID.Hex(),
		"username": user.Username,
		"exp":      time.Now().Add(s.ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// VerifyToken validates a bearer token and returns the user reference
// carried in its claims.
func (s *AuthService) VerifyToken(tokenStr string) (*model.UserRef, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	sub, _ := claims["sub"].(string)
	id, err := primitive.ObjectIDFromHex(sub)
	if err != nil {
		return nil, ErrInvalidToken
	}
	username, _ := claims["username"].(string)

	return &model.UserRef{ID: id, Username: username}, nil
}
