package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"ridedesk/internal/domain"
	"ridedesk/internal/repositories"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var errBadCredentials = domain.UnauthorizedError{Msg: "invalid email or password"}

// Claims is the JWT payload carried in the session token cookie.
type Claims struct {
	UserID int64  `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

type AuthService struct {
	Users  repositories.UserRepository
	Secret []byte
	TTL    time.Duration
	Now    func() time.Time
}

type LoginResult struct {
	Token     string                `json:"token"`
	ExpiresAt time.Time             `json:"expiresAt"`
	User      domain.RequestContext `json:"user"`
}

func (s AuthService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s AuthService) Login(ctx context.Context, email, password string) (LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		errs := domain.FieldErrors{}
		if email == "" {
			errs.Add("email", "email is required")
		}
		if password == "" {
			errs.Add("password", "password is required")
		}
		return LoginResult{}, errs
	}

	u, err := s.Users.GetByEmail(ctx, email)
	if domain.IsNotFound(err) {
		return LoginResult{}, errBadCredentials
	}
	if err != nil {
		return LoginResult{}, err
	}
	if !strings.EqualFold(strings.TrimSpace(u.Status), "active") {
		return LoginResult{}, domain.UnauthorizedError{Msg: "account is not active"}
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return LoginResult{}, errBadCredentials
	}

	user := domain.RequestContext{UserID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
	token, expires, err := s.IssueToken(user)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{Token: token, ExpiresAt: expires, User: user}, nil
}

func (s AuthService) IssueToken(user domain.RequestContext) (string, time.Time, error) {
	ttl := s.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	now := s.now()
	expires := now.Add(ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: user.UserID,
		Name:   user.Name,
		Email:  user.Email,
		Role:   string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	})
	signed, err := token.SignedString(s.Secret)
	if err != nil {
		return "", time.Time{}, domain.InternalError{Msg: "could not sign token", Err: err}
	}
	return signed, expires, nil
}

// ParseToken validates an HS256 token and returns the user it carries.
func (s AuthService) ParseToken(raw string) (domain.RequestContext, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(strings.TrimSpace(raw), &claims, func(t *jwt.Token) (any, error) {
		return s.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		msg := "invalid session token"
		if errors.Is(err, jwt.ErrTokenExpired) {
			msg = "session expired"
		}
		return domain.RequestContext{}, domain.UnauthorizedError{Msg: msg}
	}
	return domain.RequestContext{
		UserID: claims.UserID,
		Name:   claims.Name,
		Email:  claims.Email,
		Role:   domain.NormalizeRole(claims.Role),
	}, nil
}

// HashPassword is used when seeding staff accounts.
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(b), err
}
