package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/woramet12/fitnu/internal/model"
	"github.com/woramet12/fitnu/internal/repository"
)

// allowedEmailDomains restricts registration to university addresses.
var allowedEmailDomains = []string{"@nu.ac.th", "@students.nu.ac.th", "@student.nu.ac.th"}

var studentIDPattern = regexp.MustCompile(`^\d{8,12}$`)

const minPasswordLen = 6

// defaultYear is the profile default for new registrations.
const defaultYear = "ปี 1"

// AuthService owns identity: registration, sign-in, session tokens, email
// verification, and password resets.
type AuthService struct {
	users  UserStore
	mail   Sender
	secret []byte
	ttl    time.Duration
	clock  func() time.Time
	idGen  func() string
}

// NewAuthService constructs an AuthService.
func NewAuthService(users UserStore, mail Sender, secret string, ttl time.Duration) *AuthService {
	return &AuthService{
		users:  users,
		mail:   mail,
		secret: []byte(secret),
		ttl:    ttl,
		clock:  nowUTC,
		idGen:  uuid.NewString,
	}
}

// Register creates a new account and sends the verification email. Email
// delivery is best-effort; the account exists either way and verification
// can be re-requested by signing in.
func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) (*model.UserProfile, error) {
	studentID := strings.TrimSpace(req.StudentID)
	name := strings.TrimSpace(req.Name)
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if !studentIDPattern.MatchString(studentID) {
		return nil, ErrInvalidStudentID
	}
	if name == "" {
		return nil, fmt.Errorf("name is required")
	}
	if !isAllowedEmailDomain(email) {
		return nil, ErrInvalidEmail
	}
	if len(req.Password) < minPasswordLen {
		return nil, ErrWeakPassword
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailInUse
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.UserProfile{
		ID:           s.idGen(),
		StudentID:    studentID,
		Name:         name,
		Year:         defaultYear,
		Email:        email,
		PasswordHash: string(hash),
		VerifyToken:  s.idGen(),
		CreatedAt:    s.clock().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	if err := s.mail.SendVerification(user.Email, user.VerifyToken); err != nil {
		log.Printf("send verification email to %s failed: %v", user.Email, err)
	}
	return user, nil
}

// Login checks credentials and returns the profile plus a signed session
// token. Unverified accounts without the skip override are rejected with
// ErrEmailNotVerified.
func (s *AuthService) Login(ctx context.Context, email, password string) (*model.UserProfile, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", ErrInvalidCredential
		}
		return nil, "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredential
	}
	if !user.EmailVerified && !user.SkipVerify {
		return user, "", ErrEmailNotVerified
	}

	token, err := s.signToken(user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// ParseToken validates a session token and returns the subject uid.
func (s *AuthService) ParseToken(tokenStr string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

// VerifyEmail consumes a verification token and marks the account verified.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	user, err := s.users.GetByVerifyToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidToken
		}
		return err
	}
	user.EmailVerified = true
	user.VerifyToken = ""
	return s.users.Update(ctx, user)
}

// RequestReset issues a password-reset token for the account, if one
// exists. Unknown emails are silently accepted so the endpoint does not
// reveal which addresses are registered.
func (s *AuthService) RequestReset(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return err
	}

	user.ResetToken = s.idGen()
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}
	if err := s.mail.SendPasswordReset(user.Email, user.ResetToken); err != nil {
		log.Printf("send password reset email to %s failed: %v", user.Email, err)
	}
	return nil
}

// ResetPassword consumes a reset token and replaces the password.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < minPasswordLen {
		return ErrWeakPassword
	}

	user, err := s.users.GetByResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidToken
		}
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = string(hash)
	user.ResetToken = ""
	return s.users.Update(ctx, user)
}

func (s *AuthService) signToken(uid string) (string, error) {
	now := s.clock()
	claims := jwt.RegisteredClaims{
		Subject:   uid,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

func isAllowedEmailDomain(email string) bool {
	for _, d := range allowedEmailDomains {
		if strings.HasSuffix(email, d) {
			return true
		}
	}
	return false
}

// LogSender is the default Sender; it writes the would-be emails to the
// server log. Swap in a real mailer without touching AuthService.
type LogSender struct{}

// SendVerification logs the verification link payload.
func (LogSender) SendVerification(email, token string) error {
	log.Printf("verification email for %s: token=%s", email, token)
	return nil
}

// SendPasswordReset logs the password reset payload.
func (LogSender) SendPasswordReset(email, token string) error {
	log.Printf("password reset email for %s: token=%s", email, token)
	return nil
}
