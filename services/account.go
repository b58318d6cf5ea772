package services

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/cybercell/complaint-portal-api/databases"
	"github.com/cybercell/complaint-portal-api/models"
)

const passwordCost = 12

// UserStore is the persistence citizen accounts need
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	Insert(ctx context.Context, user *models.User) error
}

// Registration is a citizen sign-up request
type Registration struct {
	Name     string               `json:"name"`
	Email    string               `json:"email"`
	Phone    string               `json:"phone"`
	Password string               `json:"password"`
	State    string               `json:"state"`
	Location *models.CaseLocation `json:"location"`
}

// Session is a successful login
type Session struct {
	User      models.UserProfile `json:"user"`
	Token     string             `json:"token"`
	ExpiresAt time.Time          `json:"expiresAt"`
}

// AccountService registers and authenticates citizen accounts
type AccountService struct {
	store    UserStore
	sessions *SessionIssuer
	cost     int
	now      func() time.Time
}

// NewAccountService returns an AccountService backed by store
func NewAccountService(store UserStore, sessions *SessionIssuer) *AccountService {
	return &AccountService{store: store, sessions: sessions, cost: passwordCost, now: time.Now}
}

// Register creates an account. Emails are stored lower-cased and must be unused.
func (s *AccountService) Register(ctx context.Context, reg Registration) (*models.UserProfile, error) {
	email := normalizeEmail(reg.Email)
	if strings.TrimSpace(reg.Name) == "" || email == "" || strings.TrimSpace(reg.Phone) == "" || reg.Password == "" {
		return nil, &ValidationError{Message: "missing required fields"}
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, &ValidationError{Message: "invalid email address"}
	}

	_, err := s.store.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, ErrConflict
	case !databases.IsNotFound(err):
		return nil, storeError("find user", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), s.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, &ValidationError{Message: "password is too long"}
		}
		return nil, err
	}

	user := &models.User{
		Name:         strings.TrimSpace(reg.Name),
		Email:        email,
		Phone:        strings.TrimSpace(reg.Phone),
		Password:     string(hash),
		State:        reg.State,
		Location:     reg.Location,
		RegisteredAt: s.now().UTC(),
	}
	if err := s.store.Insert(ctx, user); err != nil {
		if databases.IsDuplicateKey(err) {
			return nil, ErrConflict
		}
		return nil, storeError("insert user", err)
	}

	zap.S().Infow("citizen account registered", "userId", user.ID.Hex())
	profile := user.Profile()
	return &profile, nil
}

// Login checks email and password and issues a session token. Unknown emails and
// wrong passwords fail the same way.
func (s *AccountService) Login(ctx context.Context, email, password string) (*Session, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, &ValidationError{Message: "email and password are required"}
	}

	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if databases.IsNotFound(err) {
			return nil, ErrUnauthorized
		}
		return nil, storeError("find user", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrUnauthorized
	}

	token, expires, err := s.sessions.Issue(*user)
	if err != nil {
		return nil, err
	}
	return &Session{User: user.Profile(), Token: token, ExpiresAt: expires}, nil
}

// Profile returns the public profile of the account with the given hex id
func (s *AccountService) Profile(ctx context.Context, userID string) (*models.UserProfile, error) {
	id, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, ErrNotFound
	}
	user, err := s.store.FindByID(ctx, id)
	if err != nil {
		if databases.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, storeError("find user", err)
	}
	profile := user.Profile()
	return &profile, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
