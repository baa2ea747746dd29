package service

import (
	"context"
	"errors"
	"time"

	"spotbnb/internal/auth"
	"spotbnb/internal/database"
	"spotbnb/internal/domain"
	"spotbnb/internal/events"
	"spotbnb/internal/metrics"
	"spotbnb/internal/models"
	"spotbnb/internal/validation"

	"github.com/rs/zerolog"
)

const loginKeyPrefix = "login:"

// LoginLimit bounds failed login attempts per client within Window.
type LoginLimit struct {
	Attempts int
	Window   time.Duration
}

// Session is a signed-in user with the token that proves it.
type Session struct {
	User      *models.User
	Token     string
	ExpiresAt time.Time
}

type AuthService struct {
	repo       domain.Repository
	sessions   domain.SessionStore
	tokens     *auth.TokenManager
	validator  *validation.Validator
	eventBus   domain.EventPublisher
	bcryptCost int
	limit      LoginLimit
	logger     *zerolog.Logger
}

func NewAuthService(
	repo domain.Repository,
	sessions domain.SessionStore,
	tokens *auth.TokenManager,
	v *validation.Validator,
	eventBus domain.EventPublisher,
	bcryptCost int,
	limit LoginLimit,
	logger *zerolog.Logger,
) *AuthService {
	return &AuthService{
		repo:       repo,
		sessions:   sessions,
		tokens:     tokens,
		validator:  v,
		eventBus:   eventBus,
		bcryptCost: bcryptCost,
		limit:      limit,
		logger:     logger,
	}
}

// Signup creates the user and signs them in.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*Session, error) {
	in.normalize()
	if errs := s.validator.Struct(&in); errs != nil {
		return nil, validationError(errs)
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		FirstName:      in.FirstName,
		LastName:       in.LastName,
		Email:          in.Email,
		Username:       in.Username,
		HashedPassword: hash,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, database.ErrUniqueViolation) {
			return nil, &Error{
				Kind:    ErrDuplicateUser,
				Message: MsgDuplicateUser,
				Fields:  map[string]string{"email": "User with that email or username already exists"},
			}
		}
		return nil, err
	}

	publishEvent(s.eventBus, s.logger, events.EventUserSignedUp, events.UserEventPayload{UserID: user.ID, Username: user.Username})
	return s.issue(user)
}

// Login checks the credential (email or username) and password. clientKey
// identifies the caller for throttling, usually the remote IP.
func (s *AuthService) Login(ctx context.Context, clientKey string, in LoginInput) (*Session, error) {
	trimAll(&in.Credential)
	if errs := s.validator.Struct(&in); errs != nil {
		return nil, validationError(errs)
	}

	key := loginKeyPrefix + clientKey
	if s.limit.Attempts > 0 {
		allowed, err := s.sessions.CheckRateLimit(ctx, key, s.limit.Attempts, s.limit.Window)
		if err != nil {
			s.logger.Warn().Err(err).Msg("Login rate limit check failed, allowing attempt")
		} else if !allowed {
			return nil, newError(ErrTooManyRequests, MsgTooManyRequests)
		}
	}

	user, err := s.repo.GetUserByCredential(ctx, in.Credential)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, s.loginFailed()
		}
		return nil, err
	}

	ok, err := auth.CheckPassword(user.HashedPassword, in.Password)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, s.loginFailed()
	}

	if err := s.sessions.ResetRateLimit(ctx, key); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to reset login rate limit")
	}
	return s.issue(user)
}

// Logout revokes the token for the rest of its lifetime.
func (s *AuthService) Logout(ctx context.Context, claims *auth.Claims) error {
	if claims == nil {
		return nil
	}
	ttl := claims.Remaining(time.Now())
	if ttl <= 0 {
		return nil
	}
	return s.sessions.RevokeToken(ctx, claims.ID, ttl)
}

// Authenticate resolves a raw token to its user. Revoked tokens, tokens of
// deleted users and store failures are all unauthenticated.
func (s *AuthService) Authenticate(ctx context.Context, raw string) (*models.User, *auth.Claims, error) {
	claims, err := s.tokens.Parse(raw)
	if err != nil {
		return nil, nil, newError(ErrUnauthenticated, MsgUnauthenticated)
	}

	revoked, err := s.sessions.IsRevoked(ctx, claims.ID)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to check token revocation")
		return nil, nil, newError(ErrUnauthenticated, MsgUnauthenticated)
	}
	if revoked {
		return nil, nil, newError(ErrUnauthenticated, MsgUnauthenticated)
	}

	userID, err := claims.UserID()
	if err != nil {
		return nil, nil, newError(ErrUnauthenticated, MsgUnauthenticated)
	}
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil, newError(ErrUnauthenticated, MsgUnauthenticated)
		}
		return nil, nil, err
	}
	return user, claims, nil
}

func (s *AuthService) issue(user *models.User) (*Session, error) {
	token, claims, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, err
	}
	return &Session{User: user, Token: token, ExpiresAt: claims.ExpiresAt.Time}, nil
}

func (s *AuthService) loginFailed() error {
	metrics.IncLoginFailure()
	return &Error{
		Kind:    ErrInvalidCredentials,
		Message: MsgInvalidCredentials,
		Fields:  map[string]string{"credential": "The provided credentials were invalid."},
	}
}
