package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/oauth2"

	"github.com/siderealab/siderea/internal/httpclient"
	"github.com/siderealab/siderea/internal/interfaces"
	"github.com/siderealab/siderea/internal/models"
)

// Service manages the single active login against the Accounts API and
// implements interfaces.SessionProvider for the backend clients.
type Service struct {
	client  *httpclient.Client
	storage interfaces.SessionStorage
	logger  arbor.ILogger

	mu      sync.RWMutex
	session *models.Session
}

// NewService creates an auth service. Any session persisted from a previous
// run is loaded so a restart does not force a new login.
func NewService(client *httpclient.Client, storage interfaces.SessionStorage, logger arbor.ILogger) (*Service, error) {
	service := &Service{
		client:  client,
		storage: storage,
		logger:  logger,
	}

	if err := service.loadStoredSession(); err != nil {
		logger.Debug().Str("error", err.Error()).Msg("No stored session found")
	}

	return service, nil
}

func (s *Service) loadStoredSession() error {
	session, err := s.storage.GetSession(context.Background())
	if err != nil {
		return err
	}
	if session == nil {
		return fmt.Errorf("no stored session")
	}
	if session.Expired(time.Now()) {
		s.logger.Debug().Str("email", session.Email).Msg("Stored session expired, discarding")
		return s.storage.DeleteSession(context.Background())
	}

	s.mu.Lock()
	s.session = session
	s.mu.Unlock()

	s.logger.Info().Str("email", session.Email).Msg("Session restored")
	return nil
}

// credentials is the login/register request payload.
type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// tokenResponse is the Accounts API response to login/register/refresh.
type tokenResponse struct {
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
	ExpiresIn    int            `json:"expires_in"`
	Account      models.Account `json:"account"`
}

// Register creates an account and starts a session. The account begins
// unverified; interpretation access stays locked until the verification email
// is confirmed.
func (s *Service) Register(ctx context.Context, email, password string) (*models.Account, error) {
	var resp tokenResponse
	if err := s.client.Post(ctx, "/auth/register", &credentials{Email: email, Password: password}, &resp); err != nil {
		return nil, fmt.Errorf("registration failed: %w", err)
	}

	if err := s.adoptSession(ctx, &resp); err != nil {
		return nil, err
	}

	s.logger.Info().Str("email", email).Msg("Account registered")
	return &resp.Account, nil
}

// Login authenticates and starts a session.
func (s *Service) Login(ctx context.Context, email, password string) (*models.Account, error) {
	var resp tokenResponse
	if err := s.client.Post(ctx, "/auth/login", &credentials{Email: email, Password: password}, &resp); err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}

	if err := s.adoptSession(ctx, &resp); err != nil {
		return nil, err
	}

	s.logger.Info().Str("email", email).Msg("Logged in")
	return &resp.Account, nil
}

// Logout ends the session locally and best-effort revokes it server-side.
func (s *Service) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.session = nil
	s.mu.Unlock()

	if err := s.client.Post(ctx, "/auth/logout", nil, nil); err != nil {
		s.logger.Warn().Err(err).Msg("Server-side logout failed")
	}

	if err := s.storage.DeleteSession(ctx); err != nil {
		return fmt.Errorf("failed to clear stored session: %w", err)
	}

	s.logger.Info().Msg("Logged out")
	return nil
}

// Account fetches the current account profile. The verification flag on the
// session is refreshed from the response, so a verification completed in the
// email client is picked up here.
func (s *Service) Account(ctx context.Context) (*models.Account, error) {
	var account models.Account
	if err := s.client.Get(ctx, "/auth/me", nil, &account); err != nil {
		return nil, fmt.Errorf("failed to fetch account: %w", err)
	}

	s.mu.Lock()
	if s.session != nil && s.session.EmailVerified != account.EmailVerified {
		s.session.EmailVerified = account.EmailVerified
		s.session.UpdatedAt = time.Now().Unix()
		if err := s.storage.StoreSession(ctx, s.session); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to persist verification update")
		}
	}
	s.mu.Unlock()

	return &account, nil
}

// ResendVerification asks the Accounts API to resend the verification email.
func (s *Service) ResendVerification(ctx context.Context) error {
	if err := s.client.Post(ctx, "/auth/resend-verification", nil, nil); err != nil {
		return fmt.Errorf("failed to resend verification email: %w", err)
	}
	return nil
}

func (s *Service) adoptSession(ctx context.Context, resp *tokenResponse) error {
	now := time.Now()
	session := &models.Session{
		ID:            models.SessionKey,
		AccessToken:   resp.AccessToken,
		RefreshToken:  resp.RefreshToken,
		Expiry:        now.Add(time.Duration(resp.ExpiresIn) * time.Second),
		Email:         resp.Account.Email,
		EmailVerified: resp.Account.EmailVerified,
		CreatedAt:     now.Unix(),
		UpdatedAt:     now.Unix(),
	}

	if err := s.storage.StoreSession(ctx, session); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}

	s.mu.Lock()
	s.session = session
	s.mu.Unlock()

	return nil
}

// Token implements interfaces.SessionProvider.
func (s *Service) Token(ctx context.Context) (*oauth2.Token, error) {
	s.mu.RLock()
	session := s.session
	s.mu.RUnlock()

	if session == nil {
		return nil, fmt.Errorf("not authenticated")
	}
	if session.Expired(time.Now()) {
		return nil, fmt.Errorf("session expired")
	}

	return &oauth2.Token{
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
		Expiry:       session.Expiry,
		TokenType:    "Bearer",
	}, nil
}

// IsAuthenticated implements interfaces.SessionProvider.
func (s *Service) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session != nil && !s.session.Expired(time.Now())
}

// EmailVerified implements interfaces.SessionProvider.
func (s *Service) EmailVerified() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session != nil && s.session.EmailVerified
}
