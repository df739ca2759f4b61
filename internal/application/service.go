package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bnema/bilibackup/internal/domain"
	"github.com/bnema/bilibackup/internal/ports"
)

// Service manages the login session: it verifies cookies against the
// navigation endpoint, installs the session and keeps the local profile and
// secret in step.
type Service struct {
	sessions  ports.SessionProvider
	navigator ports.Navigator
	repo      ports.AccountRepository
	store     ports.SecretStore
	clock     ports.Clock
	logger    *slog.Logger
}

func NewService(
	sessions ports.SessionProvider,
	navigator ports.Navigator,
	repo ports.AccountRepository,
	store ports.SecretStore,
	clock ports.Clock,
	logger *slog.Logger,
) *Service {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Service{
		sessions:  sessions,
		navigator: navigator,
		repo:      repo,
		store:     store,
		clock:     clock,
		logger:    logger,
	}
}

func (s *Service) Login(ctx context.Context, cookie string) (domain.Account, error) {
	cred, err := domain.CredentialFromCookie(cookie)
	if err != nil {
		return domain.Account{}, err
	}

	session, err := s.verify(ctx, cred)
	if err != nil {
		return domain.Account{}, err
	}

	account := domain.Account{
		ID:        cred.AccountID,
		Name:      session.Name,
		SecretRef: domain.SecretRefFor(cred.AccountID),
		LastLogin: s.clock.Now().UTC(),
	}

	if err := s.store.Put(ctx, account.SecretRef, cred.Cookie); err != nil {
		return domain.Account{}, fmt.Errorf("store session cookie: %w", err)
	}
	if err := s.repo.Save(ctx, account); err != nil {
		if rollbackErr := s.store.Delete(ctx, account.SecretRef); rollbackErr != nil {
			return domain.Account{}, fmt.Errorf("save account and rollback stored cookie: %w", errors.Join(err, rollbackErr))
		}
		return domain.Account{}, fmt.Errorf("save account: %w", err)
	}
	if err := s.repo.SetActive(ctx, account.ID); err != nil {
		return domain.Account{}, fmt.Errorf("activate account: %w", err)
	}

	s.sessions.Replace(session)
	s.logger.Info("logged in", "account", string(account.ID), "name", account.Name)
	return account, nil
}

// Resume reinstalls the active profile's session from the stored cookie.
func (s *Service) Resume(ctx context.Context) (domain.Account, error) {
	account, err := s.repo.Active(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return domain.Account{}, domain.ErrNotLoggedIn
		}
		return domain.Account{}, fmt.Errorf("get active account: %w", err)
	}

	cookie, err := s.store.Get(ctx, account.SecretRef)
	if err != nil {
		if errors.Is(err, domain.ErrSecretNotFound) {
			return domain.Account{}, fmt.Errorf("%w: no stored cookie for %s", domain.ErrNotLoggedIn, account.ID)
		}
		return domain.Account{}, fmt.Errorf("load session cookie: %w", err)
	}

	cred, err := domain.CredentialFromCookie(cookie)
	if err != nil {
		return domain.Account{}, err
	}
	session, err := s.verify(ctx, cred)
	if err != nil {
		return domain.Account{}, err
	}

	if session.Name != "" && session.Name != account.Name {
		account.Name = session.Name
		if err := s.repo.Save(ctx, account); err != nil {
			return domain.Account{}, fmt.Errorf("save account: %w", err)
		}
	}

	s.sessions.Replace(session)
	s.logger.Debug("session resumed", "account", string(account.ID))
	return account, nil
}

// Refresh fetches fresh signing keys for the current credential.
func (s *Service) Refresh(ctx context.Context) error {
	current := s.sessions.Current()
	if current == nil {
		return domain.ErrNotLoggedIn
	}

	session, err := s.verify(ctx, current.Credential)
	if err != nil {
		return err
	}
	s.sessions.Replace(session)
	return nil
}

// Logout drops the session immediately. Runs already in flight keep the
// session they pinned at start.
func (s *Service) Logout(ctx context.Context) error {
	s.sessions.Replace(nil)

	account, err := s.repo.Active(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil
		}
		return fmt.Errorf("get active account: %w", err)
	}

	var errs error
	if err := s.store.Delete(ctx, account.SecretRef); err != nil && !errors.Is(err, domain.ErrSecretNotFound) {
		errs = errors.Join(errs, fmt.Errorf("delete session cookie: %w", err))
	}
	if err := s.repo.SetActive(ctx, ""); err != nil {
		errs = errors.Join(errs, fmt.Errorf("deactivate account: %w", err))
	}
	if errs == nil {
		s.logger.Info("logged out", "account", string(account.ID))
	}
	return errs
}

func (s *Service) Current() (*domain.Session, bool) {
	session := s.sessions.Current()
	return session, session != nil
}

func (s *Service) verify(ctx context.Context, cred domain.Credential) (*domain.Session, error) {
	provisional := &domain.Session{Credential: cred}
	nav, err := s.navigator.Navigate(domain.WithSession(ctx, provisional))
	if err != nil {
		return nil, fmt.Errorf("verify session: %w", err)
	}
	if !nav.LoggedIn {
		return nil, fmt.Errorf("%w: cookie was rejected", domain.ErrAuth)
	}
	if nav.AccountID != "" && nav.AccountID != cred.AccountID {
		return nil, fmt.Errorf("%w: cookie belongs to %s, not %s", domain.ErrAuth, nav.AccountID, cred.AccountID)
	}

	return &domain.Session{Credential: cred, Keys: nav.Keys, Name: nav.Name}, nil
}
