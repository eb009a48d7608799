package services

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/kairanet/kairan-backend/internal/line"
	"github.com/kairanet/kairan-backend/internal/metrics"
	"github.com/kairanet/kairan-backend/internal/models"
	"github.com/kairanet/kairan-backend/internal/repository"
	"gorm.io/datatypes"
)

var (
	ErrIdentityInconsistency = errors.New("account link points at a missing account")
	ErrCodeNotFound          = errors.New("link code not found, expired, or already used")
	ErrAlreadyLinked         = errors.New("line identity is already linked to another account")
)

const (
	linkCodeTTL         = 10 * time.Minute
	linkCodeMaxAttempts = 5
)

// ExternalIdentity is a freshly fetched LINE profile. It is never persisted
// as-is; only the AccountLink carries it forward.
type ExternalIdentity struct {
	UserID      string
	DisplayName string
	PictureURL  string
}

// NewProfile carries the minimum info collected from a first-time user who
// logged in without a verified email.
type NewProfile struct {
	Nickname      string
	SelectedAreas []string
}

type ResolutionResult struct {
	Account      *models.Account
	Created      bool
	NeedsProfile bool
	DisplayName  string
	PictureURL   string
}

// IdentityService maps external LINE identities onto internal accounts and
// manages the short-lived linking codes.
type IdentityService struct {
	accounts repository.AccountRepository
	links    repository.LinkRepository
	codes    repository.LinkCodeRepository
	line     line.Client
	now      func() time.Time
}

func NewIdentityService(
	accounts repository.AccountRepository,
	links repository.LinkRepository,
	codes repository.LinkCodeRepository,
	lineClient line.Client,
) *IdentityService {
	return &IdentityService{
		accounts: accounts,
		links:    links,
		codes:    codes,
		line:     lineClient,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the service clock. Test hook.
func (s *IdentityService) WithClock(now func() time.Time) *IdentityService {
	s.now = now
	return s
}

// LoginWithCode runs the full LINE Login flow: exchange the authorization
// code, fetch the profile, verify the ID token for an email if possible,
// then resolve. ID-token verification failure is never fatal; the flow
// proceeds without an email.
func (s *IdentityService) LoginWithCode(ctx context.Context, code, redirectURI string, profile *NewProfile) (*ResolutionResult, error) {
	token, err := s.line.ExchangeCode(ctx, code, redirectURI)
	if err != nil {
		return nil, err
	}

	prof, err := s.line.GetProfile(ctx, token.AccessToken)
	if err != nil {
		return nil, err
	}

	var email string
	if token.IDToken != "" {
		if claims, err := s.line.VerifyIDToken(ctx, token.IDToken); err == nil {
			email = claims.Email
		} else {
			slog.Warn("id token verification failed, continuing without email", "error", err.Error())
		}
	}

	return s.Resolve(ctx, ExternalIdentity{
		UserID:      prof.UserID,
		DisplayName: prof.DisplayName,
		PictureURL:  prof.PictureURL,
	}, email, profile)
}

// Resolve turns an authenticated external identity into exactly one internal
// account.
//
// Case A: the identity is already linked; the link's profile is refreshed.
// A link pointing at a missing account is surfaced as
// ErrIdentityInconsistency, never silently recreated.
// Case B: a verified email matches an existing account; the link is created
// with insert-or-get semantics.
// Case C: no account matches; one is created together with its link, and a
// best-effort welcome message is pushed.
// Case D: no verified email and no profile supplied; the caller gets a
// NeedsProfile result and retries with a nickname. No placeholder email is
// ever fabricated.
func (s *IdentityService) Resolve(ctx context.Context, ext ExternalIdentity, verifiedEmail string, profile *NewProfile) (*ResolutionResult, error) {
	existing, err := s.links.FindByExternalID(ctx, ext.UserID)
	if err == nil {
		account, err := s.accounts.FindByID(ctx, existing.AccountID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, fmt.Errorf("%w: external user %s -> account %s", ErrIdentityInconsistency, ext.UserID, existing.AccountID)
			}
			return nil, err
		}
		if err := s.links.UpdateProfile(ctx, ext.UserID, ext.DisplayName, ext.PictureURL); err != nil {
			slog.Error("link profile refresh failed", "action", "resolve", "error", err.Error())
		}
		metrics.Resolutions.WithLabelValues("existing").Inc()
		return &ResolutionResult{Account: account}, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	if verifiedEmail != "" {
		account, err := s.accounts.FindByEmail(ctx, verifiedEmail)
		if err == nil {
			return s.linkExisting(ctx, ext, account)
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		return s.createAccount(ctx, ext, verifiedEmail, ext.DisplayName, nil)
	}

	if profile != nil {
		return s.createAccount(ctx, ext, "", profile.Nickname, profile.SelectedAreas)
	}

	metrics.Resolutions.WithLabelValues("needs_profile").Inc()
	return &ResolutionResult{
		NeedsProfile: true,
		DisplayName:  ext.DisplayName,
		PictureURL:   ext.PictureURL,
	}, nil
}

func (s *IdentityService) linkExisting(ctx context.Context, ext ExternalIdentity, account *models.Account) (*ResolutionResult, error) {
	winner, err := s.links.CreateOrGet(ctx, &models.AccountLink{
		AccountID:            account.ID,
		ExternalUserID:       ext.UserID,
		DisplayName:          ext.DisplayName,
		AvatarURL:            ext.PictureURL,
		NotificationsEnabled: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to link account: %w", err)
	}
	if winner.AccountID != account.ID {
		// A concurrent resolution linked this identity first; both callers
		// converge on the winning account.
		account, err = s.accounts.FindByID(ctx, winner.AccountID)
		if err != nil {
			return nil, err
		}
	}
	metrics.Resolutions.WithLabelValues("linked").Inc()
	return &ResolutionResult{Account: account}, nil
}

func (s *IdentityService) createAccount(ctx context.Context, ext ExternalIdentity, email, nickname string, areas []string) (*ResolutionResult, error) {
	if nickname == "" {
		nickname = ext.DisplayName
	}
	account := &models.Account{
		ID:       uuid.New(),
		Email:    email,
		Nickname: nickname,
		Role:     models.RoleResident,
	}
	if len(areas) > 0 {
		if b, err := marshalAreas(areas); err == nil {
			account.SelectedAreas = b
		}
	}
	link := &models.AccountLink{
		ExternalUserID:       ext.UserID,
		DisplayName:          ext.DisplayName,
		AvatarURL:            ext.PictureURL,
		NotificationsEnabled: true,
	}

	if err := s.accounts.CreateWithLink(ctx, account, link); err != nil {
		// A concurrent resolution may have created the link first; if so,
		// converge on it instead of failing the login.
		if winner, ferr := s.links.FindByExternalID(ctx, ext.UserID); ferr == nil {
			existing, aerr := s.accounts.FindByID(ctx, winner.AccountID)
			if aerr != nil {
				return nil, aerr
			}
			metrics.Resolutions.WithLabelValues("existing").Inc()
			return &ResolutionResult{Account: existing}, nil
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	// Welcome message only for genuinely first-time creation. Best-effort:
	// a failed send never fails the resolution.
	go s.sendWelcome(ext.UserID, nickname)

	metrics.Resolutions.WithLabelValues("created").Inc()
	return &ResolutionResult{Account: account, Created: true}, nil
}

func (s *IdentityService) sendWelcome(externalUserID, nickname string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	msg := fmt.Sprintf("%sさん、ようこそ!回覧板アプリの登録が完了しました。", nickname)
	if err := s.line.PushText(ctx, externalUserID, msg); err != nil {
		slog.Error("welcome message failed", "action", "welcome", "error", err.Error())
	}
}

// IssueLinkCode invalidates any earlier unused code for the identity and
// persists a fresh 6-digit code with a 10-minute expiry. An insert can
// conflict two ways: the generated code collides with another live code,
// or a concurrent issuance for the same identity won the one-live-code
// index first. Both are handled the same: invalidate again and retry, so
// duplicate follow deliveries converge on exactly one live code.
func (s *IdentityService) IssueLinkCode(ctx context.Context, ext ExternalIdentity) (*models.LinkCode, error) {
	if err := s.codes.Invalidate(ctx, ext.UserID); err != nil {
		return nil, fmt.Errorf("failed to invalidate prior codes: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < linkCodeMaxAttempts; attempt++ {
		code, err := randomDigits(6)
		if err != nil {
			return nil, err
		}
		lc := &models.LinkCode{
			ID:             uuid.New(),
			Code:           code,
			ExternalUserID: ext.UserID,
			DisplayName:    ext.DisplayName,
			AvatarURL:      ext.PictureURL,
			ExpiresAt:      s.now().Add(linkCodeTTL),
		}
		if err := s.codes.Create(ctx, lc); err != nil {
			lastErr = err
			if ierr := s.codes.Invalidate(ctx, ext.UserID); ierr != nil {
				return nil, fmt.Errorf("failed to invalidate prior codes: %w", ierr)
			}
			continue
		}
		return lc, nil
	}
	return nil, fmt.Errorf("failed to issue link code: %w", lastErr)
}

// RedeemLinkCode marks the code used and creates the link atomically.
func (s *IdentityService) RedeemLinkCode(ctx context.Context, code string, accountID uuid.UUID) error {
	lc, err := s.codes.FindActive(ctx, code, s.now())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrCodeNotFound
		}
		return err
	}

	winner, err := s.codes.Redeem(ctx, lc.ID, &models.AccountLink{
		AccountID:            accountID,
		ExternalUserID:       lc.ExternalUserID,
		DisplayName:          lc.DisplayName,
		AvatarURL:            lc.AvatarURL,
		NotificationsEnabled: true,
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrCodeNotFound
		}
		return err
	}
	if winner.AccountID != accountID {
		return ErrAlreadyLinked
	}
	return nil
}

// Unlink removes the AccountLink only. The internal account survives an
// unfollow or block.
func (s *IdentityService) Unlink(ctx context.Context, externalUserID string) error {
	return s.links.Delete(ctx, externalUserID)
}

// LinkStatus returns the account's LINE link, or repository.ErrNotFound
// for an unlinked account.
func (s *IdentityService) LinkStatus(ctx context.Context, accountID uuid.UUID) (*models.AccountLink, error) {
	return s.links.FindByAccountID(ctx, accountID)
}

// SetNotifications toggles push delivery on the account's link. Disabled
// accounts stay linked and are counted as skipped by the dispatcher.
func (s *IdentityService) SetNotifications(ctx context.Context, accountID uuid.UUID, enabled bool) error {
	return s.links.SetNotifications(ctx, accountID, enabled)
}

// OnFollow handles a follow webhook event. Already-linked identities are a
// no-op under at-least-once delivery; unlinked followers get a link code
// pushed so they can bind from the application side.
func (s *IdentityService) OnFollow(ctx context.Context, ext ExternalIdentity) error {
	if _, err := s.links.FindByExternalID(ctx, ext.UserID); err == nil {
		return nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	lc, err := s.IssueLinkCode(ctx, ext)
	if err != nil {
		return err
	}

	msg := fmt.Sprintf("友だち追加ありがとうございます!アプリと連携するには、設定画面で連携コード %s を入力してください(有効期限10分)。", lc.Code)
	if err := s.line.PushText(ctx, ext.UserID, msg); err != nil {
		slog.Error("link code message failed", "action", "follow", "error", err.Error())
	}
	return nil
}

func randomDigits(n int) (string, error) {
	max := big.NewInt(1)
	for i := 0; i < n; i++ {
		max.Mul(max, big.NewInt(10))
	}
	v, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}
	return fmt.Sprintf("%0*d", n, v), nil
}

func marshalAreas(areas []string) (datatypes.JSON, error) {
	b, err := json.Marshal(areas)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}
