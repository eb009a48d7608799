package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/kairanet/kairan-backend/internal/models"
)

var (
	ErrNotFound = errors.New("repository: record not found")
)

// AccountRepository persists internal accounts.
type AccountRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
	Create(ctx context.Context, account *models.Account) error

	// CreateWithLink creates the account and its LINE link in one
	// transaction so a failed resolution never leaves half a user behind.
	CreateWithLink(ctx context.Context, account *models.Account, link *models.AccountLink) error
}

// LinkRepository persists AccountLink rows keyed by LINE user ID.
type LinkRepository interface {
	FindByExternalID(ctx context.Context, externalUserID string) (*models.AccountLink, error)
	FindByAccountID(ctx context.Context, accountID uuid.UUID) (*models.AccountLink, error)

	// CreateOrGet inserts the link, or returns the existing row when the
	// external user is already linked. This is the single atomic commit
	// point that keeps duplicate webhook deliveries and double-clicked
	// logins from producing two links.
	CreateOrGet(ctx context.Context, link *models.AccountLink) (*models.AccountLink, error)

	UpdateProfile(ctx context.Context, externalUserID, displayName, avatarURL string) error
	SetNotifications(ctx context.Context, accountID uuid.UUID, enabled bool) error
	Delete(ctx context.Context, externalUserID string) error
	ForAccounts(ctx context.Context, accountIDs []uuid.UUID) ([]models.AccountLink, error)
}

// LinkCodeRepository persists ephemeral linking codes.
type LinkCodeRepository interface {
	// Invalidate removes any unused codes for the external user.
	Invalidate(ctx context.Context, externalUserID string) error

	// Create inserts a new code. The unique index on code makes collisions
	// surface as errors; callers regenerate and retry.
	Create(ctx context.Context, code *models.LinkCode) error

	FindActive(ctx context.Context, code string, now time.Time) (*models.LinkCode, error)

	// Redeem atomically marks the code used and inserts the link,
	// returning whichever link won (the new one, or a pre-existing link
	// for the same external user). When the pre-existing link belongs to
	// a different account, the mark-used is rolled back: a redemption
	// that cannot succeed never consumes the code.
	Redeem(ctx context.Context, codeID uuid.UUID, link *models.AccountLink) (*models.AccountLink, error)

	PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

// NoticeRepository persists notices.
type NoticeRepository interface {
	Create(ctx context.Context, notice *models.Notice) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Notice, error)
	ListForViewer(ctx context.Context, areas []string, communityIDs []uuid.UUID, limit, offset int) ([]models.Notice, int64, error)
	AddReadCount(ctx context.Context, noticeID uuid.UUID, delta int64) error
	MarkSentExternally(ctx context.Context, noticeID uuid.UUID) error
}

// ReceiptRepository persists read receipts.
type ReceiptRepository interface {
	// Insert adds the receipt if absent. Returns false when the
	// (notice, account, member) tuple already has a receipt.
	Insert(ctx context.Context, receipt *models.ReadReceipt) (bool, error)

	ListForViewer(ctx context.Context, noticeID, accountID uuid.UUID) ([]models.ReadReceipt, error)
	CountForNotice(ctx context.Context, noticeID uuid.UUID) (int64, error)
}

// AudienceRepository answers the membership queries the audience resolver
// is built on.
type AudienceRepository interface {
	AccountIDsByArea(ctx context.Context, area string) ([]uuid.UUID, error)
	AccountIDsByCommunity(ctx context.Context, communityID uuid.UUID) ([]uuid.UUID, error)
	AccountIDsByRole(ctx context.Context, role string) ([]uuid.UUID, error)
	AllAccountIDs(ctx context.Context) ([]uuid.UUID, error)
	CommunityIDsForAccount(ctx context.Context, accountID uuid.UUID) ([]uuid.UUID, error)
}

// HouseholdRepository answers household membership queries for the receipt
// engine's authorization and status checks.
type HouseholdRepository interface {
	// MembersForAccount returns every member of every household the
	// account itself belongs to.
	MembersForAccount(ctx context.Context, accountID uuid.UUID) ([]models.HouseholdMember, error)
}
