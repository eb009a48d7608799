package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/kairanet/kairan-backend/internal/line"
	"github.com/kairanet/kairan-backend/internal/models"
	"github.com/kairanet/kairan-backend/internal/repository"
)

type mockAccountRepo struct {
	findByIDFn       func(ctx context.Context, id uuid.UUID) (*models.Account, error)
	findByEmailFn    func(ctx context.Context, email string) (*models.Account, error)
	createFn         func(ctx context.Context, account *models.Account) error
	createWithLinkFn func(ctx context.Context, account *models.Account, link *models.AccountLink) error
}

func (m *mockAccountRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, repository.ErrNotFound
}

func (m *mockAccountRepo) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	if m.findByEmailFn != nil {
		return m.findByEmailFn(ctx, email)
	}
	return nil, repository.ErrNotFound
}

func (m *mockAccountRepo) Create(ctx context.Context, account *models.Account) error {
	if m.createFn != nil {
		return m.createFn(ctx, account)
	}
	return nil
}

func (m *mockAccountRepo) CreateWithLink(ctx context.Context, account *models.Account, link *models.AccountLink) error {
	if m.createWithLinkFn != nil {
		return m.createWithLinkFn(ctx, account, link)
	}
	return nil
}

type mockLinkRepo struct {
	findByExternalIDFn func(ctx context.Context, externalUserID string) (*models.AccountLink, error)
	findByAccountIDFn  func(ctx context.Context, accountID uuid.UUID) (*models.AccountLink, error)
	createOrGetFn      func(ctx context.Context, link *models.AccountLink) (*models.AccountLink, error)
	updateProfileFn    func(ctx context.Context, externalUserID, displayName, avatarURL string) error
	setNotificationsFn func(ctx context.Context, accountID uuid.UUID, enabled bool) error
	deleteFn           func(ctx context.Context, externalUserID string) error
	forAccountsFn      func(ctx context.Context, accountIDs []uuid.UUID) ([]models.AccountLink, error)
}

func (m *mockLinkRepo) FindByExternalID(ctx context.Context, externalUserID string) (*models.AccountLink, error) {
	if m.findByExternalIDFn != nil {
		return m.findByExternalIDFn(ctx, externalUserID)
	}
	return nil, repository.ErrNotFound
}

func (m *mockLinkRepo) FindByAccountID(ctx context.Context, accountID uuid.UUID) (*models.AccountLink, error) {
	if m.findByAccountIDFn != nil {
		return m.findByAccountIDFn(ctx, accountID)
	}
	return nil, repository.ErrNotFound
}

func (m *mockLinkRepo) CreateOrGet(ctx context.Context, link *models.AccountLink) (*models.AccountLink, error) {
	if m.createOrGetFn != nil {
		return m.createOrGetFn(ctx, link)
	}
	return link, nil
}

func (m *mockLinkRepo) UpdateProfile(ctx context.Context, externalUserID, displayName, avatarURL string) error {
	if m.updateProfileFn != nil {
		return m.updateProfileFn(ctx, externalUserID, displayName, avatarURL)
	}
	return nil
}

func (m *mockLinkRepo) SetNotifications(ctx context.Context, accountID uuid.UUID, enabled bool) error {
	if m.setNotificationsFn != nil {
		return m.setNotificationsFn(ctx, accountID, enabled)
	}
	return nil
}

func (m *mockLinkRepo) Delete(ctx context.Context, externalUserID string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, externalUserID)
	}
	return nil
}

func (m *mockLinkRepo) ForAccounts(ctx context.Context, accountIDs []uuid.UUID) ([]models.AccountLink, error) {
	if m.forAccountsFn != nil {
		return m.forAccountsFn(ctx, accountIDs)
	}
	return nil, nil
}

type mockLinkCodeRepo struct {
	invalidateFn   func(ctx context.Context, externalUserID string) error
	createFn       func(ctx context.Context, code *models.LinkCode) error
	findActiveFn   func(ctx context.Context, code string, now time.Time) (*models.LinkCode, error)
	redeemFn       func(ctx context.Context, codeID uuid.UUID, link *models.AccountLink) (*models.AccountLink, error)
	purgeExpiredFn func(ctx context.Context, cutoff time.Time) (int64, error)
}

func (m *mockLinkCodeRepo) Invalidate(ctx context.Context, externalUserID string) error {
	if m.invalidateFn != nil {
		return m.invalidateFn(ctx, externalUserID)
	}
	return nil
}

func (m *mockLinkCodeRepo) Create(ctx context.Context, code *models.LinkCode) error {
	if m.createFn != nil {
		return m.createFn(ctx, code)
	}
	return nil
}

func (m *mockLinkCodeRepo) FindActive(ctx context.Context, code string, now time.Time) (*models.LinkCode, error) {
	if m.findActiveFn != nil {
		return m.findActiveFn(ctx, code, now)
	}
	return nil, repository.ErrNotFound
}

func (m *mockLinkCodeRepo) Redeem(ctx context.Context, codeID uuid.UUID, link *models.AccountLink) (*models.AccountLink, error) {
	if m.redeemFn != nil {
		return m.redeemFn(ctx, codeID, link)
	}
	return link, nil
}

func (m *mockLinkCodeRepo) PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	if m.purgeExpiredFn != nil {
		return m.purgeExpiredFn(ctx, cutoff)
	}
	return 0, nil
}

type mockNoticeRepo struct {
	createFn             func(ctx context.Context, notice *models.Notice) error
	findByIDFn           func(ctx context.Context, id uuid.UUID) (*models.Notice, error)
	listForViewerFn      func(ctx context.Context, areas []string, communityIDs []uuid.UUID, limit, offset int) ([]models.Notice, int64, error)
	addReadCountFn       func(ctx context.Context, noticeID uuid.UUID, delta int64) error
	markSentExternallyFn func(ctx context.Context, noticeID uuid.UUID) error
}

func (m *mockNoticeRepo) Create(ctx context.Context, notice *models.Notice) error {
	if m.createFn != nil {
		return m.createFn(ctx, notice)
	}
	return nil
}

func (m *mockNoticeRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Notice, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, repository.ErrNotFound
}

func (m *mockNoticeRepo) ListForViewer(ctx context.Context, areas []string, communityIDs []uuid.UUID, limit, offset int) ([]models.Notice, int64, error) {
	if m.listForViewerFn != nil {
		return m.listForViewerFn(ctx, areas, communityIDs, limit, offset)
	}
	return nil, 0, nil
}

func (m *mockNoticeRepo) AddReadCount(ctx context.Context, noticeID uuid.UUID, delta int64) error {
	if m.addReadCountFn != nil {
		return m.addReadCountFn(ctx, noticeID, delta)
	}
	return nil
}

func (m *mockNoticeRepo) MarkSentExternally(ctx context.Context, noticeID uuid.UUID) error {
	if m.markSentExternallyFn != nil {
		return m.markSentExternallyFn(ctx, noticeID)
	}
	return nil
}

type mockReceiptRepo struct {
	insertFn         func(ctx context.Context, receipt *models.ReadReceipt) (bool, error)
	listForViewerFn  func(ctx context.Context, noticeID, accountID uuid.UUID) ([]models.ReadReceipt, error)
	countForNoticeFn func(ctx context.Context, noticeID uuid.UUID) (int64, error)
}

func (m *mockReceiptRepo) Insert(ctx context.Context, receipt *models.ReadReceipt) (bool, error) {
	if m.insertFn != nil {
		return m.insertFn(ctx, receipt)
	}
	return true, nil
}

func (m *mockReceiptRepo) ListForViewer(ctx context.Context, noticeID, accountID uuid.UUID) ([]models.ReadReceipt, error) {
	if m.listForViewerFn != nil {
		return m.listForViewerFn(ctx, noticeID, accountID)
	}
	return nil, nil
}

func (m *mockReceiptRepo) CountForNotice(ctx context.Context, noticeID uuid.UUID) (int64, error) {
	if m.countForNoticeFn != nil {
		return m.countForNoticeFn(ctx, noticeID)
	}
	return 0, nil
}

type mockAudienceRepo struct {
	byAreaFn          func(ctx context.Context, area string) ([]uuid.UUID, error)
	byCommunityFn     func(ctx context.Context, communityID uuid.UUID) ([]uuid.UUID, error)
	byRoleFn          func(ctx context.Context, role string) ([]uuid.UUID, error)
	allFn             func(ctx context.Context) ([]uuid.UUID, error)
	communitiesForaFn func(ctx context.Context, accountID uuid.UUID) ([]uuid.UUID, error)
}

func (m *mockAudienceRepo) AccountIDsByArea(ctx context.Context, area string) ([]uuid.UUID, error) {
	if m.byAreaFn != nil {
		return m.byAreaFn(ctx, area)
	}
	return nil, nil
}

func (m *mockAudienceRepo) AccountIDsByCommunity(ctx context.Context, communityID uuid.UUID) ([]uuid.UUID, error) {
	if m.byCommunityFn != nil {
		return m.byCommunityFn(ctx, communityID)
	}
	return nil, nil
}

func (m *mockAudienceRepo) AccountIDsByRole(ctx context.Context, role string) ([]uuid.UUID, error) {
	if m.byRoleFn != nil {
		return m.byRoleFn(ctx, role)
	}
	return nil, nil
}

func (m *mockAudienceRepo) AllAccountIDs(ctx context.Context) ([]uuid.UUID, error) {
	if m.allFn != nil {
		return m.allFn(ctx)
	}
	return nil, nil
}

func (m *mockAudienceRepo) CommunityIDsForAccount(ctx context.Context, accountID uuid.UUID) ([]uuid.UUID, error) {
	if m.communitiesForaFn != nil {
		return m.communitiesForaFn(ctx, accountID)
	}
	return nil, nil
}

type mockHouseholdRepo struct {
	membersForAccountFn func(ctx context.Context, accountID uuid.UUID) ([]models.HouseholdMember, error)
}

func (m *mockHouseholdRepo) MembersForAccount(ctx context.Context, accountID uuid.UUID) ([]models.HouseholdMember, error) {
	if m.membersForAccountFn != nil {
		return m.membersForAccountFn(ctx, accountID)
	}
	return nil, nil
}

type mockLineClient struct {
	exchangeCodeFn  func(ctx context.Context, code, redirectURI string) (*line.Token, error)
	getProfileFn    func(ctx context.Context, accessToken string) (*line.Profile, error)
	verifyIDTokenFn func(ctx context.Context, idToken string) (*line.IDTokenClaims, error)
	pushTextFn      func(ctx context.Context, externalUserID, text string) error
}

func (m *mockLineClient) ExchangeCode(ctx context.Context, code, redirectURI string) (*line.Token, error) {
	if m.exchangeCodeFn != nil {
		return m.exchangeCodeFn(ctx, code, redirectURI)
	}
	return &line.Token{AccessToken: "token"}, nil
}

func (m *mockLineClient) GetProfile(ctx context.Context, accessToken string) (*line.Profile, error) {
	if m.getProfileFn != nil {
		return m.getProfileFn(ctx, accessToken)
	}
	return &line.Profile{UserID: "U1", DisplayName: "user"}, nil
}

func (m *mockLineClient) VerifyIDToken(ctx context.Context, idToken string) (*line.IDTokenClaims, error) {
	if m.verifyIDTokenFn != nil {
		return m.verifyIDTokenFn(ctx, idToken)
	}
	return &line.IDTokenClaims{}, nil
}

func (m *mockLineClient) PushText(ctx context.Context, externalUserID, text string) error {
	if m.pushTextFn != nil {
		return m.pushTextFn(ctx, externalUserID, text)
	}
	return nil
}
