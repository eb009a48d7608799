package services

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/kairanet/kairan-backend/internal/line"
	"github.com/kairanet/kairan-backend/internal/metrics"
	"github.com/kairanet/kairan-backend/internal/models"
	"github.com/kairanet/kairan-backend/internal/repository"
	"golang.org/x/time/rate"
)

// DispatchOutcome summarizes one broadcast run.
type DispatchOutcome struct {
	Sent    int `json:"sent"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// DispatchService pushes a message to every resolved recipient's LINE
// channel. Recipient deliveries are independent: one failed send never
// aborts the rest and never rolls back the notice that triggered it.
type DispatchService struct {
	links   repository.LinkRepository
	line    line.Client
	limiter *rate.Limiter
}

func NewDispatchService(links repository.LinkRepository, lineClient line.Client, pushPerSecond float64) *DispatchService {
	if pushPerSecond <= 0 {
		pushPerSecond = 20
	}
	return &DispatchService{
		links:   links,
		line:    lineClient,
		limiter: rate.NewLimiter(rate.Limit(pushPerSecond), int(pushPerSecond)),
	}
}

// DispatchNotice formats and delivers the notice to the audience.
func (s *DispatchService) DispatchNotice(ctx context.Context, notice *models.Notice, audience []uuid.UUID) DispatchOutcome {
	text := "【回覧板】" + notice.Title + "\n" + notice.Content
	return s.Dispatch(ctx, notice.ID.String(), text, audience)
}

// Dispatch sends text to each recipient. Accounts without a link or with
// notifications disabled are skipped, not retried. Failures are terminal per
// attempt and observable through logs and metrics only.
func (s *DispatchService) Dispatch(ctx context.Context, noticeID, text string, audience []uuid.UUID) DispatchOutcome {
	var outcome DispatchOutcome
	if len(audience) == 0 {
		return outcome
	}

	links, err := s.links.ForAccounts(ctx, audience)
	if err != nil {
		// The run aborts before any delivery attempt; without the links we
		// cannot tell who would have been sent to and who skipped, so no
		// per-recipient outcome is fabricated.
		slog.Error("dispatch audience lookup failed",
			"notice_id", noticeID,
			"recipients", len(audience),
			"error", err.Error())
		metrics.DispatchResults.WithLabelValues("aborted").Inc()
		return outcome
	}

	byAccount := make(map[uuid.UUID]*models.AccountLink, len(links))
	for i := range links {
		byAccount[links[i].AccountID] = &links[i]
	}

	for _, accountID := range audience {
		link, ok := byAccount[accountID]
		if !ok || !link.NotificationsEnabled {
			outcome.Skipped++
			metrics.DispatchResults.WithLabelValues("skipped").Inc()
			continue
		}

		if err := s.limiter.Wait(ctx); err != nil {
			// Context gone; remaining recipients count as failed.
			remaining := 1
			outcome.Failed += remaining
			metrics.DispatchResults.WithLabelValues("failed").Add(float64(remaining))
			slog.Error("dispatch canceled", "notice_id", noticeID, "error", err.Error())
			continue
		}

		if err := s.line.PushText(ctx, link.ExternalUserID, text); err != nil {
			outcome.Failed++
			metrics.DispatchResults.WithLabelValues("failed").Inc()
			slog.Error("dispatch send failed",
				"notice_id", noticeID,
				"account_id", accountID.String(),
				"error", err.Error())
			continue
		}

		outcome.Sent++
		metrics.DispatchResults.WithLabelValues("sent").Inc()
	}

	if outcome.Failed > 0 {
		slog.Error("dispatch completed with failures",
			"notice_id", noticeID,
			"sent", outcome.Sent,
			"skipped", outcome.Skipped,
			"failed", outcome.Failed)
	} else {
		slog.Info("dispatch completed",
			"notice_id", noticeID,
			"sent", outcome.Sent,
			"skipped", outcome.Skipped)
	}
	return outcome
}
