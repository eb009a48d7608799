package dto

import "github.com/google/uuid"

type CreateNoticeRequest struct {
	Title       string     `json:"title"`
	Content     string     `json:"content"`
	Area        string     `json:"area"`
	CommunityID *uuid.UUID `json:"community_id,omitempty"`
}

type MarkReadRequest struct {
	MemberIDs []uuid.UUID `json:"member_ids,omitempty"`
}

type BroadcastRequest struct {
	Role    string `json:"role"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

type CreateCommunityRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Area        string `json:"area"`
}

type CreateHouseholdRequest struct {
	Name         string `json:"name"`
	HeadNickname string `json:"head_nickname"`
}

type AddMemberRequest struct {
	AccountID *uuid.UUID `json:"account_id,omitempty"`
	Nickname  string     `json:"nickname"`
	Role      string     `json:"role"`
}

type CreateMissionRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Area        string `json:"area"`
	Capacity    int    `json:"capacity"`
	RewardScore int    `json:"reward_score"`
	StartsAt    string `json:"starts_at"`
	EndsAt      string `json:"ends_at"`
}
