package handlers

import (
	"time"

	"github.com/oksasatya/social-account-service/internal/application"
	"github.com/oksasatya/social-account-service/internal/domain/entity"
)

type agreementJSON struct {
	ID                int64     `json:"id"`
	Title             string    `json:"title"`
	Content           string    `json:"content"`
	Version           string    `json:"version"`
	PreviousVersionID *int64    `json:"previous_version_id"`
	Type              string    `json:"agreement_type"`
	Order             int       `json:"order"`
	IsRequired        bool      `json:"is_required"`
	IsActive          bool      `json:"is_active"`
	CreatedAt         time.Time `json:"created_at"`
}

func toAgreementJSON(a entity.Agreement) agreementJSON {
	return agreementJSON{
		ID:                a.ID,
		Title:             a.Title,
		Content:           a.Content,
		Version:           a.Version,
		PreviousVersionID: a.PreviousVersionID,
		Type:              string(a.Type),
		Order:             a.Order,
		IsRequired:        a.IsRequired,
		IsActive:          a.IsActive,
		CreatedAt:         a.CreatedAt,
	}
}

func toAgreementsJSON(list []entity.Agreement) []agreementJSON {
	out := make([]agreementJSON, 0, len(list))
	for _, a := range list {
		out = append(out, toAgreementJSON(a))
	}
	return out
}

type userAgreementJSON struct {
	ID        int64         `json:"id"`
	Agreement agreementJSON `json:"agreement"`
	IsAgreed  bool          `json:"is_agreed"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

func toUserAgreementJSON(d entity.UserAgreementDetail) userAgreementJSON {
	return userAgreementJSON{
		ID:        d.ID,
		Agreement: toAgreementJSON(d.Agreement),
		IsAgreed:  d.IsAgreed,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

func toUserAgreementsJSON(list []entity.UserAgreementDetail) []userAgreementJSON {
	out := make([]userAgreementJSON, 0, len(list))
	for _, d := range list {
		out = append(out, toUserAgreementJSON(d))
	}
	return out
}

type historyJSON struct {
	ID              int64     `json:"id"`
	UserAgreementID int64     `json:"user_agreement_id"`
	IsAgreed        bool      `json:"is_agreed"`
	UpdatedAt       time.Time `json:"updated_at"`
	RecordedAt      time.Time `json:"recorded_at"`
}

type profileJSON struct {
	Nickname  string `json:"nickname"`
	AvatarURL string `json:"avatar_url"`
}

func toProfileJSON(p *entity.Profile) *profileJSON {
	if p == nil {
		return nil
	}
	return &profileJSON{Nickname: p.Nickname, AvatarURL: p.AvatarURL}
}

type meJSON struct {
	ID                string          `json:"id"`
	Email             string          `json:"email"`
	IsVerified        bool            `json:"is_verified"`
	IsStaff           bool            `json:"is_staff"`
	DateJoined        time.Time       `json:"date_joined"`
	Profile           *profileJSON    `json:"profile"`
	IsOnboarded       bool            `json:"is_onboarded"`
	PendingAgreements []agreementJSON `json:"pending_agreements"`
}

func toMeJSON(me *application.Me) meJSON {
	return meJSON{
		ID:                me.User.ID,
		Email:             me.User.Email,
		IsVerified:        me.User.IsVerified,
		IsStaff:           me.User.IsStaff,
		DateJoined:        me.User.DateJoined,
		Profile:           toProfileJSON(me.Profile),
		IsOnboarded:       me.IsOnboarded(),
		PendingAgreements: toAgreementsJSON(me.PendingAgreements),
	}
}
