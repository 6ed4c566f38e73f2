package entity

import "time"

type AgreementType string

const (
	AgreementServices  AgreementType = "services"
	AgreementPrivacy   AgreementType = "privacy"
	AgreementMarketing AgreementType = "marketing"
)

func (t AgreementType) Valid() bool {
	switch t {
	case AgreementServices, AgreementPrivacy, AgreementMarketing:
		return true
	}
	return false
}

// Agreement is immutable once persisted. The only permitted change is the
// predecessor's IsActive going from true to false when a successor is
// published. PreviousVersionID links versions of one logical agreement.
type Agreement struct {
	ID                int64
	Title             string
	Content           string
	Version           string
	PreviousVersionID *int64
	Type              AgreementType
	Order             int
	IsRequired        bool
	IsActive          bool
	CreatedAt         time.Time
}

// UserAgreement is a user's consent to one agreement.
type UserAgreement struct {
	ID          int64
	UserID      string
	AgreementID int64
	IsAgreed    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// UserAgreementDetail is a UserAgreement joined with its agreement.
type UserAgreementDetail struct {
	UserAgreement
	Agreement Agreement
}

// UserAgreementHistory snapshots the state a UserAgreement had before a change.
type UserAgreementHistory struct {
	ID              int64
	UserAgreementID int64
	IsAgreed        bool
	UpdatedAt       time.Time
	RecordedAt      time.Time
}
