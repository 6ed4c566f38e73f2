package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/oksasatya/social-account-service/internal/domain/entity"
	"github.com/oksasatya/social-account-service/internal/domain/repository"
)

type AgreementRepository struct {
	db DBTX
}

const agreementColumns = `id, title, content, version, previous_version_id, agreement_type,
	display_order, is_required, is_active, created_at`

func scanAgreement(row interface{ Scan(...any) error }) (*entity.Agreement, error) {
	a := &entity.Agreement{}
	var typ string
	if err := row.Scan(&a.ID, &a.Title, &a.Content, &a.Version, &a.PreviousVersionID, &typ,
		&a.Order, &a.IsRequired, &a.IsActive, &a.CreatedAt); err != nil {
		return nil, mapErr(err)
	}
	a.Type = entity.AgreementType(typ)
	return a, nil
}

func collectAgreements(rows pgx.Rows) ([]entity.Agreement, error) {
	defer rows.Close()
	var out []entity.Agreement
	for rows.Next() {
		a, err := scanAgreement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, mapErr(rows.Err())
}

func (r *AgreementRepository) Create(ctx context.Context, a *entity.Agreement) error {
	row := r.db.QueryRow(ctx, `
		INSERT INTO agreements (title, content, version, previous_version_id, agreement_type,
			display_order, is_required, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`, a.Title, a.Content, a.Version, a.PreviousVersionID, string(a.Type), a.Order, a.IsRequired, a.IsActive)
	return mapErr(row.Scan(&a.ID, &a.CreatedAt))
}

func (r *AgreementRepository) GetByID(ctx context.Context, id int64) (*entity.Agreement, error) {
	return scanAgreement(r.db.QueryRow(ctx, `SELECT `+agreementColumns+` FROM agreements WHERE id = $1`, id))
}

func (r *AgreementRepository) GetByIDs(ctx context.Context, ids []int64) (map[int64]*entity.Agreement, error) {
	out := make(map[int64]*entity.Agreement, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := r.db.Query(ctx, `SELECT `+agreementColumns+` FROM agreements WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, mapErr(err)
	}
	list, err := collectAgreements(rows)
	if err != nil {
		return nil, err
	}
	for i := range list {
		out[list[i].ID] = &list[i]
	}
	return out, nil
}

func (r *AgreementRepository) Deactivate(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.Exec(ctx, `UPDATE agreements SET is_active = FALSE WHERE id = $1 AND is_active`, id)
	if err != nil {
		return false, mapErr(err)
	}
	return res.RowsAffected() == 1, nil
}

func (r *AgreementRepository) ListActive(ctx context.Context, limit, offset int) ([]entity.Agreement, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if limit <= 0 {
		rows, err = r.db.Query(ctx, `
			SELECT `+agreementColumns+` FROM agreements
			WHERE is_active ORDER BY display_order, created_at, id
		`)
	} else {
		rows, err = r.db.Query(ctx, `
			SELECT `+agreementColumns+` FROM agreements
			WHERE is_active ORDER BY display_order, created_at, id
			LIMIT $1 OFFSET $2
		`, limit, offset)
	}
	if err != nil {
		return nil, mapErr(err)
	}
	return collectAgreements(rows)
}

func (r *AgreementRepository) CountActive(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM agreements WHERE is_active`).Scan(&n); err != nil {
		return 0, mapErr(err)
	}
	return n, nil
}

type ConsentRepository struct {
	db DBTX
}

const consentColumns = `id, user_id::text, agreement_id, is_agreed, created_at, updated_at`

func scanConsent(row interface{ Scan(...any) error }) (*entity.UserAgreement, error) {
	ua := &entity.UserAgreement{}
	if err := row.Scan(&ua.ID, &ua.UserID, &ua.AgreementID, &ua.IsAgreed, &ua.CreatedAt, &ua.UpdatedAt); err != nil {
		return nil, mapErr(err)
	}
	return ua, nil
}

func (r *ConsentRepository) GetByID(ctx context.Context, id int64) (*entity.UserAgreement, error) {
	return scanConsent(r.db.QueryRow(ctx, `SELECT `+consentColumns+` FROM user_agreements WHERE id = $1`, id))
}

func (r *ConsentRepository) GetByUserAndAgreement(ctx context.Context, userID string, agreementID int64) (*entity.UserAgreement, error) {
	return scanConsent(r.db.QueryRow(ctx, `
		SELECT `+consentColumns+` FROM user_agreements
		WHERE user_id = $1 AND agreement_id = $2
	`, userID, agreementID))
}

func (r *ConsentRepository) Create(ctx context.Context, ua *entity.UserAgreement) error {
	row := r.db.QueryRow(ctx, `
		INSERT INTO user_agreements (user_id, agreement_id, is_agreed)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`, ua.UserID, ua.AgreementID, ua.IsAgreed)
	return mapErr(row.Scan(&ua.ID, &ua.CreatedAt, &ua.UpdatedAt))
}

func (r *ConsentRepository) Update(ctx context.Context, ua *entity.UserAgreement) error {
	err := r.db.QueryRow(ctx, `
		UPDATE user_agreements SET is_agreed = $1, updated_at = now()
		WHERE id = $2
		RETURNING updated_at
	`, ua.IsAgreed, ua.ID).Scan(&ua.UpdatedAt)
	return mapErr(err)
}

func (r *ConsentRepository) AppendHistory(ctx context.Context, h *entity.UserAgreementHistory) error {
	row := r.db.QueryRow(ctx, `
		INSERT INTO user_agreement_histories (user_agreement_id, is_agreed, updated_at)
		VALUES ($1, $2, $3)
		RETURNING id, recorded_at
	`, h.UserAgreementID, h.IsAgreed, h.UpdatedAt)
	return mapErr(row.Scan(&h.ID, &h.RecordedAt))
}

func (r *ConsentRepository) ListByUser(ctx context.Context, userID string) ([]entity.UserAgreementDetail, error) {
	rows, err := r.db.Query(ctx, `
		SELECT ua.id, ua.user_id::text, ua.agreement_id, ua.is_agreed, ua.created_at, ua.updated_at,
			a.id, a.title, a.content, a.version, a.previous_version_id, a.agreement_type,
			a.display_order, a.is_required, a.is_active, a.created_at
		FROM user_agreements ua
		JOIN agreements a ON a.id = ua.agreement_id
		WHERE ua.user_id = $1
		ORDER BY a.display_order, a.created_at, a.id
	`, userID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()
	var out []entity.UserAgreementDetail
	for rows.Next() {
		var d entity.UserAgreementDetail
		var typ string
		if err := rows.Scan(&d.ID, &d.UserID, &d.AgreementID, &d.IsAgreed, &d.CreatedAt, &d.UpdatedAt,
			&d.Agreement.ID, &d.Agreement.Title, &d.Agreement.Content, &d.Agreement.Version,
			&d.Agreement.PreviousVersionID, &typ, &d.Agreement.Order, &d.Agreement.IsRequired,
			&d.Agreement.IsActive, &d.Agreement.CreatedAt); err != nil {
			return nil, mapErr(err)
		}
		d.Agreement.Type = entity.AgreementType(typ)
		out = append(out, d)
	}
	return out, mapErr(rows.Err())
}

func (r *ConsentRepository) ListHistory(ctx context.Context, userAgreementID int64) ([]entity.UserAgreementHistory, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_agreement_id, is_agreed, updated_at, recorded_at
		FROM user_agreement_histories
		WHERE user_agreement_id = $1
		ORDER BY recorded_at, id
	`, userAgreementID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()
	var out []entity.UserAgreementHistory
	for rows.Next() {
		var h entity.UserAgreementHistory
		if err := rows.Scan(&h.ID, &h.UserAgreementID, &h.IsAgreed, &h.UpdatedAt, &h.RecordedAt); err != nil {
			return nil, mapErr(err)
		}
		out = append(out, h)
	}
	return out, mapErr(rows.Err())
}

func (r *ConsentRepository) ListAgreedUserIDs(ctx context.Context, agreementID int64) ([]string, error) {
	rows, err := r.db.Query(ctx, `
		SELECT user_id::text FROM user_agreements
		WHERE agreement_id = $1 AND is_agreed
		ORDER BY user_id
	`, agreementID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, mapErr(err)
		}
		out = append(out, id)
	}
	return out, mapErr(rows.Err())
}

var (
	_ repository.AgreementRepository = (*AgreementRepository)(nil)
	_ repository.ConsentRepository   = (*ConsentRepository)(nil)
)
