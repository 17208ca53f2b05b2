package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/ravey/almond/internal/qrauth/domain"
)

type qrCodesRepo struct {
	db dbtx
}

const qrCodeColumns = `id, app_id, scene, status, user_id, access_token_sealed, refresh_token_sealed,
	expires_at, scanned_at, confirmed_at, created_at`

func (r *qrCodesRepo) CreateQRCode(ctx context.Context, q domain.QRCode) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO qr_codes (id, app_id, scene, status, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, q.ID, q.AppID, q.Scene, int(q.Status), toMillis(q.ExpiresAt), toMillis(q.CreatedAt))
	return mapConstraint(err)
}

func (r *qrCodesRepo) GetQRCode(ctx context.Context, id string) (domain.QRCode, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+qrCodeColumns+` FROM qr_codes WHERE id = ?`, id)

	var (
		q                              domain.QRCode
		status                         int
		userID, scannedAt, confirmedAt sql.NullInt64
		expiresAt, createdAt           int64
	)
	err := row.Scan(
		&q.ID, &q.AppID, &q.Scene, &status, &userID,
		&q.AccessTokenSealed, &q.RefreshTokenSealed,
		&expiresAt, &scannedAt, &confirmedAt, &createdAt,
	)
	if err != nil {
		return domain.QRCode{}, mapNotFound(err)
	}

	q.Status = domain.QRStatus(status)
	q.UserID = mapNullInt64Ptr(userID)
	q.ExpiresAt = fromMillis(expiresAt)
	q.ScannedAt = mapNullMillis(scannedAt)
	q.ConfirmedAt = mapNullMillis(confirmedAt)
	q.CreatedAt = fromMillis(createdAt)
	return q, nil
}

func (r *qrCodesRepo) MarkScanned(ctx context.Context, id string, userID int64, at time.Time) error {
	return requireRow(r.db.ExecContext(ctx, `
		UPDATE qr_codes SET status = ?, user_id = ?, scanned_at = ?
		WHERE id = ? AND status = ?
	`, int(domain.QRScanned), userID, toMillis(at), id, int(domain.QRPending)))
}

func (r *qrCodesRepo) MarkConfirmed(ctx context.Context, id string, accessSealed, refreshSealed []byte, at time.Time) error {
	return requireRow(r.db.ExecContext(ctx, `
		UPDATE qr_codes
		SET status = ?, access_token_sealed = ?, refresh_token_sealed = ?, confirmed_at = ?
		WHERE id = ? AND status = ?
	`, int(domain.QRConfirmed), accessSealed, refreshSealed, toMillis(at), id, int(domain.QRScanned)))
}

func (r *qrCodesRepo) DeleteExpiredQRCodes(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM qr_codes WHERE expires_at < ?`, toMillis(cutoff))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
