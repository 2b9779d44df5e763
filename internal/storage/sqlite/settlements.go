package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nattw/harnkan/internal/models"
	"github.com/nattw/harnkan/internal/storage"
)

// CreateVerifiedSettlement inserts a settlement with verified status.
// The partial unique index on slip_trans_ref makes this the duplicate
// guard's conditional write: a second verified insert of the same
// reference fails the constraint and maps to ErrDuplicateTransRef.
func (s *SQLiteStore) CreateVerifiedSettlement(ctx context.Context, st *models.Settlement) error {
	if st.Slip == nil || st.Slip.TransRef == "" {
		return fmt.Errorf("verified settlement requires a slip with a transaction reference")
	}
	if st.ID == "" {
		st.ID = uuid.New().String()
	}
	now := time.Now().Unix()
	if st.CreatedAt == 0 {
		st.CreatedAt = now
	}
	st.UpdatedAt = now
	st.Status = models.StatusVerified

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settlements (
		    id, month, from_key, to_key, amount, status,
		    slip_trans_ref, slip_trans_date, slip_trans_time, slip_amount,
		    slip_sender_display, slip_sender_name, slip_receiver_display, slip_receiver_name,
		    slip_sending_bank, slip_receiving_bank, slip_uploaded_by,
		    slip_matched_field, slip_match_confidence,
		    created_at, updated_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		st.ID, st.Month, st.From, st.To, st.Amount, st.Status,
		st.Slip.TransRef, st.Slip.TransDate, st.Slip.TransTime, st.Slip.Amount,
		st.Slip.SenderDisplay, st.Slip.SenderName, st.Slip.ReceiverDisplay, st.Slip.ReceiverName,
		st.Slip.SendingBank, st.Slip.ReceivingBank, st.Slip.UploadedBy,
		st.Slip.MatchedField, st.Slip.MatchConfidence,
		st.CreatedAt, st.UpdatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("trans ref %s: %w", st.Slip.TransRef, storage.ErrDuplicateTransRef)
		}
		return fmt.Errorf("failed to insert settlement: %w", err)
	}
	return nil
}

const settlementColumns = `id, month, from_key, to_key, amount, status,
	slip_trans_ref, slip_trans_date, slip_trans_time, slip_amount,
	slip_sender_display, slip_sender_name, slip_receiver_display, slip_receiver_name,
	slip_sending_bank, slip_receiving_bank, slip_uploaded_by,
	slip_matched_field, slip_match_confidence,
	created_at, updated_at`

func scanSettlement(row interface {
	Scan(dest ...any) error
}) (*models.Settlement, error) {
	st := &models.Settlement{}
	var (
		transRef, transDate, transTime sql.NullString
		slipAmount, matchConfidence    sql.NullFloat64
		senderDisplay, senderName      sql.NullString
		receiverDisplay, receiverName  sql.NullString
		sendingBank, receivingBank     sql.NullString
		uploadedBy, matchedField       sql.NullString
	)
	err := row.Scan(&st.ID, &st.Month, &st.From, &st.To, &st.Amount, &st.Status,
		&transRef, &transDate, &transTime, &slipAmount,
		&senderDisplay, &senderName, &receiverDisplay, &receiverName,
		&sendingBank, &receivingBank, &uploadedBy,
		&matchedField, &matchConfidence,
		&st.CreatedAt, &st.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if transRef.Valid && transRef.String != "" {
		st.Slip = &models.Slip{
			TransRef:        transRef.String,
			TransDate:       transDate.String,
			TransTime:       transTime.String,
			Amount:          slipAmount.Float64,
			SenderDisplay:   senderDisplay.String,
			SenderName:      senderName.String,
			ReceiverDisplay: receiverDisplay.String,
			ReceiverName:    receiverName.String,
			SendingBank:     sendingBank.String,
			ReceivingBank:   receivingBank.String,
			UploadedBy:      uploadedBy.String,
			MatchedField:    matchedField.String,
			MatchConfidence: matchConfidence.Float64,
		}
	}
	return st, nil
}

// GetVerifiedSettlementByTransRef looks up the verified settlement for a
// transaction reference.
func (s *SQLiteStore) GetVerifiedSettlementByTransRef(ctx context.Context, transRef string) (*models.Settlement, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+settlementColumns+" FROM settlements WHERE slip_trans_ref = ? AND status = ?",
		transRef, models.StatusVerified,
	)
	st, err := scanSettlement(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("trans ref %s: %w", transRef, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get settlement: %w", err)
	}
	return st, nil
}

// ListVerifiedSettlements returns the verified settlements for a month,
// oldest first.
func (s *SQLiteStore) ListVerifiedSettlements(ctx context.Context, month string) ([]*models.Settlement, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+settlementColumns+" FROM settlements WHERE month = ? AND status = ? ORDER BY created_at",
		month, models.StatusVerified,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list settlements: %w", err)
	}
	defer rows.Close()

	var settlements []*models.Settlement
	for rows.Next() {
		st, err := scanSettlement(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan settlement: %w", err)
		}
		settlements = append(settlements, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate settlements: %w", err)
	}
	return settlements, nil
}
