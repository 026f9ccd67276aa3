package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vdavid/invitesweep/internal/models"
)

// ErrAppointmentNotFound is returned when no appointment matches the lookup.
var ErrAppointmentNotFound = errors.New("appointment not found")

const appointmentColumns = `
	id,
	store_id,
	ical_uid,
	subject,
	organizer,
	start_utc,
	end_utc,
	response_status,
	meeting_status,
	created_at,
	updated_at`

func scanAppointment(row pgx.Row) (*models.Appointment, error) {
	var appt models.Appointment
	var responseStatus, meetingStatus string

	err := row.Scan(
		&appt.ID,
		&appt.StoreID,
		&appt.ICalUID,
		&appt.Subject,
		&appt.Organizer,
		&appt.StartUTC,
		&appt.EndUTC,
		&responseStatus,
		&meetingStatus,
		&appt.CreatedAt,
		&appt.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	appt.StartUTC = appt.StartUTC.UTC()
	appt.EndUTC = appt.EndUTC.UTC()
	appt.ResponseStatus = models.ResponseStatus(responseStatus)
	appt.MeetingStatus = models.MeetingStatus(meetingStatus)
	return &appt, nil
}

// GetAppointmentByICalUID returns the appointment a meeting notification refers to.
func GetAppointmentByICalUID(ctx context.Context, pool *pgxpool.Pool, storeID, icalUID string) (*models.Appointment, error) {
	appt, err := scanAppointment(pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE store_id = $1 AND ical_uid = $2
	`, storeID, icalUID))

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAppointmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}

	return appt, nil
}

// SaveAppointment inserts or updates an appointment keyed by (store_id, ical_uid)
// and sets appt.ID to the stored row's ID.
func SaveAppointment(ctx context.Context, pool *pgxpool.Pool, appt *models.Appointment) error {
	if appt.ResponseStatus == "" {
		appt.ResponseStatus = models.ResponseNone
	}
	if appt.MeetingStatus == "" {
		appt.MeetingStatus = models.MeetingNormal
	}

	err := pool.QueryRow(ctx, `
		INSERT INTO appointments (
			store_id,
			ical_uid,
			subject,
			organizer,
			start_utc,
			end_utc,
			response_status,
			meeting_status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (store_id, ical_uid) DO UPDATE SET
			subject = EXCLUDED.subject,
			organizer = EXCLUDED.organizer,
			start_utc = EXCLUDED.start_utc,
			end_utc = EXCLUDED.end_utc,
			response_status = EXCLUDED.response_status,
			meeting_status = EXCLUDED.meeting_status,
			updated_at = NOW()
		RETURNING id
	`,
		appt.StoreID,
		appt.ICalUID,
		appt.Subject,
		appt.Organizer,
		appt.StartUTC.UTC(),
		appt.EndUTC.UTC(),
		string(appt.ResponseStatus),
		string(appt.MeetingStatus),
	).Scan(&appt.ID)
	if err != nil {
		return fmt.Errorf("failed to save appointment: %w", err)
	}

	return nil
}

// DeleteAppointment removes an appointment. It reports false when the row was already gone.
func DeleteAppointment(ctx context.Context, pool *pgxpool.Pool, appointmentID string) (bool, error) {
	tag, err := pool.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, appointmentID)
	if err != nil {
		return false, fmt.Errorf("failed to delete appointment: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// SetResponseStatus records the user's answer on an appointment. It reports false when
// the appointment is gone or already carries that status.
func SetResponseStatus(ctx context.Context, pool *pgxpool.Pool, appointmentID string, status models.ResponseStatus) (bool, error) {
	tag, err := pool.Exec(ctx, `
		UPDATE appointments
		SET response_status = $2, updated_at = NOW()
		WHERE id = $1 AND response_status <> $2
	`, appointmentID, string(status))
	if err != nil {
		return false, fmt.Errorf("failed to set response status: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}
