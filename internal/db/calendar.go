package db

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vdavid/invitesweep/internal/meeting"
	"github.com/vdavid/invitesweep/internal/models"
)

// Calendar exposes the appointments table as the shared calendar the sweep acts on.
// The user may edit the same rows at any time, so every action treats
// "already gone" and "already in that state" as success.
type Calendar struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewCalendar creates a Calendar backed by pool.
func NewCalendar(pool *pgxpool.Pool) *Calendar {
	return &Calendar{pool: pool, now: time.Now}
}

// FindAppointment implements meeting.AppointmentFinder.
func (c *Calendar) FindAppointment(ctx context.Context, storeID, icalUID string) (*models.Appointment, error) {
	appt, err := GetAppointmentByICalUID(ctx, c.pool, storeID, icalUID)
	if errors.Is(err, ErrAppointmentNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return appt, nil
}

// DeleteAppointment removes a cancelled appointment from the calendar.
func (c *Calendar) DeleteAppointment(ctx context.Context, appt *models.Appointment) (models.ActionResult, error) {
	deleted, err := DeleteAppointment(ctx, c.pool, appt.ID)
	if err != nil {
		return models.ActionFailed, err
	}
	if !deleted {
		return models.ActionAlreadyDone, nil
	}
	return models.ActionApplied, nil
}

// RespondTentative records a tentative answer on the appointment and returns the reply
// that answer would produce. The reply is nil when there is nothing to address it to,
// or when the appointment was already tentative or gone.
func (c *Calendar) RespondTentative(ctx context.Context, appt *models.Appointment) (*meeting.Reply, models.ActionResult, error) {
	changed, err := SetResponseStatus(ctx, c.pool, appt.ID, models.ResponseTentative)
	if err != nil {
		return nil, models.ActionFailed, err
	}
	if !changed {
		return nil, models.ActionAlreadyDone, nil
	}

	store, err := GetMailStore(ctx, c.pool, appt.StoreID)
	if err != nil {
		log.Printf("Warning: No reply built for appointment %s: %v", appt.ICalUID, err)
		return nil, models.ActionApplied, nil
	}

	reply, err := meeting.NewReply(appt, store.IMAPUsername, models.ResponseTentative, c.now())
	if err != nil {
		log.Printf("Warning: No reply built for appointment %s: %v", appt.ICalUID, err)
		return nil, models.ActionApplied, nil
	}

	return reply, models.ActionApplied, nil
}
