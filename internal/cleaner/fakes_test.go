package cleaner

import (
	"context"
	"fmt"
	"sync"

	"github.com/stretchr/testify/mock"
	"github.com/vdavid/invitesweep/internal/meeting"
	"github.com/vdavid/invitesweep/internal/models"
)

// fakeFolder is an in-memory inbox.
type fakeFolder struct {
	name      string
	storeID   string
	items     []models.InboxItem
	listErr   error
	removeErr map[uint32]error
	removed   []uint32
}

func (f *fakeFolder) Name() string    { return f.name }
func (f *fakeFolder) StoreID() string { return f.storeID }

func (f *fakeFolder) MeetingItems(context.Context) ([]models.InboxItem, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	items := make([]models.InboxItem, len(f.items))
	copy(items, f.items)
	return items, nil
}

func (f *fakeFolder) Remove(_ context.Context, uid uint32) error {
	if err := f.removeErr[uid]; err != nil {
		return err
	}
	for i, item := range f.items {
		if item.UID == uid {
			f.items = append(f.items[:i], f.items[i+1:]...)
			break
		}
	}
	f.removed = append(f.removed, uid)
	return nil
}

func (f *fakeFolder) uids() []uint32 {
	uids := make([]uint32, 0, len(f.items))
	for _, item := range f.items {
		uids = append(uids, item.UID)
	}
	return uids
}

// fakeCalendar keeps appointments in a map keyed by iCalendar UID.
type fakeCalendar struct {
	mu           sync.Mutex
	appointments map[string]*models.Appointment
	replies      []*meeting.Reply
}

func newFakeCalendar(appts ...*models.Appointment) *fakeCalendar {
	c := &fakeCalendar{appointments: make(map[string]*models.Appointment)}
	for _, appt := range appts {
		c.appointments[appt.ICalUID] = appt
	}
	return c
}

func (c *fakeCalendar) find(icalUID string) *models.Appointment {
	c.mu.Lock()
	defer c.mu.Unlock()
	appt, ok := c.appointments[icalUID]
	if !ok {
		return nil
	}
	cp := *appt
	return &cp
}

func (c *fakeCalendar) DeleteAppointment(_ context.Context, appt *models.Appointment) (models.ActionResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.appointments[appt.ICalUID]; !ok {
		return models.ActionAlreadyDone, nil
	}
	delete(c.appointments, appt.ICalUID)
	return models.ActionApplied, nil
}

func (c *fakeCalendar) RespondTentative(_ context.Context, appt *models.Appointment) (*meeting.Reply, models.ActionResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	stored, ok := c.appointments[appt.ICalUID]
	if !ok || stored.ResponseStatus == models.ResponseTentative {
		return nil, models.ActionAlreadyDone, nil
	}
	stored.ResponseStatus = models.ResponseTentative
	reply := &meeting.Reply{ID: "reply-" + appt.ICalUID, To: stored.Organizer}
	c.replies = append(c.replies, reply)
	return reply, models.ActionApplied, nil
}

// fakeClassifier maps UIDs to notifications and resolves them against a fakeCalendar.
type fakeClassifier struct {
	notifications map[uint32]models.MeetingNotification
	calendar      *fakeCalendar
	classifyErr   map[uint32]error
	resolveErr    error
}

func (c *fakeClassifier) Classify(storeID string, item models.InboxItem) (*models.MeetingNotification, error) {
	if err := c.classifyErr[item.UID]; err != nil {
		return nil, err
	}
	n, ok := c.notifications[item.UID]
	if !ok {
		return nil, fmt.Errorf("%w: UID %d", meeting.ErrNotMeeting, item.UID)
	}
	n.StoreID = storeID
	n.IMAPUID = item.UID
	return &n, nil
}

func (c *fakeClassifier) ResolveAppointment(_ context.Context, n *models.MeetingNotification) (*models.Appointment, error) {
	if c.resolveErr != nil {
		return nil, c.resolveErr
	}
	appt := c.calendar.find(n.ICalUID)
	if appt == nil {
		return nil, nil
	}
	if n.IsCancellation() && !appt.IsCanceled() {
		appt.MeetingStatus = models.MeetingReceivedAndCanceled
	}
	return appt, nil
}

// mockCalendar is a testify mock of Calendar for failure paths.
type mockCalendar struct {
	mock.Mock
}

func (m *mockCalendar) DeleteAppointment(ctx context.Context, appt *models.Appointment) (models.ActionResult, error) {
	args := m.Called(ctx, appt)
	return args.Get(0).(models.ActionResult), args.Error(1)
}

func (m *mockCalendar) RespondTentative(ctx context.Context, appt *models.Appointment) (*meeting.Reply, models.ActionResult, error) {
	args := m.Called(ctx, appt)
	reply, _ := args.Get(0).(*meeting.Reply)
	return reply, args.Get(1).(models.ActionResult), args.Error(2)
}

// recordingReporter keeps every outcome and failure it is told about.
type recordingReporter struct {
	NopReporter
	folders  []string
	outcomes []models.ProcessingOutcome
	failures []uint32
}

func (r *recordingReporter) FolderStarted(name string) { r.folders = append(r.folders, name) }
func (r *recordingReporter) Outcome(outcome models.ProcessingOutcome) {
	r.outcomes = append(r.outcomes, outcome)
}
func (r *recordingReporter) Failure(uid uint32, _ error) { r.failures = append(r.failures, uid) }

func request(icalUID string) models.MeetingNotification {
	return models.MeetingNotification{Class: models.ClassMeetingRequest, ICalUID: icalUID, Subject: icalUID}
}

func cancellation(icalUID string) models.MeetingNotification {
	return models.MeetingNotification{Class: models.ClassMeetingCancellation, ICalUID: icalUID, Subject: icalUID}
}

func items(uids ...uint32) []models.InboxItem {
	result := make([]models.InboxItem, 0, len(uids))
	for _, uid := range uids {
		result = append(result, models.InboxItem{UID: uid, Raw: []byte("raw")})
	}
	return result
}
