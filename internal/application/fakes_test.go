package application

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/channasilva/crms-server/internal/persistence"
)

// Map-backed repository fakes shared by the service tests. They implement
// the persistence interfaces with the same not-found/duplicate semantics as
// the sqlite package.

type fakeUserRepo struct {
	users map[string]persistence.User
	err   error
}

func newFakeUserRepo(users ...persistence.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: make(map[string]persistence.User)}
	for _, u := range users {
		repo.users[u.ID] = u
	}
	return repo
}

func (r *fakeUserRepo) CreateUser(ctx context.Context, user persistence.User) error {
	if r.err != nil {
		return r.err
	}
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return persistence.ErrDuplicate
		}
	}
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) UpdateUser(ctx context.Context, user persistence.User) error {
	if r.err != nil {
		return r.err
	}
	if _, ok := r.users[user.ID]; !ok {
		return persistence.ErrNotFound
	}
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) GetUser(ctx context.Context, id string) (persistence.User, error) {
	if r.err != nil {
		return persistence.User{}, r.err
	}
	user, ok := r.users[id]
	if !ok {
		return persistence.User{}, persistence.ErrNotFound
	}
	return user, nil
}

func (r *fakeUserRepo) GetUserByEmail(ctx context.Context, email string) (persistence.User, error) {
	if r.err != nil {
		return persistence.User{}, r.err
	}
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return persistence.User{}, persistence.ErrNotFound
}

func (r *fakeUserRepo) ListUsers(ctx context.Context) ([]persistence.User, error) {
	if r.err != nil {
		return nil, r.err
	}
	out := make([]persistence.User, 0, len(r.users))
	for _, user := range r.users {
		out = append(out, user)
	}
	return out, nil
}

func (r *fakeUserRepo) DeleteUser(ctx context.Context, id string) error {
	if r.err != nil {
		return r.err
	}
	if _, ok := r.users[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

type fakeResourceRepo struct {
	resources map[string]persistence.Resource
	err       error
}

func newFakeResourceRepo(resources ...persistence.Resource) *fakeResourceRepo {
	repo := &fakeResourceRepo{resources: make(map[string]persistence.Resource)}
	for _, res := range resources {
		repo.resources[res.ID] = res
	}
	return repo
}

func (r *fakeResourceRepo) CreateResource(ctx context.Context, resource persistence.Resource) error {
	if r.err != nil {
		return r.err
	}
	if _, ok := r.resources[resource.ID]; ok {
		return persistence.ErrDuplicate
	}
	r.resources[resource.ID] = resource
	return nil
}

func (r *fakeResourceRepo) UpdateResource(ctx context.Context, resource persistence.Resource) error {
	if r.err != nil {
		return r.err
	}
	if _, ok := r.resources[resource.ID]; !ok {
		return persistence.ErrNotFound
	}
	r.resources[resource.ID] = resource
	return nil
}

func (r *fakeResourceRepo) GetResource(ctx context.Context, id string) (persistence.Resource, error) {
	if r.err != nil {
		return persistence.Resource{}, r.err
	}
	resource, ok := r.resources[id]
	if !ok {
		return persistence.Resource{}, persistence.ErrNotFound
	}
	return resource, nil
}

func (r *fakeResourceRepo) ListResources(ctx context.Context) ([]persistence.Resource, error) {
	if r.err != nil {
		return nil, r.err
	}
	out := make([]persistence.Resource, 0, len(r.resources))
	for _, resource := range r.resources {
		out = append(out, resource)
	}
	return out, nil
}

func (r *fakeResourceRepo) DeleteResource(ctx context.Context, id string) error {
	if r.err != nil {
		return r.err
	}
	if _, ok := r.resources[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(r.resources, id)
	return nil
}

type fakeBookingRepo struct {
	groups      map[string]persistence.BookingGroup
	occurrences map[string]persistence.Occurrence
	createErr   error
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{
		groups:      make(map[string]persistence.BookingGroup),
		occurrences: make(map[string]persistence.Occurrence),
	}
}

func (r *fakeBookingRepo) CreateGroup(ctx context.Context, group persistence.BookingGroup, occurrences []persistence.Occurrence) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.groups[group.ID] = group
	for _, occ := range occurrences {
		r.occurrences[occ.ID] = occ
	}
	return nil
}

func (r *fakeBookingRepo) GetGroup(ctx context.Context, id string) (persistence.BookingGroup, error) {
	group, ok := r.groups[id]
	if !ok {
		return persistence.BookingGroup{}, persistence.ErrNotFound
	}
	return group, nil
}

func (r *fakeBookingRepo) ListGroups(ctx context.Context, requesterID string) ([]persistence.BookingGroup, error) {
	out := make([]persistence.BookingGroup, 0, len(r.groups))
	for _, group := range r.groups {
		if requesterID != "" && group.RequesterID != requesterID {
			continue
		}
		out = append(out, group)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeBookingRepo) GetOccurrence(ctx context.Context, id string) (persistence.Occurrence, error) {
	occ, ok := r.occurrences[id]
	if !ok {
		return persistence.Occurrence{}, persistence.ErrNotFound
	}
	return occ, nil
}

func (r *fakeBookingRepo) UpdateOccurrence(ctx context.Context, occurrence persistence.Occurrence) error {
	if _, ok := r.occurrences[occurrence.ID]; !ok {
		return persistence.ErrNotFound
	}
	r.occurrences[occurrence.ID] = occurrence
	return nil
}

func (r *fakeBookingRepo) ListOccurrences(ctx context.Context, filter persistence.OccurrenceFilter) ([]persistence.Occurrence, error) {
	out := make([]persistence.Occurrence, 0, len(r.occurrences))
	for _, occ := range r.occurrences {
		if filter.ResourceID != "" && occ.ResourceID != filter.ResourceID {
			continue
		}
		if filter.GroupID != "" && occ.GroupID != filter.GroupID {
			continue
		}
		if filter.RequesterID != "" && occ.RequesterID != filter.RequesterID {
			continue
		}
		if filter.ActiveOnly && occ.Status != "pending" && occ.Status != "approved" {
			continue
		}
		if filter.OverlappingStart != nil && filter.OverlappingEnd != nil {
			if !occ.Start.Before(*filter.OverlappingEnd) || !filter.OverlappingStart.Before(occ.End) {
				continue
			}
		}
		out = append(out, occ)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

type fakeSessionRepo struct {
	sessions map[string]persistence.Session
	err      error
}

func newFakeSessionRepo(sessions ...persistence.Session) *fakeSessionRepo {
	repo := &fakeSessionRepo{sessions: make(map[string]persistence.Session)}
	for _, s := range sessions {
		repo.sessions[s.Token] = s
	}
	return repo
}

func (r *fakeSessionRepo) CreateSession(ctx context.Context, session persistence.Session) (persistence.Session, error) {
	if r.err != nil {
		return persistence.Session{}, r.err
	}
	r.sessions[session.Token] = session
	return session, nil
}

func (r *fakeSessionRepo) GetSession(ctx context.Context, token string) (persistence.Session, error) {
	if r.err != nil {
		return persistence.Session{}, r.err
	}
	session, ok := r.sessions[token]
	if !ok {
		return persistence.Session{}, persistence.ErrNotFound
	}
	return session, nil
}

func (r *fakeSessionRepo) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (persistence.Session, error) {
	if r.err != nil {
		return persistence.Session{}, r.err
	}
	session, ok := r.sessions[token]
	if !ok || session.RevokedAt != nil {
		return persistence.Session{}, persistence.ErrNotFound
	}
	session.RevokedAt = &revokedAt
	r.sessions[token] = session
	return session, nil
}

func (r *fakeSessionRepo) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	if r.err != nil {
		return r.err
	}
	for token, session := range r.sessions {
		if session.ExpiresAt.Before(reference) {
			delete(r.sessions, token)
		}
	}
	return nil
}

type fakeNotificationRepo struct {
	notifications []persistence.Notification
	createErr     error
}

func (r *fakeNotificationRepo) CreateNotification(ctx context.Context, notification persistence.Notification) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.notifications = append(r.notifications, notification)
	return nil
}

func (r *fakeNotificationRepo) ListNotificationsForUser(ctx context.Context, userID string) ([]persistence.Notification, error) {
	out := make([]persistence.Notification, 0, len(r.notifications))
	for _, n := range r.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (r *fakeNotificationRepo) MarkNotificationRead(ctx context.Context, id, userID string) error {
	for i, n := range r.notifications {
		if n.ID == id && n.UserID == userID {
			r.notifications[i].Read = true
			return nil
		}
	}
	return persistence.ErrNotFound
}

type fakeAuditRepo struct {
	entries []persistence.AuditEntry
}

func (r *fakeAuditRepo) AppendAudit(ctx context.Context, entry persistence.AuditEntry) error {
	r.entries = append(r.entries, entry)
	return nil
}

func (r *fakeAuditRepo) ListAudit(ctx context.Context, limit int) ([]persistence.AuditEntry, error) {
	return r.entries, nil
}

func testIDGenerator(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

var testClock = time.Date(2024, time.April, 1, 9, 0, 0, 0, time.UTC)

func fixedClock() func() time.Time {
	return func() time.Time { return testClock }
}
