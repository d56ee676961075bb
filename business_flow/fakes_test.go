package businessflow

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/amirphl/Tsukuyomi/app/services"
	"github.com/amirphl/Tsukuyomi/models"
	"github.com/amirphl/Tsukuyomi/repository"
	"github.com/google/uuid"
	"gorm.io/gorm/clause"
)

type passthroughTx struct{}

func (passthroughTx) WithTransaction(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

// fakeRegionRepo keeps regions in memory
type fakeRegionRepo struct {
	mu      sync.Mutex
	regions map[uuid.UUID]models.Region
}

func newFakeRegionRepo(regions ...models.Region) *fakeRegionRepo {
	r := &fakeRegionRepo{regions: map[uuid.UUID]models.Region{}}
	for _, region := range regions {
		if region.ID == uuid.Nil {
			region.ID = uuid.New()
		}
		r.regions[region.ID] = region
	}
	return r
}

func (r *fakeRegionRepo) ByID(_ context.Context, id uuid.UUID) (*models.Region, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	region, ok := r.regions[id]
	if !ok {
		return nil, nil
	}
	return &region, nil
}

func (r *fakeRegionRepo) ByFilter(_ context.Context, filter models.RegionFilter, _ string, limit, offset int) ([]*models.Region, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Region
	for _, region := range r.regions {
		if filter.NameContains != nil && !strings.Contains(strings.ToLower(region.Name), strings.ToLower(*filter.NameContains)) {
			continue
		}
		if filter.Archived != nil && region.Archived != *filter.Archived {
			continue
		}
		if filter.Test != nil && region.Test != *filter.Test {
			continue
		}
		region := region
		out = append(out, &region)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return window(out, limit, offset), nil
}

func (r *fakeRegionRepo) Save(_ context.Context, region *models.Region) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if region.ID == uuid.Nil {
		region.ID = uuid.New()
	}
	region.CreatedAt = time.Now().UTC()
	region.UpdatedAt = region.CreatedAt
	r.regions[region.ID] = *region
	return nil
}

func (r *fakeRegionRepo) SaveBatch(ctx context.Context, regions []*models.Region) error {
	for _, region := range regions {
		if err := r.Save(ctx, region); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeRegionRepo) Count(ctx context.Context, filter models.RegionFilter) (int64, error) {
	all, _ := r.ByFilter(ctx, filter, "", 0, 0)
	return int64(len(all)), nil
}

func (r *fakeRegionRepo) Exists(ctx context.Context, filter models.RegionFilter) (bool, error) {
	n, err := r.Count(ctx, filter)
	return n > 0, err
}

func (r *fakeRegionRepo) Update(_ context.Context, id uuid.UUID, updates map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	region, ok := r.regions[id]
	if !ok {
		return repository.ErrNotFound
	}
	for k, v := range updates {
		switch k {
		case "name":
			region.Name = v.(string)
		case "abbreviation":
			region.Abbreviation = v.(string)
		case "time_zone":
			region.TimeZone = v.(string)
		case "admin_notes":
			region.AdminNotes = asStringPtr(v)
		case "archived":
			region.Archived = v.(bool)
		case "test":
			region.Test = v.(bool)
		case "updated_at":
			region.UpdatedAt = v.(time.Time)
		}
	}
	r.regions[id] = region
	return nil
}

func (r *fakeRegionRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.regions[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.regions, id)
	return nil
}

// fakeTagRepo mirrors the lowercase name hook of the model
type fakeTagRepo struct {
	mu   sync.Mutex
	tags map[uuid.UUID]models.Tag
}

func newFakeTagRepo(tags ...models.Tag) *fakeTagRepo {
	r := &fakeTagRepo{tags: map[uuid.UUID]models.Tag{}}
	for _, tag := range tags {
		if tag.ID == uuid.Nil {
			tag.ID = uuid.New()
		}
		tag.Name = models.NormalizeTagName(tag.Name)
		r.tags[tag.ID] = tag
	}
	return r
}

func (r *fakeTagRepo) ByID(_ context.Context, id uuid.UUID) (*models.Tag, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tag, ok := r.tags[id]
	if !ok {
		return nil, nil
	}
	return &tag, nil
}

func (r *fakeTagRepo) ByName(_ context.Context, name string) (*models.Tag, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, tag := range r.tags {
		if tag.Name == models.NormalizeTagName(name) {
			return &tag, nil
		}
	}
	return nil, nil
}

func (r *fakeTagRepo) ListByNames(ctx context.Context, names []string) ([]*models.Tag, error) {
	var out []*models.Tag
	for _, n := range names {
		tag, _ := r.ByName(ctx, n)
		if tag != nil {
			out = append(out, tag)
		}
	}
	return out, nil
}

func (r *fakeTagRepo) ByFilter(_ context.Context, filter models.TagFilter, _ string, limit, offset int) ([]*models.Tag, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Tag
	for _, tag := range r.tags {
		if filter.NameContains != nil && !strings.Contains(tag.Name, strings.ToLower(*filter.NameContains)) {
			continue
		}
		if filter.TagType != nil && tag.TagType != *filter.TagType {
			continue
		}
		if filter.TagCategory != nil && (tag.TagCategory == nil || *tag.TagCategory != *filter.TagCategory) {
			continue
		}
		tag := tag
		out = append(out, &tag)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return window(out, limit, offset), nil
}

func (r *fakeTagRepo) Save(_ context.Context, tag *models.Tag) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if tag.ID == uuid.Nil {
		tag.ID = uuid.New()
	}
	tag.Name = models.NormalizeTagName(tag.Name)
	tag.CreatedAt = time.Now().UTC()
	tag.UpdatedAt = tag.CreatedAt
	r.tags[tag.ID] = *tag
	return nil
}

func (r *fakeTagRepo) SaveBatch(ctx context.Context, tags []*models.Tag) error {
	for _, tag := range tags {
		if err := r.Save(ctx, tag); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeTagRepo) Count(ctx context.Context, filter models.TagFilter) (int64, error) {
	all, _ := r.ByFilter(ctx, filter, "", 0, 0)
	return int64(len(all)), nil
}

func (r *fakeTagRepo) Exists(ctx context.Context, filter models.TagFilter) (bool, error) {
	n, err := r.Count(ctx, filter)
	return n > 0, err
}

func (r *fakeTagRepo) Update(_ context.Context, id uuid.UUID, updates map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	tag, ok := r.tags[id]
	if !ok {
		return repository.ErrNotFound
	}
	for k, v := range updates {
		switch k {
		case "name":
			tag.Name = models.NormalizeTagName(v.(string))
		case "description":
			tag.Description = asStringPtr(v)
		case "tag_type":
			tag.TagType = v.(string)
		case "tag_category":
			tag.TagCategory = asStringPtr(v)
		case "updated_at":
			tag.UpdatedAt = v.(time.Time)
		}
	}
	r.tags[id] = tag
	return nil
}

func (r *fakeTagRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tags[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.tags, id)
	return nil
}

// fakeUserRepo stores users by id and answers the digest lookups
type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]models.User
}

func newFakeUserRepo(users ...models.User) *fakeUserRepo {
	r := &fakeUserRepo{users: map[uuid.UUID]models.User{}}
	for _, u := range users {
		if u.ID == uuid.Nil {
			u.ID = uuid.New()
		}
		r.users[u.ID] = u
	}
	return r
}

// get returns a copy of the stored user
func (r *fakeUserRepo) get(id uuid.UUID) *models.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	u := r.users[id]
	return &u
}

func (r *fakeUserRepo) find(match func(models.User) bool) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if match(u) {
			return &u, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) ByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.ID == id })
}

func (r *fakeUserRepo) ByEmail(_ context.Context, email string) (*models.User, error) {
	return r.find(func(u models.User) bool { return strings.EqualFold(u.Email, email) })
}

func (r *fakeUserRepo) ByToken(_ context.Context, digest string) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.Token != nil && *u.Token == digest })
}

func (r *fakeUserRepo) ByResetPasswordToken(_ context.Context, digest string) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.ResetPasswordToken != nil && *u.ResetPasswordToken == digest })
}

func (r *fakeUserRepo) ByConfirmationToken(_ context.Context, digest string) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.ConfirmationToken != nil && *u.ConfirmationToken == digest })
}

func (r *fakeUserRepo) ByUnlockToken(_ context.Context, digest string) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.UnlockToken != nil && *u.UnlockToken == digest })
}

func (r *fakeUserRepo) IncrementFailedAttempts(_ context.Context, id uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return 0, repository.ErrNotFound
	}
	u.FailedAttempts++
	r.users[id] = u
	return u.FailedAttempts, nil
}

func (r *fakeUserRepo) EmailTaken(_ context.Context, email string, exceptID *uuid.UUID) (bool, error) {
	u, _ := r.find(func(u models.User) bool {
		return strings.EqualFold(u.Email, email) && (exceptID == nil || u.ID != *exceptID)
	})
	return u != nil, nil
}

func (r *fakeUserRepo) ByFilter(_ context.Context, filter models.UserFilter, _ string, limit, offset int) ([]*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.User
	for _, u := range r.users {
		if filter.EmailContains != nil && !strings.Contains(strings.ToLower(u.Email), strings.ToLower(*filter.EmailContains)) {
			continue
		}
		if filter.Locked != nil && u.IsLocked() != *filter.Locked {
			continue
		}
		u := u
		out = append(out, &u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return window(out, limit, offset), nil
}

func (r *fakeUserRepo) Save(_ context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	r.users[u.ID] = *u
	return nil
}

func (r *fakeUserRepo) SaveBatch(ctx context.Context, users []*models.User) error {
	for _, u := range users {
		if err := r.Save(ctx, u); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeUserRepo) Count(ctx context.Context, filter models.UserFilter) (int64, error) {
	all, _ := r.ByFilter(ctx, filter, "", 0, 0)
	return int64(len(all)), nil
}

func (r *fakeUserRepo) Exists(ctx context.Context, filter models.UserFilter) (bool, error) {
	n, err := r.Count(ctx, filter)
	return n > 0, err
}

func (r *fakeUserRepo) Update(_ context.Context, id uuid.UUID, updates map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	for k, v := range updates {
		switch k {
		case "email":
			u.Email = v.(string)
		case "encrypted_password":
			u.EncryptedPassword = v.(string)
		case "token":
			u.Token = asStringPtr(v)
		case "failed_attempts":
			u.FailedAttempts = v.(int)
		case "sign_in_count":
			if _, ok := v.(clause.Expr); ok {
				u.SignInCount++
			}
		case "last_sign_in_at":
			u.LastSignInAt = asTimePtr(v)
		case "current_sign_in_at":
			u.CurrentSignInAt = asTimePtr(v)
		case "last_sign_in_ip":
			u.LastSignInIP = asStringPtr(v)
		case "current_sign_in_ip":
			u.CurrentSignInIP = asStringPtr(v)
		case "locked_at":
			u.LockedAt = asTimePtr(v)
		case "unlock_token":
			u.UnlockToken = asStringPtr(v)
		case "reset_password_token":
			u.ResetPasswordToken = asStringPtr(v)
		case "reset_password_sent_at":
			u.ResetPasswordSentAt = asTimePtr(v)
		case "confirmation_token":
			u.ConfirmationToken = asStringPtr(v)
		case "confirmation_sent_at":
			u.ConfirmationSentAt = asTimePtr(v)
		case "confirmed_at":
			u.ConfirmedAt = asTimePtr(v)
		case "unconfirmed_email":
			u.UnconfirmedEmail = asStringPtr(v)
		}
	}
	r.users[id] = u
	return nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

// fakeCalendarRepo evaluates scopes with CalendarScope.Includes
type fakeCalendarRepo struct {
	mu        sync.Mutex
	calendars map[uuid.UUID]models.Calendar
	members   map[uuid.UUID]map[uuid.UUID]bool
}

func newFakeCalendarRepo(calendars ...models.Calendar) *fakeCalendarRepo {
	r := &fakeCalendarRepo{calendars: map[uuid.UUID]models.Calendar{}, members: map[uuid.UUID]map[uuid.UUID]bool{}}
	for _, c := range calendars {
		if c.ID == uuid.Nil {
			c.ID = uuid.New()
		}
		r.calendars[c.ID] = c
	}
	return r
}

func (r *fakeCalendarRepo) ByID(_ context.Context, id uuid.UUID) (*models.Calendar, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.calendars[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *fakeCalendarRepo) ByFilter(_ context.Context, filter models.CalendarFilter, _ string, limit, offset int) ([]*models.Calendar, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Calendar
	for _, c := range r.calendars {
		if filter.NameContains != nil && !strings.Contains(strings.ToLower(c.Name), strings.ToLower(*filter.NameContains)) {
			continue
		}
		if filter.Scope != nil && !filter.Scope.Includes(&c) {
			continue
		}
		c := c
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return window(out, limit, offset), nil
}

func (r *fakeCalendarRepo) ListByScope(ctx context.Context, scope models.CalendarScope, orderBy string, limit, offset int) ([]*models.Calendar, error) {
	return r.ByFilter(ctx, models.CalendarFilter{Scope: &scope}, orderBy, limit, offset)
}

func (r *fakeCalendarRepo) Save(_ context.Context, c *models.Calendar) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	r.calendars[c.ID] = *c
	return nil
}

func (r *fakeCalendarRepo) SaveBatch(ctx context.Context, calendars []*models.Calendar) error {
	for _, c := range calendars {
		if err := r.Save(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeCalendarRepo) Count(ctx context.Context, filter models.CalendarFilter) (int64, error) {
	all, _ := r.ByFilter(ctx, filter, "", 0, 0)
	return int64(len(all)), nil
}

func (r *fakeCalendarRepo) Exists(ctx context.Context, filter models.CalendarFilter) (bool, error) {
	n, err := r.Count(ctx, filter)
	return n > 0, err
}

func (r *fakeCalendarRepo) Update(_ context.Context, id uuid.UUID, _ map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.calendars[id]; !ok {
		return repository.ErrNotFound
	}
	return nil
}

func (r *fakeCalendarRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.calendars[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.calendars, id)
	return nil
}

func (r *fakeCalendarRepo) AddUser(_ context.Context, calendarID, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.members[calendarID] == nil {
		r.members[calendarID] = map[uuid.UUID]bool{}
	}
	r.members[calendarID][userID] = true
	return nil
}

func (r *fakeCalendarRepo) RemoveUser(_ context.Context, calendarID, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.members[calendarID], userID)
	return nil
}

func (r *fakeCalendarRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]*models.Calendar, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Calendar
	for id, members := range r.members {
		if members[userID] {
			c := r.calendars[id]
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// fakeEventRepo keeps events in memory. Tags are whatever the seeded events carry.
type fakeEventRepo struct {
	mu     sync.Mutex
	events map[uuid.UUID]models.Event
}

func newFakeEventRepo(events ...models.Event) *fakeEventRepo {
	r := &fakeEventRepo{events: map[uuid.UUID]models.Event{}}
	for _, e := range events {
		if e.ID == uuid.Nil {
			e.ID = uuid.New()
		}
		r.events[e.ID] = e
	}
	return r
}

func (r *fakeEventRepo) ByID(_ context.Context, id uuid.UUID) (*models.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.events[id]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (r *fakeEventRepo) ByFilter(_ context.Context, filter models.EventFilter, _ string, limit, offset int) ([]*models.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Event
	for _, e := range r.events {
		if filter.NameContains != nil && !strings.Contains(strings.ToLower(e.Name), strings.ToLower(*filter.NameContains)) {
			continue
		}
		if filter.Archived != nil && e.Archived != *filter.Archived {
			continue
		}
		if filter.Test != nil && e.Test != *filter.Test {
			continue
		}
		if filter.StartsAfter != nil && (e.StartsAt == nil || e.StartsAt.Before(*filter.StartsAfter)) {
			continue
		}
		if filter.StartsBefore != nil && (e.StartsAt == nil || !e.StartsAt.Before(*filter.StartsBefore)) {
			continue
		}
		e := e
		out = append(out, &e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return window(out, limit, offset), nil
}

func (r *fakeEventRepo) Save(_ context.Context, e *models.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	r.events[e.ID] = *e
	return nil
}

func (r *fakeEventRepo) SaveBatch(ctx context.Context, events []*models.Event) error {
	for _, e := range events {
		if err := r.Save(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeEventRepo) Count(ctx context.Context, filter models.EventFilter) (int64, error) {
	all, _ := r.ByFilter(ctx, filter, "", 0, 0)
	return int64(len(all)), nil
}

func (r *fakeEventRepo) Exists(ctx context.Context, filter models.EventFilter) (bool, error) {
	n, err := r.Count(ctx, filter)
	return n > 0, err
}

func (r *fakeEventRepo) Update(_ context.Context, id uuid.UUID, _ map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.events[id]; !ok {
		return repository.ErrNotFound
	}
	return nil
}

func (r *fakeEventRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.events[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.events, id)
	return nil
}

func (r *fakeEventRepo) AttachTags(context.Context, uuid.UUID, []uuid.UUID) error { return nil }

func (r *fakeEventRepo) DetachTag(context.Context, uuid.UUID, uuid.UUID) error { return nil }

func (r *fakeEventRepo) ListTags(_ context.Context, eventID uuid.UUID) ([]*models.Tag, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Tag
	for _, t := range r.events[eventID].Tags {
		t := t
		out = append(out, &t)
	}
	return out, nil
}

type fakeLocationRepo struct {
	mu        sync.Mutex
	locations map[uuid.UUID]models.Location
}

func newFakeLocationRepo(locations ...models.Location) *fakeLocationRepo {
	r := &fakeLocationRepo{locations: map[uuid.UUID]models.Location{}}
	for _, l := range locations {
		if l.ID == uuid.Nil {
			l.ID = uuid.New()
		}
		r.locations[l.ID] = l
	}
	return r
}

func (r *fakeLocationRepo) ByID(_ context.Context, id uuid.UUID) (*models.Location, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.locations[id]
	if !ok {
		return nil, nil
	}
	return &l, nil
}

func (r *fakeLocationRepo) ByFilter(_ context.Context, filter models.LocationFilter, _ string, limit, offset int) ([]*models.Location, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Location
	for _, l := range r.locations {
		if filter.NameContains != nil && !strings.Contains(strings.ToLower(l.Name), strings.ToLower(*filter.NameContains)) {
			continue
		}
		if filter.RegionID != nil && (l.RegionID == nil || *l.RegionID != *filter.RegionID) {
			continue
		}
		if filter.Archived != nil && l.Archived != *filter.Archived {
			continue
		}
		l := l
		out = append(out, &l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return window(out, limit, offset), nil
}

func (r *fakeLocationRepo) ListByRegion(ctx context.Context, regionID uuid.UUID) ([]*models.Location, error) {
	return r.ByFilter(ctx, models.LocationFilter{RegionID: &regionID}, "", 0, 0)
}

func (r *fakeLocationRepo) Save(_ context.Context, l *models.Location) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	r.locations[l.ID] = *l
	return nil
}

func (r *fakeLocationRepo) SaveBatch(ctx context.Context, locations []*models.Location) error {
	for _, l := range locations {
		if err := r.Save(ctx, l); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeLocationRepo) Count(ctx context.Context, filter models.LocationFilter) (int64, error) {
	all, _ := r.ByFilter(ctx, filter, "", 0, 0)
	return int64(len(all)), nil
}

func (r *fakeLocationRepo) Exists(ctx context.Context, filter models.LocationFilter) (bool, error) {
	n, err := r.Count(ctx, filter)
	return n > 0, err
}

// fakeAuditRepo records every entry
type fakeAuditRepo struct {
	mu      sync.Mutex
	entries []models.AuditLog
}

func (r *fakeAuditRepo) Save(_ context.Context, entry *models.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry.ID = uint(len(r.entries) + 1)
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeAuditRepo) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.Action)
	}
	return out
}

func (r *fakeAuditRepo) ByFilter(context.Context, models.AuditLogFilter, string, int, int) ([]*models.AuditLog, error) {
	return nil, nil
}

func (r *fakeAuditRepo) Count(context.Context, models.AuditLogFilter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.entries)), nil
}

func (r *fakeAuditRepo) ListByUser(context.Context, uuid.UUID, int, int) ([]*models.AuditLog, error) {
	return nil, nil
}

func (r *fakeAuditRepo) ListByAction(context.Context, string, int, int) ([]*models.AuditLog, error) {
	return nil, nil
}

func (r *fakeAuditRepo) ListFailedActions(context.Context, int, int) ([]*models.AuditLog, error) {
	return nil, nil
}

// fakeCaptcha accepts exactly one angle
type fakeCaptcha struct {
	angle float64
}

func (c fakeCaptcha) GenerateRotate(context.Context) (*services.RotateChallenge, error) {
	return &services.RotateChallenge{ID: "challenge", MasterImageBase64: "master", ThumbImageBase64: "thumb"}, nil
}

func (c fakeCaptcha) VerifyRotate(_ context.Context, challengeID string, userAngle float64) bool {
	return challengeID == "challenge" && userAngle == c.angle
}

func window[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func asStringPtr(v any) *string {
	switch s := v.(type) {
	case string:
		return &s
	case *string:
		return s
	}
	return nil
}

func asTimePtr(v any) *time.Time {
	switch t := v.(type) {
	case time.Time:
		return &t
	case *time.Time:
		return t
	}
	return nil
}
