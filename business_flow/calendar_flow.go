package businessflow

import (
	"context"
	"errors"

	"github.com/amirphl/Tsukuyomi/app/dto"
	"github.com/amirphl/Tsukuyomi/models"
	"github.com/amirphl/Tsukuyomi/repository"
)

// CalendarFlow lists calendars through their named scopes and manages membership
type CalendarFlow interface {
	List(ctx context.Context, scope string) ([]dto.CalendarDTO, error)
	ListForUser(ctx context.Context, userID string) ([]dto.CalendarDTO, error)
	AddMember(ctx context.Context, calendarID, userID string) error
	RemoveMember(ctx context.Context, calendarID, userID string) error
}

type CalendarFlowImpl struct {
	calendarRepo repository.CalendarRepository
	userRepo     repository.UserRepository
}

func NewCalendarFlow(calendarRepo repository.CalendarRepository, userRepo repository.UserRepository) CalendarFlow {
	return &CalendarFlowImpl{
		calendarRepo: calendarRepo,
		userRepo:     userRepo,
	}
}

// List returns the calendars of scope ("active" when empty), ordered by name
func (cf *CalendarFlowImpl) List(ctx context.Context, scope string) ([]dto.CalendarDTO, error) {
	if scope == "" {
		scope = string(models.CalendarScopeActive)
	}
	s := models.CalendarScope(scope)
	if _, ok := s.Func(); !ok {
		return nil, ErrInvalidScope
	}

	calendars, err := cf.calendarRepo.ListByScope(ctx, s, "name ASC", 0, 0)
	if err != nil {
		return nil, NewBusinessError("CALENDAR_LIST_FAILED", "Failed to list calendars", err)
	}
	return toCalendarDTOs(calendars), nil
}

func (cf *CalendarFlowImpl) ListForUser(ctx context.Context, userID string) ([]dto.CalendarDTO, error) {
	id, err := parseID(userID, ErrUserNotFound)
	if err != nil {
		return nil, err
	}
	calendars, err := cf.calendarRepo.ListByUser(ctx, id)
	if err != nil {
		return nil, NewBusinessError("CALENDAR_LIST_FAILED", "Failed to list calendars", err)
	}
	return toCalendarDTOs(calendars), nil
}

// AddMember shares a calendar with a user. Adding an existing member is a no-op.
func (cf *CalendarFlowImpl) AddMember(ctx context.Context, calendarID, userID string) error {
	cID, err := parseID(calendarID, ErrCalendarNotFound)
	if err != nil {
		return err
	}
	uID, err := parseID(userID, ErrUserNotFound)
	if err != nil {
		return err
	}

	calendar, err := cf.calendarRepo.ByID(ctx, cID)
	if err != nil {
		return NewBusinessError("CALENDAR_LOOKUP_FAILED", "Failed to lookup calendar", err)
	}
	if calendar == nil {
		return ErrCalendarNotFound
	}
	user, err := cf.userRepo.ByID(ctx, uID)
	if err != nil {
		return NewBusinessError("USER_LOOKUP_FAILED", "Failed to lookup user", err)
	}
	if user == nil {
		return ErrUserNotFound
	}

	if err := cf.calendarRepo.AddUser(ctx, cID, uID); err != nil {
		return NewBusinessError("CALENDAR_MEMBER_ADD_FAILED", "Failed to add calendar member", err)
	}
	return nil
}

func (cf *CalendarFlowImpl) RemoveMember(ctx context.Context, calendarID, userID string) error {
	cID, err := parseID(calendarID, ErrCalendarNotFound)
	if err != nil {
		return err
	}
	uID, err := parseID(userID, ErrUserNotFound)
	if err != nil {
		return err
	}

	if err := cf.calendarRepo.RemoveUser(ctx, cID, uID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrCalendarNotFound
		}
		return NewBusinessError("CALENDAR_MEMBER_REMOVE_FAILED", "Failed to remove calendar member", err)
	}
	return nil
}

func toCalendarDTOs(calendars []*models.Calendar) []dto.CalendarDTO {
	out := make([]dto.CalendarDTO, 0, len(calendars))
	for _, c := range calendars {
		out = append(out, ToCalendarDTO(*c))
	}
	return out
}
