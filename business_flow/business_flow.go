package businessflow

import (
	"context"

	"github.com/amirphl/Tsukuyomi/app/dto"
	"github.com/amirphl/Tsukuyomi/models"
	"github.com/amirphl/Tsukuyomi/repository"
	"github.com/amirphl/Tsukuyomi/utils"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ClientMetadata holds client information for audit logging and sign-in tracking
type ClientMetadata struct {
	IPAddress  string            `json:"ip_address"`
	UserAgent  string            `json:"user_agent"`
	RequestID  string            `json:"request_id,omitempty"`
	Additional map[string]string `json:"additional,omitempty"`
}

// NewClientMetadata creates a new ClientMetadata instance with basic information
func NewClientMetadata(ipAddress, userAgent string) *ClientMetadata {
	return &ClientMetadata{
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Additional: make(map[string]string),
	}
}

// AddAdditional adds additional custom information to the metadata
func (cm *ClientMetadata) AddAdditional(key, value string) {
	if cm.Additional == nil {
		cm.Additional = make(map[string]string)
	}
	cm.Additional[key] = value
}

// SetRequestID sets the request ID
func (cm *ClientMetadata) SetRequestID(requestID string) {
	cm.RequestID = requestID
}

// auditor writes audit rows. Failures are logged and never fail the flow.
type auditor struct {
	repo   repository.AuditLogRepository
	logger zerolog.Logger
}

func (a auditor) record(ctx context.Context, userID *uuid.UUID, action, description string, success bool, cause error, metadata *ClientMetadata) {
	if a.repo == nil {
		return
	}

	entry := &models.AuditLog{
		UserID:      userID,
		Action:      action,
		Description: &description,
		Success:     utils.ToPtr(success),
	}
	if cause != nil {
		entry.ErrorMessage = utils.ToPtr(cause.Error())
	}
	if metadata != nil {
		entry.IPAddress = utils.NilIfBlank(metadata.IPAddress)
		entry.UserAgent = utils.NilIfBlank(metadata.UserAgent)
		entry.RequestID = utils.NilIfBlank(metadata.RequestID)
	}
	if entry.RequestID == nil {
		if requestID, ok := ctx.Value(utils.RequestIDKey).(string); ok {
			entry.RequestID = utils.NilIfBlank(requestID)
		}
	}

	// the row must survive a rolled back flow transaction
	ctx = context.WithValue(ctx, repository.TxContextKey, nil)
	if err := a.repo.Save(ctx, entry); err != nil {
		a.logger.Warn().Err(err).Str("action", action).Msg("failed to write audit log")
	}
}

// ToUserDTO converts a user model to its public view
func ToUserDTO(u models.User) dto.UserDTO {
	roles := []string(u.Roles)
	if roles == nil {
		roles = []string{}
	}
	return dto.UserDTO{
		ID:           u.ID.String(),
		Email:        u.Email,
		FirstName:    utils.StringValue(u.FirstName),
		LastName:     utils.StringValue(u.LastName),
		TimeZone:     u.TimeZone,
		Locale:       u.Locale,
		Roles:        roles,
		SignInCount:  u.SignInCount,
		LastSignInAt: utils.FormatTime(u.LastSignInAt),
		ConfirmedAt:  utils.FormatTime(u.ConfirmedAt),
		CreatedAt:    utils.FormatTime(&u.CreatedAt),
	}
}

// ToRegionResource converts a region model to a JSON:API resource
func ToRegionResource(r models.Region) dto.RegionResource {
	return dto.RegionResource{
		ID:   r.ID.String(),
		Type: dto.RegionResourceType,
		Attributes: dto.RegionAttributes{
			Name:         r.Name,
			Abbreviation: r.Abbreviation,
			TimeZone:     r.TimeZone,
			AdminNotes:   utils.StringValue(r.AdminNotes),
			Archived:     r.Archived,
			Test:         r.Test,
		},
	}
}

func ToTagDTO(t models.Tag) dto.TagDTO {
	return dto.TagDTO{
		ID:          t.ID.String(),
		Name:        t.Name,
		Description: utils.StringValue(t.Description),
		TagType:     t.TagType,
		TagCategory: utils.StringValue(t.TagCategory),
		CreatedAt:   utils.FormatTime(&t.CreatedAt),
		UpdatedAt:   utils.FormatTime(&t.UpdatedAt),
	}
}

func ToCalendarDTO(c models.Calendar) dto.CalendarDTO {
	return dto.CalendarDTO{
		ID:          c.ID.String(),
		Name:        c.Name,
		Description: utils.StringValue(c.Description),
		Archived:    c.Archived,
		Test:        c.Test,
	}
}

// parseID treats a malformed id like an unknown one
func parseID(raw string, notFound error) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, notFound
	}
	return id, nil
}
