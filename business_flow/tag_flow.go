package businessflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/amirphl/Tsukuyomi/app/admin"
	"github.com/amirphl/Tsukuyomi/app/dto"
	"github.com/amirphl/Tsukuyomi/models"
	"github.com/amirphl/Tsukuyomi/repository"
	"github.com/amirphl/Tsukuyomi/utils"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// TagFlow handles tag maintenance from the admin back office
type TagFlow interface {
	Get(ctx context.Context, id string) (*dto.TagDTO, error)
	Create(ctx context.Context, params map[string]any, metadata *ClientMetadata) (*dto.TagDTO, error)
	Update(ctx context.Context, id string, params map[string]any, metadata *ClientMetadata) (*dto.TagDTO, error)
	Delete(ctx context.Context, id string, metadata *ClientMetadata) error
}

// TagFlowImpl implements the tag business flow
type TagFlowImpl struct {
	tagRepo repository.TagRepository
	tx      repository.Transactor
	audit   auditor
}

// NewTagFlow creates a new tag flow instance
func NewTagFlow(tagRepo repository.TagRepository, auditRepo repository.AuditLogRepository, tx repository.Transactor, logger zerolog.Logger) TagFlow {
	return &TagFlowImpl{
		tagRepo: tagRepo,
		tx:      tx,
		audit:   auditor{repo: auditRepo, logger: logger},
	}
}

func (tf *TagFlowImpl) Get(ctx context.Context, id string) (*dto.TagDTO, error) {
	tag, err := tf.find(ctx, id)
	if err != nil {
		return nil, err
	}
	out := ToTagDTO(*tag)
	return &out, nil
}

// Create normalizes the name, validates, and checks uniqueness on the normalized form
func (tf *TagFlowImpl) Create(ctx context.Context, params map[string]any, metadata *ClientMetadata) (*dto.TagDTO, error) {
	params = admin.Permit(admin.TagManifest, params)

	tag := &models.Tag{}
	if err := applyTagParams(tag, params); err != nil {
		return nil, NewBusinessError("TAG_VALIDATION_FAILED", "Tag validation failed", err)
	}

	err := tf.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := tf.validate(ctx, tag, nil); err != nil {
			return err
		}
		return tf.tagRepo.Save(ctx, tag)
	})
	if err != nil {
		err = tf.translate(err)
		tf.audit.record(ctx, adminIDFrom(ctx), models.AuditActionTagCreated, "Tag creation failed", false, err, metadata)
		if _, ok := AsFieldErrors(err); ok {
			return nil, NewBusinessError("TAG_VALIDATION_FAILED", "Tag validation failed", err)
		}
		return nil, NewBusinessError("TAG_CREATE_FAILED", "Failed to create tag", err)
	}

	tf.audit.record(ctx, adminIDFrom(ctx), models.AuditActionTagCreated, fmt.Sprintf("Tag created: %s", tag.Name), true, nil, metadata)
	out := ToTagDTO(*tag)
	return &out, nil
}

// Update writes only the permitted keys present in params
func (tf *TagFlowImpl) Update(ctx context.Context, id string, params map[string]any, metadata *ClientMetadata) (*dto.TagDTO, error) {
	params = admin.Permit(admin.TagManifest, params)

	var tag *models.Tag
	err := tf.tx.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		tag, err = tf.find(ctx, id)
		if err != nil {
			return err
		}

		if err := applyTagParams(tag, params); err != nil {
			return err
		}
		if err := tf.validate(ctx, tag, &tag.ID); err != nil {
			return err
		}
		if len(params) == 0 {
			return nil
		}

		now := utils.UTCNow()
		updates := map[string]any{
			"name":         tag.Name,
			"description":  tag.Description,
			"tag_type":     tag.TagType,
			"tag_category": tag.TagCategory,
			"updated_at":   now,
		}
		if err := tf.tagRepo.Update(ctx, tag.ID, updates); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrTagNotFound
			}
			return err
		}
		tag.UpdatedAt = now
		return nil
	})
	if err != nil {
		err = tf.translate(err)
		if IsTagNotFound(err) {
			return nil, err
		}
		tf.audit.record(ctx, adminIDFrom(ctx), models.AuditActionTagUpdated, fmt.Sprintf("Tag update failed: %s", id), false, err, metadata)
		if _, ok := AsFieldErrors(err); ok {
			return nil, NewBusinessError("TAG_VALIDATION_FAILED", "Tag validation failed", err)
		}
		return nil, NewBusinessError("TAG_UPDATE_FAILED", "Failed to update tag", err)
	}

	tf.audit.record(ctx, adminIDFrom(ctx), models.AuditActionTagUpdated, fmt.Sprintf("Tag updated: %s", tag.Name), true, nil, metadata)
	out := ToTagDTO(*tag)
	return &out, nil
}

func (tf *TagFlowImpl) Delete(ctx context.Context, id string, metadata *ClientMetadata) error {
	tagID, err := parseID(id, ErrTagNotFound)
	if err != nil {
		return err
	}

	err = tf.tx.WithTransaction(ctx, func(ctx context.Context) error {
		return tf.tagRepo.Delete(ctx, tagID)
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTagNotFound
		}
		tf.audit.record(ctx, adminIDFrom(ctx), models.AuditActionTagDeleted, fmt.Sprintf("Tag deletion failed: %s", id), false, err, metadata)
		return NewBusinessError("TAG_DELETE_FAILED", "Failed to delete tag", err)
	}

	tf.audit.record(ctx, adminIDFrom(ctx), models.AuditActionTagDeleted, fmt.Sprintf("Tag deleted: %s", id), true, nil, metadata)
	return nil
}

// validate runs the model rules and then the uniqueness check against stored names
func (tf *TagFlowImpl) validate(ctx context.Context, tag *models.Tag, exceptID *uuid.UUID) error {
	errs := models.ValidateTag(tag)
	if len(errs.On("name")) == 0 {
		existing, err := tf.tagRepo.ByName(ctx, tag.Name)
		if err != nil {
			return err
		}
		if existing != nil && (exceptID == nil || existing.ID != *exceptID) {
			errs.Add("name", models.MsgTaken)
		}
	}
	return errs.Err()
}

// translate maps a unique index violation that slipped past the check to the same field error
func (tf *TagFlowImpl) translate(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return models.FieldErrors{{Field: "name", Message: models.MsgTaken}}
	}
	return err
}

func (tf *TagFlowImpl) find(ctx context.Context, id string) (*models.Tag, error) {
	tagID, err := parseID(id, ErrTagNotFound)
	if err != nil {
		return nil, err
	}
	tag, err := tf.tagRepo.ByID(ctx, tagID)
	if err != nil {
		return nil, NewBusinessError("TAG_LOOKUP_FAILED", "Failed to lookup tag", err)
	}
	if tag == nil {
		return nil, ErrTagNotFound
	}
	return tag, nil
}

// applyTagParams copies permitted params onto the tag. Blank optional values clear the column.
func applyTagParams(tag *models.Tag, params map[string]any) error {
	var errs models.FieldErrors
	for key, raw := range params {
		value, ok := stringParam(raw)
		if !ok {
			errs.Add(key, models.MsgInvalid)
			continue
		}
		switch key {
		case "name":
			tag.Name = models.NormalizeTagName(value)
		case "description":
			tag.Description = utils.NilIfBlank(value)
		case "tag_type":
			tag.TagType = strings.TrimSpace(value)
		case "tag_category":
			tag.TagCategory = utils.NilIfBlank(strings.TrimSpace(value))
		}
	}
	return errs.Err()
}

func stringParam(v any) (string, bool) {
	switch s := v.(type) {
	case nil:
		return "", true
	case string:
		return s, true
	case []string:
		if len(s) == 0 {
			return "", true
		}
		return s[len(s)-1], true
	case fmt.Stringer:
		return s.String(), true
	}
	return "", false
}

// adminIDFrom reads the authenticated admin placed on the context by the admin middleware
func adminIDFrom(ctx context.Context) *uuid.UUID {
	if id, ok := ctx.Value(utils.AdminIDKey).(uuid.UUID); ok && id != uuid.Nil {
		return &id
	}
	return nil
}
