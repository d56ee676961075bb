package businessflow

import (
	"context"
	"testing"

	"github.com/amirphl/Tsukuyomi/models"
	"github.com/amirphl/Tsukuyomi/utils"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTagFlow(tags ...models.Tag) (TagFlow, *fakeTagRepo, *fakeAuditRepo) {
	repo := newFakeTagRepo(tags...)
	audit := &fakeAuditRepo{}
	return NewTagFlow(repo, audit, passthroughTx{}, zerolog.Nop()), repo, audit
}

func TestTagFlow(t *testing.T) {
	adminID := uuid.New()
	ctx := context.WithValue(context.Background(), utils.AdminIDKey, adminID)
	md := NewClientMetadata("127.0.0.1", "test-agent")

	t.Run("CreateStoresLowercaseName", func(t *testing.T) {
		flow, _, audit := newTestTagFlow()

		tag, err := flow.Create(ctx, map[string]any{
			"name":         "  Jazz ",
			"tag_type":     models.TagTypeTopic,
			"tag_category": "culture",
			"description":  "",
		}, md)
		require.NoError(t, err)
		assert.Equal(t, "jazz", tag.Name)
		assert.Equal(t, "culture", tag.TagCategory)
		assert.Empty(t, tag.Description)

		assert.Equal(t, []string{models.AuditActionTagCreated}, audit.actions())
		require.NotNil(t, audit.entries[0].UserID)
		assert.Equal(t, adminID, *audit.entries[0].UserID)
	})

	t.Run("DuplicateNameIgnoresCase", func(t *testing.T) {
		flow, repo, _ := newTestTagFlow(models.Tag{Name: "jazz", TagType: models.TagTypeTopic})

		_, err := flow.Create(ctx, map[string]any{"name": "JAZZ", "tag_type": models.TagTypeTopic}, md)
		require.Error(t, err)
		assert.Equal(t, "TAG_VALIDATION_FAILED", CodeOf(err))

		fieldErrs, ok := AsFieldErrors(err)
		require.True(t, ok)
		assert.Equal(t, []string{models.MsgTaken}, fieldErrs.On("name"))

		count, _ := repo.Count(ctx, models.TagFilter{})
		assert.Equal(t, int64(1), count)
	})

	t.Run("MissingNameAndType", func(t *testing.T) {
		flow, _, audit := newTestTagFlow()

		_, err := flow.Create(ctx, map[string]any{"tag_category": "opera"}, md)
		require.Error(t, err)

		fieldErrs, ok := AsFieldErrors(err)
		require.True(t, ok)
		assert.Equal(t, []string{models.MsgBlank}, fieldErrs.On("name"))
		assert.Equal(t, []string{models.MsgBlank}, fieldErrs.On("tag_type"))
		assert.Equal(t, []string{models.MsgInclusion}, fieldErrs.On("tag_category"))

		// Failures are audited too
		require.Len(t, audit.entries, 1)
		assert.True(t, audit.entries[0].IsFailed())
	})

	t.Run("UnknownKeysAreDropped", func(t *testing.T) {
		flow, repo, _ := newTestTagFlow()

		tag, err := flow.Create(ctx, map[string]any{
			"name":       "folk",
			"tag_type":   models.TagTypeTopic,
			"id":         uuid.New().String(),
			"created_at": "1999-01-01",
		}, md)
		require.NoError(t, err)

		stored, err := repo.ByName(ctx, "folk")
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.Equal(t, stored.ID.String(), tag.ID)
		assert.NotEqual(t, 1999, stored.CreatedAt.Year())
	})

	t.Run("NonStringValueIsInvalid", func(t *testing.T) {
		flow, _, _ := newTestTagFlow()

		_, err := flow.Create(ctx, map[string]any{"name": 42, "tag_type": models.TagTypeTopic}, md)
		fieldErrs, ok := AsFieldErrors(err)
		require.True(t, ok)
		assert.Contains(t, fieldErrs.On("name"), models.MsgInvalid)
	})

	t.Run("UpdateMayKeepItsOwnName", func(t *testing.T) {
		existing := models.Tag{ID: uuid.New(), Name: "blues", TagType: models.TagTypeTopic}
		flow, _, _ := newTestTagFlow(existing)

		tag, err := flow.Update(ctx, existing.ID.String(), map[string]any{
			"name":     "Blues",
			"tag_type": models.TagTypeFormat,
		}, md)
		require.NoError(t, err)
		assert.Equal(t, "blues", tag.Name)
		assert.Equal(t, models.TagTypeFormat, tag.TagType)
	})

	t.Run("UpdateToTakenName", func(t *testing.T) {
		first := models.Tag{ID: uuid.New(), Name: "rock", TagType: models.TagTypeTopic}
		second := models.Tag{ID: uuid.New(), Name: "pop", TagType: models.TagTypeTopic}
		flow, repo, _ := newTestTagFlow(first, second)

		_, err := flow.Update(ctx, second.ID.String(), map[string]any{"name": "Rock"}, md)
		fieldErrs, ok := AsFieldErrors(err)
		require.True(t, ok)
		assert.Equal(t, []string{models.MsgTaken}, fieldErrs.On("name"))

		stored, _ := repo.ByID(ctx, second.ID)
		assert.Equal(t, "pop", stored.Name)
	})

	t.Run("DeleteThenNotFound", func(t *testing.T) {
		existing := models.Tag{ID: uuid.New(), Name: "gone", TagType: models.TagTypeTopic}
		flow, _, audit := newTestTagFlow(existing)

		require.NoError(t, flow.Delete(ctx, existing.ID.String(), md))
		assert.True(t, IsTagNotFound(flow.Delete(ctx, existing.ID.String(), md)))

		_, err := flow.Get(ctx, existing.ID.String())
		assert.True(t, IsTagNotFound(err))
		assert.Equal(t, []string{models.AuditActionTagDeleted}, audit.actions())
	})
}
