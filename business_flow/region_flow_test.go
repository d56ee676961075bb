package businessflow

import (
	"context"
	"testing"

	"github.com/amirphl/Tsukuyomi/app/dto"
	"github.com/amirphl/Tsukuyomi/models"
	"github.com/amirphl/Tsukuyomi/utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegionFlow(t *testing.T) {
	ctx := context.Background()

	t.Run("CreateAppliesDefaults", func(t *testing.T) {
		flow := NewRegionFlow(newFakeRegionRepo(), passthroughTx{})

		res, err := flow.Create(ctx, &dto.RegionRequest{
			Name:         utils.ToPtr("  Central Texas "),
			Abbreviation: utils.ToPtr("CTX"),
		})
		require.NoError(t, err)
		require.NotNil(t, res)

		assert.Equal(t, dto.RegionResourceType, res.Type)
		assert.NotEmpty(t, res.ID)
		assert.Equal(t, "Central Texas", res.Attributes.Name)
		assert.Equal(t, models.TimeZoneCentral, res.Attributes.TimeZone)
		assert.Equal(t, "", res.Attributes.AdminNotes)
		assert.False(t, res.Attributes.Archived)
		assert.False(t, res.Attributes.Test)
	})

	t.Run("CreateRejectsMissingAttributes", func(t *testing.T) {
		repo := newFakeRegionRepo()
		flow := NewRegionFlow(repo, passthroughTx{})

		res, err := flow.Create(ctx, &dto.RegionRequest{TimeZone: utils.ToPtr("Mars/Olympus")})
		require.Error(t, err)
		assert.Nil(t, res)
		assert.Equal(t, "REGION_VALIDATION_FAILED", CodeOf(err))

		fieldErrs, ok := AsFieldErrors(err)
		require.True(t, ok)
		assert.Equal(t, []string{models.MsgBlank}, fieldErrs.On("name"))
		assert.Equal(t, []string{models.MsgBlank}, fieldErrs.On("abbreviation"))
		assert.Equal(t, []string{models.MsgInvalid}, fieldErrs.On("time_zone"))

		count, _ := repo.Count(ctx, models.RegionFilter{})
		assert.Zero(t, count)
	})

	t.Run("UpdateKeepsOmittedAttributes", func(t *testing.T) {
		region := models.Region{ID: uuid.New(), Name: "Old", Abbreviation: "OLD", TimeZone: models.TimeZoneEastern}
		flow := NewRegionFlow(newFakeRegionRepo(region), passthroughTx{})

		res, err := flow.Update(ctx, region.ID.String(), &dto.RegionRequest{
			Name:       utils.ToPtr("New"),
			AdminNotes: utils.ToPtr("internal"),
			Archived:   utils.ToPtr(true),
		})
		require.NoError(t, err)
		assert.Equal(t, "New", res.Attributes.Name)
		assert.Equal(t, "OLD", res.Attributes.Abbreviation)
		assert.Equal(t, models.TimeZoneEastern, res.Attributes.TimeZone)
		assert.Equal(t, "internal", res.Attributes.AdminNotes)
		assert.True(t, res.Attributes.Archived)

		// The stored row matches the response
		stored, err := flow.Get(ctx, region.ID.String())
		require.NoError(t, err)
		assert.Equal(t, *res, *stored)
	})

	t.Run("UpdateRejectsBlankName", func(t *testing.T) {
		region := models.Region{ID: uuid.New(), Name: "Keep", Abbreviation: "K", TimeZone: models.TimeZoneCentral}
		repo := newFakeRegionRepo(region)
		flow := NewRegionFlow(repo, passthroughTx{})

		_, err := flow.Update(ctx, region.ID.String(), &dto.RegionRequest{Name: utils.ToPtr("  ")})
		require.Error(t, err)
		assert.Equal(t, "REGION_VALIDATION_FAILED", CodeOf(err))

		stored, _ := repo.ByID(ctx, region.ID)
		assert.Equal(t, "Keep", stored.Name)
	})

	t.Run("DeleteThenNotFound", func(t *testing.T) {
		region := models.Region{ID: uuid.New(), Name: "Gone", Abbreviation: "G", TimeZone: models.TimeZoneCentral}
		flow := NewRegionFlow(newFakeRegionRepo(region), passthroughTx{})

		require.NoError(t, flow.Delete(ctx, region.ID.String()))

		_, err := flow.Get(ctx, region.ID.String())
		assert.True(t, IsRegionNotFound(err))

		err = flow.Delete(ctx, region.ID.String())
		assert.True(t, IsRegionNotFound(err))
	})

	t.Run("MalformedIDIsNotFound", func(t *testing.T) {
		flow := NewRegionFlow(newFakeRegionRepo(), passthroughTx{})

		_, err := flow.Get(ctx, "not-a-uuid")
		assert.True(t, IsRegionNotFound(err))

		_, err = flow.Update(ctx, "not-a-uuid", &dto.RegionRequest{Name: utils.ToPtr("x")})
		assert.True(t, IsRegionNotFound(err))
		assert.True(t, IsNotFound(err))
	})

	t.Run("ListReturnsEveryRegion", func(t *testing.T) {
		flow := NewRegionFlow(newFakeRegionRepo(
			models.Region{Name: "B", Abbreviation: "B", TimeZone: models.TimeZoneCentral},
			models.Region{Name: "A", Abbreviation: "A", TimeZone: models.TimeZoneCentral},
		), passthroughTx{})

		list, err := flow.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "A", list[0].Attributes.Name)
	})
}
