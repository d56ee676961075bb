package businessflow

import (
	"context"
	"errors"
	"strings"

	"github.com/amirphl/Tsukuyomi/app/dto"
	"github.com/amirphl/Tsukuyomi/models"
	"github.com/amirphl/Tsukuyomi/repository"
	"github.com/amirphl/Tsukuyomi/utils"
)

// RegionFlow handles the region resource of the REST API
type RegionFlow interface {
	List(ctx context.Context) ([]dto.RegionResource, error)
	Get(ctx context.Context, id string) (*dto.RegionResource, error)
	Create(ctx context.Context, req *dto.RegionRequest) (*dto.RegionResource, error)
	Update(ctx context.Context, id string, req *dto.RegionRequest) (*dto.RegionResource, error)
	Delete(ctx context.Context, id string) error
}

// RegionFlowImpl implements the region business flow
type RegionFlowImpl struct {
	regionRepo repository.RegionRepository
	tx         repository.Transactor
}

// NewRegionFlow creates a new region flow instance
func NewRegionFlow(regionRepo repository.RegionRepository, tx repository.Transactor) RegionFlow {
	return &RegionFlowImpl{
		regionRepo: regionRepo,
		tx:         tx,
	}
}

func (rf *RegionFlowImpl) List(ctx context.Context) ([]dto.RegionResource, error) {
	regions, err := rf.regionRepo.ByFilter(ctx, models.RegionFilter{}, "", 0, 0)
	if err != nil {
		return nil, NewBusinessError("REGION_LIST_FAILED", "Failed to list regions", err)
	}

	out := make([]dto.RegionResource, 0, len(regions))
	for _, r := range regions {
		out = append(out, ToRegionResource(*r))
	}
	return out, nil
}

func (rf *RegionFlowImpl) Get(ctx context.Context, id string) (*dto.RegionResource, error) {
	region, err := rf.find(ctx, id)
	if err != nil {
		return nil, err
	}
	res := ToRegionResource(*region)
	return &res, nil
}

// Create validates and inserts a region. An omitted time zone takes the column default.
func (rf *RegionFlowImpl) Create(ctx context.Context, req *dto.RegionRequest) (*dto.RegionResource, error) {
	if req == nil {
		req = &dto.RegionRequest{}
	}

	region := &models.Region{TimeZone: models.TimeZoneCentral}
	applyRegionRequest(region, req)

	if errs := models.ValidateRegion(region); len(errs) > 0 {
		return nil, NewBusinessError("REGION_VALIDATION_FAILED", "Region validation failed", errs)
	}

	err := rf.tx.WithTransaction(ctx, func(ctx context.Context) error {
		return rf.regionRepo.Save(ctx, region)
	})
	if err != nil {
		return nil, NewBusinessError("REGION_CREATE_FAILED", "Failed to create region", err)
	}

	res := ToRegionResource(*region)
	return &res, nil
}

// Update changes only the supplied attributes, then validates the whole record
func (rf *RegionFlowImpl) Update(ctx context.Context, id string, req *dto.RegionRequest) (*dto.RegionResource, error) {
	if req == nil {
		req = &dto.RegionRequest{}
	}

	var region *models.Region
	err := rf.tx.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		region, err = rf.find(ctx, id)
		if err != nil {
			return err
		}

		applyRegionRequest(region, req)
		if errs := models.ValidateRegion(region); len(errs) > 0 {
			return errs
		}

		updates := regionUpdates(req)
		if len(updates) == 0 {
			return nil
		}
		now := utils.UTCNow()
		updates["updated_at"] = now
		if err := rf.regionRepo.Update(ctx, region.ID, updates); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrRegionNotFound
			}
			return err
		}
		region.UpdatedAt = now
		return nil
	})
	if err != nil {
		if _, ok := AsFieldErrors(err); ok {
			return nil, NewBusinessError("REGION_VALIDATION_FAILED", "Region validation failed", err)
		}
		if IsRegionNotFound(err) {
			return nil, err
		}
		return nil, NewBusinessError("REGION_UPDATE_FAILED", "Failed to update region", err)
	}

	res := ToRegionResource(*region)
	return &res, nil
}

func (rf *RegionFlowImpl) Delete(ctx context.Context, id string) error {
	regionID, err := parseID(id, ErrRegionNotFound)
	if err != nil {
		return err
	}

	err = rf.tx.WithTransaction(ctx, func(ctx context.Context) error {
		return rf.regionRepo.Delete(ctx, regionID)
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrRegionNotFound
		}
		return NewBusinessError("REGION_DELETE_FAILED", "Failed to delete region", err)
	}
	return nil
}

func (rf *RegionFlowImpl) find(ctx context.Context, id string) (*models.Region, error) {
	regionID, err := parseID(id, ErrRegionNotFound)
	if err != nil {
		return nil, err
	}
	region, err := rf.regionRepo.ByID(ctx, regionID)
	if err != nil {
		return nil, NewBusinessError("REGION_LOOKUP_FAILED", "Failed to lookup region", err)
	}
	if region == nil {
		return nil, ErrRegionNotFound
	}
	return region, nil
}

func applyRegionRequest(r *models.Region, req *dto.RegionRequest) {
	if req.Name != nil {
		r.Name = strings.TrimSpace(*req.Name)
	}
	if req.Abbreviation != nil {
		r.Abbreviation = strings.TrimSpace(*req.Abbreviation)
	}
	if req.TimeZone != nil {
		r.TimeZone = strings.TrimSpace(*req.TimeZone)
	}
	if req.AdminNotes != nil {
		r.AdminNotes = utils.NilIfBlank(*req.AdminNotes)
	}
	if req.Archived != nil {
		r.Archived = *req.Archived
	}
	if req.Test != nil {
		r.Test = *req.Test
	}
}

func regionUpdates(req *dto.RegionRequest) map[string]any {
	updates := map[string]any{}
	if req.Name != nil {
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Abbreviation != nil {
		updates["abbreviation"] = strings.TrimSpace(*req.Abbreviation)
	}
	if req.TimeZone != nil {
		updates["time_zone"] = strings.TrimSpace(*req.TimeZone)
	}
	if req.AdminNotes != nil {
		updates["admin_notes"] = utils.NilIfBlank(*req.AdminNotes)
	}
	if req.Archived != nil {
		updates["archived"] = *req.Archived
	}
	if req.Test != nil {
		updates["test"] = *req.Test
	}
	return updates
}
