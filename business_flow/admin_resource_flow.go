package businessflow

import (
	"context"
	"errors"
	"time"

	"github.com/amirphl/Tsukuyomi/app/admin"
	"github.com/amirphl/Tsukuyomi/models"
	"github.com/amirphl/Tsukuyomi/repository"
)

const (
	// AdminPerPage is the page size of admin index pages
	AdminPerPage = 25
	// AdminExportLimit caps the rows of one XLSX export
	AdminExportLimit = 10000
)

// AdminResourceFlow lists back office resources through their manifests
type AdminResourceFlow interface {
	Index(ctx context.Context, resource string, rawFilters map[string]string, page int) (*admin.Table, admin.FilterValues, error)
	Export(ctx context.Context, resource string, rawFilters map[string]string) ([]byte, string, error)
}

type AdminResourceFlowImpl struct {
	tagRepo      repository.TagRepository
	regionRepo   repository.RegionRepository
	calendarRepo repository.CalendarRepository
	userRepo     repository.UserRepository
	eventRepo    repository.EventRepository
	locationRepo repository.LocationRepository
}

func NewAdminResourceFlow(
	tagRepo repository.TagRepository,
	regionRepo repository.RegionRepository,
	calendarRepo repository.CalendarRepository,
	userRepo repository.UserRepository,
	eventRepo repository.EventRepository,
	locationRepo repository.LocationRepository,
) AdminResourceFlow {
	return &AdminResourceFlowImpl{
		tagRepo:      tagRepo,
		regionRepo:   regionRepo,
		calendarRepo: calendarRepo,
		userRepo:     userRepo,
		eventRepo:    eventRepo,
		locationRepo: locationRepo,
	}
}

// Index returns one page of the resource. Filters are whitelisted by the manifest before any query.
func (f *AdminResourceFlowImpl) Index(ctx context.Context, resource string, rawFilters map[string]string, page int) (*admin.Table, admin.FilterValues, error) {
	manifest, filters, err := f.prepare(resource, rawFilters)
	if err != nil {
		return nil, nil, err
	}
	if page < 1 {
		page = 1
	}

	table, err := f.load(ctx, manifest, filters, AdminPerPage, (page-1)*AdminPerPage)
	if err != nil {
		return nil, nil, NewBusinessErrorf("ADMIN_INDEX_FAILED", "Failed to list %s", err, resource)
	}
	table.Page = page
	table.PerPage = AdminPerPage
	return table, filters, nil
}

// Export renders every matching row (up to AdminExportLimit) as an XLSX workbook
func (f *AdminResourceFlowImpl) Export(ctx context.Context, resource string, rawFilters map[string]string) ([]byte, string, error) {
	manifest, filters, err := f.prepare(resource, rawFilters)
	if err != nil {
		return nil, "", err
	}

	table, err := f.load(ctx, manifest, filters, AdminExportLimit, 0)
	if err != nil {
		return nil, "", NewBusinessErrorf("ADMIN_EXPORT_FAILED", "Failed to export %s", err, resource)
	}
	data, err := admin.ExportXLSX(*table)
	if err != nil {
		return nil, "", NewBusinessErrorf("ADMIN_EXPORT_FAILED", "Failed to export %s", err, resource)
	}
	return data, admin.ExportFilename(*table), nil
}

func (f *AdminResourceFlowImpl) prepare(resource string, rawFilters map[string]string) (admin.Manifest, admin.FilterValues, error) {
	manifest, ok := admin.Lookup(resource)
	if !ok {
		return admin.Manifest{}, nil, ErrUnknownResource
	}
	filters, err := manifest.ParseFilters(rawFilters)
	if err != nil {
		var invalid *admin.InvalidFilterError
		if errors.As(err, &invalid) {
			return admin.Manifest{}, nil, NewBusinessError("INVALID_FILTER", invalid.Error(), ErrInvalidFilter)
		}
		return admin.Manifest{}, nil, err
	}
	return manifest, filters, nil
}

func (f *AdminResourceFlowImpl) load(ctx context.Context, m admin.Manifest, filters admin.FilterValues, limit, offset int) (*admin.Table, error) {
	table := &admin.Table{Manifest: m}
	orderBy := m.SortOrder.SQL()

	switch m.Resource {
	case admin.ResourceTags:
		filter := models.TagFilter{}
		filter.NameContains, _ = filters.String("name")
		filter.TagType, _ = filters.String("tag_type")
		filter.TagCategory, _ = filters.String("tag_category")

		tags, err := f.tagRepo.ByFilter(ctx, filter, orderBy, limit, offset)
		if err != nil {
			return nil, err
		}
		if table.Total, err = f.tagRepo.Count(ctx, filter); err != nil {
			return nil, err
		}
		for _, t := range tags {
			table.Rows = append(table.Rows, admin.TagRow(t))
		}

	case admin.ResourceRegions:
		filter := models.RegionFilter{}
		filter.NameContains, _ = filters.String("name")
		filter.Archived, _ = filters.Bool("archived")
		filter.Test, _ = filters.Bool("test")

		regions, err := f.regionRepo.ByFilter(ctx, filter, orderBy, limit, offset)
		if err != nil {
			return nil, err
		}
		if table.Total, err = f.regionRepo.Count(ctx, filter); err != nil {
			return nil, err
		}
		for _, r := range regions {
			table.Rows = append(table.Rows, admin.RegionRow(r))
		}

	case admin.ResourceCalendars:
		filter := models.CalendarFilter{}
		filter.NameContains, _ = filters.String("name")
		if scope, ok := filters.String("scope"); ok {
			s := models.CalendarScope(*scope)
			filter.Scope = &s
		}

		calendars, err := f.calendarRepo.ByFilter(ctx, filter, orderBy, limit, offset)
		if err != nil {
			return nil, err
		}
		if table.Total, err = f.calendarRepo.Count(ctx, filter); err != nil {
			return nil, err
		}
		for _, c := range calendars {
			table.Rows = append(table.Rows, admin.CalendarRow(c))
		}

	case admin.ResourceUsers:
		filter := models.UserFilter{}
		filter.EmailContains, _ = filters.String("email")
		filter.LastName, _ = filters.String("last_name")
		filter.Locked, _ = filters.Bool("locked")

		users, err := f.userRepo.ByFilter(ctx, filter, orderBy, limit, offset)
		if err != nil {
			return nil, err
		}
		if table.Total, err = f.userRepo.Count(ctx, filter); err != nil {
			return nil, err
		}
		for _, u := range users {
			table.Rows = append(table.Rows, admin.UserRow(u))
		}

	case admin.ResourceEvents:
		filter := models.EventFilter{}
		filter.NameContains, _ = filters.String("name")
		filter.Archived, _ = filters.Bool("archived")
		filter.Test, _ = filters.Bool("test")
		if day, ok := filters.Date("starts_on"); ok {
			next := day.Add(24 * time.Hour)
			filter.StartsAfter, filter.StartsBefore = day, &next
		}

		events, err := f.eventRepo.ByFilter(ctx, filter, orderBy, limit, offset)
		if err != nil {
			return nil, err
		}
		if table.Total, err = f.eventRepo.Count(ctx, filter); err != nil {
			return nil, err
		}
		for _, e := range events {
			table.Rows = append(table.Rows, admin.EventRow(e))
		}

	case admin.ResourceLocations:
		filter := models.LocationFilter{}
		filter.NameContains, _ = filters.String("name")
		filter.Archived, _ = filters.Bool("archived")

		locations, err := f.locationRepo.ByFilter(ctx, filter, orderBy, limit, offset)
		if err != nil {
			return nil, err
		}
		if table.Total, err = f.locationRepo.Count(ctx, filter); err != nil {
			return nil, err
		}
		for _, l := range locations {
			table.Rows = append(table.Rows, admin.LocationRow(l))
		}

	default:
		return nil, ErrUnknownResource
	}

	return table, nil
}
