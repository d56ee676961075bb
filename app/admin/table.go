package admin

import (
	"strconv"
	"strings"

	"github.com/amirphl/Tsukuyomi/models"
	"github.com/amirphl/Tsukuyomi/utils"
)

// Row is one record flattened to display strings keyed by field name
type Row struct {
	ID     string
	Values map[string]string
}

// Cells returns the values in the order of columns
func (r Row) Cells(columns []string) []string {
	cells := make([]string, len(columns))
	for i, c := range columns {
		cells[i] = r.Values[c]
	}
	return cells
}

// Table is a page of rows for one manifest
type Table struct {
	Manifest Manifest
	Rows     []Row
	Total    int64
	Page     int
	PerPage  int
}

// Header returns the labels of the listed columns
func (t Table) Header() []string {
	header := make([]string, len(t.Manifest.ListColumns))
	for i, c := range t.Manifest.ListColumns {
		header[i] = t.Manifest.Label(c)
	}
	return header
}

func (t Table) TotalPages() int {
	if t.PerPage <= 0 || t.Total == 0 {
		return 1
	}
	return int((t.Total + int64(t.PerPage) - 1) / int64(t.PerPage))
}

func TagRow(t *models.Tag) Row {
	return Row{
		ID: t.ID.String(),
		Values: map[string]string{
			"name":         t.Name,
			"description":  utils.StringValue(t.Description),
			"tag_type":     t.TagType,
			"tag_category": utils.StringValue(t.TagCategory),
			"updated_at":   utils.FormatTime(&t.UpdatedAt),
			"created_at":   utils.FormatTime(&t.CreatedAt),
		},
	}
}

func RegionRow(r *models.Region) Row {
	return Row{
		ID: r.ID.String(),
		Values: map[string]string{
			"name":         r.Name,
			"abbreviation": r.Abbreviation,
			"time_zone":    r.TimeZone,
			"admin_notes":  utils.StringValue(r.AdminNotes),
			"archived":     yesNo(r.Archived),
			"test":         yesNo(r.Test),
			"updated_at":   utils.FormatTime(&r.UpdatedAt),
			"created_at":   utils.FormatTime(&r.CreatedAt),
		},
	}
}

func CalendarRow(c *models.Calendar) Row {
	return Row{
		ID: c.ID.String(),
		Values: map[string]string{
			"name":        c.Name,
			"description": utils.StringValue(c.Description),
			"archived":    yesNo(c.Archived),
			"test":        yesNo(c.Test),
			"updated_at":  utils.FormatTime(&c.UpdatedAt),
			"created_at":  utils.FormatTime(&c.CreatedAt),
		},
	}
}

// UserRow never exposes password or token columns
func UserRow(u *models.User) Row {
	return Row{
		ID: u.ID.String(),
		Values: map[string]string{
			"email":           u.Email,
			"first_name":      utils.StringValue(u.FirstName),
			"last_name":       utils.StringValue(u.LastName),
			"zip_code":        utils.StringValue(u.ZipCode),
			"time_zone":       u.TimeZone,
			"locale":          u.Locale,
			"admin_notes":     utils.StringValue(u.AdminNotes),
			"roles":           strings.Join(u.Roles, ", "),
			"sign_in_count":   strconv.Itoa(u.SignInCount),
			"last_sign_in_at": utils.FormatTime(u.LastSignInAt),
			"locked":          yesNo(u.IsLocked()),
			"archived":        yesNo(u.Archived),
			"test":            yesNo(u.Test),
			"updated_at":      utils.FormatTime(&u.UpdatedAt),
			"created_at":      utils.FormatTime(&u.CreatedAt),
		},
	}
}

func EventRow(e *models.Event) Row {
	tags := make([]string, 0, len(e.Tags))
	for _, t := range e.Tags {
		tags = append(tags, t.Name)
	}
	var calendar, location string
	if e.Calendar != nil {
		calendar = e.Calendar.Name
	}
	if e.Location != nil {
		location = e.Location.Name
	}
	return Row{
		ID: e.ID.String(),
		Values: map[string]string{
			"name":       e.Name,
			"starts_at":  utils.FormatTime(e.StartsAt),
			"ends_at":    utils.FormatTime(e.EndsAt),
			"calendar":   calendar,
			"location":   location,
			"tags":       strings.Join(tags, ", "),
			"archived":   yesNo(e.Archived),
			"test":       yesNo(e.Test),
			"updated_at": utils.FormatTime(&e.UpdatedAt),
			"created_at": utils.FormatTime(&e.CreatedAt),
		},
	}
}

func LocationRow(l *models.Location) Row {
	var region string
	if l.Region != nil {
		region = l.Region.Name
	}
	return Row{
		ID: l.ID.String(),
		Values: map[string]string{
			"name":       l.Name,
			"address":    utils.StringValue(l.Address),
			"zip_code":   utils.StringValue(l.ZipCode),
			"region":     region,
			"archived":   yesNo(l.Archived),
			"test":       yesNo(l.Test),
			"updated_at": utils.FormatTime(&l.UpdatedAt),
			"created_at": utils.FormatTime(&l.CreatedAt),
		},
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
