package testing

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/amirphl/Tsukuyomi/models"
	"github.com/amirphl/Tsukuyomi/utils"
	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"
)

// TestPassword is the plain password of every fixture user
const TestPassword = "TestPass123!"

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{DB: db}
}

func (tf *TestFixtures) CreateTestRegion(name, abbreviation string) (*models.Region, error) {
	region := &models.Region{
		Name:         name,
		Abbreviation: abbreviation,
		TimeZone:     models.TimeZoneCentral,
	}
	if err := tf.DB.DB.Create(region).Error; err != nil {
		return nil, fmt.Errorf("failed to create region %s: %w", name, err)
	}
	return region, nil
}

func (tf *TestFixtures) CreateTestLocation(name string, region *models.Region) (*models.Location, error) {
	location := &models.Location{Name: name}
	if region != nil {
		location.RegionID = &region.ID
	}
	if err := tf.DB.DB.Create(location).Error; err != nil {
		return nil, fmt.Errorf("failed to create location %s: %w", name, err)
	}
	return location, nil
}

// CreateTestUser creates a confirmed user whose password is TestPassword
func (tf *TestFixtures) CreateTestUser(roles ...string) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	if roles == nil {
		roles = []string{}
	}
	user := &models.User{
		Email:             fmt.Sprintf("user.%d.%06d@example.com", time.Now().UnixNano(), rand.Intn(1000000)),
		EncryptedPassword: string(hash),
		FirstName:         utils.ToPtr("Ada"),
		LastName:          utils.ToPtr("Lovelace"),
		ConfirmedAt:       utils.UTCNowPtr(),
		TimeZone:          models.TimeZoneCentral,
		Locale:            models.LocaleEN,
		Roles:             pq.StringArray(roles),
	}
	if err := tf.DB.DB.Create(user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

func (tf *TestFixtures) CreateTestTag(name, tagType string) (*models.Tag, error) {
	tag := &models.Tag{Name: name, TagType: tagType}
	if err := tf.DB.DB.Create(tag).Error; err != nil {
		return nil, fmt.Errorf("failed to create tag %s: %w", name, err)
	}
	return tag, nil
}

func (tf *TestFixtures) CreateTestCalendar(name string, archived, test bool) (*models.Calendar, error) {
	calendar := &models.Calendar{Name: name, Archived: archived, Test: test}
	if err := tf.DB.DB.Create(calendar).Error; err != nil {
		return nil, fmt.Errorf("failed to create calendar %s: %w", name, err)
	}
	return calendar, nil
}

func (tf *TestFixtures) CreateTestEvent(name string, calendar *models.Calendar, location *models.Location) (*models.Event, error) {
	starts := time.Now().UTC().Add(24 * time.Hour).Truncate(time.Second)
	ends := starts.Add(2 * time.Hour)
	event := &models.Event{Name: name, StartsAt: &starts, EndsAt: &ends}
	if calendar != nil {
		event.CalendarID = &calendar.ID
	}
	if location != nil {
		event.LocationID = &location.ID
	}
	if err := tf.DB.DB.Create(event).Error; err != nil {
		return nil, fmt.Errorf("failed to create event %s: %w", name, err)
	}
	return event, nil
}
