package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/hearthstay/server/internal/logger"
	"github.com/hearthstay/server/internal/models"
	"github.com/hearthstay/server/internal/repository"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Seeder fills a development database with demo descriptors, users and usage
type Seeder struct {
	db         *gorm.DB
	faker      *gofakeit.Faker
	components repository.ComponentRepository
	usages     repository.UsageRepository
	users      repository.UserRepository
}

// NewSeeder creates a seeder. A zero seed picks a random one.
func NewSeeder(db *gorm.DB, seed uint64) *Seeder {
	return &Seeder{
		db:         db,
		faker:      gofakeit.New(seed),
		components: repository.NewComponentRepository(db),
		usages:     repository.NewUsageRepository(db),
		users:      repository.NewUserRepository(db),
	}
}

// Options controls how much data SeedDev creates
type Options struct {
	Users          int
	UsagePerWidget int
	Days           int
}

// DefaultOptions is a small but realistic data set
func DefaultOptions() Options {
	return Options{Users: 25, UsagePerWidget: 60, Days: 14}
}

// Result reports what SeedDev created
type Result struct {
	Components int
	Users      int
	Usage      int
}

// SeedDev seeds demo descriptors (skipping names that already exist),
// fake users and fake usage events spread over opts.Days.
func (s *Seeder) SeedDev(ctx context.Context, opts Options) (*Result, error) {
	res := &Result{}

	logger.Log.Info("Creating demo components...")
	comps, created, err := s.seedComponents(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to seed components: %w", err)
	}
	res.Components = created

	logger.Log.Info("Creating users...")
	userIDs, err := s.seedUsers(ctx, opts.Users)
	if err != nil {
		return nil, fmt.Errorf("failed to seed users: %w", err)
	}
	res.Users = len(userIDs)

	logger.Log.Info("Creating usage events...")
	usage, err := s.seedUsage(ctx, comps, userIDs, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to seed usage: %w", err)
	}
	res.Usage = usage

	logger.Log.Info("Seeding complete",
		zap.Int("components", res.Components),
		zap.Int("users", res.Users),
		zap.Int("usage_events", res.Usage),
	)
	return res, nil
}

// Clean removes every seeded table row
func (s *Seeder) Clean(ctx context.Context) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []any{&models.ComponentUsage{}, &models.UIComponent{}, &models.User{}} {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Seeder) seedComponents(ctx context.Context) ([]*models.UIComponent, int, error) {
	var (
		all     []*models.UIComponent
		created int
	)
	for _, demo := range DemoComponents() {
		existing, err := s.components.GetByName(ctx, demo.Name)
		if err == nil {
			all = append(all, existing)
			continue
		}
		if !errors.Is(err, repository.ErrComponentNotFound) {
			return nil, created, err
		}

		demo.CreatedBy = "seed"
		demo.UpdatedBy = "seed"
		if err := s.components.Create(ctx, demo); err != nil {
			return nil, created, fmt.Errorf("%s: %w", demo.Name, err)
		}
		all = append(all, demo)
		created++
	}
	return all, created, nil
}

func (s *Seeder) seedUsers(ctx context.Context, n int) ([]string, error) {
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		now := time.Now().UTC()
		user := &models.User{
			ID:          s.faker.UUID(),
			Email:       s.faker.Email(),
			DisplayName: s.faker.Name(),
			LastSeenAt:  &now,
		}
		stored, err := s.users.Touch(ctx, user)
		if err != nil {
			return nil, err
		}
		ids = append(ids, stored.ID)
	}
	return ids, nil
}

var demoPages = []string{"/", "/home", "/deals", "/checkout", "/account", "/search", "/listing/cabin-42"}

func (s *Seeder) seedUsage(ctx context.Context, comps []*models.UIComponent, userIDs []string, opts Options) (int, error) {
	days := opts.Days
	if days <= 0 {
		days = 1
	}
	total := 0
	for _, comp := range comps {
		if !comp.IsActive {
			continue
		}
		for i := 0; i < opts.UsagePerWidget; i++ {
			usage := &models.ComponentUsage{
				ComponentID: comp.ID,
				Page:        demoPages[s.faker.IntRange(0, len(demoPages)-1)],
				PerformanceMetrics: models.PerformanceMetrics{
					LoadTime:   s.faker.Float64Range(20, 450),
					RenderTime: s.faker.Float64Range(0.5, 25),
				},
				UserAgent: s.faker.UserAgent(),
				IPAddress: s.faker.IPv4Address(),
				CreatedAt: time.Now().UTC().Add(-time.Duration(s.faker.IntRange(0, days*24*60)) * time.Minute),
			}
			// roughly a third of views are anonymous
			if len(userIDs) > 0 && s.faker.IntRange(0, 2) > 0 {
				id := userIDs[s.faker.IntRange(0, len(userIDs)-1)]
				usage.UserID = &id
			}
			if err := s.usages.Create(ctx, usage); err != nil {
				return total, err
			}
			total++
		}

		stats, err := s.usages.Stats(ctx, comp.ID)
		if err != nil {
			return total, err
		}
		if err := s.components.SetUsageCount(ctx, comp.ID, stats.Total); err != nil {
			return total, err
		}
	}
	return total, nil
}

// DemoComponents returns one descriptor per variant plus an inactive one
func DemoComponents() []*models.UIComponent {
	return []*models.UIComponent{
		{
			Name:          "promo-banner",
			DisplayName:   "Promo banner",
			Description:   "Seasonal discount announcement",
			Category:      "marketing",
			ComponentType: "banner",
			Config:        datatypes.JSON(`{"type":"success","icon":"gift","title":"Welcome back, {{user.name}}!","message":"Save {{discount}}% on stays this week.","dismissible":true}`),
			Styles:        datatypes.JSON(`{"className":"promo","marginBottom":"1rem"}`),
			IsActive:      true,
			IsPublic:      true,
		},
		{
			Name:          "book-now-button",
			DisplayName:   "Book now",
			Category:      "actions",
			ComponentType: "react",
			Config:        datatypes.JSON(`{"type":"button","label":"Book {{listing.title}}","variant":"primary","href":"/book/{{listing.id}}"}`),
			IsActive:      true,
			IsPublic:      true,
		},
		{
			Name:          "house-rules",
			DisplayName:   "House rules",
			Category:      "content",
			ComponentType: "html",
			Config:        datatypes.JSON(`{}`),
			Template:      `<h3>House rules for {{listing.title}}</h3><ul><li>Check-in after {{listing.checkIn}}</li><li>No parties</li></ul>`,
			IsActive:      true,
			IsPublic:      true,
		},
		{
			Name:          "featured-stay",
			DisplayName:   "Featured stay",
			Category:      "marketing",
			ComponentType: "card",
			Config:        datatypes.JSON(`{"image":{"src":"https://img.hearthstay.dev/cabin.jpg","alt":"Cabin"},"title":"{{listing.title}}","description":"From {{listing.price}} a night","actions":[{"label":"View","href":"/listing/{{listing.id}}","variant":"primary"}]}`),
			Interactions:  datatypes.JSON(`{"hover":"lift"}`),
			IsActive:      true,
			IsPublic:      true,
		},
		{
			Name:          "newsletter-signup",
			DisplayName:   "Newsletter signup",
			Category:      "engagement",
			ComponentType: "form",
			Config:        datatypes.JSON(`{"fields":[{"name":"email","label":"Email","type":"email","placeholder":"you@example.com","required":true},{"name":"city","label":"Favourite city","type":"text"}],"submitButton":{"label":"Subscribe"},"action":"/api/newsletter","method":"POST"}`),
			IsActive:      true,
			IsPublic:      true,
		},
		{
			Name:          "amenities-list",
			DisplayName:   "Amenities",
			Category:      "content",
			ComponentType: "list",
			Config:        datatypes.JSON(`{"dataKey":"amenities","items":["Wi-Fi","Parking"],"itemTemplate":"{{name}} ({{count}})"}`),
			Responsive:    datatypes.JSON(`{"mobile":{"columns":1},"desktop":{"columns":3}}`),
			IsActive:      true,
			IsPublic:      true,
		},
		{
			Name:          "host-widget",
			DisplayName:   "Host widget",
			Category:      "experimental",
			ComponentType: "custom",
			Config:        datatypes.JSON(`{"widget":"host-card","version":2}`),
			IsActive:      true,
			IsPublic:      false,
		},
		{
			Name:          "retired-carousel",
			DisplayName:   "Retired carousel",
			Description:   "Kept for reference; no longer shown",
			Category:      "marketing",
			ComponentType: "carousel",
			Config:        datatypes.JSON(`{"slides":3}`),
			IsActive:      false,
			IsPublic:      false,
		},
	}
}
