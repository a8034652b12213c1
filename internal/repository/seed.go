package repository

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/kitecrm/export-service/internal/domain"
	"gorm.io/gorm"
)

var (
	seedFirstNames = []string{"Ada", "Ben", "Clara", "Dana", "Elio", "Fern", "Gus", "Hana", "Ivan", "June"}
	seedLastNames  = []string{"Alvarez", "Brooks", "Chen", "Dietrich", "Egan", "Fischer", "Grant", "Holt", "Ibanez", "Jansen"}
	seedIndustries = []string{"software", "manufacturing", "retail", "logistics", "healthcare"}
	seedStages     = []string{"lead", "qualified", "proposal", "negotiation", "won", "lost"}
	seedActivities = []string{"call", "meeting", "note"}
)

// SeedDemoData fills the CRM tables with n generated records per entity
// kind. Generation is deterministic for a given n so repeated seeds of a
// fresh database produce the same data. A small share of records is
// marked archived or deleted so export filters have something to skip.
// Parameters:
//   - db: GORM database handle (migrated).
//   - n: number of records per entity kind.
// Returns:
//   - error: non-nil if any insert fails.
func SeedDemoData(db *gorm.DB, n int) error {
	rng := rand.New(rand.NewSource(42))
	now := time.Now()

	spread := func(i int) time.Time {
		// spread created_at over the past ~2 years, oldest first
		return now.AddDate(0, 0, -(n-i)*730/maxInt(n, 1))
	}

	companies := make([]domain.Company, 0, n)
	for i := 0; i < n; i++ {
		companies = append(companies, domain.Company{
			ID:        uuid.New().String(),
			Name:      fmt.Sprintf("%s %s Co", seedLastNames[rng.Intn(len(seedLastNames))], seedIndustries[rng.Intn(len(seedIndustries))]),
			Website:   fmt.Sprintf("https://example-%d.test", i),
			Industry:  seedIndustries[rng.Intn(len(seedIndustries))],
			Employees: 5 + rng.Intn(500),
			Owner:     seedFirstNames[rng.Intn(len(seedFirstNames))],
			Archived:  rng.Intn(20) == 0,
			Deleted:   rng.Intn(25) == 0,
			CreatedAt: spread(i),
			UpdatedAt: now,
		})
	}
	if err := insertBatched(db, companies); err != nil {
		return err
	}

	contacts := make([]domain.Contact, 0, n)
	for i := 0; i < n; i++ {
		first := seedFirstNames[rng.Intn(len(seedFirstNames))]
		last := seedLastNames[rng.Intn(len(seedLastNames))]
		contacts = append(contacts, domain.Contact{
			ID:        uuid.New().String(),
			FirstName: first,
			LastName:  last,
			Email:     fmt.Sprintf("%s.%s.%d@example.test", first, last, i),
			Phone:     fmt.Sprintf("+1-555-01%02d", rng.Intn(100)),
			CompanyID: companies[rng.Intn(len(companies))].ID,
			Owner:     seedFirstNames[rng.Intn(len(seedFirstNames))],
			Archived:  rng.Intn(20) == 0,
			Deleted:   rng.Intn(25) == 0,
			CreatedAt: spread(i),
			UpdatedAt: now,
		})
	}
	if err := insertBatched(db, contacts); err != nil {
		return err
	}

	deals := make([]domain.Deal, 0, n)
	for i := 0; i < n; i++ {
		closeDate := now.AddDate(0, rng.Intn(6), 0)
		deals = append(deals, domain.Deal{
			ID:        uuid.New().String(),
			Name:      fmt.Sprintf("Deal %d", i+1),
			CompanyID: companies[rng.Intn(len(companies))].ID,
			ContactID: contacts[rng.Intn(len(contacts))].ID,
			Stage:     seedStages[rng.Intn(len(seedStages))],
			Amount:    float64(500 + rng.Intn(100000)),
			CloseDate: &closeDate,
			Archived:  rng.Intn(20) == 0,
			Deleted:   rng.Intn(25) == 0,
			CreatedAt: spread(i),
			UpdatedAt: now,
		})
	}
	if err := insertBatched(db, deals); err != nil {
		return err
	}

	tasks := make([]domain.CRMTask, 0, n)
	for i := 0; i < n; i++ {
		due := now.AddDate(0, 0, rng.Intn(30))
		tasks = append(tasks, domain.CRMTask{
			ID:        uuid.New().String(),
			Title:     fmt.Sprintf("Follow up #%d", i+1),
			DueDate:   &due,
			Done:      rng.Intn(2) == 0,
			Priority:  []string{"low", "medium", "high"}[rng.Intn(3)],
			ContactID: contacts[rng.Intn(len(contacts))].ID,
			Archived:  rng.Intn(20) == 0,
			Deleted:   rng.Intn(25) == 0,
			CreatedAt: spread(i),
			UpdatedAt: now,
		})
	}
	if err := insertBatched(db, tasks); err != nil {
		return err
	}

	activities := make([]domain.Activity, 0, n)
	for i := 0; i < n; i++ {
		activities = append(activities, domain.Activity{
			ID:         uuid.New().String(),
			Type:       seedActivities[rng.Intn(len(seedActivities))],
			Subject:    fmt.Sprintf("Touchpoint %d", i+1),
			ContactID:  contacts[rng.Intn(len(contacts))].ID,
			OccurredAt: spread(i),
			Archived:   rng.Intn(20) == 0,
			Deleted:    rng.Intn(25) == 0,
			CreatedAt:  spread(i),
			UpdatedAt:  now,
		})
	}
	if err := insertBatched(db, activities); err != nil {
		return err
	}

	emails := make([]domain.EmailMessage, 0, n)
	for i := 0; i < n; i++ {
		c := contacts[rng.Intn(len(contacts))]
		emails = append(emails, domain.EmailMessage{
			ID:          uuid.New().String(),
			Subject:     fmt.Sprintf("Re: proposal %d", i+1),
			FromAddress: "sales@kitecrm.test",
			ToAddress:   c.Email,
			ContactID:   c.ID,
			SentAt:      spread(i),
			Archived:    rng.Intn(20) == 0,
			Deleted:     rng.Intn(25) == 0,
			CreatedAt:   spread(i),
			UpdatedAt:   now,
		})
	}
	if err := insertBatched(db, emails); err != nil {
		return err
	}

	events := make([]domain.CalendarEvent, 0, n)
	for i := 0; i < n; i++ {
		start := spread(i).Add(time.Duration(9+rng.Intn(8)) * time.Hour)
		events = append(events, domain.CalendarEvent{
			ID:        uuid.New().String(),
			Title:     fmt.Sprintf("Meeting %d", i+1),
			Location:  []string{"office", "remote", "on-site"}[rng.Intn(3)],
			Organizer: seedFirstNames[rng.Intn(len(seedFirstNames))],
			StartsAt:  start,
			EndsAt:    start.Add(time.Hour),
			Archived:  rng.Intn(20) == 0,
			Deleted:   rng.Intn(25) == 0,
			CreatedAt: spread(i),
			UpdatedAt: now,
		})
	}
	return insertBatched(db, events)
}

// insertBatched inserts records in chunks to stay under driver parameter limits.
func insertBatched[T any](db *gorm.DB, records []T) error {
	if len(records) == 0 {
		return nil
	}
	return db.CreateInBatches(records, 100).Error
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
