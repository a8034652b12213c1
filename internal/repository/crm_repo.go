package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/kitecrm/export-service/internal/domain"
	"gorm.io/gorm"
)

// RecordFilter narrows which CRM records an export covers.
type RecordFilter struct {
	From            *time.Time
	To              *time.Time
	IncludeArchived bool
	IncludeDeleted  bool
}

// entityTable describes how one entity kind maps onto its table.
type entityTable struct {
	table   string
	columns []string
}

// entityTables fixes the exported column set and order per entity kind.
var entityTables = map[domain.EntityKind]entityTable{
	domain.EntityContacts: {
		table:   "contacts",
		columns: []string{"id", "first_name", "last_name", "email", "phone", "company_id", "owner", "archived", "deleted", "created_at", "updated_at"},
	},
	domain.EntityCompanies: {
		table:   "companies",
		columns: []string{"id", "name", "website", "industry", "employees", "owner", "archived", "deleted", "created_at", "updated_at"},
	},
	domain.EntityDeals: {
		table:   "deals",
		columns: []string{"id", "name", "company_id", "contact_id", "stage", "amount", "close_date", "archived", "deleted", "created_at", "updated_at"},
	},
	domain.EntityTasks: {
		table:   "crm_tasks",
		columns: []string{"id", "title", "due_date", "done", "priority", "contact_id", "archived", "deleted", "created_at", "updated_at"},
	},
	domain.EntityActivities: {
		table:   "activities",
		columns: []string{"id", "type", "subject", "contact_id", "occurred_at", "archived", "deleted", "created_at", "updated_at"},
	},
	domain.EntityEmails: {
		table:   "email_messages",
		columns: []string{"id", "subject", "from_address", "to_address", "contact_id", "sent_at", "archived", "deleted", "created_at", "updated_at"},
	},
	domain.EntityCalendarEvents: {
		table:   "calendar_events",
		columns: []string{"id", "title", "location", "organizer", "starts_at", "ends_at", "archived", "deleted", "created_at", "updated_at"},
	},
}

// CRMRepository reads CRM records for export and catalog counts.
type CRMRepository struct {
	db *gorm.DB
}

// NewCRMRepository creates a new CRMRepository.
// Parameters:
//   - db: GORM database handle used for queries.
// Returns:
//   - *CRMRepository: repository instance bound to db.
func NewCRMRepository(db *gorm.DB) *CRMRepository {
	return &CRMRepository{db: db}
}

// Columns returns the exported column names for an entity kind, in order.
// Parameters:
//   - kind: entity kind.
// Returns:
//   - []string: column names; nil for unknown kinds.
func (r *CRMRepository) Columns(kind domain.EntityKind) []string {
	et, ok := entityTables[kind]
	if !ok {
		return nil
	}
	out := make([]string, len(et.columns))
	copy(out, et.columns)
	return out
}

// scoped builds the filtered base query for an entity kind.
func (r *CRMRepository) scoped(ctx context.Context, kind domain.EntityKind, filter *RecordFilter) (*gorm.DB, error) {
	et, ok := entityTables[kind]
	if !ok {
		return nil, fmt.Errorf("unknown entity kind: %s", kind)
	}
	query := r.db.WithContext(ctx).Table(et.table)
	if filter != nil {
		if !filter.IncludeArchived {
			query = query.Where("archived = ?", false)
		}
		if !filter.IncludeDeleted {
			query = query.Where("deleted = ?", false)
		}
		if filter.From != nil {
			query = query.Where("created_at >= ?", *filter.From)
		}
		if filter.To != nil {
			query = query.Where("created_at <= ?", *filter.To)
		}
	}
	return query, nil
}

// Count counts records of one entity kind under the given filter.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - kind: entity kind.
//   - filter: record filter; nil counts everything.
// Returns:
//   - int64: number of matching records.
//   - error: non-nil if the query fails.
func (r *CRMRepository) Count(ctx context.Context, kind domain.EntityKind, filter *RecordFilter) (int64, error) {
	query, err := r.scoped(ctx, kind, filter)
	if err != nil {
		return 0, err
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FetchBatch retrieves one page of records for an entity kind, ordered by
// creation time then id so pagination is stable across batches.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - kind: entity kind.
//   - filter: record filter; nil fetches everything.
//   - limit: maximum number of records to return.
//   - offset: number of records to skip.
// Returns:
//   - []map[string]interface{}: rows keyed by column name.
//   - error: non-nil if the query fails.
func (r *CRMRepository) FetchBatch(ctx context.Context, kind domain.EntityKind, filter *RecordFilter, limit, offset int) ([]map[string]interface{}, error) {
	query, err := r.scoped(ctx, kind, filter)
	if err != nil {
		return nil, err
	}
	et := entityTables[kind]
	var rows []map[string]interface{}
	if err := query.
		Select(et.columns).
		Order("created_at, id").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch %s batch: %w", kind, err)
	}
	return rows, nil
}
