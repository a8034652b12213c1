package service

import (
	"context"

	"github.com/kitecrm/export-service/internal/domain"
	"github.com/kitecrm/export-service/internal/logger"
	"github.com/kitecrm/export-service/internal/repository"
)

// CatalogService exposes the exportable entity kinds and output formats,
// with live record counts pulled from the CRM database.
type CatalogService struct {
	crm *repository.CRMRepository
	log *logger.Logger
}

// NewCatalogService creates a catalog service.
// Parameters:
//   - crm: repository used to count records per entity.
//   - log: logger instance.
// Returns:
//   - *CatalogService: initialized service.
func NewCatalogService(crm *repository.CRMRepository, log *logger.Logger) *CatalogService {
	return &CatalogService{crm: crm, log: log}
}

// ListEntities returns every entity kind with its label and current
// record count. Counts exclude archived and deleted records. A count
// failure for one entity is logged and reported as zero rather than
// failing the whole listing.
// Parameters:
//   - ctx: request context.
// Returns:
//   - []domain.EntityDescriptor: descriptors in catalog order.
func (s *CatalogService) ListEntities(ctx context.Context) []domain.EntityDescriptor {
	kinds := domain.AllEntityKinds()
	out := make([]domain.EntityDescriptor, 0, len(kinds))
	for _, kind := range kinds {
		count, err := s.crm.Count(ctx, kind, nil)
		if err != nil {
			s.log.WithError(err).WithField(logger.FieldEntity, string(kind)).
				Warn("failed to count records for catalog")
			count = 0
		}
		out = append(out, domain.EntityDescriptor{
			Kind:        kind,
			Label:       kind.Label(),
			RecordCount: count,
		})
	}
	return out
}

// ListFormats returns the supported output formats.
// Parameters: none.
// Returns:
//   - []domain.FormatDescriptor: descriptors in catalog order.
func (s *CatalogService) ListFormats() []domain.FormatDescriptor {
	return domain.AllFormats()
}
