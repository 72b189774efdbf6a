package services

import (
	"context"
	"strings"

	"github.com/google/uuid"

	types "github.com/yungbote/learnsync/internal/domain"
	domainagg "github.com/yungbote/learnsync/internal/domain/aggregates"
	"github.com/yungbote/learnsync/internal/platform/logger"
	"github.com/yungbote/learnsync/internal/services/catalogue"
)

// Provisioner resolves the subject and activity rows a sync writes against,
// creating them on first use. Both operations are safe to race.
type Provisioner interface {
	EnsureSubject(ctx context.Context, accountID uuid.UUID, displayName string) (*types.Subject, error)
	EnsureActivity(ctx context.Context, externalID string) (*types.Activity, error)
}

type provisioner struct {
	log       *logger.Logger
	store     domainagg.ProgressStore
	cache     ActivityCache
	catalogue *catalogue.Catalogue
}

func NewProvisioner(log *logger.Logger, store domainagg.ProgressStore, cache ActivityCache, cat *catalogue.Catalogue) Provisioner {
	if cache == nil {
		cache = NewNoopActivityCache()
	}
	return &provisioner{
		log:       log.With("service", "Provisioner"),
		store:     store,
		cache:     cache,
		catalogue: cat,
	}
}

func (p *provisioner) EnsureSubject(ctx context.Context, accountID uuid.UUID, displayName string) (*types.Subject, error) {
	const op = "Provisioner.EnsureSubject"
	if accountID == uuid.Nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing account id", nil)
	}

	subject, err := p.store.FindSubject(ctx, accountID, types.DefaultSubjectMarker)
	if err != nil || subject != nil {
		return subject, err
	}

	legacyMarker := strings.TrimSpace(displayName)
	if legacyMarker != "" && legacyMarker != types.DefaultSubjectMarker {
		legacy, err := p.store.FindSubject(ctx, accountID, legacyMarker)
		if err != nil {
			return nil, err
		}
		if legacy != nil {
			err := p.store.RenameSubject(ctx, legacy.ID, types.DefaultSubjectMarker)
			switch {
			case err == nil:
				legacy.Marker = types.DefaultSubjectMarker
				p.log.Info("migrated legacy subject", "account_id", accountID, "subject_id", legacy.ID)
				return legacy, nil
			case domainagg.IsStale(err):
				// Another request migrated or created the default meanwhile.
				return p.requireDefault(ctx, op, accountID)
			default:
				return nil, err
			}
		}
	}

	return p.store.CreateSubject(ctx, &types.Subject{
		ID:          uuid.New(),
		AccountID:   accountID,
		Marker:      types.DefaultSubjectMarker,
		DisplayName: legacyMarker,
	})
}

func (p *provisioner) requireDefault(ctx context.Context, op string, accountID uuid.UUID) (*types.Subject, error) {
	subject, err := p.store.FindSubject(ctx, accountID, types.DefaultSubjectMarker)
	if err != nil {
		return nil, err
	}
	if subject == nil {
		return nil, domainagg.NewError(domainagg.CodeRetryable, op, "default subject vanished during migration", nil)
	}
	return subject, nil
}

func (p *provisioner) EnsureActivity(ctx context.Context, externalID string) (*types.Activity, error) {
	const op = "Provisioner.EnsureActivity"
	id := strings.TrimSpace(externalID)
	if id == "" {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "empty activity id", nil)
	}

	if a, ok := p.cache.Get(ctx, id); ok {
		return a, nil
	}
	a, err := p.store.FindActivity(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		row := p.newActivity(id)
		a, err = p.store.CreateActivity(ctx, row)
		if err != nil {
			return nil, err
		}
		if a.Placeholder {
			p.log.Debug("provisioned placeholder activity", "external_id", id)
		}
	}
	p.cache.Set(ctx, a)
	return a, nil
}

func (p *provisioner) newActivity(id string) *types.Activity {
	var row *types.Activity
	if p.catalogue != nil {
		if entry, ok := p.catalogue.Lookup(id); ok {
			row = entry.Activity(id)
		}
	}
	if row == nil {
		row = catalogue.Placeholder(id)
	}
	row.ID = uuid.New()
	return row
}
