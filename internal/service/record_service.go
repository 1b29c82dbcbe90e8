package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"go.uber.org/zap"

	"churchadmin/internal/models"
	"churchadmin/internal/repository"
	"churchadmin/internal/validation"
)

// ErrRecordNotFound is returned when a record ID does not exist
var ErrRecordNotFound = repository.ErrNotFound

// Store is the persistence a record service needs
type Store[E models.Entity] interface {
	Create(ctx context.Context, e E) error
	Get(ctx context.Context, id string) (E, error)
	List(ctx context.Context) ([]E, error)
	Update(ctx context.Context, e E) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

// recordHooks customise a RecordService for one record type
type recordHooks[E models.Entity] struct {
	// check runs after field validation. existing is nil on create.
	check func(ctx context.Context, e, existing E) error
	// beforeDelete may refuse a delete
	beforeDelete func(ctx context.Context, id string) error
	// decorate fills derived fields on loaded records
	decorate func(ctx context.Context, records []E) error
}

// RecordService implements create, read, search, update and delete for one record type
type RecordService[E models.Entity] struct {
	kind   models.Kind
	store  Store[E]
	hooks  recordHooks[E]
	logger *zap.Logger
}

func newRecordService[E models.Entity](kind models.Kind, store Store[E], hooks recordHooks[E], logger *zap.Logger) *RecordService[E] {
	return &RecordService[E]{
		kind:   kind,
		store:  store,
		hooks:  hooks,
		logger: logger.With(zap.String("kind", kind.Slug)),
	}
}

// Kind returns the record kind this service manages
func (s *RecordService[E]) Kind() models.Kind {
	return s.kind
}

// Create validates and stores a new record, assigning its ID and timestamps
func (s *RecordService[E]) Create(ctx context.Context, e E) error {
	var none E
	if err := s.validate(ctx, e, none); err != nil {
		return err
	}
	if err := s.store.Create(ctx, e); err != nil {
		return fmt.Errorf("failed to create %s: %w", s.kind.Singular, err)
	}
	s.logger.Info("record created", zap.String("id", e.Meta().ID))
	return s.decorateOne(ctx, e)
}

// Get retrieves a record by ID
func (s *RecordService[E]) Get(ctx context.Context, id string) (E, error) {
	e, err := s.store.Get(ctx, id)
	if err != nil {
		var zero E
		return zero, fmt.Errorf("failed to get %s: %w", s.kind.Singular, err)
	}
	if isNil(e) {
		var zero E
		return zero, ErrRecordNotFound
	}
	if err := s.decorateOne(ctx, e); err != nil {
		var zero E
		return zero, err
	}
	return e, nil
}

// List returns the records matching query, newest first. An empty query returns all records.
func (s *RecordService[E]) List(ctx context.Context, query string) ([]E, error) {
	records, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", s.kind.Plural, err)
	}
	if s.hooks.decorate != nil {
		if err := s.hooks.decorate(ctx, records); err != nil {
			return nil, err
		}
	}

	matched := records[:0]
	for _, e := range records {
		if models.Matches(e, query) {
			matched = append(matched, e)
		}
	}
	return matched, nil
}

// Update validates and stores every field of e. The stored creation time is kept.
func (s *RecordService[E]) Update(ctx context.Context, e E) error {
	existing, err := s.store.Get(ctx, e.Meta().ID)
	if err != nil {
		return fmt.Errorf("failed to get %s: %w", s.kind.Singular, err)
	}
	if isNil(existing) {
		return ErrRecordNotFound
	}
	e.Meta().CreatedAt = existing.Meta().CreatedAt

	if err := s.validate(ctx, e, existing); err != nil {
		return err
	}
	if err := s.store.Update(ctx, e); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrRecordNotFound
		}
		return fmt.Errorf("failed to update %s: %w", s.kind.Singular, err)
	}
	s.logger.Info("record updated", zap.String("id", e.Meta().ID))
	return s.decorateOne(ctx, e)
}

// Delete removes a record by ID
func (s *RecordService[E]) Delete(ctx context.Context, id string) error {
	if s.hooks.beforeDelete != nil {
		if err := s.hooks.beforeDelete(ctx, id); err != nil {
			return err
		}
	}
	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrRecordNotFound
		}
		return fmt.Errorf("failed to delete %s: %w", s.kind.Singular, err)
	}
	s.logger.Info("record deleted", zap.String("id", id))
	return nil
}

// Count returns the number of stored records
func (s *RecordService[E]) Count(ctx context.Context) (int, error) {
	return s.store.Count(ctx)
}

func (s *RecordService[E]) validate(ctx context.Context, e, existing E) error {
	validation.TrimStrings(e)
	if err := validation.Record(e); err != nil {
		return err
	}
	if s.hooks.check != nil {
		return s.hooks.check(ctx, e, existing)
	}
	return nil
}

func (s *RecordService[E]) decorateOne(ctx context.Context, e E) error {
	if s.hooks.decorate == nil {
		return nil
	}
	return s.hooks.decorate(ctx, []E{e})
}

// isNil reports whether a record pointer is nil
func isNil[E models.Entity](e E) bool {
	v := reflect.ValueOf(e)
	return !v.IsValid() || (v.Kind() == reflect.Pointer && v.IsNil())
}
