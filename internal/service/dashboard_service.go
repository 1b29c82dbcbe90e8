package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"churchadmin/internal/assignment"
	"churchadmin/internal/database"
	"churchadmin/internal/models"
	"churchadmin/internal/repository"
)

// DashboardTile is one record count shown on the dashboard
type DashboardTile struct {
	Slug   string `json:"slug"`
	Label  string `json:"label"`
	Total  int    `json:"total"`
	Active *int   `json:"active,omitempty"`
}

// Dashboard is the read-only aggregate view of the parish records
type Dashboard struct {
	Tiles          []DashboardTile `json:"tiles"`
	Children       int             `json:"children"`
	DuplicateZones []string        `json:"duplicate_zones"`
	GeneratedAt    time.Time       `json:"generated_at"`
}

// Total returns the count of the tile with slug, or zero
func (d *Dashboard) Total(slug string) int {
	for _, t := range d.Tiles {
		if t.Slug == slug {
			return t.Total
		}
	}
	return 0
}

type counter interface {
	Count(ctx context.Context) (int, error)
}

type activeCounter interface {
	CountActive(ctx context.Context) (int, error)
}

type dashboardSource struct {
	kind  models.Kind
	store counter
}

// DashboardService aggregates record counts
type DashboardService struct {
	sources       []dashboardSource
	zonal         *repository.ZonalLeaderRepository
	registrations *repository.MemberRegistrationRepository
	logger        *zap.Logger
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(db *database.DB, logger *zap.Logger) *DashboardService {
	zonal := repository.NewZonalLeaderRepository(db)
	registrations := repository.NewMemberRegistrationRepository(db)
	return &DashboardService{
		sources: []dashboardSource{
			{models.KindBaptism, repository.NewBaptismRepository(db)},
			{models.KindBurial, repository.NewBurialRepository(db)},
			{models.KindMarriage, repository.NewMarriageRepository(db)},
			{models.KindChoirMember, repository.NewChoirMemberRepository(db)},
			{models.KindYouthMember, repository.NewYouthMemberRepository(db)},
			{models.KindZonalLeader, zonal},
			{models.KindUnitLeader, repository.NewUnitLeaderRepository(db)},
			{models.KindParishCommitteeMember, repository.NewParishCommitteeRepository(db)},
			{models.KindSundaySchoolTeacher, repository.NewSundaySchoolTeacherRepository(db)},
			{models.KindMemberRegistration, registrations},
		},
		zonal:         zonal,
		registrations: registrations,
		logger:        logger,
	}
}

// Get computes the dashboard. Counts are queried concurrently.
func (s *DashboardService) Get(ctx context.Context) (*Dashboard, error) {
	d := &Dashboard{
		Tiles:       make([]DashboardTile, len(s.sources)),
		GeneratedAt: time.Now().UTC(),
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range s.sources {
		g.Go(func() error {
			tile := DashboardTile{Slug: src.kind.Slug, Label: src.kind.Plural}
			total, err := src.store.Count(gctx)
			if err != nil {
				return fmt.Errorf("failed to count %s: %w", src.kind.Plural, err)
			}
			tile.Total = total
			if ac, ok := src.store.(activeCounter); ok {
				active, err := ac.CountActive(gctx)
				if err != nil {
					return fmt.Errorf("failed to count active %s: %w", src.kind.Plural, err)
				}
				tile.Active = &active
			}
			d.Tiles[i] = tile
			return nil
		})
	}
	g.Go(func() error {
		n, err := s.registrations.CountChildren(gctx)
		d.Children = n
		return err
	})
	g.Go(func() error {
		leaders, err := s.zonal.List(gctx)
		if err != nil {
			return fmt.Errorf("failed to load zonal leaders: %w", err)
		}
		d.DuplicateZones = assignment.DuplicateZones(leaders)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if d.DuplicateZones == nil {
		d.DuplicateZones = []string{}
	}
	if len(d.DuplicateZones) > 0 {
		s.logger.Warn("zones with more than one zonal leader", zap.Strings("zones", d.DuplicateZones))
	}
	return d, nil
}
