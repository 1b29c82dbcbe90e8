package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"churchadmin/internal/assignment"
	"churchadmin/internal/database"
	"churchadmin/internal/models"
	"churchadmin/internal/repository"
	"churchadmin/internal/validation"
)

var (
	// ErrNoZonalLeader rejects a unit leader whose zone has no zonal leader
	ErrNoZonalLeader = validation.ValidationError{Field: "zone_number", Message: "no zonal leader is registered for this zone"}
	ErrZoneTaken     = errors.New("another zonal leader already leads this zone")
	ErrLeaderInUse   = errors.New("zonal leader still has unit leaders assigned")
)

// Records groups the services of every parish record type
type Records struct {
	Baptisms             *RecordService[*models.Baptism]
	Burials              *RecordService[*models.Burial]
	Marriages            *RecordService[*models.Marriage]
	ChoirMembers         *RecordService[*models.ChoirMember]
	YouthMembers         *RecordService[*models.YouthMember]
	ZonalLeaders         *ZonalLeaderService
	UnitLeaders          *UnitLeaderService
	ParishCommittee      *RecordService[*models.ParishCommitteeMember]
	SundaySchoolTeachers *RecordService[*models.SundaySchoolTeacher]
	MemberRegistrations  *MemberRegistrationService
}

// NewRecords creates the record services over db
func NewRecords(db *database.DB, logger *zap.Logger) *Records {
	zonalRepo := repository.NewZonalLeaderRepository(db)

	return &Records{
		Baptisms: newRecordService(models.KindBaptism, repository.NewBaptismRepository(db), recordHooks[*models.Baptism]{
			check: func(_ context.Context, b, _ *models.Baptism) error {
				return validation.DateOrder("date_of_birth", b.DateOfBirth, "baptism_date", b.BaptismDate)
			},
		}, logger),
		Burials: newRecordService(models.KindBurial, repository.NewBurialRepository(db), recordHooks[*models.Burial]{
			check: func(_ context.Context, b, _ *models.Burial) error {
				return validation.First(
					validation.DateOrder("date_of_birth", b.DateOfBirth, "date_of_death", b.DateOfDeath),
					validation.DateOrder("date_of_death", b.DateOfDeath, "burial_date", b.BurialDate),
				)
			},
		}, logger),
		Marriages:    newRecordService(models.KindMarriage, repository.NewMarriageRepository(db), recordHooks[*models.Marriage]{}, logger),
		ChoirMembers: newRecordService(models.KindChoirMember, repository.NewChoirMemberRepository(db), recordHooks[*models.ChoirMember]{}, logger),
		YouthMembers: newRecordService(models.KindYouthMember, repository.NewYouthMemberRepository(db), recordHooks[*models.YouthMember]{}, logger),
		ZonalLeaders: NewZonalLeaderService(zonalRepo, logger),
		UnitLeaders:  NewUnitLeaderService(repository.NewUnitLeaderRepository(db), zonalRepo, logger),
		ParishCommittee: newRecordService(models.KindParishCommitteeMember, repository.NewParishCommitteeRepository(db), recordHooks[*models.ParishCommitteeMember]{
			check: func(_ context.Context, p, _ *models.ParishCommitteeMember) error {
				return validation.DateOrder("term_start", p.TermStart, "term_end", p.TermEnd)
			},
		}, logger),
		SundaySchoolTeachers: newRecordService(models.KindSundaySchoolTeacher, repository.NewSundaySchoolTeacherRepository(db), recordHooks[*models.SundaySchoolTeacher]{}, logger),
		MemberRegistrations:  NewMemberRegistrationService(repository.NewMemberRegistrationRepository(db), logger),
	}
}

// ZonalLeaderService manages zonal leaders. Each zone has at most one leader.
type ZonalLeaderService struct {
	*RecordService[*models.ZonalLeader]
	repo *repository.ZonalLeaderRepository
}

// NewZonalLeaderService creates a new zonal leader service
func NewZonalLeaderService(repo *repository.ZonalLeaderRepository, logger *zap.Logger) *ZonalLeaderService {
	s := &ZonalLeaderService{repo: repo}
	s.RecordService = newRecordService(models.KindZonalLeader, repo, recordHooks[*models.ZonalLeader]{
		check:        s.check,
		beforeDelete: s.beforeDelete,
	}, logger)
	return s
}

// Create stores a new zonal leader. A concurrent create for the same zone is ErrZoneTaken.
func (s *ZonalLeaderService) Create(ctx context.Context, z *models.ZonalLeader) error {
	return zoneConflict(s.RecordService.Create(ctx, z))
}

// Update stores a zonal leader. Moving onto a zone taken meanwhile is ErrZoneTaken.
func (s *ZonalLeaderService) Update(ctx context.Context, z *models.ZonalLeader) error {
	return zoneConflict(s.RecordService.Update(ctx, z))
}

// zoneConflict maps the zone number index violation onto ErrZoneTaken
func zoneConflict(err error) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return ErrZoneTaken
	}
	return err
}

func (s *ZonalLeaderService) check(ctx context.Context, z, existing *models.ZonalLeader) error {
	holders, err := s.repo.ListByZone(ctx, z.ZoneNumber)
	if err != nil {
		return fmt.Errorf("failed to check zone: %w", err)
	}
	for _, h := range holders {
		if h.ID != z.ID {
			return ErrZoneTaken
		}
	}

	// Unit leaders were matched on the old zone number.
	if existing != nil && assignment.NormalizeZone(existing.ZoneNumber) != assignment.NormalizeZone(z.ZoneNumber) {
		return s.beforeDelete(ctx, z.ID)
	}
	return nil
}

func (s *ZonalLeaderService) beforeDelete(ctx context.Context, id string) error {
	n, err := s.repo.CountUnitLeaders(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrLeaderInUse
	}
	return nil
}

// DuplicateZones reports zone numbers held by more than one stored leader
func (s *ZonalLeaderService) DuplicateZones(ctx context.Context) ([]string, error) {
	leaders, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return assignment.DuplicateZones(leaders), nil
}

// UnitLeaderService manages unit leaders, linking each to the zonal leader of its zone
type UnitLeaderService struct {
	*RecordService[*models.UnitLeader]
	zonal *repository.ZonalLeaderRepository
}

// NewUnitLeaderService creates a new unit leader service
func NewUnitLeaderService(repo *repository.UnitLeaderRepository, zonal *repository.ZonalLeaderRepository, logger *zap.Logger) *UnitLeaderService {
	s := &UnitLeaderService{zonal: zonal}
	s.RecordService = newRecordService(models.KindUnitLeader, repo, recordHooks[*models.UnitLeader]{
		check:    s.assign,
		decorate: s.decorate,
	}, logger)
	return s
}

// Resolve finds the zonal leader for zone among the stored leaders
func (s *UnitLeaderService) Resolve(ctx context.Context, zone string) (assignment.Resolution, error) {
	leaders, err := s.zonal.List(ctx)
	if err != nil {
		return assignment.Resolution{}, fmt.Errorf("failed to load zonal leaders: %w", err)
	}
	return assignment.Resolve(zone, leaders), nil
}

// assign sets the zonal leader reference from the zone number, or refuses the save
func (s *UnitLeaderService) assign(ctx context.Context, u, _ *models.UnitLeader) error {
	resolution, err := s.Resolve(ctx, u.ZoneNumber)
	if err != nil {
		return err
	}
	if !resolution.CanSubmit() {
		u.ZonalLeaderID = ""
		u.ZonalLeaderName = ""
		return ErrNoZonalLeader
	}
	u.ZonalLeaderID = resolution.Leader.ID
	u.ZonalLeaderName = resolution.Leader.FullName
	return nil
}

func (s *UnitLeaderService) decorate(ctx context.Context, units []*models.UnitLeader) error {
	if len(units) == 0 {
		return nil
	}
	leaders, err := s.zonal.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to load zonal leaders: %w", err)
	}
	names := assignment.LeaderNames(leaders)
	for _, u := range units {
		u.ZonalLeaderName = names[u.ZonalLeaderID]
	}
	return nil
}

// MemberRegistrationService manages family registrations and their children
type MemberRegistrationService struct {
	*RecordService[*models.MemberRegistration]
	repo *repository.MemberRegistrationRepository
}

// NewMemberRegistrationService creates a new member registration service
func NewMemberRegistrationService(repo *repository.MemberRegistrationRepository, logger *zap.Logger) *MemberRegistrationService {
	s := &MemberRegistrationService{repo: repo}
	s.RecordService = newRecordService(models.KindMemberRegistration, repo, recordHooks[*models.MemberRegistration]{
		check: checkChildren,
	}, logger)
	return s
}

// CountChildren returns the number of registered children
func (s *MemberRegistrationService) CountChildren(ctx context.Context) (int, error) {
	return s.repo.CountChildren(ctx)
}

// checkChildren validates the children rows. Submitted child IDs are kept only
// when they belong to the registration being updated.
func checkChildren(_ context.Context, m, existing *models.MemberRegistration) error {
	known := map[string]bool{}
	if existing != nil {
		for _, c := range existing.Children {
			known[c.ID] = true
		}
	}
	if m.Children == nil {
		m.Children = []models.Child{}
	}

	seen := map[string]bool{}
	for i := range m.Children {
		c := &m.Children[i]
		validation.TrimStrings(c)
		prefix := fmt.Sprintf("children[%d].", i)
		if err := validation.First(
			validation.Required(prefix+"full_name", c.FullName),
			validation.MaxLength(prefix+"full_name", c.FullName, validation.MaxFieldLength),
			validation.Required(prefix+"gender", c.Gender),
			validation.OneOf(prefix+"gender", c.Gender, models.OptionGender),
			validation.Date(prefix+"date_of_birth", c.DateOfBirth),
		); err != nil {
			return err
		}
		if !known[c.ID] || seen[c.ID] {
			c.ID = ""
		}
		seen[c.ID] = true
	}
	return nil
}
