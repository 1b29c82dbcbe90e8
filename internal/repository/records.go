package repository

import (
	"context"

	"churchadmin/internal/database"
	"churchadmin/internal/models"
)

// NewBaptismRepository creates the baptism register repository
func NewBaptismRepository(db *database.DB) *RecordRepository[*models.Baptism] {
	return newRecordRepository(db, table[*models.Baptism]{
		name: "baptisms",
		columns: []string{"full_name", "gender", "date_of_birth", "place_of_birth", "baptism_date",
			"father_name", "mother_name", "godparents", "minister", "register_number", "notes"},
		fields: func(b *models.Baptism) []any {
			return []any{&b.FullName, &b.Gender, &b.DateOfBirth, &b.PlaceOfBirth, &b.BaptismDate,
				&b.FatherName, &b.MotherName, &b.Godparents, &b.Minister, &b.RegisterNumber, &b.Notes}
		},
		newRow: func() *models.Baptism { return &models.Baptism{} },
	})
}

// NewBurialRepository creates the burial register repository
func NewBurialRepository(db *database.DB) *RecordRepository[*models.Burial] {
	return newRecordRepository(db, table[*models.Burial]{
		name: "burials",
		columns: []string{"deceased_name", "gender", "date_of_birth", "date_of_death", "burial_date",
			"place_of_burial", "cause_of_death", "officiant", "next_of_kin", "next_of_kin_phone", "notes"},
		fields: func(b *models.Burial) []any {
			return []any{&b.DeceasedName, &b.Gender, &b.DateOfBirth, &b.DateOfDeath, &b.BurialDate,
				&b.PlaceOfBurial, &b.CauseOfDeath, &b.Officiant, &b.NextOfKin, &b.NextOfKinPhone, &b.Notes}
		},
		newRow: func() *models.Burial { return &models.Burial{} },
	})
}

// NewMarriageRepository creates the marriage register repository
func NewMarriageRepository(db *database.DB) *RecordRepository[*models.Marriage] {
	return newRecordRepository(db, table[*models.Marriage]{
		name: "marriages",
		columns: []string{"groom_name", "bride_name", "marriage_date", "venue", "officiant",
			"marriage_type", "witness_one", "witness_two", "certificate_number", "notes"},
		fields: func(m *models.Marriage) []any {
			return []any{&m.GroomName, &m.BrideName, &m.MarriageDate, &m.Venue, &m.Officiant,
				&m.MarriageType, &m.WitnessOne, &m.WitnessTwo, &m.CertificateNumber, &m.Notes}
		},
		newRow: func() *models.Marriage { return &models.Marriage{} },
	})
}

// MembershipRepository stores a roster whose members can be marked inactive
type MembershipRepository[E models.Entity] struct {
	*RecordRepository[E]
}

// CountActive returns the number of members marked active
func (r *MembershipRepository[E]) CountActive(ctx context.Context) (int, error) {
	return r.countWhere(ctx, "is_active = ?", true)
}

// NewChoirMemberRepository creates the choir roster repository
func NewChoirMemberRepository(db *database.DB) *MembershipRepository[*models.ChoirMember] {
	return &MembershipRepository[*models.ChoirMember]{newRecordRepository(db, table[*models.ChoirMember]{
		name:    "choir_members",
		columns: []string{"full_name", "gender", "voice_part", "phone", "email", "address", "date_joined", "is_active"},
		fields: func(c *models.ChoirMember) []any {
			return []any{&c.FullName, &c.Gender, &c.VoicePart, &c.Phone, &c.Email, &c.Address, &c.DateJoined, &c.IsActive}
		},
		newRow: func() *models.ChoirMember { return &models.ChoirMember{} },
	})}
}

// NewYouthMemberRepository creates the youth group roster repository
func NewYouthMemberRepository(db *database.DB) *MembershipRepository[*models.YouthMember] {
	return &MembershipRepository[*models.YouthMember]{newRecordRepository(db, table[*models.YouthMember]{
		name: "youth_members",
		columns: []string{"full_name", "gender", "date_of_birth", "phone", "email",
			"school_or_occupation", "zone_number", "is_active"},
		fields: func(y *models.YouthMember) []any {
			return []any{&y.FullName, &y.Gender, &y.DateOfBirth, &y.Phone, &y.Email,
				&y.SchoolOrOccupation, &y.ZoneNumber, &y.IsActive}
		},
		newRow: func() *models.YouthMember { return &models.YouthMember{} },
	})}
}

// NewParishCommitteeRepository creates the parish committee repository
func NewParishCommitteeRepository(db *database.DB) *MembershipRepository[*models.ParishCommitteeMember] {
	return &MembershipRepository[*models.ParishCommitteeMember]{newRecordRepository(db, table[*models.ParishCommitteeMember]{
		name:    "parish_committee_members",
		columns: []string{"full_name", "gender", "position", "phone", "email", "term_start", "term_end", "is_active"},
		fields: func(p *models.ParishCommitteeMember) []any {
			return []any{&p.FullName, &p.Gender, &p.Position, &p.Phone, &p.Email, &p.TermStart, &p.TermEnd, &p.IsActive}
		},
		newRow: func() *models.ParishCommitteeMember { return &models.ParishCommitteeMember{} },
	})}
}

// NewSundaySchoolTeacherRepository creates the Sunday school staff repository
func NewSundaySchoolTeacherRepository(db *database.DB) *MembershipRepository[*models.SundaySchoolTeacher] {
	return &MembershipRepository[*models.SundaySchoolTeacher]{newRecordRepository(db, table[*models.SundaySchoolTeacher]{
		name: "sunday_school_teachers",
		columns: []string{"full_name", "gender", "class_assigned", "phone", "email",
			"qualification", "date_joined", "is_active"},
		fields: func(s *models.SundaySchoolTeacher) []any {
			return []any{&s.FullName, &s.Gender, &s.ClassAssigned, &s.Phone, &s.Email,
				&s.Qualification, &s.DateJoined, &s.IsActive}
		},
		newRow: func() *models.SundaySchoolTeacher { return &models.SundaySchoolTeacher{} },
	})}
}
