package models

// ChoirMember is a singer in the parish choir
type ChoirMember struct {
	Record
	FullName   string `json:"full_name" label:"Full name" input:"text" list:"true" required:"true"`
	Gender     string `json:"gender" label:"Gender" input:"select:gender" required:"true"`
	VoicePart  string `json:"voice_part" label:"Voice part" input:"select:voice_part" list:"true" required:"true"`
	Phone      string `json:"phone" label:"Phone" input:"tel" list:"true"`
	Email      string `json:"email" label:"Email" input:"email"`
	Address    string `json:"address" label:"Address" input:"textarea"`
	DateJoined string `json:"date_joined" label:"Date joined" input:"date"`
	IsActive   bool   `json:"is_active" label:"Active" input:"checkbox" list:"true"`
}

// DisplayName identifies the choir member in lists and messages
func (c *ChoirMember) DisplayName() string { return c.FullName }

// SearchFields returns the values a list search matches against
func (c *ChoirMember) SearchFields() []string {
	return []string{c.FullName, c.VoicePart, c.Phone, c.Email}
}

// YouthMember is a member of the parish youth group
type YouthMember struct {
	Record
	FullName           string `json:"full_name" label:"Full name" input:"text" list:"true" required:"true"`
	Gender             string `json:"gender" label:"Gender" input:"select:gender" list:"true" required:"true"`
	DateOfBirth        string `json:"date_of_birth" label:"Date of birth" input:"date"`
	Phone              string `json:"phone" label:"Phone" input:"tel" list:"true"`
	Email              string `json:"email" label:"Email" input:"email"`
	SchoolOrOccupation string `json:"school_or_occupation" label:"School or occupation" input:"text"`
	ZoneNumber         string `json:"zone_number" label:"Zone" input:"text" list:"true"`
	IsActive           bool   `json:"is_active" label:"Active" input:"checkbox" list:"true"`
}

// DisplayName identifies the youth member in lists and messages
func (y *YouthMember) DisplayName() string { return y.FullName }

// SearchFields returns the values a list search matches against
func (y *YouthMember) SearchFields() []string {
	return []string{y.FullName, y.Phone, y.Email, y.SchoolOrOccupation, y.ZoneNumber}
}

// ParishCommitteeMember sits on the parish pastoral committee
type ParishCommitteeMember struct {
	Record
	FullName  string `json:"full_name" label:"Full name" input:"text" list:"true" required:"true"`
	Gender    string `json:"gender" label:"Gender" input:"select:gender" required:"true"`
	Position  string `json:"position" label:"Position" input:"select:committee_position" list:"true" required:"true"`
	Phone     string `json:"phone" label:"Phone" input:"tel" list:"true"`
	Email     string `json:"email" label:"Email" input:"email"`
	TermStart string `json:"term_start" label:"Term start" input:"date" list:"true"`
	TermEnd   string `json:"term_end" label:"Term end" input:"date"`
	IsActive  bool   `json:"is_active" label:"Active" input:"checkbox" list:"true"`
}

// DisplayName identifies the committee member in lists and messages
func (p *ParishCommitteeMember) DisplayName() string { return p.FullName }

// SearchFields returns the values a list search matches against
func (p *ParishCommitteeMember) SearchFields() []string {
	return []string{p.FullName, p.Position, p.Phone, p.Email}
}

// SundaySchoolTeacher teaches a Sunday school class
type SundaySchoolTeacher struct {
	Record
	FullName      string `json:"full_name" label:"Full name" input:"text" list:"true" required:"true"`
	Gender        string `json:"gender" label:"Gender" input:"select:gender" required:"true"`
	ClassAssigned string `json:"class_assigned" label:"Class assigned" input:"text" list:"true" required:"true"`
	Phone         string `json:"phone" label:"Phone" input:"tel" list:"true"`
	Email         string `json:"email" label:"Email" input:"email"`
	Qualification string `json:"qualification" label:"Qualification" input:"text"`
	DateJoined    string `json:"date_joined" label:"Date joined" input:"date"`
	IsActive      bool   `json:"is_active" label:"Active" input:"checkbox" list:"true"`
}

// DisplayName identifies the teacher in lists and messages
func (s *SundaySchoolTeacher) DisplayName() string { return s.FullName }

// SearchFields returns the values a list search matches against
func (s *SundaySchoolTeacher) SearchFields() []string {
	return []string{s.FullName, s.ClassAssigned, s.Phone, s.Email, s.Qualification}
}
