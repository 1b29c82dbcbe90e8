package models

// MemberRegistration is a family registered with the parish, with its children
type MemberRegistration struct {
	Record
	FamilyName     string  `json:"family_name" label:"Family name" input:"text" list:"true" required:"true"`
	HeadOfFamily   string  `json:"head_of_family" label:"Head of family" input:"text" list:"true" required:"true"`
	SpouseName     string  `json:"spouse_name" label:"Spouse" input:"text"`
	MaritalStatus  string  `json:"marital_status" label:"Marital status" input:"select:marital_status" required:"true"`
	Phone          string  `json:"phone" label:"Phone" input:"tel" list:"true"`
	Email          string  `json:"email" label:"Email" input:"email"`
	Address        string  `json:"address" label:"Address" input:"textarea"`
	ZoneNumber     string  `json:"zone_number" label:"Zone" input:"text" list:"true"`
	UnitName       string  `json:"unit_name" label:"Unit" input:"text"`
	DateRegistered string  `json:"date_registered" label:"Date registered" input:"date" list:"true"`
	Children       []Child `json:"children" input:"-"`
}

// DisplayName identifies the registration by family name in lists and messages
func (m *MemberRegistration) DisplayName() string { return m.FamilyName }

// SearchFields returns the values a list search matches against
func (m *MemberRegistration) SearchFields() []string {
	fields := []string{m.FamilyName, m.HeadOfFamily, m.SpouseName, m.Phone, m.Email, m.ZoneNumber, m.UnitName}
	for _, c := range m.Children {
		fields = append(fields, c.FullName)
	}
	return fields
}

// Child is a child sub-record of a member registration.
// Children are always saved together with their registration.
type Child struct {
	ID            string `json:"id"`
	FullName      string `json:"full_name"`
	Gender        string `json:"gender"`
	DateOfBirth   string `json:"date_of_birth"`
	IsBaptized    bool   `json:"is_baptized"`
	IsConfirmed   bool   `json:"is_confirmed"`
	IsCommunicant bool   `json:"is_communicant"`
}
