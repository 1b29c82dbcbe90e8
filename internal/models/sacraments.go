package models

// Baptism is an entry in the baptismal register
type Baptism struct {
	Record
	FullName       string `json:"full_name" label:"Full name" input:"text" list:"true" required:"true"`
	Gender         string `json:"gender" label:"Gender" input:"select:gender" required:"true"`
	DateOfBirth    string `json:"date_of_birth" label:"Date of birth" input:"date"`
	PlaceOfBirth   string `json:"place_of_birth" label:"Place of birth" input:"text"`
	BaptismDate    string `json:"baptism_date" label:"Baptism date" input:"date" list:"true" required:"true"`
	FatherName     string `json:"father_name" label:"Father's name" input:"text" list:"true" required:"true"`
	MotherName     string `json:"mother_name" label:"Mother's name" input:"text" list:"true" required:"true"`
	Godparents     string `json:"godparents" label:"Godparents" input:"text"`
	Minister       string `json:"minister" label:"Minister" input:"text" list:"true" required:"true"`
	RegisterNumber string `json:"register_number" label:"Register number" input:"text"`
	Notes          string `json:"notes" label:"Notes" input:"textarea"`
}

// DisplayName identifies the baptism candidate in lists and messages
func (b *Baptism) DisplayName() string { return b.FullName }

// SearchFields returns the values a list search matches against
func (b *Baptism) SearchFields() []string {
	return []string{b.FullName, b.FatherName, b.MotherName, b.Godparents, b.Minister, b.RegisterNumber, b.BaptismDate}
}

// Burial is an entry in the burial register
type Burial struct {
	Record
	DeceasedName   string `json:"deceased_name" label:"Name of deceased" input:"text" list:"true" required:"true"`
	Gender         string `json:"gender" label:"Gender" input:"select:gender" required:"true"`
	DateOfBirth    string `json:"date_of_birth" label:"Date of birth" input:"date"`
	DateOfDeath    string `json:"date_of_death" label:"Date of death" input:"date" list:"true" required:"true"`
	BurialDate     string `json:"burial_date" label:"Burial date" input:"date" list:"true" required:"true"`
	PlaceOfBurial  string `json:"place_of_burial" label:"Place of burial" input:"text" list:"true" required:"true"`
	CauseOfDeath   string `json:"cause_of_death" label:"Cause of death" input:"text"`
	Officiant      string `json:"officiant" label:"Officiant" input:"text"`
	NextOfKin      string `json:"next_of_kin" label:"Next of kin" input:"text" list:"true"`
	NextOfKinPhone string `json:"next_of_kin_phone" label:"Next of kin phone" input:"tel"`
	Notes          string `json:"notes" label:"Notes" input:"textarea"`
}

// DisplayName identifies the deceased in lists and messages
func (b *Burial) DisplayName() string { return b.DeceasedName }

// SearchFields returns the values a list search matches against
func (b *Burial) SearchFields() []string {
	return []string{b.DeceasedName, b.PlaceOfBurial, b.Officiant, b.NextOfKin, b.NextOfKinPhone, b.BurialDate}
}

// Marriage is an entry in the marriage register
type Marriage struct {
	Record
	GroomName         string `json:"groom_name" label:"Groom" input:"text" list:"true" required:"true"`
	BrideName         string `json:"bride_name" label:"Bride" input:"text" list:"true" required:"true"`
	MarriageDate      string `json:"marriage_date" label:"Marriage date" input:"date" list:"true" required:"true"`
	Venue             string `json:"venue" label:"Venue" input:"text" list:"true" required:"true"`
	Officiant         string `json:"officiant" label:"Officiant" input:"text" required:"true"`
	MarriageType      string `json:"marriage_type" label:"Type of marriage" input:"select:marriage_type" list:"true" required:"true"`
	WitnessOne        string `json:"witness_one" label:"First witness" input:"text"`
	WitnessTwo        string `json:"witness_two" label:"Second witness" input:"text"`
	CertificateNumber string `json:"certificate_number" label:"Certificate number" input:"text"`
	Notes             string `json:"notes" label:"Notes" input:"textarea"`
}

// DisplayName identifies the couple in lists and messages
func (m *Marriage) DisplayName() string { return m.GroomName + " & " + m.BrideName }

// SearchFields returns the values a list search matches against
func (m *Marriage) SearchFields() []string {
	return []string{m.GroomName, m.BrideName, m.Venue, m.Officiant, m.WitnessOne, m.WitnessTwo, m.CertificateNumber, m.MarriageDate}
}
