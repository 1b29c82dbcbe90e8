package models

// ZonalLeader leads one zone of the parish
type ZonalLeader struct {
	Record
	FullName      string `json:"full_name" label:"Full name" input:"text" list:"true" required:"true"`
	Gender        string `json:"gender" label:"Gender" input:"select:gender" required:"true"`
	ZoneNumber    string `json:"zone_number" label:"Zone number" input:"text" list:"true" required:"true"`
	ZoneName      string `json:"zone_name" label:"Zone name" input:"text" list:"true"`
	Phone         string `json:"phone" label:"Phone" input:"tel" list:"true"`
	Email         string `json:"email" label:"Email" input:"email"`
	Address       string `json:"address" label:"Address" input:"textarea"`
	DateAppointed string `json:"date_appointed" label:"Date appointed" input:"date"`
}

// DisplayName identifies the zonal leader in lists and messages
func (z *ZonalLeader) DisplayName() string { return z.FullName }

// SearchFields returns the values a list search matches against
func (z *ZonalLeader) SearchFields() []string {
	return []string{z.FullName, z.ZoneNumber, z.ZoneName, z.Phone, z.Email}
}

// UnitLeader leads a unit and reports to the zonal leader of the unit's zone.
// ZonalLeaderID is assigned by resolving ZoneNumber against the zonal leaders.
type UnitLeader struct {
	Record
	FullName        string `json:"full_name" label:"Full name" input:"text" list:"true" required:"true"`
	Gender          string `json:"gender" label:"Gender" input:"select:gender" required:"true"`
	UnitName        string `json:"unit_name" label:"Unit" input:"text" list:"true" required:"true"`
	ZoneNumber      string `json:"zone_number" label:"Zone number" input:"zone" list:"true" required:"true"`
	ZonalLeaderID   string `json:"zonal_leader_id" input:"-"`
	ZonalLeaderName string `json:"zonal_leader_name,omitempty" label:"Zonal leader" input:"readonly" list:"true"`
	Phone           string `json:"phone" label:"Phone" input:"tel" list:"true"`
	Email           string `json:"email" label:"Email" input:"email"`
	DateAppointed   string `json:"date_appointed" label:"Date appointed" input:"date"`
}

// DisplayName identifies the unit leader in lists and messages
func (u *UnitLeader) DisplayName() string { return u.FullName }

// SearchFields returns the values a list search matches against
func (u *UnitLeader) SearchFields() []string {
	return []string{u.FullName, u.UnitName, u.ZoneNumber, u.ZonalLeaderName, u.Phone, u.Email}
}
