package models

// Kind names one type of parish record. Slug is the path segment used
// by both the console and the REST API.
type Kind struct {
	Slug     string
	Singular string
	Plural   string
}

var (
	KindBaptism               = Kind{Slug: "baptisms", Singular: "Baptism", Plural: "Baptisms"}
	KindBurial                = Kind{Slug: "burials", Singular: "Burial", Plural: "Burials"}
	KindMarriage              = Kind{Slug: "marriages", Singular: "Marriage", Plural: "Marriages"}
	KindChoirMember           = Kind{Slug: "choir-members", Singular: "Choir member", Plural: "Choir members"}
	KindYouthMember           = Kind{Slug: "youth-members", Singular: "Youth member", Plural: "Youth members"}
	KindZonalLeader           = Kind{Slug: "zonal-leaders", Singular: "Zonal leader", Plural: "Zonal leaders"}
	KindUnitLeader            = Kind{Slug: "unit-leaders", Singular: "Unit leader", Plural: "Unit leaders"}
	KindParishCommitteeMember = Kind{Slug: "parish-committee", Singular: "Committee member", Plural: "Parish committee"}
	KindSundaySchoolTeacher   = Kind{Slug: "sunday-school-teachers", Singular: "Sunday school teacher", Plural: "Sunday school teachers"}
	KindMemberRegistration    = Kind{Slug: "member-registrations", Singular: "Member registration", Plural: "Member registrations"}
)

// Kinds lists every record kind in navigation order
var Kinds = []Kind{
	KindBaptism,
	KindBurial,
	KindMarriage,
	KindChoirMember,
	KindYouthMember,
	KindZonalLeader,
	KindUnitLeader,
	KindParishCommitteeMember,
	KindSundaySchoolTeacher,
	KindMemberRegistration,
}

// KindBySlug finds a kind by its path segment
func KindBySlug(slug string) (Kind, bool) {
	for _, k := range Kinds {
		if k.Slug == slug {
			return k, true
		}
	}
	return Kind{}, false
}
