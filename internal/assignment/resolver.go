// Package assignment links unit leaders to the zonal leader of their zone.
package assignment

import (
	"sort"
	"strings"

	"churchadmin/internal/models"
)

// NormalizeZone returns the comparable form of a zone number
func NormalizeZone(zone string) string {
	return strings.ToLower(strings.TrimSpace(zone))
}

// ResolveZonalLeader returns the first leader whose zone number matches zone.
// An empty zone never matches.
func ResolveZonalLeader(zone string, leaders []*models.ZonalLeader) (*models.ZonalLeader, bool) {
	want := NormalizeZone(zone)
	if want == "" {
		return nil, false
	}
	for _, leader := range leaders {
		if NormalizeZone(leader.ZoneNumber) == want {
			return leader, true
		}
	}
	return nil, false
}

// Resolution is the outcome of resolving a zone for a unit leader form
type Resolution struct {
	Zone   string
	Leader *models.ZonalLeader
}

// Resolve builds the Resolution for zone
func Resolve(zone string, leaders []*models.ZonalLeader) Resolution {
	leader, _ := ResolveZonalLeader(zone, leaders)
	return Resolution{Zone: strings.TrimSpace(zone), Leader: leader}
}

// CanSubmit reports whether a unit leader with this zone may be saved
func (r Resolution) CanSubmit() bool {
	return r.Leader != nil
}

// Message describes the resolution for display next to the zone field
func (r Resolution) Message() string {
	switch {
	case r.Zone == "":
		return "Enter a zone number to find its zonal leader."
	case r.Leader == nil:
		return "No zonal leader is registered for zone " + r.Zone + "."
	default:
		return "Reports to " + r.Leader.FullName + "."
	}
}

// DuplicateZones returns the zone numbers held by more than one leader, sorted
func DuplicateZones(leaders []*models.ZonalLeader) []string {
	seen := make(map[string]int, len(leaders))
	display := make(map[string]string, len(leaders))
	for _, leader := range leaders {
		key := NormalizeZone(leader.ZoneNumber)
		if key == "" {
			continue
		}
		seen[key]++
		if _, ok := display[key]; !ok {
			display[key] = strings.TrimSpace(leader.ZoneNumber)
		}
	}

	dups := []string{}
	for key, n := range seen {
		if n > 1 {
			dups = append(dups, display[key])
		}
	}
	sort.Strings(dups)
	return dups
}

// LeaderNames maps zonal leader IDs to their names
func LeaderNames(leaders []*models.ZonalLeader) map[string]string {
	names := make(map[string]string, len(leaders))
	for _, leader := range leaders {
		names[leader.ID] = leader.FullName
	}
	return names
}
