package assignment

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"churchadmin/internal/models"
)

func leader(id, name, zone string) *models.ZonalLeader {
	return &models.ZonalLeader{Record: models.Record{ID: id}, FullName: name, ZoneNumber: zone}
}

func TestResolveZonalLeader(t *testing.T) {
	leaders := []*models.ZonalLeader{
		leader("1", "Peter Obi", "1"),
		leader("2", "Mary Ude", "2"),
		leader("3", "Paul Nwosu", "Zone A"),
	}

	tests := []struct {
		name   string
		zone   string
		wantID string
		wantOK bool
	}{
		{"exact match", "2", "2", true},
		{"surrounding whitespace", "  1 ", "1", true},
		{"case-insensitive", "zone a", "3", true},
		{"absent zone", "9", "", false},
		{"empty zone", "", "", false},
		{"blank zone", "   ", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ResolveZonalLeader(tt.zone, leaders)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantID, got.ID)
			} else {
				assert.Nil(t, got)
			}
		})
	}
}

func TestResolveEveryPresentZoneFindsExactlyThatLeader(t *testing.T) {
	leaders := []*models.ZonalLeader{
		leader("a", "A", "1"),
		leader("b", "B", "2"),
		leader("c", "C", "3"),
		leader("d", "D", "10"),
	}
	for _, l := range leaders {
		got, ok := ResolveZonalLeader(l.ZoneNumber, leaders)
		if assert.True(t, ok, "zone %s", l.ZoneNumber) {
			assert.Same(t, l, got)
		}
	}
}

func TestResolveFirstMatchWins(t *testing.T) {
	leaders := []*models.ZonalLeader{
		leader("first", "First", "4"),
		leader("second", "Second", "4"),
	}
	got, ok := ResolveZonalLeader("4", leaders)
	assert.True(t, ok)
	assert.Equal(t, "first", got.ID)
}

func TestResolveNoLeaders(t *testing.T) {
	_, ok := ResolveZonalLeader("1", nil)
	assert.False(t, ok)
}

func TestResolution(t *testing.T) {
	leaders := []*models.ZonalLeader{leader("1", "Peter Obi", "1")}

	matched := Resolve("1", leaders)
	assert.True(t, matched.CanSubmit())
	assert.Equal(t, "Reports to Peter Obi.", matched.Message())

	missing := Resolve(" 7 ", leaders)
	assert.False(t, missing.CanSubmit())
	assert.Equal(t, "No zonal leader is registered for zone 7.", missing.Message())

	empty := Resolve("", leaders)
	assert.False(t, empty.CanSubmit())
	assert.Contains(t, empty.Message(), "Enter a zone number")
}

func TestDuplicateZones(t *testing.T) {
	leaders := []*models.ZonalLeader{
		leader("1", "A", "3"),
		leader("2", "B", "1"),
		leader("3", "C", " 3"),
		leader("4", "D", "Zone B"),
		leader("5", "E", "zone b"),
		leader("6", "F", ""),
		leader("7", "G", ""),
	}

	want := []string{"3", "Zone B"}
	if diff := cmp.Diff(want, DuplicateZones(leaders)); diff != "" {
		t.Errorf("DuplicateZones() mismatch (-want +got):\n%s", diff)
	}

	assert.Empty(t, DuplicateZones(leaders[:2]))
}

func TestLeaderNames(t *testing.T) {
	got := LeaderNames([]*models.ZonalLeader{leader("1", "A", "1"), leader("2", "B", "2")})
	want := map[string]string{"1": "A", "2": "B"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("LeaderNames() mismatch (-want +got):\n%s", diff)
	}
}
