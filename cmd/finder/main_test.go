package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/finder/internal/openinghours"
	"github.com/hrygo/finder/server/service/finder"
)

func TestRunHours(t *testing.T) {
	tests := []struct {
		name  string
		value string
		at    string
		tz    string
		want  []string
	}{
		{"open weekday", "Mo-Fr 09:00-17:00", "2025-01-15 10:00", "UTC", []string{"Open\n", "Wed 2025-01-15 10:00 UTC", "clause: Mo-Fr 09:00-17:00 (dayset_time_rule)"}},
		{"holiday", "Mo-Su 11:00-23:00; Dec 25 off", "2025-12-25 12:00", "Europe/Paris", []string{"Closed\n", "clause: Dec 25 off (single_date_exclusion)"}},
		{"not specified", "Not specified", "2025-01-15 10:00", "", []string{"Hours Unknown\n"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			require.NoError(t, runHours(&out, tt.value, tt.at, tt.tz))
			for _, w := range tt.want {
				assert.Contains(t, out.String(), w)
			}
		})
	}
}

func TestRunHours_Errors(t *testing.T) {
	var out bytes.Buffer
	assert.Error(t, runHours(&out, "24/7", "soon", "UTC"))
	assert.Error(t, runHours(&out, "24/7", "", "Nowhere/Town"))
}

func TestPrintRestaurants(t *testing.T) {
	var out bytes.Buffer
	err := printRestaurants(&out, &finder.SearchResult{
		Restaurants: []*finder.Restaurant{
			{Name: "Cafe", Cuisine: "coffee_shop", Badge: openinghours.Open.Badge(), OpeningHours: "Mo-Fr 08:00-12:00", Address: "1 Main St"},
		},
		Message: "Found 1 result(s).",
	})
	require.NoError(t, err)
	lines := bytes.Split(bytes.TrimSpace(out.Bytes()), []byte("\n"))
	require.Len(t, lines, 3)
	assert.Contains(t, string(lines[0]), "NAME")
	assert.Contains(t, string(lines[1]), "Cafe")
	assert.Contains(t, string(lines[1]), "Mo-Fr 08:00-12:00")
	assert.Equal(t, "Found 1 result(s).", string(lines[2]))
}

func TestCommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["serve"])
	assert.True(t, names["hours"])
	assert.True(t, names["search"])

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"hours", "24/7", "--at", "2025-01-15 03:00", "--tz", "UTC"})
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "Open")
}
