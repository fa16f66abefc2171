package schedulecsv

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSchedule = `Date,Day,Game,Network,Away,Home,Venue,Time,Home Team,Away Team
09/08/2011,Thu,"NFL Week 1:    Saints @ Packers          [TV: NBC]",NBC,,,Lambeau,8:30 PM,Packers,Saints
09/11/2011,Sun,"NFL Week 1:    Falcons @ Bears",FOX,,,Soldier,1:00 pm,Bears,Falcons
10/31/2011,Mon,"NFL Week 8:    Chargers @ Chiefs          [TV: ESPN]",ESPN,,,Arrowhead,8:30 PM,Chiefs,Chargers
13/40/2011,Mon,"NFL Week 9: broken",ESPN,,,Nowhere,8:30 PM,Chiefs,Chargers
11/06/2011,Sun,"Preseason game",CBS,,,Nowhere,1:00 PM,Chiefs,Dolphins
`

func TestParserParse(t *testing.T) {
	t.Parallel()

	parser, err := NewParser(nil)
	require.NoError(t, err)

	records, rowErrors, err := parser.Parse(strings.NewReader(sampleSchedule))
	require.NoError(t, err)
	require.Len(t, records, 3)
	require.Len(t, rowErrors, 2)

	first := records[0]
	assert.Equal(t, "Packers", first.Home)
	assert.Equal(t, "Saints", first.Away)
	assert.Equal(t, 1, first.SlateOrdinal)
	assert.Equal(t, "Week 1", first.SlateName)
	// 20:30 EDT is 00:30 UTC the next day.
	assert.Equal(t, time.Date(2011, time.September, 9, 0, 30, 0, 0, time.UTC), first.KickoffAt)

	assert.Equal(t, time.Date(2011, time.September, 11, 17, 0, 0, 0, time.UTC), records[1].KickoffAt)

	last := records[2]
	assert.Equal(t, 8, last.SlateOrdinal)
	assert.Equal(t, "Chiefs", last.Home)
	assert.Equal(t, "Chargers", last.Away)
	// Eastern daylight time runs into November.
	assert.Equal(t, time.Date(2011, time.November, 1, 0, 30, 0, 0, time.UTC), last.KickoffAt)

	assert.Equal(t, 3, rowErrors[0].Index)
	assert.Equal(t, 4, rowErrors[1].Index)
	assert.Contains(t, rowErrors[1].Message, "no week number")
}

func TestParserParseEmpty(t *testing.T) {
	t.Parallel()

	parser, err := NewParser(time.UTC)
	require.NoError(t, err)

	records, rowErrors, err := parser.Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Empty(t, rowErrors)
}

func TestParseWeek(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{in: "NFL Week 8:    Chargers @ Chiefs          [TV: ESPN]", want: 8},
		{in: "nfl week 17: finale", want: 17},
		{in: "Week 0", wantErr: true},
		{in: "Hall of Fame Game", wantErr: true},
	}

	for _, tc := range tests {
		got, err := ParseWeek(tc.in)
		if tc.wantErr {
			assert.Error(t, err, tc.in)
			continue
		}
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}
