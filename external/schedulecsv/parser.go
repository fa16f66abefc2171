// Package schedulecsv reads the season schedule export: one game per row,
// date in column 0, a "NFL Week N: ..." descriptor in column 2, kickoff time
// in column 7 and the home and away teams in the last two columns. Times are
// local to the league's eastern time zone.
package schedulecsv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/riskibarqy/pickem/internal/usecase"
)

const (
	DefaultLocation = "America/New_York"

	dateColumn     = 0
	slateColumn    = 2
	kickoffColumn  = 7
	minColumns     = kickoffColumn + 1
	kickoffLayout  = "01/02/2006 3:04 PM"
	slateNameShape = "Week %d"
)

var weekPattern = regexp.MustCompile(`(?i)week\s+(\d+)`)

type Parser struct {
	loc *time.Location
}

// NewParser returns a parser for kickoff times in loc. A nil loc resolves DefaultLocation.
func NewParser(loc *time.Location) (*Parser, error) {
	if loc == nil {
		resolved, err := time.LoadLocation(DefaultLocation)
		if err != nil {
			return nil, fmt.Errorf("load schedule location %s: %w", DefaultLocation, err)
		}
		loc = resolved
	}
	return &Parser{loc: loc}, nil
}

// Parse reads every data row after the header. Rows that cannot be parsed are
// reported by index and left out of the returned records.
func (p *Parser) Parse(r io.Reader) ([]usecase.ScheduleRecord, []usecase.RecordError, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	if _, err := reader.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("read schedule header: %w", err)
	}

	records := make([]usecase.ScheduleRecord, 0, 256)
	var rowErrors []usecase.RecordError
	for index := 0; ; index++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				rowErrors = append(rowErrors, usecase.RecordError{Index: index, Message: err.Error()})
				continue
			}
			return nil, nil, fmt.Errorf("read schedule row %d: %w", index, err)
		}

		record, err := p.parseRow(row)
		if err != nil {
			rowErrors = append(rowErrors, usecase.RecordError{Index: index, Message: err.Error()})
			continue
		}
		records = append(records, record)
	}
	return records, rowErrors, nil
}

func (p *Parser) parseRow(row []string) (usecase.ScheduleRecord, error) {
	if len(row) < minColumns {
		return usecase.ScheduleRecord{}, fmt.Errorf("expected at least %d columns, got %d", minColumns, len(row))
	}

	kickoffText := strings.TrimSpace(row[dateColumn]) + " " + strings.ToUpper(strings.TrimSpace(row[kickoffColumn]))
	kickoff, err := time.ParseInLocation(kickoffLayout, kickoffText, p.loc)
	if err != nil {
		return usecase.ScheduleRecord{}, fmt.Errorf("parse kickoff %q: %w", kickoffText, err)
	}

	ordinal, err := ParseWeek(row[slateColumn])
	if err != nil {
		return usecase.ScheduleRecord{}, err
	}

	home := strings.TrimSpace(row[len(row)-2])
	away := strings.TrimSpace(row[len(row)-1])
	if home == "" || away == "" {
		return usecase.ScheduleRecord{}, fmt.Errorf("home and away teams are required")
	}

	return usecase.ScheduleRecord{
		Home:         home,
		Away:         away,
		KickoffAt:    kickoff.UTC(),
		SlateOrdinal: ordinal,
		SlateName:    fmt.Sprintf(slateNameShape, ordinal),
	}, nil
}

// ParseWeek extracts the slate ordinal from "NFL Week 8:    Chargers @ Chiefs".
func ParseWeek(descriptor string) (int, error) {
	match := weekPattern.FindStringSubmatch(descriptor)
	if len(match) != 2 {
		return 0, fmt.Errorf("no week number in %q", strings.TrimSpace(descriptor))
	}
	ordinal, err := strconv.Atoi(match[1])
	if err != nil || ordinal <= 0 {
		return 0, fmt.Errorf("invalid week number in %q", strings.TrimSpace(descriptor))
	}
	return ordinal, nil
}
