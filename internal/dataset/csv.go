// Package dataset loads journeys from CSV exports.
//
// The expected format is one row per touchpoint:
//
//	journey_id,channel,timestamp_ms,cost,converted,conversion_value[,conversion_time]
//
// Rows of the same journey may be non-contiguous; journey-level fields
// (converted, conversion_value, conversion_time) must agree across them.
// When conversion_time is omitted it defaults to the last touchpoint time.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/sotirisspyrou-uk/ai-marketing-toolkit/internal/domain"
)

var (
	// ErrBadHeader is returned when the CSV header does not match the expected format.
	ErrBadHeader = errors.New("bad csv header")

	// ErrBadRecord is returned when a CSV row cannot be parsed or contradicts
	// an earlier row of the same journey.
	ErrBadRecord = errors.New("bad csv record")
)

var expectedColumns = []string{
	"journey_id", "channel", "timestamp_ms", "cost", "converted", "conversion_value",
}

const conversionTimeColumn = "conversion_time"

// ParseJourneys reads touchpoint rows and groups them into journeys.
// Journeys are returned in first-seen order with touchpoints sorted by timestamp.
func ParseJourneys(r io.Reader) ([]*domain.Journey, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // validated per row, conversion_time is optional

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty input", ErrBadHeader)
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	hasConversionTime, err := validateHeader(header)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*domain.Journey)
	var order []string

	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv record at line %d: %w", line, err)
		}

		if err := appendRecord(byID, &order, record, hasConversionTime, line); err != nil {
			return nil, err
		}
	}

	journeys := make([]*domain.Journey, 0, len(order))
	for _, id := range order {
		j := byID[id]
		sort.SliceStable(j.Touchpoints, func(a, b int) bool {
			return j.Touchpoints[a].TimestampMs < j.Touchpoints[b].TimestampMs
		})
		if j.Converted && j.ConversionTime == 0 && len(j.Touchpoints) > 0 {
			j.ConversionTime = j.Touchpoints[len(j.Touchpoints)-1].TimestampMs
		}
		journeys = append(journeys, j)
	}

	return journeys, nil
}

// LoadJourneysFile parses journeys from a CSV file on disk.
func LoadJourneysFile(path string) ([]*domain.Journey, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open journeys file: %w", err)
	}
	defer f.Close()

	journeys, err := ParseJourneys(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return journeys, nil
}

func validateHeader(header []string) (hasConversionTime bool, err error) {
	if len(header) < len(expectedColumns) || len(header) > len(expectedColumns)+1 {
		return false, fmt.Errorf("%w: expected %d or %d columns, got %d",
			ErrBadHeader, len(expectedColumns), len(expectedColumns)+1, len(header))
	}
	for i, want := range expectedColumns {
		if strings.TrimSpace(header[i]) != want {
			return false, fmt.Errorf("%w: column %d is %q, want %q", ErrBadHeader, i, header[i], want)
		}
	}
	if len(header) == len(expectedColumns)+1 {
		if strings.TrimSpace(header[len(expectedColumns)]) != conversionTimeColumn {
			return false, fmt.Errorf("%w: column %d is %q, want %q",
				ErrBadHeader, len(expectedColumns), header[len(expectedColumns)], conversionTimeColumn)
		}
		hasConversionTime = true
	}
	return hasConversionTime, nil
}

func appendRecord(byID map[string]*domain.Journey, order *[]string, record []string, hasConversionTime bool, line int) error {
	want := len(expectedColumns)
	if hasConversionTime {
		want++
	}
	if len(record) != want {
		return fmt.Errorf("%w: line %d has %d fields, want %d", ErrBadRecord, line, len(record), want)
	}

	journeyID := strings.TrimSpace(record[0])
	channel := strings.TrimSpace(record[1])
	if journeyID == "" || channel == "" {
		return fmt.Errorf("%w: line %d: journey_id and channel are required", ErrBadRecord, line)
	}

	timestampMs, err := strconv.ParseInt(strings.TrimSpace(record[2]), 10, 64)
	if err != nil {
		return fmt.Errorf("%w: line %d: timestamp_ms: %v", ErrBadRecord, line, err)
	}
	cost, err := strconv.ParseFloat(strings.TrimSpace(record[3]), 64)
	if err != nil {
		return fmt.Errorf("%w: line %d: cost: %v", ErrBadRecord, line, err)
	}
	converted, err := strconv.ParseBool(strings.TrimSpace(record[4]))
	if err != nil {
		return fmt.Errorf("%w: line %d: converted: %v", ErrBadRecord, line, err)
	}
	conversionValue, err := strconv.ParseFloat(strings.TrimSpace(record[5]), 64)
	if err != nil {
		return fmt.Errorf("%w: line %d: conversion_value: %v", ErrBadRecord, line, err)
	}

	var conversionTime int64
	if hasConversionTime {
		conversionTime, err = strconv.ParseInt(strings.TrimSpace(record[6]), 10, 64)
		if err != nil {
			return fmt.Errorf("%w: line %d: conversion_time: %v", ErrBadRecord, line, err)
		}
	}

	j, exists := byID[journeyID]
	if !exists {
		j = &domain.Journey{
			JourneyID:       journeyID,
			Converted:       converted,
			ConversionValue: conversionValue,
			ConversionTime:  conversionTime,
		}
		byID[journeyID] = j
		*order = append(*order, journeyID)
	} else if j.Converted != converted || j.ConversionValue != conversionValue ||
		(hasConversionTime && j.ConversionTime != conversionTime) {
		return fmt.Errorf("%w: line %d: journey %s has inconsistent conversion fields",
			ErrBadRecord, line, journeyID)
	}

	j.Touchpoints = append(j.Touchpoints, domain.Touchpoint{
		Channel:     channel,
		TimestampMs: timestampMs,
		Cost:        cost,
	})

	return nil
}
