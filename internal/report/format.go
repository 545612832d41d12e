package report

import (
	"time"

	"actionplan-tracker/internal/utils"
)

// Formatter renders dates the same way regardless of the caller's locale.
// The zero value formats in UTC.
type Formatter struct {
	loc *time.Location
}

// NewFormatter returns a Formatter bound to loc (UTC when nil)
func NewFormatter(loc *time.Location) Formatter {
	return Formatter{loc: loc}
}

// Location is the reporting timezone
func (f Formatter) Location() *time.Location {
	if f.loc == nil {
		return time.UTC
	}
	return f.loc
}

// ParseDate reads a stored task date in the reporting timezone
func (f Formatter) ParseDate(s string) (time.Time, error) {
	return utils.ParseDate(s, f.Location())
}

// FormatDate renders t as dd/MM/yyyy
func (f Formatter) FormatDate(t time.Time) string {
	return t.In(f.Location()).Format(utils.DisplayDateLayout)
}

// FormatTimestamp renders t as dd/MM/yyyy HH:mm
func (f Formatter) FormatTimestamp(t time.Time) string {
	return t.In(f.Location()).Format(utils.DisplayDateTimeLayout)
}

// GeneratedLine is the generation stamp printed under the report title
func (f Formatter) GeneratedLine(t time.Time) string {
	return "Generated on: " + f.FormatTimestamp(t)
}
