package core

import (
	"encoding/json"
	"fmt"
	"time"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// Date is a calendar date with no time-of-day component. All arithmetic
// runs in UTC so a given calendar date resolves identically regardless of
// server timezone.
type Date struct {
	time.Time
}

// YearMonth identifies an accounting period.
type YearMonth struct {
	Year  int `json:"year"`
	Month int `json:"month"` // 1-12
}

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string. Malformed input is a caller bug;
// the error exists so boundaries can reject it explicitly.
func ParseDate(s string) (Date, error) {
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Date{Time: t}, nil
}

// String formats the date as YYYY-MM-DD, the inverse of ParseDate.
func (d Date) String() string {
	return d.Format(DateLayout)
}

// YearMonthString formats as YYYY-MM.
func (d Date) YearMonthString() string {
	return d.Format("2006-01")
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// YearMonth returns the calendar period the date falls in.
func (d Date) YearMonth() YearMonth {
	return YearMonth{Year: d.Time.Year(), Month: int(d.Time.Month())}
}

// DaysInMonth returns the number of days in the given calendar month.
func DaysInMonth(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// AddMonthsClamped adds n calendar months (n may be negative). When the
// resulting month is shorter than the original day-of-month, the day is
// clamped to the last valid day, e.g. Jan 31 + 1 month lands on Feb 29 in
// a leap year and Feb 28 otherwise. time.AddDate is deliberately avoided
// because it normalizes overflow into the next month instead of clamping.
func (d Date) AddMonthsClamped(n int) Date {
	year, month, day := d.Date()
	total := year*12 + int(month) - 1 + n
	ny, nm := total/12, total%12+1
	if total < 0 && total%12 != 0 {
		// floor division for dates before year zero; unreachable for
		// real data but keeps the arithmetic total.
		ny, nm = total/12-1, total%12+13
	}
	if last := DaysInMonth(ny, nm); day > last {
		day = last
	}
	return NewDate(ny, nm, day)
}

// AccountingMonth maps a transaction date to its accounting period: the
// calendar month itself, or one month later when billing is deferred
// (credit-card rows post the following month, December rolls into January
// of the next year).
func AccountingMonth(d Date, deferred bool) YearMonth {
	if !deferred {
		return d.YearMonth()
	}
	return d.AddMonthsClamped(1).YearMonth()
}

// AccountingMonthOf is AccountingMonth over a raw YYYY-MM-DD string.
func AccountingMonthOf(dateStr string, deferred bool) (YearMonth, error) {
	d, err := ParseDate(dateStr)
	if err != nil {
		return YearMonth{}, err
	}
	return AccountingMonth(d, deferred), nil
}

// String formats as YYYY-MM.
func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, ym.Month)
}

// Next returns the following calendar month.
func (ym YearMonth) Next() YearMonth {
	if ym.Month == 12 {
		return YearMonth{Year: ym.Year + 1, Month: 1}
	}
	return YearMonth{Year: ym.Year, Month: ym.Month + 1}
}

// Prev returns the preceding calendar month.
func (ym YearMonth) Prev() YearMonth {
	if ym.Month == 1 {
		return YearMonth{Year: ym.Year - 1, Month: 12}
	}
	return YearMonth{Year: ym.Year, Month: ym.Month - 1}
}

// First returns the first day of the period.
func (ym YearMonth) First() Date {
	return NewDate(ym.Year, ym.Month, 1)
}

// Last returns the last day of the period.
func (ym YearMonth) Last() Date {
	return NewDate(ym.Year, ym.Month, DaysInMonth(ym.Year, ym.Month))
}

// Before reports whether ym precedes other.
func (ym YearMonth) Before(other YearMonth) bool {
	if ym.Year != other.Year {
		return ym.Year < other.Year
	}
	return ym.Month < other.Month
}
