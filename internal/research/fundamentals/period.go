package fundamentals

import (
	"fmt"
	"strings"
	"time"
)

// Granularity selects annual or quarterly statements. Each granularity runs
// as its own engine instance.
type Granularity int

const (
	Annual Granularity = iota
	Quarterly
)

func (g Granularity) String() string {
	if g == Quarterly {
		return "quarterly"
	}
	return "annual"
}

// ParseGranularity accepts "annual" or "quarterly" in any case.
func ParseGranularity(s string) (Granularity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "annual", "yearly":
		return Annual, nil
	case "quarterly", "quarter":
		return Quarterly, nil
	default:
		return Annual, fmt.Errorf("unknown granularity %q (valid: annual, quarterly)", s)
	}
}

// Period is a fiscal year (Quarter == 0) or a calendar quarter of a year.
type Period struct {
	Year    int `json:"year"`
	Quarter int `json:"quarter,omitempty"`
}

func AnnualPeriod(year int) Period { return Period{Year: year} }

func QuarterPeriod(year, quarter int) Period { return Period{Year: year, Quarter: quarter} }

// PeriodFromDate maps a statement date to its period: the year of the date for
// annual statements, its calendar quarter for quarterly ones.
func PeriodFromDate(g Granularity, t time.Time) Period {
	if g == Quarterly {
		return QuarterPeriod(t.Year(), (int(t.Month())-1)/3+1)
	}
	return AnnualPeriod(t.Year())
}

// Compare returns -1, 0 or +1 ordering p against o chronologically.
func (p Period) Compare(o Period) int {
	switch {
	case p.Year < o.Year:
		return -1
	case p.Year > o.Year:
		return 1
	case p.Quarter < o.Quarter:
		return -1
	case p.Quarter > o.Quarter:
		return 1
	}
	return 0
}

func (p Period) Before(o Period) bool { return p.Compare(o) < 0 }

// Prev returns the preceding period of the same granularity.
func (p Period) Prev() Period {
	if p.Quarter == 0 {
		return AnnualPeriod(p.Year - 1)
	}
	if p.Quarter == 1 {
		return QuarterPeriod(p.Year-1, 4)
	}
	return QuarterPeriod(p.Year, p.Quarter-1)
}

// Label is the column token for the period: "2024" or "2024Q3".
func (p Period) Label() string {
	if p.Quarter == 0 {
		return fmt.Sprintf("%d", p.Year)
	}
	return fmt.Sprintf("%dQ%d", p.Year, p.Quarter)
}

func (p Period) String() string { return p.Label() }
