package fundamentals

import (
	"errors"
	"fmt"
	"sort"
)

// ErrDuplicatePeriod is returned when one statement source reports the same
// period twice for a symbol.
var ErrDuplicatePeriod = errors.New("duplicate period in statement")

type recordKey struct {
	symbol string
	period Period
}

// epsSources is evaluated in order per record; the first available wins.
var epsSources = []func(IncomeObservation) Value{
	func(o IncomeObservation) Value { return o.BasicEPS },
	func(o IncomeObservation) Value { return o.DilutedEPS },
}

func resolveEPS(o IncomeObservation) Value {
	for _, source := range epsSources {
		if v := source(o); v.Valid() {
			return v
		}
	}
	return NA
}

// Merger upserts income and balance observations into one record per
// (symbol, period).
type Merger struct {
	include     func(Period) bool
	records     map[recordKey]*StatementRecord
	seenIncome  map[recordKey]bool
	seenBalance map[recordKey]bool
}

// NewMerger creates a merger. include pre-filters periods; nil keeps all.
func NewMerger(include func(Period) bool) *Merger {
	if include == nil {
		include = func(Period) bool { return true }
	}
	return &Merger{
		include:     include,
		records:     make(map[recordKey]*StatementRecord),
		seenIncome:  make(map[recordKey]bool),
		seenBalance: make(map[recordKey]bool),
	}
}

func (m *Merger) upsert(key recordKey) *StatementRecord {
	rec, ok := m.records[key]
	if !ok {
		rec = &StatementRecord{
			Symbol:                  key.symbol,
			Period:                  key.period,
			OtherCurrentLiabilities: Of(0),
		}
		m.records[key] = rec
	}
	return rec
}

// setIfMissing writes v only into a field that is still not-available.
func setIfMissing(field *Value, v Value) {
	*field = field.Or(v)
}

// AddIncome merges one income observation.
func (m *Merger) AddIncome(symbol string, o IncomeObservation) error {
	if !m.include(o.Period) {
		return nil
	}
	key := recordKey{symbol, o.Period}
	if m.seenIncome[key] {
		return fmt.Errorf("%w: %s income %s", ErrDuplicatePeriod, symbol, o.Period)
	}
	m.seenIncome[key] = true

	rec := m.upsert(key)
	setIfMissing(&rec.GrossProfit, o.GrossProfit)
	setIfMissing(&rec.EPS, resolveEPS(o))
	return nil
}

// AddBalance merges one balance-sheet observation. An absent other current
// liabilities item keeps its default of 0.
func (m *Merger) AddBalance(symbol string, o BalanceObservation) error {
	if !m.include(o.Period) {
		return nil
	}
	key := recordKey{symbol, o.Period}
	if m.seenBalance[key] {
		return fmt.Errorf("%w: %s balance %s", ErrDuplicatePeriod, symbol, o.Period)
	}
	m.seenBalance[key] = true

	rec := m.upsert(key)
	setIfMissing(&rec.CurrentLiabilities, o.CurrentLiabilities)
	if o.OtherCurrentLiabilities.Valid() {
		rec.OtherCurrentLiabilities = o.OtherCurrentLiabilities
	}
	setIfMissing(&rec.TotalAssets, o.TotalAssets)
	return nil
}

// Add merges all observations of one symbol's statements.
func (m *Merger) Add(st Statements) error {
	for _, o := range st.Income {
		if err := m.AddIncome(st.Symbol, o); err != nil {
			return err
		}
	}
	for _, o := range st.Balance {
		if err := m.AddBalance(st.Symbol, o); err != nil {
			return err
		}
	}
	return nil
}

// Records materializes the merged records for symbol in ascending period order.
func (m *Merger) Records(symbol string) []StatementRecord {
	out := make([]StatementRecord, 0)
	for key, rec := range m.records {
		if key.symbol == symbol {
			out = append(out, *rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period.Before(out[j].Period) })
	return out
}

// MergeStatements merges one symbol's statements in isolation.
func MergeStatements(st Statements, include func(Period) bool) ([]StatementRecord, error) {
	m := NewMerger(include)
	if err := m.Add(st); err != nil {
		return nil, err
	}
	return m.Records(st.Symbol), nil
}
