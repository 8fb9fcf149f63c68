package admissions

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"admissionsdash/pkg/contracts/domain"
)

var (
	// ErrUnknownField is returned when a query names a column the table lacks.
	ErrUnknownField = errors.New("unknown field")
	// ErrRowOutOfRange is returned by row accessors for a bad index.
	ErrRowOutOfRange = errors.New("row index out of range")
)

type matcher func(*domain.StudentRecord) bool

// Predicate selects rows. Predicates are resolved against a table when
// Filter runs, so an unknown field is reported there.
type Predicate struct {
	bind func(t *Table) (matcher, error)
}

func (t *Table) lookup(field string) (fieldSpec, error) {
	spec, ok := t.field(field)
	if !ok {
		return fieldSpec{}, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return spec, nil
}

func fieldPredicate(field string, build func(fieldSpec) matcher) Predicate {
	return Predicate{bind: func(t *Table) (matcher, error) {
		spec, err := t.lookup(field)
		if err != nil {
			return nil, err
		}
		return build(spec), nil
	}}
}

// Equals matches rows whose field equals value. Numeric fields compare by
// value, so "2023" and "2023.0" both match a year of 2023; boolean fields
// match "true" or "false". Missing values never match.
func Equals(field, value string) Predicate {
	return fieldPredicate(field, func(spec fieldSpec) matcher {
		if spec.kind == kindNumber {
			want := coerceFloat(value)
			return func(r *domain.StudentRecord) bool {
				got := spec.number(r)
				return want.Valid && got.Valid && got.Value == want.Value
			}
		}
		return func(r *domain.StudentRecord) bool {
			got := spec.text(r)
			return got.Valid && got.Value == value
		}
	})
}

// Between matches rows whose numeric field lies in [lo, hi]. Missing values
// never match.
func Between(field string, lo, hi float64) Predicate {
	return fieldPredicate(field, func(spec fieldSpec) matcher {
		return func(r *domain.StudentRecord) bool {
			v := spec.number(r)
			return v.Valid && v.Value >= lo && v.Value <= hi
		}
	})
}

// Contains matches rows whose field contains substr literally. A missing
// value is searched as empty text.
func Contains(field, substr string) Predicate {
	return fieldPredicate(field, func(spec fieldSpec) matcher {
		return func(r *domain.StudentRecord) bool {
			return strings.Contains(spec.text(r).Value, substr)
		}
	})
}

// IsTrue matches rows whose field is true.
func IsTrue(field string) Predicate {
	return fieldPredicate(field, func(spec fieldSpec) matcher {
		return func(r *domain.StudentRecord) bool {
			v := spec.text(r)
			return v.Valid && v.Value == "true"
		}
	})
}

// NotMissing matches rows where field has a value.
func NotMissing(field string) Predicate {
	return fieldPredicate(field, func(spec fieldSpec) matcher {
		return func(r *domain.StudentRecord) bool {
			return spec.text(r).Valid
		}
	})
}

// AnyOf matches rows accepted by at least one of preds. With no predicates
// it matches every row.
func AnyOf(preds ...Predicate) Predicate {
	return Predicate{bind: func(t *Table) (matcher, error) {
		if len(preds) == 0 {
			return func(*domain.StudentRecord) bool { return true }, nil
		}
		ms, err := bindAll(t, preds)
		if err != nil {
			return nil, err
		}
		return func(r *domain.StudentRecord) bool {
			for _, m := range ms {
				if m(r) {
					return true
				}
			}
			return false
		}, nil
	}}
}

func bindAll(t *Table, preds []Predicate) ([]matcher, error) {
	ms := make([]matcher, 0, len(preds))
	for _, p := range preds {
		if p.bind == nil {
			continue
		}
		m, err := p.bind(t)
		if err != nil {
			return nil, err
		}
		ms = append(ms, m)
	}
	return ms, nil
}

// Filter returns the rows matching every predicate, in their original order.
func (t *Table) Filter(preds ...Predicate) (*Table, error) {
	ms, err := bindAll(t, preds)
	if err != nil {
		return nil, err
	}

	rows := make([]domain.StudentRecord, 0, len(t.rows))
next:
	for i := range t.rows {
		for _, m := range ms {
			if !m(&t.rows[i]) {
				continue next
			}
		}
		rows = append(rows, t.rows[i])
	}
	return t.derive(rows), nil
}

// GroupCount is the number of rows sharing one combination of key values.
type GroupCount struct {
	Keys  []string `json:"keys"`
	Count int      `json:"count"`
}

// GroupMean is the mean of a numeric field over one group.
type GroupMean struct {
	Keys  []string `json:"keys"`
	Mean  float64  `json:"mean"`
	Count int      `json:"count"`
}

type groupAcc struct {
	keys  []string
	count int
	sum   float64
}

// groups partitions rows by the given keys, skipping rows with any key
// missing. Groups come back ordered by key, numeric keys numerically.
func (t *Table) groups(keys []string, visit func(acc *groupAcc, r *domain.StudentRecord)) ([]*groupAcc, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("%w: no group keys", ErrUnknownField)
	}
	specs := make([]fieldSpec, len(keys))
	for i, k := range keys {
		spec, err := t.lookup(k)
		if err != nil {
			return nil, err
		}
		specs[i] = spec
	}

	index := make(map[string]*groupAcc)
	var out []*groupAcc
rows:
	for i := range t.rows {
		r := &t.rows[i]
		vals := make([]string, len(specs))
		for j, spec := range specs {
			v := spec.text(r)
			if !v.Valid {
				continue rows
			}
			vals[j] = v.Value
		}
		id := strings.Join(vals, "\x1f")
		acc, ok := index[id]
		if !ok {
			acc = &groupAcc{keys: vals}
			index[id] = acc
			out = append(out, acc)
		}
		visit(acc, r)
	}

	sort.SliceStable(out, func(a, b int) bool {
		return compareKeys(specs, out[a].keys, out[b].keys) < 0
	})
	return out, nil
}

func compareKeys(specs []fieldSpec, a, b []string) int {
	for i, spec := range specs {
		if c := compareValues(spec.kind, a[i], b[i]); c != 0 {
			return c
		}
	}
	return 0
}

func compareValues(kind fieldKind, a, b string) int {
	if kind == kindNumber {
		fa, errA := strconv.ParseFloat(a, 64)
		fb, errB := strconv.ParseFloat(b, 64)
		if errA == nil && errB == nil {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			}
			return 0
		}
	}
	return strings.Compare(a, b)
}

// GroupCount counts rows per combination of keys.
func (t *Table) GroupCount(keys ...string) ([]GroupCount, error) {
	groups, err := t.groups(keys, func(acc *groupAcc, _ *domain.StudentRecord) {
		acc.count++
	})
	if err != nil {
		return nil, err
	}

	out := make([]GroupCount, len(groups))
	for i, g := range groups {
		out[i] = GroupCount{Keys: g.keys, Count: g.count}
	}
	return out, nil
}

// GroupMean averages the numeric field value per combination of keys.
// Missing values are skipped and groups without any value are dropped.
func (t *Table) GroupMean(value string, keys ...string) ([]GroupMean, error) {
	spec, err := t.lookup(value)
	if err != nil {
		return nil, err
	}

	groups, err := t.groups(keys, func(acc *groupAcc, r *domain.StudentRecord) {
		if v := spec.number(r); v.Valid {
			acc.count++
			acc.sum += v.Value
		}
	})
	if err != nil {
		return nil, err
	}

	out := make([]GroupMean, 0, len(groups))
	for _, g := range groups {
		if g.count == 0 {
			continue
		}
		out = append(out, GroupMean{Keys: g.keys, Mean: g.sum / float64(g.count), Count: g.count})
	}
	return out, nil
}

// NumericRange returns the smallest and largest value of field. ok is false
// when the field is unknown or has no values.
func (t *Table) NumericRange(field string) (lo, hi float64, ok bool) {
	spec, found := t.field(field)
	if !found {
		return 0, 0, false
	}
	for i := range t.rows {
		v := spec.number(&t.rows[i])
		if !v.Valid {
			continue
		}
		if !ok || v.Value < lo {
			lo = v.Value
		}
		if !ok || v.Value > hi {
			hi = v.Value
		}
		ok = true
	}
	return lo, hi, ok
}

// Distinct returns the sorted distinct values of field, missing excluded.
// Unknown fields yield nil.
func (t *Table) Distinct(field string) []string {
	spec, found := t.field(field)
	if !found {
		return nil
	}

	seen := make(map[string]bool)
	var out []string
	for i := range t.rows {
		v := spec.text(&t.rows[i])
		if !v.Valid || seen[v.Value] {
			continue
		}
		seen[v.Value] = true
		out = append(out, v.Value)
	}
	sort.Slice(out, func(a, b int) bool {
		return compareValues(spec.kind, out[a], out[b]) < 0
	})
	return out
}
