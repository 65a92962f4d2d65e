// Package counters holds the merge-associative statistics attached to scope nodes.
package counters

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Number is the set of value types an Opt can carry.
type Number interface {
	~int | ~int64
}

// Opt is a statistic that is either known or explicitly unknown.
// Unknown means the source could not compute it; it is not zero.
type Opt[N Number] struct {
	v     N
	known bool
}

// Known returns an Opt holding v.
func Known[N Number](v N) Opt[N] {
	return Opt[N]{v: v, known: true}
}

// Unknown returns an Opt with no value.
func Unknown[N Number]() Opt[N] {
	return Opt[N]{}
}

// Get returns the value and whether it is known.
func (o Opt[N]) Get() (N, bool) {
	return o.v, o.known
}

// IsKnown reports whether the value is known.
func (o Opt[N]) IsKnown() bool {
	return o.known
}

// Or returns the value, or def when unknown.
func (o Opt[N]) Or(def N) N {
	if !o.known {
		return def
	}
	return o.v
}

// Add is known iff both operands are known.
func (o Opt[N]) Add(other Opt[N]) Opt[N] {
	if !o.known || !other.known {
		return Opt[N]{}
	}
	return Known(o.v + other.v)
}

// String prints the value, or "?" when unknown.
func (o Opt[N]) String() string {
	if !o.known {
		return "?"
	}
	return strconv.FormatInt(int64(o.v), 10)
}

// MarshalJSON encodes unknown as null.
func (o Opt[N]) MarshalJSON() ([]byte, error) {
	if !o.known {
		return []byte("null"), nil
	}
	return json.Marshal(int64(o.v))
}

// UnmarshalJSON decodes null as unknown.
func (o *Opt[N]) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*o = Opt[N]{}
		return nil
	}
	var v int64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("decoding counter value: %w", err)
	}
	*o = Known(N(v))
	return nil
}

// Counters is an immutable rollup of leaf statistics.
// Count is always known; every other field may be unknown.
type Counters struct {
	Count     int                `json:"count"`
	Passed    Opt[int]           `json:"passed"`
	Failed    Opt[int]           `json:"failed"`
	Muted     Opt[int]           `json:"muted"`
	Ignored   Opt[int]           `json:"ignored"`
	NewFailed Opt[int]           `json:"newFailed"`
	Duration  Opt[time.Duration] `json:"duration"`
}

// Zero is the identity for fully-known data: every field known and zero.
func Zero() Counters {
	return Counters{
		Passed:    Known(0),
		Failed:    Known(0),
		Muted:     Known(0),
		Ignored:   Known(0),
		NewFailed: Known(0),
		Duration:  Known(time.Duration(0)),
	}
}

// Merge combines two rollups. A field is known in the result iff it is
// known in both a and b. Merge is associative and commutative.
func Merge(a, b Counters) Counters {
	return Counters{
		Count:     a.Count + b.Count,
		Passed:    a.Passed.Add(b.Passed),
		Failed:    a.Failed.Add(b.Failed),
		Muted:     a.Muted.Add(b.Muted),
		Ignored:   a.Ignored.Add(b.Ignored),
		NewFailed: a.NewFailed.Add(b.NewFailed),
		Duration:  a.Duration.Add(b.Duration),
	}
}

// MergeAll folds cs with Merge. It returns Zero for an empty list.
func MergeAll(cs ...Counters) Counters {
	if len(cs) == 0 {
		return Zero()
	}
	out := cs[0]
	for _, c := range cs[1:] {
		out = Merge(out, c)
	}
	return out
}

// Field names a statistic for ordering and rendering.
type Field string

const (
	FieldCount     Field = "count"
	FieldPassed    Field = "passed"
	FieldFailed    Field = "failed"
	FieldMuted     Field = "muted"
	FieldIgnored   Field = "ignored"
	FieldNewFailed Field = "newFailed"
	FieldDuration  Field = "duration"
)

// Fields lists every statistic in display order.
var Fields = []Field{FieldCount, FieldPassed, FieldFailed, FieldMuted, FieldIgnored, FieldNewFailed, FieldDuration}

// Value returns the named statistic as int64. Durations are in nanoseconds.
// The second result is false when the field is unknown or not a statistic.
func (c Counters) Value(f Field) (int64, bool) {
	switch f {
	case FieldCount:
		return int64(c.Count), true
	case FieldPassed:
		v, ok := c.Passed.Get()
		return int64(v), ok
	case FieldFailed:
		v, ok := c.Failed.Get()
		return int64(v), ok
	case FieldMuted:
		v, ok := c.Muted.Get()
		return int64(v), ok
	case FieldIgnored:
		v, ok := c.Ignored.Get()
		return int64(v), ok
	case FieldNewFailed:
		v, ok := c.NewFailed.Get()
		return int64(v), ok
	case FieldDuration:
		v, ok := c.Duration.Get()
		return int64(v), ok
	default:
		return 0, false
	}
}

// HasFailures reports whether Failed is known and positive.
func (c Counters) HasFailures() bool {
	return c.Failed.Or(0) > 0
}
