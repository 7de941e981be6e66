package docstore

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/erp/pos/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Op is a filter comparison operator
type Op string

// Supported operators
const (
	OpEq     Op = "=="
	OpNe     Op = "!="
	OpLt     Op = "<"
	OpLte    Op = "<="
	OpGt     Op = ">"
	OpGte    Op = ">="
	OpPrefix Op = "prefix" // case-insensitive string prefix
)

// Filter compares a top-level field against a constant
type Filter struct {
	Field string
	Op    Op
	Value any
}

// Where builds a filter
func Where(field string, op Op, value any) Filter {
	return Filter{Field: field, Op: op, Value: value}
}

// Order sorts by a top-level field
type Order struct {
	Field string
	Desc  bool
}

// Query selects documents from a collection
type Query struct {
	Filters []Filter
	OrderBy []Order
	Limit   int
	Offset  int
}

var fieldPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ErrInvalidQuery is returned for malformed filters or orderings
var ErrInvalidQuery = shared.NewDomainError("INVALID_QUERY", "Invalid document query")

func validateField(field string) error {
	if !fieldPattern.MatchString(field) {
		return shared.WrapDomainError(ErrInvalidQuery.Code, ErrInvalidQuery.Message, fmt.Errorf("invalid field name %q", field))
	}
	return nil
}

// Validate checks field names and operators
func (q Query) Validate() error {
	for _, f := range q.Filters {
		if err := f.validate(); err != nil {
			return err
		}
	}
	for _, o := range q.OrderBy {
		if err := validateField(o.Field); err != nil {
			return err
		}
	}
	if q.Limit < 0 || q.Offset < 0 {
		return shared.WrapDomainError(ErrInvalidQuery.Code, ErrInvalidQuery.Message, fmt.Errorf("negative limit or offset"))
	}
	return nil
}

func (f Filter) validate() error {
	if err := validateField(f.Field); err != nil {
		return err
	}
	switch f.Op {
	case OpEq, OpNe, OpLt, OpLte, OpGt, OpGte:
	case OpPrefix:
		if _, ok := f.Value.(string); !ok {
			return shared.WrapDomainError(ErrInvalidQuery.Code, ErrInvalidQuery.Message, fmt.Errorf("prefix filter on %q needs a string", f.Field))
		}
	default:
		return shared.WrapDomainError(ErrInvalidQuery.Code, ErrInvalidQuery.Message, fmt.Errorf("unsupported operator %q", f.Op))
	}
	return nil
}

// normalize converts a filter value into the shape JSON decoding produces
func normalize(v any) any {
	switch t := v.(type) {
	case int:
		return float64(t)
	case int32:
		return float64(t)
	case int64:
		return float64(t)
	case uint:
		return float64(t)
	case float32:
		return float64(t)
	case decimal.Decimal:
		return t.String()
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return t.String()
		}
		return f
	case fmt.Stringer:
		return t.String()
	default:
		return v
	}
}

// compare orders two decoded JSON values: nil < bool < number < string.
// Values of different kinds compare by kind.
func compare(a, b any) int {
	ka, kb := kind(a), kind(b)
	if ka != kb {
		return ka - kb
	}
	switch av := a.(type) {
	case bool:
		bv := b.(bool)
		switch {
		case av == bv:
			return 0
		case !av:
			return -1
		default:
			return 1
		}
	case float64:
		bv := b.(float64)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		default:
			return 0
		}
	case string:
		return strings.Compare(av, b.(string))
	}
	return 0
}

func kind(v any) int {
	switch v.(type) {
	case nil:
		return 0
	case bool:
		return 1
	case float64:
		return 2
	case string:
		return 3
	default:
		return 4
	}
}

// Matches reports whether fields satisfy every filter
func (q Query) Matches(fields Fields) bool {
	for _, f := range q.Filters {
		if !f.matches(fields) {
			return false
		}
	}
	return true
}

func (f Filter) matches(fields Fields) bool {
	got, present := fields[f.Field]
	want := normalize(f.Value)
	if f.Op == OpPrefix {
		s, ok := got.(string)
		return ok && strings.HasPrefix(strings.ToLower(s), strings.ToLower(want.(string)))
	}
	// SQL comparisons against a missing JSON key are NULL, so nothing matches
	if !present {
		return false
	}
	c := compare(got, want)
	sameKind := kind(got) == kind(want)
	switch f.Op {
	case OpEq:
		return c == 0
	case OpNe:
		return c != 0
	case OpLt:
		return sameKind && c < 0
	case OpLte:
		return sameKind && c <= 0
	case OpGt:
		return sameKind && c > 0
	case OpGte:
		return sameKind && c >= 0
	}
	return false
}
