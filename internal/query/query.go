// Package query implements the prefix-notation domain mini-language used to
// filter and order record collections. A domain is a flattened boolean
// expression: logical tokens ("&", "|", "!") followed by their operands,
// where each leaf is a (field, operator, value) condition. It mirrors
// Polish notation, so Domain{"&", c1, "|", c2, c3} reads as c1 AND (c2 OR c3).
package query

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"time"
)

// ErrValidation is returned for malformed domains: wrong logical-operator
// arity, unknown comparators or fields, or unparsable order clauses.
var ErrValidation = errors.New("validation error")

// Logical operator tokens accepted inside a Domain.
const (
	OpAnd = "&"
	OpOr  = "|"
	OpNot = "!"
)

// Condition is a leaf of a domain expression.
type Condition struct {
	Field string
	Op    string
	Value any
}

// Domain is a flattened prefix-notation boolean expression. Elements are
// either logical operator tokens (OpAnd, OpOr, OpNot) or Condition values.
// An empty domain matches every record.
type Domain []any

// Options controls ordering and truncation of search results.
// Order holds one or more "<field> asc|desc" clauses, comma or whitespace
// separated; the direction keyword is case-insensitive. Limit truncates the
// result after ordering; zero or negative means no limit.
type Options struct {
	Limit int
	Order string
}

// FieldFunc resolves a named field on a record. The second return value
// reports whether the field exists; unknown fields fail the search with
// ErrValidation rather than silently matching nothing.
type FieldFunc[T any] func(rec T, field string) (any, bool)

// Search evaluates domain against records and returns the matching subset,
// ordered and truncated per opts. The input slice and domain are never
// mutated; parsing walks the domain by index so callers can reuse it.
func Search[T any](records []T, domain Domain, fields FieldFunc[T], opts Options) ([]T, error) {
	pred, next, err := parseDomain(domain, 0, fields)
	if err != nil {
		return nil, err
	}
	if next != len(domain) {
		return nil, fmt.Errorf("%w: trailing domain elements at position %d", ErrValidation, next)
	}

	var matched []T
	for _, rec := range records {
		ok, err := pred(rec)
		if err != nil {
			return nil, err
		}
		if ok {
			matched = append(matched, rec)
		}
	}

	if opts.Order != "" {
		if err := orderRecords(matched, opts.Order, fields); err != nil {
			return nil, err
		}
	}

	if opts.Limit > 0 && len(matched) > opts.Limit {
		matched = matched[:opts.Limit]
	}
	return matched, nil
}

// parseDomain consumes one sub-expression starting at pos and returns its
// predicate together with the index of the first unconsumed element. "!"
// takes exactly one following sub-expression, "&" and "|" exactly two,
// consumed greedily from the front.
func parseDomain[T any](domain Domain, pos int, fields FieldFunc[T]) (func(T) (bool, error), int, error) {
	if pos >= len(domain) {
		if pos == 0 {
			return func(T) (bool, error) { return true, nil }, 0, nil
		}
		return nil, 0, fmt.Errorf("%w: logical operator is missing an operand", ErrValidation)
	}

	switch el := domain[pos].(type) {
	case string:
		switch el {
		case OpNot:
			operand, next, err := parseDomain(domain, pos+1, fields)
			if err != nil {
				return nil, 0, err
			}
			return func(rec T) (bool, error) {
				ok, err := operand(rec)
				return !ok, err
			}, next, nil

		case OpAnd, OpOr:
			left, next, err := parseDomain(domain, pos+1, fields)
			if err != nil {
				return nil, 0, err
			}
			right, next, err := parseDomain(domain, next, fields)
			if err != nil {
				return nil, 0, err
			}
			if el == OpAnd {
				return func(rec T) (bool, error) {
					ok, err := left(rec)
					if err != nil || !ok {
						return false, err
					}
					return right(rec)
				}, next, nil
			}
			return func(rec T) (bool, error) {
				ok, err := left(rec)
				if err != nil || ok {
					return ok, err
				}
				return right(rec)
			}, next, nil

		default:
			return nil, 0, fmt.Errorf("%w: unknown logical operator %q", ErrValidation, el)
		}

	case Condition:
		pred, err := conditionPredicate(el, fields)
		if err != nil {
			return nil, 0, err
		}
		return pred, pos + 1, nil

	default:
		return nil, 0, fmt.Errorf("%w: domain element %d has unsupported type %T", ErrValidation, pos, el)
	}
}

func conditionPredicate[T any](cond Condition, fields FieldFunc[T]) (func(T) (bool, error), error) {
	cmp, err := comparator(cond)
	if err != nil {
		return nil, err
	}
	return func(rec T) (bool, error) {
		fieldValue, ok := fields(rec, cond.Field)
		if !ok {
			return false, fmt.Errorf("%w: unknown field %q", ErrValidation, cond.Field)
		}
		return cmp(fieldValue)
	}, nil
}

// comparator builds the value predicate for a single condition. Comparator
// validity is checked here, before any record is touched, so a malformed
// condition fails even on an empty record set.
func comparator(cond Condition) (func(fieldValue any) (bool, error), error) {
	switch cond.Op {
	case "=":
		return func(v any) (bool, error) { return equalValues(v, cond.Value), nil }, nil
	case "!=":
		return func(v any) (bool, error) { return !equalValues(v, cond.Value), nil }, nil

	case ">", "<", ">=", "<=":
		op := cond.Op
		return func(v any) (bool, error) {
			c, err := compareValues(v, cond.Value)
			if err != nil {
				return false, fmt.Errorf("%w: field %q: %v", ErrValidation, cond.Field, err)
			}
			switch op {
			case ">":
				return c > 0, nil
			case "<":
				return c < 0, nil
			case ">=":
				return c >= 0, nil
			default:
				return c <= 0, nil
			}
		}, nil

	case "like", "ilike":
		pattern, ok := cond.Value.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %s comparator requires a string pattern, got %T", ErrValidation, cond.Op, cond.Value)
		}
		re, err := compileLike(pattern, cond.Op == "ilike")
		if err != nil {
			return nil, fmt.Errorf("%w: invalid pattern %q: %v", ErrValidation, pattern, err)
		}
		return func(v any) (bool, error) {
			s, ok := v.(string)
			if !ok {
				return false, nil
			}
			return re.MatchString(s), nil
		}, nil

	case "in":
		rv := reflect.ValueOf(cond.Value)
		if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
			return nil, fmt.Errorf("%w: in comparator requires a slice value, got %T", ErrValidation, cond.Value)
		}
		members := make([]any, rv.Len())
		for i := range members {
			members[i] = rv.Index(i).Interface()
		}
		return func(v any) (bool, error) {
			for _, m := range members {
				if equalValues(v, m) {
					return true, nil
				}
			}
			return false, nil
		}, nil

	default:
		return nil, fmt.Errorf("%w: unknown comparator %q", ErrValidation, cond.Op)
	}
}

// compileLike translates an SQL LIKE pattern ("%" matches any run, "_" any
// single character) into an anchored regular expression.
func compileLike(pattern string, caseInsensitive bool) (*regexp.Regexp, error) {
	var sb strings.Builder
	if caseInsensitive {
		sb.WriteString("(?i)")
	}
	sb.WriteString("(?s)^")
	for _, r := range pattern {
		switch r {
		case '%':
			sb.WriteString(".*")
		case '_':
			sb.WriteString(".")
		default:
			sb.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	sb.WriteString("$")
	return regexp.Compile(sb.String())
}

// equalValues reports loose equality: comparable values (numbers, strings,
// times) compare by value, everything else falls back to DeepEqual.
func equalValues(a, b any) bool {
	if c, err := compareValues(a, b); err == nil {
		return c == 0
	}
	return reflect.DeepEqual(a, b)
}

// compareValues orders two values. Mixed numeric types compare numerically,
// strings lexically and time.Time chronologically.
func compareValues(a, b any) (int, error) {
	if af, aok := toFloat(a); aok {
		bf, bok := toFloat(b)
		if !bok {
			return 0, fmt.Errorf("cannot compare %T with %T", a, b)
		}
		switch {
		case af < bf:
			return -1, nil
		case af > bf:
			return 1, nil
		default:
			return 0, nil
		}
	}

	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		if !ok {
			return 0, fmt.Errorf("cannot compare %T with %T", a, b)
		}
		return strings.Compare(av, bv), nil
	case time.Time:
		bv, ok := b.(time.Time)
		if !ok {
			return 0, fmt.Errorf("cannot compare %T with %T", a, b)
		}
		switch {
		case av.Before(bv):
			return -1, nil
		case av.After(bv):
			return 1, nil
		default:
			return 0, nil
		}
	case bool:
		bv, ok := b.(bool)
		if !ok {
			return 0, fmt.Errorf("cannot compare %T with %T", a, b)
		}
		switch {
		case av == bv:
			return 0, nil
		case !av:
			return -1, nil
		default:
			return 1, nil
		}
	}
	return 0, fmt.Errorf("values of type %T are not ordered", a)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

var orderClausePattern = regexp.MustCompile(`(\w+)\s+(?i:(asc|desc))`)

type orderClause struct {
	field      string
	descending bool
}

// parseOrder splits an order string into clauses. Anything between clauses
// other than commas and whitespace is a validation error so that typos do
// not silently drop ordering.
func parseOrder(order string) ([]orderClause, error) {
	matches := orderClausePattern.FindAllStringSubmatchIndex(order, -1)
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: unparsable order %q", ErrValidation, order)
	}

	clauses := make([]orderClause, 0, len(matches))
	prevEnd := 0
	for _, m := range matches {
		if gap := strings.Trim(order[prevEnd:m[0]], ", \t\n"); gap != "" {
			return nil, fmt.Errorf("%w: unexpected order text %q", ErrValidation, gap)
		}
		prevEnd = m[1]
		clauses = append(clauses, orderClause{
			field:      order[m[2]:m[3]],
			descending: strings.EqualFold(order[m[4]:m[5]], "desc"),
		})
	}
	if tail := strings.Trim(order[prevEnd:], ", \t\n"); tail != "" {
		return nil, fmt.Errorf("%w: unexpected order text %q", ErrValidation, tail)
	}
	return clauses, nil
}

// orderRecords sorts records in place by the given clauses. The sort is
// stable: ties keep their original relative order.
func orderRecords[T any](records []T, order string, fields FieldFunc[T]) error {
	clauses, err := parseOrder(order)
	if err != nil {
		return err
	}

	// Resolve sort keys up front so field and comparability errors surface
	// before any reordering happens.
	keys := make([][]any, len(records))
	for i, rec := range records {
		keys[i] = make([]any, len(clauses))
		for j, clause := range clauses {
			v, ok := fields(rec, clause.field)
			if !ok {
				return fmt.Errorf("%w: unknown order field %q", ErrValidation, clause.field)
			}
			keys[i][j] = v
		}
	}
	for j := range clauses {
		for i := 1; i < len(records); i++ {
			if _, err := compareValues(keys[i-1][j], keys[i][j]); err != nil {
				return fmt.Errorf("%w: order field %q: %v", ErrValidation, clauses[j].field, err)
			}
		}
	}

	indexes := make([]int, len(records))
	for i := range indexes {
		indexes[i] = i
	}
	sort.SliceStable(indexes, func(a, b int) bool {
		for j, clause := range clauses {
			c, _ := compareValues(keys[indexes[a]][j], keys[indexes[b]][j])
			if c == 0 {
				continue
			}
			if clause.descending {
				return c > 0
			}
			return c < 0
		}
		return false
	})

	sorted := make([]T, len(records))
	for i, idx := range indexes {
		sorted[i] = records[idx]
	}
	copy(records, sorted)
	return nil
}
