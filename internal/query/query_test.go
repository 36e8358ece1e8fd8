// Package query_test tests the query package.
package query_test

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/mkuznets/gatebot/internal/query"
)

type account struct {
	ID       int64
	Username string
	State    string
	Role     string
	Joined   time.Time
}

func accountFields(rec account, field string) (any, bool) {
	switch field {
	case "id":
		return rec.ID, true
	case "telegram_username":
		return rec.Username, true
	case "state":
		return rec.State, true
	case "role":
		return rec.Role, true
	case "created_at":
		return rec.Joined, true
	}
	return nil, false
}

func testAccounts() []account {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return []account{
		{ID: 1, Username: "robot", State: "active", Role: "bot", Joined: base},
		{ID: 2, Username: "alice", State: "active", Role: "user", Joined: base.Add(time.Hour)},
		{ID: 3, Username: "bob", State: "inactive", Role: "user", Joined: base.Add(2 * time.Hour)},
		{ID: 4, Username: "carol", State: "banned", Role: "user", Joined: base.Add(3 * time.Hour)},
		{ID: 5, Username: "dave", State: "active", Role: "admin", Joined: base.Add(4 * time.Hour)},
	}
}

func ids(accounts []account) []int64 {
	out := make([]int64, len(accounts))
	for i, a := range accounts {
		out[i] = a.ID
	}
	return out
}

func TestSearchDomains(t *testing.T) {
	t.Parallel()

	type searchTestCase struct {
		name    string
		domain  query.Domain
		opts    query.Options
		wantIDs []int64
		wantErr bool
	}

	testGroups := map[string][]searchTestCase{
		"Leaf Conditions": {
			{
				name:    "equality",
				domain:  query.Domain{query.Condition{Field: "state", Op: "=", Value: "active"}},
				wantIDs: []int64{1, 2, 5},
			},
			{
				name:    "inequality",
				domain:  query.Domain{query.Condition{Field: "role", Op: "!=", Value: "user"}},
				wantIDs: []int64{1, 5},
			},
			{
				name:    "greater than on numeric field",
				domain:  query.Domain{query.Condition{Field: "id", Op: ">", Value: 3}},
				wantIDs: []int64{4, 5},
			},
			{
				name:    "less or equal on time field",
				domain:  query.Domain{query.Condition{Field: "created_at", Op: "<=", Value: time.Date(2024, 3, 1, 14, 0, 0, 0, time.UTC)}},
				wantIDs: []int64{1, 2, 3},
			},
			{
				name:    "like is case sensitive",
				domain:  query.Domain{query.Condition{Field: "telegram_username", Op: "like", Value: "%A%"}},
				wantIDs: []int64{},
			},
			{
				name:    "ilike matches case insensitively",
				domain:  query.Domain{query.Condition{Field: "telegram_username", Op: "ilike", Value: "%A%"}},
				wantIDs: []int64{2, 4, 5},
			},
			{
				name:    "like without wildcard is exact match",
				domain:  query.Domain{query.Condition{Field: "telegram_username", Op: "like", Value: "bob"}},
				wantIDs: []int64{3},
			},
			{
				name:    "underscore wildcard",
				domain:  query.Domain{query.Condition{Field: "telegram_username", Op: "like", Value: "_ob"}},
				wantIDs: []int64{3},
			},
			{
				name:    "set membership",
				domain:  query.Domain{query.Condition{Field: "state", Op: "in", Value: []string{"inactive", "banned"}}},
				wantIDs: []int64{3, 4},
			},
			{
				name:   "empty domain matches everything",
				domain: query.Domain{},
				// Insertion order preserved without an order clause.
				wantIDs: []int64{1, 2, 3, 4, 5},
			},
		},
		"Logical Operators": {
			{
				name: "conjunction",
				domain: query.Domain{
					query.OpAnd,
					query.Condition{Field: "state", Op: "=", Value: "active"},
					query.Condition{Field: "role", Op: "!=", Value: "bot"},
				},
				wantIDs: []int64{2, 5},
			},
			{
				name: "disjunction",
				domain: query.Domain{
					query.OpOr,
					query.Condition{Field: "state", Op: "=", Value: "banned"},
					query.Condition{Field: "role", Op: "=", Value: "bot"},
				},
				wantIDs: []int64{1, 4},
			},
			{
				name: "negation",
				domain: query.Domain{
					query.OpNot,
					query.Condition{Field: "state", Op: "=", Value: "banned"},
				},
				wantIDs: []int64{1, 2, 3, 5},
			},
			{
				name: "nested prefix expression",
				domain: query.Domain{
					query.OpAnd,
					query.Condition{Field: "role", Op: "=", Value: "user"},
					query.OpOr,
					query.Condition{Field: "state", Op: "=", Value: "active"},
					query.Condition{Field: "state", Op: "=", Value: "inactive"},
				},
				wantIDs: []int64{2, 3},
			},
		},
		"Ordering And Limit": {
			{
				name:    "ascending order",
				domain:  query.Domain{},
				opts:    query.Options{Order: "telegram_username asc"},
				wantIDs: []int64{2, 3, 4, 5, 1},
			},
			{
				name:    "descending order with uppercase keyword",
				domain:  query.Domain{},
				opts:    query.Options{Order: "telegram_username DESC"},
				wantIDs: []int64{1, 5, 4, 3, 2},
			},
			{
				name:    "multi clause order breaks ties",
				domain:  query.Domain{},
				opts:    query.Options{Order: "state asc, id desc"},
				wantIDs: []int64{5, 2, 1, 4, 3},
			},
			{
				name:    "stable on ties by insertion order",
				domain:  query.Domain{},
				opts:    query.Options{Order: "state asc"},
				wantIDs: []int64{1, 2, 5, 4, 3},
			},
			{
				name:    "limit truncates after ordering",
				domain:  query.Domain{},
				opts:    query.Options{Order: "telegram_username asc", Limit: 2},
				wantIDs: []int64{2, 3},
			},
		},
		"Validation Errors": {
			{
				name:    "negation without operand",
				domain:  query.Domain{query.OpNot},
				wantErr: true,
			},
			{
				name: "conjunction with one operand",
				domain: query.Domain{
					query.OpAnd,
					query.Condition{Field: "state", Op: "=", Value: "active"},
				},
				wantErr: true,
			},
			{
				name: "trailing elements",
				domain: query.Domain{
					query.Condition{Field: "state", Op: "=", Value: "active"},
					query.Condition{Field: "role", Op: "=", Value: "user"},
				},
				wantErr: true,
			},
			{
				name:    "unknown comparator",
				domain:  query.Domain{query.Condition{Field: "state", Op: "~", Value: "active"}},
				wantErr: true,
			},
			{
				name:    "unknown field",
				domain:  query.Domain{query.Condition{Field: "nickname", Op: "=", Value: "alice"}},
				wantErr: true,
			},
			{
				name:    "unknown logical token",
				domain:  query.Domain{"xor", query.Condition{Field: "state", Op: "=", Value: "a"}, query.Condition{Field: "state", Op: "=", Value: "b"}},
				wantErr: true,
			},
			{
				name:    "in with non slice value",
				domain:  query.Domain{query.Condition{Field: "state", Op: "in", Value: "active"}},
				wantErr: true,
			},
			{
				name:    "unparsable order clause",
				domain:  query.Domain{},
				opts:    query.Options{Order: "telegram_username sideways"},
				wantErr: true,
			},
			{
				name:    "unknown order field",
				domain:  query.Domain{},
				opts:    query.Options{Order: "nickname asc"},
				wantErr: true,
			},
		},
	}

	for groupName, cases := range testGroups {
		for _, tc := range cases {
			t.Run(groupName+"/"+tc.name, func(t *testing.T) {
				t.Parallel()

				got, err := query.Search(testAccounts(), tc.domain, accountFields, tc.opts)
				if tc.wantErr {
					if err == nil {
						t.Fatalf("Search() expected error, got %v", ids(got))
					}
					if !errors.Is(err, query.ErrValidation) {
						t.Fatalf("Search() error = %v, want ErrValidation", err)
					}
					return
				}
				if err != nil {
					t.Fatalf("Search() unexpected error: %v", err)
				}
				if !reflect.DeepEqual(ids(got), tc.wantIDs) {
					t.Errorf("Search() = %v, want %v", ids(got), tc.wantIDs)
				}
			})
		}
	}
}

// TestSearchMatchesPredicateFilter cross-checks domain evaluation against an
// independently computed predicate filter.
func TestSearchMatchesPredicateFilter(t *testing.T) {
	t.Parallel()

	accounts := testAccounts()
	domain := query.Domain{
		query.OpAnd,
		query.Condition{Field: "state", Op: "=", Value: "active"},
		query.Condition{Field: "role", Op: "!=", Value: "bot"},
	}

	got, err := query.Search(accounts, domain, accountFields, query.Options{})
	if err != nil {
		t.Fatalf("Search() unexpected error: %v", err)
	}

	var want []account
	for _, a := range accounts {
		if a.State == "active" && a.Role != "bot" {
			want = append(want, a)
		}
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Search() = %+v, want %+v", got, want)
	}
}

// TestSearchDoesNotConsumeDomain guards against the parser mutating the
// caller's domain: the same slice must be reusable across calls.
func TestSearchDoesNotConsumeDomain(t *testing.T) {
	t.Parallel()

	domain := query.Domain{
		query.OpNot,
		query.Condition{Field: "state", Op: "=", Value: "banned"},
	}
	snapshot := make(query.Domain, len(domain))
	copy(snapshot, domain)

	first, err := query.Search(testAccounts(), domain, accountFields, query.Options{})
	if err != nil {
		t.Fatalf("first Search() unexpected error: %v", err)
	}
	second, err := query.Search(testAccounts(), domain, accountFields, query.Options{})
	if err != nil {
		t.Fatalf("second Search() unexpected error: %v", err)
	}

	if !reflect.DeepEqual(domain, snapshot) {
		t.Errorf("Search() mutated the domain: %v, want %v", domain, snapshot)
	}
	if !reflect.DeepEqual(ids(first), ids(second)) {
		t.Errorf("repeated Search() diverged: %v then %v", ids(first), ids(second))
	}
}
