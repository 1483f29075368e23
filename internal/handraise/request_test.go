package handraise

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func req(userID string, p Priority) Request {
	return Request{ID: "r-" + userID, UserID: userID, UserName: userID, Priority: p}
}

func userIDs(q []Request) []string {
	ids := make([]string, 0, len(q))
	for _, r := range q {
		ids = append(ids, r.UserID)
	}
	return ids
}

// no normal request may sit ahead of an urgent one
func assertTiers(t *testing.T, q []Request) {
	t.Helper()
	seenNormal := false
	for _, r := range q {
		if r.Priority == PriorityNormal {
			seenNormal = true
			continue
		}
		if seenNormal {
			t.Fatalf("urgent request %q behind a normal one: %v", r.UserID, userIDs(q))
		}
	}
}

func TestQueueInsert(t *testing.T) {
	cases := []struct {
		name    string
		inserts []Request
		want    []string
	}{
		{
			name:    "normal requests keep arrival order",
			inserts: []Request{req("a", PriorityNormal), req("b", PriorityNormal), req("c", PriorityNormal)},
			want:    []string{"a", "b", "c"},
		},
		{
			name:    "urgent jumps ahead of normal",
			inserts: []Request{req("a", PriorityNormal), req("b", PriorityUrgent)},
			want:    []string{"b", "a"},
		},
		{
			name:    "urgent requests keep arrival order among themselves",
			inserts: []Request{req("n1", PriorityNormal), req("u1", PriorityUrgent), req("n2", PriorityNormal), req("u2", PriorityUrgent)},
			want:    []string{"u1", "u2", "n1", "n2"},
		},
		{
			name:    "urgent into an all-urgent queue appends",
			inserts: []Request{req("u1", PriorityUrgent), req("u2", PriorityUrgent)},
			want:    []string{"u1", "u2"},
		},
		{
			name:    "re-raise replaces and moves to the tail of the new tier",
			inserts: []Request{req("a", PriorityNormal), req("b", PriorityNormal), req("a", PriorityUrgent)},
			want:    []string{"a", "b"},
		},
		{
			name:    "re-raise with same priority goes to the back",
			inserts: []Request{req("a", PriorityNormal), req("b", PriorityNormal), req("a", PriorityNormal)},
			want:    []string{"b", "a"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q := Queue{}
			for _, r := range tc.inserts {
				q = q.Insert(r)
				assertTiers(t, q)
			}
			assert.Equal(t, tc.want, userIDs(q))
		})
	}
}

func TestQueueInsert_NeverDuplicatesUser(t *testing.T) {
	q := Queue{}
	priorities := []Priority{PriorityNormal, PriorityUrgent, PriorityUrgent, PriorityNormal}
	for _, p := range priorities {
		q = q.Insert(req("a", p))
		q = q.Insert(req("b", p))
	}
	require.Len(t, q, 2)
	assertTiers(t, q)
}

func TestQueueInsert_DoesNotAliasInput(t *testing.T) {
	q := Queue{req("a", PriorityNormal), req("b", PriorityNormal)}
	before := q.Clone()

	_ = q.Insert(req("c", PriorityUrgent))
	_ = q.Remove("a")

	assert.Equal(t, before, q)
}

func TestQueueRemove_AbsentUserLeavesQueueEqual(t *testing.T) {
	q := Queue{req("a", PriorityUrgent), req("b", PriorityNormal)}
	assert.Equal(t, q, q.Remove("zed"))
}

func TestQueuePosition(t *testing.T) {
	q := Queue{}.Insert(req("a", PriorityNormal)).Insert(req("b", PriorityUrgent)).Insert(req("c", PriorityNormal))

	assert.Equal(t, 1, q.Position("b"))
	assert.Equal(t, 2, q.Position("a"))
	assert.Equal(t, 3, q.Position("c"))
	assert.Equal(t, -1, q.Position("nobody"))
}

func TestParsePriority(t *testing.T) {
	cases := []struct {
		in      string
		want    Priority
		wantErr bool
	}{
		{in: "", want: PriorityNormal},
		{in: "normal", want: PriorityNormal},
		{in: " URGENT ", want: PriorityUrgent},
		{in: "later", wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParsePriority(tc.in)
			if tc.wantErr {
				require.ErrorIs(t, err, ErrBadPriority)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNewRequest_FallsBackToUnknownName(t *testing.T) {
	r := NewRequest(User{ID: "u1"}, PriorityNormal, fixedNow())
	assert.Equal(t, "Unknown", r.UserName)
	assert.NotEmpty(t, r.ID)
	assert.Equal(t, fixedNow(), r.Timestamp)
}
