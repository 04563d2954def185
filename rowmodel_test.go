package vgrid

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type person struct {
	Name   string
	Age    int
	Status string
	Team   string
}

func personColumns(t testing.TB) *ColumnSet[person] {
	t.Helper()
	cols, err := NewColumnSet[person](
		NewColumn("name", Value(func(p person) any { return p.Name }), Header("Name")),
		NewColumn("age", Value(func(p person) any { return p.Age }), Header("Age"), AggregateWith(Sum)),
		NewColumn("status", Value(func(p person) any { return p.Status }), Header("Status")),
		NewColumn("team", Field[person]("Team"), Header("Team")),
	)
	require.NoError(t, err)
	return cols
}

func ages(rows []*Row[person]) []int {
	out := make([]int, 0, len(rows))
	for _, r := range rows {
		if !r.IsGroup() {
			out = append(out, r.Record.Age)
		}
	}
	return out
}

func TestSortCycle(t *testing.T) {
	cols := personColumns(t)
	records := []person{{Age: 30}, {Age: 10}, {Age: 20}}
	store := NewColumnStore(cols.IDs())

	compute := func() []*Row[person] {
		st := store.Snapshot()
		return ComputeDisplayRows(records, cols, st.Sort, st.Grouping)
	}

	require.True(t, store.ToggleSort("age", false))
	assert.Equal(t, []int{10, 20, 30}, ages(compute()))

	require.True(t, store.ToggleSort("age", false))
	assert.Equal(t, []int{30, 20, 10}, ages(compute()))

	require.True(t, store.ToggleSort("age", false))
	assert.Empty(t, store.Snapshot().Sort)
	assert.Equal(t, []int{30, 10, 20}, ages(compute()))
}

func TestSortIsStable(t *testing.T) {
	cols := personColumns(t)
	records := []person{
		{Name: "a", Status: "x"},
		{Name: "b", Status: "y"},
		{Name: "c", Status: "x"},
		{Name: "d", Status: "y"},
	}
	rows := ComputeDisplayRows(records, cols, SortState{{ColumnID: "status"}}, nil)

	names := make([]string, len(rows))
	for i, r := range rows {
		names[i] = r.Record.Name
	}
	assert.Equal(t, []string{"a", "c", "b", "d"}, names)
}

func TestMultiSort(t *testing.T) {
	cols := personColumns(t)
	records := []person{
		{Name: "a", Status: "x", Age: 1},
		{Name: "b", Status: "y", Age: 5},
		{Name: "c", Status: "x", Age: 3},
		{Name: "d", Status: "y", Age: 2},
	}
	sort := SortState{{ColumnID: "status", Dir: Descending}, {ColumnID: "age"}}
	rows := ComputeDisplayRows(records, cols, sort, nil)
	assert.Equal(t, []int{2, 5, 1, 3}, ages(rows))
}

func TestMissingValuesSortLowest(t *testing.T) {
	boom := errors.New("boom")
	cols, err := NewColumnSet[person](
		NewColumn("age", func(p person) (any, error) {
			if p.Age < 0 {
				return nil, boom
			}
			return p.Age, nil
		}),
	)
	require.NoError(t, err)

	records := []person{{Age: 5}, {Age: -1}, {Age: 2}}
	p := &Pipeline[person]{Columns: cols}

	asc := p.Compute(records, SortState{{ColumnID: "age"}}, nil, nil)
	assert.Equal(t, []int{-1, 2, 5}, ages(asc.Rows()))

	desc := p.Compute(records, SortState{{ColumnID: "age", Dir: Descending}}, nil, nil)
	assert.Equal(t, []int{5, 2, -1}, ages(desc.Rows()))

	_, ok := asc.Rows()[0].Value("age")
	assert.False(t, ok)

	var aerr *AccessorError
	require.ErrorAs(t, asc.Err(), &aerr)
	assert.Equal(t, "age", aerr.ColumnID)
	assert.Equal(t, 1, aerr.RowIndex)
	assert.ErrorIs(t, asc.Err(), boom)
}

func TestAccessorPanicIsContained(t *testing.T) {
	cols, err := NewColumnSet[person](
		NewColumn("name", Value(func(p person) any { return p.Name })),
		NewColumn("first", Value(func(p person) any { return p.Name[:1] })),
	)
	require.NoError(t, err)

	m := (&Pipeline[person]{Columns: cols}).Compute([]person{{Name: "ann"}, {Name: ""}}, nil, nil, nil)
	require.Equal(t, 2, m.Len())

	v, ok := m.At(0).Value("first")
	assert.True(t, ok)
	assert.Equal(t, "a", v)

	_, ok = m.At(1).Value("first")
	assert.False(t, ok)

	var merr *multierror.Error
	require.ErrorAs(t, m.Err(), &merr)
	assert.Len(t, merr.Errors, 1)
}

func TestMissingPathIsNotAnError(t *testing.T) {
	cols, err := NewColumnSet[map[string]any](
		NewColumn("city", Field[map[string]any]("address.city")),
	)
	require.NoError(t, err)

	m := (&Pipeline[map[string]any]{Columns: cols}).Compute([]map[string]any{
		{"address": map[string]any{"city": "Oslo"}},
		{},
	}, nil, nil, nil)
	assert.NoError(t, m.Err())

	_, ok := m.At(1).Value("city")
	assert.False(t, ok)
}

func TestGrouping(t *testing.T) {
	cols := personColumns(t)
	records := []person{{Status: "a", Age: 1}, {Status: "b", Age: 2}, {Status: "a", Age: 3}}
	m := (&Pipeline[person]{Columns: cols}).Compute(records, nil, GroupingState{"status"}, nil)

	require.True(t, m.Grouped())
	tree := m.Tree()
	require.Len(t, tree, 2)

	a, b := tree[0], tree[1]
	assert.True(t, a.IsGroup())
	assert.Equal(t, "a", a.GroupValue)
	assert.Equal(t, 2, a.LeafCount)
	assert.Equal(t, "b", b.GroupValue)
	assert.Equal(t, 1, b.LeafCount)

	// every group starts expanded
	assert.Equal(t, 5, m.Len())

	// aggregates: Sum on age, Count elsewhere, nothing on the grouping column
	assert.Equal(t, 4.0, a.Aggregates["age"])
	assert.Equal(t, 2, a.Aggregates["name"])
	assert.NotContains(t, a.Aggregates, "status")

	require.True(t, m.ToggleExpanded(a.ID))
	rows := m.Rows()
	require.Len(t, rows, 3)
	assert.Same(t, a, rows[0])
	assert.Same(t, b, rows[1])
	assert.Equal(t, 2, rows[2].Record.Age)

	// leaves stay reachable while collapsed
	assert.Len(t, m.Leaves(), 3)
	assert.Len(t, m.OrderedLeaves(), 3)
}

func TestGroupingNested(t *testing.T) {
	cols := personColumns(t)
	records := []person{
		{Status: "a", Team: "red", Age: 1},
		{Status: "a", Team: "blue", Age: 2},
		{Status: "b", Team: "red", Age: 3},
		{Status: "a", Team: "red", Age: 4},
	}
	m := (&Pipeline[person]{Columns: cols}).Compute(records, nil, GroupingState{"status", "team"}, nil)

	tree := m.Tree()
	require.Len(t, tree, 2)
	require.Len(t, tree[0].SubRows, 2)

	red := tree[0].SubRows[0]
	assert.Equal(t, 1, red.Depth)
	assert.Equal(t, tree[0].ID, red.ParentID)
	assert.Equal(t, "red", red.GroupValue)
	assert.Equal(t, 2, red.LeafCount)
	assert.Equal(t, 2, red.SubRows[0].Depth)

	assert.Equal(t, []int{1, 4, 2, 3}, ages(m.OrderedLeaves()))

	// collapsing the outer group hides the inner ones too
	m.SetExpanded(tree[0].ID, false)
	assert.Equal(t, 1+1+1+1, m.Len())
}

func TestGroupingMissingBucket(t *testing.T) {
	cols, err := NewColumnSet[person](
		NewColumn("team", func(p person) (any, error) {
			if p.Team == "" {
				return nil, ErrMissingValue
			}
			return p.Team, nil
		}),
		NewColumn("age", Value(func(p person) any { return p.Age })),
	)
	require.NoError(t, err)

	records := []person{{Team: "red"}, {}, {Team: "red"}, {}}
	m := (&Pipeline[person]{Columns: cols}).Compute(records, nil, GroupingState{"team"}, nil)

	tree := m.Tree()
	require.Len(t, tree, 2)
	assert.Nil(t, tree[1].GroupValue)
	assert.Equal(t, 2, tree[1].LeafCount)
	assert.Equal(t, "team:(missing)", tree[1].ID)

	_, ok := tree[1].Value("team")
	assert.False(t, ok)
}

type reading struct {
	Name  string
	Value any
}

func readingColumns(t testing.TB) *ColumnSet[reading] {
	t.Helper()
	cols, err := NewColumnSet[reading](
		NewColumn("name", Value(func(r reading) any { return r.Name })),
		NewColumn("x", Value(func(r reading) any { return r.Value })),
	)
	require.NoError(t, err)
	return cols
}

func groupSummary[T any](rows []*Row[T]) map[string]int {
	out := make(map[string]int, len(rows))
	for _, r := range rows {
		out[r.ID] = r.LeafCount
	}
	return out
}

func TestGroupingNaNShareOneGroup(t *testing.T) {
	records := []reading{
		{"a", math.NaN()},
		{"b", 1.5},
		{"c", math.NaN()},
		{"d", float32(math.NaN())},
	}
	m := (&Pipeline[reading]{Columns: readingColumns(t)}).Compute(records, nil, GroupingState{"x"}, nil)
	require.NoError(t, m.Err())

	tree := m.Tree()
	require.Len(t, tree, 2)
	assert.Equal(t, "x:NaN", tree[0].ID)
	assert.Equal(t, 3, tree[0].LeafCount)
	assert.Equal(t, map[string]int{"x:NaN": 3, "x:1.5": 1}, groupSummary(tree))
}

func TestGroupingMixedNumberTypes(t *testing.T) {
	records := []reading{
		{"a", 1},
		{"b", 1.0},
		{"c", int64(1)},
		{"d", uint8(2)},
		{"e", 2.0},
		{"f", "1"},
		{"g", int64(1<<53 + 1)},
		{"h", float64(1 << 53)},
		{"i", int64(1 << 53)},
	}
	m := (&Pipeline[reading]{Columns: readingColumns(t)}).Compute(records, nil, GroupingState{"x"}, nil)
	require.NoError(t, m.Err())

	tree := m.Tree()
	require.Len(t, tree, 5)
	assert.Equal(t, "x:1", tree[0].ID)
	assert.Equal(t, 1, tree[0].GroupValue, "first row's value labels the group")
	assert.Equal(t, 3, tree[0].LeafCount)
	assert.Equal(t, "x:2", tree[1].ID)
	assert.Equal(t, 2, tree[1].LeafCount)

	// a string that prints like a number is still a string
	assert.Equal(t, "x:1#1", tree[2].ID)
	assert.Equal(t, "1", tree[2].GroupValue)

	// integers past float64 precision are not merged with their rounding
	assert.Equal(t, int64(1<<53+1), tree[3].GroupValue)
	assert.Equal(t, 1, tree[3].LeafCount)
	assert.Equal(t, float64(1<<53), tree[4].GroupValue)
	assert.Equal(t, 2, tree[4].LeafCount)
}

func TestGroupingSingleValue(t *testing.T) {
	records := []person{{Name: "a", Status: "s"}, {Name: "b", Status: "s"}, {Name: "c", Status: "s"}}
	m := (&Pipeline[person]{Columns: personColumns(t)}).Compute(records, nil, GroupingState{"status"}, nil)
	require.NoError(t, m.Err())

	tree := m.Tree()
	require.Len(t, tree, 1)
	g := tree[0]
	assert.Equal(t, "status:s", g.ID)
	assert.Equal(t, 3, g.LeafCount)
	require.Len(t, g.SubRows, 3)
	for i, r := range g.SubRows {
		assert.False(t, r.IsGroup())
		assert.Equal(t, records[i].Name, r.Record.Name)
		assert.Equal(t, g.ID, r.ParentID)
	}
	assert.Len(t, m.Leaves(), 3)
	assert.Equal(t, 4, m.Len(), "group row then its leaves")
}

func TestEmptyDataset(t *testing.T) {
	cols := personColumns(t)
	p := &Pipeline[person]{Columns: cols}

	for name, grouping := range map[string]GroupingState{
		"flat":    nil,
		"grouped": {"status"},
		"nested":  {"status", "team"},
	} {
		t.Run(name, func(t *testing.T) {
			m := p.Compute(nil, SortState{{ColumnID: "age"}}, grouping, nil)
			assert.NoError(t, m.Err())
			assert.Zero(t, m.Len())
			assert.Empty(t, m.Tree())
			assert.Empty(t, m.Leaves())
			assert.Equal(t, len(grouping) > 0, m.Grouped())

			assert.Empty(t, ComputeDisplayRows(nil, cols, nil, grouping))
		})
	}
}

func TestGroupingRoundTrip(t *testing.T) {
	cols := personColumns(t)
	records := []person{{Name: "c", Status: "b"}, {Name: "a", Status: "a"}, {Name: "b", Status: "b"}}
	p := &Pipeline[person]{Columns: cols}
	sort := SortState{{ColumnID: "name"}}

	before := p.Compute(records, sort, nil, nil)
	grouped := p.Compute(records, sort, GroupingState{"status"}, nil)
	after := p.Compute(records, sort, nil, nil)

	require.Equal(t, before.Len(), after.Len())
	for i := range before.Rows() {
		assert.Equal(t, before.At(i).ID, after.At(i).ID)
		assert.Equal(t, before.At(i).Record, after.At(i).Record)
	}
	assert.Len(t, grouped.OrderedLeaves(), len(records))
}

func TestExpansionCarriesOver(t *testing.T) {
	cols := personColumns(t)
	records := []person{{Status: "a", Age: 1}, {Status: "b", Age: 2}, {Status: "a", Age: 3}}
	p := &Pipeline[person]{Columns: cols}

	m := p.Compute(records, nil, GroupingState{"status"}, nil)
	require.True(t, m.SetExpanded("status:a", false))
	assert.False(t, m.SetExpanded("status:a", false), "no change")

	next := p.Compute(records, SortState{{ColumnID: "age", Dir: Descending}}, GroupingState{"status"}, m.Expansion())
	g, ok := next.Row("status:a")
	require.True(t, ok)
	assert.False(t, g.Expanded)
	assert.Equal(t, 3, next.Len())

	next.ExpandAll()
	assert.Equal(t, 5, next.Len())
	next.CollapseAll()
	assert.Equal(t, 2, next.Len())
	assert.True(t, next.Expansion()["status:b"])
}

func TestRowKeyAndDuplicates(t *testing.T) {
	cols := personColumns(t)
	records := []person{{Name: "x"}, {Name: "y"}, {Name: "x"}}
	p := &Pipeline[person]{
		Columns: cols,
		RowKey:  func(rec person, _ int) string { return rec.Name },
	}
	m := p.Compute(records, nil, nil, nil)

	ids := make([]string, m.Len())
	for i, r := range m.Rows() {
		ids[i] = r.ID
	}
	assert.Equal(t, []string{"x", "y", "x#1"}, ids)
}

func TestRowIDsFollowRecords(t *testing.T) {
	cols := personColumns(t)
	records := []person{{Age: 3}, {Age: 1}, {Age: 2}}
	p := &Pipeline[person]{Columns: cols}

	unsorted := p.Compute(records, nil, nil, nil)
	sorted := p.Compute(records, SortState{{ColumnID: "age"}}, nil, nil)

	for _, r := range sorted.Rows() {
		orig, ok := unsorted.Row(r.ID)
		require.True(t, ok)
		assert.Equal(t, orig.Record, r.Record)
		assert.Equal(t, orig.Index, r.Index)
	}
}

func TestFilter(t *testing.T) {
	cols := personColumns(t)
	records := []person{{Age: 10}, {Age: 40}, {Age: 25}}
	p := &Pipeline[person]{
		Columns: cols,
		Filter: func(r *Row[person]) bool {
			v, _ := r.Value("age")
			return v.(int) >= 20
		},
	}
	m := p.Compute(records, SortState{{ColumnID: "age"}}, nil, nil)
	assert.Equal(t, []int{25, 40}, ages(m.Rows()))
}

func TestColumnSetValidation(t *testing.T) {
	name := func() *Column[person] { return NewColumn("name", Value(func(p person) any { return p.Name })) }

	_, err := NewColumnSet[person]()
	assert.ErrorIs(t, err, ErrNoColumns)

	_, err = NewColumnSet[person](name(), name())
	assert.ErrorIs(t, err, ErrDuplicateColumn)

	_, err = NewColumnSet[person](NewColumn("", Value(func(p person) any { return p.Name })))
	assert.ErrorIs(t, err, ErrEmptyColumnID)

	// group ids share the namespace with leaf ids
	_, err = NewColumnSet[person](Group("name", "Name", name()))
	assert.ErrorIs(t, err, ErrDuplicateColumn)

	set, err := NewColumnSet[person](
		Group("who", "Who", name()),
		NewColumn("age", Value(func(p person) any { return p.Age })),
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "age"}, set.IDs())
	g, ok := set.GroupOf("name")
	require.True(t, ok)
	assert.Equal(t, "Who", g.Header)
	_, ok = set.GroupOf("age")
	assert.False(t, ok)
	assert.True(t, set.HasGroups())
}

func BenchmarkPipelineCompute(b *testing.B) {
	cols := personColumns(b)
	statuses := []string{"active", "pending", "done"}
	for _, n := range []int{1000, 10000, 100000} {
		records := make([]person, n)
		for i := range records {
			records[i] = person{
				Name:   fmt.Sprintf("person %d", i),
				Age:    (i * 7919) % 90,
				Status: statuses[i%3],
				Team:   statuses[(i/3)%3],
			}
		}
		p := &Pipeline[person]{Columns: cols}

		b.Run(fmt.Sprintf("Sort_%d", n), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				p.Compute(records, SortState{{ColumnID: "age"}}, nil, nil)
			}
		})
		b.Run(fmt.Sprintf("Group_%d", n), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				p.Compute(records, SortState{{ColumnID: "age"}}, GroupingState{"status", "team"}, nil)
			}
		})
	}
}
