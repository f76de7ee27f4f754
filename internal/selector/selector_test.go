package selector

import (
	"fmt"
	"math"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/statagg/internal/tree"
	"github.com/hupe1980/statagg/model"
	"github.com/hupe1980/statagg/testutil"
)

func sumSort(dir model.Direction, start int, number *int) *model.SortSpec {
	return &model.SortSpec{Item: model.StatSum, Direction: dir, Start: start, Number: number}
}

func keysOf(sel []Selected) []string {
	out := make([]string, len(sel))
	for i, s := range sel {
		out[i] = s.Key.String()
	}
	return out
}

// build creates a list collector with one value per key: key kNNN has sum sums[NNN].
func build(t *testing.T, sums []int64) *tree.Collector {
	t.Helper()
	c, err := tree.New(&model.CollectorSpec{Mode: model.ModeList, Domain: model.DomainInteger, Level: model.LevelBasic}, tree.Options{})
	require.NoError(t, err)
	for i, s := range sums {
		k := testutil.Key(i)
		require.NoError(t, c.AddValue(&k, model.Int(s), nil))
	}
	return c
}

// reference sorts every key by (sum, key) in the requested direction.
func reference(sums []int64, desc bool) []string {
	idx := make([]int, len(sums))
	for i := range idx {
		idx[i] = i
	}
	slices.SortFunc(idx, func(a, b int) int {
		if sums[a] != sums[b] {
			if desc {
				return int(sums[b] - sums[a])
			}
			return int(sums[a] - sums[b])
		}
		return a - b
	})
	out := make([]string, len(idx))
	for i, j := range idx {
		out[i] = testutil.Key(j).String()
	}
	return out
}

func TestTopKMatchesFullSort(t *testing.T) {
	rng := testutil.NewRNG(3)
	sums := rng.IntValues(200, 0, 50) // plenty of ties
	c := build(t, sums)

	for _, k := range []int{1, 5, 50, 99, 100, 150, 200, 500} {
		for _, dir := range []model.Direction{model.Asc, model.Desc} {
			t.Run(fmt.Sprintf("k=%d/%s", k, dir), func(t *testing.T) {
				sel, err := Select(c, sumSort(dir, 0, model.Limit(k)))
				require.NoError(t, err)

				want := reference(sums, dir == model.Desc)
				want = want[:min(k, len(want))]
				assert.Equal(t, want, keysOf(sel))
			})
		}
	}
}

func TestAscReversesFullOrder(t *testing.T) {
	sums := []int64{5, 1, 9, 3, 7}
	c := build(t, sums)

	asc, err := Select(c, sumSort(model.Asc, 0, model.Limit(2)))
	require.NoError(t, err)
	desc, err := Select(c, sumSort(model.Desc, 0, model.Limit(2)))
	require.NoError(t, err)

	// Smallest two overall, not the two largest reversed.
	assert.Equal(t, []string{"k001", "k003"}, keysOf(asc))
	assert.Equal(t, []string{"k002", "k004"}, keysOf(desc))
}

func TestWindowStart(t *testing.T) {
	rng := testutil.NewRNG(8)
	sums := rng.IntValues(100, -1000, 1000)
	c := build(t, sums)
	want := reference(sums, true)

	tests := []struct {
		name   string
		start  int
		number *int
		want   []string
	}{
		{"heap window", 3, model.Limit(4), want[3:7]},
		{"sort window", 40, model.Limit(30), want[40:70]},
		{"unbounded", 95, nil, want[95:]},
		{"max number", 1, model.Limit(math.MaxInt), want[1:]},
		{"past end", 120, model.Limit(5), nil},
		{"zero", 0, model.Limit(0), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel, err := Select(c, sumSort(model.Desc, tt.start, tt.number))
			require.NoError(t, err)
			if tt.want == nil {
				assert.Empty(t, sel)
				return
			}
			assert.Equal(t, tt.want, keysOf(sel))
		})
	}
}

func TestTieBreakByKey(t *testing.T) {
	c := build(t, []int64{4, 4, 4, 1})

	for _, dir := range []model.Direction{model.Asc, model.Desc} {
		sel, err := Select(c, sumSort(dir, 0, nil))
		require.NoError(t, err)
		if dir == model.Desc {
			assert.Equal(t, []string{"k000", "k001", "k002", "k003"}, keysOf(sel))
		} else {
			assert.Equal(t, []string{"k003", "k000", "k001", "k002"}, keysOf(sel))
		}
	}
}

func TestSortByKeyAndNil(t *testing.T) {
	c, err := tree.New(&model.CollectorSpec{Mode: model.ModeList, Domain: model.DomainInteger, Level: model.LevelBasic}, tree.Options{})
	require.NoError(t, err)
	for _, k := range []model.GroupKey{model.StringKey("b"), model.IntKey(2), model.StringKey("a"), model.IntKey(1)} {
		require.NoError(t, c.AddValue(k.Ptr(), model.Int(1), nil))
	}

	sel, err := Select(c, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "a", "b"}, keysOf(sel))

	sel, err = Select(c, &model.SortSpec{Item: model.SortByKey, Direction: model.Desc, Number: model.Limit(3)})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a", "2"}, keysOf(sel))
}

func TestNoDataSortsLast(t *testing.T) {
	spec := &model.CollectorSpec{Mode: model.ModeList, Domain: model.DomainFloating, Level: model.LevelAdvanced}
	c, err := tree.New(spec, tree.Options{})
	require.NoError(t, err)

	// "single" has one value, so its sample variance is NoData.
	require.NoError(t, c.AddValue(model.StringKey("single").Ptr(), model.Float(1), nil))
	for _, v := range []float64{1, 5} {
		require.NoError(t, c.AddValue(model.StringKey("wide").Ptr(), model.Float(v), nil))
	}
	for _, v := range []float64{1, 2} {
		require.NoError(t, c.AddValue(model.StringKey("narrow").Ptr(), model.Float(v), nil))
	}

	for _, dir := range []model.Direction{model.Asc, model.Desc} {
		sel, err := Select(c, &model.SortSpec{Item: model.StatSampleVariance, Direction: dir})
		require.NoError(t, err)
		got := keysOf(sel)
		assert.Equal(t, "single", got[2], "direction %s", dir)
	}
}

func TestNestedWindowIndependence(t *testing.T) {
	child := &model.CollectorSpec{
		Mode: model.ModeList, Domain: model.DomainInteger, Level: model.LevelBasic,
		Sort: &model.SortSpec{Item: model.StatSum, Direction: model.Desc, Number: model.Limit(5)},
	}
	spec := &model.CollectorSpec{Mode: model.ModeList, Domain: model.DomainInteger, Level: model.LevelBasic, Sub: child}

	c, err := tree.New(spec, tree.Options{})
	require.NoError(t, err)

	for p := 0; p < 4; p++ {
		sub := make([]model.Entry, 10)
		for i := range sub {
			sub[i] = model.Entry{Key: testutil.Key(i).Ptr(), Value: model.Int(int64(i * (p + 1)))}
		}
		require.NoError(t, c.AddValue(model.IntKey(int64(p)).Ptr(), model.Int(int64(p)), sub))
	}

	sel, err := Select(c, &model.SortSpec{Item: model.StatSum, Direction: model.Desc, Number: model.Limit(2)})
	require.NoError(t, err)
	require.Len(t, sel, 2)
	assert.Equal(t, []string{"3", "2"}, keysOf(sel))

	for _, parent := range sel {
		require.Len(t, parent.Children, 5)
		assert.Equal(t, []string{"k009", "k008", "k007", "k006", "k005"}, keysOf(parent.Children))
	}
}

func TestDataModeChildren(t *testing.T) {
	spec := model.Chain(
		model.CollectorSpec{Mode: model.ModeData, Domain: model.DomainFloating, Level: model.LevelBasic},
		model.CollectorSpec{Mode: model.ModeList, Domain: model.DomainFloating, Level: model.LevelBasic,
			Sort: &model.SortSpec{Item: model.StatCount, Direction: model.Desc, Number: model.Limit(1)}},
	)
	c, err := tree.New(spec, tree.Options{})
	require.NoError(t, err)

	sub := []model.Entry{
		{Key: model.StringKey("x").Ptr(), Value: model.Float(1)},
		{Key: model.StringKey("y").Ptr(), Value: model.Float(1)},
		{Key: model.StringKey("y").Ptr(), Value: model.Float(1)},
	}
	require.NoError(t, c.AddValue(nil, model.Float(3), sub))

	sel, err := Select(c, nil)
	require.NoError(t, err)
	require.Len(t, sel, 1)
	assert.Nil(t, sel[0].Key)
	assert.Equal(t, []string{"y"}, keysOf(sel[0].Children))
}

func TestUnavailableSortItem(t *testing.T) {
	c := build(t, []int64{1, 2})
	_, err := Select(c, &model.SortSpec{Item: model.StatMean})
	assert.ErrorIs(t, err, model.ErrUnknownStatItem)
}
