package tree

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/statagg/internal/accum"
	"github.com/hupe1980/statagg/model"
	"github.com/hupe1980/statagg/resource"
)

func listSpec(sub *model.CollectorSpec) *model.CollectorSpec {
	return &model.CollectorSpec{Mode: model.ModeList, Domain: model.DomainFloating, Level: model.LevelAdvanced, Sub: sub}
}

func newCollector(t *testing.T, spec *model.CollectorSpec) *Collector {
	t.Helper()
	c, err := New(spec, Options{})
	require.NoError(t, err)
	return c
}

func key(s string) *model.GroupKey {
	k := model.StringKey(s)
	return &k
}

func TestNewValidatesAxes(t *testing.T) {
	_, err := New(nil, Options{})
	assert.ErrorIs(t, err, ErrMismatch)

	_, err = New(&model.CollectorSpec{Mode: model.Mode(7), Domain: model.DomainFloating, Level: model.LevelBasic}, Options{})
	assert.ErrorIs(t, err, model.ErrUnknownMode)

	_, err = New(&model.CollectorSpec{Mode: model.ModeList, Domain: model.Domain(7), Level: model.LevelBasic}, Options{})
	assert.ErrorIs(t, err, model.ErrUnknownDomain)

	_, err = New(listSpec(&model.CollectorSpec{Mode: model.ModeData, Domain: model.DomainInteger, Level: model.Level(9)}), Options{})
	assert.ErrorIs(t, err, model.ErrUnknownLevel, "nested levels are resolved up front")
}

func TestDataMode(t *testing.T) {
	c := newCollector(t, &model.CollectorSpec{Mode: model.ModeData, Domain: model.DomainInteger, Level: model.LevelBasic})
	assert.Equal(t, 0, c.Size())

	for _, v := range []int64{4, 8, 15} {
		require.NoError(t, c.AddValue(nil, model.Int(v), nil))
	}
	assert.Equal(t, 1, c.Size())
	assert.Equal(t, int64(3), c.Root().Acc.Count())

	err := c.AddValue(key("a"), model.Int(1), nil)
	assert.ErrorIs(t, err, ErrMismatch)
	_, ok := c.Get(model.StringKey("a"))
	assert.False(t, ok)
}

func TestListMode(t *testing.T) {
	c := newCollector(t, listSpec(nil))

	require.NoError(t, c.AddValue(key("a"), model.Float(1), nil))
	require.NoError(t, c.AddValue(key("b"), model.Float(2), nil))
	require.NoError(t, c.AddValue(key("a"), model.Float(3), nil))

	assert.Equal(t, 2, c.Size())
	n, ok := c.Get(model.StringKey("a"))
	require.True(t, ok)
	assert.Equal(t, int64(2), n.Acc.Count())

	// Insertion order is kept.
	require.Len(t, c.Nodes(), 2)
	assert.Equal(t, model.StringKey("a"), c.Nodes()[0].Key)
	assert.Equal(t, model.StringKey("b"), c.Nodes()[1].Key)

	assert.ErrorIs(t, c.AddValue(nil, model.Float(1), nil), ErrMismatch)
}

func TestInvalidValueCreatesNoNode(t *testing.T) {
	c := newCollector(t, listSpec(nil))

	err := c.AddValue(key("nan"), model.Float(math.NaN()), nil)
	require.ErrorIs(t, err, ErrMismatch)
	assert.Equal(t, 0, c.Size())
}

func TestNestedPopulation(t *testing.T) {
	spec := model.Chain(
		model.CollectorSpec{Mode: model.ModeList, Domain: model.DomainFloating, Level: model.LevelBasic},
		model.CollectorSpec{Mode: model.ModeList, Domain: model.DomainFloating, Level: model.LevelBasic},
		model.CollectorSpec{Mode: model.ModeData, Domain: model.DomainInteger, Level: model.LevelBasic},
	)
	c := newCollector(t, spec)

	sub := []model.Entry{
		{Key: key("x"), Value: model.Float(1), Sub: []model.Entry{{Value: model.Int(10)}}},
		{Key: key("y"), Value: model.Float(2), Sub: []model.Entry{{Value: model.Int(20)}, {Value: model.Int(30)}}},
	}
	require.NoError(t, c.AddValue(key("a"), model.Float(5), sub))
	require.NoError(t, c.AddValue(key("b"), model.Float(6), nil))

	a, ok := c.Get(model.StringKey("a"))
	require.True(t, ok)
	require.NotNil(t, a.Children)
	assert.Equal(t, 2, a.Children.Size())

	y, ok := a.Children.Get(model.StringKey("y"))
	require.True(t, ok)
	assert.Equal(t, int64(2), y.Children.Root().Acc.Count())

	// Nodes without nested values still carry an identically shaped child.
	b, ok := c.Get(model.StringKey("b"))
	require.True(t, ok)
	require.NotNil(t, b.Children)
	assert.Equal(t, 0, b.Children.Size())
	assert.True(t, b.Children.Spec().SameShape(spec.Sub))
}

func TestNestedValidationIsAtomic(t *testing.T) {
	spec := listSpec(&model.CollectorSpec{Mode: model.ModeList, Domain: model.DomainInteger, Level: model.LevelBasic})
	c := newCollector(t, spec)

	tests := []struct {
		name string
		sub  []model.Entry
	}{
		{"missing child key", []model.Entry{{Key: key("x"), Value: model.Int(1)}, {Value: model.Int(2)}}},
		{"float into integer child", []model.Entry{{Key: key("x"), Value: model.Float(1.5)}}},
		{"too deep", []model.Entry{{Key: key("x"), Value: model.Int(1), Sub: []model.Entry{{Value: model.Int(1)}}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, c.AddValue(key("a"), model.Float(1), tt.sub), ErrMismatch)
			assert.Equal(t, 0, c.Size())
		})
	}

	flat := newCollector(t, listSpec(nil))
	err := flat.AddValue(key("a"), model.Float(1), []model.Entry{{Value: model.Float(1)}})
	assert.ErrorIs(t, err, ErrMismatch)
}

func TestAdoptAndConsume(t *testing.T) {
	src := newCollector(t, listSpec(nil))
	dst := newCollector(t, listSpec(nil))
	require.NoError(t, src.AddValue(key("a"), model.Float(1), nil))
	require.NoError(t, dst.AddValue(key("b"), model.Float(1), nil))

	require.NoError(t, dst.Adopt(src.Nodes()[0]))
	assert.Equal(t, 2, dst.Size())
	assert.ErrorIs(t, dst.Adopt(src.Nodes()[0]), ErrMismatch)

	src.Consume()
	assert.True(t, src.Consumed())
	assert.ErrorIs(t, src.AddValue(key("a"), model.Float(1), nil), ErrConsumed)

	data := newCollector(t, &model.CollectorSpec{Mode: model.ModeData, Domain: model.DomainFloating, Level: model.LevelBasic})
	assert.ErrorIs(t, data.Adopt(Node{}), ErrMismatch)
}

func TestRelease(t *testing.T) {
	rc := resource.NewController(resource.Config{})
	spec := listSpec(&model.CollectorSpec{Mode: model.ModeData, Domain: model.DomainFloating, Level: model.LevelFull})
	c, err := New(spec, Options{Controller: rc})
	require.NoError(t, err)

	sub := make([]model.Entry, 3000)
	for i := range sub {
		sub[i] = model.Entry{Value: model.Float(float64(i % 7))}
	}
	require.NoError(t, c.AddValue(key("a"), model.Float(1), sub))
	assert.Positive(t, rc.MemoryUsage())

	c.Release()
	assert.Zero(t, rc.MemoryUsage())
}

func TestNestedBudgetFailureMarksCollectorFailed(t *testing.T) {
	rc := resource.NewController(resource.Config{MemoryLimitBytes: 1024})
	spec := model.Chain(
		model.CollectorSpec{Mode: model.ModeList, Domain: model.DomainInteger, Level: model.LevelBasic},
		model.CollectorSpec{Mode: model.ModeData, Domain: model.DomainInteger, Level: model.LevelFull},
	)
	c, err := New(spec, Options{Controller: rc, Compression: accum.CompressionNone})
	require.NoError(t, err)

	var added int
	for ; added < 5000; added++ {
		err = c.AddValue(key("a"), model.Int(1), []model.Entry{{Value: model.Int(int64(added))}})
		if err != nil {
			break
		}
	}
	require.ErrorIs(t, err, resource.ErrMemoryLimitExceeded)
	require.Error(t, c.Failed())

	err = c.AddValue(key("b"), model.Int(1), nil)
	assert.ErrorIs(t, err, ErrFailed)
	assert.ErrorIs(t, err, resource.ErrMemoryLimitExceeded)
	_, ok := c.Get(model.StringKey("b"))
	assert.False(t, ok)

	c.Release()
	assert.Zero(t, rc.MemoryUsage())
}

func TestTopLevelBudgetFailureIsClean(t *testing.T) {
	rc := resource.NewController(resource.Config{MemoryLimitBytes: 1024})
	spec := &model.CollectorSpec{Mode: model.ModeData, Domain: model.DomainInteger, Level: model.LevelFull}
	c, err := New(spec, Options{Controller: rc, Compression: accum.CompressionNone})
	require.NoError(t, err)

	for i := range 1024 {
		require.NoError(t, c.AddValue(nil, model.Int(int64(i)), nil))
	}
	require.ErrorIs(t, c.AddValue(nil, model.Int(0), nil), resource.ErrMemoryLimitExceeded)
	assert.NoError(t, c.Failed(), "nothing changed, so the collector stays usable")
	assert.Equal(t, int64(1024), c.Root().Acc.Count())
}
