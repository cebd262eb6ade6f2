package provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	qtesting "github.com/teranos/classdb/internal/testing"
	"github.com/teranos/classdb/prediction"
	"github.com/teranos/classdb/query"
	"github.com/teranos/classdb/store"
)

func rec(item, classifier, criterion, class string, score float64) prediction.Record {
	return prediction.Record{
		Item:       item,
		Identifier: prediction.Identifier{Classifier: classifier, Criterion: criterion, Class: class},
		Score:      score,
	}
}

func newProvider(t *testing.T, opts ...Option) *Provider {
	t.Helper()
	st := store.New(qtesting.CreateTestDB(t))

	ctx := context.Background()
	w, err := st.Writer(ctx)
	require.NoError(t, err)
	for _, r := range []prediction.Record{
		rec("file://dataset/1.dcm", "a-classifier", "liver", "true", 0.85),
		rec("file://dataset/1.dcm", "a-classifier", "liver", "false", 0.15),
		rec("file://dataset/3.dcm", "convnet", "liver", "true", 0.11),
		rec("file://dataset/3.dcm", "convnet", "liver", "false", 0.89),
	} {
		require.NoError(t, w.Add(ctx, r))
	}
	require.NoError(t, w.Close())

	return New(st, opts...)
}

func TestQuery_DefaultsToBestOnly(t *testing.T) {
	p := newProvider(t)

	got := p.Query(context.Background(), "liver:(true OR false)", nil)
	assert.Equal(t, []Result{
		{URI: "file://dataset/3.dcm", Score: 0.89, Extra: map[string]string{"id": "class://convnet/liver/false"}},
		{URI: "file://dataset/1.dcm", Score: 0.85, Extra: map[string]string{"id": "class://a-classifier/liver/true"}},
	}, got)
}

func TestQuery_Params(t *testing.T) {
	p := newProvider(t)
	ctx := context.Background()

	assert.Len(t, p.Query(ctx, "liver:*", map[string]string{"onlybest": "false"}), 4)
	assert.Len(t, p.Query(ctx, "liver:*", map[string]string{"onlybest": "false", "nresults": "3"}), 3)
	assert.Len(t, p.Query(ctx, "liver:*", map[string]string{"onlybest": "false", "threshold": "0.5"}), 2)
	assert.Empty(t, p.Query(ctx, "liver:*", map[string]string{"nresults": "0"}))
}

func TestParams_MalformedIgnored(t *testing.T) {
	p := New(nil)

	got := p.Params(map[string]string{
		"threshold": "high",
		"nresults":  "-7",
		"onlybest":  "maybe",
	})
	assert.Equal(t, query.Unbounded, got.NumberOfResults())
	assert.Equal(t, float32(0), got.Threshold())
	assert.True(t, got.OnlyBest())

	got = p.Params(map[string]string{"threshold": "1.5"})
	assert.Equal(t, float32(0), got.Threshold())

	got = p.Params(map[string]string{"threshold": "NaN"})
	assert.Equal(t, float32(0), got.Threshold())

	got = p.Params(map[string]string{"threshold": "0.25", "nresults": "10", "onlybest": "false"})
	assert.Equal(t, float32(0.25), got.Threshold())
	assert.Equal(t, 10, got.NumberOfResults())
	assert.False(t, got.OnlyBest())
}

func TestWithDefaults(t *testing.T) {
	defaults, err := query.NewParams(1, 0, false)
	require.NoError(t, err)
	p := newProvider(t, WithDefaults(defaults))

	got := p.Query(context.Background(), "liver:*", nil)
	require.Len(t, got, 1)
	assert.Equal(t, 0.89, got[0].Score)
}

func TestQuery_FailuresAreEmpty(t *testing.T) {
	ctx := context.Background()

	t.Run("bad query text", func(t *testing.T) {
		p := newProvider(t)
		got := p.Query(ctx, "liver:(true", nil)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("no searcher", func(t *testing.T) {
		assert.Empty(t, New(nil).Query(ctx, "liver", nil))
	})

	t.Run("nil store", func(t *testing.T) {
		var st *store.Store
		assert.Empty(t, New(st).Query(ctx, "liver", nil))
	})
}

func TestEnableDisable(t *testing.T) {
	p := newProvider(t)
	assert.True(t, p.IsEnabled())
	assert.Equal(t, "classdb", p.Name())

	p.Disable()
	assert.False(t, p.IsEnabled())
	assert.Empty(t, p.Query(context.Background(), "liver:*", nil))

	p.Enable()
	assert.NotEmpty(t, p.Query(context.Background(), "liver:*", nil))
}
