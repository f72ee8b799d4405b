package namespace

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/vecstore/vector"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"golang.org/x/sync/errgroup"
)

func TestVectorStore_StoreAndRead(t *testing.T) {
	forEachBackend(t, func(t *testing.T, b backend) {
		ctx := context.Background()
		tenant := uniqueTenant("p123")
		vs, err := newRegistry(t, b).Open(ctx, tenant)
		require.NoError(t, err)

		ref, err := vs.Store(ctx, "url.xyz.com", ones(100))
		require.NoError(t, err)
		assert.Positive(t, ref.ID)
		assert.Equal(t, "url.xyz.com", ref.Key)
		assert.Equal(t, tenant.Namespace(), ref.Namespace)

		got, err := vs.Read(ctx, "url.xyz.com")
		require.NoError(t, err)
		require.Len(t, got, 100)
		for i, v := range got {
			require.Equal(t, 1.0, v, "element %d", i)
		}

		rec, err := vs.Get(ctx, "url.xyz.com")
		require.NoError(t, err)
		assert.Equal(t, ref.ID, rec.ID)
		assert.Equal(t, "url.xyz.com", rec.Key)
		assert.True(t, vector.Equal(ones(100), rec.Vector))
	})
}

func TestVectorStore_RoundTripFidelity(t *testing.T) {
	x, y := 0.1, 0.2
	vectors := map[string][]float64{
		"single":    {42},
		"ordered":   {3, 1, 2, -7.5, 0},
		"precision": {x + y, 1.0 / 3.0, math.Pi, -math.E},
		"extremes":  {math.MaxFloat64, -math.MaxFloat64, math.SmallestNonzeroFloat64, 5e-324},
		"zeros":     {0, math.Copysign(0, -1), 1e-300},
	}

	forEachBackend(t, func(t *testing.T, b backend) {
		ctx := context.Background()
		r := newRegistry(t, b)
		for name, vec := range vectors {
			// one namespace per vector since dimensions differ
			vs, err := r.Open(ctx, uniqueTenant("rt"))
			require.NoError(t, err)

			key := "https://img.example.com/" + name + ".png"
			_, err = vs.Store(ctx, key, vec)
			require.NoError(t, err, name)

			got, err := vs.Read(ctx, key)
			require.NoError(t, err, name)
			require.Len(t, got, len(vec), name)
			for i := range vec {
				assert.Equal(t, math.Float64bits(vec[i]), math.Float64bits(got[i]), "%s[%d]", name, i)
			}
		}
	})
}

func TestVectorStore_DuplicateKey(t *testing.T) {
	forEachBackend(t, func(t *testing.T, b backend) {
		ctx := context.Background()
		vs, err := newRegistry(t, b).Open(ctx, uniqueTenant("dup"))
		require.NoError(t, err)

		v1 := []float64{1, 2, 3}
		v2 := []float64{4, 5, 6}
		_, err = vs.Store(ctx, "k", v1)
		require.NoError(t, err)

		before := testutil.ToFloat64(OperationsTotal.WithLabelValues("store", "duplicate"))
		_, err = vs.Store(ctx, "k", v2)
		require.ErrorIs(t, err, ErrDuplicateKey)

		var keyErr *KeyError
		require.True(t, errors.As(err, &keyErr))
		assert.Equal(t, "k", keyErr.Key)
		assert.Equal(t, "store", keyErr.Op)
		assert.Equal(t, vs.Namespace(), keyErr.Namespace)
		assert.Equal(t, before+1, testutil.ToFloat64(OperationsTotal.WithLabelValues("store", "duplicate")))

		got, err := vs.Read(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, v1, got, "the first vector must be kept")
	})
}

func TestVectorStore_DuplicateKeyOtherDimension(t *testing.T) {
	forEachBackend(t, func(t *testing.T, b backend) {
		ctx := context.Background()
		vs, err := newRegistry(t, b).Open(ctx, uniqueTenant("dupdim"))
		require.NoError(t, err)

		_, err = vs.Store(ctx, "k", []float64{1, 2, 3})
		require.NoError(t, err)

		_, err = vs.Store(ctx, "k", []float64{1, 2})
		require.ErrorIs(t, err, ErrDuplicateKey)
		assert.NotErrorIs(t, err, ErrDimensionMismatch)

		// a new key of the wrong length is still a mismatch
		_, err = vs.Store(ctx, "other", []float64{1, 2})
		require.ErrorIs(t, err, ErrDimensionMismatch)

		got, err := vs.Read(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, []float64{1, 2, 3}, got)
	})
}

func TestVectorStore_NotFound(t *testing.T) {
	forEachBackend(t, func(t *testing.T, b backend) {
		ctx := context.Background()
		vs, err := newRegistry(t, b).Open(ctx, uniqueTenant("miss"))
		require.NoError(t, err)
		_, err = vs.Store(ctx, "URL.xyz.com", []float64{1})
		require.NoError(t, err)

		for _, key := range []string{"absent", "url.xyz.com", "URL.xyz.co", "URL.xyz.com "} {
			_, err := vs.Read(ctx, key)
			require.ErrorIs(t, err, ErrNotFound, key)

			var keyErr *KeyError
			require.True(t, errors.As(err, &keyErr))
			assert.Equal(t, key, keyErr.Key)
		}

		_, err = vs.Get(ctx, "absent")
		require.ErrorIs(t, err, ErrNotFound)
	})
}

func TestVectorStore_NotReady(t *testing.T) {
	ctx := context.Background()
	var zero VectorStore
	var nilStore *VectorStore

	for name, vs := range map[string]*VectorStore{"zero": &zero, "nil": nilStore} {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, Uninitialized, vs.State())
			assert.Equal(t, "uninitialized", vs.State().String())

			_, err := vs.Store(ctx, "k", []float64{1})
			require.ErrorIs(t, err, ErrNamespaceNotReady)
			_, err = vs.Store(ctx, "", nil)
			require.ErrorIs(t, err, ErrNamespaceNotReady)
			_, err = vs.Read(ctx, "k")
			require.ErrorIs(t, err, ErrNamespaceNotReady)
			_, err = vs.Get(ctx, "k")
			require.ErrorIs(t, err, ErrNamespaceNotReady)
		})
	}
}

func TestVectorStore_DroppedTable(t *testing.T) {
	forEachBackend(t, func(t *testing.T, b backend) {
		ctx := context.Background()
		vs, err := newRegistry(t, b).Open(ctx, uniqueTenant("drop"))
		require.NoError(t, err)
		_, err = b.db.Exec("DROP TABLE " + b.dialect.QuoteIdent(vs.Namespace()))
		require.NoError(t, err)

		_, err = vs.Read(ctx, "k")
		require.ErrorIs(t, err, ErrNamespaceNotReady)
		_, err = vs.Store(ctx, "k", []float64{1})
		require.ErrorIs(t, err, ErrNamespaceNotReady)
	})
}

func TestVectorStore_TenantIsolation(t *testing.T) {
	forEachBackend(t, func(t *testing.T, b backend) {
		ctx := context.Background()
		r := newRegistry(t, b)
		one, err := r.Open(ctx, uniqueTenant("one"))
		require.NoError(t, err)
		two, err := r.Open(ctx, uniqueTenant("two"))
		require.NoError(t, err)

		vA := []float64{1, 1}
		vB := []float64{2, 2, 2}
		_, err = one.Store(ctx, "k", vA)
		require.NoError(t, err)
		_, err = two.Store(ctx, "k", vB)
		require.NoError(t, err)

		got, err := one.Read(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, vA, got)
		got, err = two.Read(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, vB, got)
	})
}

func TestVectorStore_InvalidInput(t *testing.T) {
	ctx := context.Background()
	vs, err := newRegistry(t, newSQLiteBackend(t)).Open(ctx, "invalid")
	require.NoError(t, err)

	_, err = vs.Store(ctx, "", []float64{1})
	require.ErrorIs(t, err, ErrInvalidKey)
	_, err = vs.Read(ctx, "")
	require.ErrorIs(t, err, ErrInvalidKey)

	_, err = vs.Store(ctx, "k", nil)
	require.ErrorIs(t, err, ErrInvalidVector)
	require.ErrorIs(t, err, vector.ErrEmpty)

	for _, bad := range [][]float64{{math.NaN()}, {1, math.Inf(1)}, {math.Inf(-1)}} {
		_, err = vs.Store(ctx, "k", bad)
		require.ErrorIs(t, err, ErrInvalidVector)
		require.ErrorIs(t, err, vector.ErrNonFinite)
	}

	// rejected writes leave the key free
	_, err = vs.Read(ctx, "k")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestVectorStore_DimensionEnforced(t *testing.T) {
	forEachBackend(t, func(t *testing.T, b backend) {
		ctx := context.Background()
		vs, err := newRegistry(t, b).Open(ctx, uniqueTenant("dimfix"))
		require.NoError(t, err)

		_, err = vs.Store(ctx, "a", []float64{1, 2, 3})
		require.NoError(t, err)
		_, err = vs.Store(ctx, "b", []float64{1, 2, 3, 4})
		require.ErrorIs(t, err, ErrDimensionMismatch)
		_, err = vs.Read(ctx, "b")
		require.ErrorIs(t, err, ErrNotFound)

		_, err = vs.Store(ctx, "c", []float64{7, 8, 9})
		require.NoError(t, err)

		fixed, err := newRegistry(t, b, WithDimension(2)).Open(ctx, uniqueTenant("dimopt"))
		require.NoError(t, err)
		_, err = fixed.Store(ctx, "a", []float64{1, 2, 3})
		require.ErrorIs(t, err, ErrDimensionMismatch)
		_, err = fixed.Store(ctx, "a", []float64{1, 2})
		require.NoError(t, err)
	})
}

func TestVectorStore_ConcurrentSameKey(t *testing.T) {
	forEachBackend(t, func(t *testing.T, b backend) {
		ctx := context.Background()
		r := newRegistry(t, b)
		tenant := uniqueTenant("cas")
		vs, err := r.Open(ctx, tenant)
		require.NoError(t, err)

		const writers = 8
		var wins, dups atomic.Int32
		winner := make(chan []float64, writers)
		var g errgroup.Group
		for i := 0; i < writers; i++ {
			vec := []float64{float64(i), float64(i)}
			g.Go(func() error {
				_, err := vs.Store(ctx, "shared", vec)
				switch {
				case err == nil:
					wins.Add(1)
					winner <- vec
					return nil
				case errors.Is(err, ErrDuplicateKey):
					dups.Add(1)
					return nil
				default:
					return fmt.Errorf("writer %v: %w", vec, err)
				}
			})
		}
		require.NoError(t, g.Wait())
		require.EqualValues(t, 1, wins.Load())
		require.EqualValues(t, writers-1, dups.Load())

		got, err := vs.Read(ctx, "shared")
		require.NoError(t, err)
		assert.Equal(t, <-winner, got)
	})
}

func TestVectorStore_Spans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	ctx := context.Background()
	r := newRegistry(t, newSQLiteBackend(t), WithTracer(tp.Tracer("test")))
	vs, err := r.Open(ctx, "traced")
	require.NoError(t, err)
	_, err = vs.Store(ctx, "k", []float64{1})
	require.NoError(t, err)
	_, err = vs.Read(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)

	var names []string
	for _, span := range recorder.Ended() {
		names = append(names, span.Name())
	}
	assert.Equal(t, []string{"Registry.Open", "VectorStore.Store", "VectorStore.Read"}, names)
	assert.Len(t, recorder.Ended()[2].Events(), 1, "read miss is recorded on the span")
}
