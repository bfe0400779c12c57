package noise

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoise_Deterministic(t *testing.T) {
	for _, p := range [][2]float64{{0.5, 0.25}, {-13.7, 42.1}, {1000.123, -0.001}} {
		a := Noise(12345, p[0], p[1])
		b := Noise(12345, p[0], p[1])
		assert.Equal(t, math.Float64bits(a), math.Float64bits(b), "точка %v", p)
	}
}

func TestNoise_SeedsDiffer(t *testing.T) {
	differ := 0
	for i := 0; i < 64; i++ {
		x := float64(i)*0.37 + 0.11
		y := float64(i)*-0.53 + 0.7
		if Noise(1, x, y) != Noise(2, x, y) {
			differ++
		}
	}
	assert.Greater(t, differ, 56, "разные сиды почти всегда должны давать разные значения")
}

func TestNoise_Range(t *testing.T) {
	for i := 0; i < 2000; i++ {
		v := Noise(7, float64(i)*0.173, float64(i)*0.311-50)
		require.False(t, math.IsNaN(v))
		assert.LessOrEqual(t, math.Abs(v), 1.01)
	}
}

func TestNoise_Continuous(t *testing.T) {
	a := Noise(99, 10.0, 10.0)
	b := Noise(99, 10.0001, 10.0)
	assert.InDelta(t, a, b, 0.01)
}

func TestGradient_ConcurrentUse(t *testing.T) {
	s := Gradient{Seed: 5}
	want := s.Sample(3.3, 4.4)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				assert.Equal(t, want, s.Sample(3.3, 4.4))
			}
		}()
	}
	wg.Wait()
}

func TestPerlin_Deterministic(t *testing.T) {
	a := NewPerlin(42)
	b := NewPerlin(42)
	assert.Equal(t, int64(42), a.Seed())
	for i := 0; i < 32; i++ {
		x, y := float64(i)*0.71, float64(i)*0.29
		assert.Equal(t, a.Sample(x, y), b.Sample(x, y))
	}
}

func TestNew_Kinds(t *testing.T) {
	_, ok := New(KindPerlin, 1).(*Perlin)
	assert.True(t, ok)
	_, ok = New(KindGradient, 1).(Gradient)
	assert.True(t, ok)
	_, ok = New("unknown", 1).(Gradient)
	assert.True(t, ok)
}
