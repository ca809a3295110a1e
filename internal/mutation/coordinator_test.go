package mutation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestCoordinatorBasics(t *testing.T) {
	c := New()
	assert.True(t, c.AllEnded())

	c.BeginOne()
	c.BeginOne()
	assert.Equal(t, 2, c.InFlight())
	assert.False(t, c.AllEnded())

	c.EndOne()
	assert.False(t, c.AllEnded())
	c.EndOne()
	assert.True(t, c.AllEnded())
}

func TestEndOneClampsAtZero(t *testing.T) {
	c := New()
	c.EndOne()
	c.EndOne()
	assert.Equal(t, 0, c.InFlight())
	assert.True(t, c.AllEnded())

	c.BeginOne()
	assert.Equal(t, 1, c.InFlight())
}

func TestCoordinatorBurstProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 64).Draw(t, "n")
		extra := rapid.IntRange(0, 4).Draw(t, "extra")
		c := New()

		for i := 0; i < n; i++ {
			c.BeginOne()
		}
		if c.InFlight() != n {
			t.Fatalf("after %d begins: in flight %d", n, c.InFlight())
		}

		for i := 0; i < n; i++ {
			if c.AllEnded() {
				t.Fatalf("idle with %d settlements outstanding", n-i)
			}
			c.EndOne()
		}
		for i := 0; i < extra; i++ {
			c.EndOne()
		}
		if !c.AllEnded() || c.InFlight() != 0 {
			t.Fatalf("expected idle, in flight %d", c.InFlight())
		}
	})
}

func TestCoordinatorInterleavingProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		c := New()
		want := 0
		ops := rapid.SliceOfN(rapid.Bool(), 0, 200).Draw(t, "ops")
		for _, begin := range ops {
			if begin {
				c.BeginOne()
				want++
			} else {
				c.EndOne()
				if want > 0 {
					want--
				}
			}
			if c.InFlight() != want {
				t.Fatalf("in flight %d, want %d", c.InFlight(), want)
			}
			if c.AllEnded() != (want == 0) {
				t.Fatalf("AllEnded %v with count %d", c.AllEnded(), want)
			}
		}
	})
}
