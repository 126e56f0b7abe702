package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompute(t *testing.T) {
	prev := Set([]string{"https://a.be/1", "https://a.be/2"})
	cur := []string{"https://a.be/3", "https://a.be/1", "https://a.be/4", "https://a.be/3"}

	res := Compute("A", cur, prev)
	assert.Equal(t, "A", res.Agency)
	assert.Equal(t, []string{"https://a.be/3", "https://a.be/4"}, res.New)
	assert.Equal(t, []string{"https://a.be/2"}, res.Removed)
	assert.True(t, res.Changed())
}

func TestCompute_FirstRun(t *testing.T) {
	res := Compute("A", []string{"https://a.be/1"}, nil)
	assert.Equal(t, []string{"https://a.be/1"}, res.New)
	assert.Empty(t, res.Removed)
}

func TestCompute_Idempotent(t *testing.T) {
	cur := []string{"https://a.be/1", "https://a.be/2"}

	first := Compute("A", cur, nil)
	assert.Len(t, first.New, 2)

	second := Compute("A", cur, Set(cur))
	assert.Empty(t, second.New)
	assert.False(t, second.Changed())
}

func TestCompute_RemovedOnlyIsChanged(t *testing.T) {
	res := Compute("A", []string{"https://a.be/1"}, Set([]string{"https://a.be/1", "https://a.be/2"}))
	assert.Empty(t, res.New)
	assert.True(t, res.Changed())
}
