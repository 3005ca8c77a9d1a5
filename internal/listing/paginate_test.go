package listing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaginate(t *testing.T) {
	items := make([]int, 12)
	for i := range items {
		items[i] = i
	}

	t.Run("total pages is ceil(n/size)", func(t *testing.T) {
		_, _, total := Paginate(items, 0, 5)
		assert.Equal(t, 3, total)
	})

	t.Run("concatenating pages reproduces the input", func(t *testing.T) {
		var got []int
		for p := 0; p < 3; p++ {
			page, _, _ := Paginate(items, p, 5)
			got = append(got, page...)
		}
		assert.Equal(t, items, got)
	})

	t.Run("past the end clamps to the last page", func(t *testing.T) {
		page, clamped, total := Paginate(items, 99, 5)
		assert.Equal(t, 2, clamped)
		assert.Equal(t, 3, total)
		assert.Equal(t, []int{10, 11}, page)
	})

	t.Run("negative page clamps to zero", func(t *testing.T) {
		page, clamped, _ := Paginate(items, -4, 5)
		assert.Equal(t, 0, clamped)
		assert.Equal(t, []int{0, 1, 2, 3, 4}, page)
	})

	t.Run("empty input yields zero pages", func(t *testing.T) {
		page, clamped, total := Paginate([]int{}, 3, 5)
		assert.Nil(t, page)
		assert.Zero(t, clamped)
		assert.Zero(t, total)
	})

	t.Run("exact multiple", func(t *testing.T) {
		_, _, total := Paginate(items[:10], 0, 5)
		assert.Equal(t, 2, total)
	})
}
