package cart

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viepratiqueservice-arch/Visela/internal/domain/loyalty"
)

func product(id string, price int64) ProductSnapshot {
	return ProductSnapshot{ID: id, Name: id, Price: price, Unit: "kg", UnitQuantity: 1}
}

func TestLines_AddIncrementsExisting(t *testing.T) {
	var lines Lines

	assert.True(t, lines.Add(product("mango", 1500), loyalty.Standard))
	assert.True(t, lines.Add(product("mango", 1500), loyalty.Standard))
	assert.True(t, lines.Add(product("rice", 700), loyalty.Standard))

	assert.Len(t, lines, 2)
	assert.Equal(t, "mango", lines[0].Product.ID)
	assert.Equal(t, 2, lines[0].Quantity)
	assert.Equal(t, int64(3700), lines.Subtotal())
	assert.Equal(t, 3, lines.Count())
}

func TestLines_CercleOnlyRefusedForStandard(t *testing.T) {
	lines := Lines{{Product: product("rice", 700), Quantity: 1}}
	truffle := product("truffle", 25000)
	truffle.CercleOnly = true

	assert.False(t, lines.Add(truffle, loyalty.Standard))
	assert.Equal(t, Lines{{Product: product("rice", 700), Quantity: 1}}, lines)

	assert.True(t, lines.Add(truffle, loyalty.Cercle))
	assert.Len(t, lines, 2)
}

func TestLines_UpdateQuantityRemovesAtZero(t *testing.T) {
	var lines Lines
	lines.Add(product("mango", 1500), loyalty.Standard)

	assert.True(t, lines.UpdateQuantity("mango", 3))
	l, _ := lines.Find("mango")
	assert.Equal(t, 4, l.Quantity)

	assert.True(t, lines.UpdateQuantity("mango", -4))
	assert.True(t, lines.Empty())

	assert.False(t, lines.UpdateQuantity("mango", 1))
}

func TestLines_UpdateQuantityBelowZeroRemoves(t *testing.T) {
	var lines Lines
	lines.Add(product("mango", 1500), loyalty.Standard)

	lines.UpdateQuantity("mango", -10)

	_, ok := lines.Find("mango")
	assert.False(t, ok)
}

func TestLines_RemoveIsUnconditional(t *testing.T) {
	var lines Lines
	lines.Add(product("a", 1), loyalty.Standard)
	lines.Add(product("b", 2), loyalty.Standard)

	lines.Remove("missing")
	lines.Remove("a")

	assert.Len(t, lines, 1)
	assert.Equal(t, "b", lines[0].Product.ID)
}

func TestLines_SubtotalMatchesRetainedLines(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	catalog := []ProductSnapshot{
		product("a", 100), product("b", 1500), product("c", 2750), product("d", 90),
	}

	var lines Lines
	for i := 0; i < 2000; i++ {
		p := catalog[rng.Intn(len(catalog))]
		switch rng.Intn(3) {
		case 0:
			lines.Add(p, loyalty.Standard)
		case 1:
			lines.UpdateQuantity(p.ID, rng.Intn(7)-4)
		case 2:
			if rng.Intn(4) == 0 {
				lines.Remove(p.ID)
			}
		}

		var want int64
		for _, l := range lines {
			assert.Positive(t, l.Quantity)
			want += l.Product.Price * int64(l.Quantity)
		}
		assert.Equal(t, want, lines.Subtotal())
	}
}
