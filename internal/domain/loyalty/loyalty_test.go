package loyalty

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		spent     int64
		threshold int64
		expected  Tier
	}{
		{"nothing spent", 0, 350000, Standard},
		{"just below", 349999, 350000, Standard},
		{"exactly at threshold", 350000, 350000, Cercle},
		{"above", 500000, 350000, Cercle},
		{"zero threshold", 0, 0, Cercle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Classify(tt.spent, tt.threshold))
		})
	}
}

func TestClassify_Monotonic(t *testing.T) {
	const threshold = 350000
	prev := Classify(0, threshold)
	for spent := int64(0); spent <= 2*threshold; spent += 2500 {
		cur := Classify(spent, threshold)
		assert.False(t, cur.Less(prev), "tier dropped at spend %d", spent)
		prev = cur
	}
}

func TestParseTier(t *testing.T) {
	tier, err := ParseTier("Cercle")
	require.NoError(t, err)
	assert.Equal(t, Cercle, tier)

	_, err = ParseTier("Gold")
	assert.Error(t, err)
}

func TestPrivileges(t *testing.T) {
	assert.True(t, CanPurchase(Standard, false))
	assert.False(t, CanPurchase(Standard, true))
	assert.True(t, CanPurchase(Cercle, true))

	assert.False(t, WalletEligible(Standard))
	assert.True(t, WalletEligible(Cercle))

	assert.Equal(t, int64(800), DeliveryFee(Standard, 800))
	assert.Equal(t, int64(0), DeliveryFee(Cercle, 800))
}

func TestProgress(t *testing.T) {
	assert.Equal(t, 0, Progress(0, 350000))
	assert.Equal(t, 50, Progress(175000, 350000))
	assert.Equal(t, 100, Progress(400000, 350000))
	assert.Equal(t, 100, Progress(10, 0))

	assert.Equal(t, int64(175000), Remaining(175000, 350000))
	assert.Equal(t, int64(0), Remaining(400000, 350000))
}

func TestPointsEarned(t *testing.T) {
	assert.Equal(t, int64(3), PointsEarned(3800, 1000))
	assert.Equal(t, int64(0), PointsEarned(999, 1000))
	assert.Equal(t, int64(0), PointsEarned(5000, 0))
}
