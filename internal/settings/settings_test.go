package settings

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viepratiqueservice-arch/Visela/internal/infrastructure/store/mocks"
)

func newTestSettingsService() (*Service, *mocks.MockEventStore) {
	eventStore := mocks.NewMockEventStore()
	return NewService(eventStore, nil), eventStore
}

// ============================================
// Typed Value Tests
// ============================================

func TestDefaults(t *testing.T) {
	d := Defaults()

	assert.True(t, d.StoreOpen)
	assert.Equal(t, int64(800), d.DeliveryFee)
	assert.Equal(t, int64(350000), d.CercleThreshold)
	assert.Equal(t, 30, d.PreparationMinutes)
	assert.Equal(t, "F", d.CurrencySymbol)
	assert.Equal(t, int64(1000), d.LoyaltyPointRatio)
	assert.Equal(t, int64(50), d.ReferralBonus)
	assert.Zero(t, d.MinOrderAmount)
	assert.Empty(t, d.Announcement)
}

func TestSettings_With(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantErr error
		check   func(t *testing.T, s Settings)
	}{
		{"close store", KeyStoreOpen, "false", nil, func(t *testing.T, s Settings) { assert.False(t, s.StoreOpen) }},
		{"fee", KeyDeliveryFee, " 1000 ", nil, func(t *testing.T, s Settings) { assert.Equal(t, int64(1000), s.DeliveryFee) }},
		{"free delivery", KeyDeliveryFee, "0", nil, func(t *testing.T, s Settings) { assert.Zero(t, s.DeliveryFee) }},
		{"announcement", KeyAnnouncement, "Livraison offerte ce week-end", nil, func(t *testing.T, s Settings) {
			assert.Equal(t, "Livraison offerte ce week-end", s.Announcement)
		}},
		{"unknown key", "theme", "dark", ErrUnknownKey, nil},
		{"bad bool", KeyStoreOpen, "peut-être", ErrInvalidValue, nil},
		{"negative fee", KeyDeliveryFee, "-5", ErrInvalidValue, nil},
		{"zero threshold", KeyCercleThreshold, "0", ErrInvalidValue, nil},
		{"zero ratio", KeyLoyaltyPointRatio, "0", ErrInvalidValue, nil},
		{"not a number", KeyMinOrderAmount, "beaucoup", ErrInvalidValue, nil},
		{"empty currency", KeyCurrencySymbol, "  ", ErrInvalidValue, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Defaults().With(tt.key, tt.value)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, Defaults(), got)
				return
			}
			require.NoError(t, err)
			tt.check(t, got)
		})
	}
}

func TestSettings_ValuesCoverEveryKey(t *testing.T) {
	values := Defaults().Values()

	assert.Len(t, values, len(Keys()))
	assert.Equal(t, "true", values[KeyStoreOpen])
	assert.Equal(t, "800", values[KeyDeliveryFee])
	assert.Equal(t, "350000", values[KeyCercleThreshold])

	rebuilt := Settings{}
	for k, v := range values {
		var err error
		rebuilt, err = rebuilt.With(k, v)
		require.NoError(t, err, k)
	}
	assert.Equal(t, Defaults(), rebuilt)
}

// ============================================
// Service Tests
// ============================================

func TestService_Get_DefaultsWhenEmpty(t *testing.T) {
	service, _ := newTestSettingsService()

	s, err := service.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Defaults(), s)
}

func TestService_Set(t *testing.T) {
	service, eventStore := newTestSettingsService()
	ctx := context.Background()

	s, err := service.Set(ctx, KeyDeliveryFee, "1000", "admin-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), s.DeliveryFee)

	require.Len(t, eventStore.AppendCalls, 1)
	assert.Equal(t, EventSettingChanged, eventStore.AppendCalls[0].EventType)
	change := eventStore.AppendCalls[0].Data.(SettingChanged)
	assert.Equal(t, KeyDeliveryFee, change.Key)
	assert.Equal(t, "1000", change.Value)
	assert.Equal(t, "admin-1", change.ChangedBy)

	reloaded, err := service.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), reloaded.DeliveryFee)
	assert.True(t, reloaded.StoreOpen)
}

func TestService_Set_Errors(t *testing.T) {
	service, eventStore := newTestSettingsService()
	ctx := context.Background()

	_, err := service.Set(ctx, "colour", "blue", "admin-1")
	assert.ErrorIs(t, err, ErrUnknownKey)

	_, err = service.Set(ctx, KeyCercleThreshold, "lots", "admin-1")
	assert.ErrorIs(t, err, ErrInvalidValue)

	assert.Empty(t, eventStore.AppendCalls)
}

func TestService_SetMany_AllOrNothing(t *testing.T) {
	service, eventStore := newTestSettingsService()
	ctx := context.Background()

	_, err := service.SetMany(ctx, map[string]string{
		KeyDeliveryFee:  "1200",
		KeyStoreOpen:    "nope",
		KeyAnnouncement: "Bonjour",
	}, "admin-1")
	assert.ErrorIs(t, err, ErrInvalidValue)
	assert.Empty(t, eventStore.AppendCalls)

	s, err := service.SetMany(ctx, map[string]string{
		KeyDeliveryFee:  "1200",
		KeyStoreOpen:    "false",
		KeyAnnouncement: "Bonjour",
	}, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1200), s.DeliveryFee)
	assert.False(t, s.StoreOpen)
	assert.Equal(t, "Bonjour", s.Announcement)
	require.Len(t, eventStore.BatchCalls, 1)
	assert.Len(t, eventStore.BatchCalls[0], 3)
}

func TestService_Set_UnchangedValueNotRecorded(t *testing.T) {
	service, eventStore := newTestSettingsService()

	s, err := service.Set(context.Background(), KeyDeliveryFee, "800", "admin-1")
	require.NoError(t, err)
	assert.Equal(t, Defaults(), s)
	assert.Empty(t, eventStore.AppendCalls)
}

func TestService_Values(t *testing.T) {
	service, _ := newTestSettingsService()
	ctx := context.Background()

	_, err := service.Set(ctx, KeyMinOrderAmount, "2500", "admin-1")
	require.NoError(t, err)

	values, err := service.Values(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2500", values[KeyMinOrderAmount])
	assert.Equal(t, "800", values[KeyDeliveryFee])
}

func TestService_ReplaySkipsRetiredKeys(t *testing.T) {
	service, eventStore := newTestSettingsService()
	require.NoError(t, eventStore.AddEvent(AggregateID, AggregateType, EventSettingChanged,
		SettingChanged{Key: "legacy_banner", Value: "x"}))
	require.NoError(t, eventStore.AddEvent(AggregateID, AggregateType, EventSettingChanged,
		SettingChanged{Key: KeyDeliveryFee, Value: "600"}))

	s, err := service.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(600), s.DeliveryFee)
}
