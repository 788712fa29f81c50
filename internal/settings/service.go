package settings

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/viepratiqueservice-arch/Visela/internal/domain/aggregate"
	"github.com/viepratiqueservice-arch/Visela/internal/infrastructure/store"
	"go.uber.org/zap"
)

const (
	AggregateType = "Settings"
	// AggregateID is the id of the single settings aggregate.
	AggregateID = "system-settings"

	EventSettingChanged = "SettingChanged"
)

type SettingChanged struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	ChangedBy string    `json:"changed_by"`
	ChangedAt time.Time `json:"changed_at"`
}

// state is the event-sourced holder of Settings.
type state struct {
	Settings Settings `json:"settings"`
	aggregate.Versioned
}

func newState() *state {
	return &state{Settings: Defaults()}
}

func (st *state) GetID() string { return AggregateID }

// ApplyEvent folds a change in. Keys that are no longer known or values that
// no longer parse are skipped so an old stream always replays.
func (st *state) ApplyEvent(event store.Event) error {
	if event.EventType != EventSettingChanged {
		return nil
	}
	var data SettingChanged
	if err := json.Unmarshal(event.Data, &data); err != nil {
		return err
	}
	if next, err := st.Settings.With(data.Key, data.Value); err == nil {
		st.Settings = next
	}
	return nil
}

type Service struct {
	eventStore store.EventStoreInterface
	log        *zap.Logger
}

func NewService(es store.EventStoreInterface, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{eventStore: es, log: log}
}

// Get returns the current settings, defaults included.
func (s *Service) Get(ctx context.Context) (Settings, error) {
	st, err := s.load(ctx)
	if err != nil {
		return Settings{}, err
	}
	return st.Settings, nil
}

// Values returns the full key to value snapshot of the current settings.
func (s *Service) Values(ctx context.Context) (map[string]string, error) {
	cur, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	return cur.Values(), nil
}

// Set changes one key.
func (s *Service) Set(ctx context.Context, key, value, adminID string) (Settings, error) {
	return s.SetMany(ctx, map[string]string{key: value}, adminID)
}

// SetMany validates every pair first and then stores them together, so a
// bad value leaves all keys unchanged. Pairs equal to the current value are
// not recorded.
func (s *Service) SetMany(ctx context.Context, values map[string]string, adminID string) (Settings, error) {
	st, err := s.load(ctx)
	if err != nil {
		return Settings{}, err
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	next := st.Settings
	before := st.Settings.Values()
	now := time.Now()
	batch := make([]store.PendingEvent, 0, len(keys))
	for _, k := range keys {
		next, err = next.With(k, values[k])
		if err != nil {
			return st.Settings, err
		}
		normalized := next.Values()[k]
		if normalized == before[k] {
			continue
		}
		batch = append(batch, store.PendingEvent{
			AggregateID:   AggregateID,
			AggregateType: AggregateType,
			EventType:     EventSettingChanged,
			Data:          SettingChanged{Key: k, Value: normalized, ChangedBy: adminID, ChangedAt: now},
		})
	}
	if len(batch) == 0 {
		return st.Settings, nil
	}
	batch[0].ExpectedVersion = st.Version

	stored, err := s.eventStore.AppendBatch(ctx, batch)
	if err != nil {
		return st.Settings, err
	}
	if err := aggregate.Apply(st, stored...); err != nil {
		return st.Settings, err
	}
	if err := aggregate.MaybeCreateSnapshot(ctx, s.eventStore, st, AggregateType); err != nil {
		s.log.Warn("failed to create snapshot",
			zap.String("component", "Settings"),
			zap.Int("version", st.Version),
			zap.Error(err),
		)
	}

	s.log.Info("settings changed",
		zap.String("component", "Settings"),
		zap.Strings("keys", keysOf(batch)),
		zap.String("admin_id", adminID),
	)
	return st.Settings, nil
}

func (s *Service) load(ctx context.Context) (*state, error) {
	st, _, err := aggregate.LoadAggregate(ctx, s.eventStore, AggregateID, newState)
	if err != nil {
		return nil, err
	}
	return st, nil
}

func keysOf(batch []store.PendingEvent) []string {
	keys := make([]string, 0, len(batch))
	for _, p := range batch {
		keys = append(keys, p.Data.(SettingChanged).Key)
	}
	return keys
}
