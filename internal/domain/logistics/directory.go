// Package logistics holds the delivery directory (communes, zones and
// sectors) and turns a customer's selection into a delivery address line.
package logistics

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/viepratiqueservice-arch/Visela/internal/domain/aggregate"
	"github.com/viepratiqueservice-arch/Visela/internal/infrastructure/store"
	"go.uber.org/zap"
)

const (
	AggregateType = "Logistics"
	// DirectoryID is the id of the single directory aggregate.
	DirectoryID = "logistics-directory"
)

var (
	ErrInvalidName      = errors.New("name is required")
	ErrCommuneNotFound  = errors.New("commune not found")
	ErrZoneNotFound     = errors.New("zone not found")
	ErrSectorNotFound   = errors.New("sector not found")
	ErrHasChildren      = errors.New("entry still has children")
	ErrDuplicateName    = errors.New("name already used at this level")
	ErrOutsideSelection = errors.New("entry does not belong to the current selection")
)

type Commune struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Zone struct {
	ID        string `json:"id"`
	CommuneID string `json:"commune_id"`
	Name      string `json:"name"`
}

type Sector struct {
	ID     string `json:"id"`
	ZoneID string `json:"zone_id"`
	Name   string `json:"name"`
}

// Directory is the Commune > Zone > Sector hierarchy. Every zone has an
// existing commune and every sector an existing zone.
type Directory struct {
	Communes map[string]Commune `json:"communes"`
	Zones    map[string]Zone    `json:"zones"`
	Sectors  map[string]Sector  `json:"sectors"`
	aggregate.Versioned
}

func NewDirectory() *Directory {
	return &Directory{
		Communes: make(map[string]Commune),
		Zones:    make(map[string]Zone),
		Sectors:  make(map[string]Sector),
	}
}

func (d *Directory) GetID() string { return DirectoryID }

func (d *Directory) ApplyEvent(event store.Event) error {
	switch event.EventType {
	case EventCommuneAdded:
		var data CommuneAdded
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		d.Communes[data.CommuneID] = Commune{ID: data.CommuneID, Name: data.Name}
	case EventCommuneRemoved:
		var data CommuneRemoved
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		delete(d.Communes, data.CommuneID)
	case EventZoneAdded:
		var data ZoneAdded
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		d.Zones[data.ZoneID] = Zone{ID: data.ZoneID, CommuneID: data.CommuneID, Name: data.Name}
	case EventZoneRemoved:
		var data ZoneRemoved
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		delete(d.Zones, data.ZoneID)
	case EventSectorAdded:
		var data SectorAdded
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		d.Sectors[data.SectorID] = Sector{ID: data.SectorID, ZoneID: data.ZoneID, Name: data.Name}
	case EventSectorRemoved:
		var data SectorRemoved
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		delete(d.Sectors, data.SectorID)
	}
	return nil
}

// ListCommunes returns every commune ordered by name.
func (d *Directory) ListCommunes() []Commune {
	out := make([]Commune, 0, len(d.Communes))
	for _, c := range d.Communes {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ZonesFor returns the zones of a commune ordered by name.
func (d *Directory) ZonesFor(communeID string) []Zone {
	out := make([]Zone, 0)
	for _, z := range d.Zones {
		if z.CommuneID == communeID {
			out = append(out, z)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// SectorsFor returns the sectors of a zone ordered by name.
func (d *Directory) SectorsFor(zoneID string) []Sector {
	out := make([]Sector, 0)
	for _, s := range d.Sectors {
		if s.ZoneID == zoneID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func sameName(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
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

// Load returns the current directory. An empty directory is not an error.
func (s *Service) Load(ctx context.Context) (*Directory, error) {
	d, _, err := aggregate.LoadAggregate(ctx, s.eventStore, DirectoryID, NewDirectory)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Service) AddCommune(ctx context.Context, name string) (*Commune, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidName
	}
	d, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range d.Communes {
		if sameName(c.Name, name) {
			return nil, ErrDuplicateName
		}
	}

	c := Commune{ID: uuid.New().String(), Name: name}
	err = s.record(ctx, d, EventCommuneAdded, CommuneAdded{CommuneID: c.ID, Name: name, AddedAt: time.Now()})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Service) AddZone(ctx context.Context, communeID, name string) (*Zone, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidName
	}
	d, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	if _, ok := d.Communes[communeID]; !ok {
		return nil, ErrCommuneNotFound
	}
	for _, z := range d.ZonesFor(communeID) {
		if sameName(z.Name, name) {
			return nil, ErrDuplicateName
		}
	}

	z := Zone{ID: uuid.New().String(), CommuneID: communeID, Name: name}
	err = s.record(ctx, d, EventZoneAdded, ZoneAdded{ZoneID: z.ID, CommuneID: communeID, Name: name, AddedAt: time.Now()})
	if err != nil {
		return nil, err
	}
	return &z, nil
}

func (s *Service) AddSector(ctx context.Context, zoneID, name string) (*Sector, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidName
	}
	d, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	if _, ok := d.Zones[zoneID]; !ok {
		return nil, ErrZoneNotFound
	}
	for _, sec := range d.SectorsFor(zoneID) {
		if sameName(sec.Name, name) {
			return nil, ErrDuplicateName
		}
	}

	sec := Sector{ID: uuid.New().String(), ZoneID: zoneID, Name: name}
	err = s.record(ctx, d, EventSectorAdded, SectorAdded{SectorID: sec.ID, ZoneID: zoneID, Name: name, AddedAt: time.Now()})
	if err != nil {
		return nil, err
	}
	return &sec, nil
}

func (s *Service) RemoveCommune(ctx context.Context, communeID string) error {
	d, err := s.Load(ctx)
	if err != nil {
		return err
	}
	if _, ok := d.Communes[communeID]; !ok {
		return ErrCommuneNotFound
	}
	if len(d.ZonesFor(communeID)) > 0 {
		return ErrHasChildren
	}
	return s.record(ctx, d, EventCommuneRemoved, CommuneRemoved{CommuneID: communeID, RemovedAt: time.Now()})
}

func (s *Service) RemoveZone(ctx context.Context, zoneID string) error {
	d, err := s.Load(ctx)
	if err != nil {
		return err
	}
	z, ok := d.Zones[zoneID]
	if !ok {
		return ErrZoneNotFound
	}
	if len(d.SectorsFor(zoneID)) > 0 {
		return ErrHasChildren
	}
	return s.record(ctx, d, EventZoneRemoved, ZoneRemoved{ZoneID: zoneID, CommuneID: z.CommuneID, RemovedAt: time.Now()})
}

func (s *Service) RemoveSector(ctx context.Context, sectorID string) error {
	d, err := s.Load(ctx)
	if err != nil {
		return err
	}
	sec, ok := d.Sectors[sectorID]
	if !ok {
		return ErrSectorNotFound
	}
	return s.record(ctx, d, EventSectorRemoved, SectorRemoved{SectorID: sectorID, ZoneID: sec.ZoneID, RemovedAt: time.Now()})
}

// record appends one event pinned to the directory version that was checked,
// so two admins editing the hierarchy at once cannot orphan an entry.
func (s *Service) record(ctx context.Context, d *Directory, eventType string, data any) error {
	stored, err := s.eventStore.AppendBatch(ctx, []store.PendingEvent{{
		AggregateID:     DirectoryID,
		AggregateType:   AggregateType,
		EventType:       eventType,
		Data:            data,
		ExpectedVersion: d.Version,
	}})
	if err != nil {
		return err
	}
	if err := aggregate.Apply(d, stored...); err != nil {
		return err
	}
	if err := aggregate.MaybeCreateSnapshot(ctx, s.eventStore, d, AggregateType); err != nil {
		s.log.Warn("failed to create snapshot",
			zap.String("component", "Logistics"),
			zap.Int("version", d.Version),
			zap.Error(err),
		)
	}
	return nil
}
