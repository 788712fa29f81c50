package logistics

import (
	"errors"
	"fmt"
)

var (
	ErrIncompleteAddress  = errors.New("delivery address is incomplete")
	ErrInvalidCoordinates = errors.New("coordinates are out of range")
)

// Coordinates is a GPS fix.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (c Coordinates) valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

// Selection is the customer's progress through the cascading pickers. It is
// either a hierarchy path or a GPS fix, never both. Transitions return a new
// value and leave the receiver unchanged.
type Selection struct {
	CommuneID string       `json:"commune_id,omitempty"`
	ZoneID    string       `json:"zone_id,omitempty"`
	SectorID  string       `json:"sector_id,omitempty"`
	GPS       *Coordinates `json:"gps,omitempty"`
	Details   string       `json:"details,omitempty"`
}

// SelectCommune starts a new hierarchy path and drops any zone, sector or GPS fix.
func (s Selection) SelectCommune(d *Directory, communeID string) (Selection, error) {
	if _, ok := d.Communes[communeID]; !ok {
		return s, ErrCommuneNotFound
	}
	return Selection{CommuneID: communeID, Details: s.Details}, nil
}

// SelectZone picks a zone of the selected commune and drops the sector.
func (s Selection) SelectZone(d *Directory, zoneID string) (Selection, error) {
	z, ok := d.Zones[zoneID]
	if !ok {
		return s, ErrZoneNotFound
	}
	if s.CommuneID == "" || z.CommuneID != s.CommuneID {
		return s, ErrOutsideSelection
	}
	s.ZoneID = zoneID
	s.SectorID = ""
	return s, nil
}

// SelectSector picks a sector of the selected zone.
func (s Selection) SelectSector(d *Directory, sectorID string) (Selection, error) {
	sec, ok := d.Sectors[sectorID]
	if !ok {
		return s, ErrSectorNotFound
	}
	if s.ZoneID == "" || sec.ZoneID != s.ZoneID {
		return s, ErrOutsideSelection
	}
	s.SectorID = sectorID
	return s, nil
}

// UseGPS replaces the hierarchy path with a GPS fix.
func (s Selection) UseGPS(lat, lng float64) (Selection, error) {
	c := Coordinates{Lat: lat, Lng: lng}
	if !c.valid() {
		return s, ErrInvalidCoordinates
	}
	return Selection{GPS: &c, Details: s.Details}, nil
}

func (s Selection) WithDetails(details string) Selection {
	s.Details = details
	return s
}

// Complete reports whether the selection can be resolved without looking up names.
func (s Selection) Complete() bool {
	return s.GPS != nil || (s.CommuneID != "" && s.ZoneID != "" && s.SectorID != "")
}

// Resolve renders the delivery address line for a selection, for example
// "Rue 10, Plateau, Dakar - Immeuble bleu" or "GPS: 14.6928, -17.4467".
// Entries removed from the directory after they were picked make the
// selection incomplete.
func (d *Directory) Resolve(s Selection) (string, error) {
	if s.GPS != nil {
		return fmt.Sprintf("GPS: %.4f, %.4f", s.GPS.Lat, s.GPS.Lng), nil
	}
	if !s.Complete() {
		return "", ErrIncompleteAddress
	}

	c, okC := d.Communes[s.CommuneID]
	z, okZ := d.Zones[s.ZoneID]
	sec, okS := d.Sectors[s.SectorID]
	if !okC || !okZ || !okS || z.CommuneID != c.ID || sec.ZoneID != z.ID {
		return "", ErrIncompleteAddress
	}
	return fmt.Sprintf("%s, %s, %s - %s", sec.Name, z.Name, c.Name, s.Details), nil
}
