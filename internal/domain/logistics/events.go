package logistics

import "time"

const (
	EventCommuneAdded   = "CommuneAdded"
	EventCommuneRemoved = "CommuneRemoved"
	EventZoneAdded      = "ZoneAdded"
	EventZoneRemoved    = "ZoneRemoved"
	EventSectorAdded    = "SectorAdded"
	EventSectorRemoved  = "SectorRemoved"
)

type CommuneAdded struct {
	CommuneID string    `json:"commune_id"`
	Name      string    `json:"name"`
	AddedAt   time.Time `json:"added_at"`
}

type CommuneRemoved struct {
	CommuneID string    `json:"commune_id"`
	RemovedAt time.Time `json:"removed_at"`
}

type ZoneAdded struct {
	ZoneID    string    `json:"zone_id"`
	CommuneID string    `json:"commune_id"`
	Name      string    `json:"name"`
	AddedAt   time.Time `json:"added_at"`
}

type ZoneRemoved struct {
	ZoneID    string    `json:"zone_id"`
	CommuneID string    `json:"commune_id"`
	RemovedAt time.Time `json:"removed_at"`
}

type SectorAdded struct {
	SectorID string    `json:"sector_id"`
	ZoneID   string    `json:"zone_id"`
	Name     string    `json:"name"`
	AddedAt  time.Time `json:"added_at"`
}

type SectorRemoved struct {
	SectorID  string    `json:"sector_id"`
	ZoneID    string    `json:"zone_id"`
	RemovedAt time.Time `json:"removed_at"`
}
