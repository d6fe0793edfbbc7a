package model

import "time"

// Location represents a physical storage place: a room, a piece of
// furniture, or a box. Locations form a tree via ParentID; the tree must
// stay acyclic (enforced on reparent, not here).
type Location struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	RoomType  string    `json:"room_type,omitempty"`
	ParentID  *int64    `json:"parent_id,omitempty"`
	IsBox     bool      `json:"is_box"`
	ImageMime string    `json:"image_mime,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Room types.
const (
	RoomLivingRoom = "living_room"
	RoomKitchen    = "kitchen"
	RoomBedroom    = "bedroom"
	RoomOffice     = "office"
	RoomAttic      = "attic"
	RoomBasement   = "basement"
	RoomGarage     = "garage"
	RoomOther      = "other"
)

// RoomTypes lists all valid room types.
var RoomTypes = []string{
	RoomLivingRoom,
	RoomKitchen,
	RoomBedroom,
	RoomOffice,
	RoomAttic,
	RoomBasement,
	RoomGarage,
	RoomOther,
}

// ValidRoomType reports whether s is a known room type. The empty string is
// valid: not every location is a room.
func ValidRoomType(s string) bool {
	if s == "" {
		return true
	}
	for _, rt := range RoomTypes {
		if s == rt {
			return true
		}
	}
	return false
}
