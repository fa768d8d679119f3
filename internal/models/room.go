package models

import "time"

// RoomType enumerates physical room categories from the facilities inventory.
type RoomType string

const (
	RoomTypeClassroom   RoomType = "CLASSROOM"
	RoomTypeLab         RoomType = "LAB"
	RoomTypeScienceLab  RoomType = "SCIENCE_LAB"
	RoomTypeComputerLab RoomType = "COMPUTER_LAB"
	RoomTypeGymnasium   RoomType = "GYMNASIUM"
	RoomTypeAuditorium  RoomType = "AUDITORIUM"
	RoomTypeArtStudio   RoomType = "ART_STUDIO"
	RoomTypeMusicRoom   RoomType = "MUSIC_ROOM"
	RoomTypeBandRoom    RoomType = "BAND_ROOM"
	RoomTypeChorusRoom  RoomType = "CHORUS_ROOM"
	RoomTypeWorkshop    RoomType = "WORKSHOP"
	RoomTypeSTEMLab     RoomType = "STEM_LAB"
	RoomTypeCulinaryLab RoomType = "CULINARY_LAB"
	RoomTypeTheater     RoomType = "THEATER"
	RoomTypeMediaCenter RoomType = "MEDIA_CENTER"
	RoomTypeLibrary     RoomType = "LIBRARY"
	RoomTypeOffice      RoomType = "OFFICE"
	RoomTypeCafeteria   RoomType = "CAFETERIA"
	RoomTypeStorage     RoomType = "STORAGE"
)

// nonSchedulable lists administrative types never offered to the solver.
var nonSchedulable = map[RoomType]bool{
	RoomTypeOffice:    true,
	RoomTypeCafeteria: true,
	RoomTypeStorage:   true,
}

// labTypes satisfy a course's RequiresLab flag.
var labTypes = map[RoomType]bool{
	RoomTypeLab:         true,
	RoomTypeScienceLab:  true,
	RoomTypeComputerLab: true,
}

// IsLab reports whether the type satisfies a lab requirement.
func (rt RoomType) IsLab() bool {
	return labTypes[rt]
}

// Room represents a physical room cached from the facilities inventory.
type Room struct {
	ID                   string    `db:"id" json:"id"`
	Number               string    `db:"number" json:"number"`
	Building             string    `db:"building" json:"building"`
	Floor                int       `db:"floor" json:"floor"`
	Capacity             int       `db:"capacity" json:"capacity"`
	Type                 RoomType  `db:"room_type" json:"room_type"`
	AllowSharing         bool      `db:"allow_sharing" json:"allow_sharing"`
	MaxConcurrentClasses int       `db:"max_concurrent_classes" json:"max_concurrent_classes"`
	Available            bool      `db:"available" json:"available"`
	CreatedAt            time.Time `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time `db:"updated_at" json:"updated_at"`
}

// Schedulable reports whether the room may host course sections.
func (r Room) Schedulable() bool {
	return r.Available && !nonSchedulable[r.Type]
}

// ConcurrentLimit returns how many sections may share the room at once.
func (r Room) ConcurrentLimit() int {
	if r.AllowSharing && r.MaxConcurrentClasses > 1 {
		return r.MaxConcurrentClasses
	}
	return 1
}

// EffectiveMaxCapacity returns total seats across concurrent sections.
func (r Room) EffectiveMaxCapacity() int {
	return r.Capacity * r.ConcurrentLimit()
}
