package model

import (
	"time"
)

// User is an account of the irrigation tracker
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	Username string `gorm:"not null;size:100;uniqueIndex" json:"username"`
	Email    string `gorm:"not null;size:255;uniqueIndex" json:"email"`
	Password string `gorm:"not null;type:text" json:"-"` // salted hash

	// Relationships
	FieldProfiles     []FieldProfile     `gorm:"foreignKey:UserID" json:"-"`
	IrrigationRecords []IrrigationRecord `gorm:"foreignKey:UserID" json:"-"`
}

// TableName specifies the table name for User
func (User) TableName() string {
	return "users"
}

// FieldProfile holds the field configuration of a user. There is one profile per
// user, kept by updating on user_id rather than by a unique constraint.
type FieldProfile struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID        uint      `gorm:"not null;index" json:"user_id"`
	Latitude      float64   `gorm:"column:lat;not null" json:"lat"`
	Longitude     float64   `gorm:"column:lon;not null" json:"lon"`
	FieldCapacity float64   `gorm:"not null" json:"field_capacity"`
	CropType      string    `gorm:"not null;size:50" json:"crop_type"`
	SowingDate    time.Time `gorm:"not null;type:date" json:"sowing_date"`
}

// TableName specifies the table name for FieldProfile
func (FieldProfile) TableName() string {
	return "field_data"
}

// SameSettings reports whether two profiles carry the same user-editable values
func (p FieldProfile) SameSettings(other FieldProfile) bool {
	return p.Latitude == other.Latitude &&
		p.Longitude == other.Longitude &&
		p.FieldCapacity == other.FieldCapacity &&
		p.CropType == other.CropType &&
		sameDate(p.SowingDate, other.SowingDate)
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// IrrigationRecord is one irrigation calculation. Records are append-only and several
// may exist for the same user and date.
type IrrigationRecord struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	UserID  uint      `gorm:"not null;index:idx_user_date,priority:1" json:"user_id"`
	FieldID uint      `gorm:"not null;index" json:"field_id"`
	Date    time.Time `gorm:"not null;type:date;index:idx_user_date,priority:2" json:"date"`

	// Calculation outputs, mm/day
	ET0                float64 `gorm:"column:et0" json:"et0"`
	AET                float64 `gorm:"column:aet" json:"aet"`
	IrrigationRequired float64 `gorm:"column:irrigation_required" json:"irrigation_required"`
	AdjustedIrrigation float64 `gorm:"column:adjusted_irrigation" json:"adjusted_irrigation"`
	SoilMoisture       float64 `gorm:"column:soil_moisture" json:"soil_moisture"` // fraction at calculation time
}

// TableName specifies the table name for IrrigationRecord
func (IrrigationRecord) TableName() string {
	return "irrigation_records"
}

// DateOnly truncates t to midnight UTC of its calendar date
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
