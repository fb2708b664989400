// Package domain defines the persistence models for users, characters, daily
// characters, and game sessions. These types are mapped with GORM and form
// the core data layer of the guessing-game application.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// DateLayout is the canonical day-granularity format used for daily
// character bindings. Dates are stored as strings to keep the uniqueness
// constraint exact regardless of timezone or time-of-day components.
const DateLayout = "2006-01-02"

// DateKey returns the day-granularity key for t in UTC, e.g. "2025-07-14".
func DateKey(t time.Time) string { return t.UTC().Format(DateLayout) }

// User represents a registered player. Username and email are both unique
// login identifiers; the password is stored as a bcrypt hash and never
// serialized.
type User struct {
	ID           uint           `json:"id"         gorm:"primaryKey"`
	Username     string         `json:"username"   gorm:"type:varchar(64);not null;uniqueIndex:ux_users_username"`
	Email        string         `json:"email"      gorm:"type:varchar(255);not null;uniqueIndex:ux_users_email"`
	PasswordHash string         `json:"-"          gorm:"type:varchar(255);not null"`
	APIToken     string         `json:"-"          gorm:"type:varchar(128);index"`
	DailyScore   int            `json:"daily_score" gorm:"not null;default:0"`
	LastLogin    *time.Time     `json:"last_login,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-"          gorm:"index"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// Character is a guessable character, imported from the external catalog or
// created by administrative input.
//
// Fields:
//   - ID: auto-incremented surrogate key; insertion order is meaningful
//     (the acquisition layer uses the highest ID as "most recent").
//   - Name: natural dedup key. The unique index backs the acquisition
//     layer's create-or-return semantics, so concurrent imports of the same
//     character converge on one row.
//   - Species: ordered tags as reported by the catalog (a character can be
//     e.g. both "Human" and "Intelligent Titan"); stored as JSON.
type Character struct {
	ID        uint      `json:"id"      gorm:"primaryKey"`
	Name      string    `json:"name"    gorm:"type:varchar(255);not null;uniqueIndex:ux_characters_name"`
	Image     string    `json:"image"   gorm:"type:varchar(512)"`
	Species   []string  `json:"species" gorm:"type:text;serializer:json"`
	Gender    string    `json:"gender"  gorm:"type:varchar(32);not null"`
	Age       int       `json:"age"     gorm:"not null;check:age >= 0"`
	Status    string    `json:"status"  gorm:"type:varchar(32);not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for Character.
func (Character) TableName() string { return "characters" }

// DailyCharacter binds one calendar date to exactly one character. Both
// sides are unique: a date has one character, and a character is the daily
// target at most once. Rows are created lazily on the first request of a
// given day and are immutable afterwards.
type DailyCharacter struct {
	ID          uint      `json:"id"           gorm:"primaryKey"`
	CharacterID uint      `json:"character_id" gorm:"not null;uniqueIndex:ux_daily_character"`
	Date        string    `json:"date"         gorm:"type:char(10);not null;uniqueIndex:ux_daily_date"`
	CreatedAt   time.Time `json:"created_at"`

	// Character is the bound daily target.
	Character Character `json:"character" gorm:"foreignKey:CharacterID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

// TableName returns the database table name for DailyCharacter.
func (DailyCharacter) TableName() string { return "daily_characters" }

// GameSession records one playthrough against the day's character: when it
// started, when (and whether) it ended, and how long a winning run took.
type GameSession struct {
	ID              uint       `json:"id"         gorm:"primaryKey"`
	Player          string     `json:"player,omitempty" gorm:"type:varchar(255)"`
	StartedAt       time.Time  `json:"started_at" gorm:"not null"`
	EndedAt         *time.Time `json:"ended_at,omitempty"`
	DurationSeconds *int       `json:"duration_seconds,omitempty"`
	Won             bool       `json:"won"        gorm:"not null;default:false"`
	CharacterID     uint       `json:"-"          gorm:"not null;index"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`

	// Character is the daily character this session was played against,
	// pinned at session start so a date rollover mid-game keeps the target
	// stable.
	Character Character `json:"character" gorm:"foreignKey:CharacterID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

// TableName returns the database table name for GameSession.
func (GameSession) TableName() string { return "game_sessions" }
