package data

import "time"

// Countdown is an activated countdown channel.
type Countdown struct {
	ID        string  `gorm:"primaryKey;size:32"`
	GuildID   string  `gorm:"size:32;index;not null"`
	Timezone  float64 `gorm:"not null;default:0"`
	CreatedAt time.Time
}

// Message is an accepted countdown post. Numbers are strictly decreasing within a
// countdown, so number order is sequence order.
type Message struct {
	ID          string    `gorm:"primaryKey;size:32"`
	CountdownID string    `gorm:"size:32;not null;index:idx_messages_countdown_number,priority:1"`
	AuthorID    string    `gorm:"size:32;not null"`
	Number      int64     `gorm:"not null;index:idx_messages_countdown_number,priority:2"`
	Timestamp   time.Time `gorm:"not null"`
}

// Reaction is one token applied when Number is posted.
type Reaction struct {
	ID          uint   `gorm:"primaryKey"`
	CountdownID string `gorm:"size:32;not null;index"`
	Number      int64  `gorm:"not null"`
	Position    int    `gorm:"not null"`
	Value       string `gorm:"size:64;not null"`
}

// Prefix is a command prefix for a countdown.
type Prefix struct {
	ID          uint   `gorm:"primaryKey"`
	CountdownID string `gorm:"size:32;not null;index"`
	Position    int    `gorm:"not null"`
	Value       string `gorm:"size:32;not null"`
}

// Setting represents a configuration setting stored in the database
type Setting struct {
	ID     uint8  `gorm:"primaryKey"`
	Name   string `gorm:"size:32;not null;uniqueIndex"`
	Value  string `gorm:"type:text;not null"`
	Active uint8  `gorm:"not null"`
}
