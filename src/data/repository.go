package data

import (
	"context"
	"errors"
	"fmt"

	"github.com/stake-plus/countdown/src/countdown"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StoredCountdown is a countdown as persisted: its configuration and accepted messages
// in sequence order.
type StoredCountdown struct {
	Settings countdown.Settings
	Messages []countdown.Message
}

// Repository persists countdowns, their messages and their configuration.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Migrate creates or updates the schema.
func (r *Repository) Migrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(&Countdown{}, &Message{}, &Reaction{}, &Prefix{}, &Setting{}); err != nil {
		return fmt.Errorf("data: migrate: %w", err)
	}
	return nil
}

// CreateCountdown registers a countdown channel.
func (r *Repository) CreateCountdown(ctx context.Context, id, guildID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&Countdown{}).Where("id = ?", id).Count(&n).Error; err != nil {
			return fmt.Errorf("data: create countdown %s: %w", id, err)
		}
		if n > 0 {
			return fmt.Errorf("data: create countdown %s: %w", id, countdown.ErrCountdownExists)
		}
		if err := tx.Create(&Countdown{ID: id, GuildID: guildID}).Error; err != nil {
			return fmt.Errorf("data: create countdown %s: %w", id, err)
		}
		return nil
	})
}

// DeleteCountdown removes a countdown with its messages and configuration.
func (r *Repository) DeleteCountdown(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []any{&Message{}, &Reaction{}, &Prefix{}} {
			if err := tx.Where("countdown_id = ?", id).Delete(model).Error; err != nil {
				return fmt.Errorf("data: delete countdown %s: %w", id, err)
			}
		}
		res := tx.Delete(&Countdown{}, "id = ?", id)
		if res.Error != nil {
			return fmt.Errorf("data: delete countdown %s: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("data: delete countdown %s: %w", id, countdown.ErrCountdownNotFound)
		}
		return nil
	})
}

// ListCountdowns returns every countdown ordered by id.
func (r *Repository) ListCountdowns(ctx context.Context) ([]Countdown, error) {
	var rows []Countdown
	if err := r.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("data: list countdowns: %w", err)
	}
	return rows, nil
}

// LoadCountdown reads a countdown's configuration and its messages, oldest first.
func (r *Repository) LoadCountdown(ctx context.Context, id string) (StoredCountdown, error) {
	db := r.db.WithContext(ctx)

	var row Countdown
	if err := db.First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return StoredCountdown{}, fmt.Errorf("data: load countdown %s: %w", id, countdown.ErrCountdownNotFound)
		}
		return StoredCountdown{}, fmt.Errorf("data: load countdown %s: %w", id, err)
	}

	var (
		msgs      []Message
		reactions []Reaction
		prefixes  []Prefix
	)
	if err := db.Where("countdown_id = ?", id).Order("number DESC").Find(&msgs).Error; err != nil {
		return StoredCountdown{}, fmt.Errorf("data: load messages %s: %w", id, err)
	}
	if err := db.Where("countdown_id = ?", id).Order("number DESC, position").Find(&reactions).Error; err != nil {
		return StoredCountdown{}, fmt.Errorf("data: load reactions %s: %w", id, err)
	}
	if err := db.Where("countdown_id = ?", id).Order("position").Find(&prefixes).Error; err != nil {
		return StoredCountdown{}, fmt.Errorf("data: load prefixes %s: %w", id, err)
	}

	out := StoredCountdown{
		Settings: countdown.Settings{
			GuildID:             row.GuildID,
			TimezoneOffsetHours: row.Timezone,
		},
		Messages: make([]countdown.Message, 0, len(msgs)),
	}
	if len(reactions) > 0 {
		out.Settings.Triggers = make(map[int64][]string)
	}
	for _, re := range reactions {
		out.Settings.Triggers[re.Number] = append(out.Settings.Triggers[re.Number], re.Value)
	}
	for _, p := range prefixes {
		out.Settings.Prefixes = append(out.Settings.Prefixes, p.Value)
	}
	for _, m := range msgs {
		out.Messages = append(out.Messages, countdown.Message{
			ID:          m.ID,
			CountdownID: m.CountdownID,
			AuthorID:    m.AuthorID,
			Timestamp:   m.Timestamp.UTC(),
			Number:      m.Number,
		})
	}
	return out, nil
}

func messageRow(m countdown.Message) Message {
	return Message{
		ID:          m.ID,
		CountdownID: m.CountdownID,
		AuthorID:    m.AuthorID,
		Number:      m.Number,
		Timestamp:   m.Timestamp.UTC(),
	}
}

// AppendMessage stores an accepted message. Storing the same message twice is a no-op.
func (r *Repository) AppendMessage(ctx context.Context, m countdown.Message) error {
	row := messageRow(m)
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
		return fmt.Errorf("data: append message %s: %w", m.ID, err)
	}
	return nil
}

// ReplaceMessages swaps a countdown's stored messages for msgs in one transaction.
func (r *Repository) ReplaceMessages(ctx context.Context, id string, msgs []countdown.Message) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("countdown_id = ?", id).Delete(&Message{}).Error; err != nil {
			return fmt.Errorf("data: replace messages %s: %w", id, err)
		}
		if len(msgs) == 0 {
			return nil
		}
		rows := make([]Message, 0, len(msgs))
		for _, m := range msgs {
			rows = append(rows, messageRow(m))
		}
		if err := tx.CreateInBatches(rows, 500).Error; err != nil {
			return fmt.Errorf("data: replace messages %s: %w", id, err)
		}
		return nil
	})
}

// SetTimezone stores a countdown's UTC offset. MySQL reports no affected rows when the value
// is unchanged, so a miss is confirmed with a count.
func (r *Repository) SetTimezone(ctx context.Context, id string, offsetHours float64) error {
	db := r.db.WithContext(ctx)
	res := db.Model(&Countdown{}).Where("id = ?", id).Update("timezone", offsetHours)
	if res.Error != nil {
		return fmt.Errorf("data: set timezone %s: %w", id, res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}
	var n int64
	if err := db.Model(&Countdown{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return fmt.Errorf("data: set timezone %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("data: set timezone %s: %w", id, countdown.ErrCountdownNotFound)
	}
	return nil
}

// SetReactions replaces the reaction tokens for one number. No tokens clears them.
func (r *Repository) SetReactions(ctx context.Context, id string, number int64, tokens []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("countdown_id = ? AND number = ?", id, number).Delete(&Reaction{}).Error; err != nil {
			return fmt.Errorf("data: set reactions %s: %w", id, err)
		}
		if len(tokens) == 0 {
			return nil
		}
		rows := make([]Reaction, 0, len(tokens))
		for i, tok := range tokens {
			rows = append(rows, Reaction{CountdownID: id, Number: number, Position: i, Value: tok})
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("data: set reactions %s: %w", id, err)
		}
		return nil
	})
}

// SetPrefixes replaces a countdown's command prefixes.
func (r *Repository) SetPrefixes(ctx context.Context, id string, prefixes []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("countdown_id = ?", id).Delete(&Prefix{}).Error; err != nil {
			return fmt.Errorf("data: set prefixes %s: %w", id, err)
		}
		if len(prefixes) == 0 {
			return nil
		}
		rows := make([]Prefix, 0, len(prefixes))
		for i, p := range prefixes {
			rows = append(rows, Prefix{CountdownID: id, Position: i, Value: p})
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("data: set prefixes %s: %w", id, err)
		}
		return nil
	})
}
