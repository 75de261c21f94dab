package data

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/stake-plus/countdown/src/countdown"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var t0 = time.Date(2024, time.March, 4, 12, 0, 0, 0, time.UTC)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Open(sqlite.Open(filepath.Join(t.TempDir(), "countdown.db")), zap.NewNop())
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo := NewRepository(openTestDB(t))
	require.NoError(t, repo.Migrate(context.Background()))
	return repo
}

func msg(id string, author string, number int64, offset time.Duration) countdown.Message {
	return countdown.Message{ID: id, CountdownID: "chan", AuthorID: author, Number: number, Timestamp: t0.Add(offset)}
}

func TestEnsureParam(t *testing.T) {
	assert.Equal(t, "u@tcp(h)/db?parseTime=true", ensureParam("u@tcp(h)/db", "parseTime", "true"))
	assert.Equal(t, "u@tcp(h)/db?a=1&parseTime=true", ensureParam("u@tcp(h)/db?a=1", "parseTime", "true"))
	assert.Equal(t, "u@tcp(h)/db?parseTime=false", ensureParam("u@tcp(h)/db?parseTime=false", "parseTime", "true"))
}

func TestConnectMySQLRejectsEmptyDSN(t *testing.T) {
	_, err := ConnectMySQL(" ", zap.NewNop())
	require.Error(t, err)
}

func TestRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	require.NoError(t, repo.CreateCountdown(ctx, "chan", "guild"))
	require.ErrorIs(t, repo.CreateCountdown(ctx, "chan", "guild"), countdown.ErrCountdownExists)

	require.NoError(t, repo.AppendMessage(ctx, msg("1", "A", 10, 0)))
	require.NoError(t, repo.AppendMessage(ctx, msg("3", "A", 8, 2*time.Minute)))
	require.NoError(t, repo.AppendMessage(ctx, msg("2", "B", 9, time.Minute)))
	require.NoError(t, repo.AppendMessage(ctx, msg("2", "B", 9, time.Minute)))

	require.NoError(t, repo.SetTimezone(ctx, "chan", -5.5))
	require.NoError(t, repo.SetReactions(ctx, "chan", 8, []string{"🎉", "🔥"}))
	require.NoError(t, repo.SetReactions(ctx, "chan", 5, []string{"x"}))
	require.NoError(t, repo.SetReactions(ctx, "chan", 5, nil))
	require.NoError(t, repo.SetPrefixes(ctx, "chan", []string{"c!", "!count "}))

	got, err := repo.LoadCountdown(ctx, "chan")
	require.NoError(t, err)
	assert.Equal(t, "guild", got.Settings.GuildID)
	assert.Equal(t, -5.5, got.Settings.TimezoneOffsetHours)
	assert.Equal(t, map[int64][]string{8: {"🎉", "🔥"}}, got.Settings.Triggers)
	assert.Equal(t, []string{"c!", "!count "}, got.Settings.Prefixes)

	require.Len(t, got.Messages, 3)
	for i, id := range []string{"1", "2", "3"} {
		assert.Equal(t, id, got.Messages[i].ID)
	}
	assert.True(t, got.Messages[1].Timestamp.Equal(t0.Add(time.Minute)))

	c := countdown.New("chan", got.Settings)
	assert.Equal(t, countdown.ReloadResult{Accepted: 3}, c.Restore(got.Messages))
}

func TestRepositoryUnknownCountdown(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	_, err := repo.LoadCountdown(ctx, "nope")
	require.ErrorIs(t, err, countdown.ErrCountdownNotFound)
	require.ErrorIs(t, repo.SetTimezone(ctx, "nope", 1), countdown.ErrCountdownNotFound)
	require.ErrorIs(t, repo.DeleteCountdown(ctx, "nope"), countdown.ErrCountdownNotFound)
}

func TestRepositoryReplaceMessages(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	require.NoError(t, repo.CreateCountdown(ctx, "chan", "guild"))
	require.NoError(t, repo.AppendMessage(ctx, msg("old", "Z", 5, 0)))

	replacement := []countdown.Message{msg("a", "A", 100, 0), msg("b", "B", 99, time.Minute)}
	require.NoError(t, repo.ReplaceMessages(ctx, "chan", replacement))

	got, err := repo.LoadCountdown(ctx, "chan")
	require.NoError(t, err)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "a", got.Messages[0].ID)

	require.NoError(t, repo.ReplaceMessages(ctx, "chan", nil))
	got, err = repo.LoadCountdown(ctx, "chan")
	require.NoError(t, err)
	assert.Empty(t, got.Messages)
}

func TestRepositoryDeleteCascades(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	require.NoError(t, repo.CreateCountdown(ctx, "chan", "guild"))
	require.NoError(t, repo.CreateCountdown(ctx, "other", "guild"))
	require.NoError(t, repo.AppendMessage(ctx, msg("1", "A", 10, 0)))
	require.NoError(t, repo.SetPrefixes(ctx, "chan", []string{"c!"}))

	require.NoError(t, repo.DeleteCountdown(ctx, "chan"))

	rows, err := repo.ListCountdowns(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "other", rows[0].ID)

	var n int64
	require.NoError(t, repo.db.Model(&Message{}).Count(&n).Error)
	assert.Zero(t, n)
	require.NoError(t, repo.db.Model(&Prefix{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestLoadSettings(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.AutoMigrate(&Setting{}))
	require.NoError(t, db.Create(&[]Setting{
		{Name: "discord_token", Value: "tok", Active: 1},
		{Name: "api_addr", Value: ":9999", Active: 0},
	}).Error)

	require.NoError(t, LoadSettings(db))
	assert.Equal(t, "tok", GetSetting("discord_token"))
	assert.Empty(t, GetSetting("api_addr"))
	assert.Empty(t, GetSetting("missing"))
}

func TestOutcomeEvents(t *testing.T) {
	cand := countdown.Candidate{ID: "m", AuthorID: "A", Number: 0, Timestamp: t0}

	accepted := OutcomeEvents("chan", cand, countdown.Outcome{
		Accepted: true,
		Signals:  countdown.Signals{Celebrate: true, PinWorthy: true, Triggers: []string{"🎉", "🔥"}},
	}, t0)
	var types []EventType
	for _, ev := range accepted {
		types = append(types, ev.Type)
		assert.Equal(t, "chan", ev.CountdownID)
	}
	assert.Equal(t, []EventType{EventAccepted, EventCelebrate, EventPin, EventTriggers}, types)
	assert.Equal(t, "🎉 🔥", accepted[3].Detail)

	rejected := OutcomeEvents("chan", cand, countdown.Outcome{Reject: countdown.RejectWrongNumber, Expected: 7}, t0)
	require.Len(t, rejected, 1)
	assert.Equal(t, EventRejected, rejected[0].Type)
	assert.Equal(t, "wrong_number:7", rejected[0].Detail)
}

func TestRedisPublisher(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	rdb, err := ConnectRedis(ctx, "redis://"+mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })

	pub := NewRedisPublisher(rdb, 0)
	require.NoError(t, pub.Publish(ctx, Event{Type: EventAccepted, CountdownID: "chan", MessageID: "m1", AuthorID: "A", Number: 42, Time: t0}))
	require.NoError(t, pub.Publish(ctx, Event{Type: EventReloaded, CountdownID: "chan", Detail: "accepted=3"}))

	entries, err := rdb.XRange(ctx, StreamEvents, "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 2)

	first := entries[0].Values
	assert.Equal(t, "accepted", first["type"])
	assert.Equal(t, "42", first["number"])
	assert.Equal(t, t0.Format(time.RFC3339Nano), first["time"])
	assert.NotEmpty(t, first["id"])
	assert.Equal(t, "accepted=3", entries[1].Values["detail"])
}

func TestConnectRedisBadURL(t *testing.T) {
	_, err := ConnectRedis(context.Background(), "not-a-url")
	require.Error(t, err)
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	assert.NoError(t, p.Publish(context.Background(), Event{}))
}
