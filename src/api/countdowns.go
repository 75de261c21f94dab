package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/OneOfOne/xxhash"
	"github.com/gin-gonic/gin"
	"github.com/stake-plus/countdown/src/countdown"
)

const snapshotKey = "snapshot"

type Countdowns struct {
	store  *countdown.Store
	scorer *countdown.Scorer
	now    func() time.Time
}

func NewCountdowns(store *countdown.Store, scorer *countdown.Scorer, now func() time.Time) Countdowns {
	return Countdowns{store: store, scorer: scorer, now: now}
}

type countdownView struct {
	ID                  string   `json:"id"`
	GuildID             string   `json:"guildId"`
	TimezoneOffsetHours float64  `json:"timezoneOffsetHours"`
	Messages            int      `json:"messages"`
	Total               *int64   `json:"total,omitempty"`
	Current             *int64   `json:"current,omitempty"`
	Prefixes            []string `json:"prefixes"`
	Reactions           []int64  `json:"reactions"`
}

func viewOf(snap countdown.Snapshot) countdownView {
	v := countdownView{
		ID:                  snap.ID,
		GuildID:             snap.Settings.GuildID,
		TimezoneOffsetHours: snap.Settings.TimezoneOffsetHours,
		Messages:            len(snap.Messages),
		Prefixes:            snap.Settings.Prefixes,
		Reactions:           snap.TriggerNumbers(),
	}
	if last, ok := snap.Last(); ok {
		total := snap.Messages[0].Number
		v.Total, v.Current = &total, &last.Number
	}
	return v
}

func (h Countdowns) List(c *gin.Context) {
	ids := h.store.IDs()
	out := make([]countdownView, 0, len(ids))
	for _, id := range ids {
		if cd, ok := h.store.Get(id); ok {
			out = append(out, viewOf(cd.Snapshot()))
		}
	}
	c.JSON(http.StatusOK, out)
}

// Load resolves :id to a snapshot and answers conditional requests. The ETag covers the
// sequence, the timezone and the current minute, since ongoing statistics move with time.
func (h Countdowns) Load(c *gin.Context) {
	cd, ok := h.store.Get(c.Param("id"))
	if !ok {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"err": countdown.ErrCountdownNotFound.Error()})
		return
	}
	snap := cd.Snapshot()

	tag := etag(snap, h.now())
	c.Header("ETag", tag)
	if c.GetHeader("If-None-Match") == tag {
		c.AbortWithStatus(http.StatusNotModified)
		return
	}
	c.Set(snapshotKey, snap)
	c.Next()
}

func etag(snap countdown.Snapshot, now time.Time) string {
	hash := xxhash.NewS64(0)
	lastID := ""
	if last, ok := snap.Last(); ok {
		lastID = last.ID
	}
	fmt.Fprintf(hash, "%s|%d|%s|%g|%v|%d", snap.ID, len(snap.Messages), lastID,
		snap.Settings.TimezoneOffsetHours, snap.TriggerNumbers(), now.Unix()/60)
	return fmt.Sprintf(`W/"%016x"`, hash.Sum64())
}

func snapshotOf(c *gin.Context) countdown.Snapshot {
	return c.MustGet(snapshotKey).(countdown.Snapshot)
}

// fail maps statistics errors to status codes.
func fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, countdown.ErrContributorNotFound), errors.Is(err, countdown.ErrCountdownNotFound):
		status = http.StatusNotFound
	case errors.Is(err, countdown.ErrEmptyCountdown):
		status = http.StatusConflict
	case errors.Is(err, countdown.ErrInvalidPeriod):
		status = http.StatusBadRequest
	}
	_ = c.Error(err)
	c.JSON(status, gin.H{"err": err.Error()})
}

func (h Countdowns) Get(c *gin.Context) {
	c.JSON(http.StatusOK, viewOf(snapshotOf(c)))
}

type breakView struct {
	Seconds int64     `json:"seconds"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
}

type progressView struct {
	Total        int64     `json:"total"`
	Current      int64     `json:"current"`
	Percentage   float64   `json:"percentage"`
	Complete     bool      `json:"complete"`
	RatePerDay   float64   `json:"ratePerDay"`
	Start        time.Time `json:"start"`
	ETA          time.Time `json:"eta"`
	LongestBreak breakView `json:"longestBreak"`
	Points       int       `json:"points"`
}

func (h Countdowns) Progress(c *gin.Context) {
	st, err := snapshotOf(c).Progress(h.now())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, progressView{
		Total:      st.Total,
		Current:    st.Current,
		Percentage: st.Percentage,
		Complete:   st.Complete,
		RatePerDay: st.Rate,
		Start:      st.Start,
		ETA:        st.ETA,
		LongestBreak: breakView{
			Seconds: int64(st.LongestBreak.Duration / time.Second),
			Start:   st.LongestBreak.Start,
			End:     st.LongestBreak.End,
		},
		Points: len(st.Points),
	})
}

type entryView struct {
	Rank          int              `json:"rank"`
	AuthorID      string           `json:"authorId"`
	Points        int64            `json:"points"`
	Contributions int64            `json:"contributions"`
	Percentage    float64          `json:"percentage"`
	Breakdown     map[string]int64 `json:"breakdown,omitempty"`
}

func entryOf(e countdown.LeaderboardEntry, withBreakdown bool) entryView {
	v := entryView{
		Rank:          e.Rank,
		AuthorID:      e.AuthorID,
		Points:        e.Points,
		Contributions: e.Contributions,
		Percentage:    e.Percentage,
	}
	if withBreakdown {
		v.Breakdown = make(map[string]int64, len(e.Breakdown))
		for cat, n := range e.Breakdown {
			v.Breakdown[string(cat)] = n
		}
	}
	return v
}

func (h Countdowns) Leaderboard(c *gin.Context) {
	board, err := snapshotOf(c).Leaderboard(h.scorer)
	if err != nil {
		fail(c, err)
		return
	}
	out := make([]entryView, 0, len(board))
	for _, e := range board {
		out = append(out, entryOf(e, false))
	}
	c.JSON(http.StatusOK, out)
}

func (h Countdowns) Standing(c *gin.Context) {
	e, err := snapshotOf(c).Standing(h.scorer, c.Param("author"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, entryOf(e, true))
}

func (h Countdowns) Contributors(c *gin.Context) {
	list, err := snapshotOf(c).Contributors()
	if err != nil {
		fail(c, err)
		return
	}
	type contributorView struct {
		AuthorID      string  `json:"authorId"`
		Contributions int64   `json:"contributions"`
		Percentage    float64 `json:"percentage"`
	}
	out := make([]contributorView, 0, len(list))
	for _, ct := range list {
		out = append(out, contributorView{AuthorID: ct.AuthorID, Contributions: ct.Contributions, Percentage: ct.Percentage})
	}
	c.JSON(http.StatusOK, out)
}

func (h Countdowns) ContributorHistory(c *gin.Context) {
	history, err := snapshotOf(c).HistoricalContributors()
	if err != nil {
		fail(c, err)
		return
	}
	type pointView struct {
		Progress   int64   `json:"progress"`
		Percentage float64 `json:"percentage"`
	}
	type historyView struct {
		AuthorID string      `json:"authorId"`
		Points   []pointView `json:"points"`
	}
	out := make([]historyView, 0, len(history))
	for _, hc := range history {
		v := historyView{AuthorID: hc.AuthorID, Points: make([]pointView, 0, len(hc.Points))}
		for _, p := range hc.Points {
			v.Points = append(v.Points, pointView{Progress: p.Progress, Percentage: p.Percentage})
		}
		out = append(out, v)
	}
	c.JSON(http.StatusOK, out)
}

// period reads the hours query parameter in whole hours, defaulting to a day.
func period(c *gin.Context) (time.Duration, error) {
	raw := c.DefaultQuery("hours", "24")
	hours, err := strconv.Atoi(raw)
	if err != nil || hours <= 0 {
		return 0, fmt.Errorf("hours %q: %w", raw, countdown.ErrInvalidPeriod)
	}
	return time.Duration(hours) * time.Hour, nil
}

func (h Countdowns) Speed(c *gin.Context) {
	p, err := period(c)
	if err != nil {
		fail(c, err)
		return
	}
	buckets, err := snapshotOf(c).Speed(p)
	if err != nil {
		fail(c, err)
		return
	}
	type bucketView struct {
		Start    time.Time `json:"start"`
		Messages int       `json:"messages"`
	}
	sum := countdown.SummarizeSpeed(buckets)
	out := struct {
		PeriodHours float64      `json:"periodHours"`
		Average     float64      `json:"average"`
		Record      int          `json:"record"`
		Buckets     []bucketView `json:"buckets"`
	}{PeriodHours: p.Hours(), Average: sum.Average, Record: sum.Record, Buckets: make([]bucketView, 0, len(buckets))}
	for _, b := range buckets {
		out.Buckets = append(out.Buckets, bucketView{Start: b.Start, Messages: b.Messages})
	}
	c.JSON(http.StatusOK, out)
}

func (h Countdowns) ETA(c *gin.Context) {
	p, err := period(c)
	if err != nil {
		fail(c, err)
		return
	}
	points, err := snapshotOf(c).ETA(p, h.now())
	if err != nil {
		fail(c, err)
		return
	}
	type pointView struct {
		Time time.Time `json:"time"`
		ETA  time.Time `json:"eta"`
	}
	out := make([]pointView, 0, len(points))
	for _, pt := range points {
		out = append(out, pointView{Time: pt.Time, ETA: pt.ETA})
	}
	c.JSON(http.StatusOK, out)
}

func (h Countdowns) Heatmap(c *gin.Context) {
	snap := snapshotOf(c)
	hm, err := snap.Heatmap(c.Query("author"))
	if err != nil {
		fail(c, err)
		return
	}
	sum := countdown.SummarizeHeatmap(hm, snap.Settings.TimezoneOffsetHours, h.now())
	c.JSON(http.StatusOK, gin.H{
		"author":   c.Query("author"),
		"total":    sum.Total,
		"average":  sum.Average,
		"bestDay":  sum.BestDay.String(),
		"bestHour": sum.BestHour,
		"cells":    hm,
	})
}
