package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) Store {
	t.Helper()
	s, err := New(t.TempDir())
	require.NoError(t, err)
	return s
}

func grade(g string) *string { return &g }
func score(v int) *int       { return &v }

func TestSaveAndLatestScan(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.SaveScan(ctx, ScanRow{
		SiteKey:          "example.test",
		StartTime:        time.Date(2026, 7, 1, 10, 0, 0, 0, time.UTC),
		AlgorithmVersion: 5,
		Grade:            grade("A+"),
		Score:            score(105),
		StatusCode:       200,
		TestsPassed:      10,
		TestsQuantity:    10,
	})
	require.NoError(t, err)
	assert.NotZero(t, first.ID)

	second, err := s.SaveScan(ctx, ScanRow{
		SiteKey:          "example.test",
		StartTime:        time.Date(2026, 7, 2, 10, 0, 0, 0, time.UTC),
		AlgorithmVersion: 5,
		Grade:            grade("A"),
		Score:            score(90),
		StatusCode:       200,
		TestsPassed:      9,
		TestsFailed:      1,
		TestsQuantity:    10,
	})
	require.NoError(t, err)

	latest, err := s.LatestScan(ctx, "example.test")
	require.NoError(t, err)
	require.True(t, latest.IsPresent())
	row := latest.MustGet()
	assert.Equal(t, second.ID, row.ID)
	assert.Equal(t, "A", *row.Grade)
	assert.Equal(t, 90, *row.Score)
	assert.Equal(t, second.StartTime, row.StartTime)
}

func TestLatestScanMissing(t *testing.T) {
	s := newTestStore(t)
	latest, err := s.LatestScan(context.Background(), "nowhere.test")
	require.NoError(t, err)
	assert.True(t, latest.IsAbsent())
}

func TestSaveScanWithError(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	saved, err := s.SaveScan(ctx, ScanRow{
		SiteKey:          "down.test",
		StartTime:        time.Now(),
		AlgorithmVersion: 5,
		Error:            "connection-error",
	})
	require.NoError(t, err)
	assert.Nil(t, saved.Grade)
	assert.Nil(t, saved.Score)

	latest, err := s.LatestScan(ctx, "down.test")
	require.NoError(t, err)
	row := latest.MustGet()
	assert.Nil(t, row.Grade)
	assert.Nil(t, row.Score)
	assert.Equal(t, "connection-error", row.Error)
}

func TestHistory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i, g := range []string{"C", "B", "A"} {
		_, err := s.SaveScan(ctx, ScanRow{
			SiteKey:          "example.test",
			StartTime:        time.Date(2026, 7, 1+i, 0, 0, 0, 0, time.UTC),
			AlgorithmVersion: 5,
			Grade:            grade(g),
			Score:            score(50 + 20*i),
		})
		require.NoError(t, err)
	}
	_, err := s.SaveScan(ctx, ScanRow{SiteKey: "other.test", StartTime: time.Now(), AlgorithmVersion: 5})
	require.NoError(t, err)

	history, err := s.History(ctx, "example.test")
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "C", *history[0].Grade)
	assert.Equal(t, "A", *history[2].Grade)
}

func TestGradeDistributionUsesLatestRowPerSite(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	save := func(key, g string, day int) {
		_, err := s.SaveScan(ctx, ScanRow{
			SiteKey:          key,
			StartTime:        time.Date(2026, 7, day, 0, 0, 0, 0, time.UTC),
			AlgorithmVersion: 5,
			Grade:            grade(g),
			Score:            score(80),
		})
		require.NoError(t, err)
	}
	save("a.test", "C", 1)
	save("a.test", "A", 2) // supersedes the C
	save("b.test", "A", 1)
	save("c.test", "F", 1)

	dist, err := s.GradeDistribution(ctx)
	require.NoError(t, err)

	byGrade := map[string]int64{}
	for _, gc := range dist {
		byGrade[gc.Grade] = gc.Count
	}
	assert.Equal(t, int64(2), byGrade["A"])
	assert.Equal(t, int64(1), byGrade["F"])
	assert.Zero(t, byGrade["C"])
}

func TestTotalAndRecentScans(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.SaveScan(ctx, ScanRow{SiteKey: "old.test", StartTime: time.Now().Add(-48 * time.Hour), AlgorithmVersion: 5})
	require.NoError(t, err)
	_, err = s.SaveScan(ctx, ScanRow{SiteKey: "new.test", StartTime: time.Now(), AlgorithmVersion: 5})
	require.NoError(t, err)

	total, err := s.TotalScans(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	recent, err := s.RecentScans(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), recent)
}

func TestExpectations(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	overrides, err := s.Expectations(ctx, "example.test")
	require.NoError(t, err)
	assert.Empty(t, overrides)

	require.NoError(t, s.SetExpectation(ctx, "example.test", "redirection", "redirection-not-needed-no-http"))
	require.NoError(t, s.SetExpectation(ctx, "example.test", "redirection", "redirection-to-https"))
	require.NoError(t, s.SetExpectation(ctx, "example.test", "cookies", "cookies-not-found"))

	overrides, err = s.Expectations(ctx, "example.test")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"redirection": "redirection-to-https",
		"cookies":     "cookies-not-found",
	}, overrides)

	require.NoError(t, s.DeleteExpectation(ctx, "example.test", "cookies"))
	overrides, err = s.Expectations(ctx, "example.test")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"redirection": "redirection-to-https"}, overrides)
}
