package repository

import (
	"context"
	"testing"

	"github.com/mingze-w/DevLens/internal/schema"
	"github.com/mingze-w/DevLens/internal/testutil"
)

func sampleMetrics(developerID, date string, efficiency float64) *schema.DailyMetrics {
	return &schema.DailyMetrics{
		DeveloperID:           developerID,
		Date:                  date,
		AIAssistanceLevel:     schema.AssistanceMedium,
		HumanRefinementRatio:  0.6,
		PromptEfficiencyScore: efficiency,
		DebuggingStyle:        schema.StyleMixed,
		ErrorResolutionTime:   15,
		AIDependencyRatio:     0.4,
		SessionCount:          2,
		ActiveTime:            90,
	}
}

func TestMetricsUpsertReplacesOnConflict(t *testing.T) {
	repo := NewMetricsRepository(testutil.OpenTestDB(t))
	ctx := context.Background()

	if err := repo.Upsert(ctx, sampleMetrics("dev-1", "2026-08-20", 0.5)); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if err := repo.Upsert(ctx, sampleMetrics("dev-1", "2026-08-20", 0.9)); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	rows, err := repo.GetByDate(ctx, "2026-08-20")
	if err != nil {
		t.Fatalf("GetByDate: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1 (conflict must replace)", len(rows))
	}
	if rows[0].PromptEfficiencyScore != 0.9 {
		t.Fatalf("efficiency = %v, want updated 0.9", rows[0].PromptEfficiencyScore)
	}
}

func TestMetricsGetByDeveloperAndDateNotFound(t *testing.T) {
	repo := NewMetricsRepository(testutil.OpenTestDB(t))

	m, err := repo.GetByDeveloperAndDate(context.Background(), "ghost", "2026-08-20")
	if err != nil {
		t.Fatalf("GetByDeveloperAndDate: %v", err)
	}
	if m != nil {
		t.Fatalf("metrics = %+v, want nil for missing row", m)
	}
}

func TestMetricsGetHistoryWindow(t *testing.T) {
	repo := NewMetricsRepository(testutil.OpenTestDB(t))
	ctx := context.Background()

	dates := []string{"2026-08-14", "2026-08-15", "2026-08-16", "2026-08-17", "2026-08-18", "2026-08-19", "2026-08-20"}
	for i, date := range dates {
		if err := repo.Upsert(ctx, sampleMetrics("dev-1", date, float64(i)/10)); err != nil {
			t.Fatalf("upsert %s: %v", date, err)
		}
	}
	// 其他开发者的数据不应混入
	if err := repo.Upsert(ctx, sampleMetrics("dev-2", "2026-08-19", 0.8)); err != nil {
		t.Fatalf("upsert dev-2: %v", err)
	}

	history, err := repo.GetHistory(ctx, "dev-1", "2026-08-20", 3)
	if err != nil {
		t.Fatalf("GetHistory: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("history = %d rows, want 3", len(history))
	}

	// 窗口取 beforeDate 之前最近 3 天，且按日期升序返回
	want := []string{"2026-08-17", "2026-08-18", "2026-08-19"}
	for i, row := range history {
		if row.Date != want[i] {
			t.Fatalf("history[%d].Date = %s, want %s", i, row.Date, want[i])
		}
		if row.DeveloperID != "dev-1" {
			t.Fatalf("history leaked row of %s", row.DeveloperID)
		}
	}
}

func TestMetricsGetRecentDescending(t *testing.T) {
	repo := NewMetricsRepository(testutil.OpenTestDB(t))
	ctx := context.Background()

	for _, date := range []string{"2026-08-18", "2026-08-19", "2026-08-20"} {
		if err := repo.Upsert(ctx, sampleMetrics("dev-1", date, 0.5)); err != nil {
			t.Fatalf("upsert %s: %v", date, err)
		}
	}

	rows, err := repo.GetRecent(ctx, "dev-1", 2)
	if err != nil {
		t.Fatalf("GetRecent: %v", err)
	}
	if len(rows) != 2 || rows[0].Date != "2026-08-20" || rows[1].Date != "2026-08-19" {
		t.Fatalf("recent rows = %+v, want latest first", rows)
	}
}
