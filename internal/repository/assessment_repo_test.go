package repository

import (
	"context"
	"testing"

	"github.com/mingze-w/DevLens/internal/schema"
	"github.com/mingze-w/DevLens/internal/testutil"
)

func sampleAssessment(developerID, date string, promptScore float64) *schema.SkillAssessment {
	return &schema.SkillAssessment{
		DeveloperID:       developerID,
		AssessmentDate:    date,
		PromptScore:       promptScore,
		PromptTrend:       "stable",
		PromptExplanation: "当日提示词效率 0.70，表现良好。",
		DebugScore:        60,
		DebugStyle:        schema.StyleMixed,
		DebugTrend:        "stable",
		DebugExplanation:  "调试风格为 mixed。",
		CollabScore:       55,
		DependencyLevel:   schema.AssistanceMedium,
		RefinementSkill:   60,
		CollabTrend:       "stable",
		CollabExplanation: "AI 依赖度 0.40。",
	}
}

func TestAssessmentUpsertReplacesOnConflict(t *testing.T) {
	repo := NewAssessmentRepository(testutil.OpenTestDB(t))
	ctx := context.Background()

	if err := repo.Upsert(ctx, sampleAssessment("dev-1", "2026-08-20", 50)); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if err := repo.Upsert(ctx, sampleAssessment("dev-1", "2026-08-20", 80)); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	got, err := repo.GetByDeveloperAndDate(ctx, "dev-1", "2026-08-20")
	if err != nil {
		t.Fatalf("GetByDeveloperAndDate: %v", err)
	}
	if got == nil || got.PromptScore != 80 {
		t.Fatalf("assessment = %+v, want updated prompt score 80", got)
	}

	rows, err := repo.GetRecent(ctx, "dev-1", 10)
	if err != nil {
		t.Fatalf("GetRecent: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1 (conflict must replace)", len(rows))
	}
}

func TestAssessmentGetRecentDescending(t *testing.T) {
	repo := NewAssessmentRepository(testutil.OpenTestDB(t))
	ctx := context.Background()

	for _, date := range []string{"2026-08-18", "2026-08-19", "2026-08-20"} {
		if err := repo.Upsert(ctx, sampleAssessment("dev-1", date, 50)); err != nil {
			t.Fatalf("upsert %s: %v", date, err)
		}
	}

	rows, err := repo.GetRecent(ctx, "dev-1", 2)
	if err != nil {
		t.Fatalf("GetRecent: %v", err)
	}
	if len(rows) != 2 || rows[0].AssessmentDate != "2026-08-20" || rows[1].AssessmentDate != "2026-08-19" {
		t.Fatalf("recent rows = %+v, want latest first", rows)
	}
}

func TestAssessmentNotFound(t *testing.T) {
	repo := NewAssessmentRepository(testutil.OpenTestDB(t))

	got, err := repo.GetByDeveloperAndDate(context.Background(), "ghost", "2026-08-20")
	if err != nil {
		t.Fatalf("GetByDeveloperAndDate: %v", err)
	}
	if got != nil {
		t.Fatalf("assessment = %+v, want nil", got)
	}
}
