package repository

import (
	"context"
	"testing"
	"time"

	"github.com/mingze-w/DevLens/internal/schema"
	"github.com/mingze-w/DevLens/internal/testutil"
)

func dayMillis(t *testing.T, date string, hour int) int64 {
	t.Helper()
	d, err := time.ParseInLocation("2006-01-02", date, time.Local)
	if err != nil {
		t.Fatalf("parse date: %v", err)
	}
	return d.Add(time.Duration(hour) * time.Hour).UnixMilli()
}

func TestEventBatchInsertAndQueryByDay(t *testing.T) {
	repo := NewEventRepository(testutil.OpenTestDB(t))
	ctx := context.Background()

	events := []schema.RawEvent{
		{DeveloperID: "dev-1", EventType: schema.EventKeystrokeBurst, SessionID: "s1", Timestamp: dayMillis(t, "2026-08-20", 14)},
		{DeveloperID: "dev-1", EventType: schema.EventAIInvocation, SessionID: "s1", Timestamp: dayMillis(t, "2026-08-20", 9)},
		// 相邻日的事件不能混进来
		{DeveloperID: "dev-1", EventType: schema.EventPaste, SessionID: "s1", Timestamp: dayMillis(t, "2026-08-21", 9)},
		// 其他开发者
		{DeveloperID: "dev-2", EventType: schema.EventPaste, SessionID: "s9", Timestamp: dayMillis(t, "2026-08-20", 9)},
	}
	if err := repo.BatchInsert(ctx, events); err != nil {
		t.Fatalf("BatchInsert: %v", err)
	}

	got, err := repo.GetByDeveloperAndDate(ctx, "dev-1", "2026-08-20")
	if err != nil {
		t.Fatalf("GetByDeveloperAndDate: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("events = %d, want 2", len(got))
	}
	// 按时间升序
	if got[0].EventType != schema.EventAIInvocation || got[1].EventType != schema.EventKeystrokeBurst {
		t.Fatalf("events out of order: %s, %s", got[0].EventType, got[1].EventType)
	}
}

func TestEventListDeveloperIDs(t *testing.T) {
	repo := NewEventRepository(testutil.OpenTestDB(t))
	ctx := context.Background()

	events := []schema.RawEvent{
		{DeveloperID: "dev-b", EventType: schema.EventPaste, SessionID: "s1", Timestamp: dayMillis(t, "2026-08-20", 9)},
		{DeveloperID: "dev-a", EventType: schema.EventPaste, SessionID: "s1", Timestamp: dayMillis(t, "2026-08-20", 10)},
		{DeveloperID: "dev-a", EventType: schema.EventPaste, SessionID: "s2", Timestamp: dayMillis(t, "2026-08-20", 11)},
		{DeveloperID: "dev-c", EventType: schema.EventPaste, SessionID: "s1", Timestamp: dayMillis(t, "2026-08-21", 9)},
	}
	if err := repo.BatchInsert(ctx, events); err != nil {
		t.Fatalf("BatchInsert: %v", err)
	}

	ids, err := repo.ListDeveloperIDs(ctx, "2026-08-20")
	if err != nil {
		t.Fatalf("ListDeveloperIDs: %v", err)
	}
	if len(ids) != 2 || ids[0] != "dev-a" || ids[1] != "dev-b" {
		t.Fatalf("ids = %v, want [dev-a dev-b]", ids)
	}
}

func TestEventDeleteOldEvents(t *testing.T) {
	repo := NewEventRepository(testutil.OpenTestDB(t))
	ctx := context.Background()

	now := time.Now()
	events := []schema.RawEvent{
		{DeveloperID: "dev-1", EventType: schema.EventPaste, SessionID: "s1", Timestamp: now.AddDate(0, 0, -100).UnixMilli()},
		{DeveloperID: "dev-1", EventType: schema.EventPaste, SessionID: "s1", Timestamp: now.AddDate(0, 0, -1).UnixMilli()},
	}
	if err := repo.BatchInsert(ctx, events); err != nil {
		t.Fatalf("BatchInsert: %v", err)
	}

	deleted, err := repo.DeleteOldEvents(ctx, 90)
	if err != nil {
		t.Fatalf("DeleteOldEvents: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("deleted = %d, want 1", deleted)
	}

	count, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 1 {
		t.Fatalf("count = %d, want 1", count)
	}
}

func TestDayRange(t *testing.T) {
	start, end, err := DayRange("2026-08-20")
	if err != nil {
		t.Fatalf("DayRange: %v", err)
	}
	if end-start != 24*60*60*1000-1 {
		t.Fatalf("span = %d ms, want full day minus 1ms", end-start)
	}

	if _, _, err := DayRange("not-a-date"); err == nil {
		t.Fatal("invalid date must return error")
	}
}
