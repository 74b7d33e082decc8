package service

import (
	"errors"
	"testing"
	"time"

	"github.com/simpleplan/internal/db"
)

func createTestGoalWithAction(t *testing.T, kind string, weeklyDay int, customDays []int) (db.Goal, db.Action) {
	t.Helper()

	goalSvc := NewGoalService(db.DB)
	goal, err := goalSvc.Create(GoalInput{Title: "健康生活"})
	if err != nil {
		t.Fatalf("create goal: %v", err)
	}

	actionSvc := NewActionService(db.DB)
	action, err := actionSvc.Create(goal.ID, ActionInput{
		Name:       "晨跑 5 公里",
		Recurrence: Recurrence{Kind: kind, WeeklyDay: weeklyDay, CustomDays: customDays},
	})
	if err != nil {
		t.Fatalf("create action: %v", err)
	}

	return *goal, *action
}

func TestSetCompletionUpsert(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	_, action := createTestGoalWithAction(t, RecurrenceDaily, 0, nil)
	svc := NewCompletionService(db.DB)
	day := dayAt(t, "2024-05-01")

	record, err := svc.SetCompletion(action.ID, day, true)
	if err != nil {
		t.Fatalf("SetCompletion returned error: %v", err)
	}
	if !record.Completed || record.Day != "2024-05-01" {
		t.Fatalf("unexpected record: %+v", record)
	}

	// 同键覆盖，不产生第二条记录
	record, err = svc.SetCompletion(action.ID, day, false)
	if err != nil {
		t.Fatalf("SetCompletion overwrite returned error: %v", err)
	}
	if record.Completed {
		t.Fatal("expected completed flag overwritten to false")
	}

	var count int64
	if err := db.DB.Model(&db.Completion{}).Where("action_id = ?", action.ID).Count(&count).Error; err != nil {
		t.Fatalf("count completions: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected exactly 1 record, got %d", count)
	}
}

func TestSetCompletionIdempotent(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	_, action := createTestGoalWithAction(t, RecurrenceDaily, 0, nil)
	svc := NewCompletionService(db.DB)
	day := dayAt(t, "2024-05-02")

	for i := 0; i < 2; i++ {
		if _, err := svc.SetCompletion(action.ID, day, true); err != nil {
			t.Fatalf("SetCompletion call %d returned error: %v", i+1, err)
		}
	}

	completed, err := svc.IsCompleted(action.ID, day)
	if err != nil {
		t.Fatalf("IsCompleted returned error: %v", err)
	}
	if !completed {
		t.Fatal("expected completed after repeated identical writes")
	}
}

func TestIsCompletedAbsenceMeansFalse(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	_, action := createTestGoalWithAction(t, RecurrenceDaily, 0, nil)
	svc := NewCompletionService(db.DB)

	completed, err := svc.IsCompleted(action.ID, dayAt(t, "2024-05-03"))
	if err != nil {
		t.Fatalf("IsCompleted returned error: %v", err)
	}
	if completed {
		t.Fatal("expected missing record to read as not completed")
	}
}

func TestSetCompletionUnknownAction(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	svc := NewCompletionService(db.DB)
	if _, err := svc.SetCompletion(9999, dayAt(t, "2024-05-01"), true); !errors.Is(err, ErrActionNotFound) {
		t.Fatalf("expected ErrActionNotFound, got %v", err)
	}
}

func TestCompletionDayKeyIgnoresTimeOfDay(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	_, action := createTestGoalWithAction(t, RecurrenceDaily, 0, nil)
	svc := NewCompletionService(db.DB)

	evening := dayAt(t, "2024-05-04").Add(22 * time.Hour)
	if _, err := svc.SetCompletion(action.ID, evening, true); err != nil {
		t.Fatalf("SetCompletion returned error: %v", err)
	}

	completed, err := svc.IsCompleted(action.ID, dayAt(t, "2024-05-04"))
	if err != nil {
		t.Fatalf("IsCompleted returned error: %v", err)
	}
	if !completed {
		t.Fatal("expected evening write to resolve to the same day key")
	}
}

func TestListBetween(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	_, action := createTestGoalWithAction(t, RecurrenceDaily, 0, nil)
	svc := NewCompletionService(db.DB)

	for _, key := range []string{"2024-05-01", "2024-05-03", "2024-05-10"} {
		if _, err := svc.SetCompletion(action.ID, dayAt(t, key), true); err != nil {
			t.Fatalf("SetCompletion returned error: %v", err)
		}
	}

	records, err := svc.ListBetween(action.ID, dayAt(t, "2024-05-01"), dayAt(t, "2024-05-05"))
	if err != nil {
		t.Fatalf("ListBetween returned error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records in range, got %d", len(records))
	}
	if records[0].Day != "2024-05-01" || records[1].Day != "2024-05-03" {
		t.Fatalf("unexpected order: %s, %s", records[0].Day, records[1].Day)
	}
}
