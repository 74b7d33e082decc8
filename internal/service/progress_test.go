package service

import (
	"testing"
	"time"

	"github.com/simpleplan/internal/calendar"
	"github.com/simpleplan/internal/db"
)

func TestCalculateActionProgress(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	_, action := createTestGoalWithAction(t, RecurrenceDaily, 0, nil)
	backdateAction(t, action.ID, "2024-04-01")

	svc := NewCompletionService(db.DB)
	for _, key := range []string{"2024-04-01", "2024-04-02"} {
		if _, err := svc.SetCompletion(action.ID, dayAt(t, key), true); err != nil {
			t.Fatalf("SetCompletion returned error: %v", err)
		}
	}

	loaded := reloadAction(t, action.ID)
	days := calendar.RangeDays(dayAt(t, "2024-04-01"), dayAt(t, "2024-04-03"))

	progress := CalculateActionProgress(loaded, days)
	if progress.ApplicableCount != 3 {
		t.Fatalf("expected 3 applicable days, got %d", progress.ApplicableCount)
	}
	if progress.CompletedCount != 2 {
		t.Fatalf("expected 2 completed days, got %d", progress.CompletedCount)
	}
	if progress.Percentage != 67 {
		t.Fatalf("expected 67%%, got %d", progress.Percentage)
	}
}

func TestCalculateActionProgressNoApplicableDays(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	// weekly(周一)，观察区间内只有周末
	_, action := createTestGoalWithAction(t, RecurrenceWeekly, 1, nil)
	backdateAction(t, action.ID, "2024-01-01")

	loaded := reloadAction(t, action.ID)
	days := calendar.RangeDays(dayAt(t, "2024-01-13"), dayAt(t, "2024-01-14"))

	progress := CalculateActionProgress(loaded, days)
	if progress.ApplicableCount != 0 || progress.Percentage != 0 {
		t.Fatalf("expected zero progress, got %+v", progress)
	}
}

func TestGoalProgressTimeElapsed(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	goalSvc := NewGoalService(db.DB)
	goal, err := goalSvc.Create(GoalInput{Title: "读完一本书", TargetDate: "2024-01-11"})
	if err != nil {
		t.Fatalf("create goal: %v", err)
	}
	backdateGoal(t, goal.ID, "2024-01-01")

	loaded, err := goalSvc.Get(goal.ID)
	if err != nil {
		t.Fatalf("get goal: %v", err)
	}

	if got := GoalProgressTimeElapsed(*loaded, dayAt(t, "2024-01-06")); got != 50 {
		t.Fatalf("expected 50%% halfway through, got %d", got)
	}
	if got := GoalProgressTimeElapsed(*loaded, dayAt(t, "2024-03-01")); got != 100 {
		t.Fatalf("expected clamp to 100, got %d", got)
	}
	if got := GoalProgressTimeElapsed(*loaded, dayAt(t, "2023-12-01")); got != 0 {
		t.Fatalf("expected clamp to 0 before creation, got %d", got)
	}
}

func TestGoalProgressTimeElapsedDegenerate(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	goalSvc := NewGoalService(db.DB)

	// createdAt == targetDate 的退化区间直接 100
	goal, err := goalSvc.Create(GoalInput{Title: "当日冲刺", TargetDate: "2024-01-01"})
	if err != nil {
		t.Fatalf("create goal: %v", err)
	}
	backdateGoal(t, goal.ID, "2024-01-01")
	loaded, err := goalSvc.Get(goal.ID)
	if err != nil {
		t.Fatalf("get goal: %v", err)
	}
	if got := GoalProgressTimeElapsed(*loaded, dayAt(t, "2024-01-01")); got != 100 {
		t.Fatalf("expected 100 for degenerate duration, got %d", got)
	}

	// 无目标日为 0
	open, err := goalSvc.Create(GoalInput{Title: "开放目标"})
	if err != nil {
		t.Fatalf("create goal: %v", err)
	}
	if got := GoalProgressTimeElapsed(*open, time.Now()); got != 0 {
		t.Fatalf("expected 0 without target date, got %d", got)
	}
}

func TestGoalProgressCompletionRatio(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	goalSvc := NewGoalService(db.DB)
	actionSvc := NewActionService(db.DB)
	completionSvc := NewCompletionService(db.DB)

	goal, err := goalSvc.Create(GoalInput{Title: "全面提升"})
	if err != nil {
		t.Fatalf("create goal: %v", err)
	}

	// 四个动作，只有一个完成过 → 25%
	var first *db.Action
	for i, name := range []string{"阅读", "跑步", "冥想", "写作"} {
		action, err := actionSvc.Create(goal.ID, ActionInput{Name: name, Recurrence: Recurrence{Kind: RecurrenceDaily}})
		if err != nil {
			t.Fatalf("create action: %v", err)
		}
		if i == 0 {
			first = action
		}
	}

	if _, err := completionSvc.SetCompletion(first.ID, dayAt(t, "2024-05-01"), true); err != nil {
		t.Fatalf("SetCompletion returned error: %v", err)
	}
	// completed=false 的记录不算投入
	secondLoaded, err := goalSvc.Get(goal.ID)
	if err != nil {
		t.Fatalf("get goal: %v", err)
	}
	if _, err := completionSvc.SetCompletion(secondLoaded.Actions[1].ID, dayAt(t, "2024-05-01"), false); err != nil {
		t.Fatalf("SetCompletion returned error: %v", err)
	}

	loaded, err := goalSvc.Get(goal.ID)
	if err != nil {
		t.Fatalf("get goal: %v", err)
	}
	if got := GoalProgressCompletionRatio(*loaded); got != 25 {
		t.Fatalf("expected 25%%, got %d", got)
	}

	empty, err := goalSvc.Create(GoalInput{Title: "空目标"})
	if err != nil {
		t.Fatalf("create goal: %v", err)
	}
	if got := GoalProgressCompletionRatio(*empty); got != 0 {
		t.Fatalf("expected 0 for goal without actions, got %d", got)
	}
}

func TestGoalProgressPolicyDispatch(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	goalSvc := NewGoalService(db.DB)
	goal, err := goalSvc.Create(GoalInput{Title: "口径分发"})
	if err != nil {
		t.Fatalf("create goal: %v", err)
	}

	if _, err := GoalProgress(*goal, PolicyCompletionRatio, time.Now()); err != nil {
		t.Fatalf("GoalProgress returned error: %v", err)
	}
	if _, err := GoalProgress(*goal, "velocity", time.Now()); err == nil {
		t.Fatal("expected error for unknown policy")
	}
}

func TestCurrentStreakSkipsInapplicableDays(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	// weekly(周一)：连续三个周一完成，中间的非周一不断签 → 连胜 3
	_, action := createTestGoalWithAction(t, RecurrenceWeekly, 1, nil)
	backdateAction(t, action.ID, "2024-01-01")

	svc := NewCompletionService(db.DB)
	for _, monday := range []string{"2024-01-01", "2024-01-08", "2024-01-15"} {
		if _, err := svc.SetCompletion(action.ID, dayAt(t, monday), true); err != nil {
			t.Fatalf("SetCompletion returned error: %v", err)
		}
	}

	loaded := reloadAction(t, action.ID)
	if got := CurrentStreak(loaded, dayAt(t, "2024-01-17"), 0); got != 3 {
		t.Fatalf("expected streak 3, got %d", got)
	}
}

func TestCurrentStreakBreaksOnMissedApplicableDay(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	_, action := createTestGoalWithAction(t, RecurrenceDaily, 0, nil)
	backdateAction(t, action.ID, "2024-03-01")

	svc := NewCompletionService(db.DB)
	// 3 月 5 日缺打卡，6、7 日完成
	for _, key := range []string{"2024-03-06", "2024-03-07"} {
		if _, err := svc.SetCompletion(action.ID, dayAt(t, key), true); err != nil {
			t.Fatalf("SetCompletion returned error: %v", err)
		}
	}

	loaded := reloadAction(t, action.ID)
	if got := CurrentStreak(loaded, dayAt(t, "2024-03-07"), 0); got != 2 {
		t.Fatalf("expected streak 2, got %d", got)
	}

	// 最近一个适用日未完成 → 0
	if got := CurrentStreak(loaded, dayAt(t, "2024-03-05"), 0); got != 0 {
		t.Fatalf("expected streak 0, got %d", got)
	}
}

func TestCurrentStreakLookbackBound(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	_, action := createTestGoalWithAction(t, RecurrenceDaily, 0, nil)
	backdateAction(t, action.ID, "2024-03-01")

	svc := NewCompletionService(db.DB)
	for _, key := range []string{"2024-03-01", "2024-03-02", "2024-03-03", "2024-03-04"} {
		if _, err := svc.SetCompletion(action.ID, dayAt(t, key), true); err != nil {
			t.Fatalf("SetCompletion returned error: %v", err)
		}
	}

	loaded := reloadAction(t, action.ID)
	if got := CurrentStreak(loaded, dayAt(t, "2024-03-04"), 2); got != 2 {
		t.Fatalf("expected lookback-bounded streak 2, got %d", got)
	}
}

func TestLongestStreak(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	_, action := createTestGoalWithAction(t, RecurrenceDaily, 0, nil)
	backdateAction(t, action.ID, "2024-03-01")

	svc := NewCompletionService(db.DB)
	// 两段连胜：2 天和 3 天
	for _, key := range []string{"2024-03-01", "2024-03-02", "2024-03-05", "2024-03-06", "2024-03-07"} {
		if _, err := svc.SetCompletion(action.ID, dayAt(t, key), true); err != nil {
			t.Fatalf("SetCompletion returned error: %v", err)
		}
	}

	loaded := reloadAction(t, action.ID)
	if got := LongestStreak(loaded, dayAt(t, "2024-03-01"), dayAt(t, "2024-03-08")); got != 3 {
		t.Fatalf("expected longest streak 3, got %d", got)
	}
}

func TestDailyCompletionIntensity(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	_, action := createTestGoalWithAction(t, RecurrenceDaily, 0, nil)
	backdateAction(t, action.ID, "2024-03-01")

	svc := NewCompletionService(db.DB)
	if _, err := svc.SetCompletion(action.ID, dayAt(t, "2024-03-01"), true); err != nil {
		t.Fatalf("SetCompletion returned error: %v", err)
	}

	loaded := reloadAction(t, action.ID)
	entries := DailyCompletionIntensity([]db.Action{loaded}, dayAt(t, "2024-03-01"), dayAt(t, "2024-03-02"))
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Intensity != 4 {
		t.Fatalf("expected full intensity on completed day, got %d", entries[0].Intensity)
	}
	if entries[1].Intensity != 0 {
		t.Fatalf("expected zero intensity on missed day, got %d", entries[1].Intensity)
	}
}

func TestRoundPercentHalfUp(t *testing.T) {
	if got := roundPercent(1, 8); got != 13 {
		t.Fatalf("expected 12.5 to round up to 13, got %d", got)
	}
	if got := roundPercent(1, 3); got != 33 {
		t.Fatalf("expected 33, got %d", got)
	}
	if got := roundPercent(0, 0); got != 0 {
		t.Fatalf("expected 0 for empty denominator, got %d", got)
	}
}
