package service

import (
	"testing"
	"time"

	"github.com/simpleplan/internal/calendar"
	"github.com/simpleplan/internal/db"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) func() {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := gdb.AutoMigrate(&db.Goal{}, &db.Action{}, &db.Completion{}, &db.Todo{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	db.DB = gdb

	return func() {
		sqlDB, err := db.DB.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
}

// backdateAction 将动作创建时间拨回指定日期键，便于构造历史场景
func backdateAction(t *testing.T, actionID uint, dayKey string) {
	t.Helper()
	day, err := calendar.ParseDayKey(dayKey)
	if err != nil {
		t.Fatalf("parse day %s: %v", dayKey, err)
	}
	if err := db.DB.Model(&db.Action{}).Where("id = ?", actionID).
		Update("created_at", day).Error; err != nil {
		t.Fatalf("backdate action: %v", err)
	}
}

func backdateGoal(t *testing.T, goalID uint, dayKey string) {
	t.Helper()
	day, err := calendar.ParseDayKey(dayKey)
	if err != nil {
		t.Fatalf("parse day %s: %v", dayKey, err)
	}
	if err := db.DB.Model(&db.Goal{}).Where("id = ?", goalID).
		Update("created_at", day).Error; err != nil {
		t.Fatalf("backdate goal: %v", err)
	}
}

func reloadAction(t *testing.T, actionID uint) db.Action {
	t.Helper()
	var action db.Action
	if err := db.DB.Preload("Completions").First(&action, actionID).Error; err != nil {
		t.Fatalf("reload action: %v", err)
	}
	return action
}

func dayAt(t *testing.T, key string) time.Time {
	t.Helper()
	day, err := calendar.ParseDayKey(key)
	if err != nil {
		t.Fatalf("parse day %s: %v", key, err)
	}
	return day
}
