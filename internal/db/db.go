package db

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// DB 是一个全局的数据库连接实例
var DB *gorm.DB

// Init 初始化数据库连接并执行自动迁移。
// databasePath 为空时将回退到默认值 simpleplan.db。
func Init(databasePath string) error {
	path := strings.TrimSpace(databasePath)
	if path == "" {
		path = "simpleplan.db"
	}

	if err := ensureParentDir(path); err != nil {
		return err
	}

	var err error
	DB, err = gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return err
	}

	migrator := DB.Migrator()

	// 旧版本把动作存放在 habits 表，迁移前先改名，AutoMigrate 随后补齐新列
	if migrator.HasTable("habits") && !migrator.HasTable("actions") {
		if renameErr := migrator.RenameTable("habits", "actions"); renameErr != nil {
			return renameErr
		}
	}

	// 自动迁移模式，为核心模型创建表
	if err = DB.AutoMigrate(
		&Goal{},
		&Action{},
		&Completion{},
		&Todo{},
	); err != nil {
		return err
	}

	// 旧版本的周期规则是裸字符串列 recurrence，回填到结构化列后丢弃。
	// 新列带默认值，旧行可能已被填成 daily，以旧列为准整体覆盖。
	if migrator.HasColumn(&Action{}, "recurrence") {
		if err := DB.Model(&Action{}).
			Where("recurrence IN ?", []string{"daily", "weekdays", "weekly", "custom"}).
			Update("recurrence_kind", gorm.Expr("recurrence")).Error; err != nil {
			return err
		}
		// 裸 weekly 没有星期信息，历史数据统一落在周一
		if err := DB.Model(&Action{}).
			Where("recurrence = ? AND weekly_day = 0", "weekly").
			Update("weekly_day", 1).Error; err != nil {
			return err
		}
		if dropErr := migrator.DropColumn(&Action{}, "recurrence"); dropErr != nil {
			return dropErr
		}
	}

	// 兜底：早于规则列的数据一律视为每日
	if err := DB.Model(&Action{}).
		Where("recurrence_kind = '' OR recurrence_kind IS NULL").
		Update("recurrence_kind", "daily").Error; err != nil {
		return err
	}

	return nil
}

func ensureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}

	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return errors.New("database path parent is not a directory")
		}
		return nil
	}

	if os.IsNotExist(err) {
		return os.MkdirAll(dir, 0o755)
	}

	return err
}
