package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/simpleplan/internal/db"
	"gorm.io/gorm"
)

var (
	// ErrTodoNotFound 在指定待办不存在时返回
	ErrTodoNotFound = errors.New("todo not found")
	// ErrTodoTextRequired 当待办内容为空时返回
	ErrTodoTextRequired = errors.New("todo text is required")
)

// TodoService 负责临时待办的增删改查
// 待办是全局单列表，不按日期划分，顺序由 Position 保持
type TodoService struct {
	db *gorm.DB
}

// NewTodoService 构造 TodoService
func NewTodoService(gdb *gorm.DB) *TodoService {
	return &TodoService{db: gdb}
}

// List 按创建顺序返回全部待办
func (s *TodoService) List() ([]db.Todo, error) {
	var todos []db.Todo
	if err := s.db.Order("position ASC, id ASC").Find(&todos).Error; err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	return todos, nil
}

// GetByClientID 根据对外 uuid 查找待办
func (s *TodoService) GetByClientID(clientID string) (*db.Todo, error) {
	var todo db.Todo
	if err := s.db.Where("client_id = ?", clientID).First(&todo).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTodoNotFound
		}
		return nil, fmt.Errorf("get todo: %w", err)
	}
	return &todo, nil
}

// Create 新建待办，追加到列表末尾
func (s *TodoService) Create(text string) (*db.Todo, error) {
	text = SanitizeText(text)
	if text == "" {
		return nil, ErrTodoTextRequired
	}

	var maxPosition int
	if err := s.db.Model(&db.Todo{}).
		Select("COALESCE(MAX(position), 0)").
		Scan(&maxPosition).Error; err != nil {
		return nil, fmt.Errorf("next todo position: %w", err)
	}

	todo := db.Todo{
		ClientID: uuid.NewString(),
		Text:     text,
		Position: maxPosition + 1,
	}

	if err := s.db.Create(&todo).Error; err != nil {
		return nil, fmt.Errorf("create todo: %w", err)
	}
	return &todo, nil
}

// Update 更新待办的文本与完成状态
func (s *TodoService) Update(clientID string, text string, completed bool) (*db.Todo, error) {
	todo, err := s.GetByClientID(clientID)
	if err != nil {
		return nil, err
	}

	text = SanitizeText(text)
	if text == "" {
		return nil, ErrTodoTextRequired
	}

	todo.Text = text
	todo.Completed = completed

	if err := s.db.Save(todo).Error; err != nil {
		return nil, fmt.Errorf("update todo: %w", err)
	}
	return todo, nil
}

// Toggle 翻转待办的完成状态
func (s *TodoService) Toggle(clientID string) (*db.Todo, error) {
	todo, err := s.GetByClientID(clientID)
	if err != nil {
		return nil, err
	}

	todo.Completed = !todo.Completed
	if err := s.db.Save(todo).Error; err != nil {
		return nil, fmt.Errorf("toggle todo: %w", err)
	}
	return todo, nil
}

// Delete 删除待办
func (s *TodoService) Delete(clientID string) error {
	todo, err := s.GetByClientID(clientID)
	if err != nil {
		return err
	}

	if err := s.db.Delete(todo).Error; err != nil {
		return fmt.Errorf("delete todo: %w", err)
	}
	return nil
}

// Reorder 按给定的 uuid 顺序重排待办，未提及的保持原位追加在后
func (s *TodoService) Reorder(clientIDs []string) error {
	if len(clientIDs) == 0 {
		return nil
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		for i, clientID := range clientIDs {
			id := strings.TrimSpace(clientID)
			if id == "" {
				continue
			}
			if err := tx.Model(&db.Todo{}).
				Where("client_id = ?", id).
				Update("position", i+1).Error; err != nil {
				return fmt.Errorf("reorder todo %s: %w", id, err)
			}
		}
		return nil
	})
}
