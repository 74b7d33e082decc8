package handler

import (
	"github.com/simpleplan/internal/service"
	"gorm.io/gorm"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db          *gorm.DB
	goals       *service.GoalService
	actions     *service.ActionService
	completions *service.CompletionService
	todos       *service.TodoService
	planner     *service.PlannerService
	importer    *service.ImportService
}

// NewAPI constructs a handler set with shared services.
func NewAPI(db *gorm.DB) *API {
	return &API{
		db:          db,
		goals:       service.NewGoalService(db),
		actions:     service.NewActionService(db),
		completions: service.NewCompletionService(db),
		todos:       service.NewTodoService(db),
		planner:     service.NewPlannerService(db),
		importer:    service.NewImportService(db),
	}
}
