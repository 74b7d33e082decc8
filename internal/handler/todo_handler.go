package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/simpleplan/internal/db"
	"github.com/simpleplan/internal/service"
)

type todoPayload struct {
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

type reorderPayload struct {
	Order []string `json:"order" binding:"required"`
}

func todoToJSON(todo db.Todo) gin.H {
	return gin.H{
		"id":        todo.ClientID,
		"text":      todo.Text,
		"completed": todo.Completed,
		"position":  todo.Position,
	}
}

// ListTodos 按创建顺序返回全部待办
func (a *API) ListTodos(c *gin.Context) {
	todos, err := a.todos.List()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to list todos")
		return
	}

	items := make([]gin.H, 0, len(todos))
	for _, todo := range todos {
		items = append(items, todoToJSON(todo))
	}

	c.JSON(http.StatusOK, gin.H{"todos": items})
}

// CreateTodo 新建待办
func (a *API) CreateTodo(c *gin.Context) {
	var payload todoPayload
	if !bindJSON(c, &payload, "invalid todo payload") {
		return
	}

	todo, err := a.todos.Create(payload.Text)
	if err != nil {
		if errors.Is(err, service.ErrTodoTextRequired) {
			respondError(c, http.StatusBadRequest, "todo text is required")
			return
		}
		respondError(c, http.StatusInternalServerError, "failed to create todo")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"todo": todoToJSON(*todo)})
}

// UpdateTodo 更新待办文本与完成状态
func (a *API) UpdateTodo(c *gin.Context) {
	var payload todoPayload
	if !bindJSON(c, &payload, "invalid todo payload") {
		return
	}

	todo, err := a.todos.Update(c.Param("id"), payload.Text, payload.Completed)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTodoNotFound):
			respondError(c, http.StatusNotFound, "todo not found")
		case errors.Is(err, service.ErrTodoTextRequired):
			respondError(c, http.StatusBadRequest, "todo text is required")
		default:
			respondError(c, http.StatusInternalServerError, "failed to update todo")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"todo": todoToJSON(*todo)})
}

// ToggleTodo 翻转待办完成状态
func (a *API) ToggleTodo(c *gin.Context) {
	todo, err := a.todos.Toggle(c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrTodoNotFound) {
			respondError(c, http.StatusNotFound, "todo not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "failed to toggle todo")
		return
	}

	c.JSON(http.StatusOK, gin.H{"todo": todoToJSON(*todo)})
}

// DeleteTodo 删除待办
func (a *API) DeleteTodo(c *gin.Context) {
	id := c.Param("id")
	if err := a.todos.Delete(id); err != nil {
		if errors.Is(err, service.ErrTodoNotFound) {
			respondError(c, http.StatusNotFound, "todo not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "failed to delete todo")
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

// ReorderTodos 按传入的 id 顺序重排待办
func (a *API) ReorderTodos(c *gin.Context) {
	var payload reorderPayload
	if !bindJSON(c, &payload, "invalid reorder payload") {
		return
	}

	if err := a.todos.Reorder(payload.Order); err != nil {
		respondError(c, http.StatusInternalServerError, "failed to reorder todos")
		return
	}

	a.ListTodos(c)
}
