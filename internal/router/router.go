package router

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/simpleplan/internal/db"
	"github.com/simpleplan/internal/handler"
)

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(sessionSecret string) *gin.Engine {
	r := gin.Default()

	// 配置会话中间件，选中日期记在会话里
	store := cookie.NewStore([]byte(sessionSecret))
	r.Use(sessions.Sessions("simpleplan_session", store))
	r.Use(handler.MetricsMiddleware())

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	a := handler.NewAPI(db.DB)

	api := r.Group("/api")
	{
		api.GET("/goals", a.ListGoals)
		api.POST("/goals", a.CreateGoal)
		api.GET("/goals/:id", a.GetGoal)
		api.PUT("/goals/:id", a.UpdateGoal)
		api.DELETE("/goals/:id", a.DeleteGoal)
		api.PUT("/goals/:id/complete", a.CompleteGoal)
		api.GET("/goals/:id/progress", a.GoalProgress)
		api.POST("/goals/:id/actions", a.CreateAction)

		api.PUT("/actions/:id", a.UpdateAction)
		api.DELETE("/actions/:id", a.DeleteAction)
		api.PUT("/actions/:id/completions", a.SetCompletion)
		api.GET("/actions/:id/completions", a.ListCompletions)
		api.GET("/actions/:id/streak", a.ActionStreak)
		api.GET("/actions/:id/progress", a.ActionProgress)

		api.GET("/todos", a.ListTodos)
		api.POST("/todos", a.CreateTodo)
		api.PUT("/todos/:id", a.UpdateTodo)
		api.PUT("/todos/:id/toggle", a.ToggleTodo)
		api.DELETE("/todos/:id", a.DeleteTodo)
		api.PUT("/todos/reorder", a.ReorderTodos)

		api.GET("/plan/selected", a.GetSelectedDay)
		api.PUT("/plan/selected", a.SelectDay)
		api.GET("/plan/:date", a.GetPlan)
		api.PUT("/plan/:date", a.ReconcilePlan)

		api.POST("/import", a.ImportSnapshot)
	}

	return r
}
