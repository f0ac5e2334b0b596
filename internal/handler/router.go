package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/detective-api/internal/domain/entity"
	"github.com/yourusername/detective-api/internal/middleware"
)

// Handlers - набор обработчиков, подключаемых к /api
type Handlers struct {
	Auth    *AuthHandler
	User    *UserHandler
	Case    *CaseHandler
	Ranking *RankingHandler
	WS      *WSHandler
}

// RegisterRoutes подключает маршруты API к router.
// loginLimit может быть nil, тогда вход не ограничивается.
func RegisterRoutes(router *gin.Engine, h Handlers, authMiddleware *middleware.AuthMiddleware, loginLimit gin.HandlerFunc) {
	router.GET("/health", func(c *gin.Context) {
		resp := gin.H{"status": "ok"}
		if h.WS != nil {
			resp["websocket"] = h.WS.Metrics()
		}
		c.JSON(http.StatusOK, resp)
	})

	api := router.Group("/api")

	login := []gin.HandlerFunc{h.Auth.Login}
	if loginLimit != nil {
		login = append([]gin.HandlerFunc{loginLimit}, login...)
	}
	api.POST("/login", login...)

	// Рейтинги публичные
	ranking := api.Group("/ranking")
	{
		ranking.GET("", h.Ranking.GetAll)
		ranking.GET("/:role", h.Ranking.GetByRole)
		ranking.GET("/:role/export", h.Ranking.Export)
	}

	if h.WS != nil {
		router.GET("/ws", h.WS.HandleConnection)
	}

	authed := api.Group("")
	authed.Use(authMiddleware.RequireAuth())

	client := authMiddleware.RequireRole(entity.RoleClient)
	culprit := authMiddleware.RequireRole(entity.RoleCulprit)
	police := authMiddleware.RequireRole(entity.RolePolice)
	detective := authMiddleware.RequireRole(entity.RoleDetective)
	activeParam := middleware.ExtractUintParam("activeId", paramActiveID)

	users := authed.Group("/users")
	{
		users.GET("/me", h.User.GetMe)
		users.GET("/detectives", police, h.User.ListDetectives)
		users.GET("/:id/score-logs", middleware.ExtractUintParam("id", paramUserID), h.User.GetScoreLogs)
	}

	authed.POST("/case/start", client, h.Case.StartCase)

	cases := authed.Group("/cases")
	{
		cases.GET("/available", h.Case.GetAvailableTemplates)
		cases.GET("/client/:userId", client, middleware.ExtractUintParam("userId", paramUserID), h.Case.GetClientCases)

		cases.GET("/culprit/available", culprit, h.Case.GetCulpritAvailable)
		cases.GET("/culprit/:userId", culprit, middleware.ExtractUintParam("userId", paramUserID), h.Case.GetCulpritCases)
		cases.GET("/culprit/fabricate/details/:activeId", culprit, activeParam, h.Case.GetFabricationDetails)
		cases.POST("/culprit/join", culprit, h.Case.JoinAsCulprit)
		cases.POST("/fabricate", culprit, h.Case.Fabricate)

		cases.GET("/police/pending", police, h.Case.GetPolicePending)
		cases.GET("/police/my/:policeId", police, middleware.ExtractUintParam("policeId", paramUserID), h.Case.GetPoliceCases)
		cases.POST("/police/accept", police, h.Case.AcceptCase)
		cases.POST("/assign", police, h.Case.AssignDetective)

		cases.GET("/detective/:userId", detective, middleware.ExtractUintParam("userId", paramUserID), h.Case.GetDetectiveAssigned)
		cases.GET("/detective/result/:userId", detective, middleware.ExtractUintParam("userId", paramUserID), h.Case.GetDetectiveCompleted)
		cases.POST("/detective/guess/:activeId", detective, activeParam, h.Case.SubmitGuess)

		cases.GET("/:activeId/details", activeParam, h.Case.GetInvestigationDetails)
		cases.PATCH("/:activeId/submit-guess", detective, activeParam, h.Case.SubmitGuess)
		cases.GET("/result/:activeId", activeParam, h.Case.GetResult)
	}
}
