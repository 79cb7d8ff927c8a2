package routes

import (
	"github.com/gin-gonic/gin"

	appauth "github.com/athome/driveops/internal/app/auth"
	"github.com/athome/driveops/internal/app/controllers"
	"github.com/athome/driveops/internal/middleware"
	"github.com/athome/driveops/internal/pkg/websocket"
)

// Controllers groups the handlers mounted by SetupRouter
type Controllers struct {
	Profile  *controllers.ProfileController
	Message  *controllers.MessageController
	Clock    *controllers.ClockController
	Location *controllers.LocationController
	Schedule *controllers.ScheduleController
	Assign   *controllers.AssignmentController
	Route    *controllers.DrivingRouteController
	Material *controllers.MaterialController
	Realtime *websocket.Handler
}

// SetupRouter configures all application routes
func SetupRouter(router *gin.Engine, c Controllers, authMiddleware *middleware.AuthMiddleware) {
	// API version group
	v1 := router.Group("/api/v1")

	// --- Authenticated Routes Group ---
	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.JWTAuth())

	// The caller's own profile and approval state stay reachable while the
	// account is pending so the client can route to the right page
	me := authenticated.Group("/profiles/me")
	{
		me.GET("", c.Profile.GetMyProfile)
		me.PATCH("", c.Profile.UpdateMyProfile)
		me.GET("/approval", c.Profile.GetApproval)
	}

	// Everything else requires an approved account
	approved := authenticated.Group("")
	approved.Use(authMiddleware.ApprovalRequired())
	{
		profiles := approved.Group("/profiles")
		{
			profiles.GET("", c.Profile.ListProfiles)
			profiles.GET("/:id", c.Profile.GetProfile)

			managers := profiles.Group("")
			managers.Use(authMiddleware.RoleRequired(appauth.ManagerRoles...))
			{
				managers.POST("/:id/approve", c.Profile.Approve)
				managers.POST("/:id/suspend", c.Profile.Suspend)
				managers.POST("/:id/decline", c.Profile.Decline)
			}
		}

		approved.GET("/zones/:zone/profiles", c.Profile.UsersByZone)

		messages := approved.Group("/messages")
		{
			messages.POST("/direct", c.Message.SendDirect)
			messages.POST("/role", c.Message.SendRole)
			messages.POST("/zone", c.Message.SendZone)
			messages.POST("/all", c.Message.SendAll)
			messages.POST("/read", c.Message.MarkReadBatch)
			messages.POST("/:id/read", c.Message.MarkRead)

			// Browsers cannot set headers on a WebSocket handshake; JWTAuth also
			// accepts the token as the access_token query parameter
			messages.GET("/ws", c.Realtime.HandleConnection)
		}

		threads := approved.Group("/threads")
		{
			threads.GET("/user/:userId", c.Message.UserThread)
			threads.GET("/role/:role/:zone", c.Message.RoleThread)
			threads.GET("/zone/:zone", c.Message.ZoneThread)
			threads.GET("/all", c.Message.AllThread)
		}

		clock := approved.Group("/clock")
		{
			clock.GET("/events", c.Clock.ListEvents)
			clock.POST("/:type", c.Clock.Record)
		}

		locations := approved.Group("/locations")
		{
			locations.GET("", c.Location.ListLocations)
			locations.PUT("/me", c.Location.UpdateMyLocation)
			locations.GET("/:userId", c.Location.GetUserLocation)
		}

		schedules := approved.Group("/schedules")
		{
			schedules.GET("", c.Schedule.ListSchedules)
			schedules.POST("", c.Schedule.CreateSchedule)
			schedules.GET("/:id", c.Schedule.GetSchedule)
			schedules.DELETE("/:id", c.Schedule.DeleteSchedule)
			schedules.POST("/:id/book", c.Schedule.Book)
			schedules.POST("/:id/cancel-request", c.Schedule.RequestCancel)
			schedules.POST("/:id/cancel-approve", c.Schedule.ApproveCancel)
			schedules.POST("/:id/cancel-decline", c.Schedule.DeclineCancel)
			schedules.POST("/:id/reopen", c.Schedule.Reopen)
			schedules.PUT("/:id/route", c.Schedule.AttachRoute)
		}

		assignments := approved.Group("/assignments")
		{
			assignments.GET("", c.Assign.ListAssignments)
			assignments.PUT("/clients", c.Assign.AssignClient)
			assignments.DELETE("/clients/:clientId", c.Assign.UnassignClient)

			managers := assignments.Group("/instructors")
			managers.Use(authMiddleware.RoleRequired(appauth.ManagerRoles...))
			{
				managers.PUT("", c.Assign.AssignInstructor)
				managers.DELETE("/:instructorId", c.Assign.UnassignInstructor)
			}
		}

		drivingRoutes := approved.Group("/driving-routes")
		{
			drivingRoutes.GET("", c.Route.ListRoutes)
			drivingRoutes.PUT("", c.Route.SaveRoute)
			drivingRoutes.GET("/:id", c.Route.GetRoute)
			drivingRoutes.DELETE("/:id", c.Route.DeleteRoute)
		}

		materials := approved.Group("/materials")
		{
			materials.GET("", c.Material.ListMaterials)
			materials.GET("/pending", c.Material.ListPending)
			materials.POST("", c.Material.CreateMaterial)
			materials.PATCH("/:id", c.Material.UpdateMaterial)
			materials.POST("/:id/review", c.Material.ReviewMaterial)
			materials.DELETE("/:id", c.Material.DeleteMaterial)
		}
	}
}
