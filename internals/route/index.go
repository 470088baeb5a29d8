// file: internals/route/index.go
package routes

import (
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"competency_backend/internals/configs"
	"competency_backend/internals/constants"
	competencyRoute "competency_backend/internals/features/competency/competencies/route"
	reportRoute "competency_backend/internals/features/competency/reports/route"
	summaryRoute "competency_backend/internals/features/competency/summaries/route"
	runRoute "competency_backend/internals/features/diagnosis/runs/route"
	submissionRoute "competency_backend/internals/features/diagnosis/submissions/route"
	"competency_backend/internals/middlewares"
	authMiddleware "competency_backend/internals/middlewares/auth"
)

var startTime time.Time

func SetupRoutes(app *fiber.App, db *gorm.DB) {
	startTime = time.Now()
	v := validator.New()

	BaseRoutes(app, db)

	// ===================== GROUPS =====================

	log.Println("[INFO] Setting up PUBLIC group...")
	public := app.Group("/api/public")

	jwt := authMiddleware.AuthJWT(authMiddleware.AuthJWTOpts{
		Secret:              configs.JWTSecret,
		AllowCookieFallback: true,
		ClockSkew:           30 * time.Second,
	})

	log.Println("[INFO] Setting up PRIVATE (student) group...")
	user := app.Group("/api/u", jwt, authMiddleware.RequireStudent())

	log.Println("[INFO] Setting up ADMIN group (Auth + RoleCheck)...")
	admin := app.Group("/api/a", jwt, authMiddleware.OnlyRoles(constants.RoleErrorAdmin("diagnosis"), constants.AdminOnly...))

	// ===================== MOUNT ROUTES =====================

	log.Println("[INFO] Mounting Competency routes...")
	competencyRoute.CompetencyPublicRoutes(public, db)
	summaryRoute.SummaryAdminRoutes(admin, db)
	reportRoute.ReportAdminRoutes(admin, db, v)
	reportRoute.ReportUserRoutes(user, db, v)

	log.Println("[INFO] Mounting Diagnosis routes...")
	runRoute.DiagnosisRunAdminRoutes(admin, db, v)
	submissionRoute.DiagnosisSubmissionUserRoutes(user, db, v)
}

// NewApp membangun fiber.App lengkap (dipakai serve dan test handler).
func NewApp(db *gorm.DB) *fiber.App {
	app := fiber.New(AppConfig())
	middlewares.SetupMiddlewares(app)
	app.Use(middlewares.DBMiddleware(db))
	SetupRoutes(app, db)
	return app
}
