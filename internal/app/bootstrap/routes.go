// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	chatfeature "github.com/teamforge/teamforge/internal/app/features/chat"
	healthfeature "github.com/teamforge/teamforge/internal/app/features/health"
	notificationsfeature "github.com/teamforge/teamforge/internal/app/features/notifications"
	projectsfeature "github.com/teamforge/teamforge/internal/app/features/projects"
	realtimefeature "github.com/teamforge/teamforge/internal/app/features/realtime"
	tasksfeature "github.com/teamforge/teamforge/internal/app/features/tasks"
	usersfeature "github.com/teamforge/teamforge/internal/app/features/users"
	"github.com/teamforge/teamforge/internal/app/system/auth"
	"github.com/teamforge/teamforge/internal/app/system/notify"
	"github.com/teamforge/teamforge/internal/app/system/realtime"

	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler for the app.
//
// WAFFLE calls this after configuration, the DB connection, and schema setup
// have completed. It builds the session manager, the realtime hub, and the
// feature routers, and mounts everything on a chi router.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewManager(appCfg.AuthSecret, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// The realtime hub is process-wide: one presence table, one room map.
	hub := realtime.NewHub(
		realtime.NewMongoEventStore(deps.MongoDatabase),
		realtime.NewMemoryPresence(),
		logger,
	)
	notifier := notify.New(deps.MongoDatabase, hub, logger)

	r := chi.NewRouter()

	// Global auth middleware: loads the JWT user into context if present.
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Accounts and sessions
	usersHandler := usersfeature.NewHandler(deps.MongoDatabase, sessionMgr, logger)
	r.Mount("/api/users", usersfeature.Routes(usersHandler))

	// Projects and the join-request workflow
	projectsHandler := projectsfeature.NewHandler(deps.MongoDatabase, notifier, logger)
	r.Mount("/api/projects", projectsfeature.Routes(projectsHandler))

	// Per-project task board and chat history
	tasksHandler := tasksfeature.NewHandler(deps.MongoDatabase, logger)
	r.Mount("/api/projects/{id}/tasks", tasksfeature.Routes(tasksHandler))

	chatHandler := chatfeature.NewHandler(deps.MongoDatabase, logger)
	r.Mount("/api/projects/{id}/chat", chatfeature.Routes(chatHandler))

	// Notification inbox
	notificationsHandler := notificationsfeature.NewHandler(deps.MongoDatabase, logger)
	r.Mount("/api/notifications", notificationsfeature.Routes(notificationsHandler))

	// Realtime collaboration event layer
	realtimeHandler := realtimefeature.NewHandler(hub, appCfg.RealtimeAllowAnonymous, logger)
	r.Mount("/ws", realtimefeature.Routes(realtimeHandler))

	return r, nil
}
