package handlers

import (
	"time"

	"baytna-backend/internal/config"
	"baytna-backend/internal/middleware"
	"baytna-backend/internal/models"
	"baytna-backend/internal/realtime"
	"baytna-backend/internal/services"
	"baytna-backend/internal/session"
	"baytna-backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Handler holds the dependencies every endpoint needs. Nothing here is a
// package-level global; main builds one Handler and the router hangs its
// methods on routes.
type Handler struct {
	db       *gorm.DB
	cfg      *config.Config
	sessions *session.Store
	redis    *redis.Client
	hub      *realtime.Hub

	notifier     *services.Dispatcher
	availability *services.AvailabilityChecker
	orders       *services.OrderService
	trips        *services.TripService

	startTime time.Time
}

type Deps struct {
	DB       *gorm.DB
	Config   *config.Config
	Sessions *session.Store
	Redis    *redis.Client // optional, only used by the readiness probe
	Hub      *realtime.Hub
	Notifier *services.Dispatcher
}

func New(d Deps) *Handler {
	avail := services.NewAvailabilityChecker(d.DB)
	pub := d.Notifier.Publisher()
	return &Handler{
		db:           d.DB,
		cfg:          d.Config,
		sessions:     d.Sessions,
		redis:        d.Redis,
		hub:          d.Hub,
		notifier:     d.Notifier,
		availability: avail,
		orders:       services.NewOrderService(d.DB, d.Notifier, pub),
		trips:        services.NewTripService(d.DB, avail, d.Notifier, pub),
		startTime:    time.Now(),
	}
}

// bind decodes the JSON body into obj and answers 400 on failure.
func bind(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		utils.RespondError(c, utils.BindError(err))
		return false
	}
	return true
}

// pathID parses the named path parameter and answers 400 on failure.
func pathID(c *gin.Context, name string) (uint64, bool) {
	id, err := utils.ParseID(c.Param(name))
	if err != nil {
		utils.RespondError(c, err)
		return 0, false
	}
	return id, true
}

// orm scopes the pool to the request so a cancelled request stops its queries.
func (h *Handler) orm(c *gin.Context) *gorm.DB {
	return h.db.WithContext(c.Request.Context())
}

func currentUser(c *gin.Context) *models.User {
	return middleware.CurrentUser(c)
}
