package deps

import (
	"time"

	"github.com/MrSnakeDoc/harbor/internal/console"
	"github.com/MrSnakeDoc/harbor/internal/frontend"
	"github.com/MrSnakeDoc/harbor/internal/inventory"
	"github.com/MrSnakeDoc/harbor/internal/logger"
	redisstore "github.com/MrSnakeDoc/harbor/internal/store/redis"
	"github.com/MrSnakeDoc/harbor/internal/tasks"
)

// Deps carries what handlers and route middlewares need.
type Deps struct {
	Logger    logger.Logger
	StartTime time.Time
	Version   string
	Commit    string
	BuildDate string
	GoVersion string

	AllowedHosts   []string // Host headers allowed on /api routes
	AllowedCIDRS   []string // client IPs allowed on /api and probe routes
	TrustProxy     bool     // resolve client IP from proxy headers
	RateLimitRPS   float64  // per client IP
	RateLimitBurst int

	Store     *redisstore.Store      // shared KV store
	Registry  *inventory.Registry    // current inventory snapshot
	Tasks     *tasks.Publisher       // host task queue
	Frontends *frontend.Synchronizer // nil when frontend publishing is disabled
	Console   *console.Issuer        // console attach sessions

	ReloadTrigger chan struct{} // manual inventory reload + frontend resync
}
