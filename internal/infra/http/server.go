package http

import (
	"log"
	"time"

	"gatehouse/internal/config"
	"gatehouse/internal/domain"
	"gatehouse/internal/infra/auth/session"
	"gatehouse/internal/infra/cache"
	"gatehouse/internal/infra/db"
	"gatehouse/internal/infra/ratelimit"
	"gatehouse/internal/usecase"

	"github.com/gin-gonic/gin"
)

type Server struct {
	cfg    config.Config
	r      *gin.Engine
	logger *log.Logger

	tenants     usecase.TenantRepository
	resolver    *usecase.TenantContextResolver
	domains     *usecase.DomainOwnershipResolver
	permissions *usecase.PermissionService
	domainCache usecase.DomainCache

	adminAPIKey string

	authenticator domain.Authenticator
	authInitErr   error

	rateLimiter          domain.RateLimiter
	rateLimitRequests    int
	rateLimitWindow      time.Duration
	rateLimitWithSubject bool
	rateLimitFailClosed  bool
}

func NewServer(cfg config.Config, store *db.Store) *Server {
	r := gin.New()
	r.Use(gin.Recovery())

	s := &Server{cfg: cfg, r: r, logger: log.Default()}
	s.initDeps(store)
	s.routes()
	return s
}

// ServerDeps lets tests and alternate wiring inject every collaborator
// explicitly instead of building them from config.
type ServerDeps struct {
	Tenants       usecase.TenantRepository
	Roles         usecase.RoleRepository
	Provisioner   usecase.Provisioner
	DomainCache   usecase.DomainCache
	Authenticator domain.Authenticator
	RateLimiter   domain.RateLimiter
	AdminAPIKey   string
	Logger        *log.Logger
}

func NewServerWithDeps(cfg config.Config, deps ServerDeps) *Server {
	r := gin.New()
	r.Use(gin.Recovery())

	logger := deps.Logger
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		cfg:           cfg,
		r:             r,
		logger:        logger,
		tenants:       deps.Tenants,
		domainCache:   deps.DomainCache,
		adminAPIKey:   deps.AdminAPIKey,
		authenticator: deps.Authenticator,
	}
	provisioner := deps.Provisioner
	if provisioner == nil && deps.Tenants != nil && deps.Roles != nil {
		provisioner = usecase.NewTenantProvisioner(deps.Tenants, deps.Roles, cfg.DefaultAppID, deps.Logger)
	}
	s.resolver = usecase.NewTenantContextResolver(deps.Tenants, provisioner, cfg.DefaultAppID, deps.Logger)
	s.domains = usecase.NewDomainOwnershipResolver(deps.Tenants, deps.DomainCache, cfg.SharedDomains)
	if deps.Roles != nil {
		s.permissions = usecase.NewPermissionService(deps.Roles)
	}
	s.initAuth()
	s.initRateLimit(deps.RateLimiter)
	s.routes()
	return s
}

func (s *Server) initDeps(store *db.Store) {
	s.adminAPIKey = s.cfg.AdminAPIKey

	var gormDB = store.DB
	tenants := db.NewTenantRepository(gormDB)
	roles := db.NewRoleRepository(gormDB)
	s.tenants = tenants
	s.permissions = usecase.NewPermissionService(roles)

	if s.cfg.RedisAddr != "" {
		client, err := cache.NewClient(s.cfg.RedisAddr, s.cfg.RedisPassword, s.cfg.RedisDB, s.cfg.DomainCacheTTL())
		if err != nil {
			log.Printf("redis unavailable, domain cache disabled: %v", err)
		} else {
			s.domainCache = client
			if limiter, err := ratelimit.NewRedisLimiter(client.Redis(), nil); err == nil {
				s.initRateLimit(limiter)
			}
		}
	}

	provisioner := usecase.NewTenantProvisioner(tenants, roles, s.cfg.DefaultAppID, nil)
	s.resolver = usecase.NewTenantContextResolver(tenants, provisioner, s.cfg.DefaultAppID, nil)
	s.domains = usecase.NewDomainOwnershipResolver(tenants, s.domainCache, s.cfg.SharedDomains)

	s.initAuth()
	if s.rateLimiter == nil {
		s.initRateLimit(nil)
	}
}

func (s *Server) initAuth() {
	if s.cfg.AuthMode == "none" {
		return
	}
	if s.authenticator != nil {
		return
	}
	authenticator, err := session.NewAuthenticator(s.cfg)
	if err != nil {
		s.authInitErr = err
		return
	}
	s.authenticator = authenticator
}

func (s *Server) initRateLimit(limiter domain.RateLimiter) {
	s.rateLimitRequests = s.cfg.RateLimitRequests
	s.rateLimitWindow = s.cfg.RateLimitWindow()
	s.rateLimitWithSubject = s.cfg.RateLimitIncludeSubject
	s.rateLimitFailClosed = s.cfg.RateLimitFailClosed
	if s.rateLimitRequests <= 0 {
		return
	}
	if limiter == nil {
		limiter = ratelimit.NewMemoryLimiter(ratelimit.MemoryLimiterConfig{})
	}
	s.rateLimiter = limiter
}

func (s *Server) routes() {
	s.r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1 := s.r.Group("/v1")
	v1.Use(s.identityMiddleware(), s.rateLimitMiddleware(), s.tenantContextMiddleware())

	v1.GET("/context", s.handleGetContext)
	v1.GET("/tenant", s.handleGetTenant)
	v1.POST("/tenant/domain", s.handleBindDomain)
	v1.POST("/tenant/pro", s.handleSetPro)

	v1.POST("/roles", s.handleEnsureRole)
	v1.DELETE("/roles/:name", s.handleDeleteRole)
	v1.POST("/roles/:name/assignments", s.handleAssignRole)
	v1.DELETE("/roles/:name/assignments/:userID", s.handleRevokeRole)
	v1.GET("/users/:userID/roles", s.handleListUserRoles)
	v1.POST("/users/:userID/signup-role", s.handleGrantSignupRole)
}

func (s *Server) Run() error {
	return s.r.Run(s.cfg.HTTPAddr)
}

// Handler exposes the router for httptest.
func (s *Server) Handler() *gin.Engine {
	return s.r
}
