package router

import (
	"time"

	"zonagarage/internal/config"
	"zonagarage/internal/events"
	"zonagarage/internal/handler"
	"zonagarage/internal/middleware"
	"zonagarage/internal/repository"
	"zonagarage/internal/service"
	"zonagarage/internal/sync"
	"zonagarage/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(
	cfg *config.Config,
	db *gorm.DB,
	rdb *redis.Client,
	dispatcher *worker.Dispatcher,
	comprobanteW *worker.ComprobanteWorker,
	syncer *sync.Syncer,
) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Repositories ─────────────────────────────────────────────────────────
	usuarioRepo := repository.NewUsuarioRepository(db)
	clienteRepo := repository.NewClienteRepository(db)
	productoRepo := repository.NewProductoRepository(db)
	movimientoStockRepo := repository.NewMovimientoStockRepository(db)
	servicioRepo := repository.NewServicioRepository(db)
	ventaRepo := repository.NewVentaRepository(db)
	pagoRepo := repository.NewPagoRepository(db)
	cajaRepo := repository.NewCajaRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	notifier := events.NewRedisNotifier(rdb)

	authSvc := service.NewAuthService(usuarioRepo, cfg)
	clienteSvc := service.NewClienteService(clienteRepo)
	productoSvc := service.NewProductoService(productoRepo)
	inventarioSvc := service.NewInventarioService(productoRepo, movimientoStockRepo)
	cajaSvc := service.NewCajaService(cajaRepo, notifier)
	servicioSvc := service.NewServicioService(servicioRepo, pagoRepo, clienteRepo, productoRepo, inventarioSvc, cajaSvc, dispatcher)
	ventaSvc := service.NewVentaService(ventaRepo, pagoRepo, clienteRepo, productoRepo, inventarioSvc, cajaSvc, dispatcher)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	usuariosH := handler.NewUsuariosHandler(authSvc)
	clientesH := handler.NewClientesHandler(clienteSvc)
	productosH := handler.NewProductosHandler(productoSvc, inventarioSvc)
	serviciosH := handler.NewServiciosHandler(servicioSvc, comprobanteW)
	ventasH := handler.NewVentasHandler(ventaSvc, comprobanteW)
	cajaH := handler.NewCajaHandler(cajaSvc)
	syncH := handler.NewSyncHandler(syncer)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))

	// Auth (public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	empleados := middleware.RequireRole("empleado", "administrador")
	admin := middleware.RequireRole("administrador")

	v1 := r.Group("/v1", jwtMW)
	{
		// Servicios — the daily workflow, open to every employee; cancellation
		// is restricted to administrators.
		v1.POST("/servicios", empleados, serviciosH.Registrar)
		v1.GET("/servicios", empleados, serviciosH.Listar)
		v1.GET("/servicios/:id", empleados, serviciosH.ObtenerPorID)
		v1.GET("/servicios/:id/comprobante", empleados, serviciosH.Comprobante)
		v1.DELETE("/servicios/:id", admin, serviciosH.Anular)

		v1.GET("/tipos-servicio", empleados, serviciosH.ListarTipos)
		v1.POST("/tipos-servicio", admin, serviciosH.CrearTipo)

		// Ventas de mostrador
		v1.POST("/ventas", empleados, ventasH.Registrar)
		v1.GET("/ventas", empleados, ventasH.Listar)
		v1.GET("/ventas/:id", empleados, ventasH.ObtenerPorID)
		v1.GET("/ventas/:id/comprobante", empleados, ventasH.Comprobante)
		v1.DELETE("/ventas/:id", admin, ventasH.Anular)

		// Clientes y vehículos
		clientes := v1.Group("/clientes", empleados)
		{
			clientes.POST("", clientesH.Crear)
			clientes.GET("", clientesH.Listar)
			clientes.GET("/:id", clientesH.ObtenerPorID)
			clientes.PUT("/:id", clientesH.Actualizar)
			clientes.POST("/:id/vehiculos", clientesH.AgregarVehiculo)
			clientes.GET("/:id/vehiculos", clientesH.ListarVehiculos)
		}
		v1.DELETE("/clientes/:id", admin, clientesH.Desactivar)
		v1.DELETE("/clientes/:id/vehiculos/:vehiculo_id", admin, clientesH.EliminarVehiculo)

		// Productos — employees read, administrators write
		v1.GET("/productos", empleados, productosH.Listar)
		v1.GET("/productos/:id", empleados, productosH.ObtenerPorID)
		prods := v1.Group("/productos", admin)
		{
			prods.POST("", productosH.Crear)
			prods.PUT("/:id", productosH.Actualizar)
			prods.DELETE("/:id", productosH.Desactivar)
			prods.PATCH("/:id/reactivar", productosH.Reactivar)
			prods.PATCH("/:id/stock", productosH.AjustarStock)
		}

		inv := v1.Group("/inventario", empleados)
		{
			inv.GET("/alertas", productosH.ObtenerAlertas)
			inv.GET("/movimientos", productosH.ListarMovimientos)
		}

		// Promociones
		v1.GET("/promociones", empleados, productosH.ListarPromociones)
		v1.POST("/promociones", admin, productosH.CrearPromocion)
		v1.DELETE("/promociones/:id", admin, productosH.DesactivarPromocion)

		// Caja
		caja := v1.Group("/caja", empleados)
		{
			caja.POST("/abrir", cajaH.Abrir)
			caja.POST("/cerrar", cajaH.Cerrar)
			caja.GET("/abierta", cajaH.GetAbierta)
			caja.POST("/movimiento", cajaH.RegistrarMovimiento)
			caja.GET("/:id/movimientos", cajaH.Movimientos)
		}
		v1.GET("/caja/historial", admin, cajaH.Historial)

		// Usuarios — administración
		usuarios := v1.Group("/usuarios", admin)
		{
			usuarios.POST("", usuariosH.Crear)
			usuarios.GET("", usuariosH.Listar)
			usuarios.PUT("/:id", usuariosH.Actualizar)
			usuarios.DELETE("/:id", usuariosH.Desactivar)
			usuarios.PATCH("/:id/reactivar", usuariosH.Reactivar)
		}

		// Sincronización remota — admin surface
		adminSync := v1.Group("/admin/sync", admin)
		{
			adminSync.GET("/estado", syncH.Estado)
			adminSync.POST("/ejecutar", syncH.Ejecutar)
		}
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
