package handler

import (
	"errors"
	"net/http"

	"zonagarage/internal/apierror"
	"zonagarage/internal/dto"
	"zonagarage/internal/middleware"
	"zonagarage/internal/service"
	"zonagarage/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ServiciosHandler struct {
	svc         service.ServicioService
	comprobante *worker.ComprobanteWorker
}

func NewServiciosHandler(svc service.ServicioService, comprobante *worker.ComprobanteWorker) *ServiciosHandler {
	return &ServiciosHandler{svc: svc, comprobante: comprobante}
}

// Registrar godoc
// @Summary Registra un servicio completo (tipos, productos, promociones, pagos)
// @Tags servicios
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.RegistrarServicioRequest true "Servicio"
// @Success 201 {object} dto.ServicioResponse
// @Failure 400 {object} apierror.APIError
// @Router /v1/servicios [post]
func (h *ServiciosHandler) Registrar(c *gin.Context) {
	var req dto.RegistrarServicioRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	usuarioID, _ := uuid.Parse(claims.UserID)

	resp, err := h.svc.RegistrarServicio(c.Request.Context(), usuarioID, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrStockInsuficiente),
			errors.Is(err, service.ErrPagosInsuficientes):
			c.JSON(http.StatusConflict, apierror.New(err.Error()))
		case errors.Is(err, service.ErrClienteNoEncontrado),
			errors.Is(err, service.ErrProductoNoEncontrado):
			c.JSON(http.StatusNotFound, apierror.New(err.Error()))
		default:
			c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		}
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *ServiciosHandler) Listar(c *gin.Context) {
	var filter dto.ServicioFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("parámetros inválidos"))
		return
	}
	resp, err := h.svc.ListServicios(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ServiciosHandler) ObtenerPorID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	resp, err := h.svc.ObtenerServicio(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Anular godoc
// @Summary Anula un servicio: repone stock, revierte caja y elimina pagos
// @Tags servicios
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de servicio"
// @Success 200 {object} dto.AnulacionResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/servicios/{id} [delete]
func (h *ServiciosHandler) Anular(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	resp, err := h.svc.AnularServicio(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrServicioNoEncontrado) {
			c.JSON(http.StatusNotFound, apierror.New(err.Error()))
			return
		}
		c.JSON(http.StatusConflict, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Comprobante regenerates the PDF receipt on demand and streams it back.
func (h *ServiciosHandler) Comprobante(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	path, _, err := h.comprobante.RenderServicio(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.New("no se pudo generar el comprobante"))
		return
	}
	c.FileAttachment(path, "comprobante.pdf")
}

// ── Tipos de servicio (catálogo) ──────────────────────────────────────────────

type crearTipoRequest struct {
	Nombre string          `json:"nombre" validate:"required,min=2,max=120"`
	Precio decimal.Decimal `json:"precio" validate:"required"`
}

func (h *ServiciosHandler) ListarTipos(c *gin.Context) {
	tipos, err := h.svc.ListTipos(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New(err.Error()))
		return
	}
	out := make([]gin.H, 0, len(tipos))
	for _, t := range tipos {
		out = append(out, gin.H{
			"id":     t.ID.String(),
			"nombre": t.Nombre,
			"precio": t.Precio,
			"activo": t.Activo,
		})
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}

func (h *ServiciosHandler) CrearTipo(c *gin.Context) {
	var req crearTipoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	tipo, err := h.svc.CrearTipo(c.Request.Context(), req.Nombre, req.Precio)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"id":     tipo.ID.String(),
		"nombre": tipo.Nombre,
		"precio": tipo.Precio,
		"activo": tipo.Activo,
	})
}
