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
)

type VentasHandler struct {
	svc         service.VentaService
	comprobante *worker.ComprobanteWorker
}

func NewVentasHandler(svc service.VentaService, comprobante *worker.ComprobanteWorker) *VentasHandler {
	return &VentasHandler{svc: svc, comprobante: comprobante}
}

// Registrar godoc
// @Summary Registra una venta de mostrador
// @Tags ventas
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.RegistrarVentaRequest true "Venta"
// @Success 201 {object} dto.VentaResponse
// @Failure 400 {object} apierror.APIError
// @Router /v1/ventas [post]
func (h *VentasHandler) Registrar(c *gin.Context) {
	var req dto.RegistrarVentaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	usuarioID, _ := uuid.Parse(claims.UserID)

	resp, err := h.svc.RegistrarVenta(c.Request.Context(), usuarioID, req)
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

func (h *VentasHandler) Listar(c *gin.Context) {
	var filter dto.VentaFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("parámetros inválidos"))
		return
	}
	resp, err := h.svc.ListVentas(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *VentasHandler) ObtenerPorID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	resp, err := h.svc.ObtenerVenta(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Anular cancels a counter sale: restock, reverse cash, delete pagos.
func (h *VentasHandler) Anular(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	resp, err := h.svc.AnularVenta(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrVentaNoEncontrada) {
			c.JSON(http.StatusNotFound, apierror.New(err.Error()))
			return
		}
		c.JSON(http.StatusConflict, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Comprobante regenerates the ticket PDF on demand and streams it back.
func (h *VentasHandler) Comprobante(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	path, _, err := h.comprobante.RenderVenta(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.New("no se pudo generar el comprobante"))
		return
	}
	c.FileAttachment(path, "ticket.pdf")
}
