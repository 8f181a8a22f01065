package service

import (
	"context"
	"errors"

	"zonagarage/internal/dto"
	"zonagarage/internal/model"
	"zonagarage/internal/repository"

	"github.com/google/uuid"
)

type ClienteService interface {
	Crear(ctx context.Context, req dto.CrearClienteRequest) (*dto.ClienteResponse, error)
	Obtener(ctx context.Context, id uuid.UUID) (*dto.ClienteResponse, error)
	List(ctx context.Context, filter dto.ClienteFilter) ([]dto.ClienteResponse, int64, error)
	Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarClienteRequest) (*dto.ClienteResponse, error)
	Desactivar(ctx context.Context, id uuid.UUID) error

	AgregarVehiculo(ctx context.Context, clienteID uuid.UUID, req dto.CrearVehiculoRequest) (*dto.VehiculoResponse, error)
	ListVehiculos(ctx context.Context, clienteID uuid.UUID) ([]dto.VehiculoResponse, error)
	EliminarVehiculo(ctx context.Context, clienteID, vehiculoID uuid.UUID) error
}

type clienteService struct {
	repo repository.ClienteRepository
}

func NewClienteService(repo repository.ClienteRepository) ClienteService {
	return &clienteService{repo: repo}
}

func (s *clienteService) Crear(ctx context.Context, req dto.CrearClienteRequest) (*dto.ClienteResponse, error) {
	c := &model.Cliente{
		Nombre:   req.Nombre,
		Telefono: req.Telefono,
		Email:    req.Email,
		Activo:   true,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return clienteToResponse(c), nil
}

func (s *clienteService) Obtener(ctx context.Context, id uuid.UUID) (*dto.ClienteResponse, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrClienteNoEncontrado
	}
	return clienteToResponse(c), nil
}

func (s *clienteService) List(ctx context.Context, filter dto.ClienteFilter) ([]dto.ClienteResponse, int64, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	clientes, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	out := make([]dto.ClienteResponse, 0, len(clientes))
	for i := range clientes {
		out = append(out, *clienteToResponse(&clientes[i]))
	}
	return out, total, nil
}

func (s *clienteService) Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarClienteRequest) (*dto.ClienteResponse, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrClienteNoEncontrado
	}
	if req.Nombre != "" {
		c.Nombre = req.Nombre
	}
	if req.Telefono != nil {
		c.Telefono = req.Telefono
	}
	if req.Email != nil {
		c.Email = req.Email
	}
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return clienteToResponse(c), nil
}

func (s *clienteService) Desactivar(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return ErrClienteNoEncontrado
	}
	return s.repo.SoftDelete(ctx, id)
}

// ── Vehículos ─────────────────────────────────────────────────────────────────

func (s *clienteService) AgregarVehiculo(ctx context.Context, clienteID uuid.UUID, req dto.CrearVehiculoRequest) (*dto.VehiculoResponse, error) {
	if _, err := s.repo.FindByID(ctx, clienteID); err != nil {
		return nil, ErrClienteNoEncontrado
	}
	v := &model.Vehiculo{
		ClienteID:     clienteID,
		Patente:       req.Patente,
		Marca:         req.Marca,
		Modelo:        req.Modelo,
		Color:         req.Color,
		Observaciones: req.Observaciones,
	}
	if err := s.repo.CreateVehiculo(ctx, v); err != nil {
		return nil, err
	}
	return vehiculoToResponse(v), nil
}

func (s *clienteService) ListVehiculos(ctx context.Context, clienteID uuid.UUID) ([]dto.VehiculoResponse, error) {
	if _, err := s.repo.FindByID(ctx, clienteID); err != nil {
		return nil, ErrClienteNoEncontrado
	}
	vehiculos, err := s.repo.ListVehiculos(ctx, clienteID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.VehiculoResponse, 0, len(vehiculos))
	for i := range vehiculos {
		out = append(out, *vehiculoToResponse(&vehiculos[i]))
	}
	return out, nil
}

func (s *clienteService) EliminarVehiculo(ctx context.Context, clienteID, vehiculoID uuid.UUID) error {
	v, err := s.repo.FindVehiculoByID(ctx, vehiculoID)
	if err != nil || v.ClienteID != clienteID {
		return errors.New("vehículo no encontrado para este cliente")
	}
	return s.repo.DeleteVehiculo(ctx, vehiculoID)
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func clienteToResponse(c *model.Cliente) *dto.ClienteResponse {
	resp := &dto.ClienteResponse{
		ID:        c.ID.String(),
		Nombre:    c.Nombre,
		Telefono:  c.Telefono,
		Email:     c.Email,
		Puntos:    c.Puntos,
		Activo:    c.Activo,
		CreatedAt: c.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
	for i := range c.Vehiculos {
		resp.Vehiculos = append(resp.Vehiculos, *vehiculoToResponse(&c.Vehiculos[i]))
	}
	return resp
}

func vehiculoToResponse(v *model.Vehiculo) *dto.VehiculoResponse {
	return &dto.VehiculoResponse{
		ID:            v.ID.String(),
		ClienteID:     v.ClienteID.String(),
		Patente:       v.Patente,
		Marca:         v.Marca,
		Modelo:        v.Modelo,
		Color:         v.Color,
		Observaciones: v.Observaciones,
	}
}
