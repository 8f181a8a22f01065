package service_test

import (
	"context"
	"testing"

	"zonagarage/internal/config"
	"zonagarage/internal/dto"
	"zonagarage/internal/model"
	"zonagarage/internal/repository"
	"zonagarage/internal/service"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeUsuarioRepo struct {
	usuarios map[uuid.UUID]*model.Usuario
}

func newFakeUsuarioRepo() *fakeUsuarioRepo {
	return &fakeUsuarioRepo{usuarios: make(map[uuid.UUID]*model.Usuario)}
}

func (r *fakeUsuarioRepo) Create(_ context.Context, u *model.Usuario) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	r.usuarios[u.ID] = u
	return nil
}

func (r *fakeUsuarioRepo) FindByUsername(_ context.Context, username string) (*model.Usuario, error) {
	for _, u := range r.usuarios {
		if u.Username == username && u.Activo {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUsuarioRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Usuario, error) {
	u, ok := r.usuarios[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (r *fakeUsuarioRepo) List(_ context.Context) ([]model.Usuario, error) {
	var out []model.Usuario
	for _, u := range r.usuarios {
		if u.Activo {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *fakeUsuarioRepo) ListAll(_ context.Context) ([]model.Usuario, error) {
	var out []model.Usuario
	for _, u := range r.usuarios {
		out = append(out, *u)
	}
	return out, nil
}

func (r *fakeUsuarioRepo) Update(_ context.Context, u *model.Usuario) error {
	r.usuarios[u.ID] = u
	return nil
}

func (r *fakeUsuarioRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	u, ok := r.usuarios[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.Activo = false
	return nil
}

func (r *fakeUsuarioRepo) Reactivar(_ context.Context, id uuid.UUID) error {
	u, ok := r.usuarios[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.Activo = true
	return nil
}

var _ repository.UsuarioRepository = (*fakeUsuarioRepo)(nil)

func newAuthFixture(t *testing.T) (*fakeUsuarioRepo, service.AuthService) {
	t.Helper()
	repo := newFakeUsuarioRepo()
	cfg := &config.Config{
		JWTSecret:          "test-secret",
		JWTExpirationHours: 8,
		JWTRefreshHours:    24,
	}
	return repo, service.NewAuthService(repo, cfg)
}

func crearUsuario(t *testing.T, svc service.AuthService, username, password, rol string) *dto.UsuarioResponse {
	t.Helper()
	resp, err := svc.CrearUsuario(context.Background(), dto.CrearUsuarioRequest{
		Username: username,
		Nombre:   "Usuario de Prueba",
		Password: password,
		Rol:      rol,
	})
	require.NoError(t, err)
	return resp
}

func TestLogin(t *testing.T) {
	_, svc := newAuthFixture(t)
	crearUsuario(t, svc, "carlos", "secreto123", "empleado")

	resp, err := svc.Login(context.Background(), dto.LoginRequest{
		Username: "carlos",
		Password: "secreto123",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "bearer", resp.TokenType)
	assert.Equal(t, 8*3600, resp.ExpiresIn)
	assert.Equal(t, "empleado", resp.User.Rol)

	// The token carries the identity claims the middleware reads.
	token, err := jwt.Parse(resp.AccessToken, func(t *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	claims := token.Claims.(jwt.MapClaims)
	assert.Equal(t, "carlos", claims["username"])
	assert.Equal(t, "empleado", claims["rol"])
}

func TestLoginPasswordIncorrecta(t *testing.T) {
	_, svc := newAuthFixture(t)
	crearUsuario(t, svc, "carlos", "secreto123", "empleado")

	_, err := svc.Login(context.Background(), dto.LoginRequest{
		Username: "carlos",
		Password: "otra-cosa",
	})
	assert.ErrorContains(t, err, "credenciales invalidas")
}

func TestLoginUsuarioDesactivado(t *testing.T) {
	_, svc := newAuthFixture(t)
	u := crearUsuario(t, svc, "carlos", "secreto123", "empleado")

	require.NoError(t, svc.DesactivarUsuario(context.Background(), uuid.MustParse(u.ID)))

	_, err := svc.Login(context.Background(), dto.LoginRequest{
		Username: "carlos",
		Password: "secreto123",
	})
	assert.ErrorContains(t, err, "credenciales invalidas")
}

func TestRefresh(t *testing.T) {
	_, svc := newAuthFixture(t)
	crearUsuario(t, svc, "ana", "secreto123", "administrador")

	login, err := svc.Login(context.Background(), dto.LoginRequest{
		Username: "ana",
		Password: "secreto123",
	})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(context.Background(), login.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
	assert.Equal(t, "ana", refreshed.User.Username)
}

func TestRefreshTokenInvalido(t *testing.T) {
	_, svc := newAuthFixture(t)

	_, err := svc.Refresh(context.Background(), "no-es-un-jwt")
	assert.ErrorContains(t, err, "invalido")
}

func TestActualizarUsuarioCambiaPassword(t *testing.T) {
	_, svc := newAuthFixture(t)
	u := crearUsuario(t, svc, "carlos", "secreto123", "empleado")

	_, err := svc.ActualizarUsuario(context.Background(), uuid.MustParse(u.ID), dto.ActualizarUsuarioRequest{
		Password: "nuevo-secreto",
		Rol:      "administrador",
	})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), dto.LoginRequest{
		Username: "carlos",
		Password: "secreto123",
	})
	assert.Error(t, err)

	resp, err := svc.Login(context.Background(), dto.LoginRequest{
		Username: "carlos",
		Password: "nuevo-secreto",
	})
	require.NoError(t, err)
	assert.Equal(t, "administrador", resp.User.Rol)
}

func TestListarUsuarios(t *testing.T) {
	_, svc := newAuthFixture(t)
	u := crearUsuario(t, svc, "carlos", "secreto123", "empleado")
	crearUsuario(t, svc, "ana", "secreto123", "administrador")

	require.NoError(t, svc.DesactivarUsuario(context.Background(), uuid.MustParse(u.ID)))

	activos, err := svc.ListarUsuarios(context.Background(), false)
	require.NoError(t, err)
	assert.Len(t, activos, 1)

	todos, err := svc.ListarUsuarios(context.Background(), true)
	require.NoError(t, err)
	assert.Len(t, todos, 2)
}
