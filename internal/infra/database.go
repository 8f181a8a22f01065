package infra

import (
	"fmt"

	"zonagarage/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx, runs AutoMigrate to
// create / update all tables, then applies idempotent SQL patches that GORM
// cannot express (sequences, partial indexes).
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}
	return db, nil
}

// RunMigrations creates/updates all tables and applies the SQL patches.
// Also used by integration tests against a disposable database.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Usuario{},
		&model.Cliente{},
		&model.Vehiculo{},
		&model.Producto{},
		&model.Promocion{},
		&model.PromocionProducto{},
		&model.MovimientoStock{},
		&model.TipoServicio{},
		&model.Servicio{},
		&model.ServicioTipo{},
		&model.ServicioItem{},
		&model.ServicioPromocion{},
		&model.Pago{},
		&model.Venta{},
		&model.VentaItem{},
		&model.SesionCaja{},
		&model.MovimientoCaja{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	return applySchemaPatches(db)
}

// applySchemaPatches runs idempotent DDL that AutoMigrate cannot express.
// Each statement is guarded so re-running on an already-patched DB is a no-op.
func applySchemaPatches(db *gorm.DB) error {
	patches := []struct{ descr, sql string }{
		// Order/ticket numbers come from dedicated sequences so they survive
		// deletion of the rows that consumed them.
		{"create servicios numero_orden sequence",
			`CREATE SEQUENCE IF NOT EXISTS servicios_numero_orden_seq START 1`},
		{"create ventas numero_ticket sequence",
			`CREATE SEQUENCE IF NOT EXISTS ventas_numero_ticket_seq START 1`},

		// At most one open till at any moment — enforced at the DB level with
		// a partial unique index, not just in the service guard.
		{"enforce single open sesion_caja", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_sesion_caja_unica_abierta') THEN
    CREATE UNIQUE INDEX idx_sesion_caja_unica_abierta
        ON sesiones_caja (abierta)
        WHERE abierta = true;
  END IF;
END $$`},

		// Ledger rows are append-only: movements carry amounts, never signs.
		{"movimientos_caja monto no negativo", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_movimientos_caja_monto') THEN
    ALTER TABLE movimientos_caja
      ADD CONSTRAINT chk_movimientos_caja_monto CHECK (monto >= 0);
  END IF;
END $$`},
	}

	for _, p := range patches {
		if err := db.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", p.descr, err)
		}
	}
	return nil
}
