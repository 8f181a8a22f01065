// Package events carries fire-and-forget domain notifications. The only
// producer today is the cash ledger; consumers (till-balance widgets) listen
// on the Redis channel and are free to come and go.
package events

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// CanalCaja is the Pub/Sub channel for till-balance broadcasts.
const CanalCaja = "caja:actualizada"

// CajaActualizada announces a till-balance change. Delta is signed: positive
// for postings, negative for reversals.
type CajaActualizada struct {
	SesionCajaID string          `json:"sesion_caja_id"`
	NuevoSaldo   decimal.Decimal `json:"nuevo_saldo"`
	Delta        decimal.Decimal `json:"delta"`
	Descripcion  string          `json:"descripcion"`
}

// Notifier broadcasts domain events. Implementations must never block the
// caller on delivery: a failed publish is logged and dropped.
type Notifier interface {
	PublicarCajaActualizada(ctx context.Context, ev CajaActualizada)
}

// ── Redis implementation ─────────────────────────────────────────────────────

type redisNotifier struct{ rdb *redis.Client }

// NewRedisNotifier broadcasts events over Redis Pub/Sub.
func NewRedisNotifier(rdb *redis.Client) Notifier { return &redisNotifier{rdb: rdb} }

func (n *redisNotifier) PublicarCajaActualizada(ctx context.Context, ev CajaActualizada) {
	data, err := json.Marshal(ev)
	if err != nil {
		log.Error().Err(err).Msg("events: failed to marshal caja event")
		return
	}
	if err := n.rdb.Publish(ctx, CanalCaja, data).Err(); err != nil {
		log.Warn().Err(err).Msg("events: failed to publish caja event")
	}
}

// ── No-op implementation (tests, redis-less deployments) ─────────────────────

type nopNotifier struct{}

// NewNopNotifier returns a Notifier that discards every event.
func NewNopNotifier() Notifier { return nopNotifier{} }

func (nopNotifier) PublicarCajaActualizada(context.Context, CajaActualizada) {}
