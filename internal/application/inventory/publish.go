package inventory

import (
	"context"
	"sort"

	"github.com/jhoicas/Inventario-kardex/internal/application/dto"
	"github.com/jhoicas/Inventario-kardex/internal/domain"
	"github.com/jhoicas/Inventario-kardex/internal/domain/entity"
)

// Publish aplica el documento a los saldos en una sola transacción: bloquea la cabecera,
// bloquea los saldos afectados en orden (ítem, bodega), aplica cada línea según el tipo,
// guarda snapshots y bitácora de costos y pasa el estado a PUBLISHED. Cualquier error revierte todo.
func (s *MovementService) Publish(ctx context.Context, id, userID string, allowNegative bool) (*dto.TransitionResult, error) {
	if id == "" || userID == "" {
		return nil, domain.NewValidation("id de movimiento y usuario requeridos")
	}

	var (
		mov       *entity.Movement
		committed map[entity.BalanceKey]dto.AverageCost
	)
	err := s.txRunner.Run(ctx, func(ctx context.Context, r Repos) error {
		m, err := r.Movements.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if m == nil {
			return domain.NewNotFound("movimiento", id)
		}
		if m.State != entity.MovementStateDraft {
			return domain.NewError(domain.ErrNotDraft, "solo se pueden publicar borradores").
				WithDetail("state", string(m.State))
		}
		handler, ok := s.handlers[m.Kind]
		if !ok {
			return domain.NewError(domain.ErrUnsupportedKind, "el tipo de movimiento no se puede publicar").
				WithDetail("kind", string(m.Kind))
		}
		if err := validateWarehouses(m); err != nil {
			return err
		}

		now := s.now()
		locks := lockOrder(handler.balanceLocks(m))
		if err := r.Balances.LockKeys(ctx, locks, now); err != nil {
			return err
		}

		pc := &publishContext{
			repos:         r,
			movement:      m,
			userID:        userID,
			allowNegative: allowNegative,
			now:           now,
			itemNames:     make(map[string]string),
		}
		for i := range m.Lines {
			line := &m.Lines[i]
			if err := handler.apply(ctx, pc, line); err != nil {
				return err
			}
			if err := r.Movements.SaveLineResult(ctx, line); err != nil {
				return err
			}
		}

		m.State = entity.MovementStatePublished
		m.UpdatedAt = pc.now
		if err := r.Movements.UpdateState(ctx, m); err != nil {
			return err
		}
		if err := r.Audit.Append(ctx, newAuditEvent(m.ID, entity.AuditActionPublish, userID, pc.now, map[string]any{
			"kind":           string(m.Kind),
			"subkind":        m.Subkind,
			"lines":          len(m.Lines),
			"allow_negative": allowNegative,
		})); err != nil {
			return err
		}
		costs, err := s.costsAfter(ctx, r, locks)
		if err != nil {
			return err
		}
		mov = m
		committed = costs
		return nil
	})
	log := s.log.WithFields(map[string]any{"movement_id": id, "user_id": userID})
	if err != nil {
		log.Warn().Err(err).Str("code", domain.CodeOf(err)).Msg("publicación rechazada")
		return nil, err
	}

	s.cacheCosts(ctx, committed)
	log.Info().
		Str("kind", string(mov.Kind)).
		Int("lines", len(mov.Lines)).
		Msg("movimiento publicado")
	return &dto.TransitionResult{ID: mov.ID, State: string(mov.State), UpdatedAt: mov.UpdatedAt}, nil
}

// Void anula un documento publicado. No revierte saldos: el documento queda
// marcado y el kardex lo excluye de ahí en adelante.
func (s *MovementService) Void(ctx context.Context, id, userID, reason string) (*dto.TransitionResult, error) {
	if id == "" || userID == "" {
		return nil, domain.NewValidation("id de movimiento y usuario requeridos")
	}
	if err := s.validate.Var(reason, "max=500"); err != nil {
		return nil, domain.NewValidation("reason admite máximo 500 caracteres")
	}
	var mov *entity.Movement
	err := s.txRunner.Run(ctx, func(ctx context.Context, r Repos) error {
		m, err := r.Movements.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if m == nil {
			return domain.NewNotFound("movimiento", id)
		}
		if m.State != entity.MovementStatePublished {
			return domain.NewError(domain.ErrNotPublished, "solo se pueden anular documentos publicados").
				WithDetail("state", string(m.State))
		}
		m.State = entity.MovementStateVoided
		m.UpdatedAt = s.now()
		if err := r.Movements.UpdateState(ctx, m); err != nil {
			return err
		}
		if err := r.Audit.Append(ctx, newAuditEvent(m.ID, entity.AuditActionVoid, userID, m.UpdatedAt, map[string]any{
			"reason": reason,
		})); err != nil {
			return err
		}
		mov = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("movement_id", mov.ID).Str("reason", reason).Msg("movimiento anulado")
	return &dto.TransitionResult{ID: mov.ID, State: string(mov.State), UpdatedAt: mov.UpdatedAt}, nil
}

// costsAfter lee, dentro de la misma transacción, los saldos ya actualizados para
// escribirlos en la caché tras el commit. Sin caché no hace nada.
func (s *MovementService) costsAfter(ctx context.Context, r Repos, locks []entity.BalanceLock) (map[entity.BalanceKey]dto.AverageCost, error) {
	if s.costCache == nil {
		return nil, nil
	}
	out := make(map[entity.BalanceKey]dto.AverageCost, len(locks))
	for _, l := range locks {
		b, err := r.Balances.Get(ctx, l.Key.ItemID, l.Key.WarehouseID)
		if err != nil {
			return nil, err
		}
		out[l.Key] = dto.NewAverageCost(b)
	}
	return out, nil
}

func (s *MovementService) cacheCosts(ctx context.Context, costs map[entity.BalanceKey]dto.AverageCost) {
	if s.costCache == nil || len(costs) == 0 {
		return
	}
	if err := s.costCache.PutMany(ctx, costs); err != nil {
		s.log.Warn().Err(err).Int("keys", len(costs)).Msg("no se pudo actualizar la caché de costos")
	}
}

// lockOrder une claves repetidas (Create si alguna lo pide) y ordena por (ítem, bodega).
func lockOrder(locks []entity.BalanceLock) []entity.BalanceLock {
	idx := make(map[entity.BalanceKey]int, len(locks))
	out := make([]entity.BalanceLock, 0, len(locks))
	for _, l := range locks {
		if i, ok := idx[l.Key]; ok {
			out[i].Create = out[i].Create || l.Create
			continue
		}
		idx[l.Key] = len(out)
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key.Less(out[j].Key) })
	return out
}
