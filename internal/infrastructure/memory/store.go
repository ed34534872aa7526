// Package memory implementa los puertos de repositorio y el TxRunner en memoria.
// Cada transacción trabaja sobre una copia del estado; al confirmar la copia reemplaza
// al original y al fallar se descarta (rollback completo).
package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/Inventario-kardex/internal/application/inventory"
	"github.com/jhoicas/Inventario-kardex/internal/domain/entity"
)

type state struct {
	items      map[string]entity.Item
	warehouses map[string]entity.Warehouse
	balances   map[entity.BalanceKey]entity.Balance
	movements  map[string]entity.Movement
	costAudit  []entity.CostAuditEntry
	audit      []entity.AuditEvent
	seq        int64
	published  int64
}

func newState() *state {
	return &state{
		items:      make(map[string]entity.Item),
		warehouses: make(map[string]entity.Warehouse),
		balances:   make(map[entity.BalanceKey]entity.Balance),
		movements:  make(map[string]entity.Movement),
	}
}

func (s *state) clone() *state {
	c := &state{
		items:      make(map[string]entity.Item, len(s.items)),
		warehouses: make(map[string]entity.Warehouse, len(s.warehouses)),
		balances:   make(map[entity.BalanceKey]entity.Balance, len(s.balances)),
		movements:  make(map[string]entity.Movement, len(s.movements)),
		costAudit:  append([]entity.CostAuditEntry(nil), s.costAudit...),
		audit:      append([]entity.AuditEvent(nil), s.audit...),
		seq:        s.seq,
		published:  s.published,
	}
	for k, v := range s.items {
		c.items[k] = v
	}
	for k, v := range s.warehouses {
		c.warehouses[k] = v
	}
	for k, v := range s.balances {
		c.balances[k] = v
	}
	for k, v := range s.movements {
		c.movements[k] = copyMovement(v)
	}
	return c
}

func (s *state) nextSeq() int64 {
	s.seq++
	return s.seq
}

func (s *state) nextPublished() int64 {
	s.published++
	return s.published
}

// Store almacén en memoria. Las transacciones se serializan con un mutex.
type Store struct {
	mu    sync.Mutex
	state *state
}

var _ inventory.TxRunner = (*Store)(nil)

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{state: newState()}
}

// Run ejecuta fn sobre una copia del estado y la confirma si fn no falla.
func (s *Store) Run(ctx context.Context, fn func(ctx context.Context, repos inventory.Repos) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	work := s.state.clone()
	if err := fn(ctx, reposFor(work)); err != nil {
		return err
	}
	s.state = work
	return nil
}

// RunReadOnly ejecuta fn sobre una copia que siempre se descarta.
func (s *Store) RunReadOnly(ctx context.Context, fn func(ctx context.Context, repos inventory.Repos) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(ctx, reposFor(s.state.clone()))
}

func reposFor(st *state) inventory.Repos {
	return inventory.Repos{
		Movements:  &movementRepo{st: st},
		Balances:   &balanceRepo{st: st},
		CostAudit:  &costAuditRepo{st: st},
		Audit:      &auditRepo{st: st},
		Ledger:     &ledgerRepo{st: st},
		Items:      &itemRepo{st: st},
		Warehouses: &warehouseRepo{st: st},
	}
}

// AddItem registra un ítem del maestro.
func (s *Store) AddItem(item entity.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.items[item.ID] = item
}

// AddWarehouse registra una bodega del maestro.
func (s *Store) AddWarehouse(wh entity.Warehouse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.warehouses[wh.ID] = wh
}

// Balance devuelve una copia del saldo confirmado.
func (s *Store) Balance(itemID, warehouseID string) (entity.Balance, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.state.balances[entity.BalanceKey{ItemID: itemID, WarehouseID: warehouseID}]
	return b, ok
}

// CostAuditEntries bitácora de costos confirmada.
func (s *Store) CostAuditEntries() []entity.CostAuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]entity.CostAuditEntry(nil), s.state.costAudit...)
}

// AuditEvents eventos de auditoría confirmados.
func (s *Store) AuditEvents() []entity.AuditEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]entity.AuditEvent(nil), s.state.audit...)
}

// Movement devuelve una copia del documento confirmado.
func (s *Store) Movement(id string) (entity.Movement, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.state.movements[id]
	if !ok {
		return entity.Movement{}, false
	}
	return copyMovement(m), true
}

func copyMovement(m entity.Movement) entity.Movement {
	m.Lines = append([]entity.MovementLine(nil), m.Lines...)
	return m
}
