package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"ardentia/internal/domain"
)

// In-memory repository fakes mirroring the transactional behavior of the
// real ones, shared by the tests in this package.

type memPositionRepo struct {
	mu        sync.Mutex
	positions map[uuid.UUID]*domain.Position
	balances  map[uuid.UUID]decimal.Decimal
}

func newMemPositionRepo() *memPositionRepo {
	return &memPositionRepo{
		positions: make(map[uuid.UUID]*domain.Position),
		balances:  make(map[uuid.UUID]decimal.Decimal),
	}
}

func (r *memPositionRepo) add(p *domain.Position) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.positions[p.ID] = &cp
	if _, ok := r.balances[p.OwnerID]; !ok {
		r.balances[p.OwnerID] = decimal.Zero
	}
}

func (r *memPositionRepo) OpenAtomic(_ context.Context, p *domain.Position) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	balance, ok := r.balances[p.OwnerID]
	if !ok {
		return domain.ErrOwnerNotFound
	}
	if balance.LessThan(p.Margin) {
		return domain.ErrInsufficientBalance
	}
	r.balances[p.OwnerID] = balance.Sub(p.Margin)
	cp := *p
	r.positions[p.ID] = &cp
	return nil
}

func (r *memPositionRepo) CloseAtomic(_ context.Context, id uuid.UUID, exitPrice, pnl, credit decimal.Decimal, reason string, closedAt time.Time) (*domain.Position, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.positions[id]
	if !ok {
		return nil, domain.ErrPositionNotFound
	}
	if p.Status != domain.PositionOpen {
		return nil, domain.ErrAlreadyClosed
	}

	p.Status = domain.PositionClosed
	p.ExitPrice = &exitPrice
	p.RealizedPnL = &pnl
	p.CloseReason = &reason
	p.ClosedAt = &closedAt
	if credit.IsPositive() {
		r.balances[p.OwnerID] = r.balances[p.OwnerID].Add(credit)
	}
	cp := *p
	return &cp, nil
}

func (r *memPositionRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Position, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.positions[id]
	if !ok {
		return nil, domain.ErrPositionNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *memPositionRepo) GetOpenByOwner(_ context.Context, ownerID uuid.UUID) ([]*domain.Position, error) {
	return r.filter(func(p *domain.Position) bool {
		return p.OwnerID == ownerID && p.Status == domain.PositionOpen
	}), nil
}

func (r *memPositionRepo) GetHistoryByOwner(_ context.Context, ownerID uuid.UUID, _ int) ([]*domain.Position, error) {
	return r.filter(func(p *domain.Position) bool {
		return p.OwnerID == ownerID && p.Status == domain.PositionClosed
	}), nil
}

func (r *memPositionRepo) GetOpenBySymbol(_ context.Context, symbol string) ([]*domain.Position, error) {
	return r.filter(func(p *domain.Position) bool {
		return p.Symbol == symbol && p.Status == domain.PositionOpen
	}), nil
}

func (r *memPositionRepo) GetOpen(context.Context) ([]*domain.Position, error) {
	return r.filter(func(p *domain.Position) bool {
		return p.Status == domain.PositionOpen
	}), nil
}

func (r *memPositionRepo) filter(keep func(*domain.Position) bool) []*domain.Position {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Position
	for _, p := range r.positions {
		if keep(p) {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out
}

func (r *memPositionRepo) UpdateMark(_ context.Context, symbol string, mark decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.positions {
		if p.Symbol == symbol && p.Status == domain.PositionOpen {
			p.MarkPrice = mark
		}
	}
	return nil
}

func (r *memPositionRepo) CountOpen(context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, p := range r.positions {
		if p.Status == domain.PositionOpen {
			n++
		}
	}
	return n, nil
}

func (r *memPositionRepo) TotalOpenMargin(context.Context) (decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := decimal.Zero
	for _, p := range r.positions {
		if p.Status == domain.PositionOpen {
			total = total.Add(p.Margin)
		}
	}
	return total, nil
}

type memCoinRepo struct {
	mu      sync.Mutex
	coins   map[string]*domain.Coin
	candles map[string][]*domain.Candle
}

func newMemCoinRepo(coins ...*domain.Coin) *memCoinRepo {
	r := &memCoinRepo{
		coins:   make(map[string]*domain.Coin),
		candles: make(map[string][]*domain.Candle),
	}
	for _, c := range coins {
		cp := *c
		r.coins[c.Symbol] = &cp
	}
	return r
}

func (r *memCoinRepo) GetAll(context.Context) ([]*domain.Coin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Coin
	for _, c := range r.coins {
		cp := *c
		out = append(out, &cp)
	}
	return out, nil
}

func (r *memCoinRepo) GetByID(_ context.Context, id string) (*domain.Coin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.coins {
		if c.ID == id {
			cp := *c
			return &cp, nil
		}
	}
	return nil, domain.ErrCoinNotFound
}

func (r *memCoinRepo) GetBySymbol(_ context.Context, symbol string) (*domain.Coin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.coins[symbol]
	if !ok {
		return nil, domain.ErrCoinNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *memCoinRepo) Seed(context.Context, []*domain.Coin) error { return nil }

func (r *memCoinRepo) ApplyTick(_ context.Context, tick domain.Tick) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.coins[tick.Symbol]
	if !ok {
		return false, domain.ErrCoinNotFound
	}
	if !tick.Timestamp.After(c.LastTickAt) {
		return false, nil
	}
	if tick.Timestamp.Sub(c.WindowStartedAt) >= 24*time.Hour {
		c.Open24h = c.Price
		c.WindowStartedAt = tick.Timestamp
		c.High24h = decimal.Max(c.Price, tick.Price)
		c.Low24h = decimal.Min(c.Price, tick.Price)
	} else {
		c.High24h = decimal.Max(c.High24h, tick.Price)
		c.Low24h = decimal.Min(c.Low24h, tick.Price)
	}
	c.Change24h = tick.Price.Sub(c.Open24h)
	c.ChangePct, _ = c.Change24h.Div(c.Open24h).Mul(decimal.NewFromInt(100)).Float64()
	c.Price = tick.Price
	c.LastTickAt = tick.Timestamp
	c.UpdatedAt = tick.Timestamp
	return true, nil
}

func (r *memCoinRepo) AppendCandle(_ context.Context, candle *domain.Candle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.candles[candle.CoinID] = append(r.candles[candle.CoinID], candle)
	return nil
}

func (r *memCoinRepo) GetCandles(_ context.Context, coinID string, _ int) ([]*domain.Candle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*domain.Candle(nil), r.candles[coinID]...), nil
}

type memSettingsRepo struct {
	settings *domain.TradingSettings
}

func (r *memSettingsRepo) Get(context.Context) (*domain.TradingSettings, error) {
	return r.settings, nil
}

func (r *memSettingsRepo) Update(_ context.Context, s *domain.TradingSettings) error {
	r.settings = s
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	prices []domain.PriceEvent
	events []domain.PositionEvent
}

func (p *recordingPublisher) PublishPrice(event domain.PriceEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prices = append(p.prices, event)
}

func (p *recordingPublisher) PublishPosition(_ uuid.UUID, event domain.PositionEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *recordingPublisher) priceEvents() []domain.PriceEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.PriceEvent(nil), p.prices...)
}

func (p *recordingPublisher) positionEvents() []domain.PositionEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.PositionEvent(nil), p.events...)
}
