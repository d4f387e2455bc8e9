package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ardentia/internal/domain"
	"ardentia/internal/usecase"
)

type stubPositionRepo struct {
	mu        sync.Mutex
	positions map[uuid.UUID]*domain.Position
	balances  map[uuid.UUID]decimal.Decimal
}

func newStubPositionRepo() *stubPositionRepo {
	return &stubPositionRepo{
		positions: make(map[uuid.UUID]*domain.Position),
		balances:  make(map[uuid.UUID]decimal.Decimal),
	}
}

func (r *stubPositionRepo) OpenAtomic(_ context.Context, p *domain.Position) error {
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

func (r *stubPositionRepo) CloseAtomic(_ context.Context, id uuid.UUID, exitPrice, pnl, credit decimal.Decimal, reason string, closedAt time.Time) (*domain.Position, error) {
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

func (r *stubPositionRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Position, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.positions[id]
	if !ok {
		return nil, domain.ErrPositionNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *stubPositionRepo) GetOpenByOwner(_ context.Context, ownerID uuid.UUID) ([]*domain.Position, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Position
	for _, p := range r.positions {
		if p.OwnerID == ownerID && p.Status == domain.PositionOpen {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *stubPositionRepo) GetHistoryByOwner(context.Context, uuid.UUID, int) ([]*domain.Position, error) {
	return nil, nil
}

func (r *stubPositionRepo) GetOpenBySymbol(context.Context, string) ([]*domain.Position, error) {
	return nil, nil
}

func (r *stubPositionRepo) GetOpen(context.Context) ([]*domain.Position, error) { return nil, nil }

func (r *stubPositionRepo) UpdateMark(context.Context, string, decimal.Decimal) error { return nil }

func (r *stubPositionRepo) CountOpen(context.Context) (int, error) { return 0, nil }

func (r *stubPositionRepo) TotalOpenMargin(context.Context) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

type stubCoinRepo struct {
	coin *domain.Coin
}

func (r *stubCoinRepo) GetAll(context.Context) ([]*domain.Coin, error) {
	return []*domain.Coin{r.coin}, nil
}

func (r *stubCoinRepo) GetByID(_ context.Context, id string) (*domain.Coin, error) {
	if r.coin.ID == id {
		return r.coin, nil
	}
	return nil, domain.ErrCoinNotFound
}

func (r *stubCoinRepo) GetBySymbol(_ context.Context, symbol string) (*domain.Coin, error) {
	if r.coin.Symbol == symbol {
		return r.coin, nil
	}
	return nil, domain.ErrCoinNotFound
}

func (r *stubCoinRepo) Seed(context.Context, []*domain.Coin) error { return nil }

func (r *stubCoinRepo) ApplyTick(context.Context, domain.Tick) (bool, error) { return true, nil }

func (r *stubCoinRepo) AppendCandle(context.Context, *domain.Candle) error { return nil }

func (r *stubCoinRepo) GetCandles(context.Context, string, int) ([]*domain.Candle, error) {
	return nil, nil
}

type stubSettingsRepo struct{}

func (stubSettingsRepo) Get(context.Context) (*domain.TradingSettings, error) {
	return domain.DefaultTradingSettings(), nil
}

func (stubSettingsRepo) Update(context.Context, *domain.TradingSettings) error { return nil }

type nopPublisher struct{}

func (nopPublisher) PublishPrice(domain.PriceEvent)                  {}
func (nopPublisher) PublishPosition(uuid.UUID, domain.PositionEvent) {}

type userHandlerFixture struct {
	handler   *UserHandler
	positions *stubPositionRepo
	userID    uuid.UUID
	e         *echo.Echo
}

func newUserHandlerFixture(t *testing.T) *userHandlerFixture {
	t.Helper()

	positions := newStubPositionRepo()
	userID := uuid.New()
	positions.balances[userID] = decimal.NewFromInt(50000)

	coins := &stubCoinRepo{coin: &domain.Coin{ID: "agc", Symbol: "AGC", Price: decimal.NewFromInt(100)}}
	trading := usecase.NewTradingService(positions, coins, stubSettingsRepo{}, nopPublisher{}, -95, 0.05, zerolog.Nop())

	return &userHandlerFixture{
		handler:   NewUserHandler(newStubUserRepo(), trading, nil),
		positions: positions,
		userID:    userID,
		e:         echo.New(),
	}
}

func (f *userHandlerFixture) request(t *testing.T, method, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := f.e.NewContext(req, rec)
	c.Set("user_id", f.userID)
	c.Set("role", domain.RolePlayer)
	return c, rec
}

func TestOpenPositionHandler(t *testing.T) {
	f := newUserHandlerFixture(t)

	c, rec := f.request(t, http.MethodPost, `{"symbol":"AGC","direction":"long","size":1000,"leverage":10}`)
	require.NoError(t, f.handler.OpenPosition(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	var body Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	data := body.Data.(map[string]interface{})
	assert.Equal(t, "AGC", data["symbol"])
	assert.Equal(t, "100", data["margin"])
	assert.Equal(t, "100", data["entry_price"])
	assert.Equal(t, domain.PositionOpen, data["status"])
}

func TestOpenPositionHandlerInsufficientBalance(t *testing.T) {
	f := newUserHandlerFixture(t)
	f.positions.balances[f.userID] = decimal.NewFromInt(10)

	c, rec := f.request(t, http.MethodPost, `{"symbol":"AGC","direction":"long","size":1000,"leverage":10}`)
	require.NoError(t, f.handler.OpenPosition(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestClosePositionHandler(t *testing.T) {
	f := newUserHandlerFixture(t)

	p := domain.NewPosition(f.userID, "AGC", domain.DirectionLong, decimal.NewFromInt(1000), 10, decimal.NewFromInt(100), nil, nil)
	cp := *p
	f.positions.positions[p.ID] = &cp

	c, rec := f.request(t, http.MethodPost, "")
	c.SetParamNames("id")
	c.SetParamValues(p.ID.String())

	require.NoError(t, f.handler.ClosePosition(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var body Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	data := body.Data.(map[string]interface{})
	assert.Equal(t, domain.PositionClosed, data["status"])
	assert.Equal(t, domain.CloseManual, data["close_reason"])
}

func TestClosePositionHandlerAlreadyClosed(t *testing.T) {
	f := newUserHandlerFixture(t)

	p := domain.NewPosition(f.userID, "AGC", domain.DirectionLong, decimal.NewFromInt(1000), 10, decimal.NewFromInt(100), nil, nil)
	p.Status = domain.PositionClosed
	cp := *p
	f.positions.positions[p.ID] = &cp

	c, rec := f.request(t, http.MethodPost, "")
	c.SetParamNames("id")
	c.SetParamValues(p.ID.String())

	require.NoError(t, f.handler.ClosePosition(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestClosePositionHandlerBadID(t *testing.T) {
	f := newUserHandlerFixture(t)

	c, rec := f.request(t, http.MethodPost, "")
	c.SetParamNames("id")
	c.SetParamValues("not-a-uuid")

	require.NoError(t, f.handler.ClosePosition(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
