package purchasing_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tu-usuario/medstock-pro/internal/application/dto"
	"github.com/tu-usuario/medstock-pro/internal/application/insights"
	"github.com/tu-usuario/medstock-pro/internal/application/purchasing"
	"github.com/tu-usuario/medstock-pro/internal/domain"
	"github.com/tu-usuario/medstock-pro/internal/domain/entity"
	"github.com/tu-usuario/medstock-pro/internal/domain/repository"
	"github.com/tu-usuario/medstock-pro/pkg/logger"
)

const (
	testOrg  = "org-1"
	testUser = "user-1"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fakes en memoria
// ──────────────────────────────────────────────────────────────────────────────

type fakeItemRepo struct{ items map[string]*entity.Item }

func (r *fakeItemRepo) GetByID(_ context.Context, id string) (*entity.Item, error) {
	it, ok := r.items[id]
	if !ok {
		return nil, nil
	}
	cp := *it
	return &cp, nil
}
func (r *fakeItemRepo) ListInStock(context.Context, string, repository.ItemFilter) ([]entity.Item, error) {
	return nil, nil
}
func (r *fakeItemRepo) ListExpiringWithin(context.Context, string, int, repository.ItemFilter) ([]entity.Item, error) {
	return nil, nil
}
func (r *fakeItemRepo) UpdateQuantity(context.Context, string, int) error { return nil }

type fakePredRepo struct{ live map[string]*entity.Prediction } // por item_id

func (r *fakePredRepo) FindLive(_ context.Context, _, itemID string, kind entity.PredictionKind) (*entity.Prediction, error) {
	p, ok := r.live[itemID]
	if !ok || p.Kind != kind {
		return nil, nil
	}
	return p, nil
}
func (r *fakePredRepo) Create(context.Context, *entity.Prediction) error { return nil }
func (r *fakePredRepo) Refresh(context.Context, string, json.RawMessage, float64, string, time.Time) error {
	return nil
}
func (r *fakePredRepo) Close(context.Context, string, int) error { return nil }

type fakeOrgRepo struct{ org *entity.Organization }

func (r *fakeOrgRepo) GetByID(context.Context, string) (*entity.Organization, error) {
	return r.org, nil
}
func (r *fakeOrgRepo) HasFeature(context.Context, string, string) (bool, error) { return true, nil }

type fakeSupplierRepo struct{ catalog []entity.SupplierCatalogEntry }

func (r *fakeSupplierRepo) PreferencesByOrg(context.Context, string) (map[string]entity.SupplierPreference, error) {
	return map[string]entity.SupplierPreference{}, nil
}
func (r *fakeSupplierRepo) CatalogByItem(context.Context, string) ([]entity.SupplierCatalogEntry, error) {
	return r.catalog, nil
}

// fakeOrderRepo guarda órdenes y líneas en memoria y simula el índice único
// de item dentro de órdenes abiertas.
type fakeOrderRepo struct {
	orders map[string]*entity.PurchaseOrder
	lines  map[string][]entity.PurchaseOrderItem // por order_id

	// raceWinner, si está seteado, se inserta justo antes del re-chequeo en tx
	// para simular un request concurrente que ganó la carrera.
	raceWinner func()
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{
		orders: map[string]*entity.PurchaseOrder{},
		lines:  map[string][]entity.PurchaseOrderItem{},
	}
}

func (r *fakeOrderRepo) isOpen(status string) bool {
	for _, s := range entity.OpenOrderStatuses() {
		if s == status {
			return true
		}
	}
	return false
}

func (r *fakeOrderRepo) FindOpenByItem(_ context.Context, orgID, itemID string) (*entity.PurchaseOrder, error) {
	for _, o := range r.orders {
		if o.OrganizationID != orgID || !r.isOpen(o.Status) {
			continue
		}
		for _, li := range r.lines[o.ID] {
			if li.ItemID == itemID {
				cp := *o
				return &cp, nil
			}
		}
	}
	return nil, nil
}

func (r *fakeOrderRepo) ListOpenByItems(ctx context.Context, orgID string, itemIDs []string) ([]entity.PurchaseOrder, error) {
	var out []entity.PurchaseOrder
	seen := map[string]bool{}
	for _, id := range itemIDs {
		o, _ := r.FindOpenByItem(ctx, orgID, id)
		if o != nil && !seen[o.ID] {
			seen[o.ID] = true
			out = append(out, *o)
		}
	}
	return out, nil
}

func (r *fakeOrderRepo) ListItemsByOrders(_ context.Context, orderIDs []string) ([]entity.PurchaseOrderItem, error) {
	var out []entity.PurchaseOrderItem
	for _, id := range orderIDs {
		out = append(out, r.lines[id]...)
	}
	return out, nil
}

func (r *fakeOrderRepo) CreateOrder(_ context.Context, o *entity.PurchaseOrder) error {
	cp := *o
	r.orders[o.ID] = &cp
	return nil
}

func (r *fakeOrderRepo) CreateOrderItem(_ context.Context, li *entity.PurchaseOrderItem) error {
	o, ok := r.orders[li.PurchaseOrderID]
	if !ok {
		return errors.New("orden inexistente")
	}
	// Índice único parcial: un item no puede aparecer en dos órdenes abiertas.
	for _, other := range r.orders {
		if other.OrganizationID != o.OrganizationID || !r.isOpen(other.Status) || other.ID == o.ID {
			continue
		}
		for _, ex := range r.lines[other.ID] {
			if ex.ItemID == li.ItemID {
				return domain.ErrDuplicate
			}
		}
	}
	r.lines[li.PurchaseOrderID] = append(r.lines[li.PurchaseOrderID], *li)
	return nil
}

func (r *fakeOrderRepo) seedOpenOrder(itemID string, status string, qty int) *entity.PurchaseOrder {
	o := &entity.PurchaseOrder{
		ID: uuid.New().String(), OrganizationID: testOrg,
		CreatedBy: testUser, Status: status, Source: entity.OrderSourceAIInsights,
		TotalEstimatedCost: decimal.NewFromInt(int64(qty)),
	}
	r.orders[o.ID] = o
	r.lines[o.ID] = []entity.PurchaseOrderItem{{
		ID: uuid.New().String(), PurchaseOrderID: o.ID, ItemID: itemID,
		Quantity: qty, UnitCost: decimal.NewFromInt(1), EstimatedCost: decimal.NewFromInt(int64(qty)),
	}}
	return o
}

type fakeTxRunner struct {
	orderRepo *fakeOrderRepo
}

var _ purchasing.TxRunner = (*fakeTxRunner)(nil)

func (r *fakeTxRunner) RunPurchasing(ctx context.Context, fn func(orderRepo repository.PurchaseOrderRepository) error) error {
	if r.orderRepo.raceWinner != nil {
		r.orderRepo.raceWinner()
		r.orderRepo.raceWinner = nil
	}
	return fn(r.orderRepo)
}

// ──────────────────────────────────────────────────────────────────────────────
// Fixture
// ──────────────────────────────────────────────────────────────────────────────

type draftFixture struct {
	itemRepo  *fakeItemRepo
	predRepo  *fakePredRepo
	orderRepo *fakeOrderRepo
	orgRepo   *fakeOrgRepo
	uc        *purchasing.DraftUseCase
}

func newDraftFixture(requireApproval bool, items ...entity.Item) *draftFixture {
	itemRepo := &fakeItemRepo{items: map[string]*entity.Item{}}
	for i := range items {
		it := items[i]
		itemRepo.items[it.ID] = &it
	}
	predRepo := &fakePredRepo{live: map[string]*entity.Prediction{}}
	orderRepo := newFakeOrderRepo()
	orgRepo := &fakeOrgRepo{org: &entity.Organization{
		ID: testOrg, Name: "Clínica Norte", Status: "active",
		AI: entity.AISettings{RequireApproval: requireApproval},
	}}
	ranker := insights.NewSupplierRanker(&fakeSupplierRepo{})
	uc := purchasing.NewDraftUseCase(
		&fakeTxRunner{orderRepo: orderRepo},
		orderRepo, itemRepo, predRepo, orgRepo, ranker, logger.Nop(),
	)
	return &draftFixture{itemRepo: itemRepo, predRepo: predRepo, orderRepo: orderRepo, orgRepo: orgRepo, uc: uc}
}

func testItem(id string, qty, threshold int, cost float64) entity.Item {
	return entity.Item{
		ID: id, OrganizationID: testOrg, Name: "Guantes",
		Quantity: qty, UnitCost: decimal.NewFromFloat(cost), ReorderThreshold: threshold,
	}
}

func seedReorderPrediction(f *draftFixture, itemID string, recommended int) string {
	raw, _ := json.Marshal(entity.ReorderValue{RecommendedQuantity: recommended, Priority: entity.TierHigh})
	p := &entity.Prediction{
		ID: uuid.New().String(), OrganizationID: testOrg, ItemID: itemID,
		Kind: entity.PredictionKindReorder, Value: raw,
	}
	f.predRepo.live[itemID] = p
	return p.ID
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests
// ──────────────────────────────────────────────────────────────────────────────

func TestDraft_CreaBorradorConLineaUnica(t *testing.T) {
	f := newDraftFixture(false, testItem("a", 5, 10, 2.50))

	res, err := f.uc.CreateOrGet(context.Background(), testOrg, testUser,
		dto.CreateDraftRequest{ItemID: "a", Quantity: 40})
	require.NoError(t, err)

	assert.False(t, res.Existing)
	assert.Equal(t, entity.OrderStatusDraft, res.Draft.Status)
	assert.Equal(t, entity.OrderSourceAIInsights, res.Draft.Source)
	require.Len(t, res.Draft.Items, 1)
	assert.Equal(t, 40, res.Draft.Items[0].Quantity)
	// Sin catálogo: costeo por costo propio, 40 × 2.50.
	assert.True(t, decimal.NewFromInt(100).Equal(res.Draft.TotalEstimatedCost),
		"total esperado 100.00, got %s", res.Draft.TotalEstimatedCost)
}

func TestDraft_SegundaLlamadaDevuelveLaMismaOrden(t *testing.T) {
	f := newDraftFixture(false, testItem("a", 5, 10, 1))

	first, err := f.uc.CreateOrGet(context.Background(), testOrg, testUser,
		dto.CreateDraftRequest{ItemID: "a", Quantity: 40})
	require.NoError(t, err)

	second, err := f.uc.CreateOrGet(context.Background(), testOrg, testUser,
		dto.CreateDraftRequest{ItemID: "a", Quantity: 99})
	require.NoError(t, err)

	assert.True(t, second.Existing, "la segunda llamada no crea una orden nueva")
	assert.Equal(t, first.Draft.ID, second.Draft.ID)
	assert.Len(t, f.orderRepo.orders, 1)
}

func TestDraft_OrdenAbiertaPreviaBloqueaCreacion(t *testing.T) {
	f := newDraftFixture(false, testItem("a", 5, 10, 1))
	seeded := f.orderRepo.seedOpenOrder("a", entity.OrderStatusPendingApproval, 20)

	res, err := f.uc.CreateOrGet(context.Background(), testOrg, testUser,
		dto.CreateDraftRequest{ItemID: "a"})
	require.NoError(t, err)
	assert.True(t, res.Existing)
	assert.Equal(t, seeded.ID, res.Draft.ID)
}

func TestDraft_OrdenRecibidaNoBloquea(t *testing.T) {
	f := newDraftFixture(false, testItem("a", 5, 10, 1))
	f.orderRepo.seedOpenOrder("a", entity.OrderStatusReceived, 20) // estado terminal

	res, err := f.uc.CreateOrGet(context.Background(), testOrg, testUser,
		dto.CreateDraftRequest{ItemID: "a", Quantity: 15})
	require.NoError(t, err)
	assert.False(t, res.Existing, "una orden ya recibida no cuenta como abierta")
}

func TestDraft_CadenaDeCantidad(t *testing.T) {
	t.Run("explicita gana a la prediccion", func(t *testing.T) {
		f := newDraftFixture(false, testItem("a", 5, 10, 1))
		seedReorderPrediction(f, "a", 40)

		res, err := f.uc.CreateOrGet(context.Background(), testOrg, testUser,
			dto.CreateDraftRequest{ItemID: "a", Quantity: 7})
		require.NoError(t, err)
		assert.Equal(t, 7, res.Draft.Items[0].Quantity)
		assert.Empty(t, res.Draft.Items[0].PredictionID)
	})

	t.Run("prediccion viva gana al umbral", func(t *testing.T) {
		f := newDraftFixture(false, testItem("a", 5, 10, 1))
		predID := seedReorderPrediction(f, "a", 40)

		res, err := f.uc.CreateOrGet(context.Background(), testOrg, testUser,
			dto.CreateDraftRequest{ItemID: "a"})
		require.NoError(t, err)
		assert.Equal(t, 40, res.Draft.Items[0].Quantity)
		assert.Equal(t, predID, res.Draft.Items[0].PredictionID,
			"la línea referencia la predicción que originó la cantidad")
	})

	t.Run("umbral como ultimo recurso", func(t *testing.T) {
		f := newDraftFixture(false, testItem("a", 5, 10, 1))

		res, err := f.uc.CreateOrGet(context.Background(), testOrg, testUser,
			dto.CreateDraftRequest{ItemID: "a"})
		require.NoError(t, err)
		assert.Equal(t, 10, res.Draft.Items[0].Quantity)
	})

	t.Run("sin ninguna fuente es invalido", func(t *testing.T) {
		f := newDraftFixture(false, testItem("a", 5, 0, 1))

		_, err := f.uc.CreateOrGet(context.Background(), testOrg, testUser,
			dto.CreateDraftRequest{ItemID: "a"})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestDraft_AprobacionRequeridaNaceEnPendingApproval(t *testing.T) {
	f := newDraftFixture(true, testItem("a", 5, 10, 1))

	res, err := f.uc.CreateOrGet(context.Background(), testOrg, testUser,
		dto.CreateDraftRequest{ItemID: "a", Quantity: 10})
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusPendingApproval, res.Draft.Status)
}

func TestDraft_CarreraConcurrenteDevuelveLaOrdenGanadora(t *testing.T) {
	f := newDraftFixture(false, testItem("a", 5, 10, 1))

	// El "otro request" inserta su orden entre el pre-chequeo y la tx.
	var winner *entity.PurchaseOrder
	f.orderRepo.raceWinner = func() {
		winner = f.orderRepo.seedOpenOrder("a", entity.OrderStatusDraft, 33)
	}

	res, err := f.uc.CreateOrGet(context.Background(), testOrg, testUser,
		dto.CreateDraftRequest{ItemID: "a", Quantity: 10})
	require.NoError(t, err)
	assert.True(t, res.Existing)
	assert.Equal(t, winner.ID, res.Draft.ID)
	assert.Len(t, f.orderRepo.orders, 1, "la carrera nunca produce dos órdenes abiertas")
}

func TestDraft_ItemAjenoONoExistenteEs404(t *testing.T) {
	f := newDraftFixture(false)

	_, err := f.uc.CreateOrGet(context.Background(), testOrg, testUser,
		dto.CreateDraftRequest{ItemID: "nope", Quantity: 5})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	ajeno := testItem("b", 5, 10, 1)
	ajeno.OrganizationID = "org-ajena"
	f.itemRepo.items["b"] = &ajeno
	_, err = f.uc.CreateOrGet(context.Background(), testOrg, testUser,
		dto.CreateDraftRequest{ItemID: "b", Quantity: 5})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDraft_LookupBatchPorItems(t *testing.T) {
	f := newDraftFixture(false, testItem("a", 5, 10, 1), testItem("b", 5, 10, 1))
	f.orderRepo.seedOpenOrder("a", entity.OrderStatusDraft, 10)

	res, err := f.uc.DraftsForItems(context.Background(), testOrg, []string{"a", "b"})
	require.NoError(t, err)
	require.Len(t, res.Drafts, 1)
	assert.Equal(t, "a", res.Drafts[0].Items[0].ItemID)

	_, err = f.uc.DraftsForItems(context.Background(), testOrg, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
