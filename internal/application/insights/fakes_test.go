package insights_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tu-usuario/medstock-pro/internal/application/insights"
	"github.com/tu-usuario/medstock-pro/internal/application/ports"
	"github.com/tu-usuario/medstock-pro/internal/domain/entity"
	"github.com/tu-usuario/medstock-pro/internal/domain/repository"
)

var errFakeDB = errors.New("fallo simulado de base de datos")

// ──────────────────────────────────────────────────────────────────────────────
// Fakes en memoria de los puertos de repositorio
// ──────────────────────────────────────────────────────────────────────────────

type fakeItemRepo struct {
	mu    sync.Mutex
	items map[string]*entity.Item

	lastFilter repository.ItemFilter
}

func newFakeItemRepo(items ...entity.Item) *fakeItemRepo {
	r := &fakeItemRepo{items: map[string]*entity.Item{}}
	for i := range items {
		it := items[i]
		r.items[it.ID] = &it
	}
	return r
}

func (r *fakeItemRepo) GetByID(_ context.Context, id string) (*entity.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.items[id]
	if !ok {
		return nil, nil
	}
	cp := *it
	return &cp, nil
}

func (r *fakeItemRepo) matches(it *entity.Item, f repository.ItemFilter) bool {
	if f.UnassignedOnly && it.LocationID != nil {
		return false
	}
	if f.LocationID != nil && (it.LocationID == nil || *it.LocationID != *f.LocationID) {
		return false
	}
	if len(f.IDs) > 0 {
		found := false
		for _, id := range f.IDs {
			if id == it.ID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (r *fakeItemRepo) ListInStock(_ context.Context, orgID string, f repository.ItemFilter) ([]entity.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastFilter = f
	var out []entity.Item
	// Orden determinista por nombre, como el adaptador real.
	for _, it := range r.sortedByName() {
		if it.OrganizationID == orgID && it.Quantity > 0 && r.matches(it, f) {
			out = append(out, *it)
		}
	}
	return out, nil
}

func (r *fakeItemRepo) ListExpiringWithin(_ context.Context, orgID string, days int, f repository.ItemFilter) ([]entity.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastFilter = f
	limit := time.Now().AddDate(0, 0, days)
	var out []entity.Item
	for _, it := range r.sortedByName() {
		if it.OrganizationID != orgID || it.Quantity <= 0 || it.ExpirationDate == nil {
			continue
		}
		if it.ExpirationDate.After(time.Now()) && !it.ExpirationDate.After(limit) && r.matches(it, f) {
			out = append(out, *it)
		}
	}
	return out, nil
}

func (r *fakeItemRepo) UpdateQuantity(_ context.Context, id string, quantity int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.items[id]
	if !ok {
		return fmt.Errorf("item %s no existe", id)
	}
	it.Quantity = quantity
	return nil
}

func (r *fakeItemRepo) sortedByName() []*entity.Item {
	out := make([]*entity.Item, 0, len(r.items))
	for _, it := range r.items {
		out = append(out, it)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Name < out[j-1].Name; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

type fakePredictionRepo struct {
	mu   sync.Mutex
	rows map[string]*entity.Prediction // por ID

	creates   int
	refreshes int
	failFind  bool
}

func newFakePredictionRepo() *fakePredictionRepo {
	return &fakePredictionRepo{rows: map[string]*entity.Prediction{}}
}

func (r *fakePredictionRepo) FindLive(_ context.Context, orgID, itemID string, kind entity.PredictionKind) (*entity.Prediction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failFind {
		return nil, errFakeDB
	}
	for _, p := range r.rows {
		if p.OrganizationID == orgID && p.ItemID == itemID && p.Kind == kind && !p.Actioned {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakePredictionRepo) Create(_ context.Context, p *entity.Prediction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ex := range r.rows {
		if ex.OrganizationID == p.OrganizationID && ex.ItemID == p.ItemID && ex.Kind == p.Kind && !ex.Actioned {
			return fmt.Errorf("violación de unicidad de fila viva")
		}
	}
	cp := *p
	r.rows[p.ID] = &cp
	r.creates++
	return nil
}

func (r *fakePredictionRepo) Refresh(_ context.Context, id string, value json.RawMessage, confidence float64, rationale string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.rows[id]
	if !ok || p.Actioned {
		return errFakeDB
	}
	p.Value = value
	p.Confidence = confidence
	p.Rationale = rationale
	p.ExpiresAt = expiresAt
	r.refreshes++
	return nil
}

func (r *fakePredictionRepo) Close(_ context.Context, id string, feedbackScore int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.rows[id]
	if !ok {
		return errFakeDB
	}
	p.Actioned = true
	p.FeedbackScore = feedbackScore
	return nil
}

// liveCount cuenta las filas no accionadas para una tripleta.
func (r *fakePredictionRepo) liveCount(orgID, itemID string, kind entity.PredictionKind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, p := range r.rows {
		if p.OrganizationID == orgID && p.ItemID == itemID && p.Kind == kind && !p.Actioned {
			n++
		}
	}
	return n
}

type fakeChangeRepo struct {
	mu      sync.Mutex
	usage   map[string]int
	created []entity.InventoryChange
	fail    bool
}

func newFakeChangeRepo(usage map[string]int) *fakeChangeRepo {
	if usage == nil {
		usage = map[string]int{}
	}
	return &fakeChangeRepo{usage: usage}
}

func (r *fakeChangeRepo) Create(_ context.Context, ch *entity.InventoryChange) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errFakeDB
	}
	r.created = append(r.created, *ch)
	return nil
}

func (r *fakeChangeRepo) UsageSince(_ context.Context, _ string, itemIDs []string, _ time.Time) (map[string]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return nil, errFakeDB
	}
	out := map[string]int{}
	for _, id := range itemIDs {
		if u, ok := r.usage[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

type fakeOrgRepo struct {
	org      *entity.Organization
	features map[string]bool
	fail     bool
}

func (r *fakeOrgRepo) GetByID(context.Context, string) (*entity.Organization, error) {
	if r.fail {
		return nil, errFakeDB
	}
	return r.org, nil
}

func (r *fakeOrgRepo) HasFeature(_ context.Context, _, feature string) (bool, error) {
	if r.fail {
		return false, errFakeDB
	}
	return r.features[feature], nil
}

type fakeSupplierRepo struct {
	prefs       map[string]entity.SupplierPreference
	catalog     map[string][]entity.SupplierCatalogEntry // por item_id
	failCatalog bool
	failPrefs   bool
}

func (r *fakeSupplierRepo) PreferencesByOrg(context.Context, string) (map[string]entity.SupplierPreference, error) {
	if r.failPrefs {
		return nil, errFakeDB
	}
	if r.prefs == nil {
		return map[string]entity.SupplierPreference{}, nil
	}
	return r.prefs, nil
}

func (r *fakeSupplierRepo) CatalogByItem(_ context.Context, itemID string) ([]entity.SupplierCatalogEntry, error) {
	if r.failCatalog {
		return nil, errFakeDB
	}
	return r.catalog[itemID], nil
}

type fakeUsageRepo struct {
	mu     sync.Mutex
	counts map[string]int // org|feature|month
	fail   bool
}

func newFakeUsageRepo() *fakeUsageRepo {
	return &fakeUsageRepo{counts: map[string]int{}}
}

func (r *fakeUsageRepo) Increment(_ context.Context, orgID, featureType, month string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errFakeDB
	}
	r.counts[orgID+"|"+featureType+"|"+month]++
	return nil
}

func (r *fakeUsageRepo) Get(_ context.Context, orgID, featureType, month string) (*entity.AIFeatureUsage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.counts[orgID+"|"+featureType+"|"+month]
	if !ok {
		return nil, nil
	}
	return &entity.AIFeatureUsage{
		ID: uuid.New().String(), OrganizationID: orgID,
		FeatureType: featureType, Month: month, Count: n,
	}, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Scorer y TxRunner de prueba
// ──────────────────────────────────────────────────────────────────────────────

// fakeScorer devuelve resultados precalculados por item y falla para los IDs marcados.
type fakeScorer struct {
	reorder map[string]*ports.ScoreResult
	waste   map[string]*ports.ScoreResult
	failFor map[string]bool
}

func (s *fakeScorer) ScoreReorder(_ context.Context, in ports.ScoringInput) (*ports.ScoreResult, error) {
	if s.failFor[in.Item.ID] {
		return nil, errors.New("scorer simulado falló")
	}
	return s.reorder[in.Item.ID], nil
}

func (s *fakeScorer) ScoreWasteRisk(_ context.Context, in ports.ScoringInput) (*ports.ScoreResult, error) {
	if s.failFor[in.Item.ID] {
		return nil, errors.New("scorer simulado falló")
	}
	return s.waste[in.Item.ID], nil
}

// fakeTxRunner ejecuta la función directamente sobre los fakes, sin transacción.
type fakeTxRunner struct {
	predRepo   *fakePredictionRepo
	itemRepo   *fakeItemRepo
	changeRepo *fakeChangeRepo
}

var _ insights.TxRunner = (*fakeTxRunner)(nil)

func (r *fakeTxRunner) Run(ctx context.Context, fn func(
	predRepo repository.PredictionRepository,
	itemRepo repository.ItemRepository,
	changeRepo repository.InventoryChangeRepository,
) error) error {
	return fn(r.predRepo, r.itemRepo, r.changeRepo)
}

// ──────────────────────────────────────────────────────────────────────────────
// Constructores de resultados de scoring
// ──────────────────────────────────────────────────────────────────────────────

func reorderResult(days int, qty int, tier entity.PriorityTier) *ports.ScoreResult {
	d := days
	return &ports.ScoreResult{
		Value: entity.PredictionValue{
			Kind: entity.PredictionKindReorder,
			Reorder: &entity.ReorderValue{
				DaysUntilReorder:    &d,
				RecommendedQuantity: qty,
				Priority:            tier,
			},
		},
		Confidence: 0.8,
		Rationale:  "proyección de prueba",
		ExpiresAt:  time.Now().Add(7 * 24 * time.Hour),
	}
}

func noReorderResult() *ports.ScoreResult {
	return &ports.ScoreResult{
		Value: entity.PredictionValue{
			Kind:    entity.PredictionKindReorder,
			Reorder: &entity.ReorderValue{DaysUntilReorder: nil, Priority: entity.TierLow},
		},
		Confidence: 0.3,
		Rationale:  "sin consumo",
		ExpiresAt:  time.Now().Add(7 * 24 * time.Hour),
	}
}
