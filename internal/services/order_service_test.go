package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/agamariel/cafetrack/internal/analytics"
	"github.com/agamariel/cafetrack/internal/events"
	"github.com/agamariel/cafetrack/internal/lifecycle"
	"github.com/agamariel/cafetrack/internal/logging"
	"github.com/agamariel/cafetrack/internal/models"
	"github.com/agamariel/cafetrack/internal/storage"
)

// recordingSyncer запоминает поставленные задачи.
type recordingSyncer struct {
	mu    sync.Mutex
	tasks []SyncTask
}

func (r *recordingSyncer) Enqueue(task SyncTask) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks = append(r.tasks, task)
	return true
}

func (r *recordingSyncer) last() SyncTask {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tasks[len(r.tasks)-1]
}

// testClock выдаёт моменты с шагом в минуту.
type testClock struct {
	t time.Time
}

func (c *testClock) now() time.Time {
	c.t = c.t.Add(time.Minute)
	return c.t
}

func newTestService(orders ...*models.Order) (*OrderServiceImpl, *recordingSyncer) {
	syncer := &recordingSyncer{}
	svc := NewOrderService(storage.NewOrderStore(orders...), nil, syncer, "main", logging.Discard())
	clock := &testClock{t: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
	svc.now = clock.now
	return svc, syncer
}

func TestOrderServiceImpl_Create(t *testing.T) {
	ctx := context.Background()
	svc, syncer := newTestService()

	o, err := svc.Create(ctx, models.CreateOrderRequest{})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if o.ID != 1 || o.Status != models.StatusQueue || o.Category != models.CategoryDineIn || o.Location != "main" {
		t.Errorf("Create() = %+v", o)
	}
	if task := syncer.last(); task.Op != SyncUpsert || task.Event != events.TypeCreated {
		t.Errorf("sync task = %+v", task)
	}

	o2, err := svc.Create(ctx, models.CreateOrderRequest{Location: "annex", Category: "delivery"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if o2.ID != 2 || o2.Category != models.CategoryDelivery || o2.Location != "annex" {
		t.Errorf("Create() = %+v", o2)
	}

	if _, err := svc.Create(ctx, models.CreateOrderRequest{Category: "drive-thru"}); !errors.Is(err, lifecycle.ErrRejectedEdit) {
		t.Errorf("unknown category error = %v, want ErrRejectedEdit", err)
	}
}

func TestOrderServiceImpl_FullLifecycle(t *testing.T) {
	ctx := context.Background()
	svc, syncer := newTestService()

	o, _ := svc.Create(ctx, models.CreateOrderRequest{Category: "Takeaway"})

	wantStatuses := []models.Status{models.StatusPayment, models.StatusPrep, models.StatusDone}
	for _, want := range wantStatuses {
		got, err := svc.Advance(ctx, o.ID)
		if err != nil {
			t.Fatalf("Advance() error = %v", err)
		}
		if got.Status != want {
			t.Fatalf("status = %s, want %s", got.Status, want)
		}
	}

	if _, err := svc.Advance(ctx, o.ID); !errors.Is(err, lifecycle.ErrInvalidTransition) {
		t.Errorf("Advance(done) error = %v, want ErrInvalidTransition", err)
	}

	done, _ := svc.Get(ctx, o.ID)
	if done.OrderedAt == nil || done.PaidAt == nil || done.DeliveredAt == nil {
		t.Fatalf("missing timestamps: %+v", done)
	}

	stats, err := svc.Summarize(ctx, analytics.Filter{Location: "main"})
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if stats.Count != 1 || stats.Average != 3*time.Minute {
		t.Errorf("stats = %+v", stats)
	}

	// 1 create + 3 advance; отклонённый переход не синхронизируется
	if len(syncer.tasks) != 4 {
		t.Errorf("sync tasks = %d, want 4", len(syncer.tasks))
	}
}

func TestOrderServiceImpl_Edits(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()
	o, _ := svc.Create(ctx, models.CreateOrderRequest{})

	tests := []struct {
		name    string
		call    func() (*models.Order, error)
		wantErr error
		check   func(t *testing.T, o *models.Order)
	}{
		{
			name: "rename",
			call: func() (*models.Order, error) { return svc.Rename(ctx, o.ID, "Table 7") },
			check: func(t *testing.T, o *models.Order) {
				if o.Name != "Table 7" {
					t.Errorf("Name = %q", o.Name)
				}
			},
		},
		{
			name: "set category in queue",
			call: func() (*models.Order, error) { return svc.SetCategory(ctx, o.ID, "pickup") },
			check: func(t *testing.T, o *models.Order) {
				if o.Category != models.CategoryPickup {
					t.Errorf("Category = %q", o.Category)
				}
			},
		},
		{
			name:    "blank comment",
			call:    func() (*models.Order, error) { return svc.AddComment(ctx, o.ID, "   ") },
			wantErr: lifecycle.ErrRejectedEdit,
		},
		{
			name: "comment",
			call: func() (*models.Order, error) { return svc.AddComment(ctx, o.ID, "allergic to nuts") },
			check: func(t *testing.T, o *models.Order) {
				if len(o.Comments) != 1 || o.Comments[0].At == nil {
					t.Errorf("Comments = %+v", o.Comments)
				}
			},
		},
		{
			name:    "mark paid while queued",
			call:    func() (*models.Order, error) { return svc.MarkPaid(ctx, o.ID) },
			wantErr: lifecycle.ErrPaymentEarly,
		},
		{
			name:    "missing order",
			call:    func() (*models.Order, error) { return svc.Rename(ctx, 999, "x") },
			wantErr: storage.ErrOrderNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.call()
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			tt.check(t, got)
		})
	}
}

func TestOrderServiceImpl_MarkPaidAfterServing(t *testing.T) {
	ctx := context.Background()
	svc, syncer := newTestService()

	o, _ := svc.Create(ctx, models.CreateOrderRequest{})
	_, _ = svc.Advance(ctx, o.ID) // prep
	served, _ := svc.Advance(ctx, o.ID)
	if served.Status != models.StatusServed {
		t.Fatalf("status = %s, want served", served.Status)
	}

	paid, err := svc.MarkPaid(ctx, o.ID)
	if err != nil {
		t.Fatalf("MarkPaid() error = %v", err)
	}
	if paid.Status != models.StatusServed || paid.PaidAt == nil || !paid.PaidAt.After(*paid.DeliveredAt) {
		t.Errorf("MarkPaid() = %+v", paid)
	}
	if task := syncer.last(); task.Event != events.TypePaid {
		t.Errorf("sync task = %+v", task)
	}

	done, err := svc.Advance(ctx, o.ID)
	if err != nil {
		t.Fatalf("Advance() error = %v", err)
	}
	if done.Status != models.StatusDone || !done.PaidAt.Equal(*paid.PaidAt) {
		t.Errorf("Advance() = %+v", done)
	}
}

func TestOrderServiceImpl_SetCategoryLocked(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()
	o, _ := svc.Create(ctx, models.CreateOrderRequest{})
	svc.Advance(ctx, o.ID)

	if _, err := svc.SetCategory(ctx, o.ID, "Takeaway"); !errors.Is(err, lifecycle.ErrCategoryLocked) {
		t.Errorf("SetCategory() error = %v, want ErrCategoryLocked", err)
	}
	got, _ := svc.Get(ctx, o.ID)
	if got.Category != models.CategoryDineIn {
		t.Errorf("category changed to %q", got.Category)
	}
}

func TestOrderServiceImpl_Cancel(t *testing.T) {
	ctx := context.Background()
	svc, syncer := newTestService()
	queued, _ := svc.Create(ctx, models.CreateOrderRequest{})
	started, _ := svc.Create(ctx, models.CreateOrderRequest{})
	svc.Advance(ctx, started.ID)

	if err := svc.Cancel(ctx, started.ID); !errors.Is(err, lifecycle.ErrNotCancelable) {
		t.Errorf("Cancel(started) error = %v, want ErrNotCancelable", err)
	}

	if err := svc.Cancel(ctx, queued.ID); err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	if task := syncer.last(); task.Op != SyncDelete || task.Orders[0].ID != queued.ID || task.Event != events.TypeCancelled {
		t.Errorf("sync task = %+v", task)
	}

	if err := svc.Cancel(ctx, queued.ID); !errors.Is(err, storage.ErrOrderNotFound) {
		t.Errorf("second Cancel() error = %v, want ErrOrderNotFound", err)
	}
}

func TestOrderServiceImpl_Views(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	a, _ := svc.Create(ctx, models.CreateOrderRequest{})
	b, _ := svc.Create(ctx, models.CreateOrderRequest{Category: "Takeaway"})
	svc.Create(ctx, models.CreateOrderRequest{Location: "annex"})

	for i := 0; i < 3; i++ {
		svc.Advance(ctx, b.ID)
	}

	active := svc.Active(ctx, "main")
	if len(active) != 1 || active[0].ID != a.ID {
		t.Errorf("Active(main) = %v", active)
	}
	if got := svc.CountActive(ctx, ""); got != 1 {
		t.Errorf("CountActive(\"\") = %d, want 1", got)
	}
	if got := svc.CountActive(ctx, "annex"); got != 1 {
		t.Errorf("CountActive(annex) = %d, want 1", got)
	}

	if h := svc.History(ctx, "main", models.ClassOther); len(h) != 1 || h[0].ID != b.ID {
		t.Errorf("History(main, other) = %v", h)
	}
	if h := svc.History(ctx, "main", models.ClassDineIn); len(h) != 0 {
		t.Errorf("History(main, dine-in) = %v", h)
	}
}

func TestOrderServiceImpl_Summarize_NoData(t *testing.T) {
	svc, _ := newTestService()
	svc.Create(context.Background(), models.CreateOrderRequest{})

	if _, err := svc.Summarize(context.Background(), analytics.Filter{}); !errors.Is(err, analytics.ErrNoData) {
		t.Errorf("Summarize() error = %v, want ErrNoData", err)
	}
}

func ms(v int64) *int64 { return &v }

func TestOrderServiceImpl_Import(t *testing.T) {
	ctx := context.Background()
	svc, syncer := newTestService(&models.Order{
		ID: 2, Status: models.StatusQueue, Category: models.CategoryDineIn, EnteredAt: time.UnixMilli(1_000),
	})

	records := []models.Record{
		{ID: 1, Tag: "Takeaway", Status: "done", EnteredAt: ms(1_000), OrderedAt: ms(2_000), PaidAt: ms(3_000), DeliveredAt: ms(4_000)},
		{ID: 2, Status: "queue", EnteredAt: ms(1_000)},
		{ID: 3, Status: "bogus", EnteredAt: ms(1_000)},
		{ID: 4, Status: "served", EnteredAt: ms(1_000)},
	}

	resp, err := svc.Import(ctx, records)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if resp.Imported != 2 || resp.Skipped != 2 {
		t.Errorf("Import() = %+v, want 2 imported, 2 skipped", resp)
	}

	imported, err := svc.Get(ctx, 1)
	if err != nil {
		t.Fatalf("Get(1) error = %v", err)
	}
	if imported.Location != "main" || imported.Category != models.CategoryTakeaway {
		t.Errorf("imported = %+v", imported)
	}

	task := syncer.last()
	if task.Op != SyncBatch || len(task.Orders) != 2 || task.Event != events.TypeImported {
		t.Errorf("sync task = %+v", task)
	}
}

func TestOrderServiceImpl_Load(t *testing.T) {
	entered := time.UnixMilli(1_700_000_000_000)
	durable := &storage.MockOrderStorage{
		LoadAllFunc: func(ctx context.Context) ([]*models.Order, error) {
			return []*models.Order{
				{ID: 5, Status: models.StatusPrep, Category: models.CategoryDineIn, Location: "main", EnteredAt: entered},
				{ID: 4, Status: models.StatusQueue, Category: models.CategoryDineIn, EnteredAt: entered},
			}, nil
		},
	}
	svc := NewOrderService(storage.NewOrderStore(), durable, nil, "downtown", logging.Discard())

	if err := svc.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	o, err := svc.Create(context.Background(), models.CreateOrderRequest{})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if o.ID != 6 {
		t.Errorf("id after load = %d, want 6", o.ID)
	}
	if legacy, _ := svc.Get(context.Background(), 4); legacy.Location != "downtown" {
		t.Errorf("loaded order without location = %q, want downtown", legacy.Location)
	}
	if got := svc.CountActive(context.Background(), ""); got != 2 {
		t.Errorf("CountActive(default) = %d, want 2", got)
	}

	failing := &storage.MockOrderStorage{
		LoadAllFunc: func(ctx context.Context) ([]*models.Order, error) { return nil, errors.New("db down") },
	}
	svc = NewOrderService(storage.NewOrderStore(), failing, nil, "", logging.Discard())
	if err := svc.Load(context.Background()); err == nil {
		t.Error("expected load error")
	}
}
