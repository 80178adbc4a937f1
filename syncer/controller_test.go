package syncer

import (
	"context"
	"errors"
	"reflect"
	"regexp"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"caresite/confirm"
	"caresite/gateway"
	"caresite/models"
	"caresite/notify"
	"caresite/storage"
	"caresite/toast"

	"log"
	"os"
)

type testEnv struct {
	ctrl   *Controller
	gw     *gateway.Gateway
	toasts *toast.Notifier
	broker *notify.Broker
	db     *gorm.DB
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := models.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	bucket, err := storage.NewBucket("media", t.TempDir(), "http://localhost:5000/storage")
	if err != nil {
		t.Fatalf("new bucket: %v", err)
	}

	broker := notify.NewBroker()
	t.Cleanup(broker.Close)

	toasts := toast.NewNotifier(time.Minute)
	t.Cleanup(toasts.Close)

	gw := gateway.New(db, bucket, broker)
	ctrl := NewController(gw, toasts, log.New(os.Stdout, "SYNC-TEST: ", log.LstdFlags))
	ctrl.SetStepDelay(0)

	if err := ctrl.Start(context.Background(), broker); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(ctrl.Stop)

	return &testEnv{ctrl: ctrl, gw: gw, toasts: toasts, broker: broker, db: db}
}

func lastToast(t *testing.T, n *toast.Notifier) toast.Toast {
	t.Helper()
	active := n.Active()
	if len(active) == 0 {
		t.Fatal("no toasts pushed")
	}
	return active[len(active)-1]
}

func TestPlanOrdering(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	base := time.Now()
	for _, p := range []*models.Plan{
		{Name: "C", Price: "$3", CreatedAt: base.Add(2 * time.Second)},
		{Name: "A", Price: "$1", CreatedAt: base},
		{Name: "P2", Price: "$5", IsPrimary: true, CreatedAt: base.Add(3 * time.Second)},
		{Name: "B", Price: "$2", CreatedAt: base.Add(time.Second)},
		{Name: "P1", Price: "$4", IsPrimary: true, CreatedAt: base.Add(time.Millisecond)},
	} {
		if err := env.gw.InsertPlan(ctx, p); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	if err := env.ctrl.RefreshPlans(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	plans := env.ctrl.Plans()
	var names []string
	for _, p := range plans {
		names = append(names, p.Name)
	}
	want := []string{"P1", "P2", "A", "B", "C"}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("order = %v, want %v", names, want)
	}

	// Every primary plan sorts before every non-primary plan.
	seenNonPrimary := false
	for _, p := range plans {
		if !p.IsPrimary {
			seenNonPrimary = true
		} else if seenNonPrimary {
			t.Fatal("primary plan sorted after a non-primary plan")
		}
	}
}

func TestRefreshIdempotence(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.ctrl.AddPlan(ctx, "Basic", "$10", "Wifi", false); err != nil {
		t.Fatalf("add: %v", err)
	}

	if err := env.ctrl.RefreshPlans(ctx); err != nil {
		t.Fatalf("refresh 1: %v", err)
	}
	first := env.ctrl.Plans()
	if err := env.ctrl.RefreshPlans(ctx); err != nil {
		t.Fatalf("refresh 2: %v", err)
	}
	second := env.ctrl.Plans()

	if !reflect.DeepEqual(first, second) {
		t.Fatal("back-to-back refreshes produced different mirrors")
	}
}

func TestAddPlanScenario(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	before := len(env.ctrl.Plans())

	plan, err := env.ctrl.AddPlan(ctx, "Basic", "$10", "Wifi, Support", false)
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	plans := env.ctrl.Plans()
	if len(plans) != before+1 {
		t.Fatalf("collection grew by %d, want 1", len(plans)-before)
	}

	if plan.Features != "Wifi, Support" {
		t.Fatalf("stored features = %q, want %q", plan.Features, "Wifi, Support")
	}
	if got := plan.FeatureList(); !reflect.DeepEqual(got, []string{"Wifi", "Support"}) {
		t.Fatalf("feature list = %v, want [Wifi Support]", got)
	}
	if plan.IsPrimary {
		t.Fatal("is_primary should be false")
	}
	if lastToast(t, env.toasts).Severity != toast.SeveritySuccess {
		t.Fatal("expected success toast")
	}
}

func TestAddPlanNormalizesMessyFeatures(t *testing.T) {
	env := newTestEnv(t)

	plan, err := env.ctrl.AddPlan(context.Background(), "Messy", "$5", "a, ,b,,c ", false)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if plan.Features != "a, b, c" {
		t.Fatalf("stored features = %q, want %q", plan.Features, "a, b, c")
	}
}

func TestAddPlanRequiresNameAndPrice(t *testing.T) {
	env := newTestEnv(t)

	if _, err := env.ctrl.AddPlan(context.Background(), "", "$10", "", false); !errors.Is(err, ErrMissingRequiredFields) {
		t.Fatalf("err = %v, want ErrMissingRequiredFields", err)
	}
	if lastToast(t, env.toasts).Severity != toast.SeverityError {
		t.Fatal("expected error toast")
	}
	if len(env.ctrl.Plans()) != 0 {
		t.Fatal("invalid plan reached the store")
	}
}

func TestDeletePlanGatedByConfirmation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	plan, err := env.ctrl.AddPlan(ctx, "Doomed", "$1", "", false)
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	modal := confirm.NewModal()
	if err := modal.Open("Delete plan", func() error {
		return env.ctrl.DeletePlan(context.Background(), plan.ID)
	}); err != nil {
		t.Fatalf("open: %v", err)
	}

	// Nothing deleted before the explicit confirm.
	if len(env.ctrl.Plans()) != 1 {
		t.Fatal("plan deleted before confirmation")
	}

	// Cancel leaves the mirror and the store unchanged.
	if err := modal.Cancel(); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if err := env.ctrl.RefreshPlans(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if len(env.ctrl.Plans()) != 1 {
		t.Fatal("cancel was not a no-op")
	}

	// Confirm actually deletes.
	if err := modal.Open("Delete plan", func() error {
		return env.ctrl.DeletePlan(context.Background(), plan.ID)
	}); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if err := modal.Confirm(); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if len(env.ctrl.Plans()) != 0 {
		t.Fatal("plan survived confirmed delete")
	}
}

func TestDeleteMissingPlanLooksLikeNoOp(t *testing.T) {
	env := newTestEnv(t)

	if err := env.ctrl.DeletePlan(context.Background(), "never-existed"); err != nil {
		t.Fatalf("delete of missing id = %v, want nil", err)
	}
}

func TestUploadMediaStoredNameAndRow(t *testing.T) {
	env := newTestEnv(t)

	var steps []int
	item, err := env.ctrl.UploadMedia(context.Background(), "My Photo!.png", []byte("fake png"), "image/png",
		func(percent int, stage string) { steps = append(steps, percent) })
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	if ok, _ := regexp.MatchString(`^\d+_my_photo_\.png$`, item.FileName); !ok {
		t.Fatalf("stored name %q does not match ${t}_my_photo_.png", item.FileName)
	}
	if item.URL != env.gw.PublicURL(item.FileName) {
		t.Fatalf("url %q not derived from storage path", item.URL)
	}

	// The simulated progress runs its full fixed sequence.
	if len(steps) == 0 || steps[len(steps)-1] != 100 {
		t.Fatalf("progress steps = %v, want fixed sequence ending at 100", steps)
	}

	media := env.ctrl.Media()
	if len(media) != 1 || media[0].ID != item.ID {
		t.Fatalf("mirror does not contain the uploaded item: %+v", media)
	}
}

func TestDeleteMediaStorageFailureKeepsRow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// A file name the bucket refuses to touch forces the storage
	// remove to fail before the row delete runs.
	item := &models.MediaItem{FileName: "bad/name.png", URL: "http://x/bad", CreatedAt: time.Now()}
	if err := env.gw.InsertMedia(ctx, item); err != nil {
		t.Fatalf("insert: %v", err)
	}

	if err := env.ctrl.DeleteMedia(ctx, item.ID); err == nil {
		t.Fatal("expected storage failure to surface")
	}

	if _, err := env.gw.GetMediaByID(ctx, item.ID); err != nil {
		t.Fatalf("catalog row should be intact, got %v", err)
	}
	if lastToast(t, env.toasts).Severity != toast.SeverityError {
		t.Fatal("expected error toast, not success")
	}
}

func TestDeleteMediaRemovesObjectThenRow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	item, err := env.ctrl.UploadMedia(ctx, "gone.png", []byte("x"), "image/png", nil)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	if err := env.ctrl.DeleteMedia(ctx, item.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := env.gw.GetMediaByID(ctx, item.ID); !errors.Is(err, gateway.ErrMediaNotFound) {
		t.Fatalf("row survived delete: %v", err)
	}
	if len(env.ctrl.Media()) != 0 {
		t.Fatal("mirror still lists deleted media")
	}
}

func TestChangeNotificationTriggersRefresh(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// Insert through the gateway directly, as a second client would;
	// the published event must refresh the mirror without an explicit
	// local refresh.
	if err := env.gw.InsertPlan(ctx, &models.Plan{Name: "Remote", Price: "$7", CreatedAt: time.Now()}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(env.ctrl.Plans()) == 1 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("mirror never caught up with the remote change")
}

func TestStopMakesLateRefreshesNoOps(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.ctrl.AddPlan(ctx, "Kept", "$9", "", false); err != nil {
		t.Fatalf("add: %v", err)
	}
	env.ctrl.Stop()

	snapshot := env.ctrl.Plans()
	if err := env.gw.InsertPlan(ctx, &models.Plan{Name: "Late", Price: "$1", CreatedAt: time.Now()}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := env.ctrl.RefreshPlans(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	if !reflect.DeepEqual(snapshot, env.ctrl.Plans()) {
		t.Fatal("refresh after teardown mutated the mirror")
	}
}
