// Package syncer keeps in-memory mirrors of the plan and media
// collections consistent with the remote store. Consistency is coarse
// and eventual: every local mutation is followed by a full re-fetch of
// the affected collection, and every remote change notification
// triggers the same re-fetch. Redundant refreshes are idempotent, so
// overlapping operations degrade to extra reads, never corruption.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"caresite/gateway"
	"caresite/models"
	"caresite/notify"
	"caresite/toast"
	"caresite/utils"
)

var ErrMissingRequiredFields = errors.New("syncer: name and price are required")

// uploadStages drive the cosmetic upload progress indicator. The
// storage backend reports no transfer progress, so these are fixed
// steps on a fixed delay, a simulation rather than a measurement.
var uploadStages = []struct {
	Percent int
	Stage   string
}{
	{25, "Uploading file..."},
	{50, "Processing..."},
	{75, "Publishing..."},
	{100, "Done"},
}

// ProgressFunc receives the simulated upload progress steps.
type ProgressFunc func(percent int, stage string)

type Controller struct {
	gw     *gateway.Gateway
	toasts *toast.Notifier
	logger *log.Logger

	// stepDelay spaces out the simulated progress steps.
	stepDelay time.Duration

	mu    sync.RWMutex
	plans []models.Plan
	media []models.MediaItem

	planSub  *notify.Subscription
	mediaSub *notify.Subscription

	stateMu sync.Mutex
	started bool
	closed  bool
}

func NewController(gw *gateway.Gateway, toasts *toast.Notifier, logger *log.Logger) *Controller {
	return &Controller{
		gw:        gw,
		toasts:    toasts,
		logger:    logger,
		stepDelay: 300 * time.Millisecond,
	}
}

// Start loads both mirrors and subscribes to the two change feeds. Each
// feed independently triggers a full re-fetch of its collection; the
// event payload beyond the collection name is deliberately unused.
func (c *Controller) Start(ctx context.Context, broker *notify.Broker) error {
	c.stateMu.Lock()
	if c.started {
		c.stateMu.Unlock()
		return errors.New("syncer: already started")
	}
	c.started = true
	c.planSub = broker.Subscribe(notify.CollectionPlans)
	c.mediaSub = broker.Subscribe(notify.CollectionMedia)
	c.stateMu.Unlock()

	if err := c.RefreshPlans(ctx); err != nil {
		return err
	}
	if err := c.RefreshMedia(ctx); err != nil {
		return err
	}

	go c.watch(c.planSub, c.RefreshPlans)
	go c.watch(c.mediaSub, c.RefreshMedia)
	return nil
}

// Stop unsubscribes both change feeds. In-flight refreshes become
// no-ops: the liveness check in each completion path drops results
// arriving after teardown instead of writing into a dead mirror.
func (c *Controller) Stop() {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	if c.planSub != nil {
		c.planSub.Unsubscribe()
	}
	if c.mediaSub != nil {
		c.mediaSub.Unsubscribe()
	}
}

func (c *Controller) alive() bool {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return !c.closed
}

func (c *Controller) watch(sub *notify.Subscription, refresh func(context.Context) error) {
	for range sub.C {
		if !c.alive() {
			return
		}
		if err := refresh(context.Background()); err != nil {
			c.logger.Printf("refresh on change notification failed: %v", err)
		}
	}
}

// RefreshPlans re-fetches the whole plan collection and replaces the
// mirror. Calling it repeatedly with no intervening mutation yields the
// same mirror every time.
func (c *Controller) RefreshPlans(ctx context.Context) error {
	plans, err := c.gw.SelectAllPlans(ctx)
	if err != nil {
		return err
	}
	sortPlans(plans)

	if !c.alive() {
		return nil
	}
	c.mu.Lock()
	c.plans = plans
	c.mu.Unlock()
	return nil
}

func (c *Controller) RefreshMedia(ctx context.Context) error {
	media, err := c.gw.SelectAllMedia(ctx)
	if err != nil {
		return err
	}

	if !c.alive() {
		return nil
	}
	c.mu.Lock()
	c.media = media
	c.mu.Unlock()
	return nil
}

// Plans returns a copy of the plan mirror in display order.
func (c *Controller) Plans() []models.Plan {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.Plan, len(c.plans))
	copy(out, c.plans)
	return out
}

// Media returns a copy of the media mirror, newest first.
func (c *Controller) Media() []models.MediaItem {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.MediaItem, len(c.media))
	copy(out, c.media)
	return out
}

// AddPlan validates, normalizes the feature text and inserts the plan,
// stamped with the current client time, then re-fetches the mirror.
func (c *Controller) AddPlan(ctx context.Context, name, price, features string, isPrimary bool) (*models.Plan, error) {
	if name == "" || price == "" {
		c.toasts.Error("Name and price are required")
		return nil, ErrMissingRequiredFields
	}

	plan := &models.Plan{
		Name:      name,
		Price:     price,
		Features:  utils.NormalizeFeatures(features),
		IsPrimary: isPrimary,
		CreatedAt: time.Now(),
	}

	if err := c.gw.InsertPlan(ctx, plan); err != nil {
		c.toasts.Error("Failed to add plan")
		return nil, err
	}
	c.toasts.Success("Plan added")

	if err := c.RefreshPlans(ctx); err != nil {
		c.logger.Printf("refresh after plan insert failed: %v", err)
	}
	return plan, nil
}

// DeletePlan removes a plan and re-fetches unconditionally; deleting an
// id that no longer exists is indistinguishable from a no-op.
func (c *Controller) DeletePlan(ctx context.Context, id string) error {
	if err := c.gw.DeletePlanByID(ctx, id); err != nil {
		c.toasts.Error("Failed to delete plan")
		return err
	}
	c.toasts.Success("Plan deleted")

	if err := c.RefreshPlans(ctx); err != nil {
		c.logger.Printf("refresh after plan delete failed: %v", err)
	}
	return nil
}

// UploadMedia runs the upload sequence: derive the timestamped stored
// name, upload the blob (no overwrite), resolve the public URL, insert
// the catalog row, re-fetch. A failed step aborts everything after it;
// an object already uploaded when a later step fails is left behind
// (known gap, not compensated here).
func (c *Controller) UploadMedia(ctx context.Context, originalName string, blob []byte, contentType string, progress ProgressFunc) (*models.MediaItem, error) {
	if originalName == "" || len(blob) == 0 {
		c.toasts.Error("No file selected")
		return nil, ErrMissingRequiredFields
	}

	now := time.Now()
	stored := utils.StoredFileName(now, originalName)

	if err := c.gw.UploadObject(stored, blob, contentType); err != nil {
		c.toasts.Error("Upload failed")
		return nil, err
	}

	for _, step := range uploadStages {
		if c.stepDelay > 0 {
			time.Sleep(c.stepDelay)
		}
		if progress != nil {
			progress(step.Percent, step.Stage)
		}
	}

	item := &models.MediaItem{
		FileName:  stored,
		URL:       c.gw.PublicURL(stored),
		CreatedAt: now,
	}
	if err := c.gw.InsertMedia(ctx, item); err != nil {
		c.toasts.Error("Upload failed")
		return nil, err
	}
	c.toasts.Success(fmt.Sprintf("Uploaded %s", originalName))

	if err := c.RefreshMedia(ctx); err != nil {
		c.logger.Printf("refresh after media insert failed: %v", err)
	}
	return item, nil
}

// DeleteMedia removes the stored object first, then the catalog row. A
// storage failure aborts before the row delete, so the catalog row
// survives; the reverse partial state (row gone, object still stored)
// is possible when the row delete fails and is not reconciled.
func (c *Controller) DeleteMedia(ctx context.Context, id string) error {
	item, err := c.gw.GetMediaByID(ctx, id)
	if err != nil {
		c.toasts.Error("Media item not found")
		return err
	}

	if err := c.gw.RemoveObjects(item.FileName); err != nil {
		c.toasts.Error("Failed to delete file from storage")
		return err
	}

	if err := c.gw.DeleteMediaByID(ctx, id); err != nil {
		c.toasts.Error("Failed to delete media record")
		return err
	}
	c.toasts.Success("Media deleted")

	if err := c.RefreshMedia(ctx); err != nil {
		c.logger.Printf("refresh after media delete failed: %v", err)
	}
	return nil
}

// SetStepDelay adjusts the simulated progress pacing.
func (c *Controller) SetStepDelay(d time.Duration) {
	c.stepDelay = d
}

// sortPlans applies the display ordering client-side as well: primary
// plans first, then ascending creation time. The stable sort preserves
// the store's order for full ties.
func sortPlans(plans []models.Plan) {
	sort.SliceStable(plans, func(i, j int) bool {
		if plans[i].IsPrimary != plans[j].IsPrimary {
			return plans[i].IsPrimary
		}
		return plans[i].CreatedAt.Before(plans[j].CreatedAt)
	})
}
