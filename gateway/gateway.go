// Package gateway is the typed boundary around the relational store and
// the media bucket. Every call is single request/response: errors
// surface immediately to the caller and nothing is retried here.
// Successful writes publish a change event for the affected collection,
// whichever caller performed them.
package gateway

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"caresite/models"
	"caresite/notify"
	"caresite/storage"
)

var ErrMediaNotFound = errors.New("gateway: media item not found")

// MediaCacheControl is applied to every uploaded media object.
const MediaCacheControl = "max-age=3600"

type Gateway struct {
	db     *gorm.DB
	bucket *storage.Bucket
	broker *notify.Broker
}

func New(db *gorm.DB, bucket *storage.Bucket, broker *notify.Broker) *Gateway {
	return &Gateway{db: db, bucket: bucket, broker: broker}
}

// SelectAllPlans reads the whole plan collection, primary plans first,
// then oldest first.
func (g *Gateway) SelectAllPlans(ctx context.Context) ([]models.Plan, error) {
	var plans []models.Plan
	err := g.db.WithContext(ctx).
		Order("is_primary desc, created_at asc").
		Find(&plans).Error
	if err != nil {
		return nil, fmt.Errorf("select plans: %w", err)
	}
	return plans, nil
}

func (g *Gateway) InsertPlan(ctx context.Context, plan *models.Plan) error {
	if err := g.db.WithContext(ctx).Create(plan).Error; err != nil {
		return fmt.Errorf("insert plan: %w", err)
	}
	g.broker.Publish(notify.CollectionPlans)
	return nil
}

// DeletePlanByID deletes one plan row. A missing id deletes zero rows
// and is not reported as an error.
func (g *Gateway) DeletePlanByID(ctx context.Context, id string) error {
	if err := g.db.WithContext(ctx).Delete(&models.Plan{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("delete plan: %w", err)
	}
	g.broker.Publish(notify.CollectionPlans)
	return nil
}

// SelectAllMedia reads the media catalog, newest first.
func (g *Gateway) SelectAllMedia(ctx context.Context) ([]models.MediaItem, error) {
	var items []models.MediaItem
	err := g.db.WithContext(ctx).
		Order("created_at desc").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("select media: %w", err)
	}
	return items, nil
}

func (g *Gateway) GetMediaByID(ctx context.Context, id string) (*models.MediaItem, error) {
	var item models.MediaItem
	err := g.db.WithContext(ctx).First(&item, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMediaNotFound
		}
		return nil, fmt.Errorf("get media: %w", err)
	}
	return &item, nil
}

func (g *Gateway) InsertMedia(ctx context.Context, item *models.MediaItem) error {
	if err := g.db.WithContext(ctx).Create(item).Error; err != nil {
		return fmt.Errorf("insert media: %w", err)
	}
	g.broker.Publish(notify.CollectionMedia)
	return nil
}

func (g *Gateway) DeleteMediaByID(ctx context.Context, id string) error {
	if err := g.db.WithContext(ctx).Delete(&models.MediaItem{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("delete media: %w", err)
	}
	g.broker.Publish(notify.CollectionMedia)
	return nil
}

// UploadObject stores a blob in the media bucket with no-overwrite
// semantics.
func (g *Gateway) UploadObject(path string, blob []byte, contentType string) error {
	return g.bucket.Upload(path, blob, storage.UploadOptions{
		ContentType:  contentType,
		CacheControl: MediaCacheControl,
		Upsert:       false,
	})
}

func (g *Gateway) RemoveObjects(paths ...string) error {
	return g.bucket.Remove(paths...)
}

func (g *Gateway) PublicURL(path string) string {
	return g.bucket.PublicURL(path)
}
