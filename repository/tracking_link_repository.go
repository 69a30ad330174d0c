// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/trackfluence/trackfluence/models"
	"github.com/trackfluence/trackfluence/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TrackingLinkRepositoryImpl implements the TrackingLinkRepository interface
type TrackingLinkRepositoryImpl struct {
	*BaseRepository[models.TrackingLink, models.TrackingLinkFilter]
}

// NewTrackingLinkRepository creates a new tracking link repository
func NewTrackingLinkRepository(db *gorm.DB) TrackingLinkRepository {
	return &TrackingLinkRepositoryImpl{
		BaseRepository: NewBaseRepository[models.TrackingLink, models.TrackingLinkFilter](db),
	}
}

// ByCampaignAndInfluencer retrieves the single link for a (campaign, influencer) pair
func (r *TrackingLinkRepositoryImpl) ByCampaignAndInfluencer(ctx context.Context, campaignID, influencerID uint) (*models.TrackingLink, error) {
	db := r.getDB(ctx)

	var link models.TrackingLink
	err := db.Where("campaign_id = ? AND influencer_id = ?", campaignID, influencerID).
		First(&link).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find tracking link: %w", err)
	}

	return &link, nil
}

// ListByCampaign retrieves all tracking links of a campaign in insertion order
func (r *TrackingLinkRepositoryImpl) ListByCampaign(ctx context.Context, campaignID uint) ([]*models.TrackingLink, error) {
	filter := models.TrackingLinkFilter{CampaignID: &campaignID}
	return r.ByFilter(ctx, filter, "id ASC", 0, 0)
}

// Upsert inserts the link or, when a row for the (campaign, influencer) pair
// already exists, overwrites its short_link and timestamps in place. The
// conflict target is the unique index on (campaign_id, influencer_id), so two
// concurrent calls for the same pair serialize at the database and exactly one
// row survives. The row id of an existing entry is kept.
func (r *TrackingLinkRepositoryImpl) Upsert(ctx context.Context, link *models.TrackingLink) error {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}

	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	now := utils.UTCNow()
	if link.CreatedAt.IsZero() {
		link.CreatedAt = now
	}
	link.UpdatedAt = now

	err = db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "campaign_id"}, {Name: "influencer_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"short_link": link.ShortLink,
			"created_at": link.CreatedAt,
			"updated_at": now,
		}),
	}).Create(link).Error
	if err != nil {
		return fmt.Errorf("failed to upsert tracking link: %w", err)
	}

	return nil
}

// ByFilter retrieves tracking links based on filter criteria
func (r *TrackingLinkRepositoryImpl) ByFilter(ctx context.Context, filter models.TrackingLinkFilter, orderBy string, limit, offset int) ([]*models.TrackingLink, error) {
	db := r.getDB(ctx)

	var links []*models.TrackingLink
	query := r.applyFilter(db, filter)

	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	err := query.Find(&links).Error
	if err != nil {
		return nil, err
	}

	return links, nil
}

// Count returns the number of tracking links matching the filter
func (r *TrackingLinkRepositoryImpl) Count(ctx context.Context, filter models.TrackingLinkFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	query := r.applyFilter(db.Model(&models.TrackingLink{}), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Exists checks if any tracking link matching the filter exists
func (r *TrackingLinkRepositoryImpl) Exists(ctx context.Context, filter models.TrackingLinkFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// applyFilter applies filter conditions to the GORM query
func (r *TrackingLinkRepositoryImpl) applyFilter(db *gorm.DB, filter models.TrackingLinkFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.CampaignID != nil {
		db = db.Where("campaign_id = ?", *filter.CampaignID)
	}
	if filter.InfluencerID != nil {
		db = db.Where("influencer_id = ?", *filter.InfluencerID)
	}
	if filter.CreatedAfter != nil {
		db = db.Where("created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		db = db.Where("created_at < ?", *filter.CreatedBefore)
	}

	return db
}
