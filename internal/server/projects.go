package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vesaa/homebuilder/internal/models"
	"github.com/vesaa/homebuilder/internal/project"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SaveProject normalizes d, stamps it as updated by user and upserts it by
// project id. d is updated in place.
func (s *Store) SaveProject(ctx context.Context, d *project.Document, user string) error {
	now := s.now()
	project.Normalize(d, now)
	d.Touch(user, now)

	raw, err := project.Encode(d)
	if err != nil {
		return err
	}
	rec := models.ProjectRecord{
		ProjectID: d.ProjectID,
		Name:      d.ProjectName,
		Document:  datatypes.JSON(raw),
		CreatedBy: d.CreatedBy,
		UpdatedBy: d.UpdatedBy,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if t, ok := project.ParseTime(d.CreatedAt); ok {
		rec.CreatedAt = t
	}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "project_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "document", "updated_by", "updated_at"}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("saving project %s: %w", d.ProjectID, err)
	}
	return nil
}

// GetProject loads and normalizes a stored document.
func (s *Store) GetProject(ctx context.Context, projectID string) (*project.Document, error) {
	rec, err := s.projectRecord(ctx, projectID)
	if err != nil {
		return nil, err
	}
	d, err := project.Decode(rec.Document, s.now())
	if err != nil {
		return nil, fmt.Errorf("project %s: %w", projectID, err)
	}
	return d, nil
}

func (s *Store) projectRecord(ctx context.Context, projectID string) (*models.ProjectRecord, error) {
	var rec models.ProjectRecord
	err := s.db.WithContext(ctx).Where("project_id = ?", projectID).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("project %s: %w", projectID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ProjectListing is a summary row plus publish state.
type ProjectListing struct {
	project.Summary
	// UpdatedAtDisplay is UpdatedAt in the short JST form shown in lists.
	UpdatedAtDisplay string     `json:"updated_at_display"`
	PublishedAt      *time.Time `json:"published_at,omitempty"`
}

// ListProjects returns all projects, most recently updated first.
// Rows whose document no longer decodes are listed with a placeholder name.
func (s *Store) ListProjects(ctx context.Context) ([]ProjectListing, error) {
	var recs []models.ProjectRecord
	if err := s.db.WithContext(ctx).Order("updated_at desc, id desc").Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]ProjectListing, 0, len(recs))
	for _, rec := range recs {
		item := ProjectListing{PublishedAt: rec.PublishedAt}
		if d, err := project.Decode(rec.Document, s.now()); err == nil {
			item.Summary = d.Summarize()
		} else {
			item.Summary = project.Summary{
				ProjectID:   rec.ProjectID,
				ProjectName: "(broken project.json)",
				UpdatedBy:   rec.UpdatedBy,
			}
		}
		item.UpdatedAtDisplay = project.FormatDisplay(item.UpdatedAt)
		out = append(out, item)
	}
	return out, nil
}

// DeleteProject removes a project row.
func (s *Store) DeleteProject(ctx context.Context, projectID string) error {
	res := s.db.WithContext(ctx).Where("project_id = ?", projectID).Delete(&models.ProjectRecord{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("project %s: %w", projectID, ErrNotFound)
	}
	return nil
}

// MarkPublished records the publish time of a project.
func (s *Store) MarkPublished(ctx context.Context, projectID string, at time.Time) error {
	res := s.db.WithContext(ctx).Model(&models.ProjectRecord{}).
		Where("project_id = ?", projectID).
		UpdateColumn("published_at", at)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("project %s: %w", projectID, ErrNotFound)
	}
	return nil
}
