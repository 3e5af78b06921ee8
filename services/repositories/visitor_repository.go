package repositories

import (
	"context"

	"github.com/crystal-dz/storefront_api/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// VisitorRepository stores tracking sessions and their events.
type VisitorRepository struct {
	BaseRepository
}

func NewVisitorRepository(db *gorm.DB) *VisitorRepository {
	return &VisitorRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

func (r *VisitorRepository) GetSession(ctx context.Context, id string) (*model.VisitorSession, error) {
	var session model.VisitorSession
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

// CreateSession inserts the session unless a concurrent event already did.
func (r *VisitorRepository) CreateSession(ctx context.Context, session *model.VisitorSession) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(session).Error
}

// UpdateSession applies column updates; values may be gorm.Expr.
func (r *VisitorRepository) UpdateSession(ctx context.Context, id string, updates map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&model.VisitorSession{}).
		Where("id = ?", id).
		UpdateColumns(updates).Error
}

func (r *VisitorRepository) CreatePageView(ctx context.Context, view *model.PageView) error {
	if view.ID == "" {
		id, _ := uuid.NewV7()
		view.ID = id.String()
	}
	return r.db.WithContext(ctx).Create(view).Error
}

func (r *VisitorRepository) CreateClick(ctx context.Context, click *model.ClickEvent) error {
	if click.ID == "" {
		id, _ := uuid.NewV7()
		click.ID = id.String()
	}
	return r.db.WithContext(ctx).Create(click).Error
}

func (r *VisitorRepository) CreateActivity(ctx context.Context, event *model.ActivityEvent) error {
	if event.ID == "" {
		id, _ := uuid.NewV7()
		event.ID = id.String()
	}
	return r.db.WithContext(ctx).Create(event).Error
}
