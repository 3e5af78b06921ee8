package services

import (
	"context"
	"errors"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/bytedance/sonic"
	"github.com/crystal-dz/storefront_api/dto"
	"github.com/crystal-dz/storefront_api/model"
	"github.com/crystal-dz/storefront_api/services/repositories"
	"github.com/crystal-dz/storefront_api/shared"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const TRACKING_SVC = "tracking_svc"

type VisitorStore interface {
	GetSession(ctx context.Context, id string) (*model.VisitorSession, error)
	CreateSession(ctx context.Context, session *model.VisitorSession) error
	UpdateSession(ctx context.Context, id string, updates map[string]interface{}) error
	CreatePageView(ctx context.Context, view *model.PageView) error
	CreateClick(ctx context.Context, click *model.ClickEvent) error
	CreateActivity(ctx context.Context, event *model.ActivityEvent) error
}

type CountryResolver interface {
	CountryByIP(ctx context.Context, ip string) string
}

// TrackingService ingests storefront analytics events. It shares no state
// with checkout.
type TrackingService struct {
	appContext.DefaultService

	visitors VisitorStore
	geo      CountryResolver
	now      func() time.Time
}

func NewTrackingService(visitors VisitorStore, geo CountryResolver) *TrackingService {
	return &TrackingService{visitors: visitors, geo: geo, now: time.Now}
}

func (svc TrackingService) Id() string {
	return TRACKING_SVC
}

func (svc *TrackingService) Start() error {
	pgSvc := svc.Service(POSTGRES_SVC).(*PostgresService)
	svc.visitors = repositories.NewVisitorRepository(pgSvc.Db())
	svc.geo = svc.Service(GEOLOCATION_SVC).(*GeolocationService)
	svc.now = time.Now
	return nil
}

// Track records one event. Malformed payloads return a 400 AppError; store
// failures return a 500 AppError.
func (svc *TrackingService) Track(ctx context.Context, req dto.TrackingRequest, client dto.ClientInfo) error {
	if err := req.Validate(); err != nil {
		return shared.NewBadRequestError(err, "Invalid tracking payload")
	}

	now := svc.now()
	session, err := svc.ensureSession(ctx, req, client, now)
	if err != nil {
		return svc.storeError(err)
	}

	updates := map[string]interface{}{
		"last_seen_at":     now,
		"duration_seconds": sessionDuration(session, now),
	}

	switch req.Action {
	case shared.TrackPageView:
		err = svc.visitors.CreatePageView(ctx, &model.PageView{
			SessionID: session.ID,
			Path:      req.Path,
			Title:     req.Title,
			Referrer:  req.Referrer,
			CreatedAt: now,
		})
		updates["page_views"] = gorm.Expr("page_views + ?", 1)

	case shared.TrackClick:
		err = svc.visitors.CreateClick(ctx, &model.ClickEvent{
			SessionID: session.ID,
			Path:      req.Path,
			Element:   req.Element,
			Label:     req.Label,
			X:         req.X,
			Y:         req.Y,
			CreatedAt: now,
		})
		updates["clicks"] = gorm.Expr("clicks + ?", 1)

	case shared.TrackActivity:
		payload := ""
		if len(req.Payload) > 0 {
			if payload, err = sonic.MarshalString(req.Payload); err != nil {
				return shared.NewBadRequestError(err, "Invalid tracking payload")
			}
		}
		err = svc.visitors.CreateActivity(ctx, &model.ActivityEvent{
			SessionID: session.ID,
			Type:      req.ActivityType,
			Path:      req.Path,
			Payload:   payload,
			CreatedAt: now,
		})

	case shared.TrackActivityUpdate:
		if req.ScrollDepth > session.MaxScrollDepth {
			updates["max_scroll_depth"] = req.ScrollDepth
		}
		if req.TimeOnPage > session.TimeOnPage {
			updates["time_on_page"] = req.TimeOnPage
		}

	case shared.TrackSessionEnd:
		updates["ended_at"] = now

	case shared.TrackHeartbeat:
	}
	if err != nil {
		return svc.storeError(err)
	}

	if err := svc.visitors.UpdateSession(ctx, session.ID, updates); err != nil {
		return svc.storeError(err)
	}

	recordTrackingEvent(req.Action)
	log.WithFields(log.Fields{"session_id": session.ID, "action": req.Action}).Debug("Tracking event stored")
	return nil
}

// ensureSession returns the visitor session, creating it on its first event.
func (svc *TrackingService) ensureSession(ctx context.Context, req dto.TrackingRequest, client dto.ClientInfo, now time.Time) (*model.VisitorSession, error) {
	session, err := svc.visitors.GetSession(ctx, req.SessionID)
	if err == nil {
		return session, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	session = &model.VisitorSession{
		ID:          req.SessionID,
		IPAddress:   client.IP,
		UserAgent:   client.UserAgent,
		Country:     svc.country(ctx, client),
		LandingPage: req.Path,
		Referrer:    req.Referrer,
		UTMSource:   req.UTMSource,
		UTMMedium:   req.UTMMedium,
		UTMCampaign: req.UTMCampaign,
		StartedAt:   now,
		LastSeenAt:  now,
	}
	if err := svc.visitors.CreateSession(ctx, session); err != nil {
		return nil, err
	}

	// a concurrent first event may have won the insert
	return svc.visitors.GetSession(ctx, req.SessionID)
}

func (svc *TrackingService) country(ctx context.Context, client dto.ClientInfo) string {
	// XX and T1 are the proxy's unknown and Tor markers
	if client.Country != "" && client.Country != "XX" && client.Country != "T1" {
		return client.Country
	}
	if svc.geo != nil {
		return svc.geo.CountryByIP(ctx, client.IP)
	}
	return CountryUnknown
}

func (svc *TrackingService) storeError(err error) error {
	return shared.NewInternalError(HandleDBError(err), shared.ReasonDatabaseError)
}

func sessionDuration(session *model.VisitorSession, now time.Time) int {
	d := int(now.Sub(session.StartedAt).Seconds())
	if d < 0 {
		return 0
	}
	return d
}
