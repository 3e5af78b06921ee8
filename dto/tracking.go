package dto

type TrackingRequest struct {
	Action    string `json:"action" validate:"required,oneof=page_view click activity heartbeat activity_update session_end"`
	SessionID string `json:"session_id" validate:"required,min=8,max=64"`

	Path     string `json:"path,omitempty" validate:"max=512"`
	Title    string `json:"title,omitempty" validate:"max=255"`
	Referrer string `json:"referrer,omitempty" validate:"max=512"`

	UTMSource   string `json:"utm_source,omitempty" validate:"max=100"`
	UTMMedium   string `json:"utm_medium,omitempty" validate:"max=100"`
	UTMCampaign string `json:"utm_campaign,omitempty" validate:"max=100"`

	Element string `json:"element,omitempty" validate:"max=255"`
	Label   string `json:"label,omitempty" validate:"max=255"`
	X       int    `json:"x,omitempty"`
	Y       int    `json:"y,omitempty"`

	ActivityType string                 `json:"activity_type,omitempty" validate:"max=50"`
	Payload      map[string]interface{} `json:"payload,omitempty"`
	ScrollDepth  int                    `json:"scroll_depth,omitempty" validate:"min=0,max=100"`
	TimeOnPage   int                    `json:"time_on_page,omitempty" validate:"min=0"`
}

func (r TrackingRequest) Validate() error {
	return GetValidator().Struct(r)
}

type TrackingResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}
