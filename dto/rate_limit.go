package dto

import "time"

type RateLimitInfo struct {
	Allowed   bool       `json:"allowed"`
	Remaining int        `json:"remaining"`
	ResetTime *time.Time `json:"reset_time,omitempty"`
	Reason    string     `json:"reason,omitempty"`
}

type ClientInfo struct {
	IP             string `json:"ip"`
	UserAgent      string `json:"user_agent"`
	Country        string `json:"country"`
	ProxyRequestID string `json:"proxy_request_id"`
}

type IPActionRequest struct {
	Action string `json:"action" validate:"required,oneof=reset_limits unblock block"`
	IP     string `json:"ip" validate:"required,ip"`
	Reason string `json:"reason,omitempty" validate:"max=255"`
}

func (r IPActionRequest) Validate() error {
	return GetValidator().Struct(r)
}

type IPActionResponse struct {
	Action  string `json:"action"`
	IP      string `json:"ip"`
	Success bool   `json:"success"`
}

type IPStats struct {
	TrackedIPs   int64     `json:"tracked_ips"`
	LimitedIPs   int64     `json:"limited_ips"`
	ActiveBlocks int64     `json:"active_blocks"`
	TotalBlocks  int64     `json:"total_blocks"`
	GeneratedAt  time.Time `json:"generated_at"`
}

type PageResponse struct {
	Items  interface{} `json:"items"`
	Total  int64       `json:"total"`
	Limit  int         `json:"limit"`
	Offset int         `json:"offset"`
}
