package model

import "time"

// IPTracking is owned by the check_ip_rate_limit procedure; rows are kept for audit.
type IPTracking struct {
	IPAddress   string     `json:"ip_address" gorm:"primaryKey;size:45;not null"`
	OrderCount  int        `json:"order_count" gorm:"default:0;not null"`
	WindowStart time.Time  `json:"window_start" gorm:"not null"`
	LastOrderAt *time.Time `json:"last_order_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at" gorm:"not null"`
	UpdatedAt   time.Time  `json:"updated_at" gorm:"not null"`
}

type BlockedIP struct {
	ID             string     `json:"id" gorm:"primaryKey;type:text;not null"`
	IPAddress      string     `json:"ip_address" gorm:"not null;size:45;index:idx_blocked_ips_active_ip,unique,where:is_active = true"`
	Reason         string     `json:"reason" gorm:"type:text"`
	BlockedAt      time.Time  `json:"blocked_at" gorm:"not null"`
	UnblockedAt    *time.Time `json:"unblocked_at,omitempty"`
	ExternalRuleID *string    `json:"external_rule_id,omitempty" gorm:"size:64"`
	IsActive       bool       `json:"is_active" gorm:"not null;default:true;index"`
	CreatedAt      time.Time  `json:"created_at" gorm:"not null"`
	UpdatedAt      time.Time  `json:"updated_at" gorm:"not null"`
}
