package model

import "time"

type Order struct {
	ID              string    `json:"id" gorm:"primaryKey;type:text;not null"`
	Name            string    `json:"name" gorm:"not null;size:100"`
	Phone           string    `json:"phone" gorm:"not null;size:20;index"`
	Wilaya          string    `json:"wilaya" gorm:"not null;size:50"`
	Baladia         string    `json:"baladia" gorm:"not null;size:100"`
	Address         string    `json:"address" gorm:"size:255"`
	ChildName       string    `json:"child_name" gorm:"not null;size:50"`
	ProductName     string    `json:"product_name" gorm:"not null;size:100"`
	ImageURL        string    `json:"image_url,omitempty" gorm:"size:512"`
	Quantity        int       `json:"quantity" gorm:"not null"`
	UnitPrice       int64     `json:"unit_price" gorm:"not null"`
	DiscountPercent int       `json:"discount_percent" gorm:"not null;default:0"`
	TotalPrice      int64     `json:"total_price" gorm:"not null"`
	Currency        string    `json:"currency" gorm:"not null;size:3;default:DZD"`
	Status          string    `json:"status" gorm:"not null;size:20;index"`
	ClientIP        string    `json:"client_ip" gorm:"size:45;index"`
	UserAgent       string    `json:"user_agent,omitempty" gorm:"type:text"`
	Country         string    `json:"country,omitempty" gorm:"size:8"`
	CreatedAt       time.Time `json:"created_at" gorm:"not null;index"`
	UpdatedAt       time.Time `json:"updated_at" gorm:"not null"`
}
