package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// User is a platform account
type User struct {
	ID           uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name         string     `json:"name" gorm:"not null"`
	Email        string     `json:"email" gorm:"uniqueIndex;not null"`
	Role         string     `json:"role" gorm:"default:'user'"`
	Status       string     `json:"status" gorm:"default:'active';check:status IN ('active', 'inactive', 'suspended')"`
	IsVerified   bool       `json:"is_verified" gorm:"default:false"`
	Subscription string     `json:"subscription" gorm:"default:'free'"`
	LastLogin    *time.Time `json:"last_login"`
	CreatedAt    time.Time  `json:"created_at" gorm:"default:now();index"`
}

func (User) TableName() string {
	return "users"
}

// Resume is a user's resume document
type Resume struct {
	ID                   uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID               uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index"`
	Title                string    `json:"title" gorm:"not null"`
	Template             string    `json:"template" gorm:"default:'modern'"`
	Status               string    `json:"status" gorm:"default:'draft';check:status IN ('draft', 'published', 'archived')"`
	CompletionPercentage float64   `json:"completion_percentage" gorm:"type:decimal(5,2);default:0"`
	Views                int64     `json:"views" gorm:"default:0"`
	Downloads            int64     `json:"downloads" gorm:"default:0"`
	IsPublic             bool      `json:"is_public" gorm:"default:false"`
	CreatedAt            time.Time `json:"created_at" gorm:"default:now();index"`
}

func (Resume) TableName() string {
	return "resumes"
}

// Admin is a back-office operator
type Admin struct {
	ID        uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name      string     `json:"name" gorm:"not null"`
	Email     string     `json:"email" gorm:"uniqueIndex;not null"`
	Role      string     `json:"role" gorm:"default:'moderator'"`
	Status    string     `json:"status" gorm:"default:'active'"`
	IsActive  bool       `json:"is_active" gorm:"default:true"`
	LastLogin *time.Time `json:"last_login"`
	CreatedAt time.Time  `json:"created_at" gorm:"default:now();index"`
}

func (Admin) TableName() string {
	return "admins"
}

// ActivityLog is one audited admin action
type ActivityLog struct {
	ID             uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	AdminID        *uuid.UUID     `json:"admin_id" gorm:"type:uuid;index"`
	Action         string         `json:"action" gorm:"not null;index"`
	Resource       string         `json:"resource"`
	Status         string         `json:"status" gorm:"default:'success';check:status IN ('success', 'failed')"`
	ResponseTimeMs float64        `json:"response_time_ms" gorm:"default:0"`
	IPAddress      string         `json:"ip_address"`
	Details        datatypes.JSON `json:"details" gorm:"type:jsonb"`
	CreatedAt      time.Time      `json:"created_at" gorm:"default:now();index"`
}

func (ActivityLog) TableName() string {
	return "activity_logs"
}
