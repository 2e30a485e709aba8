package models

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"os"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/sudipsherpa333-design/AI-Resume-Builder-Analyzer-sub004/internal/core/analytics"
)

var (
	demoTemplates     = []string{"modern", "classic", "minimal", "creative", "executive", "technical"}
	demoResumeStatus  = []string{"draft", "published", "archived"}
	demoUserStatus    = []string{"active", "active", "active", "inactive", "suspended"}
	demoSubscriptions = []string{"free", "free", "free", "premium", "enterprise"}
	demoActions       = []string{"login", "login_failed", "view_user", "update_user", "delete_resume", "export_data", "update_settings"}
	demoResources     = []string{"auth", "users", "resumes", "settings", "exports"}
	demoAdminRoles    = []string{"super_admin", "admin", "moderator", "support"}
)

// Dataset is a consistent set of rows for every reporting table
type Dataset struct {
	Users    []User        `json:"users"`
	Resumes  []Resume      `json:"resumes"`
	Admins   []Admin       `json:"admins"`
	Activity []ActivityLog `json:"activity_logs"`
}

// ReadDataset decodes a dataset written by WriteDataset
func ReadDataset(r io.Reader) (Dataset, error) {
	var d Dataset
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return Dataset{}, fmt.Errorf("failed to decode dataset: %w", err)
	}
	return d, nil
}

// LoadDatasetFile reads a JSON seed file from disk
func LoadDatasetFile(path string) (Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return Dataset{}, fmt.Errorf("failed to open seed file: %w", err)
	}
	defer f.Close()

	return ReadDataset(f)
}

// WriteDataset encodes the dataset as indented JSON
func WriteDataset(w io.Writer, d Dataset) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(d)
}

// GenerateDemo builds a deterministic dataset spread over the year before
// now. The same seed always yields the same rows.
func GenerateDemo(now time.Time, users int, seed int64) Dataset {
	rng := rand.New(rand.NewSource(seed))
	now = now.UTC()
	newID := func() uuid.UUID {
		var b [16]byte
		rng.Read(b[:])
		id, _ := uuid.FromBytes(b[:])
		id[6] = (id[6] & 0x0f) | 0x40 // version 4
		id[8] = (id[8] & 0x3f) | 0x80 // variant
		return id
	}
	ago := func(maxDays int) time.Time {
		return now.Add(-time.Duration(rng.Int63n(int64(maxDays) * int64(24*time.Hour))))
	}

	var d Dataset

	for i := 0; i < users; i++ {
		created := ago(365)
		u := User{
			ID:           newID(),
			Name:         fmt.Sprintf("Demo User %03d", i+1),
			Email:        fmt.Sprintf("user%03d@example.com", i+1),
			Role:         "user",
			Status:       demoUserStatus[rng.Intn(len(demoUserStatus))],
			IsVerified:   rng.Intn(3) > 0,
			Subscription: demoSubscriptions[rng.Intn(len(demoSubscriptions))],
			CreatedAt:    created,
		}
		if rng.Intn(4) > 0 {
			login := created.Add(time.Duration(rng.Int63n(int64(now.Sub(created)) + 1)))
			u.LastLogin = &login
		}
		d.Users = append(d.Users, u)

		for r := rng.Intn(4); r > 0; r-- {
			rc := created.Add(time.Duration(rng.Int63n(int64(now.Sub(created)) + 1)))
			completion := float64(rng.Intn(21) * 5)
			d.Resumes = append(d.Resumes, Resume{
				ID:                   newID(),
				UserID:               u.ID,
				Title:                fmt.Sprintf("%s Resume %d", u.Name, r),
				Template:             demoTemplates[rng.Intn(len(demoTemplates))],
				Status:               demoResumeStatus[rng.Intn(len(demoResumeStatus))],
				CompletionPercentage: completion,
				Views:                rng.Int63n(500),
				Downloads:            rng.Int63n(50),
				IsPublic:             rng.Intn(2) == 0,
				CreatedAt:            rc,
			})
		}
	}

	admins := users/20 + 2
	for i := 0; i < admins; i++ {
		created := ago(365)
		login := created.Add(time.Duration(rng.Int63n(int64(now.Sub(created)) + 1)))
		status := "active"
		if i%5 == 4 {
			status = "inactive"
		}
		d.Admins = append(d.Admins, Admin{
			ID:        newID(),
			Name:      fmt.Sprintf("Admin %02d", i+1),
			Email:     fmt.Sprintf("admin%02d@example.com", i+1),
			Role:      demoAdminRoles[i%len(demoAdminRoles)],
			Status:    status,
			IsActive:  status == "active",
			LastLogin: &login,
			CreatedAt: created,
		})
	}

	for i := 0; i < users*3; i++ {
		admin := d.Admins[rng.Intn(len(d.Admins))].ID
		action := demoActions[rng.Intn(len(demoActions))]
		status := "success"
		if action == "login_failed" || rng.Intn(12) == 0 {
			status = "failed"
		}
		d.Activity = append(d.Activity, ActivityLog{
			ID:             newID(),
			AdminID:        &admin,
			Action:         action,
			Resource:       demoResources[rng.Intn(len(demoResources))],
			Status:         status,
			ResponseTimeMs: float64(20 + rng.Intn(480)),
			IPAddress:      fmt.Sprintf("10.0.%d.%d", rng.Intn(255), rng.Intn(255)),
			Details:        datatypes.JSON([]byte(fmt.Sprintf(`{"seq":%d}`, i))),
			CreatedAt:      ago(90),
		})
	}

	return d
}

// Rows converts the dataset into query rows keyed by table name
func (d Dataset) Rows() map[string][]analytics.Row {
	out := map[string][]analytics.Row{}

	for _, u := range d.Users {
		out[analytics.TableUsers] = append(out[analytics.TableUsers], analytics.Row{
			"id":           u.ID.String(),
			"name":         u.Name,
			"email":        u.Email,
			"role":         u.Role,
			"status":       u.Status,
			"is_verified":  u.IsVerified,
			"subscription": u.Subscription,
			"last_login":   timeOrNil(u.LastLogin),
			"created_at":   u.CreatedAt,
		})
	}

	for _, r := range d.Resumes {
		out[analytics.TableResumes] = append(out[analytics.TableResumes], analytics.Row{
			"id":                    r.ID.String(),
			"user_id":               r.UserID.String(),
			"title":                 r.Title,
			"template":              r.Template,
			"status":                r.Status,
			"completion_percentage": r.CompletionPercentage,
			"views":                 r.Views,
			"downloads":             r.Downloads,
			"is_public":             r.IsPublic,
			"created_at":            r.CreatedAt,
		})
	}

	for _, a := range d.Admins {
		out[analytics.TableAdmins] = append(out[analytics.TableAdmins], analytics.Row{
			"id":         a.ID.String(),
			"name":       a.Name,
			"email":      a.Email,
			"role":       a.Role,
			"status":     a.Status,
			"is_active":  a.IsActive,
			"last_login": timeOrNil(a.LastLogin),
			"created_at": a.CreatedAt,
		})
	}

	for _, l := range d.Activity {
		var adminID interface{}
		if l.AdminID != nil {
			adminID = l.AdminID.String()
		}
		out[analytics.TableActivity] = append(out[analytics.TableActivity], analytics.Row{
			"id":               l.ID.String(),
			"admin_id":         adminID,
			"action":           l.Action,
			"resource":         l.Resource,
			"status":           l.Status,
			"response_time_ms": l.ResponseTimeMs,
			"ip_address":       l.IPAddress,
			"details":          string(l.Details),
			"created_at":       l.CreatedAt,
		})
	}

	return out
}

// Load inserts the dataset into a memory store
func (d Dataset) Load(repo *analytics.MemoryRepository) {
	for table, rows := range d.Rows() {
		repo.Insert(table, rows...)
	}
}

// Save writes the dataset to the database in one transaction
func (d Dataset) Save(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(d.Users) > 0 {
			if err := tx.CreateInBatches(d.Users, 200).Error; err != nil {
				return fmt.Errorf("failed to insert users: %w", err)
			}
		}
		if len(d.Resumes) > 0 {
			if err := tx.CreateInBatches(d.Resumes, 200).Error; err != nil {
				return fmt.Errorf("failed to insert resumes: %w", err)
			}
		}
		if len(d.Admins) > 0 {
			if err := tx.CreateInBatches(d.Admins, 200).Error; err != nil {
				return fmt.Errorf("failed to insert admins: %w", err)
			}
		}
		if len(d.Activity) > 0 {
			if err := tx.CreateInBatches(d.Activity, 200).Error; err != nil {
				return fmt.Errorf("failed to insert activity logs: %w", err)
			}
		}
		return nil
	})
}

func timeOrNil(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC()
}
