package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/Fiedly71/up-to-date-store-sub000/domain"
	"github.com/Fiedly71/up-to-date-store-sub000/identity"
	"github.com/Fiedly71/up-to-date-store-sub000/order"
	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// DefaultListLimit caps order listings when the filter sets no limit.
const DefaultListLimit = 100

type Repository struct {
	db *gorm.DB
}

var _ domain.Storage = (*Repository)(nil)

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func init() {
	Register("sqlite", sqlite.Open)
	Register("postgres", postgres.Open)
	Register("mysql", mysql.Open)
}

// DB exposes the underlying gorm handle.
func (r *Repository) DB() *gorm.DB { return r.db }

func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(
		&identity.Account{},
		&identity.Session{},
		&order.Order{},
		&order.StatusEvent{},
	)
}

func (r *Repository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (r *Repository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	return err
}

// Accounts

func (r *Repository) CreateAccount(ctx context.Context, a *identity.Account) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *Repository) GetAccount(ctx context.Context, id string) (*identity.Account, error) {
	var a identity.Account
	if err := r.db.WithContext(ctx).First(&a, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}

func (r *Repository) GetAccountByEmail(ctx context.Context, email string) (*identity.Account, error) {
	var a identity.Account
	if err := r.db.WithContext(ctx).First(&a, "email = ?", identity.NormalizeEmail(email)).Error; err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}

func (r *Repository) UpdateAccount(ctx context.Context, a *identity.Account) error {
	return r.db.WithContext(ctx).Save(a).Error
}

func (r *Repository) UpdateCredentials(ctx context.Context, a *identity.Account, previous int64) error {
	res := r.db.WithContext(ctx).Model(&identity.Account{}).
		Where("id = ? AND credential_stamp = ?", a.ID, previous).
		Updates(map[string]any{
			"password_hash":    a.PasswordHash,
			"credential_stamp": a.CredentialStamp,
			"invited":          a.Invited,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrConflict
	}
	return nil
}

func (r *Repository) ListAccounts(ctx context.Context) ([]identity.Account, error) {
	var out []identity.Account
	if err := r.db.WithContext(ctx).Order("created_at").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Sessions

func (r *Repository) CreateSession(ctx context.Context, s *identity.Session) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *Repository) GetSession(ctx context.Context, id string) (*identity.Session, error) {
	var s identity.Session
	if err := r.db.WithContext(ctx).First(&s, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

func (r *Repository) DeleteSession(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&identity.Session{}, "id = ?", id).Error
}

func (r *Repository) DeleteSessionsFor(ctx context.Context, accountID string) error {
	return r.db.WithContext(ctx).Delete(&identity.Session{}, "account_id = ?", accountID).Error
}

// Orders

func (r *Repository) CreateOrder(ctx context.Context, o *order.Order) error {
	return r.db.WithContext(ctx).Create(o).Error
}

func (r *Repository) GetOrder(ctx context.Context, id string) (*order.Order, error) {
	var o order.Order
	err := r.db.WithContext(ctx).
		Preload("Events", func(db *gorm.DB) *gorm.DB { return db.Order("at, id") }).
		First(&o, "id = ? OR reference = ?", id, id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &o, nil
}

// UpdateOrder saves the order and inserts any status events not yet persisted.
func (r *Repository) UpdateOrder(ctx context.Context, o *order.Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Events").Save(o).Error; err != nil {
			return fmt.Errorf("save order: %w", err)
		}
		for i := range o.Events {
			if o.Events[i].ID != 0 {
				continue
			}
			o.Events[i].OrderID = o.ID
			if err := tx.Create(&o.Events[i]).Error; err != nil {
				return fmt.Errorf("save order event: %w", err)
			}
		}
		return nil
	})
}

func (r *Repository) ListOrders(ctx context.Context, f order.Filter) ([]order.Order, error) {
	q := r.db.WithContext(ctx).Model(&order.Order{})
	if f.AccountID != "" {
		q = q.Where("account_id = ?", f.AccountID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	limit := f.Limit
	if limit <= 0 || limit > DefaultListLimit {
		limit = DefaultListLimit
	}

	var out []order.Order
	if err := q.Order("created_at DESC").Limit(limit).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
