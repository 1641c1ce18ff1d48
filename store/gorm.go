package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"foodshare-api/models"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open connects to postgres for postgres:// URLs and to sqlite for anything
// else (a file path or a "file:...?mode=memory" DSN), then migrates the schema.
func Open(dsn string) (*gorm.DB, error) {
	cfg := &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	}

	var (
		db  *gorm.DB
		err error
	)
	isPostgres := strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
	if isPostgres {
		db, err = gorm.Open(postgres.Open(dsn), cfg)
	} else {
		db, err = gorm.Open(sqlite.Open(dsn), cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if !isPostgres {
		// sqlite allows one writer; a single connection turns lock contention into queueing.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("database handle: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates every table.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Donation{},
		&models.Claim{},
		&models.Pickup{},
		&models.Notification{},
	)
	if err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	return nil
}

// GormStore implements Store on top of a gorm connection or transaction.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Users() Users                 { return gormUsers{s.db} }
func (s *GormStore) Donations() Donations         { return gormDonations{s.db} }
func (s *GormStore) Claims() Claims               { return gormClaims{s.db} }
func (s *GormStore) Pickups() Pickups             { return gormPickups{s.db} }
func (s *GormStore) Notifications() Notifications { return gormNotifications{s.db} }

func (s *GormStore) Atomic(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key") {
		return ErrDuplicate
	}
	return err
}

// saveVersioned writes every column of model when the stored version still
// equals *version, bumping it on success.
func saveVersioned(db *gorm.DB, model any, version *int64) error {
	expected := *version
	*version = expected + 1
	res := db.Model(model).Where("version = ?", expected).Select("*").Updates(model)
	if res.Error != nil {
		*version = expected
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		*version = expected
		return ErrStale
	}
	return nil
}

// ── Users ───────────────────────────────────────────────────────────────────

type gormUsers struct{ db *gorm.DB }

func (r gormUsers) Create(ctx context.Context, u *models.User) error {
	return translate(r.db.WithContext(ctx).Create(u).Error)
}

func (r gormUsers) FindByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r gormUsers) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r gormUsers) Update(ctx context.Context, u *models.User) error {
	res := r.db.WithContext(ctx).Model(u).Select("name", "phone", "organization").Updates(u)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r gormUsers) List(ctx context.Context, f UserFilter) ([]models.User, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.User{})
	if f.Role != "" {
		query = query.Where("role = ?", f.Role)
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}
	if f.Limit > 0 {
		query = query.Limit(f.Limit).Offset(f.Offset)
	}
	var users []models.User
	if err := query.Order("created_at desc").Find(&users).Error; err != nil {
		return nil, 0, translate(err)
	}
	return users, total, nil
}

func (r gormUsers) CountByRole(ctx context.Context) (map[models.UserRole]int64, error) {
	var rows []struct {
		Role  models.UserRole
		Count int64
	}
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Select("role, count(*) as count").Group("role").Scan(&rows).Error
	if err != nil {
		return nil, translate(err)
	}
	counts := make(map[models.UserRole]int64, len(rows))
	for _, row := range rows {
		counts[row.Role] = row.Count
	}
	return counts, nil
}

// ── Donations ───────────────────────────────────────────────────────────────

type gormDonations struct{ db *gorm.DB }

func (r gormDonations) Create(ctx context.Context, d *models.Donation) error {
	return translate(r.db.WithContext(ctx).Create(d).Error)
}

func (r gormDonations) FindByID(ctx context.Context, id string) (*models.Donation, error) {
	var d models.Donation
	if err := r.db.WithContext(ctx).First(&d, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &d, nil
}

func (r gormDonations) Save(ctx context.Context, d *models.Donation) error {
	return saveVersioned(r.db.WithContext(ctx), d, &d.Version)
}

func (r gormDonations) Delete(ctx context.Context, d *models.Donation) error {
	res := r.db.WithContext(ctx).Where("version = ?", d.Version).Delete(d)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrStale
	}
	return nil
}

func (r gormDonations) List(ctx context.Context, f DonationFilter) ([]models.Donation, error) {
	query := r.db.WithContext(ctx)
	if f.DonorID != "" {
		query = query.Where("donor_id = ?", f.DonorID)
	}
	if f.FoodType != "" {
		query = query.Where("LOWER(food_type) LIKE ?", "%"+strings.ToLower(f.FoodType)+"%")
	}
	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}
	if !f.ExpiresAfter.IsZero() {
		query = query.Where("expiry_time > ?", f.ExpiresAfter.UTC())
	}
	var donations []models.Donation
	if err := query.Order("created_at desc").Find(&donations).Error; err != nil {
		return nil, translate(err)
	}
	return donations, nil
}

// ── Claims ──────────────────────────────────────────────────────────────────

type gormClaims struct{ db *gorm.DB }

func (r gormClaims) Create(ctx context.Context, c *models.Claim) error {
	return translate(r.db.WithContext(ctx).Create(c).Error)
}

func (r gormClaims) FindByID(ctx context.Context, id string) (*models.Claim, error) {
	var c models.Claim
	if err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (r gormClaims) Save(ctx context.Context, c *models.Claim) error {
	return saveVersioned(r.db.WithContext(ctx), c, &c.Version)
}

func (r gormClaims) ListByNGO(ctx context.Context, ngoID string) ([]models.Claim, error) {
	var claims []models.Claim
	err := r.db.WithContext(ctx).Where("ngo_id = ?", ngoID).Order("claimed_at desc").Find(&claims).Error
	return claims, translate(err)
}

func (r gormClaims) List(ctx context.Context) ([]models.Claim, error) {
	var claims []models.Claim
	err := r.db.WithContext(ctx).Order("claimed_at desc").Find(&claims).Error
	return claims, translate(err)
}

// ── Pickups ─────────────────────────────────────────────────────────────────

type gormPickups struct{ db *gorm.DB }

func (r gormPickups) Create(ctx context.Context, p *models.Pickup) error {
	return translate(r.db.WithContext(ctx).Create(p).Error)
}

func (r gormPickups) FindByID(ctx context.Context, id string) (*models.Pickup, error) {
	var p models.Pickup
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r gormPickups) FindByClaim(ctx context.Context, claimID string) (*models.Pickup, error) {
	var p models.Pickup
	if err := r.db.WithContext(ctx).Where("claim_id = ?", claimID).First(&p).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r gormPickups) Save(ctx context.Context, p *models.Pickup) error {
	return saveVersioned(r.db.WithContext(ctx), p, &p.Version)
}

func (r gormPickups) List(ctx context.Context, f PickupFilter) ([]models.Pickup, error) {
	query := r.db.WithContext(ctx)
	if f.VolunteerID != "" {
		query = query.Where("volunteer_id = ?", f.VolunteerID)
	}
	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}
	var pickups []models.Pickup
	err := query.Order("scheduled_at asc").Find(&pickups).Error
	return pickups, translate(err)
}

// ── Notifications ───────────────────────────────────────────────────────────

type gormNotifications struct{ db *gorm.DB }

func (r gormNotifications) Create(ctx context.Context, n *models.Notification) error {
	return translate(r.db.WithContext(ctx).Create(n).Error)
}

func (r gormNotifications) FindByID(ctx context.Context, id string) (*models.Notification, error) {
	var n models.Notification
	if err := r.db.WithContext(ctx).First(&n, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &n, nil
}

func (r gormNotifications) ListByUser(ctx context.Context, userID string) ([]models.Notification, error) {
	var list []models.Notification
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at desc").Find(&list).Error
	return list, translate(err)
}

func (r gormNotifications) MarkRead(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Model(&models.Notification{}).Where("id = ?", id).Update("read", true)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r gormNotifications) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where(map[string]any{"user_id": userID, "read": false}).Update("read", true)
	return res.RowsAffected, translate(res.Error)
}
