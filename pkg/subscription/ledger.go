package subscription

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"coursegen_backend/internal/model"
)

// ErrRecordNotFound is returned by ledger lookups that miss. Webhook
// paths treat it as a no-op; user-facing paths report it.
var ErrRecordNotFound = errors.New("subscription record not found")

// Ledger is the persistence surface the reconciliation engine works
// against. One record per user at most; AddToAdminTotal must be an
// atomic increment at the store layer.
type Ledger interface {
	Upsert(record *model.Subscription) error
	FindByUser(userID uint) (*model.Subscription, error)
	FindBySubscriberRef(ref string) (*model.Subscription, error)
	ListAll() ([]model.Subscription, error)
	DeleteByRef(ref string) error
	GetUser(userID uint) (*model.User, error)
	SetUserType(userID uint, userType string) error
	AddToAdminTotal(amount float64) error
	RecordWebhookEvent(event *model.WebhookEvent) (bool, error)
	MarkWebhookProcessed(eventID uint, processingErr error) error
}

type gormLedger struct {
	db *gorm.DB
}

// NewLedger creates a GORM-backed ledger.
func NewLedger(db *gorm.DB) Ledger {
	return &gormLedger{db: db}
}

// Upsert replaces any existing record for the user so a second active
// subscription can never exist.
func (l *gormLedger) Upsert(record *model.Subscription) error {
	return l.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("user_id = ?", record.UserID).
			Delete(&model.Subscription{}).Error; err != nil {
			return err
		}
		return tx.Create(record).Error
	})
}

func (l *gormLedger) FindByUser(userID uint) (*model.Subscription, error) {
	var record model.Subscription
	err := l.db.Where("user_id = ?", userID).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// FindBySubscriberRef matches either identifier column; providers
// report a subscriber id in some payloads and a subscription id in
// others.
func (l *gormLedger) FindBySubscriberRef(ref string) (*model.Subscription, error) {
	var record model.Subscription
	err := l.db.Where("subscriber_id = ?", ref).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = l.db.Where("subscription_id = ?", ref).First(&record).Error
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (l *gormLedger) ListAll() ([]model.Subscription, error) {
	var records []model.Subscription
	err := l.db.Find(&records).Error
	return records, err
}

// DeleteByRef removes the record carrying the reference in either
// identifier column. Deleting a record that is already gone succeeds.
func (l *gormLedger) DeleteByRef(ref string) error {
	return l.db.Unscoped().
		Where("subscriber_id = ? OR subscription_id = ?", ref, ref).
		Delete(&model.Subscription{}).Error
}

func (l *gormLedger) GetUser(userID uint) (*model.User, error) {
	var user model.User
	err := l.db.First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (l *gormLedger) SetUserType(userID uint, userType string) error {
	return l.db.Model(&model.User{}).Where("id = ?", userID).
		Update("type", userType).Error
}

// AddToAdminTotal increments the commission total in a single UPDATE
// so concurrent activations cannot lose each other's writes.
func (l *gormLedger) AddToAdminTotal(amount float64) error {
	return l.db.Model(&model.Admin{}).Where("type = ?", model.AdminTypeMain).
		Update("total", gorm.Expr("total + ?", amount)).Error
}

// RecordWebhookEvent inserts the event if it has not been seen; the
// bool reports whether this delivery is the first.
func (l *gormLedger) RecordWebhookEvent(event *model.WebhookEvent) (bool, error) {
	tx := l.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "provider"},
			{Name: "provider_event_id"},
		},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (l *gormLedger) MarkWebhookProcessed(eventID uint, processingErr error) error {
	errMsg := ""
	if processingErr != nil {
		errMsg = processingErr.Error()
	}
	return l.db.Model(&model.WebhookEvent{}).Where("id = ?", eventID).
		Updates(map[string]interface{}{
			"processed_at":     gorm.Expr("NOW()"),
			"processing_error": errMsg,
		}).Error
}
