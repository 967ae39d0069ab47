package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/loom-academy/loom-go-api/internal/models"
)

// PurchaseRepository reads settled purchases. Purchases are written by the
// checkout flow; this service only folds over them.
type PurchaseRepository interface {
	ListForCourses(ctx context.Context, courseIDs []uint) ([]models.Purchase, error)
}

type purchaseRepository struct {
	db *gorm.DB
}

// NewPurchaseRepository constructs the purchase repository.
func NewPurchaseRepository(db *gorm.DB) PurchaseRepository {
	return &purchaseRepository{db: db}
}

func (r *purchaseRepository) ListForCourses(ctx context.Context, courseIDs []uint) ([]models.Purchase, error) {
	if len(courseIDs) == 0 {
		return []models.Purchase{}, nil
	}

	var purchases []models.Purchase
	err := r.db.WithContext(ctx).
		Where("course_id IN ?", courseIDs).
		Find(&purchases).Error
	return purchases, err
}
