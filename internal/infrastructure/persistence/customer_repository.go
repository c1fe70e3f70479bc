package persistence

import (
	"context"
	"fmt"

	"github.com/erp/orderstats/internal/domain/shop"
	"github.com/erp/orderstats/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// CustomerRepository persists customer datasets and loads them back in insertion order.
type CustomerRepository struct {
	db *gorm.DB
}

// NewCustomerRepository creates a new CustomerRepository
func NewCustomerRepository(db *gorm.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

// Name identifies the source in logs and metrics.
func (r *CustomerRepository) Name() string {
	return "database"
}

// AutoMigrate creates or updates the customers, orders and order_items tables.
func (r *CustomerRepository) AutoMigrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(
		&models.CustomerModel{},
		&models.OrderModel{},
		&models.OrderItemModel{},
	); err != nil {
		return fmt.Errorf("failed to migrate customer tables: %w", err)
	}
	return nil
}

func byPosition(db *gorm.DB) *gorm.DB {
	return db.Order("position")
}

// LoadCustomers returns every stored customer with orders and items, in insertion order.
func (r *CustomerRepository) LoadCustomers(ctx context.Context) ([]*shop.Customer, error) {
	var rows []models.CustomerModel
	err := r.db.WithContext(ctx).
		Preload("Orders", byPosition).
		Preload("Orders.Items", byPosition).
		Order("position").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load customers: %w", err)
	}

	customers := make([]*shop.Customer, 0, len(rows))
	for i := range rows {
		c, err := rows[i].ToDomain()
		if err != nil {
			return nil, fmt.Errorf("customer %s: %w", rows[i].ID, err)
		}
		customers = append(customers, c)
	}
	return customers, nil
}

// Save appends customers after the ones already stored, in a single transaction.
func (r *CustomerRepository) Save(ctx context.Context, customers []*shop.Customer) error {
	if len(customers) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var next int
		if err := tx.Model(&models.CustomerModel{}).
			Select("COALESCE(MAX(position) + 1, 0)").
			Scan(&next).Error; err != nil {
			return fmt.Errorf("failed to read customer position: %w", err)
		}

		rows := make([]*models.CustomerModel, 0, len(customers))
		for i, c := range customers {
			rows = append(rows, models.CustomerModelFromDomain(c, next+i))
		}
		if err := tx.CreateInBatches(rows, 100).Error; err != nil {
			return fmt.Errorf("failed to save customers: %w", err)
		}
		return nil
	})
}

// Count returns the number of stored customers.
func (r *CustomerRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.CustomerModel{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count customers: %w", err)
	}
	return n, nil
}

// DeleteAll removes every stored customer, order and order item.
func (r *CustomerRepository) DeleteAll(ctx context.Context) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []any{&models.OrderItemModel{}, &models.OrderModel{}, &models.CustomerModel{}} {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
				return fmt.Errorf("failed to clear customer tables: %w", err)
			}
		}
		return nil
	})
}
