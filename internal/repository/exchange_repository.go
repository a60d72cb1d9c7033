package repository

import (
	"travel-advisor-go/internal/model"

	"gorm.io/gorm"
)

// ExchangeRepository 接口定义了问答归档记录的数据操作方法。
type ExchangeRepository interface {
	Create(exchange *model.Exchange) error
	FindByThreadID(threadID string) ([]model.Exchange, error)
	CountByThreadID(threadID string) (int64, error)
}

type exchangeRepository struct {
	db *gorm.DB
}

// NewExchangeRepository 创建一个新的 ExchangeRepository 实例。
func NewExchangeRepository(db *gorm.DB) ExchangeRepository {
	return &exchangeRepository{db: db}
}

// Create 在数据库中插入一条新的问答归档记录。
func (r *exchangeRepository) Create(exchange *model.Exchange) error {
	return r.db.Create(exchange).Error
}

// FindByThreadID 按线程查询归档记录，按时间升序返回。
func (r *exchangeRepository) FindByThreadID(threadID string) ([]model.Exchange, error) {
	var exchanges []model.Exchange
	err := r.db.Where("thread_id = ?", threadID).Order("created_at ASC").Find(&exchanges).Error
	return exchanges, err
}

// CountByThreadID 统计某线程的归档条数。
func (r *exchangeRepository) CountByThreadID(threadID string) (int64, error) {
	var count int64
	err := r.db.Model(&model.Exchange{}).Where("thread_id = ?", threadID).Count(&count).Error
	return count, err
}
