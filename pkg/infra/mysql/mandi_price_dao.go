package mysql

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"agrichain/common/entity"
)

// Open 打开 MySQL 连接
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// MandiPriceDAO 市场成交数据访问对象
type MandiPriceDAO struct {
	db *gorm.DB
}

// NewMandiPriceDAO 创建 MandiPriceDAO 实例
func NewMandiPriceDAO(db *gorm.DB) *MandiPriceDAO {
	return &MandiPriceDAO{db: db}
}

// RecentPrices 查询作物自 since 起的成交记录（含市场信息）
// 结果按市场、交易日升序排列
func (dao *MandiPriceDAO) RecentPrices(ctx context.Context, crop string, since time.Time) ([]entity.MandiPrice, error) {
	var rows []entity.MandiPrice
	err := dao.db.WithContext(ctx).
		Preload("Mandi").
		Where("LOWER(crop) = ? AND trade_date >= ?", strings.ToLower(crop), datatypes.Date(since)).
		Order("mandi_id ASC, trade_date ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("query mandi prices failed: %w", err)
	}
	return rows, nil
}
