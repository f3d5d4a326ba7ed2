package entity

import (
	"time"

	"gorm.io/datatypes"
)

// Mandi 农产品批发市场（APMC）目录
type Mandi struct {
	ID            int64   `gorm:"column:id;primaryKey;autoIncrement"`
	Name          string  `gorm:"column:name;type:varchar(128);not null;uniqueIndex:uk_name_district"`
	District      string  `gorm:"column:district;type:varchar(64);not null;uniqueIndex:uk_name_district"`
	State         string  `gorm:"column:state;type:varchar(64);not null"`
	Latitude      float64 `gorm:"column:latitude;not null"`
	Longitude     float64 `gorm:"column:longitude;not null"`
	IsColdStorage bool    `gorm:"column:is_cold_storage;not null;default:false"`
}

// TableName 指定表名
func (Mandi) TableName() string {
	return "mandis"
}

// MandiPrice 市场每日成交记录
type MandiPrice struct {
	ID            int64          `gorm:"column:id;primaryKey;autoIncrement"`
	MandiID       int64          `gorm:"column:mandi_id;not null;uniqueIndex:uk_mandi_crop_day"`
	Crop          string         `gorm:"column:crop;type:varchar(32);not null;uniqueIndex:uk_mandi_crop_day;index:idx_crop_day"`
	TradeDate     datatypes.Date `gorm:"column:trade_date;not null;uniqueIndex:uk_mandi_crop_day;index:idx_crop_day"`
	ModalPrice    float64        `gorm:"column:modal_price;not null"`    // ₹/公担
	ArrivalTonnes float64        `gorm:"column:arrival_tonnes;not null"` // 当日到货量
	CreatedAt     time.Time      `gorm:"column:created_at;not null"`

	Mandi Mandi `gorm:"foreignKey:MandiID"`
}

// TableName 指定表名
func (MandiPrice) TableName() string {
	return "mandi_prices"
}
