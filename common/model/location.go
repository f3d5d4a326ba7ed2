package model

// 未提供定位时使用的默认坐标（浦那）
const (
	DefaultLatitude  = 18.5204
	DefaultLongitude = 73.8567
)

// Location GPS 坐标
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// DefaultLocation 返回默认坐标
func DefaultLocation() Location {
	return Location{Lat: DefaultLatitude, Lng: DefaultLongitude}
}
