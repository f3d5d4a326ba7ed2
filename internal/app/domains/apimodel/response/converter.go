package response

import (
	"agrichain/internal/app/domains/entity/etadvisory"
	"agrichain/internal/app/infra/upstream/mandi"
	"agrichain/internal/business"
)

// FromAdvisoryEntity 从领域对象转换为响应 DTO
func FromAdvisoryEntity(advisory *etadvisory.Advisory) *AdvisoryResponse {
	resp := &AdvisoryResponse{
		ID:             advisory.ID,
		RequestID:      advisory.RequestID,
		Crop:           advisory.Crop,
		YieldQuintals:  advisory.YieldQuintals,
		Status:         string(advisory.Status),
		Recommendation: advisory.Recommendation,
		Error:          advisory.ErrorMessage,
		CreatedAt:      advisory.CreatedAt,
		UpdatedAt:      advisory.UpdatedAt,
	}

	if advisory.Snapshot != nil {
		loc := advisory.Snapshot.Location
		resp.Location = &loc
		resp.MarketSource = advisory.Snapshot.MarketSource
	}

	return resp
}

// FromAdvisoryEntities 批量转换
func FromAdvisoryEntities(advisories []*etadvisory.Advisory) []*AdvisoryResponse {
	out := make([]*AdvisoryResponse, 0, len(advisories))
	for _, a := range advisories {
		out = append(out, FromAdvisoryEntity(a))
	}
	return out
}

// FromMarketResult 转换市场报价结果
func FromMarketResult(crop string, res *mandi.Result) *MarketsResponse {
	return &MarketsResponse{
		Crop:    crop,
		Source:  res.Source,
		Markets: res.Quotes,
	}
}

// FromCropProfiles 转换作物参数
func FromCropProfiles(profiles []business.CropProfile) []CropResponse {
	out := make([]CropResponse, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, CropResponse{Name: p.Name, BaseDecayRate: p.BaseDecayRate})
	}
	return out
}
