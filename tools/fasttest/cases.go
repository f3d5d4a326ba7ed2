package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"agrichain/common/model"
	"agrichain/internal/business"
)

// TestCase 测试用例
// 字段名与 HTTP/队列的 JSON 字段一致
type TestCase struct {
	Name             string                     `json:"name"`
	Crop             string                     `json:"crop"`
	YieldQuintals    float64                    `json:"yield_quintals"`
	BaseSpoilageRate float64                    `json:"base_spoilage_rate"`
	Environment      *model.EnvironmentSnapshot `json:"environment"`
	Markets          []model.MarketQuote        `json:"markets"`
	Expect           Expectation                `json:"expect"`
}

// Expectation 期望结果，空字段不校验
type Expectation struct {
	Status     string `json:"status"`
	BestMandi  string `json:"best_mandi"`
	Shock      string `json:"shock"`
	PivotMandi string `json:"pivot_mandi"`
	Error      string `json:"error"` // invalid_input / no_candidate_markets
}

// loadTestCases 从 YAML（或 JSON）文件加载测试用例
// 先解析为通用结构再按 JSON 字段名映射，与线上消息格式保持一致
func loadTestCases(path string) ([]TestCase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read testcase file: %w", err)
	}

	var raw []interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse testcase file: %w", err)
	}

	normalized, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize testcase: %w", err)
	}

	var cases []TestCase
	if err := json.Unmarshal(normalized, &cases); err != nil {
		return nil, fmt.Errorf("failed to unmarshal testcase: %w", err)
	}
	return cases, nil
}

// toBusinessData 转换为 worker 使用的业务快照
func (tc TestCase) toBusinessData(advisoryID string) model.RecommendationBusinessData {
	return model.RecommendationBusinessData{
		AdvisoryID:       advisoryID,
		Crop:             tc.Crop,
		YieldQuintals:    tc.YieldQuintals,
		BaseSpoilageRate: tc.BaseSpoilageRate,
		Environment:      tc.Environment,
		Markets:          tc.Markets,
	}
}

// toJob 构造标准化任务消息
func (tc TestCase) toJob(advisoryID, requestID string) ([]byte, error) {
	return json.Marshal(model.RecommendationJob{
		Payload: model.RecommendationPayload{
			Data: model.RecommendationJobData{
				RequestID:  requestID,
				OrgID:      "0",
				ActionType: model.ActionTypeRecommendationCompute,
				ID:         advisoryID,
				Data:       tc.toBusinessData(advisoryID),
			},
		},
	})
}

// runOffline 直接调用合成器
func runOffline(ctx context.Context, s *business.Synthesizer, tc TestCase) (*model.Recommendation, error) {
	data := tc.toBusinessData("")
	return s.Synthesize(ctx, &business.RecommendInput{
		Crop:             data.Crop,
		YieldQuintals:    data.YieldQuintals,
		BaseSpoilageRate: data.BaseSpoilageRate,
		Environment:      data.Environment,
		Markets:          data.Markets,
	})
}

// check 对比结果与期望
func (e Expectation) check(rec *model.Recommendation, err error) error {
	if e.Error != "" {
		return checkError(e.Error, err)
	}
	if err != nil {
		return fmt.Errorf("unexpected error: %w", err)
	}

	if e.Status != "" && rec.Status != e.Status {
		return fmt.Errorf("status: want %s, got %s", e.Status, rec.Status)
	}
	if e.BestMandi != "" && rec.BestMarket != e.BestMandi {
		return fmt.Errorf("best mandi: want %s, got %s", e.BestMandi, rec.BestMarket)
	}

	shock := model.ShockStatusNormal
	if rec.ShockAlert != nil {
		shock = rec.ShockAlert.Status
	}
	if e.Shock != "" && shock != e.Shock {
		return fmt.Errorf("shock: want %s, got %s", e.Shock, shock)
	}

	if e.PivotMandi != "" {
		if rec.ShockAlert == nil || rec.ShockAlert.PivotTarget == nil {
			return fmt.Errorf("pivot: want %s, got none", e.PivotMandi)
		}
		if got := rec.ShockAlert.PivotTarget.MarketName; got != e.PivotMandi {
			return fmt.Errorf("pivot: want %s, got %s", e.PivotMandi, got)
		}
	}
	return nil
}

func checkError(want string, err error) error {
	var target error
	switch want {
	case "invalid_input":
		target = business.ErrInvalidInput
	case "no_candidate_markets":
		target = business.ErrNoCandidateMarkets
	default:
		return fmt.Errorf("unknown expected error %q", want)
	}

	if err == nil {
		return fmt.Errorf("want error %s, got none", want)
	}
	if !errors.Is(err, target) {
		return fmt.Errorf("want error %s, got %v", want, err)
	}
	return nil
}
