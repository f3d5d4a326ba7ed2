package framework

import (
	"context"
	"fmt"
)

// PreProcessor 按顺序执行的处理链（校验 -> 计算 -> 回调）
type PreProcessor struct {
	steps []ProcessorFunc
}

// NewPreProcessor 创建处理链
func NewPreProcessor(steps []ProcessorFunc) *PreProcessor {
	return &PreProcessor{steps: steps}
}

// Then 追加一步
func (p *PreProcessor) Then(step ProcessorFunc) *PreProcessor {
	p.steps = append(p.steps, step)
	return p
}

// Run 执行处理链，遇到第一个错误或 ctx 结束即返回
func (p *PreProcessor) Run(ctx context.Context) error {
	for i, step := range p.steps {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("processor[%d] not started: %w", i, err)
		}
		if err := step(ctx); err != nil {
			return fmt.Errorf("processor[%d] failed: %w", i, err)
		}
	}
	return nil
}
