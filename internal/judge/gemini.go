package judge

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

// GeminiClient 通过Google Gemini API执行评委调用。
// 温度保持非零，副本之间的输出差异正是一致性协议要防御的对象。
type GeminiClient struct {
	client      *genai.Client
	model       string
	temperature float32
}

// NewGeminiClient 创建Gemini评委客户端。apiKey来自环境变量GEMINI_API_KEY。
func NewGeminiClient(ctx context.Context, apiKey, model string, temperature float32) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, errors.New("缺少Gemini API密钥")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("无法创建Gemini客户端: %w", err)
	}
	return &GeminiClient{client: client, model: model, temperature: temperature}, nil
}

// Judge 执行一次评委调用并返回模型的原始文本输出
func (g *GeminiClient) Judge(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		Temperature: genai.Ptr(g.temperature),
	})
	if err != nil {
		return "", fmt.Errorf("Gemini调用失败: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", errors.New("Gemini返回了空响应")
	}
	return text, nil
}
