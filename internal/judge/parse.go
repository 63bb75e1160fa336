package judge

import (
	"encoding/json"
	"strings"
)

// ExtractJSONObject 从评委的原始输出中提取第一个花括号配平的JSON对象。
// 模型偶尔会在JSON前后附加说明文字或```json围栏，这里只认括号深度。
// 找不到配平对象时返回空字符串。
func ExtractJSONObject(s string) string {
	start := strings.Index(s, "{")
	if start == -1 {
		return ""
	}

	depth := 0
	for i := start; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

// ComparativeVerdict 是一次对比评判的规范化结果，Winner和RunnerUp是字母编号。
type ComparativeVerdict struct {
	Winner   string
	RunnerUp string
}

// LetterIndex 把字母编号还原为投稿下标。编号必须是A开始的单个大写字母，
// 且落在本次评判的投稿数量之内。
func LetterIndex(id string, entryCount int) (int, bool) {
	if len(id) != 1 {
		return 0, false
	}
	idx := int(id[0]) - 'A'
	if idx < 0 || idx >= entryCount {
		return 0, false
	}
	return idx, true
}

// DecodeComparativeVerdict 把一个副本的原始输出解析为对比裁决。
// 依次校验：JSON对象存在、可解码、两个键都有值、
// 编号合法且互不相同。任何一步失败都返回ParseError。
func DecodeComparativeVerdict(raw string, entryCount int) (*ComparativeVerdict, error) {
	jsonStr := ExtractJSONObject(raw)
	if jsonStr == "" {
		return nil, &ParseError{Reason: "输出中没有JSON对象", Output: raw}
	}

	var parsed struct {
		Winner   string `json:"winner"`
		RunnerUp string `json:"runner_up"`
	}
	if err := json.Unmarshal([]byte(jsonStr), &parsed); err != nil {
		return nil, &ParseError{Reason: "JSON解码失败", Output: raw}
	}

	if parsed.Winner == "" || parsed.RunnerUp == "" {
		return nil, &ParseError{Reason: "缺少winner或runner_up键", Output: raw}
	}
	if _, ok := LetterIndex(parsed.Winner, entryCount); !ok {
		return nil, &ParseError{Reason: "winner不是合法的投稿编号", Output: raw}
	}
	if _, ok := LetterIndex(parsed.RunnerUp, entryCount); !ok {
		return nil, &ParseError{Reason: "runner_up不是合法的投稿编号", Output: raw}
	}
	if parsed.Winner == parsed.RunnerUp {
		return nil, &ParseError{Reason: "winner和runner_up必须不同", Output: raw}
	}

	return &ComparativeVerdict{Winner: parsed.Winner, RunnerUp: parsed.RunnerUp}, nil
}

// DecodeSoloVerdict 把一个副本的原始输出解析为1-10的整数评分。
// 非整数或超出范围的评分视为非法裁决，不做截断修正。
func DecodeSoloVerdict(raw string) (int, error) {
	jsonStr := ExtractJSONObject(raw)
	if jsonStr == "" {
		return 0, &ParseError{Reason: "输出中没有JSON对象", Output: raw}
	}

	var parsed struct {
		Score json.Number `json:"score"`
	}
	if err := json.Unmarshal([]byte(jsonStr), &parsed); err != nil {
		return 0, &ParseError{Reason: "JSON解码失败", Output: raw}
	}
	if parsed.Score == "" {
		return 0, &ParseError{Reason: "缺少score键", Output: raw}
	}

	score, err := parsed.Score.Int64()
	if err != nil {
		return 0, &ParseError{Reason: "score不是整数", Output: raw}
	}
	if score < 1 || score > 10 {
		return 0, &ParseError{Reason: "score超出1-10范围", Output: raw}
	}

	return int(score), nil
}
