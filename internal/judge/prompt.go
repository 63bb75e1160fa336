package judge

import (
	"fmt"
	"strings"
)

// Category 是回合的评判类别。每个类别对应一套评分准则，
// 准则文本会原样写入评委提示词。
type Category string

const (
	CategoryFunniest     Category = "Funniest"
	CategoryMostAccurate Category = "Most Accurate"
	CategoryMostCreative Category = "Most Creative"
	CategoryBestMeme     Category = "Best Meme"
)

// Categories 列出所有合法类别，顺序固定
var Categories = []Category{
	CategoryFunniest,
	CategoryMostAccurate,
	CategoryMostCreative,
	CategoryBestMeme,
}

// soloCriteria 是单人评分提示词中每个类别的一句话准则
var soloCriteria = map[Category]string{
	CategoryFunniest:     "humor, comedic value, clever wordplay, and how hard it would make someone laugh",
	CategoryMostAccurate: "literal accuracy to what's shown, descriptive precision, and truthfulness",
	CategoryMostCreative: "originality, uniqueness, imaginative interpretation, and unconventional perspective",
	CategoryBestMeme:     "internet culture relevance, relatability, viral potential, and meme format fit",
}

// comparativeCriteria 是对比评判提示词中每个类别的多行准则
var comparativeCriteria = map[Category]string{
	CategoryFunniest: `- Humor and comedic value
- Clever wordplay or puns
- Unexpected or surprising elements
- Timing and delivery in written form
- How hard it would make someone laugh`,

	CategoryMostAccurate: `- Literal accuracy to what's shown in the image
- Descriptive precision
- Relevant details captured
- Truthfulness to the scene
- How well it explains what's happening`,

	CategoryMostCreative: `- Originality and uniqueness
- Imaginative interpretation
- Unconventional perspective
- Artistic or poetic quality
- How different it is from obvious choices`,

	CategoryBestMeme: `- Internet culture relevance
- Relatability to common experiences
- Viral/shareable potential
- Proper meme format/style
- How well it fits meme conventions`,
}

// ParseCategory 校验类别字符串。未知类别是硬性校验失败，
// 绝不回退到默认准则。
func ParseCategory(s string) (Category, error) {
	for _, c := range Categories {
		if string(c) == s {
			return c, nil
		}
	}
	names := make([]string, len(Categories))
	for i, c := range Categories {
		names[i] = string(c)
	}
	return "", fmt.Errorf("无效的评判类别 %q，必须是以下之一: %s", s, strings.Join(names, ", "))
}

// LetterID 返回第i个投稿（从0开始，按提交顺序）的字母编号。
// 编号只在单次评判内有意义，A对应最早的投稿。
func LetterID(i int) string {
	return string(rune('A' + i))
}

// MaxComparativeEntries 是对比评判支持的最大投稿数，受字母编号限制
const MaxComparativeEntries = 26

// CaptionEntry 是提示词中一条待评判的投稿
type CaptionEntry struct {
	ID   string
	Text string
}

// BuildSoloPrompt 构造单人回合的1-10评分提示词。
func BuildSoloPrompt(imageURL string, category Category, caption string) (string, error) {
	criteria, ok := soloCriteria[category]
	if !ok {
		return "", fmt.Errorf("无效的评判类别: %q", category)
	}

	return fmt.Sprintf(`You are a judge for a caption contest. Score this single caption on a scale of 1-10 for the %[1]q category.

IMAGE: %[2]s

CAPTION: %[3]q

SCORING CRITERIA FOR "%[4]s":
Evaluate based on: %[5]s

SCORING GUIDE:
- 1-3: Poor - doesn't fit the category well
- 4-5: Below average - somewhat fits but lacks impact
- 6-7: Good - solid entry that fits the category
- 8-9: Excellent - stands out, very fitting for the category
- 10: Perfect - exceptional, couldn't be better for this category

RESPOND IN THIS EXACT JSON FORMAT:
{"score": <integer 1-10>}

IMPORTANT: Return ONLY the JSON object, no other text.`,
		string(category), imageURL, caption, strings.ToUpper(string(category)), criteria), nil
}

// BuildComparativePrompt 构造多人回合的对比评判提示词。
// entries 必须至少有两条，按提交顺序排列并已分配字母编号。
func BuildComparativePrompt(imageURL string, category Category, entries []CaptionEntry) (string, error) {
	criteria, ok := comparativeCriteria[category]
	if !ok {
		return "", fmt.Errorf("无效的评判类别: %q", category)
	}
	if len(entries) < 2 {
		return "", fmt.Errorf("对比评判至少需要2条投稿，实际只有 %d 条", len(entries))
	}
	if len(entries) > MaxComparativeEntries {
		return "", fmt.Errorf("对比评判最多支持 %d 条投稿，实际有 %d 条", MaxComparativeEntries, len(entries))
	}

	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = fmt.Sprintf("Caption %s: %q", e.ID, e.Text)
	}

	return fmt.Sprintf(`You are a judge for a caption contest. Your task is to select the TOP 2 captions for the %[1]q category.

IMAGE: %[2]s

CAPTIONS TO EVALUATE:
%[3]s

JUDGING CRITERIA FOR "%[4]s":
%[5]s

INSTRUCTIONS:
1. Consider ONLY the %[1]q criteria above
2. Evaluate each caption against these specific criteria
3. Select the BEST caption as Winner
4. Select the SECOND BEST caption as Runner-up
5. Both Winner and Runner-up MUST be different captions

RESPOND IN THIS EXACT JSON FORMAT:
{"winner": "<caption_id>", "runner_up": "<caption_id>"}

IMPORTANT:
- Return ONLY the JSON object, no other text
- Use the exact caption IDs provided (e.g., "A", "B", "C")
- Winner and runner_up must be different`,
		string(category), imageURL, strings.Join(lines, "\n"), strings.ToUpper(string(category)), criteria), nil
}
