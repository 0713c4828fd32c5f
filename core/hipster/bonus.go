package hipster

import (
	"regexp"
	"strings"
)

var (
	bracketRe    = regexp.MustCompile(`\([^)]*\)|\[[^\]]*\]`)
	featRe       = regexp.MustCompile(`\b(?:feat\.?|ft\.?|featuring)\b.*$`)
	nonAlnumRe   = regexp.MustCompile(`[^a-z0-9\s]`)
	multiSpaceRe = regexp.MustCompile(`\s+`)
)

// NormalizeGuess 归一化歌名/歌手文本：
// 转小写、去掉括号段、去掉 feat./ft./featuring 后缀、去掉非字母数字字符、折叠空白。
func NormalizeGuess(s string) string {
	s = strings.ToLower(s)
	s = bracketRe.ReplaceAllString(s, " ")
	s = featRe.ReplaceAllString(s, " ")
	s = nonAlnumRe.ReplaceAllString(s, " ")
	s = multiSpaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// FuzzyMatch 模糊匹配玩家的自由输入与标准答案。
// 接受条件：归一化后完全一致；或命中答案的任意单个空白分词；
// 或编辑距离不超过答案长度的20%（向下取整）。
// 空猜测一律拒绝。
func FuzzyMatch(guess, truth string) bool {
	g := NormalizeGuess(guess)
	t := NormalizeGuess(truth)
	if g == "" {
		return false
	}
	if g == t {
		return true
	}
	for _, token := range strings.Fields(t) {
		if g == token {
			return true
		}
	}
	return levenshtein(g, t) <= len(t)/5
}

// levenshtein 计算编辑距离，单行滚动数组
func levenshtein(a, b string) int {
	ra := []rune(a)
	rb := []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr := make([]int, len(rb)+1)
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min3(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev = curr
	}
	return prev[len(rb)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
