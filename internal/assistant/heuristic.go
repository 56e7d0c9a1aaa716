package assistant

import (
	"regexp"
	"strconv"
	"strings"

	"unidoc-hub/internal/pkg/textnorm"
)

const maxHeuristicKeywords = 5

var (
	uuidPattern = regexp.MustCompile(`[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`)

	// Matched against folded, token-joined text.
	numberedPosition = regexp.MustCompile(`\b(?:thu|so|cuon|bai) (\d{1,2})\b`)
)

var ordinalPhrases = []struct {
	phrase   string
	position int
}{
	{"dau tien", 1}, {"thu nhat", 1}, {"first", 1}, {"1st", 1},
	{"thu hai", 2}, {"second", 2}, {"2nd", 2},
	{"thu ba", 3}, {"third", 3}, {"3rd", 3},
	{"thu tu", 4}, {"fourth", 4}, {"4th", 4},
	{"thu nam", 5}, {"fifth", 5}, {"5th", 5},
}

var intentPhrases = []struct {
	intent  Intent
	phrases []string
}{
	{IntentSummarize, []string{"tom tat", "tom luoc", "noi dung chinh", "summarize", "summary", "summarise"}},
	{IntentRecommend, []string{"goi y", "de xuat", "de cu", "nen doc", "recommend", "recommendation", "suggest"}},
	{IntentSearch, []string{"tim", "tim kiem", "kiem", "tra cuu", "search", "find", "look for", "co tai lieu", "tai lieu ve", "tai lieu nao"}},
	{IntentDocumentQuestion, []string{"tai lieu nay", "trong tai lieu", "tai lieu do", "giai thich", "explain"}},
}

// fillerPhrases are removed wherever they occur before keywords are taken.
var fillerPhrases = []string{
	"tim kiem", "tra cuu", "look for", "tai lieu", "giup toi", "giup minh", "cho toi", "cho minh",
	"tom tat", "tom luoc", "noi dung chinh", "goi y", "de xuat", "de cu", "nen doc", "mon hoc", "giai thich",
	"co khong", "duoc khong", "vui long",
}

// edgeStopwords are trimmed from both ends of what remains, so that words
// like "va" survive inside a subject name.
var edgeStopwords = toSet(
	"tim", "kiem", "search", "find", "xin", "hay", "nhe", "oi", "a", "please", "summarize", "summary", "summarise",
	"recommend", "suggest", "explain", "toi", "minh", "em", "ban", "me", "i", "you", "khong", "nao", "gi", "la",
	"cua", "va", "cac", "nhung", "mot", "nay", "do", "voi", "thi", "trong", "duoc", "can", "muon", "ve", "cho",
	"co", "noi", "of", "about", "for", "to", "some", "the", "document", "documents", "file", "sach", "giup",
)

// classifyHeuristically is the local classifier used when the model's answer
// cannot be used. It is deterministic and always returns a complete Analysis.
func classifyHeuristically(message string) Analysis {
	docID := uuidPattern.FindString(message)
	rest := uuidPattern.ReplaceAllString(message, " ")
	normalized := joinTokens(textnorm.Fold(rest))

	position := listPosition(normalized)

	intent := IntentGeneral
	for _, rule := range intentPhrases {
		if containsAnyPhrase(normalized, rule.phrases) {
			intent = rule.intent
			break
		}
	}
	if intent == IntentGeneral && (docID != "" || position > 0) {
		intent = IntentDocumentQuestion
	}
	if intent == IntentSearch && (docID != "" || position > 0) && !containsAnyPhrase(normalized, []string{"tim", "tim kiem", "search", "find"}) {
		intent = IntentDocumentQuestion
	}

	return normalizeAnalysis(Analysis{
		Intent:       intent,
		Keywords:     extractKeywords(normalized),
		DocumentID:   strings.ToLower(docID),
		ListPosition: position,
	})
}

// extractKeywords returns the remaining content words as one phrase followed
// by its longer individual words.
func extractKeywords(normalized string) []string {
	padded := " " + normalized + " "
	for _, p := range fillerPhrases {
		padded = removePhrase(padded, p)
	}
	for _, o := range ordinalPhrases {
		padded = removePhrase(padded, o.phrase)
	}
	padded = numberedPosition.ReplaceAllString(padded, " ")

	content := strings.Fields(padded)
	for len(content) > 0 && isEdgeStopword(content[0]) {
		content = content[1:]
	}
	for len(content) > 0 && isEdgeStopword(content[len(content)-1]) {
		content = content[:len(content)-1]
	}
	if len(content) == 0 {
		return []string{}
	}

	keywords := []string{strings.Join(content, " ")}
	if len(content) == 1 {
		return keywords
	}
	seen := map[string]struct{}{keywords[0]: {}}
	for _, tok := range content {
		if len(keywords) >= maxHeuristicKeywords {
			break
		}
		if len([]rune(tok)) < 3 || isEdgeStopword(tok) {
			continue
		}
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
		keywords = append(keywords, tok)
	}
	return keywords
}

func removePhrase(padded, phrase string) string {
	target := " " + phrase + " "
	for strings.Contains(padded, target) {
		padded = strings.Replace(padded, target, " ", 1)
	}
	return padded
}

func isEdgeStopword(tok string) bool {
	_, ok := edgeStopwords[tok]
	return ok
}

func listPosition(normalized string) int {
	for _, o := range ordinalPhrases {
		if containsPhrase(normalized, o.phrase) {
			return o.position
		}
	}
	if m := numberedPosition.FindStringSubmatch(normalized); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			return n
		}
	}
	return 0
}

func joinTokens(folded string) string {
	return strings.Join(textnorm.Tokens(folded), " ")
}

func containsPhrase(normalized, phrase string) bool {
	return strings.Contains(" "+normalized+" ", " "+phrase+" ")
}

func containsAnyPhrase(normalized string, phrases []string) bool {
	for _, p := range phrases {
		if containsPhrase(normalized, p) {
			return true
		}
	}
	return false
}

func toSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
