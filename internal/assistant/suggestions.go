package assistant

var suggestedActions = map[Intent][]string{
	IntentSearch: {
		"Tóm tắt tài liệu đầu tiên",
		"Tìm thêm tài liệu cùng môn học",
		"Gợi ý tài liệu cho tôi",
	},
	IntentRecommend: {
		"Tóm tắt tài liệu đầu tiên",
		"Theo dõi thêm môn học",
		"Tìm tài liệu theo từ khóa",
	},
	IntentSummarize: {
		"Hỏi thêm về nội dung tài liệu này",
		"Tìm tài liệu liên quan",
		"Tải tài liệu xuống",
	},
	IntentDocumentQuestion: {
		"Tóm tắt tài liệu này",
		"Tìm tài liệu liên quan",
		"Tải tài liệu xuống",
	},
	IntentGeneral: {
		"Tìm tài liệu theo môn học",
		"Gợi ý tài liệu cho tôi",
		"Tóm tắt một tài liệu",
	},
}

// SuggestedActions returns a copy of the follow-up actions for intent.
func SuggestedActions(intent Intent) []string {
	src := suggestedActions[intent]
	if src == nil {
		src = suggestedActions[IntentGeneral]
	}
	out := make([]string, len(src))
	copy(out, src)
	return out
}
