package service

import "travel-advisor-go/internal/model"

// TrimMessages 把完整历史裁剪到 budget 条以内的模型可见窗口。
// 策略：保留最近的消息；开头的 system 消息即使超出窗口也保留；
// 裁掉半个问答对时窗口从 user 消息开始，绝不以 assistant 消息开头；
// 无论预算多小，至少保留最近一条消息。历史本身不超预算时原样返回。
func TrimMessages(history []model.ChatMessage, budget int) []model.ChatMessage {
	if budget < 1 {
		budget = 1
	}
	if len(history) <= budget {
		return history
	}

	rest := history
	var system []model.ChatMessage
	if history[0].Role == model.RoleSystem {
		system = history[:1]
		rest = history[1:]
	}

	keep := budget
	if keep > len(rest) {
		keep = len(rest)
	}
	window := rest[len(rest)-keep:]

	// 窗口不能从 assistant 回复的中间开始
	for len(window) > 1 && window[0].Role != model.RoleUser {
		window = window[1:]
	}

	if len(system) == 0 {
		return window
	}
	trimmed := make([]model.ChatMessage, 0, len(window)+1)
	trimmed = append(trimmed, system...)
	trimmed = append(trimmed, window...)
	return trimmed
}
