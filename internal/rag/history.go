package rag

import (
	"github.com/vmonin/semknow/internal/aiclient"
	"github.com/vmonin/semknow/internal/domain"
)

// HistoryPolicy is the closed set of retention strategies
// ChatHistoryManager can enforce.
type HistoryPolicy int

const (
	// PolicyKeepLastN retains only the most recent N messages.
	PolicyKeepLastN HistoryPolicy = iota
	// PolicyTokenBudget retains a suffix of messages, scanning from the
	// newest, whose total Tokens does not exceed the configured budget; the
	// newest message is always retained, even when it alone exceeds it.
	PolicyTokenBudget
	// PolicyUnlimited retains every message ever added.
	PolicyUnlimited
)

// ChatHistoryManager accumulates chat turns and, on read, applies one
// retention policy fixed at construction. It is transient and owned by
// the caller; it never touches the store.
type ChatHistoryManager struct {
	policy   HistoryPolicy
	limit    int // message count for PolicyKeepLastN, token budget for PolicyTokenBudget
	messages []domain.ChatMessage
}

// NewKeepLastN returns a manager retaining only the last n messages.
func NewKeepLastN(n int) *ChatHistoryManager {
	return &ChatHistoryManager{policy: PolicyKeepLastN, limit: n}
}

// NewTokenBudget returns a manager retaining a newest-first suffix of
// messages whose combined token count fits within budget.
func NewTokenBudget(budget int) *ChatHistoryManager {
	return &ChatHistoryManager{policy: PolicyTokenBudget, limit: budget}
}

// NewUnlimited returns a manager that never drops messages.
func NewUnlimited() *ChatHistoryManager {
	return &ChatHistoryManager{policy: PolicyUnlimited}
}

// Add appends one turn to the history.
func (m *ChatHistoryManager) Add(msg domain.ChatMessage) {
	m.messages = append(m.messages, msg)
}

// Turns returns the retained messages, oldest first, as the
// ChatHistoryTurn slice aiclient.LLMProvider.Generate expects.
func (m *ChatHistoryManager) Turns() []aiclient.ChatHistoryTurn {
	retained := m.retained()
	turns := make([]aiclient.ChatHistoryTurn, len(retained))
	for i, msg := range retained {
		turns[i] = aiclient.ChatHistoryTurn{Role: msg.Role, Content: msg.Content}
	}
	return turns
}

func (m *ChatHistoryManager) retained() []domain.ChatMessage {
	switch m.policy {
	case PolicyKeepLastN:
		if len(m.messages) <= m.limit {
			return m.messages
		}
		return m.messages[len(m.messages)-m.limit:]
	case PolicyTokenBudget:
		return tokenBudgetSuffix(m.messages, m.limit)
	default: // PolicyUnlimited
		return m.messages
	}
}

// tokenBudgetSuffix scans from the newest message backward, including
// each while the running total stays within budget (the newest message is
// included regardless), then restores chronological order.
func tokenBudgetSuffix(messages []domain.ChatMessage, budget int) []domain.ChatMessage {
	var kept []domain.ChatMessage
	total := 0
	for i := len(messages) - 1; i >= 0; i-- {
		total += messages[i].Tokens
		if total > budget && len(kept) > 0 {
			break
		}
		kept = append(kept, messages[i])
	}
	// kept was built newest-first; reverse to chronological order.
	for l, r := 0, len(kept)-1; l < r; l, r = l+1, r-1 {
		kept[l], kept[r] = kept[r], kept[l]
	}
	return kept
}
