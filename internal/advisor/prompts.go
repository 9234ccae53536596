package advisor

import (
	"encoding/json"
	"fmt"
	"strings"
)

// categorizePrompt builds the Need/Want batch classification prompt. The
// response must be a strict JSON object aligned positionally with the input.
func categorizePrompt(descriptions []string) string {
	encoded, _ := json.Marshal(descriptions)

	return "You are a meticulous financial analyst AI. Your sole task is to categorize a list of bank " +
		"transaction descriptions as either 'Need' or 'Want'.\n\n" +
		"Definitions:\n" +
		"- 'Needs' are essential for living and working: rent, utilities, essential groceries, " +
		"transportation to work, insurance, and bill payments.\n" +
		"- 'Wants' are non-essential items that improve quality of life: restaurants, coffee shops, " +
		"shopping for non-essential clothing, entertainment, subscriptions, and impulse buys.\n\n" +
		"Examples:\n" +
		"- \"AUSTIN ENERGY BILL\" -> \"Need\"\n" +
		"- \"HEB\" -> \"Need\" (Groceries)\n" +
		"- \"Chevron Gas\" -> \"Need\" (Transportation)\n" +
		"- \"Starbucks\" -> \"Want\"\n" +
		"- \"Netflix Subscription\" -> \"Want\"\n\n" +
		"Instructions:\n" +
		"Return a single, valid JSON object and nothing else. No introductory text, no explanations, " +
		"no Markdown fences. The object must conform to this exact structure:\n" +
		"{\n  \"transactions\": [\"Need\", \"Want\", \"Need\", ...]\n}\n" +
		"The list must contain exactly one label per input transaction, in the same order.\n\n" +
		"Here is the list of transactions to categorize:\n" + string(encoded)
}

// recommendPrompt asks for a structured coaching suggestion.
func recommendPrompt(needsTotal, wantsTotal, goal float64, wantDescriptions []string) string {
	encoded, _ := json.Marshal(wantDescriptions)

	return "You are an expert, friendly financial coach. Given the user's spending context, return a " +
		"single JSON object (and nothing else) with these fields:\n\n" +
		"{\n" +
		"  \"top_want_transactions\": [{\"description\": \"<text>\", \"amount\": <number>}, ... up to 3 items ...],\n" +
		"  \"top_categories\": [\"coffee\", \"dining\", \"shopping\"],\n" +
		"  \"suggestion\": \"A short (1-2 sentence) actionable suggestion for the user\",\n" +
		"  \"reason\": \"One short sentence explaining why this will help\"\n" +
		"}\n\n" +
		"User context:\n" +
		fmt.Sprintf("- monthly_savings_goal: $%.2f\n", goal) +
		fmt.Sprintf("- needs_total: $%.2f\n", needsTotal) +
		fmt.Sprintf("- wants_total: $%.2f\n", wantsTotal) +
		"- want_transactions: " + string(encoded) + "\n\n" +
		"Constraints:\n" +
		"- Return ONLY the JSON object, nothing else (no prose, no backticks).\n" +
		"- Keep the suggestion to 1-2 sentences focused on small, actionable changes."
}

// trendingPrompt asks for fresh buy/sell stock ideas avoiding the given
// symbols.
func trendingPrompt(avoid []string, seed int64) string {
	avoidClause := "none"
	if len(avoid) > 0 {
		avoidClause = strings.Join(avoid, ", ")
	}

	return "You are a market commentator generating educational stock discussion ideas, not advice.\n\n" +
		"Return a single JSON object and nothing else:\n" +
		"{\n" +
		"  \"buys\": [{\"symbol\": \"TICK\", \"name\": \"Company\", \"reason\": \"one short sentence\"}, x3],\n" +
		"  \"sells\": [{\"symbol\": \"TICK\", \"name\": \"Company\", \"reason\": \"one short sentence\"}, x3]\n" +
		"}\n\n" +
		"Rules:\n" +
		"- Do NOT use any of these symbols: " + avoidClause + ".\n" +
		"- Prefer less-discussed mid-cap names over the usual mega caps.\n" +
		"- Each list must have exactly 3 distinct symbols.\n" +
		fmt.Sprintf("- Variety token: %d (ignore, but let it nudge you toward different picks).\n", seed) +
		"- No Markdown, no prose outside the JSON."
}

// cardsPrompt asks for credit cards matching the user's spending categories.
func cardsPrompt(categories []string) string {
	catClause := "general everyday spending"
	if len(categories) > 0 {
		catClause = strings.Join(categories, ", ")
	}

	return "You are a credit-card rewards analyst. The user's spending concentrates in these " +
		"categories: " + catClause + ".\n\n" +
		"Return a single JSON object and nothing else:\n" +
		"{\n" +
		"  \"cards\": [\n" +
		"    {\"name\": \"...\", \"issuer\": \"...\", \"rewards\": [\"...\"], \"why\": \"one sentence\", " +
		"\"suitability\": <0-100>, \"categoriesMatched\": [\"...\"]},\n" +
		"    ... up to 4 cards ...\n" +
		"  ],\n" +
		"  \"disclaimer\": \"one sentence noting offers vary and this is not financial advice\"\n" +
		"}\n\n" +
		"Only real, widely available US consumer cards. No Markdown, no prose outside the JSON."
}

// investmentPrompt asks for an educational index-fund explanation with
// hard guardrails: no tickers, no directives.
func investmentPrompt(goal float64) string {
	return "You are a financial educator AI. You explain concepts simply and you are NOT a financial " +
		"advisor; you must not give financial advice.\n\n" +
		fmt.Sprintf("The user has reached their savings goal of $%.0f and is curious what people do with savings.\n\n", goal) +
		"Explain the concept of investing a percentage of savings into a low-cost index fund that tracks " +
		"a broad market.\n\n" +
		"Constraints:\n" +
		"- Do NOT name any specific stock, ETF, or mutual fund ticker.\n" +
		"- Do NOT use directive language such as \"you should\" or \"consider buying\".\n" +
		"- DO explain that an index fund is a bundle of many stocks, which helps with diversification.\n" +
		"- Frame everything as general educational information.\n" +
		"- End with a warm congratulation on hitting the goal.\n\n" +
		"Return a JSON object with \"title\" and \"explanation\" fields and nothing else."
}
