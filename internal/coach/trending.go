package coach

import (
	"context"
	"math/rand"
	"strings"

	"github.com/rs/zerolog"

	"github.com/dvloznov/finance-coach/internal/domain"
)

// IdeaGenerator is the generative trending-ideas call.
type IdeaGenerator interface {
	TrendingIdeas(ctx context.Context, avoid []string, seed int64, temperature float64) (*domain.IdeaBatch, error)
}

const (
	// ideasPerSide is the hard postcondition: every result carries exactly
	// this many buys and sells.
	ideasPerSide = 3

	// trendingAttempts bounds the retry loop. A single call tends to repeat
	// the same handful of large caps; retrying with a growing avoid-set buys
	// variety at the cost of up to five generative calls.
	trendingAttempts = 4

	trendingTempStep = 0.1
	trendingMaxTemp  = 1.2

	trendingDisclaimer = "Educational information only, generated from public trends. Not financial advice."
)

// staticIdeaPool backs the terminal fallback with well-known symbols.
var staticIdeaPool = []domain.StockIdea{
	{Symbol: "AAPL", Name: "Apple", Reason: "Widely held large-cap stock."},
	{Symbol: "MSFT", Name: "Microsoft", Reason: "Widely held large-cap stock."},
	{Symbol: "GOOGL", Name: "Alphabet", Reason: "Widely held large-cap stock."},
	{Symbol: "AMZN", Name: "Amazon", Reason: "Widely held large-cap stock."},
	{Symbol: "NVDA", Name: "NVIDIA", Reason: "Widely held large-cap stock."},
	{Symbol: "META", Name: "Meta Platforms", Reason: "Widely held large-cap stock."},
	{Symbol: "TSLA", Name: "Tesla", Reason: "Widely held large-cap stock."},
	{Symbol: "JPM", Name: "JPMorgan Chase", Reason: "Widely held large-cap stock."},
	{Symbol: "V", Name: "Visa", Reason: "Widely held large-cap stock."},
	{Symbol: "KO", Name: "Coca-Cola", Reason: "Widely held large-cap stock."},
	{Symbol: "DIS", Name: "Walt Disney", Reason: "Widely held large-cap stock."},
	{Symbol: "NFLX", Name: "Netflix", Reason: "Widely held large-cap stock."},
}

// BuildTrendingIdeas runs the bounded retry loop: accumulate an avoid-set,
// ask the generator repeatedly with a varied seed and stepped-up
// temperature, keep only symbols unseen at entry, and fall through to a
// static pool so the 3+3 postcondition always holds.
//
// callerAvoid, lastShown and seenHistory are merged into the avoid-set; the
// unseen filter uses only the state captured at entry, not the avoid-set as
// it grows per attempt.
func BuildTrendingIdeas(ctx context.Context, gen IdeaGenerator, callerAvoid, lastShown, seenHistory []string, seed int64, temperature float64, log zerolog.Logger) domain.TrendingIdeaSet {
	originalSeen := make(map[string]bool)
	avoidSet := make(map[string]bool)
	var avoidList []string

	addAvoid := func(symbols ...string) {
		for _, s := range symbols {
			sym := normalizeSymbol(s)
			if sym == "" || avoidSet[sym] {
				continue
			}
			avoidSet[sym] = true
			avoidList = append(avoidList, sym)
		}
	}
	addAvoid(callerAvoid...)
	addAvoid(lastShown...)
	addAvoid(seenHistory...)
	for sym := range avoidSet {
		originalSeen[sym] = true
	}

	var buys, sells []domain.StockIdea
	inBuys := make(map[string]bool)
	inSells := make(map[string]bool)

	// absorb folds one generator batch into the pools, deduplicating by
	// symbol in first-seen order, and widens the avoid-set with everything
	// the model mentioned whether or not it was fresh.
	absorb := func(batch *domain.IdeaBatch) {
		if batch == nil {
			return
		}
		for _, idea := range batch.Buys {
			sym := normalizeSymbol(idea.Symbol)
			if sym == "" {
				continue
			}
			addAvoid(sym)
			if !originalSeen[sym] && !inBuys[sym] {
				idea.Symbol = sym
				inBuys[sym] = true
				buys = append(buys, idea)
			}
		}
		for _, idea := range batch.Sells {
			sym := normalizeSymbol(idea.Symbol)
			if sym == "" {
				continue
			}
			addAvoid(sym)
			if !originalSeen[sym] && !inSells[sym] {
				idea.Symbol = sym
				inSells[sym] = true
				sells = append(sells, idea)
			}
		}
	}

	if gen != nil {
		for attempt := 0; attempt < trendingAttempts; attempt++ {
			temp := temperature + trendingTempStep*float64(attempt)
			if temp > trendingMaxTemp {
				temp = trendingMaxTemp
			}
			batch, err := gen.TrendingIdeas(ctx, avoidList, seed+int64(attempt)*7919, temp)
			if err != nil {
				log.Warn().Err(err).Int("attempt", attempt+1).Msg("Trending ideas call failed")
				continue
			}
			absorb(batch)
			if len(buys) >= ideasPerSide && len(sells) >= ideasPerSide {
				break
			}
		}

		// One last high-randomness request before giving up on fresh output.
		if len(buys) < ideasPerSide || len(sells) < ideasPerSide {
			batch, err := gen.TrendingIdeas(ctx, avoidList, seed+31337, trendingMaxTemp)
			if err != nil {
				log.Warn().Err(err).Msg("Trending top-up call failed")
			} else {
				absorb(batch)
			}
		}
	}

	rng := rand.New(rand.NewSource(seed))
	buys = topUpFromStatic(buys, inBuys, originalSeen, lastShown, rng)
	sells = topUpFromStatic(sells, inSells, originalSeen, lastShown, rng)

	return domain.TrendingIdeaSet{
		Buys:       buys[:ideasPerSide],
		Sells:      sells[:ideasPerSide],
		Disclaimer: trendingDisclaimer,
	}
}

// topUpFromStatic pads a short pool to ideasPerSide. Preference order:
// static symbols the user has not seen, then the previous call's symbols,
// then static symbols regardless of history. Symbols stay unique within the
// pool.
func topUpFromStatic(pool []domain.StockIdea, inPool, seen map[string]bool, lastShown []string, rng *rand.Rand) []domain.StockIdea {
	if len(pool) >= ideasPerSide {
		return pool
	}

	shuffled := make([]domain.StockIdea, len(staticIdeaPool))
	copy(shuffled, staticIdeaPool)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	add := func(idea domain.StockIdea) bool {
		sym := normalizeSymbol(idea.Symbol)
		if sym == "" || inPool[sym] {
			return false
		}
		idea.Symbol = sym
		inPool[sym] = true
		pool = append(pool, idea)
		return len(pool) >= ideasPerSide
	}

	for _, idea := range shuffled {
		if seen[normalizeSymbol(idea.Symbol)] {
			continue
		}
		if add(idea) {
			return pool
		}
	}
	for _, sym := range lastShown {
		if add(domain.StockIdea{Symbol: sym, Name: sym, Reason: "Recently shown idea."}) {
			return pool
		}
	}
	for _, idea := range shuffled {
		if add(idea) {
			return pool
		}
	}
	return pool
}

// ShownSymbols collects the symbols of a finished idea set, buys first.
func ShownSymbols(set domain.TrendingIdeaSet) []string {
	symbols := make([]string, 0, len(set.Buys)+len(set.Sells))
	for _, idea := range set.Buys {
		symbols = append(symbols, idea.Symbol)
	}
	for _, idea := range set.Sells {
		symbols = append(symbols, idea.Symbol)
	}
	return symbols
}

func normalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
