package coach

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/dvloznov/finance-coach/internal/domain"
)

type mockIdeaGenerator struct {
	trendingFunc func(ctx context.Context, avoid []string, seed int64, temperature float64) (*domain.IdeaBatch, error)
}

func (m *mockIdeaGenerator) TrendingIdeas(ctx context.Context, avoid []string, seed int64, temperature float64) (*domain.IdeaBatch, error) {
	return m.trendingFunc(ctx, avoid, seed, temperature)
}

func ideas(symbols ...string) []domain.StockIdea {
	out := make([]domain.StockIdea, 0, len(symbols))
	for _, s := range symbols {
		out = append(out, domain.StockIdea{Symbol: s, Name: s, Reason: "test"})
	}
	return out
}

func assertWellFormed(t *testing.T, set domain.TrendingIdeaSet) {
	t.Helper()
	if len(set.Buys) != 3 {
		t.Errorf("buys = %d, want exactly 3", len(set.Buys))
	}
	if len(set.Sells) != 3 {
		t.Errorf("sells = %d, want exactly 3", len(set.Sells))
	}
	if set.Disclaimer == "" {
		t.Error("disclaimer must not be empty")
	}
	buySeen := make(map[string]bool)
	for _, idea := range set.Buys {
		if idea.Symbol == "" {
			t.Error("buy idea with empty symbol")
		}
		if buySeen[idea.Symbol] {
			t.Errorf("duplicate buy symbol %q", idea.Symbol)
		}
		buySeen[idea.Symbol] = true
	}
	sellSeen := make(map[string]bool)
	for _, idea := range set.Sells {
		if idea.Symbol == "" {
			t.Error("sell idea with empty symbol")
		}
		if sellSeen[idea.Symbol] {
			t.Errorf("duplicate sell symbol %q", idea.Symbol)
		}
		sellSeen[idea.Symbol] = true
	}
}

func TestBuildTrendingIdeasNilGenerator(t *testing.T) {
	set := BuildTrendingIdeas(context.Background(), nil, nil, nil, nil, 42, 0.9, zerolog.Nop())
	assertWellFormed(t, set)
}

func TestBuildTrendingIdeasEarlyStop(t *testing.T) {
	calls := 0
	gen := &mockIdeaGenerator{
		trendingFunc: func(ctx context.Context, avoid []string, seed int64, temperature float64) (*domain.IdeaBatch, error) {
			calls++
			return &domain.IdeaBatch{
				Buys:  ideas("PLTR", "SOFI", "RIVN"),
				Sells: ideas("WISH", "CLOV", "BBBY"),
			}, nil
		},
	}

	set := BuildTrendingIdeas(context.Background(), gen, nil, nil, nil, 42, 0.9, zerolog.Nop())
	assertWellFormed(t, set)
	if calls != 1 {
		t.Errorf("generator calls = %d, want 1 when the first batch fills both sides", calls)
	}
	if set.Buys[0].Symbol != "PLTR" {
		t.Errorf("buys[0] = %q, want model order preserved", set.Buys[0].Symbol)
	}
}

func TestBuildTrendingIdeasFiltersSeenAtEntry(t *testing.T) {
	gen := &mockIdeaGenerator{
		trendingFunc: func(ctx context.Context, avoid []string, seed int64, temperature float64) (*domain.IdeaBatch, error) {
			// The model keeps repeating symbols the user already saw, plus
			// one fresh pick per side.
			return &domain.IdeaBatch{
				Buys:  ideas("AAPL", "MSFT", "PLTR"),
				Sells: ideas("TSLA", "WISH"),
			}, nil
		},
	}

	seen := []string{"AAPL", "MSFT", "TSLA"}
	set := BuildTrendingIdeas(context.Background(), gen, nil, nil, seen, 42, 0.9, zerolog.Nop())
	assertWellFormed(t, set)

	for _, idea := range set.Buys {
		if idea.Symbol == "AAPL" || idea.Symbol == "MSFT" {
			t.Errorf("buy %q was already seen at entry", idea.Symbol)
		}
	}
	for _, idea := range set.Sells {
		if idea.Symbol == "TSLA" {
			t.Error("sell TSLA was already seen at entry")
		}
	}

	foundFresh := false
	for _, idea := range set.Buys {
		if idea.Symbol == "PLTR" {
			foundFresh = true
		}
	}
	if !foundFresh {
		t.Error("fresh model pick PLTR missing from buys")
	}
}

func TestBuildTrendingIdeasAvoidSetGrows(t *testing.T) {
	var avoidSizes []int
	gen := &mockIdeaGenerator{
		trendingFunc: func(ctx context.Context, avoid []string, seed int64, temperature float64) (*domain.IdeaBatch, error) {
			avoidSizes = append(avoidSizes, len(avoid))
			// Never enough fresh output, forcing every attempt.
			return &domain.IdeaBatch{Buys: ideas("PLTR"), Sells: ideas("WISH")}, nil
		},
	}

	BuildTrendingIdeas(context.Background(), gen, []string{"ZZZZ"}, nil, nil, 42, 0.9, zerolog.Nop())

	// 4 attempts plus the final top-up call.
	if len(avoidSizes) != 5 {
		t.Fatalf("generator calls = %d, want 5", len(avoidSizes))
	}
	if avoidSizes[0] != 1 {
		t.Errorf("first avoid list = %d entries, want 1 (caller avoid only)", avoidSizes[0])
	}
	// After the first batch the model's own output joins the avoid-set.
	if avoidSizes[1] <= avoidSizes[0] {
		t.Errorf("avoid list did not grow: %v", avoidSizes)
	}
}

func TestBuildTrendingIdeasTemperatureSteps(t *testing.T) {
	var temps []float64
	gen := &mockIdeaGenerator{
		trendingFunc: func(ctx context.Context, avoid []string, seed int64, temperature float64) (*domain.IdeaBatch, error) {
			temps = append(temps, temperature)
			return nil, errors.New("model unreachable")
		},
	}

	BuildTrendingIdeas(context.Background(), gen, nil, nil, nil, 42, 1.1, zerolog.Nop())

	want := []float64{1.1, 1.2, 1.2, 1.2, 1.2}
	if len(temps) != len(want) {
		t.Fatalf("generator calls = %d, want %d", len(temps), len(want))
	}
	for i := range want {
		if temps[i] != want[i] {
			t.Errorf("temps[%d] = %v, want %v (capped)", i, temps[i], want[i])
		}
	}
}

func TestBuildTrendingIdeasExhaustedHistory(t *testing.T) {
	// The user has seen the entire static pool and the model is down. The
	// postcondition still holds by reusing previously shown symbols.
	var history []string
	for _, idea := range staticIdeaPool {
		history = append(history, idea.Symbol)
	}
	lastShown := []string{"AAPL", "MSFT", "GOOGL", "AMZN", "NVDA", "META"}

	gen := &mockIdeaGenerator{
		trendingFunc: func(ctx context.Context, avoid []string, seed int64, temperature float64) (*domain.IdeaBatch, error) {
			return nil, errors.New("model unreachable")
		},
	}

	set := BuildTrendingIdeas(context.Background(), gen, nil, lastShown, history, 42, 0.9, zerolog.Nop())
	assertWellFormed(t, set)
}

func TestBuildTrendingIdeasDeterministicPadding(t *testing.T) {
	first := BuildTrendingIdeas(context.Background(), nil, nil, nil, nil, 42, 0.9, zerolog.Nop())
	second := BuildTrendingIdeas(context.Background(), nil, nil, nil, nil, 42, 0.9, zerolog.Nop())

	for i := range first.Buys {
		if first.Buys[i].Symbol != second.Buys[i].Symbol {
			t.Errorf("buys[%d] differs across runs with the same seed: %q vs %q",
				i, first.Buys[i].Symbol, second.Buys[i].Symbol)
		}
	}
}

func TestShownSymbols(t *testing.T) {
	set := domain.TrendingIdeaSet{
		Buys:  ideas("A", "B"),
		Sells: ideas("C"),
	}
	got := ShownSymbols(set)
	want := []string{"A", "B", "C"}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
