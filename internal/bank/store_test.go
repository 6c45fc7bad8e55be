package bank_test

import (
	"context"
	"testing"

	"github.com/mind-engage/examgen/internal/bank"
	"github.com/mind-engage/examgen/internal/db"
)

func seedItems() []bank.Item {
	return []bank.Item{
		{Text: "What is a cell membrane?", Type: bank.TypeMCQSingle, Topic: "Cell Biology",
			CognitiveLevel: "remember", Difficulty: "easy", Approved: true},
		{Text: "Explain osmosis.", Type: bank.TypeShortWord, Topic: "Cell Biology",
			CognitiveLevel: "understand", Difficulty: "easy", UsageCount: 4, Approved: true},
		{Text: "Compare mitosis and meiosis.", Type: bank.TypeEssay, Topic: "Cell Biology",
			CognitiveLevel: "analyze", Difficulty: "hard", Approved: true},
		{Text: "Draft question awaiting review.", Type: bank.TypeMCQSingle, Topic: "Cell Biology",
			CognitiveLevel: "remember", Difficulty: "easy", Approved: false},
		{Text: "Describe a food chain.", Type: bank.TypeShortWord, Topic: "Ecology",
			CognitiveLevel: "remember", Difficulty: "easy", Approved: true},
	}
}

func runStoreTests(t *testing.T, store bank.Store) {
	ctx := context.Background()

	inserted, err := store.Insert(ctx, seedItems())
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if len(inserted) != 5 {
		t.Fatalf("inserted %d items, want 5", len(inserted))
	}
	for _, it := range inserted {
		if it.ID == "" {
			t.Fatal("insert must echo back generated IDs")
		}
	}

	t.Run("filter excludes unapproved", func(t *testing.T) {
		items, err := store.List(ctx, bank.Filter{Topic: "Cell", Level: "Remember", Difficulty: "easy"})
		if err != nil {
			t.Fatal(err)
		}
		if len(items) != 1 {
			t.Fatalf("got %d items, want 1 (draft must be excluded)", len(items))
		}
		if items[0].Text != "What is a cell membrane?" {
			t.Fatalf("unexpected item: %s", items[0].Text)
		}
	})

	t.Run("topic substring and level case folding", func(t *testing.T) {
		items, err := store.List(ctx, bank.Filter{Topic: "biology", Level: "UNDERSTAND"})
		if err != nil {
			t.Fatal(err)
		}
		if len(items) != 1 || items[0].Text != "Explain osmosis." {
			t.Fatalf("unexpected result: %+v", items)
		}
	})

	t.Run("orders by usage count ascending", func(t *testing.T) {
		items, err := store.List(ctx, bank.Filter{Topic: "Cell Biology"})
		if err != nil {
			t.Fatal(err)
		}
		if len(items) != 3 {
			t.Fatalf("got %d items, want 3", len(items))
		}
		for i := 1; i < len(items); i++ {
			if items[i-1].UsageCount > items[i].UsageCount {
				t.Fatalf("not ordered by usage count: %+v", items)
			}
		}
	})

	t.Run("limit", func(t *testing.T) {
		items, err := store.List(ctx, bank.Filter{Topic: "Cell Biology", Limit: 2})
		if err != nil {
			t.Fatal(err)
		}
		if len(items) != 2 {
			t.Fatalf("limit ignored, got %d items", len(items))
		}
	})

	t.Run("mark used increments", func(t *testing.T) {
		target := inserted[0]
		if err := store.MarkUsed(ctx, target.ID); err != nil {
			t.Fatal(err)
		}
		items, err := store.List(ctx, bank.Filter{Topic: "Cell", Level: "remember", Difficulty: "easy"})
		if err != nil {
			t.Fatal(err)
		}
		if len(items) != 1 || items[0].UsageCount != target.UsageCount+1 {
			t.Fatalf("usage count not incremented: %+v", items)
		}
	})

	t.Run("mark used unknown id", func(t *testing.T) {
		if err := store.MarkUsed(ctx, "no-such-item"); err == nil {
			t.Fatal("expected error for unknown item")
		}
	})

	t.Run("alias taxonomy spellings canonicalized on insert", func(t *testing.T) {
		stored, err := store.Insert(ctx, []bank.Item{
			{Text: "Outline the stages of cellular respiration.", Type: bank.TypeShortWord,
				Topic: "Respiration", CognitiveLevel: "Remembering",
				KnowledgeDimension: "Conceptual", Difficulty: "easy", Approved: true},
		})
		if err != nil {
			t.Fatal(err)
		}
		if stored[0].CognitiveLevel != "remember" || stored[0].KnowledgeDimension != "conceptual" {
			t.Fatalf("metadata not canonicalized: %+v", stored[0])
		}
		items, err := store.List(ctx, bank.Filter{Topic: "Respiration", Level: "remember"})
		if err != nil {
			t.Fatal(err)
		}
		if len(items) != 1 {
			t.Fatalf("canonical query missed alias-written item, got %d", len(items))
		}
	})
}

func TestInMemoryStore(t *testing.T) {
	runStoreTests(t, bank.NewInMemoryStore())
}

func TestSQLStoreSQLite(t *testing.T) {
	ctx := context.Background()
	dbh, err := db.Open(ctx, db.DriverSQLite, "file:banktest?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer dbh.Close()
	runStoreTests(t, bank.NewSQLStore(dbh, "sqlite"))
}
