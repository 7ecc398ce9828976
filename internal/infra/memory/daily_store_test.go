package memory_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"codequest-service/internal/infra/memory"
)

func TestPinDailyFirstWriterWins(t *testing.T) {
	ctx := context.Background()
	store := memory.NewDailyStore()

	var wg sync.WaitGroup
	winners := make(chan string, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			winner, err := store.PinDaily(ctx, "2026-03-10", fmt.Sprintf("q%d", i))
			if err != nil {
				t.Errorf("pin: %v", err)
				return
			}
			winners <- winner
		}(i)
	}
	wg.Wait()
	close(winners)

	var first string
	for winner := range winners {
		if first == "" {
			first = winner
		}
		if winner != first {
			t.Fatalf("concurrent pins disagree: %s vs %s", first, winner)
		}
	}

	// A new date pins independently.
	winner, err := store.PinDaily(ctx, "2026-03-11", "q-new")
	if err != nil || winner != "q-new" {
		t.Fatalf("expected fresh pin for new date, got %s err=%v", winner, err)
	}
}
