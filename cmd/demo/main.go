// Command demo is a small, runnable walkthrough of the duotier cache:
// fill it past capacity, watch an entry fall into the dormant tier,
// print both tiers' sizes, and let a short-TTL entry expire with a
// refresh hook attached.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/duotier/duotier"
)

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()

	cache, err := duotier.Init[string](
		2,
		3*time.Second,
		2*time.Second,
		duotier.WithLogger[string](logger),
	)
	if err != nil {
		fmt.Fprintln(os.Stderr, "init failed:", err)
		os.Exit(1)
	}
	defer cache.Dispose()

	cache.Add("alpha", "first", nil)
	cache.Add("bravo", "second", nil)

	// A third key overflows the two-entry active tier; all three keys
	// have frequency 1, so the newcomer does not out-rank the coldest
	// resident and the LFU engine writes it straight to dormant.
	cache.Add("charlie", "third", nil)

	fmt.Println("active count:", cache.ActiveCount())
	fmt.Println("dormant count:", cache.DormantCount())

	// Free an active slot so the refresh-hooked entry below lands in the
	// active tier, where its TTL timer runs.
	cache.ActiveRemove("alpha")

	refreshes := 0
	cache.Add("ticking", "v0", func() string {
		refreshes++
		return fmt.Sprintf("v%d", refreshes)
	})

	time.Sleep(4 * time.Second)

	val, found := cache.GetActive("ticking")
	fmt.Println("ticking after refresh:", val, found)

	stats := cache.Stats()
	fmt.Printf("stats: %+v\n", stats)
}
