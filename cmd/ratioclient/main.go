// Command ratioclient polls the simulator's quote endpoint and prints the
// ratio of the two symbols' mid prices on every poll. It is a demo consumer
// of the HTTP API.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/alanyoungcy/marketsim/internal/domain"
)

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "simulator base URL")
	polls := flag.Int("n", 500, "number of polls")
	interval := flag.Duration("interval", time.Second, "delay between polls")
	flag.Parse()

	client := &http.Client{Timeout: 10 * time.Second}

	for i := 0; i < *polls; i++ {
		quotes, err := fetchQuotes(client, *baseURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "poll %d: %v\n", i, err)
			time.Sleep(*interval)
			continue
		}

		ratio, ok := priceRatio(quotes)
		if ok {
			fmt.Printf("%d %s ratio %f\n", i, time.Now().Format(time.RFC3339), ratio)
		} else {
			fmt.Printf("%d %s ratio unavailable\n", i, time.Now().Format(time.RFC3339))
		}
		time.Sleep(*interval)
	}
}

// fetchQuotes requests one aligned quote set, tagging the request with a
// fresh id so responses can be correlated in the server logs.
func fetchQuotes(client *http.Client, baseURL string) ([]domain.Quote, error) {
	url := fmt.Sprintf("%s/api/query?id=%s", baseURL, uuid.NewString())
	resp, err := client.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	var quotes []domain.Quote
	if err := json.NewDecoder(resp.Body).Decode(&quotes); err != nil {
		return nil, fmt.Errorf("decode quotes: %w", err)
	}
	return quotes, nil
}

// priceRatio divides the first symbol's mid price by the second's. It
// returns false when either book side is empty or the denominator is zero.
func priceRatio(quotes []domain.Quote) (float64, bool) {
	if len(quotes) < 2 {
		return 0, false
	}
	a, okA := quotes[0].MidPrice()
	b, okB := quotes[1].MidPrice()
	if !okA || !okB || b == 0 {
		return 0, false
	}
	return a / b, true
}
