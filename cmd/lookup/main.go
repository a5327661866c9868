// Package main provides an interactive console over a saved screening
// result. It loads the ranked pairs once and answers symbol queries.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"pairscan/internal/domain"
	"pairscan/internal/lookup"
	"pairscan/internal/storage"
	"pairscan/internal/storage/csvfile"
)

func main() {
	file := flag.String("file", "pairs_to_trade.csv", "Ranked pairs CSV produced by a screening run")
	flag.Parse()

	store := csvfile.NewResultStore(*file)
	set, err := store.Load(context.Background())
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			fmt.Fprintf(os.Stderr, "No results at %s, run a screening pass first\n", *file)
		} else {
			fmt.Fprintf(os.Stderr, "Error loading results: %v\n", err)
		}
		os.Exit(1)
	}

	svc := lookup.NewService(set)
	fmt.Printf("Loaded %d ranked pairs from %s\n", set.Len(), *file)
	fmt.Println("Enter a symbol or base asset to look up, 'list' for all pairs, 'x' to exit")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		switch {
		case input == "":
			continue
		case strings.EqualFold(input, "x"):
			return
		case strings.EqualFold(input, "list"):
			printEntries(svc.All())
		default:
			entries := svc.BySymbol(input)
			if len(entries) == 0 {
				fmt.Printf("No pairs involve %q\n", strings.ToUpper(input))
				continue
			}
			printEntries(entries)
		}
	}
	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "Error reading input: %v\n", err)
		os.Exit(1)
	}
}

func printEntries(entries []domain.CointResult) {
	if len(entries) == 0 {
		fmt.Println("No pairs stored")
		return
	}
	for _, e := range entries {
		fmt.Printf("  %-22s p=%.6f stat=%.4f\n", e.Pair, e.PValue, e.Statistic)
	}
}
