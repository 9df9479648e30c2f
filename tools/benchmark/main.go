package main

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/anantaryaaa/health-record-dapps-sub000/internal/relay"
)

const (
	defaultRelayURL = "http://localhost:8080"
	envelopeGas     = 200000
	deadlineWindow  = 5 * time.Minute
)

type Config struct {
	RelayURL       string
	Signers        int           // Number of concurrent signing workers
	Requests       int           // Requests per signer
	RequestTimeout time.Duration // Timeout for each relay call
	OutputFile     string        // Output markdown file path (optional)
	Debug          bool
}

// outcome classifies one relayed request
type outcome int

const (
	outcomeSuccess outcome = iota
	outcomeReverted
	outcomeFailed
)

// requestResult is the measurement of one relayed envelope
type requestResult struct {
	latency time.Duration
	outcome outcome
	reason  string
}

// BenchmarkStats aggregates all request results
type BenchmarkStats struct {
	Total     int
	Succeeded int
	Reverted  int
	Failed    int
	Elapsed   time.Duration
	Latencies []time.Duration // sorted ascending
	Reasons   map[string]int  // failure/revert reason -> count
}

// domainInfo mirrors the GET /domain response
type domainInfo struct {
	Name              string `json:"name"`
	Version           string `json:"version"`
	ChainID           uint64 `json:"chainId"`
	VerifyingContract string `json:"verifyingContract"`
}

// envelopeDTO mirrors the POST /relay envelope wire shape
type envelopeDTO struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Value    string `json:"value"`
	Gas      string `json:"gas"`
	Nonce    string `json:"nonce"`
	Deadline string `json:"deadline"`
	Data     string `json:"data"`
}

type relayRequest struct {
	Envelope  envelopeDTO `json:"envelope"`
	Signature string      `json:"signature"`
}

type relayFailure struct {
	Error  string `json:"error"`
	Reason string `json:"reason"`
}

func main() {
	cfg := parseFlags()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\n\nReceived interrupt signal, shutting down...")
		cancel()
	}()

	client := &http.Client{Timeout: cfg.RequestTimeout}

	// Fetch the signing domain so envelopes verify against the target relay
	domain, err := fetchDomain(ctx, client, cfg.RelayURL)
	if err != nil {
		fmt.Printf("Error fetching signing domain: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Connected to relay at %s\n", cfg.RelayURL)
	fmt.Printf("Signing domain: %s v%s (chain %d)\n", domain.Name, domain.Version, domain.ChainID)
	fmt.Printf("Signers: %d, requests per signer: %d\n\n", cfg.Signers, cfg.Requests)

	signingDomain := relay.SigningDomain{
		Name:              domain.Name,
		Version:           domain.Version,
		ChainID:           domain.ChainID,
		VerifyingContract: domain.VerifyingContract,
	}

	start := time.Now()
	results := make(chan requestResult, cfg.Signers*cfg.Requests)

	var wg sync.WaitGroup
	for i := 0; i < cfg.Signers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			runSigner(ctx, cfg, client, signingDomain, workerID, results)
		}(i)
	}

	wg.Wait()
	close(results)

	stats := collectStats(results, time.Since(start))

	fmt.Println("\n" + strings.Repeat("=", 80))
	if ctx.Err() != nil {
		fmt.Println("INTERRUPTED - PARTIAL RESULTS")
	} else {
		fmt.Println("BENCHMARK RESULTS")
	}
	fmt.Println(strings.Repeat("=", 80))
	printStats(stats)

	if cfg.OutputFile != "" {
		if err := writeMarkdownReport(cfg.OutputFile, cfg, stats); err != nil {
			fmt.Printf("\nWarning: failed to write markdown file: %v\n", err)
		} else {
			fmt.Printf("\nReport written to: %s\n", cfg.OutputFile)
		}
	}
}

func parseFlags() *Config {
	cfg := &Config{}

	flag.StringVar(&cfg.RelayURL, "url", defaultRelayURL, "Relay base URL")
	flag.IntVar(&cfg.Signers, "signers", 5, "Number of concurrent signers (default: 5)")
	flag.IntVar(&cfg.Requests, "requests", 50, "Requests per signer (default: 50)")
	flag.StringVar(&cfg.OutputFile, "output", "", "Output markdown file path (optional)")
	flag.BoolVar(&cfg.Debug, "debug", false, "Enable debug logging")

	var timeoutSeconds int
	flag.IntVar(&timeoutSeconds, "timeout", 30, "Timeout for each relay call in seconds (default: 30)")

	configFile := flag.String("config", "", "Path to config file (optional)")

	flag.Parse()

	cfg.RequestTimeout = time.Duration(timeoutSeconds) * time.Second

	if cfg.Signers <= 0 {
		cfg.Signers = 5
	}
	if cfg.Signers > 50 {
		cfg.Signers = 50 // Cap to avoid exhausting the sponsor pool in one run
	}
	if cfg.Requests <= 0 {
		cfg.Requests = 50
	}

	// Load from config file if specified
	if *configFile != "" {
		fileCfg, err := LoadConfig(*configFile)
		if err != nil {
			fmt.Printf("Warning: failed to load config file: %v\n", err)
		} else if cfg.RelayURL == defaultRelayURL && fileCfg.RelayURL != "" {
			cfg.RelayURL = fileCfg.RelayURL
		}
	}

	return cfg
}

// runSigner drives one signer identity through its request budget. The first
// envelope registers the signer's identity; the rest are consent lookups, so a
// healthy relay answers every request without reverting. Nonces are assigned
// locally because each signer submits strictly in sequence.
func runSigner(ctx context.Context, cfg *Config, client *http.Client, domain relay.SigningDomain, workerID int, results chan<- requestResult) {
	key, err := crypto.GenerateKey()
	if err != nil {
		results <- requestResult{outcome: outcomeFailed, reason: err.Error()}
		return
	}
	address := crypto.PubkeyToAddress(key.PublicKey)

	for n := 0; n < cfg.Requests; n++ {
		select {
		case <-ctx.Done():
			return
		default:
		}

		var data []byte
		if n == 0 {
			data, err = relay.EncodeCall("register", []any{address.Hex()})
		} else {
			data, err = relay.EncodeCall("checkAccess", []any{address.Hex(), address.Hex()})
		}
		if err != nil {
			results <- requestResult{outcome: outcomeFailed, reason: err.Error()}
			continue
		}

		result := submitEnvelope(ctx, cfg, client, domain, key, address, uint64(n), data)
		if cfg.Debug {
			fmt.Printf("[DEBUG] Worker %d request %d: outcome=%d latency=%s reason=%q\n",
				workerID, n, result.outcome, formatDuration(result.latency), result.reason)
		}
		results <- result
	}
}

// submitEnvelope signs and posts one envelope, measuring the round trip
func submitEnvelope(ctx context.Context, cfg *Config, client *http.Client, domain relay.SigningDomain, key *ecdsa.PrivateKey, from common.Address, nonce uint64, data []byte) requestResult {
	deadline := uint64(time.Now().Add(deadlineWindow).Unix())
	env := &relay.Envelope{
		From:     from,
		To:       common.HexToAddress(domain.VerifyingContract),
		Value:    new(big.Int),
		Gas:      envelopeGas,
		Nonce:    nonce,
		Deadline: deadline,
		Data:     data,
	}

	hash, err := relay.EnvelopeHash(domain, env)
	if err != nil {
		return requestResult{outcome: outcomeFailed, reason: err.Error()}
	}
	signature, err := crypto.Sign(hash.Bytes(), key)
	if err != nil {
		return requestResult{outcome: outcomeFailed, reason: err.Error()}
	}

	body, err := json.Marshal(relayRequest{
		Envelope: envelopeDTO{
			From:     env.From.Hex(),
			To:       env.To.Hex(),
			Value:    "0",
			Gas:      strconv.FormatUint(env.Gas, 10),
			Nonce:    strconv.FormatUint(env.Nonce, 10),
			Deadline: strconv.FormatUint(env.Deadline, 10),
			Data:     hexutil.Encode(env.Data),
		},
		Signature: hexutil.Encode(signature),
	})
	if err != nil {
		return requestResult{outcome: outcomeFailed, reason: err.Error()}
	}

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.RelayURL+"/relay", bytes.NewReader(body))
	if err != nil {
		return requestResult{outcome: outcomeFailed, reason: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	latency := time.Since(start)
	if err != nil {
		return requestResult{latency: latency, outcome: outcomeFailed, reason: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return requestResult{latency: latency, outcome: outcomeSuccess}
	}

	var failure relayFailure
	if err := json.NewDecoder(resp.Body).Decode(&failure); err != nil || failure.Error == "" {
		return requestResult{latency: latency, outcome: outcomeFailed, reason: fmt.Sprintf("http %d", resp.StatusCode)}
	}
	return requestResult{latency: latency, outcome: outcomeReverted, reason: failure.Error}
}

// fetchDomain retrieves the relay's signing-domain parameters
func fetchDomain(ctx context.Context, client *http.Client, baseURL string) (*domainInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/domain", nil)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var info domainInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, err
	}
	return &info, nil
}

// collectStats drains the results channel into aggregate statistics
func collectStats(results <-chan requestResult, elapsed time.Duration) *BenchmarkStats {
	stats := &BenchmarkStats{
		Elapsed: elapsed,
		Reasons: make(map[string]int),
	}

	for r := range results {
		stats.Total++
		switch r.outcome {
		case outcomeSuccess:
			stats.Succeeded++
		case outcomeReverted:
			stats.Reverted++
			stats.Reasons[r.reason]++
		case outcomeFailed:
			stats.Failed++
			stats.Reasons[r.reason]++
		}
		if r.latency > 0 {
			stats.Latencies = append(stats.Latencies, r.latency)
		}
	}

	sort.Slice(stats.Latencies, func(i, j int) bool {
		return stats.Latencies[i] < stats.Latencies[j]
	})

	return stats
}

// percentile returns the value at percentile p (0-100) of sorted latencies
func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(float64(len(sorted)-1) * p / 100.0)
	return sorted[idx]
}

// average returns the mean of the latencies
func average(latencies []time.Duration) time.Duration {
	if len(latencies) == 0 {
		return 0
	}
	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}
	return sum / time.Duration(len(latencies))
}

func printStats(stats *BenchmarkStats) {
	fmt.Printf("\n%s Requests: %d total, %d succeeded, %d reverted, %d failed (%s success)\n",
		statusEmoji(stats.Succeeded, stats.Reverted, stats.Failed),
		stats.Total, stats.Succeeded, stats.Reverted, stats.Failed,
		percentageString(stats.Succeeded, stats.Total))
	fmt.Printf("Elapsed: %s, throughput: %s\n", formatDuration(stats.Elapsed), formatRate(stats.Total, stats.Elapsed))

	if len(stats.Latencies) > 0 {
		fmt.Printf("\nLatency:\n")
		fmt.Printf("  min: %s\n", formatDuration(stats.Latencies[0]))
		fmt.Printf("  avg: %s\n", formatDuration(average(stats.Latencies)))
		fmt.Printf("  p50: %s\n", formatDuration(percentile(stats.Latencies, 50)))
		fmt.Printf("  p90: %s\n", formatDuration(percentile(stats.Latencies, 90)))
		fmt.Printf("  p99: %s\n", formatDuration(percentile(stats.Latencies, 99)))
		fmt.Printf("  max: %s\n", formatDuration(stats.Latencies[len(stats.Latencies)-1]))
	}

	if len(stats.Reasons) > 0 {
		fmt.Printf("\nNon-success reasons:\n")
		reasons := make([]string, 0, len(stats.Reasons))
		for reason := range stats.Reasons {
			reasons = append(reasons, reason)
		}
		sort.Strings(reasons)
		for _, reason := range reasons {
			fmt.Printf("  %s: %d\n", reason, stats.Reasons[reason])
		}
	}
}

// writeMarkdownReport writes the benchmark results to a markdown file
func writeMarkdownReport(path string, cfg *Config, stats *BenchmarkStats) error {
	var b strings.Builder

	b.WriteString("# Relay Benchmark Report\n\n")
	b.WriteString(fmt.Sprintf("Generated: %s\n\n", time.Now().Format(time.RFC3339)))
	b.WriteString("## Configuration\n\n")
	b.WriteString(fmt.Sprintf("- Relay URL: `%s`\n", cfg.RelayURL))
	b.WriteString(fmt.Sprintf("- Signers: %d\n", cfg.Signers))
	b.WriteString(fmt.Sprintf("- Requests per signer: %d\n\n", cfg.Requests))

	b.WriteString("## Results\n\n")
	b.WriteString("| Metric | Value |\n")
	b.WriteString("|--------|-------|\n")
	b.WriteString(fmt.Sprintf("| Total requests | %d |\n", stats.Total))
	b.WriteString(fmt.Sprintf("| Succeeded | %d (%s) |\n", stats.Succeeded, percentageString(stats.Succeeded, stats.Total)))
	b.WriteString(fmt.Sprintf("| Reverted | %d |\n", stats.Reverted))
	b.WriteString(fmt.Sprintf("| Failed | %d |\n", stats.Failed))
	b.WriteString(fmt.Sprintf("| Elapsed | %s |\n", formatDuration(stats.Elapsed)))
	b.WriteString(fmt.Sprintf("| Throughput | %s |\n", formatRate(stats.Total, stats.Elapsed)))

	if len(stats.Latencies) > 0 {
		b.WriteString("\n## Latency\n\n")
		b.WriteString("| Percentile | Latency |\n")
		b.WriteString("|------------|--------|\n")
		b.WriteString(fmt.Sprintf("| min | %s |\n", formatDuration(stats.Latencies[0])))
		b.WriteString(fmt.Sprintf("| avg | %s |\n", formatDuration(average(stats.Latencies))))
		b.WriteString(fmt.Sprintf("| p50 | %s |\n", formatDuration(percentile(stats.Latencies, 50))))
		b.WriteString(fmt.Sprintf("| p90 | %s |\n", formatDuration(percentile(stats.Latencies, 90))))
		b.WriteString(fmt.Sprintf("| p99 | %s |\n", formatDuration(percentile(stats.Latencies, 99))))
		b.WriteString(fmt.Sprintf("| max | %s |\n", formatDuration(stats.Latencies[len(stats.Latencies)-1])))
	}

	if len(stats.Reasons) > 0 {
		b.WriteString("\n## Non-success reasons\n\n")
		b.WriteString("| Reason | Count |\n")
		b.WriteString("|--------|-------|\n")
		reasons := make([]string, 0, len(stats.Reasons))
		for reason := range stats.Reasons {
			reasons = append(reasons, reason)
		}
		sort.Strings(reasons)
		for _, reason := range reasons {
			b.WriteString(fmt.Sprintf("| %s | %d |\n", reason, stats.Reasons[reason]))
		}
	}

	return os.WriteFile(path, []byte(b.String()), 0644)
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
	if d < time.Hour {
		minutes := int(d.Minutes())
		seconds := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh %dm", hours, minutes)
}
