package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"sort"
	"time"

	"userinfo-service/internal/bench"
)

var (
	uFlag     = flag.String("u", "http://127.0.0.1:5000/greet", "Target URL for the GET benchmark, scheme included.")
	nFlag     = flag.Int("n", 1, "Number of requests to perform.")
	cFlag     = flag.Int("c", 1, "Number of concurrent requests.")
	rFlag     = flag.Int("r", 0, "Maximum number of redirects to follow per request.")
	kFlag     = flag.Bool("k", false, "Reuse connections between requests (HTTP keep-alive).")
	modeFlag  = flag.String("mode", string(bench.ModeSlots), "Scheduling: slots, pool or pool-mutex.")
	debugFlag = flag.Bool("debug", false, "Log every failed request.")
	checkFlag = flag.Bool("check", true, "Greet the target service and read its clock before the run.")
)

func main() {
	flag.Parse()

	level := slog.LevelInfo
	if *debugFlag {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Println("[+] Starting benchmark")
	fmt.Println("[i] URL:", *uFlag)
	fmt.Printf("[i] CPU cores: %d  Requests: %d  Concurrency: %d  KeepAlive: %t  Mode: %s\n",
		runtime.NumCPU(), *nFlag, *cFlag, *kFlag, *modeFlag)

	if *checkFlag {
		pf, err := bench.CheckTarget(ctx, *uFlag)
		if err != nil {
			slog.Warn("Target check failed, running anyway", "error", err)
		} else {
			fmt.Printf("[i] Target %s says %q, server time %s (skew %s)\n",
				pf.BaseURL, pf.Greeting, pf.ServerTime.Format(time.DateTime), pf.Skew)
		}
	}

	res, err := bench.Run(ctx, bench.Options{
		URL:         *uFlag,
		Requests:    *nFlag,
		Concurrency: *cFlag,
		KeepAlive:   *kFlag,
		Redirects:   *rFlag,
		Mode:        bench.Mode(*modeFlag),
	})
	if err != nil {
		slog.Error("Benchmark failed", "error", err)
		os.Exit(2)
	}

	fmt.Println("[+] Benchmark done")
	fmt.Printf("[*] Requests: %d/%d  Errors: %.01f%%\n", res.Success, res.Requests, res.ErrorPercent())
	fmt.Printf("[*] TPS: %.03f reqs/second\n", res.TPS())
	fmt.Printf("[*] Time: %.06f seconds\n", res.Elapsed.Seconds())
	fmt.Printf("[*] Average latency: %.06f ms   Min latency: %.06f ms   Max latency: %.06f ms\n",
		ms(res.AvgLatency.Seconds()), ms(res.MinLatency.Seconds()), ms(res.MaxLatency.Seconds()))

	codes := make([]int, 0, len(res.StatusCodes))
	for code := range res.StatusCodes {
		codes = append(codes, code)
	}
	sort.Ints(codes)
	for _, code := range codes {
		fmt.Printf("[*] HTTP %d: %d\n", code, res.StatusCodes[code])
	}

	if res.Failures > 0 {
		os.Exit(1)
	}
}

func ms(seconds float64) float64 {
	return seconds * 1000
}
