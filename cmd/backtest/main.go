// cmd/backtest replays stored bars through the strategy and risk
// engines and prints a performance report.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"fxtrader/config"
	"fxtrader/internal/backtest"
	"fxtrader/internal/logger"
	"fxtrader/internal/model"
	"fxtrader/internal/risk"
	sqlitestore "fxtrader/internal/store/sqlite"
	"fxtrader/internal/strategy"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config (defaults apply when empty)")
	dbPath := flag.String("db", "", "bar database (defaults to bars.db_path from config)")
	pairFlag := flag.String("pair", "", "restrict to one pair, e.g. USD/JPY (default: all)")
	fromFlag := flag.String("from", "", "start of the window, RFC3339 (default: full history)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := logger.Init("backtest", logger.ParseLevel(cfg.App.LogLevel))

	path := *dbPath
	if path == "" {
		path = cfg.Bars.DBPath
	}
	if path == "" {
		fmt.Fprintln(os.Stderr, "backtest: no bar database configured")
		os.Exit(1)
	}

	var from time.Time
	if *fromFlag != "" {
		from, err = time.Parse(time.RFC3339, *fromFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "backtest: bad -from: %v\n", err)
			os.Exit(1)
		}
	}

	reader, err := sqlitestore.NewReader(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer reader.Close()

	var bars []model.Bar
	if *pairFlag != "" {
		bars, err = reader.ReadBars(model.Pair(*pairFlag), cfg.Bars.Interval, from)
	} else {
		bars, err = reader.ReadAllBars(cfg.Bars.Interval, from)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if len(bars) == 0 {
		fmt.Fprintln(os.Stderr, "backtest: no bars in the selected window")
		os.Exit(1)
	}
	log.Info("bars loaded", "count", len(bars), "first", bars[0].OpenTime, "last", bars[len(bars)-1].OpenTime)

	eng := backtest.New(backtest.Config{
		InitialEquity: decimal.NewFromFloat(cfg.Risk.InitialEquity),
		Risk: risk.Params{
			RiskPerTrade:     cfg.Risk.RiskPerTrade,
			MaxOpenPositions: cfg.Risk.MaxOpenPositions,
			MaxDrawdown:      cfg.Risk.MaxDrawdown,
			MaxUnits:         cfg.Risk.MaxUnits,
			LotStep:          cfg.Risk.LotStep,
			StopMode:         risk.StopMode(cfg.Risk.StopMode),
			ATRPeriod:        cfg.Risk.ATRPeriod,
			ATRMultiple:      cfg.Risk.ATRMultiple,
			FixedStopPips:    cfg.Risk.FixedStopPips,
			TrailingPips:     cfg.Risk.TrailingPips,
			RiskReward:       cfg.Risk.RiskReward,
			MaxTradesPerDay:  cfg.Risk.MaxTradesPerDay,
			CloseLevels:      risk.CloseLevelsFor(cfg.Risk.PartialCloseFrac),
		},
		SpreadPips: 1,
	}, log)

	combiner := strategy.NewCombiner(cfg.Strategy.Weights, cfg.Strategy.MinConfidence)
	factories := strategy.Factories(cfg.Strategy.Enabled, strategy.Settings{
		FastPeriod:    cfg.Strategy.FastPeriod,
		SlowPeriod:    cfg.Strategy.SlowPeriod,
		RSIPeriod:     cfg.Strategy.RSIPeriod,
		RSIOversold:   cfg.Strategy.RSIOversold,
		RSIOverbought: cfg.Strategy.RSIOverbought,
		BollPeriod:    cfg.Strategy.BollPeriod,
		BollStdDev:    cfg.Strategy.BollStdDev,
		ADXPeriod:     cfg.Strategy.ADXPeriod,
		ADXThreshold:  cfg.Strategy.ADXThreshold,
		TrendMA:       cfg.Strategy.TrendMA,
	})

	start := time.Now()
	res, err := eng.Run(context.Background(), bars, combiner, factories...)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log.Info("run complete", "elapsed", time.Since(start).Round(time.Millisecond))

	printReport(res)
}

func printReport(res *backtest.Result) {
	r := res.Report
	fmt.Println("---- backtest report ----")
	fmt.Printf("total return      %8.2f%%\n", r.TotalReturn*100)
	fmt.Printf("annualized return %8.2f%%\n", r.AnnualizedReturn*100)
	fmt.Printf("max drawdown      %8.2f%%\n", r.MaxDrawdown*100)
	fmt.Printf("sharpe            %8.2f\n", r.Sharpe)
	fmt.Printf("sortino           %8.2f\n", r.Sortino)
	fmt.Printf("calmar            %8.2f\n", r.Calmar)
	fmt.Printf("trades            %8d\n", r.Trades)
	fmt.Printf("win rate          %8.2f%%\n", r.WinRate*100)
	fmt.Printf("profit factor     %8.2f\n", r.ProfitFactor)
	fmt.Printf("final equity      %10s\n", res.Final.Equity.StringFixed(2))
	fmt.Printf("realized pnl      %10s\n", res.Final.RealizedPnL.StringFixed(2))
}
