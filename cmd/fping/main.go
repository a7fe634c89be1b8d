package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackpal/gateway"
	"github.com/sirupsen/logrus"
	"gopkg.in/cheggaaa/pb.v1"

	ping "github.com/digineo/go-fping"
)

var log = logrus.New()

func main() {
	var (
		envFile    = ".env"
		addGateway bool
		progress   bool
		verbose    bool
	)

	for i, arg := range os.Args[1:] {
		if arg == "-env" && i+2 < len(os.Args) {
			envFile = os.Args[i+2]
		}
	}
	if err := loadEnv(envFile); err != nil {
		fmt.Fprintf(os.Stderr, "unable to read %s: %v\n", envFile, err)
		os.Exit(1)
	}

	cfg := ping.DefaultConfig()
	cfg.Interval = envDuration("FPING_INTERVAL", cfg.Interval)
	cfg.Timeout = envDuration("FPING_TIMEOUT", cfg.Timeout)
	cfg.PacketSize = envInt("FPING_SIZE", cfg.PacketSize)
	cfg.Count = envInt("FPING_COUNT", cfg.Count)
	cfg.ResolveDNS = envBool("FPING_DNS", cfg.ResolveDNS)
	cfg.ShowTimestamp = envBool("FPING_TIMESTAMP", cfg.ShowTimestamp)

	flag.StringVar(&envFile, "env", envFile, "dotenv file with FPING_* defaults")
	flag.DurationVar(&cfg.Interval, "interval", cfg.Interval, "pause between two echo requests")
	flag.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "how long to wait for the last replies")
	flag.IntVar(&cfg.PacketSize, "size", cfg.PacketSize, "size of the ICMP message in bytes")
	flag.IntVar(&cfg.Count, "count", cfg.Count, "number of rounds")
	flag.BoolVar(&cfg.Continuous, "loop", cfg.Continuous, "probe until interrupted")
	flag.BoolVar(&cfg.ShowTimestamp, "timestamp", cfg.ShowTimestamp, "prefix replies with the local time")
	flag.BoolVar(&cfg.ResolveDNS, "dns", cfg.ResolveDNS, "show reverse DNS names of repliers")
	flag.BoolVar(&cfg.Quiet, "quiet", cfg.Quiet, "suppress informational lines")
	flag.UintVar(&cfg.Mark, "mark", cfg.Mark, "SO_MARK for outgoing packets (Linux)")
	flag.BoolVar(&addGateway, "gateway", envBool("FPING_GATEWAY", false), "probe the default gateway, too")
	flag.BoolVar(&progress, "progress", false, "show a progress bar instead of replies")
	flag.BoolVar(&verbose, "v", false, "verbose logging")
	flag.Parse()

	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.WarnLevel)
	}
	ping.SetLogger(log)

	targets := append(flag.Args(), envList("FPING_TARGETS")...)
	if addGateway {
		if gw, err := gateway.DiscoverGateway(); err != nil {
			log.Errorf("unable to discover default gateway: %v", err)
		} else {
			targets = append(targets, gw.String())
		}
	}

	if len(targets) == 0 {
		fmt.Println("Usage:", os.Args[0], "[options] target1 target2 ...")
		flag.PrintDefaults()
		os.Exit(1)
	}

	engine := ping.New()
	defer engine.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	_, err := engine.AddTargets(ctx, targets...)
	cancel()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	if len(engine.Targets()) == 0 {
		os.Exit(1)
	}

	if err := engine.Start(cfg); err != nil {
		if errors.Is(err, ping.ErrInsufficientPrivilege) {
			fmt.Fprintf(os.Stderr, "%v\nRunning as root?\n", err)
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// Handle SIGINT and SIGTERM.
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-ch
		log.Debugf("received %v", sig)
		engine.Stop()
	}()

	printed := make(chan struct{})
	go func() {
		defer close(printed)
		for ev := range engine.Events() {
			if progress && ev.Kind == ping.KindReply {
				continue
			}
			fmt.Println(ev)
		}
	}()

	if progress && !cfg.Continuous {
		showProgress(engine, max(cfg.Count, 1)*len(engine.Targets()))
	}

	engine.Wait()
	engine.Close()
	<-printed

	if cfg.Quiet {
		for _, t := range engine.Report() {
			report(t)
		}
	}
}

// showProgress renders the number of transmitted probes until the run
// has ended.
func showProgress(engine *ping.Engine, total int) {
	bar := pb.New(total)
	bar.Output = os.Stderr
	bar.ShowSpeed = false
	bar.Prefix("probes ")
	bar.Start()
	defer bar.Finish()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for engine.Running() {
		var sent int
		for _, t := range engine.Report() {
			sent += int(t.Stats.Sent)
		}
		bar.Set(sent)
		<-ticker.C
	}
	bar.Set(total)
}

func report(t ping.Target) {
	s := t.Stats
	fmt.Printf("%-20s %-15s sent=%d recv=%d loss=%0.1f%%", t.Hostname, t.Address, s.Sent, s.Received, s.LossRate()*100)
	if s.Received > 0 {
		fmt.Printf(" min=%s avg=%s max=%s jitter=%s",
			ping.FormatRTT(s.Min), ping.FormatRTT(s.Mean()), ping.FormatRTT(s.Max), ping.FormatRTT(s.Jitter()))
	}
	fmt.Println()
}
