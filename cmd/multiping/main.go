package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	ping "github.com/digineo/go-fping"
)

func main() {
	cfg := ping.DefaultConfig()
	cfg.Continuous = true
	cfg.Quiet = true

	flag.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "timeout for name resolution and reverse lookups")
	flag.DurationVar(&cfg.Interval, "interval", cfg.Interval, "polling interval")
	flag.IntVar(&cfg.PacketSize, "size", cfg.PacketSize, "size of the ICMP message in bytes")
	flag.BoolVar(&cfg.ResolveDNS, "dns", cfg.ResolveDNS, "log reverse DNS names of repliers")
	flag.Parse()

	capture := &logInterceptor{keep: 100}
	log := logrus.New()
	log.SetOutput(capture)
	log.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: true})
	ping.SetLogger(log)

	hosts := flag.Args()
	if len(hosts) == 0 {
		fmt.Println("Usage:", os.Args[0], "[options] host1 host2 ...")
		flag.PrintDefaults()
		os.Exit(1)
	}

	engine := ping.New()
	defer engine.Close()

	indexes, err := resolve(engine, hosts, cfg.Timeout)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}

	targets := engine.Targets()
	var destinations []*destination
	for i, host := range hosts {
		if indexes[i] < 0 {
			continue
		}
		destinations = append(destinations, &destination{
			host:    host,
			display: targets[indexes[i]].Address.String(),
			index:   indexes[i],
			history: &history{},
		})
	}
	if len(destinations) == 0 {
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

	byIndex := make(map[int]*destination, len(destinations))
	for _, d := range destinations {
		byIndex[d.index] = d
	}
	go func() {
		for ev := range engine.Events() {
			if d := byIndex[ev.Target]; d != nil {
				d.apply(ev)
			}
			if ev.Kind != ping.KindReply || cfg.ResolveDNS {
				log.Info(ev.String())
			}
		}
	}()

	ui := buildTUI(destinations)
	go ui.update(engine, capture, cfg.Interval)

	if err := ui.Run(); err != nil {
		engine.Close()
		panic(err)
	}
}
