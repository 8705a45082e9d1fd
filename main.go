package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/nickysemenza/gola"
	"github.com/robmorgan/glow/api"
	"github.com/robmorgan/glow/config"
	"github.com/robmorgan/glow/led"
	"github.com/robmorgan/glow/light"
	"github.com/robmorgan/glow/logger"
	"github.com/robmorgan/glow/transition"
	"k8s.io/utils/clock"
)

func main() {
	configPath := flag.String("config", "glow.yaml", "path to the config file")
	flag.Parse()

	ctx := context.Background()
	Run(ctx, *configPath)
}

// Run starts the daemon
func Run(ctx context.Context, configPath string) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// initialize the logger
	logger := logger.GetProjectLogger()

	wg := sync.WaitGroup{}

	// initialize the global config
	logger.Info("Initializing config...")
	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("error loading config. err='%v'", err)
	}

	// one transition manager drives every fade in the process
	logger.Info("Initializing transition manager...")
	manager := transition.NewManager(clock.RealClock{})

	// wire up the outputs
	var dmxState *led.DMXState
	if cfg.OLA != nil {
		dmxState = led.NewDMXState()
	}

	logger.Info("Initializing lights...")
	registry := light.NewRegistry()
	for _, ledConf := range cfg.LEDs {
		var dimmer led.Dimmer
		if dmxState != nil {
			dimmer = led.NewDMXDimmer(dmxState, cfg.OLA.Universe, ledConf.Pin)
		} else {
			dimmer = led.NewVirtual(ledConf.Name)
		}

		l := light.New(ledConf.Name, ledConf.UniqueID, dimmer, manager)
		if err := registry.Add(l); err != nil {
			logger.Fatalf("error registering light. err='%v'", err)
		}
	}

	// configure OLA for DMX output
	if cfg.OLA != nil {
		logger.Info("Connecting to OLA...")
		olaTick := 40 * time.Millisecond
		client, err := gola.New(cfg.OLA.Address)
		if err != nil {
			logger.Errorf("could not connect to OLA: %v", err)
		} else {
			wg.Add(1)
			go led.SendDMXWorker(ctx, client, olaTick, dmxState, &wg)
		}
	}

	// serve the control API
	logger.Infof("Serving the control API on %s", cfg.ListenAddr)
	router := api.NewRouter(registry)
	go func() {
		if err := router.Run(cfg.ListenAddr); err != nil {
			logger.Errorf("control API stopped: %v", err)
		}
	}()

	// handle CTRL+C interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)

	<-quit
	logger.Println("shutting down glow")
	cancel()
	wg.Wait()
}
