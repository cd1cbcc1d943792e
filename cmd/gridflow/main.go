package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/ohowland/gridflow/internal/pkg/codec"
	"github.com/ohowland/gridflow/internal/pkg/comm/modbuscomm"
	"github.com/ohowland/gridflow/internal/pkg/config"
	"github.com/ohowland/gridflow/internal/pkg/database"
	"github.com/ohowland/gridflow/internal/pkg/database/mongodb"
	"github.com/ohowland/gridflow/internal/pkg/database/sqldb"
	"github.com/ohowland/gridflow/internal/pkg/datastreams/mqtt"
	"github.com/ohowland/gridflow/internal/pkg/datastreams/natshandler"
	"github.com/ohowland/gridflow/internal/pkg/editor"
	"github.com/ohowland/gridflow/internal/pkg/hmi"
	"github.com/ohowland/gridflow/internal/pkg/logger"
	"github.com/ohowland/gridflow/internal/pkg/web"
	"github.com/ohowland/gridflow/internal/pkg/webservice"
	"go.uber.org/zap"
)

// process is a long running handler started by main
type process interface {
	Process()
	Stop()
}

func main() {
	configPath := flag.String("config", "", "path to a YAML or JSON configuration file")
	docPath := flag.String("doc", "", "document file to open and save on exit (overrides the configured document)")
	demo := flag.Bool("demo", false, "start from the demonstration diagram")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			panic(err)
		}
	}
	if *docPath != "" {
		cfg.Document = *docPath
	}

	logger.Initialize(cfg.Logger)
	defer logger.Sync()
	log := logger.For(logger.Main)
	log.Info("Starting gridflow v0.1.0")

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	log.Info("Building Editor")
	e, err := editor.New(cfg.Editor, logger.For(logger.Editor))
	if err != nil {
		panic(err)
	}

	log.Info("Connecting Stores")
	stores, err := buildStores(cfg)
	if err != nil {
		panic(err)
	}

	log.Info("Opening Document")
	if err := openDocument(e, cfg, *demo, stores, log); err != nil {
		panic(err)
	}

	log.Info("Starting Handlers")
	processes, err := buildProcesses(cfg, e, stores)
	if err != nil {
		panic(err)
	}
	var wg sync.WaitGroup
	for _, p := range processes {
		wg.Add(1)
		go func(p process) {
			defer wg.Done()
			p.Process()
		}(p)
	}

	ctx, cancel := context.WithCancel(context.Background())
	if cfg.Webservice.Enabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := webservice.New(cfg.Webservice, e).ListenAndServe(ctx)
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Errorf("webservice: %v", err)
			}
		}()
	}

	done := make(chan struct{})
	var view *hmi.HMI
	if cfg.HMI.Enabled {
		view = hmi.New(cfg.HMI, e)
		go func() {
			if err := view.Run(); err != nil {
				log.Errorf("hmi: %v", err)
			}
			close(done)
		}()
	}

	select {
	case <-sigs:
	case <-done:
	}

	log.Info("Saving Document")
	doc := e.Save()
	if cfg.Document != "" {
		if err := codec.WriteFile(cfg.Document, doc); err != nil {
			log.Errorf("write %v: %v", cfg.Document, err)
		}
	}

	log.Info("Stopping System")
	if view != nil {
		view.Stop()
	}
	cancel()
	for _, p := range processes {
		p.Stop()
	}
	wg.Wait()
	log.Info("Shutdown Complete")
}

type namedStore struct {
	name  string
	store database.Store
}

func buildStores(cfg config.Config) ([]namedStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stores := make([]namedStore, 0)
	if cfg.Mongo.Enabled {
		s, err := mongodb.Connect(ctx, cfg.Mongo)
		if err != nil {
			return nil, err
		}
		stores = append(stores, namedStore{logger.Mongo, s})
	}
	if cfg.SQL.Enabled {
		s, err := sqldb.New(cfg.SQL)
		if err != nil {
			return nil, err
		}
		if err := s.Init(ctx); err != nil {
			return nil, err
		}
		stores = append(stores, namedStore{logger.SQL, s})
	}
	if cfg.Webhook.Enabled {
		stores = append(stores, namedStore{logger.Webhook, web.New(cfg.Webhook)})
	}
	return stores, nil
}

// openDocument loads the demo, the document file, or the first stored document, in that order.
func openDocument(e *editor.Editor, cfg config.Config, demo bool, stores []namedStore, log *zap.SugaredLogger) error {
	if demo {
		return editor.BuildDemo(e)
	}
	if cfg.Document != "" {
		if _, err := os.Stat(cfg.Document); err == nil {
			doc, err := codec.ReadFile(cfg.Document)
			if err != nil {
				return err
			}
			_, err = e.Load(doc)
			return err
		}
	}
	for _, s := range stores {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		doc, err := s.store.Load(ctx)
		cancel()
		if errors.Is(err, database.ErrNoDocument) {
			continue
		}
		if err != nil {
			log.Warnf("%v load: %v", s.name, err)
			continue
		}
		_, err = e.Load(doc)
		return err
	}
	log.Info("Starting from an empty diagram")
	return nil
}

func buildProcesses(cfg config.Config, e *editor.Editor, stores []namedStore) ([]process, error) {
	processes := make([]process, 0)
	if cfg.NATS.Enabled {
		h, err := natshandler.New(cfg.NATS, e)
		if err != nil {
			return nil, err
		}
		processes = append(processes, h)
	}
	if cfg.MQTT.Enabled {
		h, err := mqtt.New(cfg.MQTT, e)
		if err != nil {
			return nil, err
		}
		processes = append(processes, h)
	}
	for _, s := range stores {
		h, err := database.NewHandler(s.name, s.store, e)
		if err != nil {
			return nil, err
		}
		processes = append(processes, h)
	}
	if cfg.Modbus.Enabled {
		processes = append(processes, modbuscomm.NewMirror(cfg.Modbus, e))
	}
	return processes, nil
}
