package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"helmlink/internal/config"
	"helmlink/internal/mqttpub"
	"helmlink/internal/nmea"
	"helmlink/internal/web"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "./helmlink.yaml", "Path to YAML config")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	svc := nmea.New(nmea.Config{
		Host:        cfg.NMEA.Host,
		Port:        cfg.NMEA.Port,
		Interval:    cfg.NMEA.Interval,
		BackoffBase: cfg.NMEA.BackoffBase,
		BackoffCap:  cfg.NMEA.BackoffCap,
		DialTimeout: cfg.NMEA.DialTimeout,
	})
	defer svc.Stop()

	unsubStatus := svc.OnStatusChange(func(st nmea.State) {
		log.Printf("nmea state=%s", st)
	})
	defer unsubStatus()

	log.Printf("helmlink starting")
	log.Printf("nmea target=%s:%d interval=%s", cfg.NMEA.Host, cfg.NMEA.Port, cfg.NMEA.Interval)
	svc.Start()

	if cfg.MQTT.Enable {
		pub, err := mqttpub.New(mqttpub.Config{
			Broker:   cfg.MQTT.Broker,
			ClientID: cfg.MQTT.ClientID,
			Topic:    cfg.MQTT.Topic,
		}, svc)
		if err != nil {
			log.Fatalf("mqtt publisher init failed: %v", err)
		}
		defer pub.Close()
	}

	if cfg.Web.Enable {
		srv := web.NewServer(svc)
		defer srv.Close()

		httpSrv := &http.Server{Addr: cfg.Web.Addr, Handler: srv.Handler()}
		go func() {
			log.Printf("web listening addr=%s", cfg.Web.Addr)
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("web server stopped: %v", err)
				cancel()
			}
		}()
		defer func() {
			shutCtx, shutCancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer shutCancel()
			_ = httpSrv.Shutdown(shutCtx)
		}()
	}

	<-ctx.Done()
	log.Printf("helmlink stopping")
}
