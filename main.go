package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/YaleSpinup/bugsnag-mini/common"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

var (
	configFileName = flag.String("config", "config/config.json", "Configuration file (.json or .yaml).")
	version        = flag.Bool("version", false, "Display version information and exit.")
	sendTest       = flag.Bool("test", false, "Send a test event and exit.")
	hashToken      = flag.String("hash-token", "", "Print the bcrypt hash of a relay token for the config file and exit.")
)

func main() {
	flag.Parse()
	if *version {
		vers()
	}

	if *hashToken != "" {
		hash, err := HashToken(*hashToken)
		if err != nil {
			log.Fatalln("Unable to hash token", err)
		}
		fmt.Println(hash)
		os.Exit(0)
	}

	log.Infof("bugsnag-mini version %s%s", Version, VersionPrerelease)

	configFile, err := os.Open(*configFileName)
	if err != nil {
		log.Fatalln("Unable to open config file", err)
	}

	r := bufio.NewReader(configFile)
	config, err := common.ReadConfigFile(*configFileName, r)
	if err != nil {
		log.Fatalf("Unable to read configuration from %s.  %+v", *configFileName, err)
	}
	configFile.Close()

	accessLog := configureLogging(config)

	log.Debugf("Loaded Config: %+v", config)

	reporter, hooks, err := newHooks(config)
	if err != nil {
		log.Fatalf("Unable to configure error reporting.  %+v", err)
	}

	// report our own panics before dying
	defer hooks.Recover(context.Background())

	if *sendTest {
		if _, err := reporter.Report(context.Background(), errors.New("This is a test. This is only a test.")); err != nil {
			log.Fatalln("Failed to send test event", err)
		}
		log.Info("Sent test event")
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	listen := config.Listen
	if listen == "" {
		listen = ":8080"
	}
	srv := startHTTPServer(listen, newServer(hooks, config.Token), accessLog)

	<-ctx.Done()

	log.Info("Stopping HTTP server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorln("Failed to shutdown HTTP server cleanly", err)
	}
	log.Info("Done. exiting")
}

func vers() {
	fmt.Printf("bugsnag-mini Version: %s%s\n", Version, VersionPrerelease)
	os.Exit(0)
}
