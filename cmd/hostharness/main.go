// Command hostharness is a standalone host simulator: it speaks the host
// side of the message-exchange protocol over plain HTTP so the rest of this
// module can be exercised end to end without a real embedding application.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/oneclient/core-go/internal/hostharness"
	"github.com/oneclient/core-go/internal/obslog"
)

func main() {
	var addr string
	var fixturesPath string
	var wsPath string

	flag.StringVar(&addr, "addr", ":7337", "address to listen on")
	flag.StringVar(&fixturesPath, "fixtures", "", "path to a YAML fixtures file")
	flag.StringVar(&wsPath, "ws-path", "/v1/ws", "path upstream simulators connect to")
	flag.Parse()

	_ = godotenv.Load()
	obslog.Setup()

	engine, _, err := hostharness.NewServer(hostharness.ServerOptions{
		FixturesPath:  fixturesPath,
		WebsocketPath: wsPath,
	})
	if err != nil {
		log.Fatalf("hostharness: build server: %v", err)
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Infof("hostharness: listening on %s", addr)
		if errServe := srv.ListenAndServe(); errServe != nil && !errors.Is(errServe, http.ErrServerClosed) {
			log.Fatalf("hostharness: serve failed: %v", errServe)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	fmt.Println("hostharness: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("hostharness: shutdown: %v", err)
	}
}
