package main

import (
	"context"
	"flag"
	"log"
	"net/http"

	"github.com/robotalks/openrover.go/pkg/device"
	fx "github.com/robotalks/openrover.go/pkg/framework"
	"github.com/robotalks/openrover.go/pkg/rover"
)

var listenAddr = ":8070"

func init() {
	rover.SetupFlags()
	flag.StringVar(&listenAddr, "listen", listenAddr, "Address serving the websocket bridge.")
}

func main() {
	flag.Parse()

	conf := rover.NewConfig()
	path, err := conf.DevicePath()
	if err != nil {
		log.Fatalln(err)
	}
	if device.IsRemote(path) {
		log.Fatalln("refuse to bridge a remote device: " + path)
	}

	server := &http.Server{
		Addr:    listenAddr,
		Handler: device.NewBridge(path, conf.Baud).Handler(),
	}
	log.Printf("bridging %s on %s", path, listenAddr)
	runner := fx.NewRunner().HandleSignals()
	runner.Go(fx.NamedRun("http", fx.RunFunc(func(ctx context.Context) error {
		go func() {
			<-ctx.Done()
			server.Close()
		}()
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			return err
		}
		return ctx.Err()
	})))
	if err := runner.Wait(); err != nil {
		log.Fatalln(err)
	}
}
