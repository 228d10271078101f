package main

import (
	"flag"
	"log"

	"github.com/robotalks/openrover.go/pkg/bridge"
	fx "github.com/robotalks/openrover.go/pkg/framework"
	"github.com/robotalks/openrover.go/pkg/l1/comm/mqtt"
	"github.com/robotalks/openrover.go/pkg/rover"
)

func init() {
	rover.SetupFlags()
	bridge.SetupFlags()
}

func main() {
	flag.Parse()

	conf, err := bridge.NewConfig()
	if err != nil {
		log.Fatalln(err)
	}
	if err := conf.Validate(); err != nil {
		log.Fatalln(err)
	}
	roverConf := rover.NewConfig()
	path, err := roverConf.DevicePath()
	if err != nil {
		log.Fatalln(err)
	}
	roverConf.Device = path
	r := roverConf.MustConnect()

	info := conf.Info(path)
	pub, err := mqtt.NewPublisher(conf.MQTTBrokerURL, info)
	if err != nil {
		log.Fatalln(err)
	}
	log.Printf("rover %s on %s", info.Ref.Name(), path)
	fx.NewLoop().Add(pub, conf.NewBridge(r, pub)).RunOrFail()
}
