package main

import (
	"context"
	"flag"
	"log"
	"os"
	"reflect"
	"strings"

	"github.com/robotalks/openrover.go/pkg/bridge"
	fx "github.com/robotalks/openrover.go/pkg/framework"
	"github.com/robotalks/openrover.go/pkg/l1/comm/mqtt"
	"github.com/robotalks/openrover.go/pkg/l1/msgs"
)

var (
	mqttURL = bridge.DefaultMQTTBrokerURL
	roverID = "+"
)

func init() {
	if val := os.Getenv("ROVER_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
	flag.StringVar(&roverID, "id", roverID, "Only monitor the rover with the ID.")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	q, err := mqtt.NewQueueFromURL(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}
	q.Sub(bridge.ControllerType+"/"+roverID+"/#", func(topic string, payload []byte) {
		if strings.HasSuffix(topic, "/"+mqtt.TopicMeta) {
			if len(payload) == 0 {
				log.Printf("%s: offline", topic)
			} else {
				log.Printf("%s: %s", topic, string(payload))
			}
			return
		}
		typed, err := msgs.DecodeTyped(payload)
		if err != nil {
			log.Printf("%s: bad message: %v", topic, err)
			return
		}
		msg, err := typed.Decode()
		if err != nil {
			log.Printf("%s: decode error: (type_id=%x) %v", topic, typed.TypeId, err)
			return
		}
		name := reflect.Indirect(reflect.ValueOf(msg)).Type().Name()
		if telemetry, ok := msg.(*msgs.Telemetry); ok {
			log.Printf("%s: [%s]", topic, name)
			for _, item := range telemetry.Items {
				if item.Error != "" {
					log.Printf("  %2d %-36s ERROR %s", item.Index, item.Name, item.Error)
				} else {
					log.Printf("  %2d %-36s %s", item.Index, item.Name, item.Value)
				}
			}
			return
		}
		log.Printf("%s: [%s] #%d %s", topic, name, typed.Sequence, msg.String())
	})
	runner := fx.NewRunner().HandleSignals()
	runner.Go(fx.RunFunc(func(ctx context.Context) error {
		token := q.Connect()
		if token.Wait(); token.Error() != nil {
			return token.Error()
		}
		<-ctx.Done()
		return q.Close()
	}))
	if err := runner.Wait(); err != nil {
		log.Fatalln(err)
	}
}
