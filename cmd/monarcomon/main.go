package main

import (
	"flag"
	"log"
	"reflect"
	"strings"

	"github.com/robotalks/monarco.go/pkg/bridge/comm/mqtt"
	"github.com/robotalks/monarco.go/pkg/bridge/msgs"
	"github.com/robotalks/monarco.go/pkg/config"
)

func init() {
	config.SetupClientFlags()
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	q, err := mqtt.NewQueueFromURL(config.Default().Bridge.MQTTURL, "")
	if err != nil {
		log.Fatalln(err)
	}
	if err = q.Connect(); err != nil {
		log.Fatalln(err)
	}

	filter := "#"
	if id := flag.Arg(0); id != "" {
		filter = id + "/#"
	}
	q.Sub(filter, mqtt.Handler(func(topic string, payload []byte) {
		if strings.HasSuffix(topic, "/"+mqtt.StatusTopic) {
			log.Printf("%s: %s", topic, string(payload))
			return
		}
		typed, err := msgs.DecodeTyped(payload)
		if err != nil {
			log.Printf("%s: bad message: %v", topic, err)
			return
		}
		msg, err := typed.Decode()
		if err != nil {
			log.Printf("%s: decode error: (type_id=%x) %v", topic, typed.TypeID, err)
			return
		}
		log.Printf("%s: [%s] %s", topic,
			reflect.Indirect(reflect.ValueOf(msg)).Type().Name(),
			msg.(msgs.SerializableMessage).Serializable().String())
	}))
	<-(chan struct{})(nil)
}
