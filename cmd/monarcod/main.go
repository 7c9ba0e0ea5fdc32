package main

import (
	"context"
	"flag"
	"log"

	"github.com/robotalks/monarco.go/pkg/bridge"
	"github.com/robotalks/monarco.go/pkg/bridge/comm/mqtt"
	"github.com/robotalks/monarco.go/pkg/bridge/msgs"
	"github.com/robotalks/monarco.go/pkg/config"
	"github.com/robotalks/monarco.go/pkg/device"
	fx "github.com/robotalks/monarco.go/pkg/framework"
	"github.com/robotalks/monarco.go/pkg/monarco"
	"github.com/robotalks/monarco.go/pkg/monarco/spi"
	"github.com/robotalks/monarco.go/pkg/rs485"
	"github.com/robotalks/monarco.go/pkg/sim"
)

var configFile string

func init() {
	config.SetupFlags()
	flag.StringVar(&configFile, "config", configFile, "YAML configuration file.")
}

func main() {
	flag.Parse()

	conf := config.Default()
	if configFile != "" {
		conf = config.MustLoad(configFile)
	} else if err := conf.Validate(); err != nil {
		log.Fatalln(err)
	}

	var transport monarco.Transport
	if conf.Sim {
		transport = sim.NewHAT()
	} else {
		port, err := spi.Open(conf.Device, conf.Clock())
		if err != nil {
			// keep cycling, the engine reports it is not ready
			log.Printf("SPI unavailable: %v", err)
		} else {
			transport = port
		}
	}

	engine := monarco.New(transport,
		monarco.WithLogger(monarco.NewGlogLogger("monarco")),
		monarco.WithRearmOnTimeout(conf.RearmOnTimeout))
	defer engine.Close()
	if err := engine.Add(conf.Items()...); err != nil {
		log.Fatalln(err)
	}

	driver := device.New(engine)
	b := bridge.New(engine, driver)
	if conf.Bridge.PublishEvery > 0 {
		b.PublishEvery = conf.Bridge.PublishEvery
	}

	loop := fx.NewLoop()
	loop.Interval = conf.Interval()

	if conf.Bridge.MQTTURL != "" {
		q, err := mqtt.NewQueueFromURL(conf.Bridge.MQTTURL, conf.Bridge.ID+"/"+mqtt.StatusTopic)
		if err != nil {
			log.Fatalln(err)
		}
		if err = q.Connect(); err != nil {
			log.Fatalln(err)
		}
		defer q.Close()
		b.AddLink("mqtt", mqtt.NewPacketReadWriter(q).ForDevice(conf.Bridge.ID))
	}
	if conf.Bridge.Listen != "" {
		loop.AddRunnable(&bridge.StreamListener{Bridge: b, Addr: conf.Bridge.Listen})
	}
	if conf.Bridge.WebSocket != "" {
		loop.AddRunnable(&bridge.WebSocketListener{Bridge: b, Addr: conf.Bridge.WebSocket})
	}
	loop.Add(driver, b)

	if rsConf := conf.RS485; rsConf != nil && len(rsConf.Reads) > 0 {
		master, err := rs485.Dial(rsConf)
		if err != nil {
			log.Fatalln(err)
		}
		defer master.Close()
		loop.AddRunnable(&rs485.Poller{
			Config: rsConf,
			Reader: master,
			Ready:  driver.InitDone,
			Handler: func(ctx context.Context, block rs485.Block) {
				msg := &msgs.FieldbusBlock{Slave: uint32(block.Slave), Address: uint32(block.Address)}
				for _, val := range block.Values {
					msg.Values = append(msg.Values, uint32(val))
				}
				if block.Err != nil {
					msg.Error = block.Err.Error()
				}
				fx.LoopCtlFrom(ctx).PostMessage(msg)
			},
		})
	}

	err := fx.NewRunner().HandleSignals().Go(fx.NamedRun("loop", loop)).Wait()
	if err != nil {
		log.Fatalln(err)
	}
}
