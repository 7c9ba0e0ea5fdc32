package sh

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/monarco.go/pkg/bridge/comm"
	"github.com/robotalks/monarco.go/pkg/bridge/comm/mqtt"
	"github.com/robotalks/monarco.go/pkg/bridge/msgs"
	"github.com/robotalks/monarco.go/pkg/config"
	fx "github.com/robotalks/monarco.go/pkg/framework"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	AutoConnect bool

	Shell  *ishell.Shell
	Config *config.Bridge
	Loop   *ConnLoop
}

// ConnLoop is a running loop with a connection to a device.
type ConnLoop struct {
	Ctx    context.Context
	Cancel func()
	ID     string
	Queue  *mqtt.Queue
	Loop   *fx.Loop
	Conn   *comm.Conn
	// Events receives Inputs, RegisterState and FieldbusBlock events.
	Events chan fx.Message
}

const (
	shellKey          = "$shell"
	unconnectedPrompt = "[none] > "

	connectTimeout  = 3 * time.Second
	discoverTimeout = 500 * time.Millisecond
	// EventTimeout bounds waiting for an event from the device.
	EventTimeout = 2 * time.Second
)

var (
	// flags

	evalOnly   bool
	outputJSON bool

	// commands
	commands = []*ishell.Cmd{
		&DiscoverCmd,
		&ConnectCmd,
		&DisconnectCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(conf *config.Bridge) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,

		Shell:  ishell.New(),
		Config: conf,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(unconnectedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustBeConnected wraps command func requires a connection.
func MustBeConnected(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).Loop == nil {
			c.Err(fmt.Errorf("not connected"))
			return
		}
		fn(c)
	}
}

// Do sends a command and waits for the reply.
func (s *Shell) Do(msg fx.Message) (fx.Message, error) {
	if s.Loop == nil {
		return nil, fmt.Errorf("not connected")
	}
	select {
	case res := <-s.Loop.Conn.DoCommand(msg).ResultChan():
		return res.Msg, res.Err
	case <-time.After(EventTimeout):
		return nil, fmt.Errorf("command timeout")
	}
}

// DoCommand runs a command, waits for result and prints it.
func DoCommand(c *ishell.Context, msg fx.Message) error {
	s := ShellFrom(c)
	reply, err := s.Do(msg)
	if err != nil {
		c.Err(err)
		return err
	}
	if _, ok := reply.(*msgs.CommandOK); ok && !s.OutputJSON {
		c.Println("OK")
		return nil
	}
	return PrintMsg(c, reply)
}

// PrintMsg prints a message as JSON or in text form.
func PrintMsg(c *ishell.Context, msg fx.Message) error {
	serializable, ok := msg.(msgs.SerializableMessage)
	if !ok {
		return msgs.ErrNotSerializable
	}
	if ShellFrom(c).OutputJSON {
		out, err := json.Marshal(serializable.Serializable())
		if err != nil {
			c.Err(err)
			return err
		}
		c.Println(string(out))
		return nil
	}
	c.Printf("%s %s\n",
		reflect.Indirect(reflect.ValueOf(msg)).Type().Name(),
		serializable.Serializable().String())
	return nil
}

// DrainEvents discards received events.
func (s *Shell) DrainEvents() {
	if s.Loop == nil {
		return
	}
	for {
		select {
		case <-s.Loop.Events:
		default:
			return
		}
	}
}

// WaitEvent waits for an event accepted by match.
func (s *Shell) WaitEvent(match func(fx.Message) bool) (fx.Message, error) {
	if s.Loop == nil {
		return nil, fmt.Errorf("not connected")
	}
	timeout := time.After(EventTimeout)
	for {
		select {
		case msg := <-s.Loop.Events:
			if match(msg) {
				return msg, nil
			}
		case <-timeout:
			return nil, fmt.Errorf("no event received in %v", EventTimeout)
		}
	}
}

// WithAutoConnect sets AutoConnect.
func (s *Shell) WithAutoConnect(en bool) *Shell {
	s.AutoConnect = en
	return s
}

// Discover lists the IDs of devices announcing themselves online.
func (s *Shell) Discover() ([]string, error) {
	q, err := mqtt.NewQueueFromURL(s.Config.MQTTURL, "")
	if err != nil {
		return nil, err
	}
	if err = q.Connect(); err != nil {
		return nil, err
	}
	defer q.Close()

	var lock sync.Mutex
	online := make(map[string]bool)
	filter := "+/" + mqtt.StatusTopic
	sub := q.Sub(filter, func(topic string, payload []byte) {
		id := topic[:len(topic)-len(mqtt.StatusTopic)-1]
		lock.Lock()
		online[id] = string(payload) == mqtt.StatusOnline
		lock.Unlock()
	})
	defer sub.Close()
	time.Sleep(discoverTimeout)

	lock.Lock()
	defer lock.Unlock()
	ids := make([]string, 0, len(online))
	for id, on := range online {
		if on {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// Connect connects the device with id.
func (s *Shell) Connect(id string) error {
	q, err := mqtt.NewQueueFromURL(s.Config.MQTTURL, "")
	if err != nil {
		return err
	}
	if err = q.Connect(); err != nil {
		return err
	}
	rw := mqtt.NewPacketReadWriter(q).ForClient(id)
	connLoop := &ConnLoop{
		ID:     id,
		Queue:  q,
		Conn:   comm.NewConn(id, rw),
		Loop:   fx.NewLoop(),
		Events: make(chan fx.Message, 64),
	}
	connLoop.Ctx, connLoop.Cancel = context.WithCancel(context.Background())
	connLoop.Loop.Add(connLoop.Conn)
	connLoop.Loop.AddController(fx.PrLvControl, fx.ControlFunc(connLoop.collectEvents))
	go connLoop.Loop.Run(connLoop.Ctx)
	select {
	case <-rw.Ready():
	case <-time.After(connectTimeout):
		connLoop.close()
		return fmt.Errorf("subscribe %q timeout", rw.SubTopic)
	}

	s.Disconnect()
	s.Loop = connLoop
	s.Shell.SetPrompt(fmt.Sprintf("%s > ", id))
	return nil
}

// Disconnect disconnects current device.
func (s *Shell) Disconnect() {
	if s.Loop != nil {
		s.Loop.close()
		s.Loop = nil
		s.Shell.SetPrompt(unconnectedPrompt)
	}
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if s.AutoConnect && s.Config.ID != "" {
		if s.Interactive {
			s.Shell.Printf("Connecting %s ...\n", s.Config.ID)
		}
		if err := s.Connect(s.Config.ID); err != nil {
			log.Fatalf("connect %q failed: %v", s.Config.ID, err)
		}
	}

	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

func (l *ConnLoop) collectEvents(cc fx.ControlContext) error {
	cc.TakeMessages(func(msg fx.Message) bool {
		switch msg.(type) {
		case *msgs.Inputs, *msgs.RegisterState, *msgs.FieldbusBlock:
			select {
			case l.Events <- msg:
			default:
			}
			return true
		}
		return false
	})
	return nil
}

func (l *ConnLoop) close() {
	l.Cancel()
	l.Queue.Close()
}

var (
	// DiscoverCmd discovers devices.
	DiscoverCmd = ishell.Cmd{
		Name:    "discover",
		Aliases: []string{"list", "l"},
		Help:    "",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			ids, err := s.Discover()
			if err != nil {
				c.Err(err)
				return
			}
			if s.OutputJSON {
				out, err := json.Marshal(ids)
				if err != nil {
					c.Err(err)
					return
				}
				c.Println(string(out))
				return
			}
			if len(ids) == 0 {
				c.Println("No devices found")
				return
			}
			for _, id := range ids {
				c.Println(id)
			}
		},
	}

	// ConnectCmd connects a device.
	ConnectCmd = ishell.Cmd{
		Name:    "connect",
		Aliases: []string{"c"},
		Help:    "[ID]",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			var id string
			if len(c.Args) > 0 {
				id = c.Args[0]
			} else {
				ids, err := s.Discover()
				if err != nil {
					c.Err(err)
					return
				}
				switch {
				case len(ids) == 0:
					c.Err(fmt.Errorf("no device discovered"))
					return
				case len(ids) == 1:
					id = ids[0]
				case !s.Interactive:
					c.Err(fmt.Errorf("more than 1 devices discovered in non-interactive mode"))
					return
				default:
					choice := s.Shell.MultiChoice(ids, "Which one to connect?")
					if choice < 0 {
						return
					}
					id = ids[choice]
				}
			}
			if err := s.Connect(id); err != nil {
				c.Err(err)
			}
		},
	}

	// DisconnectCmd disconnects current device.
	DisconnectCmd = ishell.Cmd{
		Name:    "disconnect",
		Aliases: []string{"d"},
		Help:    "",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Disconnect()
		},
	}
)

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	New(&config.Default().Bridge).WithAutoConnect(true).Run(flag.Args()...)
}
