// Package hat provides shell commands for the process data and service
// registers of a Monarco HAT.
package hat

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/monarco.go/pkg/bridge/msgs"
	"github.com/robotalks/monarco.go/pkg/cli/sh"
	fx "github.com/robotalks/monarco.go/pkg/framework"
	"github.com/robotalks/monarco.go/pkg/monarco/units"
)

var (
	// InputsCmd prints the next Inputs event.
	InputsCmd = ishell.Cmd{
		Name:    "inputs",
		Aliases: []string{"in"},
		Help:    "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			s := sh.ShellFrom(c)
			s.DrainEvents()
			msg, err := s.WaitEvent(func(msg fx.Message) bool {
				_, ok := msg.(*msgs.Inputs)
				return ok
			})
			if err != nil {
				c.Err(err)
				return
			}
			if s.OutputJSON {
				sh.PrintMsg(c, msg)
				return
			}
			c.Print(FormatInputs(msg.(*msgs.Inputs)))
		}),
	}

	// RegReadCmd reads a service register.
	RegReadCmd = ishell.Cmd{
		Name:    "reg.read",
		Aliases: []string{"rr"},
		Help:    "ADDR",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) != 1 {
				c.Err(fmt.Errorf("ADDR expected"))
				return
			}
			addr, err := ParseUint16(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			doRegister(c, &msgs.RegisterRequest{Address: uint32(addr)})
		}),
	}

	// RegWriteCmd writes a service register.
	RegWriteCmd = ishell.Cmd{
		Name:    "reg.write",
		Aliases: []string{"rw"},
		Help:    "ADDR VALUE",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) != 2 {
				c.Err(fmt.Errorf("ADDR VALUE expected"))
				return
			}
			addr, err := ParseUint16(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			val, err := ParseUint16(c.Args[1])
			if err != nil {
				c.Err(err)
				return
			}
			doRegister(c, &msgs.RegisterRequest{Address: uint32(addr), Write: true, Value: uint32(val)})
		}),
	}

	// DoutCmd switches a digital output.
	DoutCmd = ishell.Cmd{
		Name: "dout",
		Help: "CH(1-4) on|off",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			bit, on, err := parseSwitch(c.Args, 4)
			if err != nil {
				c.Err(err)
				return
			}
			msg := &msgs.Outputs{DoutMask: bit}
			if on {
				msg.Dout = bit
			}
			sh.DoCommand(c, msg)
		}),
	}

	// LEDCmd switches a user LED.
	LEDCmd = ishell.Cmd{
		Name: "led",
		Help: "CH(1-8) on|off",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			bit, on, err := parseSwitch(c.Args, 8)
			if err != nil {
				c.Err(err)
				return
			}
			msg := &msgs.Outputs{LedMask: bit}
			if on {
				msg.Led = bit
			}
			sh.DoCommand(c, msg)
		}),
	}

	// AoutCmd sets an analog output voltage.
	AoutCmd = ishell.Cmd{
		Name: "aout",
		Help: "CH(1-2) VOLTS",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			msg, err := ParseAout(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			sh.DoCommand(c, msg)
		}),
	}

	// PWMCmd configures a PWM output.
	PWMCmd = ishell.Cmd{
		Name: "pwm",
		Help: "CH(1-2) FREQ_HZ DUTY(0-1)...",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			msg, err := ParsePWM(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			sh.DoCommand(c, msg)
		}),
	}
)

func doRegister(c *ishell.Context, req *msgs.RegisterRequest) {
	s := sh.ShellFrom(c)
	s.DrainEvents()
	if _, err := s.Do(req); err != nil {
		c.Err(err)
		return
	}
	msg, err := s.WaitEvent(func(msg fx.Message) bool {
		state, ok := msg.(*msgs.RegisterState)
		return ok && state.Address == req.Address && state.Write == req.Write
	})
	if err != nil {
		c.Err(err)
		return
	}
	state := msg.(*msgs.RegisterState)
	if s.OutputJSON {
		sh.PrintMsg(c, state)
		return
	}
	if state.Error {
		c.Err(fmt.Errorf("register 0x%03X error 0x%04X", state.Address, state.Value))
		return
	}
	c.Printf("0x%03X = 0x%04X (%d)\n", state.Address, state.Value, state.Value)
}

// ParseUint16 parses a decimal or 0x prefixed value.
func ParseUint16(s string) (uint16, error) {
	val, err := strconv.ParseUint(s, 0, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid value %q", s)
	}
	return uint16(val), nil
}

func parseChannel(s string, max int) (int, error) {
	ch, err := strconv.Atoi(s)
	if err != nil || ch < 1 || ch > max {
		return 0, fmt.Errorf("channel must be 1-%d", max)
	}
	return ch, nil
}

func parseSwitch(args []string, max int) (bit uint32, on bool, err error) {
	if len(args) != 2 {
		return 0, false, fmt.Errorf("CH on|off expected")
	}
	ch, err := parseChannel(args[0], max)
	if err != nil {
		return 0, false, err
	}
	switch strings.ToLower(args[1]) {
	case "on", "1":
		on = true
	case "off", "0":
	default:
		return 0, false, fmt.Errorf("on|off expected")
	}
	return 1 << uint(ch-1), on, nil
}

// ParseAout builds Outputs from "CH VOLTS".
func ParseAout(args []string) (*msgs.Outputs, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("CH VOLTS expected")
	}
	ch, err := parseChannel(args[0], 2)
	if err != nil {
		return nil, err
	}
	volts, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return nil, fmt.Errorf("invalid voltage %q", args[1])
	}
	msg := &msgs.Outputs{AoutMask: 1 << uint(ch-1), Aout: make([]uint32, 2)}
	msg.Aout[ch-1] = uint32(units.AOutVolts(volts))
	return msg, nil
}

// ParsePWM builds Outputs from "CH FREQ DUTY...". PWM1 takes up to three
// duty cycles, PWM2 one.
func ParsePWM(args []string) (*msgs.Outputs, error) {
	if len(args) < 3 {
		return nil, fmt.Errorf("CH FREQ DUTY expected")
	}
	ch, err := parseChannel(args[0], 2)
	if err != nil {
		return nil, err
	}
	hz, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return nil, fmt.Errorf("invalid frequency %q", args[1])
	}
	maxDuty := 3
	if ch == 2 {
		maxDuty = 1
	}
	if len(args)-2 > maxDuty {
		return nil, fmt.Errorf("PWM%d takes at most %d duty cycles", ch, maxDuty)
	}
	duties := make([]uint32, 0, len(args)-2)
	for _, arg := range args[2:] {
		dc, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid duty cycle %q", arg)
		}
		duties = append(duties, uint32(units.PWMDuty(dc)))
	}
	div := uint32(units.PWMFrequency(hz))
	if ch == 1 {
		return &msgs.Outputs{PwmMask: 1, Pwm1Div: div, Pwm1Duty: duties}, nil
	}
	return &msgs.Outputs{PwmMask: 2, Pwm2Div: div, Pwm2Duty: duties[0]}, nil
}

// FormatInputs renders Inputs in engineering units.
func FormatInputs(in *msgs.Inputs) string {
	var b strings.Builder
	fmt.Fprintf(&b, "DIN: ")
	for ch := 1; ch <= 4; ch++ {
		state := "off"
		if in.Din&(1<<uint(ch-1)) != 0 {
			state = "ON"
		}
		fmt.Fprintf(&b, " %d:%s", ch, state)
	}
	b.WriteString("\n")
	for n, raw := range in.Ain {
		fmt.Fprintf(&b, "AIN%d: %4d %6.3fV %7.3fmA\n", n+1, raw,
			units.AInVolts(uint16(raw)), units.AInMilliamps(uint16(raw)))
	}
	for n, cnt := range in.Counters {
		fmt.Fprintf(&b, "CNT%d: %d\n", n+1, cnt)
	}
	fmt.Fprintf(&b, "cycles %d, checksum errors %d, transport errors %d\n",
		in.Cycles, in.ChecksumErrors, in.TransportErrors)
	return b.String()
}

func init() {
	sh.AddCmds(
		&InputsCmd,
		&RegReadCmd,
		&RegWriteCmd,
		&DoutCmd,
		&LEDCmd,
		&AoutCmd,
		&PWMCmd,
	)
}
