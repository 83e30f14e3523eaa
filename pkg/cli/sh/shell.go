// Package sh provides an ishell backed inspector for the frame parser. It
// feeds raw bytes through a parser and dispatcher and encodes frames.
package sh

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"strconv"
	"strings"
	"unicode"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/wsn.go/pkg/dispatch"
	"github.com/robotalks/wsn.go/pkg/frame"
	"github.com/robotalks/wsn.go/pkg/payload"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	Node        string

	Shell      *ishell.Shell
	Decoder    frame.Decoder
	Dispatcher *dispatch.Dispatcher

	events []*dispatch.Event
}

const shellKey = "$shell"

var (
	// flags

	evalOnly   bool
	outputJSON bool
	localAddr  uint = dispatch.DefaultLocalAddress

	// commands
	commands = []*ishell.Cmd{
		&FeedCmd,
		&EncodeCmd,
		&StateCmd,
		&ResetCmd,
		&StatsCmd,
		&AddrCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
	flag.UintVar(&localAddr, "addr", localAddr, "Local node address.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(addr byte) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,
		Node:        "sh",
		Shell:       ishell.New(),
	}
	s.Dispatcher = dispatch.New(addr, dispatch.HandleEventFunc(s.collect))
	s.Shell.Set(shellKey, s)
	s.updatePrompt()
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

func (s *Shell) updatePrompt() {
	s.Shell.SetPrompt(fmt.Sprintf("[%d %v] > ", s.Dispatcher.LocalAddress, s.Decoder.State()))
}

// Feed parses data and returns the events of the records it completes.
// A partial frame stays in the parser for the next call.
func (s *Shell) Feed(data []byte) []*dispatch.Event {
	s.events = nil
	for _, b := range data {
		if rec, ok := s.Decoder.Decode(b); ok {
			s.Dispatcher.Dispatch(context.Background(), rec)
		}
	}
	events := s.events
	s.events = nil
	return events
}

func (s *Shell) collect(_ context.Context, e *dispatch.Event) {
	s.events = append(s.events, e)
}

// Format renders an event for output.
func (s *Shell) Format(e *dispatch.Event) (string, error) {
	if !s.OutputJSON {
		return e.String(), nil
	}
	r := payload.NewReading(s.Node, e.Record, e.Time)
	r.Summary = e.String()
	out, err := json.Marshal(r)
	return string(out), err
}

// ParseHex accepts bytes as hex, separated by spaces or not, with optional
// 0x prefixes.
func ParseHex(args []string) ([]byte, error) {
	var sb strings.Builder
	for _, arg := range args {
		for _, f := range strings.FieldsFunc(arg, func(r rune) bool { return r == ',' || r == ':' || unicode.IsSpace(r) }) {
			f = strings.TrimPrefix(strings.TrimPrefix(f, "0x"), "0X")
			if len(f)%2 == 1 {
				f = "0" + f
			}
			sb.WriteString(f)
		}
	}
	return hex.DecodeString(sb.String())
}

// EncodeFrame builds a frame from DST SRC TYPE VALUE...
func EncodeFrame(args []string) (*frame.Frame, error) {
	if len(args) < 4 {
		return nil, fmt.Errorf("DST SRC TYPE VALUE... required")
	}
	dst, err := strconv.ParseUint(args[0], 0, 8)
	if err != nil {
		return nil, fmt.Errorf("invalid DST: %v", err)
	}
	src, err := strconv.ParseUint(args[1], 0, 8)
	if err != nil {
		return nil, fmt.Errorf("invalid SRC: %v", err)
	}
	t, err := frame.ParseMsgType(args[2])
	if err != nil {
		return nil, err
	}
	if !t.IsKnown() {
		// raw payload for unknown types
		p, err := ParseHex(args[3:])
		if err != nil {
			return nil, err
		}
		return &frame.Frame{Dst: byte(dst), Src: byte(src), Type: t, Payload: p}, nil
	}
	v, err := payload.Parse(t, args[3:])
	if err != nil {
		return nil, err
	}
	return payload.Frame(byte(dst), byte(src), v), nil
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
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

var (
	// FeedCmd parses raw bytes.
	FeedCmd = ishell.Cmd{
		Name:    "feed",
		Aliases: []string{"f"},
		Help:    "HEX... feed bytes through the parser",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			data, err := ParseHex(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			for _, e := range s.Feed(data) {
				line, err := s.Format(e)
				if err != nil {
					c.Err(err)
					return
				}
				c.Println(line)
			}
			s.updatePrompt()
		},
	}

	// EncodeCmd prints the wire bytes of a frame.
	EncodeCmd = ishell.Cmd{
		Name:    "encode",
		Aliases: []string{"e"},
		Help:    "DST SRC TYPE VALUE... encode a frame",
		Func: func(c *ishell.Context) {
			f, err := EncodeFrame(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			b, err := f.Encode()
			if err != nil {
				c.Err(err)
				return
			}
			c.Printf("% x\n", b)
		},
	}

	// StateCmd shows the parser state.
	StateCmd = ishell.Cmd{
		Name: "state",
		Help: "show the parser state",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			c.Printf("%v checksum=%02x\n", s.Decoder.State(), s.Decoder.Checksum())
		},
	}

	// ResetCmd resets the parser.
	ResetCmd = ishell.Cmd{
		Name: "reset",
		Help: "drop a partial frame",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			s.Decoder.Reset()
			s.updatePrompt()
		},
	}

	// StatsCmd shows dispatcher counters.
	StatsCmd = ishell.Cmd{
		Name: "stats",
		Help: "show record counters",
		Func: func(c *ishell.Context) {
			st := &ShellFrom(c).Dispatcher.Stats
			c.Printf("readings=%d errors=%d not-mine=%d unknown=%d\n",
				st.Readings.Load(), st.Errors.Load(), st.NotMine.Load(), st.Unknown.Load())
		},
	}

	// AddrCmd shows or changes the local address.
	AddrCmd = ishell.Cmd{
		Name: "addr",
		Help: "[ADDR] show or set the local node address",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			if len(c.Args) > 0 {
				n, err := strconv.ParseUint(c.Args[0], 0, 8)
				if err != nil {
					c.Err(fmt.Errorf("invalid ADDR: %v", err))
					return
				}
				s.Dispatcher.LocalAddress = byte(n)
				s.updatePrompt()
			}
			c.Println(s.Dispatcher.LocalAddress)
		},
	}
)

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	if localAddr > 0xff {
		log.Fatalf("invalid address %d", localAddr)
	}
	New(byte(localAddr)).Run(flag.Args()...)
}
