package sh

import (
	"bytes"
	"context"
	"fmt"
	"strconv"

	"github.com/robotalks/openrover.go/pkg/device"
	"github.com/robotalks/openrover.go/pkg/l0/data"
)

type command struct {
	name      string
	aliases   []string
	help      string
	connected bool
	fn        func(s *Shell, args []string) error
}

var commands = []*command{
	{name: "connect", aliases: []string{"c"}, help: "[PATH] connect the rover, detect the device if PATH is omitted", fn: cmdConnect},
	{name: "disconnect", aliases: []string{"d"}, help: "stop the motors and disconnect", fn: cmdDisconnect},
	{name: "devices", help: "list possible rover devices", fn: cmdDevices},
	{name: "elements", help: "list data elements", fn: cmdElements},
	{name: "speed", aliases: []string{"s"}, help: "LEFT RIGHT [FLIPPER] set motor speeds in [-1, 1]", connected: true, fn: cmdSpeed},
	{name: "stop", help: "stop all motors", connected: true, fn: cmdStop},
	{name: "fan", help: "FRACTION set fan speed in [0, 1]", connected: true, fn: cmdFan},
	{name: "calibrate", help: "calibrate the flipper", connected: true, fn: cmdCalibrate},
	{name: "get", aliases: []string{"g"}, help: "INDEX... read data elements", connected: true, fn: cmdGet},
	{name: "version", aliases: []string{"v"}, help: "read the firmware version", connected: true, fn: cmdVersion},
}

func findCommand(name string) *command {
	for _, cmd := range commands {
		if cmd.name == name {
			return cmd
		}
		for _, alias := range cmd.aliases {
			if alias == name {
				return cmd
			}
		}
	}
	return nil
}

// ElementInfo is the output of elements and get.
type ElementInfo struct {
	Index  int      `json:"index"`
	Name   string   `json:"name,omitempty"`
	Type   string   `json:"type,omitempty"`
	Value  string   `json:"value,omitempty"`
	Number *float64 `json:"number,omitempty"`
}

func cmdConnect(s *Shell, args []string) error {
	var path string
	if len(args) > 0 {
		path = args[0]
	}
	if err := s.Connect(path); err != nil {
		return err
	}
	return s.output(map[string]string{"connected": s.Conn.Path}, "connected "+s.Conn.Path)
}

func cmdDisconnect(s *Shell, args []string) error {
	s.Disconnect()
	return nil
}

func cmdDevices(s *Shell, args []string) error {
	paths, err := device.FindPaths()
	if err != nil {
		return err
	}
	if paths == nil {
		paths = []string{}
	}
	var w bytes.Buffer
	for _, path := range paths {
		fmt.Fprintln(&w, path)
	}
	if len(paths) == 0 {
		fmt.Fprintln(&w, "no devices found")
	}
	return s.output(paths, w.String())
}

func cmdElements(s *Shell, args []string) error {
	registry := s.registry()
	var infos []ElementInfo
	var w bytes.Buffer
	for _, index := range registry.Indices() {
		elem, _ := registry.Lookup(index)
		infos = append(infos, ElementInfo{Index: index, Name: elem.Name, Type: elem.Format.Type.String()})
		fmt.Fprintf(&w, "%3d %-36s %s\n", index, elem.Name, elem.Format.Type)
	}
	return s.output(infos, w.String())
}

func cmdSpeed(s *Shell, args []string) error {
	if len(args) < 2 || len(args) > 3 {
		return fmt.Errorf("usage: speed LEFT RIGHT [FLIPPER]")
	}
	speeds := make([]float64, 3)
	for n, arg := range args {
		v, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return fmt.Errorf("invalid speed %q", arg)
		}
		speeds[n] = v
	}
	r := s.Conn.Rover
	if err := r.SetMotorSpeeds(speeds[0], speeds[1], speeds[2]); err != nil {
		return err
	}
	return r.SendSpeed()
}

func cmdStop(s *Shell, args []string) error {
	return cmdSpeed(s, []string{"0", "0", "0"})
}

func cmdFan(s *Shell, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: fan FRACTION")
	}
	v, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return fmt.Errorf("invalid fan speed %q", args[0])
	}
	return s.Conn.Rover.SetFanSpeed(v)
}

func cmdCalibrate(s *Shell, args []string) error {
	return s.Conn.Rover.FlipperCalibrate()
}

func cmdGet(s *Shell, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: get INDEX...")
	}
	indices := make([]int, 0, len(args))
	for _, arg := range args {
		index, err := strconv.Atoi(arg)
		if err != nil {
			return fmt.Errorf("invalid index %q", arg)
		}
		indices = append(indices, index)
	}
	values, err := s.Conn.Rover.GetDataItems(context.Background(), indices)
	if err != nil {
		return err
	}
	registry := s.registry()
	infos := make([]ElementInfo, 0, len(values))
	var w bytes.Buffer
	for _, index := range indices {
		val, ok := values[index]
		if !ok {
			continue
		}
		delete(values, index)
		info := ElementInfo{Index: index, Value: val.String()}
		if elem, ok := registry.Lookup(index); ok {
			info.Name = elem.Name
		}
		if num, ok := val.(data.Numeric); ok {
			f := num.Float()
			info.Number = &f
		}
		infos = append(infos, info)
		fmt.Fprintf(&w, "%3d %-36s %s\n", index, info.Name, info.Value)
	}
	return s.output(infos, w.String())
}

func cmdVersion(s *Shell, args []string) error {
	v, err := s.Conn.Rover.Version(context.Background())
	if err != nil {
		return err
	}
	return s.output(map[string]string{"version": v.String()}, v.String())
}

func (s *Shell) registry() *data.Registry {
	if s.Conn != nil {
		if ch := s.Conn.Rover.Channel(); ch != nil {
			return ch.Registry()
		}
	}
	return data.Default()
}
