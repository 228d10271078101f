package pitstop

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/robotalks/openrover.go/pkg/l0/comm"
)

// Setting is a persistent firmware setting to apply.
type Setting struct {
	Verb  comm.Verb
	Value byte
}

func (s Setting) String() string {
	return fmt.Sprintf("%d:%d", byte(s.Verb), s.Value)
}

// ParseSetting parses k:v where k is one of comm.SettingsVerbs and v is 0..255.
func ParseSetting(s string) (Setting, error) {
	items := strings.SplitN(s, ":", 2)
	if len(items) != 2 {
		return Setting{}, fmt.Errorf("invalid setting %q: expect k:v", s)
	}
	k, err := strconv.Atoi(strings.TrimSpace(items[0]))
	if err != nil || k < 0 || k > 0xff || !comm.Verb(k).IsSetting() {
		return Setting{}, fmt.Errorf("invalid setting %q: k must be one of %s", s, SettingsHelp())
	}
	v, err := strconv.Atoi(strings.TrimSpace(items[1]))
	if err != nil || v < 0 || v > 0xff {
		return Setting{}, fmt.Errorf("invalid setting %q: v must be 0-255", s)
	}
	return Setting{Verb: comm.Verb(k), Value: byte(v)}, nil
}

// SettingsHelp lists the setting keys.
func SettingsHelp() string {
	names := make([]string, 0, len(comm.SettingsVerbs))
	for _, verb := range comm.SettingsVerbs {
		names = append(names, fmt.Sprintf("%d=%s", byte(verb), verb))
	}
	return strings.Join(names, ", ")
}

// Settings implements flag.Value. The flag can be repeated and each value
// may contain multiple comma or space separated k:v pairs.
type Settings []Setting

func (s *Settings) String() string {
	if s == nil {
		return ""
	}
	items := make([]string, 0, len(*s))
	for _, setting := range *s {
		items = append(items, setting.String())
	}
	return strings.Join(items, ",")
}

// Set implements flag.Value.
func (s *Settings) Set(val string) error {
	for _, item := range strings.FieldsFunc(val, func(r rune) bool {
		return r == ',' || r == ' '
	}) {
		setting, err := ParseSetting(item)
		if err != nil {
			return err
		}
		*s = append(*s, setting)
	}
	return nil
}
