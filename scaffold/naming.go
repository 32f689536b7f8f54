package scaffold

import (
	"regexp"
	"strings"
)

// otherInfoDelimiter separates free text appended to a read ID.
const otherInfoDelimiter = "!"

// MateRead is a read ID split into its paired-read fields.
type MateRead struct {
	ID      string
	Name    string
	Type    string
	Library string
	Forward bool
	// MateID is the ID the other read of the pair carries.
	MateID string
}

// NamingConvention recognises the read IDs of paired reads.
type NamingConvention interface {
	Parse(id string) (MateRead, bool)
}

// StripOtherInfo drops the free text part of a read ID.
func StripOtherInfo(id string) string {
	if i := strings.LastIndex(id, otherInfoDelimiter); i > 0 {
		return id[:i]
	}
	return id
}

var dottedRe = regexp.MustCompile(`^(.*)\.(X1|Y1|F|R|1|2|x1|y1|f|r|a|b|A|B):(.*)$`)

var mateType = map[string]string{
	"X1": "Y1", "Y1": "X1",
	"F": "R", "R": "F",
	"1": "2", "2": "1",
	"x1": "y1", "y1": "x1",
	"f": "r", "r": "f",
	"A": "B", "B": "A",
	"a": "b", "b": "a",
}

func isForwardType(t string) bool {
	switch t {
	case "X1", "F", "1", "x1", "f", "a", "A":
		return true
	}
	return false
}

// DottedNaming matches IDs like "name.X1:lib" where the suffix names the
// strand and lib names the clone library.
type DottedNaming struct{}

func (DottedNaming) Parse(id string) (MateRead, bool) {
	id = StripOtherInfo(id)
	m := dottedRe.FindStringSubmatch(id)
	if m == nil || m[1] == "" {
		return MateRead{}, false
	}
	return MateRead{
		ID:      id,
		Name:    m[1],
		Type:    m[2],
		Library: m[3],
		Forward: isForwardType(m[2]),
		MateID:  m[1] + "." + mateType[m[2]] + ":" + m[3],
	}, true
}

var slashRe = regexp.MustCompile(`^(.*)/([12])$`)

// SlashNaming matches IDs like "name/1" and "name/2". Such reads belong to
// the default library.
type SlashNaming struct{}

func (SlashNaming) Parse(id string) (MateRead, bool) {
	id = StripOtherInfo(id)
	m := slashRe.FindStringSubmatch(id)
	if m == nil || m[1] == "" {
		return MateRead{}, false
	}
	return MateRead{
		ID:      id,
		Name:    m[1],
		Type:    m[2],
		Forward: m[2] == "1",
		MateID:  m[1] + "/" + mateType[m[2]],
	}, true
}

// Namings tries each convention in turn.
type Namings []NamingConvention

func (ns Namings) Parse(id string) (MateRead, bool) {
	for _, n := range ns {
		if m, ok := n.Parse(id); ok {
			return m, true
		}
	}
	return MateRead{}, false
}

// DefaultNaming accepts both the dotted and the slash form.
var DefaultNaming NamingConvention = Namings{DottedNaming{}, SlashNaming{}}
