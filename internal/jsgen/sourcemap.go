package jsgen

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"fortio.org/safecast"
)

// SourceMap is a version 3 source map.
type SourceMap struct {
	Version        int      `json:"version"`
	File           string   `json:"file"`
	SourceRoot     string   `json:"sourceRoot,omitempty"`
	Sources        []string `json:"sources"`
	SourcesContent []string `json:"sourcesContent,omitempty"`
	Names          []string `json:"names"`
	Mappings       string   `json:"mappings"`
}

// Mapping relates a generated position to a source position. Lines and
// columns are zero-based; Name is an index into the names table or -1.
type Mapping struct {
	GenLine, GenCol int
	Source          int
	SrcLine, SrcCol int
	Name            int
}

// MapMode selects how a source map is delivered.
type MapMode uint8

const (
	MapNone     MapMode = iota
	MapExternal         // a .map file and a trailing sourceMappingURL comment
	MapInline           // a base64 data URL in the trailing comment
	MapBoth             // an inline comment and a .map file
)

func (m MapMode) String() string {
	switch m {
	case MapExternal:
		return "external"
	case MapInline:
		return "inline"
	case MapBoth:
		return "both"
	}
	return "none"
}

// ParseMapMode parses a --source-maps value. A bare flag means external.
func ParseMapMode(s string) (MapMode, error) {
	switch strings.ToLower(s) {
	case "", "none", "false", "off":
		return MapNone, nil
	case "true", "external", "on":
		return MapExternal, nil
	case "inline":
		return MapInline, nil
	case "both":
		return MapBoth, nil
	}
	return MapNone, fmt.Errorf("invalid source map mode %q (want external, inline or both)", s)
}

// external reports whether the mode writes a .map file.
func (m MapMode) external() bool { return m == MapExternal || m == MapBoth }

// NewSourceMap returns a map for file with a single source. Content is
// embedded in sourcesContent when non-empty.
func NewSourceMap(file, source, content string) *SourceMap {
	sm := &SourceMap{
		Version: 3,
		File:    file,
		Sources: []string{source},
		Names:   []string{},
	}
	if content != "" {
		sm.SourcesContent = []string{content}
	}
	return sm
}

// SetMappings encodes list, which is sorted in place by generated
// position.
func (sm *SourceMap) SetMappings(list []Mapping) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].GenLine != list[j].GenLine {
			return list[i].GenLine < list[j].GenLine
		}
		return list[i].GenCol < list[j].GenCol
	})
	sm.Mappings = EncodeMappings(list)
}

// name returns the index of s in the names table, adding it if needed.
func (sm *SourceMap) name(s string, index map[string]int) int {
	if i, ok := index[s]; ok {
		return i
	}
	i := len(sm.Names)
	sm.Names = append(sm.Names, s)
	index[s] = i
	return i
}

// JSON returns the encoded map.
func (sm *SourceMap) JSON() ([]byte, error) {
	return json.Marshal(sm)
}

// DataURL returns the map as a base64 data URL.
func (sm *SourceMap) DataURL() (string, error) {
	data, err := sm.JSON()
	if err != nil {
		return "", err
	}
	return "data:application/json;charset=utf-8;base64," + base64.StdEncoding.EncodeToString(data), nil
}

// ParseSourceMap decodes a version 3 source map.
func ParseSourceMap(data []byte) (*SourceMap, error) {
	var sm SourceMap
	if err := json.Unmarshal(data, &sm); err != nil {
		return nil, fmt.Errorf("source map: %w", err)
	}
	if sm.Version != 3 {
		return nil, fmt.Errorf("source map: unsupported version %d", sm.Version)
	}
	if _, err := DecodeMappings(sm.Mappings); err != nil {
		return nil, err
	}
	return &sm, nil
}

// ----------------------------------------------------------------------------
// VLQ

const vlqAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

var vlqIndex = func() [128]int8 {
	var idx [128]int8
	for i := range idx {
		idx[i] = -1
	}
	for i := 0; i < len(vlqAlphabet); i++ {
		idx[vlqAlphabet[i]] = int8(i)
	}
	return idx
}()

func appendVLQ(b []byte, v int) []byte {
	u := v << 1
	if v < 0 {
		u = (-v)<<1 | 1
	}
	for {
		digit := u & 0x1f
		u >>= 5
		if u > 0 {
			digit |= 0x20
		}
		b = append(b, vlqAlphabet[digit])
		if u == 0 {
			return b
		}
	}
}

// EncodeMappings encodes list, sorted by generated position, as a
// mappings string.
func EncodeMappings(list []Mapping) string {
	var b []byte
	line := 0
	var prevCol, prevSrc, prevSrcLine, prevSrcCol, prevName int
	first := true
	for _, m := range list {
		for line < m.GenLine {
			b = append(b, ';')
			line++
			prevCol = 0
			first = true
		}
		if !first {
			b = append(b, ',')
		}
		first = false
		b = appendVLQ(b, m.GenCol-prevCol)
		b = appendVLQ(b, m.Source-prevSrc)
		b = appendVLQ(b, m.SrcLine-prevSrcLine)
		b = appendVLQ(b, m.SrcCol-prevSrcCol)
		prevCol, prevSrc, prevSrcLine, prevSrcCol = m.GenCol, m.Source, m.SrcLine, m.SrcCol
		if m.Name >= 0 {
			b = appendVLQ(b, m.Name-prevName)
			prevName = m.Name
		}
	}
	return string(b)
}

// DecodeMappings parses a mappings string. Segments with a single field
// carry no source position and are skipped.
func DecodeMappings(s string) ([]Mapping, error) {
	var out []Mapping
	var prevSrc, prevSrcLine, prevSrcCol, prevName int
	for line, group := range strings.Split(s, ";") {
		prevCol := 0
		if group == "" {
			continue
		}
		for _, seg := range strings.Split(group, ",") {
			fields, err := decodeSegment(seg)
			if err != nil {
				return nil, fmt.Errorf("source map: line %d: %w", line+1, err)
			}
			switch len(fields) {
			case 1:
				prevCol += fields[0]
				continue
			case 4, 5:
			default:
				return nil, fmt.Errorf("source map: line %d: segment %q has %d fields", line+1, seg, len(fields))
			}
			prevCol += fields[0]
			prevSrc += fields[1]
			prevSrcLine += fields[2]
			prevSrcCol += fields[3]
			m := Mapping{GenLine: line, GenCol: prevCol, Source: prevSrc, SrcLine: prevSrcLine, SrcCol: prevSrcCol, Name: -1}
			if len(fields) == 5 {
				prevName += fields[4]
				m.Name = prevName
			}
			out = append(out, m)
		}
	}
	return out, nil
}

func decodeSegment(seg string) ([]int, error) {
	var fields []int
	shift, value := 0, 0
	for i := 0; i < len(seg); i++ {
		c := seg[i]
		if c >= 128 || vlqIndex[c] < 0 {
			return nil, fmt.Errorf("invalid base64 digit %q", c)
		}
		digit := int(vlqIndex[c])
		value |= (digit & 0x1f) << shift
		if digit&0x20 != 0 {
			shift += 5
			if shift > 30 {
				return nil, fmt.Errorf("segment %q overflows", seg)
			}
			continue
		}
		v := value >> 1
		if value&1 != 0 {
			v = -v
		}
		if _, err := safecast.Convert[int32](v); err != nil {
			return nil, fmt.Errorf("segment %q: %w", seg, err)
		}
		fields = append(fields, v)
		shift, value = 0, 0
	}
	if shift != 0 {
		return nil, fmt.Errorf("segment %q is truncated", seg)
	}
	return fields, nil
}
