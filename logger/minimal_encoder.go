package logger

import (
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

const (
	ansiReset = "\x1b[0m"
	ansiBold  = "\x1b[1m"
)

// palette maps display roles to ANSI colors for one theme. Logger names
// rotate through componentCycle so each package keeps a stable color.
type palette struct {
	text      string // plain message text
	timestamp string
	id        string // story/run/entity IDs
	number    string // counts, scores, durations
	stage     string // non-identity bracket markers
	warn      string
	warnBg    string
	err       string
	errBg     string

	componentCycle []string
}

var themes = map[string]palette{
	// Warm, muted, easy on the eyes
	"gruvbox": {
		text:      "\x1b[38;5;223m", // soft cream (#ebdbb2)
		timestamp: "\x1b[38;5;108m", // muted cyan-green (#8ec07c)
		id:        "\x1b[38;5;109m", // soft blue (#83a598)
		number:    "\x1b[38;5;175m", // muted purple (#d3869b)
		stage:     "\x1b[38;5;208m", // warm orange (#fe8019)
		warn:      "\x1b[38;5;214m", // soft yellow (#fabd2f)
		warnBg:    "\x1b[48;5;58m",
		err:       "\x1b[38;5;167m", // warm red (#fb4934)
		errBg:     "\x1b[48;5;88m",
		componentCycle: []string{
			"\x1b[38;5;208m", // orange
			"\x1b[38;5;214m", // yellow
		},
	},
	// Natural forest greens with a strong green presence
	"everforest": {
		text:      "\x1b[38;5;223m", // soft beige (#d3c6aa)
		timestamp: "\x1b[38;5;107m", // mid green (#83c092)
		id:        "\x1b[38;5;109m", // blue-green (#7fbbb3)
		number:    "\x1b[38;5;108m", // bright green (#a7c080)
		stage:     "\x1b[38;5;208m", // warm orange (#e69875)
		warn:      "\x1b[38;5;179m", // soft yellow (#dbbc7f)
		warnBg:    "\x1b[48;5;58m",
		err:       "\x1b[38;5;167m", // warm red (#e67e80)
		errBg:     "\x1b[48;5;52m",
		componentCycle: []string{
			"\x1b[38;5;108m", // bright green
			"\x1b[38;5;65m",  // deep green
			"\x1b[38;5;208m", // orange
		},
	},
}

var (
	currentTheme  = "everforest"
	activePalette = themes["everforest"]
)

// SetTheme switches the console palette. Unknown names keep the
// current theme.
func SetTheme(theme string) {
	if p, ok := themes[theme]; ok {
		currentTheme = theme
		activePalette = p
	}
}

// componentColor picks a stable color per logger name so related lines
// group visually.
func (p palette) componentColor(name string) string {
	sum := 0
	for _, r := range name {
		sum += int(r)
	}
	return p.componentCycle[sum%len(p.componentCycle)]
}

func (p palette) paint(color, s string) string {
	return color + s + ansiReset
}

var bracketPattern = regexp.MustCompile(`\[([^\]]+)\]`)

// colorizeMessage colors bracketed contexts inside a message. Identity
// brackets like [story:story-003] or [run:ab12cd34] get the ID color;
// any other bracket reads as a stage marker.
func colorizeMessage(msg string) string {
	p := activePalette
	var out strings.Builder
	last := 0

	for _, match := range bracketPattern.FindAllStringSubmatchIndex(msg, -1) {
		if before := msg[last:match[0]]; before != "" {
			out.WriteString(p.paint(p.text, before))
		}

		content := msg[match[2]:match[3]]
		color := p.stage
		if strings.HasPrefix(content, "story:") || strings.HasPrefix(content, "run:") {
			color = p.id
		}
		out.WriteString(p.paint(color, msg[match[0]:match[1]]))
		last = match[1]
	}

	if rest := msg[last:]; rest != "" {
		out.WriteString(p.paint(p.text, rest))
	}
	return out.String()
}

// minimalEncoder renders the calm single-line console format:
// "13:04:35  p.refine  Round complete  story-003 (12 nodes, 4 edges)"
type minimalEncoder struct {
	zapcore.Encoder // base encoder handles field serialization
}

func newMinimalEncoder() *minimalEncoder {
	return &minimalEncoder{
		Encoder: zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
	}
}

func (enc *minimalEncoder) Clone() zapcore.Encoder {
	return &minimalEncoder{Encoder: enc.Encoder.Clone()}
}

func (enc *minimalEncoder) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	p := activePalette
	line := buffer.NewPool().Get()

	line.AppendString(p.paint(p.timestamp, ent.Time.Format("15:04:05")))

	// Info lines stay quiet; anything louder gets a bold badge
	if badge := levelBadge(p, ent.Level); badge != "" {
		line.AppendString("  ")
		line.AppendString(badge)
	}

	if ent.LoggerName != "" {
		line.AppendString("  ")
		line.AppendString(p.paint(p.componentColor(ent.LoggerName), abbreviateName(ent.LoggerName)))
	}

	line.AppendString("  ")
	line.AppendString(colorizeMessage(ent.Message))

	if rendered := renderFields(p, fields); rendered != "" {
		line.AppendString("  ")
		line.AppendString(rendered)
	}

	line.AppendString("\n")
	return line, nil
}

func levelBadge(p palette, level zapcore.Level) string {
	switch level {
	case zapcore.WarnLevel:
		return ansiBold + p.warnBg + p.warn + "WARN" + ansiReset
	case zapcore.ErrorLevel, zapcore.DPanicLevel, zapcore.PanicLevel, zapcore.FatalLevel:
		return ansiBold + p.errBg + p.err + level.CapitalString() + ansiReset
	default:
		return ""
	}
}

// abbreviateName shortens dotted logger names: pipeline.gate -> p.gate
func abbreviateName(name string) string {
	parts := strings.SplitN(name, ".", 2)
	if len(parts) == 2 {
		return name[:1] + "." + parts[1]
	}
	return name
}

func fieldValue(field zapcore.Field) string {
	switch field.Type {
	case zapcore.StringType:
		return field.String
	case zapcore.Int64Type, zapcore.Int32Type, zapcore.Int16Type, zapcore.Int8Type,
		zapcore.Uint64Type, zapcore.Uint32Type, zapcore.Uint16Type, zapcore.Uint8Type:
		return fmt.Sprintf("%d", field.Integer)
	}
	if field.Interface != nil {
		return fmt.Sprintf("%v", field.Interface)
	}
	return ""
}

// renderFields pulls the values of the well-known fields into the
// compact trailer. {"story_id": "story-003", "nodes": 19, "edges": 4}
// renders as "story-003 (19 nodes, 4 edges)".
func renderFields(p palette, fields []zapcore.Field) string {
	var parts []string
	var nodes, edges string

	for _, field := range fields {
		val := fieldValue(field)
		if val == "" {
			continue
		}
		switch field.Key {
		case FieldStoryID, FieldRunID, FieldEntityID:
			parts = append(parts, p.paint(p.id, val))
		case FieldNodes:
			nodes = val
		case FieldEdges:
			edges = val
		case FieldRound:
			parts = append(parts, p.text+"round "+p.number+val+ansiReset)
		case FieldScore:
			parts = append(parts, p.paint(p.number, val))
		case FieldDurationMS:
			parts = append(parts, p.paint(p.number, val)+"ms")
		}
	}

	if nodes != "" && edges != "" {
		parts = append(parts, p.text+"("+p.number+nodes+ansiReset+p.text+" nodes, "+
			p.number+edges+ansiReset+p.text+" edges)"+ansiReset)
	}

	return strings.Join(parts, " ")
}
