package logging

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
)

var (
	timeColor      = color.New(color.FgYellow)
	fieldColor     = color.New(color.FgCyan)
	importantColor = color.New(color.FgGreen)
	valueColor     = color.New(color.FgWhite)
)

// ColoredJSONFormatter prints one line per entry: time, level, message and
// then key=value pairs with JSON-encoded values
type ColoredJSONFormatter struct {
	// Include timestamp in the output
	TimestampFormat string
	// Customize field sorting
	SortingFunc func([]string) []string
	// Disable colors when not in terminal
	DisableColors bool
}

func NewColoredJSONFormatter() *ColoredJSONFormatter {
	return &ColoredJSONFormatter{
		TimestampFormat: time.RFC3339,
		SortingFunc:     defaultFieldSorting,
	}
}

func (f *ColoredJSONFormatter) paint(c *color.Color, s string) string {
	if f.DisableColors {
		return s
	}
	return c.Sprint(s)
}

func (f *ColoredJSONFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	keys := make([]string, 0, len(entry.Data))
	for k := range entry.Data {
		keys = append(keys, k)
	}

	if f.SortingFunc != nil {
		keys = f.SortingFunc(keys)
	} else {
		sort.Strings(keys)
	}

	b := entry.Buffer
	if b == nil {
		b = &bytes.Buffer{}
	}

	levelColor := getLevelColor(entry.Level)

	b.WriteString(f.paint(timeColor, entry.Time.Format(f.TimestampFormat)))
	b.WriteByte(' ')
	b.WriteString(f.paint(levelColor, fmt.Sprintf("%-7s", strings.ToUpper(entry.Level.String()))))
	b.WriteByte(' ')
	b.WriteString(f.paint(levelColor, entry.Message))

	for _, k := range keys {
		c := fieldColor
		if isImportantField(k) {
			c = importantColor
		}

		b.WriteByte(' ')
		b.WriteString(f.paint(c, k+"="))
		b.WriteString(f.paint(valueColor, formatValue(entry.Data[k])))
	}

	b.WriteByte('\n')
	return b.Bytes(), nil
}

func formatValue(v interface{}) string {
	switch v := v.(type) {
	case string:
		return fmt.Sprintf("%q", v)
	case error:
		return fmt.Sprintf("%q", v.Error())
	case fmt.Stringer:
		return fmt.Sprintf("%q", v.String())
	default:
		jsonBytes, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(jsonBytes)
	}
}

func getLevelColor(level logrus.Level) *color.Color {
	switch level {
	case logrus.TraceLevel, logrus.DebugLevel:
		return color.New(color.FgBlue)
	case logrus.InfoLevel:
		return color.New(color.FgGreen)
	case logrus.WarnLevel:
		return color.New(color.FgYellow)
	case logrus.ErrorLevel:
		return color.New(color.FgRed)
	case logrus.FatalLevel, logrus.PanicLevel:
		return color.New(color.FgRed, color.Bold)
	default:
		return color.New(color.FgWhite)
	}
}

var priorityFields = map[string]int{
	"request_id": 1,
	"username":   2,
	"user_id":    3,
	"error":      4,
}

func isImportantField(field string) bool {
	_, ok := priorityFields[field]
	return ok
}

func defaultFieldSorting(keys []string) []string {
	sort.Slice(keys, func(i, j int) bool {
		iPriority := priorityFields[keys[i]]
		jPriority := priorityFields[keys[j]]
		if iPriority != 0 && jPriority != 0 {
			return iPriority < jPriority
		}
		if iPriority != 0 {
			return true
		}
		if jPriority != 0 {
			return false
		}
		return keys[i] < keys[j]
	})
	return keys
}
