package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/trebuchet-org/xfactory/internal/domain"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	labelStyle   = color.New(color.Faint)
	addressStyle = color.New(color.FgWhite, color.Bold)
	hashStyle    = color.New(color.FgWhite)
	headerStyle  = color.New(color.Bold, color.FgHiWhite)
	okStyle      = color.New(color.FgGreen)
	failStyle    = color.New(color.FgRed)
	warnStyle    = color.New(color.FgYellow)
	chainStyle   = color.New(color.FgBlue)
)

// FormatWarning formats a warning message with the warning icon
func FormatWarning(message string) string {
	return warnStyle.Sprintf("⚠️  %s", message)
}

// FormatError formats an error message with the error icon. Factory errors
// keep their kind, emitter and stage, other error chains are reduced to the
// innermost message.
func FormatError(err error) string {
	if fe, ok := domain.AsFactoryError(err); ok {
		return failStyle.Sprintf("❌ %s", DescribeFactoryError(fe))
	}

	parts := strings.Split(err.Error(), ": ")
	msg := parts[len(parts)-1]

	// Capitalize first letter
	if len(msg) > 0 {
		msg = strings.ToUpper(msg[:1]) + msg[1:]
	}

	return failStyle.Sprintf("❌ %s", msg)
}

// FormatSuccess formats a success message with the success icon
func FormatSuccess(message string) string {
	return okStyle.Sprintf("✅ %s", message)
}

// DescribeFactoryError renders "Kind (class) emitted by 0x.. at stage"
func DescribeFactoryError(fe *domain.FactoryError) string {
	class := cases.Title(language.English).String(strings.ReplaceAll(string(fe.Kind.Class()), "-", " "))
	msg := fmt.Sprintf("%s (%s) emitted by %s", fe.Kind, class, fe.Emitter.Hex())
	if fe.Stage != "" {
		msg += " at " + string(fe.Stage)
	}
	if len(fe.RevertData) > 0 {
		msg += fmt.Sprintf(", revert data 0x%x", fe.RevertData)
	}
	return msg
}

// title capitalizes each word
func title(s string) string {
	return cases.Title(language.English).String(s)
}

// field writes an aligned "label: value" line
func field(out io.Writer, label string, value string) {
	fmt.Fprintf(out, "  %s %s\n", labelStyle.Sprintf("%-15s", label+":"), value)
}

// WriteJSON writes v as indented JSON
func WriteJSON(out io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}
