package raw

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/raw-labs/machine-prediction-demo/domain/core"
	"github.com/raw-labs/machine-prediction-demo/ports"
)

// Render substitutes :name placeholders with literals built from typed
// parameters. The engine has no bind variables, so values only ever reach
// the query text through this function. A colon preceded by another colon
// or followed by anything other than an identifier (as in ":=") is left
// alone.
func Render(q ports.Query) (string, error) {
	for name, p := range q.Params {
		if err := p.Validate(); err != nil {
			return "", core.NewInvalidParameterError(name, err.Error())
		}
	}

	text := q.Text
	var b strings.Builder
	b.Grow(len(text))

	for i := 0; i < len(text); i++ {
		c := text[i]
		if c != ':' || (i > 0 && text[i-1] == ':') || i+1 >= len(text) || !identStart(text[i+1]) {
			b.WriteByte(c)
			continue
		}
		end := i + 1
		for end < len(text) && identPart(text[end]) {
			end++
		}
		name := text[i+1 : end]
		p, ok := q.Params[name]
		if !ok {
			return "", core.NewInvalidParameterError(name, "has no bound value")
		}
		b.WriteString(literal(p))
		i = end - 1
	}
	return b.String(), nil
}

func literal(p ports.Param) string {
	switch p.Kind {
	case ports.ParamDate:
		return fmt.Sprintf("date %q", p.Date.Format("2006-01-02"))
	case ports.ParamDays:
		return fmt.Sprintf("interval \"%d days\"", p.Int)
	default:
		return strconv.FormatInt(p.Int, 10)
	}
}

func identStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func identPart(c byte) bool {
	return identStart(c) || (c >= '0' && c <= '9')
}
