package commands

import (
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
)

// writeJson writes `value` to the file at `path`, or to stdout when path is
// "-". An indent of 0 writes compact json.
func writeJson(stdout io.Writer, path string, indent int, value any) error {
	var data []byte
	var err error
	if indent > 0 {
		data, err = json.MarshalIndent(value, "", strings.Repeat(" ", indent))
	} else {
		data, err = json.Marshal(value)
	}
	if err != nil {
		return err
	}

	if path == "-" || path == "" {
		_, err = stdout.Write(append(data, '\n'))
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	return t
}

// writeTable renders `t` to the file at `path`, or to stdout when path is "-".
func writeTable(stdout io.Writer, path string, t table.Writer) error {
	rendered := t.Render() + "\n"
	if path == "-" || path == "" {
		_, err := io.WriteString(stdout, rendered)
		return err
	}
	return os.WriteFile(path, []byte(rendered), 0644)
}
