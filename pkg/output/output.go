// Package output renders variations in the formats the CLI supports.
package output

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/polisai/statvar/pkg/domain"
)

// Format names accepted by Write.
const (
	FormatText = "text"
	FormatCSV  = "csv"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Write renders vars to w in the named format.
func Write(w io.Writer, format string, vars []domain.Stats) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatText, "":
		return writeText(w, vars)
	case FormatCSV:
		return writeCSV(w, vars)
	case FormatJSON:
		return writeJSON(w, vars)
	case FormatYAML:
		return writeYAML(w, vars)
	default:
		return fmt.Errorf("%w: unsupported output format %q", domain.ErrConfigInvalid, format)
	}
}

func writeText(w io.Writer, vars []domain.Stats) error {
	bw := bufio.NewWriter(w)
	for _, v := range vars {
		for i, x := range v {
			if i > 0 {
				bw.WriteByte(' ')
			}
			bw.WriteString(strconv.Itoa(x))
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

func writeCSV(w io.Writer, vars []domain.Stats) error {
	cw := csv.NewWriter(w)
	header := make([]string, domain.SlotCount)
	for i := range header {
		header[i] = "s" + strconv.Itoa(i)
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	row := make([]string, domain.SlotCount)
	for _, v := range vars {
		for i, x := range v {
			row[i] = strconv.Itoa(x)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeJSON(w io.Writer, vars []domain.Stats) error {
	if vars == nil {
		vars = []domain.Stats{}
	}
	return json.NewEncoder(w).Encode(vars)
}

// writeYAML emits one flow-style sequence per variation, e.g. "- [0, 0, 0, 0, 5]".
func writeYAML(w io.Writer, vars []domain.Stats) error {
	root := &yaml.Node{Kind: yaml.SequenceNode}
	if len(vars) == 0 {
		root.Style = yaml.FlowStyle
	}
	for _, v := range vars {
		seq := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
		for _, x := range v {
			seq.Content = append(seq.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.Itoa(x)})
		}
		root.Content = append(root.Content, seq)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return err
	}
	return enc.Close()
}
