package notifier

import (
	"fmt"
	"io"
	"strconv"
	"sync"

	"imagemate/internal/core/domain"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/rs/zerolog/log"
)

// Console prints conversion outcomes to a writer.
type Console struct {
	out   io.Writer
	mutex *sync.Mutex
}

func NewConsole(out io.Writer) *Console {
	return &Console{out: out, mutex: &sync.Mutex{}}
}

func (c *Console) Notify(event domain.Event) {
	log.Debug().
		Str("from", event.From.String()).
		Str("to", event.To.String()).
		Str("name", event.FileName).
		Msg("conversion event")

	var msg string
	switch event.To {
	case domain.Converting:
		msg = fmt.Sprintf("Converting %s...\n", event.FileName)
	case domain.Converted:
		if event.Result == nil {
			return
		}
		msg = RenderResult(event.FileName, *event.Result) + "\n"
	case domain.Failed:
		msg = "Error: " + domain.UserMessage(event.Err) + "\n"
	default:
		return
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()
	if _, err := io.WriteString(c.out, msg); err != nil {
		log.Warn().Err(err).Msg("could not write to console")
	}
}

// RenderResult tabulates a finished conversion. Savings are only listed when the result is smaller.
func RenderResult(name string, result domain.ConversionResult) string {
	rows := [][]string{
		{"Source", name},
		{"Format", string(result.Format)},
		{"Original size", humanize.IBytes(uint64(result.OriginalSize))},
		{"Converted size", humanize.IBytes(uint64(result.Size))},
	}
	if pct, ok := result.Savings(); ok {
		rows = append(rows, []string{"Savings", strconv.Itoa(pct) + "%"})
	}

	return renderTable([]string{"Field", "Value"}, rows)
}

// RenderVersions tabulates the client version next to the engine components.
func RenderVersions(client string, info domain.VersionInfo) string {
	return renderTable([]string{"Component", "Version"}, [][]string{
		{"imagemate", client},
		{"imaginary", info.Imaginary},
		{"bimg", info.Bimg},
		{"libvips", info.Libvips},
	})
}

func renderTable(headers []string, rows [][]string) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, len(headers))
		for i := range headers {
			if i < len(row) {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft},
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})

	return tw.Render()
}
