package jellysync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/keanucz/jellysync/internal/jellyfin"
)

var (
	// DefaultListTypes is what list shows without type flags.
	DefaultListTypes = []jellyfin.ItemType{jellyfin.TypeMovie, jellyfin.TypeSeries}
	// DefaultSearchTypes is what search matches without type flags.
	DefaultSearchTypes = []jellyfin.ItemType{jellyfin.TypeMovie, jellyfin.TypeSeries, jellyfin.TypeEpisode}
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	typeColors  = map[jellyfin.ItemType]lipgloss.Color{
		jellyfin.TypeSeries:  lipgloss.Color("5"),
		jellyfin.TypeEpisode: lipgloss.Color("6"),
		jellyfin.TypeMovie:   lipgloss.Color("2"),
	}
)

// Info prints the raw metadata of an item as indented JSON, or YAML.
func (a *App) Info(ctx context.Context, id string, asYAML bool) error {
	raw, err := a.catalog.GetItemJSON(ctx, id)
	if err != nil {
		return err
	}

	if !asYAML {
		var buf bytes.Buffer
		if err := json.Indent(&buf, raw, "", "  "); err != nil {
			return fmt.Errorf("format item %s: %w", id, err)
		}
		buf.WriteByte('\n')
		_, err := buf.WriteTo(a.opts.Out)
		return err
	}

	// Decoding into a node keeps the server's key order.
	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("convert item %s: %w", id, err)
	}
	blockStyle(&doc)
	enc := yaml.NewEncoder(a.opts.Out)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return err
	}
	return enc.Close()
}

// blockStyle drops the flow and quoting styles JSON input carries.
func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		blockStyle(c)
	}
}

// List shows every item of the given types.
func (a *App) List(ctx context.Context, types []jellyfin.ItemType) error {
	return a.Search(ctx, "", types)
}

// Search prints matching items as a table.
func (a *App) Search(ctx context.Context, query string, types []jellyfin.ItemType) error {
	items, err := a.catalog.SearchItems(ctx, query, types)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Fprintf(a.opts.Out, "No results found for %q\n", query)
		return nil
	}
	fmt.Fprintln(a.opts.Out, renderTable(items))
	return nil
}

func renderTable(items []jellyfin.Item) string {
	rows := lo.Map(items, func(item jellyfin.Item, _ int) []string {
		info := item.ItemInfo()
		year := ""
		if y, ok := info.ProductionYear.Get(); ok {
			year = strconv.Itoa(y)
		}
		return []string{string(info.Type), title(item), year, info.ID}
	})

	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Type", "Title", "Year", "ID").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if row < 0 || row >= len(items) {
				return cellStyle
			}
			if c, ok := typeColors[items[row].ItemInfo().Type]; ok {
				return cellStyle.Foreground(c)
			}
			return cellStyle
		}).
		String()
}

func title(item jellyfin.Item) string {
	if ep, ok := item.(*jellyfin.Episode); ok && ep.SeriesName != "" {
		return fmt.Sprintf("%s (%s)", ep.Name, ep.SeriesName)
	}
	return item.ItemInfo().Name
}
