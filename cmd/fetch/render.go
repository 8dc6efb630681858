package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"cryptoproxy/internal/coingecko"
	"cryptoproxy/internal/format"
)

const descriptionLimit = 300

var faint = color.New(color.Faint).SprintFunc()

func newTable(w io.Writer, headers ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	formatted := make([]string, len(headers))
	for i, hdr := range headers {
		formatted[i] = color.YellowString(hdr)
	}
	table.SetHeader(formatted)
	table.SetCenterSeparator(faint("-"))
	table.SetColumnSeparator(faint("|"))
	table.SetRowSeparator(faint("-"))
	return table
}

func renderTop(w io.Writer, coins []coingecko.CoinSummary) {
	table := newTable(w, "#", "Coin", "Price", "24h", "Market Cap", "Volume")
	for _, c := range coins {
		change := "-"
		if c.PriceChangePercentage24h != nil {
			change = format.Change(*c.PriceChangePercentage24h)
		}
		table.Append([]string{
			rank(c.MarketCapRank),
			fmt.Sprintf("%s (%s)", c.Name, strings.ToUpper(c.Symbol)),
			"$" + format.Currency(c.CurrentPrice, 2),
			change,
			"$" + format.Billions(c.MarketCap, 2) + "B",
			"$" + format.Billions(c.TotalVolume, 2) + "B",
		})
	}
	table.Render()
}

func renderDetail(w io.Writer, c *coingecko.CoinDetail) {
	md := c.MarketData
	fmt.Fprintf(w, "%s (%s)  rank %s\n", color.New(color.Bold).Sprint(c.Name), strings.ToUpper(c.Symbol), rank(c.MarketCapRank))
	fmt.Fprintf(w, "$%s  %s\n\n", format.Currency(md.CurrentPrice["usd"], 2), format.Change(md.PriceChangePercentage24h))

	table := newTable(w, "Stat", "Value")
	table.Append([]string{"Market Cap", "$" + format.Billions(md.MarketCap["usd"], 2) + "B"})
	table.Append([]string{"24h Volume", "$" + format.Billions(md.TotalVolume["usd"], 2) + "B"})
	table.Append([]string{"24h High", "$" + format.Currency(md.High24h["usd"], 2)})
	table.Append([]string{"24h Low", "$" + format.Currency(md.Low24h["usd"], 2)})
	if len(c.Links.Homepage) > 0 && c.Links.Homepage[0] != "" {
		table.Append([]string{"Homepage", c.Links.Homepage[0]})
	}
	table.Render()

	if desc := strings.TrimSpace(c.Description.EN); desc != "" {
		fmt.Fprintf(w, "\n%s\n", truncate(desc, descriptionLimit))
	}
}

func renderSearch(w io.Writer, query string, results []coingecko.SearchResult) {
	if len(results) == 0 {
		fmt.Fprintf(w, "No cryptocurrencies found for %q\n", query)
		return
	}
	fmt.Fprintf(w, "%d result(s) for %q\n", len(results), query)
	table := newTable(w, "Rank", "ID", "Name", "Symbol")
	for _, r := range results {
		table.Append([]string{rank(r.MarketCapRank), r.ID, r.Name, strings.ToUpper(r.Symbol)})
	}
	table.Render()
}

func rank(r *int) string {
	if r == nil {
		return "-"
	}
	return strconv.Itoa(*r)
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
