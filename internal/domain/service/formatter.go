package service

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"misttrack-mcp-server/internal/domain/entity"
)

const (
	reportWidth       = 80
	maxDisplayedTxs   = 3
	maxDisplayedPaths = 5
	reportTimeLayout  = "2006-01-02 15:04:05"
)

// FormatReport renders an analysis report as plain text
func FormatReport(report *entity.AnalysisReport, generatedAt time.Time) string {
	heavy := strings.Repeat("=", reportWidth)
	light := strings.Repeat("-", reportWidth)

	var lines []string
	add := func(l ...string) { lines = append(lines, l...) }
	section := func(title string) { add(light, title, light) }

	add(heavy, "Multi-Layer Transaction Analysis Report", heavy, "")

	if report.Error {
		message := report.Message
		if message == "" {
			message = "Unknown error"
		}
		add("Analysis failed: "+message, "")
		add(heavy, "Report generation time: "+generatedAt.UTC().Format(reportTimeLayout), heavy)
		return strings.Join(lines, "\n")
	}

	add("Root address: "+report.RootAddress,
		"Coin: "+report.Coin,
		fmt.Sprintf("Total addresses analyzed: %d", report.TotalAddresses))
	if report.EarlyStopped {
		add("Analysis stopped early: exchange address reached")
	}
	add("")

	section("【Depth Statistics】")
	for _, depth := range sortedDepths(report.DepthStatistics) {
		add(fmt.Sprintf("Layer %d address count: %d", depth, report.DepthStatistics[depth]))
	}
	add("")

	section("【Labeled Addresses by Layer】")
	for _, depth := range sortedLabeledDepths(report.LabeledAddressesByDepth) {
		addresses := report.LabeledAddressesByDepth[depth]
		if len(addresses) == 0 {
			continue
		}
		add(fmt.Sprintf("Layer %d labeled addresses:", depth))
		for _, la := range addresses {
			add("  Address: "+la.Address, "  Label: "+la.Label, "")
		}
	}
	add("")

	section("【Important Addresses】")
	if len(report.ImportantAddresses) == 0 {
		add("No important addresses found", "")
	}
	for _, ia := range report.ImportantAddresses {
		add("Address: "+ia.Address,
			"Label: "+ia.Label,
			"Category: "+string(ia.Category),
			fmt.Sprintf("Depth: %d", ia.Depth),
			"Direction: "+string(ia.Direction),
			fmt.Sprintf("Amount: %s %s", formatAmount(ia.Amount), report.Coin))

		shown := ia.TxHashes
		if len(shown) > maxDisplayedTxs {
			shown = shown[:maxDisplayedTxs]
		}
		add("Transaction hashes: " + strings.Join(shown, ", "))
		if len(ia.TxHashes) > maxDisplayedTxs {
			add(fmt.Sprintf("  ... total of %d transactions", len(ia.TxHashes)))
		}
		add("")
	}

	section("【Label Statistics】")
	for _, label := range sortedLabels(report.LabelStatistics) {
		add(fmt.Sprintf("%s: %d occurrences", label, report.LabelStatistics[label]))
	}
	add("")

	section("【Traceable Fund Flow Paths】")
	if len(report.FundFlowPaths) == 0 {
		add("No traceable fund flow paths found", "")
	}
	for i, path := range report.FundFlowPaths {
		if i == maxDisplayedPaths {
			break
		}
		add(fmt.Sprintf("Path %d:", i+1))
		for _, step := range path {
			arrow := "←"
			if step.Direction == entity.DirectionOut {
				arrow = "→"
			}
			add(fmt.Sprintf("  %s %s %s", step.From, arrow, step.To),
				fmt.Sprintf("    Amount: %s %s", formatAmount(step.Amount), report.Coin))
			if step.Label != "" {
				add("    Label: " + step.Label)
			}
		}
		add("")
	}
	if len(report.FundFlowPaths) > maxDisplayedPaths {
		add(fmt.Sprintf("... total of %d paths", len(report.FundFlowPaths)))
	}

	add(heavy, "Report generation time: "+generatedAt.UTC().Format(reportTimeLayout), heavy)
	return strings.Join(lines, "\n")
}

func formatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', -1, 64)
}

func sortedDepths(stats map[int]int) []int {
	depths := make([]int, 0, len(stats))
	for depth := range stats {
		depths = append(depths, depth)
	}
	sort.Ints(depths)
	return depths
}

func sortedLabeledDepths(byDepth map[int][]entity.LabeledAddress) []int {
	depths := make([]int, 0, len(byDepth))
	for depth := range byDepth {
		depths = append(depths, depth)
	}
	sort.Ints(depths)
	return depths
}

// sortedLabels orders labels by count descending, then alphabetically
func sortedLabels(stats map[string]int) []string {
	labels := make([]string, 0, len(stats))
	for label := range stats {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool {
		if stats[labels[i]] != stats[labels[j]] {
			return stats[labels[i]] > stats[labels[j]]
		}
		return labels[i] < labels[j]
	})
	return labels
}
