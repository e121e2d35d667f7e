package trends

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// reportTopLimit is how many entries each ranking section carries.
const reportTopLimit = 10

// Report compares the snapshots of two dates and renders the comparative
// report. The text is returned and also written to the output directory;
// only the load steps can fail, a file-write problem is logged and absorbed.
func (s *Service) Report(olderDate, newerDate time.Time) (string, error) {
	older, err := s.LoadByDate(olderDate)
	if err != nil {
		return "", fmt.Errorf("failed to load older snapshot: %w", err)
	}
	newer, err := s.LoadByDate(newerDate)
	if err != nil {
		return "", fmt.Errorf("failed to load newer snapshot: %w", err)
	}

	comparisons := s.Compare(older, newer)
	if len(comparisons) == 0 {
		return "", fmt.Errorf("no comparable pendências between %s and %s",
			olderDate.Format("2006-01-02"), newerDate.Format("2006-01-02"))
	}

	text := renderReport(comparisons, olderDate, newerDate)

	filename := fmt.Sprintf("relatorio_comparativo_%s.txt", s.now().Format("20060102_150405"))
	path := filepath.Join(s.outputDir, filename)
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		s.log.Error().Err(err).Str("file", filename).Msg("Failed to save report")
	} else {
		s.log.Info().Str("file", filename).Msg("Report saved")
	}

	return text, nil
}

// ReportYesterdayToday renders the default comparison: yesterday against
// today.
func (s *Service) ReportYesterdayToday() (string, error) {
	today := s.now()
	yesterday := today.AddDate(0, 0, -1)
	return s.Report(yesterday, today)
}

func renderReport(comparisons []Comparison, olderDate, newerDate time.Time) string {
	var b strings.Builder
	rule := strings.Repeat("=", 80)
	thinRule := strings.Repeat("-", 80)

	var reductions, increases, unchanged int
	var savings float64
	for _, c := range comparisons {
		switch {
		case c.Delta > 0:
			reductions++
		case c.Delta < 0:
			increases++
		default:
			unchanged++
		}
		if c.IsMonetary && c.Delta > 0 {
			savings += c.DeltaValue
		}
	}

	fmt.Fprintf(&b, "%s\n", rule)
	fmt.Fprintf(&b, "RELATÓRIO COMPARATIVO DE PENDÊNCIAS\n")
	fmt.Fprintf(&b, "%s\n", rule)
	fmt.Fprintf(&b, "Período: %s -> %s\n", olderDate.Format("02/01/2006"), newerDate.Format("02/01/2006"))
	fmt.Fprintf(&b, "Total de consultas analisadas: %d\n\n", len(comparisons))

	fmt.Fprintf(&b, "RESUMO GERAL:\n")
	fmt.Fprintf(&b, "  Reduções: %d\n", reductions)
	fmt.Fprintf(&b, "  Aumentos: %d\n", increases)
	fmt.Fprintf(&b, "  Inalteradas: %d\n", unchanged)
	if savings > 0 {
		fmt.Fprintf(&b, "  Economia monetária total: R$ %s\n", formatMoney(savings))
	}
	b.WriteString("\n")

	writeRankingSection(&b, "TOP 10 - MAIORES REDUÇÕES (Valores Absolutos):",
		thinRule, TopReductions(comparisons, reportTopLimit))
	writeRankingSection(&b, "TOP 10 - MAIORES REDUÇÕES (Percentuais):",
		thinRule, TopPercentReductions(comparisons, reportTopLimit))

	fmt.Fprintf(&b, "%s\n", rule)

	return b.String()
}

func writeRankingSection(b *strings.Builder, title, rule string, entries []Comparison) {
	if len(entries) == 0 {
		return
	}

	fmt.Fprintf(b, "%s\n", title)
	fmt.Fprintf(b, "%s\n", rule)
	for i, c := range entries {
		fmt.Fprintf(b, "%2d. %s\n", i+1, truncateName(c.Name, 50))
		if c.IsMonetary {
			fmt.Fprintf(b, "    De: R$ %s -> Para: R$ %s\n",
				formatMoney(c.PreviousValue), formatMoney(c.CurrentValue))
			fmt.Fprintf(b, "    Economia: R$ %s (%.1f%%)\n",
				formatMoney(c.DeltaValue), c.PercentReduction)
		} else {
			fmt.Fprintf(b, "    De: %s -> Para: %s\n",
				formatCount(c.PreviousCount), formatCount(c.CurrentCount))
			fmt.Fprintf(b, "    Redução: %s (%.1f%%)\n",
				formatCount(c.Delta), c.PercentReduction)
		}
		b.WriteString("\n")
	}
}

func truncateName(name string, limit int) string {
	runes := []rune(name)
	if len(runes) <= limit {
		return name
	}
	return string(runes[:limit])
}

// formatCount renders an integer with thousands separators (1,234,567).
func formatCount(n int64) string {
	negative := n < 0
	if negative {
		n = -n
	}

	digits := strconv.FormatInt(n, 10)
	var parts []string
	for len(digits) > 3 {
		parts = append([]string{digits[len(digits)-3:]}, parts...)
		digits = digits[:len(digits)-3]
	}
	parts = append([]string{digits}, parts...)

	out := strings.Join(parts, ",")
	if negative {
		out = "-" + out
	}
	return out
}

// formatMoney renders a monetary amount with grouped thousands and two
// decimals (1,234.50).
func formatMoney(v float64) string {
	negative := v < 0
	if negative {
		v = -v
	}

	whole := int64(v)
	cents := int64((v-float64(whole))*100 + 0.5)
	if cents >= 100 {
		whole++
		cents -= 100
	}

	out := fmt.Sprintf("%s.%02d", formatCount(whole), cents)
	if negative {
		out = "-" + out
	}
	return out
}
