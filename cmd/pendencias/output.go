package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/rmaia/pendencias-monitor/internal/modules/runner"
)

// printSummary renders the post-run console summary: counters, success rate,
// and the top-5 table.
func printSummary(w io.Writer, summary *runner.RunSummary) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()

	rule := strings.Repeat("=", 60)
	fmt.Fprintf(w, "\n%s\n", rule)
	fmt.Fprintln(w, "RESUMO DA EXECUÇÃO")
	fmt.Fprintf(w, "%s\n", rule)

	fmt.Fprintf(w, "Consultas executadas: %s\n", green(summary.SuccessCount))
	if summary.ErrorCount > 0 {
		fmt.Fprintf(w, "Consultas com erro:   %s\n", red(summary.ErrorCount))
	} else {
		fmt.Fprintf(w, "Consultas com erro:   %d\n", summary.ErrorCount)
	}
	fmt.Fprintf(w, "Taxa de sucesso:      %.1f%%\n", summary.SuccessRate())
	fmt.Fprintf(w, "Total de pendências:  %d\n", summary.TotalCount)
	if summary.Interrupted {
		fmt.Fprintf(w, "%s\n", yellow("Execução interrompida antes do fim."))
	}

	if len(summary.Top) > 0 {
		fmt.Fprintln(w, "\nTOP 5 PENDÊNCIAS COM MAIORES RESULTADOS:")
		if err := printTopTable(w, summary); err != nil {
			fmt.Fprintf(w, "failed to render table: %v\n", err)
		}
	}
}

func printTopTable(w io.Writer, summary *runner.RunSummary) error {
	table := tablewriter.NewWriter(w)
	defer func() { _ = table.Close() }()

	table.Header([]string{"Posição", "ID", "Nome", "Quantidade"})

	data := make([][]string, 0, len(summary.Top))
	for _, entry := range summary.Top {
		data = append(data, []string{
			strconv.Itoa(entry.Position),
			strconv.FormatInt(entry.ID, 10),
			entry.Name,
			strconv.FormatInt(entry.Count, 10),
		})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}
