package report

import (
	"fmt"
	"math"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"gobias/app"
	"gobias/domain/stats"
)

// Markdown renders a human-readable report for one analysis run. The
// core computes; this layer only formats.
func Markdown(rep *app.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Bias analysis %s\n\n", rep.RunID)
	fmt.Fprintf(&b, "Mode: `%s`  \n", rep.Inputs.Mode)
	fmt.Fprintf(&b, "Groups: `%s` (exposed) vs `%s` (unexposed) on `%s`  \n",
		rep.Inputs.Exposed, rep.Inputs.Unexposed, rep.Inputs.GroupCol)
	fmt.Fprintf(&b, "Outcome: `%s`, alpha %.3g, rows used %d of %d\n\n",
		rep.Inputs.OutcomeCol, rep.Inputs.Alpha, rep.Inputs.NCohort, rep.Inputs.NFiltered)

	if rep.Table != nil {
		b.WriteString("## Contingency table\n\n")
		b.WriteString("| | event | no event |\n|---|---|---|\n")
		fmt.Fprintf(&b, "| exposed | %d | %d |\n", rep.Table.A, rep.Table.B)
		fmt.Fprintf(&b, "| unexposed | %d | %d |\n\n", rep.Table.C, rep.Table.D)
	}

	if rep.Metrics != nil {
		b.WriteString("## Metrics\n\n")
		b.WriteString("| metric | estimate | ci low | ci high |\n|---|---|---|---|\n")
		writeRatioRow(&b, "odds ratio", rep.Metrics.OddsRatio.Estimate, rep.Metrics.OddsRatio.CILow, rep.Metrics.OddsRatio.CIHigh)
		writeRatioRow(&b, "relative risk", rep.Metrics.RelativeRisk.Estimate, rep.Metrics.RelativeRisk.CILow, rep.Metrics.RelativeRisk.CIHigh)
		fmt.Fprintf(&b, "\nChi-square: %s (p=%s, df=%d, yates=%t)\n",
			scalar(rep.Metrics.ChiSquare.Statistic), scalar(rep.Metrics.ChiSquare.PValue),
			rep.Metrics.ChiSquare.DF, rep.Metrics.ChiSquare.Yates)
		if cc := rep.Metrics.OddsRatio.ContinuityCorrection; cc != nil {
			fmt.Fprintf(&b, "\nContinuity correction applied: %g\n", *cc)
		}
	}

	if rep.Fit != nil {
		b.WriteString("## Logistic model\n\n")
		if rep.Fit.Regularized {
			b.WriteString("Fit used L1 regularization after separation; intervals and p-values are undefined.\n\n")
		}
		b.WriteString("| term | coef | odds ratio | ci low | ci high | p |\n|---|---|---|---|---|---|\n")
		for _, t := range rep.Fit.Terms {
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s |\n",
				t.Term, scalar(t.Coef), scalar(t.OddsRatio), scalar(t.CILow), scalar(t.CIHigh), scalar(t.PValue))
		}
		fmt.Fprintf(&b, "\nRows: %d used, %d dropped (drop policy %s)\n",
			rep.Fit.Meta.NUsed, rep.Fit.Meta.NDropped, rep.Fit.Meta.DropMissing)
	}

	return b.String()
}

// RenderHTML converts a markdown report to HTML for the API.
func RenderHTML(md string) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.NoEmptyLineBeforeBlock)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	return markdown.ToHTML([]byte(md), p, renderer)
}

func writeRatioRow(b *strings.Builder, name string, est, lo, hi stats.Scalar) {
	fmt.Fprintf(b, "| %s | %s | %s | %s |\n", name, scalar(est), scalar(lo), scalar(hi))
}

func scalar(s stats.Scalar) string {
	f := float64(s)
	if math.IsNaN(f) {
		return "NaN"
	}
	return fmt.Sprintf("%.4f", f)
}
