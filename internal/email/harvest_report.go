package email

import (
	"context"
	"fmt"
	"strings"
	"text/template"
)

// HarvestFailure es una cuenta que no se pudo snapshotear.
type HarvestFailure struct {
	AccountID string
	Reason    string
}

// HarvestSummary es el resumen de una corrida del harvest.
type HarvestSummary struct {
	Date      string
	Processed int
	Saved     int
	Failed    int
	Failures  []HarvestFailure
}

var harvestTmpl = template.Must(template.New("harvest").Parse(
	`Harvest de métricas sociales del {{.Date}}

Procesadas: {{.Processed}}
Guardadas:  {{.Saved}}
Fallidas:   {{.Failed}}
{{if .Failures}}
Detalle:
{{range .Failures}}  - {{.AccountID}}: {{.Reason}}
{{end}}{{end}}`))

// HarvestReporter manda el resumen cuando hubo fallas.
type HarvestReporter struct {
	sender Sender
	to     []string
}

func NewHarvestReporter(sender Sender, to []string) *HarvestReporter {
	return &HarvestReporter{sender: sender, to: to}
}

// Report no envía nada si la corrida no tuvo fallas.
func (r *HarvestReporter) Report(ctx context.Context, s HarvestSummary) error {
	if s.Failed == 0 || len(r.to) == 0 {
		return nil
	}
	subject, body, err := RenderHarvestReport(s)
	if err != nil {
		return err
	}
	return r.sender.Send(ctx, r.to, subject, body, "")
}

// RenderHarvestReport arma asunto y cuerpo del reporte.
func RenderHarvestReport(s HarvestSummary) (subject, body string, err error) {
	var b strings.Builder
	if err := harvestTmpl.Execute(&b, s); err != nil {
		return "", "", fmt.Errorf("render harvest report: %w", err)
	}
	subject = fmt.Sprintf("[brandkit] harvest %s: %d/%d cuentas con error", s.Date, s.Failed, s.Processed)
	return subject, b.String(), nil
}
