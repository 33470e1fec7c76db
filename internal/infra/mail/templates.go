package mail

import (
	"bytes"
	"embed"
	"html/template"
	"strings"

	"tienda/internal/domain/service"

	"github.com/pkg/errors"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	templateVerification = "verification.html"
	templateReset        = "reset.html"
	templateWelcome      = "welcome.html"
	templateOrderStatus  = "order_status.html"
)

var statusLabels = map[string]string{
	"pendiente":          "Pendiente",
	"confirmado":         "Confirmado",
	"listo_para_recoger": "Listo para recoger",
	"enviado":            "Enviado",
	"entregado":          "Entregado",
	"cancelado":          "Cancelado",
}

// templateData is the view model every template renders from.
type templateData struct {
	Name        string
	Link        string
	Order       service.OrderMail
	StatusLabel string
}

// renderer builds subject and HTML body for each mail kind.
type renderer struct {
	frontendURL string
	pages       map[string]*template.Template
}

func newRenderer(frontendURL string) (*renderer, error) {
	pages := make(map[string]*template.Template)
	for _, name := range []string{templateVerification, templateReset, templateWelcome, templateOrderStatus} {
		tmpl, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse mail template %s", name)
		}
		pages[name] = tmpl
	}

	return &renderer{frontendURL: strings.TrimRight(frontendURL, "/"), pages: pages}, nil
}

func (r *renderer) render(name string, data templateData) (string, error) {
	var buf bytes.Buffer
	if err := r.pages[name].ExecuteTemplate(&buf, "layout", data); err != nil {
		return "", errors.Wrapf(err, "failed to render mail template %s", name)
	}

	return buf.String(), nil
}

func (r *renderer) link(path string) string {
	return r.frontendURL + path
}

func statusLabel(status string) string {
	if label, ok := statusLabels[status]; ok {
		return label
	}

	return status
}
