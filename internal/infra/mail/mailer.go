// Package mail renders and delivers the store's transactional mail.
package mail

import (
	"context"
	"log/slog"
	"net/url"
	"time"

	"tienda/config"
	"tienda/internal/domain/lifecycle"
	"tienda/internal/domain/service"

	"github.com/panjf2000/ants/v2"
	"github.com/pkg/errors"
	"go.uber.org/fx"
	"gopkg.in/gomail.v2"
)

const (
	defaultMailWorkers = 4
	sendTimeout        = 30 * time.Second
)

// mailer renders synchronously and delivers on a bounded goroutine pool, or
// inline when the context waits for delivery.
type mailer struct {
	from     string
	renderer *renderer
	sender   sender
	pool     *ants.Pool
	logger   *slog.Logger
}

// Params holds dependencies for the mailer, injected by Fx
type Params struct {
	fx.In

	Lc     fx.Lifecycle
	Config *config.Config
	Logger *slog.Logger
}

// New builds the mailer. Without a mail host configured, mail is logged instead of sent.
func New(params Params) (service.Mailer, error) {
	cfg := params.Config.Mail
	if cfg == nil {
		cfg = &config.MailConfig{}
	}

	var s sender = &logSender{logger: params.Logger}
	if cfg.Host != "" {
		s = newSMTPSender(cfg)
	}

	m, err := newMailer(cfg, s, params.Logger)
	if err != nil {
		return nil, err
	}

	params.Lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return m.Close()
		},
	})

	return m, nil
}

func newMailer(cfg *config.MailConfig, s sender, logger *slog.Logger) (*mailer, error) {
	r, err := newRenderer(cfg.FrontendURL)
	if err != nil {
		return nil, err
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = defaultMailWorkers
	}
	pool, err := ants.NewPool(workers, ants.WithPanicHandler(func(p any) {
		logger.Error("[Mail] Send panicked", slog.Any("panic", p))
	}))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create mail pool")
	}

	return &mailer{
		from:     cfg.From,
		renderer: r,
		sender:   s,
		pool:     pool,
		logger:   logger,
	}, nil
}

func (m *mailer) SendVerification(ctx context.Context, to, name, token string) error {
	return m.send(ctx, to, "Verifica tu cuenta", templateVerification, templateData{
		Name: name,
		Link: m.renderer.link("/verificar/" + url.PathEscape(token)),
	})
}

func (m *mailer) SendPasswordReset(ctx context.Context, to, name, token string) error {
	return m.send(ctx, to, "Restablece tu contraseña", templateReset, templateData{
		Name: name,
		Link: m.renderer.link("/restablecer-password/" + url.PathEscape(token)),
	})
}

func (m *mailer) SendWelcome(ctx context.Context, to, name string) error {
	return m.send(ctx, to, "¡Bienvenido!", templateWelcome, templateData{
		Name: name,
		Link: m.renderer.link("/"),
	})
}

func (m *mailer) SendOrderStatus(ctx context.Context, to, name string, order service.OrderMail) error {
	label := statusLabel(order.Status)

	return m.send(ctx, to, "Tu pedido ahora está: "+label, templateOrderStatus, templateData{
		Name:        name,
		Link:        m.renderer.link("/mis-pedidos"),
		Order:       order,
		StatusLabel: label,
	})
}

func (m *mailer) send(ctx context.Context, to, subject, templateName string, data templateData) error {
	body, err := m.renderer.render(templateName, data)
	if err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetAddressHeader("To", to, data.Name)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)

	if service.WaitsForDelivery(ctx) {
		sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
		defer cancel()

		return errors.Wrap(m.sender.Send(sendCtx, msg), "failed to deliver mail")
	}

	// Delivery outlives the request; it keeps the request's values but not its deadline.
	logger := m.logger.With(slog.String("template", templateName))
	err = m.pool.Submit(func() {
		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sendTimeout)
		defer cancel()

		if err := m.sender.Send(sendCtx, msg); err != nil {
			logger.ErrorContext(sendCtx, "[Mail] Delivery failed", slog.Any("error", err))
		}
	})
	if err != nil {
		return errors.Wrap(err, "failed to queue mail")
	}

	return nil
}

// Close waits for queued deliveries to drain.
func (m *mailer) Close() error {
	return errors.WithStack(m.pool.ReleaseTimeout(lifecycle.DefaultTimeout))
}
