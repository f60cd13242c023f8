package describer

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
	"github.com/rs/zerolog"

	"thermo-inspector/internal/domain/entity"
	"thermo-inspector/internal/domain/port"
	"thermo-inspector/internal/logger"
)

const (
	defaultTimeout = 2 * time.Minute
	promptTemplate = `Ты инженер по тепловизионному контролю трансформаторов.
Ниже сводка автоматического сравнения эталонного снимка и снимка обслуживания,
к сообщению приложен снимок с рамками найденных регионов.
Опиши простыми словами, что нагрелось и насколько это срочно. Не больше пяти предложений.

%s`
)

// OllamaDescriber описание отчёта моделью Ollama с приложенной разметкой.
// При любой ошибке модели возвращается текстовая сводка.
type OllamaDescriber struct {
	client   *api.Client
	model    string
	fallback *TextDescriber
	log      zerolog.Logger
}

// NewOllamaDescriber создаёт описатель для сервера по адресу ollamaURL.
func NewOllamaDescriber(ollamaURL, model string, log zerolog.Logger) (*OllamaDescriber, error) {
	parsed, err := url.Parse(ollamaURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid ollama url %q", ollamaURL)
	}
	base := &url.URL{Scheme: parsed.Scheme, Host: parsed.Host}

	return &OllamaDescriber{
		client:   api.NewClient(base, http.DefaultClient),
		model:    model,
		fallback: NewTextDescriber(),
		log:      logger.Component(log, "describer"),
	}, nil
}

// Describe спрашивает модель, при неудаче отдаёт Summary.
func (d *OllamaDescriber) Describe(ctx context.Context, report *entity.DetectionReport, overlayPNG []byte) (*entity.AiDescription, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultTimeout)
		defer cancel()
	}

	msg := api.Message{
		Role:    "user",
		Content: fmt.Sprintf(promptTemplate, Summary(report)),
	}
	if len(overlayPNG) > 0 {
		msg.Images = []api.ImageData{api.ImageData(overlayPNG)}
	}
	stream := false
	req := &api.ChatRequest{
		Model:    d.model,
		Messages: []api.Message{msg},
		Stream:   &stream,
	}

	var content strings.Builder
	err := d.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		content.WriteString(resp.Message.Content)
		return nil
	})
	text := strings.TrimSpace(content.String())
	if err != nil || text == "" {
		d.log.Warn().Err(err).Str("model", d.model).Msg("ollama unavailable, using text summary")
		return d.fallback.Describe(ctx, report, overlayPNG)
	}
	return &entity.AiDescription{Text: text}, nil
}

var _ port.ReportDescriber = (*OllamaDescriber)(nil)
