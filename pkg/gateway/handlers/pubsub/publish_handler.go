package pubsub

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/DeBrosOfficial/channelhub/pkg/errors"
	"github.com/DeBrosOfficial/channelhub/pkg/httputil"
	"github.com/DeBrosOfficial/channelhub/pkg/logging"
)

// PublishHandler handles POST /v1/pubsub/publish {channel, data_base64}
func (p *PubSubHandlers) PublishHandler(w http.ResponseWriter, r *http.Request) {
	if p.hub == nil {
		httputil.WriteError(w, http.StatusServiceUnavailable, "hub not initialized")
		return
	}
	if !httputil.CheckMethod(w, r, http.MethodPost) {
		return
	}

	var body PublishRequest
	if err := httputil.DecodeJSON(w, r, &body); err != nil || body.Channel == "" || body.DataB64 == "" {
		httputil.WriteError(w, http.StatusBadRequest, "invalid body: expected {channel,data_base64}")
		return
	}
	data, err := httputil.DecodeBase64(body.DataB64)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := p.hub.Publish(r.Context(), body.Channel, data); err != nil {
		p.logger.ComponentWarn(logging.ComponentGateway, "pubsub publish failed",
			zap.String("channel", body.Channel),
			zap.Error(err))
		errors.WriteHTTPError(w, err, middleware.GetReqID(r.Context()))
		return
	}

	p.logger.ComponentDebug(logging.ComponentGateway, "pubsub publish",
		zap.String("channel", body.Channel),
		zap.Int("data_len", len(data)))

	httputil.WriteSuccess(w)
}

// ChannelsHandler lists the channels with live handlers on this gateway's hub
func (p *PubSubHandlers) ChannelsHandler(w http.ResponseWriter, r *http.Request) {
	if p.hub == nil {
		httputil.WriteError(w, http.StatusServiceUnavailable, "hub not initialized")
		return
	}

	channels := p.hub.Channels()
	out := make([]map[string]any, 0, len(channels))
	for _, ch := range channels {
		out = append(out, map[string]any{
			"channel":  ch,
			"handlers": p.hub.HandlerCount(ch),
		})
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"channels": out})
}
