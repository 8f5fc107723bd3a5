package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/zoobzio/calico"
	"github.com/zoobzio/calico/internal/pipeline"
	"github.com/zoobzio/calico/json"
)

// handleFormats lists every registered format and whether it decodes.
func (s *Server) handleFormats(w http.ResponseWriter, _ *http.Request) {
	list := calico.NewSequence()
	for _, f := range calico.Formats() {
		enc, err := calico.Lookup(f)
		if err != nil {
			continue
		}
		_, decErr := calico.LookupDecoder(f)
		list.Append(calico.Object(
			calico.Field("name", calico.String(string(f))),
			calico.Field("content_type", calico.String(enc.ContentType())),
			calico.Field("decode", calico.Bool(decErr == nil)),
		))
	}
	s.writeJSON(w, http.StatusOK, calico.Object(calico.Field("formats", list.Value())))
}

// handleConvert decodes the body as {from} and answers with it encoded as
// {to}. Query parameters pretty, indent and title override the configured
// JSON, YAML and Markdown settings.
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	from, err := calico.ParseFormat(chi.URLParam(r, "from"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	to, err := calico.ParseFormat(chi.URLParam(r, "to"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	enc, err := calico.Lookup(to)
	if err != nil {
		s.writeError(w, err)
		return
	}

	opts, err := s.options(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.Server.MaxBodyBytes))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.metrics.bytesIn.WithLabelValues(string(from)).Add(float64(len(body)))

	start := time.Now()
	out, err := pipeline.NewRunner(s.svc, opts).Convert(r.Context(), from, to, body)
	s.metrics.duration.WithLabelValues(string(from), string(to)).Observe(time.Since(start).Seconds())
	if err != nil {
		s.metrics.conversions.WithLabelValues(string(from), string(to), "error").Inc()
		s.writeError(w, err)
		return
	}
	s.metrics.conversions.WithLabelValues(string(from), string(to), "ok").Inc()

	w.Header().Set("Content-Type", enc.ContentType())
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}

func (s *Server) options(r *http.Request) (pipeline.Options, error) {
	opts := pipeline.OptionsFromConfig(s.cfg)
	q := r.URL.Query()
	if v := q.Get("pretty"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return opts, fmt.Errorf("%w: pretty must be a boolean, got %q", calico.ErrInvalidArgument, v)
		}
		opts.Pretty = b
	}
	if v := q.Get("indent"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return opts, fmt.Errorf("%w: indent must be an integer, got %q", calico.ErrInvalidArgument, v)
		}
		opts.Indent = n
	}
	if v := q.Get("title"); v != "" {
		opts.Markdown.Title = v
	}
	return opts, nil
}

// statusOf maps conversion errors to HTTP status codes.
func statusOf(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, calico.ErrUnsupportedFormat),
		errors.Is(err, calico.ErrSyntax),
		errors.Is(err, calico.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, calico.ErrTypeMismatch),
		errors.Is(err, calico.ErrCircularReference),
		errors.Is(err, calico.ErrSerialization),
		errors.Is(err, calico.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, calico.ErrWorkerClosed),
		errors.Is(err, calico.ErrWorkerFailed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("conversion failed", "err", err)
	}
	s.writeJSON(w, status, calico.Object(calico.Field("error", calico.String(err.Error()))))
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v calico.Value) {
	out, err := json.Serialize(v, false)
	if err != nil {
		s.logger.Error("encode response", "err", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(out))
}
