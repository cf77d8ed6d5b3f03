// Package server exposes normalization, phonemization, tokenization and
// synthesis over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/example/go-kokoro-g2p/internal/config"
	"github.com/example/go-kokoro-g2p/internal/phonemize"
	"github.com/example/go-kokoro-g2p/internal/text"
	"github.com/example/go-kokoro-g2p/internal/tokenizer"
	"github.com/example/go-kokoro-g2p/internal/tts"
	"github.com/example/go-kokoro-g2p/internal/vocab"
)

// ParseLogLevel converts a case-insensitive level string to slog.Level.
// An empty string returns slog.LevelInfo. Unknown strings return an error.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q (want debug|info|warn|error)", s)
	}
}

// Phonemizer converts text to phonemes for a language code.
type Phonemizer interface {
	Phonemize(ctx context.Context, input, lang string, normalize bool) (string, error)
}

// Synthesizer produces speech for a request.
type Synthesizer interface {
	Synthesize(ctx context.Context, req tts.Request) (tts.Result, error)
	HasEngine() bool
}

// ---------------------------------------------------------------------------
// Functional options
// ---------------------------------------------------------------------------

type options struct {
	maxTextBytes   int
	workers        int
	requestTimeout time.Duration
	defaultLang    string
	logger         *slog.Logger
	metrics        *Metrics
	metricsPath    string
	metricsHandler http.Handler
}

func defaultOptions() options {
	return options{
		maxTextBytes:   8192,
		workers:        4,
		requestTimeout: 30 * time.Second,
		defaultLang:    "a",
		logger:         slog.Default(),
	}
}

// Option configures the HTTP handler.
type Option func(*options)

// WithMaxTextBytes sets the maximum allowed text length in bytes.
func WithMaxTextBytes(n int) Option {
	return func(o *options) { o.maxTextBytes = n }
}

// WithWorkers sets the maximum number of concurrent phonemize/synthesis
// calls. Zero disables throttling.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithRequestTimeout sets the per-request processing deadline.
func WithRequestTimeout(d time.Duration) Option {
	return func(o *options) { o.requestTimeout = d }
}

// WithDefaultLang sets the language used when a request omits it.
func WithDefaultLang(code string) Option {
	return func(o *options) { o.defaultLang = code }
}

// WithLogger sets the slog.Logger used for request logging.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics records request metrics on m.
func WithMetrics(m *Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithMetricsHandler mounts h (typically a Prometheus handler) at path.
func WithMetricsHandler(path string, h http.Handler) Option {
	return func(o *options) {
		o.metricsPath = path
		o.metricsHandler = h
	}
}

// ---------------------------------------------------------------------------
// handler
// ---------------------------------------------------------------------------

type handler struct {
	phonemizer Phonemizer
	synth      Synthesizer
	tok        *tokenizer.Vocab
	opts       options
	sem        chan struct{} // semaphore for worker pool
	log        *slog.Logger
	met        *Metrics
}

// NewHandler returns an http.Handler serving /health, /vocab, /normalize,
// /phonemize, /tokenize and /tts. synth may be nil, in which case /tts
// answers 501.
func NewHandler(p Phonemizer, synth Synthesizer, optFns ...Option) http.Handler {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.metrics == nil {
		opts.metrics = noopMetrics()
	}

	h := &handler{
		phonemizer: p,
		synth:      synth,
		tok:        tokenizer.NewVocab(nil),
		opts:       opts,
		log:        opts.logger,
		met:        opts.metrics,
	}
	if opts.workers > 0 {
		h.sem = make(chan struct{}, opts.workers)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", h.handleHealth)
	mux.HandleFunc("/vocab", h.handleVocab)
	mux.HandleFunc("/normalize", h.handleNormalize)
	mux.HandleFunc("/phonemize", h.handlePhonemize)
	mux.HandleFunc("/tokenize", h.handleTokenize)
	mux.HandleFunc("/tts", h.handleTTS)
	if opts.metricsHandler != nil && opts.metricsPath != "" {
		mux.Handle(opts.metricsPath, opts.metricsHandler)
	}
	return instrument(h.met, h.log, mux)
}

func buildVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

type healthResponse struct {
	Status    string   `json:"status"`
	Version   string   `json:"version"`
	Engine    bool     `json:"engine"`
	Languages []string `json:"languages"`
}

func (h *handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	langs := make([]string, 0, 2)
	for _, l := range phonemize.Languages() {
		langs = append(langs, l.Code())
	}
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "ok",
		Version:   buildVersion(),
		Engine:    h.synth != nil && h.synth.HasEngine(),
		Languages: langs,
	})
}

func (h *handler) handleVocab(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	v := vocab.Get()
	symbols := make(map[string]int, len(v))
	for sym, idx := range v {
		symbols[string(sym)] = idx
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"size":    len(v),
		"symbols": symbols,
	})
}

type textRequest struct {
	Text      string `json:"text"`
	Lang      string `json:"lang"`
	Normalize *bool  `json:"normalize"`
	Phonemes  string `json:"phonemes"`
	Pad       bool   `json:"pad"`
}

func (h *handler) handleNormalize(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if !h.decode(w, r, &req) || !h.checkText(w, req.Text) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"text": text.Normalize(req.Text)})
}

type phonemizeResponse struct {
	Lang     string `json:"lang"`
	Phonemes string `json:"phonemes"`
}

func (h *handler) handlePhonemize(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if !h.decode(w, r, &req) || !h.checkText(w, req.Text) {
		return
	}

	lang := h.lang(req.Lang)
	ps, ok := h.phonemize(w, r, req.Text, lang, req.Normalize == nil || *req.Normalize)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, phonemizeResponse{Lang: lang, Phonemes: ps})
}

type tokenizeResponse struct {
	Phonemes string  `json:"phonemes"`
	Tokens   []int64 `json:"tokens"`
}

func (h *handler) handleTokenize(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if !h.decode(w, r, &req) {
		return
	}

	ps := req.Phonemes
	if ps == "" {
		if !h.checkText(w, req.Text) {
			return
		}
		var ok bool
		ps, ok = h.phonemize(w, r, req.Text, h.lang(req.Lang), req.Normalize == nil || *req.Normalize)
		if !ok {
			return
		}
	} else if len(ps) > h.opts.maxTextBytes {
		writeError(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("phonemes exceed maximum size of %d bytes", h.opts.maxTextBytes))
		return
	}

	ids, err := h.tok.Encode(ps)
	if err != nil {
		h.fail(w, r, "tokenize failed", err)
		return
	}
	if req.Pad {
		ids = tokenizer.Pad(ids)
	}
	writeJSON(w, http.StatusOK, tokenizeResponse{Phonemes: ps, Tokens: ids})
}

// phonemize runs the phonemizer inside a worker slot and the request
// timeout. It writes the error response itself and reports success.
func (h *handler) phonemize(w http.ResponseWriter, r *http.Request, input, lang string, normalize bool) (string, bool) {
	release, ok := h.acquire(w, r)
	if !ok {
		return "", false
	}
	defer release()

	ctx, cancel := context.WithTimeout(r.Context(), h.opts.requestTimeout)
	defer cancel()

	start := time.Now()
	done := observeDuration(ctx, h.met.PhonemizeDuration, attribute.String("lang", lang))
	ps, err := h.phonemizer.Phonemize(ctx, input, lang, normalize)
	done()
	if err != nil {
		h.fail(w, r, "phonemize failed", err,
			slog.String("lang", lang),
			slog.Int("text_len", len(input)),
		)
		return "", false
	}

	n := utf8.RuneCountInString(ps)
	h.met.PhonemesProduced.Add(ctx, int64(n), metric.WithAttributes(attribute.String("lang", lang)))
	h.log.InfoContext(ctx, "phonemize complete",
		slog.String("lang", lang),
		slog.Int("text_len", len(input)),
		slog.Int("phonemes", n),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	return ps, true
}

type ttsRequest struct {
	Text     string  `json:"text"`
	Voice    string  `json:"voice"`
	Lang     string  `json:"lang"`
	Speed    float64 `json:"speed"`
	Phonemes string  `json:"phonemes"`
	Trim     *bool   `json:"trim"`
}

func (h *handler) handleTTS(w http.ResponseWriter, r *http.Request) {
	var req ttsRequest
	if !h.decode(w, r, &req) {
		return
	}

	if h.synth == nil || !h.synth.HasEngine() {
		writeError(w, http.StatusNotImplemented, tts.ErrNoEngine.Error())
		return
	}

	if req.Phonemes == "" && !h.checkText(w, req.Text) {
		return
	}
	if len(req.Phonemes) > h.opts.maxTextBytes {
		writeError(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("phonemes exceed maximum size of %d bytes", h.opts.maxTextBytes))
		return
	}

	release, ok := h.acquire(w, r)
	if !ok {
		return
	}
	defer release()

	ctx, cancel := context.WithTimeout(r.Context(), h.opts.requestTimeout)
	defer cancel()

	lang := h.lang(req.Lang)
	start := time.Now()
	done := observeDuration(ctx, h.met.SynthesisDuration, attribute.String("lang", lang))
	res, err := h.synth.Synthesize(ctx, tts.Request{
		Text:     req.Text,
		Voice:    req.Voice,
		Lang:     lang,
		Speed:    req.Speed,
		Phonemes: req.Phonemes,
		Trim:     req.Trim == nil || *req.Trim,
	})
	done()
	durationMS := time.Since(start).Milliseconds()

	if err != nil {
		h.fail(w, r, "synthesis failed", err,
			slog.String("voice", req.Voice),
			slog.Int("text_len", len(req.Text)),
			slog.Int64("duration_ms", durationMS),
		)
		return
	}

	h.log.InfoContext(r.Context(), "synthesis complete",
		slog.String("voice", req.Voice),
		slog.String("lang", lang),
		slog.Int("text_len", len(req.Text)),
		slog.Int("chunks", res.Chunks),
		slog.Int64("duration_ms", durationMS),
		slog.Int("wav_bytes", len(res.WAV)),
	)

	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("X-Sample-Rate", strconv.Itoa(res.SampleRate))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.WAV)
}

// decode enforces POST and parses the JSON body into v.
func (h *handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return false
	}
	if r.Body == nil {
		writeError(w, http.StatusBadRequest, "request body is required")
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return false
	}
	return true
}

func (h *handler) checkText(w http.ResponseWriter, s string) bool {
	if strings.TrimSpace(s) == "" {
		writeError(w, http.StatusBadRequest, "text field is required")
		return false
	}
	if len(s) > h.opts.maxTextBytes {
		writeError(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("text exceeds maximum size of %d bytes", h.opts.maxTextBytes))
		return false
	}
	return true
}

func (h *handler) lang(code string) string {
	if code == "" {
		return h.opts.defaultLang
	}
	return code
}

// acquire takes a worker slot, honouring cancellation while waiting.
func (h *handler) acquire(w http.ResponseWriter, r *http.Request) (func(), bool) {
	if h.sem == nil {
		return func() {}, true
	}
	select {
	case h.sem <- struct{}{}:
	case <-r.Context().Done():
		writeError(w, http.StatusServiceUnavailable, "request cancelled while waiting for worker")
		return nil, false
	}
	h.met.InFlight.Add(r.Context(), 1)
	return func() {
		h.met.InFlight.Add(r.Context(), -1)
		<-h.sem
	}, true
}

func (h *handler) fail(w http.ResponseWriter, r *http.Request, msg string, err error, attrs ...slog.Attr) {
	status := statusFor(err)
	attrs = append(attrs, slog.Int("status", status), slog.String("error", err.Error()))

	level := slog.LevelError
	switch {
	case status == http.StatusGatewayTimeout:
		level = slog.LevelWarn
		msg = "request timed out"
	case status < http.StatusInternalServerError:
		level = slog.LevelInfo
	}
	h.log.LogAttrs(r.Context(), level, msg, attrs...)

	if status == http.StatusGatewayTimeout {
		writeError(w, status, "request timed out")
		return
	}
	writeError(w, status, err.Error())
}

// statusFor maps a domain error to an HTTP status code.
func statusFor(err error) int {
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusGatewayTimeout
	case errors.Is(err, phonemize.ErrUnsupportedLanguage),
		errors.Is(err, text.ErrEmptyText),
		errors.Is(err, tts.ErrInvalidSpeed):
		return http.StatusBadRequest
	case errors.Is(err, tts.ErrNoEngine):
		return http.StatusNotImplemented
	case errors.Is(err, phonemize.ErrBackendUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// ---------------------------------------------------------------------------
// Server: wires handler into net/http.Server with graceful shutdown
// ---------------------------------------------------------------------------

// Server wires the HTTP handler into a net/http.Server with graceful shutdown.
type Server struct {
	cfg             config.Config
	phonemizer      Phonemizer
	synth           Synthesizer
	log             *slog.Logger
	shutdownTimeout time.Duration
}

// New returns a Server for cfg. synth may be nil.
func New(cfg config.Config, p Phonemizer, synth Synthesizer) *Server {
	timeout := cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Server{
		cfg:             cfg,
		phonemizer:      p,
		synth:           synth,
		log:             slog.Default(),
		shutdownTimeout: timeout,
	}
}

// WithShutdownTimeout overrides the graceful-shutdown drain period.
func (s *Server) WithShutdownTimeout(d time.Duration) *Server {
	s.shutdownTimeout = d
	return s
}

// WithLogger overrides the server logger.
func (s *Server) WithLogger(l *slog.Logger) *Server {
	s.log = l
	return s
}

// Start listens on the configured address and serves until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Server.ListenAddr)
	if err != nil {
		return fmt.Errorf("http listen: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then drains in-flight requests.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	lang, err := config.NormalizeLanguage(s.cfg.Phonemizer.DefaultLang)
	if err != nil {
		_ = ln.Close()
		return err
	}

	mp, promHandler, err := NewPrometheusProvider()
	if err != nil {
		_ = ln.Close()
		return err
	}
	defer func() { _ = mp.Shutdown(context.Background()) }()

	met, err := NewMetrics(mp)
	if err != nil {
		_ = ln.Close()
		return fmt.Errorf("create metrics: %w", err)
	}

	h := NewHandler(s.phonemizer, s.synth,
		WithWorkers(s.cfg.Server.Workers),
		WithMaxTextBytes(s.cfg.Server.MaxTextBytes),
		WithRequestTimeout(s.cfg.Server.RequestTimeout),
		WithDefaultLang(lang),
		WithLogger(s.log),
		WithMetrics(met),
		WithMetricsHandler(s.cfg.Server.MetricsPath, promHandler),
	)

	httpServer := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Serve(ln)
	}()

	s.log.InfoContext(ctx, "server listening",
		slog.String("addr", ln.Addr().String()),
		slog.Bool("engine", s.synth != nil && s.synth.HasEngine()),
	)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http serve: %w", err)
	}
}

// ProbeHTTP checks that the server at addr answers /health with 200.
func ProbeHTTP(ctx context.Context, addr string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+addr+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected health status: %s", resp.Status)
	}
	return nil
}
