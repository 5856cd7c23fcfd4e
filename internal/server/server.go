// Package server exposes the rendered documents over localhost HTTP: the
// iCalendar feed at the root and the CSV export snapshot alongside it.
// Both documents are swapped atomically so readers never see a partial
// update.
package server

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/tartampluch/remind-day/internal/config"
)

// cacheItem stores one rendered document and its HTTP caching metadata.
type cacheItem struct {
	data         []byte
	etag         string
	lastModified string // RFC1123 format required by HTTP headers
}

// document is one endpoint: an atomically swappable payload plus its MIME
// type. atomic.Pointer gives lock-free reads on the hot path; updates are
// rare (only after a rebuild) so contention never matters.
type document struct {
	cache atomic.Pointer[cacheItem]
	mime  string
}

func (d *document) update(data []byte) *cacheItem {
	hash := sha256.Sum256(data)
	item := &cacheItem{
		data:         data,
		etag:         fmt.Sprintf(config.FormatETag, hex.EncodeToString(hash[:])),
		lastModified: time.Now().UTC().Format(http.TimeFormat),
	}
	d.cache.Store(item)
	return item
}

// FeedServer serves the calendar feed and the CSV snapshot via HTTP.
type FeedServer struct {
	Port string

	calendar document
	csv      document
}

// NewFeedServer creates a server bound to the given localhost port.
func NewFeedServer(port string) *FeedServer {
	s := &FeedServer{Port: port}
	s.calendar.mime = config.MimeTextCalendar
	s.csv.mime = config.MimeTextCSV
	return s
}

// Start runs the HTTP server and blocks until the context is cancelled or
// the listener fails.
func (s *FeedServer) Start(ctx context.Context) error {
	if s.Port == "" {
		return errors.New(config.ErrPortRequired)
	}

	srv := &http.Server{
		Addr:         config.LocalhostBindAddr + config.AddrSeparator + s.Port,
		Handler:      s.Handler(),
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: config.ServerWriteTimeout,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	serverError := make(chan error, config.ChannelBufferSize)

	go func() {
		slog.Info(config.MsgServerListen,
			config.LogKeyComponent, config.CompServer,
			config.LogKeyPort, s.Port,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverError <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info(config.MsgServerStop, config.LogKeyComponent, config.CompServer)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("%s: %w", config.ErrServerShutdown, err)
		}
		return nil

	case err := <-serverError:
		return fmt.Errorf("%s: %w", config.ErrServerStartup, err)
	}
}

// Handler builds the route table. Exposed for tests.
func (s *FeedServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(config.RouteCalendar, s.handleCalendar)
	mux.HandleFunc(config.RouteCSV, s.handleCSV)
	return mux
}

// UpdateCalendar atomically replaces the served ICS content.
func (s *FeedServer) UpdateCalendar(data []byte) {
	item := s.calendar.update(data)
	s.logUpdate(config.RouteCalendar, item)
}

// UpdateCSV atomically replaces the served CSV snapshot.
func (s *FeedServer) UpdateCSV(data []byte) {
	item := s.csv.update(data)
	s.logUpdate(config.RouteCSV, item)
}

func (s *FeedServer) logUpdate(route string, item *cacheItem) {
	slog.Debug(config.MsgFeedUpdated,
		config.LogKeyComponent, config.CompServer,
		config.LogKeyPath, route,
		config.LogKeySizeBytes, len(item.data),
		config.LogKeyETag, item.etag,
	)
}

func (s *FeedServer) handleCalendar(w http.ResponseWriter, r *http.Request) {
	// The root pattern catches every unregistered path.
	if r.URL.Path != config.RouteCalendar {
		http.Error(w, config.HTTPMsgNotFound, http.StatusNotFound)
		return
	}
	s.serveDocument(w, r, &s.calendar)
}

func (s *FeedServer) handleCSV(w http.ResponseWriter, r *http.Request) {
	s.serveDocument(w, r, &s.csv)
}

// serveDocument writes one cached document with conditional-request
// support (ETag and Last-Modified).
func (s *FeedServer) serveDocument(w http.ResponseWriter, r *http.Request, doc *document) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set(config.HeaderAllow, config.AllowedMethods)
		http.Error(w, config.HTTPMsgMethodNotAll, http.StatusMethodNotAllowed)
		return
	}

	item := doc.cache.Load()
	if item == nil {
		w.Header().Set(config.HeaderRetryAfter, config.RetryAfterSeconds)
		http.Error(w, config.HTTPMsgInitializing, http.StatusServiceUnavailable)
		return
	}

	w.Header().Set(config.HeaderContentType, doc.mime)
	w.Header().Set(config.HeaderXContentType, config.MimeNoSniff)
	w.Header().Set(config.HeaderCacheControl, config.CacheControlPrivate)
	w.Header().Set(config.HeaderETag, item.etag)
	w.Header().Set(config.HeaderLastModified, item.lastModified)

	if match := r.Header.Get(config.HeaderIfNoneMatch); match == item.etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	if since := r.Header.Get(config.HeaderIfModifiedSince); since != "" {
		if clientTime, err := time.Parse(http.TimeFormat, since); err == nil {
			if serverTime, err := time.Parse(http.TimeFormat, item.lastModified); err == nil {
				if !serverTime.After(clientTime) {
					w.WriteHeader(http.StatusNotModified)
					return
				}
			}
		}
	}

	if r.Method == http.MethodGet {
		if _, err := io.Copy(w, bytes.NewReader(item.data)); err != nil {
			slog.Error(config.ErrWriteResp,
				config.LogKeyComponent, config.CompServer,
				config.LogKeyError, err,
			)
		}
	}
}
