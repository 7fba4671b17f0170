// Package api serves the library over HTTP: imports, conversations, search
// and media blobs.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/Zuo-Peng/chatview/internal/conversation"
	apperrors "github.com/Zuo-Peng/chatview/internal/errors"
	"github.com/Zuo-Peng/chatview/internal/index"
	"github.com/Zuo-Peng/chatview/internal/media"
	"github.com/Zuo-Peng/chatview/internal/render"
	"github.com/Zuo-Peng/chatview/internal/search"
)

// DefaultMaxUpload caps the multipart body of an import.
const DefaultMaxUpload = 1 << 30

type Server struct {
	router   *chi.Mux
	addr     string
	lib      *index.Library
	importer *conversation.Importer
	log      *apperrors.Logger

	MaxUpload int64
}

func NewServer(addr string, lib *index.Library, importer *conversation.Importer, log *apperrors.Logger) *Server {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(requestLogger(log))
	router.Use(middleware.Recoverer)

	s := &Server{
		router:    router,
		addr:      addr,
		lib:       lib,
		importer:  importer,
		log:       log,
		MaxUpload: DefaultMaxUpload,
	}

	router.Get("/health", s.health)
	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/conversations", s.listConversations)
		r.Post("/conversations", s.importConversation)
		r.Get("/conversations/{id}", s.getConversation)
		r.Get("/conversations/{id}/search", s.searchConversation)
		r.Get("/conversations/{id}/media/{name}", s.getConversationMedia)
		r.Get("/search", s.searchLibrary)
		r.Get("/media/{ref}", s.getMedia)
	})

	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.WithError(err).Warn("API server shutdown")
		}
	}()

	s.log.WithField("addr", s.addr).Info("API server starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Summary is one entry of the conversation list.
type Summary struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Owner      string    `json:"owner,omitempty"`
	Authors    []string  `json:"authors"`
	Messages   int       `json:"message_count"`
	Media      int       `json:"media_count"`
	Preview    string    `json:"preview"`
	LastTime   string    `json:"last_time,omitempty"`
	ImportedAt time.Time `json:"imported_at"`
}

func summarize(c *conversation.Conversation) Summary {
	preview, at := render.Preview(c)
	return Summary{
		ID:         c.ID,
		Name:       c.Name,
		Owner:      c.Owner,
		Authors:    c.Authors(),
		Messages:   len(c.Messages),
		Media:      c.Media.Len(),
		Preview:    preview,
		LastTime:   at,
		ImportedAt: c.ImportedAt,
	}
}

type conversationDetail struct {
	*conversation.Conversation
	MediaItems []*media.Item `json:"media"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":        "ok",
		"conversations": s.lib.Len(),
	})
}

func (s *Server) listConversations(w http.ResponseWriter, r *http.Request) {
	convs := s.lib.Filter(r.URL.Query().Get("q"))
	out := make([]Summary, 0, len(convs))
	for _, c := range convs {
		out = append(out, summarize(c))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) importConversation(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.MaxUpload)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		s.writeError(w, apperrors.Wrap(err, apperrors.ErrCodeImportRejected, "invalid multipart body").
			WithUserMessage("Please provide a conversation name and an archive file."))
		return
	}

	req := conversation.Request{
		Name:  r.FormValue("name"),
		Owner: r.FormValue("owner"),
	}
	if file, header, err := r.FormFile("file"); err == nil {
		defer file.Close()
		req.Filename = header.Filename
		data, err := io.ReadAll(file)
		if err != nil {
			s.writeError(w, apperrors.Wrap(err, apperrors.ErrCodeArchiveUnreadable, "read upload").
				WithUserMessage("The archive could not be read: "+err.Error()))
			return
		}
		req.Archive = data
	}

	conv, err := s.importer.Import(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.lib.Add(conv); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, summarize(conv))
}

func (s *Server) getConversation(w http.ResponseWriter, r *http.Request) {
	conv, err := s.conversation(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, conversationDetail{
		Conversation: conv,
		MediaItems:   conv.Media.Items(),
	})
}

func (s *Server) searchConversation(w http.ResponseWriter, r *http.Request) {
	conv, err := s.conversation(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.search(w, r, conv.ID)
}

func (s *Server) searchLibrary(w http.ResponseWriter, r *http.Request) {
	s.search(w, r, "")
}

func (s *Server) search(w http.ResponseWriter, r *http.Request, convID string) {
	q := r.URL.Query()
	opts := search.Options{
		Query:          q.Get("q"),
		ConversationID: convID,
		Author:         q.Get("author"),
	}
	if strings.TrimSpace(opts.Query) == "" {
		s.writeError(w, apperrors.New(apperrors.ErrCodeInvalidInput, "empty query").
			WithUserMessage("Please provide a search query."))
		return
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.writeError(w, apperrors.New(apperrors.ErrCodeInvalidInput, "bad limit").
				WithContext("limit", v).
				WithUserMessage("limit must be a positive integer."))
			return
		}
		opts.Limit = n
	}

	results, err := search.Search(s.lib.DB(), opts)
	if err != nil {
		s.writeError(w, apperrors.Wrap(err, apperrors.ErrCodeInternalError, "search").
			WithContext("query", opts.Query))
		return
	}
	if results == nil {
		results = []search.Result{}
	}
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) getMedia(w http.ResponseWriter, r *http.Request) {
	ref, err := url.PathUnescape(chi.URLParam(r, "ref"))
	if err != nil {
		ref = chi.URLParam(r, "ref")
	}
	item, blob, ok := s.lib.ResolveMedia(media.Ref(ref))
	if !ok {
		s.writeError(w, mediaNotFound("ref", ref))
		return
	}
	writeBlob(w, item, blob)
}

// getConversationMedia serves an attachment by its archive file name.
func (s *Server) getConversationMedia(w http.ResponseWriter, r *http.Request) {
	conv, err := s.conversation(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil {
		name = chi.URLParam(r, "name")
	}
	item, ok := conv.Media.Lookup(name)
	if !ok {
		s.writeError(w, mediaNotFound("name", name))
		return
	}
	blob, ok := conv.Media.Resolve(item.Ref)
	if !ok {
		s.writeError(w, mediaNotFound("name", name))
		return
	}
	writeBlob(w, item, blob)
}

func mediaNotFound(key, value string) error {
	return apperrors.New(apperrors.ErrCodeNotFound, "no such media").
		WithContext(key, value).
		WithUserMessage("Media not found.")
}

func writeBlob(w http.ResponseWriter, item *media.Item, blob []byte) {
	w.Header().Set("Content-Type", media.ContentType(item.Name))
	w.Header().Set("Content-Length", strconv.Itoa(len(blob)))
	w.Header().Set("Content-Disposition", "inline; filename="+strconv.Quote(item.Name))
	w.WriteHeader(http.StatusOK)
	w.Write(blob)
}

func (s *Server) conversation(r *http.Request) (*conversation.Conversation, error) {
	id := chi.URLParam(r, "id")
	conv, ok := s.lib.Get(id)
	if !ok {
		return nil, apperrors.New(apperrors.ErrCodeNotFound, "no such conversation").
			WithContext("id", id).
			WithUserMessage("Conversation not found.")
	}
	return conv, nil
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := apperrors.HTTPStatusCode(err)
	fields := logrus.Fields{"status": status}
	if status >= http.StatusInternalServerError {
		s.log.LogError(err, "request failed", fields)
	} else {
		s.log.LogWarn(err, "request rejected", fields)
	}
	writeJSON(w, status, apperrors.ToHTTPResponse(err))
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
