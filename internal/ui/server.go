// Package ui provides functionality for initializing the UI server which
// renders the public status page.
package ui

import (
	"context"
	"embed"
	"encoding/json"
	"html/template"
	"net/http"
	"time"

	"github.com/danilovkiri/dk-go-trainqueue/internal/config"
	"github.com/danilovkiri/dk-go-trainqueue/internal/models/modeldto"
	"github.com/danilovkiri/dk-go-trainqueue/internal/ui/client"
	"github.com/danilovkiri/dk-go-trainqueue/internal/ui/themes"
	"github.com/go-chi/chi"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

//go:embed templates/*.html
var templateFS embed.FS

type pageData struct {
	Theme      themes.Theme
	Queue      modeldto.QueueStatus
	Train      modeldto.DeviceStatus
	APIAddress string
}

// Server renders the status page from data fetched off the API service.
type Server struct {
	uiConfig *config.UIConfig
	client   *client.Client
	index    *template.Template
	log      *zerolog.Logger
}

// InitServer returns a http.Server object for the UI service.
func InitServer(uiConfig *config.UIConfig, log *zerolog.Logger) (*http.Server, error) {
	index, err := template.ParseFS(templateFS, "templates/index.html")
	if err != nil {
		return nil, err
	}
	s := &Server{
		uiConfig: uiConfig,
		client:   client.InitClient(uiConfig, log),
		index:    index,
		log:      log,
	}
	r := chi.NewRouter()
	r.Get("/", s.handleIndex())
	r.Get("/themes", s.handleThemes())
	srv := &http.Server{
		Addr:         uiConfig.UIAddress,
		Handler:      r,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
	}
	return srv, nil
}

func (s *Server) handleIndex() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		data := pageData{
			Theme:      themes.Get(s.uiConfig.Theme),
			APIAddress: s.uiConfig.APIAddress,
		}
		g, gCtx := errgroup.WithContext(ctx)
		g.Go(func() error {
			queueStatus, err := s.client.GetQueueStatus(gCtx)
			if err != nil {
				return err
			}
			data.Queue = *queueStatus
			return nil
		})
		g.Go(func() error {
			trainStatus, err := s.client.GetTrainStatus(gCtx)
			if err != nil {
				return err
			}
			data.Train = *trainStatus
			return nil
		})
		err := g.Wait()
		if err != nil {
			s.log.Error().Err(err).Msg("could not fetch state for the status page")
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		err = s.index.Execute(w, data)
		if err != nil {
			s.log.Error().Err(err).Msg("could not render the status page")
		}
	}
}

func (s *Server) handleThemes() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resBody, err := json.Marshal(themes.ByCategory())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, err = w.Write(resBody)
		if err != nil {
			s.log.Error().Err(err).Msg("writing response body failed")
		}
	}
}
