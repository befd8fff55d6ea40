package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/parvatipole/Final-Coffee-Manager-proversion/config"
	"github.com/parvatipole/Final-Coffee-Manager-proversion/internal/model"
	"github.com/parvatipole/Final-Coffee-Manager-proversion/internal/store"
)

// Recorder persists a reading for a machine identified by its external identifier.
type Recorder interface {
	ApplyTelemetry(ctx context.Context, machineID string, u model.MachineUpdate) (*model.Machine, error)
}

// Service periodically pulls machine readings from the upstream telemetry API.
type Service struct {
	cfg      config.TelemetryConfig
	recorder Recorder
	client   *http.Client
	log      *slog.Logger
}

// NewService creates and initializes a new telemetry poller.
func NewService(cfg config.TelemetryConfig, recorder Recorder, log *slog.Logger) *Service {
	log = log.With(slog.String("component", "telemetry"))

	var transport http.RoundTripper = &http.Transport{}
	if cfg.HTTPProxy != "" {
		proxyURL, err := url.Parse(cfg.HTTPProxy)
		if err != nil {
			log.Warn("invalid proxy URL, polling without a proxy", slog.String("proxy", cfg.HTTPProxy), slog.Any("error", err))
		} else {
			transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
		}
	}

	return &Service{
		cfg:      cfg,
		recorder: recorder,
		client: &http.Client{
			Transport: transport,
			Timeout:   30 * time.Second,
		},
		log: log,
	}
}

// Run polls in a loop until ctx is cancelled.
func (s *Service) Run(ctx context.Context) {
	if !s.cfg.Enabled {
		s.log.Info("telemetry polling is disabled")
		return
	}
	s.log.Info("starting telemetry poller", slog.Duration("interval", s.cfg.Interval))

	s.PollOnce(ctx)

	timer := time.NewTimer(s.cfg.Interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("telemetry poller shutting down")
			return
		case <-timer.C:
			s.PollOnce(ctx)
			timer.Reset(s.cfg.Interval)
		}
	}
}

// PollOnce fetches every page of readings and records each of them. It
// returns the number of readings applied.
func (s *Service) PollOnce(ctx context.Context) int {
	s.log.Debug("executing poll cycle")

	var readings []Reading
	total := 1
	pageSize := s.cfg.PageSize
	if pageSize <= 0 {
		pageSize = 100
	}
	for page := 1; (page-1)*pageSize < total; page++ {
		resp, err := s.fetchPage(ctx, page, pageSize)
		if err != nil {
			s.log.Error("failed to fetch telemetry page", slog.Int("page", page), slog.Any("error", err))
			break
		}
		if resp.Data.Total == 0 || len(resp.Data.Items) == 0 {
			break
		}
		total = resp.Data.Total
		readings = append(readings, resp.Data.Items...)
	}

	applied := 0
	for _, r := range readings {
		if err := s.apply(ctx, r); err != nil {
			level := slog.LevelWarn
			if errors.Is(err, store.ErrNotFound) {
				level = slog.LevelDebug
			}
			s.log.Log(ctx, level, "skipping reading", slog.String("machine_id", r.MachineID), slog.Any("error", err))
			continue
		}
		applied++
	}

	s.log.Info("poll cycle finished", slog.Int("received", len(readings)), slog.Int("applied", applied))
	return applied
}

func (s *Service) apply(ctx context.Context, r Reading) error {
	if r.MachineID == "" {
		return fmt.Errorf("reading has no machine id")
	}
	u, err := r.Update()
	if err != nil {
		return err
	}
	_, err = s.recorder.ApplyTelemetry(ctx, r.MachineID, u)
	return err
}

// fetchPage fetches a single page of readings from the upstream API.
func (s *Service) fetchPage(ctx context.Context, page, pageSize int) (*ApiResponse, error) {
	jsonBody, err := json.Marshal(map[string]int{"page": page, "pageSize": pageSize})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.URL, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for key, value := range s.cfg.Headers {
		req.Header.Set(key, value)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("received non-200 status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var apiResp ApiResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal api response: %w", err)
	}

	if apiResp.Code != 0 {
		return nil, fmt.Errorf("API returned non-zero application code: %d", apiResp.Code)
	}

	return &apiResp, nil
}
